package checkout

import (
	"travelenda/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupCheckoutRoutes configures the checkout flow. Signing in is optional;
// a signed-in guest gets the booking attached to their account.
func SetupCheckoutRoutes(rg *gin.RouterGroup, controller *Controller, auth *middleware.Authenticator) {
	checkout := rg.Group("/checkout")
	checkout.Use(auth.OptionalSession())
	{
		checkout.POST("", controller.StartCheckout)             // POST /api/v1/checkout
		checkout.GET("/:id", controller.GetCheckout)            // GET /api/v1/checkout/:id
		checkout.POST("/:id/guest", controller.SubmitGuest)     // POST /api/v1/checkout/:id/guest
		checkout.POST("/:id/back", controller.Back)             // POST /api/v1/checkout/:id/back
		checkout.POST("/:id/payment", controller.SubmitPayment) // POST /api/v1/checkout/:id/payment
	}
}
