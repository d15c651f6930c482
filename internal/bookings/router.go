package bookings

import (
	"travelenda/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupBookingRoutes configures all booking-related routes
func SetupBookingRoutes(rg *gin.RouterGroup, controller *Controller, auth *middleware.Authenticator) {
	bookings := rg.Group("/bookings")
	{
		// Guests who checked out without an account can still reach their confirmation
		bookings.GET("/:id", auth.OptionalSession(), controller.GetBooking)           // GET /api/v1/bookings/:id
		bookings.GET("/:id/export", auth.OptionalSession(), controller.ExportBooking) // GET /api/v1/bookings/:id/export
		bookings.GET("/:id/share", auth.OptionalSession(), controller.ShareBooking)   // GET /api/v1/bookings/:id/share
		bookings.POST("/:id/cancel", auth.RequireSession(), controller.CancelBooking) // POST /api/v1/bookings/:id/cancel
	}

	users := rg.Group("/users")
	users.Use(auth.RequireSession())
	{
		users.GET("/bookings", controller.GetUserBookings) // GET /api/v1/users/bookings
	}
}

// Route definitions for reference:
//
// BOOKING RETRIEVAL
// GET    /api/v1/bookings/:id                      - Confirmation record
// GET    /api/v1/bookings/:id/export               - Plain-text confirmation download
// GET    /api/v1/bookings/:id/share                - {title, text, url, clipboard}
//
// BOOKING CANCELLATION
// POST   /api/v1/bookings/:id/cancel               - Cancel a confirmed or pending booking
// Request body: { "reason": "change of plans" }
//
// USER BOOKINGS
// GET    /api/v1/users/bookings?status=&limit=10&offset=0
//
// Bookings are created by POST /api/v1/checkout/:id/payment, never directly.
