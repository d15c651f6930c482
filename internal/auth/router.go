package auth

import (
	"travelenda/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupAuthRoutes registers the account endpoints
func SetupAuthRoutes(rg *gin.RouterGroup, controller *Controller, authenticator *middleware.Authenticator) {
	auth := rg.Group("/auth")
	{
		// Public routes (no authentication required)
		auth.POST("/signup", controller.SignUp)                // POST /api/v1/auth/signup
		auth.POST("/signin", controller.SignIn)                // POST /api/v1/auth/signin
		auth.POST("/reset-password", controller.ResetPassword) // POST /api/v1/auth/reset-password

		// Protected routes (authentication required)
		protected := auth.Group("")
		protected.Use(authenticator.RequireSession())
		{
			protected.POST("/signout", controller.SignOut)       // POST /api/v1/auth/signout
			protected.GET("/me", controller.GetMe)               // GET /api/v1/auth/me
			protected.PUT("/profile", controller.UpdateProfile) // PUT /api/v1/auth/profile
		}
	}
}
