package hotels

import "github.com/gin-gonic/gin"

// SetupHotelRoutes configures hotel browsing routes
func SetupHotelRoutes(rg *gin.RouterGroup, controller *Controller) {
	hotels := rg.Group("/hotels")
	{
		hotels.GET("", controller.SearchHotels) // GET /api/v1/hotels?destination=...&checkin=...
		hotels.GET("/:id", controller.GetHotel) // GET /api/v1/hotels/:id?checkin=...
	}
}
