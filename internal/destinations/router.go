package destinations

import "github.com/gin-gonic/gin"

// SetupDestinationRoutes configures autocomplete routes
func SetupDestinationRoutes(rg *gin.RouterGroup, controller *Controller) {
	rg.GET("/destinations", controller.Suggest) // GET /api/v1/destinations?q=Par&limit=8
}
