package search

import "github.com/gin-gonic/gin"

// SetupSearchRoutes configures the search form endpoint
func SetupSearchRoutes(rg *gin.RouterGroup, controller *Controller) {
	rg.POST("/search", controller.Search) // POST /api/v1/search
}
