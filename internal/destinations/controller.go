package destinations

import (
	"net/http"
	"strconv"

	"travelenda/internal/liteapi"
	"travelenda/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// Suggest godoc
// @Summary      Destination autocomplete
// @Description  Suggestions for a partial destination name. Always succeeds; failures return an empty list.
// @Tags         destinations
// @Produce      json
// @Param        q      query  string  true   "Partial destination"
// @Param        limit  query  int     false  "Maximum suggestions"
// @Success      200  {object}  response.StandardApiResponse
// @Router       /destinations [get]
func (c *Controller) Suggest(ctx *gin.Context) {
	limit, err := strconv.Atoi(ctx.DefaultQuery("limit", strconv.Itoa(DefaultLimit)))
	if err != nil {
		limit = DefaultLimit
	}

	suggestions := c.service.Suggest(ctx.Request.Context(), ctx.Query("q"), limit)
	response.RespondSuccess(ctx, http.StatusOK, "Suggestions retrieved successfully", gin.H{
		"suggestions": suggestions,
		"labels":      labels(suggestions),
	})
}

func labels(suggestions []liteapi.Destination) []string {
	out := make([]string, 0, len(suggestions))
	for _, d := range suggestions {
		out = append(out, Label(d))
	}
	return out
}
