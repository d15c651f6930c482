package search

import (
	"net/http"

	"travelenda/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	builder *Builder
}

func NewController(builder *Builder) *Controller {
	return &Controller{builder: builder}
}

// SearchResponse is the navigation target for a submitted search form
type SearchResponse struct {
	Query     Query  `json:"query"`
	Canonical string `json:"canonical"`
	Location  string `json:"location"`
}

// Search godoc
// @Summary      Validate a hotel search
// @Description  Validates the search form and returns the canonical results location
// @Tags         search
// @Accept       json
// @Produce      json
// @Param        form  body      Form  true  "Search form"
// @Success      200   {object}  response.StandardApiResponse
// @Failure      400   {object}  response.StandardApiResponse
// @Router       /search [post]
func (c *Controller) Search(ctx *gin.Context) {
	var form Form
	if err := ctx.ShouldBindJSON(&form); err != nil {
		response.RespondError(ctx, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	query, err := c.builder.Build(form)
	if err != nil {
		if inputErr := IsInputError(err); inputErr != nil {
			response.RespondError(ctx, http.StatusBadRequest, "Please correct the highlighted fields", inputErr.Fields())
			return
		}
		response.RespondError(ctx, http.StatusInternalServerError, "Failed to validate search", nil)
		return
	}

	canonical := query.Encode()
	response.RespondSuccess(ctx, http.StatusOK, "Search is valid", SearchResponse{
		Query:     query,
		Canonical: canonical,
		Location:  "/hotels?" + canonical,
	})
}
