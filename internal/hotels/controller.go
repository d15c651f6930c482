package hotels

import (
	"errors"
	"net/http"

	"travelenda/internal/liteapi"
	"travelenda/internal/search"
	"travelenda/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	service Service
	builder *search.Builder
}

func NewController(service Service, builder *search.Builder) *Controller {
	return &Controller{service: service, builder: builder}
}

// SearchHotels godoc
// @Summary      Search hotels
// @Description  One page of hotels for a canonical search query, filtered and sorted by the provider
// @Tags         hotels
// @Produce      json
// @Param        destination  query  string  true   "Destination"
// @Param        checkin      query  string  true   "Check-in date (YYYY-MM-DD)"
// @Param        checkout     query  string  true   "Check-out date (YYYY-MM-DD)"
// @Param        adults       query  int     false  "Adults"
// @Param        children     query  int     false  "Children"
// @Param        rooms        query  int     false  "Rooms"
// @Param        stars        query  string  false  "Comma separated star ratings"
// @Param        amenities    query  string  false  "Comma separated amenities"
// @Param        sort         query  string  false  "rating, price_asc or price_desc"
// @Param        page         query  int     false  "Page number"
// @Success      200  {object}  response.StandardApiResponse
// @Failure      400  {object}  response.StandardApiResponse
// @Failure      502  {object}  response.StandardApiResponse
// @Router       /hotels [get]
func (c *Controller) SearchHotels(ctx *gin.Context) {
	values := ctx.Request.URL.Query()

	query, err := c.builder.ParseValues(values)
	if err != nil {
		respondQueryError(ctx, err)
		return
	}

	opts, err := ParseOptions(values)
	if err != nil {
		response.RespondError(ctx, http.StatusBadRequest, err.Error(), nil)
		return
	}

	result, err := c.service.Search(ctx.Request.Context(), query, opts)
	if err != nil {
		respondServiceError(ctx, err, "We couldn't load hotels right now. Please try again.")
		return
	}

	response.RespondSuccess(ctx, http.StatusOK, "Hotels retrieved successfully", result)
}

// GetHotel godoc
// @Summary      Hotel details with room rates
// @Tags         hotels
// @Produce      json
// @Param        id  path  string  true  "Hotel ID"
// @Success      200  {object}  response.StandardApiResponse
// @Failure      404  {object}  response.StandardApiResponse
// @Failure      502  {object}  response.StandardApiResponse
// @Router       /hotels/{id} [get]
func (c *Controller) GetHotel(ctx *gin.Context) {
	hotelID := ctx.Param("id")

	query, err := c.builder.ParseValues(ctx.Request.URL.Query())
	if err != nil {
		respondQueryError(ctx, err)
		return
	}

	details, err := c.service.Details(ctx.Request.Context(), hotelID, query)
	if err != nil {
		respondServiceError(ctx, err, "We couldn't load this hotel right now. Please try again.")
		return
	}

	response.RespondSuccess(ctx, http.StatusOK, "Hotel retrieved successfully", details)
}

func respondQueryError(ctx *gin.Context, err error) {
	if inputErr := search.IsInputError(err); inputErr != nil {
		response.RespondError(ctx, http.StatusBadRequest, "Invalid search parameters", inputErr.Fields())
		return
	}
	response.RespondError(ctx, http.StatusBadRequest, "Invalid search parameters", err.Error())
}

func respondServiceError(ctx *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, ErrHotelNotFound):
		response.RespondError(ctx, http.StatusNotFound, "Hotel not found", nil)
	case liteapi.IsTimeout(err):
		response.RespondRetryable(ctx, http.StatusGatewayTimeout, message)
	case liteapi.IsRetryable(err):
		response.RespondRetryable(ctx, http.StatusBadGateway, message)
	default:
		response.RespondError(ctx, http.StatusBadGateway, message, nil)
	}
}
