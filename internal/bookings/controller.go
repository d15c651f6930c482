package bookings

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"travelenda/internal/liteapi"
	"travelenda/internal/shared/middleware"
	"travelenda/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	service       Service
	publicBaseURL string
}

func NewController(service Service, publicBaseURL string) *Controller {
	return &Controller{service: service, publicBaseURL: strings.TrimRight(publicBaseURL, "/")}
}

// GetBooking godoc
// @Summary      Get a booking
// @Description  Anonymous bookings are readable by id; bookings tied to an account only by their owner
// @Tags         bookings
// @Produce      json
// @Param        id  path  string  true  "Booking ID"
// @Success      200  {object}  response.StandardApiResponse
// @Failure      403  {object}  response.StandardApiResponse
// @Failure      404  {object}  response.StandardApiResponse
// @Router       /bookings/{id} [get]
func (c *Controller) GetBooking(ctx *gin.Context) {
	booking, ok := c.loadViewable(ctx)
	if !ok {
		return
	}
	response.RespondSuccess(ctx, http.StatusOK, "Booking retrieved successfully", booking)
}

// CancelBooking godoc
// @Summary      Cancel a booking
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  string                true   "Booking ID"
// @Param        request  body  CancelBookingRequest  false  "Cancellation reason"
// @Success      200  {object}  response.StandardApiResponse
// @Failure      403  {object}  response.StandardApiResponse
// @Failure      409  {object}  response.StandardApiResponse
// @Router       /bookings/{id}/cancel [post]
func (c *Controller) CancelBooking(ctx *gin.Context) {
	bookingID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondError(ctx, http.StatusBadRequest, "Invalid booking ID", nil)
		return
	}

	userID := middleware.UserID(ctx)
	if userID == nil {
		response.RespondError(ctx, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	var req CancelBookingRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			response.RespondError(ctx, http.StatusBadRequest, "Invalid request body", err.Error())
			return
		}
	}

	booking, err := c.service.Cancel(ctx.Request.Context(), bookingID, *userID, req.Reason)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	response.RespondSuccess(ctx, http.StatusOK, "Booking cancelled successfully", booking)
}

// ExportBooking godoc
// @Summary      Download the booking confirmation as text
// @Tags         bookings
// @Produce      plain
// @Param        id  path  string  true  "Booking ID"
// @Success      200  {string}  string
// @Failure      404  {object}  response.StandardApiResponse
// @Router       /bookings/{id}/export [get]
func (c *Controller) ExportBooking(ctx *gin.Context) {
	booking, ok := c.loadViewable(ctx)
	if !ok {
		return
	}

	ctx.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, ExportFilename(booking)))
	ctx.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(ExportText(booking)))
}

// ShareBooking godoc
// @Summary      Share payload for a booking
// @Tags         bookings
// @Produce      json
// @Param        id  path  string  true  "Booking ID"
// @Success      200  {object}  response.StandardApiResponse
// @Failure      404  {object}  response.StandardApiResponse
// @Router       /bookings/{id}/share [get]
func (c *Controller) ShareBooking(ctx *gin.Context) {
	booking, ok := c.loadViewable(ctx)
	if !ok {
		return
	}

	url := c.publicBaseURL + "/bookings/" + booking.ID.String()
	response.RespondSuccess(ctx, http.StatusOK, "Share summary generated", ShareSummary(booking, url))
}

// GetUserBookings godoc
// @Summary      The signed-in user's bookings
// @Tags         bookings
// @Produce      json
// @Security     BearerAuth
// @Param        status  query  string  false  "Filter by status"
// @Param        limit   query  int     false  "Page size"
// @Param        offset  query  int     false  "Offset"
// @Success      200  {object}  response.StandardApiResponse
// @Router       /users/bookings [get]
func (c *Controller) GetUserBookings(ctx *gin.Context) {
	userID := middleware.UserID(ctx)
	if userID == nil {
		response.RespondError(ctx, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	var query ListQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.RespondError(ctx, http.StatusBadRequest, "Invalid query parameters", err.Error())
		return
	}
	query.normalize()

	bookings, total, err := c.service.ListForUser(ctx.Request.Context(), *userID, query)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	response.RespondSuccess(ctx, http.StatusOK, "Bookings retrieved successfully", BookingListResponse{
		Bookings: bookings,
		Total:    total,
		Limit:    query.Limit,
		Offset:   query.Offset,
	})
}

// loadViewable fetches the booking in the path and checks the caller may see it.
func (c *Controller) loadViewable(ctx *gin.Context) (*Booking, bool) {
	bookingID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondError(ctx, http.StatusBadRequest, "Invalid booking ID", nil)
		return nil, false
	}

	booking, err := c.service.Get(ctx.Request.Context(), bookingID)
	if err != nil {
		respondServiceError(ctx, err)
		return nil, false
	}

	if booking.UserID != nil {
		viewer := middleware.UserID(ctx)
		if viewer == nil || !booking.OwnedBy(*viewer) {
			response.RespondError(ctx, http.StatusForbidden, "Access denied", nil)
			return nil, false
		}
	}

	return booking, true
}

func respondServiceError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrBookingNotFound):
		response.RespondError(ctx, http.StatusNotFound, "Booking not found", nil)
	case errors.Is(err, ErrAccessDenied):
		response.RespondError(ctx, http.StatusForbidden, "Access denied", nil)
	case errors.Is(err, ErrNotCancellable), errors.Is(err, ErrInvalidTransition):
		response.RespondError(ctx, http.StatusConflict, err.Error(), nil)
	case liteapi.IsTimeout(err):
		response.RespondRetryable(ctx, http.StatusGatewayTimeout, "The hotel provider did not respond. Please try again.")
	case liteapi.IsRetryable(err):
		response.RespondRetryable(ctx, http.StatusBadGateway, "The hotel provider is unavailable. Please try again.")
	default:
		var apiErr *liteapi.APIError
		if errors.As(err, &apiErr) {
			response.RespondError(ctx, http.StatusBadGateway, apiErr.Message, nil)
			return
		}
		response.RespondError(ctx, http.StatusInternalServerError, "Something went wrong", nil)
	}
}
