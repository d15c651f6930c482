package checkout

import (
	"errors"
	"net/http"
	"time"

	"travelenda/internal/hotels"
	"travelenda/internal/liteapi"
	"travelenda/internal/search"
	"travelenda/internal/shared/middleware"
	"travelenda/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	service    Service
	builder    *search.Builder
	sessionTTL time.Duration
}

func NewController(service Service, builder *search.Builder, sessionTTL time.Duration) *Controller {
	return &Controller{service: service, builder: builder, sessionTTL: sessionTTL}
}

// StartCheckout godoc
// @Summary      Start a checkout for a room rate
// @Description  Re-fetches and verifies the selected rate, prices it and opens a session at the guest step
// @Tags         checkout
// @Accept       json
// @Produce      json
// @Param        request  body  StartCheckoutRequest  true  "Hotel, room and stay"
// @Success      201  {object}  response.StandardApiResponse
// @Failure      400  {object}  response.StandardApiResponse
// @Failure      404  {object}  response.StandardApiResponse
// @Failure      502  {object}  response.StandardApiResponse
// @Router       /checkout [post]
func (c *Controller) StartCheckout(ctx *gin.Context) {
	var req StartCheckoutRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondError(ctx, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	query, err := c.builder.Build(req.Form)
	if err != nil {
		if inputErr := search.IsInputError(err); inputErr != nil {
			response.RespondError(ctx, http.StatusBadRequest, "Invalid stay parameters", inputErr.Fields())
			return
		}
		response.RespondError(ctx, http.StatusBadRequest, "Invalid stay parameters", err.Error())
		return
	}

	session, err := c.service.Start(ctx.Request.Context(), Stay{
		HotelID: req.HotelID,
		RoomID:  req.RoomID,
		Query:   query,
	}, middleware.UserID(ctx))
	if err != nil {
		c.respondError(ctx, nil, err)
		return
	}

	response.RespondSuccess(ctx, http.StatusCreated, "Checkout started", session.View(c.sessionTTL))
}

// GetCheckout godoc
// @Summary      Current state of a checkout
// @Tags         checkout
// @Produce      json
// @Param        id  path  string  true  "Checkout session ID"
// @Success      200  {object}  response.StandardApiResponse
// @Failure      404  {object}  response.StandardApiResponse
// @Router       /checkout/{id} [get]
func (c *Controller) GetCheckout(ctx *gin.Context) {
	session, err := c.service.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		c.respondError(ctx, nil, err)
		return
	}
	response.RespondSuccess(ctx, http.StatusOK, "Checkout retrieved", session.View(c.sessionTTL))
}

// SubmitGuest godoc
// @Summary      Submit guest details
// @Description  Moves the checkout to the payment step when every field is filled and the email is valid
// @Tags         checkout
// @Accept       json
// @Produce      json
// @Param        id       path  string        true  "Checkout session ID"
// @Param        request  body  GuestRequest  true  "Guest details"
// @Success      200  {object}  response.StandardApiResponse
// @Failure      409  {object}  response.StandardApiResponse
// @Failure      422  {object}  response.StandardApiResponse
// @Router       /checkout/{id}/guest [post]
func (c *Controller) SubmitGuest(ctx *gin.Context) {
	var req GuestRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondError(ctx, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	session, err := c.service.SubmitGuest(ctx.Request.Context(), ctx.Param("id"), req.GuestInfo)
	if err != nil {
		c.respondError(ctx, session, err)
		return
	}
	response.RespondSuccess(ctx, http.StatusOK, "Guest details saved", session.View(c.sessionTTL))
}

// Back godoc
// @Summary      Return from payment to guest details
// @Tags         checkout
// @Produce      json
// @Param        id  path  string  true  "Checkout session ID"
// @Success      200  {object}  response.StandardApiResponse
// @Failure      409  {object}  response.StandardApiResponse
// @Router       /checkout/{id}/back [post]
func (c *Controller) Back(ctx *gin.Context) {
	session, err := c.service.Back(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		c.respondError(ctx, session, err)
		return
	}
	response.RespondSuccess(ctx, http.StatusOK, "Returned to guest details", session.View(c.sessionTTL))
}

// SubmitPayment godoc
// @Summary      Submit payment and book
// @Description  Card data is forwarded to the provider once and never stored
// @Tags         checkout
// @Accept       json
// @Produce      json
// @Param        id       path  string          true  "Checkout session ID"
// @Param        request  body  PaymentRequest  true  "Payment details"
// @Success      200  {object}  response.StandardApiResponse
// @Failure      409  {object}  response.StandardApiResponse
// @Failure      422  {object}  response.StandardApiResponse
// @Failure      502  {object}  response.StandardApiResponse
// @Failure      504  {object}  response.StandardApiResponse
// @Router       /checkout/{id}/payment [post]
func (c *Controller) SubmitPayment(ctx *gin.Context) {
	var req PaymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondError(ctx, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	session, err := c.service.SubmitPayment(ctx.Request.Context(), ctx.Param("id"), req.PaymentInfo, req.TermsAccepted, middleware.UserID(ctx))
	if err != nil {
		c.respondError(ctx, session, err)
		return
	}
	response.RespondSuccess(ctx, http.StatusOK, "Booking confirmed", session.View(c.sessionTTL))
}

func (c *Controller) respondError(ctx *gin.Context, session *Session, err error) {
	var data interface{}
	if session != nil {
		data = session.View(c.sessionTTL)
	}

	if stepErr := IsStepError(err); stepErr != nil {
		code := http.StatusUnprocessableEntity
		switch {
		case stepErr.Err == nil:
		case stepErr.Message == MsgSubmitTimeout:
			code = http.StatusGatewayTimeout
		case stepErr.Message == MsgRateChanged:
			code = http.StatusConflict
		default:
			code = http.StatusBadGateway
		}
		response.RespondJSON(ctx, "error", code, stepErr.Message, data, response.RetryableError{Retryable: stepErr.Retryable})
		return
	}

	switch {
	case errors.Is(err, ErrSessionNotFound):
		response.RespondError(ctx, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, ErrInvalidStep), errors.Is(err, ErrSubmissionInProgress):
		response.RespondJSON(ctx, "error", http.StatusConflict, err.Error(), data, nil)
	case errors.Is(err, hotels.ErrHotelNotFound):
		response.RespondError(ctx, http.StatusNotFound, "This room is no longer available", nil)
	case liteapi.IsTimeout(err):
		response.RespondRetryable(ctx, http.StatusGatewayTimeout, "The hotel provider did not respond. Please try again.")
	case liteapi.IsRetryable(err):
		response.RespondRetryable(ctx, http.StatusBadGateway, "The hotel provider is unavailable. Please try again.")
	default:
		response.RespondError(ctx, http.StatusInternalServerError, "Something went wrong", nil)
	}
}
