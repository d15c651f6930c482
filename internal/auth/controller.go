package auth

import (
	"errors"
	"net/http"

	"travelenda/internal/shared/middleware"
	"travelenda/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type Controller struct {
	service   Service
	validator *validator.Validate
}

func NewController(service Service) *Controller {
	return &Controller{
		service:   service,
		validator: validator.New(),
	}
}

// SignUp godoc
// @Summary      Create an account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body  SignUpRequest  true  "Account details"
// @Success      201  {object}  response.StandardApiResponse
// @Failure      400  {object}  response.StandardApiResponse
// @Failure      409  {object}  response.StandardApiResponse
// @Router       /auth/signup [post]
func (c *Controller) SignUp(ctx *gin.Context) {
	var req SignUpRequest
	if !c.bind(ctx, &req) {
		return
	}

	result, err := c.service.SignUp(ctx.Request.Context(), &req)
	if err != nil {
		c.respondError(ctx, err, "Failed to sign up")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Account created successfully", result, nil)
}

// SignIn godoc
// @Summary      Sign in with email and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body  SignInRequest  true  "Credentials"
// @Success      200  {object}  response.StandardApiResponse
// @Failure      401  {object}  response.StandardApiResponse
// @Router       /auth/signin [post]
func (c *Controller) SignIn(ctx *gin.Context) {
	var req SignInRequest
	if !c.bind(ctx, &req) {
		return
	}

	result, err := c.service.SignIn(ctx.Request.Context(), &req)
	if err != nil {
		c.respondError(ctx, err, "Failed to sign in")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Signed in successfully", result, nil)
}

// SignOut godoc
// @Summary      Revoke the current session
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.StandardApiResponse
// @Router       /auth/signout [post]
func (c *Controller) SignOut(ctx *gin.Context) {
	session, ok := middleware.GetSession(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	if err := c.service.SignOut(ctx.Request.Context(), session.Token); err != nil && !errors.Is(err, ErrInvalidToken) {
		c.respondError(ctx, err, "Failed to sign out")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Signed out successfully", nil, nil)
}

// ResetPassword godoc
// @Summary      Send a password reset email
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body  ResetPasswordRequest  true  "Account email"
// @Success      200  {object}  response.StandardApiResponse
// @Router       /auth/reset-password [post]
func (c *Controller) ResetPassword(ctx *gin.Context) {
	var req ResetPasswordRequest
	if !c.bind(ctx, &req) {
		return
	}

	if err := c.service.ResetPassword(ctx.Request.Context(), &req); err != nil && IsUnavailable(err) {
		c.respondError(ctx, err, "Failed to send reset email")
		return
	}

	// Same answer whether or not the account exists.
	response.RespondJSON(ctx, "success", http.StatusOK, "If an account exists for this email, a reset link has been sent", nil, nil)
}

// GetMe godoc
// @Summary      Current user and profile
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.StandardApiResponse
// @Failure      401  {object}  response.StandardApiResponse
// @Router       /auth/me [get]
func (c *Controller) GetMe(ctx *gin.Context) {
	session, ok := middleware.GetSession(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "User data retrieved successfully", session, nil)
}

// UpdateProfile godoc
// @Summary      Update the current user's profile
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body  UpdateProfileRequest  true  "Fields to change"
// @Success      200  {object}  response.StandardApiResponse
// @Failure      400  {object}  response.StandardApiResponse
// @Failure      404  {object}  response.StandardApiResponse
// @Router       /auth/profile [put]
func (c *Controller) UpdateProfile(ctx *gin.Context) {
	userID := middleware.UserID(ctx)
	if userID == nil {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	var req UpdateProfileRequest
	if !c.bind(ctx, &req) {
		return
	}

	profile, err := c.service.UpdateProfile(ctx.Request.Context(), *userID, &req)
	if err != nil {
		c.respondError(ctx, err, "Failed to update profile")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Profile updated successfully", profile, nil)
}

func (c *Controller) bind(ctx *gin.Context, req interface{}) bool {
	if err := ctx.ShouldBindJSON(req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return false
	}

	if err := c.validator.Struct(req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Validation failed", nil, err.Error())
		return false
	}
	return true
}

func (c *Controller) respondError(ctx *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Invalid email or password", nil, nil)
	case errors.Is(err, ErrUserAlreadyExists):
		response.RespondJSON(ctx, "error", http.StatusConflict, "User with this email already exists", nil, nil)
	case errors.Is(err, ErrInvalidToken):
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Invalid or expired session", nil, nil)
	case errors.Is(err, ErrProfileNotFound):
		response.RespondJSON(ctx, "error", http.StatusNotFound, "Profile not found", nil, nil)
	case IsUnavailable(err):
		response.RespondRetryable(ctx, http.StatusBadGateway, "The sign-in service is unavailable. Please try again.")
	default:
		var providerErr *ProviderError
		if errors.As(err, &providerErr) && providerErr.StatusCode >= 400 && providerErr.StatusCode < 500 {
			response.RespondJSON(ctx, "error", http.StatusBadRequest, providerErr.Message, nil, nil)
			return
		}
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, fallback, nil, nil)
	}
}
