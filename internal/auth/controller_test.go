package auth_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"travelenda/internal/auth"
	"travelenda/internal/auth/mocks"
	"travelenda/internal/shared/middleware"
	"travelenda/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const jwtSecret = "test-secret"

func signToken(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   userID.String(),
		"aud":   "authenticated",
		"email": "jane@example.com",
		"role":  "authenticated",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(jwtSecret))
	require.NoError(t, err)
	return signed
}

type authFixture struct {
	router   *gin.Engine
	provider *mocks.MockProvider
	repo     *mocks.MockRepository
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	provider := new(mocks.MockProvider)
	repo := new(mocks.MockRepository)
	svc := auth.NewService(provider, repo, nil, logger.Discard())
	authenticator := middleware.NewAuthenticator(jwtSecret, auth.NewSessionProfileAdapter(svc), logger.Discard())

	router := gin.New()
	auth.SetupAuthRoutes(router.Group("/api/v1"), auth.NewController(svc), authenticator)
	return &authFixture{router: router, provider: provider, repo: repo}
}

func (f *authFixture) request(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestController_SignIn(t *testing.T) {
	tests := []struct {
		name       string
		body       gin.H
		setup      func(f *authFixture)
		wantStatus int
	}{
		{
			name: "success",
			body: gin.H{"email": "jane@example.com", "password": "secret1"},
			setup: func(f *authFixture) {
				id := uuid.New()
				f.provider.On("SignIn", mock.Anything, "jane@example.com", "secret1").
					Return(&auth.User{ID: id}, &auth.Tokens{AccessToken: "t"}, nil)
				f.repo.On("GetProfile", mock.Anything, id).Return(&auth.Profile{ID: id}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "wrong password",
			body: gin.H{"email": "jane@example.com", "password": "nope"},
			setup: func(f *authFixture) {
				f.provider.On("SignIn", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil, auth.ErrInvalidCredentials)
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "bad email",
			body:       gin.H{"email": "not-an-email", "password": "secret1"},
			setup:      func(f *authFixture) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "provider down",
			body: gin.H{"email": "jane@example.com", "password": "secret1"},
			setup: func(f *authFixture) {
				f.provider.On("SignIn", mock.Anything, mock.Anything, mock.Anything).
					Return(nil, nil, &auth.ProviderError{Op: "signin", StatusCode: http.StatusBadGateway})
			},
			wantStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture(t)
			tt.setup(f)

			w := f.request(http.MethodPost, "/api/v1/auth/signin", "", tt.body)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestController_GetMe(t *testing.T) {
	f := newAuthFixture(t)
	userID := uuid.New()
	f.repo.On("GetProfile", mock.Anything, userID).Return(&auth.Profile{ID: userID, FirstName: "Jane"}, nil)

	w := f.request(http.MethodGet, "/api/v1/auth/me", signToken(t, userID), nil)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data middleware.Session `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, userID, body.Data.User.ID)
	require.NotNil(t, body.Data.Profile)
	assert.Equal(t, "Jane", body.Data.Profile.FirstName)
	assert.NotContains(t, w.Body.String(), "Bearer")
}

func TestController_GetMeRequiresSession(t *testing.T) {
	f := newAuthFixture(t)

	w := f.request(http.MethodGet, "/api/v1/auth/me", "", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestController_UpdateProfile(t *testing.T) {
	f := newAuthFixture(t)
	userID := uuid.New()
	f.repo.On("GetProfile", mock.Anything, userID).Return(&auth.Profile{ID: userID}, nil)
	f.repo.On("UpdateProfile", mock.Anything, userID, map[string]interface{}{"first_name": "Janet"}).
		Return(&auth.Profile{ID: userID, FirstName: "Janet"}, nil)

	w := f.request(http.MethodPut, "/api/v1/auth/profile", signToken(t, userID), gin.H{"first_name": "Janet"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Janet")
}

func TestController_ResetPasswordDoesNotLeakAccounts(t *testing.T) {
	f := newAuthFixture(t)
	f.provider.On("ResetPassword", mock.Anything, "ghost@example.com", "").
		Return(&auth.ProviderError{Op: "reset_password", StatusCode: http.StatusNotFound})

	w := f.request(http.MethodPost, "/api/v1/auth/reset-password", "", gin.H{"email": "ghost@example.com"})

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestController_SignOut(t *testing.T) {
	f := newAuthFixture(t)
	userID := uuid.New()
	token := signToken(t, userID)
	f.repo.On("GetProfile", mock.Anything, userID).Return(nil, auth.ErrProfileNotFound)
	f.provider.On("SignOut", mock.Anything, token).Return(nil)

	w := f.request(http.MethodPost, "/api/v1/auth/signout", token, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	f.provider.AssertExpectations(t)
}
