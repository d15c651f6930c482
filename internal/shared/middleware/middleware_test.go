package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"travelenda/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "super-secret-jwt-token-with-at-least-32-characters"

type stubProfiles struct {
	profile *SessionProfile
	err     error
}

func (s stubProfiles) LoadSessionProfile(ctx context.Context, userID uuid.UUID) (*SessionProfile, error) {
	return s.profile, s.err
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func validClaims(userID uuid.UUID) jwt.MapClaims {
	return jwt.MapClaims{
		"sub":   userID.String(),
		"email": "jane@example.com",
		"role":  "authenticated",
		"aud":   "authenticated",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
}

func newEngine(mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", mw, func(c *gin.Context) {
		session, ok := SessionFromContext(c.Request.Context())
		if !ok {
			c.String(http.StatusOK, "anonymous")
			return
		}
		name := ""
		if session.Profile != nil {
			name = session.Profile.FirstName
		}
		c.String(http.StatusOK, session.User.ID.String()+"|"+session.User.Email+"|"+name)
	})
	return r
}

func TestRequireSession(t *testing.T) {
	userID := uuid.New()
	auth := NewAuthenticator(testSecret, stubProfiles{profile: &SessionProfile{FirstName: "Jane"}}, logger.Discard())

	expired := validClaims(userID)
	expired["exp"] = time.Now().Add(-time.Minute).Unix()

	wrongAud := validClaims(userID)
	wrongAud["aud"] = "anon"

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"valid token", "Bearer " + signToken(t, testSecret, validClaims(userID)), http.StatusOK, userID.String() + "|jane@example.com|Jane"},
		{"missing header", "", http.StatusUnauthorized, ""},
		{"not bearer", "Token abc", http.StatusUnauthorized, ""},
		{"wrong secret", "Bearer " + signToken(t, "another-secret", validClaims(userID)), http.StatusUnauthorized, ""},
		{"expired", "Bearer " + signToken(t, testSecret, expired), http.StatusUnauthorized, ""},
		{"wrong audience", "Bearer " + signToken(t, testSecret, wrongAud), http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newEngine(auth.RequireSession())
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestRequireSession_ProfileFailureDoesNotReject(t *testing.T) {
	userID := uuid.New()
	auth := NewAuthenticator(testSecret, stubProfiles{err: errors.New("db down")}, logger.Discard())

	r := newEngine(auth.RequireSession())
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, validClaims(userID)))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID.String()+"|jane@example.com|", w.Body.String())
}

func TestOptionalSession(t *testing.T) {
	auth := NewAuthenticator(testSecret, nil, logger.Discard())
	r := newEngine(auth.OptionalSession())

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "anonymous", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "anonymous", w.Body.String())
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Body.String())
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	_, err := uuid.Parse(w.Body.String())
	assert.NoError(t, err)
}

func TestRequestLogger_TagsRequestAndUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	userID := uuid.New()
	auth := NewAuthenticator(testSecret, nil, logger.Discard())

	r := gin.New()
	r.Use(RequestID(), RequestLogger(logger.NewWithWriter(&buf, "info")))
	r.GET("/me", auth.RequireSession(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(RequestIDHeader, "req-9")
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, validClaims(userID)))
	r.ServeHTTP(httptest.NewRecorder(), req)

	line := buf.String()
	assert.Contains(t, line, `"request_id":"req-9"`)
	assert.Contains(t, line, `"user_id":"`+userID.String()+`"`)
	assert.Contains(t, line, `"status":204`)

	buf.Reset()
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Contains(t, buf.String(), `"status":401`)
	assert.NotContains(t, buf.String(), "user_id")
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer

	r := gin.New()
	r.Use(RequestID(), Recovery(logger.NewWithWriter(&buf, "info")))
	r.GET("/boom", func(c *gin.Context) { panic("nil map") })

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set(RequestIDHeader, "req-10")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"error"`)
	assert.Contains(t, buf.String(), `"error":"panic: nil map"`)
	assert.Contains(t, buf.String(), `"request_id":"req-10"`)
}
