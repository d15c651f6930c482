package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"travelenda/internal/shared/utils/response"
	"travelenda/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const sessionKey = "session"

type sessionCtxKey struct{}

// SessionUser is the identity carried by a verified access token.
type SessionUser struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Role  string    `json:"role"`
}

// SessionProfile is the profile slice handlers may read.
type SessionProfile struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	AvatarURL string `json:"avatar_url"`
}

// Session is built once per request and is read-only for handlers.
type Session struct {
	User      SessionUser     `json:"user"`
	Profile   *SessionProfile `json:"profile,omitempty"`
	Token     string          `json:"-"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// ProfileLoader is an interface to avoid circular dependency with the auth package
type ProfileLoader interface {
	LoadSessionProfile(ctx context.Context, userID uuid.UUID) (*SessionProfile, error)
}

var (
	ErrMissingToken = errors.New("authorization header is required")
	ErrTokenFormat  = errors.New("authorization header format must be Bearer {token}")
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Authenticator verifies access tokens issued by the auth provider.
type Authenticator struct {
	secret   []byte
	audience string
	profiles ProfileLoader
	log      *logger.Logger
}

// NewAuthenticator creates an authenticator. profiles may be nil.
func NewAuthenticator(secret string, profiles ProfileLoader, log *logger.Logger) *Authenticator {
	if log == nil {
		log = logger.GetDefault()
	}
	return &Authenticator{
		secret:   []byte(secret),
		audience: "authenticated",
		profiles: profiles,
		log:      log,
	}
}

// RequireSession rejects requests without a valid bearer token.
func (a *Authenticator) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := a.authenticate(c)
		if err != nil {
			a.log.LogAuthFailure(c.Request.Context(), err.Error(), c.ClientIP())
			response.RespondJSON(c, "error", http.StatusUnauthorized, err.Error(), nil, nil)
			c.Abort()
			return
		}

		a.attach(c, session)
		c.Next()
	}
}

// OptionalSession attaches a session when a valid token is present but never rejects.
func (a *Authenticator) OptionalSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}

		if session, err := a.authenticate(c); err == nil {
			a.attach(c, session)
		}
		c.Next()
	}
}

// Verify parses a raw access token into a session without loading the profile.
func (a *Authenticator) Verify(tokenString string) (*Session, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	if !claims.VerifyAudience(a.audience, true) {
		return nil, ErrInvalidToken
	}

	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, ErrInvalidToken
	}

	session := &Session{
		User:  SessionUser{ID: userID},
		Token: tokenString,
	}
	session.User.Email, _ = claims["email"].(string)
	session.User.Role, _ = claims["role"].(string)
	if exp, ok := claims["exp"].(float64); ok {
		session.ExpiresAt = time.Unix(int64(exp), 0)
	}

	return session, nil
}

func (a *Authenticator) authenticate(c *gin.Context) (*Session, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, ErrMissingToken
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, ErrTokenFormat
	}

	session, err := a.Verify(parts[1])
	if err != nil {
		return nil, err
	}

	if a.profiles != nil {
		profile, err := a.profiles.LoadSessionProfile(c.Request.Context(), session.User.ID)
		if err != nil {
			a.log.WithError(err).Warn("⚠️ Failed to load session profile", "user_id", session.User.ID.String())
		} else {
			session.Profile = profile
		}
	}

	return session, nil
}

func (a *Authenticator) attach(c *gin.Context, session *Session) {
	c.Set(sessionKey, session)
	c.Set("user_id", session.User.ID.String())
	c.Request = c.Request.WithContext(WithSession(c.Request.Context(), session))
}

// WithSession returns a copy of ctx carrying session.
func WithSession(ctx context.Context, session *Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey{}, session)
}

// SessionFromContext returns the session injected by the authenticator, if any.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	session, ok := ctx.Value(sessionCtxKey{}).(*Session)
	return session, ok && session != nil
}

// GetSession returns the session attached to the gin context, if any.
func GetSession(c *gin.Context) (*Session, bool) {
	value, exists := c.Get(sessionKey)
	if !exists {
		return nil, false
	}
	session, ok := value.(*Session)
	return session, ok && session != nil
}

// UserID returns the authenticated user id, or nil for anonymous requests.
func UserID(c *gin.Context) *uuid.UUID {
	session, ok := GetSession(c)
	if !ok {
		return nil
	}
	id := session.User.ID
	return &id
}
