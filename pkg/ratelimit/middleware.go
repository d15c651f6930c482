package ratelimit

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"travelenda/internal/shared/utils/response"
	"travelenda/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Middleware limits every request by the class of its route. A Redis failure lets the request through.
func Middleware(rateLimiter *RateLimiter, log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		log = logger.GetDefault()
	}

	return func(c *gin.Context) {
		clientIP := getClientIP(c)
		limitType := getRateLimitType(c.Request.Method, c.FullPath())

		result, err := rateLimiter.IsAllowed(c.Request.Context(), clientIP, limitType)
		if err != nil {
			log.LogCacheError(c.Request.Context(), "ratelimit", string(limitType), err)
			c.Next()
			return
		}

		// Set rate limit headers
		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", result.Limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", result.Remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", result.ResetTime))

		if !result.Allowed {
			log.LogRateLimitExceeded(c.Request.Context(), clientIP, c.FullPath())
			response.RespondJSON(c, "error", http.StatusTooManyRequests,
				"Too many requests. Please slow down and try again shortly.", nil, map[string]interface{}{
					"limit":      result.Limit,
					"reset_time": result.ResetTime,
					"retryable":  true,
				})
			c.Abort()
			return
		}

		c.Next()
	}
}

func getRateLimitType(method, path string) RateLimitType {
	switch {
	// Health/monitoring endpoints
	case strings.HasPrefix(path, "/health"),
		strings.HasPrefix(path, "/ping"),
		strings.HasPrefix(path, "/status"):
		return RateLimitTypeHealth

	// Credential endpoints; reading the profile counts as a user request
	case strings.Contains(path, "/auth/") && method != http.MethodGet && !strings.HasSuffix(path, "/profile"):
		return RateLimitTypeAuth
	case strings.Contains(path, "/auth/"):
		return RateLimitTypeUser

	// Requests that reach the provider's booking endpoints
	case strings.HasSuffix(path, "/checkout/:id/payment"),
		strings.HasSuffix(path, "/bookings/:id/cancel"):
		return RateLimitTypeCheckoutCritical

	// Destination autocomplete fires on every keystroke
	case strings.Contains(path, "/destinations"):
		return RateLimitTypeAutocomplete

	// Search and hotel browsing
	case strings.HasSuffix(path, "/search"),
		strings.Contains(path, "/hotels"):
		return RateLimitTypeSearch

	// User-specific endpoints
	case strings.Contains(path, "/users/"):
		return RateLimitTypeUser

	// Rest of the checkout and booking flow
	case strings.Contains(path, "/checkout"),
		strings.Contains(path, "/bookings"):
		return RateLimitTypeBooking

	default:
		return RateLimitTypeDefault
	}
}

// extracts real client IP
func getClientIP(c *gin.Context) string {
	// Check X-Forwarded-For header
	xForwardedFor := c.GetHeader("X-Forwarded-For")
	if xForwardedFor != "" {
		ips := strings.Split(xForwardedFor, ",")
		if len(ips) > 0 {
			ip := strings.TrimSpace(ips[0])
			if net.ParseIP(ip) != nil {
				return ip
			}
		}
	}

	// Check X-Real-IP header
	xRealIP := c.GetHeader("X-Real-IP")
	if xRealIP != "" {
		if net.ParseIP(xRealIP) != nil {
			return xRealIP
		}
	}

	// Fall back to RemoteAddr
	ip, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.Request.RemoteAddr
	}

	return ip
}
