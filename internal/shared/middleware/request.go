package middleware

import (
	"fmt"
	"net/http"
	"time"

	"travelenda/internal/shared/utils/response"
	"travelenda/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

// RequestID propagates the caller's request id or assigns a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Writer.Header().Set(RequestIDHeader, requestID)
		c.Next()
	}
}

// RequestLogger logs every request once it has been served, tagged with the
// request id and, for authenticated calls, the user id.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		requestLog(log, c).LogHTTPRequest(c, time.Since(start))
	}
}

// Recovery turns a handler panic into a 500 envelope and an error log line.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		requestLog(log, c).LogHTTPError(c, fmt.Errorf("panic: %v", recovered), http.StatusInternalServerError)
		response.RespondError(c, http.StatusInternalServerError, "Internal server error", nil)
		c.Abort()
	})
}

func requestLog(log *logger.Logger, c *gin.Context) *logger.Logger {
	scoped := log.WithRequestID(c.GetString("request_id"))
	if userID := UserID(c); userID != nil {
		scoped = scoped.WithUserID(userID.String())
	}
	return scoped
}
