package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/amiyamandal-dev/topalbums/pkg/logger"
)

// RequestIDHeader carries the request ID in both directions
const RequestIDHeader = "X-Request-ID"

// LoggerMiddleware creates request logging middleware. It reuses an incoming
// X-Request-ID or assigns one, and echoes it on the response.
func LoggerMiddleware(log *logger.Logger) gin.HandlerFunc {
	log = log.WithComponent("http")

	return func(c *gin.Context) {
		startTime := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" || len(requestID) > 64 {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header(RequestIDHeader, requestID)

		// Process request
		c.Next()

		statusCode := c.Writer.Status()
		fields := []interface{}{
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", statusCode,
			"duration_ms", time.Since(startTime).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if subject := GetSubject(c); subject != "" {
			fields = append(fields, "subject", subject)
		}

		switch {
		case statusCode >= 500:
			log.Warn("HTTP request", fields...)
		case c.Request.URL.Path == "/health/live" || c.Request.URL.Path == "/metrics":
			log.Debug("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}

		if len(c.Errors) > 0 {
			log.Error("Request errors", "request_id", requestID, "errors", c.Errors.String())
		}
	}
}

// GetRequestID returns the ID assigned by LoggerMiddleware
func GetRequestID(c *gin.Context) string {
	return c.GetString("request_id")
}
