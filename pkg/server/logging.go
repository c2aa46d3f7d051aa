package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// requestIDHeader is the header a caller can set to propagate its own
// correlation id; one is generated with google/uuid when absent.
const requestIDHeader = "X-Request-Id"

// loggingMiddleware logs one structured line per request via zap: method,
// path, status, duration, and request id.
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header(requestIDHeader, requestID)

		c.Next()

		logger.Info("http_request",
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

// recoveryMiddleware converts a panic inside a handler into a 500
// EvaluationError response instead of crashing the process, logging through
// the injected zap logger rather than gin's default writer.
func recoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.String("path", c.FullPath()))
				writeError(c, apiError{status: 500, code: "EVALUATION_ERROR", message: "internal error"})
				c.Abort()
			}
		}()
		c.Next()
	}
}
