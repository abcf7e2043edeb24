package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"pathgo/internal/utils"
	"pathgo/pkg/cache"
	"pathgo/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CORSMiddleware answers preflight and sets CORS headers from the
// configured allow list. "*" allows any origin.
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowAll := len(allowedOrigins) == 0
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if allowAll {
			c.Header("Access-Control-Allow-Origin", "*")
		} else if allowed[origin] {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		c.Header("Access-Control-Expose-Headers", "Content-Length, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// RequestIDMiddleware tags every request with an id for log correlation.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = primitive.NewObjectID().Hex()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// LoggingMiddleware emits one structured line per request.
func LoggingMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		entry := log.WithField("method", c.Request.Method).
			WithField("path", path).
			WithField("status", c.Writer.Status()).
			WithField("latency_ms", time.Since(start).Milliseconds()).
			WithField("ip", c.ClientIP())
		if requestID := c.GetString("request_id"); requestID != "" {
			entry = entry.WithField("request_id", requestID)
		}

		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			entry.Error("request failed")
		case c.Writer.Status() >= http.StatusBadRequest:
			entry.Warn("request rejected")
		case strings.HasPrefix(path, "/health"):
			// keep health checks out of the logs
		default:
			entry.Info("request")
		}
	}
}

// RateLimitMiddleware caps requests per client IP using a fixed
// one-minute Redis window. Fails open when Redis is down.
func RateLimitMiddleware(redis *cache.RedisCache, perMinute int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if perMinute <= 0 {
			c.Next()
			return
		}

		key := fmt.Sprintf("ratelimit:%s:%s", c.ClientIP(), time.Now().Format("200601021504"))
		count, err := redis.Increment(c.Request.Context(), key)
		if err != nil {
			c.Next()
			return
		}
		if count == 1 {
			_ = redis.SetExpire(c.Request.Context(), key, time.Minute)
		}
		if count > int64(perMinute) {
			utils.ErrorResponse(c, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests, slow down")
			c.Abort()
			return
		}
		c.Next()
	}
}
