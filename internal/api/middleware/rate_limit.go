package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"chat-api/internal/models"
	"chat-api/internal/services"

	"github.com/gin-gonic/gin"
)

// RateLimitMiddleware throttles authenticated endpoints per user through
// redis counters. When redis is unconfigured or unavailable it fails open:
// the API never trades availability for throttling.
type RateLimitMiddleware struct {
	redisService *services.RedisService
	logger       *slog.Logger
}

func NewRateLimitMiddleware(redisService *services.RedisService, logger *slog.Logger) *RateLimitMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &RateLimitMiddleware{redisService: redisService, logger: logger}
}

// RateLimit allows up to the given number of requests per user and endpoint
// within the window.
func (rm *RateLimitMiddleware) RateLimit(requests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rm.redisService == nil {
			c.Next()
			return
		}

		userID, ok := UserID(c)
		if !ok {
			c.Next()
			return
		}

		key := fmt.Sprintf("rate_limit:%s:%s", userID, c.Request.URL.Path)
		allowed, err := rm.redisService.CheckRateLimit(c.Request.Context(), key, requests, window)
		if err != nil {
			rm.logger.Warn("rate limit check failed, allowing request", "error", err)
			c.Next()
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
				Code:    http.StatusTooManyRequests,
				Message: "Rate limit exceeded",
				Details: fmt.Sprintf("limit is %d requests per %v", requests, window),
			})
			return
		}

		c.Next()
	}
}
