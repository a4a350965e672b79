package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Sharatdevadiga/careerflow-api-server/internal/apperr"
)

// RateCounter counts requests per client within a fixed window.
type RateCounter interface {
	IncrementClientRateLimit(ctx context.Context, clientIP string) (int64, error)
}

// RateLimit rejects clients that exceed maxPerMinute. Counter failures let the
// request through.
func RateLimit(counter RateCounter, maxPerMinute int, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		count, err := counter.IncrementClientRateLimit(ctx, ip)
		if err != nil {
			logger.Error("failed to check rate limit",
				zap.String("ip", ip),
				zap.Error(err),
			)
			c.Next()
			return
		}

		if count > int64(maxPerMinute) {
			logger.Warn("rate limit exceeded",
				zap.String("ip", ip),
				zap.Int64("count", count),
			)

			_ = c.Error(apperr.New(apperr.RateLimited, "Too many requests from this IP, please try again in a minute"))
			c.Abort()
			return
		}

		c.Next()
	}
}
