package ratelimit

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "rate_limit:"

// Middleware limits each client IP to limit requests per window, counted in
// Redis so all instances share the budget. When Redis is unreachable the
// limiter fails open: availability beats throttling accuracy here.
func Middleware(rdb *redis.Client, limit int, window time.Duration, logger *log.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = log.Default()
	}
	return func(c *gin.Context) {
		key := keyPrefix + c.ClientIP()
		ctx := c.Request.Context()

		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			logger.Warn("rate limiter unavailable, allowing request", "err", err)
			c.Next()
			return
		}

		if count == 1 {
			if err := rdb.Expire(ctx, key, window).Err(); err != nil {
				logger.Warn("setting rate limit window failed", "err", err)
			}
		}

		if count > int64(limit) {
			logger.Warn("rate limit exceeded", "ip", c.ClientIP())
			c.JSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error":   "too many requests, please try again later",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
