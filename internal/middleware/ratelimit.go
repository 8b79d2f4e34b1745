package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/healthlearn/site/internal/pkg/jwt"
	"github.com/redis/go-redis/v9"
)

const (
	rateLimitPrefix  = "site:rate_limit:"
	defaultRateLimit = 50
	rateLimitWindow  = time.Second
)

// RateLimit caps anonymous clients at limit requests per second per IP.
// Studio tokens bypass the limit. A nil client disables it.
func RateLimit(rdb *redis.Client, limit int) gin.HandlerFunc {
	if limit <= 0 {
		limit = defaultRateLimit
	}
	return func(c *gin.Context) {
		if rdb == nil {
			c.Next()
			return
		}
		if _, err := jwt.ParseScoped(extractToken(c), jwt.ScopeStudio); err == nil {
			c.Next()
			return
		}

		ip := c.ClientIP()
		if ip == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := fmt.Sprintf("%s%s:%d", rateLimitPrefix, ip, time.Now().Unix())
		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			c.Next()
			return
		}
		if count == 1 {
			rdb.PExpire(ctx, key, rateLimitWindow+time.Second)
		}

		if count > int64(limit) {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"ok":      0,
				"code":    http.StatusTooManyRequests,
				"message": "too many requests",
			})
			return
		}
		c.Next()
	}
}
