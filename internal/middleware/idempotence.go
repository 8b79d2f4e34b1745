package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	idempotencePrefix = "site:idempotence:"
	idempotenceHeader = "x-idempotence"
	idempotenceTTL    = 60 * time.Second
)

// Idempotence rejects a repeated POST while the first one is in flight or
// for a minute after it succeeded. Requests are keyed by the x-idempotence
// header, or by a hash of the request when the header is absent.
func Idempotence(rdb *redis.Client, skipPaths ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil || c.Request.Method != http.MethodPost || shouldSkipIdempotence(c.Request.URL.Path, skipPaths) {
			c.Next()
			return
		}

		key, err := resolveIdempotenceKey(c)
		if err != nil || key == "" {
			c.Next()
			return
		}

		redisKey := idempotencePrefix + key
		ctx := c.Request.Context()

		val, err := rdb.Get(ctx, redisKey).Result()
		if err == nil {
			msg := "identical request already succeeded, retry later"
			if val == "0" {
				msg = "identical request is still being processed"
			}
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"ok":      0,
				"code":    http.StatusConflict,
				"message": msg,
			})
			return
		}
		if !errors.Is(err, redis.Nil) {
			c.Next()
			return
		}

		if err := rdb.Set(ctx, redisKey, "0", idempotenceTTL).Err(); err != nil {
			c.Next()
			return
		}

		c.Next()

		status := c.Writer.Status()
		if status >= 200 && status < 300 {
			rdb.Set(ctx, redisKey, "1", redis.KeepTTL)
		} else {
			rdb.Del(ctx, redisKey)
		}
	}
}

func shouldSkipIdempotence(path string, skipPaths []string) bool {
	p := strings.TrimRight(strings.ToLower(strings.TrimSpace(path)), "/")
	for _, s := range skipPaths {
		if p == strings.TrimRight(strings.ToLower(s), "/") {
			return true
		}
	}
	return false
}

func resolveIdempotenceKey(c *gin.Context) (string, error) {
	if hdr := strings.TrimSpace(c.GetHeader(idempotenceHeader)); hdr != "" {
		return hdr, nil
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return "", err
	}
	c.Request.Body = io.NopCloser(bytes.NewBuffer(body))

	token := extractToken(c)
	ip := c.ClientIP()
	if len(body) == 0 && token == "" && ip == "" {
		return "", nil
	}

	raw := c.Request.Method + "|" + c.Request.URL.String() + "|" + string(body) + "|" + ip + "|" + token
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:]), nil
}
