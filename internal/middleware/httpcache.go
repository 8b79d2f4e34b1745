package middleware

import (
	"context"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	PageCachePrefix         = "site-page-cache:"
	defaultHTTPCacheTTL     = 30 * time.Second
	defaultHTTPCacheMaxBody = 2 << 20
	defaultPageContentType  = "text/html; charset=utf-8"
	privateCacheControl     = "private, max-age=0, no-cache, no-store, must-revalidate"
)

type HTTPCacheOptions struct {
	TTL          time.Duration
	Disable      bool
	SkipPaths    []string
	MaxBodyBytes int
}

// cachedPage is stored as a redis hash with status, type and body fields.
type cachedPage struct {
	Status      int
	ContentType string
	Body        []byte
}

// recordingWriter copies the response body up to a limit while writing it
// and marks successful responses as shared-cacheable.
type recordingWriter struct {
	gin.ResponseWriter
	body     []byte
	limit    int
	overflow bool
	ttl      time.Duration
}

func (w *recordingWriter) Write(data []byte) (int, error) {
	w.beforeWrite()
	w.record(data)
	return w.ResponseWriter.Write(data)
}

func (w *recordingWriter) WriteString(s string) (int, error) {
	w.beforeWrite()
	w.record([]byte(s))
	return w.ResponseWriter.WriteString(s)
}

func (w *recordingWriter) beforeWrite() {
	if !w.Written() && w.Status() == http.StatusOK {
		setPublicCacheHeader(w.Header(), w.ttl)
	}
}

func (w *recordingWriter) record(data []byte) {
	if w.overflow {
		return
	}
	if len(w.body)+len(data) > w.limit {
		w.overflow = true
		w.body = nil
		return
	}
	w.body = append(w.body, data...)
}

// HTTPCache serves anonymous GET responses from redis. Preview and
// authenticated requests always render fresh and are marked private.
func HTTPCache(rdb *redis.Client, opts HTTPCacheOptions) gin.HandlerFunc {
	if opts.TTL <= 0 {
		opts.TTL = defaultHTTPCacheTTL
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultHTTPCacheMaxBody
	}
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet || shouldSkipCachePath(c.Request.URL.Path, opts.SkipPaths) {
			c.Next()
			return
		}
		if IsPreview(c) || c.GetHeader("Authorization") != "" {
			c.Header("Cache-Control", privateCacheControl)
			c.Next()
			return
		}
		if opts.Disable || rdb == nil {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := PageCachePrefix + c.Request.URL.RequestURI()
		if page, ok := loadPage(ctx, rdb, key); ok {
			c.Header("x-site-cache", "hit")
			setPublicCacheHeader(c.Writer.Header(), opts.TTL)
			c.Data(page.Status, page.ContentType, page.Body)
			c.Abort()
			return
		}

		rec := &recordingWriter{ResponseWriter: c.Writer, limit: opts.MaxBodyBytes, ttl: opts.TTL}
		c.Writer = rec
		c.Header("x-site-cache", "miss")
		c.Next()

		if !isCacheableResponse(c.Writer.Status(), c.Writer.Header()) || rec.overflow || len(rec.body) == 0 {
			return
		}
		storePage(ctx, rdb, key, cachedPage{
			Status:      c.Writer.Status(),
			ContentType: c.Writer.Header().Get("Content-Type"),
			Body:        rec.body,
		}, opts.TTL)
	}
}

// PurgeHTTPCache drops every cached page.
func PurgeHTTPCache(ctx context.Context, rdb *redis.Client) (int64, error) {
	if rdb == nil {
		return 0, nil
	}
	var deleted int64
	iter := rdb.Scan(ctx, 0, PageCachePrefix+"*", 200).Iterator()
	batch := make([]string, 0, 200)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := rdb.Del(ctx, batch...).Result()
		deleted += n
		batch = batch[:0]
		return err
	}
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := flush(); err != nil {
				return deleted, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, err
	}
	return deleted, flush()
}

func loadPage(ctx context.Context, rdb *redis.Client, key string) (cachedPage, bool) {
	fields, err := rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return cachedPage{}, false
	}
	return pageFromHash(fields)
}

func storePage(ctx context.Context, rdb *redis.Client, key string, page cachedPage, ttl time.Duration) {
	_, _ = rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, "status", page.Status, "type", page.ContentType, "body", page.Body)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
}

func pageFromHash(fields map[string]string) (cachedPage, bool) {
	body, ok := fields["body"]
	if !ok || body == "" {
		return cachedPage{}, false
	}
	page := cachedPage{Status: http.StatusOK, ContentType: defaultPageContentType, Body: []byte(body)}
	if s, err := strconv.Atoi(fields["status"]); err == nil && s > 0 {
		page.Status = s
	}
	if t := fields["type"]; t != "" {
		page.ContentType = t
	}
	return page, true
}

// shouldSkipCachePath matches exact paths or path.Match globs, where a
// trailing "*" matches any suffix.
func shouldSkipCachePath(p string, patterns []string) bool {
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		switch {
		case pattern == "":
		case strings.HasSuffix(pattern, "*") && strings.HasPrefix(p, strings.TrimSuffix(pattern, "*")):
			return true
		case pattern == p:
			return true
		default:
			if ok, _ := path.Match(pattern, p); ok {
				return true
			}
		}
	}
	return false
}

func isCacheableResponse(status int, headers http.Header) bool {
	if status != http.StatusOK {
		return false
	}
	cc := strings.ToLower(headers.Get("Cache-Control"))
	return !strings.Contains(cc, "no-cache") && !strings.Contains(cc, "no-store") && !strings.Contains(cc, "private")
}

func setPublicCacheHeader(h http.Header, ttl time.Duration) {
	if h.Get("Cache-Control") != "" {
		return
	}
	h.Set("Cache-Control", "public, max-age=0, s-maxage="+strconv.Itoa(int(ttl/time.Second)))
}
