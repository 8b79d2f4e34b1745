package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/healthlearn/site/internal/pkg/jwt"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func cachedRouter(rdb *redis.Client, renders *int) *gin.Engine {
	r := gin.New()
	r.Use(Preview(), HTTPCache(rdb, HTTPCacheOptions{TTL: time.Minute, SkipPaths: []string{"/api/v1/studio*"}}))
	r.GET("/articles", func(c *gin.Context) {
		*renders++
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte("<h1>Articles</h1>"))
	})
	r.GET("/missing", func(c *gin.Context) {
		*renders++
		c.String(http.StatusNotFound, "gone")
	})
	r.GET("/api/v1/studio/schema", func(c *gin.Context) {
		*renders++
		c.String(http.StatusOK, "schema")
	})
	return r
}

func TestHTTPCacheMissThenHit(t *testing.T) {
	mr, rdb := newTestRedis(t)
	renders := 0
	r := cachedRouter(rdb, &renders)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/articles?page=2", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "miss", w.Header().Get("x-site-cache"))
	assert.Equal(t, "public, max-age=0, s-maxage=60", w.Header().Get("Cache-Control"))
	assert.True(t, mr.Exists(PageCachePrefix+"/articles?page=2"))
	assert.Equal(t, 60*time.Second, mr.TTL(PageCachePrefix+"/articles?page=2"))

	w = serve(r, httptest.NewRequest(http.MethodGet, "/articles?page=2", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hit", w.Header().Get("x-site-cache"))
	assert.Equal(t, "<h1>Articles</h1>", w.Body.String())
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "public, max-age=0, s-maxage=60", w.Header().Get("Cache-Control"))
	assert.Equal(t, 1, renders)

	// Another query string is another page.
	w = serve(r, httptest.NewRequest(http.MethodGet, "/articles", nil))
	assert.Equal(t, "miss", w.Header().Get("x-site-cache"))
	assert.Equal(t, 2, renders)

	mr.FastForward(time.Minute + time.Second)
	w = serve(r, httptest.NewRequest(http.MethodGet, "/articles?page=2", nil))
	assert.Equal(t, "miss", w.Header().Get("x-site-cache"))
	assert.Equal(t, 3, renders)
}

func TestHTTPCacheStoresOnlySuccess(t *testing.T) {
	mr, rdb := newTestRedis(t)
	renders := 0
	r := cachedRouter(rdb, &renders)

	for i := 0; i < 2; i++ {
		w := serve(r, httptest.NewRequest(http.MethodGet, "/missing", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "miss", w.Header().Get("x-site-cache"))
		assert.Empty(t, w.Header().Get("Cache-Control"))
	}
	assert.Equal(t, 2, renders)

	for i := 0; i < 2; i++ {
		w := serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/studio/schema", nil))
		assert.Empty(t, w.Header().Get("x-site-cache"))
	}
	assert.Equal(t, 4, renders)
	assert.Empty(t, mr.Keys())
}

func TestHTTPCachePreviewIsPrivate(t *testing.T) {
	mr, rdb := newTestRedis(t)
	renders := 0
	r := cachedRouter(rdb, &renders)

	// Warm the shared entry first; a preview request must not be served from it.
	serve(r, httptest.NewRequest(http.MethodGet, "/articles", nil))

	token, err := jwt.Sign("editor", jwt.ScopePreview, time.Minute)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/articles", nil)
	req.AddCookie(&http.Cookie{Name: PreviewCookie, Value: token})
	w := serve(r, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, privateCacheControl, w.Header().Get("Cache-Control"))
	assert.Empty(t, w.Header().Get("x-site-cache"))
	assert.Equal(t, 2, renders)

	req = httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = serve(r, req)
	assert.Equal(t, privateCacheControl, w.Header().Get("Cache-Control"))
	assert.Equal(t, []string{PageCachePrefix + "/articles"}, mr.Keys())
}

func TestHTTPCachePreviewIsPrivateWithoutRedis(t *testing.T) {
	r := gin.New()
	r.Use(Preview(), HTTPCache(nil, HTTPCacheOptions{}))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "draft") })

	token, err := jwt.Sign("editor", jwt.ScopePreview, time.Minute)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: PreviewCookie, Value: token})
	w := serve(r, req)
	assert.Equal(t, privateCacheControl, w.Header().Get("Cache-Control"))
}

func TestPurgeHTTPCache(t *testing.T) {
	mr, rdb := newTestRedis(t)
	renders := 0
	r := cachedRouter(rdb, &renders)

	serve(r, httptest.NewRequest(http.MethodGet, "/articles", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/articles?page=2", nil))
	require.NoError(t, mr.Set("unrelated", "kept"))

	n, err := PurgeHTTPCache(context.Background(), rdb)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, []string{"unrelated"}, mr.Keys())

	w := serve(r, httptest.NewRequest(http.MethodGet, "/articles", nil))
	assert.Equal(t, "miss", w.Header().Get("x-site-cache"))
	assert.Equal(t, 3, renders)

	n, err = PurgeHTTPCache(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRateLimit(t *testing.T) {
	_, rdb := newTestRedis(t)
	r := gin.New()
	r.Use(RateLimit(rdb, 2))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	// Five requests span at most two one-second windows, so one window
	// sees more than two.
	limited := 0
	for i := 0; i < 5; i++ {
		w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
		if w.Code == http.StatusTooManyRequests {
			limited++
			assert.Equal(t, "1", w.Header().Get("Retry-After"))
			assert.JSONEq(t, `{"ok":0,"code":429,"message":"too many requests"}`, w.Body.String())
		} else {
			assert.Equal(t, http.StatusOK, w.Code)
		}
	}
	assert.GreaterOrEqual(t, limited, 1)

	studio, err := jwt.Sign("editor", jwt.ScopeStudio, time.Minute)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+studio)
		assert.Equal(t, http.StatusOK, serve(r, req).Code)
	}
}

func TestIdempotence(t *testing.T) {
	mr, rdb := newTestRedis(t)
	r := gin.New()
	r.Use(Idempotence(rdb, "/api/v1/studio/preview-token"))
	calls := 0
	r.POST("/api/v1/studio/documents/post/p1/publish", func(c *gin.Context) {
		calls++
		c.Status(http.StatusOK)
	})
	r.POST("/api/v1/studio/import", func(c *gin.Context) {
		calls++
		c.Status(http.StatusUnprocessableEntity)
	})
	r.POST("/api/v1/studio/preview-token", func(c *gin.Context) {
		calls++
		c.Status(http.StatusCreated)
	})

	publish := func() *httptest.ResponseRecorder {
		return serve(r, httptest.NewRequest(http.MethodPost, "/api/v1/studio/documents/post/p1/publish", nil))
	}
	assert.Equal(t, http.StatusOK, publish().Code)
	w := publish()
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "already succeeded")
	assert.Equal(t, 1, calls)

	mr.FastForward(idempotenceTTL + time.Second)
	assert.Equal(t, http.StatusOK, publish().Code)
	assert.Equal(t, 2, calls)

	// Failed requests may be retried at once.
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/studio/import", strings.NewReader(`{}`))
		assert.Equal(t, http.StatusUnprocessableEntity, serve(r, req).Code)
	}
	assert.Equal(t, 4, calls)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/studio/preview-token", nil)
		assert.Equal(t, http.StatusCreated, serve(r, req).Code)
	}
	assert.Equal(t, 6, calls)

	require.NoError(t, mr.Set(idempotencePrefix+"in-flight", "0"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/studio/documents/post/p1/publish", nil)
	req.Header.Set(idempotenceHeader, "in-flight")
	w = serve(r, req)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "still being processed")
	assert.Equal(t, 6, calls)
}
