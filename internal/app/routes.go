package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/healthlearn/site/internal/middleware"
	"github.com/healthlearn/site/internal/modules/content/query"
	"github.com/healthlearn/site/internal/modules/schema"
	"github.com/healthlearn/site/internal/modules/site"
	"github.com/healthlearn/site/internal/modules/storage/asset"
	"github.com/healthlearn/site/internal/modules/storage/importer"
	"github.com/healthlearn/site/internal/modules/studio"
	"github.com/healthlearn/site/internal/modules/syndication/feed"
	"github.com/healthlearn/site/internal/modules/syndication/sitemap"
	"github.com/healthlearn/site/internal/pkg/response"
)

const apiPrefix = "/api/v1"

func (a *App) registerRoutes() error {
	r := a.router
	rdb := a.redis.Raw()

	assets := asset.NewResolver(a.cfg.Assets, a.logger)
	store := query.NewStore(a.db, assets, a.logger)
	registry := schema.Default()

	renderer, err := site.NewRenderer()
	if err != nil {
		return fmt.Errorf("templates: %w", err)
	}
	siteHandler := site.NewHandler(store, renderer, a.cfg.Site, a.logger.Named("site"))

	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			response.NotFound(c)
			return
		}
		siteHandler.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	// Preview must run before the cache so draft renders are never stored.
	r.Use(middleware.Preview())
	r.Use(middleware.RateLimit(rdb, 0))
	r.Use(middleware.HTTPCache(rdb, middleware.HTTPCacheOptions{
		TTL:       a.cfg.Cache.TTL,
		Disable:   a.cfg.Cache.Disable,
		SkipPaths: []string{apiPrefix + "/studio*", apiPrefix + "/health", "/api/draft-mode/*"},
	}))

	root := r.Group("")
	siteHandler.RegisterRoutes(root)
	sitemap.NewHandler(store, a.cfg.Site.BaseURL, a.logger.Named("sitemap")).RegisterRoutes(root)
	feed.NewHandler(store, a.cfg.Site, a.logger.Named("feed")).RegisterRoutes(root)

	api := r.Group(apiPrefix)
	api.GET("/health", a.health)
	query.NewHandler(store).RegisterRoutes(api)

	imp := importer.New(a.db, registry, a.logger.Named("importer"))
	svc := studio.NewService(a.db, registry, assets, imp, rdb, a.logger.Named("studio"))
	writes := api.Group("", middleware.Idempotence(rdb, apiPrefix+"/studio/preview-token"))
	studio.NewHandler(svc).RegisterRoutes(writes, middleware.Auth())
	return nil
}

func (a *App) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := gin.H{"database": "ok", "redis": "disabled"}
	sqlDB, err := a.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		response.InternalError(c, fmt.Errorf("database: %w", err))
		return
	}
	if rdb := a.redis.Raw(); rdb != nil {
		if err := rdb.Ping(ctx).Err(); err != nil {
			response.InternalError(c, fmt.Errorf("redis: %w", err))
			return
		}
		status["redis"] = "ok"
	}
	response.OK(c, status)
}
