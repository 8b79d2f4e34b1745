package query

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/healthlearn/site/internal/pkg/response"
)

const defaultMorePostsLimit = 2

// Handler exposes the query layer as a read-only JSON API.
type Handler struct {
	reader Reader
}

func NewHandler(reader Reader) *Handler {
	return &Handler{reader: reader}
}

// RegisterRoutes mounts query routes onto the given router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/settings", h.settings)
	rg.GET("/homepage", h.homepage)
	rg.GET("/sitemap", h.sitemap)

	articles := rg.Group("/articles")
	articles.GET("", h.listArticles)
	articles.GET("/featured", h.featuredArticles)
	articles.GET("/slugs", h.articleSlugs)
	articles.GET("/:slug", h.articleBySlug)

	posts := rg.Group("/posts")
	posts.GET("", h.listPosts)
	posts.GET("/more", h.morePosts)
	posts.GET("/slugs", h.postSlugs)
	posts.GET("/:slug", h.postBySlug)

	pages := rg.Group("/pages")
	pages.GET("/slugs", h.pageSlugs)
	pages.GET("/:slug", h.pageBySlug)
}

// settings GET /settings
func (h *Handler) settings(c *gin.Context) {
	v, err := h.reader.Settings(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if v == nil {
		response.NotFoundMsg(c, "settings not found")
		return
	}
	response.OK(c, v)
}

// homepage GET /homepage
func (h *Handler) homepage(c *gin.Context) {
	v, err := h.reader.Homepage(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if v == nil {
		response.NotFoundMsg(c, "homepage not found")
		return
	}
	response.OK(c, v)
}

// sitemap GET /sitemap
func (h *Handler) sitemap(c *gin.Context) {
	entries, err := h.reader.SitemapData(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, nonNil(entries))
}

// listArticles GET /articles?category=
func (h *Handler) listArticles(c *gin.Context) {
	var (
		items []ArticleSummary
		err   error
	)
	if category := c.Query("category"); category != "" {
		items, err = h.reader.ArticlesByCategory(c.Request.Context(), category)
	} else {
		items, err = h.reader.AllArticles(c.Request.Context())
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, nonNil(items))
}

// featuredArticles GET /articles/featured
func (h *Handler) featuredArticles(c *gin.Context) {
	items, err := h.reader.FeaturedArticles(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, nonNil(items))
}

// articleSlugs GET /articles/slugs
func (h *Handler) articleSlugs(c *gin.Context) {
	slugs, err := h.reader.ArticleSlugs(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, nonNil(slugs))
}

// articleBySlug GET /articles/:slug
func (h *Handler) articleBySlug(c *gin.Context) {
	v, err := h.reader.ArticleBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if v == nil {
		response.NotFoundMsg(c, "article not found")
		return
	}
	response.OK(c, v)
}

// listPosts GET /posts
func (h *Handler) listPosts(c *gin.Context) {
	items, err := h.reader.AllPosts(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, nonNil(items))
}

// morePosts GET /posts/more?skip=&limit=
func (h *Handler) morePosts(c *gin.Context) {
	limit := defaultMorePostsLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			response.BadRequest(c, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	items, err := h.reader.MorePosts(c.Request.Context(), c.Query("skip"), limit)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, nonNil(items))
}

// postSlugs GET /posts/slugs
func (h *Handler) postSlugs(c *gin.Context) {
	slugs, err := h.reader.PostSlugs(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, nonNil(slugs))
}

// postBySlug GET /posts/:slug
func (h *Handler) postBySlug(c *gin.Context) {
	v, err := h.reader.PostBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if v == nil {
		response.NotFoundMsg(c, "post not found")
		return
	}
	response.OK(c, v)
}

// pageSlugs GET /pages/slugs
func (h *Handler) pageSlugs(c *gin.Context) {
	slugs, err := h.reader.PageSlugs(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, nonNil(slugs))
}

// pageBySlug GET /pages/:slug
func (h *Handler) pageBySlug(c *gin.Context) {
	v, err := h.reader.PageBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if v == nil {
		response.NotFoundMsg(c, "page not found")
		return
	}
	response.OK(c, v)
}

// nonNil keeps empty listings encoded as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
