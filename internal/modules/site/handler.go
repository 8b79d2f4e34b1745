// Package site serves the server-rendered public pages.
package site

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/healthlearn/site/internal/config"
	"github.com/healthlearn/site/internal/middleware"
	"github.com/healthlearn/site/internal/modules/content/query"
	"github.com/healthlearn/site/internal/modules/processing/portabletext"
	"github.com/healthlearn/site/internal/modules/processing/seo"
	"github.com/healthlearn/site/internal/modules/storage/asset"
	"github.com/healthlearn/site/internal/pkg/jwt"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// MorePostsLimit is the number of related posts under a post.
const MorePostsLimit = 2

const (
	articlesTitle       = "Educational Articles"
	articlesDescription = "Comprehensive resources on fertility, family building, and reproductive health"
)

// layoutData is shared by every page.
type layoutData struct {
	Meta      seo.Metadata
	SiteTitle string
	Preview   bool
}

type homeData struct {
	layoutData
	Tagline     string
	TitleParts  []query.TitlePart
	LeftLogo    *asset.Image
	RightLogo   *asset.Image
	Description portabletext.Content
	Snippet     *query.CodeSnippet
	DocLink     *query.DocumentationLink
	Posts       []query.PostSummary
}

type articlesData struct {
	layoutData
	Category   string
	Categories []string
	Articles   []query.ArticleSummary
}

type articleData struct {
	layoutData
	Article *query.ArticleView
}

type postData struct {
	layoutData
	Post      *query.PostView
	MorePosts []query.PostSummary
}

type pageData struct {
	layoutData
	Page *query.PageView
}

type Handler struct {
	reader   query.Reader
	renderer *Renderer
	site     config.SiteConfig
	logger   *zap.Logger
}

func NewHandler(reader query.Reader, renderer *Renderer, site config.SiteConfig, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{reader: reader, renderer: renderer, site: site, logger: logger}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/", h.home)
	r.GET("/articles", h.articles)
	r.GET("/articles/:slug", h.article)
	r.GET("/posts/:slug", h.post)
	r.GET("/:slug", h.page)
	r.GET("/api/draft-mode/enable", h.enableDraftMode)
	r.GET("/api/draft-mode/disable", h.disableDraftMode)
}

// NotFound renders the 404 page; used as the engine's NoRoute handler.
func (h *Handler) NotFound(c *gin.Context) {
	h.notFound(c, nil)
}

func (h *Handler) layout(c *gin.Context, settings *query.SettingsView, meta func(seo.Parent) seo.Metadata) layoutData {
	parent := seo.ParentFrom(settings, h.site.Title, h.site.BaseURL)
	return layoutData{
		Meta:      meta(parent),
		SiteTitle: parent.SiteTitle,
		Preview:   middleware.IsPreview(c),
	}
}

func (h *Handler) render(c *gin.Context, status int, page string, data interface{}) {
	body, err := h.renderer.Render(page, data)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Data(status, "text/html; charset=utf-8", body)
}

func (h *Handler) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	h.logger.Error("render page failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	data := layoutData{Meta: seo.Metadata{Title: "Error"}, SiteTitle: h.site.Title, Preview: middleware.IsPreview(c)}
	body, rerr := h.renderer.Render(pageError, data)
	if rerr != nil {
		c.String(http.StatusInternalServerError, "internal server error")
		return
	}
	c.Data(http.StatusInternalServerError, "text/html; charset=utf-8", body)
}

func (h *Handler) notFound(c *gin.Context, settings *query.SettingsView) {
	data := h.layout(c, settings, func(p seo.Parent) seo.Metadata {
		return seo.Listing("Page not found", p.Description, "", p)
	})
	h.render(c, http.StatusNotFound, pageNotFound, data)
}

func (h *Handler) home(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		settings *query.SettingsView
		homepage *query.HomepageView
		posts    []query.PostSummary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { settings, err = h.reader.Settings(gctx); return })
	g.Go(func() (err error) { homepage, err = h.reader.Homepage(gctx); return })
	g.Go(func() (err error) { posts, err = h.reader.AllPosts(gctx); return })
	if err := g.Wait(); err != nil {
		h.fail(c, err)
		return
	}

	data := homeData{
		layoutData: h.layout(c, settings, func(p seo.Parent) seo.Metadata { return seo.Homepage(homepage, p) }),
		Tagline:    homepage.DisplayTagline(),
		TitleParts: homepage.TitleParts(),
		Snippet:    homepage.Snippet(),
		DocLink:    homepage.DocLink(),
		Posts:      posts,
	}
	if homepage != nil {
		data.LeftLogo, data.RightLogo = homepage.LeftLogo, homepage.RightLogo
	}
	if settings != nil {
		data.Description = settings.Description
	}
	h.render(c, http.StatusOK, pageHome, data)
}

func (h *Handler) articles(c *gin.Context) {
	ctx := c.Request.Context()
	category := strings.TrimSpace(c.Query("category"))
	var (
		settings *query.SettingsView
		all      []query.ArticleSummary
		filtered []query.ArticleSummary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { settings, err = h.reader.Settings(gctx); return })
	g.Go(func() (err error) { all, err = h.reader.AllArticles(gctx); return })
	if category != "" {
		g.Go(func() (err error) { filtered, err = h.reader.ArticlesByCategory(gctx, category); return })
	}
	if err := g.Wait(); err != nil {
		h.fail(c, err)
		return
	}
	if category == "" {
		filtered = all
	}

	path := "/articles"
	if category != "" {
		path += "?category=" + url.QueryEscape(category)
	}
	data := articlesData{
		layoutData: h.layout(c, settings, func(p seo.Parent) seo.Metadata {
			return seo.Listing(articlesTitle, articlesDescription, path, p)
		}),
		Category:   category,
		Categories: query.Categories(all),
		Articles:   filtered,
	}
	h.render(c, http.StatusOK, pageArticles, data)
}

func (h *Handler) article(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		settings *query.SettingsView
		article  *query.ArticleView
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { settings, err = h.reader.Settings(gctx); return })
	g.Go(func() (err error) { article, err = h.reader.ArticleBySlug(gctx, c.Param("slug")); return })
	if err := g.Wait(); err != nil {
		h.fail(c, err)
		return
	}
	if article == nil {
		h.notFound(c, settings)
		return
	}
	data := articleData{
		layoutData: h.layout(c, settings, func(p seo.Parent) seo.Metadata { return seo.Article(article, p) }),
		Article:    article,
	}
	h.render(c, http.StatusOK, pageArticle, data)
}

func (h *Handler) post(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		settings *query.SettingsView
		post     *query.PostView
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { settings, err = h.reader.Settings(gctx); return })
	g.Go(func() (err error) { post, err = h.reader.PostBySlug(gctx, c.Param("slug")); return })
	if err := g.Wait(); err != nil {
		h.fail(c, err)
		return
	}
	if post == nil {
		h.notFound(c, settings)
		return
	}
	more, err := h.reader.MorePosts(ctx, post.ID, MorePostsLimit)
	if err != nil {
		h.fail(c, err)
		return
	}
	data := postData{
		layoutData: h.layout(c, settings, func(p seo.Parent) seo.Metadata { return seo.Post(post, p) }),
		Post:       post,
		MorePosts:  more,
	}
	h.render(c, http.StatusOK, pagePost, data)
}

func (h *Handler) page(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		settings *query.SettingsView
		page     *query.PageView
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { settings, err = h.reader.Settings(gctx); return })
	g.Go(func() (err error) { page, err = h.reader.PageBySlug(gctx, c.Param("slug")); return })
	if err := g.Wait(); err != nil {
		h.fail(c, err)
		return
	}
	if page == nil {
		h.notFound(c, settings)
		return
	}
	data := pageData{
		layoutData: h.layout(c, settings, func(p seo.Parent) seo.Metadata { return seo.Page(page, p) }),
		Page:       page,
	}
	h.render(c, http.StatusOK, pagePage, data)
}

// enableDraftMode trades a preview token for the preview cookie and
// redirects to a local path.
func (h *Handler) enableDraftMode(c *gin.Context) {
	token := middleware.NormalizeToken(c.Query("token"))
	claims, err := jwt.ParseScoped(token, jwt.ScopePreview)
	if err != nil {
		c.String(http.StatusUnauthorized, "invalid preview token")
		return
	}
	maxAge := int(time.Hour / time.Second)
	if claims.ExpiresAt != nil {
		maxAge = int(time.Until(claims.ExpiresAt.Time) / time.Second)
	}
	if maxAge <= 0 {
		c.String(http.StatusUnauthorized, "invalid preview token")
		return
	}
	middleware.SetPreviewCookie(c, token, maxAge)
	h.logger.Info("draft mode enabled", zap.String("subject", claims.Subject))
	c.Redirect(http.StatusTemporaryRedirect, safeRedirect(c.Query("redirect")))
}

func (h *Handler) disableDraftMode(c *gin.Context) {
	middleware.ClearPreviewCookie(c)
	c.Redirect(http.StatusTemporaryRedirect, safeRedirect(c.Query("redirect")))
}

// safeRedirect keeps redirects on this site.
func safeRedirect(target string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.Contains(target, `\`) {
		return "/"
	}
	if u, err := url.Parse(target); err != nil || u.Host != "" || u.Scheme != "" {
		return "/"
	}
	return target
}
