package sitemap

import (
	"context"
	"encoding/xml"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/healthlearn/site/internal/modules/content/query"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	xmlns        = "http://www.sitemaps.org/schemas/sitemap/0.9"
	buildTimeout = 30 * time.Second
)

type urlEntry struct {
	Loc        string  `xml:"loc"`
	LastMod    string  `xml:"lastmod,omitempty"`
	ChangeFreq string  `xml:"changefreq,omitempty"`
	Priority   float64 `xml:"priority"`
}

type urlSet struct {
	XMLName xml.Name   `xml:"urlset"`
	Xmlns   string     `xml:"xmlns,attr"`
	URLs    []urlEntry `xml:"url"`
}

type Handler struct {
	reader  query.Reader
	baseURL string
	logger  *zap.Logger
	group   singleflight.Group
	now     func() time.Time
}

func NewHandler(reader query.Reader, baseURL string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{reader: reader, baseURL: baseURL, logger: logger, now: time.Now}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/sitemap.xml", h.serve)
}

func (h *Handler) serve(c *gin.Context) {
	// Concurrent requests share one build.
	out, err, _ := h.group.Do("sitemap", func() (interface{}, error) {
		// Waiting callers must not fail when the first one goes away.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), buildTimeout)
		defer cancel()
		return h.Build(ctx)
	})
	if err != nil {
		_ = c.Error(err)
		h.logger.Error("build sitemap failed", zap.Error(err))
		c.String(http.StatusInternalServerError, "error generating sitemap")
		return
	}
	c.Data(http.StatusOK, "application/xml; charset=utf-8", out.([]byte))
}

// Build lists the home page, the article index and every published
// article, page and post.
func (h *Handler) Build(ctx context.Context) ([]byte, error) {
	ctx = query.WithPerspective(ctx, query.PerspectivePublished)
	articles, err := h.reader.AllArticles(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := h.reader.SitemapData(ctx)
	if err != nil {
		return nil, err
	}

	now := h.now()
	set := urlSet{Xmlns: xmlns}
	set.URLs = append(set.URLs,
		urlEntry{Loc: h.baseURL + "/", LastMod: day(now), ChangeFreq: "daily", Priority: 1.0},
		urlEntry{Loc: h.baseURL + "/articles", LastMod: day(now), ChangeFreq: "daily", Priority: 0.9},
	)
	for _, a := range articles {
		set.URLs = append(set.URLs, urlEntry{
			Loc:        h.baseURL + "/articles/" + a.Slug,
			LastMod:    day(a.UpdatedAt),
			ChangeFreq: "weekly",
			Priority:   0.8,
		})
	}
	for _, e := range entries {
		u := urlEntry{LastMod: day(e.UpdatedAt)}
		switch e.Type {
		case "post":
			u.Loc, u.ChangeFreq, u.Priority = h.baseURL+"/posts/"+e.Slug, "weekly", 0.7
		default:
			u.Loc, u.ChangeFreq, u.Priority = h.baseURL+"/"+e.Slug, "monthly", 0.5
		}
		set.URLs = append(set.URLs, u)
	}

	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}

func day(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}
