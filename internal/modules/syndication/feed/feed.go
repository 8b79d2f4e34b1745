package feed

import (
	"context"
	"encoding/xml"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/healthlearn/site/internal/config"
	"github.com/healthlearn/site/internal/modules/content/query"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Size is the number of articles in a feed.
const Size = 20

const buildTimeout = 30 * time.Second

type rss struct {
	XMLName xml.Name `xml:"rss"`
	Version string   `xml:"version,attr"`
	Atom    string   `xml:"xmlns:atom,attr"`
	DC      string   `xml:"xmlns:dc,attr"`
	Channel channel  `xml:"channel"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type channel struct {
	Title         string   `xml:"title"`
	Link          string   `xml:"link"`
	Description   string   `xml:"description"`
	SelfLink      atomLink `xml:"atom:link"`
	LastBuildDate string   `xml:"lastBuildDate"`
	Items         []item   `xml:"item"`
}

type guid struct {
	Value       string `xml:",chardata"`
	IsPermaLink bool   `xml:"isPermaLink,attr"`
}

type item struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	GUID        guid     `xml:"guid"`
	PubDate     string   `xml:"pubDate,omitempty"`
	Description string   `xml:"description,omitempty"`
	Category    []string `xml:"category,omitempty"`
	Author      string   `xml:"dc:creator,omitempty"`
}

type Handler struct {
	reader query.Reader
	site   config.SiteConfig
	logger *zap.Logger
	group  singleflight.Group
	now    func() time.Time
}

func NewHandler(reader query.Reader, site config.SiteConfig, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{reader: reader, site: site, logger: logger, now: time.Now}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/feed.xml", h.serve)
}

func (h *Handler) serve(c *gin.Context) {
	out, err, _ := h.group.Do("rss", func() (interface{}, error) {
		// Waiting callers must not fail when the first one goes away.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), buildTimeout)
		defer cancel()
		return h.Build(ctx)
	})
	if err != nil {
		_ = c.Error(err)
		h.logger.Error("build feed failed", zap.Error(err))
		c.String(http.StatusInternalServerError, "error generating feed")
		return
	}
	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", out.([]byte))
}

// Build renders the RSS channel of the latest published articles.
func (h *Handler) Build(ctx context.Context) ([]byte, error) {
	ctx = query.WithPerspective(ctx, query.PerspectivePublished)
	articles, err := h.reader.AllArticles(ctx)
	if err != nil {
		return nil, err
	}
	if len(articles) > Size {
		articles = articles[:Size]
	}

	settings, err := h.reader.Settings(ctx)
	if err != nil {
		return nil, err
	}
	title := h.site.Title
	description := ""
	if settings != nil {
		if settings.Title != "" {
			title = settings.Title
		}
		description = settings.Description.PlainText()
	}

	base := h.site.BaseURL
	ch := channel{
		Title:         title,
		Link:          base + "/",
		Description:   description,
		SelfLink:      atomLink{Href: base + "/feed.xml", Rel: "self", Type: "application/rss+xml"},
		LastBuildDate: h.now().UTC().Format(time.RFC1123Z),
	}
	for i := range articles {
		a := &articles[i]
		link := base + "/articles/" + a.Slug
		it := item{
			Title:       a.DisplayTitle(),
			Link:        link,
			GUID:        guid{Value: link, IsPermaLink: true},
			Description: a.Excerpt,
			Author:      a.Author.FullName(),
		}
		if !a.PublishedDate.IsZero() {
			it.PubDate = a.PublishedDate.UTC().Format(time.RFC1123Z)
		}
		if a.Category != "" {
			it.Category = append(it.Category, a.Category)
		}
		ch.Items = append(ch.Items, it)
	}

	body, err := xml.MarshalIndent(rss{
		Version: "2.0",
		Atom:    "http://www.w3.org/2005/Atom",
		DC:      "http://purl.org/dc/elements/1.1/",
		Channel: ch,
	}, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}
