// Package seo derives page metadata with fallbacks.
package seo

import (
	"strings"
	"unicode/utf8"

	"github.com/healthlearn/site/internal/modules/content/query"
	"github.com/healthlearn/site/internal/modules/storage/asset"
)

const (
	OGTypeWebsite = "website"
	OGTypeArticle = "article"

	TwitterSummaryLargeImage = "summary_large_image"
	TwitterSummary           = "summary"

	descriptionLimit = 160
)

type OpenGraph struct {
	Title       string
	Description string
	Type        string
	URL         string
	Images      []asset.Image
}

type Twitter struct {
	Card        string
	Title       string
	Description string
}

// Metadata is what a page puts in its <head>.
type Metadata struct {
	Title       string
	Description string
	Canonical   string
	OpenGraph   OpenGraph
	Twitter     Twitter
}

// Parent carries site-wide metadata inherited by every page.
type Parent struct {
	SiteTitle   string
	Description string
	BaseURL     string
	Images      []asset.Image
}

// ParentFrom builds the inherited metadata from settings, which may be nil.
func ParentFrom(settings *query.SettingsView, siteTitle, baseURL string) Parent {
	p := Parent{SiteTitle: siteTitle, BaseURL: strings.TrimRight(baseURL, "/")}
	if settings == nil {
		return p
	}
	if settings.Title != "" {
		p.SiteTitle = settings.Title
	}
	p.Description = Truncate(settings.Description.PlainText(), descriptionLimit)
	if settings.OGImage != nil {
		p.Images = []asset.Image{*settings.OGImage}
	}
	return p
}

func (p Parent) url(path string) string {
	if p.BaseURL == "" {
		return ""
	}
	return p.BaseURL + path
}

func build(title, description, ogType, card, canonical string, images []asset.Image) Metadata {
	return Metadata{
		Title:       title,
		Description: description,
		Canonical:   canonical,
		OpenGraph: OpenGraph{
			Title:       title,
			Description: description,
			Type:        ogType,
			URL:         canonical,
			Images:      images,
		},
		Twitter: Twitter{
			Card:        card,
			Title:       title,
			Description: description,
		},
	}
}

// Homepage metadata. h may be nil.
func Homepage(h *query.HomepageView, parent Parent) Metadata {
	return build(h.MetaTitle(), h.MetaDescription(), OGTypeWebsite, TwitterSummaryLargeImage, parent.url("/"), parent.Images)
}

// Article metadata; the featured image wins over inherited images.
func Article(a *query.ArticleView, parent Parent) Metadata {
	images := parent.Images
	if a.FeaturedImage != nil {
		images = []asset.Image{*a.FeaturedImage}
	}
	m := build(a.MetaTitle(), a.MetaDescription(), OGTypeArticle, TwitterSummaryLargeImage, parent.url("/articles/"+a.Slug), images)
	if m.Description == "" {
		m.Description = parent.Description
	}
	return m
}

// Post metadata; the cover image wins over inherited images.
func Post(p *query.PostView, parent Parent) Metadata {
	images := parent.Images
	if p.CoverImage != nil {
		images = []asset.Image{*p.CoverImage}
	}
	return build(p.MetaTitle(), Truncate(p.MetaDescription(), descriptionLimit), OGTypeArticle, TwitterSummaryLargeImage, parent.url("/posts/"+p.Slug), images)
}

// Page metadata.
func Page(p *query.PageView, parent Parent) Metadata {
	desc := p.MetaDescription()
	if desc == "" {
		desc = parent.Description
	}
	return build(p.DisplayTitle(), desc, OGTypeWebsite, TwitterSummary, parent.url("/"+p.Slug), parent.Images)
}

// Listing metadata for index pages such as /articles.
func Listing(title, description, path string, parent Parent) Metadata {
	return build(title, description, OGTypeWebsite, TwitterSummary, parent.url(path), parent.Images)
}

// Truncate shortens s to at most limit runes on a word boundary, adding an
// ellipsis when text was cut.
func Truncate(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	cut := string(runes[:limit-1])
	if i := strings.LastIndex(cut, " "); i > limit/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}
