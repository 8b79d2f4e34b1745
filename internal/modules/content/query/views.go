package query

import (
	"strings"
	"time"

	"github.com/healthlearn/site/internal/models"
	"github.com/healthlearn/site/internal/modules/processing/portabletext"
	"github.com/healthlearn/site/internal/modules/storage/asset"
)

// Fallback values used when optional content is absent.
const (
	UntitledTitle       = "Untitled"
	DefaultTagline      = "A starter template for"
	DefaultSiteTitle    = "Sanity + Next.js Template"
	DefaultSiteDesc     = "A comprehensive starter template combining Sanity CMS with Next.js for modern web development."
	DefaultCopyButton   = "Copy Snippet"
	DefaultCopiedText   = "Copied!"
	VisibleTagLimit     = 3
	FeaturedArticleSize = 3
)

// Person is a resolved author or reviewer reference.
type Person struct {
	FirstName string       `json:"firstName"`
	LastName  string       `json:"lastName"`
	Picture   *asset.Image `json:"picture,omitempty"`
}

// FullName joins the non-empty name parts.
func (p *Person) FullName() string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
}

// ArticleSummary is the listing projection of an educational article.
type ArticleSummary struct {
	ID             string       `json:"_id"`
	Status         string       `json:"status"`
	Title          string       `json:"title"`
	Slug           string       `json:"slug"`
	Category       string       `json:"category,omitempty"`
	Subcategory    string       `json:"subcategory,omitempty"`
	Excerpt        string       `json:"excerpt,omitempty"`
	FeaturedImage  *asset.Image `json:"featuredImage,omitempty"`
	PublishedDate  time.Time    `json:"publishedDate"`
	ReadingTime    int          `json:"readingTime,omitempty"`
	Tags           []string     `json:"tags,omitempty"`
	TargetAudience string       `json:"targetAudience,omitempty"`
	Featured       bool         `json:"featured"`
	Author         *Person      `json:"author,omitempty"`
	UpdatedAt      time.Time    `json:"_updatedAt"`
}

// DisplayTitle never returns an empty title.
func (a *ArticleSummary) DisplayTitle() string {
	return orDefault(a.Title, UntitledTitle)
}

// VisibleTags returns the tags shown on listing cards.
func (a *ArticleSummary) VisibleTags() []string {
	if len(a.Tags) <= VisibleTagLimit {
		return a.Tags
	}
	return a.Tags[:VisibleTagLimit]
}

// HiddenTagCount is the number of tags left out of VisibleTags.
func (a *ArticleSummary) HiddenTagCount() int {
	if n := len(a.Tags) - VisibleTagLimit; n > 0 {
		return n
	}
	return 0
}

// ArticleView is the detail projection of an educational article.
type ArticleView struct {
	ArticleSummary
	Content         portabletext.Content `json:"content,omitempty"`
	LastUpdated     *time.Time           `json:"lastUpdated,omitempty"`
	MedicalReviewer *Person              `json:"medicalReviewer,omitempty"`
	SEOTitle        string               `json:"seoTitle,omitempty"`
	SEODescription  string               `json:"seoDescription,omitempty"`
}

// MetaTitle is the SEO title, falling back to the display title.
func (a *ArticleView) MetaTitle() string {
	return orDefault(a.SEOTitle, a.DisplayTitle())
}

// MetaDescription is the SEO description, falling back to the excerpt.
func (a *ArticleView) MetaDescription() string {
	return orDefault(a.SEODescription, a.Excerpt)
}

// PostSummary is the listing projection of a post.
type PostSummary struct {
	ID         string       `json:"_id"`
	Status     string       `json:"status"`
	Title      string       `json:"title"`
	Slug       string       `json:"slug"`
	Excerpt    string       `json:"excerpt,omitempty"`
	CoverImage *asset.Image `json:"coverImage,omitempty"`
	Date       time.Time    `json:"date"`
	Author     *Person      `json:"author,omitempty"`
	UpdatedAt  time.Time    `json:"_updatedAt"`
}

// DisplayTitle never returns an empty title.
func (p *PostSummary) DisplayTitle() string {
	return orDefault(p.Title, UntitledTitle)
}

// PostView is the detail projection of a post.
type PostView struct {
	PostSummary
	Content portabletext.Content `json:"content,omitempty"`
}

// MetaTitle is the post title.
func (p *PostView) MetaTitle() string { return p.DisplayTitle() }

// MetaDescription is the excerpt, falling back to the content's text.
func (p *PostView) MetaDescription() string {
	return orDefault(p.Excerpt, p.Content.PlainText())
}

// ResolvedLink is a link whose page/post reference was mapped onto a path.
type ResolvedLink struct {
	Href         string `json:"href"`
	OpenInNewTab bool   `json:"openInNewTab,omitempty"`
}

// Section is a resolved page builder entry.
type Section struct {
	Key        string               `json:"_key,omitempty"`
	Type       string               `json:"_type"`
	Heading    string               `json:"heading,omitempty"`
	Subheading string               `json:"subheading,omitempty"`
	Text       string               `json:"text,omitempty"`
	ButtonText string               `json:"buttonText,omitempty"`
	Link       *ResolvedLink        `json:"link,omitempty"`
	Content    portabletext.Content `json:"content,omitempty"`
}

// PageView is the detail projection of a page.
type PageView struct {
	ID         string    `json:"_id"`
	Status     string    `json:"status"`
	Name       string    `json:"name"`
	Slug       string    `json:"slug"`
	Heading    string    `json:"heading,omitempty"`
	Subheading string    `json:"subheading,omitempty"`
	Sections   []Section `json:"pageBuilder,omitempty"`
	UpdatedAt  time.Time `json:"_updatedAt"`
}

// DisplayTitle prefers the heading, then the name.
func (p *PageView) DisplayTitle() string {
	return orDefault(p.Heading, orDefault(p.Name, UntitledTitle))
}

// MetaDescription is the subheading.
func (p *PageView) MetaDescription() string { return p.Subheading }

// TitlePart is one span of the homepage hero title.
type TitlePart struct {
	Text  string `json:"text"`
	Link  string `json:"link,omitempty"`
	Color string `json:"color,omitempty"`
	// Separator is set when a "+" follows this part.
	Separator bool `json:"-"`
}

// CodeSnippet is the homepage install command box.
type CodeSnippet struct {
	Command        string `json:"command"`
	CopyButtonText string `json:"copyButtonText,omitempty"`
	CopiedText     string `json:"copiedText,omitempty"`
}

// ButtonText returns the copy button label.
func (c *CodeSnippet) ButtonText() string { return orDefault(c.CopyButtonText, DefaultCopyButton) }

// CopiedLabel returns the label shown after copying.
func (c *CodeSnippet) CopiedLabel() string { return orDefault(c.CopiedText, DefaultCopiedText) }

// DocumentationLink is the homepage documentation call to action.
type DocumentationLink struct {
	Text         string `json:"text"`
	URL          string `json:"url"`
	OpenInNewTab bool   `json:"openInNewTab"`
}

// HomepageView is the projection of the homepage singleton.
type HomepageView struct {
	ID                string             `json:"_id"`
	Status            string             `json:"status"`
	Title             string             `json:"title,omitempty"`
	Tagline           string             `json:"tagline,omitempty"`
	MainTitle         []TitlePart        `json:"mainTitle,omitempty"`
	LeftLogo          *asset.Image       `json:"leftLogo,omitempty"`
	RightLogo         *asset.Image       `json:"rightLogo,omitempty"`
	CodeSnippet       *CodeSnippet       `json:"codeSnippet,omitempty"`
	DocumentationLink *DocumentationLink `json:"documentationLink,omitempty"`
	SEODescription    string             `json:"seoDescription,omitempty"`
}

// DisplayTagline returns the hero tagline. h may be nil.
func (h *HomepageView) DisplayTagline() string {
	if h == nil {
		return DefaultTagline
	}
	return orDefault(h.Tagline, DefaultTagline)
}

// TitleParts returns the hero title spans with separators marked. Without
// configured parts it returns the two default linked spans. h may be nil.
func (h *HomepageView) TitleParts() []TitlePart {
	if h == nil || len(h.MainTitle) == 0 {
		return []TitlePart{
			{Text: "Sanity", Link: "https://sanity.io/", Color: models.ColorBrand, Separator: true},
			{Text: "Next.js", Link: "https://nextjs.org/", Color: models.ColorFramework},
		}
	}
	parts := make([]TitlePart, len(h.MainTitle))
	copy(parts, h.MainTitle)
	for i := range parts {
		parts[i].Separator = i < len(parts)-1 && !strings.HasSuffix(parts[i].Text, "+")
	}
	return parts
}

// Snippet returns the code snippet when it has a command. h may be nil.
func (h *HomepageView) Snippet() *CodeSnippet {
	if h == nil || h.CodeSnippet == nil || h.CodeSnippet.Command == "" {
		return nil
	}
	return h.CodeSnippet
}

// DocLink returns the documentation link when both text and url are set.
// h may be nil.
func (h *HomepageView) DocLink() *DocumentationLink {
	if h == nil || h.DocumentationLink == nil || h.DocumentationLink.URL == "" || h.DocumentationLink.Text == "" {
		return nil
	}
	return h.DocumentationLink
}

// MetaTitle returns the homepage title or the template default. h may be nil.
func (h *HomepageView) MetaTitle() string {
	if h == nil {
		return DefaultSiteTitle
	}
	return orDefault(h.Title, DefaultSiteTitle)
}

// MetaDescription returns the SEO description or the template default.
// h may be nil.
func (h *HomepageView) MetaDescription() string {
	if h == nil {
		return DefaultSiteDesc
	}
	return orDefault(h.SEODescription, DefaultSiteDesc)
}

// SettingsView is the projection of the settings singleton.
type SettingsView struct {
	ID          string               `json:"_id"`
	Title       string               `json:"title,omitempty"`
	Description portabletext.Content `json:"description,omitempty"`
	OGImage     *asset.Image         `json:"ogImage,omitempty"`
}

// SlugView is one entry of a slug enumeration.
type SlugView struct {
	Slug string `json:"slug"`
}

// SitemapEntry is a routable document for the sitemap.
type SitemapEntry struct {
	Type      string    `json:"_type"`
	Slug      string    `json:"slug"`
	UpdatedAt time.Time `json:"_updatedAt"`
}

// Categories returns the distinct non-empty categories in first-seen order.
func Categories(articles []ArticleSummary) []string {
	seen := make(map[string]struct{}, len(articles))
	var out []string
	for i := range articles {
		c := articles[i].Category
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
