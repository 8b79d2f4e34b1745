package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisplayTitleFallback(t *testing.T) {
	a := ArticleSummary{}
	assert.Equal(t, "Untitled", a.DisplayTitle())
	a.Title = "Egg freezing basics"
	assert.Equal(t, "Egg freezing basics", a.DisplayTitle())

	p := PostSummary{Title: "  "}
	assert.Equal(t, "Untitled", p.DisplayTitle())
}

func TestArticleMetaFallbacks(t *testing.T) {
	a := &ArticleView{ArticleSummary: ArticleSummary{Title: "IVF 101", Excerpt: "What to expect."}}
	assert.Equal(t, "IVF 101", a.MetaTitle())
	assert.Equal(t, "What to expect.", a.MetaDescription())

	a.SEOTitle = "IVF explained"
	a.SEODescription = "A short guide."
	assert.Equal(t, "IVF explained", a.MetaTitle())
	assert.Equal(t, "A short guide.", a.MetaDescription())

	empty := &ArticleView{}
	assert.Equal(t, "Untitled", empty.MetaTitle())
	assert.Equal(t, "", empty.MetaDescription())
}

func TestTagTruncation(t *testing.T) {
	a := ArticleSummary{Tags: []string{"a", "b", "c", "d", "e"}}
	assert.Equal(t, []string{"a", "b", "c"}, a.VisibleTags())
	assert.Equal(t, 2, a.HiddenTagCount())

	short := ArticleSummary{Tags: []string{"a", "b"}}
	assert.Equal(t, []string{"a", "b"}, short.VisibleTags())
	assert.Zero(t, short.HiddenTagCount())
}

func TestHeroTitleFallback(t *testing.T) {
	var h *HomepageView
	parts := h.TitleParts()
	require.Len(t, parts, 2)
	assert.Equal(t, TitlePart{Text: "Sanity", Link: "https://sanity.io/", Color: "brand", Separator: true}, parts[0])
	assert.Equal(t, TitlePart{Text: "Next.js", Link: "https://nextjs.org/", Color: "framework"}, parts[1])
	assert.Equal(t, "A starter template for", h.DisplayTagline())

	assert.Len(t, (&HomepageView{}).TitleParts(), 2)
}

func TestHeroTitleSeparators(t *testing.T) {
	h := &HomepageView{
		Tagline: "Built with",
		MainTitle: []TitlePart{
			{Text: "Go"},
			{Text: "MySQL +"},
			{Text: "Redis", Color: "brand"},
		},
	}
	parts := h.TitleParts()
	require.Len(t, parts, 3)
	assert.True(t, parts[0].Separator)
	assert.False(t, parts[1].Separator, "text already ends with +")
	assert.False(t, parts[2].Separator, "last part")
	assert.Equal(t, "Built with", h.DisplayTagline())
	assert.False(t, h.MainTitle[0].Separator, "source parts stay untouched")
}

func TestHomepageOptionalSections(t *testing.T) {
	var nilHome *HomepageView
	assert.Nil(t, nilHome.Snippet())
	assert.Nil(t, nilHome.DocLink())
	assert.Equal(t, DefaultSiteTitle, nilHome.MetaTitle())
	assert.Equal(t, DefaultSiteDesc, nilHome.MetaDescription())

	h := &HomepageView{
		CodeSnippet:       &CodeSnippet{},
		DocumentationLink: &DocumentationLink{Text: "Docs"},
	}
	assert.Nil(t, h.Snippet(), "no command")
	assert.Nil(t, h.DocLink(), "no url")

	h.CodeSnippet.Command = "npm create sanity@latest"
	h.DocumentationLink.URL = "https://example.com/docs"
	require.NotNil(t, h.Snippet())
	assert.Equal(t, "Copy Snippet", h.Snippet().ButtonText())
	assert.Equal(t, "Copied!", h.Snippet().CopiedLabel())
	assert.NotNil(t, h.DocLink())

	h.CodeSnippet.CopyButtonText = "Copy"
	assert.Equal(t, "Copy", h.Snippet().ButtonText())
}

func TestCategories(t *testing.T) {
	articles := []ArticleSummary{
		{Category: "fertility"},
		{Category: ""},
		{Category: "pregnancy"},
		{Category: "fertility"},
		{Category: "menopause"},
	}
	assert.Equal(t, []string{"fertility", "pregnancy", "menopause"}, Categories(articles))
	assert.Empty(t, Categories(nil))
}

func TestParsePerspective(t *testing.T) {
	assert.Equal(t, PerspectiveDrafts, ParsePerspective("drafts"))
	assert.Equal(t, PerspectiveDrafts, ParsePerspective(" previewDrafts "))
	assert.Equal(t, PerspectivePublished, ParsePerspective("raw"))
	assert.Equal(t, PerspectivePublished, ParsePerspective(""))
}
