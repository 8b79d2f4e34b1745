package portabletext

import (
	"testing"

	"github.com/healthlearn/site/internal/models"
	"github.com/healthlearn/site/internal/modules/storage/asset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textBlock(style, text string, marks ...string) Block {
	return Block{Type: TypeBlock, Style: style, Children: []Span{{Text: text, Marks: marks}}}
}

func TestRenderStyles(t *testing.T) {
	got := Render(Content{
		textBlock("h2", "Heading"),
		textBlock("normal", "Body & more"),
		textBlock("blockquote", "Quoted"),
		textBlock("", "Unstyled"),
	})
	assert.Equal(t, "<h2>Heading</h2><p>Body &amp; more</p><blockquote>Quoted</blockquote><p>Unstyled</p>", string(got))
}

func TestRenderDecorators(t *testing.T) {
	got := Render(Content{{
		Type: TypeBlock,
		Children: []Span{
			{Text: "bold", Marks: []string{"strong"}},
			{Text: " plain "},
			{Text: "both", Marks: []string{"em", "underline"}},
			{Text: "gone", Marks: []string{"strike-through"}},
			{Text: "x", Marks: []string{"code", "unknown"}},
		},
	}})
	assert.Equal(t, "<p><strong>bold</strong> plain <em><u>both</u></em><s>gone</s><code>x</code></p>", string(got))
}

func TestRenderLinks(t *testing.T) {
	got := Render(Content{{
		Type: TypeBlock,
		Children: []Span{
			{Text: "resolved", Marks: []string{"a1"}},
			{Text: " and "},
			{Text: "external", Marks: []string{"a2", "strong"}},
			{Text: " and "},
			{Text: "dangling", Marks: []string{"a3"}},
		},
		MarkDefs: []Annotation{
			{Key: "a1", Type: "link", Href: "/about"},
			{Key: "a2", Type: "link", Href: "https://example.com", OpenInNewTab: true},
			{Key: "a3", Type: "link"},
		},
	}})
	assert.Equal(t,
		`<p><a href="/about">resolved</a> and <a href="https://example.com" target="_blank" rel="noopener noreferrer"><strong>external</strong></a> and dangling</p>`,
		string(got))
}

func TestSafeURL(t *testing.T) {
	for _, raw := range []string{
		"/about",
		"#top",
		"posts/hello",
		"https://example.com/a?b=c",
		"HTTP://EXAMPLE.COM",
		"mailto:team@example.com",
		"tel:+15551234567",
		"//cdn.example.com/a.png",
	} {
		assert.Equal(t, raw, SafeURL(raw), raw)
	}
	assert.Equal(t, "https://example.com", SafeURL("  https://example.com\n"))

	for _, raw := range []string{
		"javascript:alert(1)",
		"JavaScript:alert(1)",
		"java\tscript:alert(1)",
		"java\nscript:alert(1)",
		"java\rscript:alert(1)",
		"\x01javascript:alert(1)",
		" \x00javascript:alert(1)",
		"data:text/html;base64,PHNjcmlwdD4=",
		"vbscript:msgbox(1)",
		"java\u00a0script:alert(1)",
		"",
		"   ",
	} {
		assert.Empty(t, SafeURL(raw), "%q", raw)
	}
}

func TestRenderDropsUnsafeLinks(t *testing.T) {
	got := Render(Content{{
		Type:     TypeBlock,
		Children: []Span{{Text: "x", Marks: []string{"a1"}}, {Text: "y", Marks: []string{"a2"}}},
		MarkDefs: []Annotation{
			{Key: "a1", Type: "link", Href: "java\tscript:alert(1)"},
			{Key: "a2", Type: "link", Href: "data:text/html,<b>"},
		},
	}})
	assert.Equal(t, "<p>xy</p>", string(got))

	got = Render(Content{{Type: TypeImage, Image: &asset.Image{URL: "javascript:alert(1)", Alt: "x"}}})
	assert.Empty(t, string(got))
}

func TestRenderLists(t *testing.T) {
	item := func(kind string, level int, text string) Block {
		return Block{Type: TypeBlock, ListItem: kind, Level: level, Children: []Span{{Text: text}}}
	}
	got := Render(Content{
		item(ListBullet, 1, "a"),
		item(ListBullet, 2, "b"),
		item(ListBullet, 1, "c"),
		item(ListNumber, 1, "one"),
		textBlock("normal", "after"),
	})
	assert.Equal(t,
		"<ul><li>a<ul><li>b</li></ul></li><li>c</li></ul><ol><li>one</li></ol><p>after</p>",
		string(got))
}

func TestRenderSkipsUnknownAndEmpty(t *testing.T) {
	got := Render(Content{
		{Type: "youtube"},
		{Type: TypeImage},
		{Type: TypeCode},
		textBlock("normal", "kept"),
	})
	assert.Equal(t, "<p>kept</p>", string(got))
	assert.Equal(t, "", string(Render(nil)))
}

func TestRenderImageAndCode(t *testing.T) {
	got := Render(Content{
		{Type: TypeImage, Image: &asset.Image{URL: "https://cdn/x.png", Alt: "An \"x\"", Width: 4, Height: 3}},
		{Type: TypeCode, Code: "<b>", Language: "html"},
	})
	assert.Equal(t,
		`<figure><img src="https://cdn/x.png" alt="An &#34;x&#34;" width="4" height="3" loading="lazy"></figure><pre><code class="language-html">&lt;b&gt;</code></pre>`,
		string(got))
}

func TestRenderMarkdown(t *testing.T) {
	got := string(Render(Content{{Type: TypeMarkdown, Markdown: "# Title\n\n**bold** <script>x</script>"}}))
	assert.Contains(t, got, "<h1>Title</h1>")
	assert.Contains(t, got, "<strong>bold</strong>")
	assert.NotContains(t, got, "<script>")
	assert.Equal(t, "", RenderMarkdown("   "))
}

func TestFromModel(t *testing.T) {
	src := models.BlockContent{
		{
			Type:     TypeBlock,
			Style:    "normal",
			Children: []models.Span{{Text: "see ", Marks: nil}, {Text: "page", Marks: []string{"k1"}}},
			MarkDefs: []models.MarkDef{{Key: "k1", Type: "link", Link: models.Link{
				LinkType: models.LinkTypePage,
				Page:     &models.Reference{Ref: "page-1"},
			}}},
		},
		{Type: TypeImage, Asset: &models.Reference{Ref: "image-abc-1x1-png"}, Alt: "dot"},
	}

	var hrefs []string
	content := FromModel(src, Resolver{
		Href: func(l *models.Link) string {
			hrefs = append(hrefs, l.TargetRef())
			return "/about"
		},
		Image: func(ref, alt string) *asset.Image {
			return &asset.Image{URL: "https://cdn/" + ref, Alt: alt}
		},
	})

	require.Len(t, content, 2)
	assert.Equal(t, []string{"page-1"}, hrefs)
	assert.Equal(t, "/about", content[0].MarkDefs[0].Href)
	require.NotNil(t, content[1].Image)
	assert.Equal(t, "dot", content[1].Image.Alt)
	assert.Nil(t, FromModel(nil, Resolver{}))
}

func TestPlainText(t *testing.T) {
	c := Content{
		textBlock("h2", "Intro"),
		{Type: TypeCode, Code: "ignored"},
		{Type: TypeBlock, Children: []Span{{Text: "Hello, "}, {Text: "world"}}},
		textBlock("normal", "   "),
	}
	assert.Equal(t, "Intro\n\nHello, world", c.PlainText())
}
