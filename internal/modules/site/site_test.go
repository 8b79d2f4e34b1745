package site

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/healthlearn/site/internal/config"
	"github.com/healthlearn/site/internal/middleware"
	"github.com/healthlearn/site/internal/models"
	"github.com/healthlearn/site/internal/modules/content/query"
	"github.com/healthlearn/site/internal/modules/content/query/querytest"
	"github.com/healthlearn/site/internal/modules/processing/portabletext"
	"github.com/healthlearn/site/internal/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func newTestRouter(t *testing.T, reader query.Reader) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	renderer, err := NewRenderer()
	require.NoError(t, err)

	h := NewHandler(reader, renderer, config.SiteConfig{Title: "Health Learn", BaseURL: "https://example.test"}, nil)
	r := gin.New()
	r.Use(middleware.Preview())
	h.RegisterRoutes(r)
	r.NoRoute(h.NotFound)
	return r
}

func get(r http.Handler, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func parse(t *testing.T, w *httptest.ResponseRecorder) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(w.Body.String()))
	require.NoError(t, err)
	return doc
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// findAll returns every element node accepted by match, in document order.
func findAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && match(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func byTag(tag string) func(*html.Node) bool {
	return func(n *html.Node) bool { return n.Data == tag }
}

func byClass(class string) func(*html.Node) bool {
	return func(n *html.Node) bool { return hasClass(n, class) }
}

func first(t *testing.T, n *html.Node, match func(*html.Node) bool) *html.Node {
	t.Helper()
	nodes := findAll(n, match)
	require.NotEmpty(t, nodes)
	return nodes[0]
}

func text(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}

func meta(doc *html.Node, key string) string {
	for _, n := range findAll(doc, byTag("meta")) {
		if attr(n, "name") == key || attr(n, "property") == key {
			return attr(n, "content")
		}
	}
	return ""
}

func TestHomeFallbacks(t *testing.T) {
	r := newTestRouter(t, &querytest.Fake{})
	w := get(r, "/")
	require.Equal(t, http.StatusOK, w.Code)
	doc := parse(t, w)

	assert.Equal(t, query.DefaultSiteTitle, text(first(t, doc, byTag("title"))))
	assert.Equal(t, query.DefaultSiteDesc, meta(doc, "description"))
	assert.Equal(t, "website", meta(doc, "og:type"))
	assert.Equal(t, "summary_large_image", meta(doc, "twitter:card"))
	assert.Equal(t, "A starter template for", text(first(t, doc, byClass("tagline"))))

	h1 := first(t, doc, byClass("hero-title"))
	assert.Equal(t, "Sanity+Next.js", text(h1))
	links := findAll(h1, byTag("a"))
	require.Len(t, links, 2)
	assert.Equal(t, "https://sanity.io/", attr(links[0], "href"))
	assert.True(t, hasClass(links[0], "text-brand"))
	assert.Equal(t, "https://nextjs.org/", attr(links[1], "href"))
	assert.True(t, hasClass(links[1], "text-framework"))

	assert.Empty(t, findAll(doc, byClass("code-snippet")))
	assert.Empty(t, findAll(doc, byClass("doc-link")))
	assert.Empty(t, findAll(doc, byClass("post-card")))
}

func TestHomeConfigured(t *testing.T) {
	fake := &querytest.Fake{
		HomepageView: &query.HomepageView{
			Title:   "Learn",
			Tagline: "Guides for",
			MainTitle: []query.TitlePart{
				{Text: "Fertility+"},
				{Text: "Family", Link: "/articles", Color: models.ColorBrand},
				{Text: "Health"},
			},
			CodeSnippet:       &query.CodeSnippet{Command: "npm create site"},
			DocumentationLink: &query.DocumentationLink{Text: "Docs", URL: "https://docs.test", OpenInNewTab: true},
			SEODescription:    "Trusted guides",
		},
		SettingsView: &query.SettingsView{
			Title: "Health Learn",
			Description: portabletext.Content{{
				Type: portabletext.TypeBlock, Style: "normal",
				Children: []portabletext.Span{{Text: "Evidence based answers."}},
			}},
		},
		Posts: []query.PostSummary{{ID: "p1", Title: "", Slug: "first", Date: time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC)}},
	}
	r := newTestRouter(t, fake)
	w := get(r, "/")
	require.Equal(t, http.StatusOK, w.Code)
	doc := parse(t, w)

	assert.Equal(t, "Learn", text(first(t, doc, byTag("title"))))
	assert.Equal(t, "Trusted guides", meta(doc, "description"))
	assert.Equal(t, "Health Learn", meta(doc, "og:site_name"))
	assert.Equal(t, "Guides for", text(first(t, doc, byClass("tagline"))))
	assert.Equal(t, "Fertility+Family+Health", text(first(t, doc, byClass("hero-title"))))
	assert.Equal(t, "Evidence based answers.", text(first(t, doc, byClass("description"))))

	button := first(t, first(t, doc, byClass("code-snippet")), byTag("button"))
	assert.Equal(t, "Copy Snippet", text(button))
	assert.Equal(t, "Copied!", attr(button, "data-copied"))

	docLink := first(t, doc, byClass("doc-link"))
	assert.Equal(t, "_blank", attr(docLink, "target"))
	assert.Equal(t, "noopener noreferrer", attr(docLink, "rel"))

	card := first(t, doc, byClass("post-card"))
	assert.Contains(t, text(card), "Untitled")
	assert.Contains(t, text(card), "February 3, 2024")
}

func TestHomeStoreError(t *testing.T) {
	r := newTestRouter(t, &querytest.Fake{Err: errors.New("db down")})
	w := get(r, "/")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Something went wrong")
}

func listingFake() *querytest.Fake {
	published := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	return &querytest.Fake{Articles: []query.ArticleSummary{
		{ID: "a1", Title: "IVF basics", Slug: "ivf-basics", Category: "fertility", Subcategory: "ivf",
			Tags: []string{"a", "b", "c", "d", "e"}, ReadingTime: 5, TargetAudience: "individuals",
			PublishedDate: published, Featured: true},
		{ID: "a2", Slug: "untitled", Category: "pregnancy"},
		{ID: "a3", Title: "Egg freezing", Slug: "egg-freezing", Category: "fertility", Tags: []string{"x"}},
	}}
}

func TestArticlesListing(t *testing.T) {
	r := newTestRouter(t, listingFake())
	w := get(r, "/articles")
	require.Equal(t, http.StatusOK, w.Code)
	doc := parse(t, w)

	cats := findAll(first(t, doc, byClass("categories")), byTag("a"))
	var names []string
	for _, c := range cats {
		names = append(names, text(c))
	}
	assert.Equal(t, []string{"All", "fertility", "pregnancy"}, names)

	cards := findAll(doc, byClass("article-card"))
	require.Len(t, cards, 3)

	tags := findAll(cards[0], byClass("tag"))
	require.Len(t, tags, 3)
	assert.Equal(t, "+2 more", text(first(t, cards[0], byClass("more-tags"))))
	assert.Equal(t, "5 min read", text(first(t, cards[0], byClass("reading-time"))))
	assert.Equal(t, "For individuals", text(first(t, cards[0], byClass("audience"))))
	assert.Contains(t, text(cards[0]), "January 15, 2024")
	assert.NotEmpty(t, findAll(cards[0], byClass("featured")))

	assert.Equal(t, "Untitled", text(first(t, cards[1], byTag("h2"))))
	assert.Empty(t, findAll(cards[1], byClass("tags")))
	assert.Empty(t, findAll(cards[2], byClass("more-tags")))
	assert.NotContains(t, w.Body.String(), "No articles found.")
}

func TestArticlesCategoryFilter(t *testing.T) {
	r := newTestRouter(t, listingFake())
	w := get(r, "/articles?category=pregnancy")
	require.Equal(t, http.StatusOK, w.Code)
	doc := parse(t, w)

	cards := findAll(doc, byClass("article-card"))
	require.Len(t, cards, 1)
	// The filter bar still offers every category.
	assert.Len(t, findAll(first(t, doc, byClass("categories")), byTag("a")), 3)
	active := findAll(doc, byClass("active"))
	require.Len(t, active, 1)
	assert.Equal(t, "pregnancy", text(active[0]))
}

func TestArticlesEmpty(t *testing.T) {
	r := newTestRouter(t, &querytest.Fake{})
	w := get(r, "/articles")
	require.Equal(t, http.StatusOK, w.Code)
	doc := parse(t, w)
	assert.Equal(t, "No articles found.", text(first(t, doc, byClass("empty"))))
	assert.Empty(t, findAll(doc, byClass("categories")))
}

func TestArticleDetail(t *testing.T) {
	article := &query.ArticleView{
		ArticleSummary: query.ArticleSummary{
			ID: "a1", Title: "IVF basics", Slug: "ivf-basics", Category: "fertility",
			Excerpt: "What to expect.", Tags: []string{"a", "b", "c", "d"},
			Author: &query.Person{FirstName: "Ada", LastName: "Lovelace"},
		},
		MedicalReviewer: &query.Person{FirstName: "Grace", LastName: "Hopper"},
		Content: portabletext.Content{{
			Type: portabletext.TypeBlock, Style: "h2",
			Children: []portabletext.Span{{Text: "Overview"}},
		}},
	}
	fake := &querytest.Fake{ArticleViews: map[string]*query.ArticleView{"ivf-basics": article}}
	r := newTestRouter(t, fake)
	w := get(r, "/articles/ivf-basics")
	require.Equal(t, http.StatusOK, w.Code)
	doc := parse(t, w)

	assert.Equal(t, "IVF basics", text(first(t, doc, byTag("title"))))
	assert.Equal(t, "What to expect.", meta(doc, "description"))
	assert.Equal(t, "article", meta(doc, "og:type"))
	assert.Equal(t, "https://example.test/articles/ivf-basics", meta(doc, "og:url"))
	assert.Equal(t, "Overview", text(first(t, first(t, doc, byClass("prose")), byTag("h2"))))
	// The detail page shows every tag.
	assert.Len(t, findAll(first(t, doc, byClass("article-tags")), byClass("tag")), 4)
	assert.Equal(t, "By Ada Lovelace", text(first(t, doc, byClass("author"))))
	assert.Equal(t, "Medically reviewed by Grace Hopper", text(first(t, doc, byClass("reviewer"))))
}

func TestArticleSEOOverrides(t *testing.T) {
	article := &query.ArticleView{
		ArticleSummary: query.ArticleSummary{ID: "a1", Title: "IVF basics", Slug: "ivf-basics", Excerpt: "x"},
		SEOTitle:       "IVF explained",
		SEODescription: "All about IVF",
	}
	r := newTestRouter(t, &querytest.Fake{ArticleViews: map[string]*query.ArticleView{"ivf-basics": article}})
	doc := parse(t, get(r, "/articles/ivf-basics"))
	assert.Equal(t, "IVF explained", text(first(t, doc, byTag("title"))))
	assert.Equal(t, "All about IVF", meta(doc, "description"))
}

func TestUnknownSlugsAreNotFound(t *testing.T) {
	r := newTestRouter(t, &querytest.Fake{})
	for _, path := range []string{"/articles/missing", "/posts/missing", "/missing", "/a/b/c"} {
		w := get(r, path)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.Contains(t, w.Body.String(), "Page not found", path)
	}
}

func TestPostDetailWithMorePosts(t *testing.T) {
	post := &query.PostView{PostSummary: query.PostSummary{ID: "p1", Title: "Hello", Slug: "hello", Excerpt: "Intro"}}
	fake := &querytest.Fake{
		PostViews: map[string]*query.PostView{"hello": post},
		Posts: []query.PostSummary{
			{ID: "p1", Title: "Hello", Slug: "hello"},
			{ID: "p2", Title: "Second", Slug: "second"},
			{ID: "p3", Title: "Third", Slug: "third"},
			{ID: "p4", Title: "Fourth", Slug: "fourth"},
		},
	}
	r := newTestRouter(t, fake)
	w := get(r, "/posts/hello")
	require.Equal(t, http.StatusOK, w.Code)
	doc := parse(t, w)

	assert.Equal(t, "Hello", text(first(t, first(t, doc, byClass("post")), byTag("h1"))))
	assert.Equal(t, "Intro", meta(doc, "description"))
	cards := findAll(first(t, doc, byClass("more-posts")), byClass("post-card"))
	require.Len(t, cards, MorePostsLimit)
	assert.Contains(t, text(cards[0]), "Second")
	assert.Contains(t, text(cards[1]), "Third")
}

func TestPageSections(t *testing.T) {
	page := &query.PageView{
		ID: "pg1", Name: "About", Slug: "about", Heading: "About us", Subheading: "Who we are",
		Sections: []query.Section{
			{Type: models.SectionCallToAction, Heading: "Read more", ButtonText: "Go", Link: &query.ResolvedLink{Href: "/posts/hello", OpenInNewTab: true}},
			{Type: models.SectionCallToAction, Heading: "Broken", ButtonText: "Nowhere", Link: &query.ResolvedLink{}},
			{Type: models.SectionInfoSection, Heading: "Info", Content: portabletext.Content{{
				Type: portabletext.TypeBlock, Children: []portabletext.Span{{Text: "Details"}},
			}}},
		},
	}
	r := newTestRouter(t, &querytest.Fake{PageViews: map[string]*query.PageView{"about": page}})
	w := get(r, "/about")
	require.Equal(t, http.StatusOK, w.Code)
	doc := parse(t, w)

	assert.Equal(t, "About us", text(first(t, doc, byTag("title"))))
	ctas := findAll(doc, byClass("cta"))
	require.Len(t, ctas, 2)
	button := first(t, ctas[0], byClass("button"))
	assert.Equal(t, "/posts/hello", attr(button, "href"))
	assert.Equal(t, "_blank", attr(button, "target"))
	// Unresolved links degrade to no button.
	assert.Empty(t, findAll(ctas[1], byClass("button")))
	assert.Equal(t, "Details", text(first(t, first(t, doc, byClass("info")), byTag("p"))))
}

func TestDraftModeEnable(t *testing.T) {
	r := newTestRouter(t, &querytest.Fake{})
	token, err := jwt.Sign("editor", jwt.ScopePreview, time.Hour)
	require.NoError(t, err)

	w := get(r, "/api/draft-mode/enable?token="+token+"&redirect=/articles")
	require.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "/articles", w.Header().Get("Location"))
	cookie := w.Result().Cookies()
	require.Len(t, cookie, 1)
	assert.Equal(t, middleware.PreviewCookie, cookie[0].Name)
	assert.Equal(t, token, cookie[0].Value)
	assert.True(t, cookie[0].HttpOnly)

	w = get(r, "/api/draft-mode/enable?token="+token+"&redirect=//evil.test/x")
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestDraftModeRejectsStudioToken(t *testing.T) {
	r := newTestRouter(t, &querytest.Fake{})
	token, err := jwt.Sign("editor", jwt.ScopeStudio, time.Hour)
	require.NoError(t, err)
	w := get(r, "/api/draft-mode/enable?token="+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, w.Result().Cookies())
}

func TestDraftModeDisable(t *testing.T) {
	r := newTestRouter(t, &querytest.Fake{})
	w := get(r, "/api/draft-mode/disable")
	require.Equal(t, http.StatusTemporaryRedirect, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, middleware.PreviewCookie, cookies[0].Name)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestPreviewCookieSwitchesPerspective(t *testing.T) {
	fake := &querytest.Fake{}
	r := newTestRouter(t, fake)
	token, err := jwt.Sign("editor", jwt.ScopePreview, time.Hour)
	require.NoError(t, err)

	w := get(r, "/articles", &http.Cookie{Name: middleware.PreviewCookie, Value: token})
	require.Equal(t, http.StatusOK, w.Code)
	doc := parse(t, w)
	assert.NotEmpty(t, findAll(doc, func(n *html.Node) bool { return attr(n, "id") == "draft-mode" }))
	for _, p := range fake.Perspectives() {
		assert.Equal(t, query.PerspectiveDrafts, p)
	}

	fake = &querytest.Fake{}
	r = newTestRouter(t, fake)
	doc = parse(t, get(r, "/articles"))
	assert.Empty(t, findAll(doc, func(n *html.Node) bool { return attr(n, "id") == "draft-mode" }))
	for _, p := range fake.Perspectives() {
		assert.Equal(t, query.PerspectivePublished, p)
	}
}

func TestSafeRedirect(t *testing.T) {
	cases := map[string]string{
		"":                   "/",
		"/posts/hello":       "/posts/hello",
		"/articles?c=a":      "/articles?c=a",
		"https://evil.test":  "/",
		"//evil.test":        "/",
		"/\\evil.test":       "/",
		"javascript:alert()": "/",
	}
	for in, want := range cases {
		assert.Equal(t, want, safeRedirect(in), in)
	}
}
