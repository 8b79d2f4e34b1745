// Package querytest provides an in-memory query.Reader for handler tests.
package querytest

import (
	"context"
	"sync"

	"github.com/healthlearn/site/internal/modules/content/query"
)

// Fake serves canned views. Err, when set, is returned by every call, and
// so is the error of a done context.
type Fake struct {
	SettingsView *query.SettingsView
	HomepageView *query.HomepageView
	Articles     []query.ArticleSummary
	ArticleViews map[string]*query.ArticleView
	Posts        []query.PostSummary
	PostViews    map[string]*query.PostView
	PageViews    map[string]*query.PageView
	Sitemap      []query.SitemapEntry
	Err          error

	mu           sync.Mutex
	perspectives []query.Perspective
}

var _ query.Reader = (*Fake)(nil)

func (f *Fake) seen(ctx context.Context) error {
	f.mu.Lock()
	f.perspectives = append(f.perspectives, query.PerspectiveFrom(ctx))
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return f.Err
}

// Perspectives lists the perspective of every call so far.
func (f *Fake) Perspectives() []query.Perspective {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]query.Perspective(nil), f.perspectives...)
}

func (f *Fake) Settings(ctx context.Context) (*query.SettingsView, error) {
	return f.SettingsView, f.seen(ctx)
}

func (f *Fake) Homepage(ctx context.Context) (*query.HomepageView, error) {
	return f.HomepageView, f.seen(ctx)
}

func (f *Fake) AllArticles(ctx context.Context) ([]query.ArticleSummary, error) {
	return f.Articles, f.seen(ctx)
}

func (f *Fake) ArticleBySlug(ctx context.Context, slug string) (*query.ArticleView, error) {
	return f.ArticleViews[slug], f.seen(ctx)
}

func (f *Fake) ArticleSlugs(ctx context.Context) ([]query.SlugView, error) {
	out := make([]query.SlugView, 0, len(f.Articles))
	for _, a := range f.Articles {
		out = append(out, query.SlugView{Slug: a.Slug})
	}
	return out, f.seen(ctx)
}

func (f *Fake) ArticlesByCategory(ctx context.Context, category string) ([]query.ArticleSummary, error) {
	var out []query.ArticleSummary
	for _, a := range f.Articles {
		if a.Category == category {
			out = append(out, a)
		}
	}
	return out, f.seen(ctx)
}

func (f *Fake) FeaturedArticles(ctx context.Context) ([]query.ArticleSummary, error) {
	var out []query.ArticleSummary
	for _, a := range f.Articles {
		if a.Featured && len(out) < query.FeaturedArticleSize {
			out = append(out, a)
		}
	}
	return out, f.seen(ctx)
}

func (f *Fake) AllPosts(ctx context.Context) ([]query.PostSummary, error) {
	return f.Posts, f.seen(ctx)
}

func (f *Fake) MorePosts(ctx context.Context, skip string, limit int) ([]query.PostSummary, error) {
	var out []query.PostSummary
	for _, p := range f.Posts {
		if len(out) >= limit {
			break
		}
		if p.ID != skip {
			out = append(out, p)
		}
	}
	return out, f.seen(ctx)
}

func (f *Fake) PostBySlug(ctx context.Context, slug string) (*query.PostView, error) {
	return f.PostViews[slug], f.seen(ctx)
}

func (f *Fake) PostSlugs(ctx context.Context) ([]query.SlugView, error) {
	out := make([]query.SlugView, 0, len(f.Posts))
	for _, p := range f.Posts {
		out = append(out, query.SlugView{Slug: p.Slug})
	}
	return out, f.seen(ctx)
}

func (f *Fake) PageSlugs(ctx context.Context) ([]query.SlugView, error) {
	out := make([]query.SlugView, 0, len(f.PageViews))
	for slug := range f.PageViews {
		out = append(out, query.SlugView{Slug: slug})
	}
	return out, f.seen(ctx)
}

func (f *Fake) PageBySlug(ctx context.Context, slug string) (*query.PageView, error) {
	return f.PageViews[slug], f.seen(ctx)
}

func (f *Fake) SitemapData(ctx context.Context) ([]query.SitemapEntry, error) {
	return f.Sitemap, f.seen(ctx)
}
