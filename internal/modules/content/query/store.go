// Package query is the typed read layer over the content store. Every
// operation returns a fixed view type with references and assets resolved.
package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/healthlearn/site/internal/models"
	"github.com/healthlearn/site/internal/modules/storage/asset"
	"github.com/healthlearn/site/internal/pkg/docid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Reader is the read surface consumed by the site and the JSON API.
type Reader interface {
	Settings(ctx context.Context) (*SettingsView, error)
	Homepage(ctx context.Context) (*HomepageView, error)
	AllArticles(ctx context.Context) ([]ArticleSummary, error)
	ArticleBySlug(ctx context.Context, slug string) (*ArticleView, error)
	ArticleSlugs(ctx context.Context) ([]SlugView, error)
	ArticlesByCategory(ctx context.Context, category string) ([]ArticleSummary, error)
	FeaturedArticles(ctx context.Context) ([]ArticleSummary, error)
	AllPosts(ctx context.Context) ([]PostSummary, error)
	MorePosts(ctx context.Context, skip string, limit int) ([]PostSummary, error)
	PostBySlug(ctx context.Context, slug string) (*PostView, error)
	PostSlugs(ctx context.Context) ([]SlugView, error)
	PageSlugs(ctx context.Context) ([]SlugView, error)
	PageBySlug(ctx context.Context, slug string) (*PageView, error)
	SitemapData(ctx context.Context) ([]SitemapEntry, error)
}

// Store implements Reader on gorm.
type Store struct {
	db     *gorm.DB
	assets *asset.Resolver
	logger *zap.Logger
}

var _ Reader = (*Store)(nil)

func NewStore(db *gorm.DB, assets *asset.Resolver, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, assets: assets, logger: logger}
}

func (s *Store) articles(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Model(&models.ArticleModel{}).
		Preload("Author").
		Preload("MedicalReviewer")
}

func (s *Store) posts(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Model(&models.PostModel{}).Preload("Author")
}

// Settings returns the settings singleton, or nil.
func (s *Store) Settings(ctx context.Context) (*SettingsView, error) {
	var rows []models.SettingsModel
	if err := s.db.WithContext(ctx).Where("id IN ?", singletonIDs(ctx, models.SettingsID)).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query settings: %w", err)
	}
	rows = overlay(rows)
	if len(rows) == 0 {
		return nil, nil
	}
	m := &rows[0]
	targets, err := s.loadLinkTargets(ctx, m.Description.LinkRefs())
	if err != nil {
		return nil, err
	}
	return &SettingsView{
		ID:          m.ID,
		Title:       m.Title,
		Description: s.richText(ctx, m.Description, targets),
		OGImage:     s.image(ctx, m.OGImage),
	}, nil
}

// Homepage returns the homepage singleton, or nil.
func (s *Store) Homepage(ctx context.Context) (*HomepageView, error) {
	var rows []models.HomepageModel
	if err := s.db.WithContext(ctx).Where("id IN ?", singletonIDs(ctx, models.HomepageID)).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query homepage: %w", err)
	}
	rows = overlay(rows)
	if len(rows) == 0 {
		return nil, nil
	}
	return s.homepageView(ctx, &rows[0]), nil
}

func articleKeys(a *models.ArticleModel) (time.Time, time.Time) {
	if a.PublishedDate != nil {
		return *a.PublishedDate, a.UpdatedAt
	}
	return a.UpdatedAt, a.UpdatedAt
}

func postKeys(p *models.PostModel) (time.Time, time.Time) {
	if p.Date != nil {
		return *p.Date, p.UpdatedAt
	}
	return p.UpdatedAt, p.UpdatedAt
}

func (s *Store) listArticles(ctx context.Context, spec listSpec[models.ArticleModel]) ([]ArticleSummary, error) {
	spec.order = articleOrder
	spec.keys = articleKeys
	match := spec.match
	spec.match = func(a *models.ArticleModel) bool {
		return hasSlug(a.Slug) && (match == nil || match(a))
	}
	rows, err := list(ctx, s.articles(ctx), spec)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	out := make([]ArticleSummary, 0, len(rows))
	for i := range rows {
		out = append(out, s.articleSummary(ctx, &rows[i]))
	}
	return out, nil
}

// AllArticles lists every article with a slug, newest first.
func (s *Store) AllArticles(ctx context.Context) ([]ArticleSummary, error) {
	return s.listArticles(ctx, listSpec[models.ArticleModel]{})
}

// ArticlesByCategory lists the articles of one category, newest first.
func (s *Store) ArticlesByCategory(ctx context.Context, category string) ([]ArticleSummary, error) {
	return s.listArticles(ctx, listSpec[models.ArticleModel]{
		scope: func(tx *gorm.DB) *gorm.DB { return tx.Where("category = ?", category) },
		match: func(a *models.ArticleModel) bool { return a.Category == category },
	})
}

// FeaturedArticles returns at most three featured articles, newest first.
func (s *Store) FeaturedArticles(ctx context.Context) ([]ArticleSummary, error) {
	return s.listArticles(ctx, listSpec[models.ArticleModel]{
		scope: func(tx *gorm.DB) *gorm.DB { return tx.Where("featured = ?", true) },
		match: func(a *models.ArticleModel) bool { return a.Featured },
		limit: FeaturedArticleSize,
	})
}

// ArticleBySlug returns the article with slug, or nil.
func (s *Store) ArticleBySlug(ctx context.Context, slug string) (*ArticleView, error) {
	if strings.TrimSpace(slug) == "" {
		return nil, nil
	}
	m, err := findOne[models.ArticleModel](ctx, s.db, s.articles(ctx), "slug = ?", slug)
	if err != nil {
		return nil, fmt.Errorf("query article %q: %w", slug, err)
	}
	if m == nil {
		return nil, nil
	}
	targets, err := s.loadLinkTargets(ctx, m.Content.LinkRefs())
	if err != nil {
		return nil, err
	}
	return &ArticleView{
		ArticleSummary:  s.articleSummary(ctx, m),
		Content:         s.richText(ctx, m.Content, targets),
		LastUpdated:     m.LastUpdated,
		MedicalReviewer: s.person(ctx, m.MedicalReviewer),
		SEOTitle:        m.SEOTitle,
		SEODescription:  m.SEODescription,
	}, nil
}

// ArticleSlugs enumerates published article slugs.
func (s *Store) ArticleSlugs(ctx context.Context) ([]SlugView, error) {
	return s.slugs(ctx, &models.ArticleModel{})
}

// PostSlugs enumerates published post slugs.
func (s *Store) PostSlugs(ctx context.Context) ([]SlugView, error) {
	return s.slugs(ctx, &models.PostModel{})
}

// PageSlugs enumerates published page slugs.
func (s *Store) PageSlugs(ctx context.Context) ([]SlugView, error) {
	return s.slugs(ctx, &models.PageModel{})
}

// slugs always reads the published perspective; it feeds static enumeration.
func (s *Store) slugs(ctx context.Context, model models.Document) ([]SlugView, error) {
	var slugs []string
	tx := slugDefined(publishedOnly(s.db.WithContext(ctx).Model(model)))
	if err := tx.Order("slug ASC").Pluck("slug", &slugs).Error; err != nil {
		return nil, fmt.Errorf("query %s slugs: %w", model.TableName(), err)
	}
	out := make([]SlugView, 0, len(slugs))
	for _, slug := range slugs {
		out = append(out, SlugView{Slug: slug})
	}
	return out, nil
}

func (s *Store) listPosts(ctx context.Context, spec listSpec[models.PostModel]) ([]PostSummary, error) {
	spec.order = postOrder
	spec.keys = postKeys
	match := spec.match
	spec.match = func(p *models.PostModel) bool {
		return hasSlug(p.Slug) && (match == nil || match(p))
	}
	rows, err := list(ctx, s.posts(ctx), spec)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	out := make([]PostSummary, 0, len(rows))
	for i := range rows {
		out = append(out, s.postSummary(ctx, &rows[i]))
	}
	return out, nil
}

// AllPosts lists every post with a slug, newest first.
func (s *Store) AllPosts(ctx context.Context) ([]PostSummary, error) {
	return s.listPosts(ctx, listSpec[models.PostModel]{})
}

// MorePosts lists up to limit posts other than skip, newest first. skip is
// a document id; both its draft and published forms are excluded.
func (s *Store) MorePosts(ctx context.Context, skip string, limit int) ([]PostSummary, error) {
	if limit <= 0 {
		return []PostSummary{}, nil
	}
	base := docid.PublishedID(skip)
	excluded := []string{base, docid.DraftID(base)}
	return s.listPosts(ctx, listSpec[models.PostModel]{
		scope: func(tx *gorm.DB) *gorm.DB { return tx.Where("id NOT IN ?", excluded) },
		match: func(p *models.PostModel) bool { return docid.PublishedID(p.ID) != base },
		limit: limit,
	})
}

// PostBySlug returns the post with slug, or nil.
func (s *Store) PostBySlug(ctx context.Context, slug string) (*PostView, error) {
	if strings.TrimSpace(slug) == "" {
		return nil, nil
	}
	m, err := findOne[models.PostModel](ctx, s.db, s.posts(ctx), "slug = ?", slug)
	if err != nil {
		return nil, fmt.Errorf("query post %q: %w", slug, err)
	}
	if m == nil {
		return nil, nil
	}
	targets, err := s.loadLinkTargets(ctx, m.Content.LinkRefs())
	if err != nil {
		return nil, err
	}
	return &PostView{
		PostSummary: s.postSummary(ctx, m),
		Content:     s.richText(ctx, m.Content, targets),
	}, nil
}

// PageBySlug returns the page with slug, or nil.
func (s *Store) PageBySlug(ctx context.Context, slug string) (*PageView, error) {
	if strings.TrimSpace(slug) == "" {
		return nil, nil
	}
	tx := s.db.WithContext(ctx).Model(&models.PageModel{})
	m, err := findOne[models.PageModel](ctx, s.db, tx, "slug = ?", slug)
	if err != nil {
		return nil, fmt.Errorf("query page %q: %w", slug, err)
	}
	if m == nil {
		return nil, nil
	}
	targets, err := s.loadLinkTargets(ctx, m.LinkRefs())
	if err != nil {
		return nil, err
	}
	return s.pageView(ctx, m, targets), nil
}

// SitemapData lists routable pages then posts.
func (s *Store) SitemapData(ctx context.Context) ([]SitemapEntry, error) {
	var out []SitemapEntry
	for _, src := range []struct {
		typ   string
		model models.Document
	}{
		{"page", &models.PageModel{}},
		{"post", &models.PostModel{}},
	} {
		var rows []struct {
			ID        string
			Slug      string
			UpdatedAt time.Time
		}
		tx := slugDefined(publishedOnly(s.db.WithContext(ctx).Model(src.model)))
		if err := tx.Select("id, slug, updated_at").Order("updated_at DESC").Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("query %s sitemap: %w", src.model.TableName(), err)
		}
		for _, r := range rows {
			out = append(out, SitemapEntry{Type: src.typ, Slug: r.Slug, UpdatedAt: r.UpdatedAt})
		}
	}
	return out, nil
}
