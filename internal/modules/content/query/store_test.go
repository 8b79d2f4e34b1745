package query

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/healthlearn/site/internal/config"
	"github.com/healthlearn/site/internal/models"
	"github.com/healthlearn/site/internal/modules/storage/asset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	assets := asset.NewResolver(config.AssetsConfig{PublicBaseURL: "https://cdn.test"}, nil)
	return NewStore(db, assets, nil), mock
}

func TestOverlay(t *testing.T) {
	rows := []models.PostModel{
		{DocumentBase: models.DocumentBase{ID: "a"}},
		{DocumentBase: models.DocumentBase{ID: "b"}},
		{DocumentBase: models.DocumentBase{ID: "drafts.a"}},
		{DocumentBase: models.DocumentBase{ID: "drafts.c"}},
	}
	got := overlay(rows)
	ids := make([]string, 0, len(got))
	for _, r := range got {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"drafts.a", "b", "drafts.c"}, ids)
}

func TestArticleSlugsPublishedOnly(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT `slug` FROM `articles` WHERE id NOT LIKE \\? AND slug IS NOT NULL AND slug <> ''").
		WithArgs("drafts.%").
		WillReturnRows(sqlmock.NewRows([]string{"slug"}).AddRow("ivf-basics").AddRow("menopause-101"))

	// Slug enumeration ignores the drafts perspective.
	ctx := WithPerspective(context.Background(), PerspectiveDrafts)
	slugs, err := store.ArticleSlugs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []SlugView{{Slug: "ivf-basics"}, {Slug: "menopause-101"}}, slugs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArticleBySlugNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT \\* FROM `articles` WHERE id NOT LIKE \\? AND slug = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id", "slug"}))

	article, err := store.ArticleBySlug(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, article)
	assert.NoError(t, mock.ExpectationsWereMet())

	article, err = store.ArticleBySlug(context.Background(), "  ")
	require.NoError(t, err)
	assert.Nil(t, article)
}

func TestArticleBySlugResolvesLinks(t *testing.T) {
	store, mock := newMockStore(t)
	updated := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	content := `[{"_type":"block","style":"normal","children":[{"text":"See "},{"text":"about","marks":["l1"]},{"text":" and "},{"text":"gone","marks":["l2"]}],` +
		`"markDefs":[{"_key":"l1","_type":"link","linkType":"page","page":{"_ref":"page-about"}},{"_key":"l2","_type":"link","linkType":"post","post":{"_ref":"post-deleted"}}]}]`

	mock.ExpectQuery("SELECT \\* FROM `articles` WHERE id NOT LIKE \\? AND slug = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at", "title", "slug", "category", "content", "featured_image", "tags", "seo_title"}).
			AddRow("art-1", updated, updated, "", "ivf-basics", "fertility", content,
				`{"asset":{"_ref":"image-abc-800x600-jpg"},"alt":"Clinic"}`, `["ivf","clinic"]`, ""))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, slug FROM `pages` WHERE id IN (?,?)")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "slug"}).AddRow("page-about", "about"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, slug FROM `posts` WHERE id IN (?,?)")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "slug"}))

	article, err := store.ArticleBySlug(context.Background(), "ivf-basics")
	require.NoError(t, err)
	require.NotNil(t, article)

	assert.Equal(t, "Untitled", article.Title)
	assert.Equal(t, "published", article.Status)
	assert.Equal(t, updated, article.PublishedDate, "published date coalesces to updated at")
	assert.Equal(t, []string{"ivf", "clinic"}, article.Tags)
	assert.Equal(t, "Untitled", article.MetaTitle())
	assert.Nil(t, article.Author)

	require.NotNil(t, article.FeaturedImage)
	assert.Equal(t, "https://cdn.test/abc-800x600.jpg", article.FeaturedImage.URL)

	require.Len(t, article.Content, 1)
	defs := article.Content[0].MarkDefs
	require.Len(t, defs, 2)
	assert.Equal(t, "/about", defs[0].Href)
	assert.Equal(t, "", defs[1].Href, "dangling reference stays unresolved")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllPostsDraftsPerspective(t *testing.T) {
	store, mock := newMockStore(t)
	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT \\* FROM `posts` ORDER BY COALESCE").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at", "title", "slug", "date"}).
			AddRow("p2", feb, feb, "Second", "second", feb).
			AddRow("p1", jan, jan, "First", "first", jan).
			AddRow("drafts.p1", jan, mar, "First (edited)", "first-edited", mar).
			AddRow("drafts.p3", jan, mar, "No slug yet", nil, nil))

	ctx := WithPerspective(context.Background(), PerspectiveDrafts)
	posts, err := store.AllPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	assert.Equal(t, "drafts.p1", posts[0].ID)
	assert.Equal(t, "draft", posts[0].Status)
	assert.Equal(t, "first-edited", posts[0].Slug)
	assert.Equal(t, mar, posts[0].Date)

	assert.Equal(t, "p2", posts[1].ID)
	assert.Equal(t, "published", posts[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMorePostsZeroLimit(t *testing.T) {
	store, mock := newMockStore(t)
	posts, err := store.MorePosts(context.Background(), "p1", 0)
	require.NoError(t, err)
	assert.Empty(t, posts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHomepageDraftOverlay(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `homepages` WHERE id IN (?,?)")).
		WithArgs("homepage", "drafts.homepage").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at", "title", "hero_section"}).
			AddRow("homepage", now, now, "Live", `{"tagline":"Live tagline"}`).
			AddRow("drafts.homepage", now, now, "Draft", nil))

	ctx := WithPerspective(context.Background(), PerspectiveDrafts)
	home, err := store.Homepage(ctx)
	require.NoError(t, err)
	require.NotNil(t, home)
	assert.Equal(t, "Draft", home.Title)
	assert.Equal(t, "draft", home.Status)
	assert.Equal(t, "A starter template for", home.DisplayTagline())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsMissing(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `settings` WHERE id IN (?)")).
		WithArgs("settings").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	settings, err := store.Settings(context.Background())
	require.NoError(t, err)
	assert.Nil(t, settings)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLinkTargetsHref(t *testing.T) {
	targets := linkTargets{
		pages: map[string]string{"page-1": "about"},
		posts: map[string]string{"post-1": "hello", "post-2": ""},
	}
	assert.Equal(t, "/about", targets.Href(&models.Link{LinkType: models.LinkTypePage, Page: &models.Reference{Ref: "page-1"}}))
	assert.Equal(t, "/posts/hello", targets.Href(&models.Link{LinkType: models.LinkTypePost, Post: &models.Reference{Ref: "drafts.post-1"}}))
	assert.Equal(t, "", targets.Href(&models.Link{LinkType: models.LinkTypePost, Post: &models.Reference{Ref: "post-2"}}))
	assert.Equal(t, "", targets.Href(&models.Link{LinkType: models.LinkTypePage}))
	assert.Equal(t, "https://example.com", targets.Href(&models.Link{LinkType: models.LinkTypeHref, Href: " https://example.com "}))
	assert.Equal(t, "", targets.Href(&models.Link{Href: "javascript:alert(1)"}))
	assert.Equal(t, "", targets.Href(&models.Link{LinkType: models.LinkTypeHref, Href: "java\tscript:alert(1)"}))
	assert.Equal(t, "mailto:team@example.com", targets.Href(&models.Link{Href: "mailto:team@example.com"}))
	assert.Equal(t, "", targets.Href(nil))
}
