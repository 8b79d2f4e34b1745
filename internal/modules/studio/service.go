// Package studio is the authoring API: drafts, publishing, assets and
// dataset import.
package studio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"time"

	"github.com/healthlearn/site/internal/middleware"
	"github.com/healthlearn/site/internal/models"
	"github.com/healthlearn/site/internal/modules/schema"
	"github.com/healthlearn/site/internal/modules/storage/asset"
	"github.com/healthlearn/site/internal/modules/storage/importer"
	"github.com/healthlearn/site/internal/pkg/docid"
	"github.com/healthlearn/site/internal/pkg/pagination"
	"github.com/healthlearn/site/internal/pkg/response"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound          = errors.New("document not found")
	ErrInvalidID         = errors.New("invalid document id")
	ErrInvalidBody       = errors.New("invalid document body")
	ErrNothingToPublish  = errors.New("document has no draft to publish")
	ErrNotPublished      = errors.New("document is not published")
	ErrSingletonMismatch = errors.New("singleton id mismatch")
)

// singletonIDs fixes the published id of singleton types.
var singletonIDs = map[string]string{
	"homepage": models.HomepageID,
	"settings": models.SettingsID,
}

// Uploader stores image assets.
type Uploader interface {
	Upload(ctx context.Context, data []byte, contentType string) (asset.Info, error)
	URL(ctx context.Context, ref string) string
}

// Item is one row of a document list.
type Item struct {
	ID        string             `json:"_id"`
	Type      string             `json:"_type"`
	Status    string             `json:"status"`
	UpdatedAt time.Time          `json:"_updatedAt"`
	Preview   schema.PreviewItem `json:"preview"`
}

// Versions holds both stored forms of a document.
type Versions struct {
	ID        string          `json:"_id"`
	Type      string          `json:"_type"`
	Status    string          `json:"status"`
	Draft     models.Document `json:"draft"`
	Published models.Document `json:"published"`
}

// Asset is an uploaded image.
type Asset struct {
	ID     string `json:"_id"`
	URL    string `json:"url,omitempty"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Ext    string `json:"extension"`
}

type Service struct {
	db       *gorm.DB
	registry *schema.Registry
	assets   Uploader
	importer *importer.Importer
	rdb      *redis.Client
	logger   *zap.Logger
}

func NewService(db *gorm.DB, registry *schema.Registry, assets Uploader, imp *importer.Importer, rdb *redis.Client, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: db, registry: registry, assets: assets, importer: imp, rdb: rdb, logger: logger}
}

// Schema returns the type registry.
func (s *Service) Schema() []*schema.Type {
	return s.registry.Types()
}

func (s *Service) documentType(name string) (*schema.Type, error) {
	t, ok := s.registry.Lookup(name)
	if !ok || !t.Document {
		return nil, fmt.Errorf("%w: %s", schema.ErrUnknownType, name)
	}
	return t, nil
}

// publishedID validates id for t and returns its published form.
func publishedID(t *schema.Type, id string) (string, error) {
	if !docid.Valid(id) {
		return "", ErrInvalidID
	}
	pub := docid.PublishedID(id)
	if want, ok := singletonIDs[t.Name]; ok && pub != want {
		return "", fmt.Errorf("%w: %s must use id %q", ErrSingletonMismatch, t.Name, want)
	}
	return pub, nil
}

// List pages through every stored row of a type, newest edit first.
func (s *Service) List(ctx context.Context, typeName string, q pagination.Query) ([]Item, response.Pagination, error) {
	t, err := s.documentType(typeName)
	if err != nil {
		return nil, response.Pagination{}, err
	}
	model := t.New()
	rows := reflect.New(reflect.SliceOf(reflect.TypeOf(model)))

	var preloads []string
	if _, ok := t.Field("author"); ok {
		preloads = append(preloads, "Author")
	}
	tx := s.db.WithContext(ctx).Model(model).Order("updated_at DESC")
	pag, err := pagination.Paginate(tx, q, rows.Interface(), preloads...)
	if err != nil {
		return nil, pag, fmt.Errorf("list %s: %w", typeName, err)
	}

	list := rows.Elem()
	items := make([]Item, 0, list.Len())
	for i := 0; i < list.Len(); i++ {
		doc := list.Index(i).Interface().(models.Document)
		items = append(items, Item{
			ID:        doc.DocumentID(),
			Type:      typeName,
			Status:    docid.Status(doc.DocumentID()),
			UpdatedAt: doc.Base().UpdatedAt,
			Preview:   schema.Preview(doc),
		})
	}
	return items, pag, nil
}

// load reads one row by exact id, nil when absent.
func (s *Service) load(ctx context.Context, db *gorm.DB, t *schema.Type, id string) (models.Document, error) {
	doc := t.New()
	err := db.WithContext(ctx).First(doc, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s %s: %w", t.Name, id, err)
	}
	return doc, nil
}

// Get returns the draft and published forms of a document.
func (s *Service) Get(ctx context.Context, typeName, id string) (*Versions, error) {
	t, err := s.documentType(typeName)
	if err != nil {
		return nil, err
	}
	pub, err := publishedID(t, id)
	if err != nil {
		return nil, err
	}
	draft, err := s.load(ctx, s.db, t, docid.DraftID(pub))
	if err != nil {
		return nil, err
	}
	published, err := s.load(ctx, s.db, t, pub)
	if err != nil {
		return nil, err
	}
	if draft == nil && published == nil {
		return nil, ErrNotFound
	}
	v := &Versions{ID: pub, Type: typeName, Draft: draft, Published: published, Status: docid.StatusPublished}
	if draft != nil {
		v.Status = docid.StatusDraft
	}
	return v, nil
}

// SaveDraft fills a new document through decode, validates it and stores
// it under the draft id.
func (s *Service) SaveDraft(ctx context.Context, typeName, id string, decode func(models.Document) error) (models.Document, error) {
	t, err := s.documentType(typeName)
	if err != nil {
		return nil, err
	}
	pub, err := publishedID(t, id)
	if err != nil {
		return nil, err
	}
	doc := t.New()
	if err := decode(doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBody, err)
	}
	base := doc.Base()
	base.ID = docid.DraftID(pub)
	base.CreatedAt = time.Time{}

	if err := s.registry.Validate(ctx, typeName, doc, s); err != nil {
		return nil, err
	}
	if err := s.upsert(s.db.WithContext(ctx), doc); err != nil {
		return nil, err
	}
	s.logger.Info("draft saved", zap.String("type", typeName), zap.String("id", doc.DocumentID()))
	return doc, nil
}

// Publish promotes the draft to the published id and removes the draft.
func (s *Service) Publish(ctx context.Context, typeName, id string) (models.Document, error) {
	t, err := s.documentType(typeName)
	if err != nil {
		return nil, err
	}
	pub, err := publishedID(t, id)
	if err != nil {
		return nil, err
	}

	draft, err := s.load(ctx, s.db, t, docid.DraftID(pub))
	if err != nil {
		return nil, err
	}
	if draft == nil {
		existing, err := s.load(ctx, s.db, t, pub)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, ErrNotFound
		}
		return nil, ErrNothingToPublish
	}
	if err := s.registry.Validate(ctx, typeName, draft, s); err != nil {
		return nil, err
	}

	draftID := draft.DocumentID()
	draft.Base().ID = pub
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.upsert(tx, draft); err != nil {
			return err
		}
		return tx.Delete(t.New(), "id = ?", draftID).Error
	})
	if err != nil {
		return nil, fmt.Errorf("publish %s %s: %w", typeName, pub, err)
	}

	s.purge(ctx)
	s.logger.Info("document published", zap.String("type", typeName), zap.String("id", pub))
	return draft, nil
}

// Unpublish moves the published form back to a draft. An existing draft
// is kept as is.
func (s *Service) Unpublish(ctx context.Context, typeName, id string) error {
	t, err := s.documentType(typeName)
	if err != nil {
		return err
	}
	pub, err := publishedID(t, id)
	if err != nil {
		return err
	}

	published, err := s.load(ctx, s.db, t, pub)
	if err != nil {
		return err
	}
	if published == nil {
		return ErrNotPublished
	}
	draft, err := s.load(ctx, s.db, t, docid.DraftID(pub))
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if draft == nil {
			published.Base().ID = docid.DraftID(pub)
			if err := s.upsert(tx, published); err != nil {
				return err
			}
		}
		return tx.Delete(t.New(), "id = ?", pub).Error
	})
	if err != nil {
		return fmt.Errorf("unpublish %s %s: %w", typeName, pub, err)
	}

	s.purge(ctx)
	s.logger.Info("document unpublished", zap.String("type", typeName), zap.String("id", pub))
	return nil
}

// Delete removes both forms of a document.
func (s *Service) Delete(ctx context.Context, typeName, id string) error {
	t, err := s.documentType(typeName)
	if err != nil {
		return err
	}
	pub, err := publishedID(t, id)
	if err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Delete(t.New(), "id IN ?", []string{pub, docid.DraftID(pub)})
	if res.Error != nil {
		return fmt.Errorf("delete %s %s: %w", typeName, pub, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	s.purge(ctx)
	s.logger.Info("document deleted", zap.String("type", typeName), zap.String("id", pub))
	return nil
}

// SlugTaken reports whether another document of the same type already uses
// slug. The draft and published forms of doc itself are ignored.
func (s *Service) SlugTaken(ctx context.Context, doc models.Document, slug string) (bool, error) {
	pub := docid.PublishedID(doc.DocumentID())
	var n int64
	err := s.db.WithContext(ctx).Table(doc.TableName()).
		Where("slug = ? AND id NOT IN ?", slug, []string{pub, docid.DraftID(pub)}).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("check slug %q: %w", slug, err)
	}
	return n > 0, nil
}

// UploadAsset stores an image and returns its reference.
func (s *Service) UploadAsset(ctx context.Context, data []byte, contentType string) (*Asset, error) {
	info, err := s.assets.Upload(ctx, data, contentType)
	if err != nil {
		return nil, err
	}
	s.logger.Info("asset uploaded", zap.String("ref", info.Ref), zap.Int("bytes", len(data)))
	return &Asset{
		ID:     info.Ref,
		URL:    s.assets.URL(ctx, info.Ref),
		Width:  info.Width,
		Height: info.Height,
		Ext:    info.Ext,
	}, nil
}

// Import loads a dataset export.
func (s *Service) Import(ctx context.Context, r io.Reader, format importer.Format) (*importer.Result, error) {
	result, err := s.importer.Import(ctx, r, format)
	if err != nil {
		return nil, err
	}
	if result.Total > 0 {
		s.purge(ctx)
	}
	return result, nil
}

// upsert writes doc under its id. Timestamps are owned by the store.
func (s *Service) upsert(tx *gorm.DB, doc models.Document) error {
	doc.Base().UpdatedAt = time.Time{}
	err := tx.Clauses(clause.OnConflict{UpdateAll: true}).
		Omit(clause.Associations).
		Create(doc).Error
	if err != nil {
		return fmt.Errorf("save %s %s: %w", doc.TableName(), doc.DocumentID(), err)
	}
	return nil
}

func (s *Service) purge(ctx context.Context) {
	n, err := middleware.PurgeHTTPCache(ctx, s.rdb)
	if err != nil {
		s.logger.Warn("purge page cache failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Debug("page cache purged", zap.Int64("keys", n))
	}
}
