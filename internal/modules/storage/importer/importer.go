// Package importer loads dataset exports into the document store.
package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/healthlearn/site/internal/models"
	"github.com/healthlearn/site/internal/modules/schema"
	"github.com/healthlearn/site/internal/pkg/docid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrInvalidDataset is matched by every error caused by the dataset's
// contents rather than by the store.
var ErrInvalidDataset = errors.New("invalid dataset")

// Result counts documents per type.
type Result struct {
	Imported map[string]int `json:"imported"`
	Skipped  map[string]int `json:"skipped"`
	Total    int            `json:"total"`
}

func newResult() *Result {
	return &Result{Imported: map[string]int{}, Skipped: map[string]int{}}
}

// Importer upserts exported documents.
type Importer struct {
	db       *gorm.DB
	registry *schema.Registry
	logger   *zap.Logger
}

func New(db *gorm.DB, registry *schema.Registry, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{db: db, registry: registry, logger: logger}
}

// Import reads every document from r and upserts the known ones in a
// single transaction. Unknown types and system documents are skipped.
func (im *Importer) Import(ctx context.Context, r io.Reader, format Format) (*Result, error) {
	raw, err := decode(r, format)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDataset, err)
	}

	result := newResult()
	docs := make([]models.Document, 0, len(raw))
	for i, item := range raw {
		doc, typeName, err := im.build(item)
		if err != nil {
			return nil, fmt.Errorf("%w: document %d: %w", ErrInvalidDataset, i, err)
		}
		if doc == nil {
			result.Skipped[typeName]++
			continue
		}
		docs = append(docs, doc)
		result.Imported[typeName]++
	}
	result.Total = len(docs)

	if len(docs) == 0 {
		return result, nil
	}
	err = im.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, doc := range docs {
			err := tx.Clauses(clause.OnConflict{UpdateAll: true}).
				Omit(clause.Associations).
				Create(doc).Error
			if err != nil {
				return fmt.Errorf("upsert %s %s: %w", doc.TableName(), doc.DocumentID(), err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	im.logger.Info("dataset imported",
		zap.Int("total", result.Total),
		zap.Any("imported", result.Imported),
		zap.Any("skipped", result.Skipped),
	)
	return result, nil
}

// build maps one exported document onto its model. A nil document means
// the entry is skipped.
func (im *Importer) build(item rawDoc) (models.Document, string, error) {
	typeName, _ := item["_type"].(string)
	id, _ := item["_id"].(string)
	if typeName == "" {
		return nil, "unknown", nil
	}
	if strings.HasPrefix(id, "_.") || strings.HasPrefix(typeName, "system.") {
		return nil, typeName, nil
	}
	t, ok := im.registry.Lookup(typeName)
	if !ok || !t.Document {
		return nil, typeName, nil
	}

	payload, err := json.Marshal(normalizeDocument(item))
	if err != nil {
		return nil, typeName, err
	}
	doc := t.New()
	if err := json.Unmarshal(payload, doc); err != nil {
		return nil, typeName, fmt.Errorf("decode %s: %w", typeName, err)
	}
	if doc.Base().ID == "" {
		doc.Base().ID = docid.New()
	}
	return doc, typeName, nil
}
