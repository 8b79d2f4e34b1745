package query

import (
	"context"
	"sort"
	"time"

	"github.com/healthlearn/site/internal/pkg/docid"
	"gorm.io/gorm"
)

const (
	articleOrder = "COALESCE(published_date, updated_at) DESC, updated_at DESC"
	postOrder    = "COALESCE(`date`, updated_at) DESC, updated_at DESC"
)

type identified interface {
	DocumentID() string
}

func publishedOnly(tx *gorm.DB) *gorm.DB {
	return tx.Where("id NOT LIKE ?", docid.DraftsPrefix+"%")
}

func slugDefined(tx *gorm.DB) *gorm.DB {
	return tx.Where("slug IS NOT NULL AND slug <> ''")
}

func hasSlug(slug *string) bool {
	return slug != nil && *slug != ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// overlay collapses draft/published pairs so that a draft replaces its
// published counterpart in place.
func overlay[T identified](rows []T) []T {
	index := make(map[string]int, len(rows))
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		id := row.DocumentID()
		base := docid.PublishedID(id)
		if j, ok := index[base]; ok {
			if docid.IsDraft(id) {
				out[j] = row
			}
			continue
		}
		index[base] = len(out)
		out = append(out, row)
	}
	return out
}

// listSpec describes a listing query. scope and match express the same
// filter, in SQL and in Go.
type listSpec[T identified] struct {
	order string
	scope func(*gorm.DB) *gorm.DB
	match func(*T) bool
	keys  func(*T) (time.Time, time.Time)
	limit int
}

// list runs spec under the perspective carried by ctx. tx must already be
// bound to the model, its preloads and ctx.
func list[T identified](ctx context.Context, tx *gorm.DB, spec listSpec[T]) ([]T, error) {
	var rows []T
	if PerspectiveFrom(ctx) == PerspectivePublished {
		tx = slugDefined(publishedOnly(tx))
		if spec.scope != nil {
			tx = spec.scope(tx)
		}
		tx = tx.Order(spec.order)
		if spec.limit > 0 {
			tx = tx.Limit(spec.limit)
		}
		if err := tx.Find(&rows).Error; err != nil {
			return nil, err
		}
		return rows, nil
	}

	if err := tx.Order(spec.order).Find(&rows).Error; err != nil {
		return nil, err
	}
	rows = overlay(rows)
	filtered := rows[:0]
	for i := range rows {
		if spec.match(&rows[i]) {
			filtered = append(filtered, rows[i])
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		ai, au := spec.keys(&filtered[i])
		bi, bu := spec.keys(&filtered[j])
		if !ai.Equal(bi) {
			return ai.After(bi)
		}
		return au.After(bu)
	})
	if spec.limit > 0 && len(filtered) > spec.limit {
		filtered = filtered[:spec.limit]
	}
	return filtered, nil
}

// findOne returns the first document matched by where under the perspective
// carried by ctx, or nil. In the drafts perspective a published match whose
// draft no longer matches is hidden, since the draft supersedes it.
func findOne[T identified](ctx context.Context, db, tx *gorm.DB, where string, args ...interface{}) (*T, error) {
	var rows []T
	if PerspectiveFrom(ctx) == PerspectivePublished {
		if err := publishedOnly(tx).Where(where, args...).Order("updated_at DESC").Limit(1).Find(&rows).Error; err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, nil
		}
		return &rows[0], nil
	}

	if err := tx.Where(where, args...).Order("updated_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	shadowed, err := shadowedIDs(ctx, db, rows)
	if err != nil {
		return nil, err
	}
	visible := rows[:0]
	for _, row := range rows {
		if !shadowed[row.DocumentID()] {
			visible = append(visible, row)
		}
	}
	visible = overlay(visible)
	if len(visible) == 0 {
		return nil, nil
	}
	return &visible[0], nil
}

// shadowedIDs returns the published rows of rows that have a stored draft
// outside rows.
func shadowedIDs[T identified](ctx context.Context, db *gorm.DB, rows []T) (map[string]bool, error) {
	present := make(map[string]bool, len(rows))
	for _, row := range rows {
		present[row.DocumentID()] = true
	}
	var drafts []string
	for _, row := range rows {
		id := row.DocumentID()
		if !docid.IsDraft(id) && !present[docid.DraftID(id)] {
			drafts = append(drafts, docid.DraftID(id))
		}
	}
	if len(drafts) == 0 {
		return nil, nil
	}
	var found []string
	if err := db.WithContext(ctx).Model(new(T)).Where("id IN ?", drafts).Pluck("id", &found).Error; err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(found))
	for _, id := range found {
		out[docid.PublishedID(id)] = true
	}
	return out, nil
}

// singletonIDs lists the ids a singleton may be stored under.
func singletonIDs(ctx context.Context, id string) []string {
	if PerspectiveFrom(ctx) == PerspectiveDrafts {
		return []string{id, docid.DraftID(id)}
	}
	return []string{id}
}
