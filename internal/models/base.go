package models

import (
	"time"

	"github.com/healthlearn/site/internal/pkg/docid"
	"gorm.io/gorm"
)

// DocumentBase is embedded by every content document.
// ID carries the "drafts." namespace for unpublished edits.
type DocumentBase struct {
	ID        string    `json:"_id"        gorm:"type:varchar(80);primaryKey"`
	CreatedAt time.Time `json:"_createdAt"`
	UpdatedAt time.Time `json:"_updatedAt" gorm:"index"`
}

func (b *DocumentBase) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = docid.DraftID(docid.New())
	}
	return nil
}

// DocumentID returns the stored id.
func (b DocumentBase) DocumentID() string { return b.ID }

// Base exposes the embedded fields for writers.
func (b *DocumentBase) Base() *DocumentBase { return b }

// Status derives draft/published from the id.
func (b DocumentBase) Status() string { return docid.Status(b.ID) }

// Reference points at another document or at an asset.
type Reference struct {
	Ref  string `json:"_ref"`
	Type string `json:"_type,omitempty"`
}

// Image is an image field: an asset reference plus alternative text.
type Image struct {
	Asset *Reference `json:"asset,omitempty"`
	Alt   string     `json:"alt,omitempty"   validate:"required_with=Asset"`
}

// HasAsset reports whether an asset is attached.
func (i *Image) HasAsset() bool {
	return i != nil && i.Asset != nil && i.Asset.Ref != ""
}

// Document is implemented by every stored content type.
type Document interface {
	DocumentID() string
	TableName() string
	Base() *DocumentBase
}
