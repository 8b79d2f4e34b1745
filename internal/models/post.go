package models

import "time"

// PostModel is a blog post.
type PostModel struct {
	DocumentBase
	Title      string       `json:"title,omitempty"      gorm:"size:255"                      validate:"notblank"`
	Slug       *string      `json:"slug,omitempty"       gorm:"size:96;index"                 validate:"notblank,max=96,slug,uniqueslug"`
	Excerpt    string       `json:"excerpt,omitempty"    gorm:"type:text"`
	CoverImage *Image       `json:"coverImage,omitempty" gorm:"type:text;serializer:json"`
	Date       *time.Time   `json:"date,omitempty"       gorm:"index"`
	AuthorID   *string      `json:"author,omitempty"     gorm:"size:80;index"`
	Author     *PersonModel `json:"-"                    gorm:"foreignKey:AuthorID"           validate:"-"`
	Content    BlockContent `json:"content,omitempty"    gorm:"type:longtext;serializer:json" validate:"dive"`
}

func (PostModel) TableName() string { return "posts" }
