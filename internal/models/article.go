package models

import "time"

// ArticleModel is an educational article.
type ArticleModel struct {
	DocumentBase
	Title             string       `json:"title,omitempty"             gorm:"size:255"                     validate:"notblank"`
	Slug              *string      `json:"slug,omitempty"              gorm:"size:96;index"                validate:"notblank,max=96,slug,uniqueslug"`
	Category          string       `json:"category,omitempty"          gorm:"size:32;index"                validate:"notblank,oneof=fertility pregnancy menopause wellness benefits"`
	Subcategory       string       `json:"subcategory,omitempty"       gorm:"size:64"                      validate:"omitempty,oneof=ivf iui egg-freezing male-fertility lgbtq-family-building adoption-surrogacy fertility-testing trying-to-conceive prenatal-care maternal-mental-health pregnancy-symptoms postpartum-recovery return-to-work menopause-symptoms treatment-options workplace-support nutrition-lifestyle mental-health benefits-navigation"`
	Excerpt           string       `json:"excerpt,omitempty"           gorm:"type:text"                    validate:"max=200"`
	Content           BlockContent `json:"content,omitempty"           gorm:"type:longtext;serializer:json" validate:"dive"`
	FeaturedImage     *Image       `json:"featuredImage,omitempty"     gorm:"type:text;serializer:json"`
	PublishedDate     *time.Time   `json:"publishedDate,omitempty"     gorm:"index"`
	LastUpdated       *time.Time   `json:"lastUpdated,omitempty"`
	AuthorID          *string      `json:"author,omitempty"            gorm:"size:80;index"`
	Author            *PersonModel `json:"-"                           gorm:"foreignKey:AuthorID"          validate:"-"`
	MedicalReviewerID *string      `json:"medicalReviewer,omitempty"   gorm:"size:80;index"`
	MedicalReviewer   *PersonModel `json:"-"                           gorm:"foreignKey:MedicalReviewerID" validate:"-"`
	ReadingTime       *int         `json:"readingTime,omitempty"                                           validate:"omitempty,min=1,max=60"`
	Tags              StringArray  `json:"tags,omitempty"              gorm:"type:text"`
	TargetAudience    string       `json:"targetAudience,omitempty"    gorm:"size:32"                      validate:"notblank,oneof=individuals employers providers consultants general"`
	Featured          bool         `json:"featured"                    gorm:"default:false;index"`
	SEOTitle          string       `json:"seoTitle,omitempty"          gorm:"size:255"                     validate:"max=60"`
	SEODescription    string       `json:"seoDescription,omitempty"    gorm:"type:text"                    validate:"max=160"`
}

func (ArticleModel) TableName() string { return "articles" }
