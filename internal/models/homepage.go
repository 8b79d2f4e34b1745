package models

// Singleton document ids.
const (
	HomepageID = "homepage"
	SettingsID = "settings"
)

// Title part color styles.
const (
	ColorBrand     = "brand"
	ColorFramework = "framework"
	ColorDefault   = "default"
)

type TitlePart struct {
	Key   string `json:"_key,omitempty"`
	Text  string `json:"text"            validate:"notblank"`
	Link  string `json:"link,omitempty"  validate:"omitempty,href"`
	Color string `json:"color,omitempty" validate:"omitempty,oneof=brand framework default"`
}

type HeroSection struct {
	Tagline   string      `json:"tagline,omitempty"   validate:"notblank"`
	MainTitle []TitlePart `json:"mainTitle,omitempty" validate:"min=1,dive"`
}

type Logo struct {
	Image *Image `json:"image,omitempty"`
	Alt   string `json:"alt,omitempty"   validate:"notblank"`
}

type Logos struct {
	LeftLogo  *Logo `json:"leftLogo,omitempty"`
	RightLogo *Logo `json:"rightLogo,omitempty"`
}

type CodeSnippet struct {
	Command        string `json:"command,omitempty"        validate:"notblank"`
	CopyButtonText string `json:"copyButtonText,omitempty"`
	CopiedText     string `json:"copiedText,omitempty"`
}

type DocumentationLink struct {
	Text         string `json:"text,omitempty" validate:"notblank"`
	URL          string `json:"url,omitempty"  validate:"notblank,href"`
	OpenInNewTab bool   `json:"openInNewTab"`
}

type SEO struct {
	Description string `json:"description,omitempty" validate:"max=160"`
}

// HomepageModel is the homepage singleton. Its published id is HomepageID.
type HomepageModel struct {
	DocumentBase
	Title             string             `json:"title,omitempty"             gorm:"size:255"                   validate:"notblank"`
	HeroSection       *HeroSection       `json:"heroSection,omitempty"       gorm:"type:text;serializer:json"`
	Logos             *Logos             `json:"logos,omitempty"             gorm:"type:text;serializer:json"`
	CodeSnippet       *CodeSnippet       `json:"codeSnippet,omitempty"       gorm:"type:text;serializer:json"`
	DocumentationLink *DocumentationLink `json:"documentationLink,omitempty" gorm:"type:text;serializer:json"`
	SEO               *SEO               `json:"seo,omitempty"               gorm:"type:text;serializer:json"`
}

func (HomepageModel) TableName() string { return "homepages" }

// SettingsModel is the site settings singleton. Its published id is SettingsID.
type SettingsModel struct {
	DocumentBase
	Title       string       `json:"title,omitempty"       gorm:"size:255"                      validate:"notblank"`
	Description BlockContent `json:"description,omitempty" gorm:"type:longtext;serializer:json" validate:"dive"`
	OGImage     *Image       `json:"ogImage,omitempty"     gorm:"type:text;serializer:json"`
}

func (SettingsModel) TableName() string { return "settings" }
