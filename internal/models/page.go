package models

// Page builder section types.
const (
	SectionCallToAction = "callToAction"
	SectionInfoSection  = "infoSection"
)

// PageSection is one entry of a page builder.
type PageSection struct {
	Key        string       `json:"_key,omitempty"`
	Type       string       `json:"_type"              validate:"oneof=callToAction infoSection"`
	Heading    string       `json:"heading,omitempty"  validate:"required_if=Type callToAction"`
	Subheading string       `json:"subheading,omitempty"`
	Text       string       `json:"text,omitempty"`
	ButtonText string       `json:"buttonText,omitempty"`
	Link       *Link        `json:"link,omitempty"`
	Content    BlockContent `json:"content,omitempty"  validate:"dive"`
}

// PageModel is a static page assembled from sections.
type PageModel struct {
	DocumentBase
	Name        string        `json:"name,omitempty"        gorm:"size:255"                      validate:"notblank"`
	Slug        *string       `json:"slug,omitempty"        gorm:"size:96;index"                 validate:"notblank,max=96,slug,uniqueslug"`
	Heading     string        `json:"heading,omitempty"     gorm:"size:255"                      validate:"notblank"`
	Subheading  string        `json:"subheading,omitempty"  gorm:"type:text"`
	PageBuilder []PageSection `json:"pageBuilder,omitempty" gorm:"type:longtext;serializer:json" validate:"dive"`
}

func (PageModel) TableName() string { return "pages" }

// LinkRefs collects page/post ids referenced from call-to-action links and
// info-section rich text.
func (p *PageModel) LinkRefs() []string {
	var refs []string
	for _, s := range p.PageBuilder {
		if ref := s.Link.TargetRef(); ref != "" {
			refs = append(refs, ref)
		}
		refs = append(refs, s.Content.LinkRefs()...)
	}
	return refs
}
