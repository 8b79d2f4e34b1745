package models

// Link kinds.
const (
	LinkTypeHref = "href"
	LinkTypePage = "page"
	LinkTypePost = "post"
)

// Link resolves to an external URL or to a page/post reference.
type Link struct {
	LinkType     string     `json:"linkType,omitempty"`
	Href         string     `json:"href,omitempty"`
	Page         *Reference `json:"page,omitempty"`
	Post         *Reference `json:"post,omitempty"`
	OpenInNewTab bool       `json:"openInNewTab,omitempty"`
}

// TargetRef returns the referenced document id for page/post links.
func (l *Link) TargetRef() string {
	if l == nil {
		return ""
	}
	switch l.LinkType {
	case LinkTypePage:
		if l.Page != nil {
			return l.Page.Ref
		}
	case LinkTypePost:
		if l.Post != nil {
			return l.Post.Ref
		}
	}
	return ""
}

// Span is a run of text inside a block.
type Span struct {
	Key   string   `json:"_key,omitempty"`
	Type  string   `json:"_type,omitempty"`
	Text  string   `json:"text"`
	Marks []string `json:"marks,omitempty"`
}

// MarkDef is an annotation referenced from span marks by key.
type MarkDef struct {
	Key  string `json:"_key"`
	Type string `json:"_type"`
	Link
}

// Block is one element of block content. Which fields are set depends on Type:
// "block" uses Style/ListItem/Level/Children/MarkDefs, "image" uses Asset/Alt,
// "code" uses Code/Language, "markdown" uses Markdown.
type Block struct {
	Key      string     `json:"_key,omitempty"`
	Type     string     `json:"_type"`
	Style    string     `json:"style,omitempty"`
	ListItem string     `json:"listItem,omitempty"`
	Level    int        `json:"level,omitempty"`
	Children []Span     `json:"children,omitempty"`
	MarkDefs []MarkDef  `json:"markDefs,omitempty" validate:"dive"`
	Asset    *Reference `json:"asset,omitempty"`
	Alt      string     `json:"alt,omitempty"      validate:"required_with=Asset"`
	Code     string     `json:"code,omitempty"`
	Language string     `json:"language,omitempty"`
	Markdown string     `json:"markdown,omitempty"`
}

// BlockContent is structured rich text.
type BlockContent []Block

// LinkRefs collects every page/post id referenced by link annotations.
func (c BlockContent) LinkRefs() []string {
	var refs []string
	for _, b := range c {
		for i := range b.MarkDefs {
			if ref := b.MarkDefs[i].TargetRef(); ref != "" {
				refs = append(refs, ref)
			}
		}
	}
	return refs
}
