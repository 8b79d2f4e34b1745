// Package portabletext renders structured rich text to HTML.
//
// Content arrives here already resolved: link annotations carry their final
// href (empty when the target no longer exists) and images carry URLs.
package portabletext

import (
	"strings"

	"github.com/healthlearn/site/internal/models"
	"github.com/healthlearn/site/internal/modules/storage/asset"
)

// Block types.
const (
	TypeBlock    = "block"
	TypeImage    = "image"
	TypeCode     = "code"
	TypeMarkdown = "markdown"
)

// List kinds.
const (
	ListBullet = "bullet"
	ListNumber = "number"
)

// Span is a run of text with decorator and annotation marks.
type Span struct {
	Text  string   `json:"text"`
	Marks []string `json:"marks,omitempty"`
}

// Annotation is a resolved mark definition. Href is empty when the link
// target did not resolve.
type Annotation struct {
	Key          string `json:"_key"`
	Type         string `json:"_type"`
	Href         string `json:"href,omitempty"`
	OpenInNewTab bool   `json:"openInNewTab,omitempty"`
}

// Block is a resolved block.
type Block struct {
	Key      string       `json:"_key,omitempty"`
	Type     string       `json:"_type"`
	Style    string       `json:"style,omitempty"`
	ListItem string       `json:"listItem,omitempty"`
	Level    int          `json:"level,omitempty"`
	Children []Span       `json:"children,omitempty"`
	MarkDefs []Annotation `json:"markDefs,omitempty"`
	Image    *asset.Image `json:"image,omitempty"`
	Code     string       `json:"code,omitempty"`
	Language string       `json:"language,omitempty"`
	Markdown string       `json:"markdown,omitempty"`
}

// Content is resolved rich text.
type Content []Block

// Resolver supplies link and image resolution while converting stored content.
type Resolver struct {
	// Href maps a link onto a URL; "" marks it unresolved.
	Href func(l *models.Link) string
	// Image maps an asset reference onto an image; nil drops the image.
	Image func(ref, alt string) *asset.Image
}

// FromModel converts stored block content into renderable content.
func FromModel(src models.BlockContent, r Resolver) Content {
	if len(src) == 0 {
		return nil
	}
	out := make(Content, 0, len(src))
	for _, b := range src {
		blk := Block{
			Key:      b.Key,
			Type:     b.Type,
			Style:    b.Style,
			ListItem: b.ListItem,
			Level:    b.Level,
			Code:     b.Code,
			Language: b.Language,
			Markdown: b.Markdown,
		}
		for _, s := range b.Children {
			blk.Children = append(blk.Children, Span{Text: s.Text, Marks: s.Marks})
		}
		for i := range b.MarkDefs {
			def := &b.MarkDefs[i]
			ann := Annotation{Key: def.Key, Type: def.Type, OpenInNewTab: def.OpenInNewTab}
			if r.Href != nil {
				ann.Href = r.Href(&def.Link)
			}
			blk.MarkDefs = append(blk.MarkDefs, ann)
		}
		if b.Type == TypeImage && b.Asset != nil && r.Image != nil {
			blk.Image = r.Image(b.Asset.Ref, b.Alt)
		}
		out = append(out, blk)
	}
	return out
}

// Text joins the span texts of a block.
func (b Block) Text() string {
	var sb strings.Builder
	for _, s := range b.Children {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// PlainText extracts the text of every text block, one paragraph per block.
func (c Content) PlainText() string {
	parts := make([]string, 0, len(c))
	for _, b := range c {
		if b.Type != TypeBlock {
			continue
		}
		if t := strings.TrimSpace(b.Text()); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n\n")
}

// IsEmpty reports whether there is nothing to render.
func (c Content) IsEmpty() bool { return len(c) == 0 }
