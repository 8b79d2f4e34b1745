// Package schema declares the authoring document types and validates
// documents before they are saved.
package schema

import (
	"sort"

	"github.com/healthlearn/site/internal/models"
)

// Field kinds.
const (
	KindString       = "string"
	KindText         = "text"
	KindSlug         = "slug"
	KindNumber       = "number"
	KindBoolean      = "boolean"
	KindDatetime     = "datetime"
	KindURL          = "url"
	KindImage        = "image"
	KindReference    = "reference"
	KindArray        = "array"
	KindObject       = "object"
	KindBlockContent = "blockContent"
	KindLink         = "link"
)

// Option is one allowed value of an enumerated field.
type Option struct {
	Title string `json:"title"`
	Value string `json:"value"`
}

// Field describes one field of a type.
type Field struct {
	Name        string   `json:"name"`
	Title       string   `json:"title"`
	Kind        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Required    bool     `json:"required,omitempty"`
	MaxLength   int      `json:"maxLength,omitempty"`
	Min         *int     `json:"min,omitempty"`
	Max         *int     `json:"max,omitempty"`
	Options     []Option `json:"options,omitempty"`
	To          []string `json:"to,omitempty"`
	Of          []string `json:"of,omitempty"`
	Fields      []Field  `json:"fields,omitempty"`
	Initial     any      `json:"initialValue,omitempty"`
}

// Values returns the allowed values of an enumerated field.
func (f Field) Values() []string {
	out := make([]string, 0, len(f.Options))
	for _, o := range f.Options {
		out = append(out, o.Value)
	}
	return out
}

// PreviewConfig tells list views which fields to show.
type PreviewConfig struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	Media    string `json:"media,omitempty"`
}

// Type is a document or object type.
type Type struct {
	Name      string        `json:"name"`
	Title     string        `json:"title"`
	Document  bool          `json:"document"`
	Singleton bool          `json:"singleton,omitempty"`
	Fields    []Field       `json:"fields"`
	Preview   PreviewConfig `json:"preview"`

	newDoc func() models.Document
}

// New returns an empty model for a document type, nil for object types.
func (t *Type) New() models.Document {
	if t.newDoc == nil {
		return nil
	}
	return t.newDoc()
}

// Field returns the named field.
func (t *Type) Field(name string) (Field, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Registry is an immutable set of types.
type Registry struct {
	types map[string]*Type
	order []string
}

func newRegistry(types ...*Type) *Registry {
	r := &Registry{types: make(map[string]*Type, len(types))}
	for _, t := range types {
		r.types[t.Name] = t
		r.order = append(r.order, t.Name)
	}
	return r
}

// Lookup returns the named type.
func (r *Registry) Lookup(name string) (*Type, bool) {
	t, ok := r.types[name]
	return t, ok
}

// Types lists every type in declaration order.
func (r *Registry) Types() []*Type {
	out := make([]*Type, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.types[name])
	}
	return out
}

// DocumentTypes lists document type names, sorted.
func (r *Registry) DocumentTypes() []string {
	var out []string
	for name, t := range r.types {
		if t.Document {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// TypeOf returns the registered document type name of a model.
func (r *Registry) TypeOf(doc models.Document) string {
	for _, name := range r.order {
		t := r.types[name]
		if t.newDoc != nil && t.newDoc().TableName() == doc.TableName() {
			return name
		}
	}
	return ""
}
