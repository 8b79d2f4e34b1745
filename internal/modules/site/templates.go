package site

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/healthlearn/site/internal/models"
	"github.com/healthlearn/site/internal/modules/processing/portabletext"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

// Page template names.
const (
	pageHome     = "home"
	pageArticles = "articles"
	pageArticle  = "article"
	pagePost     = "post"
	pagePage     = "page"
	pageNotFound = "notfound"
	pageError    = "error"
)

const displayDate = "January 2, 2006"

var templateFuncs = template.FuncMap{
	"date":      formatDate,
	"isoDate":   func(t time.Time) string { return t.UTC().Format(time.RFC3339) },
	"richText":  portabletext.Render,
	"heroClass": heroClass,
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(displayDate)
}

func heroClass(color string) string {
	switch color {
	case models.ColorBrand:
		return "text-brand"
	case models.ColorFramework:
		return "text-framework"
	}
	return "text-default"
}

// Renderer executes page templates inside the shared layout.
type Renderer struct {
	pages map[string]*template.Template
}

func NewRenderer() (*Renderer, error) {
	base, err := template.New("layout.gohtml").Funcs(templateFuncs).ParseFS(templateFS, "templates/layout.gohtml")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, name := range []string{pageHome, pageArticles, pageArticle, pagePost, pagePage, pageNotFound, pageError} {
		clone, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := clone.ParseFS(templateFS, "templates/"+name+".gohtml"); err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		r.pages[name] = clone
	}
	return r, nil
}

// Render executes a page fully before returning its bytes, so a failing
// template never produces a partial page.
func (r *Renderer) Render(page string, data interface{}) ([]byte, error) {
	tmpl, ok := r.pages[page]
	if !ok {
		return nil, fmt.Errorf("unknown page template %q", page)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return nil, fmt.Errorf("render %s: %w", page, err)
	}
	return buf.Bytes(), nil
}
