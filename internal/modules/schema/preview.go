package schema

import (
	"strings"
	"time"

	"github.com/healthlearn/site/internal/models"
)

// PreviewItem is how a document appears in authoring lists.
type PreviewItem struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	Media    string `json:"media,omitempty"`
}

// ArticleSubtitle joins category (with subcategory), author and date with
// " • ". The author is shown only when both names are set.
func ArticleSubtitle(category, subcategory, firstName, lastName string, published *time.Time) string {
	var parts []string
	if category != "" {
		if subcategory != "" {
			category += " • " + subcategory
		}
		parts = append(parts, category)
	}
	if firstName != "" && lastName != "" {
		parts = append(parts, "by "+firstName+" "+lastName)
	}
	if published != nil && !published.IsZero() {
		parts = append(parts, published.Format("Jan 2, 2006"))
	}
	return strings.Join(parts, " • ")
}

func imageRef(img *models.Image) string {
	if !img.HasAsset() {
		return ""
	}
	return img.Asset.Ref
}

// Preview describes doc for list views. Author names come from the
// preloaded association when present.
func Preview(doc models.Document) PreviewItem {
	switch d := doc.(type) {
	case *models.ArticleModel:
		var first, last string
		if d.Author != nil {
			first, last = d.Author.FirstName, d.Author.LastName
		}
		return PreviewItem{
			Title:    d.Title,
			Subtitle: ArticleSubtitle(d.Category, d.Subcategory, first, last, d.PublishedDate),
			Media:    imageRef(d.FeaturedImage),
		}
	case *models.PostModel:
		item := PreviewItem{Title: d.Title, Media: imageRef(d.CoverImage)}
		var parts []string
		if name := d.Author.FullName(); name != "" {
			parts = append(parts, "by "+name)
		}
		if d.Date != nil {
			parts = append(parts, d.Date.Format("Jan 2, 2006"))
		}
		item.Subtitle = strings.Join(parts, " • ")
		return item
	case *models.PageModel:
		item := PreviewItem{Title: d.Name}
		if d.Slug != nil {
			item.Subtitle = "/" + *d.Slug
		}
		return item
	case *models.PersonModel:
		return PreviewItem{Title: d.FullName(), Media: imageRef(d.Picture)}
	case *models.HomepageModel:
		return PreviewItem{Title: d.Title}
	case *models.SettingsModel:
		return PreviewItem{Title: d.Title}
	}
	return PreviewItem{Title: doc.DocumentID()}
}
