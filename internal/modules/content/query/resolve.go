package query

import (
	"context"
	"fmt"

	"github.com/healthlearn/site/internal/models"
	"github.com/healthlearn/site/internal/modules/processing/portabletext"
	"github.com/healthlearn/site/internal/modules/storage/asset"
	"github.com/healthlearn/site/internal/pkg/docid"
)

// linkTargets maps published page/post ids onto their slugs.
type linkTargets struct {
	pages map[string]string
	posts map[string]string
}

// Href resolves l onto a site path or URL, "" when unresolved.
func (t linkTargets) Href(l *models.Link) string {
	if l == nil {
		return ""
	}
	switch l.LinkType {
	case models.LinkTypePage:
		if slug := t.pages[docid.PublishedID(l.TargetRef())]; slug != "" {
			return "/" + slug
		}
	case models.LinkTypePost:
		if slug := t.posts[docid.PublishedID(l.TargetRef())]; slug != "" {
			return "/posts/" + slug
		}
	case models.LinkTypeHref, "":
		return portabletext.SafeURL(l.Href)
	}
	return ""
}

// loadLinkTargets batch-loads the slugs of every referenced page and post.
func (s *Store) loadLinkTargets(ctx context.Context, refs []string) (linkTargets, error) {
	targets := linkTargets{pages: map[string]string{}, posts: map[string]string{}}
	if len(refs) == 0 {
		return targets, nil
	}

	drafts := PerspectiveFrom(ctx) == PerspectiveDrafts
	seen := make(map[string]struct{}, len(refs))
	ids := make([]string, 0, len(refs)*2)
	for _, ref := range refs {
		base := docid.PublishedID(ref)
		if _, ok := seen[base]; ok {
			continue
		}
		seen[base] = struct{}{}
		ids = append(ids, base)
		if drafts {
			ids = append(ids, docid.DraftID(base))
		}
	}

	for _, src := range []struct {
		model models.Document
		into  map[string]string
	}{
		{&models.PageModel{}, targets.pages},
		{&models.PostModel{}, targets.posts},
	} {
		var rows []struct {
			ID   string
			Slug *string
		}
		if err := s.db.WithContext(ctx).Model(src.model).Select("id, slug").Where("id IN ?", ids).Find(&rows).Error; err != nil {
			return targets, fmt.Errorf("resolve %s links: %w", src.model.TableName(), err)
		}
		for _, r := range rows {
			base := docid.PublishedID(r.ID)
			if _, exists := src.into[base]; exists && !docid.IsDraft(r.ID) {
				continue
			}
			src.into[base] = deref(r.Slug)
		}
	}
	return targets, nil
}

func (s *Store) image(ctx context.Context, img *models.Image) *asset.Image {
	if s.assets == nil {
		return nil
	}
	return s.assets.Resolve(ctx, img)
}

func (s *Store) richText(ctx context.Context, content models.BlockContent, targets linkTargets) portabletext.Content {
	return portabletext.FromModel(content, portabletext.Resolver{
		Href: targets.Href,
		Image: func(ref, alt string) *asset.Image {
			if s.assets == nil {
				return nil
			}
			return s.assets.ResolveRef(ctx, ref, alt)
		},
	})
}

func (s *Store) person(ctx context.Context, p *models.PersonModel) *Person {
	if p == nil {
		return nil
	}
	return &Person{
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Picture:   s.image(ctx, p.Picture),
	}
}

func (s *Store) articleSummary(ctx context.Context, m *models.ArticleModel) ArticleSummary {
	published, _ := articleKeys(m)
	out := ArticleSummary{
		ID:             m.ID,
		Status:         docid.Status(m.ID),
		Title:          orDefault(m.Title, UntitledTitle),
		Slug:           deref(m.Slug),
		Category:       m.Category,
		Subcategory:    m.Subcategory,
		Excerpt:        m.Excerpt,
		FeaturedImage:  s.image(ctx, m.FeaturedImage),
		PublishedDate:  published,
		Tags:           []string(m.Tags),
		TargetAudience: m.TargetAudience,
		Featured:       m.Featured,
		Author:         s.person(ctx, m.Author),
		UpdatedAt:      m.UpdatedAt,
	}
	if m.ReadingTime != nil {
		out.ReadingTime = *m.ReadingTime
	}
	return out
}

func (s *Store) postSummary(ctx context.Context, m *models.PostModel) PostSummary {
	date, _ := postKeys(m)
	return PostSummary{
		ID:         m.ID,
		Status:     docid.Status(m.ID),
		Title:      orDefault(m.Title, UntitledTitle),
		Slug:       deref(m.Slug),
		Excerpt:    m.Excerpt,
		CoverImage: s.image(ctx, m.CoverImage),
		Date:       date,
		Author:     s.person(ctx, m.Author),
		UpdatedAt:  m.UpdatedAt,
	}
}

func (s *Store) pageView(ctx context.Context, m *models.PageModel, targets linkTargets) *PageView {
	view := &PageView{
		ID:         m.ID,
		Status:     docid.Status(m.ID),
		Name:       m.Name,
		Slug:       deref(m.Slug),
		Heading:    m.Heading,
		Subheading: m.Subheading,
		UpdatedAt:  m.UpdatedAt,
	}
	for _, sec := range m.PageBuilder {
		out := Section{
			Key:        sec.Key,
			Type:       sec.Type,
			Heading:    sec.Heading,
			Subheading: sec.Subheading,
			Text:       sec.Text,
			ButtonText: sec.ButtonText,
			Content:    s.richText(ctx, sec.Content, targets),
		}
		if sec.Link != nil {
			if href := targets.Href(sec.Link); href != "" {
				out.Link = &ResolvedLink{Href: href, OpenInNewTab: sec.Link.OpenInNewTab}
			}
		}
		view.Sections = append(view.Sections, out)
	}
	return view
}

func (s *Store) homepageView(ctx context.Context, m *models.HomepageModel) *HomepageView {
	view := &HomepageView{
		ID:     m.ID,
		Status: docid.Status(m.ID),
		Title:  m.Title,
	}
	if m.HeroSection != nil {
		view.Tagline = m.HeroSection.Tagline
		for _, p := range m.HeroSection.MainTitle {
			view.MainTitle = append(view.MainTitle, TitlePart{Text: p.Text, Link: portabletext.SafeURL(p.Link), Color: p.Color})
		}
	}
	if m.Logos != nil {
		view.LeftLogo = s.logo(ctx, m.Logos.LeftLogo)
		view.RightLogo = s.logo(ctx, m.Logos.RightLogo)
	}
	if m.CodeSnippet != nil {
		cs := *m.CodeSnippet
		view.CodeSnippet = &CodeSnippet{Command: cs.Command, CopyButtonText: cs.CopyButtonText, CopiedText: cs.CopiedText}
	}
	if m.DocumentationLink != nil {
		dl := *m.DocumentationLink
		view.DocumentationLink = &DocumentationLink{Text: dl.Text, URL: portabletext.SafeURL(dl.URL), OpenInNewTab: dl.OpenInNewTab}
	}
	if m.SEO != nil {
		view.SEODescription = m.SEO.Description
	}
	return view
}

// logo resolves a homepage logo; the logo's own alt wins over the image alt.
func (s *Store) logo(ctx context.Context, l *models.Logo) *asset.Image {
	if l == nil {
		return nil
	}
	img := s.image(ctx, l.Image)
	if img != nil && l.Alt != "" {
		img.Alt = l.Alt
	}
	return img
}
