package schema

import "github.com/healthlearn/site/internal/models"

// Type names.
const (
	TypeArticle      = "educationalArticle"
	TypePost         = "post"
	TypePage         = "page"
	TypePerson       = "person"
	TypeHomepage     = "homepage"
	TypeSettings     = "settings"
	TypeLink         = "link"
	TypeCallToAction = "callToAction"
	TypeInfoSection  = "infoSection"
	TypeBlockContent = "blockContent"
)

func intp(n int) *int { return &n }

var (
	categoryField = Field{
		Name: "category", Title: "Content Category", Kind: KindString, Required: true,
		Options: []Option{
			{"Fertility & Family Building", "fertility"},
			{"Pregnancy & Postpartum", "pregnancy"},
			{"Menopause & Midlife", "menopause"},
			{"General Health & Wellness", "wellness"},
			{"Benefits Education", "benefits"},
		},
	}
	subcategoryField = Field{
		Name: "subcategory", Title: "Subcategory", Kind: KindString,
		Options: []Option{
			{"IVF Education", "ivf"},
			{"IUI Education", "iui"},
			{"Egg Freezing", "egg-freezing"},
			{"Male Fertility", "male-fertility"},
			{"LGBTQ+ Family Building", "lgbtq-family-building"},
			{"Adoption & Surrogacy", "adoption-surrogacy"},
			{"Fertility Testing", "fertility-testing"},
			{"Trying to Conceive", "trying-to-conceive"},
			{"Prenatal Care", "prenatal-care"},
			{"Maternal Mental Health", "maternal-mental-health"},
			{"Pregnancy Symptoms", "pregnancy-symptoms"},
			{"Postpartum Recovery", "postpartum-recovery"},
			{"Return to Work", "return-to-work"},
			{"Menopause Symptoms", "menopause-symptoms"},
			{"Treatment Options", "treatment-options"},
			{"Workplace Support", "workplace-support"},
			{"Nutrition & Lifestyle", "nutrition-lifestyle"},
			{"Mental Health Support", "mental-health"},
			{"Benefits Navigation", "benefits-navigation"},
		},
	}
	audienceField = Field{
		Name: "targetAudience", Title: "Target Audience", Kind: KindString, Required: true,
		Options: []Option{
			{"Individuals/Patients", "individuals"},
			{"Employers/HR Teams", "employers"},
			{"Healthcare Providers", "providers"},
			{"Benefits Consultants", "consultants"},
			{"General Public", "general"},
		},
	}
	colorField = Field{
		Name: "color", Title: "Color Style", Kind: KindString, Initial: models.ColorDefault,
		Options: []Option{
			{"Brand Color", models.ColorBrand},
			{"Framework Color", models.ColorFramework},
			{"Default (Black)", models.ColorDefault},
		},
	}
	linkTypeField = Field{
		Name: "linkType", Title: "Link Type", Kind: KindString, Initial: models.LinkTypeHref,
		Options: []Option{
			{"URL", models.LinkTypeHref},
			{"Page", models.LinkTypePage},
			{"Post", models.LinkTypePost},
		},
	}
)

func slugField() Field {
	return Field{Name: "slug", Title: "Slug", Kind: KindSlug, Required: true, MaxLength: SlugMaxLength}
}

func imageField(name, title string) Field {
	return Field{
		Name: name, Title: title, Kind: KindImage,
		Fields: []Field{{Name: "alt", Title: "Alternative text", Kind: KindString,
			Description: "Required when an image is attached."}},
	}
}

func articleType() *Type {
	return &Type{
		Name: TypeArticle, Title: "Educational Article", Document: true,
		Fields: []Field{
			{Name: "title", Title: "Title", Kind: KindString, Required: true},
			slugField(),
			categoryField,
			subcategoryField,
			{Name: "excerpt", Title: "Excerpt", Kind: KindText, MaxLength: 200},
			{Name: "content", Title: "Content", Kind: KindBlockContent},
			imageField("featuredImage", "Featured Image"),
			{Name: "publishedDate", Title: "Published Date", Kind: KindDatetime},
			{Name: "lastUpdated", Title: "Last Updated", Kind: KindDatetime},
			{Name: "author", Title: "Author", Kind: KindReference, To: []string{TypePerson}},
			{Name: "medicalReviewer", Title: "Medical Reviewer", Kind: KindReference, To: []string{TypePerson}},
			{Name: "readingTime", Title: "Estimated Reading Time (minutes)", Kind: KindNumber, Min: intp(1), Max: intp(60)},
			{Name: "tags", Title: "Tags", Kind: KindArray, Of: []string{KindString}},
			audienceField,
			{Name: "featured", Title: "Featured Article", Kind: KindBoolean, Initial: false},
			{Name: "seoTitle", Title: "SEO Title", Kind: KindString, MaxLength: 60},
			{Name: "seoDescription", Title: "SEO Description", Kind: KindText, MaxLength: 160},
		},
		Preview: PreviewConfig{Title: "title", Subtitle: "category • subcategory • author • publishedDate", Media: "featuredImage"},
		newDoc:  func() models.Document { return &models.ArticleModel{} },
	}
}

func postType() *Type {
	return &Type{
		Name: TypePost, Title: "Post", Document: true,
		Fields: []Field{
			{Name: "title", Title: "Title", Kind: KindString, Required: true},
			slugField(),
			{Name: "content", Title: "Content", Kind: KindBlockContent},
			{Name: "excerpt", Title: "Excerpt", Kind: KindText},
			imageField("coverImage", "Cover Image"),
			{Name: "date", Title: "Date", Kind: KindDatetime},
			{Name: "author", Title: "Author", Kind: KindReference, To: []string{TypePerson}},
		},
		Preview: PreviewConfig{Title: "title", Subtitle: "author • date", Media: "coverImage"},
		newDoc:  func() models.Document { return &models.PostModel{} },
	}
}

func pageType() *Type {
	return &Type{
		Name: TypePage, Title: "Page", Document: true,
		Fields: []Field{
			{Name: "name", Title: "Name", Kind: KindString, Required: true},
			slugField(),
			{Name: "heading", Title: "Heading", Kind: KindString, Required: true},
			{Name: "subheading", Title: "Subheading", Kind: KindString},
			{Name: "pageBuilder", Title: "Page builder", Kind: KindArray, Of: []string{TypeCallToAction, TypeInfoSection}},
		},
		Preview: PreviewConfig{Title: "name", Subtitle: "slug"},
		newDoc:  func() models.Document { return &models.PageModel{} },
	}
}

func personType() *Type {
	return &Type{
		Name: TypePerson, Title: "Person", Document: true,
		Fields: []Field{
			{Name: "firstName", Title: "First Name", Kind: KindString, Required: true},
			{Name: "lastName", Title: "Last Name", Kind: KindString, Required: true},
			imageField("picture", "Picture"),
		},
		Preview: PreviewConfig{Title: "firstName lastName", Media: "picture"},
		newDoc:  func() models.Document { return &models.PersonModel{} },
	}
}

func homepageType() *Type {
	logo := func(name, title string) Field {
		return Field{Name: name, Title: title, Kind: KindObject, Fields: []Field{
			imageField("image", "Logo Image"),
			{Name: "alt", Title: "Alt Text", Kind: KindString, Required: true},
		}}
	}
	return &Type{
		Name: TypeHomepage, Title: "Homepage", Document: true, Singleton: true,
		Fields: []Field{
			{Name: "title", Title: "Page Title", Kind: KindString, Required: true},
			{Name: "heroSection", Title: "Hero Section", Kind: KindObject, Fields: []Field{
				{Name: "tagline", Title: "Tagline", Kind: KindString, Required: true},
				{Name: "mainTitle", Title: "Main Title Parts", Kind: KindArray, Required: true, Min: intp(1), Fields: []Field{
					{Name: "text", Title: "Text", Kind: KindString, Required: true},
					{Name: "link", Title: "Link URL", Kind: KindURL},
					colorField,
				}},
			}},
			{Name: "logos", Title: "Logos", Kind: KindObject, Fields: []Field{
				logo("leftLogo", "Left Logo"),
				logo("rightLogo", "Right Logo"),
			}},
			{Name: "codeSnippet", Title: "Code Snippet", Kind: KindObject, Fields: []Field{
				{Name: "command", Title: "Command", Kind: KindString, Required: true},
				{Name: "copyButtonText", Title: "Copy Button Text", Kind: KindString, Initial: "Copy Snippet"},
				{Name: "copiedText", Title: "Copied Text", Kind: KindString, Initial: "Copied!"},
			}},
			{Name: "documentationLink", Title: "Documentation Link", Kind: KindObject, Fields: []Field{
				{Name: "text", Title: "Link Text", Kind: KindString, Required: true},
				{Name: "url", Title: "URL", Kind: KindURL, Required: true},
				{Name: "openInNewTab", Title: "Open in new tab", Kind: KindBoolean, Initial: true},
			}},
			{Name: "seo", Title: "SEO", Kind: KindObject, Fields: []Field{
				{Name: "description", Title: "Meta Description", Kind: KindText, MaxLength: 160},
			}},
		},
		Preview: PreviewConfig{Title: "title"},
		newDoc:  func() models.Document { return &models.HomepageModel{} },
	}
}

func settingsType() *Type {
	return &Type{
		Name: TypeSettings, Title: "Settings", Document: true, Singleton: true,
		Fields: []Field{
			{Name: "title", Title: "Title", Kind: KindString, Required: true},
			{Name: "description", Title: "Description", Kind: KindBlockContent},
			imageField("ogImage", "Open Graph Image"),
		},
		Preview: PreviewConfig{Title: "title"},
		newDoc:  func() models.Document { return &models.SettingsModel{} },
	}
}

func objectTypes() []*Type {
	return []*Type{
		{Name: TypeBlockContent, Title: "Block Content", Fields: []Field{
			{Name: "block", Title: "Block", Kind: "block", Of: []string{"normal", "h1", "h2", "h3", "h4", "blockquote"}},
			imageField("image", "Image"),
			{Name: "code", Title: "Code", Kind: KindObject},
			{Name: "markdown", Title: "Markdown", Kind: KindText},
		}},
		{Name: TypeInfoSection, Title: "Info Section", Fields: []Field{
			{Name: "heading", Title: "Heading", Kind: KindString},
			{Name: "subheading", Title: "Subheading", Kind: KindString},
			{Name: "content", Title: "Content", Kind: KindBlockContent},
		}, Preview: PreviewConfig{Title: "heading", Subtitle: "subheading"}},
		{Name: TypeCallToAction, Title: "Call to Action", Fields: []Field{
			{Name: "heading", Title: "Heading", Kind: KindString, Required: true},
			{Name: "text", Title: "Text", Kind: KindText},
			{Name: "buttonText", Title: "Button Text", Kind: KindString},
			{Name: "link", Title: "Button link", Kind: KindLink},
		}, Preview: PreviewConfig{Title: "heading", Subtitle: "text"}},
		{Name: TypeLink, Title: "Link", Fields: []Field{
			linkTypeField,
			{Name: "href", Title: "URL", Kind: KindURL},
			{Name: "page", Title: "Page", Kind: KindReference, To: []string{TypePage}},
			{Name: "post", Title: "Post", Kind: KindReference, To: []string{TypePost}},
			{Name: "openInNewTab", Title: "Open in new tab", Kind: KindBoolean, Initial: false},
		}},
	}
}

// Default returns the registry of every site type: singletons first, then
// documents, then objects.
func Default() *Registry {
	types := []*Type{settingsType(), homepageType(), pageType(), postType(), personType(), articleType()}
	types = append(types, objectTypes()...)
	return newRegistry(types...)
}
