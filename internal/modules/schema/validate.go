package schema

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/healthlearn/site/internal/models"
)

// SlugMaxLength bounds every slug.
const SlugMaxLength = 96

// ErrValidation is matched by every *ValidationError.
var ErrValidation = errors.New("validation failed")

// ErrUnknownType is returned for type names missing from the registry.
var ErrUnknownType = errors.New("unknown document type")

// FieldError is one failed rule.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError lists every failed rule of a document.
type ValidationError struct {
	Type   string
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// SlugChecker reports whether slug is already used by another document of
// the same type. Documents sharing a published id with id do not count.
type SlugChecker interface {
	SlugTaken(ctx context.Context, doc models.Document, slug string) (bool, error)
}

type slugCheckKey struct{}

// slugCheck carries the uniqueness lookup into the "uniqueslug" rule and
// keeps the first lookup failure, which the rule itself cannot return.
type slugCheck struct {
	checker SlugChecker
	doc     models.Document
	err     error
}

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v.RegisterValidation("notblank", validators.NotBlank))
	mustRegister(v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return isSlug(fl.Field().String())
	}))
	mustRegister(v.RegisterValidation("href", func(fl validator.FieldLevel) bool {
		return validURL(fl.Field().String())
	}))
	mustRegister(v.RegisterValidationCtx("uniqueslug", uniqueSlug))
	v.RegisterStructValidation(markDefRules, models.MarkDef{})
	v.RegisterStructValidation(pageSectionRules, models.PageSection{})
	return v
}

func mustRegister(err error) {
	if err != nil {
		panic(err)
	}
}

func uniqueSlug(ctx context.Context, fl validator.FieldLevel) bool {
	sc, ok := ctx.Value(slugCheckKey{}).(*slugCheck)
	if !ok || sc.checker == nil || sc.err != nil {
		return true
	}
	taken, err := sc.checker.SlugTaken(ctx, sc.doc, fl.Field().String())
	if err != nil {
		sc.err = err
		return true
	}
	return !taken
}

func markDefRules(sl validator.StructLevel) {
	def := sl.Current().Interface().(models.MarkDef)
	if def.Type == "link" {
		linkRules(sl, "", &def.Link)
	}
}

func pageSectionRules(sl validator.StructLevel) {
	s := sl.Current().Interface().(models.PageSection)
	if s.Type == models.SectionCallToAction && s.Link != nil {
		linkRules(sl, "link.", s.Link)
	}
}

// linkRules checks the target a link needs for its kind.
func linkRules(sl validator.StructLevel, prefix string, l *models.Link) {
	switch l.LinkType {
	case models.LinkTypeHref, "":
		switch {
		case l.Href == "":
			sl.ReportError(l.Href, prefix+"href", "Href", "required", "")
		case !validURL(l.Href):
			sl.ReportError(l.Href, prefix+"href", "Href", "href", "")
		}
	case models.LinkTypePage:
		if l.TargetRef() == "" {
			sl.ReportError(l.Page, prefix+"page", "Page", "required", "")
		}
	case models.LinkTypePost:
		if l.TargetRef() == "" {
			sl.ReportError(l.Post, prefix+"post", "Post", "required", "")
		}
	default:
		sl.ReportError(l.LinkType, prefix+"linkType", "LinkType", "oneof", "href page post")
	}
}

func isSlug(s string) bool {
	if s == "" || s[0] == '-' || s[len(s)-1] == '-' || strings.Contains(s, "--") {
		return false
	}
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-') {
			return false
		}
	}
	return true
}

func validURL(raw string) bool {
	if strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "#") || strings.HasPrefix(raw, "mailto:") || strings.HasPrefix(raw, "tel:") {
		return true
	}
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Validate runs every rule of typeName against doc. It returns a
// *ValidationError when any rule fails.
func (r *Registry) Validate(ctx context.Context, typeName string, doc models.Document, slugs SlugChecker) error {
	t, ok := r.Lookup(typeName)
	if !ok || !t.Document {
		return fmt.Errorf("%w: %s", ErrUnknownType, typeName)
	}
	sc := &slugCheck{checker: slugs, doc: doc}
	err := validate.StructCtx(context.WithValue(ctx, slugCheckKey{}, sc), doc)
	if sc.err != nil {
		return fmt.Errorf("check slug uniqueness: %w", sc.err)
	}
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, toFieldError(fe))
	}
	return &ValidationError{Type: typeName, Errors: out}
}

// toFieldError turns a validator failure into the studio's field/rule form.
// The namespace loses its leading model name.
func toFieldError(fe validator.FieldError) FieldError {
	field := fe.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required", "notblank", "required_with", "required_if":
		return FieldError{Field: field, Rule: "required", Message: "Required"}
	case "oneof":
		return FieldError{Field: field, Rule: "enum", Message: fmt.Sprintf("Value %q is not one of the allowed values", fmt.Sprint(fe.Value()))}
	case "href":
		return FieldError{Field: field, Rule: "uri", Message: "Must be a valid URL"}
	case "slug":
		return FieldError{Field: field, Rule: "format", Message: "Slug may only contain lowercase letters, digits and dashes"}
	case "uniqueslug":
		return FieldError{Field: field, Rule: "unique", Message: "Slug is already in use"}
	case "min":
		return FieldError{Field: field, Rule: "min", Message: boundMessage(fe, "greater than or equal to", "at least")}
	case "max":
		return FieldError{Field: field, Rule: "max", Message: boundMessage(fe, "less than or equal to", "at most")}
	}
	return FieldError{Field: field, Rule: fe.Tag(), Message: fe.Error()}
}

func boundMessage(fe validator.FieldError, number, length string) string {
	switch fe.Kind() {
	case reflect.String:
		return fmt.Sprintf("Must be %s %s characters long", length, fe.Param())
	case reflect.Slice, reflect.Array, reflect.Map:
		return fmt.Sprintf("Must have %s %s items", length, fe.Param())
	}
	return fmt.Sprintf("Must be %s %s", number, fe.Param())
}

// Slugify lowercases s and keeps only letters, digits and single dashes,
// capped at SlugMaxLength.
func Slugify(s string) string {
	var sb strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			dash = false
		case sb.Len() > 0 && !dash:
			sb.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimRight(sb.String(), "-")
	if len(out) > SlugMaxLength {
		out = strings.TrimRight(out[:SlugMaxLength], "-")
	}
	return out
}
