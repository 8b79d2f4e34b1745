package query

import (
	"context"
	"strings"
)

// Perspective selects which document versions a query sees.
type Perspective string

const (
	// PerspectivePublished hides every draft.
	PerspectivePublished Perspective = "published"
	// PerspectiveDrafts lets a draft replace its published counterpart.
	PerspectiveDrafts Perspective = "drafts"
)

type perspectiveKey struct{}

// WithPerspective returns a context whose queries use p.
func WithPerspective(ctx context.Context, p Perspective) context.Context {
	return context.WithValue(ctx, perspectiveKey{}, p)
}

// PerspectiveFrom returns the perspective carried by ctx, published by default.
func PerspectiveFrom(ctx context.Context) Perspective {
	if p, ok := ctx.Value(perspectiveKey{}).(Perspective); ok && p == PerspectiveDrafts {
		return PerspectiveDrafts
	}
	return PerspectivePublished
}

// ParsePerspective maps user input onto a perspective.
func ParsePerspective(s string) Perspective {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "drafts", "previewdrafts", "preview":
		return PerspectiveDrafts
	default:
		return PerspectivePublished
	}
}
