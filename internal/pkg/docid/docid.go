// Package docid implements the document id conventions shared by the store,
// the query layer and the authoring API.
//
// A document's draft lives next to its published version under the "drafts."
// namespace: "drafts.abc" is the unpublished edit of "abc". Display status is
// never stored; it is always derived from the id.
package docid

import (
	"strings"

	"github.com/google/uuid"
)

const DraftsPrefix = "drafts."

// Status values reported by Status.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// IsDraft reports whether id sits under the drafts namespace.
func IsDraft(id string) bool {
	return strings.HasPrefix(id, DraftsPrefix)
}

// Status derives the display status of a document from its id.
func Status(id string) string {
	if IsDraft(id) {
		return StatusDraft
	}
	return StatusPublished
}

// PublishedID strips the drafts namespace.
func PublishedID(id string) string {
	return strings.TrimPrefix(id, DraftsPrefix)
}

// DraftID returns the id of the draft counterpart of id.
func DraftID(id string) string {
	if IsDraft(id) {
		return id
	}
	return DraftsPrefix + id
}

// New returns a fresh published-form document id.
func New() string {
	return uuid.NewString()
}

// Valid reports whether id is usable as a document id: non-empty, no
// whitespace, and at most one namespace segment.
func Valid(id string) bool {
	base := PublishedID(id)
	if base == "" || len(id) > 80 {
		return false
	}
	if strings.ContainsAny(base, " \t\r\n/") {
		return false
	}
	return !strings.HasPrefix(base, DraftsPrefix)
}
