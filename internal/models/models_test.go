package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringArray(t *testing.T) {
	v, err := StringArray{" ivf ", "", "clinic", "ivf"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["ivf","clinic"]`, v)

	v, err = StringArray(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, `[]`, v)

	var a StringArray
	require.NoError(t, a.Scan([]byte(`["a","b"]`)))
	assert.Equal(t, StringArray{"a", "b"}, a)

	require.NoError(t, a.Scan(`"solo"`))
	assert.Equal(t, StringArray{"solo"}, a)

	require.NoError(t, a.Scan(nil))
	assert.Empty(t, a)

	assert.Error(t, a.Scan(42))
	assert.Error(t, a.Scan("not json"))
}

func TestStringArrayInDocumentJSON(t *testing.T) {
	var doc struct {
		Tags StringArray `json:"tags"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"tags":"nutrition"}`), &doc))
	assert.Equal(t, StringArray{"nutrition"}, doc.Tags)

	require.NoError(t, json.Unmarshal([]byte(`{"tags":null}`), &doc))
	assert.Empty(t, doc.Tags)
}

func TestLinkRefs(t *testing.T) {
	content := BlockContent{
		{Type: "block", MarkDefs: []MarkDef{
			{Key: "a", Type: "link", Link: Link{LinkType: LinkTypePage, Page: &Reference{Ref: "page-1"}}},
			{Key: "b", Type: "link", Link: Link{LinkType: LinkTypeHref, Href: "https://example.com"}},
		}},
		{Type: "block", MarkDefs: []MarkDef{
			{Key: "c", Type: "link", Link: Link{LinkType: LinkTypePost, Post: &Reference{Ref: "post-1"}}},
			{Key: "d", Type: "link", Link: Link{LinkType: LinkTypePost}},
		}},
	}
	assert.Equal(t, []string{"page-1", "post-1"}, content.LinkRefs())
}

func TestDocumentBaseStatus(t *testing.T) {
	assert.Equal(t, "draft", DocumentBase{ID: "drafts.abc"}.Status())
	assert.Equal(t, "published", DocumentBase{ID: "abc"}.Status())
}
