package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultCollectionSet(t *testing.T) {
	set := DefaultCollectionSet()

	assert.Len(t, set, 5)
	for _, coll := range set {
		assert.True(t, coll.IsDefault)
		assert.Zero(t, coll.Count)
		assert.True(t, IsDefaultCollection(coll.Name))
	}
	assert.False(t, IsDefaultCollection("research"))
}

func TestStatsTotalKeyIsNotACollection(t *testing.T) {
	stats := Stats{"pdf": 2, "research": 3, "total": 5}

	assert.Equal(t, 5, stats.Total())
	assert.Equal(t, 2, stats.CountFor("pdf"))
	assert.Equal(t, 0, stats.CountFor("total"), "the aggregate key never reads as a collection count")
	assert.Equal(t, 0, stats.CountFor("missing"))
}

func TestFilterToggleIsItsOwnInverse(t *testing.T) {
	f := NewFilter()

	f.Toggle("pdf")
	assert.True(t, f.Has("pdf"))
	f.Toggle("pdf")
	assert.False(t, f.Has("pdf"))
}

func TestFilterSnapshot(t *testing.T) {
	assert.Nil(t, NewFilter().Snapshot(), "empty filter means search everything, not an empty list")

	f := NewFilter("text", "pdf", "code")
	assert.Equal(t, []string{"code", "pdf", "text"}, f.Snapshot())
}
