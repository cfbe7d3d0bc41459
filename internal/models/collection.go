package models

import "sort"

// Collection represents one named bucket of ingested documents as reported
// by the backend.
type Collection struct {
	Name      string `json:"name"`
	Count     int    `json:"count"`
	IsDefault bool   `json:"is_default"`
}

// DefaultCollectionNames is the fixed set of type buckets the backend
// always maintains. They exist conceptually even with zero documents.
var DefaultCollectionNames = []string{"pdf", "text", "code", "office", "other"}

// IsDefaultCollection reports whether name is one of the fixed type buckets.
func IsDefaultCollection(name string) bool {
	for _, def := range DefaultCollectionNames {
		if def == name {
			return true
		}
	}
	return false
}

// DefaultCollectionSet returns the five type buckets with zero counts, used
// as the local view before the backend has been reached.
func DefaultCollectionSet() []Collection {
	out := make([]Collection, len(DefaultCollectionNames))
	for i, name := range DefaultCollectionNames {
		out[i] = Collection{Name: name, IsDefault: true}
	}
	return out
}

// Stats holds per-collection document counts keyed by collection id, plus
// a "total" key, exactly as served by the backend.
type Stats map[string]int

// Total returns the backend-computed total count.
func (s Stats) Total() int {
	return s["total"]
}

// CountFor returns the document count for a collection id, 0 when unknown.
func (s Stats) CountFor(id string) int {
	if id == "total" {
		return 0
	}
	return s[id]
}

// Filter is the set of collection ids a chat query is restricted to.
// The empty set is the distinguished "search everything" value; it is not
// shorthand for selecting every known collection.
type Filter map[string]struct{}

// NewFilter builds a filter containing the given ids.
func NewFilter(ids ...string) Filter {
	f := make(Filter, len(ids))
	for _, id := range ids {
		f[id] = struct{}{}
	}
	return f
}

// Toggle adds id if absent, removes it if present. Ids are not validated
// against the known collection set; an entry for a since-deleted collection
// is harmless and matches nothing server-side.
func (f Filter) Toggle(id string) {
	if _, ok := f[id]; ok {
		delete(f, id)
	} else {
		f[id] = struct{}{}
	}
}

// Has reports whether id is in the filter.
func (f Filter) Has(id string) bool {
	_, ok := f[id]
	return ok
}

// Snapshot returns the filter as a sorted slice, or nil when the filter is
// empty so callers can omit the restriction field entirely.
func (f Filter) Snapshot() []string {
	if len(f) == 0 {
		return nil
	}
	out := make([]string, 0, len(f))
	for id := range f {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
