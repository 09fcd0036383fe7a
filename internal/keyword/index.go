// Package keyword provides full-text (BM25) search over indexed pages.
package keyword

import (
	"context"
	"strconv"
)

// Document is what gets indexed for keyword search: one entry per page,
// identified by the caller-supplied ID.
type Document struct {
	Notebook string `json:"notebook"`
	Section  string `json:"section"`
	Title    string `json:"title"`
	Content  string `json:"content"`
}

// SearchOptions are optional keyword-search parameters. Nil means defaults.
type SearchOptions struct {
	// FuzzyEnabled turns on fuzzy matching for typo tolerance.
	FuzzyEnabled bool
	// Fuzziness is the maximum Levenshtein edit distance when FuzzyEnabled
	// is set (1 or 2; default 2).
	Fuzziness int
}

// Index defines keyword search operations.
type Index interface {
	Index(ctx context.Context, id string, doc *Document) error
	Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*Result, error)
	Delete(ctx context.Context, id string) error
	DocCount() (uint64, error)
	Close() error
}

// Result is a single keyword search hit.
type Result struct {
	ID    string
	Score float64
}

// DocID returns the document ID for the occurrence'th page sharing the same
// entry key within one snapshot. A snapshot may legitimately hold several
// identical pages; without the suffix the last copy would overwrite the
// others in the index.
func DocID(key string, occurrence int) string {
	if occurrence == 0 {
		return key
	}
	return key + "#" + strconv.Itoa(occurrence)
}
