package models

import "fmt"

// SearchMode selects how a query is matched against the index.
type SearchMode string

const (
	// ModeSemantic ranks pages by cosine similarity of embeddings (default).
	ModeSemantic SearchMode = "semantic"
	// ModeExact does a case-insensitive substring scan over raw page text.
	ModeExact SearchMode = "exact"
	// ModeKeyword uses the Bleve keyword index (term matching, optional fuzzy).
	ModeKeyword SearchMode = "keyword"
)

// SearchQuery is a search request.
type SearchQuery struct {
	Query string     `json:"query"`
	Mode  SearchMode `json:"mode,omitempty"`
	TopK  int        `json:"top_k,omitempty"`
	// MinScore excludes semantic hits scoring below it. Zero (unset) means
	// "use the configured default"; a negative value disables the cutoff.
	MinScore float64 `json:"min_score,omitempty"`
	// FuzzyEnabled turns on typo tolerance in keyword mode.
	FuzzyEnabled bool `json:"fuzzy_enabled,omitempty"`
	// Notebook, when set, restricts results to that notebook.
	Notebook string `json:"notebook,omitempty"`
}

// Validate checks required fields and normalizes TopK against the given bounds.
func (q *SearchQuery) Validate(defaultTopK, maxTopK int) error {
	if q.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if q.TopK <= 0 {
		q.TopK = defaultTopK
	}
	if maxTopK > 0 && q.TopK > maxTopK {
		q.TopK = maxTopK
	}
	switch q.Mode {
	case "", ModeSemantic, ModeExact, ModeKeyword:
	default:
		return fmt.Errorf("unknown search mode %q", q.Mode)
	}
	if q.Mode == "" {
		q.Mode = ModeSemantic
	}
	return nil
}
