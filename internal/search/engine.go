// Package search answers queries against the published index snapshot.
package search

import (
	"context"
	"fmt"
	"time"

	"github.com/hyperjump/noto/internal/config"
	"github.com/hyperjump/noto/internal/embedding"
	"github.com/hyperjump/noto/internal/keyword"
	"github.com/hyperjump/noto/internal/models"
	"github.com/hyperjump/noto/internal/vector"
)

// Engine runs semantic, exact, and keyword search over whatever snapshot is
// currently published. Searches never block builds and vice versa.
type Engine struct {
	holder   *vector.Holder
	embedder embedding.Embedder
	keyword  keyword.Index // optional; nil disables keyword mode
	config   *config.SearchConfig
}

// NewEngine creates a search engine with the given dependencies.
// keywordIndex may be nil, in which case keyword-mode queries fail.
func NewEngine(
	holder *vector.Holder,
	embedder embedding.Embedder,
	keywordIndex keyword.Index,
	cfg *config.SearchConfig,
) *Engine {
	return &Engine{
		holder:   holder,
		embedder: embedder,
		keyword:  keywordIndex,
		config:   cfg,
	}
}

// Search validates the query and dispatches on its mode.
func (e *Engine) Search(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error) {
	start := time.Now()
	if err := query.Validate(e.config.DefaultTopK, e.config.MaxTopK); err != nil {
		return nil, err
	}

	var (
		results []*models.SearchResult
		err     error
	)
	switch query.Mode {
	case models.ModeSemantic:
		results, err = e.searchSemantic(ctx, query)
	case models.ModeExact:
		results, err = e.searchExact(query)
	case models.ModeKeyword:
		results, err = e.searchKeyword(ctx, query)
	}
	if err != nil {
		return nil, err
	}

	for i, r := range results {
		r.Rank = i + 1
	}
	return &models.SearchResponse{
		Results:   results,
		Total:     len(results),
		Mode:      query.Mode,
		Query:     query.Query,
		QueryTime: time.Since(start).Milliseconds(),
	}, nil
}

// searchSemantic embeds the query and ranks pages by cosine similarity.
func (e *Engine) searchSemantic(ctx context.Context, query *models.SearchQuery) ([]*models.SearchResult, error) {
	queryVec, err := e.embedder.Embed(ctx, query.Query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	snapshot := e.holder.Load()
	if snapshot.Len() == 0 {
		return nil, nil
	}

	minScore := query.MinScore
	if minScore == 0 {
		minScore = e.config.MinScore
	} else if minScore < 0 {
		// Cosine similarity of unit vectors never goes below -1.
		minScore = -1
	}
	// With a notebook filter, ask for more hits so the filter does not starve
	// the result list.
	topK := query.TopK
	if query.Notebook != "" {
		topK = snapshot.Len()
	}
	hits, err := snapshot.Search(queryVec, topK, minScore)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	results := make([]*models.SearchResult, 0, query.TopK)
	for _, hit := range hits {
		if query.Notebook != "" && hit.Entry.Notebook != query.Notebook {
			continue
		}
		results = append(results, &models.SearchResult{
			Notebook:  hit.Entry.Notebook,
			Section:   hit.Entry.Section,
			PageTitle: hit.Entry.PageTitle,
			Snippet:   leadingSnippet(hit.Entry.Text, snippetLength),
			Score:     hit.Score,
		})
		if len(results) == query.TopK {
			break
		}
	}
	return results, nil
}

// searchExact scans raw page text for a case-insensitive substring match.
// Results come back in index row order with context around the first match.
func (e *Engine) searchExact(query *models.SearchQuery) ([]*models.SearchResult, error) {
	snapshot := e.holder.Load()
	// MaxExactResults is a ceiling on the scan; a top_k below it (including
	// the default) narrows the limit further.
	limit := e.config.MaxExactResults
	if query.TopK < limit {
		limit = query.TopK
	}

	var results []*models.SearchResult
	for i := 0; i < snapshot.Len() && len(results) < limit; i++ {
		entry := snapshot.Entry(i)
		if query.Notebook != "" && entry.Notebook != query.Notebook {
			continue
		}
		pos, matchLen := foldIndex(entry.Text, query.Query)
		if pos < 0 {
			if titlePos, _ := foldIndex(entry.PageTitle, query.Query); titlePos < 0 {
				continue
			}
		}
		snippet := leadingSnippet(entry.Text, snippetLength)
		if pos >= 0 {
			snippet = contextSnippet(entry.Text, pos, matchLen, e.config.SnippetRadius)
		}
		results = append(results, &models.SearchResult{
			Notebook:  entry.Notebook,
			Section:   entry.Section,
			PageTitle: entry.PageTitle,
			Snippet:   snippet,
			Score:     1,
		})
	}
	return results, nil
}

// searchKeyword delegates to the Bleve index and maps hits back to entries.
func (e *Engine) searchKeyword(ctx context.Context, query *models.SearchQuery) ([]*models.SearchResult, error) {
	if e.keyword == nil {
		return nil, fmt.Errorf("keyword search not configured")
	}
	snapshot := e.holder.Load()
	// Doc IDs carry an occurrence suffix for duplicate pages; number them the
	// same way the builder does when it reconciles the keyword index.
	byID := make(map[string]models.IndexEntry, snapshot.Len())
	occurrence := make(map[models.EntryKey]int, snapshot.Len())
	for i := 0; i < snapshot.Len(); i++ {
		entry := snapshot.Entry(i)
		key := entry.Key()
		byID[keyword.DocID(key.String(), occurrence[key])] = entry
		occurrence[key]++
	}

	var opts *keyword.SearchOptions
	if query.FuzzyEnabled {
		opts = &keyword.SearchOptions{FuzzyEnabled: true}
	}
	// Keyword hits may point at entries no longer in the snapshot (the Bleve
	// index lags one reconcile behind); over-fetch and drop those.
	hits, err := e.keyword.Search(ctx, query.Query, query.TopK*2, opts)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}

	results := make([]*models.SearchResult, 0, query.TopK)
	for _, hit := range hits {
		entry, ok := byID[hit.ID]
		if !ok {
			continue
		}
		if query.Notebook != "" && entry.Notebook != query.Notebook {
			continue
		}
		results = append(results, &models.SearchResult{
			Notebook:  entry.Notebook,
			Section:   entry.Section,
			PageTitle: entry.PageTitle,
			Snippet:   leadingSnippet(entry.Text, snippetLength),
			Score:     hit.Score,
		})
		if len(results) == query.TopK {
			break
		}
	}
	return results, nil
}
