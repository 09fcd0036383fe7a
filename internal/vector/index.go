// Package vector provides the aligned semantic index: a metadata sequence and a
// parallel embedding matrix, with brute-force cosine similarity search.
package vector

import (
	"fmt"
	"sort"

	"github.com/hyperjump/noto/internal/models"
)

// Index is one immutable build result: entry i of Entries corresponds exactly to
// row i of Matrix. An Index is never mutated after construction; builds produce
// a new Index and publish it through a Holder, so concurrent readers always see
// a consistent snapshot.
type Index struct {
	entries    []models.IndexEntry
	matrix     [][]float32
	dimensions int
}

// New creates an Index from entries and their embedding matrix.
// Returns an error if the two are not the same length or if the rows do not all
// share one positive dimensionality. Rows are not copied; callers hand over
// ownership and must not mutate them afterwards.
func New(entries []models.IndexEntry, matrix [][]float32) (*Index, error) {
	if len(entries) != len(matrix) {
		return nil, fmt.Errorf("entries and matrix length mismatch: %d vs %d", len(entries), len(matrix))
	}
	dims := 0
	for i, row := range matrix {
		if len(row) == 0 {
			return nil, fmt.Errorf("row %d has zero length", i)
		}
		if dims == 0 {
			dims = len(row)
		} else if len(row) != dims {
			return nil, fmt.Errorf("row %d dimension mismatch: got %d, expected %d", i, len(row), dims)
		}
	}
	return &Index{entries: entries, matrix: matrix, dimensions: dims}, nil
}

// Empty returns an Index with no entries.
func Empty() *Index {
	return &Index{}
}

// Len returns the number of indexed pages.
func (x *Index) Len() int {
	return len(x.entries)
}

// Dimensions returns the embedding dimensionality, or 0 when the index is empty.
func (x *Index) Dimensions() int {
	return x.dimensions
}

// Entries returns the metadata sequence in row order. Callers must treat the
// returned slice as read-only.
func (x *Index) Entries() []models.IndexEntry {
	return x.entries
}

// Entry returns the entry at row i.
func (x *Index) Entry(i int) models.IndexEntry {
	return x.entries[i]
}

// Row returns the embedding at row i. Read-only.
func (x *Index) Row(i int) []float32 {
	return x.matrix[i]
}

// Hit is one similarity search result: the matched row and its cosine score.
type Hit struct {
	Entry models.IndexEntry
	Score float64
}

// Search ranks all rows by dot product against the unit-norm query vector and
// returns at most topK hits in descending score order. Ties keep original row
// order so results are deterministic. Hits scoring below minScore are cut off.
// An empty index returns no hits; a dimension mismatch is an error.
func (x *Index) Search(query []float32, topK int, minScore float64) ([]Hit, error) {
	if x.Len() == 0 || topK <= 0 {
		return nil, nil
	}
	if len(query) != x.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), x.dimensions)
	}
	scores := make([]float64, len(x.matrix))
	order := make([]int, len(x.matrix))
	for i, row := range x.matrix {
		var dot float64
		for j := 0; j < x.dimensions; j++ {
			dot += float64(query[j] * row[j])
		}
		scores[i] = dot
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] > scores[order[b]] })
	if topK > len(order) {
		topK = len(order)
	}
	hits := make([]Hit, 0, topK)
	for _, i := range order[:topK] {
		if scores[i] < minScore {
			// Sorted descending, so everything after is below the cutoff too.
			break
		}
		hits = append(hits, Hit{Entry: x.entries[i], Score: scores[i]})
	}
	return hits, nil
}

// Notebooks returns the distinct notebook names in the index with their page
// counts, in first-seen row order.
func (x *Index) Notebooks() []GroupCount {
	return x.countBy(func(e models.IndexEntry) string { return e.Notebook })
}

// Sections returns the distinct sections of the given notebook with their page
// counts, in first-seen row order.
func (x *Index) Sections(notebook string) []GroupCount {
	counts := make([]GroupCount, 0)
	pos := make(map[string]int)
	for _, e := range x.entries {
		if e.Notebook != notebook {
			continue
		}
		if i, ok := pos[e.Section]; ok {
			counts[i].Pages++
			continue
		}
		pos[e.Section] = len(counts)
		counts = append(counts, GroupCount{Name: e.Section, Pages: 1})
	}
	return counts
}

// Pages returns the page titles of one section in row order.
func (x *Index) Pages(notebook, section string) []string {
	var titles []string
	for _, e := range x.entries {
		if e.Notebook == notebook && e.Section == section {
			titles = append(titles, e.PageTitle)
		}
	}
	return titles
}

// GroupCount is a named group and the number of pages it holds.
type GroupCount struct {
	Name  string `json:"name"`
	Pages int    `json:"pages"`
}

func (x *Index) countBy(key func(models.IndexEntry) string) []GroupCount {
	counts := make([]GroupCount, 0)
	pos := make(map[string]int)
	for _, e := range x.entries {
		k := key(e)
		if i, ok := pos[k]; ok {
			counts[i].Pages++
			continue
		}
		pos[k] = len(counts)
		counts = append(counts, GroupCount{Name: k, Pages: 1})
	}
	return counts
}
