package keyword

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestIndex(t *testing.T) *BleveIndex {
	t.Helper()
	idx, err := NewBleveIndex(filepath.Join(t.TempDir(), "bleve"))
	if err != nil {
		t.Fatalf("NewBleveIndex: %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestBleveIndexAndSearch(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	docs := map[string]*Document{
		"work/algo/sorting": {Notebook: "Work", Section: "Algorithm", Title: "Sorting", Content: "quicksort and mergesort comparison"},
		"work/algo/graphs":  {Notebook: "Work", Section: "Algorithm", Title: "Graphs", Content: "dijkstra shortest path notes"},
		"personal/recipes":  {Notebook: "Personal", Section: "Recipes", Title: "Curry", Content: "coconut milk and spices"},
	}
	for id, doc := range docs {
		if err := idx.Index(ctx, id, doc); err != nil {
			t.Fatalf("Index(%s): %v", id, err)
		}
	}

	n, err := idx.DocCount()
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("DocCount = %d, want 3", n)
	}

	results, err := idx.Search(ctx, "quicksort", 10, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "work/algo/sorting" {
		t.Fatalf("got %+v", results)
	}
	if results[0].Score <= 0 {
		t.Errorf("score should be positive, got %f", results[0].Score)
	}
}

func TestBleveSearchTitleField(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	if err := idx.Index(ctx, "a", &Document{Title: "Kubernetes", Content: "cluster notes"}); err != nil {
		t.Fatal(err)
	}
	results, err := idx.Search(ctx, "kubernetes", 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Errorf("title terms should be searchable, got %+v", results)
	}
}

func TestBleveSearchLimit(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c", "d"} {
		if err := idx.Index(ctx, id, &Document{Title: id, Content: "shared term docker"}); err != nil {
			t.Fatal(err)
		}
	}
	results, err := idx.Search(ctx, "docker", 2, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 results with limit 2, got %d", len(results))
	}
}

func TestBleveFuzzySearch(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	if err := idx.Index(ctx, "a", &Document{Title: "Notes", Content: "postgres replication setup"}); err != nil {
		t.Fatal(err)
	}

	// Typo within edit distance 2.
	results, err := idx.Search(ctx, "postgers", 10, &SearchOptions{FuzzyEnabled: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Errorf("fuzzy search should tolerate the typo, got %+v", results)
	}

	// Without fuzzy the typo finds nothing.
	results, err = idx.Search(ctx, "postgers", 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("exact search should not match typo, got %+v", results)
	}
}

func TestBleveDelete(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	if err := idx.Index(ctx, "a", &Document{Title: "Gone", Content: "ephemeral text"}); err != nil {
		t.Fatal(err)
	}
	if err := idx.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	results, err := idx.Search(ctx, "ephemeral", 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("deleted doc still returned: %+v", results)
	}
}

func TestBleveReindexReplaces(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	if err := idx.Index(ctx, "a", &Document{Title: "V1", Content: "original wording"}); err != nil {
		t.Fatal(err)
	}
	if err := idx.Index(ctx, "a", &Document{Title: "V2", Content: "revised wording"}); err != nil {
		t.Fatal(err)
	}
	results, err := idx.Search(ctx, "original", 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("old version should be replaced, got %+v", results)
	}
	n, _ := idx.DocCount()
	if n != 1 {
		t.Errorf("DocCount = %d, want 1", n)
	}
}

func TestBleveReopenExisting(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "bleve")
	idx, err := NewBleveIndex(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := idx.Index(ctx, "a", &Document{Title: "Persist", Content: "survives reopen"}); err != nil {
		t.Fatal(err)
	}
	if err := idx.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewBleveIndex(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	results, err := reopened.Search(ctx, "survives", 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Errorf("indexed doc lost across reopen: %+v", results)
	}
}
