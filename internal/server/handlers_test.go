package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/noto/internal/config"
	"github.com/hyperjump/noto/internal/discover"
	"github.com/hyperjump/noto/internal/embedding"
	"github.com/hyperjump/noto/internal/extract"
	"github.com/hyperjump/noto/internal/indexer"
	"github.com/hyperjump/noto/internal/models"
	"github.com/hyperjump/noto/internal/search"
	"github.com/hyperjump/noto/internal/storage"
	"github.com/hyperjump/noto/internal/vector"
)

// newTestServer wires a full server over a real backup tree in a temp dir.
func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	backupRoot := t.TempDir()
	dataDir := t.TempDir()

	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Backup.Root = backupRoot
	cfg.Storage.DatabasePath = filepath.Join(dataDir, "index.db")
	cfg.Storage.MatrixPath = filepath.Join(dataDir, "embeddings.bin")

	store, err := storage.NewSQLiteStore(cfg.Storage.DatabasePath, cfg.Storage.MatrixPath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })

	holder := vector.NewHolder()
	embedder := embedding.NewMockEmbedder(32)
	builder := indexer.NewBuilder(holder, store, embedder, extract.NewExtractor())
	engine := search.NewEngine(holder, embedder, nil, &cfg.Search)
	srv := NewServer(engine, builder, discover.New(cfg.Backup.Extensions), holder, cfg, zap.NewNop())
	return srv, backupRoot
}

func writePage(t *testing.T, root, notebook, file, content string) {
	t.Helper()
	dir := filepath.Join(root, notebook)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, file), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv.Router(), http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestRebuildAndSearch(t *testing.T) {
	srv, root := newTestServer(t)
	writePage(t, root, "Work", "Algorithm (On 1-4-2026).txt", "# Sorting\nquicksort and mergesort notes")
	writePage(t, root, "Work", "Daily (On 1-4-2026).txt", "# Standup\nroadmap discussion")
	router := srv.Router()

	rec := doJSON(t, router, http.MethodPost, "/api/v1/rebuild", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("rebuild status = %d, body %s", rec.Code, rec.Body.String())
	}
	var stats models.BuildStats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatal(err)
	}
	if stats.Total != 2 || stats.Embedded != 2 {
		t.Errorf("stats = %+v", stats)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/v1/search", models.SearchQuery{
		Query: "quicksort and mergesort notes", Mode: models.ModeExact,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("search status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp models.SearchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != 1 || resp.Results[0].PageTitle != "Sorting" {
		t.Errorf("response = %+v", resp)
	}
	if resp.Results[0].Notebook != "Work" || resp.Results[0].Section != "Algorithm" {
		t.Errorf("result = %+v", resp.Results[0])
	}
}

func TestSearchSemanticViaHTTP(t *testing.T) {
	srv, root := newTestServer(t)
	writePage(t, root, "Work", "Notes.txt", "# Databases\npostgres tuning")
	router := srv.Router()
	if rec := doJSON(t, router, http.MethodPost, "/api/v1/rebuild", nil); rec.Code != http.StatusOK {
		t.Fatal(rec.Body.String())
	}

	// The mock embedder gives identical text identical vectors, so searching
	// for the embedded text itself scores 1.
	rec := doJSON(t, router, http.MethodPost, "/api/v1/search", models.SearchQuery{
		Query: "Databases\npostgres tuning",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp models.SearchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Mode != models.ModeSemantic {
		t.Errorf("mode = %s", resp.Mode)
	}
	if resp.Total != 1 || resp.Results[0].Score < 0.99 {
		t.Errorf("response = %+v", resp)
	}
}

func TestSearchBadRequest(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	rec := doJSON(t, router, http.MethodPost, "/api/v1/search", models.SearchQuery{Query: ""})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty query status = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/search", bytes.NewBufferString("{not json"))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body status = %d", rec.Code)
	}
}

// blockingExtractor parks inside ExtractPages until released, keeping the
// build lock held for the duration.
type blockingExtractor struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingExtractor) ExtractPages(path string) ([]models.Page, error) {
	close(b.entered)
	<-b.release
	return []models.Page{{Title: "T", Text: "text"}}, nil
}

func TestRebuildConflict(t *testing.T) {
	srv, root := newTestServer(t)
	writePage(t, root, "Work", "Notes.txt", "text")
	ex := &blockingExtractor{entered: make(chan struct{}), release: make(chan struct{})}
	srv.builder = indexer.NewBuilder(srv.holder, &nopStore{}, embedding.NewMockEmbedder(8), ex)
	router := srv.Router()

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() { done <- doJSON(t, router, http.MethodPost, "/api/v1/rebuild", nil) }()
	<-ex.entered

	rec := doJSON(t, router, http.MethodPost, "/api/v1/rebuild", nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}

	close(ex.release)
	if first := <-done; first.Code != http.StatusOK {
		t.Errorf("first rebuild status = %d: %s", first.Code, first.Body.String())
	}
}

// nopStore persists nothing.
type nopStore struct{}

func (nopStore) Save(ctx context.Context, idx *vector.Index) error { return nil }
func (nopStore) Load(ctx context.Context) (*vector.Index, error)   { return vector.Empty(), nil }
func (nopStore) Close() error                                      { return nil }

func TestHandleStatus(t *testing.T) {
	srv, root := newTestServer(t)
	writePage(t, root, "Work", "Notes.txt", "# A\ntext")
	router := srv.Router()
	if rec := doJSON(t, router, http.MethodPost, "/api/v1/rebuild", nil); rec.Code != http.StatusOK {
		t.Fatal(rec.Body.String())
	}

	rec := doJSON(t, router, http.MethodGet, "/api/v1/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var status map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatal(err)
	}
	if status["entries"].(float64) != 1 {
		t.Errorf("entries = %v", status["entries"])
	}
	if status["dimensions"].(float64) != 32 {
		t.Errorf("dimensions = %v", status["dimensions"])
	}
	if _, ok := status["last_build"]; !ok {
		t.Error("last_build missing after a rebuild")
	}
}

func TestBrowseEndpoints(t *testing.T) {
	srv, root := newTestServer(t)
	writePage(t, root, "Work", "Algorithm.txt", "# Sorting\nquicksort\n# Graphs\ndijkstra")
	writePage(t, root, "Personal", "Recipes.txt", "# Curry\ncoconut")
	router := srv.Router()
	if rec := doJSON(t, router, http.MethodPost, "/api/v1/rebuild", nil); rec.Code != http.StatusOK {
		t.Fatal(rec.Body.String())
	}

	rec := doJSON(t, router, http.MethodGet, "/api/v1/notebooks", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("notebooks status = %d", rec.Code)
	}
	var notebooks struct {
		Notebooks []vector.GroupCount `json:"notebooks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &notebooks); err != nil {
		t.Fatal(err)
	}
	if len(notebooks.Notebooks) != 2 {
		t.Errorf("notebooks = %+v", notebooks)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/v1/notebooks/Work/sections", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("sections status = %d", rec.Code)
	}
	var sections struct {
		Sections []vector.GroupCount `json:"sections"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &sections); err != nil {
		t.Fatal(err)
	}
	if len(sections.Sections) != 1 || sections.Sections[0].Name != "Algorithm" || sections.Sections[0].Pages != 2 {
		t.Errorf("sections = %+v", sections)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/v1/notebooks/Work/sections/Algorithm/pages", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("pages status = %d", rec.Code)
	}
	var pages struct {
		Pages []string `json:"pages"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &pages); err != nil {
		t.Fatal(err)
	}
	if len(pages.Pages) != 2 || pages.Pages[0] != "Sorting" {
		t.Errorf("pages = %+v", pages)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/v1/notebooks/Nope/sections", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown notebook status = %d", rec.Code)
	}
	rec = doJSON(t, router, http.MethodGet, "/api/v1/notebooks/Work/sections/Nope/pages", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown section status = %d", rec.Code)
	}
}

func TestRebuildIncrementalViaHTTP(t *testing.T) {
	srv, root := newTestServer(t)
	writePage(t, root, "Work", "Notes.txt", "# A\nstable text")
	router := srv.Router()
	if rec := doJSON(t, router, http.MethodPost, "/api/v1/rebuild", nil); rec.Code != http.StatusOK {
		t.Fatal(rec.Body.String())
	}

	rec := doJSON(t, router, http.MethodPost, "/api/v1/rebuild", nil)
	if rec.Code != http.StatusOK {
		t.Fatal(rec.Body.String())
	}
	var stats models.BuildStats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatal(err)
	}
	if stats.Embedded != 0 || stats.Reused != 1 {
		t.Errorf("second rebuild should reuse everything: %+v", stats)
	}
}
