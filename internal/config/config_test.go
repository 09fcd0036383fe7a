package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "backup:\n  root: /backups/onenote\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Host != "localhost" || cfg.Server.Port != 8080 {
		t.Errorf("server defaults = %+v", cfg.Server)
	}
	if cfg.Backup.Root != "/backups/onenote" {
		t.Errorf("backup root = %q", cfg.Backup.Root)
	}
	if cfg.Embedding.Dimensions != 384 || cfg.Embedding.MaxTokens != 256 {
		t.Errorf("embedding defaults = %+v", cfg.Embedding)
	}
	if cfg.Search.DefaultTopK != 20 || cfg.Search.MaxTopK != 100 {
		t.Errorf("search defaults = %+v", cfg.Search)
	}
	if cfg.Search.MinScore != 0.1 {
		t.Errorf("min score = %f", cfg.Search.MinScore)
	}
	if cfg.Search.SnippetRadius != 80 || cfg.Search.MaxExactResults != 30 {
		t.Errorf("snippet defaults = %+v", cfg.Search)
	}
	if cfg.Watch.DebounceMS != 2000 {
		t.Errorf("debounce = %d", cfg.Watch.DebounceMS)
	}
	if len(cfg.Backup.Extensions) == 0 {
		t.Error("default extensions should be set")
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `debug: true
server:
  host: 0.0.0.0
  port: 9090
backup:
  root: /data/backups
  extensions: [".txt", ".pdf"]
search:
  default_top_k: 5
  min_score: 0.25
watch:
  enabled: true
  debounce_ms: 500
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Debug {
		t.Error("debug should be true")
	}
	if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 9090 {
		t.Errorf("server = %+v", cfg.Server)
	}
	if len(cfg.Backup.Extensions) != 2 {
		t.Errorf("extensions = %v", cfg.Backup.Extensions)
	}
	if cfg.Search.DefaultTopK != 5 || cfg.Search.MinScore != 0.25 {
		t.Errorf("search = %+v", cfg.Search)
	}
	if !cfg.Watch.Enabled || cfg.Watch.DebounceMS != 500 {
		t.Errorf("watch = %+v", cfg.Watch)
	}
}

func TestLoadExpandsRelativePaths(t *testing.T) {
	path := writeConfig(t, `backup:
  root: ./backups
storage:
  database_path: ./data/index.db
  matrix_path: ./data/embeddings.bin
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	dir := filepath.Dir(path)
	if cfg.Backup.Root != filepath.Join(dir, "backups") {
		t.Errorf("backup root = %q", cfg.Backup.Root)
	}
	if cfg.Storage.DatabasePath != filepath.Join(dir, "data/index.db") {
		t.Errorf("database path = %q", cfg.Storage.DatabasePath)
	}
	if !filepath.IsAbs(cfg.Storage.MatrixPath) {
		t.Errorf("matrix path should be absolute: %q", cfg.Storage.MatrixPath)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [not a map")
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid yaml")
	}
}
