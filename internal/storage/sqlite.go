package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/noto/internal/models"
	"github.com/hyperjump/noto/internal/vector"
)

// SQLiteStore implements Store with an entries table in SQLite and the matrix
// in a sidecar binary file. The pos column carries the row order that keeps
// metadata aligned with matrix rows.
type SQLiteStore struct {
	db         *sql.DB
	matrixPath string
}

// NewSQLiteStore opens or creates the database at dbPath and uses matrixPath
// for the embedding matrix. Parent directories are created if needed.
func NewSQLiteStore(dbPath, matrixPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteStore{db: db, matrixPath: matrixPath}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS entries (
		pos INTEGER PRIMARY KEY,
		notebook TEXT NOT NULL,
		section TEXT NOT NULL,
		page_title TEXT NOT NULL,
		text TEXT NOT NULL,
		content_hash TEXT NOT NULL,
		source_path TEXT NOT NULL,
		source_version INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_entries_source_path ON entries(source_path);
	CREATE INDEX IF NOT EXISTS idx_entries_group_hash ON entries(notebook, section, content_hash);
	`
	_, err := db.Exec(schema)
	return err
}

// Save replaces the stored index: all rows are rewritten in one transaction and
// the matrix file is swapped atomically. The matrix is written first so that a
// crash between the two steps is detected as a count mismatch on Load.
func (s *SQLiteStore) Save(ctx context.Context, x *vector.Index) error {
	matrix := make([][]float32, x.Len())
	for i := range matrix {
		matrix[i] = x.Row(i)
	}
	if err := writeMatrix(s.matrixPath, matrix, x.Dimensions()); err != nil {
		return fmt.Errorf("save matrix: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM entries"); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO entries (pos, notebook, section, page_title, text, content_hash, source_path, source_version)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()
	for i, e := range x.Entries() {
		if _, err := stmt.ExecContext(ctx, i, e.Notebook, e.Section, e.PageTitle, e.Text,
			e.ContentHash, e.SourcePath, e.SourceVersion); err != nil {
			return fmt.Errorf("insert entry %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit entries: %w", err)
	}
	return nil
}

// Load restores the index. Both artifacts missing means a fresh install: an
// empty index and nil error. One artifact missing, or a row count mismatch
// between them, is corruption: an empty index and an error matching ErrCorrupt.
func (s *SQLiteStore) Load(ctx context.Context) (*vector.Index, error) {
	entries, err := s.loadEntries(ctx)
	if err != nil {
		return vector.Empty(), fmt.Errorf("%w: load entries: %v", ErrCorrupt, err)
	}
	matrix, _, err := readMatrix(s.matrixPath)
	if err != nil {
		return vector.Empty(), err
	}
	if len(entries) == 0 && matrix == nil {
		return vector.Empty(), nil
	}
	if len(entries) != len(matrix) {
		return vector.Empty(), fmt.Errorf("%w: %d entries vs %d matrix rows", ErrCorrupt, len(entries), len(matrix))
	}
	x, err := vector.New(entries, matrix)
	if err != nil {
		return vector.Empty(), fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return x, nil
}

func (s *SQLiteStore) loadEntries(ctx context.Context) ([]models.IndexEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT notebook, section, page_title, text, content_hash, source_path, source_version
		 FROM entries ORDER BY pos`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []models.IndexEntry
	for rows.Next() {
		var e models.IndexEntry
		if err := rows.Scan(&e.Notebook, &e.Section, &e.PageTitle, &e.Text,
			&e.ContentHash, &e.SourcePath, &e.SourceVersion); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// DiskUsageBytes returns the total size of the given files or directories.
// Missing paths contribute zero.
func DiskUsageBytes(paths ...string) (int64, error) {
	var total int64
	for _, p := range paths {
		if p == "" {
			continue
		}
		err := filepath.Walk(p, func(_ string, info os.FileInfo, err error) error {
			if err != nil {
				return nil
			}
			if !info.IsDir() {
				total += info.Size()
			}
			return nil
		})
		if err != nil && !os.IsNotExist(err) {
			return total, err
		}
	}
	return total, nil
}
