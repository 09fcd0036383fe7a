// Package storage persists the semantic index: entry metadata in SQLite and the
// embedding matrix in a co-located binary file, in the same row order.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/noto/internal/vector"
)

// ErrCorrupt reports unreadable or mismatched index storage. It is recoverable:
// Load returns an empty index alongside it and the next build proceeds exactly
// as if no prior index existed.
var ErrCorrupt = errors.New("index storage corrupt")

// Store persists and restores the aligned index.
type Store interface {
	// Save writes the index so that a later Load reconstructs it with the same
	// row order. The previous contents are replaced wholesale.
	Save(ctx context.Context, x *vector.Index) error
	// Load restores the last saved index. Missing storage yields an empty
	// index and a nil error; corrupt or mismatched storage yields an empty
	// index and an error matching ErrCorrupt.
	Load(ctx context.Context) (*vector.Index, error)
	Close() error
}
