// Package embedding provides text embedding via ONNX and caching.
package embedding

import (
	"context"
	"errors"
)

// ErrBackend reports an embedding backend failure. A build that hits it aborts
// without publishing anything; the previously published index stays live.
var ErrBackend = errors.New("embedding backend error")

// Embedder produces unit-norm vector embeddings for text.
//
// EmbedBatch embeds all texts in one call and returns vectors in input order.
// It is all-or-nothing: any failure is reported once for the whole batch (with
// ErrBackend in the chain) and no partial results are returned.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}
