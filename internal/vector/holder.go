package vector

import (
	"math"
	"sync/atomic"
)

// Holder publishes the current Index by atomic pointer swap. Readers get an
// immutable snapshot and never observe a partially merged state; the write path
// (build, merge, publish) is serialized elsewhere.
type Holder struct {
	current atomic.Pointer[Index]
}

// NewHolder returns a Holder publishing an empty Index.
func NewHolder() *Holder {
	h := &Holder{}
	h.current.Store(Empty())
	return h
}

// Load returns the currently published Index. Never nil.
func (h *Holder) Load() *Index {
	return h.current.Load()
}

// Publish atomically replaces the published Index. In-flight searches against
// the previous snapshot complete consistently.
func (h *Holder) Publish(x *Index) {
	if x == nil {
		x = Empty()
	}
	h.current.Store(x)
}

// CosineSimilarity returns the cosine similarity of two unit-norm vectors,
// clamped to [0, 1].
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i] * b[i])
	}
	return math.Max(0, math.Min(1, dot))
}
