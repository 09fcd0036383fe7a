// Package indexer rebuilds the search index from backup snapshot files,
// reusing embeddings for unchanged content.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/noto/internal/embedding"
	"github.com/hyperjump/noto/internal/extract"
	"github.com/hyperjump/noto/internal/fingerprint"
	"github.com/hyperjump/noto/internal/keyword"
	"github.com/hyperjump/noto/internal/models"
	"github.com/hyperjump/noto/internal/storage"
	"github.com/hyperjump/noto/internal/vector"
)

// ErrBuildInProgress is returned when a build is requested while another one
// is still running. Builds are serialized; the caller should retry later.
var ErrBuildInProgress = errors.New("index build already in progress")

// Builder rebuilds the vector index from section files. Each build produces a
// fresh immutable snapshot; embeddings are reused from the previous snapshot
// wherever the content is unchanged, so steady-state rebuilds embed nothing.
type Builder struct {
	holder    *vector.Holder
	store     storage.Store
	embedder  embedding.Embedder
	extractor extract.PageExtractor
	keyword   keyword.Index // optional; nil disables keyword search
	logger    *zap.Logger   // optional

	mu sync.Mutex // serializes builds
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithLogger sets a logger for build progress and per-file extraction errors.
func WithLogger(l *zap.Logger) BuilderOption {
	return func(b *Builder) { b.logger = l }
}

// WithKeywordIndex sets a keyword index kept in sync with each build.
func WithKeywordIndex(k keyword.Index) BuilderOption {
	return func(b *Builder) { b.keyword = k }
}

// NewBuilder creates a Builder with the given dependencies.
func NewBuilder(
	holder *vector.Holder,
	store storage.Store,
	embedder embedding.Embedder,
	extractor extract.PageExtractor,
	opts ...BuilderOption,
) *Builder {
	b := &Builder{
		holder:    holder,
		store:     store,
		embedder:  embedder,
		extractor: extractor,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// LoadPersisted loads the persisted index into the holder. Corrupt persisted
// state is not fatal: the holder starts empty and the next build repopulates
// everything from scratch.
func (b *Builder) LoadPersisted(ctx context.Context) error {
	idx, err := b.store.Load(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrCorrupt) {
			if b.logger != nil {
				b.logger.Warn("persisted index corrupt, starting empty", zap.Error(err))
			}
			b.holder.Publish(vector.Empty())
			return nil
		}
		return fmt.Errorf("load persisted index: %w", err)
	}
	b.holder.Publish(idx)
	if b.logger != nil {
		b.logger.Info("persisted index loaded", zap.Int("entries", idx.Len()))
	}
	return nil
}

// pending is a page awaiting embedding.
type pending struct {
	entry models.IndexEntry
	text  string
}

// Build rebuilds the index from files and publishes the result atomically.
// The previous snapshot stays live for searches until the new one is both
// persisted and published. Returns ErrBuildInProgress if another build is
// running. An embedding backend failure or a persistence failure aborts the
// build without publishing; per-file extraction failures only cost that
// file's pages.
func (b *Builder) Build(ctx context.Context, files []models.SourceFile) (*models.BuildStats, error) {
	if !b.mu.TryLock() {
		return nil, ErrBuildInProgress
	}
	defer b.mu.Unlock()

	start := time.Now()
	buildID := uuid.New().String()
	prev := b.holder.Load()

	if b.logger != nil {
		b.logger.Info("index build started",
			zap.String("build_id", buildID),
			zap.Int("files", len(files)),
			zap.Int("previous_entries", prev.Len()))
	}

	// Previous entries are claimable at most once each per build, so N
	// identical pages in the snapshot need N entries in the new index.
	claimed := make([]bool, prev.Len())
	byPath := make(map[string][]int)
	byContent := make(map[models.EntryKey][]int)
	for i := 0; i < prev.Len(); i++ {
		e := prev.Entry(i)
		byPath[e.SourcePath] = append(byPath[e.SourcePath], i)
		byContent[e.Key()] = append(byContent[e.Key()], i)
	}
	claimFrom := func(positions []int) int {
		for _, pos := range positions {
			if !claimed[pos] {
				claimed[pos] = true
				return pos
			}
		}
		return -1
	}

	// reusedAt[pos] holds the rewritten entry for the previous row at pos.
	reusedAt := make(map[int]models.IndexEntry)
	var toEmbed []pending

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Fast path: the file is byte-for-byte the one we indexed last time,
		// so every one of its previous entries carries over without reading
		// the file at all.
		if positions := byPath[file.Path]; len(positions) > 0 &&
			prev.Entry(positions[0]).SourceVersion == file.Version {
			for _, pos := range positions {
				if !claimed[pos] {
					claimed[pos] = true
					reusedAt[pos] = prev.Entry(pos)
				}
			}
			continue
		}

		pages, err := b.extractor.ExtractPages(file.Path)
		if err != nil {
			// The file contributes no pages this cycle; its previous entries
			// are dropped unless another file claims them.
			if b.logger != nil {
				b.logger.Warn("extraction failed, skipping file",
					zap.String("path", file.Path), zap.Error(err))
			}
			continue
		}

		for _, page := range pages {
			entry := models.IndexEntry{
				Notebook:      file.Notebook,
				Section:       file.Section,
				PageTitle:     page.Title,
				Text:          page.Text,
				ContentHash:   fingerprint.Page(page.Title, page.Text),
				SourcePath:    file.Path,
				SourceVersion: file.Version,
			}
			// Content dedup: a previous entry with the same content under the
			// same (notebook, section) keeps its embedding even if the file
			// was renamed or re-exported.
			if pos := claimFrom(byContent[entry.Key()]); pos >= 0 {
				reusedAt[pos] = entry
				continue
			}
			toEmbed = append(toEmbed, pending{entry: entry, text: page.Title + "\n" + page.Text})
		}
	}

	var newVectors [][]float32
	if len(toEmbed) > 0 {
		texts := make([]string, len(toEmbed))
		for i, p := range toEmbed {
			texts[i] = p.text
		}
		var err error
		newVectors, err = b.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed %d pages: %w", len(toEmbed), err)
		}
	}

	// Reused entries first in previous-snapshot order, then newly embedded
	// pages in discovery order.
	entries := make([]models.IndexEntry, 0, len(reusedAt)+len(toEmbed))
	matrix := make([][]float32, 0, len(reusedAt)+len(toEmbed))
	for pos := 0; pos < prev.Len(); pos++ {
		if entry, ok := reusedAt[pos]; ok {
			entries = append(entries, entry)
			matrix = append(matrix, prev.Row(pos))
		}
	}
	for i, p := range toEmbed {
		entries = append(entries, p.entry)
		matrix = append(matrix, newVectors[i])
	}

	idx, err := vector.New(entries, matrix)
	if err != nil {
		return nil, fmt.Errorf("assemble index: %w", err)
	}
	if err := b.store.Save(ctx, idx); err != nil {
		return nil, fmt.Errorf("persist index: %w", err)
	}
	b.holder.Publish(idx)
	b.reconcileKeyword(ctx, prev, idx)

	stats := &models.BuildStats{
		BuildID:    buildID,
		Total:      idx.Len(),
		Reused:     len(reusedAt),
		Embedded:   len(toEmbed),
		Removed:    prev.Len() - len(reusedAt),
		DurationMS: time.Since(start).Milliseconds(),
	}
	if b.logger != nil {
		b.logger.Info("index build finished",
			zap.String("build_id", buildID),
			zap.Int("total", stats.Total),
			zap.Int("reused", stats.Reused),
			zap.Int("embedded", stats.Embedded),
			zap.Int("removed", stats.Removed),
			zap.Int64("duration_ms", stats.DurationMS))
	}
	return stats, nil
}

// reconcileKeyword applies the entry delta between two snapshots to the
// keyword index. Keyword sync errors are logged, not fatal: keyword search is
// a supplementary mode and the vector index is already published.
func (b *Builder) reconcileKeyword(ctx context.Context, prev, next *vector.Index) {
	if b.keyword == nil {
		return
	}
	// Duplicate pages share an entry key, so doc IDs carry an occurrence
	// number; otherwise the second copy would overwrite the first.
	prevIDs := make(map[string]bool, prev.Len())
	occurrence := make(map[models.EntryKey]int, prev.Len())
	for i := 0; i < prev.Len(); i++ {
		e := prev.Entry(i)
		key := e.Key()
		prevIDs[keyword.DocID(key.String(), occurrence[key])] = true
		occurrence[key]++
	}
	nextIDs := make(map[string]bool, next.Len())
	occurrence = make(map[models.EntryKey]int, next.Len())
	for i := 0; i < next.Len(); i++ {
		e := next.Entry(i)
		key := e.Key()
		id := keyword.DocID(key.String(), occurrence[key])
		occurrence[key]++
		nextIDs[id] = true
		if prevIDs[id] {
			continue
		}
		doc := &keyword.Document{
			Notebook: e.Notebook,
			Section:  e.Section,
			Title:    e.PageTitle,
			Content:  e.Text,
		}
		if err := b.keyword.Index(ctx, id, doc); err != nil && b.logger != nil {
			b.logger.Warn("keyword index failed", zap.String("id", id), zap.Error(err))
		}
	}
	for id := range prevIDs {
		if nextIDs[id] {
			continue
		}
		if err := b.keyword.Delete(ctx, id); err != nil && b.logger != nil {
			b.logger.Warn("keyword delete failed", zap.String("id", id), zap.Error(err))
		}
	}
}
