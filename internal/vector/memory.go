package vector

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/hyperjump/docqa/internal/embedding"
	"github.com/hyperjump/docqa/internal/models"
	"github.com/hyperjump/docqa/pkg/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultMaxInputChars is the embedding provider input limit applied to every chunk and query.
	DefaultMaxInputChars = 8000
	// DefaultWorkers bounds concurrent embedding calls during indexing.
	DefaultWorkers = 4
)

// MemoryIndex is an in-memory brute-force index over one document's chunks.
// Index holds the write lock for its whole run; Search holds the read lock.
type MemoryIndex struct {
	embedder      embedding.Embedder
	maxInputChars int
	workers       int
	logger        *zap.Logger

	mu      sync.RWMutex
	entries []EmbeddingVector
	dims    int
}

// MemoryOption configures a MemoryIndex.
type MemoryOption func(*MemoryIndex)

// WithLogger sets the logger used for skipped chunks.
func WithLogger(l *zap.Logger) MemoryOption {
	return func(m *MemoryIndex) { m.logger = l }
}

// WithWorkers sets the number of concurrent embedding calls during indexing.
func WithWorkers(n int) MemoryOption {
	return func(m *MemoryIndex) {
		if n > 0 {
			m.workers = n
		}
	}
}

// WithMaxInputChars sets the per-text character limit sent to the embedder.
func WithMaxInputChars(n int) MemoryOption {
	return func(m *MemoryIndex) {
		if n > 0 {
			m.maxInputChars = n
		}
	}
}

// NewMemoryIndex creates an empty index backed by embedder.
func NewMemoryIndex(embedder embedding.Embedder, opts ...MemoryOption) *MemoryIndex {
	m := &MemoryIndex{
		embedder:      embedder,
		maxInputChars: DefaultMaxInputChars,
		workers:       DefaultWorkers,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = utils.OrNop(m.logger)
	return m
}

// Index discards the stored set and embeds chunks. A chunk whose embedding fails
// is logged and skipped; only cancellation of ctx makes Index fail, in which case
// the index is left empty.
func (m *MemoryIndex) Index(ctx context.Context, chunks []models.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = nil
	m.dims = 0

	vectors := make([][]float32, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workers)
	for i, ch := range chunks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			v, err := m.embedder.Embed(gctx, utils.TruncateRunes(ch.Text, m.maxInputChars))
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				m.logger.Warn("skipping chunk, embedding failed",
					zap.Int("position", ch.Position),
					zap.Error(err))
				return nil
			}
			vectors[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("indexing interrupted: %w", err)
	}

	entries := make([]EmbeddingVector, 0, len(chunks))
	for i, ch := range chunks {
		v := vectors[i]
		if v == nil {
			continue
		}
		if m.dims == 0 {
			m.dims = len(v)
		} else if len(v) != m.dims {
			m.logger.Warn("skipping chunk, unexpected vector dimension",
				zap.Int("position", ch.Position),
				zap.Int("got", len(v)),
				zap.Int("want", m.dims))
			continue
		}
		if ch.Section == "" {
			ch.Section = ExtractSection(ch.Text)
		}
		entries = append(entries, EmbeddingVector{
			Chunk:    ch,
			Vector:   v,
			Section:  ch.Section,
			Position: ch.Position,
		})
	}
	m.entries = entries
	m.logger.Debug("document indexed",
		zap.Int("chunks", len(chunks)),
		zap.Int("indexed", len(entries)))
	return nil
}

// Search embeds query and returns the min(topK, Size()) most similar chunks.
// Ties keep the original chunk order. A failed query embedding is returned as
// *embedding.EmbeddingError.
func (m *MemoryIndex) Search(ctx context.Context, query string, topK int) ([]models.SearchResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.entries) == 0 {
		return nil, ErrEmptyIndex
	}
	qv, err := m.embedder.Embed(ctx, utils.TruncateRunes(query, m.maxInputChars))
	if err != nil {
		var ee *embedding.EmbeddingError
		if errors.As(err, &ee) {
			return nil, err
		}
		return nil, &embedding.EmbeddingError{Err: err}
	}
	results := make([]models.SearchResult, len(m.entries))
	for i, e := range m.entries {
		sim, err := CosineSimilarity(qv, e.Vector)
		if err != nil {
			return nil, fmt.Errorf("query vector: %w", err)
		}
		results[i] = models.SearchResult{Chunk: e.Chunk, Similarity: sim, Index: e.Position}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if topK < 0 {
		topK = 0
	}
	if topK > len(results) {
		topK = len(results)
	}
	return results[:topK], nil
}

// Size returns the number of indexed chunks.
func (m *MemoryIndex) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Sections returns the distinct section labels of indexed chunks in document order.
func (m *MemoryIndex) Sections() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, e := range m.entries {
		if !seen[e.Section] {
			seen[e.Section] = true
			out = append(out, e.Section)
		}
	}
	return out
}
