// Package vector holds the per-document semantic index: chunk vectors and
// brute-force cosine nearest-neighbor search.
package vector

import (
	"context"
	"errors"

	"github.com/hyperjump/docqa/internal/models"
)

var (
	// ErrEmptyIndex is returned by Search when no chunk vectors are stored.
	ErrEmptyIndex = errors.New("no document indexed")
	// ErrDimensionMismatch is returned when two vectors of different lengths are compared.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// Index stores the chunks of exactly one document and answers top-K queries over them.
type Index interface {
	// Index replaces the stored set with embeddings of chunks.
	Index(ctx context.Context, chunks []models.Chunk) error
	// Search returns up to topK chunks ordered by descending similarity to query.
	Search(ctx context.Context, query string, topK int) ([]models.SearchResult, error)
	Size() int
}

// EmbeddingVector pairs a chunk with its embedding. It is never modified after indexing.
type EmbeddingVector struct {
	Chunk    models.Chunk
	Vector   []float32
	Section  string
	Position int
}
