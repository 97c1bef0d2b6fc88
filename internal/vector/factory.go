package vector

import (
	"github.com/hyperjump/docqa/internal/embedding"
	"go.uber.org/zap"
)

// Factory builds a fresh index for each job so no index state is shared between documents.
type Factory struct {
	embedder embedding.Embedder
	opts     []MemoryOption
}

// NewFactory returns a factory whose indexes embed with embedder.
func NewFactory(embedder embedding.Embedder, workers, maxInputChars int, logger *zap.Logger) *Factory {
	return &Factory{
		embedder: embedder,
		opts: []MemoryOption{
			WithWorkers(workers),
			WithMaxInputChars(maxInputChars),
			WithLogger(logger),
		},
	}
}

// New returns an empty index.
func (f *Factory) New() Index {
	return NewMemoryIndex(f.embedder, f.opts...)
}
