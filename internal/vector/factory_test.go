package vector

import (
	"context"
	"testing"

	"github.com/hyperjump/docqa/internal/embedding"
)

func TestFactory_NewReturnsIndependentIndexes(t *testing.T) {
	f := NewFactory(embedding.NewMockEmbedder(32), 2, 100, nil)
	a, b := f.New(), f.New()
	if err := a.Index(context.Background(), chunksOf("only in a")); err != nil {
		t.Fatal(err)
	}
	if a.Size() != 1 {
		t.Errorf("a.Size()=%d, want 1", a.Size())
	}
	if b.Size() != 0 {
		t.Errorf("b.Size()=%d, want 0", b.Size())
	}
}
