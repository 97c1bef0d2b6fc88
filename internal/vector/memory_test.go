package vector

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/hyperjump/docqa/internal/embedding"
	"github.com/hyperjump/docqa/internal/models"
)

// flakyEmbedder fails on texts containing failOn and counts calls.
type flakyEmbedder struct {
	*embedding.MockEmbedder
	failOn string
	mu     sync.Mutex
	seen   []string
}

func (f *flakyEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.seen = append(f.seen, text)
	f.mu.Unlock()
	if f.failOn != "" && strings.Contains(text, f.failOn) {
		return nil, errors.New("rate limited")
	}
	return f.MockEmbedder.Embed(ctx, text)
}

func chunksOf(texts ...string) []models.Chunk {
	out := make([]models.Chunk, len(texts))
	for i, t := range texts {
		out[i] = models.Chunk{Position: i, Text: t}
	}
	return out
}

var policyChunks = chunksOf(
	"Section 2.1: Grace Period\nA grace period of thirty days is allowed for premium payment.",
	"Section 3: Maternity\nMaternity expenses are covered after twenty four months.",
	"Section 4.2: Exclusions\nCosmetic surgery is excluded from coverage.",
)

func TestMemoryIndex_IndexSearch(t *testing.T) {
	idx := NewMemoryIndex(embedding.NewMockEmbedder(256))
	ctx := context.Background()
	if err := idx.Index(ctx, policyChunks); err != nil {
		t.Fatal(err)
	}
	if idx.Size() != 3 {
		t.Errorf("Size=%d", idx.Size())
	}
	results, err := idx.Search(ctx, "What is the grace period for premium payment?", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Index != 0 {
		t.Errorf("top result should be chunk 0, got %d", results[0].Index)
	}
	if results[0].Chunk.Section != "Grace Period" {
		t.Errorf("section = %q", results[0].Chunk.Section)
	}
}

func TestMemoryIndex_TopChunk(t *testing.T) {
	tests := []struct {
		name   string
		chunks []models.Chunk
		query  string
		want   int
	}{
		{
			name:   "grace period policy",
			chunks: policyChunks,
			query:  "What is the grace period for premium payment?",
			want:   0,
		},
		{
			name:   "short clauses",
			chunks: chunksOf("grace period is 30 days", "waiting period is 36 months", "maternity covered after 24 months"),
			query:  "What is the grace period?",
			want:   0,
		},
		{
			name:   "short clauses maternity",
			chunks: chunksOf("grace period is 30 days", "waiting period is 36 months", "maternity covered after 24 months"),
			query:  "When is maternity covered?",
			want:   2,
		},
	}
	for _, tt := range tests {
		for _, dims := range []int{384, 1536} {
			idx := NewMemoryIndex(embedding.NewMockEmbedder(dims))
			ctx := context.Background()
			if err := idx.Index(ctx, tt.chunks); err != nil {
				t.Fatalf("%s/%d: %v", tt.name, dims, err)
			}
			results, err := idx.Search(ctx, tt.query, 1)
			if err != nil {
				t.Fatalf("%s/%d: %v", tt.name, dims, err)
			}
			if len(results) != 1 || results[0].Index != tt.want {
				t.Errorf("%s/%d: top result = %+v, want chunk %d", tt.name, dims, results, tt.want)
			}
		}
	}
}

func TestMemoryIndex_SearchOrderingAndLength(t *testing.T) {
	idx := NewMemoryIndex(embedding.NewMockEmbedder(128))
	ctx := context.Background()
	if err := idx.Index(ctx, policyChunks); err != nil {
		t.Fatal(err)
	}
	for _, k := range []int{0, 1, 2, 3, 10} {
		results, err := idx.Search(ctx, "coverage", k)
		if err != nil {
			t.Fatal(err)
		}
		want := k
		if want > 3 {
			want = 3
		}
		if len(results) != want {
			t.Errorf("k=%d: got %d results, want %d", k, len(results), want)
		}
		for i := 1; i < len(results); i++ {
			if results[i].Similarity > results[i-1].Similarity {
				t.Errorf("k=%d: results not sorted at %d", k, i)
			}
		}
	}
}

func TestMemoryIndex_TiesKeepChunkOrder(t *testing.T) {
	idx := NewMemoryIndex(embedding.NewMockEmbedder(64))
	ctx := context.Background()
	if err := idx.Index(ctx, chunksOf("same text", "same text", "same text")); err != nil {
		t.Fatal(err)
	}
	results, err := idx.Search(ctx, "unrelated words", 3)
	if err != nil {
		t.Fatal(err)
	}
	for i, r := range results {
		if r.Index != i {
			t.Errorf("result %d has index %d, want %d", i, r.Index, i)
		}
	}
}

func TestMemoryIndex_EmptyIndex(t *testing.T) {
	idx := NewMemoryIndex(embedding.NewMockEmbedder(16))
	ctx := context.Background()
	if _, err := idx.Search(ctx, "anything", 3); !errors.Is(err, ErrEmptyIndex) {
		t.Errorf("expected ErrEmptyIndex before indexing, got %v", err)
	}
	if err := idx.Index(ctx, nil); err != nil {
		t.Fatalf("indexing zero chunks should succeed: %v", err)
	}
	if _, err := idx.Search(ctx, "anything", 3); !errors.Is(err, ErrEmptyIndex) {
		t.Errorf("expected ErrEmptyIndex after empty document, got %v", err)
	}
}

func TestMemoryIndex_SkipsFailedChunks(t *testing.T) {
	emb := &flakyEmbedder{MockEmbedder: embedding.NewMockEmbedder(64), failOn: "Maternity"}
	idx := NewMemoryIndex(emb, WithWorkers(2))
	if err := idx.Index(context.Background(), policyChunks); err != nil {
		t.Fatal(err)
	}
	if idx.Size() != 2 {
		t.Fatalf("expected failed chunk to be skipped, size=%d", idx.Size())
	}
	for _, s := range idx.Sections() {
		if s == "Maternity" {
			t.Error("skipped chunk should not be indexed")
		}
	}
}

func TestMemoryIndex_QueryEmbeddingFailure(t *testing.T) {
	emb := &flakyEmbedder{MockEmbedder: embedding.NewMockEmbedder(64), failOn: "boom"}
	idx := NewMemoryIndex(emb)
	ctx := context.Background()
	if err := idx.Index(ctx, policyChunks); err != nil {
		t.Fatal(err)
	}
	_, err := idx.Search(ctx, "boom", 2)
	var ee *embedding.EmbeddingError
	if !errors.As(err, &ee) {
		t.Fatalf("expected EmbeddingError, got %v", err)
	}
}

func TestMemoryIndex_ReindexDiscardsPrior(t *testing.T) {
	idx := NewMemoryIndex(embedding.NewMockEmbedder(64))
	ctx := context.Background()
	if err := idx.Index(ctx, policyChunks); err != nil {
		t.Fatal(err)
	}
	if err := idx.Index(ctx, chunksOf("A brand new document about refunds.")); err != nil {
		t.Fatal(err)
	}
	if idx.Size() != 1 {
		t.Fatalf("expected 1 chunk after re-index, got %d", idx.Size())
	}
	results, err := idx.Search(ctx, "grace period", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || !strings.Contains(results[0].Chunk.Text, "refunds") {
		t.Errorf("prior chunks leaked into results: %+v", results)
	}
}

func TestMemoryIndex_TruncatesInput(t *testing.T) {
	emb := &flakyEmbedder{MockEmbedder: embedding.NewMockEmbedder(16)}
	idx := NewMemoryIndex(emb, WithMaxInputChars(10))
	if err := idx.Index(context.Background(), chunksOf(strings.Repeat("abc ", 50))); err != nil {
		t.Fatal(err)
	}
	if len(emb.seen) != 1 || len([]rune(emb.seen[0])) != 10 {
		t.Errorf("expected a 10 character input, got %q", emb.seen)
	}
}

func TestMemoryIndex_Cancelled(t *testing.T) {
	idx := NewMemoryIndex(embedding.NewMockEmbedder(16))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := idx.Index(ctx, policyChunks)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if idx.Size() != 0 {
		t.Errorf("cancelled index should be empty, size=%d", idx.Size())
	}
}

func TestMemoryIndex_ConcurrentSearch(t *testing.T) {
	idx := NewMemoryIndex(embedding.NewMockEmbedder(64))
	ctx := context.Background()
	if err := idx.Index(ctx, policyChunks); err != nil {
		t.Fatal(err)
	}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := idx.Search(ctx, "maternity", 2); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
}

func BenchmarkMemoryIndexSearch(b *testing.B) {
	texts := make([]string, 1000)
	for i := range texts {
		texts[i] = strings.Repeat("policy clause ", i%7+1) + string(rune('a'+i%26))
	}
	idx := NewMemoryIndex(embedding.NewMockEmbedder(384))
	ctx := context.Background()
	_ = idx.Index(ctx, chunksOf(texts...))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = idx.Search(ctx, "policy clause", 10)
	}
}
