// Package indexer turns raw document text into sentence-coherent chunks.
package indexer

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/hyperjump/docqa/internal/models"
)

// DefaultChunkSize is the maximum chunk length in characters when none is configured.
const DefaultChunkSize = 1000

const sentenceSeparator = ". "

var sentenceBoundary = regexp.MustCompile(`[.!?]+`)

// Chunker splits text into chunks of whole sentences no longer than maxChunkSize characters.
// A single sentence longer than maxChunkSize is emitted whole as its own chunk.
type Chunker struct {
	maxChunkSize int
}

// NewChunker creates a chunker. A non-positive size falls back to DefaultChunkSize.
func NewChunker(maxChunkSize int) *Chunker {
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultChunkSize
	}
	return &Chunker{maxChunkSize: maxChunkSize}
}

// MaxChunkSize returns the configured chunk length limit.
func (c *Chunker) MaxChunkSize() int {
	return c.maxChunkSize
}

// Chunk splits text into chunks. Position is the chunk's index in the returned slice.
func (c *Chunker) Chunk(text string) []models.Chunk {
	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		return nil
	}
	chunks := make([]models.Chunk, 0)
	var buf []string
	bufLen := 0
	flush := func() {
		if len(buf) == 0 {
			return
		}
		chunkText := strings.TrimSpace(strings.Join(buf, sentenceSeparator))
		if chunkText != "" {
			chunks = append(chunks, models.Chunk{Position: len(chunks), Text: chunkText})
		}
		buf = buf[:0]
		bufLen = 0
	}
	sepLen := utf8.RuneCountInString(sentenceSeparator)
	for _, s := range sentences {
		n := utf8.RuneCountInString(s)
		if len(buf) > 0 && bufLen+sepLen+n > c.maxChunkSize {
			flush()
		}
		if len(buf) > 0 {
			bufLen += sepLen
		}
		buf = append(buf, s)
		bufLen += n
	}
	flush()
	return chunks
}

// SplitSentences splits text on runs of terminal punctuation and returns the
// trimmed, non-empty pieces in order.
func SplitSentences(text string) []string {
	parts := sentenceBoundary.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
