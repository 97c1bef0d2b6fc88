// Package models defines core data structures for chunks, answers, and processing jobs.
package models

// UnknownSection is the section label used when no heading could be extracted from a chunk.
const UnknownSection = "Unknown Section"

// Chunk is a contiguous span of document text treated as one retrievable unit.
// Position is the chunk's index in the chunker's output.
type Chunk struct {
	Position int    `json:"position"`
	Text     string `json:"text"`
	Section  string `json:"section,omitempty"`
}

// SearchResult is a single nearest-neighbor hit for a query.
// Index is the original position of the chunk in the indexed document.
type SearchResult struct {
	Chunk      Chunk   `json:"chunk"`
	Similarity float64 `json:"similarity"`
	Index      int     `json:"index"`
}
