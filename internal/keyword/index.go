// Package keyword provides full-text search over previously generated answers.
package keyword

import (
	"context"

	"github.com/hyperjump/docqa/internal/models"
)

// HistoryIndex defines answer history indexing and search.
type HistoryIndex interface {
	// IndexAnswers adds the successful answers of a job. Failed records are skipped.
	IndexAnswers(ctx context.Context, jobID string, records []*models.AnswerRecord) error
	// Search runs a keyword query over questions and answers and returns up to limit hits.
	Search(ctx context.Context, query string, limit int) ([]*HistoryHit, error)
	// DeleteJob removes every answer that belongs to jobID.
	DeleteJob(ctx context.Context, jobID string) error
	// DocCount returns the total number of indexed answers.
	DocCount() (uint64, error)
	Close() error
}

// HistoryHit is a single answer history search hit.
type HistoryHit struct {
	JobID         string  `json:"job_id"`
	Question      string  `json:"question"`
	Answer        string  `json:"answer"`
	SourceSection string  `json:"source_section,omitempty"`
	Confidence    float64 `json:"confidence"`
	Score         float64 `json:"score"`
}
