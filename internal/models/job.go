package models

import (
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state of a processing job.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
	// StatusPartial marks a job that was cancelled after producing some answers.
	StatusPartial Status = "partial"
)

// Terminal reports whether no further transitions are expected from s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError || s == StatusPartial
}

// ProcessingStatus is the externally visible progress of a job.
type ProcessingStatus struct {
	Status    Status    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Progress  int       `json:"progress"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// ProcessingRequest asks for answers to questions about the document at Documents (a URL).
type ProcessingRequest struct {
	Documents string   `json:"documents"`
	Questions []string `json:"questions"`
}

// Validate checks that a document URL and at least one non-empty question are present.
// Questions are trimmed in place.
func (r *ProcessingRequest) Validate() error {
	r.Documents = strings.TrimSpace(r.Documents)
	if r.Documents == "" {
		return fmt.Errorf("document URL is required")
	}
	return ValidateQuestions(r.Questions)
}

// ValidateQuestions trims questions in place and rejects an empty list or empty entries.
func ValidateQuestions(questions []string) error {
	if len(questions) == 0 {
		return fmt.Errorf("at least one question is required")
	}
	for i, q := range questions {
		questions[i] = strings.TrimSpace(q)
		if questions[i] == "" {
			return fmt.Errorf("question %d cannot be empty", i+1)
		}
	}
	return nil
}

// ResultMetadata summarizes a processing run.
type ResultMetadata struct {
	// ProcessingTime is the elapsed wall-clock time in seconds.
	ProcessingTime    float64   `json:"processing_time"`
	TokenCount        int       `json:"token_count"`
	ConfidenceScores  []float64 `json:"confidence_scores"`
	DocumentProcessed bool      `json:"document_processed"`
}

// ProcessingResponse is the wire shape returned to callers of the synchronous endpoint.
type ProcessingResponse struct {
	Answers  []string       `json:"answers"`
	Metadata ResultMetadata `json:"metadata"`
}

// ProcessingResult is the full outcome of a job. Answers, Metadata.ConfidenceScores and
// Records always have one entry per question, in request order.
type ProcessingResult struct {
	Answers  []string        `json:"answers"`
	Metadata ResultMetadata  `json:"metadata"`
	Records  []*AnswerRecord `json:"detailed_answers,omitempty"`
	Partial  bool            `json:"partial,omitempty"`
}

// Response returns the answers and metadata without the detailed records.
func (r *ProcessingResult) Response() *ProcessingResponse {
	return &ProcessingResponse{Answers: r.Answers, Metadata: r.Metadata}
}
