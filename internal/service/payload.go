package service

import (
	"github.com/hyperjump/docqa/internal/models"
)

// CallbackPayload is POSTed to a job's callback URL when it finishes.
type CallbackPayload struct {
	WebhookID         string                 `json:"webhook_id"`
	JobID             string                 `json:"job_id"`
	Status            models.Status          `json:"status"`
	DocumentProcessed bool                   `json:"document_processed"`
	Answers           []string               `json:"answers,omitempty"`
	DetailedAnswers   []*models.AnswerRecord `json:"detailed_answers,omitempty"`
	Metadata          *models.ResultMetadata `json:"metadata,omitempty"`
	Error             string                 `json:"error,omitempty"`
}

// NewCallbackPayload builds the payload for a finished run. A run without a
// result reports status error with the failure message.
func NewCallbackPayload(sub *Submission, result *models.ProcessingResult, err error) *CallbackPayload {
	p := &CallbackPayload{WebhookID: sub.WebhookID, JobID: sub.JobID}
	if result == nil {
		p.Status = models.StatusError
		if err != nil {
			p.Error = err.Error()
		} else {
			p.Error = "processing produced no result"
		}
		return p
	}
	p.Status = models.StatusCompleted
	if result.Partial {
		p.Status = models.StatusPartial
		if err != nil {
			p.Error = err.Error()
		}
	}
	p.DocumentProcessed = result.Metadata.DocumentProcessed
	p.Answers = result.Answers
	p.DetailedAnswers = result.Records
	metadata := result.Metadata
	p.Metadata = &metadata
	return p
}
