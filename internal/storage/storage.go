// Package storage persists processing jobs, their status and their results.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/hyperjump/docqa/internal/models"
)

// ErrNotFound is returned when a job or its result does not exist.
var ErrNotFound = errors.New("not found")

// Job is a stored processing request with its latest status.
type Job struct {
	ID          string
	DocumentURL string
	Questions   []string
	Status      models.ProcessingStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Storage defines job persistence operations.
type Storage interface {
	// CreateJob stores req under a new job ID with status idle.
	CreateJob(ctx context.Context, req *models.ProcessingRequest) (string, error)
	GetJob(ctx context.Context, id string) (*Job, error)

	UpdateStatus(ctx context.Context, id string, status models.ProcessingStatus) error
	GetStatus(ctx context.Context, id string) (*models.ProcessingStatus, error)

	SaveResult(ctx context.Context, id string, result *models.ProcessingResult) error
	GetResult(ctx context.Context, id string) (*models.ProcessingResult, error)

	// ListJobsBefore returns the IDs of jobs created before t.
	ListJobsBefore(ctx context.Context, t time.Time) ([]string, error)
	// DeleteJobsBefore removes jobs created before t together with their results.
	DeleteJobsBefore(ctx context.Context, t time.Time) (int64, error)
	CountJobs(ctx context.Context) (int64, error)

	Close() error
}
