// Package job holds scheduled maintenance jobs.
package job

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/docqa/internal/keyword"
	"github.com/hyperjump/docqa/internal/storage"
	"github.com/hyperjump/docqa/pkg/utils"
)

// DefaultMaxAge is used when RetentionJob is created with a non-positive max age.
const DefaultMaxAge = 24 * time.Hour

// RetentionJob deletes jobs older than maxAge from the job store and the answer history.
type RetentionJob struct {
	store   storage.Storage
	history keyword.HistoryIndex
	maxAge  time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

// NewRetentionJob creates a retention job. history may be nil.
func NewRetentionJob(store storage.Storage, history keyword.HistoryIndex, maxAge time.Duration, logger *zap.Logger) *RetentionJob {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &RetentionJob{
		store:   store,
		history: history,
		maxAge:  maxAge,
		logger:  utils.OrNop(logger),
		now:     time.Now,
	}
}

func (j *RetentionJob) Name() string {
	return "job_retention"
}

// Run removes expired jobs. History entries are removed first so that a failure
// leaves the job rows in place for the next run.
func (j *RetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().Add(-j.maxAge)
	ids, err := j.store.ListJobsBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to list expired jobs: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}
	if j.history != nil {
		for _, id := range ids {
			if err := j.history.DeleteJob(ctx, id); err != nil {
				return fmt.Errorf("failed to delete history of job %s: %w", id, err)
			}
		}
	}
	n, err := j.store.DeleteJobsBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to delete expired jobs: %w", err)
	}
	j.logger.Info("expired jobs removed", zap.Int64("jobs", n), zap.Time("cutoff", cutoff))
	return nil
}
