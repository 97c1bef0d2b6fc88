package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/hyperjump/docqa/internal/models"
	"github.com/hyperjump/docqa/internal/storage"
	"github.com/hyperjump/docqa/pkg/utils"
)

// StatusReporter receives job progress. Reports are fire-and-forget: failures are
// handled by the reporter and never affect the run.
type StatusReporter interface {
	Report(ctx context.Context, jobID string, status models.ProcessingStatus)
}

// ReporterFunc adapts a function to StatusReporter.
type ReporterFunc func(ctx context.Context, jobID string, status models.ProcessingStatus)

func (f ReporterFunc) Report(ctx context.Context, jobID string, status models.ProcessingStatus) {
	f(ctx, jobID, status)
}

type nopReporter struct{}

func (nopReporter) Report(context.Context, string, models.ProcessingStatus) {}

// StoreReporter persists status updates to a job store.
type StoreReporter struct {
	store  storage.Storage
	logger *zap.Logger
}

// NewStoreReporter returns a reporter that writes to store and logs write failures.
func NewStoreReporter(store storage.Storage, logger *zap.Logger) *StoreReporter {
	return &StoreReporter{store: store, logger: utils.OrNop(logger)}
}

// Report saves status. The write is detached from ctx cancellation so terminal
// statuses are recorded for cancelled jobs too.
func (r *StoreReporter) Report(ctx context.Context, jobID string, status models.ProcessingStatus) {
	if err := r.store.UpdateStatus(context.WithoutCancel(ctx), jobID, status); err != nil {
		r.logger.Warn("failed to record job status",
			zap.String("job_id", jobID),
			zap.String("status", string(status.Status)),
			zap.Error(err))
	}
}
