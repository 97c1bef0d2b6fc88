package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hyperjump/docqa/internal/models"
	"github.com/hyperjump/docqa/internal/storage"
)

// fakeStore records status updates; other Storage methods are not used here.
type fakeStore struct {
	storage.Storage
	updates []models.ProcessingStatus
	err     error
}

func (f *fakeStore) UpdateStatus(ctx context.Context, _ string, s models.ProcessingStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.err != nil {
		return f.err
	}
	f.updates = append(f.updates, s)
	return nil
}

func TestStoreReporter_SwallowsErrors(t *testing.T) {
	store := &fakeStore{err: errors.New("disk full")}
	rep := NewStoreReporter(store, nil)
	assert.NotPanics(t, func() {
		rep.Report(context.Background(), "job-1", models.ProcessingStatus{Status: models.StatusProcessing})
	})
	assert.Empty(t, store.updates)
}

func TestReporterFunc(t *testing.T) {
	var got string
	var r StatusReporter = ReporterFunc(func(_ context.Context, id string, _ models.ProcessingStatus) {
		got = id
	})
	r.Report(context.Background(), "job-7", models.ProcessingStatus{})
	assert.Equal(t, "job-7", got)
}
