// Package service runs document question-answering jobs synchronously or in the
// background, persisting their status and results and notifying callbacks.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/docqa/internal/extract"
	"github.com/hyperjump/docqa/internal/indexer"
	"github.com/hyperjump/docqa/internal/keyword"
	"github.com/hyperjump/docqa/internal/models"
	"github.com/hyperjump/docqa/internal/pipeline"
	"github.com/hyperjump/docqa/internal/storage"
	"github.com/hyperjump/docqa/pkg/utils"
)

// DefaultJobTimeout bounds a single job when no timeout is configured.
const DefaultJobTimeout = 10 * time.Minute

// callbackTimeout bounds callback delivery, including retries. Delivery is detached
// from shutdown so jobs cancelled by Close still report their partial result.
const callbackTimeout = 30 * time.Second

var (
	// ErrInvalidRequest wraps request validation failures.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrClosed is returned for submissions after Close.
	ErrClosed = errors.New("service closed")
)

// Runner executes one processing run.
type Runner interface {
	Run(ctx context.Context, jobID string, load pipeline.Loader, questions []string) (*models.ProcessingResult, error)
}

// Notifier delivers callback payloads.
type Notifier interface {
	Deliver(ctx context.Context, url string, payload any) error
}

// Submission identifies an accepted background job.
type Submission struct {
	JobID     string `json:"job_id"`
	WebhookID string `json:"webhook_id"`
}

// Stats summarizes stored state.
type Stats struct {
	Jobs            int64  `json:"jobs"`
	HistoryAnswers  uint64 `json:"history_answers"`
	BackgroundJobs  int64  `json:"background_jobs"`
	HistoryDisabled bool   `json:"history_disabled,omitempty"`
}

// Service coordinates the job store, the pipeline, the answer history and callbacks.
type Service struct {
	store      storage.Storage
	runner     Runner
	loader     *indexer.Loader
	history    keyword.HistoryIndex
	notifier   Notifier
	jobTimeout time.Duration
	logger     *zap.Logger

	baseCtx context.Context
	cancel  context.CancelFunc

	mu      sync.Mutex
	closed  bool
	wg      sync.WaitGroup
	running int64
}

// NewService creates a service. history and notifier may be nil.
func NewService(
	store storage.Storage,
	runner Runner,
	loader *indexer.Loader,
	history keyword.HistoryIndex,
	notifier Notifier,
	jobTimeout time.Duration,
	logger *zap.Logger,
) *Service {
	if jobTimeout <= 0 {
		jobTimeout = DefaultJobTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		store:      store,
		runner:     runner,
		loader:     loader,
		history:    history,
		notifier:   notifier,
		jobTimeout: jobTimeout,
		logger:     utils.OrNop(logger),
		baseCtx:    ctx,
		cancel:     cancel,
	}
}

// Process runs req to completion and returns the job ID and result. A partial
// result is returned together with the context error when the run was cut short.
func (s *Service) Process(ctx context.Context, req *models.ProcessingRequest) (string, *models.ProcessingResult, error) {
	if err := req.Validate(); err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	jobID, err := s.store.CreateJob(ctx, req)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create job: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, s.jobTimeout)
	defer cancel()
	result, err := s.execute(ctx, jobID, s.loader.FromURL(req.Documents), req.Questions)
	return jobID, result, err
}

// SubmitURL accepts req for background processing and returns immediately.
// When callbackURL is set the outcome is POSTed to it.
func (s *Service) SubmitURL(req *models.ProcessingRequest, callbackURL, webhookID string) (*Submission, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if err := validateCallback(callbackURL); err != nil {
		return nil, err
	}
	return s.submit(req, s.loader.FromURL(req.Documents), callbackURL, webhookID)
}

// SubmitUpload accepts an uploaded document for background processing.
func (s *Service) SubmitUpload(filename string, data []byte, questions []string, callbackURL, webhookID string) (*Submission, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: document is empty", ErrInvalidRequest)
	}
	if ext := filepath.Ext(filename); ext != "" && !extract.IsSupported(ext) {
		return nil, fmt.Errorf("%w: unsupported file type %s", ErrInvalidRequest, ext)
	}
	if err := models.ValidateQuestions(questions); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if err := validateCallback(callbackURL); err != nil {
		return nil, err
	}
	req := &models.ProcessingRequest{Documents: "upload:" + filepath.Base(filename), Questions: questions}
	return s.submit(req, s.loader.FromBytes(filename, data), callbackURL, webhookID)
}

func (s *Service) submit(req *models.ProcessingRequest, load pipeline.Loader, callbackURL, webhookID string) (*Submission, error) {
	if webhookID == "" {
		webhookID = uuid.New().String()
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	s.wg.Add(1)
	s.running++
	s.mu.Unlock()

	jobID, err := s.store.CreateJob(s.baseCtx, req)
	if err != nil {
		s.done()
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	sub := &Submission{JobID: jobID, WebhookID: webhookID}
	go func() {
		defer s.done()
		s.background(sub, load, req.Questions, callbackURL)
	}()
	s.logger.Info("job accepted",
		zap.String("job_id", jobID),
		zap.String("webhook_id", webhookID),
		zap.String("document", req.Documents),
		zap.Int("questions", len(req.Questions)))
	return sub, nil
}

func (s *Service) done() {
	s.mu.Lock()
	s.running--
	s.mu.Unlock()
	s.wg.Done()
}

func (s *Service) background(sub *Submission, load pipeline.Loader, questions []string, callbackURL string) {
	ctx, cancel := context.WithTimeout(s.baseCtx, s.jobTimeout)
	defer cancel()

	result, err := s.execute(ctx, sub.JobID, load, questions)
	if callbackURL == "" || s.notifier == nil {
		return
	}
	payload := NewCallbackPayload(sub, result, err)
	deliverCtx, cancelDeliver := context.WithTimeout(context.WithoutCancel(s.baseCtx), callbackTimeout)
	defer cancelDeliver()
	if err := s.notifier.Deliver(deliverCtx, callbackURL, payload); err != nil {
		s.logger.Warn("callback delivery failed",
			zap.String("job_id", sub.JobID),
			zap.String("webhook_id", sub.WebhookID),
			zap.Error(err))
	}
}

// execute runs the pipeline and persists whatever result it produced.
func (s *Service) execute(ctx context.Context, jobID string, load pipeline.Loader, questions []string) (*models.ProcessingResult, error) {
	result, err := s.runner.Run(ctx, jobID, load, questions)
	if result == nil {
		if err != nil {
			s.logger.Error("job failed", zap.String("job_id", jobID), zap.Error(err))
		}
		return nil, err
	}

	persistCtx := context.WithoutCancel(ctx)
	if saveErr := s.store.SaveResult(persistCtx, jobID, result); saveErr != nil {
		s.logger.Error("failed to save result", zap.String("job_id", jobID), zap.Error(saveErr))
	}
	if s.history != nil {
		if histErr := s.history.IndexAnswers(persistCtx, jobID, result.Records); histErr != nil {
			s.logger.Warn("failed to index answer history", zap.String("job_id", jobID), zap.Error(histErr))
		}
	}
	return result, err
}

// Status returns the status of job id.
func (s *Service) Status(ctx context.Context, id string) (*models.ProcessingStatus, error) {
	return s.store.GetStatus(ctx, id)
}

// Result returns the stored result of job id.
func (s *Service) Result(ctx context.Context, id string) (*models.ProcessingResult, error) {
	return s.store.GetResult(ctx, id)
}

// SearchHistory searches previously generated answers.
func (s *Service) SearchHistory(ctx context.Context, query string, limit int) ([]*keyword.HistoryHit, error) {
	if s.history == nil {
		return []*keyword.HistoryHit{}, nil
	}
	return s.history.Search(ctx, query, limit)
}

// Stats reports job and history counts.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	jobs, err := s.store.CountJobs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count jobs: %w", err)
	}
	st := &Stats{Jobs: jobs, HistoryDisabled: s.history == nil}
	if s.history != nil {
		n, err := s.history.DocCount()
		if err != nil {
			return nil, fmt.Errorf("failed to count history: %w", err)
		}
		st.HistoryAnswers = n
	}
	s.mu.Lock()
	st.BackgroundJobs = s.running
	s.mu.Unlock()
	return st, nil
}

// Close rejects new submissions, cancels running background jobs and waits for them.
func (s *Service) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	s.cancel()
	s.wg.Wait()
}

func validateCallback(callbackURL string) error {
	if callbackURL == "" {
		return nil
	}
	u, err := url.Parse(callbackURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: invalid callback URL %q", ErrInvalidRequest, callbackURL)
	}
	return nil
}
