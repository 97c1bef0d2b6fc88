// Package server provides the HTTP API for docqa.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/docqa/internal/config"
	"github.com/hyperjump/docqa/internal/keyword"
	"github.com/hyperjump/docqa/internal/models"
	"github.com/hyperjump/docqa/internal/service"
	"github.com/hyperjump/docqa/pkg/utils"
)

// Backend is the job-processing API served over HTTP. *service.Service implements it.
type Backend interface {
	Process(ctx context.Context, req *models.ProcessingRequest) (string, *models.ProcessingResult, error)
	SubmitURL(req *models.ProcessingRequest, callbackURL, webhookID string) (*service.Submission, error)
	SubmitUpload(filename string, data []byte, questions []string, callbackURL, webhookID string) (*service.Submission, error)
	Status(ctx context.Context, id string) (*models.ProcessingStatus, error)
	Result(ctx context.Context, id string) (*models.ProcessingResult, error)
	SearchHistory(ctx context.Context, query string, limit int) ([]*keyword.HistoryHit, error)
	Stats(ctx context.Context) (*service.Stats, error)
}

// HealthInfo describes the configured providers and on-disk state for the health endpoint.
type HealthInfo struct {
	EmbeddingProvider  string
	GenerationProvider string
	// DiskPaths are summed into disk_usage_bytes.
	DiskPaths []string
}

// Server is the HTTP server for the docqa API.
type Server struct {
	backend Backend
	config  *config.ServerConfig
	info    HealthInfo
	logger  *zap.Logger
	server  *http.Server
	now     func() time.Time
}

// NewServer creates a server with the given dependencies.
func NewServer(backend Backend, cfg *config.ServerConfig, info HealthInfo, logger *zap.Logger) *Server {
	return &Server{
		backend: backend,
		config:  cfg,
		info:    info,
		logger:  utils.OrNop(logger),
		now:     time.Now,
	}
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if s.config.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.config.RequestTimeout))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Group(func(r chi.Router) {
			r.Use(s.requireToken)
			r.Post("/run", s.handleRun)
			r.Get("/status/{id}", s.handleStatus)
			r.Get("/results/{id}", s.handleResult)
			r.Get("/history/search", s.handleHistorySearch)
			r.Post("/webhook/document-process", s.handleWebhookProcess)
			r.Post("/webhook/document-upload", s.handleWebhookUpload)
		})
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	if s.config.APIToken == "" {
		s.logger.Warn("API token not configured, authentication disabled")
	}
	addr := s.config.Addr()
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
