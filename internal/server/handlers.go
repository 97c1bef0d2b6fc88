package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/docqa/internal/extract"
	"github.com/hyperjump/docqa/internal/models"
	"github.com/hyperjump/docqa/internal/service"
	"github.com/hyperjump/docqa/internal/storage"
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 100
	multipartMemory     = 32 << 20
)

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req models.ProcessingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("run request", zap.String("documents", req.Documents), zap.Int("questions", len(req.Questions)))

	jobID, result, err := s.backend.Process(r.Context(), &req)
	if jobID != "" {
		w.Header().Set("X-Job-ID", jobID)
	}
	if err != nil && result == nil {
		var ee *extract.ExtractionError
		switch {
		case errors.Is(err, service.ErrInvalidRequest):
			s.respondError(w, http.StatusBadRequest, err.Error())
		case errors.As(err, &ee):
			s.respondError(w, http.StatusUnprocessableEntity, "document processing failed: "+err.Error())
		default:
			s.logger.Error("processing failed", zap.String("job_id", jobID), zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, "processing failed: "+err.Error())
		}
		return
	}
	if err != nil {
		s.logger.Warn("returning partial result", zap.String("job_id", jobID), zap.Error(err))
	}
	s.respondJSON(w, http.StatusOK, result.Response())
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	status, err := s.backend.Status(r.Context(), id)
	if err != nil {
		s.respondLookupError(w, err, "processing ID not found")
		return
	}
	s.respondJSON(w, http.StatusOK, status)
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	result, err := s.backend.Result(r.Context(), id)
	if err != nil {
		s.respondLookupError(w, err, "result not found")
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleHistorySearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}
	hits, err := s.backend.SearchHistory(r.Context(), q, limit)
	if err != nil {
		s.logger.Error("history search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"query": q, "results": hits, "total": len(hits)})
}

type webhookProcessRequest struct {
	DocumentURL string   `json:"document_url"`
	Questions   []string `json:"questions"`
	CallbackURL string   `json:"callback_url"`
	WebhookID   string   `json:"webhook_id"`
}

type webhookAccepted struct {
	Message   string        `json:"message"`
	WebhookID string        `json:"webhook_id"`
	JobID     string        `json:"job_id"`
	Status    models.Status `json:"status"`
}

func (s *Server) handleWebhookProcess(w http.ResponseWriter, r *http.Request) {
	var req webhookProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sub, err := s.backend.SubmitURL(&models.ProcessingRequest{
		Documents: req.DocumentURL,
		Questions: req.Questions,
	}, req.CallbackURL, req.WebhookID)
	if err != nil {
		s.respondSubmitError(w, err)
		return
	}
	s.respondJSON(w, http.StatusAccepted, webhookAccepted{
		Message:   "Document processing started",
		WebhookID: sub.WebhookID,
		JobID:     sub.JobID,
		Status:    models.StatusProcessing,
	})
}

func (s *Server) handleWebhookUpload(w http.ResponseWriter, r *http.Request) {
	if s.config.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			s.respondError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("document exceeds %d bytes", mbe.Limit))
			return
		}
		s.respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("document")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "document file is required")
		return
	}
	defer file.Close()

	if ext := filepath.Ext(header.Filename); !extract.IsSupported(ext) {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("unsupported file type %q", ext))
		return
	}

	var questions []string
	if err := json.Unmarshal([]byte(r.FormValue("questions")), &questions); err != nil {
		s.respondError(w, http.StatusBadRequest, "questions must be a JSON array of strings")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "failed to read document")
		return
	}

	sub, err := s.backend.SubmitUpload(header.Filename, data, questions, r.FormValue("callback_url"), r.FormValue("webhook_id"))
	if err != nil {
		s.respondSubmitError(w, err)
		return
	}
	s.respondJSON(w, http.StatusAccepted, webhookAccepted{
		Message:   "Document upload processing started",
		WebhookID: sub.WebhookID,
		JobID:     sub.JobID,
		Status:    models.StatusProcessing,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	services := map[string]string{
		"vector_index":    "in-memory",
		"embedding":       s.info.EmbeddingProvider,
		"generation":      s.info.GenerationProvider,
		"document_parser": "ready",
		"job_store":       "connected",
		"history_index":   "ready",
	}
	resp := map[string]interface{}{
		"status":    "healthy",
		"services":  services,
		"timestamp": s.now().UTC().Format(time.RFC3339),
	}

	stats, err := s.backend.Stats(r.Context())
	if err != nil {
		s.logger.Warn("health: stats failed", zap.Error(err))
		services["job_store"] = "unavailable"
		resp["status"] = "degraded"
	} else {
		if stats.HistoryDisabled {
			services["history_index"] = "disabled"
		}
		resp["jobs"] = stats.Jobs
		resp["history_answers"] = stats.HistoryAnswers
		resp["background_jobs"] = stats.BackgroundJobs
	}
	if len(s.info.DiskPaths) > 0 {
		if n, err := storage.DiskUsageBytes(s.info.DiskPaths...); err == nil {
			resp["disk_usage_bytes"] = n
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) respondLookupError(w http.ResponseWriter, err error, notFound string) {
	if errors.Is(err, storage.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, notFound)
		return
	}
	s.logger.Error("lookup failed", zap.Error(err))
	s.respondError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) respondSubmitError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrClosed):
		s.respondError(w, http.StatusServiceUnavailable, "server is shutting down")
	default:
		s.logger.Error("submission failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
