package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hyperjump/docqa/internal/config"
	"github.com/hyperjump/docqa/internal/extract"
	"github.com/hyperjump/docqa/internal/keyword"
	"github.com/hyperjump/docqa/internal/models"
	"github.com/hyperjump/docqa/internal/service"
	"github.com/hyperjump/docqa/internal/storage"
)

type fakeBackend struct {
	processErr    error
	processResult *models.ProcessingResult
	lastRequest   *models.ProcessingRequest

	uploadName      string
	uploadData      []byte
	uploadQuestions []string
	callbackURL     string

	statsErr error
}

func (f *fakeBackend) Process(_ context.Context, req *models.ProcessingRequest) (string, *models.ProcessingResult, error) {
	f.lastRequest = req
	if f.processResult == nil && f.processErr == nil {
		return "job-1", &models.ProcessingResult{
			Answers:  []string{"thirty days"},
			Metadata: models.ResultMetadata{TokenCount: 12, ConfidenceScores: []float64{0.9}, DocumentProcessed: true},
			Records:  []*models.AnswerRecord{{Question: "q", Answer: "thirty days"}},
		}, nil
	}
	return "job-1", f.processResult, f.processErr
}

func (f *fakeBackend) SubmitURL(req *models.ProcessingRequest, callbackURL, webhookID string) (*service.Submission, error) {
	if err := req.Validate(); err != nil {
		return nil, errors.Join(service.ErrInvalidRequest, err)
	}
	f.lastRequest = req
	f.callbackURL = callbackURL
	if webhookID == "" {
		webhookID = "generated"
	}
	return &service.Submission{JobID: "job-2", WebhookID: webhookID}, nil
}

func (f *fakeBackend) SubmitUpload(filename string, data []byte, questions []string, callbackURL, webhookID string) (*service.Submission, error) {
	f.uploadName = filename
	f.uploadData = data
	f.uploadQuestions = questions
	f.callbackURL = callbackURL
	return &service.Submission{JobID: "job-3", WebhookID: webhookID}, nil
}

func (f *fakeBackend) Status(_ context.Context, id string) (*models.ProcessingStatus, error) {
	if id != "job-1" {
		return nil, storage.ErrNotFound
	}
	return &models.ProcessingStatus{Status: models.StatusProcessing, Message: "Generating answers", Progress: 60}, nil
}

func (f *fakeBackend) Result(_ context.Context, id string) (*models.ProcessingResult, error) {
	if id != "job-1" {
		return nil, storage.ErrNotFound
	}
	return &models.ProcessingResult{
		Answers: []string{"a"},
		Records: []*models.AnswerRecord{{Question: "q", Answer: "a"}},
	}, nil
}

func (f *fakeBackend) SearchHistory(_ context.Context, query string, limit int) ([]*keyword.HistoryHit, error) {
	hits := []*keyword.HistoryHit{{JobID: "job-1", Question: "grace period?", Answer: "thirty days", Score: 1}}
	if limit < len(hits) {
		hits = hits[:limit]
	}
	return hits, nil
}

func (f *fakeBackend) Stats(context.Context) (*service.Stats, error) {
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	return &service.Stats{Jobs: 4, HistoryAnswers: 9}, nil
}

func newTestServer(backend Backend, token string) http.Handler {
	cfg := &config.ServerConfig{Host: "localhost", Port: 8080, APIToken: token, MaxUploadBytes: 1 << 20}
	return NewServer(backend, cfg, HealthInfo{EmbeddingProvider: "mock", GenerationProvider: "openai"}, nil).Handler()
}

func do(h http.Handler, method, path, token string, body []byte, contentType string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, path, bytes.NewReader(body))
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestAuth(t *testing.T) {
	h := newTestServer(&fakeBackend{}, "secret")

	tests := []struct {
		name  string
		path  string
		token string
		want  int
	}{
		{"health is public", "/api/v1/health", "", http.StatusOK},
		{"missing token", "/api/v1/status/job-1", "", http.StatusUnauthorized},
		{"wrong token", "/api/v1/status/job-1", "nope", http.StatusUnauthorized},
		{"valid token", "/api/v1/status/job-1", "secret", http.StatusOK},
		{"history requires token", "/api/v1/history/search?q=x", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(h, http.MethodGet, tt.path, tt.token, nil, "")
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestAuthDisabled(t *testing.T) {
	h := newTestServer(&fakeBackend{}, "")
	w := do(h, http.MethodGet, "/api/v1/status/job-1", "", nil, "")
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestHandleRun(t *testing.T) {
	backend := &fakeBackend{}
	h := newTestServer(backend, "")

	body := []byte(`{"documents":"https://example.com/policy.pdf","questions":["What is the grace period?"]}`)
	w := do(h, http.MethodPost, "/api/v1/run", "", body, "application/json")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("X-Job-ID"); got != "job-1" {
		t.Errorf("X-Job-ID = %q", got)
	}
	var out map[string]json.RawMessage
	decodeBody(t, w, &out)
	if _, ok := out["detailed_answers"]; ok {
		t.Error("run response should not include detailed answers")
	}
	var resp models.ProcessingResponse
	if err := json.Unmarshal(mustJSON(t, out), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Answers) != 1 || resp.Answers[0] != "thirty days" {
		t.Errorf("answers = %v", resp.Answers)
	}
	if resp.Metadata.TokenCount != 12 || !resp.Metadata.DocumentProcessed {
		t.Errorf("metadata = %+v", resp.Metadata)
	}
	if backend.lastRequest.Documents != "https://example.com/policy.pdf" {
		t.Errorf("documents = %q", backend.lastRequest.Documents)
	}
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestHandleRun_Errors(t *testing.T) {
	tests := []struct {
		name    string
		backend *fakeBackend
		body    string
		want    int
	}{
		{"malformed body", &fakeBackend{}, `{`, http.StatusBadRequest},
		{"invalid request", &fakeBackend{processErr: errors.Join(service.ErrInvalidRequest, errors.New("no questions"))}, `{}`, http.StatusBadRequest},
		{"extraction failure", &fakeBackend{processErr: &extract.ExtractionError{Format: ".pdf", Err: errors.New("bad xref")}}, `{}`, http.StatusUnprocessableEntity},
		{"internal failure", &fakeBackend{processErr: errors.New("database locked")}, `{}`, http.StatusInternalServerError},
		{"partial result", &fakeBackend{
			processErr:    context.DeadlineExceeded,
			processResult: &models.ProcessingResult{Answers: []string{"a", "Processing cancelled"}, Partial: true},
		}, `{}`, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(tt.backend, "")
			w := do(h, http.MethodPost, "/api/v1/run", "", []byte(tt.body), "application/json")
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
			if tt.want != http.StatusOK {
				var out map[string]string
				decodeBody(t, w, &out)
				if out["error"] == "" {
					t.Error("expected error message")
				}
			}
		})
	}
}

func TestHandleStatusAndResult(t *testing.T) {
	h := newTestServer(&fakeBackend{}, "")

	w := do(h, http.MethodGet, "/api/v1/status/job-1", "", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var st models.ProcessingStatus
	decodeBody(t, w, &st)
	if st.Status != models.StatusProcessing || st.Progress != 60 {
		t.Errorf("status = %+v", st)
	}

	w = do(h, http.MethodGet, "/api/v1/status/unknown", "", nil, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown status code = %d", w.Code)
	}

	w = do(h, http.MethodGet, "/api/v1/results/job-1", "", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("result code = %d", w.Code)
	}
	var res models.ProcessingResult
	decodeBody(t, w, &res)
	if len(res.Records) != 1 {
		t.Errorf("detailed answers = %d, want 1", len(res.Records))
	}

	w = do(h, http.MethodGet, "/api/v1/results/unknown", "", nil, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown result code = %d", w.Code)
	}
}

func TestHandleWebhookProcess(t *testing.T) {
	backend := &fakeBackend{}
	h := newTestServer(backend, "")

	body := []byte(`{"document_url":"https://example.com/a.pdf","questions":["q1"],"callback_url":"https://hooks.example.com/cb","webhook_id":"wh-1"}`)
	w := do(h, http.MethodPost, "/api/v1/webhook/document-process", "", body, "application/json")
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var out webhookAccepted
	decodeBody(t, w, &out)
	if out.WebhookID != "wh-1" || out.JobID != "job-2" || out.Status != models.StatusProcessing {
		t.Errorf("response = %+v", out)
	}
	if backend.callbackURL != "https://hooks.example.com/cb" {
		t.Errorf("callback = %q", backend.callbackURL)
	}

	w = do(h, http.MethodPost, "/api/v1/webhook/document-process", "", []byte(`{"document_url":"","questions":[]}`), "application/json")
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid request code = %d", w.Code)
	}
}

func multipartBody(t *testing.T, filename, content string, fields map[string]string) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		fw, err := mw.CreateFormFile("document", filename)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes(), mw.FormDataContentType()
}

func TestHandleWebhookUpload(t *testing.T) {
	backend := &fakeBackend{}
	h := newTestServer(backend, "")

	body, ct := multipartBody(t, "policy.txt", "grace period is thirty days", map[string]string{
		"questions":    `["What is the grace period?"]`,
		"callback_url": "https://hooks.example.com/cb",
		"webhook_id":   "wh-up",
	})
	w := do(h, http.MethodPost, "/api/v1/webhook/document-upload", "", body, ct)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if backend.uploadName != "policy.txt" || string(backend.uploadData) != "grace period is thirty days" {
		t.Errorf("upload = %q %q", backend.uploadName, backend.uploadData)
	}
	if len(backend.uploadQuestions) != 1 {
		t.Errorf("questions = %v", backend.uploadQuestions)
	}
}

func TestHandleWebhookUpload_Errors(t *testing.T) {
	h := newTestServer(&fakeBackend{}, "")
	valid := map[string]string{"questions": `["q"]`}

	tests := []struct {
		name     string
		filename string
		content  string
		fields   map[string]string
		want     int
	}{
		{"missing file", "", "", valid, http.StatusBadRequest},
		{"unsupported type", "virus.exe", "MZ", valid, http.StatusBadRequest},
		{"questions not json", "a.txt", "x", map[string]string{"questions": "q1, q2"}, http.StatusBadRequest},
		{"too large", "big.txt", strings.Repeat("a", 2<<20), valid, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := multipartBody(t, tt.filename, tt.content, tt.fields)
			w := do(h, http.MethodPost, "/api/v1/webhook/document-upload", "", body, ct)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestHandleHistorySearch(t *testing.T) {
	h := newTestServer(&fakeBackend{}, "")

	w := do(h, http.MethodGet, "/api/v1/history/search?q=grace&limit=5", "", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var out struct {
		Query   string                `json:"query"`
		Results []*keyword.HistoryHit `json:"results"`
		Total   int                   `json:"total"`
	}
	decodeBody(t, w, &out)
	if out.Query != "grace" || out.Total != 1 || out.Results[0].Answer != "thirty days" {
		t.Errorf("response = %+v", out)
	}

	w = do(h, http.MethodGet, "/api/v1/history/search?q=grace&limit=abc", "", nil, "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad limit code = %d", w.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	h := newTestServer(&fakeBackend{}, "secret")
	w := do(h, http.MethodGet, "/api/v1/health", "", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var out struct {
		Status    string            `json:"status"`
		Services  map[string]string `json:"services"`
		Jobs      int64             `json:"jobs"`
		Timestamp string            `json:"timestamp"`
	}
	decodeBody(t, w, &out)
	if out.Status != "healthy" || out.Jobs != 4 || out.Timestamp == "" {
		t.Errorf("health = %+v", out)
	}
	if out.Services["embedding"] != "mock" || out.Services["generation"] != "openai" {
		t.Errorf("services = %v", out.Services)
	}

	h = newTestServer(&fakeBackend{statsErr: errors.New("db closed")}, "")
	w = do(h, http.MethodGet, "/api/v1/health", "", nil, "")
	decodeBody(t, w, &out)
	if out.Status != "degraded" || out.Services["job_store"] != "unavailable" {
		t.Errorf("degraded health = %+v", out)
	}
}
