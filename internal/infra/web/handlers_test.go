package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"unique-ue/internal/domain"
	"unique-ue/internal/domain/model"
	"unique-ue/internal/usecase"

	"github.com/rs/zerolog"
)

type stubQueueUC struct {
	enqueueResult *usecase.EnqueueResult
	enqueueErr    error
	statusResult  *usecase.JobStatusView
	statusErr     error
	lastEnqueue   usecase.EnqueueRequest
	lastStatusID  string
}

func (s *stubQueueUC) Enqueue(ctx context.Context, req usecase.EnqueueRequest) (*usecase.EnqueueResult, error) {
	s.lastEnqueue = req
	return s.enqueueResult, s.enqueueErr
}

func (s *stubQueueUC) Status(ctx context.Context, jobID string) (*usecase.JobStatusView, error) {
	s.lastStatusID = jobID
	return s.statusResult, s.statusErr
}

func newTestMux(stub *stubQueueUC) *http.ServeMux {
	logger := zerolog.Nop()
	mux := http.NewServeMux()
	NewServer(stub, &logger).RegisterRoutes(mux)
	return mux
}

func TestChatQueued(t *testing.T) {
	stub := &stubQueueUC{enqueueResult: &usecase.EnqueueResult{JobID: "job-1", Status: "queued"}}
	mux := newTestMux(stub)

	body := `{"message":"summarize my notes","userId":"u1","persona":"qore","history":[{"role":"user","content":"earlier"}]}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var resp chatQueuedResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "queued" || resp.JobID != "job-1" {
		t.Fatalf("response = %+v", resp)
	}
	if resp.Executive != "qore" {
		t.Fatalf("executive = %q", resp.Executive)
	}
	if stub.lastEnqueue.Message != "summarize my notes" || stub.lastEnqueue.UserID != "u1" {
		t.Fatalf("enqueue request = %+v", stub.lastEnqueue)
	}
	if len(stub.lastEnqueue.History) != 1 || stub.lastEnqueue.History[0].Content != "earlier" {
		t.Fatalf("history = %+v", stub.lastEnqueue.History)
	}
}

func TestChatFallbackShape(t *testing.T) {
	stub := &stubQueueUC{enqueueResult: &usecase.EnqueueResult{
		Status:   "completed",
		Response: "here you go",
		Fallback: true,
	}}
	mux := newTestMux(stub)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"hi there"}`)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// Fallback replies carry the text under both keys for older clients.
	if resp["response"] != "here you go" || resp["reply"] != "here you go" {
		t.Fatalf("response = %v", resp)
	}
	if resp["fallback"] != true || resp["status"] != "completed" {
		t.Fatalf("response = %v", resp)
	}
	if _, ok := resp["job_id"]; ok {
		t.Fatal("fallback reply must not carry a job id")
	}
}

func TestChatEmptyMessage(t *testing.T) {
	stub := &stubQueueUC{enqueueErr: domain.ErrInvalidArgument}
	mux := newTestMux(stub)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":""}`)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestChatInvalidBody(t *testing.T) {
	mux := newTestMux(&stubQueueUC{})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader([]byte("{not json"))))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestChatMethodNotAllowed(t *testing.T) {
	mux := newTestMux(&stubQueueUC{})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/chat", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}

func TestChatEnqueueFailure(t *testing.T) {
	stub := &stubQueueUC{enqueueErr: fmt.Errorf("provider exploded")}
	mux := newTestMux(stub)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"x"}`)))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestJobStatusCompleted(t *testing.T) {
	created := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	done := created.Add(3 * time.Second)
	stub := &stubQueueUC{statusResult: &usecase.JobStatusView{
		JobID:            "job-1",
		Status:           model.JobStatusCompleted,
		Response:         "all done",
		CreatedAt:        created,
		CompletedAt:      done,
		ProcessingTimeMs: 3000,
	}}
	mux := newTestMux(stub)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/job-status/job-1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if stub.lastStatusID != "job-1" {
		t.Fatalf("looked up %q", stub.lastStatusID)
	}
	var resp jobStatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "completed" || resp.Response != "all done" || resp.ProcessingTimeMs != 3000 {
		t.Fatalf("response = %+v", resp)
	}
	if resp.CompletedAt == nil || !resp.CompletedAt.Equal(done) {
		t.Fatalf("completed_at = %v", resp.CompletedAt)
	}
}

func TestJobStatusPendingOmitsCompletion(t *testing.T) {
	stub := &stubQueueUC{statusResult: &usecase.JobStatusView{
		JobID:     "job-1",
		Status:    model.JobStatusPending,
		CreatedAt: time.Now(),
	}}
	mux := newTestMux(stub)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/job-status/job-1", nil))

	var raw map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := raw["completed_at"]; ok {
		t.Fatal("pending status must omit completed_at")
	}
	if _, ok := raw["response"]; ok {
		t.Fatal("pending status must omit response")
	}
}

func TestJobStatusNotFound(t *testing.T) {
	stub := &stubQueueUC{statusErr: fmt.Errorf("job: %w", domain.ErrNotFound)}
	mux := newTestMux(stub)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/job-status/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestJobStatusMissingID(t *testing.T) {
	mux := newTestMux(&stubQueueUC{})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/job-status/", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	mux := newTestMux(&stubQueueUC{})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("health = %d %q", rec.Code, rec.Body)
	}
}
