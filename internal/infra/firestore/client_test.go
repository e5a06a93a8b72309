package firestore

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"unique-ue/internal/domain"
	"unique-ue/internal/infra/googleauth"

	"github.com/rs/zerolog"
)

type staticTokens struct{}

func (staticTokens) Token(ctx context.Context) (googleauth.Token, error) {
	return googleauth.Token{AccessToken: "test-token"}, nil
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	logger := zerolog.Nop()
	return NewClient(staticTokens{}, "test-project", "(default)", srv.URL, &logger), srv
}

func TestGetSendsBearerToken(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("authorization = %q", got)
		}
		if !strings.HasSuffix(r.URL.Path, "/documents/job_queue/j1") {
			t.Errorf("path = %q", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(Document{Name: "projects/test-project/databases/(default)/documents/job_queue/j1"})
	})

	doc, err := client.Get(context.Background(), "job_queue/j1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if doc.ID() != "j1" {
		t.Fatalf("id = %q", doc.ID())
	}
}

func TestGetNotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such document", http.StatusNotFound)
	})
	_, err := client.Get(context.Background(), "job_queue/missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestStoreErrorBodyTruncated(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(strings.Repeat("x", 2000)))
	})
	_, err := client.Get(context.Background(), "job_queue/j1")
	var se *domain.StoreError
	if !errors.As(err, &se) {
		t.Fatalf("want StoreError, got %v", err)
	}
	if len(se.Body) != 500 {
		t.Fatalf("body length = %d, want 500", len(se.Body))
	}
}

func TestCreateUsesExplicitID(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if got := r.URL.Query().Get("documentId"); got != "j42" {
			t.Errorf("documentId = %q", got)
		}
		_ = json.NewEncoder(w).Encode(Document{
			Name:       "projects/test-project/databases/(default)/documents/job_queue/j42",
			UpdateTime: "2025-06-01T00:00:00Z",
		})
	})

	fields, _ := EncodeFields(map[string]any{"status": "pending"})
	doc, err := client.Create(context.Background(), "job_queue", "j42", fields)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if doc.UpdateTime == "" {
		t.Fatal("missing update time")
	}
}

func TestPatchSendsUpdateMask(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("method = %s", r.Method)
		}
		masks := r.URL.Query()["updateMask.fieldPaths"]
		if len(masks) != 1 || masks[0] != "status" {
			t.Errorf("updateMask = %v", masks)
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), "processing") {
			t.Errorf("body = %s", body)
		}
		_ = json.NewEncoder(w).Encode(Document{UpdateTime: "2025-06-01T00:00:01Z"})
	})

	fields, _ := EncodeFields(map[string]any{"status": "processing"})
	if _, err := client.Patch(context.Background(), "job_queue/j1", fields); err != nil {
		t.Fatalf("patch: %v", err)
	}
}

func TestPatchIfConflictMapsToJobClaimed(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("currentDocument.updateTime"); got != "2025-06-01T00:00:00Z" {
			t.Errorf("precondition = %q", got)
		}
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":{"status":"ABORTED"}}`))
	})

	fields, _ := EncodeFields(map[string]any{"status": "processing"})
	_, err := client.PatchIf(context.Background(), "job_queue/j1", fields, "2025-06-01T00:00:00Z")
	if !errors.Is(err, domain.ErrJobClaimed) {
		t.Fatalf("want ErrJobClaimed, got %v", err)
	}
}

func TestPatchIfFailedPreconditionMapsToJobClaimed(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"status":"FAILED_PRECONDITION"}}`))
	})

	fields, _ := EncodeFields(map[string]any{"status": "processing"})
	_, err := client.PatchIf(context.Background(), "job_queue/j1", fields, "2025-06-01T00:00:00Z")
	if !errors.Is(err, domain.ErrJobClaimed) {
		t.Fatalf("want ErrJobClaimed, got %v", err)
	}
}

func TestRunQueryShape(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ":runQuery") {
			t.Errorf("path = %q", r.URL.Path)
		}
		var body struct {
			StructuredQuery struct {
				Limit   int `json:"limit"`
				OrderBy []struct {
					Field struct {
						FieldPath string `json:"fieldPath"`
					} `json:"field"`
					Direction string `json:"direction"`
				} `json:"orderBy"`
			} `json:"structuredQuery"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body.StructuredQuery.Limit != 1 {
			t.Errorf("limit = %d, want 1", body.StructuredQuery.Limit)
		}
		if len(body.StructuredQuery.OrderBy) != 1 ||
			body.StructuredQuery.OrderBy[0].Field.FieldPath != "created_at" ||
			body.StructuredQuery.OrderBy[0].Direction != "ASCENDING" {
			t.Errorf("orderBy = %+v", body.StructuredQuery.OrderBy)
		}
		_, _ = w.Write([]byte(`[{"document":{"name":"projects/p/databases/(default)/documents/job_queue/j1"}},{"readTime":"2025-06-01T00:00:00Z"}]`))
	})

	sv := "pending"
	docs, err := client.RunQuery(context.Background(), "job_queue", []Filter{
		{Field: "status", Op: "EQUAL", Value: Value{StringValue: &sv}},
	})
	if err != nil {
		t.Fatalf("runQuery: %v", err)
	}
	if len(docs) != 1 || docs[0].ID() != "j1" {
		t.Fatalf("docs = %+v", docs)
	}
}
