// File: internal/infra/firestore/client.go
package firestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"unique-ue/internal/domain"
	"unique-ue/internal/infra/googleauth"

	"github.com/rs/zerolog"
)

// DefaultBaseURL is the Firestore REST endpoint.
const DefaultBaseURL = "https://firestore.googleapis.com/v1"

// queryLimit is fixed: the only structured query this service issues is
// "the oldest matching job", and one result is all a sweep can use.
const queryLimit = 1

const maxErrorBody = 500

// TokenProvider is what the client needs from the credential exchange.
type TokenProvider interface {
	Token(ctx context.Context) (googleauth.Token, error)
}

// Client is a minimal REST binding for get/create/patch/runQuery against
// one project+database namespace. No automatic retry: callers decide
// whether a failure retries or fails the job.
type Client struct {
	tokens TokenProvider
	base   string
	root   string // projects/{p}/databases/{db}/documents
	http   *http.Client
	log    *zerolog.Logger
}

func NewClient(tokens TokenProvider, projectID, databaseID, baseURL string, logger *zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		tokens: tokens,
		base:   strings.TrimRight(baseURL, "/"),
		root:   fmt.Sprintf("projects/%s/databases/%s/documents", projectID, databaseID),
		http:   &http.Client{Timeout: 30 * time.Second},
		log:    logger,
	}
}

// Get fetches a single document by path ("collection/docID").
func (c *Client) Get(ctx context.Context, path string) (*Document, error) {
	return c.doDocument(ctx, http.MethodGet, c.base+"/"+c.root+"/"+path, nil)
}

// Create inserts a document with an explicit id.
func (c *Client) Create(ctx context.Context, collection, docID string, fields map[string]Value) (*Document, error) {
	u := fmt.Sprintf("%s/%s/%s?documentId=%s", c.base, c.root, collection, url.QueryEscape(docID))
	return c.doDocument(ctx, http.MethodPost, u, &Document{Fields: fields})
}

// Patch overwrites only the supplied fields of an existing document.
func (c *Client) Patch(ctx context.Context, path string, fields map[string]Value) (*Document, error) {
	return c.doDocument(ctx, http.MethodPatch, c.patchURL(path, fields, ""), &Document{Fields: fields})
}

// PatchIf is Patch guarded by the document's updateTime. When the stored
// revision no longer matches, the store rejects the write and the call
// returns domain.ErrJobClaimed: somebody else got there first.
func (c *Client) PatchIf(ctx context.Context, path string, fields map[string]Value, updateTime string) (*Document, error) {
	doc, err := c.doDocument(ctx, http.MethodPatch, c.patchURL(path, fields, updateTime), &Document{Fields: fields})
	if err != nil {
		var se *domain.StoreError
		if errors.As(err, &se) && preconditionFailed(se) {
			return nil, domain.ErrJobClaimed
		}
		return nil, err
	}
	return doc, nil
}

// Filter is one AND-composed equality/comparison clause of a structured query.
type Filter struct {
	Field string
	Op    string // EQUAL, LESS_THAN, ...
	Value Value
}

// RunQuery issues a structured query over one collection, AND-composing
// the filters, ordered by created_at ascending, limited to a single result.
func (c *Client) RunQuery(ctx context.Context, collection string, filters []Filter) ([]*Document, error) {
	body := map[string]any{
		"structuredQuery": map[string]any{
			"from":  []map[string]any{{"collectionId": collection}},
			"where": composeWhere(filters),
			"orderBy": []map[string]any{
				{"field": map[string]any{"fieldPath": "created_at"}, "direction": "ASCENDING"},
			},
			"limit": queryLimit,
		},
	}

	resp, err := c.do(ctx, http.MethodPost, c.base+"/"+c.root+":runQuery", body)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		Document *Document `json:"document"`
	}
	if err := json.Unmarshal(resp, &rows); err != nil {
		return nil, fmt.Errorf("firestore: decode query response: %w", err)
	}
	var docs []*Document
	for _, row := range rows {
		if row.Document != nil {
			docs = append(docs, row.Document)
		}
	}
	return docs, nil
}

// --- internals ---

func (c *Client) patchURL(path string, fields map[string]Value, updateTime string) string {
	q := url.Values{}
	for name := range fields {
		q.Add("updateMask.fieldPaths", name)
	}
	if updateTime != "" {
		q.Set("currentDocument.updateTime", updateTime)
	}
	return c.base + "/" + c.root + "/" + path + "?" + q.Encode()
}

func (c *Client) doDocument(ctx context.Context, method, u string, doc *Document) (*Document, error) {
	var body any
	if doc != nil {
		body = doc
	}
	resp, err := c.do(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	var out Document
	if err := json.Unmarshal(resp, &out); err != nil {
		return nil, fmt.Errorf("firestore: decode document: %w", err)
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, u string, body any) ([]byte, error) {
	tok, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("firestore: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, truncate(raw))
		}
		return nil, &domain.StoreError{StatusCode: resp.StatusCode, Body: truncate(raw)}
	}
	return raw, nil
}

func composeWhere(filters []Filter) map[string]any {
	clauses := make([]map[string]any, 0, len(filters))
	for _, f := range filters {
		clauses = append(clauses, map[string]any{
			"fieldFilter": map[string]any{
				"field": map[string]any{"fieldPath": f.Field},
				"op":    f.Op,
				"value": f.Value,
			},
		})
	}
	if len(clauses) == 1 {
		return clauses[0]
	}
	return map[string]any{
		"compositeFilter": map[string]any{"op": "AND", "filters": clauses},
	}
}

func preconditionFailed(se *domain.StoreError) bool {
	if se.StatusCode == http.StatusConflict {
		return true
	}
	return se.StatusCode == http.StatusBadRequest && strings.Contains(se.Body, "FAILED_PRECONDITION")
}

func truncate(b []byte) string {
	s := string(b)
	if len(s) > maxErrorBody {
		return s[:maxErrorBody]
	}
	return s
}
