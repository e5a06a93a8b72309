// File: internal/infra/firestore/job_repo.go
package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"unique-ue/internal/domain"
	"unique-ue/internal/domain/model"
	"unique-ue/internal/domain/ports/repository"
)

var _ repository.JobRepository = (*jobRepo)(nil)

type jobRepo struct {
	client     *Client
	collection string
	now        func() time.Time
}

func NewJobRepo(client *Client, collection string) *jobRepo {
	return &jobRepo{client: client, collection: collection, now: time.Now}
}

func (r *jobRepo) Create(ctx context.Context, job *model.Job) error {
	fields, err := EncodeFields(map[string]any{
		"user_id":            job.UserID,
		"message":            job.Message,
		"mode":               job.Mode,
		"history":            encodeHistory(job.History),
		"persona":            job.Persona,
		"status":             string(job.Status),
		"response":           job.Response,
		"retries":            job.Retries,
		"last_error":         job.LastError,
		"created_at":         job.CreatedAt,
		"processing_time_ms": job.ProcessingTimeMs,
	})
	if err != nil {
		return err
	}
	doc, err := r.client.Create(ctx, r.collection, job.ID, fields)
	if err != nil {
		return err
	}
	job.UpdateTime = doc.UpdateTime
	return nil
}

func (r *jobRepo) Find(ctx context.Context, jobID string) (*model.Job, error) {
	doc, err := r.client.Get(ctx, r.collection+"/"+jobID)
	if err != nil {
		return nil, err
	}
	return decodeJob(doc)
}

func (r *jobRepo) OldestPending(ctx context.Context) (*model.Job, error) {
	return r.queryOne(ctx, []Filter{statusFilter(model.JobStatusPending)})
}

func (r *jobRepo) ClaimProcessing(ctx context.Context, job *model.Job) error {
	if !job.Status.CanTransition(model.JobStatusProcessing) {
		return domain.ErrStatusRegression
	}
	started := r.now()
	doc, err := r.patchIf(ctx, job, map[string]any{
		"status":                string(model.JobStatusProcessing),
		"processing_started_at": started,
	})
	if err != nil {
		return err
	}
	job.Status = model.JobStatusProcessing
	job.ProcessingStartedAt = started
	job.UpdateTime = doc.UpdateTime
	return nil
}

func (r *jobRepo) Complete(ctx context.Context, job *model.Job, response string) error {
	if !job.Status.CanTransition(model.JobStatusCompleted) {
		return domain.ErrStatusRegression
	}
	now := r.now()
	elapsed := now.Sub(job.CreatedAt).Milliseconds()
	doc, err := r.patchIf(ctx, job, map[string]any{
		"status":             string(model.JobStatusCompleted),
		"response":           response,
		"completed_at":       now,
		"processing_time_ms": elapsed,
	})
	if err != nil {
		return err
	}
	job.Status = model.JobStatusCompleted
	job.Response = response
	job.CompletedAt = now
	job.ProcessingTimeMs = elapsed
	job.UpdateTime = doc.UpdateTime
	return nil
}

func (r *jobRepo) Fail(ctx context.Context, job *model.Job, cause error, maxRetries int) error {
	job.Retries++
	job.LastError = cause.Error()

	next := model.JobStatusPending // retry
	if job.Retries >= maxRetries {
		next = model.JobStatusFailed
	}
	if !job.Status.CanTransition(next) {
		return domain.ErrStatusRegression
	}

	fields := map[string]any{
		"status":     string(next),
		"retries":    job.Retries,
		"last_error": job.LastError,
	}
	if next == model.JobStatusFailed {
		fields["completed_at"] = r.now()
	}
	doc, err := r.patchIf(ctx, job, fields)
	if err != nil {
		return err
	}
	job.Status = next
	job.UpdateTime = doc.UpdateTime
	return nil
}

// RequeueStale returns at most one job per call to pending: the query limit
// is fixed at one result, so a long backlog of stuck jobs drains one per
// sweep, same as the normal processing cadence.
func (r *jobRepo) RequeueStale(ctx context.Context, olderThan time.Duration, maxRetries int) (int, error) {
	threshold, err := Encode(r.now().Add(-olderThan))
	if err != nil {
		return 0, err
	}
	job, err := r.queryOne(ctx, []Filter{
		statusFilter(model.JobStatusProcessing),
		{Field: "processing_started_at", Op: "LESS_THAN", Value: threshold},
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	if err := r.Fail(ctx, job, fmt.Errorf("processing exceeded %s", olderThan), maxRetries); err != nil {
		if errors.Is(err, domain.ErrJobClaimed) {
			return 0, nil // the owning sweep finished it in the meantime
		}
		return 0, err
	}
	return 1, nil
}

// --- internals ---

func (r *jobRepo) patchIf(ctx context.Context, job *model.Job, updates map[string]any) (*Document, error) {
	fields, err := EncodeFields(updates)
	if err != nil {
		return nil, err
	}
	return r.client.PatchIf(ctx, r.collection+"/"+job.ID, fields, job.UpdateTime)
}

func (r *jobRepo) queryOne(ctx context.Context, filters []Filter) (*model.Job, error) {
	docs, err := r.client.RunQuery(ctx, r.collection, filters)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, domain.ErrNotFound
	}
	return decodeJob(docs[0])
}

func statusFilter(s model.JobStatus) Filter {
	v, _ := Encode(string(s))
	return Filter{Field: "status", Op: "EQUAL", Value: v}
}

func encodeHistory(turns []model.Turn) []any {
	out := make([]any, 0, len(turns))
	for _, t := range turns {
		out = append(out, map[string]any{"role": t.Role, "content": t.Content})
	}
	return out
}

func decodeJob(doc *Document) (*model.Job, error) {
	fields, err := DecodeFields(doc.Fields)
	if err != nil {
		return nil, err
	}
	job := &model.Job{
		ID:         doc.ID(),
		UpdateTime: doc.UpdateTime,
	}
	job.UserID, _ = fields["user_id"].(string)
	job.Message, _ = fields["message"].(string)
	job.Mode, _ = fields["mode"].(string)
	job.Persona, _ = fields["persona"].(string)
	job.Response, _ = fields["response"].(string)
	job.LastError, _ = fields["last_error"].(string)
	if s, ok := fields["status"].(string); ok {
		job.Status = model.JobStatus(s)
	}
	if n, ok := fields["retries"].(int64); ok {
		job.Retries = int(n)
	}
	if n, ok := fields["processing_time_ms"].(int64); ok {
		job.ProcessingTimeMs = n
	}
	if ts, ok := fields["created_at"].(time.Time); ok {
		job.CreatedAt = ts
	}
	if ts, ok := fields["processing_started_at"].(time.Time); ok {
		job.ProcessingStartedAt = ts
	}
	if ts, ok := fields["completed_at"].(time.Time); ok {
		job.CompletedAt = ts
	}
	if hist, ok := fields["history"].([]any); ok {
		for _, el := range hist {
			if m, ok := el.(map[string]any); ok {
				role, _ := m["role"].(string)
				content, _ := m["content"].(string)
				job.History = append(job.History, model.Turn{Role: role, Content: content})
			}
		}
	}
	return job, nil
}
