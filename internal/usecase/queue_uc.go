// File: internal/usecase/queue_uc.go
package usecase

import (
	"context"
	"strings"
	"time"

	"unique-ue/internal/domain"
	"unique-ue/internal/domain/model"
	"unique-ue/internal/domain/ports/repository"
	"unique-ue/internal/infra/logging"
	"unique-ue/internal/infra/metrics"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

// Compile-time check
var _ QueueUseCase = (*queueUC)(nil)

type EnqueueRequest struct {
	UserID  string
	Message string
	Mode    string
	History []model.Turn
	Persona string
}

// EnqueueResult is either a queued handle or, when durable storage is
// unavailable, the completed turn itself with Fallback set.
type EnqueueResult struct {
	JobID    string
	Status   string // "queued" | "completed"
	Response string
	Fallback bool
}

type JobStatusView struct {
	JobID            string
	Status           model.JobStatus
	Response         string
	CreatedAt        time.Time
	CompletedAt      time.Time
	ProcessingTimeMs int64
}

type QueueUseCase interface {
	Enqueue(ctx context.Context, req EnqueueRequest) (*EnqueueResult, error)
	Status(ctx context.Context, jobID string) (*JobStatusView, error)
}

type queueUC struct {
	jobs      repository.JobRepository // nil when the store is not configured
	responder *Responder
	log       *zerolog.Logger
	now       func() time.Time
	newID     func(t time.Time) string
}

func NewQueueUseCase(jobs repository.JobRepository, responder *Responder, logger *zerolog.Logger) *queueUC {
	return &queueUC{
		jobs:      jobs,
		responder: responder,
		log:       logger,
		now:       time.Now,
		newID: func(t time.Time) string {
			return ulid.MustNew(ulid.Timestamp(t), ulid.DefaultEntropy()).String()
		},
	}
}

// Enqueue writes a pending job and returns immediately with its handle.
// When the store is unconfigured or the write fails, the turn runs
// synchronously in-process instead of failing the request; the result is
// flagged so callers can tell the degraded path apart.
func (q *queueUC) Enqueue(ctx context.Context, req EnqueueRequest) (*EnqueueResult, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, domain.ErrInvalidArgument
	}
	if req.UserID != "" {
		ctx = logging.WithUserID(ctx, req.UserID)
	}

	now := q.now()
	job := &model.Job{
		ID:        q.newID(now),
		UserID:    req.UserID,
		Message:   req.Message,
		Mode:      req.Mode,
		History:   req.History,
		Persona:   req.Persona,
		Status:    model.JobStatusPending,
		CreatedAt: now,
	}

	if q.jobs == nil {
		return q.fallback(ctx, job, domain.ErrStoreUnavailable)
	}
	if err := q.jobs.Create(ctx, job); err != nil {
		return q.fallback(ctx, job, err)
	}

	metrics.IncJobEnqueued()
	logging.With(ctx, q.log).Info().Str("job_id", job.ID).Msg("job enqueued")
	return &EnqueueResult{JobID: job.ID, Status: "queued"}, nil
}

func (q *queueUC) Status(ctx context.Context, jobID string) (*JobStatusView, error) {
	if q.jobs == nil {
		return nil, domain.ErrStoreUnavailable
	}
	job, err := q.jobs.Find(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return &JobStatusView{
		JobID:            job.ID,
		Status:           job.Status,
		Response:         job.Response,
		CreatedAt:        job.CreatedAt,
		CompletedAt:      job.CompletedAt,
		ProcessingTimeMs: job.ProcessingTimeMs,
	}, nil
}

// fallback runs the turn synchronously. Deliberate degrade path: the chat
// feature stays usable without durable storage, it just loses async-ness.
func (q *queueUC) fallback(ctx context.Context, job *model.Job, cause error) (*EnqueueResult, error) {
	logging.With(ctx, q.log).Warn().Err(cause).Msg("store unavailable, running job synchronously")
	metrics.IncFallback()

	reply, reflex, err := q.responder.Respond(ctx, job)
	if err != nil {
		return nil, err
	}
	if reflex {
		metrics.IncReflexHit()
	}
	return &EnqueueResult{Status: "completed", Response: reply, Fallback: true}, nil
}
