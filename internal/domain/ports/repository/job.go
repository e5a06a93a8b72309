package repository

import (
	"context"
	"time"

	"unique-ue/internal/domain/model"
)

type JobRepository interface {
	Create(ctx context.Context, job *model.Job) error
	Find(ctx context.Context, jobID string) (*model.Job, error)

	// OldestPending returns the single oldest pending job across the whole
	// queue (global FIFO by created_at), or domain.ErrNotFound.
	OldestPending(ctx context.Context) (*model.Job, error)

	// ClaimProcessing conditionally moves job from pending to processing,
	// stamping processing_started_at. The write carries the job's revision
	// stamp, so if another sweep claimed it first the call fails with
	// domain.ErrJobClaimed and the job is untouched.
	ClaimProcessing(ctx context.Context, job *model.Job) error

	Complete(ctx context.Context, job *model.Job, response string) error

	// Fail records the error on the job. Below maxRetries the job returns to
	// pending for another attempt; at or past it the job becomes failed.
	Fail(ctx context.Context, job *model.Job, cause error, maxRetries int) error

	// RequeueStale moves jobs stuck in processing longer than olderThan back
	// to pending. Returns how many were requeued.
	RequeueStale(ctx context.Context, olderThan time.Duration, maxRetries int) (int, error)
}
