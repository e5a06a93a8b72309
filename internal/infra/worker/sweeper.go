// File: internal/infra/worker/sweeper.go
package worker

import (
	"context"
	"errors"
	"time"

	"unique-ue/internal/domain"
	"unique-ue/internal/domain/model"
	"unique-ue/internal/domain/ports/repository"
	"unique-ue/internal/infra/logging"
	"unique-ue/internal/infra/metrics"
	red "unique-ue/internal/infra/redis"
	"unique-ue/internal/usecase"

	"github.com/rs/zerolog"
)

const sweepLockKey = "sweep:job_queue"

// Sweeper is the queue consumer: each tick claims the single oldest
// pending job and runs it end-to-end. Throughput is one job per interval
// by design; the claim is a conditional write, so overlapping sweeps
// cannot double-process a job even without the redis lock.
type Sweeper struct {
	jobs       repository.JobRepository
	memories   repository.MemoryRepository
	responder  *usecase.Responder
	locker     red.Locker // nil disables cross-instance exclusion
	interval   time.Duration
	staleAfter time.Duration
	maxRetries int
	lockTTL    time.Duration
	log        *zerolog.Logger
	now        func() time.Time
}

func NewSweeper(
	jobs repository.JobRepository,
	memories repository.MemoryRepository,
	responder *usecase.Responder,
	locker red.Locker,
	interval, staleAfter time.Duration,
	maxRetries int,
	lockTTL time.Duration,
	logger *zerolog.Logger,
) *Sweeper {
	return &Sweeper{
		jobs:       jobs,
		memories:   memories,
		responder:  responder,
		locker:     locker,
		interval:   interval,
		staleAfter: staleAfter,
		maxRetries: maxRetries,
		lockTTL:    lockTTL,
		log:        logger,
		now:        time.Now,
	}
}

// Start runs the periodic sweep loop. This should be run in a goroutine.
func (s *Sweeper) Start(ctx context.Context, pool *Pool) {
	s.log.Info().Dur("interval", s.interval).Msg("sweeper started")
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("sweeper stopping")
			return
		case <-ticker.C:
			_ = pool.Submit(func(ctx context.Context) error {
				s.Sweep(ctx)
				return nil
			})
		}
	}
}

// Sweep is one consumer invocation. Every error inside is logged, never
// propagated: a bad tick must not take the loop down.
func (s *Sweeper) Sweep(ctx context.Context) {
	defer logging.TraceDuration(s.log, "Sweeper.Sweep")()

	if s.locker != nil {
		token, err := s.locker.TryLock(ctx, sweepLockKey, s.lockTTL)
		if err != nil {
			if !errors.Is(err, red.ErrLockHeld) {
				s.log.Error().Err(err).Msg("sweep lock failed")
			}
			return
		}
		defer func() {
			if err := s.locker.Unlock(context.Background(), sweepLockKey, token); err != nil {
				s.log.Warn().Err(err).Msg("sweep unlock failed")
			}
		}()
	}

	if n, err := s.jobs.RequeueStale(ctx, s.staleAfter, s.maxRetries); err != nil {
		s.log.Error().Err(err).Msg("stale requeue failed")
	} else if n > 0 {
		metrics.AddJobsRequeued(n)
		s.log.Warn().Int("count", n).Msg("requeued stale processing jobs")
	}

	start := s.now()
	processed := s.processOne(ctx)
	if processed {
		metrics.ObserveSweep(s.now().Sub(start).Seconds())
	}
}

// processOne claims and fully processes at most one job. Returns whether
// a job was claimed.
func (s *Sweeper) processOne(ctx context.Context) bool {
	job, err := s.jobs.OldestPending(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.log.Error().Err(err).Msg("failed to fetch pending job")
		}
		return false // empty queue: no-op tick
	}

	ctx = logging.WithJobID(ctx, job.ID)
	log := logging.With(ctx, s.log)

	if err := s.jobs.ClaimProcessing(ctx, job); err != nil {
		if errors.Is(err, domain.ErrJobClaimed) {
			log.Debug().Msg("lost claim race, skipping")
		} else {
			log.Error().Err(err).Msg("claim failed")
		}
		return false
	}

	log.Info().Str("user_id", job.UserID).Msg("processing job")

	reply, reflex, err := s.responder.Respond(ctx, job)
	if err != nil {
		s.fail(ctx, job, err)
		return true
	}
	if reflex {
		metrics.IncReflexHit()
	}

	// Best-effort memory persistence in its own failure boundary: a bad or
	// unsaveable memory block never un-completes the job.
	s.persistMemory(ctx, job, reply)

	if err := s.jobs.Complete(ctx, job, reply); err != nil {
		log.Error().Err(err).Msg("failed to mark job completed")
		return true
	}
	metrics.IncJobProcessed(string(model.JobStatusCompleted))
	log.Info().
		Int64("processing_time_ms", job.ProcessingTimeMs).
		Bool("reflex", reflex).
		Msg("job completed")
	return true
}

func (s *Sweeper) fail(ctx context.Context, job *model.Job, cause error) {
	log := logging.With(ctx, s.log)
	log.Error().Err(cause).Int("retries", job.Retries).Msg("job failed")
	if err := s.jobs.Fail(ctx, job, cause, s.maxRetries); err != nil {
		log.Error().Err(err).Msg("failed to record job failure")
		return
	}
	if job.Status == model.JobStatusFailed {
		metrics.IncJobProcessed(string(model.JobStatusFailed))
	} else {
		metrics.IncJobProcessed("retried")
	}
}

func (s *Sweeper) persistMemory(ctx context.Context, job *model.Job, reply string) {
	log := logging.With(ctx, s.log)
	update, err := usecase.ExtractMemoryUpdate(job.UserID, reply)
	if err != nil {
		log.Warn().Err(err).Msg("malformed memory update block")
		return
	}
	if update == nil || s.memories == nil {
		return
	}
	update.CreatedAt = s.now()
	if err := s.memories.Append(ctx, update); err != nil {
		log.Error().Err(err).Msg("memory persistence failed")
		return
	}
	log.Debug().Int("nodes", len(update.Nodes)).Int("links", len(update.Links)).Msg("memory update persisted")
}
