package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/taskcloud/internal/queue"
	"go.uber.org/zap"
)

// ErrUnknownJobType is returned for jobs this worker cannot handle; they are dead-lettered.
var ErrUnknownJobType = errors.New("unknown job type")

// ScopePurger removes one scope's recycle bin entries older than retention
type ScopePurger interface {
	PurgeScopeOlderThan(ctx context.Context, scope string, retention time.Duration) (int, error)
}

// RecycleBinPurger processes recycle bin purge jobs
type RecycleBinPurger struct {
	repo       ScopePurger
	jobQueue   queue.JobQueue // For re-enqueueing failed jobs with a delay
	retention  time.Duration
	retryDelay time.Duration
	logger     *zap.Logger
}

// PurgerOption configures a RecycleBinPurger
type PurgerOption func(*RecycleBinPurger)

// WithRetryDelay sets the base delay used when re-enqueueing a failed job
func WithRetryDelay(d time.Duration) PurgerOption {
	return func(p *RecycleBinPurger) {
		p.retryDelay = d
	}
}

// NewRecycleBinPurger creates a new purger. jobQueue may be nil, in which case
// failed jobs are requeued by the broker instead of re-published with a delay.
func NewRecycleBinPurger(repo ScopePurger, jobQueue queue.JobQueue, retention time.Duration, logger *zap.Logger, opts ...PurgerOption) *RecycleBinPurger {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &RecycleBinPurger{
		repo:       repo,
		jobQueue:   jobQueue,
		retention:  retention,
		retryDelay: 30 * time.Second,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProcessJob processes a job based on its type and settles the message
func (p *RecycleBinPurger) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()

	switch job.Type {
	case queue.JobTypeRecycleBinPurge:
		n, err := p.purge(ctx, job)
		if err != nil {
			return p.handleJobError(ctx, msg, job, err)
		}
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack job: %w", ackErr)
		}
		p.logger.Info("recycle_bin_purged",
			zap.String("job_id", job.ID.String()),
			zap.String("scope", job.Scope),
			zap.Int("entries", n),
		)
		return nil

	default:
		if nackErr := msg.Nack(false); nackErr != nil {
			p.logger.Warn("job_nack_failed", zap.String("job_id", job.ID.String()), zap.Error(nackErr))
		}
		return fmt.Errorf("%w: %s", ErrUnknownJobType, job.Type)
	}
}

func (p *RecycleBinPurger) purge(ctx context.Context, job *queue.Job) (int, error) {
	if job.Scope == "" {
		return 0, errors.New("scope is required for recycle bin purge job")
	}
	return p.repo.PurgeScopeOlderThan(ctx, job.Scope, p.retention)
}

// handleJobError retries failed jobs with linear backoff, dead-lettering them once retries run out
func (p *RecycleBinPurger) handleJobError(ctx context.Context, msg queue.MessageInterface, job *queue.Job, err error) error {
	if !job.CanRetry() {
		p.logger.Error("job_failed_max_retries",
			zap.String("job_id", job.ID.String()),
			zap.Int("max_retries", job.MaxRetries),
			zap.Error(err),
		)
		if nackErr := msg.Nack(false); nackErr != nil {
			p.logger.Warn("job_nack_failed", zap.String("job_id", job.ID.String()), zap.Error(nackErr))
		}
		return fmt.Errorf("job failed (max retries): %w", err)
	}

	if p.jobQueue != nil {
		retry := *job
		retry.IncrementRetry()
		notBefore := time.Now().Add(time.Duration(retry.RetryCount) * p.retryDelay)
		retry.NotBefore = &notBefore

		enqueueErr := p.jobQueue.Enqueue(ctx, &retry)
		if enqueueErr == nil {
			if ackErr := msg.Ack(); ackErr != nil {
				p.logger.Warn("job_ack_failed", zap.String("job_id", job.ID.String()), zap.Error(ackErr))
			}
			p.logger.Warn("job_retry_scheduled",
				zap.String("job_id", job.ID.String()),
				zap.Int("attempt", retry.RetryCount),
				zap.Time("not_before", notBefore),
				zap.Error(err),
			)
			return fmt.Errorf("job failed (will retry): %w", err)
		}
		p.logger.Warn("job_reenqueue_failed", zap.String("job_id", job.ID.String()), zap.Error(enqueueErr))
	}

	// Broker requeue loses the retry count, so it is only a fallback
	if nackErr := msg.Nack(true); nackErr != nil {
		p.logger.Warn("job_nack_failed", zap.String("job_id", job.ID.String()), zap.Error(nackErr))
	}
	return fmt.Errorf("job failed (requeued): %w", err)
}
