package middleware

import (
	"context"
	"fmt"

	"FinBot/internal/domain/models"
	domrepo "FinBot/internal/domain/repository"
	"FinBot/internal/usecase"
)

// Enqueuer is the part of the job queue the dispatcher needs.
type Enqueuer interface {
	Enqueue(ctx context.Context, msgType string, payload interface{}) (string, error)
	Depth(ctx context.Context) (int64, error)
}

// QueueDispatcher hands commands to the shared job queue so any bot instance
// can run them.
type QueueDispatcher struct {
	queue   Enqueuer
	proc    Proc
	limiter Limiter
	metrics domrepo.Metrics
}

func NewQueueDispatcher(queue Enqueuer, proc Proc, limiter Limiter, metrics domrepo.Metrics) *QueueDispatcher {
	return &QueueDispatcher{queue: queue, proc: proc, limiter: limiter, metrics: metrics}
}

func (d *QueueDispatcher) Dispatch(ctx context.Context, cmd models.Command) error {
	if d.limiter != nil && !d.limiter.Allow(cmd.UserID) {
		d.proc.Reject(ctx, cmd, usecase.ErrRateLimited)
		return usecase.ErrRateLimited
	}
	if _, err := d.queue.Enqueue(ctx, usecase.CommandJobType, cmd); err != nil {
		return fmt.Errorf("enqueue %s: %w", cmd.Name, err)
	}
	if d.metrics != nil {
		if n, err := d.queue.Depth(ctx); err == nil {
			d.metrics.SetQueueDepth(int(n))
		}
	}
	return nil
}
