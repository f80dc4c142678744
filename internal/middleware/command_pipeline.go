package middleware

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"FinBot/internal/domain/models"
	domrepo "FinBot/internal/domain/repository"
	"FinBot/internal/usecase"
	"FinBot/pkg/logger"
)

// Proc is the minimal processor interface the pipeline needs.
type Proc interface {
	Process(ctx context.Context, cmd models.Command) error
	Reject(ctx context.Context, cmd models.Command, reason error)
}

// Limiter decides whether a key may run another command.
type Limiter interface {
	Allow(key string) bool
}

// CommandPipeline sits between the chat gateway and the command processor.
// It throttles per user, buffers accepted commands and runs them on a fixed
// pool of workers.
type CommandPipeline struct {
	proc    Proc
	metrics domrepo.Metrics
	log     *logger.Logger
	limiter Limiter
	workers int
	bufSize int
	bufCh   chan models.Command
	stopCh  chan struct{}
	wg      sync.WaitGroup
	started bool
	mu      sync.Mutex
}

type PipelineOption func(*CommandPipeline)

// WithWorkers sets how many commands run concurrently.
func WithWorkers(n int) PipelineOption {
	return func(p *CommandPipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithBufferSize sets how many accepted commands may wait for a worker.
func WithBufferSize(n int) PipelineOption {
	return func(p *CommandPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithLimiter throttles commands per user.
func WithLimiter(l Limiter) PipelineOption {
	return func(p *CommandPipeline) { p.limiter = l }
}

// NewCommandPipeline creates a new pipeline.
func NewCommandPipeline(proc Proc, metrics domrepo.Metrics, log *logger.Logger, opts ...PipelineOption) *CommandPipeline {
	p := &CommandPipeline{
		proc:    proc,
		metrics: metrics,
		log:     log,
		workers: 4,
		bufSize: 64,
		stopCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = logger.NewNop()
	}
	p.bufCh = make(chan models.Command, p.bufSize)
	return p
}

// Start launches the workers. Commands run under ctx, not the dispatcher's.
func (p *CommandPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
	p.log.Info("command pipeline started", logger.Int("workers", p.workers), logger.Int("buffer", p.bufSize))
}

// Stop stops accepting work and waits for running commands to finish.
func (p *CommandPipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	close(p.stopCh)
	p.mu.Unlock()
	p.wg.Wait()
}

// Dispatch throttles and enqueues cmd. It never blocks on a busy pool.
func (p *CommandPipeline) Dispatch(ctx context.Context, cmd models.Command) error {
	p.mu.Lock()
	started := p.started
	p.mu.Unlock()
	if !started {
		return fmt.Errorf("command pipeline not running")
	}

	if p.limiter != nil && !p.limiter.Allow(cmd.UserID) {
		p.proc.Reject(ctx, cmd, usecase.ErrRateLimited)
		return usecase.ErrRateLimited
	}

	select {
	case p.bufCh <- cmd:
		p.gauge()
		return nil
	default:
		return fmt.Errorf("command pipeline full (%d waiting)", len(p.bufCh))
	}
}

func (p *CommandPipeline) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case cmd := <-p.bufCh:
			p.gauge()
			p.run(ctx, cmd)
		}
	}
}

func (p *CommandPipeline) run(ctx context.Context, cmd models.Command) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("command panicked",
				logger.String("command", cmd.Name),
				logger.String("id", cmd.ID),
				logger.Any("panic", r),
				logger.String("stack", string(debug.Stack())),
			)
		}
	}()
	if err := p.proc.Process(ctx, cmd); err != nil {
		p.log.Error("command delivery failed", logger.String("command", cmd.Name), logger.String("id", cmd.ID), logger.Error(err))
	}
}

func (p *CommandPipeline) gauge() {
	if p.metrics != nil {
		p.metrics.SetQueueDepth(len(p.bufCh))
	}
}
