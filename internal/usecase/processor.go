package usecase

import (
	"context"
	"fmt"
	"time"

	"FinBot/internal/domain/models"
	drepo "FinBot/internal/domain/repository"
	domsvc "FinBot/internal/domain/service"
	"FinBot/pkg/logger"
)

// CommandProcessor runs a command, replies to the user and records the outcome.
type CommandProcessor struct {
	runner  domsvc.CommandRunner
	replier domsvc.Replier
	audit   drepo.AuditStore
	events  drepo.EventPublisher
	metrics drepo.Metrics
	log     *logger.Logger
	timeout time.Duration
}

// NewCommandProcessor creates a new CommandProcessor instance.
func NewCommandProcessor(
	runner domsvc.CommandRunner,
	replier domsvc.Replier,
	audit drepo.AuditStore,
	events drepo.EventPublisher,
	metrics drepo.Metrics,
	log *logger.Logger,
	timeout time.Duration,
) *CommandProcessor {
	if log == nil {
		log = logger.NewNop()
	}
	return &CommandProcessor{
		runner:  runner,
		replier: replier,
		audit:   audit,
		events:  events,
		metrics: metrics,
		log:     log,
		timeout: timeout,
	}
}

// Process executes cmd and delivers its result or a short error message.
// Command failures are reported to the user and not returned; only delivery
// failures are.
func (p *CommandProcessor) Process(ctx context.Context, cmd models.Command) error {
	start := time.Now()
	runCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	res, err := p.runner.Run(runCtx, cmd)
	status := models.StatusOK
	var deliverErr error
	if err != nil {
		status = models.StatusFailed
		p.log.Warn("command failed",
			logger.String("command", cmd.Name),
			logger.Strings("args", cmd.Args),
			logger.String("user", cmd.UserID),
			logger.Error(err),
		)
		deliverErr = p.replier.ReplyError(ctx, cmd, UserMessage(err))
	} else {
		deliverErr = p.replier.Reply(ctx, cmd, res)
	}
	took := time.Since(start)

	ev := models.CommandEvent{
		ID:         cmd.ID,
		Type:       "command.completed",
		UserID:     cmd.UserID,
		Command:    cmd.Name,
		Args:       cmd.Args,
		Status:     status,
		DurationMs: took.Milliseconds(),
		At:         time.Now().UTC(),
	}
	if res != nil {
		ev.Ticker = res.Ticker
	}
	if err != nil {
		ev.Error = err.Error()
	}
	p.record(ctx, ev, took)

	if deliverErr != nil {
		return fmt.Errorf("deliver %s reply: %w", cmd.Name, deliverErr)
	}
	return nil
}

// Reject records a command refused before it ran, e.g. by the rate limiter.
// The caller tells the user.
func (p *CommandProcessor) Reject(ctx context.Context, cmd models.Command, reason error) {
	p.record(ctx, models.CommandEvent{
		ID:      cmd.ID,
		Type:    "command.rejected",
		UserID:  cmd.UserID,
		Command: cmd.Name,
		Args:    cmd.Args,
		Status:  models.StatusRejected,
		Error:   reason.Error(),
		At:      time.Now().UTC(),
	}, 0)
}

func (p *CommandProcessor) record(ctx context.Context, ev models.CommandEvent, took time.Duration) {
	if p.metrics != nil {
		p.metrics.RecordCommand(ev.Command, ev.Status, took)
	}
	if p.events != nil {
		if err := p.events.PublishCommandEvent(ctx, ev); err != nil {
			p.log.Warn("publish command event failed", logger.String("id", ev.ID), logger.Error(err))
		}
	}
	if p.audit != nil {
		if err := p.audit.RecordCommand(ctx, ev); err != nil {
			p.log.Warn("audit command failed", logger.String("id", ev.ID), logger.Error(err))
		}
	}
}
