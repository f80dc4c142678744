package usecase

import (
	"context"
	"encoding/json"

	"FinBot/internal/domain/models"
	"FinBot/pkg/queue"
)

// CommandJobType is the queue message type for chat commands.
const CommandJobType = "command"

// CommandJob executes queued commands through the processor.
type CommandJob struct {
	proc *CommandProcessor
}

func NewCommandJob(proc *CommandProcessor) *CommandJob {
	return &CommandJob{proc: proc}
}

func (j *CommandJob) Name() string { return "command-runner" }

func (j *CommandJob) Type() string { return CommandJobType }

func (j *CommandJob) Handle(ctx context.Context, payload json.RawMessage) error {
	cmd, err := queue.ParsePayload[models.Command](payload)
	if err != nil {
		return err
	}
	return j.proc.Process(ctx, *cmd)
}

var _ queue.Job = (*CommandJob)(nil)
