// Package tasks registers the service's scheduled tasks.
package tasks

import (
	"context"

	"github.com/slipstream/delaygate/internal/config"
	"github.com/slipstream/delaygate/internal/rsssync"
	"github.com/slipstream/delaygate/internal/scheduler"
)

const PendingReleaseTaskID = "pending-release"

// PendingProcessor re-evaluates held releases.
type PendingProcessor interface {
	ProcessPending(ctx context.Context) (rsssync.CycleStatus, error)
}

// RegisterPendingReleaseTask registers the periodic re-evaluation of held
// releases. Nothing is registered when the task is disabled.
func RegisterPendingReleaseTask(sched *scheduler.Scheduler, processor PendingProcessor, cfg *config.PendingConfig) error {
	if !cfg.Enabled {
		return nil
	}

	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          PendingReleaseTaskID,
		Name:        "Pending Releases",
		Description: "Re-evaluate held releases and grab those whose delay has passed",
		Cron:        cfg.Cron,
		RunOnStart:  true,
		Timeout:     cfg.Timeout,
		Func: func(ctx context.Context) error {
			_, err := processor.ProcessPending(ctx)
			return err
		},
	})
}
