package tasks

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/slipstream/delaygate/internal/config"
	"github.com/slipstream/delaygate/internal/rsssync"
	"github.com/slipstream/delaygate/internal/scheduler"
)

type countingProcessor struct {
	calls atomic.Int32
}

func (p *countingProcessor) ProcessPending(context.Context) (rsssync.CycleStatus, error) {
	p.calls.Add(1)
	return rsssync.CycleStatus{}, nil
}

func TestRegisterPendingReleaseTask(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	sched, err := scheduler.New(zerolog.Nop())
	require.NoError(t, err)

	proc := &countingProcessor{}
	cfg := config.Default().Pending
	require.NoError(t, RegisterPendingReleaseTask(sched, proc, &cfg))

	info, err := sched.GetTask(PendingReleaseTaskID)
	require.NoError(t, err)
	assert.Equal(t, cfg.Cron, info.Cron)

	sched.Start()
	require.Eventually(t, func() bool { return proc.calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond,
		"the task runs on start")
	require.NoError(t, sched.Stop())
}

func TestRegisterPendingReleaseTask_Disabled(t *testing.T) {
	sched, err := scheduler.New(zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sched.Stop() })

	cfg := config.PendingConfig{Enabled: false}
	require.NoError(t, RegisterPendingReleaseTask(sched, &countingProcessor{}, &cfg))
	assert.Empty(t, sched.ListTasks())
}
