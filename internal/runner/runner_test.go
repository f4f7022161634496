package runner

import (
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ebash/internal/job"
)

// TestMaybeReapBackgroundRemovesExitedJob exercises reaper.Probe's wiring
// into the background-reap cadence (SPEC_FULL.md §5.3): a background job
// whose process has exited should be dropped from the registry without
// ever being waited on in the foreground.
func TestMaybeReapBackgroundRemovesExitedJob(t *testing.T) {
	cmd := exec.Command("/bin/sh", "-c", "exit 0")
	require.NoError(t, cmd.Start())
	pid := cmd.Process.Pid

	registry := job.NewRegistry()
	registry.Insert(&job.Job{
		JobID:      1,
		Pid:        pid,
		Pgid:       pid,
		Cmd:        "exit 0",
		Background: true,
		ExitState:  job.ExitState{State: job.Running},
	})

	r := &Runner{Registry: registry, ReapAfterPipelines: 1}

	for i := 0; i < 200 && registry.LookupByPid(pid) != nil; i++ {
		r.maybeReapBackground()
		time.Sleep(2 * time.Millisecond)
	}

	require.Nil(t, registry.LookupByPid(pid))
}

// TestMaybeReapBackgroundHonorsCadence verifies jobs are only probed every
// ReapAfterPipelines-th call, not on every single one.
func TestMaybeReapBackgroundHonorsCadence(t *testing.T) {
	registry := job.NewRegistry()
	registry.Insert(&job.Job{JobID: 1, Pid: 1, Pgid: 1, Background: true, ExitState: job.ExitState{State: job.Running}})

	r := &Runner{Registry: registry, ReapAfterPipelines: 3}

	r.maybeReapBackground()
	require.Equal(t, 1, r.pipelinesSinceReap)
	r.maybeReapBackground()
	require.Equal(t, 2, r.pipelinesSinceReap)
	r.maybeReapBackground()
	require.Equal(t, 0, r.pipelinesSinceReap)
}
