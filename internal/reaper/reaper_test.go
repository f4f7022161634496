package reaper

import (
	"os/exec"
	"testing"

	"github.com/stretchr/testify/require"

	"ebash/internal/job"
)

func TestWaitReportsExitCode(t *testing.T) {
	cmd := exec.Command("/bin/sh", "-c", "exit 7")
	require.NoError(t, cmd.Start())

	state, err := Wait(cmd.Process.Pid, nil)
	require.NoError(t, err)
	require.Equal(t, job.Exited, state.State)
	require.Equal(t, 7, state.Code)
}

func TestWaitReportsSignaled(t *testing.T) {
	cmd := exec.Command("/bin/sh", "-c", "kill -TERM $$")
	require.NoError(t, cmd.Start())

	state, err := Wait(cmd.Process.Pid, nil)
	require.NoError(t, err)
	require.Equal(t, job.Signaled, state.State)
}

func TestProbeReturnsNotOkWhileRunning(t *testing.T) {
	cmd := exec.Command("/bin/sh", "-c", "sleep 1")
	require.NoError(t, cmd.Start())
	defer cmd.Process.Kill()
	defer cmd.Wait()

	_, ok, err := Probe(cmd.Process.Pid)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestProbeReportsNothingAfterReap(t *testing.T) {
	cmd := exec.Command("/bin/sh", "-c", "exit 0")
	require.NoError(t, cmd.Start())

	state, err := Wait(cmd.Process.Pid, nil)
	require.NoError(t, err)
	require.Equal(t, job.Exited, state.State)

	_, ok, err := Probe(cmd.Process.Pid)
	require.NoError(t, err)
	require.False(t, ok)
}
