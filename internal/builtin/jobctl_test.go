package builtin

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"ebash/internal/job"
)

func newTestJobControl() (*JobControl, *job.Registry) {
	reg := job.NewRegistry()
	return &JobControl{Registry: reg}, reg
}

func TestJobsListsInInsertionOrder(t *testing.T) {
	jc, reg := newTestJobControl()
	reg.Insert(&job.Job{JobID: 1, Pid: 100, Cmd: "sleep 5", Background: true, ExitState: job.ExitState{State: job.Running}})
	reg.Insert(&job.Job{JobID: 2, Pid: 200, Cmd: "cat", ExitState: job.ExitState{State: job.Stopped, Signal: 19}})

	var buf bytes.Buffer
	code, err := jc.Dispatch([]string{"jobs"}, &buf)
	require.NoError(t, err)
	require.Equal(t, 0, code)
	require.Contains(t, buf.String(), "[1] + running sleep 5")
	require.Contains(t, buf.String(), "[2] - stopped cat")
}

func TestDisownWithNoArgTargetsLastInserted(t *testing.T) {
	jc, reg := newTestJobControl()
	reg.Insert(&job.Job{JobID: 1, Pid: 100, ExitState: job.ExitState{State: job.Running}})
	reg.Insert(&job.Job{JobID: 2, Pid: 200, ExitState: job.ExitState{State: job.Running}})

	var buf bytes.Buffer
	code, err := jc.Dispatch([]string{"disown"}, &buf)
	require.NoError(t, err)
	require.Equal(t, 0, code)

	require.NotNil(t, reg.LookupByPid(100))
	require.Nil(t, reg.LookupByPid(200))
}

func TestDisownByJobSpec(t *testing.T) {
	jc, reg := newTestJobControl()
	reg.Insert(&job.Job{JobID: 1, Pid: 100, ExitState: job.ExitState{State: job.Running}})

	var buf bytes.Buffer
	_, err := jc.Dispatch([]string{"disown", "%1"}, &buf)
	require.NoError(t, err)
	require.Nil(t, reg.LookupByPid(100))
}

func TestDisownNoCurrentJobErrors(t *testing.T) {
	jc, _ := newTestJobControl()
	var buf bytes.Buffer
	_, err := jc.Dispatch([]string{"disown"}, &buf)
	require.Error(t, err)
}

func TestBgRequiresStoppedJob(t *testing.T) {
	jc, reg := newTestJobControl()
	reg.Insert(&job.Job{JobID: 1, Pid: 100, Pgid: 100, ExitState: job.ExitState{State: job.Running}})

	var buf bytes.Buffer
	_, err := jc.Dispatch([]string{"bg", "%1"}, &buf)
	require.Error(t, err)
}

func TestExitWithActiveJobsWarnsFirstThenProceeds(t *testing.T) {
	jc, reg := newTestJobControl()
	reg.Insert(&job.Job{JobID: 1, Pid: 100, ExitState: job.ExitState{State: job.Running}})

	var buf bytes.Buffer
	code, err := jc.Dispatch([]string{"exit"}, &buf)
	require.NoError(t, err)
	require.Equal(t, 1, code)
	require.Contains(t, buf.String(), "running jobs")
	require.True(t, jc.PendingExit)

	code, err = jc.Dispatch([]string{"exit", "7"}, &buf)
	require.Error(t, err)
	var exitReq *ErrExitRequested
	require.ErrorAs(t, err, &exitReq)
	require.Equal(t, 7, exitReq.Code)
	require.Equal(t, 7, code)
}

func TestExitWithNoJobsProceedsImmediately(t *testing.T) {
	jc, _ := newTestJobControl()
	var buf bytes.Buffer
	_, err := jc.Dispatch([]string{"exit"}, &buf)
	var exitReq *ErrExitRequested
	require.ErrorAs(t, err, &exitReq)
	require.Equal(t, 0, exitReq.Code)
}

func TestClearPendingExitResetsFlag(t *testing.T) {
	jc, reg := newTestJobControl()
	reg.Insert(&job.Job{JobID: 1, Pid: 100, ExitState: job.ExitState{State: job.Running}})

	var buf bytes.Buffer
	_, _ = jc.Dispatch([]string{"exit"}, &buf)
	require.True(t, jc.PendingExit)

	jc.ClearPendingExit()
	require.False(t, jc.PendingExit)
}

func TestResolveTargetDefaultsToHighestJobID(t *testing.T) {
	jc, reg := newTestJobControl()
	reg.Insert(&job.Job{JobID: 3, Pid: 300, ExitState: job.ExitState{State: job.Stopped}})
	reg.Insert(&job.Job{JobID: 1, Pid: 100, ExitState: job.ExitState{State: job.Stopped}})

	j, err := jc.resolveTarget([]string{"fg"})
	require.NoError(t, err)
	require.Equal(t, 3, j.JobID)
}

func TestResolveTargetUnknownJobErrors(t *testing.T) {
	jc, _ := newTestJobControl()
	_, err := jc.resolveTarget([]string{"fg", "%9"})
	require.Error(t, err)
}
