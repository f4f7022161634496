// Package reaper performs waitpid-based collection for foreground
// pipelines: it classifies a child's exit/stop/signal status and reports
// it back to the caller, which is responsible for updating the job
// registry (specification component F). It uses golang.org/x/sys/unix's
// Wait4 rather than os/exec's Cmd.Wait so that WIFSTOPPED can be observed —
// Cmd.Wait alone only ever reports a terminal exit. The same WaitStatus
// decoding this package leans on is hand-rolled over cgo by the
// zombie-reaping supervisor in other_examples
// (643bb7e6_bogen85-config__...supervisor.go.go); here it comes from the
// library instead.
package reaper

import (
	"errors"

	"golang.org/x/sys/unix"

	"ebash/internal/job"
)

// OnStop, when non-nil, is invoked every time the waited process is
// observed stopped (WIFSTOPPED) before the wait loop continues — this is
// the hook callers use to flip the job's state to Stopped in the registry
// without ending the wait.
type OnStop func(state job.ExitState)

// Wait blocks until pid exits or is killed by a signal, retrying on EINTR
// and treating ECHILD as benign (the child already reaped, e.g. by a
// concurrent SIGCHLD-driven collector — spec.md §4.F). Stops are reported
// via onStop and do not end the wait: the Runner's foreground wait keeps
// waiting on the same pid per spec.md's "WIFSTOPPED ... return Continue".
func Wait(pid int, onStop OnStop) (job.ExitState, error) {

	for {

		var status unix.WaitStatus
		_, err := unix.Wait4(pid, &status, unix.WSTOPPED, nil)

		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			if errors.Is(err, unix.ECHILD) {
				return job.ExitState{State: job.Exited, Code: 0}, nil
			}
			return job.ExitState{}, err
		}

		switch {

		case status.Exited():
			return job.ExitState{State: job.Exited, Code: status.ExitStatus()}, nil

		case status.Signaled():
			return job.ExitState{State: job.Signaled, Signal: int(status.Signal())}, nil

		case status.Stopped():
			state := job.ExitState{State: job.Stopped, Signal: int(status.StopSignal())}
			if onStop != nil {
				onStop(state)
			}
			continue

		default:
			// Abnormal termination that doesn't classify cleanly as one of
			// the above: spec.md §4.F treats this the same as a signal exit.
			return job.ExitState{State: job.Signaled, Code: -1}, nil

		}

	}

}

// Probe performs a single non-blocking WNOHANG check of pid, used by
// `jobs`/background reaping to label a job's status without blocking the
// shell (spec.md §4.E/§4.H). It returns ok == false when pid has not
// changed state (still running).
func Probe(pid int) (state job.ExitState, ok bool, err error) {

	var status unix.WaitStatus
	got, werr := unix.Wait4(pid, &status, unix.WNOHANG|unix.WUNTRACED|unix.WCONTINUED, nil)

	if werr != nil {
		if errors.Is(werr, unix.ECHILD) {
			return job.ExitState{}, false, nil
		}
		return job.ExitState{}, false, werr
	}

	if got == 0 {
		return job.ExitState{}, false, nil
	}

	switch {
	case status.Exited():
		return job.ExitState{State: job.Exited, Code: status.ExitStatus()}, true, nil
	case status.Signaled():
		return job.ExitState{State: job.Signaled, Signal: int(status.Signal())}, true, nil
	case status.Stopped():
		return job.ExitState{State: job.Stopped, Signal: int(status.StopSignal())}, true, nil
	default:
		return job.ExitState{}, false, nil
	}

}
