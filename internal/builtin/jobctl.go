package builtin

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"syscall"

	"ebash/internal/job"
	"ebash/internal/reaper"
	"ebash/internal/term"
)

// JobControl bundles the registry and terminal controller the job-control
// builtins (component H) operate on. internal/runner constructs one and
// dispatches fg/bg/jobs/disown/exit to it directly, ahead of the
// non-process builtins in Execute.
type JobControl struct {
	Registry *job.Registry
	Term     *term.Controller

	// PendingExit records whether a prior `exit` with jobs still active
	// already warned the user once (spec.md §4.H's exit semantics): a
	// second `exit` proceeds to shut down regardless. Any command other
	// than `exit` clears this flag again — internal/runner does so via
	// ClearPendingExit after running any non-exit subcommand.
	PendingExit bool
}

// ClearPendingExit resets the exit-confirmation flag. Called by the runner
// after any subcommand that isn't `exit` itself.
func (jc *JobControl) ClearPendingExit() {
	jc.PendingExit = false
}

// ErrExitRequested is returned by Dispatch for the `exit` builtin so the
// runner's read loop can distinguish "stop the shell" from an ordinary
// builtin error.
type ErrExitRequested struct {
	Code int
}

func (e *ErrExitRequested) Error() string {
	return fmt.Sprintf("ebash: exit: %d", e.Code)
}

// IsJobControl reports whether name is dispatched through JobControl
// rather than through Execute.
func IsJobControl(name string) bool {
	switch name {
	case "fg", "bg", "jobs", "disown", "exit":
		return true
	}
	return false
}

// Dispatch runs one of fg/bg/jobs/disown/exit.
func (jc *JobControl) Dispatch(argv []string, stdout io.Writer) (int, error) {
	switch argv[0] {
	case "jobs":
		return jc.jobs(argv, stdout)
	case "fg":
		return jc.fg(argv)
	case "bg":
		return jc.bg(argv)
	case "disown":
		return jc.disown(argv)
	case "exit":
		return jc.exit(argv, stdout)
	}
	return 1, fmt.Errorf("ebash: %s: not a job-control builtin", argv[0])
}

// resolveTarget parses an optional "%N" or bare N jobspec, defaulting to
// the registry's HighestJobID per DESIGN.md's resolution of spec.md §9's
// fg/bg open question.
func (jc *JobControl) resolveTarget(argv []string) (*job.Job, error) {
	if len(argv) < 2 {
		j := jc.Registry.HighestJobID()
		if j == nil {
			return nil, fmt.Errorf("ebash: %s: no current job", argv[0])
		}
		return j, nil
	}

	spec := strings.TrimPrefix(argv[1], "%")
	id, err := strconv.Atoi(spec)
	if err != nil {
		return nil, fmt.Errorf("ebash: %s: %s: no such job", argv[0], argv[1])
	}

	j := jc.Registry.LookupByJobID(id)
	if j == nil {
		return nil, fmt.Errorf("ebash: %s: %%%d: no such job", argv[0], id)
	}
	return j, nil
}

// jobs lists every tracked job in insertion order, labeling each one
// "running", "stopped", "exited" or "signaled". Per spec.md §4.H
// each job is first reprobed with a non-blocking waitpid (reaper.Probe)
// so a background job that already exited isn't reported stale, and each
// line carries the ± marker: `+` for a backgrounded job, `-` for a job
// suspended while it held the foreground.
func (jc *JobControl) jobs(argv []string, stdout io.Writer) (int, error) {
	for _, j := range jc.Registry.IterInOrder() {
		if j.Active() {
			if state, ok, err := reaper.Probe(j.Pid); err == nil && ok {
				j.ExitState = state
			}
		}

		status := "running"
		switch j.ExitState.State {
		case job.Stopped:
			status = "stopped"
		case job.Exited:
			status = "exited"
		case job.Signaled:
			status = "signaled"
		}

		marker := "-"
		if j.Background {
			marker = "+"
		}

		if _, err := fmt.Fprintf(stdout, "[%d] %s %s %s\n", j.JobID, marker, status, j.Cmd); err != nil {
			return 1, fmt.Errorf("ebash: jobs: %w", err)
		}
	}
	return 0, nil
}

// fg brings a job to the foreground: hands it the controlling terminal,
// continues it with SIGCONT if stopped, and blocks until it exits or is
// killed by a signal, per spec.md §4.H. A stop during the wait is recorded
// on the job but does not end the wait (see reaper.Wait).
func (jc *JobControl) fg(argv []string) (int, error) {
	j, err := jc.resolveTarget(argv)
	if err != nil {
		return 1, err
	}
	if !j.Active() {
		return 1, fmt.Errorf("ebash: fg: %%%d: job has terminated", j.JobID)
	}

	if err := jc.Term.HandToForeground(j.Pgid); err != nil {
		return 1, err
	}
	defer jc.Term.ReclaimForeground()

	if j.ExitState.State == job.Stopped {
		_ = syscall.Kill(-j.Pgid, syscall.SIGCONT)
	}
	j.Background = false

	state, err := reaper.Wait(j.Pid, func(s job.ExitState) {
		j.ExitState = s
	})
	if err != nil {
		return 1, fmt.Errorf("ebash: fg: %w", err)
	}

	j.ExitState = state
	if state.State == job.Exited || state.State == job.Signaled {
		jc.Registry.Remove(j.Pid)
	}

	switch state.State {
	case job.Exited:
		return state.Code, nil
	case job.Signaled:
		// spec.md §4.F: abnormal termination records exit = -1, not
		// 128+signal.
		return -1, nil
	default:
		return 0, nil
	}
}

// bg resumes a stopped job in the background with SIGCONT, without
// reclaiming the terminal or waiting on it.
func (jc *JobControl) bg(argv []string) (int, error) {
	j, err := jc.resolveTarget(argv)
	if err != nil {
		return 1, err
	}
	if j.ExitState.State != job.Stopped {
		return 1, fmt.Errorf("ebash: bg: %%%d: job already in background", j.JobID)
	}

	if err := syscall.Kill(-j.Pgid, syscall.SIGCONT); err != nil {
		return 1, fmt.Errorf("ebash: bg: %w", err)
	}
	j.ExitState = job.ExitState{State: job.Running}
	j.Background = true
	return 0, nil
}

// disown removes a job from the registry without signaling it, so the
// shell no longer tracks or waits on it. With no argument it targets the
// most recently inserted job (DESIGN.md's resolution of spec.md §9's
// disown open question); if that job is no longer active it fails with
// "no current job", even when earlier jobs are still active.
func (jc *JobControl) disown(argv []string) (int, error) {
	var target *job.Job

	if len(argv) < 2 {
		target = jc.Registry.LastInserted()
		if target == nil || !target.Active() {
			return 1, fmt.Errorf("ebash: disown: no current job")
		}
	} else {
		var err error
		target, err = jc.resolveTarget(argv)
		if err != nil {
			return 1, err
		}
	}

	jc.Registry.Remove(target.Pid)
	return 0, nil
}

// exit requests shell termination. A numeric argument becomes the exit
// code; otherwise it defaults to 0. Per spec.md §4.H: if jobs are still
// active and this is the first `exit` of the sequence, warn and ask for
// confirmation instead of terminating; a second consecutive `exit`
// proceeds regardless of what's still running.
func (jc *JobControl) exit(argv []string, stdout io.Writer) (int, error) {
	code := 0
	if len(argv) > 1 {
		n, err := strconv.Atoi(argv[1])
		if err != nil {
			return 1, fmt.Errorf("ebash: exit: %s: numeric argument required", argv[1])
		}
		code = n
	}

	if jc.Registry.Len() > 0 && !jc.PendingExit {
		jc.PendingExit = true
		fmt.Fprintln(stdout, "There are running jobs.")
		return 1, nil
	}

	return code, &ErrExitRequested{Code: code}
}
