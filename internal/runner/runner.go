// Package runner implements the Runner (component I): the per-line
// orchestrator that walks a parsed command.Command list, applies ';'/'&&'
// sequencing, plans and spawns each pipeline, waits on foreground
// pipelines through the reaper, and keeps the job registry and terminal
// controller in sync. It is grounded on the teacher's
// Shell.runPipeline/runPipe (internal/ebash/ebash.go), generalized from a
// single conditional chain and *os.File plumbing to the full command.Attr
// model and the Rewiring-based planner/spawner.
package runner

import (
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/kballard/go-shellquote"
	"github.com/sirupsen/logrus"

	"ebash/internal/builtin"
	"ebash/internal/command"
	"ebash/internal/expand"
	"ebash/internal/fdset"
	"ebash/internal/job"
	"ebash/internal/plan"
	"ebash/internal/reaper"
	"ebash/internal/spawner"
	"ebash/internal/term"
	"ebash/internal/token"
)

// Runner holds everything needed to execute command lists against one
// shell session: the job registry, the terminal controller, the
// job-control builtin dispatcher, and the carried last-return-code state
// the expander and `exit`/prompt consult.
type Runner struct {
	Registry *job.Registry
	Term     *term.Controller
	JobCtl   *builtin.JobControl
	Log      logrus.FieldLogger

	// ShutdownGrace is how long Shutdown waits after SIGTERM before
	// escalating to SIGKILL (spec.md §4.J: "sleep ~10 ms").
	ShutdownGrace time.Duration

	// ReapAfterPipelines controls how often background jobs are probed
	// for a state change (SPEC_FULL.md §5.3): every Nth executed command
	// (foreground or background) triggers a WNOHANG sweep over background
	// jobs instead of probing after every single one.
	ReapAfterPipelines int

	lastReturnCode     int
	pipelinesSinceReap int
}

// New wires a Runner from its collaborators.
func New(registry *job.Registry, terminal *term.Controller, log logrus.FieldLogger) *Runner {
	return &Runner{
		Registry:           registry,
		Term:               terminal,
		JobCtl:             &builtin.JobControl{Registry: registry, Term: terminal},
		Log:                log,
		ShutdownGrace:      10 * time.Millisecond,
		ReapAfterPipelines: 1,
	}
}

// LastReturnCode reports the exit code of the most recently completed
// command list, used by `$?` expansion and the prompt.
func (r *Runner) LastReturnCode() int {
	return r.lastReturnCode
}

// RunOnce executes a single already-tokenized argv as one subcommand
// outside of any pipeline, returning its exit code. This is the hook
// internal/builtin's `time` uses to recurse into full execution (it
// satisfies builtin.Runner).
func (r *Runner) RunOnce(argv []string) (int, error) {
	sub := command.Subcommand{}
	// argv is already expanded: quoted tokens make runCommand's Expand
	// pass each word through unchanged instead of expanding it again.
	for _, a := range argv {
		sub.Args = append(sub.Args, token.Token{Kind: token.SingleQuoted, Text: a})
	}
	cmd := command.Command{Subcommands: []command.Subcommand{sub}}
	return r.runCommand(cmd), nil
}

// Execute runs a full command list produced by one parsed input line,
// honoring ';' unconditional sequencing and '&&' short-circuiting per
// spec.md §4.I step 3, and updates LastReturnCode when done.
func (r *Runner) Execute(cmds []command.Command) {

	shortCircuitFailing := false

	for _, cmd := range cmds {

		if shortCircuitFailing {
			shortCircuitFailing = cmd.Attributes.Has(command.ShortCircuitOnFailure)
			continue
		}

		if cmd.Empty() {
			continue
		}

		code := r.runCommand(cmd)
		r.lastReturnCode = code
		r.maybeReapBackground()

		if cmd.Attributes.Has(command.ShortCircuitOnFailure) && code != 0 {
			shortCircuitFailing = true
		}

	}

}

type spawnedChild struct {
	pid   int
	argv0 string
}

// runCommand plans, spawns and (for foreground pipelines) waits on one
// Command, returning its exit code. It implements spec.md §4.I steps 2-4
// for a single command: builtins preempt the rest of their pipeline
// (§4.D step 3); external subcommands are forked in pipeline order and
// joined into one process group, the first defining the pgid.
func (r *Runner) runCommand(cmd command.Command) int {

	collector := fdset.New()

	if err := plan.Build(&cmd, collector); err != nil {
		fmt.Fprintln(os.Stderr, err)
		collector.Collect()
		return 1
	}

	var children []spawnedChild
	var pgid int
	exitCode := 0
	preempted := false

	for i := range cmd.Subcommands {

		sub := cmd.Subcommands[i]

		argv := expand.Expand(sub.Args, expand.Context{LastReturnCode: r.lastReturnCode, Pid: os.Getpid()})
		if len(argv) == 0 {
			continue
		}

		if builtin.IsJobControl(argv[0]) {
			code, err := r.JobCtl.Dispatch(argv, resolveStdout(sub))
			r.clearPendingExitUnless(argv[0])
			if err != nil {
				var exitReq *builtin.ErrExitRequested
				if errors.As(err, &exitReq) {
					collector.Collect()
					r.Shutdown()
					os.Exit(exitReq.Code)
				}
				fmt.Fprintln(os.Stderr, err)
			}
			exitCode = code
			preempted = true
			break
		}

		if argv[0] == "time" {
			code, err := builtin.ExecuteTime(argv, r)
			r.clearPendingExitUnless(argv[0])
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
			exitCode = code
			preempted = true
			break
		}

		if builtin.IsBuiltin(argv[0]) {
			code, err := builtin.Execute(argv, resolveStdout(sub))
			r.clearPendingExitUnless(argv[0])
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
			exitCode = code
			preempted = true
			break
		}

		r.clearPendingExitUnless(argv[0])

		result, err := spawner.Spawn(argv, sub.Rewirings, pgid, "")
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			exitCode = 126
			continue
		}

		if pgid == 0 {
			pgid = result.Pid
		}
		// Race-safe: both parent and child call setpgid; the later call
		// is a no-op (spec.md §4.D).
		_ = syscall.Setpgid(result.Pid, pgid)

		children = append(children, spawnedChild{pid: result.Pid, argv0: argv[0]})

		jobID := r.Registry.FindLastJobID() + 1
		r.Registry.Insert(&job.Job{
			JobID:      jobID,
			Pid:        result.Pid,
			Pgid:       pgid,
			Cmd:        shellquote.Join(argv...),
			Background: cmd.Attributes.Has(command.InBackground),
			ExitState:  job.ExitState{State: job.Running},
		})

	}

	collector.Collect()

	if preempted || len(children) == 0 {
		return exitCode
	}

	if cmd.Attributes.Has(command.InBackground) {
		leader := children[0]
		if j := r.Registry.LookupByPid(leader.pid); j != nil {
			fmt.Printf("[%d] %d\n", j.JobID, leader.pid)
		}
		return 0
	}

	return r.waitForeground(pgid, children)

}

// waitForeground hands the controlling terminal to pgid, waits on each
// spawned child in pipeline order per spec.md §4.F, and reclaims the
// terminal/termios before returning. The last child's classification is
// the command's exit code.
func (r *Runner) waitForeground(pgid int, children []spawnedChild) int {

	trm, capErr := r.Term.CaptureCurrent()

	if err := r.Term.HandToForeground(pgid); err != nil {
		r.Log.WithError(err).Debug("tcsetpgrp to child pgid failed")
	}

	exitCode := 0

	for _, c := range children {

		state, err := reaper.Wait(c.pid, func(s job.ExitState) {
			if j := r.Registry.LookupByPid(c.pid); j != nil {
				j.ExitState = s
			}
			if j := r.Registry.LookupByPid(c.pid); j != nil {
				fmt.Fprintf(os.Stderr, "[%d] %s(%d) stopped\n", j.JobID, c.argv0, c.pid)
			}
		})

		if err != nil {
			fmt.Fprintf(os.Stderr, "ebash: wait: %s\n", err)
			exitCode = 1
			continue
		}

		switch state.State {

		case job.Exited:
			exitCode = state.Code
			r.Registry.Remove(c.pid)

		case job.Signaled:
			// spec.md §4.F: "WIFSIGNALED: print exited due to signal …,
			// record exit = -1".
			exitCode = -1
			fmt.Fprintf(os.Stderr, "exited due to signal %d\n", state.Signal)
			r.Registry.Remove(c.pid)

		case job.Stopped:
			exitCode = 0
			if j := r.Registry.LookupByPid(c.pid); j != nil {
				j.ExitState = state
			}

		}

	}

	if err := r.Term.ReclaimForeground(); err != nil {
		r.Log.WithError(err).Debug("tcsetpgrp reclaim failed")
	}
	if capErr == nil {
		if err := r.Term.Restore(trm); err != nil {
			r.Log.WithError(err).Debug("tcsetattr restore failed")
		}
	}

	return exitCode

}

// clearPendingExitUnless resets the exit-confirmation flag (spec.md §4.H:
// "any non-exit command clears the pending-exit flag") unless the
// subcommand that just ran was itself `exit`.
func (r *Runner) clearPendingExitUnless(name string) {
	if name != "exit" {
		r.JobCtl.ClearPendingExit()
	}
}

// maybeReapBackground probes every still-active background job with a
// non-blocking waitpid every ReapAfterPipelines completed commands
// (SPEC_FULL.md §5.3), so `jobs`/the prompt's job count don't lag an
// exited background job by an unbounded number of commands even when
// it's never brought to the foreground or listed explicitly.
func (r *Runner) maybeReapBackground() {

	if r.ReapAfterPipelines <= 0 {
		return
	}

	r.pipelinesSinceReap++
	if r.pipelinesSinceReap < r.ReapAfterPipelines {
		return
	}
	r.pipelinesSinceReap = 0

	for _, j := range r.Registry.IterInOrder() {
		if !j.Background || !j.Active() {
			continue
		}
		state, ok, err := reaper.Probe(j.Pid)
		if err != nil || !ok {
			continue
		}
		j.ExitState = state
		if state.State == job.Exited || state.State == job.Signaled {
			fmt.Fprintf(os.Stderr, "[%d] + done %s\n", j.JobID, j.Cmd)
			r.Registry.Remove(j.Pid)
		}
	}

}

// Shutdown implements spec.md §4.J: escalate signals against every
// tracked job's process group before the shell terminates.
func (r *Runner) Shutdown() {

	jobs := r.Registry.IterInOrder()

	for _, j := range jobs {
		if !j.Background {
			_ = syscall.Kill(-j.Pgid, syscall.SIGCONT)
		}
	}
	for _, j := range jobs {
		_ = syscall.Kill(-j.Pgid, syscall.SIGHUP)
	}
	for _, j := range jobs {
		_ = syscall.Kill(-j.Pgid, syscall.SIGTERM)
	}

	if len(jobs) > 0 {
		time.Sleep(r.ShutdownGrace)
	}

	for _, j := range jobs {
		if err := syscall.Kill(-j.Pgid, 0); err == nil {
			_ = syscall.Kill(-j.Pgid, syscall.SIGKILL)
		}
	}

}

// resolveStdout returns the *os.File a builtin should write to: the
// planner's fd-1 rewiring if one exists (this subcommand's output was
// piped or redirected), otherwise the shell's own stdout.
func resolveStdout(sub command.Subcommand) *os.File {
	for _, rw := range sub.Rewirings {
		if rw.Target == 1 {
			return os.NewFile(uintptr(rw.Source), "stdout")
		}
	}
	return os.Stdout
}
