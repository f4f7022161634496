// Package ebash contains the core interactive shell loop and orchestration
// logic for the ebash project. It wires together configuration, the
// readline-based terminal, the job registry and terminal controller, the
// command-execution Runner, and signal handling.
package ebash

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/chzyer/readline"

	"ebash/internal/completer"
	"ebash/internal/config"
	"ebash/internal/job"
	"ebash/internal/logging"
	"ebash/internal/painter"
	"ebash/internal/parser"
	"ebash/internal/prompt"
	"ebash/internal/runner"
	"ebash/internal/term"
)

// Shell holds the runtime state of the interactive shell: synchronization
// primitives, channels for signal handling and shutdown, the job registry
// and terminal controller, the command Runner, the readline terminal
// instance, and the accumulated text of a still-incomplete multi-line
// input.
type Shell struct {
	sigCh  chan os.Signal // receives OS signals (e.g. os.Interrupt)
	stopCh chan struct{}  // closed to request shutdown of background goroutines

	cfg       *config.Config
	painter   painter.Painter
	terminal  *readline.Instance
	completer *completer.Completer
	registry  *job.Registry
	termCtl   *term.Controller
	run       *runner.Runner

	pending string // accumulated text of an in-progress multi-line command
}

// Run starts the main interactive loop of the shell. It boots the shell,
// then repeatedly reads lines from the terminal, parses them into command
// lists (accumulating further lines when the parse is incomplete),
// executes those command lists, and updates the prompt. The function
// returns only when EOF is received; the `exit` builtin, once it goes
// through, ends the process from inside the Runner instead.
func Run() {

	shell, err := boot()
	if err != nil {
		panic(err)
	}

	defer shell.exit()

	for {

		shell.completer.Update()
		shell.terminal.Config.AutoComplete = shell.completer

		if shell.pending != "" {
			shell.terminal.SetPrompt("> ")
		} else {
			shell.terminal.SetPrompt(shell.renderPrompt())
		}

		line, err := shell.terminal.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				shell.pending = ""
				continue
			} else if errors.Is(err, io.EOF) {
				return
			}
			panic(err)
		}

		if shell.pending != "" {
			shell.pending += "\n" + line
		} else {
			shell.pending = line
		}

		if strings.TrimSpace(shell.pending) == "" {
			shell.pending = ""
			continue
		}

		cmds, cont, err := parser.Parse(shell.pending)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			shell.pending = ""
			continue
		}

		if cont != parser.None {
			continue // accumulate another physical line
		}

		shell.pending = ""
		shell.run.Execute(cmds)

	}

}

// renderPrompt builds the next prompt string from the shell's painter and
// the runner's current last-return-code/job-count state.
func (shell *Shell) renderPrompt() string {
	active := 0
	for _, j := range shell.registry.IterInOrder() {
		if j.Active() {
			active++
		}
	}
	return prompt.Update(shell.painter, prompt.State{
		LastReturnCode: shell.run.LastReturnCode(),
		ActiveJobCount: active,
		ShowReturnCode: shell.cfg.Prompt.ShowLastReturnCode,
		ShowJobCount:   shell.cfg.Prompt.ShowJobCount,
	})
}

// boot initializes the shell runtime. It loads configuration (falling back
// to defaults on error), creates a readline terminal instance, captures
// the controlling terminal's termios/pgid, builds the job registry and
// command Runner, initializes the prompt painter, and starts the
// interrupt-draining goroutine.
func boot() (*Shell, error) {

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		cfg = config.Default()
	}

	readlineCfg := &readline.Config{
		HistoryFile:     cfg.Terminal.HistoryFile,
		HistoryLimit:    cfg.Terminal.HistoryLimit,
		InterruptPrompt: cfg.Terminal.InterruptPrompt,
		EOFPrompt:       "\n" + cfg.Terminal.EOFPrompt,
	}

	terminal, err := readline.NewEx(readlineCfg)
	if err != nil {
		return nil, fmt.Errorf("ebash: boot: failed to create new terminal instance: %w", err)
	}

	termCtl, err := term.New(int(os.Stdin.Fd()))
	if err != nil {
		return nil, fmt.Errorf("ebash: boot: failed to capture controlling terminal: %w", err)
	}

	registry := job.NewRegistry()
	log := logging.New(cfg.Debug)
	run := runner.New(registry, termCtl, log)
	run.ShutdownGrace = cfg.JobControl.ShutdownGrace
	run.ReapAfterPipelines = cfg.JobControl.ReapAfterPipelines

	shell := &Shell{
		terminal:  terminal,
		sigCh:     make(chan os.Signal, 1),
		stopCh:    make(chan struct{}),
		cfg:       cfg,
		painter:   painter.NewPainter(cfg.Prompt),
		completer: completer.NewCompleter(registry),
		registry:  registry,
		termCtl:   termCtl,
		run:       run,
	}

	signal.Notify(shell.sigCh, os.Interrupt)
	go shell.interruptHandler()

	return shell, nil

}

// interruptHandler listens for OS interrupt signals (SIGINT). Ctrl-C is
// delivered by the terminal driver to the foreground process group, which
// is the running child's pgid while a pipeline is in the foreground
// (spec.md §5's "Cancellation" note) — so there is ordinarily nothing for
// the shell itself to forward. This goroutine exists to drain the signal
// so readline's own SIGINT handling doesn't race with it, and exits when
// stopCh closes.
func (shell *Shell) interruptHandler() {
	for {
		select {
		case <-shell.stopCh:
			return
		case <-shell.sigCh:
		}
	}
}

// exit performs cleanup of the shell runtime: runs the job-control
// shutdown sequence against any still-tracked jobs, stops signal
// delivery, signals the interrupt handler to stop, and closes the
// readline terminal (which flushes history to disk).
func (shell *Shell) exit() {
	shell.run.Shutdown()
	signal.Stop(shell.sigCh)
	close(shell.stopCh)
	_ = shell.terminal.Close()
}
