// Package spawner implements the Process Spawner (component D): for one
// external subcommand it forks a child that applies the planner's
// rewirings and execs the target program (builtins are dispatched in the
// shell process by internal/runner and never reach this package). It is
// grounded on internal/external/external.go's
// exec.Cmd-based Execute, generalized from "plumb two *os.File handles"
// to "apply an arbitrary Rewiring list", and switched to the lower-level
// os.StartProcess primitive (rather than exec.Cmd) so the fd mapping
// (ProcAttr.Files) maps directly onto the planner's Rewiring model and so
// process-group join (Setpgid/Pgid) is explicit, matching driusan-gosh's
// syscall.SysProcAttr{Setpgid: true} pattern (other_examples,
// 63ee10d5_driusan-gosh__main.go.go).
//
// Go's fork+exec is a single atomic runtime operation (no user code runs
// between fork and exec), so unlike the specification's literal "child
// reads argv[0], diagnoses ENOENT" narrative, exec setup failures surface
// synchronously to the parent as a Go error. This package reproduces the
// same diagnostic taxonomy (shebang-interpreter detection, directory
// detection, raw error) from the parent side instead — see DESIGN.md.
package spawner

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/term"

	"ebash/internal/command"
)

// colorForcingCommands lists the handful of common tools whose output
// changes appearance when stdout isn't a tty; adapted from the teacher's
// internal/external.Execute, which added "--color=always" for "ls"/"grep"
// so piping or redirecting their output from an interactive session still
// reads the way it looked on screen.
var colorForcingCommands = map[string]struct{}{
	"ls":   {},
	"grep": {},
}

// withForcedColor returns argv, inserting "--color=always" right after
// argv[0] when argv[0] is one of colorForcingCommands and the shell's own
// stdout is a terminal.
func withForcedColor(argv []string) []string {
	if _, ok := colorForcingCommands[argv[0]]; !ok {
		return argv
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return argv
	}
	out := make([]string, 0, len(argv)+1)
	out = append(out, argv[0], "--color=always")
	out = append(out, argv[1:]...)
	return out
}

// Result is what a successful fork leaves the caller with.
type Result struct {
	Pid int
}

// ExecFailure is returned when the fork succeeds in Go's bookkeeping sense
// but the target program could not actually be execed — i.e. everything
// spec.md §4.D's "Any failure in the child exits with 126" covers. It has
// no exit-code field: internal/runner yields 126 for any Spawn error.
type ExecFailure struct {
	Argv0   string
	Message string
}

func (e *ExecFailure) Error() string {
	return fmt.Sprintf("ebash: %s: %s", e.Argv0, e.Message)
}

// Spawn forks a child for argv, with standard fds 0/1/2 defaulting to
// os.Stdin/os.Stdout/os.Stderr and then overridden by rewirings (whose
// Target is always 0 or 1 in this shell — redirecting fd 2 is not part of
// the supported grammar). pgid == 0 means "this subcommand becomes the
// pipeline leader and its own process group"; pgid != 0 means "join that
// existing process group" (both the child and, per spec.md §4.D, the
// parent issue the setpgid call — see spawner.Spawn's caller in
// internal/runner, which performs the redundant parent-side call).
func Spawn(argv []string, rewirings []command.Rewiring, pgid int, dir string) (*Result, error) {

	if len(argv) == 0 {
		return nil, fmt.Errorf("ebash: spawn: empty argv")
	}

	argv = withForcedColor(argv)

	path, lookupErr := resolvePath(argv[0])
	if lookupErr != nil {
		return nil, &ExecFailure{Argv0: argv[0], Message: lookupErr.Error()}
	}

	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return nil, &ExecFailure{Argv0: argv[0], Message: "Is a directory"}
	}

	files := [3]*os.File{os.Stdin, os.Stdout, os.Stderr}
	for _, rw := range rewirings {
		if rw.Target < 0 || rw.Target > 2 {
			continue
		}
		files[rw.Target] = os.NewFile(uintptr(rw.Source), fmt.Sprintf("fd%d", rw.Source))
	}

	attr := &os.ProcAttr{
		Dir:   dir,
		Env:   os.Environ(),
		Files: []*os.File{files[0], files[1], files[2]},
		Sys: &syscall.SysProcAttr{
			Setpgid: true,
			Pgid:    pgid,
		},
	}

	process, err := os.StartProcess(path, argv, attr)
	if err != nil {
		return nil, diagnoseExecFailure(argv[0], path, err)
	}

	return &Result{Pid: process.Pid}, nil
}

// resolvePath replicates execvp's search semantics: a name containing a
// slash is used directly; otherwise each PATH entry is tried in order.
func resolvePath(name string) (string, error) {

	if strings.Contains(name, "/") {
		if _, err := os.Stat(name); err != nil {
			return "", fmt.Errorf("No such file or directory")
		}
		return name, nil
	}

	pathEnv := os.Getenv("PATH")
	for _, dir := range strings.Split(pathEnv, ":") {
		if dir == "" {
			dir = "."
		}
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("command not found")
}

// diagnoseExecFailure reproduces spec.md §4.D's ENOENT handling: read the
// first 256 bytes of the resolved path and, if it begins with "#!", report
// the missing interpreter named there instead of the generic error.
func diagnoseExecFailure(argv0, resolvedPath string, err error) error {

	if !errors.Is(err, syscall.ENOENT) && !errors.Is(err, os.ErrNotExist) {
		return &ExecFailure{Argv0: argv0, Message: err.Error()}
	}

	f, openErr := os.Open(resolvedPath)
	if openErr != nil {
		return &ExecFailure{Argv0: argv0, Message: err.Error()}
	}
	defer f.Close()

	buf := make([]byte, 256)
	n, _ := f.Read(buf)
	buf = buf[:n]

	if bytes.HasPrefix(buf, []byte("#!")) {
		line, _, _ := bytes.Cut(buf[2:], []byte("\n"))
		interpreter := strings.Fields(string(line))
		if len(interpreter) > 0 {
			return &ExecFailure{Argv0: interpreter[0], Message: "No such file or directory"}
		}
	}

	return &ExecFailure{Argv0: argv0, Message: err.Error()}
}
