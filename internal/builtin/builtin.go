// Package builtin implements the shell builtins that do not spawn a
// process: cd, pwd, echo, kill, ps and time (§6.3's CLI surface minus the
// job-control commands, which live in jobctl.go alongside the job
// registry they operate on). Kept in the teacher's error-message style
// ("ebash: name: ...", fmt.Errorf-wrapped, perror'd to stderr by the
// caller) from internal/builtin/builtin.go.
package builtin

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"syscall"
	"time"

	ps "github.com/mitchellh/go-ps"
)

// Names is the set of builtins recognized by internal/runner, preserved
// from the teacher's Shell.builtins map and extended with the job-control
// surface (component H).
var Names = map[string]struct{}{
	"cd":     {},
	"pwd":    {},
	"echo":   {},
	"kill":   {},
	"ps":     {},
	"time":   {},
	"fg":     {},
	"bg":     {},
	"jobs":   {},
	"disown": {},
	"exit":   {},
}

// IsBuiltin reports whether name is a recognized builtin command.
func IsBuiltin(name string) bool {
	_, ok := Names[name]
	return ok
}

// Execute runs a non-job-control builtin and returns its exit code. stdout
// is whatever the Planner rewired subcommand fd 1 to, or os.Stdout if
// unredirected.
func Execute(argv []string, stdout io.Writer) (int, error) {

	switch argv[0] {
	case "cd":
		return runBuiltin(changeDirectory(argv))
	case "pwd":
		return runBuiltin(printWorkingDirectory(stdout))
	case "echo":
		return runBuiltin(echo(argv, stdout))
	case "kill":
		return runBuiltin(kill(argv))
	case "ps":
		return runBuiltin(processStatus(stdout))
	}

	return 0, fmt.Errorf("ebash: %s: not a recognized non-process builtin", argv[0])
}

func runBuiltin(err error) (int, error) {
	if err != nil {
		return 1, err
	}
	return 0, nil
}

// changeDirectory changes the current working directory, recording
// OLDPWD/PWD the way the shell's `cd -` support (spec.md §8) depends on.
func changeDirectory(argv []string) error {

	var dir string

	switch {
	case len(argv) == 1:
		dir = os.Getenv("HOME")
	case argv[1] == "~":
		dir = os.Getenv("HOME")
	case argv[1] == "-":
		dir = os.Getenv("OLDPWD")
		if dir == "" {
			return fmt.Errorf("ebash: cd: OLDPWD not set")
		}
	case len(argv) > 2:
		return fmt.Errorf("ebash: cd: too many arguments")
	default:
		dir = argv[1]
	}

	old, _ := os.Getwd()

	if err := os.Chdir(dir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("ebash: cd: %s: Not a directory", dir)
		}
		return fmt.Errorf("ebash: cd: %w", err)
	}

	if newDir, err := os.Getwd(); err == nil {
		os.Setenv("OLDPWD", old)
		os.Setenv("PWD", newDir)
	}

	return nil
}

// printWorkingDirectory writes the current working directory path to the
// provided writer.
func printWorkingDirectory(writer io.Writer) error {
	dir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("ebash: pwd: failed to get absolute path name: %w", err)
	}
	if _, err := fmt.Fprintln(writer, dir); err != nil {
		return fmt.Errorf("ebash: pwd: write operation failed: %w", err)
	}
	return nil
}

// echo prints the command arguments (excluding the command itself) to the
// provided writer, joined by spaces, followed by a newline.
func echo(argv []string, writer io.Writer) error {
	if _, err := fmt.Fprintln(writer, strings.Join(argv[1:], " ")); err != nil {
		return fmt.Errorf("ebash: echo: write operation failed: %w", err)
	}
	return nil
}

// kill sends SIGTERM to the process whose PID is specified by the first
// argument in argv.
func kill(argv []string) error {

	if len(argv) < 2 {
		return fmt.Errorf("kill: usage: kill [-s sigspec | -n signum | -sigspec] pid | jobspec ... or kill -l [sigspec]")
	}

	pid, err := strconv.Atoi(argv[1])
	if err != nil {
		return fmt.Errorf("ebash: kill: %s: arguments must be process or job IDs", argv[1])
	}
	if err := syscall.Kill(pid, syscall.SIGTERM); err != nil {
		return fmt.Errorf("ebash: kill: (%d) - Operation not permitted", pid)
	}

	return nil
}

// processStatus prints a simple ps-like listing of processes attached to
// the same terminal as the current process.
func processStatus(writer io.Writer) error {

	path, re, processes, err := psPrep(writer)
	if err != nil {
		return fmt.Errorf("ebash: ps: %w", err)
	}

	var pid int
	var cmd string

	for _, process := range processes {

		pid = process.Pid()
		cmd = process.Executable()

		link, err := os.Readlink(fmt.Sprintf("/proc/%d/fd/0", pid))
		if err == nil && re.MatchString(link) {
			if _, err = fmt.Fprintf(writer, "%7d pts/%-8s 00:00:00 %s\n", pid, filepath.Base(path), cmd); err != nil {
				return fmt.Errorf("write operation failed: %w", err)
			}
		}

	}

	return nil
}

func psPrep(writer io.Writer) (string, *regexp.Regexp, []ps.Process, error) {

	path, err := os.Readlink("/proc/self/fd/0")
	if err != nil {
		return "", nil, nil, fmt.Errorf("failed to read /proc/self/fd/0: %w", err)
	}

	re := regexp.MustCompile(fmt.Sprintf(`/dev/pts/%s$`, filepath.Base(path)))

	processes, err := ps.Processes()
	if err != nil {
		return "", nil, nil, fmt.Errorf("failed to get process list: %w", err)
	}

	if _, err := fmt.Fprintln(writer, "    PID TTY          TIME CMD"); err != nil {
		return "", nil, nil, fmt.Errorf("write operation failed: %w", err)
	}
	return path, re, processes, nil
}

// Runner is the minimal hook `time` needs back into internal/runner
// without an import cycle: running a single already-expanded subcommand
// to completion and reporting its exit code.
type Runner interface {
	RunOnce(argv []string) (int, error)
}

// ExecuteTime implements the §6.3 `time` builtin by re-entering run for the
// remaining argv and reporting wall-clock elapsed milliseconds to stderr,
// independent of the timed command's own stdout/stderr. It lives apart from
// Execute because `time` recurses into full command execution (builtin
// dispatch, spawn, wait), not just this package's non-process builtins.
func ExecuteTime(argv []string, run Runner) (int, error) {
	if len(argv) < 2 {
		return 1, fmt.Errorf("ebash: time: usage: time command [args...]")
	}
	start := time.Now()
	code, err := run.RunOnce(argv[1:])
	elapsed := time.Since(start)
	fmt.Fprintf(os.Stderr, "\nreal\t%dms\n", elapsed.Milliseconds())
	return code, err
}
