// Package term owns the policy for who holds the controlling terminal's
// foreground process group and what termios is active across pipeline
// execution (specification component G). It is the idiomatic
// golang.org/x/sys/unix equivalent of driusan-gosh's raw
// syscall.RawSyscall(SYS_IOCTL, ..., TIOCSPGRP, ...) calls and
// github.com/pkg/term's raw-mode handling (see other_examples,
// 63ee10d5_driusan-gosh__main.go.go) — reimplemented against the library
// instead of hand-rolled syscall numbers.
package term

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Controller mediates tcsetpgrp/termios access to a single controlling
// terminal fd (ordinarily os.Stdin's fd, 0).
type Controller struct {
	fd             int
	defaultTermios *unix.Termios
	shellPgid      int
}

// New captures the terminal's current termios as the shell's default
// (spec.md §3: "default termios (captured at startup)") and records the
// shell's own process group so foreground can always be handed back to it.
func New(fd int) (*Controller, error) {

	def, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return nil, fmt.Errorf("ebash: term: tcgetattr: %w", err)
	}

	pgid, err := unix.Getpgid(os.Getpid())
	if err != nil {
		return nil, fmt.Errorf("ebash: term: getpgid: %w", err)
	}

	return &Controller{fd: fd, defaultTermios: def, shellPgid: pgid}, nil
}

// DefaultTermios returns the termios captured at startup.
func (c *Controller) DefaultTermios() *unix.Termios {
	return c.defaultTermios
}

// CaptureCurrent snapshots the terminal's current termios, to be restored
// later via Restore — done once per run_command call (not just at
// startup) so nested execution restores the caller's state, per spec.md
// §4.G's scoping note.
func (c *Controller) CaptureCurrent() (*unix.Termios, error) {
	t, err := unix.IoctlGetTermios(c.fd, unix.TCGETS)
	if err != nil {
		return nil, fmt.Errorf("ebash: term: tcgetattr: %w", err)
	}
	return t, nil
}

// Restore applies t to the terminal.
func (c *Controller) Restore(t *unix.Termios) error {
	if err := unix.IoctlSetTermios(c.fd, unix.TCSETS, t); err != nil {
		return fmt.Errorf("ebash: term: tcsetattr: %w", err)
	}
	return nil
}

// HandToForeground gives pgid ownership of the controlling terminal's
// foreground process group — the window invariant 1 (spec.md §3) opens
// around a foreground pipeline.
func (c *Controller) HandToForeground(pgid int) error {
	if err := unix.IoctlSetInt(c.fd, unix.TIOCSPGRP, pgid); err != nil {
		return fmt.Errorf("ebash: term: tcsetpgrp(%d): %w", pgid, err)
	}
	return nil
}

// ReclaimForeground hands the controlling terminal's foreground process
// group back to the shell's own pgid, closing the window opened by
// HandToForeground.
func (c *Controller) ReclaimForeground() error {
	return c.HandToForeground(c.shellPgid)
}

// ForegroundPgid reports which process group currently owns the
// controlling terminal's foreground (the property invariant 1 of spec.md
// §3 is about).
func (c *Controller) ForegroundPgid() (int, error) {
	pgid, err := unix.IoctlGetInt(c.fd, unix.TIOCGPGRP)
	if err != nil {
		return 0, fmt.Errorf("ebash: term: tcgetpgrp: %w", err)
	}
	return pgid, nil
}

// ShellPgid returns the shell process's own process group id.
func (c *Controller) ShellPgid() int {
	return c.shellPgid
}
