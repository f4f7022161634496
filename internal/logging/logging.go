// Package logging configures the shell's internal diagnostic logger
// (SPEC_FULL.md §5.1), which internal/runner uses for Debug-level notes on
// failed terminal handoff and termios restore, via
// github.com/sirupsen/logrus (adopted from
// canonical-lxd's logging stack, go.mod). This is strictly additive,
// off-path-by-default structured logging — it never replaces the
// user-facing stderr error taxonomy produced directly by builtins,
// spawner, and the runner, which must stay exactly as specified for
// spec.md §7/§8's testable stderr-format properties.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a logrus.FieldLogger writing to stderr, at Debug level when
// debug is true and Warn level otherwise (quiet by default).
func New(debug bool) *logrus.Logger {
	log := logrus.New()
	log.Out = os.Stderr
	log.Formatter = &logrus.TextFormatter{DisableColors: true, FullTimestamp: true}
	if debug {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.WarnLevel)
	}
	return log
}
