// Package fdset provides a scoped owner for file descriptors opened while
// planning and spawning a single command: every fd handed to it is closed
// exactly once when the scope ends, whether that scope ends normally or on
// an error path. This is the systems-language-native replacement for the
// teacher's ad hoc closeDescriptors helper (internal/ebash), generalized
// into a reusable type per specification §4.A/§9.
package fdset

import "os"

// Collector tracks *os.File handles created while building one command's
// execution plan. Add every fd as soon as it is acquired; Collect closes
// everything tracked so far and is safe to call multiple times (e.g. once
// in the parent after fork to shed pipe ends it no longer needs, and again
// at the end of the command to shed anything left over).
type Collector struct {
	files []*os.File
}

// New returns an empty Collector.
func New() *Collector {
	return &Collector{}
}

// Add registers f with the collector. A nil f is ignored so call sites can
// add the result of a fallible open without an extra nil check.
func (c *Collector) Add(f *os.File) {
	if f == nil {
		return
	}
	c.files = append(c.files, f)
}

// Remove drops f from the collector without closing it, for the case where
// ownership of a specific fd has been transferred elsewhere (e.g. handed to
// an exec.Cmd that will close it itself). It is a no-op if f isn't tracked.
func (c *Collector) Remove(f *os.File) {
	for i, tracked := range c.files {
		if tracked == f {
			c.files = append(c.files[:i], c.files[i+1:]...)
			return
		}
	}
}

// Collect closes every tracked fd exactly once and empties the collector.
// It is idempotent: calling it again with nothing left to close is a no-op.
// Close errors are swallowed individually — by the time we're closing a
// planning-time fd there is nothing more useful we can do with the error.
func (c *Collector) Collect() {
	for _, f := range c.files {
		_ = f.Close()
	}
	c.files = nil
}

// Len reports how many fds are currently tracked, used by tests.
func (c *Collector) Len() int {
	return len(c.files)
}
