// Package command holds the shared data model that flows from the parser
// through expansion, planning, spawning and the runner: Token-level
// redirections, subcommands, and the attribute bits a full command line
// carries (background, short-circuit).
package command

import "ebash/internal/token"

// RedirKind identifies what kind of fd rewiring a Redirection describes.
type RedirKind int

const (
	Pipe RedirKind = iota
	FileRead
	FileWrite
	FileWriteAppend
)

// Redirection is parser output: a request to replace fd Fd in the child
// with something derived from Path (unused when Kind is Pipe, in which
// case the Planner derives the fd from subcommand adjacency instead).
type Redirection struct {
	Kind RedirKind
	Fd   int
	Path token.Token
}

// Rewiring is planner output: Source must be dup2'd onto Target in the
// child before execvp, then closed.
type Rewiring struct {
	Target int
	Source int
}

// Subcommand is one element of a pipeline: its raw argument tokens (still
// unexpanded), the redirections the parser attached to it, and the
// rewirings the Planner derives from those redirections plus pipe
// adjacency. Rewirings is empty until internal/plan.Build runs.
type Subcommand struct {
	Args         []token.Token
	Redirections []Redirection
	Rewirings    []Rewiring
}

// Attr is a bitset of command-level attributes.
type Attr uint8

const (
	InBackground Attr = 1 << iota
	ShortCircuitOnFailure
)

// Has reports whether bit is set in a.
func (a Attr) Has(bit Attr) bool { return a&bit != 0 }

// Command is one conditionally-executed pipeline: a sequence of
// subcommands connected by pipes, plus the attribute bits controlling how
// the Runner schedules it relative to its neighbors in the command list.
type Command struct {
	Subcommands []Subcommand
	Attributes  Attr
}

// Empty reports whether the command has no subcommands (e.g. the user
// typed only whitespace, or a lone ';'/comment).
func (c Command) Empty() bool { return len(c.Subcommands) == 0 }
