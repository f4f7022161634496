// Package parser turns one (possibly multi-line) piece of shell input into
// the command.Command list the Runner executes. It is the external
// collaborator named in the specification: its own correctness is not a
// focus of this module's testable properties, but it must produce the
// token/command shapes internal/expand, internal/plan and internal/runner
// are built against, including the continuation-state signal that lets the
// outer read loop accumulate unterminated quotes and trailing pipes across
// physical lines.
package parser

import (
	"fmt"

	"ebash/internal/command"
	"ebash/internal/token"
)

// Continuation is the state returned when a parse is incomplete: the
// caller should read another physical line, append it (with a newline) to
// the original input, and re-parse.
type Continuation int

const (
	// None means the parse is complete and the returned commands can run.
	None Continuation = iota
	// PipeContinuation means the input ends in a trailing '|'.
	PipeContinuation
	// SingleQuoted means the input ends inside an open single-quote run.
	SingleQuoted
	// DoubleQuoted means the input ends inside an open double-quote run.
	DoubleQuoted
)

// Parse lexes and parses line into a command list. On a complete parse it
// returns the commands and Continuation == None. On an incomplete parse
// (trailing pipe or unterminated quote) it returns a non-None Continuation
// and a nil command list; the caller is expected to gather more input and
// call Parse again on the concatenated line.
func Parse(line string) ([]command.Command, Continuation, error) {

	tokens := Lex(line)

	if cont := continuationOf(tokens); cont != None {
		return nil, cont, nil
	}

	cmds, err := build(tokens)
	if err != nil {
		return nil, None, err
	}

	return cmds, None, nil
}

// continuationOf inspects the trailing tokens of a lexed line for the two
// signals that mean "this line isn't finished yet": an unterminated quote
// anywhere, or a trailing, unpaired pipe operator.
func continuationOf(tokens []token.Token) Continuation {

	for _, t := range tokens {
		switch t.Kind {
		case token.UnterminatedSingleQuoted:
			return SingleQuoted
		case token.UnterminatedDoubleQuoted:
			return DoubleQuoted
		}
	}

	// A trailing '|' with nothing meaningful after it (only whitespace,
	// which the lexer has already discarded, or nothing at all) means the
	// pipeline is incomplete.
	last := lastSignificant(tokens)
	if last != nil && last.Kind == token.Special && last.Text == "|" {
		return PipeContinuation
	}

	return None
}

func lastSignificant(tokens []token.Token) *token.Token {
	for i := len(tokens) - 1; i >= 0; i-- {
		if tokens[i].Kind == token.Comment {
			continue
		}
		return &tokens[i]
	}
	return nil
}

// build converts a complete token stream into the Command list. Tokens are
// first split on top-level ';' into unconditional segments; each segment is
// then split on top-level "&&" into a short-circuit chain; each chain
// element is finally split on '|' into a pipeline of subcommands. '||' is
// rejected: this shell implements '&&' short-circuiting only (see
// SPEC_FULL.md §4.I).
func build(tokens []token.Token) ([]command.Command, error) {

	if containsSpecial(tokens, "||") {
		return nil, fmt.Errorf("ebash: parse: '||' is not supported")
	}

	var commands []command.Command

	for _, stmt := range splitOn(tokens, ";") {

		chain := splitOn(stmt, "&&")

		for i, link := range chain {

			cmd, err := buildCommand(link)
			if err != nil {
				return nil, err
			}
			if cmd.Empty() {
				continue
			}

			if i < len(chain)-1 {
				cmd.Attributes |= command.ShortCircuitOnFailure
			}

			commands = append(commands, cmd)

		}

	}

	return commands, nil
}

func containsSpecial(tokens []token.Token, text string) bool {
	for _, t := range tokens {
		if t.Kind == token.Special && t.Text == text {
			return true
		}
	}
	return false
}

// splitOn splits tokens on every top-level Special token whose text equals
// op, dropping the operator tokens themselves.
func splitOn(tokens []token.Token, op string) [][]token.Token {

	var groups [][]token.Token
	var current []token.Token

	for _, t := range tokens {
		if t.Kind == token.Special && t.Text == op {
			groups = append(groups, current)
			current = nil
			continue
		}
		current = append(current, t)
	}
	groups = append(groups, current)

	return groups
}

// buildCommand parses one "&&"/";"-delimited chain element: a pipeline of
// one or more subcommands joined by '|', with an optional trailing '&' for
// background execution and optional leading '<'/trailing '>'/'>>'
// redirection.
func buildCommand(tokens []token.Token) (command.Command, error) {

	tokens, background := stripTrailingBackground(tokens)

	sections := splitOn(tokens, "|")

	var subcommands []command.Subcommand

	for i, section := range sections {

		section = stripComments(section)
		if len(section) == 0 {
			continue
		}

		sub, err := buildSubcommand(section, i == 0, i == len(sections)-1)
		if err != nil {
			return command.Command{}, err
		}
		if len(sub.Args) == 0 {
			continue
		}

		subcommands = append(subcommands, sub)

	}

	for i := range subcommands {
		if i < len(subcommands)-1 {
			subcommands[i].Redirections = append(subcommands[i].Redirections, command.Redirection{
				Kind: command.Pipe,
				Fd:   1,
			})
		}
	}

	var attrs command.Attr
	if background {
		attrs |= command.InBackground
	}

	return command.Command{Subcommands: subcommands, Attributes: attrs}, nil
}

func stripComments(tokens []token.Token) []token.Token {
	var out []token.Token
	for _, t := range tokens {
		if t.Kind == token.Comment {
			break
		}
		out = append(out, t)
	}
	return out
}

func stripTrailingBackground(tokens []token.Token) ([]token.Token, bool) {
	last := lastSignificant(tokens)
	if last == nil || last.Kind != token.Special || last.Text != "&" {
		return tokens, false
	}
	trimmed := make([]token.Token, 0, len(tokens))
	dropped := false
	for _, t := range tokens {
		if !dropped && t.Kind == token.Special && t.Text == "&" && sameToken(t, *last) {
			dropped = true
			continue
		}
		trimmed = append(trimmed, t)
	}
	return trimmed, true
}

func sameToken(a, b token.Token) bool {
	return a.Kind == b.Kind && a.Text == b.Text
}

// buildSubcommand turns the tokens of one pipe segment into a Subcommand.
// Input redirection ('<') is only honored when first is true; output
// redirection ('>'/'>>') is only honored when last is true — matching
// ordinary shell semantics (and the teacher's buildSection behavior).
func buildSubcommand(tokens []token.Token, first, last bool) (command.Subcommand, error) {

	var sub command.Subcommand
	var args []token.Token

	for i := 0; i < len(tokens); i++ {

		t := tokens[i]

		if t.Kind != token.Special {
			args = append(args, t)
			continue
		}

		switch t.Text {
		case "<":
			if !first || i+1 >= len(tokens) {
				return command.Subcommand{}, fmt.Errorf("ebash: parse: '<' with no following path")
			}
			sub.Redirections = append(sub.Redirections, command.Redirection{Kind: command.FileRead, Fd: 0, Path: tokens[i+1]})
			i++
		case ">":
			if !last || i+1 >= len(tokens) {
				return command.Subcommand{}, fmt.Errorf("ebash: parse: '>' with no following path")
			}
			sub.Redirections = append(sub.Redirections, command.Redirection{Kind: command.FileWrite, Fd: 1, Path: tokens[i+1]})
			i++
		case ">>":
			if !last || i+1 >= len(tokens) {
				return command.Subcommand{}, fmt.Errorf("ebash: parse: '>>' with no following path")
			}
			sub.Redirections = append(sub.Redirections, command.Redirection{Kind: command.FileWriteAppend, Fd: 1, Path: tokens[i+1]})
			i++
		default:
			return command.Subcommand{}, fmt.Errorf("ebash: parse: unexpected token %q", t.Text)
		}

	}

	sub.Args = args

	return sub, nil
}
