// Package expand implements the argument expansion pipeline (component B):
// variable expansion, then tilde expansion, then glob expansion, each
// stage feeding fragments to the next in token order. Quoted tokens skip
// all three stages and pass through literally.
package expand

import "ebash/internal/token"

// Context carries the shell state the expansion stages need: the last
// command's return code (for $?) and the shell's own pid (for $$), both
// of which are otherwise process-global and awkward to thread through
// every call site.
type Context struct {
	LastReturnCode int
	Pid            int
}

// Expand turns tokens (one subcommand's raw argument tokens) into a final
// argv, applying variable, tilde, then glob expansion in that order to
// each unquoted token, and skipping all three for quoted tokens — spec.md
// §4.B's ordering and quoting rules.
func Expand(tokens []token.Token, ctx Context) []string {

	var argv []string

	for _, t := range tokens {

		if t.Quoted() {
			argv = append(argv, t.Text)
			continue
		}

		for _, fragment := range expandVariable(t.Text, ctx) {
			fragment = expandTilde(fragment)
			argv = append(argv, expandGlob(fragment)...)
		}

	}

	return argv
}
