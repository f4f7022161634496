package expand

import (
	"os"
	"strconv"
	"strings"
)

// expandVariable handles stage 1 of the pipeline: a token beginning with
// '$' is treated as a variable reference and its value is space-split into
// one or more argv fragments (spec.md §4.B). "?" resolves to the last
// command's return code and "$" to the shell's own pid, mirroring the
// special-case handling the teacher's parser.expandEnv already does for
// "$" and "PPID" (generalized here per-token rather than via whole-line
// os.Expand substitution, since expansion must now happen after
// tokenizing/quoting, not before it). A name with no value (including one
// that is simply unset) expands to a single empty fragment. Non-'$' text
// passes through unchanged as a single fragment.
func expandVariable(text string, ctx Context) []string {

	if !strings.HasPrefix(text, "$") {
		return []string{text}
	}

	name := text[1:]

	var value string
	var found bool

	switch name {
	case "?":
		value = strconv.Itoa(ctx.LastReturnCode)
		found = true
	case "$":
		value = strconv.Itoa(ctx.Pid)
		found = true
	default:
		value, found = os.LookupEnv(name)
	}

	if !found || value == "" {
		return []string{""}
	}

	return strings.Split(value, " ")
}
