package expand

import (
	"os"
	"os/user"
	"strconv"
	"strings"
)

// expandTilde handles stage 2 of the pipeline (spec.md §4.B): a fragment
// beginning with '~' is resolved to a home directory. "~" or "~/..."
// resolves against $HOME, falling back to the current uid's passwd entry;
// "~user" or "~user/..." resolves against that user's passwd entry. An
// unknown user leaves the fragment untouched — this is grounded on
// driusan-gosh's replaceTilde/homedirRe (other_examples,
// 63ee10d5_driusan-gosh__main.go.go), reimplemented with os/user lookups
// instead of a flat regexp substitution table so "~user" actually resolves
// a real passwd entry rather than only ever expanding bare "~".
func expandTilde(fragment string) string {

	if !strings.HasPrefix(fragment, "~") {
		return fragment
	}

	rest := fragment[1:]

	name, suffix, hasSlash := strings.Cut(rest, "/")
	if !hasSlash {
		name = rest
		suffix = ""
	}

	var home string

	if name == "" {
		if h := os.Getenv("HOME"); h != "" {
			home = h
		} else if u, err := user.LookupId(strconv.Itoa(os.Getuid())); err == nil {
			home = u.HomeDir
		} else {
			return fragment
		}
	} else {
		u, err := user.Lookup(name)
		if err != nil {
			return fragment
		}
		home = u.HomeDir
	}

	if hasSlash {
		return home + "/" + suffix
	}
	return home
}
