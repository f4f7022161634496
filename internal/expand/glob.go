package expand

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// expandGlob handles stage 3 of the pipeline (spec.md §4.B): a fragment
// containing '*' or '?' is expanded against the filesystem, segment by
// segment, suppressing dotfiles unless the matching pattern segment itself
// begins with '.'. If no match is produced the original fragment is kept
// verbatim (nullglob is off). This generalizes driusan-gosh's one-shot
// filepath.Glob(token) call (other_examples,
// 63ee10d5_driusan-gosh__main.go.go) into the segment-recursive,
// dotfile-aware matcher the specification requires; per-segment leaf
// matching still uses stdlib path/filepath.Match, since no third-party
// glob library appears anywhere in the retrieved corpus.
func expandGlob(fragment string) []string {
	matches := glob(fragment)
	if len(matches) == 0 {
		return []string{fragment}
	}
	sort.Strings(matches)
	return matches
}

func glob(fragment string) []string {

	if !strings.ContainsAny(fragment, "*?") {
		return nil
	}

	absolute := strings.HasPrefix(fragment, "/")
	segments := strings.Split(fragment, "/")

	base := "."
	if absolute {
		base = "/"
		segments = segments[1:]
	}

	// Empty segments (from "//" or a trailing "/") are skipped by walkGlob.
	var out []string
	for _, path := range walkGlob(base, segments) {
		out = append(out, path)
	}
	return out
}

func walkGlob(base string, segments []string) []string {

	if len(segments) == 0 {
		return []string{base}
	}

	seg := segments[0]
	rest := segments[1:]

	if seg == "" {
		return walkGlob(base, rest)
	}

	if !strings.ContainsAny(seg, "*?") {
		next := joinSegment(base, seg)
		if len(rest) == 0 {
			if _, err := os.Lstat(next); err == nil {
				return []string{next}
			}
			return nil
		}
		return walkGlob(next, rest)
	}

	entries, err := os.ReadDir(base)
	if err != nil {
		return nil
	}

	var matches []string
	for _, entry := range entries {
		name := entry.Name()

		if strings.HasPrefix(name, ".") && !strings.HasPrefix(seg, ".") {
			continue
		}

		ok, err := filepath.Match(seg, name)
		if err != nil || !ok {
			continue
		}

		next := joinSegment(base, name)
		if len(rest) == 0 {
			matches = append(matches, next)
		} else {
			matches = append(matches, walkGlob(next, rest)...)
		}
	}

	return matches
}

func joinSegment(base, name string) string {
	switch base {
	case ".":
		return name
	case "/":
		return "/" + name
	default:
		return base + "/" + name
	}
}
