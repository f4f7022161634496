// Package prompt builds the interactive shell prompt string: the current
// working directory (abbreviated with ~ for home) styled through a
// painter.Painter, optionally annotated with the last command's return
// code and the number of active (running or stopped) jobs (SPEC_FULL.md's job-aware
// prompt supplement).
package prompt

import (
	"fmt"
	"os"
	"strings"

	"ebash/internal/painter"
)

const DefaultPrompt = "$ "

// State carries the dynamic, per-line values the prompt may display
// alongside the working directory.
type State struct {
	LastReturnCode int
	ActiveJobCount int
	ShowReturnCode bool
	ShowJobCount   bool
}

// Update returns the prompt string to be displayed to the user. The prompt
// shows any requested status segments from st, followed by the current
// working directory (with the home directory abbreviated as `~` when
// applicable) styled via p. If the working directory cannot be determined,
// DefaultPrompt is returned.
func Update(p painter.Painter, st State) string {

	currPath, err := os.Getwd()
	if err != nil {
		return DefaultPrompt
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = ""
	}

	promptPath := currPath
	if homeDir != "" && strings.HasPrefix(currPath, homeDir) {
		promptPath = "~" + strings.TrimPrefix(currPath, homeDir)
	}

	var segments []string
	if st.ShowJobCount && st.ActiveJobCount > 0 {
		segments = append(segments, fmt.Sprintf("jobs:%d", st.ActiveJobCount))
	}
	if st.ShowReturnCode && st.LastReturnCode != 0 {
		segments = append(segments, fmt.Sprintf("%d", st.LastReturnCode))
	}

	status := ""
	if len(segments) > 0 {
		status = "[" + strings.Join(segments, " ") + "] "
	}

	return status + p.Paint(p.PathBold, p.PathColour, promptPath) + " $ "

}
