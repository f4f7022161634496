package plan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"ebash/internal/command"
	"ebash/internal/fdset"
	"ebash/internal/token"
)

func tok(s string) token.Token { return token.Token{Kind: token.Bare, Text: s} }

func TestBuildPipeRewiresBothEnds(t *testing.T) {
	cmd := &command.Command{
		Subcommands: []command.Subcommand{
			{
				Args:         []token.Token{tok("echo"), tok("hi")},
				Redirections: []command.Redirection{{Kind: command.Pipe, Fd: 1}},
			},
			{Args: []token.Token{tok("cat")}},
		},
	}

	c := fdset.New()
	defer c.Collect()

	require.NoError(t, Build(cmd, c))
	require.Len(t, cmd.Subcommands[0].Rewirings, 1)
	require.Equal(t, 1, cmd.Subcommands[0].Rewirings[0].Target)
	require.Len(t, cmd.Subcommands[1].Rewirings, 1)
	require.Equal(t, 0, cmd.Subcommands[1].Rewirings[0].Target)
	require.Equal(t, 2, c.Len())
}

func TestBuildFileRedirections(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.txt")
	out := filepath.Join(dir, "out.txt")
	require.NoError(t, os.WriteFile(in, []byte("data"), 0644))

	cmd := &command.Command{
		Subcommands: []command.Subcommand{
			{
				Args: []token.Token{tok("sort")},
				Redirections: []command.Redirection{
					{Kind: command.FileRead, Fd: 0, Path: tok(in)},
					{Kind: command.FileWrite, Fd: 1, Path: tok(out)},
				},
			},
		},
	}

	c := fdset.New()
	defer c.Collect()

	require.NoError(t, Build(cmd, c))
	require.Len(t, cmd.Subcommands[0].Rewirings, 2)
	require.Equal(t, 2, c.Len())

	_, err := os.Stat(out)
	require.NoError(t, err)
}

func TestBuildOpenFailureLeavesNoFdsUntracked(t *testing.T) {
	cmd := &command.Command{
		Subcommands: []command.Subcommand{
			{
				Args: []token.Token{tok("cat")},
				Redirections: []command.Redirection{
					{Kind: command.FileRead, Fd: 0, Path: tok("/no/such/path/at/all")},
				},
			},
		},
	}

	c := fdset.New()
	defer c.Collect()

	err := Build(cmd, c)
	require.Error(t, err)
	require.Equal(t, 0, c.Len())
}
