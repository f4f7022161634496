package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ebash/internal/command"
)

func TestParseEmptyYieldsNoCommands(t *testing.T) {
	cmds, cont, err := Parse("")
	require.NoError(t, err)
	require.Equal(t, None, cont)
	require.Empty(t, cmds)
}

func TestParseCommentOnlyYieldsNoCommands(t *testing.T) {
	cmds, cont, err := Parse("   # nothing to see here")
	require.NoError(t, err)
	require.Equal(t, None, cont)
	require.Empty(t, cmds)
}

func TestParseTrailingPipeRequestsContinuation(t *testing.T) {
	_, cont, err := Parse("echo a |")
	require.NoError(t, err)
	require.Equal(t, PipeContinuation, cont)
}

func TestParseUnterminatedQuotesRequestContinuation(t *testing.T) {
	_, cont, err := Parse(`echo "hello`)
	require.NoError(t, err)
	require.Equal(t, DoubleQuoted, cont)

	_, cont, err = Parse(`echo 'hello`)
	require.NoError(t, err)
	require.Equal(t, SingleQuoted, cont)
}

func TestParsePipeline(t *testing.T) {
	cmds, cont, err := Parse("echo hello | tr a b")
	require.NoError(t, err)
	require.Equal(t, None, cont)
	require.Len(t, cmds, 1)
	require.Len(t, cmds[0].Subcommands, 2)
	require.Equal(t, command.Pipe, cmds[0].Subcommands[0].Redirections[0].Kind)
}

func TestParseShortCircuitChain(t *testing.T) {
	cmds, _, err := Parse("true && echo ok && false && echo skip")
	require.NoError(t, err)
	require.Len(t, cmds, 4)
	require.True(t, cmds[0].Attributes.Has(command.ShortCircuitOnFailure))
	require.True(t, cmds[2].Attributes.Has(command.ShortCircuitOnFailure))
	require.False(t, cmds[3].Attributes.Has(command.ShortCircuitOnFailure))
}

func TestParseSemicolonSequencingIsUnconditional(t *testing.T) {
	cmds, _, err := Parse("false && echo nope ; echo yes")
	require.NoError(t, err)
	require.Len(t, cmds, 2)
	require.False(t, cmds[1].Attributes.Has(command.ShortCircuitOnFailure))
}

func TestParseDoublePipeIsRejected(t *testing.T) {
	_, _, err := Parse("true || echo no")
	require.Error(t, err)
}

func TestParseBackgroundAttribute(t *testing.T) {
	cmds, _, err := Parse("sleep 5 &")
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	require.True(t, cmds[0].Attributes.Has(command.InBackground))
	require.Equal(t, "sleep", cmds[0].Subcommands[0].Args[0].Text)
}

func TestParseRedirections(t *testing.T) {
	cmds, _, err := Parse("sort < in.txt > out.txt")
	require.NoError(t, err)
	require.Len(t, cmds[0].Subcommands, 1)
	require.Len(t, cmds[0].Subcommands[0].Redirections, 2)
}

func TestParseQuotedTokensPassThroughLiterally(t *testing.T) {
	cmds, _, err := Parse(`echo '$HOME' "*.go"`)
	require.NoError(t, err)
	args := cmds[0].Subcommands[0].Args
	require.Len(t, args, 3)
	require.True(t, args[1].Quoted())
	require.True(t, args[2].Quoted())
}
