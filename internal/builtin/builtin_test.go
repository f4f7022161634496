package builtin

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExecutePwdWritesCurrentDirectory(t *testing.T) {
	dir := t.TempDir()
	old, err := os.Getwd()
	require.NoError(t, err)
	defer os.Chdir(old)
	require.NoError(t, os.Chdir(dir))

	wd, err := os.Getwd()
	require.NoError(t, err)

	var buf bytes.Buffer
	code, err := Execute([]string{"pwd"}, &buf)
	require.NoError(t, err)
	require.Equal(t, 0, code)
	require.Equal(t, wd+"\n", buf.String())
}

func TestExecuteEchoJoinsArgsWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	code, err := Execute([]string{"echo", "hello", "world"}, &buf)
	require.NoError(t, err)
	require.Equal(t, 0, code)
	require.Equal(t, "hello world\n", buf.String())
}

func TestExecuteCdToMissingDirectoryFails(t *testing.T) {
	var buf bytes.Buffer
	code, err := Execute([]string{"cd", "/no/such/directory/at/all"}, &buf)
	require.Error(t, err)
	require.Equal(t, 1, code)
}

func TestExecuteCdTracksOldpwd(t *testing.T) {
	old, err := os.Getwd()
	require.NoError(t, err)
	defer os.Chdir(old)

	dir := t.TempDir()
	var buf bytes.Buffer
	code, err := Execute([]string{"cd", dir}, &buf)
	require.NoError(t, err)
	require.Equal(t, 0, code)
	require.Equal(t, old, os.Getenv("OLDPWD"))
}

func TestExecuteKillRejectsNonNumericPid(t *testing.T) {
	var buf bytes.Buffer
	code, err := Execute([]string{"kill", "not-a-pid"}, &buf)
	require.Error(t, err)
	require.Equal(t, 1, code)
}

func TestExecuteUnknownBuiltinErrors(t *testing.T) {
	var buf bytes.Buffer
	_, err := Execute([]string{"fg"}, &buf)
	require.Error(t, err)
}

type fakeRunner struct {
	code int
	err  error
	seen []string
}

func (f *fakeRunner) RunOnce(argv []string) (int, error) {
	f.seen = argv
	return f.code, f.err
}

func TestExecuteTimeRunsRemainingArgv(t *testing.T) {
	fr := &fakeRunner{code: 3}
	code, err := ExecuteTime([]string{"time", "echo", "hi"}, fr)
	require.NoError(t, err)
	require.Equal(t, 3, code)
	require.Equal(t, []string{"echo", "hi"}, fr.seen)
}

func TestExecuteTimeRequiresArgument(t *testing.T) {
	fr := &fakeRunner{}
	_, err := ExecuteTime([]string{"time"}, fr)
	require.Error(t, err)
}
