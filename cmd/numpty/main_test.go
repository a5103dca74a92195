package main

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pconstr/numpty"
)

func parse(t *testing.T, args ...string) (*CLI, *kong.Context) {
	t.Helper()
	cli := &CLI{}
	parser, err := kong.New(cli, kong.Name("numpty"), kong.Exit(func(int) { t.Fatal("unexpected exit") }))
	require.NoError(t, err)
	ctx, err := parser.Parse(args)
	require.NoError(t, err)
	return cli, ctx
}

func TestParseRun(t *testing.T) {
	cli, _ := parse(t, "run", "--cols", "40", "--wait-more", "5ms", "-k", "Right", "-k", ",", "-f", "json", "top", "-d", "1")

	assert.Equal(t, 40, cli.Run.Cols)
	assert.Equal(t, 24, cli.Run.Rows)
	assert.Equal(t, time.Second, cli.Run.WaitFirst)
	assert.Equal(t, 5*time.Millisecond, cli.Run.WaitMore)
	assert.Equal(t, []string{"Right", ","}, cli.Run.Key)
	assert.Equal(t, "json", cli.Run.Format)
	assert.Equal(t, []string{"top", "-d", "1"}, cli.Run.Command)
	assert.Equal(t, "warn", cli.LogLevel)
}

func TestParseLogLevelFromEnv(t *testing.T) {
	t.Setenv("NUMPTY_LOG", "debug")

	cli, _ := parse(t, "keys", "Enter")

	assert.Equal(t, "debug", cli.LogLevel)
	assert.Equal(t, []string{"Enter"}, cli.Keys.Names)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "info")
	l.Debug("hidden")
	l.Info("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")

	buf.Reset()
	l = newLogger(&buf, "bogus")
	l.Info("hidden")
	l.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestKeysCommand(t *testing.T) {
	a, out := testApp(afero.NewMemMapFs())

	require.NoError(t, (&KeysCmd{Names: []string{"Right", "C-c", "Enter"}}).Run(a))
	assert.Equal(t, "Right\t\\x1b[C\nC-c\t\\x03\nEnter\t\\r\n", out.String())

	out.Reset()
	require.NoError(t, (&KeysCmd{AppCursor: true, Names: []string{"Up"}}).Run(a))
	assert.Equal(t, "Up\t\\x1bOA\n", out.String())

	err := (&KeysCmd{Names: []string{"Hyper"}}).Run(a)
	assert.ErrorIs(t, err, numpty.ErrUnknownKey)
}

func TestLoadEnvFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/e.env", "Z=last\nexport A=first\n")

	env, err := loadEnvFile(fs, "/e.env")
	require.NoError(t, err)
	assert.Equal(t, []string{"A=first", "Z=last"}, env)

	env, err = loadEnvFile(fs, "")
	require.NoError(t, err)
	assert.Nil(t, env)

	_, err = loadEnvFile(fs, "/missing.env")
	assert.Error(t, err)
}

func TestPrintSnapshot(t *testing.T) {
	scr := numpty.NewScreen(2, 4)
	scr.WriteString("\x1b[31mab")
	snap := scr.Snapshot()

	var out bytes.Buffer
	require.NoError(t, printSnapshot(&out, snap, "text"))
	assert.Equal(t, "ab\n\n", out.String())

	out.Reset()
	require.NoError(t, printSnapshot(&out, snap, "render"))
	assert.Equal(t, "\x1b[0;38;5;1mab\x1b[0m  \x1b[0m\n    \x1b[0m\n", out.String())

	out.Reset()
	require.NoError(t, printSnapshot(&out, snap, "json"))
	var decoded numpty.Snapshot
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, 4, decoded.Size.Cols)
	assert.Equal(t, "ab", decoded.Lines[0].Text)
}

func TestRunCommand(t *testing.T) {
	requireShell(t)
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/e.env", "WHO=there\n")
	a, out := testApp(fs)

	cmd := &RunCmd{
		Cols:      16,
		Rows:      2,
		WaitFirst: 2 * time.Second,
		WaitMore:  50 * time.Millisecond,
		Format:    "text",
		EnvFile:   "/e.env",
		Command:   []string{"sh", "-c", `printf "hi $WHO"; sleep 5`},
	}
	require.NoError(t, cmd.Run(a))

	assert.Equal(t, "hi there\n\n", out.String())
}
