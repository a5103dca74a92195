// Command numpty drives terminal programs headlessly: run one and print its
// screen, replay a YAML script against it, or show how keys are encoded.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/spf13/afero"
)

const description = `Run terminal programs on a pseudo-terminal and inspect what they draw.

numpty emulates the terminal in memory, waits for the program's output to settle and
prints the screen as plain text, text with SGR styling, or JSON.`

// CLI is the kong grammar for numpty.
type CLI struct {
	LogLevel string `name:"log-level" env:"NUMPTY_LOG" default:"warn" enum:"debug,info,warn,error" help:"Log level for diagnostics on stderr (${enum})."`

	Run    RunCmd    `cmd:"" help:"Start a program, send keys, and print the settled screen."`
	Script ScriptCmd `cmd:"" help:"Replay a YAML script of keys, settles and expectations."`
	Keys   KeysCmd   `cmd:"" help:"Print the bytes sent for each key name."`
}

// app carries what every command needs; tests build one around an
// in-memory filesystem.
type app struct {
	fs     afero.Fs
	out    io.Writer
	logger *slog.Logger
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

func main() {
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("numpty"),
		kong.Description(description),
		kong.UsageOnError())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	a := &app{
		fs:     afero.NewOsFs(),
		out:    os.Stdout,
		logger: newLogger(os.Stderr, cli.LogLevel),
	}
	ctx.FatalIfErrorf(ctx.Run(a))
}
