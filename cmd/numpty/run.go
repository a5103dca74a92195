package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"

	"github.com/pconstr/numpty"
)

// RunCmd starts a program, optionally types keys at it and prints the screen.
type RunCmd struct {
	Cols      int           `default:"80" help:"Terminal width."`
	Rows      int           `default:"24" help:"Terminal height."`
	WaitFirst time.Duration `name:"wait-first" default:"1s" help:"How long to wait for the first output after each input."`
	WaitMore  time.Duration `name:"wait-more" default:"100ms" help:"Quiet period that counts as settled."`
	Key       []string      `short:"k" sep:"none" help:"Key to send after the first settle; repeatable."`
	Format    string        `short:"f" default:"text" enum:"text,render,json" help:"Output format (${enum})."`
	EnvFile   string        `name:"env-file" help:"Dotenv file whose variables are passed to the program."`

	Command []string `arg:"" passthrough:"" help:"Program and arguments."`
}

func (c *RunCmd) Run(a *app) error {
	env, err := loadEnvFile(a.fs, c.EnvFile)
	if err != nil {
		return err
	}

	opts := []numpty.Option{numpty.WithLogger(a.logger), numpty.WithEnv(env...)}
	return numpty.Run(c.Command, c.Cols, c.Rows, func(s *numpty.Session) error {
		if err := s.Settle(c.WaitFirst, c.WaitMore); err != nil {
			return err
		}
		for _, k := range c.Key {
			if err := s.Keys(k); err != nil {
				return err
			}
			if err := s.Settle(c.WaitFirst, c.WaitMore); err != nil {
				return err
			}
		}
		return printSnapshot(a.out, s.Snapshot(), c.Format)
	}, opts...)
}

// loadEnvFile reads KEY=VALUE pairs from a dotenv file. An empty path
// yields nothing.
func loadEnvFile(fs afero.Fs, path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("env file: %w", err)
	}
	defer f.Close()

	vars, err := godotenv.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("env file %s: %w", path, err)
	}
	env := make([]string, 0, len(vars))
	for k, v := range vars {
		env = append(env, k+"="+v)
	}
	sort.Strings(env)
	return env, nil
}

func printSnapshot(w io.Writer, snap *numpty.Snapshot, format string) error {
	switch format {
	case "render":
		_, err := io.WriteString(w, strings.Join(snap.Render(), "\n")+"\n")
		return err
	case "json":
		data, err := snap.JSON()
		if err != nil {
			return err
		}
		_, err = w.Write(append(data, '\n'))
		return err
	default:
		_, err := io.WriteString(w, snap.String()+"\n")
		return err
	}
}
