package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"

	"github.com/pconstr/numpty"
)

const (
	defaultSettleFirst = 1000
	defaultSettleMore  = 100
)

// errExpectations is returned when a script ran but some expect steps failed.
var errExpectations = errors.New("expectations failed")

// ScriptCmd replays a YAML script.
type ScriptCmd struct {
	File string `arg:"" help:"Script file."`
}

// Script is the YAML document read by numpty script:
//
//	command: [nudoku]
//	cols: 60
//	rows: 22
//	steps:
//	  - settle: {first: 1000, more: 100}
//	  - keys: [Right, Right, "5"]
//	  - settle: {}
//	  - expect: {row: 3, contains: "5"}
//	  - print: text
type Script struct {
	Command []string          `yaml:"command"`
	Cols    int               `yaml:"cols"`
	Rows    int               `yaml:"rows"`
	EnvFile string            `yaml:"env_file"`
	Env     map[string]string `yaml:"env"`
	Steps   []Step            `yaml:"steps"`
}

// Step is one script instruction. Exactly one field is set.
type Step struct {
	Keys   []string    `yaml:"keys,omitempty"`
	Input  *string     `yaml:"input,omitempty"`
	Settle *SettleStep `yaml:"settle,omitempty"`
	Expect *Expect     `yaml:"expect,omitempty"`
	Print  string      `yaml:"print,omitempty"`
}

// SettleStep waits for the display to settle. Durations are milliseconds.
type SettleStep struct {
	First int `yaml:"first"`
	More  int `yaml:"more"`
}

// Expect checks the settled screen: either one row contains a string, or
// the whole screen text equals Screen.
type Expect struct {
	Row      int    `yaml:"row"`
	Contains string `yaml:"contains"`
	Screen   string `yaml:"screen"`
}

func (s SettleStep) durations() (time.Duration, time.Duration) {
	first, more := s.First, s.More
	if first <= 0 {
		first = defaultSettleFirst
	}
	if more <= 0 {
		more = defaultSettleMore
	}
	return time.Duration(first) * time.Millisecond, time.Duration(more) * time.Millisecond
}

func (st Step) kind() string {
	var kinds []string
	if st.Keys != nil {
		kinds = append(kinds, "keys")
	}
	if st.Input != nil {
		kinds = append(kinds, "input")
	}
	if st.Settle != nil {
		kinds = append(kinds, "settle")
	}
	if st.Expect != nil {
		kinds = append(kinds, "expect")
	}
	if st.Print != "" {
		kinds = append(kinds, "print")
	}
	if len(kinds) != 1 {
		return ""
	}
	return kinds[0]
}

func (c *ScriptCmd) Run(a *app) error {
	script, err := loadScript(a.fs, c.File)
	if err != nil {
		return err
	}
	return runScript(a, script)
}

// loadScript reads and validates a script. A relative env_file is resolved
// against the script's directory.
func loadScript(fs afero.Fs, path string) (*Script, error) {
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}

	var script Script
	if err := yaml.UnmarshalStrict(data, &script); err != nil {
		return nil, fmt.Errorf("parse script %s: %w", path, err)
	}
	if len(script.Command) == 0 {
		return nil, fmt.Errorf("script %s: command is required", path)
	}
	if script.Cols <= 0 {
		script.Cols = numpty.DEFAULT_COLS
	}
	if script.Rows <= 0 {
		script.Rows = numpty.DEFAULT_ROWS
	}
	for i, st := range script.Steps {
		switch st.kind() {
		case "":
			return nil, fmt.Errorf("script %s: step %d must have exactly one of keys, input, settle, expect, print", path, i+1)
		case "print":
			if st.Print != "text" && st.Print != "render" && st.Print != "json" {
				return nil, fmt.Errorf("script %s: step %d: unknown print format %q", path, i+1, st.Print)
			}
		case "expect":
			if st.Expect.Screen == "" && st.Expect.Contains == "" {
				return nil, fmt.Errorf("script %s: step %d: expect needs contains or screen", path, i+1)
			}
		}
	}
	if script.EnvFile != "" && !filepath.IsAbs(script.EnvFile) && !strings.HasPrefix(script.EnvFile, "~") {
		script.EnvFile = filepath.Join(filepath.Dir(path), script.EnvFile)
	}
	return &script, nil
}

func (sc *Script) environment(fs afero.Fs) ([]string, error) {
	env, err := loadEnvFile(fs, sc.EnvFile)
	if err != nil {
		return nil, err
	}
	for k, v := range sc.Env {
		env = append(env, k+"="+v)
	}
	return env, nil
}

func runScript(a *app, script *Script) error {
	env, err := script.environment(a.fs)
	if err != nil {
		return err
	}

	failed := 0
	err = numpty.Run(script.Command, script.Cols, script.Rows, func(s *numpty.Session) error {
		for i, st := range script.Steps {
			a.logger.Debug("step", "n", i+1, "kind", st.kind())
			switch st.kind() {
			case "keys":
				if err := s.Keys(st.Keys...); err != nil {
					return fmt.Errorf("step %d: %w", i+1, err)
				}
			case "input":
				if err := s.Input(*st.Input); err != nil {
					return fmt.Errorf("step %d: %w", i+1, err)
				}
			case "settle":
				first, more := st.Settle.durations()
				if err := s.Settle(first, more); err != nil {
					return fmt.Errorf("step %d: %w", i+1, err)
				}
			case "expect":
				if !checkExpect(a.out, i+1, st.Expect, s.Snapshot()) {
					failed++
				}
			case "print":
				if err := printSnapshot(a.out, s.Snapshot(), st.Print); err != nil {
					return err
				}
			}
		}
		return nil
	}, numpty.WithLogger(a.logger), numpty.WithEnv(env...))
	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d failed", errExpectations, failed)
	}
	return nil
}

// checkExpect reports whether the snapshot meets e, writing a diff to w
// when it does not.
func checkExpect(w io.Writer, step int, e *Expect, snap *numpty.Snapshot) bool {
	if e.Screen != "" {
		want := strings.TrimRight(e.Screen, "\n")
		got := strings.TrimRight(snap.String(), "\n")
		if want == got {
			return true
		}
		fmt.Fprintf(w, "step %d: screen differs\n%s", step, numpty.DiffText(want+"\n", got+"\n"))
		return false
	}

	text := snap.Text()
	if e.Row < 0 || e.Row >= len(text) {
		fmt.Fprintf(w, "step %d: row %d is outside the %d-row screen\n", step, e.Row, len(text))
		return false
	}
	row := strings.TrimRight(text[e.Row], " ")
	if strings.Contains(row, e.Contains) {
		return true
	}
	fmt.Fprintf(w, "step %d: row %d does not contain %q\n%s", step, e.Row, e.Contains, numpty.DiffText(e.Contains+"\n", row+"\n"))
	return false
}
