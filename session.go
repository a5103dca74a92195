package numpty

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/danielgatis/go-ansicode"
)

const (
	// closeGrace is how long Close waits for the child after SIGHUP before
	// killing it, and for the reader after the descriptor is closed.
	closeGrace = 2 * time.Second

	readBufferSize = 32 * 1024
)

// Session is a child process attached to an emulated terminal.
//
// A background reader feeds everything the child writes into the Screen and
// records arrival times. The caller drives the session synchronously: send
// keys, Settle, then read one of the exporters, which all project the
// snapshot taken by the last successful Settle.
type Session struct {
	command []string
	cfg     *config
	logger  *slog.Logger

	cmd    *exec.Cmd
	ptmx   *os.File
	screen *Screen
	out    *outputLog

	mu         sync.RWMutex
	snap       *Snapshot
	settledSeq uint64

	closed     chan struct{}
	readerDone chan struct{}
	exited     chan struct{}
	exitCode   int
	closeOnce  sync.Once
	closeErr   error
}

// Open spawns command on a new pseudo-terminal of cols x rows and starts
// collecting its output. It fails with a *SpawnError when the program cannot
// be started. The returned session must be closed; Run does that for you.
func Open(command []string, cols, rows int, opts ...Option) (*Session, error) {
	if len(command) == 0 {
		return nil, &SpawnError{Command: command, Err: errors.New("empty command")}
	}
	if !validSize(cols, rows) {
		return nil, &SpawnError{Command: command, Err: fmt.Errorf("invalid size %dx%d", cols, rows)}
	}

	cfg := newConfig(opts)
	s := &Session{
		command:    append([]string(nil), command...),
		cfg:        cfg,
		logger:     cfg.logger,
		out:        newOutputLog(),
		closed:     make(chan struct{}),
		readerDone: make(chan struct{}),
		exited:     make(chan struct{}),
	}

	cmd := exec.Command(command[0], command[1:]...)
	cmd.Env = append(os.Environ(),
		"TERM="+cfg.termName,
		"COLUMNS="+strconv.Itoa(cols),
		"LINES="+strconv.Itoa(rows),
	)
	cmd.Env = append(cmd.Env, cfg.env...)
	cmd.Dir = cfg.dir

	ptmx, err := startPTY(cmd, cols, rows, cfg.echo)
	if err != nil {
		s.logger.Error("spawn failed", "command", command, "error", err)
		return nil, &SpawnError{Command: s.command, Err: err}
	}
	s.cmd = cmd
	s.ptmx = ptmx

	screenCfg := *cfg
	if screenCfg.response == nil {
		screenCfg.response = ptmx
	}
	s.screen = newScreen(rows, cols, &screenCfg)
	s.snap = s.screen.Snapshot()

	s.logger.Info("spawned", "command", command, "pid", cmd.Process.Pid, "cols", cols, "rows", rows)

	go s.readLoop()
	go s.waitLoop()

	return s, nil
}

// Run opens a session, calls fn with it and closes it on every path out of
// fn, including a panic. The error from fn takes precedence over the error
// from Close.
func Run(command []string, cols, rows int, fn func(*Session) error, opts ...Option) (err error) {
	s, err := Open(command, cols, rows, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(s)
}

// readLoop copies child output into the screen until the PTY reports hangup.
func (s *Session) readLoop() {
	defer close(s.readerDone)

	buf := make([]byte, readBufferSize)
	for {
		n, err := s.ptmx.Read(buf)
		if n > 0 {
			s.screen.Write(buf[:n])
			s.out.record(n, time.Now())
		}
		if err != nil {
			switch {
			case err == io.EOF || isHangup(err):
				s.logger.Debug("output closed")
			default:
				s.logger.Warn("read failed", "error", err)
			}
			return
		}
	}
}

// waitLoop reaps the child and records its exit status.
func (s *Session) waitLoop() {
	err := s.cmd.Wait()
	code := -1
	if s.cmd.ProcessState != nil {
		code = s.cmd.ProcessState.ExitCode()
	}
	s.mu.Lock()
	s.exitCode = code
	s.mu.Unlock()
	close(s.exited)

	if err != nil {
		s.logger.Info("child exited", "pid", s.cmd.Process.Pid, "code", code, "error", err)
		return
	}
	s.logger.Info("child exited", "pid", s.cmd.Process.Pid, "code", code)
}

// Keys encodes every name and writes the bytes in order. An unknown name
// fails with *UnknownKeyError before anything is written.
func (s *Session) Keys(names ...string) error {
	appCursor := s.screen.Mode(ansicode.TerminalModeCursorKeys)
	b, err := EncodeKeys(names, appCursor)
	if err != nil {
		return err
	}
	return s.SendKeys(b)
}

// Input writes text to the child as typed, without key name parsing.
func (s *Session) Input(text string) error {
	return s.SendKeys([]byte(text))
}

// SendKeys writes already encoded bytes to the terminal input. It fails with
// an *IOError when the session is closed or the child has exited.
func (s *Session) SendKeys(encoded []byte) error {
	select {
	case <-s.closed:
		return &IOError{Op: "write", Err: ErrClosed}
	default:
	}
	select {
	case <-s.exited:
		return &IOError{Op: "write", Err: ErrExited}
	default:
	}

	if len(encoded) == 0 {
		return nil
	}
	if _, err := s.ptmx.Write(encoded); err != nil {
		return &IOError{Op: "write", Err: err}
	}
	return nil
}

// maxDimension is the largest size a PTY window can report.
const maxDimension = 0xffff

func validSize(cols, rows int) bool {
	return cols > 0 && rows > 0 && cols <= maxDimension && rows <= maxDimension
}

// Resize changes the terminal size and notifies the child (SIGWINCH).
// Content is not reflowed; the snapshot is refreshed.
func (s *Session) Resize(cols, rows int) error {
	if !validSize(cols, rows) {
		return &ResizeError{Cols: cols, Rows: rows}
	}
	select {
	case <-s.closed:
		return &ResizeError{Cols: cols, Rows: rows, Err: ErrClosed}
	default:
	}

	if err := setSize(s.ptmx, cols, rows); err != nil {
		return &ResizeError{Cols: cols, Rows: rows, Err: err}
	}
	s.screen.Resize(rows, cols)
	s.logger.Info("resized", "cols", cols, "rows", rows)

	seq, _ := s.out.latest()
	snap := s.screen.Snapshot()
	s.mu.Lock()
	s.snap = snap
	s.settledSeq = seq
	s.mu.Unlock()
	return nil
}

// Close hangs up the child, waits for it to exit (killing it if it does not
// within a grace period), closes the terminal and waits for the reader.
// It is safe to call more than once and from several goroutines.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		close(s.closed)
		s.closeErr = s.shutdown()
	})
	return s.closeErr
}

func (s *Session) shutdown() error {
	select {
	case <-s.exited:
	default:
		if err := hangup(s.cmd.Process); err != nil && !errors.Is(err, os.ErrProcessDone) {
			s.logger.Warn("hangup failed", "pid", s.cmd.Process.Pid, "error", err)
		}
		select {
		case <-s.exited:
		case <-time.After(closeGrace):
			s.logger.Warn("child ignored hangup, killing", "pid", s.cmd.Process.Pid)
			if err := s.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
				s.logger.Error("kill failed", "pid", s.cmd.Process.Pid, "error", err)
			}
			<-s.exited
		}
	}

	err := s.ptmx.Close()

	select {
	case <-s.readerDone:
	case <-time.After(closeGrace):
		s.logger.Warn("output reader did not stop")
	}

	if err != nil {
		return &IOError{Op: "close", Err: err}
	}
	return nil
}

// Screen returns the live screen. Unlike the exporters it reflects output
// that arrived after the last Settle.
func (s *Session) Screen() *Screen {
	return s.screen
}

// Snapshot returns the snapshot taken by the last successful Settle
// (or by Open and Resize).
func (s *Session) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Text returns the rows of the last snapshot. See Snapshot.Text.
func (s *Session) Text() []string {
	return s.Snapshot().Text()
}

// Render returns the styled rows of the last snapshot. See Snapshot.Render.
func (s *Session) Render() []string {
	return s.Snapshot().Render()
}

// Chars returns the character grid of the last snapshot.
func (s *Session) Chars() [][]rune {
	return s.Snapshot().Chars()
}

// ForegroundIndexedColor returns the foreground palette indices and mask of the last snapshot.
func (s *Session) ForegroundIndexedColor() ([][]uint8, [][]bool) {
	return s.Snapshot().ForegroundIndexedColor()
}

// ForegroundTrueColor returns the foreground RGB planes and mask of the last snapshot.
func (s *Session) ForegroundTrueColor() ([3][][]uint8, [][]bool) {
	return s.Snapshot().ForegroundTrueColor()
}

// BackgroundIndexedColor returns the background palette indices and mask of the last snapshot.
func (s *Session) BackgroundIndexedColor() ([][]uint8, [][]bool) {
	return s.Snapshot().BackgroundIndexedColor()
}

// BackgroundTrueColor returns the background RGB planes and mask of the last snapshot.
func (s *Session) BackgroundTrueColor() ([3][][]uint8, [][]bool) {
	return s.Snapshot().BackgroundTrueColor()
}

// LastCommandOutput returns the output of the last command a shell with
// prompt integration reported in the last snapshot.
func (s *Session) LastCommandOutput() string {
	return s.Snapshot().LastCommandOutput()
}

// Pid returns the process id of the child.
func (s *Session) Pid() int {
	return s.cmd.Process.Pid
}

// Command returns the command line the session was opened with.
func (s *Session) Command() []string {
	return append([]string(nil), s.command...)
}

// Done is closed once the child has exited and been reaped.
func (s *Session) Done() <-chan struct{} {
	return s.exited
}

// ExitCode returns the child's exit code and true once it has exited.
// A child killed by a signal reports -1.
func (s *Session) ExitCode() (int, bool) {
	select {
	case <-s.exited:
		s.mu.RLock()
		defer s.mu.RUnlock()
		return s.exitCode, true
	default:
		return 0, false
	}
}

// OutputStats returns how many output chunks and bytes the child has written.
func (s *Session) OutputStats() (chunks, bytes uint64) {
	return s.out.totals()
}
