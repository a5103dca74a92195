package numpty

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Session errors.
var (
	// ErrSpawn indicates the child process could not be started.
	ErrSpawn = errors.New("spawn failed")

	// ErrClosed indicates the session was closed.
	ErrClosed = errors.New("session closed")

	// ErrExited indicates the child process has exited.
	ErrExited = errors.New("child exited")

	// ErrUnknownKey indicates a key name the encoder does not recognise.
	ErrUnknownKey = errors.New("unknown key")

	// ErrSettleTimeout indicates the display kept changing past the settle budget.
	ErrSettleTimeout = errors.New("settle timed out")

	// ErrResize indicates a resize request could not be honoured.
	ErrResize = errors.New("resize failed")
)

// SpawnError reports a child process that could not be started.
type SpawnError struct {
	Command []string
	Err     error
}

func (e *SpawnError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("spawn %q: %v", strings.Join(e.Command, " "), e.Err)
}

func (e *SpawnError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches ErrSpawn as well as the wrapped error.
func (e *SpawnError) Is(target error) bool {
	return target == ErrSpawn
}

// IOError reports a read or write against a closed or dead session.
type IOError struct {
	Op  string // "write", "read", "settle"
	Err error
}

func (e *IOError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// UnknownKeyError reports a key name that could not be encoded.
// It is returned before any byte reaches the child.
type UnknownKeyError struct {
	Name string
}

func (e *UnknownKeyError) Error() string {
	return fmt.Sprintf("unknown key %q", e.Name)
}

// Is matches ErrUnknownKey.
func (e *UnknownKeyError) Is(target error) bool {
	return target == ErrUnknownKey
}

// TimeoutError reports a settle call that exceeded its overall budget.
type TimeoutError struct {
	Elapsed time.Duration
	Budget  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("settle: output still arriving after %v (budget %v)", e.Elapsed.Round(time.Millisecond), e.Budget)
}

// Is matches ErrSettleTimeout.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrSettleTimeout
}

// ResizeError reports invalid dimensions or a failed window size change.
type ResizeError struct {
	Cols int
	Rows int
	Err  error
}

func (e *ResizeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("resize to %dx%d: invalid size", e.Cols, e.Rows)
	}
	return fmt.Sprintf("resize to %dx%d: %v", e.Cols, e.Rows, e.Err)
}

func (e *ResizeError) Unwrap() error {
	return e.Err
}

// Is matches ErrResize.
func (e *ResizeError) Is(target error) bool {
	return target == ErrResize
}
