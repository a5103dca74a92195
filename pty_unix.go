//go:build unix

package numpty

import (
	"errors"
	"os"
	"os/exec"
	"syscall"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// startPTY starts cmd as a session leader on a new pseudo-terminal of the
// given size and returns the master side. With echo off the slave is put in
// raw mode before the child runs.
func startPTY(cmd *exec.Cmd, cols, rows int, echo bool) (*os.File, error) {
	ptmx, tty, err := pty.Open()
	if err != nil {
		return nil, err
	}
	// The slave is only needed until the child has inherited it.
	defer tty.Close()

	if err := pty.Setsize(ptmx, winsize(cols, rows)); err != nil {
		ptmx.Close()
		return nil, err
	}
	if !echo {
		if _, err := term.MakeRaw(int(tty.Fd())); err != nil {
			ptmx.Close()
			return nil, err
		}
	}

	cmd.Stdin = tty
	cmd.Stdout = tty
	cmd.Stderr = tty
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setsid = true
	cmd.SysProcAttr.Setctty = true

	if err := cmd.Start(); err != nil {
		ptmx.Close()
		return nil, err
	}
	return ptmx, nil
}

func setSize(ptmx *os.File, cols, rows int) error {
	return pty.Setsize(ptmx, winsize(cols, rows))
}

func winsize(cols, rows int) *pty.Winsize {
	return &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)}
}

// hangup sends SIGHUP, which is what a terminal closing does to its session.
func hangup(p *os.Process) error {
	return p.Signal(unix.SIGHUP)
}

// isHangup reports whether a read error means the slave side is gone.
// Linux reports EIO on the master once every slave descriptor is closed.
func isHangup(err error) bool {
	return errors.Is(err, unix.EIO) || errors.Is(err, os.ErrClosed)
}
