//go:build !unix

package numpty

import (
	"errors"
	"os"
	"os/exec"
	"runtime"
)

var errNoPTY = errors.New("pseudo-terminals are not supported on " + runtime.GOOS)

func startPTY(cmd *exec.Cmd, cols, rows int, echo bool) (*os.File, error) {
	return nil, errNoPTY
}

func setSize(ptmx *os.File, cols, rows int) error {
	return errNoPTY
}

func hangup(p *os.Process) error {
	return p.Kill()
}

func isHangup(err error) bool {
	return errors.Is(err, os.ErrClosed)
}
