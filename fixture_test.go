package numpty

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"testing"
	"time"

	"golang.org/x/term"
)

// fixtureEnv selects a fixture program when the test binary is started as a
// session child.
const fixtureEnv = "NUMPTY_TEST_FIXTURE"

func TestMain(m *testing.M) {
	if name := os.Getenv(fixtureEnv); name != "" {
		os.Exit(runFixture(name))
	}
	os.Exit(m.Run())
}

// fixture returns the command and option that start the named fixture.
func fixture(t *testing.T, name string) ([]string, Option) {
	t.Helper()
	exe, err := os.Executable()
	if err != nil {
		t.Fatalf("locate test binary: %v", err)
	}
	return []string{exe, "-test.run=^$"}, WithEnv(fixtureEnv + "=" + name)
}

func runFixture(name string) int {
	switch name {
	case "red-hi":
		os.Stdout.WriteString("\x1b[31mHI\x1b[0m")
		waitForHangup()
	case "red-hi-exit":
		os.Stdout.WriteString("\x1b[31mHI\x1b[0m")
	case "env":
		fmt.Printf("%s %s %s", os.Getenv("TERM"), os.Getenv("COLUMNS"), os.Getenv("LINES"))
		waitForHangup()
	case "exit":
		os.Stdout.WriteString("bye")
		return 3
	case "flood":
		for i := 0; ; i++ {
			os.Stdout.WriteString(strconv.Itoa(i%10) + "\r")
			time.Sleep(time.Millisecond)
		}
	case "marker":
		runMarker()
	default:
		fmt.Fprintf(os.Stderr, "unknown fixture %q\n", name)
		return 2
	}
	return 0
}

// waitForHangup blocks until the terminal goes away.
func waitForHangup() {
	buf := make([]byte, 64)
	for {
		if _, err := os.Stdin.Read(buf); err != nil {
			return
		}
	}
}

var (
	arrowRight    = []byte("\x1b[C")
	appArrowRight = []byte("\x1bOC")
)

// runMarker draws '@' on the first row and moves it one column right per
// Right arrow, stopping at the last column. 'q' quits.
func runMarker() {
	fd := int(os.Stdin.Fd())
	if old, err := term.MakeRaw(fd); err == nil {
		defer term.Restore(fd, old)
	}
	cols, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || cols <= 0 {
		cols = 80
	}

	x := 0
	draw := func() {
		fmt.Fprintf(os.Stdout, "\x1b[H\x1b[2K\x1b[%dG@", x+1)
	}
	os.Stdout.WriteString("\x1b[2J")
	draw()

	buf := make([]byte, 64)
	var pending []byte
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return
		}
		pending = append(pending, buf[:n]...)

	scan:
		for len(pending) > 0 {
			switch {
			case bytes.HasPrefix(pending, arrowRight), bytes.HasPrefix(pending, appArrowRight):
				if x < cols-1 {
					x++
				}
				draw()
				pending = pending[3:]
			case pending[0] == 0x1b && len(pending) < 3:
				break scan
			case pending[0] == 'q':
				return
			default:
				pending = pending[1:]
			}
		}
	}
}
