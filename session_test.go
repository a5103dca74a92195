//go:build unix

package numpty

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	ps "github.com/mitchellh/go-ps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFirst = time.Second
	waitMore  = 5 * time.Millisecond
)

func openFixture(t *testing.T, name string, cols, rows int, opts ...Option) *Session {
	t.Helper()
	cmd, env := fixture(t, name)
	s, err := Open(cmd, cols, rows, append([]Option{env}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func markerColumn(t *testing.T, s *Session) int {
	t.Helper()
	row := s.Chars()[0]
	for col, r := range row {
		if r == '@' {
			return col
		}
	}
	t.Fatalf("no marker on the first row: %q", string(row))
	return -1
}

func TestSessionShapeBeforeSettle(t *testing.T) {
	s := openFixture(t, "red-hi", 80, 40)

	text := s.Text()
	require.Len(t, text, 40)
	for _, row := range text {
		assert.Equal(t, 80, utf8.RuneCountInString(row))
	}
	chars := s.Chars()
	require.Len(t, chars, 40)
	assert.Len(t, chars[39], 80)
}

func TestSessionRedText(t *testing.T) {
	s := openFixture(t, "red-hi", 80, 40)

	require.NoError(t, s.Settle(waitFirst, waitMore))

	chars := s.Chars()
	assert.Equal(t, 'H', chars[0][0])
	assert.Equal(t, 'I', chars[0][1])
	assert.Equal(t, ' ', chars[0][2])

	idx, mask := s.ForegroundIndexedColor()
	assert.Equal(t, uint8(1), idx[0][0])
	assert.Equal(t, uint8(1), idx[0][1])
	assert.True(t, mask[0][0])
	assert.True(t, mask[0][1])
	assert.False(t, mask[0][2])

	rgb, rgbMask := s.ForegroundTrueColor()
	assert.Equal(t, mask, rgbMask)
	assert.Equal(t, uint8(205), rgb[0][0][0])

	assert.Equal(t, "\x1b[0;38;5;1mHI\x1b[0m"+strings.Repeat(" ", 78)+"\x1b[0m", s.Render()[0])
}

func TestSessionRedTextThenExit(t *testing.T) {
	s := openFixture(t, "red-hi-exit", 80, 40)

	require.NoError(t, s.Settle(time.Second, 5*time.Millisecond))

	chars := s.Chars()
	assert.Equal(t, []rune{'H', 'I'}, chars[0][0:2])

	idx, mask := s.ForegroundIndexedColor()
	_, rgbMask := s.ForegroundTrueColor()
	for r := range mask {
		for c := range mask[r] {
			explicit := r == 0 && c < 2
			assert.Equal(t, explicit, mask[r][c], "mask at (%d, %d)", r, c)
			if explicit {
				assert.Equal(t, uint8(1), idx[r][c], "index at (%d, %d)", r, c)
			}
		}
	}
	assert.Equal(t, mask, rgbMask)
}

func TestSessionEnvironment(t *testing.T) {
	s := openFixture(t, "env", 60, 22)

	require.NoError(t, s.Settle(waitFirst, waitMore))

	assert.Equal(t, "xterm-256color 60 22", strings.TrimRight(s.Text()[0], " "))
}

func TestSessionMarkerMovesRight(t *testing.T) {
	s := openFixture(t, "marker", 80, 40)
	require.NoError(t, s.Settle(waitFirst, waitMore))
	assert.Equal(t, 0, markerColumn(t, s))

	prev := 0
	for i := 0; i < 20; i++ {
		require.NoError(t, s.Keys("Right"))
		require.NoError(t, s.Settle(waitFirst, waitMore))
		col := markerColumn(t, s)
		require.Equal(t, prev+1, col, "step %d", i)
		prev = col
	}
	assert.Equal(t, 20, prev)
}

func TestSessionMarkerStopsAtLastColumn(t *testing.T) {
	s := openFixture(t, "marker", 10, 3)
	require.NoError(t, s.Settle(waitFirst, waitMore))

	keys := make([]string, 15)
	for i := range keys {
		keys[i] = "Right"
	}
	require.NoError(t, s.Keys(keys...))
	require.NoError(t, s.Settle(waitFirst, 50*time.Millisecond))

	assert.Equal(t, 9, markerColumn(t, s))
}

func TestSessionUnknownKeySendsNothing(t *testing.T) {
	s := openFixture(t, "marker", 80, 40)
	require.NoError(t, s.Settle(waitFirst, waitMore))
	before := s.Chars()

	err := s.Keys("Right", "NoSuchKey")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownKey))
	var keyErr *UnknownKeyError
	require.ErrorAs(t, err, &keyErr)
	assert.Equal(t, "NoSuchKey", keyErr.Name)

	require.NoError(t, s.Settle(200*time.Millisecond, waitMore))
	assert.Equal(t, before, s.Chars())
}

func TestSessionExportersAreStableBetweenSettles(t *testing.T) {
	s := openFixture(t, "marker", 80, 40)
	require.NoError(t, s.Settle(waitFirst, waitMore))

	text := s.Text()
	render := s.Render()
	require.NoError(t, s.Keys("Right"))
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, text, s.Text())
	assert.Equal(t, render, s.Render())

	require.NoError(t, s.Settle(waitFirst, waitMore))
	assert.NotEqual(t, text, s.Text())
}

func TestSessionSettleWithoutOutput(t *testing.T) {
	s := openFixture(t, "red-hi", 20, 5)
	require.NoError(t, s.Settle(waitFirst, waitMore))

	start := time.Now()
	require.NoError(t, s.Settle(100*time.Millisecond, waitMore))

	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
	assert.Equal(t, "HI", strings.TrimRight(s.Text()[0], " "))
}

func TestSessionSettleTimeout(t *testing.T) {
	s := openFixture(t, "flood", 20, 5, WithSettleTimeout(150*time.Millisecond))

	start := time.Now()
	err := s.Settle(50*time.Millisecond, 50*time.Millisecond)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSettleTimeout))
	var timeout *TimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, 150*time.Millisecond, timeout.Budget)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestSessionSettleContextCanceled(t *testing.T) {
	s := openFixture(t, "flood", 20, 5)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := s.SettleContext(ctx, time.Second, time.Second)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSessionChildExit(t *testing.T) {
	s := openFixture(t, "exit", 20, 5)

	select {
	case <-s.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("child did not exit")
	}

	code, ok := s.ExitCode()
	assert.True(t, ok)
	assert.Equal(t, 3, code)

	require.NoError(t, s.Settle(waitFirst, waitMore))
	assert.Equal(t, "bye", strings.TrimRight(s.Text()[0], " "))

	err := s.Keys("a")
	assert.ErrorIs(t, err, ErrExited)
	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "write", ioErr.Op)
}

func TestSessionClose(t *testing.T) {
	s := openFixture(t, "marker", 80, 24)
	require.NoError(t, s.Settle(waitFirst, waitMore))
	pid := s.Pid()

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	p, err := ps.FindProcess(pid)
	require.NoError(t, err)
	assert.Nil(t, p, "child %d still present after Close", pid)

	_, ok := s.ExitCode()
	assert.True(t, ok)

	assert.ErrorIs(t, s.Keys("Right"), ErrClosed)
	assert.ErrorIs(t, s.Input("x"), ErrClosed)
	assert.ErrorIs(t, s.Settle(waitFirst, waitMore), ErrClosed)
	assert.ErrorIs(t, s.Resize(40, 10), ErrClosed)

	assert.Len(t, s.Text(), 24, "the last snapshot stays readable")
}

func TestSessionResize(t *testing.T) {
	s := openFixture(t, "red-hi", 80, 24)
	require.NoError(t, s.Settle(waitFirst, waitMore))

	require.NoError(t, s.Resize(100, 30))

	snap := s.Snapshot()
	assert.Equal(t, 100, snap.Cols())
	assert.Equal(t, 30, snap.Rows())
	assert.Len(t, s.Text(), 30)
	assert.Equal(t, "HI", strings.TrimRight(s.Text()[0], " "))

	for _, size := range [][2]int{{0, 10}, {10, -1}, {70000, 10}} {
		err := s.Resize(size[0], size[1])
		assert.ErrorIs(t, err, ErrResize, "%v", size)
	}
	assert.Equal(t, 100, s.Snapshot().Cols())
}

func TestOpenErrors(t *testing.T) {
	tests := []struct {
		name    string
		command []string
		cols    int
		rows    int
	}{
		{"missing binary", []string{"/nonexistent/numpty-no-such-program"}, 80, 24},
		{"empty command", nil, 80, 24},
		{"zero columns", []string{"true"}, 0, 24},
		{"negative rows", []string{"true"}, 80, -1},
		{"columns beyond winsize", []string{"true"}, 70000, 10},
		{"rows beyond winsize", []string{"true"}, 80, 0x10000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(tt.command, tt.cols, tt.rows)
			assert.Nil(t, s)
			assert.ErrorIs(t, err, ErrSpawn)
			var spawnErr *SpawnError
			assert.ErrorAs(t, err, &spawnErr)
		})
	}
}

func TestRunClosesSession(t *testing.T) {
	cmd, env := fixture(t, "marker")
	var session *Session
	sentinel := errors.New("stop")

	err := Run(cmd, 40, 10, func(s *Session) error {
		session = s
		if err := s.Settle(waitFirst, waitMore); err != nil {
			return err
		}
		return sentinel
	}, env)

	assert.ErrorIs(t, err, sentinel)
	require.NotNil(t, session)
	assert.ErrorIs(t, session.Keys("Right"), ErrClosed)
}

func TestSessionOutputStats(t *testing.T) {
	s := openFixture(t, "red-hi", 20, 5)
	require.NoError(t, s.Settle(waitFirst, waitMore))

	chunks, n := s.OutputStats()
	assert.GreaterOrEqual(t, chunks, uint64(1))
	assert.GreaterOrEqual(t, n, uint64(len("\x1b[31mHI\x1b[0m")))
}
