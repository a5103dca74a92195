package numpty

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"github.com/danielgatis/go-ansicode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cursorPos struct{ row, col int }

func cursorOf(s *Screen) cursorPos {
	r, c := s.Cursor()
	return cursorPos{r, c}
}

func TestNewScreen(t *testing.T) {
	s := NewScreen(24, 80)

	assert.Equal(t, 24, s.Rows())
	assert.Equal(t, 80, s.Cols())
	assert.Equal(t, cursorPos{0, 0}, cursorOf(s))
	assert.True(t, s.CursorVisible())
	assert.True(t, s.Mode(ansicode.TerminalModeLineWrap))
	assert.False(t, s.IsAlternateScreen())
}

func TestNewScreenDefaultsInvalidSize(t *testing.T) {
	s := NewScreen(0, -3)

	assert.Equal(t, DEFAULT_ROWS, s.Rows())
	assert.Equal(t, DEFAULT_COLS, s.Cols())
}

func TestScreenPrint(t *testing.T) {
	s := NewScreen(5, 20)
	s.WriteString("Hello, World!")

	assert.Equal(t, "Hello, World!", s.LineContent(0))
	assert.Equal(t, cursorPos{0, 13}, cursorOf(s))
}

func TestScreenPrintUsesPen(t *testing.T) {
	s := NewScreen(2, 10)
	s.WriteString("\x1b[1;31;44mA\x1b[0mB")

	a := s.Cell(0, 0)
	assert.Equal(t, 'A', a.Char)
	assert.Equal(t, IndexedColor(1), a.Fg)
	assert.Equal(t, IndexedColor(4), a.Bg)
	assert.True(t, a.HasFlag(CellFlagBold))

	assert.True(t, s.Cell(0, 1).Style().IsDefault())
	assert.True(t, s.Pen().IsDefault())
}

func TestScreenWrapAdvance(t *testing.T) {
	const rows, cols = 4, 10

	for start := 0; start < cols; start++ {
		for n := 0; n <= 3*cols; n++ {
			s := NewScreen(rows, cols)
			s.WriteString("\x1b[1;" + strconv.Itoa(start+1) + "H")
			s.WriteString(strings.Repeat("x", n))

			wraps := (start + n) / cols
			wantRow := min(wraps, rows-1)
			assert.Equal(t, cursorPos{wantRow, (start + n) % cols}, cursorOf(s), "start=%d n=%d", start, n)
		}
	}
}

func TestScreenWrapScrollsAtBottom(t *testing.T) {
	s := NewScreen(3, 4)
	s.WriteString("aaaabbbbccccdd")

	assert.Equal(t, "bbbb", s.LineContent(0))
	assert.Equal(t, "cccc", s.LineContent(1))
	assert.Equal(t, "dd", s.LineContent(2))
	assert.Equal(t, cursorPos{2, 2}, cursorOf(s))
}

func TestScreenDeferredWrap(t *testing.T) {
	s := NewScreen(3, 4, WithDeferredWrap(true))
	s.WriteString("abcd")

	assert.Equal(t, cursorPos{0, 3}, cursorOf(s))

	s.WriteString("e")
	assert.Equal(t, "abcd", s.LineContent(0))
	assert.Equal(t, "e", s.LineContent(1))
	assert.Equal(t, cursorPos{1, 1}, cursorOf(s))

	// A carriage return cancels the pending wrap.
	s.WriteString("\x1b[1;1Habcd\r")
	assert.Equal(t, cursorPos{0, 0}, cursorOf(s))
}

func TestScreenNoAutowrap(t *testing.T) {
	s := NewScreen(2, 4)
	s.WriteString("\x1b[?7labcdef")

	assert.Equal(t, "abcf", s.LineContent(0))
	assert.Equal(t, "", s.LineContent(1))
	assert.Equal(t, cursorPos{0, 3}, cursorOf(s))
}

func TestScreenNewlineScrolls(t *testing.T) {
	s := NewScreen(3, 10)
	s.WriteString("one\r\ntwo\r\nthree\r\nfour")

	assert.Equal(t, "two\nthree\nfour", s.String())
}

func TestScreenLineFeedKeepsColumn(t *testing.T) {
	s := NewScreen(3, 10)
	s.WriteString("ab\ncd")

	assert.Equal(t, "ab", s.LineContent(0))
	assert.Equal(t, "  cd", s.LineContent(1))
}

func TestScreenCursorClamps(t *testing.T) {
	s := NewScreen(5, 10)

	s.WriteString("\x1b[99;99H")
	assert.Equal(t, cursorPos{4, 9}, cursorOf(s))

	s.WriteString("\x1b[50A")
	assert.Equal(t, cursorPos{0, 9}, cursorOf(s))

	s.WriteString("\x1b[50D")
	assert.Equal(t, cursorPos{0, 0}, cursorOf(s))

	s.WriteString("\x1b[3;4H\x1b[2B\x1b[3C")
	assert.Equal(t, cursorPos{4, 6}, cursorOf(s))

	s.WriteString("\x1b[2F")
	assert.Equal(t, cursorPos{2, 0}, cursorOf(s))

	s.WriteString("\x1b[8G\x1b[2d")
	assert.Equal(t, cursorPos{1, 7}, cursorOf(s))
}

func TestScreenEraseResetsStyle(t *testing.T) {
	s := NewScreen(3, 10)
	s.WriteString("\x1b[41mXXXXXXXXXX\x1b[1;5H\x1b[K")

	for col := 0; col < 4; col++ {
		assert.Equal(t, IndexedColor(1), s.Cell(0, col).Bg)
	}
	for col := 4; col < 10; col++ {
		assert.Equal(t, NewCell(), s.Cell(0, col), "col %d", col)
	}
}

func TestScreenEraseDisplay(t *testing.T) {
	fill := func() *Screen {
		s := NewScreen(3, 4)
		s.WriteString("abc\r\ndef\r\nghi\x1b[2;2H")
		return s
	}

	s := fill()
	s.WriteString("\x1b[J")
	assert.Equal(t, "abc\nd\n", s.String())

	s = fill()
	s.WriteString("\x1b[1J")
	assert.Equal(t, "\n  f\nghi", s.String())

	s = fill()
	s.WriteString("\x1b[2J")
	assert.Equal(t, "\n\n", s.String())
	assert.Equal(t, cursorPos{1, 1}, cursorOf(s), "ED does not move the cursor")
}

func TestScreenEraseLine(t *testing.T) {
	s := NewScreen(1, 6)
	s.WriteString("abcde\x1b[1;3H\x1b[1K")
	assert.Equal(t, "   de", s.LineContent(0))

	s.WriteString("\x1b[2K")
	assert.Equal(t, "", s.LineContent(0))

	s.WriteString("\x1b[1;1Habcde\x1b[1;2H\x1b[2X")
	assert.Equal(t, "a  de", s.LineContent(0))
}

func TestScreenScrollRegion(t *testing.T) {
	s := NewScreen(5, 5)
	s.WriteString("0\r\n1\r\n2\r\n3\r\n4")
	s.WriteString("\x1b[2;4r")

	top, bottom := s.ScrollRegion()
	assert.Equal(t, 1, top)
	assert.Equal(t, 4, bottom)
	assert.Equal(t, cursorPos{0, 0}, cursorOf(s), "DECSTBM homes the cursor")

	s.WriteString("\x1b[4;1H\n")
	assert.Equal(t, "0\n2\n3\n\n4", s.String())

	s.WriteString("\x1b[2;1H\x1bM")
	assert.Equal(t, "0\n\n2\n3\n4", s.String())

	s.WriteString("\x1b[S")
	assert.Equal(t, "0\n2\n3\n\n4", s.String())

	s.WriteString("\x1b[T")
	assert.Equal(t, "0\n\n2\n3\n4", s.String())
}

func TestScreenScrollRegionIgnoresInvalid(t *testing.T) {
	s := NewScreen(5, 5)
	s.WriteString("\x1b[4;2r")

	top, bottom := s.ScrollRegion()
	assert.Equal(t, 0, top)
	assert.Equal(t, 5, bottom)
}

func TestScreenInsertDeleteLines(t *testing.T) {
	s := NewScreen(4, 3)
	s.WriteString("a\r\nb\r\nc\r\nd\x1b[2;2H\x1b[L")
	assert.Equal(t, "a\n\nb\nc", s.String())
	assert.Equal(t, cursorPos{1, 0}, cursorOf(s))

	s.WriteString("\x1b[2M")
	assert.Equal(t, "a\nc\n\n", s.String())
}

func TestScreenInsertDeleteChars(t *testing.T) {
	s := NewScreen(1, 8)
	s.WriteString("abcdef\x1b[1;2H\x1b[2@")
	assert.Equal(t, "a  bcdef", s.LineContent(0))

	s.WriteString("\x1b[3P")
	assert.Equal(t, "acdef", s.LineContent(0))
}

func TestScreenInsertMode(t *testing.T) {
	s := NewScreen(1, 6)
	s.WriteString("abc\x1b[1;1H\x1b[4hX")

	assert.Equal(t, "Xabc", s.LineContent(0))
}

func TestScreenTabs(t *testing.T) {
	s := NewScreen(1, 20)
	s.WriteString("a\tb")
	assert.Equal(t, cursorPos{0, 9}, cursorOf(s))

	s.WriteString("\x1b[Z")
	assert.Equal(t, cursorPos{0, 8}, cursorOf(s))

	s.WriteString("\x1b[3g\x1b[1;1H\t")
	assert.Equal(t, cursorPos{0, 19}, cursorOf(s))
}

func TestScreenBackspace(t *testing.T) {
	s := NewScreen(1, 5)
	s.WriteString("ab\b\bX")

	assert.Equal(t, "Xb", s.LineContent(0))

	s.WriteString("\x1b[1;1H\b")
	assert.Equal(t, cursorPos{0, 0}, cursorOf(s))
}

func TestScreenRepeat(t *testing.T) {
	s := NewScreen(1, 10)
	s.WriteString("-\x1b[4b")

	assert.Equal(t, "-----", s.LineContent(0))
}

func TestScreenWideChar(t *testing.T) {
	s := NewScreen(2, 5)
	s.WriteString("中a")

	assert.Equal(t, '中', s.Cell(0, 0).Char)
	assert.True(t, s.Cell(0, 0).IsWide())
	assert.True(t, s.Cell(0, 1).IsWideSpacer())
	assert.Equal(t, 'a', s.Cell(0, 2).Char)
	assert.Equal(t, cursorPos{0, 3}, cursorOf(s))

	// Overwriting the spacer clears the lead half.
	s.WriteString("\x1b[1;2Hx")
	assert.False(t, s.Cell(0, 0).IsWide())
	assert.Equal(t, " xa", s.LineContent(0))
}

func TestScreenWideCharWrapsWhenItDoesNotFit(t *testing.T) {
	s := NewScreen(2, 3)
	s.WriteString("ab中")

	assert.Equal(t, "ab", s.LineContent(0))
	assert.Equal(t, "中", s.LineContent(1))
}

func TestScreenSaveRestoreCursor(t *testing.T) {
	s := NewScreen(5, 10)
	s.WriteString("\x1b[2;3H\x1b[32m\x1b7\x1b[0m\x1b[5;5H\x1b8")

	assert.Equal(t, cursorPos{1, 2}, cursorOf(s))
	assert.Equal(t, IndexedColor(2), s.Pen().Fg)
}

func TestScreenAlternateScreen(t *testing.T) {
	s := NewScreen(3, 10)
	s.WriteString("primary\x1b[2;4H")

	s.WriteString("\x1b[?1049h")
	assert.True(t, s.IsAlternateScreen())
	assert.Equal(t, "", s.LineContent(0))

	s.WriteString("\x1b[Halt")
	assert.Equal(t, "alt", s.LineContent(0))

	s.WriteString("\x1b[?1049l")
	assert.False(t, s.IsAlternateScreen())
	assert.Equal(t, "primary", s.LineContent(0))
	assert.Equal(t, cursorPos{1, 3}, cursorOf(s))

	s.WriteString("\x1b[?1049h")
	assert.Equal(t, "", s.LineContent(0), "alternate screen starts blank")
}

func TestScreenOriginMode(t *testing.T) {
	s := NewScreen(6, 5)
	s.WriteString("\x1b[3;5r\x1b[?6h")
	assert.Equal(t, cursorPos{2, 0}, cursorOf(s))

	s.WriteString("\x1b[9;1H")
	assert.Equal(t, cursorPos{4, 0}, cursorOf(s))
}

func TestScreenCursorVisibility(t *testing.T) {
	s := NewScreen(2, 2)
	s.WriteString("\x1b[?25l")
	assert.False(t, s.CursorVisible())

	s.WriteString("\x1b[?25h")
	assert.True(t, s.CursorVisible())
}

func TestScreenLineDrawing(t *testing.T) {
	s := NewScreen(1, 10)
	s.WriteString("\x1b(0lqk\x1b(Bq")

	assert.Equal(t, '┌', s.Cell(0, 0).Char)
	assert.Equal(t, '─', s.Cell(0, 1).Char)
	assert.Equal(t, '┐', s.Cell(0, 2).Char)
	assert.True(t, strings.HasSuffix(s.LineContent(0), "q"), "G0 back to ASCII")
}

func TestScreenAlignment(t *testing.T) {
	s := NewScreen(2, 3)
	s.WriteString("\x1b#8")

	assert.Equal(t, "EEE\nEEE", s.String())
}

func TestScreenReset(t *testing.T) {
	s := NewScreen(2, 5)
	s.WriteString("\x1b]0;t\x07\x1b[31mabc\x1b[?25l\x1bc")

	assert.Equal(t, "\n", s.String())
	assert.True(t, s.Pen().IsDefault())
	assert.True(t, s.CursorVisible())
	assert.Equal(t, "", s.Title())
}

func TestScreenTitle(t *testing.T) {
	titles := &recordingTitle{}
	s := NewScreen(2, 5, WithTitle(titles))
	s.WriteString("\x1b]2;my title\x07")

	assert.Equal(t, "my title", s.Title())
	assert.Equal(t, []string{"my title"}, titles.got)
}

func TestScreenBell(t *testing.T) {
	bell := &countingBell{}
	s := NewScreen(2, 5, WithBell(bell))
	s.WriteString("\a\a")

	assert.Equal(t, 2, bell.rings)
}

func TestScreenReplies(t *testing.T) {
	var out bytes.Buffer
	s := NewScreen(5, 10, WithResponse(&out))

	s.WriteString("\x1b[3;7H\x1b[6n")
	assert.Equal(t, "\x1b[3;7R", out.String())

	out.Reset()
	s.WriteString("\x1b[5n\x1b[c\x1b[>c")
	assert.Equal(t, "\x1b[0n\x1b[?1;2c\x1b[>0;10;1c", out.String())
}

func TestScreenRecording(t *testing.T) {
	rec := NewMemoryRecording()
	s := NewScreen(2, 10, WithRecording(rec))
	s.WriteString("\x1b[31mhi")

	assert.Equal(t, []byte("\x1b[31mhi"), rec.Data())

	replay := NewScreen(2, 10)
	replay.Write(rec.Data())
	assert.Equal(t, s.Snapshot().Render(), replay.Snapshot().Render())
}

func TestScreenMiddleware(t *testing.T) {
	var seen []ActionKind
	spy := func(a Action, next func(Action)) {
		seen = append(seen, a.Kind)
		next(a)
	}
	s := NewScreen(2, 10, WithMiddleware(spy), WithMiddleware(Drop(ActionSetForeground)))
	s.WriteString("\x1b[31mA")

	assert.Equal(t, []ActionKind{ActionSetForeground, ActionPrint}, seen)
	assert.True(t, s.Cell(0, 0).Fg.IsDefault())
}

func TestScreenApply(t *testing.T) {
	s := NewScreen(3, 3)
	s.Apply(Action{Kind: ActionSetCursorPosition, Row: 2, Col: 2})
	s.Apply(Action{Kind: ActionPrint, Rune: 'z'})

	assert.Equal(t, 'z', s.Cell(2, 2).Char)
}

func TestScreenResize(t *testing.T) {
	s := NewScreen(4, 6)
	s.WriteString("abcdef\x1b[4;6H")

	s.Resize(2, 3)
	assert.Equal(t, 2, s.Rows())
	assert.Equal(t, 3, s.Cols())
	assert.Equal(t, "abc\n", s.String())
	assert.Equal(t, cursorPos{1, 2}, cursorOf(s))

	s.Resize(3, 5)
	assert.Equal(t, "abc\n\n", s.String())

	top, bottom := s.ScrollRegion()
	assert.Equal(t, 0, top)
	assert.Equal(t, 3, bottom)

	s.Resize(0, 5)
	assert.Equal(t, 3, s.Rows())
}

func TestScreenDiscarded(t *testing.T) {
	s := NewScreen(2, 10)
	s.WriteString("\x1b[5yok")

	assert.Equal(t, uint64(1), s.Discarded())
	assert.Equal(t, "ok", s.LineContent(0))
}

func TestScreenMalformedInputKeepsState(t *testing.T) {
	s := NewScreen(3, 10)
	s.WriteString("\x1b[32mgood")
	before := s.Snapshot()

	s.WriteString("\x1b[?;;;;$$y\x1b[999999999999;1\x18\x1b]x\x1a\x1bP\x1b\\")
	after := s.Snapshot()

	require.Equal(t, before.Render(), after.Render())
	assert.Equal(t, before.Cursor, after.Cursor)
}

type recordingTitle struct{ got []string }

func (r *recordingTitle) SetTitle(title string) { r.got = append(r.got, title) }

type countingBell struct{ rings int }

func (b *countingBell) Ring() { b.rings++ }
