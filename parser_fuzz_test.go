package numpty

import (
	"testing"
	"unicode/utf8"
)

func FuzzParser(f *testing.F) {
	f.Add([]byte("hello"))
	f.Add([]byte("\x1b[31mred\x1b[0m"))
	f.Add([]byte("\x1b[?1049h\x1b[H\x1b[2J"))
	f.Add([]byte("\x1b]0;title\x07\x1b[38:2::1:2:3m"))
	f.Add([]byte("\x1b[2;5r\x1b[5S\x1b[3L\xe4\xb8\xad\xff"))
	f.Fuzz(func(t *testing.T, data []byte) {
		p := NewParser(func(Action) {})
		p.Feed(data)
	})
}

func FuzzScreenInvariants(f *testing.F) {
	f.Add([]byte("line1\r\nline2"), uint8(10), uint8(4))
	f.Add([]byte("\x1b[1mBold\x1b[0m\x1b[999;999H!"), uint8(5), uint8(3))
	f.Add([]byte("中文中文中文\x1b[1;4r\x1bM\x1bM"), uint8(3), uint8(2))
	f.Fuzz(func(t *testing.T, data []byte, cols, rows uint8) {
		if cols == 0 || rows == 0 {
			return
		}
		s := NewScreen(int(rows), int(cols))
		s.Write(data)

		row, col := s.Cursor()
		if row < 0 || row >= int(rows) || col < 0 || col >= int(cols) {
			t.Fatalf("cursor (%d, %d) outside %dx%d", row, col, rows, cols)
		}

		snap := s.Snapshot()
		chars := snap.Chars()
		if len(chars) != int(rows) {
			t.Fatalf("chars has %d rows, want %d", len(chars), rows)
		}
		_, fgMask := snap.ForegroundIndexedColor()
		_, tcMask := snap.ForegroundTrueColor()
		for r := range chars {
			if len(chars[r]) != int(cols) {
				t.Fatalf("row %d has %d cols, want %d", r, len(chars[r]), cols)
			}
			for c := range chars[r] {
				if fgMask[r][c] != tcMask[r][c] {
					t.Fatalf("masks differ at (%d, %d)", r, c)
				}
			}
		}
		for _, line := range snap.Render() {
			if !utf8.ValidString(line) {
				t.Fatalf("render output is not valid utf-8")
			}
		}
	})
}
