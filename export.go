package numpty

import (
	"strconv"
	"strings"
)

// Text returns one string per row with colors and attributes dropped.
// Every row is exactly Cols columns wide: blank cells are spaces and
// trailing blanks are kept. The second half of a wide character adds no rune.
func (sn *Snapshot) Text() []string {
	out := make([]string, len(sn.cells))
	for row, line := range sn.cells {
		var b strings.Builder
		b.Grow(len(line))
		for _, c := range line {
			if c.IsWideSpacer() {
				continue
			}
			b.WriteRune(displayRune(c))
		}
		out[row] = b.String()
	}
	return out
}

// String returns the text rows joined by newlines, trailing blanks trimmed.
func (sn *Snapshot) String() string {
	lines := make([]string, len(sn.Lines))
	for i, l := range sn.Lines {
		lines[i] = l.Text
	}
	return strings.Join(lines, "\n")
}

// Render returns one string per row with embedded SGR style markers.
//
// Each style run opens with a single complete SGR that starts from reset,
// ESC[0;<attrs>;<fg>;<bg>m, where fg is 38;5;n or 38;2;r;g;b, bg is 48;5;n
// or 48;2;r;g;b and default colors are omitted. A row starts in the default
// style, so a leading unstyled run carries no marker. Every row ends with ESC[0m.
func (sn *Snapshot) Render() []string {
	out := make([]string, len(sn.cells))
	for row, line := range sn.cells {
		var b strings.Builder
		current := Pen{}
		for _, c := range line {
			if c.IsWideSpacer() {
				continue
			}
			if style := c.Style(); style != current {
				b.WriteString(sgrSequence(style))
				current = style
			}
			b.WriteRune(displayRune(c))
		}
		b.WriteString("\x1b[0m")
		out[row] = b.String()
	}
	return out
}

var sgrAttrCodes = []struct {
	flag CellFlags
	code string
}{
	{CellFlagBold, "1"},
	{CellFlagDim, "2"},
	{CellFlagItalic, "3"},
	{CellFlagUnderline, "4"},
	{CellFlagBlink, "5"},
	{CellFlagReverse, "7"},
	{CellFlagHidden, "8"},
	{CellFlagStrike, "9"},
}

// sgrSequence returns the SGR that selects p starting from the default style.
func sgrSequence(p Pen) string {
	parts := []string{"0"}
	for _, a := range sgrAttrCodes {
		if p.Flags&a.flag != 0 {
			parts = append(parts, a.code)
		}
	}
	if fg := p.Fg.sgr(30); fg != "" {
		parts = append(parts, fg)
	}
	if bg := p.Bg.sgr(40); bg != "" {
		parts = append(parts, bg)
	}
	return "\x1b[" + strings.Join(parts, ";") + "m"
}

// Chars returns the rows x cols grid of characters. Blank cells and the
// second half of wide characters are spaces.
func (sn *Snapshot) Chars() [][]rune {
	out := make([][]rune, len(sn.cells))
	for row, line := range sn.cells {
		out[row] = make([]rune, len(line))
		for col, c := range line {
			out[row][col] = displayRune(c)
		}
	}
	return out
}

// ForegroundIndexedColor returns the palette index of every cell's foreground
// and a mask that is true exactly where an explicit foreground is set.
// Default and true colors report index 0.
func (sn *Snapshot) ForegroundIndexedColor() ([][]uint8, [][]bool) {
	return sn.indexed(foreground)
}

// ForegroundTrueColor returns the R, G and B planes of every cell's
// foreground and the same mask as ForegroundIndexedColor. Indexed colors are
// resolved through DefaultPalette; the default color reports (0, 0, 0).
func (sn *Snapshot) ForegroundTrueColor() ([3][][]uint8, [][]bool) {
	return sn.trueColor(foreground)
}

// BackgroundIndexedColor is ForegroundIndexedColor for backgrounds.
func (sn *Snapshot) BackgroundIndexedColor() ([][]uint8, [][]bool) {
	return sn.indexed(background)
}

// BackgroundTrueColor is ForegroundTrueColor for backgrounds.
func (sn *Snapshot) BackgroundTrueColor() ([3][][]uint8, [][]bool) {
	return sn.trueColor(background)
}

type colorPlane func(Cell) Color

func foreground(c Cell) Color { return c.Fg }
func background(c Cell) Color { return c.Bg }

// mask is shared by the indexed and true color views so both always agree.
func (sn *Snapshot) mask(plane colorPlane) [][]bool {
	out := make([][]bool, len(sn.cells))
	for row, line := range sn.cells {
		out[row] = make([]bool, len(line))
		for col, c := range line {
			out[row][col] = !plane(c).IsDefault()
		}
	}
	return out
}

func (sn *Snapshot) indexed(plane colorPlane) ([][]uint8, [][]bool) {
	values := make([][]uint8, len(sn.cells))
	for row, line := range sn.cells {
		values[row] = make([]uint8, len(line))
		for col, c := range line {
			values[row][col], _ = plane(c).PaletteIndex()
		}
	}
	return values, sn.mask(plane)
}

func (sn *Snapshot) trueColor(plane colorPlane) ([3][][]uint8, [][]bool) {
	var values [3][][]uint8
	for i := range values {
		values[i] = make([][]uint8, len(sn.cells))
	}
	for row, line := range sn.cells {
		for i := range values {
			values[i][row] = make([]uint8, len(line))
		}
		for col, c := range line {
			color := plane(c)
			if color.IsDefault() {
				continue
			}
			rgba := color.RGBA(true)
			values[0][row][col] = rgba.R
			values[1][row][col] = rgba.G
			values[2][row][col] = rgba.B
		}
	}
	return values, sn.mask(plane)
}

func displayRune(c Cell) rune {
	if c.Char == 0 || c.IsWideSpacer() {
		return ' '
	}
	return c.Char
}

// Quote returns s with control characters escaped, for printing encoded
// keys and rendered rows.
func Quote(s string) string {
	q := strconv.Quote(s)
	return q[1 : len(q)-1]
}
