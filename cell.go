package numpty

// CellFlags is a bitmask of cell rendering attributes.
type CellFlags uint16

const (
	CellFlagBold CellFlags = 1 << iota
	CellFlagDim
	CellFlagItalic
	CellFlagUnderline
	CellFlagBlink
	CellFlagReverse
	CellFlagHidden
	CellFlagStrike
	CellFlagWideChar
	CellFlagWideCharSpacer
)

// styleFlags are the flags selected by SGR; the wide-char markers are layout, not style.
const styleFlags = CellFlagBold | CellFlagDim | CellFlagItalic | CellFlagUnderline |
	CellFlagBlink | CellFlagReverse | CellFlagHidden | CellFlagStrike

// Cell stores the character, colors, and formatting attributes for one grid position.
// Wide characters (2 columns) use a spacer cell in the second position.
type Cell struct {
	Char  rune
	Fg    Color
	Bg    Color
	Flags CellFlags
}

// NewCell creates a blank cell: space character, default colors, no attributes.
func NewCell() Cell {
	return Cell{Char: ' '}
}

// Reset returns the cell to the blank state. Colors and attributes are cleared too.
func (c *Cell) Reset() {
	*c = NewCell()
}

// HasFlag returns true if the specified flag is set.
func (c Cell) HasFlag(flag CellFlags) bool {
	return c.Flags&flag != 0
}

// SetFlag enables the specified flag without affecting others.
func (c *Cell) SetFlag(flag CellFlags) {
	c.Flags |= flag
}

// ClearFlag disables the specified flag without affecting others.
func (c *Cell) ClearFlag(flag CellFlags) {
	c.Flags &^= flag
}

// IsBlank reports whether the cell is indistinguishable from NewCell.
func (c Cell) IsBlank() bool {
	return c == NewCell()
}

// IsWide returns true if this cell holds a character that occupies 2 columns.
func (c Cell) IsWide() bool {
	return c.HasFlag(CellFlagWideChar)
}

// IsWideSpacer returns true if this is the second cell of a wide character.
func (c Cell) IsWideSpacer() bool {
	return c.HasFlag(CellFlagWideCharSpacer)
}

// Style returns the pen the cell was written with.
func (c Cell) Style() Pen {
	return Pen{Fg: c.Fg, Bg: c.Bg, Flags: c.Flags & styleFlags}
}
