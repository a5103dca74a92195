package numpty

// Cursor tracks the current position (0-based) and visibility.
type Cursor struct {
	Row     int
	Col     int
	Visible bool

	// pendingWrap is set when a character was written in the last column
	// under deferred wrap; the next printable character wraps first.
	pendingWrap bool
}

// NewCursor creates a visible cursor at (0, 0).
func NewCursor() Cursor {
	return Cursor{Visible: true}
}

// Pen holds the attributes applied to newly written characters.
// It is modified by SGR (Select Graphic Rendition) sequences.
type Pen struct {
	Fg    Color
	Bg    Color
	Flags CellFlags
}

// IsDefault reports whether the pen has default colors and no attributes.
func (p Pen) IsDefault() bool {
	return p == Pen{}
}

// SavedCursor stores cursor position and pen for DECSC/DECRC and the
// alternate screen switch.
type SavedCursor struct {
	Row        int
	Col        int
	Pen        Pen
	OriginMode bool
}
