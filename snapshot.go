package numpty

import "encoding/json"

// Snapshot is an immutable capture of the visible screen. All exporters
// read from a Snapshot, so repeated calls on the same value return identical
// results. It marshals to JSON as size, cursor, title and styled lines.
type Snapshot struct {
	Size      SnapshotSize   `json:"size"`
	Cursor    SnapshotCursor `json:"cursor"`
	Title     string         `json:"title,omitempty"`
	Alternate bool           `json:"alternate_screen,omitempty"`
	Lines     []SnapshotLine `json:"lines"`

	PromptMarks []PromptMark `json:"prompt_marks,omitempty"`

	cells [][]Cell
}

// SnapshotSize holds terminal dimensions.
type SnapshotSize struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// SnapshotCursor holds cursor state.
type SnapshotCursor struct {
	Row     int  `json:"row"`
	Col     int  `json:"col"`
	Visible bool `json:"visible"`
}

// SnapshotLine represents a single row.
type SnapshotLine struct {
	Text     string            `json:"text"`
	Segments []SnapshotSegment `json:"segments,omitempty"`
}

// SnapshotSegment is a run of cells sharing one style.
type SnapshotSegment struct {
	Text       string        `json:"text"`
	Fg         string        `json:"fg,omitempty"`
	Bg         string        `json:"bg,omitempty"`
	Attributes SnapshotAttrs `json:"attrs,omitempty"`
}

// SnapshotAttrs holds text formatting attributes.
type SnapshotAttrs struct {
	Bold          bool `json:"bold,omitempty"`
	Dim           bool `json:"dim,omitempty"`
	Italic        bool `json:"italic,omitempty"`
	Underline     bool `json:"underline,omitempty"`
	Blink         bool `json:"blink,omitempty"`
	Reverse       bool `json:"reverse,omitempty"`
	Hidden        bool `json:"hidden,omitempty"`
	Strikethrough bool `json:"strikethrough,omitempty"`
}

// Snapshot captures the active grid and cursor.
func (s *Screen) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &Snapshot{
		Size: SnapshotSize{
			Rows: s.rows,
			Cols: s.cols,
		},
		Cursor: SnapshotCursor{
			Row:     s.cursor.Row,
			Col:     s.cursor.Col,
			Visible: s.cursor.Visible,
		},
		Title:     s.title,
		Alternate: s.active == s.alternate,
		Lines:     make([]SnapshotLine, s.rows),
		cells:     s.active.copyCells(),
	}
	if s.active == s.primary && len(s.promptMarks) > 0 {
		snap.PromptMarks = append([]PromptMark(nil), s.promptMarks...)
	}

	for row, line := range snap.cells {
		snap.Lines[row] = SnapshotLine{
			Text:     trimRow(line),
			Segments: lineToSegments(line),
		}
	}

	return snap
}

// Rows returns the number of rows captured.
func (sn *Snapshot) Rows() int {
	return sn.Size.Rows
}

// Cols returns the number of columns captured.
func (sn *Snapshot) Cols() int {
	return sn.Size.Cols
}

// Cell returns the cell at (row, col), or a blank cell when out of bounds.
func (sn *Snapshot) Cell(row, col int) Cell {
	if row < 0 || row >= len(sn.cells) || col < 0 || col >= len(sn.cells[row]) {
		return NewCell()
	}
	return sn.cells[row][col]
}

// JSON returns the indented JSON form of the snapshot.
func (sn *Snapshot) JSON() ([]byte, error) {
	return json.MarshalIndent(sn, "", "  ")
}

// lineToSegments converts a row to styled segments (runs of the same style).
// Segments that are entirely blank with the default style are kept only
// when something styled follows them.
func lineToSegments(line []Cell) []SnapshotSegment {
	var segments []SnapshotSegment
	var current *SnapshotSegment
	var chars []rune

	flush := func() {
		if current != nil && len(chars) > 0 {
			current.Text = string(chars)
			segments = append(segments, *current)
		}
	}

	for _, cell := range line {
		if cell.IsWideSpacer() {
			continue
		}

		fg := colorToHex(cell.Fg, true)
		bg := colorToHex(cell.Bg, false)
		attrs := cellAttrsToSnapshot(cell)

		if current == nil || current.Fg != fg || current.Bg != bg || current.Attributes != attrs {
			flush()
			current = &SnapshotSegment{Fg: fg, Bg: bg, Attributes: attrs}
			chars = nil
		}

		ch := cell.Char
		if ch == 0 {
			ch = ' '
		}
		chars = append(chars, ch)
	}
	flush()

	// Drop a trailing unstyled blank run.
	if n := len(segments); n > 0 {
		last := segments[n-1]
		if last.Fg == "" && last.Bg == "" && last.Attributes == (SnapshotAttrs{}) && isBlank(last.Text) {
			segments = segments[:n-1]
		}
	}

	return segments
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' {
			return false
		}
	}
	return true
}

// colorToHex converts an explicit color to a hex string; the default color is "".
func colorToHex(c Color, fg bool) string {
	if c.IsDefault() {
		return ""
	}
	rgba := c.RGBA(fg)
	return RGBColor(rgba.R, rgba.G, rgba.B).String()
}

// cellAttrsToSnapshot extracts cell attributes.
func cellAttrsToSnapshot(cell Cell) SnapshotAttrs {
	return SnapshotAttrs{
		Bold:          cell.HasFlag(CellFlagBold),
		Dim:           cell.HasFlag(CellFlagDim),
		Italic:        cell.HasFlag(CellFlagItalic),
		Underline:     cell.HasFlag(CellFlagUnderline),
		Blink:         cell.HasFlag(CellFlagBlink),
		Reverse:       cell.HasFlag(CellFlagReverse),
		Hidden:        cell.HasFlag(CellFlagHidden),
		Strikethrough: cell.HasFlag(CellFlagStrike),
	}
}
