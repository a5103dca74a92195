package numpty

// Buffer stores a fixed 2D grid of cells plus tab stops.
// Lines scrolled off the top are discarded; there is no scrollback.
type Buffer struct {
	rows    int
	cols    int
	cells   [][]Cell
	tabStop []bool
}

// NewBuffer creates a blank buffer with the given dimensions.
// Tab stops are initialized every 8 columns.
func NewBuffer(rows, cols int) *Buffer {
	b := &Buffer{
		rows:    rows,
		cols:    cols,
		cells:   make([][]Cell, rows),
		tabStop: make([]bool, cols),
	}

	for i := range b.cells {
		b.cells[i] = blankRow(cols)
	}

	for i := 0; i < cols; i += 8 {
		b.tabStop[i] = true
	}

	return b
}

func blankRow(cols int) []Cell {
	row := make([]Cell, cols)
	for i := range row {
		row[i] = NewCell()
	}
	return row
}

// Rows returns the buffer height in character rows.
func (b *Buffer) Rows() int {
	return b.rows
}

// Cols returns the buffer width in character columns.
func (b *Buffer) Cols() int {
	return b.cols
}

// Cell returns a pointer to the cell at (row, col).
// Returns nil if coordinates are out of bounds.
func (b *Buffer) Cell(row, col int) *Cell {
	if row < 0 || row >= b.rows || col < 0 || col >= b.cols {
		return nil
	}
	return &b.cells[row][col]
}

// SetCell replaces the cell at (row, col).
// Does nothing if coordinates are out of bounds.
func (b *Buffer) SetCell(row, col int, cell Cell) {
	if row < 0 || row >= b.rows || col < 0 || col >= b.cols {
		return
	}
	b.cells[row][col] = cell
}

// ClearRow resets all cells in the row to the blank cell.
func (b *Buffer) ClearRow(row int) {
	b.ClearRowRange(row, 0, b.cols)
}

// ClearRowRange resets cells in the row from startCol (inclusive) to endCol (exclusive).
// A wide character cut in half by the range is blanked entirely.
func (b *Buffer) ClearRowRange(row, startCol, endCol int) {
	if row < 0 || row >= b.rows {
		return
	}
	if startCol < 0 {
		startCol = 0
	}
	if endCol > b.cols {
		endCol = b.cols
	}
	if startCol >= endCol {
		return
	}
	line := b.cells[row]
	if line[startCol].IsWideSpacer() && startCol > 0 {
		line[startCol-1].Reset()
	}
	if endCol < b.cols && line[endCol].IsWideSpacer() {
		line[endCol].Reset()
	}
	for col := startCol; col < endCol; col++ {
		line[col].Reset()
	}
}

// ClearAll resets all cells in the buffer to the blank cell.
func (b *Buffer) ClearAll() {
	for row := range b.cells {
		b.ClearRow(row)
	}
}

// ScrollUp shifts lines up by n positions within [top, bottom).
// Lines leaving the region are discarded; blank lines enter at the bottom.
func (b *Buffer) ScrollUp(top, bottom, n int) {
	top, bottom, n, ok := b.clampRegion(top, bottom, n)
	if !ok {
		return
	}

	copy(b.cells[top:bottom], b.cells[top+n:bottom])
	for row := bottom - n; row < bottom; row++ {
		b.cells[row] = blankRow(b.cols)
	}
}

// ScrollDown shifts lines down by n positions within [top, bottom).
// Blank lines enter at the top.
func (b *Buffer) ScrollDown(top, bottom, n int) {
	top, bottom, n, ok := b.clampRegion(top, bottom, n)
	if !ok {
		return
	}

	copy(b.cells[top+n:bottom], b.cells[top:bottom-n])
	for row := top; row < top+n; row++ {
		b.cells[row] = blankRow(b.cols)
	}
}

func (b *Buffer) clampRegion(top, bottom, n int) (int, int, int, bool) {
	if top < 0 {
		top = 0
	}
	if bottom > b.rows {
		bottom = b.rows
	}
	if n <= 0 || top >= bottom {
		return 0, 0, 0, false
	}
	if n > bottom-top {
		n = bottom - top
	}
	return top, bottom, n, true
}

// InsertLines inserts n blank lines at row, shifting existing lines down
// within [row, bottom).
func (b *Buffer) InsertLines(row, n, bottom int) {
	if row < 0 || row >= bottom || n <= 0 {
		return
	}
	b.ScrollDown(row, bottom, n)
}

// DeleteLines removes n lines at row, shifting remaining lines up
// within [row, bottom).
func (b *Buffer) DeleteLines(row, n, bottom int) {
	if row < 0 || row >= bottom || n <= 0 {
		return
	}
	b.ScrollUp(row, bottom, n)
}

// InsertBlanks inserts n blank cells at (row, col), shifting existing characters right.
// Characters pushed past the right margin are lost.
func (b *Buffer) InsertBlanks(row, col, n int) {
	if row < 0 || row >= b.rows || col < 0 || col >= b.cols || n <= 0 {
		return
	}
	if n > b.cols-col {
		n = b.cols - col
	}
	line := b.cells[row]
	copy(line[col+n:], line[col:b.cols-n])
	for c := col; c < col+n; c++ {
		line[c].Reset()
	}
	b.fixWideEdge(row)
}

// DeleteChars removes n characters at (row, col), shifting remaining characters left.
// Blank cells fill in from the right margin.
func (b *Buffer) DeleteChars(row, col, n int) {
	if row < 0 || row >= b.rows || col < 0 || col >= b.cols || n <= 0 {
		return
	}
	if n > b.cols-col {
		n = b.cols - col
	}
	line := b.cells[row]
	copy(line[col:], line[col+n:])
	for c := b.cols - n; c < b.cols; c++ {
		line[c].Reset()
	}
	b.fixWideEdge(row)
}

// fixWideEdge blanks wide characters and spacers that lost their other half
// after a horizontal shift or resize.
func (b *Buffer) fixWideEdge(row int) {
	line := b.cells[row]
	for c := range line {
		switch {
		case line[c].IsWide() && (c+1 >= len(line) || !line[c+1].IsWideSpacer()):
			line[c].Reset()
		case line[c].IsWideSpacer() && (c == 0 || !line[c-1].IsWide()):
			line[c].Reset()
		}
	}
}

// Resize changes buffer dimensions without reflowing.
// Content is kept at the top-left corner. When shrinking, bottom/right content is lost.
// When growing, blank cells are added at the bottom/right.
func (b *Buffer) Resize(rows, cols int) {
	if rows <= 0 || cols <= 0 {
		return
	}

	newCells := make([][]Cell, rows)
	for i := range newCells {
		newCells[i] = blankRow(cols)
		if i < b.rows {
			copy(newCells[i], b.cells[i])
		}
	}

	newTabStop := make([]bool, cols)
	copy(newTabStop, b.tabStop)
	start := len(b.tabStop) + (8-len(b.tabStop)%8)%8
	for i := start; i < cols; i += 8 {
		newTabStop[i] = true
	}

	b.cells = newCells
	b.rows = rows
	b.cols = cols
	b.tabStop = newTabStop

	for row := range b.cells {
		b.fixWideEdge(row)
	}
}

// SetTabStop enables a tab stop at the specified column.
func (b *Buffer) SetTabStop(col int) {
	if col >= 0 && col < b.cols {
		b.tabStop[col] = true
	}
}

// ClearTabStop disables the tab stop at the specified column.
func (b *Buffer) ClearTabStop(col int) {
	if col >= 0 && col < b.cols {
		b.tabStop[col] = false
	}
}

// ClearAllTabStops disables all tab stops.
func (b *Buffer) ClearAllTabStops() {
	for i := range b.tabStop {
		b.tabStop[i] = false
	}
}

// NextTabStop returns the column index of the next enabled tab stop after col.
// Returns the last column if no tab stop is found.
func (b *Buffer) NextTabStop(col int) int {
	for c := col + 1; c < b.cols; c++ {
		if b.tabStop[c] {
			return c
		}
	}
	return b.cols - 1
}

// PrevTabStop returns the column index of the previous enabled tab stop before col.
// Returns 0 if no tab stop is found.
func (b *Buffer) PrevTabStop(col int) int {
	for c := col - 1; c >= 0; c-- {
		if b.tabStop[c] {
			return c
		}
	}
	return 0
}

// FillWithE fills all cells with 'E' (DECALN screen alignment pattern).
func (b *Buffer) FillWithE() {
	for row := range b.cells {
		for col := range b.cells[row] {
			b.cells[row][col] = Cell{Char: 'E'}
		}
	}
}

// LineContent returns the text content of a line, trimming trailing spaces.
// Wide character spacers are skipped. Returns empty string if the line is blank or out of bounds.
func (b *Buffer) LineContent(row int) string {
	if row < 0 || row >= b.rows {
		return ""
	}
	return trimRow(b.cells[row])
}

func trimRow(line []Cell) string {
	last := -1
	for col := len(line) - 1; col >= 0; col-- {
		if c := line[col]; c.Char != ' ' && c.Char != 0 && !c.IsWideSpacer() {
			last = col
			break
		}
	}

	runes := make([]rune, 0, last+1)
	for _, c := range line[:last+1] {
		if c.IsWideSpacer() {
			continue
		}
		if c.Char == 0 {
			runes = append(runes, ' ')
		} else {
			runes = append(runes, c.Char)
		}
	}
	return string(runes)
}

// copyCells returns a deep copy of the grid.
func (b *Buffer) copyCells() [][]Cell {
	out := make([][]Cell, b.rows)
	for i, line := range b.cells {
		out[i] = append([]Cell(nil), line...)
	}
	return out
}

// Position identifies a cell location in the grid (0-based).
type Position struct {
	Row int
	Col int
}

// Before returns true if this position comes before other in reading order (top-to-bottom, left-to-right).
func (p Position) Before(other Position) bool {
	return p.Row < other.Row || (p.Row == other.Row && p.Col < other.Col)
}
