package numpty

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCell(t *testing.T) {
	c := NewCell()

	assert.Equal(t, ' ', c.Char)
	assert.True(t, c.Fg.IsDefault())
	assert.True(t, c.Bg.IsDefault())
	assert.Zero(t, c.Flags)
	assert.True(t, c.IsBlank())
}

func TestCellReset(t *testing.T) {
	c := Cell{Char: 'X', Fg: IndexedColor(1), Bg: RGBColor(1, 2, 3), Flags: CellFlagBold | CellFlagReverse}

	c.Reset()

	assert.Equal(t, NewCell(), c)
}

func TestCellFlags(t *testing.T) {
	c := NewCell()

	c.SetFlag(CellFlagBold)
	c.SetFlag(CellFlagUnderline)
	assert.True(t, c.HasFlag(CellFlagBold))
	assert.True(t, c.HasFlag(CellFlagUnderline))
	assert.False(t, c.HasFlag(CellFlagItalic))

	c.ClearFlag(CellFlagBold)
	assert.False(t, c.HasFlag(CellFlagBold))
	assert.True(t, c.HasFlag(CellFlagUnderline))
	assert.False(t, c.IsBlank())
}

func TestCellWide(t *testing.T) {
	lead := Cell{Char: '中', Flags: CellFlagWideChar}
	spacer := Cell{Char: ' ', Flags: CellFlagWideCharSpacer}

	assert.True(t, lead.IsWide())
	assert.False(t, lead.IsWideSpacer())
	assert.True(t, spacer.IsWideSpacer())
	assert.False(t, spacer.IsBlank())
}

func TestCellStyleDropsLayoutFlags(t *testing.T) {
	c := Cell{Char: '中', Fg: IndexedColor(2), Flags: CellFlagWideChar | CellFlagBold}

	assert.Equal(t, Pen{Fg: IndexedColor(2), Flags: CellFlagBold}, c.Style())
	assert.True(t, NewCell().Style().IsDefault())
}
