package numpty

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColorZeroValueIsDefault(t *testing.T) {
	var c Color
	assert.True(t, c.IsDefault())
	assert.Equal(t, DefaultColor(), c)
	assert.Equal(t, "default", c.String())
}

func TestColorPaletteIndex(t *testing.T) {
	i, ok := IndexedColor(196).PaletteIndex()
	assert.True(t, ok)
	assert.Equal(t, uint8(196), i)

	i, ok = RGBColor(255, 0, 0).PaletteIndex()
	assert.False(t, ok)
	assert.Zero(t, i)

	_, ok = DefaultColor().PaletteIndex()
	assert.False(t, ok)
}

func TestColorRGBA(t *testing.T) {
	tests := []struct {
		name string
		c    Color
		want color.RGBA
	}{
		{"red", IndexedColor(1), color.RGBA{205, 0, 0, 255}},
		{"bright blue", IndexedColor(12), color.RGBA{92, 92, 255, 255}},
		{"cube origin", IndexedColor(16), color.RGBA{0, 0, 0, 255}},
		{"cube 196", IndexedColor(196), color.RGBA{255, 0, 0, 255}},
		{"cube 231", IndexedColor(231), color.RGBA{255, 255, 255, 255}},
		{"first gray", IndexedColor(232), color.RGBA{8, 8, 8, 255}},
		{"last gray", IndexedColor(255), color.RGBA{238, 238, 238, 255}},
		{"true color", RGBColor(1, 2, 3), color.RGBA{1, 2, 3, 255}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.c.RGBA(true))
		})
	}

	assert.Equal(t, DefaultForeground, DefaultColor().RGBA(true))
	assert.Equal(t, DefaultBackground, DefaultColor().RGBA(false))
}

func TestColorString(t *testing.T) {
	assert.Equal(t, "idx(9)", IndexedColor(9).String())
	assert.Equal(t, "#0a0b0c", RGBColor(10, 11, 12).String())
}

func TestColorSGR(t *testing.T) {
	assert.Equal(t, "38;5;1", IndexedColor(1).sgr(30))
	assert.Equal(t, "48;2;1;2;3", RGBColor(1, 2, 3).sgr(40))
	assert.Equal(t, "", DefaultColor().sgr(30))
}
