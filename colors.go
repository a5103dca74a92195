package numpty

import (
	"fmt"
	"image/color"
)

// ColorKind tells which variant a Color holds.
type ColorKind uint8

const (
	// ColorDefault is the terminal's default foreground or background.
	ColorDefault ColorKind = iota
	// ColorIndexed is a palette entry (0-255).
	ColorIndexed
	// ColorRGB is a 24-bit true color.
	ColorRGB
)

// Color is a color reference: default, a palette index, or a true color.
// The zero value is the default color. Colors are comparable with ==.
type Color struct {
	Kind    ColorKind
	Index   uint8
	R, G, B uint8
}

// DefaultColor returns the default color reference.
func DefaultColor() Color {
	return Color{}
}

// IndexedColor returns a reference to palette entry i.
func IndexedColor(i uint8) Color {
	return Color{Kind: ColorIndexed, Index: i}
}

// RGBColor returns a true color reference.
func RGBColor(r, g, b uint8) Color {
	return Color{Kind: ColorRGB, R: r, G: g, B: b}
}

// IsDefault reports whether no explicit color is set.
func (c Color) IsDefault() bool {
	return c.Kind == ColorDefault
}

// PaletteIndex returns the palette index and true for indexed colors; 0 and false otherwise.
// No attempt is made to map true colors onto the palette.
func (c Color) PaletteIndex() (uint8, bool) {
	if c.Kind == ColorIndexed {
		return c.Index, true
	}
	return 0, false
}

// RGBA resolves the color through DefaultPalette. The default color resolves to
// DefaultForeground or DefaultBackground depending on fg.
func (c Color) RGBA(fg bool) color.RGBA {
	switch c.Kind {
	case ColorIndexed:
		return DefaultPalette[c.Index]
	case ColorRGB:
		return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
	}
	if fg {
		return DefaultForeground
	}
	return DefaultBackground
}

// String returns "default", "idx(N)" or "#rrggbb".
func (c Color) String() string {
	switch c.Kind {
	case ColorIndexed:
		return fmt.Sprintf("idx(%d)", c.Index)
	case ColorRGB:
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return "default"
}

// sgr returns the SGR parameters selecting c as foreground (base 30) or background (base 40).
// The default color yields an empty string.
func (c Color) sgr(base int) string {
	switch c.Kind {
	case ColorIndexed:
		return fmt.Sprintf("%d;5;%d", base+8, c.Index)
	case ColorRGB:
		return fmt.Sprintf("%d;2;%d;%d;%d", base+8, c.R, c.G, c.B)
	}
	return ""
}

// DefaultPalette is the xterm 256-color palette: 16 ANSI colors (0-15),
// a 6x6x6 color cube (16-231) and 24 grays (232-255).
var DefaultPalette = [256]color.RGBA{
	// Standard colors (0-7)
	{0, 0, 0, 255},       // Black
	{205, 0, 0, 255},     // Red
	{0, 205, 0, 255},     // Green
	{205, 205, 0, 255},   // Yellow
	{0, 0, 238, 255},     // Blue
	{205, 0, 205, 255},   // Magenta
	{0, 205, 205, 255},   // Cyan
	{229, 229, 229, 255}, // White

	// Bright colors (8-15)
	{127, 127, 127, 255}, // Bright Black
	{255, 0, 0, 255},     // Bright Red
	{0, 255, 0, 255},     // Bright Green
	{255, 255, 0, 255},   // Bright Yellow
	{92, 92, 255, 255},   // Bright Blue
	{255, 0, 255, 255},   // Bright Magenta
	{0, 255, 255, 255},   // Bright Cyan
	{255, 255, 255, 255}, // Bright White
}

// cubeLevels are the intensities of the xterm color cube axes.
var cubeLevels = [6]uint8{0, 95, 135, 175, 215, 255}

func init() {
	i := 16
	for r := 0; r < 6; r++ {
		for g := 0; g < 6; g++ {
			for b := 0; b < 6; b++ {
				DefaultPalette[i] = color.RGBA{R: cubeLevels[r], G: cubeLevels[g], B: cubeLevels[b], A: 255}
				i++
			}
		}
	}

	for j := 0; j < 24; j++ {
		gray := uint8(8 + j*10)
		DefaultPalette[232+j] = color.RGBA{gray, gray, gray, 255}
	}
}

// DefaultForeground is what the default foreground resolves to in true-color views
// that need a concrete value. Exporters report (0,0,0) with a false mask instead.
var DefaultForeground = color.RGBA{229, 229, 229, 255}

// DefaultBackground is the default background color (black).
var DefaultBackground = color.RGBA{0, 0, 0, 255}
