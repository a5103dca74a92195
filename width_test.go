package numpty

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuneWidthClasses(t *testing.T) {
	cases := map[string]struct {
		r    rune
		want int
	}{
		"ascii":          {'x', 1},
		"box drawing":    {'┼', 1},
		"latin accented": {'\u00e9', 1},
		"cjk":            {'中', 2},
		"hangul":         {'한', 2},
		"fullwidth":      {'Ｚ', 2},
		"combining":      {'\u0301', 0},
		"nul":            {0, 0},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, runeWidth(tc.r))
		})
	}
}

func TestStringWidthMatchesScreenColumns(t *testing.T) {
	for _, text := range []string{"plain", "中文", "mix中x", "e\u0301te"} {
		s := NewScreen(1, 20)
		s.WriteString(text)

		_, col := s.Cursor()
		assert.Equal(t, StringWidth(text), col, "%q", text)
	}
}
