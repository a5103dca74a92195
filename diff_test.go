package numpty

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiffTextEqual(t *testing.T) {
	assert.Empty(t, DiffText("a\nb", "a\nb"))
}

func TestDiffTextChangedLine(t *testing.T) {
	d := DiffText("one\ntwo\nthree\n", "one\n2\nthree\n")

	assert.Contains(t, d, " one\n")
	assert.Contains(t, d, "-two\n")
	assert.Contains(t, d, "+2\n")
	assert.Contains(t, d, " three\n")
	assert.NotContains(t, d, "+two")
}

func TestDiffTextMissingTrailingNewline(t *testing.T) {
	d := DiffText("", "added")

	assert.Equal(t, "+added\n", d)
}

func TestSnapshotDiff(t *testing.T) {
	s := NewScreen(2, 10)
	s.WriteString("score 1")
	before := s.Snapshot()

	s.WriteString("\x1b[1;7H2")
	after := s.Snapshot()

	assert.Empty(t, before.Diff(before))
	d := before.Diff(after)
	assert.Contains(t, d, "-score 1\n")
	assert.Contains(t, d, "+score 2\n")
}
