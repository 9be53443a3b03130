package cmd

import (
	"testing"

	"github.com/gogpu/gg/text"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"
)

func TestRuneBoundaries(t *testing.T) {
	// a(1) é(2) 日(3) b(1), byte offsets 0 1 3 6, length 7.
	const s = "aé日b"

	tests := []struct {
		name   string
		fn     func(string, int) int
		offset int
		want   int
	}{
		{"prev from end", prevRuneStart, 7, 6},
		{"prev over multibyte", prevRuneStart, 6, 3},
		{"prev to multibyte start", prevRuneStart, 3, 1},
		{"prev at start", prevRuneStart, 0, -1},
		{"next over ascii", nextRuneEnd, 0, 1},
		{"next over multibyte", nextRuneEnd, 1, 3},
		{"next at end", nextRuneEnd, 7, -1},
		{"start on boundary", runeStart, 3, 3},
		{"start inside rune", runeStart, 4, 3},
		{"end on boundary", runeEnd, 3, 3},
		{"end inside rune", runeEnd, 4, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.fn(s, tt.offset))
		})
	}
}

func TestDisplayText(t *testing.T) {
	e := &textEntry{text: "hello", cursor: 2}
	assert.Equal(t, "hello", e.displayText())

	e.preedit.text = "XY"
	assert.Equal(t, "heXYllo", e.displayText(), "preedit splices in at the cursor")
}

func TestSetPreedit(t *testing.T) {
	e := &textEntry{text: "ab", cursor: 1}

	e.setPreedit("xyz", 99)
	assert.Equal(t, 3, e.preedit.cursor, "out-of-range cursor clamps to the end")

	e.setPreedit("q", -1)
	assert.Equal(t, -1, e.preedit.cursor, "negative cursor hides the caret")

	e.setPreedit("", 0)
	assert.Equal(t, "", e.preedit.text)
	assert.Equal(t, 0, e.preedit.cursor)
}

func TestIndexAt(t *testing.T) {
	fonts, err := text.NewFontSource(goregular.TTF)
	require.NoError(t, err)
	face := fonts.Face(editorFontSize)
	adv := face.Advance("i")

	e := &textEntry{text: "iii", face: face}

	tests := []struct {
		name string
		x    float64
		want int
	}{
		{"left of the text", -5, 0},
		{"first half of a glyph", adv * 0.25, 0},
		{"second half of a glyph", adv * 0.75, 1},
		{"middle glyph", adv * 1.25, 1},
		{"right of the text", adv*3 + 10, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.indexAt(tt.x))
		})
	}
}
