package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/wltk/internal/keymap"
	"github.com/bnema/wltk/internal/toolkit"
)

func TestLayoutKeys(t *testing.T) {
	keys, width, height := layoutKeys(kbRows())

	require.Len(t, keys, 50)
	assert.Equal(t, int32(534), width)
	assert.Equal(t, int32(156), height)
	assert.Equal(t, toolkit.Rectangle{X: kbInset, Y: kbInset, Width: kbUnit, Height: kbHeight}, keys[0].rect)

	// Keys never overlap within a row and stay inside the insets.
	prevY := int32(-1)
	prevRight := int32(0)
	for _, key := range keys {
		r := key.rect
		assert.True(t, r.X >= kbInset && r.X+r.Width <= width-kbInset,
			"key %d outside horizontal insets: %+v", key.code, r)
		assert.True(t, r.Y+r.Height <= height-kbInset,
			"key %d outside vertical insets: %+v", key.code, r)
		if r.Y == prevY {
			assert.True(t, r.X >= prevRight, "key %d overlaps its neighbor: %+v", key.code, r)
		}
		prevY = r.Y
		prevRight = r.X + r.Width
	}
}

func TestKbLabel(t *testing.T) {
	tests := []struct {
		code uint32
		want string
	}{
		{keymap.CodeBackspace, "Bksp"},
		{keymap.CodeTab, "Tab"},
		{keymap.CodeEnter, "Enter"},
		{keymap.CodeLeftShift, "Shift"},
		{keymap.CodeSpace, ""},
		{16, "Q"},
		{2, "1"},
		{200, "?"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, kbLabel(tt.code), "kbLabel(%d)", tt.code)
	}
}
