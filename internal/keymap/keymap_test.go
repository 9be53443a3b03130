package keymap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		code uint32
		mods uint32
		want uint32
	}{
		{"letter plain", 30, 0, 'a'},
		{"letter shifted", 30, ModShift, 'A'},
		{"letter capslock", 30, ModCaps, 'A'},
		{"letter shift and caps cancel", 30, ModShift | ModCaps, 'a'},
		{"digit plain", 2, 0, '1'},
		{"digit shifted", 2, ModShift, '!'},
		{"digit capslock unaffected", 2, ModCaps, '1'},
		{"space", CodeSpace, ModShift, ' '},
		{"escape", CodeEsc, 0, SymEscape},
		{"f11", CodeF11, 0, SymF11},
		{"arrow", CodeLeft, ModCtrl, SymLeft},
		{"unknown code", 240, 0, SymNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.code, tt.mods))
		})
	}
}

func TestModifierBit(t *testing.T) {
	assert.Equal(t, ModShift, ModifierBit(CodeLeftShift))
	assert.Equal(t, ModShift, ModifierBit(CodeRightShift))
	assert.Equal(t, ModCtrl, ModifierBit(CodeLeftCtrl))
	assert.Equal(t, ModAlt, ModifierBit(CodeRightAlt))
	assert.Equal(t, ModLogo, ModifierBit(CodeLeftMeta))
	assert.Zero(t, ModifierBit(30), "letter keys carry no modifier bit")
}

func TestRune(t *testing.T) {
	r, ok := Rune('x')
	assert.True(t, ok)
	assert.Equal(t, 'x', r)

	_, ok = Rune(SymEscape)
	assert.False(t, ok)
}
