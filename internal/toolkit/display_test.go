package toolkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/wltk/internal/protocols"
)

func TestExitIsIdempotent(t *testing.T) {
	d := newTestDisplay()
	d.Exit()
	d.Exit()

	select {
	case <-d.done:
	default:
		t.Fatal("done channel still open after Exit")
	}
}

func TestScreenAllocationWithoutOutputs(t *testing.T) {
	d := newTestDisplay()
	assert.Equal(t, Rectangle{}, d.ScreenAllocation())
}

func TestRemoveWindowClearsInputState(t *testing.T) {
	d := newTestDisplay()
	in := newTestInput(d)
	w, fw, _ := newTestWindow(t, d, 500, 400)

	assert.Same(t, w, d.windowBySurface(fw.id))
	assert.Nil(t, d.windowBySurface(999))

	in.pointerEnter(1, fw.id, 250, 40)
	in.keyboardEnter(2, fw.id, nil)
	in.pointerButton(3, 0, protocols.BtnLeft, 1)
	require.Same(t, w, in.grabWindow)

	w.Destroy()
	assert.Nil(t, in.PointerFocus())
	assert.Nil(t, in.KeyboardFocus())
	assert.Nil(t, in.grabWindow)
	assert.Equal(t, PointerUnset, in.currentImage)
	assert.Nil(t, d.windowBySurface(fw.id))
}
