package toolkit

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/wltk/internal/keymap"
	"github.com/bnema/wltk/internal/protocols"
	"github.com/bnema/wltk/internal/trace"
)

func TestPointerLocationBands(t *testing.T) {
	d := newTestDisplay()
	w, _, _ := newTestWindow(t, d, 500, 400)

	// margin 16, grip 8: the X bands are [0,16) exterior, [16,24) left
	// grip, [24,476) interior, [476,484) right grip, [484,500) exterior,
	// and Y splits the same way at 376/384/400.
	cases := []struct {
		name string
		x, y int32
		want int
	}{
		{"top left grip", 20, 20, locationTopLeft},
		{"top grip", 250, 20, locationResizingTop},
		{"top right grip", 480, 20, locationTopRight},
		{"left grip", 20, 200, locationResizingLeft},
		{"right grip", 480, 200, locationResizingRight},
		{"bottom left grip", 20, 380, locationBottomLeft},
		{"bottom grip", 250, 380, locationResizingBottom},
		{"bottom right grip", 480, 380, locationBottomRight},
		{"titlebar", 250, 40, locationTitlebar},
		{"client area", 250, 100, locationClientArea},
		{"margin is exterior", 8, 200, locationExterior},
		{"margin row beats grip column", 480, 8, locationExterior},
		{"left of the allocation", -5, 200, locationExterior},
		{"below the allocation", 250, 450, locationExterior},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, w.pointerLocation(tc.x, tc.y))
		})
	}

	w.SetDecoration(false)
	assert.Equal(t, locationClientArea, w.pointerLocation(250, 40))
	assert.Equal(t, locationClientArea, w.pointerLocation(8, 8))
}

func TestMoveDrag(t *testing.T) {
	d := newTestDisplay()
	in := newTestInput(d)
	w, fw, _ := newTestWindow(t, d, 500, 400)

	in.pointerEnter(1, fw.id, 250, 40)
	in.pointerButton(2, 0, protocols.BtnLeft, 1)
	require.Same(t, w, in.grabWindow)
	assert.Equal(t, locationTitlebar, in.grabLocation)
	assert.Equal(t, PointerDragging, in.currentImage)

	in.pointerMotion(0, 280, 55)
	assert.Equal(t, int32(30), w.moveDx)
	assert.Equal(t, int32(15), w.moveDy)
	x, y := w.Position()
	assert.Equal(t, int32(30), x)
	assert.Equal(t, int32(15), y)

	// Each motion restates the whole delta from the grab anchor.
	in.pointerMotion(0, 260, 50)
	assert.Equal(t, int32(10), w.moveDx)
	assert.Equal(t, int32(10), w.moveDy)
	x, y = w.Position()
	assert.Equal(t, int32(10), x)
	assert.Equal(t, int32(10), y)

	in.pointerButton(3, 0, protocols.BtnLeft, 0)
	assert.Nil(t, in.grabWindow)

	// The pending delta rides out with the next frame, once.
	require.NoError(t, w.Draw())
	w.Flush()
	require.Len(t, fw.attaches, 1)
	assert.Equal(t, fakeAttach{dx: 10, dy: 10}, fw.attaches[0])
	assert.Zero(t, w.moveDx)
	assert.Zero(t, w.moveDy)
}

func TestResizeDrag(t *testing.T) {
	d := newTestDisplay()
	in := newTestInput(d)
	w, fw, _ := newTestWindow(t, d, 500, 400)

	resizes := 0
	w.SetResizeHandler(func(win *Window, cw, ch int32) {
		resizes++
		win.SetChildSize(cw, ch)
	})

	// Establish the size the server has seen.
	require.NoError(t, w.Draw())
	w.Flush()
	fw.ack(t)

	in.pointerEnter(1, fw.id, 20, 20)
	in.pointerButton(2, 0, protocols.BtnLeft, 1)
	require.Same(t, w, in.grabWindow)
	assert.Equal(t, locationTopLeft, in.grabLocation)

	// Dragging the top-left corner inward shrinks the window and walks
	// the tracked position so the bottom-right corner stays anchored.
	in.pointerMotion(0, 30, 30)
	assert.Equal(t, 1, resizes)
	a := w.Allocation()
	assert.Equal(t, int32(490), a.Width)
	assert.Equal(t, int32(390), a.Height)
	x, y := w.Position()
	assert.Equal(t, int32(10), x)
	assert.Equal(t, int32(10), y)

	require.NoError(t, w.Draw())
	w.Flush()
	require.Len(t, fw.attaches, 2)
	assert.Equal(t, fakeAttach{dx: 10, dy: 10}, fw.attaches[1])
	assert.Zero(t, w.resizeEdges)

	// The attach moved the surface origin under the pointer, so the grab
	// anchor shifts with it and later deltas stay physical.
	assert.Equal(t, int32(10), in.grabSx)
	assert.Equal(t, int32(10), in.grabSy)

	in.pointerButton(3, 0, protocols.BtnLeft, 0)
	assert.Nil(t, in.grabWindow)
	assert.Equal(t, 1, resizes)
}

func TestResizeClampsToMinimum(t *testing.T) {
	d := newTestDisplay()
	in := newTestInput(d)
	w, fw, _ := newTestWindow(t, d, 500, 400)

	in.pointerEnter(1, fw.id, 480, 200)
	in.pointerButton(2, 0, protocols.BtnLeft, 1)
	require.Equal(t, locationResizingRight, in.grabLocation)

	in.pointerMotion(0, 20, 200)
	assert.Equal(t, int32(53), w.Allocation().Width)
	assert.Equal(t, int32(400), w.Allocation().Height)
	x, _ := w.Position()
	assert.Zero(t, x, "right-edge resize leaves the origin alone")
}

func TestLeaveEndsGrab(t *testing.T) {
	d := newTestDisplay()
	in := newTestInput(d)
	w, fw, _ := newTestWindow(t, d, 500, 400)

	in.pointerEnter(1, fw.id, 250, 40)
	in.pointerButton(2, 0, protocols.BtnLeft, 1)
	require.Same(t, w, in.grabWindow)

	in.pointerLeave(3, fw.id)
	assert.Nil(t, in.grabWindow)
	assert.Nil(t, in.PointerFocus())
	assert.Equal(t, PointerUnset, in.currentImage)
}

func TestItemFocusAndGrab(t *testing.T) {
	d := newTestDisplay()
	in := newTestInput(d)
	w, fw, _ := newTestWindow(t, d, 500, 400)
	w.SetDecoration(false)

	a := w.AddItem("a")
	a.SetAllocation(10, 10, 100, 30)
	b := w.AddItem("b")
	b.SetAllocation(10, 50, 100, 30)

	var log []interface{}
	w.SetItemFocusHandler(func(_ *Window, it *Item) {
		if it == nil {
			log = append(log, nil)
			return
		}
		log = append(log, it.UserData())
	})

	in.pointerEnter(1, fw.id, 20, 20)
	require.Same(t, a, w.FocusItem())

	in.pointerMotion(0, 30, 25)
	in.pointerMotion(0, 20, 60)
	require.Same(t, b, w.FocusItem())
	assert.Equal(t, []interface{}{"a", "b"}, log)

	// A pressed button freezes item focus until release.
	in.pointerButton(2, 0, protocols.BtnLeft, 1)
	in.pointerMotion(0, 20, 20)
	assert.Same(t, b, w.FocusItem())

	in.pointerButton(3, 0, protocols.BtnLeft, 0)
	assert.Same(t, a, w.FocusItem())
	assert.Equal(t, []interface{}{"a", "b", "a"}, log)
}

func TestReplayedTraceDrivesMoveDrag(t *testing.T) {
	// The tail of a recorded titlebar drag, in the encoding eventdemo
	// --record writes: motion carries (x, y), button carries (button,
	// state).
	var buf bytes.Buffer
	rec := trace.NewRecorder(&buf)
	rec.Record(trace.KindPointerMotion, 280, 55, "")
	rec.Record(trace.KindPointerButton, int64(protocols.BtnLeft), 0, "")
	require.NoError(t, rec.Close())

	d := newTestDisplay()
	in := newTestInput(d)
	w, fw, _ := newTestWindow(t, d, 500, 400)

	in.pointerEnter(1, fw.id, 250, 40)
	in.pointerButton(2, 0, protocols.BtnLeft, 1)
	require.Same(t, w, in.grabWindow)

	p, err := trace.NewPlayer(&buf)
	require.NoError(t, err)
	serial := uint32(3)
	for {
		r, err := p.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		switch r.Kind {
		case trace.KindPointerMotion:
			in.pointerMotion(0, int32(r.A), int32(r.B))
		case trace.KindPointerButton:
			in.pointerButton(serial, 0, uint32(r.A), uint32(r.B))
			serial++
		}
	}

	x, y := w.Position()
	assert.Equal(t, int32(30), x)
	assert.Equal(t, int32(15), y)
	assert.Nil(t, in.grabWindow, "replayed release ends the grab")
}

func TestPointerImageTransitions(t *testing.T) {
	d := newTestDisplay()
	in := newTestInput(d)
	w, fw, _ := newTestWindow(t, d, 500, 400)

	in.pointerEnter(1, fw.id, 250, 100)
	assert.Equal(t, PointerLeftPtr, in.currentImage)

	w.SetMotionHandler(func(*Window, *Input, uint32, int32, int32) int {
		return PointerIbeam
	})
	in.pointerMotion(0, 260, 100)
	assert.Equal(t, PointerIbeam, in.currentImage)

	// Resize grips override the handler's hint.
	in.pointerMotion(0, 20, 200)
	assert.Equal(t, PointerLeft, in.currentImage)
	in.pointerMotion(0, 20, 20)
	assert.Equal(t, PointerTopLeft, in.currentImage)

	// The titlebar and the margin show the plain arrow.
	in.pointerMotion(0, 250, 40)
	assert.Equal(t, PointerDefault, in.currentImage)
	in.pointerMotion(0, 5, 5)
	assert.Equal(t, PointerDefault, in.currentImage)

	in.pointerLeave(2, fw.id)
	assert.Equal(t, PointerUnset, in.currentImage)
}

func TestKeyboard(t *testing.T) {
	d := newTestDisplay()
	in := newTestInput(d)
	w1, fw1, _ := newTestWindow(t, d, 300, 200)
	w2, fw2, _ := newTestWindow(t, d, 300, 200)

	type keyEvent struct{ sym, state uint32 }
	var keys []keyEvent
	w1.SetKeyHandler(func(_ *Window, _ *Input, _, _, sym, state uint32) {
		keys = append(keys, keyEvent{sym, state})
	})
	var focus []*Input
	w1.SetKeyboardFocusHandler(func(_ *Window, in *Input) {
		focus = append(focus, in)
	})

	in.keyboardEnter(1, fw1.id, nil)
	require.Same(t, w1, in.KeyboardFocus())
	require.Equal(t, []*Input{in}, focus)

	// The sym resolves against the modifier state from before the event,
	// so the shift press itself is unshifted and 'a' after it is not.
	in.key(2, 0, keymap.CodeLeftShift, 1)
	in.key(3, 0, 30, 1)
	in.key(4, 0, keymap.CodeLeftShift, 0)
	in.key(5, 0, 30, 0)
	want := []keyEvent{
		{keymap.SymShiftL, 1},
		{'A', 1},
		{keymap.SymShiftL, 0},
		{'a', 0},
	}
	assert.Equal(t, want, keys)
	assert.Zero(t, in.Modifiers())

	// Focus moving on blurs the old window first and rebuilds the mask
	// from the keys held on entry.
	in.keyboardEnter(6, fw2.id, []uint32{keymap.CodeLeftShift})
	assert.Same(t, w2, in.KeyboardFocus())
	assert.Equal(t, []*Input{in, nil}, focus)
	assert.Nil(t, w1.keyboardDevice)
	assert.Same(t, in, w2.keyboardDevice)
	assert.Equal(t, keymap.ModShift, in.Modifiers())

	in.keyboardLeave(7)
	assert.Nil(t, in.KeyboardFocus())
	assert.Nil(t, w2.keyboardDevice)
	assert.Zero(t, in.Modifiers(), "focus loss drops held modifiers")
}
