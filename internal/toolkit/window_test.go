package toolkit

import (
	"errors"
	"testing"

	"github.com/gogpu/gg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/wltk/internal/protocols"
)

type fakeAttach struct {
	dx, dy int32
}

// fakeWire records every request a window sends and holds the frame
// callback so tests can play the compositor.
type fakeWire struct {
	id        uint32
	attaches  []fakeAttach
	damages   int
	commits   int
	toplevels int
	title     string
	frameDone func()
	destroyed bool
}

func (f *fakeWire) SurfaceID() uint32 { return f.id }

func (f *fakeWire) Attach(b bufferHandle, dx, dy int32) error {
	f.attaches = append(f.attaches, fakeAttach{dx, dy})
	return nil
}

func (f *fakeWire) Damage(x, y, width, height int32) error {
	f.damages++
	return nil
}

func (f *fakeWire) RequestFrame(done func()) error {
	f.frameDone = done
	return nil
}

func (f *fakeWire) Commit() error {
	f.commits++
	return nil
}

func (f *fakeWire) SetTitle(title string) error { f.title = title; return nil }
func (f *fakeWire) SetToplevel() error          { f.toplevels++; return nil }

func (f *fakeWire) SetTransient(parent *Window, x, y int32) error { return nil }
func (f *fakeWire) SetFullscreen() error                          { return nil }

func (f *fakeWire) SetPopup(in *Input, serial uint32, parent *Window, x, y int32) error {
	return nil
}

func (f *fakeWire) Pong(serial uint32) error { return nil }
func (f *fakeWire) Destroy()                 { f.destroyed = true }

// ack fires the pending frame callback the way the compositor would
// after presenting a commit.
func (f *fakeWire) ack(t *testing.T) {
	t.Helper()
	require.NotNil(t, f.frameDone, "no frame callback requested")
	done := f.frameDone
	f.frameDone = nil
	done()
}

type fakeBuffer struct {
	pix       *gg.Pixmap
	uploaded  bool
	discarded bool
	retired   bool
	release   func()
}

func (b *fakeBuffer) Pixmap() *gg.Pixmap            { return b.pix }
func (b *fakeBuffer) Upload()                       { b.uploaded = true }
func (b *fakeBuffer) Attachable() *protocols.Buffer { return nil }
func (b *fakeBuffer) OnRelease(fn func())           { b.release = fn }
func (b *fakeBuffer) Discard()                      { b.discarded = true }
func (b *fakeBuffer) Retire()                       { b.retired = true }

type fakeAlloc struct {
	bufs   []*fakeBuffer
	fail   bool
	closed bool
}

func (a *fakeAlloc) Allocate(width, height int32) (bufferHandle, error) {
	if a.fail {
		return nil, errors.New("allocation refused")
	}
	b := &fakeBuffer{pix: gg.NewPixmap(int(width), int(height))}
	a.bufs = append(a.bufs, b)
	return b, nil
}

func (a *fakeAlloc) Close() { a.closed = true }

func newTestDisplay() *Display {
	return &Display{
		surfaceWindows: make(map[uint32]*Window),
		wake:           make(chan struct{}, 1),
		done:           make(chan struct{}),
		readErr:        make(chan error, 1),
		margin:         16,
		gripSize:       8,
	}
}

func newTestInput(d *Display) *Input {
	in := &Input{display: d, currentImage: PointerUnset}
	d.inputs = append(d.inputs, in)
	return in
}

func newTestWindow(t *testing.T, d *Display, width, height int32) (*Window, *fakeWire, *fakeAlloc) {
	t.Helper()
	fw := &fakeWire{id: uint32(len(d.windows) + 1)}
	fa := &fakeAlloc{}
	w := d.newWindow(nil, width, height, fw, fa)
	return w, fw, fa
}

func TestScheduleRedrawCoalesces(t *testing.T) {
	d := newTestDisplay()
	w, _, _ := newTestWindow(t, d, 300, 200)

	redraws := 0
	w.SetRedrawHandler(func(*Window) { redraws++ })

	w.ScheduleRedraw()
	w.ScheduleRedraw()
	w.ScheduleRedraw()
	d.drainTasks()
	assert.Equal(t, 1, redraws)

	w.ScheduleRedraw()
	d.drainTasks()
	assert.Equal(t, 2, redraws)

	w.Destroy()
	w.ScheduleRedraw()
	d.drainTasks()
	assert.Equal(t, 2, redraws, "destroyed window must not redraw")
}

func TestFlushBackPressure(t *testing.T) {
	d := newTestDisplay()
	w, fw, fa := newTestWindow(t, d, 300, 200)

	require.NoError(t, w.Draw())
	w.Flush()
	require.Len(t, fw.attaches, 1)
	assert.Equal(t, 1, fw.commits)
	assert.Equal(t, 1, fw.damages)
	assert.True(t, fa.bufs[0].uploaded)
	require.NotNil(t, fw.frameDone)

	// A frame drawn before the callback is parked, not attached.
	require.NoError(t, w.Draw())
	w.Flush()
	assert.Len(t, fw.attaches, 1)
	assert.Equal(t, 1, fw.commits)
	assert.NotNil(t, w.cur)

	// A further draw supersedes the parked frame.
	superseded := fa.bufs[1]
	require.NoError(t, w.Draw())
	w.Flush()
	assert.True(t, superseded.discarded)
	assert.Len(t, fw.attaches, 1)

	// The callback releases exactly one more commit.
	fw.ack(t)
	assert.Len(t, fw.attaches, 2)
	assert.Equal(t, 2, fw.commits)
	assert.Nil(t, w.cur)

	// With nothing parked the callback commits nothing.
	fw.ack(t)
	assert.Len(t, fw.attaches, 2)
	assert.Equal(t, 2, fw.commits)

	// The surface role went out once, with the first flush.
	assert.Equal(t, 1, fw.toplevels)
}

func TestDrawAllocationFailure(t *testing.T) {
	d := newTestDisplay()
	w, fw, fa := newTestWindow(t, d, 300, 200)
	fa.fail = true

	require.Error(t, w.Draw())
	w.Flush()
	assert.Empty(t, fw.attaches)
	assert.Zero(t, fw.commits)
}

func TestAttachOffsetAfterLeftConfigure(t *testing.T) {
	d := newTestDisplay()
	w, fw, _ := newTestWindow(t, d, 400, 300)
	w.SetDecoration(false)

	require.NoError(t, w.Draw())
	w.Flush()
	fw.ack(t)

	// A resize from the left edge shifts the surface right by the width
	// it lost, so the right edge stays put on screen.
	w.handleConfigure(locationResizingLeft, 380, 300)
	require.NoError(t, w.Draw())
	w.Flush()

	require.Len(t, fw.attaches, 2)
	assert.Equal(t, int32(20), fw.attaches[1].dx)
	assert.Equal(t, int32(0), fw.attaches[1].dy)
	assert.Zero(t, w.resizeEdges)

	// The edge bits are consumed; the next frame attaches at the origin.
	require.NoError(t, w.Draw())
	w.Flush()
	fw.ack(t)
	require.Len(t, fw.attaches, 3)
	assert.Equal(t, fakeAttach{}, fw.attaches[2])
}

func TestConfigure(t *testing.T) {
	d := newTestDisplay()
	w, _, _ := newTestWindow(t, d, 400, 300)

	w.handleConfigure(0, 0, 300)
	w.handleConfigure(0, -5, -5)
	assert.Equal(t, int32(400), w.Allocation().Width, "degenerate sizes are ignored")

	w.handleConfigure(0, 500, 350)
	assert.Equal(t, int32(500), w.Allocation().Width)
	assert.Equal(t, int32(350), w.Allocation().Height)

	// With a resize handler the window reports the client-area size and
	// leaves the allocation to the handler.
	var gotW, gotH int32
	w.SetResizeHandler(func(_ *Window, cw, ch int32) { gotW, gotH = cw, ch })
	w.handleConfigure(0, 500, 400)
	assert.Equal(t, int32(448), gotW)
	assert.Equal(t, int32(308), gotH)
	assert.Equal(t, int32(350), w.Allocation().Height)
}

func TestChildGeometryRoundTrip(t *testing.T) {
	d := newTestDisplay()
	w, _, _ := newTestWindow(t, d, 500, 400)

	child := w.ChildAllocation()
	assert.Equal(t, Rectangle{X: 26, Y: 66, Width: 448, Height: 308}, child)

	w.SetChildSize(child.Width, child.Height)
	a := w.Allocation()
	assert.Equal(t, int32(500), a.Width)
	assert.Equal(t, int32(400), a.Height)
	assert.Equal(t, int32(36), a.X)
	assert.Equal(t, int32(76), a.Y)

	w.SetDecoration(false)
	assert.Equal(t, w.Allocation(), w.ChildAllocation())
}

func TestFullscreenRestores(t *testing.T) {
	d := newTestDisplay()
	w, _, _ := newTestWindow(t, d, 500, 400)
	w.SetResizeHandler(func(win *Window, cw, ch int32) {
		win.SetChildSize(cw, ch)
	})

	// Without a known output mode the request is refused.
	w.SetFullscreen(true)
	assert.False(t, w.Fullscreen())

	w.enterFullscreen(Rectangle{Width: 1280, Height: 720})
	assert.True(t, w.Fullscreen())
	assert.False(t, w.decoration)
	assert.Equal(t, int32(1280), w.Allocation().Width)
	assert.Equal(t, int32(720), w.Allocation().Height)

	w.SetFullscreen(false)
	assert.False(t, w.Fullscreen())
	assert.True(t, w.decoration)
	assert.Equal(t, int32(500), w.Allocation().Width)
	assert.Equal(t, int32(400), w.Allocation().Height)

	// Leaving fullscreen twice changes nothing.
	w.SetFullscreen(false)
	assert.Equal(t, int32(500), w.Allocation().Width)
}

func TestDestroyReleasesBuffers(t *testing.T) {
	d := newTestDisplay()
	w, fw, fa := newTestWindow(t, d, 300, 200)

	require.NoError(t, w.Draw())
	w.Flush()
	require.NoError(t, w.Draw())
	w.Flush() // parked behind the in-flight commit

	w.Destroy()
	assert.True(t, fw.destroyed)
	assert.True(t, fa.closed)
	assert.True(t, fa.bufs[0].retired, "in-flight buffer reclaimed")
	assert.True(t, fa.bufs[1].discarded, "parked buffer freed")
	assert.Empty(t, d.windows)
	assert.Nil(t, d.windowBySurface(fw.id))

	w.Destroy()
	assert.True(t, fw.destroyed)
}

func TestSetTitle(t *testing.T) {
	d := newTestDisplay()
	w, fw, _ := newTestWindow(t, d, 300, 200)

	w.SetTitle("flower")
	assert.Equal(t, "flower", w.Title())
	assert.Equal(t, "flower", fw.title)
}
