package toolkit

import (
	"github.com/gogpu/gg"

	"github.com/bnema/wltk/internal/logger"
	"github.com/bnema/wltk/internal/protocols"
)

type windowType int

const (
	typeToplevel windowType = iota
	typeFullscreen
	typeTransient
	typePopup
	typeCustom
)

// Decoration geometry: the frame is 10px of border plus the margin on
// each side, with a 40px titlebar band above the client area.
const (
	frameInsetX   = 10
	frameInsetTop = 50
	titlebarReach = 50
)

// Window is one on-screen surface with optional decorations, a set of
// event handlers, and the buffer lifecycle behind ScheduleRedraw.
type Window struct {
	display *Display
	wire    windowWire
	alloc   bufferAllocator
	parent  *Window

	title       string
	typ         windowType
	typeDirty   bool
	x, y        int32 // position relative to parent for transients and popups
	popupSeat   *Input
	popupSerial uint32

	allocation       Rectangle
	savedAllocation  Rectangle
	serverAllocation Rectangle
	resizeEdges      uint32
	moveDx, moveDy   int32

	margin      int32
	gripSize    int32
	decoration  bool
	transparent bool

	items          []*Item
	focusItem      *Item
	itemGrabButton uint32

	keyboardDevice *Input

	dc      *gg.Context
	cur     bufferHandle // drawn, not yet attached
	pending bufferHandle // attached, waiting for the frame callback

	redrawScheduled bool
	destroyed       bool

	resizeHandler        func(w *Window, width, height int32)
	redrawHandler        func(w *Window)
	keyHandler           func(w *Window, in *Input, time, key, sym, state uint32)
	buttonHandler        func(w *Window, in *Input, time, button, state uint32)
	motionHandler        func(w *Window, in *Input, time uint32, x, y int32) int
	enterHandler         func(w *Window, in *Input, x, y int32) int
	leaveHandler         func(w *Window, in *Input)
	keyboardFocusHandler func(w *Window, in *Input)
	itemFocusHandler     func(w *Window, item *Item)
	popupDoneHandler     func(w *Window)
	dragEnterHandler     func(w *Window, in *Input, x, y int32, mimes []string) string
	dropHandler          func(w *Window, in *Input, x, y int32)
	frameHandler         func(w *Window)
}

func (d *Display) newWindow(parent *Window, width, height int32, wire windowWire, alloc bufferAllocator) *Window {
	w := &Window{
		display:     d,
		wire:        wire,
		alloc:       alloc,
		parent:      parent,
		typeDirty:   true,
		allocation:  Rectangle{Width: width, Height: height},
		margin:      d.margin,
		gripSize:    d.gripSize,
		decoration:  true,
		transparent: true,
	}
	w.savedAllocation = w.allocation
	w.serverAllocation = w.allocation
	d.windows = append(d.windows, w)
	d.surfaceWindows[wire.SurfaceID()] = w
	return w
}

// Display returns the owning display.
func (w *Window) Display() *Display { return w.display }

// SetTitle names the window for the decoration titlebar and the shell.
func (w *Window) SetTitle(title string) {
	w.title = title
	if err := w.wire.SetTitle(title); err != nil {
		logger.Warn("failed to set title", "error", err)
	}
}

// Title returns the current window title.
func (w *Window) Title() string { return w.title }

// SetDecoration enables or disables the drawn frame and titlebar.
func (w *Window) SetDecoration(decoration bool) {
	w.decoration = decoration
}

// SetTransparent selects an alpha-carrying pixel format for the
// window's buffers. Must be set before the first redraw.
func (w *Window) SetTransparent(transparent bool) {
	w.transparent = transparent
	if a, ok := w.alloc.(*shmAllocator); ok {
		a.transparent = transparent
	}
	if a, ok := w.alloc.(*drmAllocator); ok {
		a.transparent = transparent
	}
}

// SetCustom suppresses the shell mapping requests; the demo takes over
// surface role assignment.
func (w *Window) SetCustom() {
	w.typ = typeCustom
}

// SetBufferBackend swaps the window onto a different buffer backend.
// Must be called before the first draw.
func (w *Window) SetBufferBackend(b Backend) error {
	alloc, err := w.display.allocatorFor(b, w.transparent)
	if err != nil {
		return err
	}
	w.alloc.Close()
	w.alloc = alloc
	return nil
}

// Allocation returns the full window rectangle including decorations.
func (w *Window) Allocation() Rectangle {
	return w.allocation
}

// Surface returns the window's protocol surface, for demos that attach
// extension state (viewports, text models) to it. Nil when the window
// is not backed by a protocol surface.
func (w *Window) Surface() *protocols.Surface {
	if ws, ok := w.wire.(*wireSurface); ok {
		return ws.surface
	}
	return nil
}

// Position returns the window's tracked screen position, updated by
// client-side moves and LEFT/TOP-edge resizes. Transients and popups
// carry their parent-relative origin here.
func (w *Window) Position() (int32, int32) {
	return w.x, w.y
}

// ChildAllocation returns the client-area rectangle inside the
// decorations, or the full window when undecorated.
func (w *Window) ChildAllocation() Rectangle {
	if !w.decoration {
		return w.allocation
	}
	return Rectangle{
		X:      w.margin + frameInsetX,
		Y:      w.margin + frameInsetTop,
		Width:  w.allocation.Width - 2*frameInsetX - 2*w.margin,
		Height: w.allocation.Height - frameInsetTop - frameInsetX - 2*w.margin,
	}
}

// SetChildSize resizes the window so the client area has the given
// size, accounting for decorations.
func (w *Window) SetChildSize(width, height int32) {
	if w.decoration {
		w.allocation.X = 2*frameInsetX + w.margin
		w.allocation.Y = frameInsetTop + frameInsetX + w.margin
		w.allocation.Width = width + 2*frameInsetX + 2*w.margin
		w.allocation.Height = height + frameInsetTop + frameInsetX + 2*w.margin
	} else {
		w.allocation = Rectangle{Width: width, Height: height}
	}
}

func (w *Window) childDimensions(width, height int32) (int32, int32) {
	if !w.decoration {
		return width, height
	}
	return width - 2*frameInsetX - 2*w.margin,
		height - frameInsetTop - frameInsetX - 2*w.margin
}

// ScheduleRedraw queues one redraw on the deferred queue. Further calls
// before it runs are coalesced.
func (w *Window) ScheduleRedraw() {
	if w.redrawScheduled || w.destroyed {
		return
	}
	w.redrawScheduled = true
	w.display.Defer(func() {
		w.redrawScheduled = false
		if w.destroyed || w.redrawHandler == nil {
			return
		}
		w.redrawHandler(w)
	})
}

// Draw allocates a fresh buffer for the current allocation and paints
// the chrome: menu background for popups, decorations for decorated
// windows, nothing for plain ones. Redraw handlers call this first,
// draw their content through Canvas, then Flush.
func (w *Window) Draw() error {
	if w.cur != nil {
		w.cur.Discard()
		w.cur = nil
		w.dc = nil
	}

	h, err := w.alloc.Allocate(w.allocation.Width, w.allocation.Height)
	if err != nil {
		logger.Error("failed to allocate window buffer", "error", err)
		return err
	}
	w.cur = h
	w.dc = gg.NewContext(int(w.allocation.Width), int(w.allocation.Height), gg.WithPixmap(h.Pixmap()))

	switch {
	case w.typ == typePopup:
		w.drawMenuBackground()
	case w.decoration:
		w.drawDecorations()
	}
	return nil
}

// Canvas returns the drawing context for the frame started by Draw.
func (w *Window) Canvas() *gg.Context {
	return w.dc
}

func (w *Window) drawDecorations() {
	t := w.display.theme
	if t == nil {
		return
	}
	width := int(w.allocation.Width)
	height := int(w.allocation.Height)
	active := w.keyboardDevice != nil

	t.DrawShadow(w.dc, width, height)
	t.DrawFrame(w.dc, width, height, active)
	t.DrawTitle(w.dc, w.title, width, active)
}

func (w *Window) drawMenuBackground() {
	const r = 5
	width := float64(w.allocation.Width)
	height := float64(w.allocation.Height)

	w.dc.DrawRoundedRectangle(r, r, width-2*r, height-2*r, r)
	w.dc.SetRGBA(0.15, 0.15, 0.15, 0.9)
	w.dc.Fill()
}

// Damage marks a region of the surface as needing repaint by the
// compositor.
func (w *Window) Damage(x, y, width, height int32) {
	if err := w.wire.Damage(x, y, width, height); err != nil {
		logger.Warn("failed to damage surface", "error", err)
	}
}

// Flush hands the drawn frame to the compositor, subject to the
// one-outstanding-commit rule. If a commit is still in flight the
// frame is parked and attached when the frame callback fires.
func (w *Window) Flush() {
	if w.cur == nil {
		return
	}
	w.attachSurface()
}

func (w *Window) resizeOffsets() (int32, int32) {
	var dx, dy int32
	if w.resizeEdges&locationResizingLeft != 0 {
		dx = w.serverAllocation.Width - w.allocation.Width
	}
	if w.resizeEdges&locationResizingTop != 0 {
		dy = w.serverAllocation.Height - w.allocation.Height
	}
	w.resizeEdges = 0
	return dx, dy
}

func (w *Window) setWireType() {
	if !w.typeDirty {
		return
	}
	w.typeDirty = false

	var err error
	switch w.typ {
	case typeToplevel:
		err = w.wire.SetToplevel()
	case typeFullscreen:
		err = w.wire.SetFullscreen()
	case typeTransient:
		err = w.wire.SetTransient(w.parent, w.x, w.y)
	case typePopup:
		err = w.wire.SetPopup(w.popupSeat, w.popupSerial, w.parent, w.x, w.y)
	case typeCustom:
	}
	if err != nil {
		logger.Warn("failed to set surface role", "error", err)
	}
}

func (w *Window) attachSurface() {
	w.setWireType()

	if w.pending != nil {
		return
	}

	h := w.cur
	w.cur = nil
	w.dc = nil
	w.pending = h

	dx, dy := w.resizeOffsets()
	dx += w.moveDx
	dy += w.moveDy
	w.moveDx, w.moveDy = 0, 0

	h.Upload()
	h.OnRelease(func() { h.Retire() })

	if err := w.wire.Attach(h, dx, dy); err != nil {
		logger.Error("failed to attach buffer", "error", err)
		w.pending = nil
		h.Retire()
		return
	}
	w.Damage(0, 0, w.allocation.Width, w.allocation.Height)
	if err := w.wire.RequestFrame(w.handleFrameDone); err != nil {
		logger.Warn("failed to request frame callback", "error", err)
	}
	if err := w.wire.Commit(); err != nil {
		logger.Error("failed to commit surface", "error", err)
	}
	w.serverAllocation = w.allocation

	if dx != 0 || dy != 0 {
		w.display.shiftGrabAnchors(w, dx, dy)
	}
}

// handleFrameDone runs on the loop goroutine when the compositor has
// presented the last commit. A frame drawn in the meantime goes out
// now, as exactly one further commit.
func (w *Window) handleFrameDone() {
	w.pending = nil
	if w.destroyed {
		return
	}
	if w.cur != nil {
		w.attachSurface()
	}
	if w.frameHandler != nil {
		w.frameHandler(w)
	}
}

// Move starts an interactive move driven by the given input's pointer
// grab. Demos call this from a button handler on an undecorated window;
// decorated windows start it from the titlebar automatically.
func (w *Window) Move(in *Input) {
	in.startGrab(w, locationTitlebar)
}

// SetFullscreen toggles between the output size and the saved
// allocation. The resize handler always runs so the demo repaints at
// the new size.
func (w *Window) SetFullscreen(fullscreen bool) {
	if (w.typ == typeFullscreen) == fullscreen {
		return
	}
	if fullscreen {
		screen := w.display.ScreenAllocation()
		if screen.Width <= 0 || screen.Height <= 0 {
			logger.Warn("no output mode known, staying windowed")
			return
		}
		w.enterFullscreen(screen)
	} else {
		w.leaveFullscreen()
	}
}

func (w *Window) enterFullscreen(screen Rectangle) {
	w.typ = typeFullscreen
	w.typeDirty = true
	w.savedAllocation = w.allocation
	w.decoration = false
	w.applyResize(screen.Width, screen.Height)
}

func (w *Window) leaveFullscreen() {
	w.typ = typeToplevel
	w.typeDirty = true
	w.decoration = true
	width, height := w.childDimensions(w.savedAllocation.Width, w.savedAllocation.Height)
	w.applyResize(width, height)
}

func (w *Window) applyResize(width, height int32) {
	if w.resizeHandler != nil {
		w.resizeHandler(w, width, height)
	} else {
		w.SetChildSize(width, height)
		w.ScheduleRedraw()
	}
}

// Fullscreen reports whether the window is currently fullscreen.
func (w *Window) Fullscreen() bool {
	return w.typ == typeFullscreen
}

// handleConfigure applies a compositor-driven resize. Zero or negative
// sizes are ignored.
func (w *Window) handleConfigure(edges uint32, width, height int32) {
	if width <= 0 || height <= 0 {
		return
	}

	w.resizeEdges = edges

	if w.resizeHandler != nil {
		cw, ch := w.childDimensions(width, height)
		w.resizeHandler(w, cw, ch)
		return
	}

	w.allocation.Width = width
	w.allocation.Height = height
	if w.redrawHandler != nil {
		w.ScheduleRedraw()
	}
}

// resizeTo applies a client-side drag resize: the grab's location bits
// say which edges move.
func (w *Window) resizeTo(edges uint32, width, height int32) {
	minW := 2*w.margin + 2*w.gripSize
	minH := 2*w.margin + 2*w.gripSize
	if w.decoration {
		minW = 2*frameInsetX + 2*w.margin + 1
		minH = frameInsetTop + frameInsetX + 2*w.margin + 1
	}
	if width < minW {
		width = minW
	}
	if height < minH {
		height = minH
	}

	w.resizeEdges = edges
	if w.resizeHandler != nil {
		cw, ch := w.childDimensions(width, height)
		w.resizeHandler(w, cw, ch)
		return
	}
	w.allocation.Width = width
	w.allocation.Height = height
	w.ScheduleRedraw()
}

// Destroy releases the window's protocol objects and buffers and
// unlinks it from the display.
func (w *Window) Destroy() {
	if w.destroyed {
		return
	}
	w.destroyed = true

	if w.cur != nil {
		w.cur.Discard()
		w.cur = nil
	}
	if w.pending != nil {
		w.pending.Retire()
		w.pending = nil
	}
	w.alloc.Close()
	w.wire.Destroy()
	w.display.removeWindow(w)
}

// Handler registration. Each handler is optional.

func (w *Window) SetResizeHandler(fn func(w *Window, width, height int32)) {
	w.resizeHandler = fn
}

func (w *Window) SetRedrawHandler(fn func(w *Window)) {
	w.redrawHandler = fn
}

func (w *Window) SetKeyHandler(fn func(w *Window, in *Input, time, key, sym, state uint32)) {
	w.keyHandler = fn
}

func (w *Window) SetButtonHandler(fn func(w *Window, in *Input, time, button, state uint32)) {
	w.buttonHandler = fn
}

// SetMotionHandler registers the pointer-motion callback. Its return
// value picks the cursor shape; return PointerDefault to leave it
// alone.
func (w *Window) SetMotionHandler(fn func(w *Window, in *Input, time uint32, x, y int32) int) {
	w.motionHandler = fn
}

// SetEnterHandler registers the pointer-enter callback; like motion,
// its return value picks the cursor.
func (w *Window) SetEnterHandler(fn func(w *Window, in *Input, x, y int32) int) {
	w.enterHandler = fn
}

func (w *Window) SetLeaveHandler(fn func(w *Window, in *Input)) {
	w.leaveHandler = fn
}

// SetKeyboardFocusHandler registers the focus callback; in is nil when
// focus leaves the window.
func (w *Window) SetKeyboardFocusHandler(fn func(w *Window, in *Input)) {
	w.keyboardFocusHandler = fn
}

func (w *Window) SetItemFocusHandler(fn func(w *Window, item *Item)) {
	w.itemFocusHandler = fn
}

// SetPopupDoneHandler registers the callback fired when the compositor
// dismisses a popup grab.
func (w *Window) SetPopupDoneHandler(fn func(w *Window)) {
	w.popupDoneHandler = fn
}

// SetDragEnterHandler registers the callback fired when a drag moves
// onto the window. It returns the mime type to accept, or "" to reject
// the drag.
func (w *Window) SetDragEnterHandler(fn func(w *Window, in *Input, x, y int32, mimes []string) string) {
	w.dragEnterHandler = fn
}

// SetDropHandler registers the callback fired when a drag is dropped
// on the window.
func (w *Window) SetDropHandler(fn func(w *Window, in *Input, x, y int32)) {
	w.dropHandler = fn
}

// SetFrameHandler registers a callback fired after each presented
// frame, pacing demos that animate continuously. Animation handlers
// step their state and call ScheduleRedraw; when they stop scheduling,
// the callbacks stop too.
func (w *Window) SetFrameHandler(fn func(w *Window)) {
	w.frameHandler = fn
}
