package toolkit

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/bnema/wltk/internal/keymap"
	"github.com/bnema/wltk/internal/logger"
	"github.com/bnema/wltk/internal/protocols"
)

// Input is one seat: a pointer and keyboard pair plus the focus,
// modifier and grab state the toolkit maintains for it. All methods
// run on the loop goroutine.
type Input struct {
	display    *Display
	seat       *protocols.Seat
	pointer    *protocols.Pointer
	keyboard   *protocols.Keyboard
	dataDevice *protocols.DataDevice
	caps       uint32

	pointerFocus  *Window
	keyboardFocus *Window
	sx, sy        int32
	modifiers     uint32

	currentImage int
	enterSerial  uint32
	lastSerial   uint32
	lastButton   uint32

	grabWindow     *Window
	grabLocation   int
	grabButton     uint32
	grabSx, grabSy int32
	grabAllocation Rectangle
	grabWinX       int32
	grabWinY       int32

	selectionOffer *protocols.DataOffer
	dragOffer      *protocols.DataOffer
	dragFocus      *Window
	dragX, dragY   int32
}

// Seat returns the underlying protocol seat.
func (in *Input) Seat() *protocols.Seat { return in.seat }

// Capabilities returns the advertised wl_seat capability bits.
func (in *Input) Capabilities() uint32 { return in.caps }

// Position returns the pointer position in surface coordinates of the
// focused window.
func (in *Input) Position() (int32, int32) { return in.sx, in.sy }

// Modifiers returns the current modifier mask.
func (in *Input) Modifiers() uint32 { return in.modifiers }

// Serial returns the most recent input serial, for requests that need
// to prove recent user interaction.
func (in *Input) Serial() uint32 { return in.lastSerial }

// PointerFocus returns the window under the pointer, if any.
func (in *Input) PointerFocus() *Window { return in.pointerFocus }

// KeyboardFocus returns the window with keyboard focus, if any.
func (in *Input) KeyboardFocus() *Window { return in.keyboardFocus }

// pointerLocation classifies a surface position against the window's
// decoration geometry. Undecorated windows are all client area.
func (w *Window) pointerLocation(x, y int32) int {
	if !w.decoration {
		return locationClientArea
	}

	var hloc, vloc int
	switch {
	case x < w.margin:
		hloc = locationExterior
	case x < w.margin+w.gripSize:
		hloc = locationResizingLeft
	case x < w.allocation.Width-w.margin-w.gripSize:
		hloc = locationInterior
	case x < w.allocation.Width-w.margin:
		hloc = locationResizingRight
	default:
		hloc = locationExterior
	}
	switch {
	case y < w.margin:
		vloc = locationExterior
	case y < w.margin+w.gripSize:
		vloc = locationResizingTop
	case y < w.allocation.Height-w.margin-w.gripSize:
		vloc = locationInterior
	case y < w.allocation.Height-w.margin:
		vloc = locationResizingBottom
	default:
		vloc = locationExterior
	}

	location := vloc | hloc
	if location&locationExterior != 0 {
		return locationExterior
	}
	if location == locationInterior && y < w.margin+titlebarReach {
		return locationTitlebar
	}
	if location == locationInterior {
		return locationClientArea
	}
	return location
}

// setPointerImage picks the cursor for the current position. The hint
// comes from the motion or enter handler; the resize grips and the
// titlebar override it.
func (in *Input) setPointerImage(hint int) {
	w := in.pointerFocus
	if w == nil {
		return
	}

	pointer := hint
	switch location := w.pointerLocation(in.sx, in.sy); location {
	case locationResizingTop:
		pointer = PointerTop
	case locationResizingBottom:
		pointer = PointerBottom
	case locationResizingLeft:
		pointer = PointerLeft
	case locationResizingRight:
		pointer = PointerRight
	case locationTopLeft:
		pointer = PointerTopLeft
	case locationTopRight:
		pointer = PointerTopRight
	case locationBottomLeft:
		pointer = PointerBottomLeft
	case locationBottomRight:
		pointer = PointerBottomRight
	case locationExterior, locationTitlebar:
		if in.currentImage == PointerDefault {
			return
		}
		in.currentImage = PointerDefault
		in.attachCursor(PointerLeftPtr)
		return
	}

	if pointer == in.currentImage {
		return
	}
	in.currentImage = pointer
	in.attachCursor(pointer)
}

func (in *Input) attachCursor(shape int) {
	if in.pointer == nil {
		return
	}
	if shape < 0 || shape >= pointerCount {
		shape = PointerLeftPtr
	}
	c := in.display.cursorImage(shape)
	if c == nil {
		return
	}
	if err := in.pointer.SetCursor(in.enterSerial, c.surface, c.hotX, c.hotY); err != nil {
		logger.Warn("failed to set cursor", "error", err)
	}
}

func (in *Input) pointerEnter(serial, surfaceID uint32, sx, sy int32) {
	in.enterSerial = serial
	in.lastSerial = serial

	w := in.display.windowBySurface(surfaceID)
	if w == nil {
		return
	}
	in.pointerFocus = w
	in.sx, in.sy = sx, sy

	pointer := PointerLeftPtr
	if w.enterHandler != nil {
		pointer = w.enterHandler(w, in, sx, sy)
	}
	w.setFocusItem(w.findItem(sx, sy))
	in.setPointerImage(pointer)
}

func (in *Input) pointerLeave(serial, surfaceID uint32) {
	in.lastSerial = serial

	w := in.pointerFocus
	if w == nil {
		return
	}
	if in.grabWindow == w {
		in.endGrab()
	}
	w.setFocusItem(nil)
	if w.leaveHandler != nil {
		w.leaveHandler(w, in)
	}
	in.pointerFocus = nil
	in.currentImage = PointerUnset
}

func (in *Input) pointerMotion(time uint32, sx, sy int32) {
	in.sx, in.sy = sx, sy

	if in.grabWindow != nil {
		in.updateGrab()
		return
	}

	w := in.pointerFocus
	if w == nil {
		return
	}

	if w.focusItem == nil || w.itemGrabButton == 0 {
		w.setFocusItem(w.findItem(sx, sy))
	}

	pointer := PointerLeftPtr
	if w.motionHandler != nil {
		pointer = w.motionHandler(w, in, time, sx, sy)
	}
	in.setPointerImage(pointer)
}

func (in *Input) pointerButton(serial, time, button, state uint32) {
	in.lastSerial = serial
	if state != 0 {
		in.lastButton = button
	}

	if in.grabWindow != nil {
		if button == in.grabButton && state == 0 {
			in.endGrab()
		}
		return
	}

	w := in.pointerFocus
	if w == nil {
		return
	}

	if w.focusItem != nil && w.itemGrabButton == 0 && state != 0 {
		w.itemGrabButton = button
	}

	location := w.pointerLocation(in.sx, in.sy)

	if button == protocols.BtnLeft && state != 0 {
		switch location {
		case locationTitlebar:
			in.startGrab(w, locationTitlebar)
		case locationResizingTop, locationResizingBottom,
			locationResizingLeft, locationResizingRight,
			locationTopLeft, locationTopRight,
			locationBottomLeft, locationBottomRight:
			in.startGrab(w, location)
		case locationClientArea:
			if w.buttonHandler != nil {
				w.buttonHandler(w, in, time, button, state)
			}
		}
	} else {
		if w.buttonHandler != nil {
			w.buttonHandler(w, in, time, button, state)
		}
	}

	if w.focusItem != nil && w.itemGrabButton == button && state == 0 {
		w.itemGrabButton = 0
		w.setFocusItem(w.findItem(in.sx, in.sy))
	}
}

// startGrab begins a client-side move (titlebar) or resize (edge bits)
// drag anchored at the current pointer position.
func (in *Input) startGrab(w *Window, location int) {
	button := in.lastButton
	if button == 0 {
		button = protocols.BtnLeft
	}

	in.grabWindow = w
	in.grabLocation = location
	in.grabButton = button
	in.grabSx, in.grabSy = in.sx, in.sy
	in.grabAllocation = w.allocation
	in.grabWinX, in.grabWinY = w.x, w.y

	if location == locationTitlebar {
		in.currentImage = PointerDragging
		in.attachCursor(PointerDragging)
	}
}

func (in *Input) endGrab() {
	in.grabWindow = nil
	in.grabLocation = locationInterior
	in.grabButton = 0
}

// updateGrab applies the pointer delta to the grabbed window: moves
// shift the surface through the attach offset, resizes rebuild the
// allocation with the opposite edge anchored.
func (in *Input) updateGrab() {
	w := in.grabWindow
	dx := in.sx - in.grabSx
	dy := in.sy - in.grabSy

	if in.grabLocation == locationTitlebar {
		w.moveDx = dx
		w.moveDy = dy
		w.x = in.grabWinX + dx
		w.y = in.grabWinY + dy
		w.ScheduleRedraw()
		return
	}

	edges := uint32(in.grabLocation) & locationResizingMask
	width := in.grabAllocation.Width
	height := in.grabAllocation.Height
	if edges&locationResizingLeft != 0 {
		width -= dx
	}
	if edges&locationResizingRight != 0 {
		width += dx
	}
	if edges&locationResizingTop != 0 {
		height -= dy
	}
	if edges&locationResizingBottom != 0 {
		height += dy
	}

	w.resizeTo(edges, width, height)

	if edges&locationResizingLeft != 0 {
		w.x = in.grabWinX + in.grabAllocation.Width - w.allocation.Width
	}
	if edges&locationResizingTop != 0 {
		w.y = in.grabWinY + in.grabAllocation.Height - w.allocation.Height
	}
}

// shiftGrabAnchors keeps resize-grab deltas physically meaningful after
// an attach offset moved the surface origin under the pointer.
func (d *Display) shiftGrabAnchors(w *Window, dx, dy int32) {
	for _, in := range d.inputs {
		if in.grabWindow != w || in.grabLocation == locationTitlebar {
			continue
		}
		in.grabSx -= dx
		in.grabSy -= dy
	}
}

func (in *Input) keyboardEnter(serial, surfaceID uint32, keys []uint32) {
	in.lastSerial = serial

	if old := in.keyboardFocus; old != nil {
		in.blurKeyboard(old)
	}

	w := in.display.windowBySurface(surfaceID)
	in.keyboardFocus = w
	if w == nil {
		return
	}

	w.keyboardDevice = in
	in.modifiers = 0
	for _, k := range keys {
		in.modifiers |= keymap.ModifierBit(k)
	}
	if w.keyboardFocusHandler != nil {
		w.keyboardFocusHandler(w, in)
	}
}

func (in *Input) keyboardLeave(serial uint32) {
	in.lastSerial = serial

	if old := in.keyboardFocus; old != nil {
		in.blurKeyboard(old)
		in.keyboardFocus = nil
	}
	in.modifiers = 0
}

func (in *Input) blurKeyboard(w *Window) {
	w.keyboardDevice = nil
	if w.keyboardFocusHandler != nil {
		w.keyboardFocusHandler(w, nil)
	}
}

// key resolves the keysym with the modifier state from before this
// event, then folds the key into the modifier mask.
func (in *Input) key(serial, time, key, state uint32) {
	in.lastSerial = serial

	w := in.keyboardFocus
	if w == nil || w.keyboardDevice != in {
		return
	}

	sym := keymap.Resolve(key, in.modifiers)

	if state != 0 {
		in.modifiers |= keymap.ModifierBit(key)
	} else {
		in.modifiers &^= keymap.ModifierBit(key)
	}

	if w.keyHandler != nil {
		w.keyHandler(w, in, time, key, sym, state)
	}
}

// Selection and drag-and-drop plumbing.

func (in *Input) selection(offer *protocols.DataOffer) {
	if in.selectionOffer != nil {
		if err := in.selectionOffer.Destroy(); err != nil {
			logger.Warn("failed to destroy stale selection offer", "error", err)
		}
	}
	in.selectionOffer = offer
}

// OffersMime reports whether the current selection carries the given
// mime type.
func (in *Input) OffersMime(mime string) bool {
	if in.selectionOffer == nil {
		return false
	}
	for _, m := range in.selectionOffer.MimeTypes() {
		if m == mime {
			return true
		}
	}
	return false
}

// ReceiveSelection asks the selection owner to write the given mime
// type into a pipe and returns the read end.
func (in *Input) ReceiveSelection(mime string) (*os.File, error) {
	if in.selectionOffer == nil {
		return nil, fmt.Errorf("no selection to receive")
	}
	return receiveOffer(in.selectionOffer, mime)
}

func receiveOffer(offer *protocols.DataOffer, mime string) (*os.File, error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_CLOEXEC); err != nil {
		return nil, fmt.Errorf("failed to create offer pipe: %w", err)
	}
	if err := offer.Receive(mime, fds[1]); err != nil {
		_ = unix.Close(fds[0])
		_ = unix.Close(fds[1])
		return nil, err
	}
	_ = unix.Close(fds[1])
	return os.NewFile(uintptr(fds[0]), "data-offer"), nil
}

func (in *Input) dataEnter(serial, surfaceID uint32, x, y int32, offer *protocols.DataOffer) {
	in.lastSerial = serial
	in.dragOffer = offer
	in.dragX, in.dragY = x, y

	w := in.display.windowBySurface(surfaceID)
	in.dragFocus = w
	if w == nil || w.dragEnterHandler == nil || offer == nil {
		return
	}
	if mime := w.dragEnterHandler(w, in, x, y, offer.MimeTypes()); mime != "" {
		if err := offer.Accept(serial, mime); err != nil {
			logger.Warn("failed to accept drag offer", "error", err)
		}
	}
}

func (in *Input) dataLeave() {
	if in.dragOffer != nil {
		if err := in.dragOffer.Destroy(); err != nil {
			logger.Warn("failed to destroy drag offer", "error", err)
		}
		in.dragOffer = nil
	}
	in.dragFocus = nil
}

func (in *Input) dataMotion(time uint32, x, y int32) {
	in.dragX, in.dragY = x, y
}

func (in *Input) dataDrop() {
	w := in.dragFocus
	if w == nil || w.dropHandler == nil {
		return
	}
	w.dropHandler(w, in, in.dragX, in.dragY)
}

// DragOffer returns the offer for the drag currently over one of our
// windows, if any.
func (in *Input) DragOffer() *protocols.DataOffer { return in.dragOffer }

// ReceiveDrag reads the given mime type from the current drag offer
// through a pipe.
func (in *Input) ReceiveDrag(mime string) (*os.File, error) {
	if in.dragOffer == nil {
		return nil, fmt.Errorf("no drag in progress")
	}
	return receiveOffer(in.dragOffer, mime)
}

// StartDrag begins a drag with the given source, using the last button
// press as the triggering action. The origin window keeps receiving
// data-device events for the drag.
func (in *Input) StartDrag(source *protocols.DataSource, origin *Window) error {
	if in.dataDevice == nil {
		return fmt.Errorf("no data device on this seat")
	}
	ws, ok := origin.wire.(*wireSurface)
	if !ok {
		return fmt.Errorf("drag origin has no protocol surface")
	}
	return in.dataDevice.StartDrag(source, ws.surface, nil, in.lastSerial)
}
