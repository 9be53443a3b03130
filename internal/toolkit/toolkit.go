// Package toolkit is the windowing core: it owns the compositor
// connection, the event loop, window surfaces and their buffer
// lifecycle, and the input device state machines that turn protocol
// events into per-window callbacks.
//
// Demos create a Display, add windows with handlers, and call Run.
// All handlers execute on the loop goroutine; protocol events arriving
// on the reader goroutine are posted to the deferred task queue and
// drained in order, so window state never needs locking.
package toolkit

// Rectangle is an allocation in surface coordinates
type Rectangle struct {
	X, Y, Width, Height int32
}

// Pointer location within a window, used to route button presses and
// pick cursor shapes. Resize edges are bits so corners OR together.
const (
	locationInterior       = 0
	locationResizingTop    = 1
	locationResizingBottom = 2
	locationResizingLeft   = 4
	locationTopLeft        = 5
	locationBottomLeft     = 6
	locationResizingRight  = 8
	locationTopRight       = 9
	locationBottomRight    = 10
	locationResizingMask   = 15
	locationExterior       = 16
	locationTitlebar       = 17
	locationClientArea     = 18
)

// Cursor shapes available from the display's pre-rendered cache. The
// values index the cache, so the order here matches the render order.
const (
	PointerBottomLeft = iota
	PointerBottomRight
	PointerBottom
	PointerDragging
	PointerLeftPtr
	PointerLeft
	PointerRight
	PointerTopLeft
	PointerTopRight
	PointerTop
	PointerIbeam
	PointerHand1

	pointerCount
)

// Sentinels outside the cache range. PointerDefault keeps whatever
// shape is current during titlebar and exterior motion; PointerUnset
// forces the next set to go through after a focus loss.
const (
	PointerDefault = 100
	PointerUnset   = 101
)
