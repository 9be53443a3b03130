package toolkit

// Item is a hit-testable sub-region of a window. Demos allocate one per
// widget; the input machinery tracks which item the pointer is over and
// reports transitions through the window's item-focus handler.
type Item struct {
	allocation Rectangle
	userData   interface{}
}

// Allocation returns the item's rectangle in surface coordinates.
func (it *Item) Allocation() Rectangle {
	return it.allocation
}

// SetAllocation places the item.
func (it *Item) SetAllocation(x, y, width, height int32) {
	it.allocation = Rectangle{X: x, Y: y, Width: width, Height: height}
}

// UserData returns the value supplied to AddItem.
func (it *Item) UserData() interface{} {
	return it.userData
}

func (it *Item) contains(x, y int32) bool {
	a := it.allocation
	return a.X <= x && x < a.X+a.Width && a.Y <= y && y < a.Y+a.Height
}

// AddItem appends a hit-testable item to the window. Items are tested
// in insertion order and the first match wins.
func (w *Window) AddItem(data interface{}) *Item {
	it := &Item{userData: data}
	w.items = append(w.items, it)
	return it
}

// ForEachItem visits the window's items in insertion order.
func (w *Window) ForEachItem(fn func(*Item)) {
	for _, it := range w.items {
		fn(it)
	}
}

// FocusItem returns the item currently under the pointer, if any.
func (w *Window) FocusItem() *Item {
	return w.focusItem
}

func (w *Window) findItem(x, y int32) *Item {
	for _, it := range w.items {
		if it.contains(x, y) {
			return it
		}
	}
	return nil
}

func (w *Window) setFocusItem(item *Item) {
	if item == w.focusItem {
		return
	}
	w.focusItem = item
	if w.itemFocusHandler != nil {
		w.itemFocusHandler(w, item)
	}
}
