package toolkit

const (
	menuEntryHeight = 20
	menuInset       = 10
	menuWidth       = 200
)

// Menu is a popup window listing text entries. The pointer highlights
// the entry under it; releasing the grab button over an entry fires the
// callback exactly once and dismisses the menu.
type Menu struct {
	window   *Window
	entries  []string
	onSelect func(index int)
	fired    bool
}

// CreateMenu opens a popup menu at x,y in parent surface coordinates,
// grabbing the given input. The callback receives the index of the
// chosen entry.
func (d *Display) CreateMenu(in *Input, parent *Window, x, y int32, entries []string, onSelect func(index int)) (*Menu, error) {
	height := int32(len(entries))*menuEntryHeight + 2*menuInset
	w, err := d.createWindow(parent, menuWidth, height)
	if err != nil {
		return nil, err
	}
	return newMenu(w, in, x, y, entries, onSelect), nil
}

func newMenu(w *Window, in *Input, x, y int32, entries []string, onSelect func(index int)) *Menu {
	w.typ = typePopup
	w.popupSeat = in
	w.popupSerial = in.Serial()
	w.x, w.y = x, y
	w.SetDecoration(false)

	m := &Menu{window: w, entries: entries, onSelect: onSelect}
	for i := range entries {
		item := w.AddItem(i)
		item.SetAllocation(menuInset, menuInset+int32(i)*menuEntryHeight,
			menuWidth-2*menuInset, menuEntryHeight)
	}

	w.SetRedrawHandler(m.redraw)
	w.SetItemFocusHandler(func(w *Window, item *Item) {
		w.ScheduleRedraw()
	})
	w.SetButtonHandler(m.button)
	w.SetPopupDoneHandler(func(w *Window) {
		m.Dismiss()
	})
	w.ScheduleRedraw()
	return m
}

// Window returns the popup window backing the menu.
func (m *Menu) Window() *Window { return m.window }

// Dismiss closes the menu without firing the callback.
func (m *Menu) Dismiss() {
	if m.window == nil {
		return
	}
	w := m.window
	m.window = nil
	w.Destroy()
}

func (m *Menu) redraw(w *Window) {
	if err := w.Draw(); err != nil {
		return
	}
	dc := w.Canvas()

	dc.SetFont(w.display.theme.TitleFace())

	focus := w.FocusItem()
	for i, entry := range m.entries {
		y := float64(menuInset + i*menuEntryHeight)
		if focus != nil && focus.UserData() == i {
			dc.SetRGBA(0.4, 0.4, 0.9, 1.0)
			dc.DrawRectangle(menuInset, y, menuWidth-2*menuInset, menuEntryHeight)
			dc.Fill()
			dc.SetRGB(1, 1, 1)
		} else {
			dc.SetRGB(0.85, 0.85, 0.85)
		}
		dc.DrawString(entry, menuInset+6, y+menuEntryHeight-5)
	}

	w.Flush()
}

// button selects on release over an entry. Releases elsewhere keep the
// menu open so a click can follow the opening press; clicking outside
// dismisses through popup_done.
func (m *Menu) button(w *Window, in *Input, time, button, state uint32) {
	if state != 0 || m.fired || m.window == nil {
		return
	}
	item := w.FocusItem()
	if item == nil {
		return
	}
	idx, ok := item.UserData().(int)
	if !ok {
		return
	}
	m.fired = true
	m.onSelect(idx)
	m.Dismiss()
}
