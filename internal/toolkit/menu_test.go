package toolkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/wltk/internal/protocols"
)

func newTestMenu(t *testing.T, entries []string, onSelect func(int)) (*Display, *Input, *Menu, *fakeWire) {
	t.Helper()
	d := newTestDisplay()
	in := newTestInput(d)

	height := int32(len(entries))*menuEntryHeight + 2*menuInset
	w, fw, _ := newTestWindow(t, d, menuWidth, height)
	m := newMenu(w, in, 50, 50, entries, onSelect)
	return d, in, m, fw
}

func TestMenuSelectsOnReleaseOverEntry(t *testing.T) {
	selected := -1
	calls := 0
	d, in, m, fw := newTestMenu(t, []string{"Fullscreen", "Roundel", "Quit"},
		func(i int) { selected = i; calls++ })

	// Entry rows are 20px tall below a 10px inset, so y=35 is entry 1.
	in.pointerEnter(1, fw.id, 100, 35)
	require.NotNil(t, m.Window().FocusItem())

	in.pointerButton(2, 0, protocols.BtnLeft, 1)
	assert.Equal(t, 0, calls, "press alone must not select")

	in.pointerButton(3, 0, protocols.BtnLeft, 0)
	assert.Equal(t, 1, selected)
	assert.Equal(t, 1, calls)
	assert.True(t, fw.destroyed)
	assert.Empty(t, d.windows)

	// A straggling dismissal after selection is harmless.
	m.Dismiss()
	assert.Equal(t, 1, calls)

	d.drainTasks()
}

func TestMenuStaysOpenOnMiss(t *testing.T) {
	calls := 0
	d, in, m, fw := newTestMenu(t, []string{"One", "Two"}, func(int) { calls++ })

	// The release lands on the inset above the first entry.
	in.pointerEnter(1, fw.id, 100, 5)
	require.Nil(t, m.Window().FocusItem())
	in.pointerButton(2, 0, protocols.BtnLeft, 1)
	in.pointerButton(3, 0, protocols.BtnLeft, 0)
	assert.Equal(t, 0, calls)
	assert.False(t, fw.destroyed)

	// Moving onto an entry and releasing there still works.
	in.pointerMotion(0, 100, 15)
	in.pointerButton(4, 0, protocols.BtnLeft, 0)
	assert.Equal(t, 1, calls)
	assert.True(t, fw.destroyed)

	d.drainTasks()
}

func TestMenuPopupDoneDismisses(t *testing.T) {
	calls := 0
	d, _, m, fw := newTestMenu(t, []string{"One"}, func(int) { calls++ })

	w := m.Window()
	require.NotNil(t, w.popupDoneHandler)
	w.popupDoneHandler(w)

	assert.Equal(t, 0, calls)
	assert.Nil(t, m.Window())
	assert.True(t, fw.destroyed)

	d.drainTasks()
}
