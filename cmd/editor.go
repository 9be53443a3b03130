package cmd

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"github.com/spf13/cobra"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/bnema/wltk/internal/keymap"
	"github.com/bnema/wltk/internal/logger"
	"github.com/bnema/wltk/internal/protocols"
	"github.com/bnema/wltk/internal/toolkit"
)

var editorCmd = &cobra.Command{
	Use:   "editor [file]",
	Short: "A small text editor wired to the compositor input method",
	Long: `Open two editable text fields. Click to place the cursor, drag to
select, and type; when the compositor offers a text_model_factory
global the active field talks to the input method, so on-screen
keyboards and composition (preedit) work too. A file argument seeds
the lower field; edits stay in memory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEditor,
}

const (
	editorFontSize = 14
	textOffsetLeft = 10
)

// textEntry is one editable field. Cursor and anchor are byte offsets
// into text and always sit on rune boundaries.
type textEntry struct {
	display *toolkit.Display
	window  *toolkit.Window
	item    *toolkit.Item
	face    text.Face

	text   string
	cursor int
	anchor int
	active bool

	// Composition state pushed by the input method. cursor is a byte
	// offset into preedit text, negative to hide the caret; commit is
	// inserted when the preedit resolves.
	preedit struct {
		text   string
		cursor int
		commit string
	}
	pendingPreeditCursor int

	model     *protocols.TextModel
	serial    uint32
	shiftMask uint32
}

func newTextEntry(ed *editor, initial string) *textEntry {
	e := &textEntry{
		display: ed.display,
		window:  ed.window,
		face:    ed.face,
		text:    initial,
		cursor:  len(initial),
		anchor:  len(initial),
	}
	e.item = ed.window.AddItem(e)

	if factory := ed.display.TextFactory(); factory != nil {
		model, err := factory.CreateTextModel()
		if err != nil {
			logger.Warn("failed to create text model", "error", err)
		} else {
			e.model = model
			model.SetCommitStringHandler(e.onCommitString)
			model.SetPreeditStringHandler(e.onPreeditString)
			model.SetPreeditCursorHandler(e.onPreeditCursor)
			model.SetDeleteSurroundingTextHandler(e.onDeleteSurrounding)
			model.SetModifiersMapHandler(e.onModifiersMap)
			model.SetKeysymHandler(e.onKeysym)
			model.SetEnterHandler(e.onEnter)
			model.SetLeaveHandler(e.onLeave)
		}
	}
	return e
}

// prevRuneStart returns the byte offset of the rune before offset, or
// -1 at the start of the text.
func prevRuneStart(s string, offset int) int {
	if offset <= 0 {
		return -1
	}
	_, size := utf8.DecodeLastRuneInString(s[:offset])
	return offset - size
}

// nextRuneEnd returns the byte offset just past the rune at offset, or
// -1 at the end of the text.
func nextRuneEnd(s string, offset int) int {
	if offset >= len(s) {
		return -1
	}
	_, size := utf8.DecodeRuneInString(s[offset:])
	return offset + size
}

// runeStart walks offset back to the first byte of its rune.
func runeStart(s string, offset int) int {
	for offset > 0 && offset < len(s) && !utf8.RuneStart(s[offset]) {
		offset--
	}
	return offset
}

// runeEnd walks offset forward past any continuation bytes.
func runeEnd(s string, offset int) int {
	for offset < len(s) && !utf8.RuneStart(s[offset]) {
		offset++
	}
	return offset
}

// displayText is the committed text with the preedit spliced in at the
// cursor.
func (e *textEntry) displayText() string {
	if e.preedit.text == "" {
		return e.text
	}
	return e.text[:e.cursor] + e.preedit.text + e.text[e.cursor:]
}

// sync tells the input method about the text around the cursor.
func (e *textEntry) sync() {
	if e.model == nil || !e.active {
		return
	}
	if err := e.model.SetSurroundingText(e.text, uint32(e.cursor), uint32(e.anchor)); err != nil {
		logger.Warn("failed to send surrounding text", "error", err)
	}
}

func (e *textEntry) insert(s string) {
	e.text = e.text[:e.cursor] + s + e.text[e.cursor:]
	e.cursor += len(s)
	e.anchor += len(s)
	e.sync()
	e.window.ScheduleRedraw()
}

func (e *textEntry) deleteRange(index, length int) {
	if e.cursor > index {
		e.cursor -= length
		if e.cursor < index {
			e.cursor = index
		}
	}
	e.anchor = e.cursor
	e.text = e.text[:index] + e.text[index+length:]
	e.sync()
	e.window.ScheduleRedraw()
}

func (e *textEntry) deleteSelection() {
	if e.anchor == e.cursor {
		return
	}
	start, end := e.cursor, e.anchor
	if end < start {
		start, end = end, start
	}
	e.deleteRange(start, end-start)
}

func (e *textEntry) resetPreedit() {
	e.preedit.text = ""
	e.preedit.cursor = 0
	e.preedit.commit = ""
}

// commitAndReset resolves a pending preedit the way the input method
// asked: drop the composition and insert its commit string, if any.
func (e *textEntry) commitAndReset() {
	commit := e.preedit.commit
	e.resetPreedit()
	if commit != "" {
		e.insert(commit)
	}
}

func (e *textEntry) setPreedit(s string, cursor int) {
	e.resetPreedit()
	if s == "" {
		return
	}
	if cursor > len(s) {
		logger.Warn("invalid preedit cursor index", "index", cursor)
		cursor = len(s)
	}
	e.preedit.text = s
	e.preedit.cursor = cursor
	e.sync()
}

// indexAt maps an x position relative to the start of the text onto the
// byte offset of the nearest rune boundary.
func (e *textEntry) indexAt(x float64) int {
	pos := 0.0
	for i, r := range e.text {
		adv := e.face.Advance(string(r))
		if x < pos+adv/2 {
			return i
		}
		pos += adv
	}
	return len(e.text)
}

func (e *textEntry) setCursorAt(px int32) {
	a := e.item.Allocation()
	e.commitAndReset()
	e.cursor = e.indexAt(float64(px-a.X) - textOffsetLeft)
	e.serial++
	if e.model != nil {
		if err := e.model.Reset(e.serial); err != nil {
			logger.Warn("failed to reset text model", "error", err)
		}
	}
	e.sync()
	e.window.ScheduleRedraw()
}

func (e *textEntry) setAnchorAt(px int32) {
	a := e.item.Allocation()
	e.anchor = e.indexAt(float64(px-a.X) - textOffsetLeft)
	e.window.ScheduleRedraw()
}

func (e *textEntry) activate(in *toolkit.Input) {
	if e.model == nil {
		e.active = true
		e.window.ScheduleRedraw()
		return
	}
	e.serial++
	if err := e.model.Activate(e.serial, in.Seat(), e.window.Surface()); err != nil {
		logger.Warn("failed to activate text model", "error", err)
	}
}

func (e *textEntry) deactivate(in *toolkit.Input) {
	if e.model == nil {
		if e.active {
			e.active = false
			e.window.ScheduleRedraw()
		}
		return
	}
	if err := e.model.Deactivate(in.Seat()); err != nil {
		logger.Warn("failed to deactivate text model", "error", err)
	}
}

func (e *textEntry) onCommitString(serial uint32, s string, index uint32) {
	if int(index) > len(s) {
		logger.Warn("invalid commit cursor index", "index", index)
	}
	e.resetPreedit()
	e.deleteSelection()
	e.insert(s)
}

func (e *textEntry) onPreeditString(serial uint32, s, commit string) {
	e.deleteSelection()
	e.setPreedit(s, e.pendingPreeditCursor)
	e.preedit.commit = commit
	e.pendingPreeditCursor = 0
	e.window.ScheduleRedraw()
}

func (e *textEntry) onPreeditCursor(serial uint32, index int32) {
	e.pendingPreeditCursor = int(index)
}

// onDeleteSurrounding removes text around the cursor on behalf of the
// input method. Out of range indices are logged and ignored.
func (e *textEntry) onDeleteSurrounding(serial uint32, index int32, length uint32) {
	point := int(index) + e.cursor
	if point < 0 || point > len(e.text) {
		logger.Warn("invalid delete index", "index", index)
		return
	}
	if point+int(length) > len(e.text) {
		logger.Warn("invalid delete length", "length", length)
		return
	}
	if length == 0 {
		return
	}
	start := runeStart(e.text, point)
	end := runeEnd(e.text, point+int(length))
	e.deleteRange(start, end-start)
}

func (e *textEntry) onModifiersMap(names []string) {
	e.shiftMask = 0
	for i, name := range names {
		if name == "Shift" {
			e.shiftMask = 1 << i
		}
	}
}

// onKeysym handles keys the input method sends instead of the real
// keyboard, such as arrows from an on-screen layout.
func (e *textEntry) onKeysym(serial, t, sym, state, modifiers uint32) {
	if sym == keymap.SymLeft || sym == keymap.SymRight {
		if state != 0 {
			return
		}
		var next int
		if sym == keymap.SymLeft {
			next = prevRuneStart(e.text, e.cursor)
		} else {
			next = nextRuneEnd(e.text, e.cursor)
		}
		if next < 0 {
			return
		}
		e.cursor = next
		if modifiers&e.shiftMask == 0 {
			e.anchor = e.cursor
		}
		e.window.ScheduleRedraw()
		return
	}

	label := "unknown"
	switch sym {
	case keymap.SymTab:
		label = "tab"
	case keymap.SymReturn:
		label = "enter"
	}
	action := "released"
	if state != 0 {
		action = "pressed"
	}
	logger.Debug("input method key", "key", label, "state", action)
}

func (e *textEntry) onEnter(surfaceID uint32) {
	if surfaceID != e.window.Surface().ID() {
		return
	}
	e.active = true
	e.window.ScheduleRedraw()
}

func (e *textEntry) onLeave() {
	e.commitAndReset()
	e.active = false
	e.window.ScheduleRedraw()
}

func (e *textEntry) draw(dc *gg.Context) {
	a := e.item.Allocation()
	x, y := float64(a.X), float64(a.Y)
	w, h := float64(a.Width), float64(a.Height)

	dc.DrawRectangle(x, y, w, h)
	dc.SetRGB(1, 1, 1)
	dc.Fill()
	if e.active {
		dc.DrawRectangle(x, y, w, h)
		dc.SetRGB(0, 0, 1)
		dc.SetLineWidth(3)
		dc.Stroke()
	}

	m := e.face.Metrics()
	baseline := y + h/2
	tx := x + textOffsetLeft
	shown := e.displayText()

	if e.anchor != e.cursor {
		start, end := e.cursor, e.anchor
		if end < start {
			start, end = end, start
		}
		x0 := tx + e.face.Advance(shown[:start])
		x1 := tx + e.face.Advance(shown[:end])
		dc.DrawRectangle(x0, baseline-m.Ascent-2, x1-x0, m.Ascent+m.Descent+4)
		dc.SetRGBA(0.3, 0.3, 1.0, 0.5)
		dc.Fill()
	}

	dc.SetFont(e.face)
	dc.SetRGB(0, 0, 0)
	dc.DrawString(shown, tx, baseline)

	if e.preedit.text != "" {
		x0 := tx + e.face.Advance(shown[:e.cursor])
		x1 := tx + e.face.Advance(shown[:e.cursor+len(e.preedit.text)])
		dc.DrawRectangle(x0, baseline+2, x1-x0, 1)
		dc.SetRGB(0, 0, 0)
		dc.Fill()
	}

	if e.preedit.text == "" || e.preedit.cursor >= 0 {
		cx := tx + e.face.Advance(shown[:e.cursor+e.preedit.cursor])
		dc.SetRGB(0, 0, 0)
		dc.SetLineWidth(1)
		dc.DrawLine(cx, baseline-m.Ascent-2, cx, baseline+m.Descent+2)
		dc.Stroke()
	}
}

type editor struct {
	display *toolkit.Display
	window  *toolkit.Window
	face    text.Face

	entries   []*textEntry
	active    *textEntry
	selecting bool
}

func (ed *editor) layout() {
	child := ed.window.ChildAllocation()
	h := child.Height/2 - 40
	ed.entries[0].item.SetAllocation(child.X+20, child.Y+20, child.Width-40, h)
	ed.entries[1].item.SetAllocation(child.X+20, child.Y+child.Height/2+20, child.Width-40, h)
}

func (ed *editor) redraw(w *toolkit.Window) {
	if err := w.Draw(); err != nil {
		return
	}
	dc := w.Canvas()
	child := w.ChildAllocation()
	dc.DrawRectangle(float64(child.X), float64(child.Y),
		float64(child.Width), float64(child.Height))
	dc.SetRGB(1, 1, 1)
	dc.Fill()
	for _, e := range ed.entries {
		e.draw(dc)
	}
	w.Flush()
}

func (ed *editor) resize(w *toolkit.Window, width, height int32) {
	w.SetChildSize(width, height)
	ed.layout()
	w.ScheduleRedraw()
}

func (ed *editor) key(w *toolkit.Window, in *toolkit.Input, t, key, sym, state uint32) {
	e := ed.active
	if e == nil || state == 0 {
		return
	}
	switch sym {
	case keymap.SymBackSpace:
		e.commitAndReset()
		start := prevRuneStart(e.text, e.cursor)
		if start < 0 {
			return
		}
		e.deleteRange(start, runeEnd(e.text, e.cursor)-start)
	case keymap.SymDelete:
		e.commitAndReset()
		start := runeStart(e.text, e.cursor)
		end := nextRuneEnd(e.text, start)
		if end < 0 {
			return
		}
		e.deleteRange(start, end-start)
	case keymap.SymLeft:
		e.commitAndReset()
		if p := prevRuneStart(e.text, e.cursor); p >= 0 {
			e.cursor = p
			e.anchor = p
			w.ScheduleRedraw()
		}
	case keymap.SymRight:
		e.commitAndReset()
		if n := nextRuneEnd(e.text, e.cursor); n >= 0 {
			e.cursor = n
			e.anchor = n
			w.ScheduleRedraw()
		}
	default:
		if r, ok := keymap.Rune(sym); ok {
			e.commitAndReset()
			e.insert(string(r))
		}
	}
}

func (ed *editor) button(w *toolkit.Window, in *toolkit.Input, t, button, state uint32) {
	if button != protocols.BtnLeft {
		return
	}
	item := w.FocusItem()
	if item == nil {
		if state == protocols.ButtonStatePressed {
			for _, e := range ed.entries {
				e.deactivate(in)
			}
			ed.active = nil
		}
		ed.selecting = false
		return
	}

	e := item.UserData().(*textEntry)
	x, _ := in.Position()
	e.setCursorAt(x)

	if state == protocols.ButtonStatePressed {
		if ed.active != e {
			if ed.active != nil {
				ed.active.deactivate(in)
			}
			e.activate(in)
			ed.active = e
		}
		e.setAnchorAt(x)
		ed.selecting = true
	} else {
		ed.selecting = false
	}
}

func (ed *editor) motion(w *toolkit.Window, in *toolkit.Input, t uint32, x, y int32) int {
	if ed.selecting && ed.active != nil {
		ed.active.setCursorAt(x)
	}
	if w.FocusItem() != nil {
		return toolkit.PointerIbeam
	}
	return toolkit.PointerLeftPtr
}

func runEditor(cmd *cobra.Command, args []string) error {
	d, err := toolkit.Create()
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer d.Close()

	w, err := d.CreateWindow(500, 400)
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}
	w.SetTitle("Text Editor")

	fonts, err := text.NewFontSource(goregular.TTF)
	if err != nil {
		return fmt.Errorf("failed to load builtin font: %w", err)
	}

	ed := &editor{display: d, window: w, face: fonts.Face(editorFontSize)}

	if d.TextFactory() == nil {
		logger.Info("compositor has no text_model_factory, input method disabled")
	}

	ed.entries = append(ed.entries, newTextEntry(ed, "Entry"))

	body := "Editor"
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}
		body = strings.TrimRight(string(data), "\n")
	}
	ed.entries = append(ed.entries, newTextEntry(ed, body))

	w.SetRedrawHandler(ed.redraw)
	w.SetResizeHandler(ed.resize)
	w.SetKeyHandler(ed.key)
	w.SetButtonHandler(ed.button)
	w.SetMotionHandler(ed.motion)
	w.SetKeyboardFocusHandler(func(w *toolkit.Window, in *toolkit.Input) {
		w.ScheduleRedraw()
	})

	ed.layout()
	w.ScheduleRedraw()
	return d.Run()
}
