package protocols

import (
	"github.com/bnema/wlturbo/wl"
)

// Text input interface names
const (
	TextModelFactoryInterface = "text_model_factory"
	TextModelInterface        = "text_model"
)

// TextModelFactory represents the text_model_factory global
type TextModelFactory struct {
	wl.BaseProxy
}

// NewTextModelFactory creates a factory proxy for Registry.Bind
func NewTextModelFactory(ctx *wl.Context) *TextModelFactory {
	factory := &TextModelFactory{}
	factory.SetContext(ctx)
	return factory
}

// CreateTextModel creates a text model for one entry widget
func (f *TextModelFactory) CreateTextModel() (*TextModel, error) {
	model := &TextModel{}
	model.SetContext(f.Context())
	model.SetID(f.Context().AllocateID())
	f.Context().Register(model)

	// Opcode 0: create_text_model
	const opcode = 0

	if err := f.Context().SendRequest(f, opcode, model.ID()); err != nil {
		f.Context().Unregister(model)
		return nil, err
	}
	return model, nil
}

// TextModel represents one text input context driven by the
// compositor's input method
type TextModel struct {
	wl.BaseProxy

	commitStringHandler          func(serial uint32, text string, index uint32)
	preeditStringHandler         func(serial uint32, text, commit string)
	deleteSurroundingTextHandler func(serial uint32, index int32, length uint32)
	preeditCursorHandler         func(serial uint32, index int32)
	modifiersMapHandler          func(names []string)
	keysymHandler                func(serial, time, sym, state, modifiers uint32)
	enterHandler                 func(surfaceID uint32)
	leaveHandler                 func()
}

// SetCommitStringHandler sets the handler for committed text
func (m *TextModel) SetCommitStringHandler(handler func(serial uint32, text string, index uint32)) {
	m.commitStringHandler = handler
}

// SetPreeditStringHandler sets the handler for preedit updates
func (m *TextModel) SetPreeditStringHandler(handler func(serial uint32, text, commit string)) {
	m.preeditStringHandler = handler
}

// SetDeleteSurroundingTextHandler sets the handler for deletions
// relative to the cursor
func (m *TextModel) SetDeleteSurroundingTextHandler(handler func(serial uint32, index int32, length uint32)) {
	m.deleteSurroundingTextHandler = handler
}

// SetPreeditCursorHandler sets the handler for the preedit cursor index
func (m *TextModel) SetPreeditCursorHandler(handler func(serial uint32, index int32)) {
	m.preeditCursorHandler = handler
}

// SetModifiersMapHandler sets the handler for the modifier name table
func (m *TextModel) SetModifiersMapHandler(handler func(names []string)) {
	m.modifiersMapHandler = handler
}

// SetKeysymHandler sets the handler for input method key events
func (m *TextModel) SetKeysymHandler(handler func(serial, time, sym, state, modifiers uint32)) {
	m.keysymHandler = handler
}

// SetEnterHandler sets the handler for input focus entering the model
func (m *TextModel) SetEnterHandler(handler func(surfaceID uint32)) {
	m.enterHandler = handler
}

// SetLeaveHandler sets the handler for input focus leaving the model
func (m *TextModel) SetLeaveHandler(handler func()) {
	m.leaveHandler = handler
}

// SetSurroundingText tells the input method about the committed text
// around the cursor
func (m *TextModel) SetSurroundingText(text string, cursor, anchor uint32) error {
	// Opcode 0: set_surrounding_text
	const opcode = 0
	return m.Context().SendRequest(m, opcode, text, cursor, anchor)
}

// Activate requests input focus for this model on the given seat
func (m *TextModel) Activate(serial uint32, seat *Seat, surface *Surface) error {
	// Opcode 1: activate
	const opcode = 1
	return m.Context().SendRequest(m, opcode, serial, seat, surface)
}

// Deactivate releases input focus on the given seat
func (m *TextModel) Deactivate(seat *Seat) error {
	// Opcode 2: deactivate
	const opcode = 2
	return m.Context().SendRequest(m, opcode, seat)
}

// Reset discards pending preedit state after a cursor jump
func (m *TextModel) Reset(serial uint32) error {
	// Opcode 3: reset
	const opcode = 3
	return m.Context().SendRequest(m, opcode, serial)
}

// Destroy drops the client side proxy. The protocol has no destructor
// request.
func (m *TextModel) Destroy() {
	m.Context().Unregister(m)
}

// Dispatch handles incoming text model events
func (m *TextModel) Dispatch(event *wl.Event) {
	switch event.Opcode {
	case 0: // commit_string
		serial := event.Uint32()
		text := event.String()
		index := event.Uint32()
		if m.commitStringHandler != nil {
			m.commitStringHandler(serial, text, index)
		}
	case 1: // preedit_string
		serial := event.Uint32()
		text := event.String()
		commit := event.String()
		if m.preeditStringHandler != nil {
			m.preeditStringHandler(serial, text, commit)
		}
	case 2: // delete_surrounding_text
		serial := event.Uint32()
		index := event.Int32()
		length := event.Uint32()
		if m.deleteSurroundingTextHandler != nil {
			m.deleteSurroundingTextHandler(serial, index, length)
		}
	case 3: // preedit_styling, unused
	case 4: // preedit_cursor
		serial := event.Uint32()
		index := event.Int32()
		if m.preeditCursorHandler != nil {
			m.preeditCursorHandler(serial, index)
		}
	case 5: // modifiers_map
		names := decodeStringArray(event.Array())
		if m.modifiersMapHandler != nil {
			m.modifiersMapHandler(names)
		}
	case 6: // keysym
		serial := event.Uint32()
		time := event.Uint32()
		sym := event.Uint32()
		state := event.Uint32()
		modifiers := event.Uint32()
		if m.keysymHandler != nil {
			m.keysymHandler(serial, time, sym, state, modifiers)
		}
	case 7: // selection_replacement, unused
	case 8: // direction, unused
	case 9: // locale, unused
	case 10: // enter
		surfaceID := event.Uint32()
		if m.enterHandler != nil {
			m.enterHandler(surfaceID)
		}
	case 11: // leave
		if m.leaveHandler != nil {
			m.leaveHandler()
		}
	}
}

// decodeStringArray splits a wire array of NUL terminated names
func decodeStringArray(raw []byte) []string {
	var names []string
	start := 0
	for i, b := range raw {
		if b == 0 {
			names = append(names, string(raw[start:i]))
			start = i + 1
		}
	}
	return names
}
