package protocols

import (
	"github.com/bnema/wlturbo/wl"
)

// Seat interface names
const (
	SeatInterface     = "wl_seat"
	PointerInterface  = "wl_pointer"
	KeyboardInterface = "wl_keyboard"
)

// Seat capability bits
const (
	SeatCapabilityPointer  uint32 = 1
	SeatCapabilityKeyboard uint32 = 2
	SeatCapabilityTouch    uint32 = 4
)

// Pointer button codes (linux input-event-codes) and states
const (
	BtnLeft   uint32 = 0x110
	BtnRight  uint32 = 0x111
	BtnMiddle uint32 = 0x112

	ButtonStateReleased uint32 = 0
	ButtonStatePressed  uint32 = 1
)

// Keyboard key states and keymap formats
const (
	KeyStateReleased uint32 = 0
	KeyStatePressed  uint32 = 1

	KeymapFormatNone  uint32 = 0
	KeymapFormatXkbV1 uint32 = 1
)

// Seat represents a wl_seat global
type Seat struct {
	wl.BaseProxy

	capabilities uint32
	name         string

	capabilitiesHandler func(caps uint32)
}

// NewSeat creates a seat proxy for Registry.Bind
func NewSeat(ctx *wl.Context) *Seat {
	seat := &Seat{}
	seat.SetContext(ctx)
	// ID will be set by Registry.Bind
	return seat
}

// SetCapabilitiesHandler sets the handler for capability announcements
func (s *Seat) SetCapabilitiesHandler(handler func(caps uint32)) {
	s.capabilitiesHandler = handler
}

// Capabilities returns the last announced capability mask
func (s *Seat) Capabilities() uint32 {
	return s.capabilities
}

// Name returns the seat name
func (s *Seat) Name() string {
	return s.name
}

// GetPointer creates the pointer device for this seat
func (s *Seat) GetPointer() (*Pointer, error) {
	pointer := &Pointer{}
	pointer.SetContext(s.Context())
	pointer.SetID(s.Context().AllocateID())
	s.Context().Register(pointer)

	// Opcode 0: get_pointer
	const opcode = 0

	if err := s.Context().SendRequest(s, opcode, pointer.ID()); err != nil {
		s.Context().Unregister(pointer)
		return nil, err
	}
	return pointer, nil
}

// GetKeyboard creates the keyboard device for this seat
func (s *Seat) GetKeyboard() (*Keyboard, error) {
	keyboard := &Keyboard{}
	keyboard.SetContext(s.Context())
	keyboard.SetID(s.Context().AllocateID())
	s.Context().Register(keyboard)

	// Opcode 1: get_keyboard
	const opcode = 1

	if err := s.Context().SendRequest(s, opcode, keyboard.ID()); err != nil {
		s.Context().Unregister(keyboard)
		return nil, err
	}
	return keyboard, nil
}

// Release releases the seat
func (s *Seat) Release() error {
	// Opcode 3: release
	const opcode = 3
	err := s.Context().SendRequest(s, opcode)
	s.Context().Unregister(s)
	return err
}

// Dispatch handles incoming seat events
func (s *Seat) Dispatch(event *wl.Event) {
	switch event.Opcode {
	case 0: // capabilities
		s.capabilities = event.Uint32()
		if s.capabilitiesHandler != nil {
			s.capabilitiesHandler(s.capabilities)
		}
	case 1: // name
		s.name = event.String()
	}
}

// Pointer represents a wl_pointer device
type Pointer struct {
	wl.BaseProxy

	enterHandler  func(serial uint32, surfaceID uint32, sx, sy wl.Fixed)
	leaveHandler  func(serial uint32, surfaceID uint32)
	motionHandler func(time uint32, sx, sy wl.Fixed)
	buttonHandler func(serial, time, button, state uint32)
	axisHandler   func(time uint32, axis uint32, value wl.Fixed)
}

// SetEnterHandler sets the handler for surface enter events
func (p *Pointer) SetEnterHandler(handler func(serial uint32, surfaceID uint32, sx, sy wl.Fixed)) {
	p.enterHandler = handler
}

// SetLeaveHandler sets the handler for surface leave events
func (p *Pointer) SetLeaveHandler(handler func(serial uint32, surfaceID uint32)) {
	p.leaveHandler = handler
}

// SetMotionHandler sets the handler for motion events
func (p *Pointer) SetMotionHandler(handler func(time uint32, sx, sy wl.Fixed)) {
	p.motionHandler = handler
}

// SetButtonHandler sets the handler for button events
func (p *Pointer) SetButtonHandler(handler func(serial, time, button, state uint32)) {
	p.buttonHandler = handler
}

// SetAxisHandler sets the handler for scroll axis events
func (p *Pointer) SetAxisHandler(handler func(time uint32, axis uint32, value wl.Fixed)) {
	p.axisHandler = handler
}

// SetCursor attaches a cursor surface with the given hotspot. A nil
// surface hides the pointer.
func (p *Pointer) SetCursor(serial uint32, surface *Surface, hotspotX, hotspotY int32) error {
	// Opcode 0: set_cursor
	const opcode = 0
	if surface == nil {
		return p.Context().SendRequest(p, opcode, serial, nil, hotspotX, hotspotY)
	}
	return p.Context().SendRequest(p, opcode, serial, surface, hotspotX, hotspotY)
}

// Release releases the pointer device
func (p *Pointer) Release() error {
	// Opcode 1: release
	const opcode = 1
	err := p.Context().SendRequest(p, opcode)
	p.Context().Unregister(p)
	return err
}

// Dispatch handles incoming pointer events
func (p *Pointer) Dispatch(event *wl.Event) {
	switch event.Opcode {
	case 0: // enter
		serial := event.Uint32()
		surfaceID := event.Uint32()
		sx := event.Fixed()
		sy := event.Fixed()
		if p.enterHandler != nil {
			p.enterHandler(serial, surfaceID, sx, sy)
		}
	case 1: // leave
		serial := event.Uint32()
		surfaceID := event.Uint32()
		if p.leaveHandler != nil {
			p.leaveHandler(serial, surfaceID)
		}
	case 2: // motion
		time := event.Uint32()
		sx := event.Fixed()
		sy := event.Fixed()
		if p.motionHandler != nil {
			p.motionHandler(time, sx, sy)
		}
	case 3: // button
		serial := event.Uint32()
		time := event.Uint32()
		button := event.Uint32()
		state := event.Uint32()
		if p.buttonHandler != nil {
			p.buttonHandler(serial, time, button, state)
		}
	case 4: // axis
		time := event.Uint32()
		axis := event.Uint32()
		value := event.Fixed()
		if p.axisHandler != nil {
			p.axisHandler(time, axis, value)
		}
	}
}

// Keyboard represents a wl_keyboard device
type Keyboard struct {
	wl.BaseProxy

	keymapHandler    func(format uint32, fd uintptr, size uint32)
	enterHandler     func(serial uint32, surfaceID uint32, keys []uint32)
	leaveHandler     func(serial uint32, surfaceID uint32)
	keyHandler       func(serial, time, key, state uint32)
	modifiersHandler func(serial, depressed, latched, locked, group uint32)
}

// SetKeymapHandler sets the handler for keymap fd announcements. The
// handler owns the fd and must close it.
func (k *Keyboard) SetKeymapHandler(handler func(format uint32, fd uintptr, size uint32)) {
	k.keymapHandler = handler
}

// SetEnterHandler sets the handler for keyboard focus gain. keys holds
// the keycodes currently pressed.
func (k *Keyboard) SetEnterHandler(handler func(serial uint32, surfaceID uint32, keys []uint32)) {
	k.enterHandler = handler
}

// SetLeaveHandler sets the handler for keyboard focus loss
func (k *Keyboard) SetLeaveHandler(handler func(serial uint32, surfaceID uint32)) {
	k.leaveHandler = handler
}

// SetKeyHandler sets the handler for key events
func (k *Keyboard) SetKeyHandler(handler func(serial, time, key, state uint32)) {
	k.keyHandler = handler
}

// SetModifiersHandler sets the handler for modifier group updates
func (k *Keyboard) SetModifiersHandler(handler func(serial, depressed, latched, locked, group uint32)) {
	k.modifiersHandler = handler
}

// Release releases the keyboard device
func (k *Keyboard) Release() error {
	// Opcode 0: release
	const opcode = 0
	err := k.Context().SendRequest(k, opcode)
	k.Context().Unregister(k)
	return err
}

// Dispatch handles incoming keyboard events
func (k *Keyboard) Dispatch(event *wl.Event) {
	switch event.Opcode {
	case 0: // keymap
		format := event.Uint32()
		fd := event.Fd()
		size := event.Uint32()
		if k.keymapHandler != nil {
			k.keymapHandler(format, fd, size)
		}
	case 1: // enter
		serial := event.Uint32()
		surfaceID := event.Uint32()
		keys := decodeKeyArray(event.Array())
		if k.enterHandler != nil {
			k.enterHandler(serial, surfaceID, keys)
		}
	case 2: // leave
		serial := event.Uint32()
		surfaceID := event.Uint32()
		if k.leaveHandler != nil {
			k.leaveHandler(serial, surfaceID)
		}
	case 3: // key
		serial := event.Uint32()
		time := event.Uint32()
		key := event.Uint32()
		state := event.Uint32()
		if k.keyHandler != nil {
			k.keyHandler(serial, time, key, state)
		}
	case 4: // modifiers
		serial := event.Uint32()
		depressed := event.Uint32()
		latched := event.Uint32()
		locked := event.Uint32()
		group := event.Uint32()
		if k.modifiersHandler != nil {
			k.modifiersHandler(serial, depressed, latched, locked, group)
		}
	}
}

// decodeKeyArray unpacks the wire array of pressed keycodes
func decodeKeyArray(raw []byte) []uint32 {
	keys := make([]uint32, 0, len(raw)/4)
	for i := 0; i+4 <= len(raw); i += 4 {
		keys = append(keys, uint32(raw[i])|uint32(raw[i+1])<<8|uint32(raw[i+2])<<16|uint32(raw[i+3])<<24)
	}
	return keys
}
