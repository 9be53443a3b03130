package protocols

import (
	"github.com/bnema/wlturbo/wl"
)

// ScreenshooterInterface is the weston_screenshooter interface name
const ScreenshooterInterface = "weston_screenshooter"

// Screenshooter represents the weston_screenshooter global
type Screenshooter struct {
	wl.BaseProxy

	doneHandler func()
}

// NewScreenshooter creates a screenshooter proxy for Registry.Bind
func NewScreenshooter(ctx *wl.Context) *Screenshooter {
	shooter := &Screenshooter{}
	shooter.SetContext(ctx)
	return shooter
}

// SetDoneHandler sets the handler fired when a shot has been written
func (s *Screenshooter) SetDoneHandler(handler func()) {
	s.doneHandler = handler
}

// Shoot asks the compositor to copy the output contents into buffer
func (s *Screenshooter) Shoot(output *Output, buffer *Buffer) error {
	// Opcode 0: shoot
	const opcode = 0
	return s.Context().SendRequest(s, opcode, output, buffer)
}

// Dispatch handles incoming screenshooter events
func (s *Screenshooter) Dispatch(event *wl.Event) {
	switch event.Opcode {
	case 0: // done
		if s.doneHandler != nil {
			s.doneHandler()
		}
	}
}
