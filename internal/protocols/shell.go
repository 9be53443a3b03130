package protocols

import (
	"github.com/bnema/wlturbo/wl"
)

// Shell interface names
const (
	ShellInterface        = "wl_shell"
	ShellSurfaceInterface = "wl_shell_surface"
)

// Resize edge codes from the wl_shell_surface.resize enum. Single edges
// are bits; corners are the OR of their two edges.
const (
	ResizeNone        uint32 = 0
	ResizeTop         uint32 = 1
	ResizeBottom      uint32 = 2
	ResizeLeft        uint32 = 4
	ResizeTopLeft     uint32 = 5
	ResizeBottomLeft  uint32 = 6
	ResizeRight       uint32 = 8
	ResizeTopRight    uint32 = 9
	ResizeBottomRight uint32 = 10
)

// Transient flags from the wl_shell_surface.transient enum
const (
	TransientInactive uint32 = 0x1
)

// Fullscreen methods from the wl_shell_surface.fullscreen_method enum
const (
	FullscreenMethodDefault uint32 = 0
	FullscreenMethodScale   uint32 = 1
	FullscreenMethodDriver  uint32 = 2
	FullscreenMethodFill    uint32 = 3
)

// Shell represents the wl_shell global
type Shell struct {
	wl.BaseProxy
}

// NewShell creates a shell proxy for Registry.Bind
func NewShell(ctx *wl.Context) *Shell {
	shell := &Shell{}
	shell.SetContext(ctx)
	// ID will be set by Registry.Bind
	return shell
}

// GetShellSurface wraps a surface in a shell_surface role object
func (s *Shell) GetShellSurface(surface *Surface) (*ShellSurface, error) {
	shellSurface := &ShellSurface{}
	shellSurface.SetContext(s.Context())
	shellSurface.SetID(s.Context().AllocateID())
	s.Context().Register(shellSurface)

	// Opcode 0: get_shell_surface
	const opcode = 0

	if err := s.Context().SendRequest(s, opcode, shellSurface.ID(), surface); err != nil {
		s.Context().Unregister(shellSurface)
		return nil, err
	}
	return shellSurface, nil
}

// Dispatch handles incoming events (shell has no events)
func (s *Shell) Dispatch(event *wl.Event) {}

// ShellSurface represents a wl_shell_surface role
type ShellSurface struct {
	wl.BaseProxy

	configureHandler func(edges uint32, width, height int32)
	popupDoneHandler func()
}

// SetConfigureHandler sets the handler for compositor-driven resizes
func (s *ShellSurface) SetConfigureHandler(handler func(edges uint32, width, height int32)) {
	s.configureHandler = handler
}

// SetPopupDoneHandler sets the handler for popup dismissal
func (s *ShellSurface) SetPopupDoneHandler(handler func()) {
	s.popupDoneHandler = handler
}

// Pong answers a ping; the toolkit sends it automatically from Dispatch
func (s *ShellSurface) Pong(serial uint32) error {
	// Opcode 0: pong
	const opcode = 0
	return s.Context().SendRequest(s, opcode, serial)
}

// Move asks the compositor to start an interactive move. The toolkit's
// own drag state machine supersedes this, but the request is kept for
// compositors that reposition the surface themselves.
func (s *ShellSurface) Move(seat *Seat, serial uint32) error {
	// Opcode 1: move
	const opcode = 1
	return s.Context().SendRequest(s, opcode, seat, serial)
}

// Resize asks the compositor to start an interactive resize
func (s *ShellSurface) Resize(seat *Seat, serial uint32, edges uint32) error {
	// Opcode 2: resize
	const opcode = 2
	return s.Context().SendRequest(s, opcode, seat, serial, edges)
}

// SetToplevel maps the surface as a toplevel window
func (s *ShellSurface) SetToplevel() error {
	// Opcode 3: set_toplevel
	const opcode = 3
	return s.Context().SendRequest(s, opcode)
}

// SetTransient maps the surface relative to a parent surface
func (s *ShellSurface) SetTransient(parent *Surface, x, y int32, flags uint32) error {
	// Opcode 4: set_transient
	const opcode = 4
	return s.Context().SendRequest(s, opcode, parent, x, y, flags)
}

// SetFullscreen maps the surface filling an output. A nil output lets
// the compositor choose.
func (s *ShellSurface) SetFullscreen(method uint32, framerate uint32, output *Output) error {
	// Opcode 5: set_fullscreen
	const opcode = 5
	if output == nil {
		return s.Context().SendRequest(s, opcode, method, framerate, nil)
	}
	return s.Context().SendRequest(s, opcode, method, framerate, output)
}

// SetPopup maps the surface as a popup with an implicit grab
func (s *ShellSurface) SetPopup(seat *Seat, serial uint32, parent *Surface, x, y int32, flags uint32) error {
	// Opcode 6: set_popup
	const opcode = 6
	return s.Context().SendRequest(s, opcode, seat, serial, parent, x, y, flags)
}

// SetMaximized maps the surface maximized on an output
func (s *ShellSurface) SetMaximized(output *Output) error {
	// Opcode 7: set_maximized
	const opcode = 7
	if output == nil {
		return s.Context().SendRequest(s, opcode, nil)
	}
	return s.Context().SendRequest(s, opcode, output)
}

// SetTitle sets the window title shown by the compositor
func (s *ShellSurface) SetTitle(title string) error {
	// Opcode 8: set_title
	const opcode = 8
	return s.Context().SendRequest(s, opcode, title)
}

// SetClass sets the window class used to group surfaces
func (s *ShellSurface) SetClass(class string) error {
	// Opcode 9: set_class
	const opcode = 9
	return s.Context().SendRequest(s, opcode, class)
}

// Destroy unregisters the role object. wl_shell_surface has no
// destructor request; destroying the wl_surface unmaps it.
func (s *ShellSurface) Destroy() {
	s.Context().Unregister(s)
}

// Dispatch handles incoming shell surface events
func (s *ShellSurface) Dispatch(event *wl.Event) {
	switch event.Opcode {
	case 0: // ping
		serial := event.Uint32()
		_ = s.Pong(serial)
	case 1: // configure
		edges := event.Uint32()
		width := event.Int32()
		height := event.Int32()
		if s.configureHandler != nil {
			s.configureHandler(edges, width, height)
		}
	case 2: // popup_done
		if s.popupDoneHandler != nil {
			s.popupDoneHandler()
		}
	}
}
