package toolkit

import (
	"fmt"

	"github.com/bnema/wltk/internal/protocols"
)

// windowWire is the slice of the protocol a window talks to. The real
// implementation wraps a wl_surface plus its wl_shell_surface; tests
// substitute a recording fake.
type windowWire interface {
	SurfaceID() uint32
	Attach(b bufferHandle, dx, dy int32) error
	Damage(x, y, width, height int32) error
	// RequestFrame arranges for done to run on the loop goroutine
	// when the compositor has presented the current commit.
	RequestFrame(done func()) error
	Commit() error
	SetTitle(title string) error
	SetToplevel() error
	SetTransient(parent *Window, x, y int32) error
	SetFullscreen() error
	SetPopup(in *Input, serial uint32, parent *Window, x, y int32) error
	Pong(serial uint32) error
	Destroy()
}

type wireSurface struct {
	display *Display
	surface *protocols.Surface
	shell   *protocols.ShellSurface // nil when the compositor has no wl_shell
}

func (s *wireSurface) SurfaceID() uint32 { return s.surface.ID() }

func (s *wireSurface) Attach(b bufferHandle, dx, dy int32) error {
	return s.surface.Attach(b.Attachable(), dx, dy)
}

func (s *wireSurface) Damage(x, y, width, height int32) error {
	return s.surface.Damage(x, y, width, height)
}

func (s *wireSurface) RequestFrame(done func()) error {
	cb, err := s.surface.Frame()
	if err != nil {
		return err
	}
	d := s.display
	cb.SetDoneHandler(func(uint32) {
		d.Defer(done)
	})
	return nil
}

func (s *wireSurface) Commit() error { return s.surface.Commit() }

func (s *wireSurface) SetTitle(title string) error {
	if s.shell == nil {
		return nil
	}
	return s.shell.SetTitle(title)
}

func (s *wireSurface) SetToplevel() error {
	if s.shell == nil {
		return nil
	}
	return s.shell.SetToplevel()
}

func (s *wireSurface) SetTransient(parent *Window, x, y int32) error {
	if s.shell == nil {
		return nil
	}
	pw, ok := parent.wire.(*wireSurface)
	if !ok {
		return fmt.Errorf("transient parent has no protocol surface")
	}
	return s.shell.SetTransient(pw.surface, x, y, 0)
}

func (s *wireSurface) SetFullscreen() error {
	if s.shell == nil {
		return nil
	}
	return s.shell.SetFullscreen(protocols.FullscreenMethodDefault, 0, nil)
}

func (s *wireSurface) SetPopup(in *Input, serial uint32, parent *Window, x, y int32) error {
	if s.shell == nil {
		return nil
	}
	pw, ok := parent.wire.(*wireSurface)
	if !ok {
		return fmt.Errorf("popup parent has no protocol surface")
	}
	return s.shell.SetPopup(in.seat, serial, pw.surface, x, y, 0)
}

func (s *wireSurface) Pong(serial uint32) error {
	if s.shell == nil {
		return nil
	}
	return s.shell.Pong(serial)
}

func (s *wireSurface) Destroy() {
	if s.shell != nil {
		s.shell.Destroy()
	}
	_ = s.surface.Destroy()
}
