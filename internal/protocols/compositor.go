package protocols

import (
	"github.com/bnema/wlturbo/wl"
)

// Core interface names
const (
	CompositorInterface = "wl_compositor"
	SurfaceInterface    = "wl_surface"
)

// Compositor represents the wl_compositor global
type Compositor struct {
	wl.BaseProxy
}

// NewCompositor creates a compositor proxy for Registry.Bind
func NewCompositor(ctx *wl.Context) *Compositor {
	compositor := &Compositor{}
	compositor.SetContext(ctx)
	// ID will be set by Registry.Bind
	return compositor
}

// CreateSurface creates a new surface
func (c *Compositor) CreateSurface() (*Surface, error) {
	surface := NewSurface(c.Context())

	// Opcode 0: create_surface
	const opcode = 0

	if err := c.Context().SendRequest(c, opcode, surface); err != nil {
		c.Context().Unregister(surface)
		return nil, err
	}
	return surface, nil
}

// CreateRegion creates a new region
func (c *Compositor) CreateRegion() (*Region, error) {
	region := &Region{}
	region.SetContext(c.Context())
	region.SetID(c.Context().AllocateID())
	c.Context().Register(region)

	// Opcode 1: create_region
	const opcode = 1

	if err := c.Context().SendRequest(c, opcode, region); err != nil {
		c.Context().Unregister(region)
		return nil, err
	}
	return region, nil
}

// Dispatch handles incoming events (compositor has no events)
func (c *Compositor) Dispatch(event *wl.Event) {}

// Surface represents a wl_surface
type Surface struct {
	wl.BaseProxy

	enterHandler func(outputID uint32)
	leaveHandler func(outputID uint32)
}

// NewSurface creates and registers a surface proxy
func NewSurface(ctx *wl.Context) *Surface {
	surface := &Surface{}
	surface.SetContext(ctx)
	surface.SetID(ctx.AllocateID())
	ctx.Register(surface)
	return surface
}

// SetEnterHandler sets the handler for output enter events
func (s *Surface) SetEnterHandler(handler func(outputID uint32)) {
	s.enterHandler = handler
}

// SetLeaveHandler sets the handler for output leave events
func (s *Surface) SetLeaveHandler(handler func(outputID uint32)) {
	s.leaveHandler = handler
}

// Destroy destroys the surface
func (s *Surface) Destroy() error {
	// Opcode 0: destroy
	const opcode = 0
	err := s.Context().SendRequest(s, opcode)
	s.Context().Unregister(s)
	return err
}

// Attach attaches a buffer at the given offset. A nil buffer detaches the
// current content.
func (s *Surface) Attach(buffer *Buffer, x, y int32) error {
	// Opcode 1: attach
	const opcode = 1
	if buffer == nil {
		return s.Context().SendRequest(s, opcode, nil, x, y)
	}
	return s.Context().SendRequest(s, opcode, buffer, x, y)
}

// Damage marks a surface-local region as needing repaint
func (s *Surface) Damage(x, y, width, height int32) error {
	// Opcode 2: damage
	const opcode = 2
	return s.Context().SendRequest(s, opcode, x, y, width, height)
}

// Frame requests a callback fired when the compositor has presented the
// next frame for this surface
func (s *Surface) Frame() (*Callback, error) {
	callback := NewCallback(s.Context())

	// Opcode 3: frame
	const opcode = 3

	if err := s.Context().SendRequest(s, opcode, callback); err != nil {
		s.Context().Unregister(callback)
		return nil, err
	}
	return callback, nil
}

// SetOpaqueRegion declares the fully opaque part of the surface. A nil
// region marks the whole surface as potentially transparent.
func (s *Surface) SetOpaqueRegion(region *Region) error {
	// Opcode 4: set_opaque_region
	const opcode = 4
	if region == nil {
		return s.Context().SendRequest(s, opcode, nil)
	}
	return s.Context().SendRequest(s, opcode, region)
}

// SetInputRegion declares the input-accepting part of the surface
func (s *Surface) SetInputRegion(region *Region) error {
	// Opcode 5: set_input_region
	const opcode = 5
	if region == nil {
		return s.Context().SendRequest(s, opcode, nil)
	}
	return s.Context().SendRequest(s, opcode, region)
}

// Commit atomically applies the pending surface state
func (s *Surface) Commit() error {
	// Opcode 6: commit
	const opcode = 6
	return s.Context().SendRequest(s, opcode)
}

// Dispatch handles incoming surface events
func (s *Surface) Dispatch(event *wl.Event) {
	switch event.Opcode {
	case 0: // enter
		id := event.Uint32()
		if s.enterHandler != nil {
			s.enterHandler(id)
		}
	case 1: // leave
		id := event.Uint32()
		if s.leaveHandler != nil {
			s.leaveHandler(id)
		}
	}
}

// Region represents a wl_region
type Region struct {
	wl.BaseProxy
}

// Add adds a rectangle to the region
func (r *Region) Add(x, y, width, height int32) error {
	// Opcode 1: add (0 is destroy)
	const opcode = 1
	return r.Context().SendRequest(r, opcode, x, y, width, height)
}

// Subtract removes a rectangle from the region
func (r *Region) Subtract(x, y, width, height int32) error {
	// Opcode 2: subtract
	const opcode = 2
	return r.Context().SendRequest(r, opcode, x, y, width, height)
}

// Destroy destroys the region
func (r *Region) Destroy() error {
	// Opcode 0: destroy
	const opcode = 0
	err := r.Context().SendRequest(r, opcode)
	r.Context().Unregister(r)
	return err
}

// Dispatch handles incoming events (region has no events)
func (r *Region) Dispatch(event *wl.Event) {}

// Callback represents a wl_callback
type Callback struct {
	wl.BaseProxy

	doneHandler func(data uint32)
}

// NewCallback creates and registers a callback proxy
func NewCallback(ctx *wl.Context) *Callback {
	callback := &Callback{}
	callback.SetContext(ctx)
	callback.SetID(ctx.AllocateID())
	ctx.Register(callback)
	return callback
}

// SetDoneHandler sets the handler for the done event
func (c *Callback) SetDoneHandler(handler func(data uint32)) {
	c.doneHandler = handler
}

// Dispatch handles the done event. Callbacks are one-shot: the proxy
// unregisters itself after firing.
func (c *Callback) Dispatch(event *wl.Event) {
	if event.Opcode == 0 { // done
		data := event.Uint32()
		c.Context().Unregister(c)
		if c.doneHandler != nil {
			c.doneHandler(data)
		}
	}
}
