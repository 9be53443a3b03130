package protocols

import (
	"github.com/bnema/wlturbo/wl"
)

// Viewporter interface names
const (
	ViewporterInterface = "wp_viewporter"
	ViewportInterface   = "wp_viewport"
)

// Viewporter represents the wp_viewporter global
type Viewporter struct {
	wl.BaseProxy
}

// NewViewporter creates a viewporter proxy for Registry.Bind
func NewViewporter(ctx *wl.Context) *Viewporter {
	viewporter := &Viewporter{}
	viewporter.SetContext(ctx)
	return viewporter
}

// GetViewport extends a surface with crop and scale state
func (v *Viewporter) GetViewport(surface *Surface) (*Viewport, error) {
	viewport := &Viewport{}
	viewport.SetContext(v.Context())
	viewport.SetID(v.Context().AllocateID())
	v.Context().Register(viewport)

	// Opcode 1: get_viewport
	const opcode = 1

	if err := v.Context().SendRequest(v, opcode, viewport.ID(), surface); err != nil {
		v.Context().Unregister(viewport)
		return nil, err
	}
	return viewport, nil
}

// Viewport carries the crop and scale state of one surface
type Viewport struct {
	wl.BaseProxy
}

// Destroy removes the viewport state from the surface
func (v *Viewport) Destroy() error {
	// Opcode 0: destroy
	const opcode = 0
	err := v.Context().SendRequest(v, opcode)
	v.Context().Unregister(v)
	return err
}

// SetSource crops the source rectangle in buffer coordinates. Pass all
// -1 to unset.
func (v *Viewport) SetSource(x, y, width, height wl.Fixed) error {
	// Opcode 1: set_source
	const opcode = 1
	return v.Context().SendRequest(v, opcode, x, y, width, height)
}

// SetDestination scales the surface to the given size in surface
// coordinates. Pass -1, -1 to unset.
func (v *Viewport) SetDestination(width, height int32) error {
	// Opcode 2: set_destination
	const opcode = 2
	return v.Context().SendRequest(v, opcode, width, height)
}
