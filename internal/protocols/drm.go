package protocols

import (
	"github.com/bnema/wlturbo/wl"
)

// DrmInterface is the wl_drm interface name
const DrmInterface = "wl_drm"

// DRM fourcc formats used for buffer creation
const (
	DrmFormatARGB8888 uint32 = 0x34325241
	DrmFormatXRGB8888 uint32 = 0x34325258
)

// Drm represents the wl_drm global used to share GEM buffers with the
// compositor
type Drm struct {
	wl.BaseProxy

	device        string
	formats       []uint32
	authenticated bool

	deviceHandler        func(path string)
	authenticatedHandler func()
}

// NewDrm creates a drm proxy for Registry.Bind
func NewDrm(ctx *wl.Context) *Drm {
	drm := &Drm{}
	drm.SetContext(ctx)
	return drm
}

// SetDeviceHandler sets the handler for the render node announcement
func (d *Drm) SetDeviceHandler(handler func(path string)) {
	d.deviceHandler = handler
}

// SetAuthenticatedHandler sets the handler fired once authentication
// succeeds
func (d *Drm) SetAuthenticatedHandler(handler func()) {
	d.authenticatedHandler = handler
}

// Device returns the announced DRM node path
func (d *Drm) Device() string {
	return d.device
}

// Authenticated reports whether the compositor has acknowledged our
// magic token
func (d *Drm) Authenticated() bool {
	return d.authenticated
}

// Supports reports whether the compositor accepts the given format
func (d *Drm) Supports(format uint32) bool {
	for _, f := range d.formats {
		if f == format {
			return true
		}
	}
	return false
}

// Authenticate sends the magic token obtained from the DRM device
func (d *Drm) Authenticate(magic uint32) error {
	// Opcode 0: authenticate
	const opcode = 0
	return d.Context().SendRequest(d, opcode, magic)
}

// CreateBuffer wraps a flinked GEM object into a wl_buffer
func (d *Drm) CreateBuffer(name uint32, width, height int32, stride, format uint32) (*Buffer, error) {
	buffer := &Buffer{}
	buffer.SetContext(d.Context())
	buffer.SetID(d.Context().AllocateID())
	d.Context().Register(buffer)

	// Opcode 1: create_buffer
	const opcode = 1

	if err := d.Context().SendRequest(d, opcode, buffer.ID(), name, width, height, stride, format); err != nil {
		d.Context().Unregister(buffer)
		return nil, err
	}
	return buffer, nil
}

// Dispatch handles incoming drm events
func (d *Drm) Dispatch(event *wl.Event) {
	switch event.Opcode {
	case 0: // device
		d.device = event.String()
		if d.deviceHandler != nil {
			d.deviceHandler(d.device)
		}
	case 1: // format
		d.formats = append(d.formats, event.Uint32())
	case 2: // authenticated
		d.authenticated = true
		if d.authenticatedHandler != nil {
			d.authenticatedHandler()
		}
	}
}
