package protocols

import (
	"github.com/bnema/wlturbo/wl"
)

// Data transfer interface names
const (
	DataDeviceManagerInterface = "wl_data_device_manager"
	DataDeviceInterface        = "wl_data_device"
	DataSourceInterface        = "wl_data_source"
	DataOfferInterface         = "wl_data_offer"
)

// DataDeviceManager represents the wl_data_device_manager global
type DataDeviceManager struct {
	wl.BaseProxy
}

// NewDataDeviceManager creates a manager proxy for Registry.Bind
func NewDataDeviceManager(ctx *wl.Context) *DataDeviceManager {
	manager := &DataDeviceManager{}
	manager.SetContext(ctx)
	return manager
}

// CreateDataSource creates a new data source for copy or drag offers
func (m *DataDeviceManager) CreateDataSource() (*DataSource, error) {
	source := &DataSource{}
	source.SetContext(m.Context())
	source.SetID(m.Context().AllocateID())
	m.Context().Register(source)

	// Opcode 0: create_data_source
	const opcode = 0

	if err := m.Context().SendRequest(m, opcode, source.ID()); err != nil {
		m.Context().Unregister(source)
		return nil, err
	}
	return source, nil
}

// GetDataDevice creates the data device for a seat
func (m *DataDeviceManager) GetDataDevice(seat *Seat) (*DataDevice, error) {
	device := &DataDevice{offers: make(map[uint32]*DataOffer)}
	device.SetContext(m.Context())
	device.SetID(m.Context().AllocateID())
	m.Context().Register(device)

	// Opcode 1: get_data_device
	const opcode = 1

	if err := m.Context().SendRequest(m, opcode, device.ID(), seat); err != nil {
		m.Context().Unregister(device)
		return nil, err
	}
	return device, nil
}

// DataSource represents a wl_data_source the client offers data from
type DataSource struct {
	wl.BaseProxy

	targetHandler    func(mimeType string)
	sendHandler      func(mimeType string, fd uintptr)
	cancelledHandler func()
}

// SetTargetHandler sets the handler for target mime feedback during drags
func (s *DataSource) SetTargetHandler(handler func(mimeType string)) {
	s.targetHandler = handler
}

// SetSendHandler sets the handler the compositor uses to request the
// data. The handler owns the fd and must close it after writing.
func (s *DataSource) SetSendHandler(handler func(mimeType string, fd uintptr)) {
	s.sendHandler = handler
}

// SetCancelledHandler sets the handler fired when the source is replaced
func (s *DataSource) SetCancelledHandler(handler func()) {
	s.cancelledHandler = handler
}

// Offer advertises a mime type this source can produce
func (s *DataSource) Offer(mimeType string) error {
	// Opcode 0: offer
	const opcode = 0
	return s.Context().SendRequest(s, opcode, mimeType)
}

// Destroy destroys the data source
func (s *DataSource) Destroy() error {
	// Opcode 1: destroy
	const opcode = 1
	err := s.Context().SendRequest(s, opcode)
	s.Context().Unregister(s)
	return err
}

// Dispatch handles incoming data source events
func (s *DataSource) Dispatch(event *wl.Event) {
	switch event.Opcode {
	case 0: // target
		mime := event.String()
		if s.targetHandler != nil {
			s.targetHandler(mime)
		}
	case 1: // send
		mime := event.String()
		fd := event.Fd()
		if s.sendHandler != nil {
			s.sendHandler(mime, fd)
		}
	case 2: // cancelled
		if s.cancelledHandler != nil {
			s.cancelledHandler()
		}
	}
}

// DataOffer represents data offered by another client
type DataOffer struct {
	wl.BaseProxy

	device    *DataDevice
	mimeTypes []string
}

// MimeTypes returns the mime types advertised so far
func (o *DataOffer) MimeTypes() []string {
	return o.mimeTypes
}

// Accept indicates the mime type the client would accept at this point
// of a drag. Pass an empty string to reject the offer.
func (o *DataOffer) Accept(serial uint32, mimeType string) error {
	// Opcode 0: accept
	const opcode = 0
	if mimeType == "" {
		return o.Context().SendRequest(o, opcode, serial, nil)
	}
	return o.Context().SendRequest(o, opcode, serial, mimeType)
}

// Receive asks for the offer content in the given mime type. The data
// arrives on the read end of the pipe whose write end is fd.
func (o *DataOffer) Receive(mimeType string, fd int) error {
	// Opcode 1: receive
	const opcode = 1
	return o.Context().SendRequestWithFDs(o, opcode, []int{fd}, mimeType, uintptr(fd))
}

// Destroy destroys the offer
func (o *DataOffer) Destroy() error {
	// Opcode 2: destroy
	const opcode = 2
	err := o.Context().SendRequest(o, opcode)
	o.Context().Unregister(o)
	if o.device != nil {
		delete(o.device.offers, o.ID())
	}
	return err
}

// Dispatch handles incoming data offer events
func (o *DataOffer) Dispatch(event *wl.Event) {
	switch event.Opcode {
	case 0: // offer
		o.mimeTypes = append(o.mimeTypes, event.String())
	}
}

// DataDevice represents the per-seat wl_data_device
type DataDevice struct {
	wl.BaseProxy

	offers map[uint32]*DataOffer

	dataOfferHandler func(offer *DataOffer)
	enterHandler     func(serial uint32, surfaceID uint32, x, y wl.Fixed, offer *DataOffer)
	leaveHandler     func()
	motionHandler    func(time uint32, x, y wl.Fixed)
	dropHandler      func()
	selectionHandler func(offer *DataOffer)
}

// SetDataOfferHandler sets the handler for newly introduced offers
func (d *DataDevice) SetDataOfferHandler(handler func(offer *DataOffer)) {
	d.dataOfferHandler = handler
}

// SetEnterHandler sets the handler for a drag entering a surface
func (d *DataDevice) SetEnterHandler(handler func(serial uint32, surfaceID uint32, x, y wl.Fixed, offer *DataOffer)) {
	d.enterHandler = handler
}

// SetLeaveHandler sets the handler for a drag leaving the surface
func (d *DataDevice) SetLeaveHandler(handler func()) {
	d.leaveHandler = handler
}

// SetMotionHandler sets the handler for drag motion
func (d *DataDevice) SetMotionHandler(handler func(time uint32, x, y wl.Fixed)) {
	d.motionHandler = handler
}

// SetDropHandler sets the handler for the drop gesture
func (d *DataDevice) SetDropHandler(handler func()) {
	d.dropHandler = handler
}

// SetSelectionHandler sets the handler for selection (clipboard)
// changes. A nil offer means the selection was cleared.
func (d *DataDevice) SetSelectionHandler(handler func(offer *DataOffer)) {
	d.selectionHandler = handler
}

// StartDrag begins a drag from origin with an optional icon surface. A
// nil source makes the drag client-internal.
func (d *DataDevice) StartDrag(source *DataSource, origin, icon *Surface, serial uint32) error {
	// Opcode 0: start_drag
	const opcode = 0
	args := make([]interface{}, 0, 4)
	if source == nil {
		args = append(args, nil)
	} else {
		args = append(args, source)
	}
	args = append(args, origin)
	if icon == nil {
		args = append(args, nil)
	} else {
		args = append(args, icon)
	}
	args = append(args, serial)
	return d.Context().SendRequest(d, opcode, args...)
}

// SetSelection installs source as the selection. A nil source clears it.
func (d *DataDevice) SetSelection(source *DataSource, serial uint32) error {
	// Opcode 1: set_selection
	const opcode = 1
	if source == nil {
		return d.Context().SendRequest(d, opcode, nil, serial)
	}
	return d.Context().SendRequest(d, opcode, source, serial)
}

// Release releases the data device
func (d *DataDevice) Release() error {
	// Opcode 2: release
	const opcode = 2
	err := d.Context().SendRequest(d, opcode)
	d.Context().Unregister(d)
	return err
}

// Dispatch handles incoming data device events
func (d *DataDevice) Dispatch(event *wl.Event) {
	switch event.Opcode {
	case 0: // data_offer
		id := event.Uint32()
		offer := &DataOffer{device: d}
		offer.SetContext(d.Context())
		offer.SetID(id)
		d.Context().Register(offer)
		d.offers[id] = offer
		if d.dataOfferHandler != nil {
			d.dataOfferHandler(offer)
		}
	case 1: // enter
		serial := event.Uint32()
		surfaceID := event.Uint32()
		x := event.Fixed()
		y := event.Fixed()
		offer := d.offers[event.Uint32()]
		if d.enterHandler != nil {
			d.enterHandler(serial, surfaceID, x, y, offer)
		}
	case 2: // leave
		if d.leaveHandler != nil {
			d.leaveHandler()
		}
	case 3: // motion
		time := event.Uint32()
		x := event.Fixed()
		y := event.Fixed()
		if d.motionHandler != nil {
			d.motionHandler(time, x, y)
		}
	case 4: // drop
		if d.dropHandler != nil {
			d.dropHandler()
		}
	case 5: // selection
		offer := d.offers[event.Uint32()]
		if d.selectionHandler != nil {
			d.selectionHandler(offer)
		}
	}
}
