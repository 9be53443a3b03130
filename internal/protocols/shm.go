package protocols

import (
	"fmt"

	"github.com/bnema/wlturbo/wl"
)

// Shared-memory interface names
const (
	ShmInterface     = "wl_shm"
	ShmPoolInterface = "wl_shm_pool"
	BufferInterface  = "wl_buffer"
)

// Pixel formats from the wl_shm.format enum. The two mandatory formats
// are all the toolkit uses: premultiplied ARGB for transparent windows,
// XRGB for opaque ones.
const (
	FormatARGB8888 uint32 = 0
	FormatXRGB8888 uint32 = 1
)

// Shm represents the wl_shm global
type Shm struct {
	wl.BaseProxy

	formats       []uint32
	formatHandler func(format uint32)
}

// NewShm creates an shm proxy for Registry.Bind
func NewShm(ctx *wl.Context) *Shm {
	shm := &Shm{}
	shm.SetContext(ctx)
	// ID will be set by Registry.Bind
	return shm
}

// SetFormatHandler sets the handler for format advertisement events
func (s *Shm) SetFormatHandler(handler func(format uint32)) {
	s.formatHandler = handler
}

// Formats returns the pixel formats advertised so far
func (s *Shm) Formats() []uint32 {
	return s.formats
}

// Supports reports whether the compositor advertised the given format
func (s *Shm) Supports(format uint32) bool {
	for _, f := range s.formats {
		if f == format {
			return true
		}
	}
	return false
}

// CreatePool shares an fd-backed memory pool of the given size with the
// compositor
func (s *Shm) CreatePool(fd int, size int32) (*ShmPool, error) {
	if fd < 0 {
		return nil, fmt.Errorf("invalid file descriptor: %d", fd)
	}
	pool := &ShmPool{}
	pool.SetContext(s.Context())
	pool.SetID(s.Context().AllocateID())
	s.Context().Register(pool)

	// Opcode 0: create_pool
	const opcode = 0

	// The fd travels out-of-band via SCM_RIGHTS; uintptr marshals no
	// placeholder bytes.
	if err := s.Context().SendRequestWithFDs(s, opcode, []int{fd}, pool.ID(), uintptr(fd), size); err != nil {
		s.Context().Unregister(pool)
		return nil, err
	}
	return pool, nil
}

// Dispatch handles incoming shm events
func (s *Shm) Dispatch(event *wl.Event) {
	if event.Opcode == 0 { // format
		format := event.Uint32()
		s.formats = append(s.formats, format)
		if s.formatHandler != nil {
			s.formatHandler(format)
		}
	}
}

// ShmPool represents a wl_shm_pool
type ShmPool struct {
	wl.BaseProxy
}

// CreateBuffer creates a buffer backed by a slice of the pool
func (p *ShmPool) CreateBuffer(offset, width, height, stride int32, format uint32) (*Buffer, error) {
	buffer := &Buffer{}
	buffer.SetContext(p.Context())
	buffer.SetID(p.Context().AllocateID())
	p.Context().Register(buffer)

	// Opcode 0: create_buffer
	const opcode = 0

	if err := p.Context().SendRequest(p, opcode, buffer.ID(), offset, width, height, stride, format); err != nil {
		p.Context().Unregister(buffer)
		return nil, err
	}
	return buffer, nil
}

// Destroy destroys the pool. Buffers created from it stay valid.
func (p *ShmPool) Destroy() error {
	// Opcode 1: destroy
	const opcode = 1
	err := p.Context().SendRequest(p, opcode)
	p.Context().Unregister(p)
	return err
}

// Resize grows the pool after the backing file grew
func (p *ShmPool) Resize(size int32) error {
	// Opcode 2: resize
	const opcode = 2
	return p.Context().SendRequest(p, opcode, size)
}

// Dispatch handles incoming events (pool has no events)
func (p *ShmPool) Dispatch(event *wl.Event) {}

// Buffer represents a wl_buffer of any backing (shm pool or drm image)
type Buffer struct {
	wl.BaseProxy

	releaseHandler func()
}

// SetReleaseHandler sets the handler for the release event, fired when
// the compositor no longer reads from the buffer
func (b *Buffer) SetReleaseHandler(handler func()) {
	b.releaseHandler = handler
}

// Destroy destroys the buffer
func (b *Buffer) Destroy() error {
	// Opcode 0: destroy
	const opcode = 0
	err := b.Context().SendRequest(b, opcode)
	b.Context().Unregister(b)
	return err
}

// Dispatch handles incoming buffer events
func (b *Buffer) Dispatch(event *wl.Event) {
	if event.Opcode == 0 { // release
		if b.releaseHandler != nil {
			b.releaseHandler()
		}
	}
}
