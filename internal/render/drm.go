//go:build linux

// Package render allocates pixel buffers the compositor can scan out.
// The shm path lives in the toolkit itself, this package covers the
// wl_drm path with dumb buffers shared through GEM flink names.
package render

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/bnema/wltk/internal/logger"
)

// ioctl encoding, linux asm-generic/ioctl.h
const (
	iocWrite = 1
	iocRead  = 2

	iocNrShift   = 0
	iocTypeShift = 8
	iocSizeShift = 16
	iocDirShift  = 30

	drmIoctlBase = 'd'
)

func drmIOWR(nr, size uintptr) uintptr {
	return (iocRead|iocWrite)<<iocDirShift | size<<iocSizeShift | drmIoctlBase<<iocTypeShift | nr<<iocNrShift
}

type drmAuth struct {
	Magic uint32
}

type drmGemFlink struct {
	Handle uint32
	Name   uint32
}

type drmModeCreateDumb struct {
	Height uint32
	Width  uint32
	Bpp    uint32
	Flags  uint32
	Handle uint32
	Pitch  uint32
	Size   uint64
}

type drmModeMapDumb struct {
	Handle uint32
	Pad    uint32
	Offset uint64
}

type drmModeDestroyDumb struct {
	Handle uint32
}

var (
	ioctlGetMagic        = drmIOWR(0x02, unsafe.Sizeof(drmAuth{}))
	ioctlGemFlink        = drmIOWR(0x0a, unsafe.Sizeof(drmGemFlink{}))
	ioctlModeCreateDumb  = drmIOWR(0xb2, unsafe.Sizeof(drmModeCreateDumb{}))
	ioctlModeMapDumb     = drmIOWR(0xb3, unsafe.Sizeof(drmModeMapDumb{}))
	ioctlModeDestroyDumb = drmIOWR(0xb4, unsafe.Sizeof(drmModeDestroyDumb{}))
)

func ioctl(fd int, req uintptr, arg unsafe.Pointer) error {
	for {
		_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(arg))
		if errno == 0 {
			return nil
		}
		if errno == unix.EINTR || errno == unix.EAGAIN {
			continue
		}
		return errno
	}
}

// Device wraps an open DRM node
type Device struct {
	fd   int
	path string
}

// Open opens the DRM node at path
func Open(path string) (*Device, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open drm node %s: %w", path, err)
	}
	logger.Debug("Opened DRM node", "path", path, "fd", fd)
	return &Device{fd: fd, path: path}, nil
}

// Path returns the node path the device was opened from
func (d *Device) Path() string {
	return d.path
}

// Magic returns the authentication token for this client
func (d *Device) Magic() (uint32, error) {
	var auth drmAuth
	if err := ioctl(d.fd, ioctlGetMagic, unsafe.Pointer(&auth)); err != nil {
		return 0, fmt.Errorf("failed to get drm magic: %w", err)
	}
	return auth.Magic, nil
}

// Close closes the node
func (d *Device) Close() error {
	if d.fd < 0 {
		return nil
	}
	err := unix.Close(d.fd)
	d.fd = -1
	return err
}

// DumbBuffer is a CPU mapped scanout buffer with a global GEM name
type DumbBuffer struct {
	dev    *Device
	handle uint32
	name   uint32
	width  int32
	height int32
	stride int32
	size   uint64
	data   []byte
}

// CreateDumb allocates a 32bpp dumb buffer, maps it and exports a
// flink name for the compositor
func (d *Device) CreateDumb(width, height int32) (*DumbBuffer, error) {
	create := drmModeCreateDumb{
		Height: uint32(height),
		Width:  uint32(width),
		Bpp:    32,
	}
	if err := ioctl(d.fd, ioctlModeCreateDumb, unsafe.Pointer(&create)); err != nil {
		return nil, fmt.Errorf("failed to create dumb buffer: %w", err)
	}

	buf := &DumbBuffer{
		dev:    d,
		handle: create.Handle,
		width:  width,
		height: height,
		stride: int32(create.Pitch),
		size:   create.Size,
	}

	mapReq := drmModeMapDumb{Handle: create.Handle}
	if err := ioctl(d.fd, ioctlModeMapDumb, unsafe.Pointer(&mapReq)); err != nil {
		buf.destroyHandle()
		return nil, fmt.Errorf("failed to map dumb buffer: %w", err)
	}

	data, err := unix.Mmap(d.fd, int64(mapReq.Offset), int(create.Size),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		buf.destroyHandle()
		return nil, fmt.Errorf("failed to mmap dumb buffer: %w", err)
	}
	buf.data = data

	flink := drmGemFlink{Handle: create.Handle}
	if err := ioctl(d.fd, ioctlGemFlink, unsafe.Pointer(&flink)); err != nil {
		_ = unix.Munmap(data)
		buf.data = nil
		buf.destroyHandle()
		return nil, fmt.Errorf("failed to flink dumb buffer: %w", err)
	}
	buf.name = flink.Name

	logger.Debug("Created dumb buffer",
		"handle", buf.handle, "name", buf.name,
		"size", fmt.Sprintf("%dx%d", width, height), "stride", buf.stride)
	return buf, nil
}

// Name returns the global GEM flink name
func (b *DumbBuffer) Name() uint32 {
	return b.name
}

// Width returns the buffer width in pixels
func (b *DumbBuffer) Width() int32 {
	return b.width
}

// Height returns the buffer height in pixels
func (b *DumbBuffer) Height() int32 {
	return b.height
}

// Stride returns the row pitch in bytes
func (b *DumbBuffer) Stride() int32 {
	return b.stride
}

// Data returns the mapped pixel memory
func (b *DumbBuffer) Data() []byte {
	return b.data
}

func (b *DumbBuffer) destroyHandle() {
	destroy := drmModeDestroyDumb{Handle: b.handle}
	if err := ioctl(b.dev.fd, ioctlModeDestroyDumb, unsafe.Pointer(&destroy)); err != nil {
		logger.Warn("Failed to destroy dumb buffer handle", "handle", b.handle, "error", err)
	}
	b.handle = 0
}

// Destroy unmaps and releases the buffer
func (b *DumbBuffer) Destroy() error {
	if b.data != nil {
		if err := unix.Munmap(b.data); err != nil {
			return fmt.Errorf("failed to munmap dumb buffer: %w", err)
		}
		b.data = nil
	}
	if b.handle != 0 {
		b.destroyHandle()
	}
	return nil
}
