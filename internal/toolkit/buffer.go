package toolkit

import (
	"fmt"

	"github.com/bnema/wlturbo/wl"
	"github.com/gogpu/gg"
	"golang.org/x/sys/unix"

	"github.com/bnema/wltk/internal/logger"
	"github.com/bnema/wltk/internal/protocols"
	"github.com/bnema/wltk/internal/render"
)

// Backend selects how a window's pixels reach the compositor.
type Backend int

// Buffer backends. Shm is the default; the GPU variants go through DRM
// dumb buffers shared by GEM flink name.
const (
	BackendShm Backend = iota
	BackendGPUWindow
	BackendGPUImage
)

// ParseBackend maps the config spelling to a Backend tag.
func ParseBackend(name string) (Backend, error) {
	switch name {
	case "", "shm":
		return BackendShm, nil
	case "gpu-window":
		return BackendGPUWindow, nil
	case "gpu-image":
		return BackendGPUImage, nil
	}
	return BackendShm, fmt.Errorf("unknown render backend %q", name)
}

// bufferHandle is one frame of pixel storage: a staging pixmap the
// drawing context renders into, and the wire buffer behind it. A handle
// is exclusively ours until attached; after that the compositor owns it
// until the release event, which the implementations forward through
// OnRelease on the loop goroutine.
type bufferHandle interface {
	Pixmap() *gg.Pixmap
	// Upload blits the staging pixmap into the shared pixels.
	Upload()
	// Attachable returns the protocol buffer, nil for test fakes.
	Attachable() *protocols.Buffer
	OnRelease(func())
	// Discard frees a handle that was never attached.
	Discard()
	// Retire reclaims a handle the compositor has released.
	Retire()
}

// bufferAllocator produces buffer handles for one window.
type bufferAllocator interface {
	Allocate(width, height int32) (bufferHandle, error)
	Close()
}

// mulDiv255 premultiplies one channel, rounding to nearest.
func mulDiv255(c, a uint8) uint8 {
	return uint8((uint32(c)*uint32(a) + 127) / 255)
}

// blit converts the staging pixmap (straight-alpha RGBA rows) into the
// little-endian ARGB layout the compositor expects, honoring the
// destination row pitch. Opaque windows get their alpha byte forced so
// XRGB renders the same no matter what the drawing code left there.
func blit(dst []byte, pitch int, pix *gg.Pixmap, premultiply bool) {
	src := pix.Data()
	width, height := pix.Width(), pix.Height()

	for y := 0; y < height; y++ {
		srow := src[y*width*4:]
		drow := dst[y*pitch:]
		for x := 0; x < width; x++ {
			r, g, b, a := srow[x*4], srow[x*4+1], srow[x*4+2], srow[x*4+3]
			if premultiply {
				r = mulDiv255(r, a)
				g = mulDiv255(g, a)
				b = mulDiv255(b, a)
			} else {
				a = 0xff
			}
			drow[x*4+0] = b
			drow[x*4+1] = g
			drow[x*4+2] = r
			drow[x*4+3] = a
		}
	}
}

// shmAllocator hands out a fresh anonymous-file pool per frame: one
// pool, one buffer at offset 0, pool destroyed as soon as the buffer
// exists.
type shmAllocator struct {
	shm         *protocols.Shm
	post        func(Task)
	transparent bool
}

func (a *shmAllocator) Allocate(width, height int32) (bufferHandle, error) {
	stride := width * 4
	size := stride * height

	fd, err := wl.CreateAnonymousFile(int64(size))
	if err != nil {
		return nil, fmt.Errorf("failed to create buffer file: %w", err)
	}

	data, err := wl.MapMemory(fd, int(size))
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("failed to map buffer file: %w", err)
	}

	pool, err := a.shm.CreatePool(fd, size)
	if err != nil {
		_ = wl.UnmapMemory(data)
		_ = unix.Close(fd)
		return nil, err
	}

	format := protocols.FormatXRGB8888
	if a.transparent {
		format = protocols.FormatARGB8888
	}
	buf, err := pool.CreateBuffer(0, width, height, stride, format)
	if err != nil {
		_ = pool.Destroy()
		_ = wl.UnmapMemory(data)
		_ = unix.Close(fd)
		return nil, err
	}
	// The buffer keeps the pool's memory alive on the server side.
	if err := pool.Destroy(); err != nil {
		logger.Warn("failed to destroy shm pool", "error", err)
	}

	return &shmBuffer{
		alloc: a,
		fd:    fd,
		data:  data,
		buf:   buf,
		pix:   gg.NewPixmap(int(width), int(height)),
		pitch: int(stride),
	}, nil
}

func (a *shmAllocator) Close() {}

type shmBuffer struct {
	alloc *shmAllocator
	fd    int
	data  []byte
	buf   *protocols.Buffer
	pix   *gg.Pixmap
	pitch int
}

func (b *shmBuffer) Pixmap() *gg.Pixmap { return b.pix }

func (b *shmBuffer) Upload() {
	blit(b.data, b.pitch, b.pix, b.alloc.transparent)
}

func (b *shmBuffer) Attachable() *protocols.Buffer { return b.buf }

func (b *shmBuffer) OnRelease(fn func()) {
	post := b.alloc.post
	b.buf.SetReleaseHandler(func() {
		post(fn)
	})
}

func (b *shmBuffer) Discard() { b.free() }
func (b *shmBuffer) Retire()  { b.free() }

func (b *shmBuffer) free() {
	if b.data == nil {
		return
	}
	if err := b.buf.Destroy(); err != nil {
		logger.Warn("failed to destroy shm buffer", "error", err)
	}
	if err := wl.UnmapMemory(b.data); err != nil {
		logger.Warn("failed to unmap shm buffer", "error", err)
	}
	_ = unix.Close(b.fd)
	b.data = nil
}

// drmAllocator keeps a small ring of dumb buffers and reuses them as
// the compositor releases them. ringSize 2 gives the swapchain used by
// the gpu-window backend, 1 the single reattached gpu-image buffer.
type drmAllocator struct {
	dev         *render.Device
	drm         *protocols.Drm
	post        func(Task)
	transparent bool
	ringSize    int
	ring        []*drmBuffer
}

func (a *drmAllocator) Allocate(width, height int32) (bufferHandle, error) {
	for _, b := range a.ring {
		if b.busy || b.dumb.Width() != width || b.dumb.Height() != height {
			continue
		}
		clear(b.pix.Data())
		b.busy = true
		return b, nil
	}

	if len(a.ring) >= a.ringSize {
		// All slots busy or stale; retire the stale ones now and
		// allocate fresh below.
		kept := a.ring[:0]
		for _, b := range a.ring {
			if b.busy {
				kept = append(kept, b)
			} else {
				b.free()
			}
		}
		a.ring = kept
		if len(a.ring) >= a.ringSize {
			return nil, fmt.Errorf("all %d gpu buffers busy", a.ringSize)
		}
	}

	dumb, err := a.dev.CreateDumb(width, height)
	if err != nil {
		return nil, fmt.Errorf("failed to create dumb buffer: %w", err)
	}

	format := protocols.DrmFormatXRGB8888
	if a.transparent {
		format = protocols.DrmFormatARGB8888
	}
	buf, err := a.drm.CreateBuffer(dumb.Name(), width, height, uint32(dumb.Stride()), format)
	if err != nil {
		_ = dumb.Destroy()
		return nil, err
	}

	b := &drmBuffer{
		alloc: a,
		dumb:  dumb,
		buf:   buf,
		pix:   gg.NewPixmap(int(width), int(height)),
		busy:  true,
	}
	a.ring = append(a.ring, b)
	return b, nil
}

func (a *drmAllocator) Close() {
	for _, b := range a.ring {
		b.free()
	}
	a.ring = nil
}

type drmBuffer struct {
	alloc *drmAllocator
	dumb  *render.DumbBuffer
	buf   *protocols.Buffer
	pix   *gg.Pixmap
	busy  bool
}

func (b *drmBuffer) Pixmap() *gg.Pixmap { return b.pix }

func (b *drmBuffer) Upload() {
	blit(b.dumb.Data(), int(b.dumb.Stride()), b.pix, b.alloc.transparent)
}

func (b *drmBuffer) Attachable() *protocols.Buffer { return b.buf }

func (b *drmBuffer) OnRelease(fn func()) {
	post := b.alloc.post
	b.buf.SetReleaseHandler(func() {
		post(fn)
	})
}

func (b *drmBuffer) Discard() { b.busy = false }
func (b *drmBuffer) Retire()  { b.busy = false }

func (b *drmBuffer) free() {
	if b.dumb == nil {
		return
	}
	if err := b.buf.Destroy(); err != nil {
		logger.Warn("failed to destroy drm wire buffer", "error", err)
	}
	if err := b.dumb.Destroy(); err != nil {
		logger.Warn("failed to destroy dumb buffer", "error", err)
	}
	b.dumb = nil
}
