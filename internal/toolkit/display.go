package toolkit

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/bnema/wlturbo/wl"
	"golang.org/x/sys/unix"

	"github.com/bnema/wltk/internal/config"
	"github.com/bnema/wltk/internal/logger"
	"github.com/bnema/wltk/internal/protocols"
	"github.com/bnema/wltk/internal/render"
	"github.com/bnema/wltk/internal/theme"
)

var (
	// ErrNoCompositor means the server did not advertise wl_compositor.
	ErrNoCompositor = errors.New("no wl_compositor global")
	// ErrNoShm means the server did not advertise wl_shm.
	ErrNoShm = errors.New("no wl_shm global")
	// ErrNoGPU means the wl_drm path is not available for GPU backends.
	ErrNoGPU = errors.New("gpu buffers unavailable")
)

// Output is one wl_output global with its announced geometry and modes.
type Output struct {
	name  uint32
	proxy *protocols.Output
}

// GlobalName returns the registry name of the output.
func (o *Output) GlobalName() uint32 { return o.name }

// Proxy returns the underlying protocol output.
func (o *Output) Proxy() *protocols.Output { return o.proxy }

// Geometry returns the announced output geometry.
func (o *Output) Geometry() protocols.OutputGeometry { return o.proxy.Geometry() }

// CurrentMode returns the active video mode, if one was flagged.
func (o *Output) CurrentMode() (protocols.OutputMode, bool) { return o.proxy.CurrentMode() }

// Display owns the connection, the bound globals and every window. All
// toolkit state is confined to the loop goroutine; protocol events
// arrive on a reader goroutine and re-enter through the deferred queue.
type Display struct {
	conn     *wl.Display
	ctx      *wl.Context
	registry *wl.Registry

	cfg      *config.Config
	theme    *theme.Theme
	margin   int32
	gripSize int32
	backend  Backend

	compositor  *protocols.Compositor
	shm         *protocols.Shm
	shell       *protocols.Shell
	drm         *protocols.Drm
	viewporter  *protocols.Viewporter
	shooter     *protocols.Screenshooter
	textFactory *protocols.TextModelFactory
	dataManager *protocols.DataDeviceManager

	outputs []*Output
	inputs  []*Input
	windows []*Window

	surfaceWindows map[uint32]*Window

	cursors [pointerCount]*cursorImage

	drmDev   *render.Device
	gpuReady bool
	running  bool

	tasks   taskQueue
	wake    chan struct{}
	done    chan struct{}
	readErr chan error

	exitOnce sync.Once
}

// Create connects to the Wayland server, binds the globals it finds and
// prepares the decoration theme and cursor cache. The returned display
// is ready for CreateWindow and Run.
func Create() (*Display, error) {
	cfg := config.Get()

	backend, err := ParseBackend(cfg.Render.Backend)
	if err != nil {
		logger.Warn("bad render backend in config, using shm", "error", err)
		backend = BackendShm
	}

	conn, err := wl.Connect("")
	if err != nil {
		return nil, fmt.Errorf("failed to connect to wayland: %w", err)
	}

	d := &Display{
		conn:           conn,
		ctx:            conn.Context(),
		registry:       conn.GetRegistry(),
		cfg:            cfg,
		margin:         int32(cfg.Theme.Margin),
		gripSize:       int32(cfg.Theme.GripSize),
		backend:        backend,
		surfaceWindows: make(map[uint32]*Window),
		wake:           make(chan struct{}, 1),
		done:           make(chan struct{}),
		readErr:        make(chan error, 1),
	}

	d.registerGlobals()

	// First pass announces the globals and runs the bind handlers,
	// the second delivers the events the bound objects trigger (shm
	// formats, seat capabilities, output modes, drm device).
	if err := conn.Roundtrip(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to sync globals: %w", err)
	}
	if d.compositor == nil {
		_ = conn.Close()
		return nil, ErrNoCompositor
	}
	if d.shm == nil {
		_ = conn.Close()
		return nil, ErrNoShm
	}
	if d.shell == nil {
		logger.Warn("no wl_shell global, windows will not get a shell role")
	}

	d.setupDataDevices()
	d.drainTasks()
	if err := conn.Roundtrip(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to sync devices: %w", err)
	}
	d.drainTasks()

	th, err := theme.New(cfg.Theme)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to build theme: %w", err)
	}
	d.theme = th

	if err := d.createCursors(); err != nil {
		logger.Warn("cursor cache unavailable", "error", err)
	}

	return d, nil
}

func (d *Display) registerGlobals() {
	d.registry.AddHandler(protocols.CompositorInterface, func(_ *wl.Registry, name, version uint32) {
		c := protocols.NewCompositor(d.ctx)
		if err := d.registry.Bind(name, protocols.CompositorInterface, min(version, 3), c); err != nil {
			logger.Warn("failed to bind wl_compositor", "error", err)
			return
		}
		d.compositor = c
	})
	d.registry.AddHandler(protocols.ShmInterface, func(_ *wl.Registry, name, version uint32) {
		s := protocols.NewShm(d.ctx)
		if err := d.registry.Bind(name, protocols.ShmInterface, 1, s); err != nil {
			logger.Warn("failed to bind wl_shm", "error", err)
			return
		}
		d.shm = s
	})
	d.registry.AddHandler(protocols.ShellInterface, func(_ *wl.Registry, name, version uint32) {
		s := protocols.NewShell(d.ctx)
		if err := d.registry.Bind(name, protocols.ShellInterface, 1, s); err != nil {
			logger.Warn("failed to bind wl_shell", "error", err)
			return
		}
		d.shell = s
	})
	d.registry.AddHandler(protocols.SeatInterface, func(_ *wl.Registry, name, version uint32) {
		d.addSeat(name, version)
	})
	d.registry.AddHandler(protocols.OutputInterface, func(_ *wl.Registry, name, version uint32) {
		d.addOutput(name, version)
	})
	d.registry.AddHandler(protocols.DrmInterface, func(_ *wl.Registry, name, version uint32) {
		drm := protocols.NewDrm(d.ctx)
		if err := d.registry.Bind(name, protocols.DrmInterface, min(version, 2), drm); err != nil {
			logger.Warn("failed to bind wl_drm", "error", err)
			return
		}
		d.drm = drm
	})
	d.registry.AddHandler(protocols.DataDeviceManagerInterface, func(_ *wl.Registry, name, version uint32) {
		m := protocols.NewDataDeviceManager(d.ctx)
		if err := d.registry.Bind(name, protocols.DataDeviceManagerInterface, 1, m); err != nil {
			logger.Warn("failed to bind wl_data_device_manager", "error", err)
			return
		}
		d.dataManager = m
	})
	d.registry.AddHandler(protocols.ViewporterInterface, func(_ *wl.Registry, name, version uint32) {
		v := protocols.NewViewporter(d.ctx)
		if err := d.registry.Bind(name, protocols.ViewporterInterface, 1, v); err != nil {
			logger.Warn("failed to bind wp_viewporter", "error", err)
			return
		}
		d.viewporter = v
	})
	d.registry.AddHandler(protocols.ScreenshooterInterface, func(_ *wl.Registry, name, version uint32) {
		s := protocols.NewScreenshooter(d.ctx)
		if err := d.registry.Bind(name, protocols.ScreenshooterInterface, 1, s); err != nil {
			logger.Warn("failed to bind weston_screenshooter", "error", err)
			return
		}
		d.shooter = s
	})
	d.registry.AddHandler(protocols.TextModelFactoryInterface, func(_ *wl.Registry, name, version uint32) {
		f := protocols.NewTextModelFactory(d.ctx)
		if err := d.registry.Bind(name, protocols.TextModelFactoryInterface, 1, f); err != nil {
			logger.Warn("failed to bind text_model_factory", "error", err)
			return
		}
		d.textFactory = f
	})
}

func (d *Display) addSeat(name, version uint32) {
	seat := protocols.NewSeat(d.ctx)
	if err := d.registry.Bind(name, protocols.SeatInterface, min(version, 4), seat); err != nil {
		logger.Warn("failed to bind wl_seat", "error", err)
		return
	}

	in := &Input{display: d, seat: seat, currentImage: PointerUnset}
	d.inputs = append(d.inputs, in)

	seat.SetCapabilitiesHandler(func(caps uint32) {
		d.Defer(func() { in.updateCapabilities(caps) })
	})
}

// updateCapabilities creates or keeps the pointer and keyboard devices
// to match the seat's capability mask.
func (in *Input) updateCapabilities(caps uint32) {
	in.caps = caps
	d := in.display

	if caps&protocols.SeatCapabilityPointer != 0 && in.pointer == nil {
		p, err := in.seat.GetPointer()
		if err != nil {
			logger.Warn("failed to get pointer", "error", err)
		} else {
			in.pointer = p
			p.SetEnterHandler(func(serial, surfaceID uint32, sx, sy wl.Fixed) {
				x, y := int32(sx.Float64()), int32(sy.Float64())
				d.Defer(func() { in.pointerEnter(serial, surfaceID, x, y) })
			})
			p.SetLeaveHandler(func(serial, surfaceID uint32) {
				d.Defer(func() { in.pointerLeave(serial, surfaceID) })
			})
			p.SetMotionHandler(func(time uint32, sx, sy wl.Fixed) {
				x, y := int32(sx.Float64()), int32(sy.Float64())
				d.Defer(func() { in.pointerMotion(time, x, y) })
			})
			p.SetButtonHandler(func(serial, time, button, state uint32) {
				d.Defer(func() { in.pointerButton(serial, time, button, state) })
			})
		}
	}

	if caps&protocols.SeatCapabilityKeyboard != 0 && in.keyboard == nil {
		k, err := in.seat.GetKeyboard()
		if err != nil {
			logger.Warn("failed to get keyboard", "error", err)
		} else {
			in.keyboard = k
			k.SetKeymapHandler(func(format uint32, fd uintptr, size uint32) {
				// Compiled-in keymap tables; the announced map is not
				// read.
				_ = unix.Close(int(fd))
			})
			k.SetEnterHandler(func(serial, surfaceID uint32, keys []uint32) {
				d.Defer(func() { in.keyboardEnter(serial, surfaceID, keys) })
			})
			k.SetLeaveHandler(func(serial, surfaceID uint32) {
				d.Defer(func() { in.keyboardLeave(serial) })
			})
			k.SetKeyHandler(func(serial, time, key, state uint32) {
				d.Defer(func() { in.key(serial, time, key, state) })
			})
		}
	}
}

func (d *Display) setupDataDevices() {
	if d.dataManager == nil {
		return
	}
	for _, in := range d.inputs {
		if in.dataDevice != nil {
			continue
		}
		dev, err := d.dataManager.GetDataDevice(in.seat)
		if err != nil {
			logger.Warn("failed to get data device", "error", err)
			continue
		}
		in.dataDevice = dev

		dev.SetEnterHandler(func(serial, surfaceID uint32, x, y wl.Fixed, offer *protocols.DataOffer) {
			ix, iy := int32(x.Float64()), int32(y.Float64())
			d.Defer(func() { in.dataEnter(serial, surfaceID, ix, iy, offer) })
		})
		dev.SetLeaveHandler(func() {
			d.Defer(in.dataLeave)
		})
		dev.SetMotionHandler(func(time uint32, x, y wl.Fixed) {
			ix, iy := int32(x.Float64()), int32(y.Float64())
			d.Defer(func() { in.dataMotion(time, ix, iy) })
		})
		dev.SetDropHandler(func() {
			d.Defer(in.dataDrop)
		})
		dev.SetSelectionHandler(func(offer *protocols.DataOffer) {
			d.Defer(func() { in.selection(offer) })
		})
	}
}

func (d *Display) addOutput(name, version uint32) {
	proxy := protocols.NewOutput(d.ctx)
	if err := d.registry.Bind(name, protocols.OutputInterface, min(version, 2), proxy); err != nil {
		logger.Warn("failed to bind wl_output", "error", err)
		return
	}
	d.outputs = append(d.outputs, &Output{name: name, proxy: proxy})
}

// initGPU opens and authenticates the DRM render node on first use.
// Must happen before Run starts, while roundtrips are still safe.
func (d *Display) initGPU() error {
	if d.gpuReady {
		return nil
	}
	if d.running {
		return fmt.Errorf("gpu init after the event loop started")
	}
	if d.drm == nil {
		return fmt.Errorf("no wl_drm global")
	}

	node := d.cfg.Render.DRMNode
	if node == "" {
		node = d.drm.Device()
	}
	if node == "" {
		return fmt.Errorf("no drm device announced")
	}

	dev, err := render.Open(node)
	if err != nil {
		return fmt.Errorf("failed to open drm node %s: %w", node, err)
	}
	magic, err := dev.Magic()
	if err != nil {
		_ = dev.Close()
		return fmt.Errorf("failed to get drm magic: %w", err)
	}
	if err := d.drm.Authenticate(magic); err != nil {
		_ = dev.Close()
		return err
	}
	if err := d.conn.Roundtrip(); err != nil {
		_ = dev.Close()
		return err
	}
	if !d.drm.Authenticated() {
		_ = dev.Close()
		return fmt.Errorf("drm authentication not acknowledged")
	}

	logger.Info("gpu buffers ready", "node", node)
	d.drmDev = dev
	d.gpuReady = true
	return nil
}

func (d *Display) allocatorFor(backend Backend, transparent bool) (bufferAllocator, error) {
	switch backend {
	case BackendShm:
		return &shmAllocator{shm: d.shm, post: d.Defer, transparent: transparent}, nil
	case BackendGPUWindow, BackendGPUImage:
		if err := d.initGPU(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoGPU, err)
		}
		ring := 2
		if backend == BackendGPUImage {
			ring = 1
		}
		return &drmAllocator{
			dev:         d.drmDev,
			drm:         d.drm,
			post:        d.Defer,
			transparent: transparent,
			ringSize:    ring,
		}, nil
	}
	return nil, fmt.Errorf("unknown backend %d", backend)
}

// CreateWindow creates a decorated toplevel window of the given client
// area size plus decoration margins, using the configured backend.
func (d *Display) CreateWindow(width, height int32) (*Window, error) {
	return d.createWindow(nil, width, height)
}

// CreateTransient creates a window positioned at x,y relative to its
// parent.
func (d *Display) CreateTransient(parent *Window, x, y, width, height int32) (*Window, error) {
	w, err := d.createWindow(parent, width, height)
	if err != nil {
		return nil, err
	}
	w.typ = typeTransient
	w.x, w.y = x, y
	return w, nil
}

func (d *Display) createWindow(parent *Window, width, height int32) (*Window, error) {
	surface, err := d.compositor.CreateSurface()
	if err != nil {
		return nil, fmt.Errorf("failed to create surface: %w", err)
	}

	var shellSurf *protocols.ShellSurface
	if d.shell != nil {
		shellSurf, err = d.shell.GetShellSurface(surface)
		if err != nil {
			_ = surface.Destroy()
			return nil, fmt.Errorf("failed to create shell surface: %w", err)
		}
	}

	alloc, err := d.allocatorFor(d.backend, true)
	if err != nil {
		logger.Warn("falling back to shm buffers", "error", err)
		alloc = &shmAllocator{shm: d.shm, post: d.Defer, transparent: true}
	}

	wire := &wireSurface{display: d, surface: surface, shell: shellSurf}
	w := d.newWindow(parent, width, height, wire, alloc)

	if shellSurf != nil {
		shellSurf.SetConfigureHandler(func(edges uint32, cw, ch int32) {
			d.Defer(func() { w.handleConfigure(edges, cw, ch) })
		})
		shellSurf.SetPopupDoneHandler(func() {
			d.Defer(func() {
				if w.popupDoneHandler != nil {
					w.popupDoneHandler(w)
				}
			})
		})
	}
	return w, nil
}

func (d *Display) windowBySurface(id uint32) *Window {
	return d.surfaceWindows[id]
}

func (d *Display) removeWindow(w *Window) {
	delete(d.surfaceWindows, w.wire.SurfaceID())
	for i, win := range d.windows {
		if win == w {
			d.windows = append(d.windows[:i], d.windows[i+1:]...)
			break
		}
	}
	for _, in := range d.inputs {
		if in.pointerFocus == w {
			in.pointerFocus = nil
			in.currentImage = PointerUnset
		}
		if in.keyboardFocus == w {
			in.keyboardFocus = nil
		}
		if in.grabWindow == w {
			in.endGrab()
		}
		if in.dragFocus == w {
			in.dragFocus = nil
		}
	}
}

// Run blocks in the event loop until Exit or a read error. A reader
// goroutine pumps protocol messages; their handlers post tasks that run
// here, so every toolkit callback executes on this goroutine.
func (d *Display) Run() error {
	d.running = true
	go d.readLoop()

	for {
		d.drainTasks()
		select {
		case <-d.done:
			return nil
		case <-d.wake:
		case err := <-d.readErr:
			select {
			case <-d.done:
				return nil
			default:
			}
			return fmt.Errorf("connection lost: %w", err)
		}
	}
}

func (d *Display) readLoop() {
	for {
		if err := d.conn.Dispatch(); err != nil {
			select {
			case d.readErr <- err:
			default:
			}
			return
		}
	}
}

// Exit makes Run return. Safe to call from any goroutine and from
// handlers.
func (d *Display) Exit() {
	d.exitOnce.Do(func() {
		close(d.done)
		d.notify()
	})
}

// Close exits the loop and tears down the connection.
func (d *Display) Close() {
	d.Exit()
	if d.drmDev != nil {
		_ = d.drmDev.Close()
	}
	if err := d.conn.Close(); err != nil {
		logger.Warn("failed to close connection", "error", err)
	}
}

// Roundtrip flushes and waits for the server to process everything
// sent so far. Only valid before Run starts.
func (d *Display) Roundtrip() error {
	return d.conn.Roundtrip()
}

// ScreenAllocation returns the area of the first output, used to size
// fullscreen windows.
func (d *Display) ScreenAllocation() Rectangle {
	if len(d.outputs) == 0 {
		return Rectangle{}
	}
	o := d.outputs[0]
	mode, ok := o.proxy.CurrentMode()
	if !ok {
		return Rectangle{}
	}
	geo := o.proxy.Geometry()
	return Rectangle{X: geo.X, Y: geo.Y, Width: mode.Width, Height: mode.Height}
}

// Config returns the configuration snapshot the display was created
// with.
func (d *Display) Config() *config.Config { return d.cfg }

// Theme returns the decoration theme.
func (d *Display) Theme() *theme.Theme { return d.theme }

// Outputs returns the bound outputs.
func (d *Display) Outputs() []*Output { return d.outputs }

// Inputs returns the bound seats.
func (d *Display) Inputs() []*Input { return d.inputs }

// Globals returns a snapshot of the registry globals.
func (d *Display) Globals() map[uint32]wl.Global { return d.registry.GetGlobals() }

// Viewporter returns the wp_viewporter global, nil when the server does
// not offer it.
func (d *Display) Viewporter() *protocols.Viewporter { return d.viewporter }

// Screenshooter returns the weston_screenshooter global, nil when the
// server does not offer it.
func (d *Display) Screenshooter() *protocols.Screenshooter { return d.shooter }

// TextFactory returns the text_model_factory global, nil when the
// server does not offer it.
func (d *Display) TextFactory() *protocols.TextModelFactory { return d.textFactory }

// DataManager returns the wl_data_device_manager global, nil when the
// server does not offer it.
func (d *Display) DataManager() *protocols.DataDeviceManager { return d.dataManager }

// PixelBuffer is a bare shm buffer outside any window, for protocol
// consumers that fill buffers themselves (the screenshot tool).
type PixelBuffer struct {
	handle *shmBuffer
	width  int32
	height int32
}

// CreatePixelBuffer allocates a width x height XRGB shm buffer.
func (d *Display) CreatePixelBuffer(width, height int32) (*PixelBuffer, error) {
	alloc := &shmAllocator{shm: d.shm, post: d.Defer, transparent: false}
	h, err := alloc.Allocate(width, height)
	if err != nil {
		return nil, err
	}
	return &PixelBuffer{handle: h.(*shmBuffer), width: width, height: height}, nil
}

// Buffer returns the wire buffer to hand to protocol requests.
func (p *PixelBuffer) Buffer() *protocols.Buffer { return p.handle.Attachable() }

// Image copies the buffer contents into an RGBA image. The pixels are
// little-endian XRGB rows as compositors write them.
func (p *PixelBuffer) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, int(p.width), int(p.height)))
	data := p.handle.data
	for y := 0; y < int(p.height); y++ {
		srow := data[y*p.handle.pitch:]
		drow := img.Pix[y*img.Stride:]
		for x := 0; x < int(p.width); x++ {
			drow[x*4+0] = srow[x*4+2]
			drow[x*4+1] = srow[x*4+1]
			drow[x*4+2] = srow[x*4+0]
			drow[x*4+3] = 0xff
		}
	}
	return img
}

// Destroy frees the buffer.
func (p *PixelBuffer) Destroy() { p.handle.Discard() }
