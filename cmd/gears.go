package cmd

import (
	"fmt"
	"math"
	"time"

	"github.com/gogpu/gg"
	"github.com/spf13/cobra"

	"github.com/bnema/wltk/internal/toolkit"
)

var (
	gearsBackend    string
	gearsFullscreen bool
)

var gearsCmd = &cobra.Command{
	Use:   "gears",
	Short: "The classic three gears, spinning at frame-callback pace",
	Long: `Spin the well-known trio of gears, projected face-on and painted
with gg. The --backend flag selects how frames reach the compositor,
which makes this the test client for the GPU buffer paths.`,
	RunE: runGears,
}

func init() {
	f := gearsCmd.Flags()
	f.StringVar(&gearsBackend, "backend", "shm", "Buffer backend: shm, gpu-window or gpu-image")
	f.BoolVar(&gearsFullscreen, "fullscreen", false, "Start fullscreen")
}

// gear describes one wheel: tooth counts and radii in world units, plus
// its fixed position and color.
type gear struct {
	teeth   int
	inner   float64 // hub hole radius
	outer   float64 // pitch radius, teeth reach depth/2 beyond
	depth   float64
	x, y    float64
	r, g, b float64
	phase   float64 // initial rotation, degrees
	ratio   float64 // rotation relative to the driving angle
}

var gearsScene = []gear{
	{teeth: 20, inner: 1.0, outer: 4.0, depth: 0.7, x: -3.0, y: -2.0, r: 0.8, g: 0.1, b: 0.0, phase: 0, ratio: 1},
	{teeth: 10, inner: 0.5, outer: 2.0, depth: 0.7, x: 3.1, y: -2.0, r: 0.0, g: 0.8, b: 0.2, phase: -9, ratio: -2},
	{teeth: 10, inner: 1.3, outer: 2.0, depth: 0.7, x: -3.1, y: 4.2, r: 0.2, g: 0.2, b: 1.0, phase: -25, ratio: -2},
}

// worldExtent is the half-width of the square the scene is fitted into.
const worldExtent = 7.4

func drawGear(dc *gg.Context, g gear, angle float64) {
	r1 := g.outer - g.depth/2
	r2 := g.outer + g.depth/2
	rot := (g.phase + g.ratio*angle) * math.Pi / 180

	dc.Push()
	dc.Translate(g.x, g.y)
	dc.Rotate(rot)

	da := 2 * math.Pi / float64(g.teeth) / 4
	for i := 0; i < g.teeth; i++ {
		a := float64(i) * 2 * math.Pi / float64(g.teeth)
		if i == 0 {
			dc.MoveTo(r1*math.Cos(a), r1*math.Sin(a))
		} else {
			dc.LineTo(r1*math.Cos(a), r1*math.Sin(a))
		}
		dc.LineTo(r2*math.Cos(a+da), r2*math.Sin(a+da))
		dc.LineTo(r2*math.Cos(a+2*da), r2*math.Sin(a+2*da))
		dc.LineTo(r1*math.Cos(a+3*da), r1*math.Sin(a+3*da))
	}
	dc.ClosePath()
	dc.SetRGB(g.r, g.g, g.b)
	dc.Fill()

	// Hub hole, painted in the background color so the axle shows
	// through without relying on a fill rule.
	dc.DrawCircle(0, 0, g.inner)
	dc.SetRGB(0, 0, 0)
	dc.Fill()

	dc.Pop()
}

type gears struct {
	window *toolkit.Window
	start  time.Time
}

// angle is the driving rotation in degrees, advancing 70 per second
// like the original scene.
func (gs *gears) angle() float64 {
	return time.Since(gs.start).Seconds() * 70
}

func (gs *gears) redraw(w *toolkit.Window) {
	if err := w.Draw(); err != nil {
		return
	}
	dc := w.Canvas()
	child := w.ChildAllocation()

	dc.DrawRectangle(float64(child.X), float64(child.Y),
		float64(child.Width), float64(child.Height))
	dc.SetRGB(0, 0, 0)
	dc.Fill()

	// Fit the world box into the child area, Y up.
	scale := math.Min(float64(child.Width), float64(child.Height)) / (2 * worldExtent)
	dc.Push()
	dc.Translate(float64(child.X)+float64(child.Width)/2,
		float64(child.Y)+float64(child.Height)/2)
	dc.Scale(scale, -scale)

	angle := gs.angle()
	for _, g := range gearsScene {
		drawGear(dc, g, angle)
	}
	dc.Pop()

	w.Flush()
}

func runGears(cmd *cobra.Command, args []string) error {
	backend, err := toolkit.ParseBackend(gearsBackend)
	if err != nil {
		return err
	}

	d, err := toolkit.Create()
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer d.Close()

	w, err := d.CreateWindow(500, 400)
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}
	w.SetTitle("Wayland Gears")
	if err := w.SetBufferBackend(backend); err != nil {
		return fmt.Errorf("backend %s unavailable: %w", gearsBackend, err)
	}

	gs := &gears{window: w, start: time.Now()}

	w.SetRedrawHandler(gs.redraw)
	w.SetResizeHandler(func(w *toolkit.Window, width, height int32) {
		w.SetChildSize(width, height)
		w.ScheduleRedraw()
	})
	w.SetKeyHandler(func(w *toolkit.Window, in *toolkit.Input, t, key, sym, state uint32) {
		if state != 0 && sym == 'f' {
			w.SetFullscreen(!w.Fullscreen())
		}
	})
	// Each presented frame schedules the next; the compositor's frame
	// callbacks pace the animation.
	w.SetFrameHandler(func(w *toolkit.Window) {
		w.ScheduleRedraw()
	})

	if gearsFullscreen {
		w.SetFullscreen(true)
	}
	w.ScheduleRedraw()
	return d.Run()
}
