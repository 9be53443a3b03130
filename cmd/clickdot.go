package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/wltk/internal/keymap"
	"github.com/bnema/wltk/internal/logger"
	"github.com/bnema/wltk/internal/protocols"
	"github.com/bnema/wltk/internal/toolkit"
)

var clickdotCmd = &cobra.Command{
	Use:   "clickdot",
	Short: "Track clicks with a dot and motion with a crosshair",
	RunE:  runClickdot,
}

type clickdot struct {
	display *toolkit.Display
	window  *toolkit.Window

	dot struct {
		x, y int32
	}
	line struct {
		x, y int32
		set  bool
	}
}

func (c *clickdot) redraw(w *toolkit.Window) {
	if err := w.Draw(); err != nil {
		return
	}
	dc := w.Canvas()
	child := w.ChildAllocation()

	dc.DrawRectangle(float64(child.X), float64(child.Y),
		float64(child.Width), float64(child.Height))
	dc.SetRGBA(0, 0, 0, 0.8)
	dc.Fill()

	if c.line.set {
		dc.SetRGBA(0.4, 0.4, 0.4, 1)
		dc.SetLineWidth(1)
		dc.DrawLine(float64(child.X), float64(c.line.y),
			float64(child.X+child.Width), float64(c.line.y))
		dc.DrawLine(float64(c.line.x), float64(child.Y),
			float64(c.line.x), float64(child.Y+child.Height))
		dc.Stroke()
	}

	dc.DrawCircle(float64(c.dot.x), float64(c.dot.y), 10)
	dc.SetRGBA(1, 0, 0, 1)
	dc.Fill()

	w.Flush()
}

func (c *clickdot) key(w *toolkit.Window, in *toolkit.Input, t, key, sym, state uint32) {
	if state == 0 {
		return
	}
	if sym == keymap.SymEscape {
		c.display.Exit()
	}
}

func (c *clickdot) button(w *toolkit.Window, in *toolkit.Input, t, button, state uint32) {
	if state != protocols.ButtonStatePressed {
		return
	}
	x, y := in.Position()
	switch button {
	case protocols.BtnLeft:
		c.dot.x, c.dot.y = x, y
		w.ScheduleRedraw()
	case protocols.BtnRight:
		entries := []string{"Roy", "Pris", "Leon", "Zhora"}
		_, err := c.display.CreateMenu(in, w, x-10, y-10, entries, func(index int) {
			logger.Info("picked entry", "index", index, "entry", entries[index])
		})
		if err != nil {
			logger.Warn("failed to open menu", "error", err)
		}
	}
}

func (c *clickdot) motion(w *toolkit.Window, in *toolkit.Input, t uint32, x, y int32) int {
	c.line.x, c.line.y = x, y
	c.line.set = true
	w.ScheduleRedraw()
	return toolkit.PointerLeftPtr
}

func runClickdot(cmd *cobra.Command, args []string) error {
	d, err := toolkit.Create()
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer d.Close()

	w, err := d.CreateWindow(500, 400)
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}
	w.SetTitle("Wayland ClickDot")

	c := &clickdot{display: d, window: w}
	child := w.ChildAllocation()
	c.dot.x = child.X + child.Width/2
	c.dot.y = child.Y + child.Height/2

	w.SetRedrawHandler(c.redraw)
	w.SetKeyHandler(c.key)
	w.SetButtonHandler(c.button)
	w.SetMotionHandler(c.motion)
	w.SetKeyboardFocusHandler(func(w *toolkit.Window, in *toolkit.Input) {
		w.ScheduleRedraw()
	})

	w.ScheduleRedraw()
	return d.Run()
}
