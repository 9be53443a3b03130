package cmd

import (
	"fmt"
	"math"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bnema/wltk/internal/keymap"
	"github.com/bnema/wltk/internal/logger"
	"github.com/bnema/wltk/internal/protocols"
	"github.com/bnema/wltk/internal/toolkit"
)

var resizorCmd = &cobra.Command{
	Use:   "resizor",
	Short: "Animate window resizes with a spring",
	Long: `Open a window whose height chases a target through a damped spring,
one step per frame callback. Up and Down retarget the spring; right
click opens a menu of preset heights.`,
	RunE: runResizor,
}

const (
	resizorWidth     = 300
	resizorMinHeight = 200
	resizorMaxHeight = 400
)

type resizor struct {
	display *toolkit.Display
	window  *toolkit.Window

	// Spring state, integrated one step per frame callback.
	current  float64
	previous float64
	target   float64
}

// step advances the spring one frame and pushes the new height to the
// window. The integration keeps the previous position instead of a
// velocity, so the overshoot falls out of the update itself.
func (r *resizor) step() {
	height := r.current
	force := (r.target-height)/10.0 + (r.previous - height)

	r.current = height + (height - r.previous) + force
	r.previous = height

	if r.current >= resizorMaxHeight {
		r.current = resizorMaxHeight
		r.previous = resizorMaxHeight
	}
	if r.current <= resizorMinHeight {
		r.current = resizorMinHeight
		r.previous = resizorMinHeight
	}

	r.window.SetChildSize(resizorWidth, int32(height+0.5))
	r.window.ScheduleRedraw()
}

func (r *resizor) animating() bool {
	return math.Abs(r.previous-r.target) > 0.1
}

func (r *resizor) redraw(w *toolkit.Window) {
	if err := w.Draw(); err != nil {
		return
	}
	dc := w.Canvas()
	child := w.ChildAllocation()
	dc.DrawRectangle(float64(child.X), float64(child.Y),
		float64(child.Width), float64(child.Height))
	dc.SetRGBA(0, 0, 0, 0.8)
	dc.Fill()
	w.Flush()
}

func (r *resizor) key(w *toolkit.Window, in *toolkit.Input, t, key, sym, state uint32) {
	if state == 0 {
		return
	}
	switch sym {
	case keymap.SymDown:
		r.target = resizorMaxHeight
		r.step()
	case keymap.SymUp:
		r.target = resizorMinHeight
		r.step()
	case keymap.SymEscape:
		r.display.Exit()
	}
}

func (r *resizor) button(w *toolkit.Window, in *toolkit.Input, t, button, state uint32) {
	if button != protocols.BtnRight || state != protocols.ButtonStatePressed {
		return
	}
	x, y := in.Position()
	entries := []string{"200", "300", "400"}
	_, err := r.display.CreateMenu(in, w, x-10, y-10, entries, func(index int) {
		target, err := strconv.Atoi(entries[index])
		if err != nil {
			return
		}
		r.target = float64(target)
		r.step()
	})
	if err != nil {
		logger.Warn("failed to open menu", "error", err)
	}
}

func runResizor(cmd *cobra.Command, args []string) error {
	d, err := toolkit.Create()
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer d.Close()

	w, err := d.CreateWindow(500, 400)
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}
	w.SetTitle("Wayland Resizor")

	r := &resizor{
		display:  d,
		window:   w,
		current:  resizorMaxHeight,
		previous: resizorMaxHeight,
		target:   resizorMaxHeight,
	}

	w.SetRedrawHandler(r.redraw)
	w.SetKeyHandler(r.key)
	w.SetButtonHandler(r.button)
	w.SetKeyboardFocusHandler(func(w *toolkit.Window, in *toolkit.Input) {
		w.ScheduleRedraw()
	})
	w.SetFrameHandler(func(w *toolkit.Window) {
		if r.animating() {
			r.step()
		}
	})

	w.SetChildSize(resizorWidth, resizorMaxHeight)
	w.ScheduleRedraw()
	return d.Run()
}
