package cmd

import (
	"fmt"

	"github.com/bnema/wlturbo/wl"
	"github.com/spf13/cobra"

	"github.com/bnema/wltk/internal/logger"
	"github.com/bnema/wltk/internal/protocols"
	"github.com/bnema/wltk/internal/toolkit"
)

var (
	scalerWidth  int32
	scalerHeight int32
)

var scalerCmd = &cobra.Command{
	Use:   "scaler",
	Short: "Crop and scale a checker pattern through wp_viewport",
	Long: `Draw a checker pattern into a fixed-size buffer and present it
through a wp_viewport. Clicking cycles the viewport state: identity,
magnified, minified, and a center crop stretched back to full size.`,
	RunE: runScaler,
}

func init() {
	f := scalerCmd.Flags()
	f.Int32VarP(&scalerWidth, "width", "w", 256, "Buffer width")
	f.Int32VarP(&scalerHeight, "height", "h", 192, "Buffer height")
}

// Viewport states cycled by clicking.
const (
	scalerModeIdentity = iota
	scalerModeMagnify
	scalerModeMinify
	scalerModeCrop
	scalerModeCount
)

var scalerModeNames = []string{"identity", "magnify x2", "minify /2", "center crop"}

type scaler struct {
	window   *toolkit.Window
	viewport *protocols.Viewport
	mode     int
}

// apply programs the viewport for the current mode. The state is double
// buffered and latches on the next commit, so callers schedule a redraw
// afterwards.
func (s *scaler) apply() error {
	unset := wl.NewFixed(-1)
	w, h := scalerWidth, scalerHeight

	switch s.mode {
	case scalerModeIdentity:
		if err := s.viewport.SetSource(unset, unset, unset, unset); err != nil {
			return err
		}
		return s.viewport.SetDestination(-1, -1)
	case scalerModeMagnify:
		if err := s.viewport.SetSource(unset, unset, unset, unset); err != nil {
			return err
		}
		return s.viewport.SetDestination(w*2, h*2)
	case scalerModeMinify:
		if err := s.viewport.SetSource(unset, unset, unset, unset); err != nil {
			return err
		}
		return s.viewport.SetDestination(w/2, h/2)
	case scalerModeCrop:
		err := s.viewport.SetSource(
			wl.NewFixed(float64(w/4)), wl.NewFixed(float64(h/4)),
			wl.NewFixed(float64(w/2)), wl.NewFixed(float64(h/2)))
		if err != nil {
			return err
		}
		return s.viewport.SetDestination(w, h)
	}
	return nil
}

func (s *scaler) redraw(w *toolkit.Window) {
	if err := w.Draw(); err != nil {
		return
	}
	dc := w.Canvas()

	const cell = 16
	for y := int32(0); y < scalerHeight; y += cell {
		for x := int32(0); x < scalerWidth; x += cell {
			if (x/cell+y/cell)%2 == 0 {
				dc.SetRGB(0.9, 0.9, 0.9)
			} else {
				dc.SetRGB(0.2, 0.3, 0.6)
			}
			dc.DrawRectangle(float64(x), float64(y), cell, cell)
			dc.Fill()
		}
	}
	// A red frame on the buffer edge makes the crop obvious.
	dc.SetRGB(1, 0, 0)
	dc.SetLineWidth(2)
	dc.DrawRectangle(1, 1, float64(scalerWidth)-2, float64(scalerHeight)-2)
	dc.Stroke()

	w.Flush()
}

func (s *scaler) button(w *toolkit.Window, in *toolkit.Input, t, button, state uint32) {
	if button != protocols.BtnLeft || state != protocols.ButtonStatePressed {
		return
	}
	s.mode = (s.mode + 1) % scalerModeCount
	if err := s.apply(); err != nil {
		logger.Warn("failed to set viewport", "error", err)
		return
	}
	logger.Info("viewport", "mode", scalerModeNames[s.mode])
	w.ScheduleRedraw()
}

func runScaler(cmd *cobra.Command, args []string) error {
	d, err := toolkit.Create()
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer d.Close()

	vp := d.Viewporter()
	if vp == nil {
		return fmt.Errorf("compositor does not advertise wp_viewporter")
	}

	w, err := d.CreateWindow(scalerWidth, scalerHeight)
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}
	w.SetTitle("Scaler Test Box")
	w.SetDecoration(false)

	viewport, err := vp.GetViewport(w.Surface())
	if err != nil {
		return fmt.Errorf("failed to create viewport: %w", err)
	}
	defer viewport.Destroy()

	s := &scaler{window: w, viewport: viewport}

	w.SetRedrawHandler(s.redraw)
	w.SetButtonHandler(s.button)
	w.SetResizeHandler(func(w *toolkit.Window, width, height int32) {
		// The buffer is fixed size; refuse compositor resizes.
		w.SetChildSize(scalerWidth, scalerHeight)
		w.ScheduleRedraw()
	})

	w.ScheduleRedraw()
	return d.Run()
}
