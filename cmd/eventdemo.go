package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/wltk/internal/logger"
	"github.com/bnema/wltk/internal/toolkit"
	"github.com/bnema/wltk/internal/trace"
)

var (
	eventTitle     string
	eventWidth     int32
	eventHeight    int32
	eventMaxWidth  int32
	eventMaxHeight int32
	eventNoBorder  bool
	eventLogRedraw bool
	eventLogResize bool
	eventLogFocus  bool
	eventLogKey    bool
	eventLogButton bool
	eventLogMotion bool
	eventRecord    string
)

var eventdemoCmd = &cobra.Command{
	Use:   "eventdemo",
	Short: "Report every event dispatched to a window",
	Long: `Open a window with a red rectangle and print the events it receives.
Each event class has its own --log-* switch; --record additionally writes
a binary event trace that other tools can replay.`,
	RunE: runEventdemo,
}

func init() {
	f := eventdemoCmd.Flags()
	f.StringVar(&eventTitle, "title", "EventDemo", "Window title")
	f.Int32VarP(&eventWidth, "width", "w", 500, "Window width")
	f.Int32VarP(&eventHeight, "height", "h", 400, "Window height")
	f.Int32Var(&eventMaxWidth, "max-width", 0, "Maximum window width (0 for unlimited)")
	f.Int32Var(&eventMaxHeight, "max-height", 0, "Maximum window height (0 for unlimited)")
	f.BoolVarP(&eventNoBorder, "no-border", "b", false, "Draw no window decoration")
	f.BoolVar(&eventLogRedraw, "log-redraw", false, "Log redraws")
	f.BoolVar(&eventLogResize, "log-resize", false, "Log resizes")
	f.BoolVar(&eventLogFocus, "log-focus", false, "Log keyboard focus changes")
	f.BoolVar(&eventLogKey, "log-key", false, "Log key events")
	f.BoolVar(&eventLogButton, "log-button", false, "Log button events")
	f.BoolVar(&eventLogMotion, "log-motion", false, "Log motion events")
	f.StringVar(&eventRecord, "record", "", "Write a binary event trace to this file")
}

// eventdemo holds the per-window state: the geometry of the red
// rectangle and the optional trace recorder.
type eventdemo struct {
	rect toolkit.Rectangle
	rec  *trace.Recorder
}

func (e *eventdemo) record(kind trace.Kind, a, b int64, label string) {
	if e.rec == nil {
		return
	}
	e.rec.Record(kind, a, b, label)
}

func runEventdemo(cmd *cobra.Command, args []string) error {
	d, err := toolkit.Create()
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer d.Close()

	// The rectangle is sized once from the initial dimensions and then
	// stays put, so resizing the window moves content around it.
	e := &eventdemo{
		rect: toolkit.Rectangle{
			X:      eventWidth / 4,
			Y:      eventHeight / 4,
			Width:  eventWidth / 2,
			Height: eventHeight / 2,
		},
	}
	if eventRecord != "" {
		rec, err := trace.Create(eventRecord)
		if err != nil {
			return fmt.Errorf("failed to open trace file: %w", err)
		}
		defer func() {
			if err := rec.Close(); err != nil {
				logger.Error("failed to close trace file", "error", err)
			}
		}()
		e.rec = rec
	}

	w, err := d.CreateWindow(eventWidth, eventHeight)
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}
	w.SetTitle(eventTitle)
	if eventNoBorder {
		w.SetDecoration(false)
	}

	w.SetRedrawHandler(func(w *toolkit.Window) {
		if eventLogRedraw {
			logger.Info("redraw")
		}
		e.record(trace.KindRedraw, 0, 0, "")
		if err := w.Draw(); err != nil {
			return
		}
		dc := w.Canvas()
		child := w.ChildAllocation()
		dc.DrawRectangle(float64(child.X), float64(child.Y),
			float64(child.Width), float64(child.Height))
		dc.SetRGBA(0, 0, 0, 0.8)
		dc.Fill()
		dc.DrawRectangle(float64(e.rect.X), float64(e.rect.Y),
			float64(e.rect.Width), float64(e.rect.Height))
		dc.SetRGBA(1, 0, 0, 1)
		dc.Fill()
		w.Flush()
	})

	w.SetResizeHandler(func(w *toolkit.Window, width, height int32) {
		if eventLogResize {
			logger.Info("resize", "width", width, "height", height)
		}
		e.record(trace.KindConfigure, int64(width), int64(height), "")
		if eventMaxWidth > 0 && width > eventMaxWidth {
			width = eventMaxWidth
		}
		if eventMaxHeight > 0 && height > eventMaxHeight {
			height = eventMaxHeight
		}
		w.SetChildSize(width, height)
		w.ScheduleRedraw()
	})

	w.SetKeyboardFocusHandler(func(w *toolkit.Window, in *toolkit.Input) {
		if eventLogFocus {
			if in != nil {
				x, y := in.Position()
				logger.Info("focus", "x", x, "y", y)
			} else {
				logger.Info("focus lost")
			}
		}
		w.ScheduleRedraw()
	})

	w.SetKeyHandler(func(w *toolkit.Window, in *toolkit.Input, t, key, sym, state uint32) {
		if eventLogKey {
			logger.Info("key", "key", key, "sym", sym, "state", state,
				"modifiers", in.Modifiers())
		}
		e.record(trace.KindKey, int64(sym), int64(state), "")
	})

	w.SetButtonHandler(func(w *toolkit.Window, in *toolkit.Input, t, button, state uint32) {
		x, y := in.Position()
		if eventLogButton {
			logger.Info("button", "time", t, "button", button, "state", state,
				"x", x, "y", y)
		}
		e.record(trace.KindPointerButton, int64(button), int64(state), "")
	})

	w.SetMotionHandler(func(w *toolkit.Window, in *toolkit.Input, t uint32, x, y int32) int {
		if eventLogMotion {
			logger.Info("motion", "time", t, "x", x, "y", y)
		}
		e.record(trace.KindPointerMotion, int64(x), int64(y), "")
		if x > e.rect.X && x < e.rect.X+e.rect.Width &&
			y > e.rect.Y && y < e.rect.Y+e.rect.Height {
			return toolkit.PointerHand1
		}
		return toolkit.PointerLeftPtr
	})

	w.ScheduleRedraw()
	return d.Run()
}
