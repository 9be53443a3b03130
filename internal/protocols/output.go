package protocols

import (
	"github.com/bnema/wlturbo/wl"
)

// OutputInterface is the wl_output interface name
const OutputInterface = "wl_output"

// Output mode flags
const (
	OutputModeCurrent   uint32 = 1
	OutputModePreferred uint32 = 2
)

// Output transforms
const (
	OutputTransformNormal     int32 = 0
	OutputTransform90         int32 = 1
	OutputTransform180        int32 = 2
	OutputTransform270        int32 = 3
	OutputTransformFlipped    int32 = 4
	OutputTransformFlipped90  int32 = 5
	OutputTransformFlipped180 int32 = 6
	OutputTransformFlipped270 int32 = 7
)

// OutputMode describes one advertised video mode
type OutputMode struct {
	Flags   uint32
	Width   int32
	Height  int32
	Refresh int32
}

// OutputGeometry describes the physical placement of an output
type OutputGeometry struct {
	X              int32
	Y              int32
	PhysicalWidth  int32
	PhysicalHeight int32
	Subpixel       int32
	Make           string
	Model          string
	Transform      int32
}

// Output represents a wl_output global
type Output struct {
	wl.BaseProxy

	geometry OutputGeometry
	modes    []OutputMode
	scale    int32

	doneHandler func(*Output)
}

// NewOutput creates an output proxy for Registry.Bind
func NewOutput(ctx *wl.Context) *Output {
	output := &Output{scale: 1}
	output.SetContext(ctx)
	return output
}

// SetDoneHandler sets the handler fired when all output properties
// have been sent
func (o *Output) SetDoneHandler(handler func(*Output)) {
	o.doneHandler = handler
}

// Geometry returns the last announced geometry
func (o *Output) Geometry() OutputGeometry {
	return o.geometry
}

// Modes returns the advertised modes
func (o *Output) Modes() []OutputMode {
	return o.modes
}

// CurrentMode returns the active mode, if one was flagged
func (o *Output) CurrentMode() (OutputMode, bool) {
	for _, m := range o.modes {
		if m.Flags&OutputModeCurrent != 0 {
			return m, true
		}
	}
	return OutputMode{}, false
}

// Scale returns the output scale factor
func (o *Output) Scale() int32 {
	return o.scale
}

// Dispatch handles incoming output events
func (o *Output) Dispatch(event *wl.Event) {
	switch event.Opcode {
	case 0: // geometry
		o.geometry.X = event.Int32()
		o.geometry.Y = event.Int32()
		o.geometry.PhysicalWidth = event.Int32()
		o.geometry.PhysicalHeight = event.Int32()
		o.geometry.Subpixel = event.Int32()
		o.geometry.Make = event.String()
		o.geometry.Model = event.String()
		o.geometry.Transform = event.Int32()
	case 1: // mode
		mode := OutputMode{
			Flags:   event.Uint32(),
			Width:   event.Int32(),
			Height:  event.Int32(),
			Refresh: event.Int32(),
		}
		// Compositors resend the mode list on changes, keep the
		// entries unique by geometry.
		for i, m := range o.modes {
			if m.Width == mode.Width && m.Height == mode.Height && m.Refresh == mode.Refresh {
				o.modes[i] = mode
				return
			}
		}
		o.modes = append(o.modes, mode)
	case 2: // done
		if o.doneHandler != nil {
			o.doneHandler(o)
		}
	case 3: // scale
		o.scale = event.Int32()
	}
}
