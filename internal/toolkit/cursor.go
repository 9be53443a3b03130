package toolkit

import (
	"fmt"
	"math"

	"github.com/gogpu/gg"

	"github.com/bnema/wltk/internal/protocols"
)

// cursorImage is a committed wl_surface carrying one pre-rendered
// pointer shape, attached on wl_pointer.set_cursor.
type cursorImage struct {
	surface *protocols.Surface
	handle  bufferHandle
	hotX    int32
	hotY    int32
}

// Hotspots on the 32 unit design grid. createCursors scales them along
// with the artwork when the configured size differs.
var cursorHotspots = [pointerCount][2]int32{
	PointerBottomLeft:  {6, 30},
	PointerBottomRight: {28, 28},
	PointerBottom:      {16, 20},
	PointerDragging:    {20, 17},
	PointerLeftPtr:     {10, 5},
	PointerLeft:        {10, 20},
	PointerRight:       {30, 19},
	PointerTopLeft:     {8, 8},
	PointerTopRight:    {26, 8},
	PointerTop:         {18, 8},
	PointerIbeam:       {15, 15},
	PointerHand1:       {18, 11},
}

var cursorPainters = [pointerCount]func(dc *gg.Context){
	PointerBottomLeft:  paintResizeArrow(-math.Pi / 4),
	PointerBottomRight: paintResizeArrow(math.Pi / 4),
	PointerBottom:      paintResizeArrow(math.Pi / 2),
	PointerDragging:    paintDragging,
	PointerLeftPtr:     paintArrow,
	PointerLeft:        paintResizeArrow(0),
	PointerRight:       paintResizeArrow(0),
	PointerTopLeft:     paintResizeArrow(math.Pi / 4),
	PointerTopRight:    paintResizeArrow(-math.Pi / 4),
	PointerTop:         paintResizeArrow(math.Pi / 2),
	PointerIbeam:       paintIbeam,
	PointerHand1:       paintHand,
}

// createCursors renders every pointer shape into its own shm buffer and
// commits it to a dedicated surface, so set_cursor later is a single
// request with no drawing on the hot path.
func (d *Display) createCursors() error {
	size := int32(d.cfg.Cursor.Size)
	if size <= 0 {
		size = 24
	}

	alloc := &shmAllocator{shm: d.shm, post: d.Defer, transparent: true}
	for shape := range d.cursors {
		h, err := alloc.Allocate(size, size)
		if err != nil {
			return fmt.Errorf("failed to allocate cursor buffer: %w", err)
		}

		dc := gg.NewContext(int(size), int(size), gg.WithPixmap(h.Pixmap()))
		s := float64(size) / 32.0
		dc.Scale(s, s)
		cursorPainters[shape](dc)
		h.Upload()

		surface, err := d.compositor.CreateSurface()
		if err != nil {
			h.Discard()
			return fmt.Errorf("failed to create cursor surface: %w", err)
		}
		if err := surface.Attach(h.Attachable(), 0, 0); err != nil {
			h.Discard()
			return err
		}
		if err := surface.Damage(0, 0, size, size); err != nil {
			return err
		}
		if err := surface.Commit(); err != nil {
			return err
		}

		d.cursors[shape] = &cursorImage{
			surface: surface,
			handle:  h,
			hotX:    cursorHotspots[shape][0] * size / 32,
			hotY:    cursorHotspots[shape][1] * size / 32,
		}
	}
	return nil
}

func (d *Display) cursorImage(shape int) *cursorImage {
	if shape < 0 || shape >= pointerCount {
		return nil
	}
	return d.cursors[shape]
}

// paintOutlined fills the current path white with a black outline, the
// classic two-tone cursor look that stays visible on any background.
func paintOutlined(dc *gg.Context) {
	dc.SetRGB(1, 1, 1)
	dc.FillPreserve()
	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(1.5)
	dc.Stroke()
}

func paintArrow(dc *gg.Context) {
	dc.MoveTo(10, 5)
	dc.LineTo(10, 22)
	dc.LineTo(14, 18)
	dc.LineTo(17, 25)
	dc.LineTo(20, 24)
	dc.LineTo(17, 17)
	dc.LineTo(22, 17)
	dc.ClosePath()
	paintOutlined(dc)
}

// paintResizeArrow returns a painter for a double-headed arrow rotated
// by angle, shared by all eight resize grips.
func paintResizeArrow(angle float64) func(dc *gg.Context) {
	return func(dc *gg.Context) {
		const l, h, s = 11, 5, 2

		dc.Push()
		dc.Translate(16, 16)
		dc.Rotate(angle)
		dc.MoveTo(-l, 0)
		dc.LineTo(-l+h, -h)
		dc.LineTo(-l+h, -s)
		dc.LineTo(l-h, -s)
		dc.LineTo(l-h, -h)
		dc.LineTo(l, 0)
		dc.LineTo(l-h, h)
		dc.LineTo(l-h, s)
		dc.LineTo(-l+h, s)
		dc.LineTo(-l+h, h)
		dc.ClosePath()
		paintOutlined(dc)
		dc.Pop()
	}
}

func paintDragging(dc *gg.Context) {
	dc.DrawRoundedRectangle(12, 13, 13, 11, 4)
	dc.DrawCircle(15, 12, 2.4)
	dc.DrawCircle(19, 11, 2.4)
	dc.DrawCircle(23, 12, 2.4)
	dc.DrawCircle(11.5, 16, 2.4)
	paintOutlined(dc)
}

func paintIbeam(dc *gg.Context) {
	dc.DrawRectangle(11, 5, 8, 2)
	dc.DrawRectangle(14, 7, 2, 18)
	dc.DrawRectangle(11, 25, 8, 2)
	paintOutlined(dc)
}

func paintHand(dc *gg.Context) {
	dc.DrawRoundedRectangle(16, 5, 4.5, 14, 2.2)
	dc.DrawRoundedRectangle(11, 13, 14, 13, 5)
	dc.DrawRoundedRectangle(8, 16, 6, 5, 2.5)
	paintOutlined(dc)
}
