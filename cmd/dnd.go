package cmd

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/gogpu/gg"
	"github.com/spf13/cobra"

	"github.com/bnema/wltk/internal/logger"
	"github.com/bnema/wltk/internal/protocols"
	"github.com/bnema/wltk/internal/toolkit"
)

var dndCmd = &cobra.Command{
	Use:   "dnd",
	Short: "Drag flowers between windows",
	Long: `Show a grid of flowers. Dragging one starts a wl_data_source drag
carrying the flower's seed and grab offset; dropping it, on this window
or another instance, replants the flower under the pointer.`,
	RunE: runDnd,
}

const (
	dndItemSize    = 64
	dndItemPadding = 16

	// The payload is "seed dx dy": enough to regrow the flower and
	// place it so the grab point stays under the pointer.
	flowerMime = "application/x-wltk-flower"
)

type dndItem struct {
	seed int64
	x, y int32 // child-area coordinates
	img  *gg.ImageBuf
}

func renderItem(seed int64) *gg.ImageBuf {
	rnd := rand.New(rand.NewSource(seed))
	r1 := 20 + float64(rnd.Intn(10))
	r2 := 5 + float64(rnd.Intn(12))

	dc := gg.NewContext(dndItemSize, dndItemSize)
	dc.Translate(dndItemSize/2, dndItemSize/2)
	drawPetals(dc, rnd, r1, r2)
	return gg.ImageBufFromImage(dc.Image())
}

type dnd struct {
	window *toolkit.Window
	items  []*dndItem

	// Set while one of our flowers rides a drag.
	dragging *dndItem
}

func (d *dnd) itemAt(x, y int32) *dndItem {
	child := d.window.ChildAllocation()
	x -= child.X
	y -= child.Y
	for _, it := range d.items {
		if it.x <= x && x < it.x+dndItemSize && it.y <= y && y < it.y+dndItemSize {
			return it
		}
	}
	return nil
}

func (d *dnd) redraw(w *toolkit.Window) {
	if err := w.Draw(); err != nil {
		return
	}
	dc := w.Canvas()
	child := w.ChildAllocation()

	dc.DrawRectangle(float64(child.X), float64(child.Y),
		float64(child.Width), float64(child.Height))
	dc.SetRGBA(0, 0, 0, 0.8)
	dc.Fill()

	for _, it := range d.items {
		dc.DrawImage(it.img, float64(child.X+it.x), float64(child.Y+it.y))
	}

	w.Flush()
}

func (d *dnd) button(w *toolkit.Window, in *toolkit.Input, t, button, state uint32) {
	if button != protocols.BtnLeft || state != protocols.ButtonStatePressed {
		return
	}
	x, y := in.Position()
	it := d.itemAt(x, y)
	if it == nil {
		return
	}

	manager := w.Display().DataManager()
	if manager == nil {
		logger.Warn("no data device manager, drag unavailable")
		return
	}
	source, err := manager.CreateDataSource()
	if err != nil {
		logger.Warn("failed to create data source", "error", err)
		return
	}
	if err := source.Offer(flowerMime); err != nil {
		logger.Warn("failed to offer mime type", "error", err)
		return
	}

	child := w.ChildAllocation()
	payload := fmt.Sprintf("%d %d %d", it.seed, x-child.X-it.x, y-child.Y-it.y)
	source.SetSendHandler(func(mime string, fd uintptr) {
		f := os.NewFile(fd, "drag-source")
		if mime == flowerMime {
			if _, err := f.WriteString(payload); err != nil {
				logger.Warn("failed to write drag payload", "error", err)
			}
		}
		f.Close()
	})
	source.SetCancelledHandler(func() {
		source.Destroy()
	})

	if err := in.StartDrag(source, w); err != nil {
		logger.Warn("failed to start drag", "error", err)
		source.Destroy()
		return
	}
	d.dragging = it
	logger.Debug("drag started", "seed", it.seed)
}

func (d *dnd) dragEnter(w *toolkit.Window, in *toolkit.Input, x, y int32, mimes []string) string {
	for _, m := range mimes {
		if m == flowerMime {
			return flowerMime
		}
	}
	return ""
}

func (d *dnd) drop(w *toolkit.Window, in *toolkit.Input, x, y int32) {
	f, err := in.ReceiveDrag(flowerMime)
	if err != nil {
		logger.Warn("failed to receive drop", "error", err)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		logger.Warn("failed to read drop payload", "error", err)
		return
	}

	var seed int64
	var dx, dy int32
	if _, err := fmt.Sscanf(string(data), "%d %d %d", &seed, &dx, &dy); err != nil {
		logger.Warn("bad drop payload", "payload", string(data), "error", err)
		return
	}

	// A drop of our own flower re-parents it; a foreign one grows here.
	it := d.dragging
	if it == nil || it.seed != seed {
		it = &dndItem{seed: seed, img: renderItem(seed)}
		d.items = append(d.items, it)
	}
	d.dragging = nil

	child := w.ChildAllocation()
	it.x = x - child.X - dx
	it.y = y - child.Y - dy
	w.ScheduleRedraw()
}

func (d *dnd) motion(w *toolkit.Window, in *toolkit.Input, t uint32, x, y int32) int {
	if d.itemAt(x, y) != nil {
		return toolkit.PointerHand1
	}
	return toolkit.PointerLeftPtr
}

func runDnd(cmd *cobra.Command, args []string) error {
	disp, err := toolkit.Create()
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer disp.Close()

	w, err := disp.CreateWindow(500, 400)
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}
	w.SetTitle("Wayland Drag and Drop Demo")

	const side = 4*(dndItemSize+dndItemPadding) + dndItemPadding
	w.SetChildSize(side, side)

	d := &dnd{window: w}
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	for i := 0; i < 16; i++ {
		if (i^(i>>2))&1 == 0 {
			continue
		}
		seed := rnd.Int63()
		d.items = append(d.items, &dndItem{
			seed: seed,
			x:    int32(i%4)*(dndItemSize+dndItemPadding) + dndItemPadding,
			y:    int32(i/4)*(dndItemSize+dndItemPadding) + dndItemPadding,
			img:  renderItem(seed),
		})
	}

	w.SetRedrawHandler(d.redraw)
	w.SetButtonHandler(d.button)
	w.SetMotionHandler(d.motion)
	w.SetDragEnterHandler(d.dragEnter)
	w.SetDropHandler(d.drop)
	w.SetKeyboardFocusHandler(func(w *toolkit.Window, in *toolkit.Input) {
		w.ScheduleRedraw()
	})
	w.SetResizeHandler(func(w *toolkit.Window, width, height int32) {
		// The grid is fixed size.
		w.SetChildSize(side, side)
		w.ScheduleRedraw()
	})

	w.ScheduleRedraw()
	return disp.Run()
}
