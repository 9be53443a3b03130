package cmd

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/gogpu/gg"
	"github.com/spf13/cobra"

	"github.com/bnema/wltk/internal/protocols"
	"github.com/bnema/wltk/internal/toolkit"
)

var flowerCmd = &cobra.Command{
	Use:   "flower",
	Short: "An undecorated transparent flower you can drag around",
	RunE:  runFlower,
}

const flowerSize = 256

func runFlower(cmd *cobra.Command, args []string) error {
	d, err := toolkit.Create()
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer d.Close()

	w, err := d.CreateWindow(flowerSize, flowerSize)
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}
	w.SetTitle("flower")
	w.SetDecoration(false)
	w.SetTransparent(true)

	// One seed per run so the flower keeps its shape across redraws.
	seed := time.Now().UnixNano()
	w.SetRedrawHandler(func(w *toolkit.Window) {
		if err := w.Draw(); err != nil {
			return
		}
		drawFlower(w.Canvas(), flowerSize, flowerSize, seed)
		w.Flush()
	})
	w.SetButtonHandler(func(w *toolkit.Window, in *toolkit.Input, t, button, state uint32) {
		if button == protocols.BtnLeft && state == protocols.ButtonStatePressed {
			w.Move(in)
		}
	})

	w.ScheduleRedraw()
	return d.Run()
}

func setRandomColor(dc *gg.Context, rnd *rand.Rand) {
	channel := func(span, div int) float64 {
		return math.Min(1, 0.5+float64(rnd.Intn(span))/float64(div))
	}
	dc.SetRGBA(channel(50, 49), channel(50, 49), channel(50, 49), channel(100, 99))
}

// drawPetals paints a petal rosette centered on the current origin:
// petals arc out to r1 with valleys pulled in to r2. Petal count,
// colors and the starting angle come from rnd.
func drawPetals(dc *gg.Context, rnd *rand.Rand, r1, r2 float64) {
	petals := 3 + rnd.Intn(5)
	u := float64(10+rnd.Intn(90)) / 100.0
	v := float64(rnd.Intn(90)) / 100.0

	dt := 2 * math.Pi / float64(petals*2)
	t := rnd.Float64() * 2 * math.Pi

	dc.MoveTo(math.Cos(t)*r1, math.Sin(t)*r1)
	for i := 0; i < petals; i++ {
		x1, y1 := math.Cos(t)*r1, math.Sin(t)*r1
		x2, y2 := math.Cos(t+dt)*r2, math.Sin(t+dt)*r2
		x3, y3 := math.Cos(t+2*dt)*r1, math.Sin(t+2*dt)*r1

		dc.CubicTo(x1-y1*u, y1+x1*u, x2+y2*v, y2-x2*v, x2, y2)
		dc.CubicTo(x2-y2*v, y2+x2*v, x3+y3*u, y3-x3*u, x3, y3)

		t += dt * 2
	}
	dc.ClosePath()
	setRandomColor(dc, rnd)
	dc.FillPreserve()
	dc.SetLineWidth(1)
	setRandomColor(dc, rnd)
	dc.Stroke()
}

func drawFlower(dc *gg.Context, width, height int, seed int64) {
	rnd := rand.New(rand.NewSource(seed))
	r1 := 60 + float64(rnd.Intn(35))
	r2 := 20 + float64(rnd.Intn(40))

	dc.Push()
	dc.Translate(float64(width)/2, float64(height)/2)
	drawPetals(dc, rnd, r1, r2)
	dc.Pop()
}
