package cmd

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/gogpu/gg"
	"github.com/spf13/cobra"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/bnema/wltk/internal/keymap"
	"github.com/bnema/wltk/internal/toolkit"
)

var viewFullscreen bool

var viewCmd = &cobra.Command{
	Use:   "view FILE...",
	Short: "Page through image files",
	Long: `Show images fitted to the window, one per page. Page Up and Page
Down flip between files; 'f' toggles fullscreen. PNG, JPEG, WebP and
TIFF are understood.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runView,
}

func init() {
	viewCmd.Flags().BoolVar(&viewFullscreen, "fullscreen", false, "Start fullscreen")
}

type viewer struct {
	window *toolkit.Window
	files  []string
	pages  []image.Image
	page   int

	// One scaled frame is cached; flipping pages or resizing drops it.
	scaled     *gg.ImageBuf
	scaledPage int
	scaledW    int32
	scaledH    int32
}

func loadPage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return img, nil
}

// fit returns the destination size preserving the image aspect inside
// the child area.
func fit(iw, ih int, cw, ch int32) (int32, int32) {
	sx := float64(cw) / float64(iw)
	sy := float64(ch) / float64(ih)
	s := sx
	if sy < s {
		s = sy
	}
	w := int32(float64(iw) * s)
	h := int32(float64(ih) * s)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

func (v *viewer) scaledImage(cw, ch int32) *gg.ImageBuf {
	if v.scaled != nil && v.scaledPage == v.page && v.scaledW == cw && v.scaledH == ch {
		return v.scaled
	}
	src := v.pages[v.page]
	b := src.Bounds()
	dw, dh := fit(b.Dx(), b.Dy(), cw, ch)

	dst := image.NewRGBA(image.Rect(0, 0, int(dw), int(dh)))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)

	v.scaled = gg.ImageBufFromImage(dst)
	v.scaledPage = v.page
	v.scaledW, v.scaledH = cw, ch
	return v.scaled
}

func (v *viewer) redraw(w *toolkit.Window) {
	if err := w.Draw(); err != nil {
		return
	}
	dc := w.Canvas()
	child := w.ChildAllocation()

	dc.DrawRectangle(float64(child.X), float64(child.Y),
		float64(child.Width), float64(child.Height))
	dc.SetRGB(0.1, 0.1, 0.1)
	dc.Fill()

	img := v.scaledImage(child.Width, child.Height)
	x := float64(child.X) + (float64(child.Width)-float64(img.Width()))/2
	y := float64(child.Y) + (float64(child.Height)-float64(img.Height()))/2
	dc.DrawImage(img, x, y)

	w.Flush()
}

func (v *viewer) setPage(page int) {
	if page < 0 || page >= len(v.pages) || page == v.page {
		return
	}
	v.page = page
	v.window.SetTitle(fmt.Sprintf("Wayland View - %s", filepath.Base(v.files[page])))
	v.window.ScheduleRedraw()
}

func (v *viewer) key(w *toolkit.Window, in *toolkit.Input, t, key, sym, state uint32) {
	if state == 0 {
		return
	}
	switch sym {
	case keymap.SymPageUp:
		v.setPage(v.page - 1)
	case keymap.SymPageDown:
		v.setPage(v.page + 1)
	case 'f':
		w.SetFullscreen(!w.Fullscreen())
	case keymap.SymEscape:
		w.Display().Exit()
	}
}

func runView(cmd *cobra.Command, args []string) error {
	pages := make([]image.Image, len(args))
	for i, path := range args {
		img, err := loadPage(path)
		if err != nil {
			return err
		}
		pages[i] = img
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

	v := &viewer{window: w, files: args, pages: pages}
	w.SetTitle(fmt.Sprintf("Wayland View - %s", filepath.Base(args[0])))

	w.SetRedrawHandler(v.redraw)
	w.SetKeyHandler(v.key)
	w.SetResizeHandler(func(w *toolkit.Window, width, height int32) {
		w.SetChildSize(width, height)
		w.ScheduleRedraw()
	})

	if viewFullscreen {
		w.SetFullscreen(true)
	}
	w.ScheduleRedraw()
	return d.Run()
}
