// Package theme renders the window decoration artwork. The frame and
// drop shadow are painted from 128x128 tiles stretched nine-slice
// style, so decoration cost does not grow with window size.
package theme

import (
	"fmt"
	"image"
	"math"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/bnema/wltk/internal/config"
)

const (
	// TileSize is the edge length of the decoration tiles
	TileSize = 128

	tileInset  = 16
	tileRadius = 8

	// bandStart/bandSize select the flat 8px strip of a tile that
	// gets stretched along window edges
	bandStart = 56
	bandSize  = 8

	shadowOffset = 3
)

// Theme holds the pre-rendered decoration tiles and the title font
type Theme struct {
	Margin        int
	GripSize      int
	TitleFontSize float64
	ShadowAlpha   float64

	shadow        *gg.ImageBuf
	activeFrame   *gg.ImageBuf
	inactiveFrame *gg.ImageBuf

	titleFace text.Face
}

// New builds a theme from the configuration palette
func New(cfg config.ThemeConfig) (*Theme, error) {
	fonts, err := text.NewFontSource(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to load builtin font: %w", err)
	}

	t := &Theme{
		Margin:        cfg.Margin,
		GripSize:      cfg.GripSize,
		TitleFontSize: cfg.TitleFontSize,
		ShadowAlpha:   cfg.ShadowAlpha,
		titleFace:     fonts.Face(cfg.TitleFontSize),
	}
	t.shadow = renderShadowTile()
	t.activeFrame = renderFrameTile(cfg.ActiveFrame)
	t.inactiveFrame = renderFrameTile(cfg.InactiveFrame)
	return t, nil
}

// TitleFace returns the face used for window titles
func (t *Theme) TitleFace() text.Face {
	return t.titleFace
}

// DrawShadow paints the blurred drop shadow around a width x height
// window, offset slightly down and right
func (t *Theme) DrawShadow(dc *gg.Context, width, height int) {
	m := t.Margin + 10 - shadowOffset
	drawTiled(dc, t.shadow, shadowOffset, shadowOffset, width, height, m, m, t.ShadowAlpha)
}

// DrawFrame paints the window frame, leaving the child area untouched
func (t *Theme) DrawFrame(dc *gg.Context, width, height int, active bool) {
	tile := t.inactiveFrame
	if active {
		tile = t.activeFrame
	}
	drawTiled(dc, tile, 0, 0, width, height, t.Margin+10, t.Margin+50, 1.0)
}

// DrawTitle paints the centered window title into the titlebar
func (t *Theme) DrawTitle(dc *gg.Context, title string, width int, active bool) {
	dc.SetFont(t.titleFace)
	if active {
		dc.SetRGB(0, 0, 0)
	} else {
		dc.SetRGB(0.8, 0.8, 0.8)
	}
	dc.DrawStringAnchored(title, float64(width)/2, 32, 0.5, 1)
}

func renderFrameTile(hex string) *gg.ImageBuf {
	dc := gg.NewContext(TileSize, TileSize)
	dc.SetHexColor(hex)
	dc.DrawRoundedRectangle(tileInset, tileInset, TileSize-2*tileInset, TileSize-2*tileInset, tileRadius)
	dc.Fill()
	return gg.ImageBufFromImage(dc.Image())
}

func renderShadowTile() *gg.ImageBuf {
	pm := gg.NewPixmap(TileSize, TileSize)
	dc := gg.NewContext(TileSize, TileSize, gg.WithPixmap(pm))
	dc.SetRGB(0, 0, 0)
	dc.DrawRoundedRectangle(tileInset, tileInset, TileSize-2*tileInset, TileSize-2*tileInset, tileRadius)
	dc.Fill()
	blur(pm, TileSize/2)
	return gg.ImageBufFromImage(pm.ToImage())
}

// blur softens the tile borders with a wide separable kernel. Columns
// and rows further than margin from the edge are copied through, the
// missing taps near edges are divided by the full kernel weight so the
// shadow fades out instead of clamping.
func blur(pm *gg.Pixmap, margin int) {
	const size = 71
	const half = size / 2

	var kernel [size]uint32
	var sum uint32
	for i := range kernel {
		f := float64(i - half)
		kernel[i] = uint32(math.Exp(-f*f/size) * 10000)
		sum += kernel[i]
	}

	width := pm.Width()
	height := pm.Height()
	stride := width * 4
	src := pm.Data()
	tmp := make([]uint8, len(src))

	for y := 0; y < height; y++ {
		row := src[y*stride : (y+1)*stride]
		out := tmp[y*stride : (y+1)*stride]
		for x := 0; x < width; x++ {
			if margin < x && x < width-margin {
				copy(out[x*4:x*4+4], row[x*4:x*4+4])
				continue
			}
			var acc [4]uint32
			for k := 0; k < size; k++ {
				sx := x - half + k
				if sx < 0 || sx >= width {
					continue
				}
				for c := 0; c < 4; c++ {
					acc[c] += uint32(row[sx*4+c]) * kernel[k]
				}
			}
			for c := 0; c < 4; c++ {
				out[x*4+c] = uint8(acc[c] / sum)
			}
		}
	}

	for y := 0; y < height; y++ {
		if margin <= y && y < height-margin {
			copy(src[y*stride:(y+1)*stride], tmp[y*stride:(y+1)*stride])
			continue
		}
		for x := 0; x < width; x++ {
			var acc [4]uint32
			for k := 0; k < size; k++ {
				sy := y - half + k
				if sy < 0 || sy >= height {
					continue
				}
				for c := 0; c < 4; c++ {
					acc[c] += uint32(tmp[sy*stride+x*4+c]) * kernel[k]
				}
			}
			for c := 0; c < 4; c++ {
				src[y*stride+x*4+c] = uint8(acc[c] / sum)
			}
		}
	}
}

// drawTiled paints a nine-slice of tile over an x,y,width,height
// rectangle. The four corners keep their pixels, the edges stretch the
// tile's center band, the middle stays untouched for the client area.
func drawTiled(dc *gg.Context, tile *gg.ImageBuf, x, y, width, height, margin, topMargin int, opacity float64) {
	for i := 0; i < 4; i++ {
		fx := i & 1
		fy := i >> 1

		vmargin := topMargin
		srcY := 0
		if fy == 1 {
			vmargin = margin
			srcY = TileSize - margin
		}
		srcX := 0
		if fx == 1 {
			srcX = TileSize - margin
		}

		src := image.Rect(srcX, srcY, srcX+margin, srcY+vmargin)
		dc.DrawImageEx(tile, gg.DrawImageOptions{
			X:       float64(x + fx*(width-margin)),
			Y:       float64(y + fy*(height-vmargin)),
			SrcRect: &src,
			Opacity: opacity,
		})
	}

	// Top stretch
	src := image.Rect(bandStart, 0, bandStart+bandSize, topMargin)
	dc.DrawImageEx(tile, gg.DrawImageOptions{
		X:         float64(x + margin),
		Y:         float64(y),
		DstWidth:  float64(width - 2*margin),
		DstHeight: float64(topMargin),
		SrcRect:   &src,
		Opacity:   opacity,
	})

	// Bottom stretch
	src = image.Rect(bandStart, TileSize-margin, bandStart+bandSize, TileSize)
	dc.DrawImageEx(tile, gg.DrawImageOptions{
		X:         float64(x + margin),
		Y:         float64(y + height - margin),
		DstWidth:  float64(width - 2*margin),
		DstHeight: float64(margin),
		SrcRect:   &src,
		Opacity:   opacity,
	})

	// Left stretch
	src = image.Rect(0, bandStart, margin, bandStart+bandSize)
	dc.DrawImageEx(tile, gg.DrawImageOptions{
		X:         float64(x),
		Y:         float64(y + topMargin),
		DstWidth:  float64(margin),
		DstHeight: float64(height - margin - topMargin),
		SrcRect:   &src,
		Opacity:   opacity,
	})

	// Right stretch
	src = image.Rect(TileSize-margin, bandStart, TileSize, bandStart+bandSize)
	dc.DrawImageEx(tile, gg.DrawImageOptions{
		X:         float64(x + width - margin),
		Y:         float64(y + topMargin),
		DstWidth:  float64(margin),
		DstHeight: float64(height - margin - topMargin),
		SrcRect:   &src,
		Opacity:   opacity,
	})
}
