package theme

import (
	"testing"

	"github.com/gogpu/gg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/wltk/internal/config"
)

func testTheme(t *testing.T) *Theme {
	t.Helper()
	th, err := New(config.DefaultConfig.Theme)
	require.NoError(t, err)
	return th
}

func TestFrameTile(t *testing.T) {
	tile := renderFrameTile("#CCCC66")

	// Outside the rounded rect inset
	_, _, _, a := tile.GetRGBA(2, 2)
	assert.Zero(t, a)

	// Solid interior
	r, g, b, a := tile.GetRGBA(TileSize/2, TileSize/2)
	assert.EqualValues(t, 255, a)
	assert.InDelta(t, 0xCC, r, 2)
	assert.InDelta(t, 0xCC, g, 2)
	assert.InDelta(t, 0x66, b, 2)
}

func TestShadowTileFadesOut(t *testing.T) {
	tile := renderShadowTile()

	_, _, _, center := tile.GetRGBA(TileSize/2, TileSize/2)
	_, _, _, nearEdge := tile.GetRGBA(TileSize/2, 20)
	_, _, _, edge := tile.GetRGBA(TileSize/2, 2)

	assert.EqualValues(t, 255, center)
	assert.Less(t, edge, nearEdge, "alpha should fall off toward the tile edge")
	assert.Less(t, nearEdge, center)
}

func TestBlurKeepsInterior(t *testing.T) {
	pm := gg.NewPixmap(128, 128)
	pm.Clear(gg.RGBA{R: 1, G: 0, B: 0, A: 1})
	blur(pm, 8)

	// Interior pixels are copied through untouched
	c := pm.GetPixel(64, 64)
	assert.InDelta(t, 1.0, c.R, 0.01)
	assert.InDelta(t, 1.0, c.A, 0.01)

	// Corners lose weight to taps falling outside the image
	corner := pm.GetPixel(0, 0)
	assert.Less(t, corner.A, 0.6)
}

func TestDrawFrameNineSlice(t *testing.T) {
	th := testTheme(t)

	const width, height = 300, 200
	dc := gg.NewContext(width, height)
	th.DrawFrame(dc, width, height, true)
	pm := gg.ImageBufFromImage(dc.Image())

	tests := []struct {
		name   string
		x, y   int
		opaque bool
	}{
		{"corner outside inset", 2, 2, false},
		{"corner inside frame", 20, 20, true},
		{"top strip above inset", width / 2, 8, false},
		{"top strip titlebar", width / 2, 40, true},
		{"left strip outside inset", 8, height / 2, false},
		{"left strip inside frame", 20, height / 2, true},
		{"client hole stays empty", width / 2, height / 2, false},
		{"right strip inside frame", width - 20, height / 2, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, g, b, a := pm.GetRGBA(tt.x, tt.y)
			if tt.opaque {
				assert.EqualValues(t, 255, a)
				assert.InDelta(t, 0xCC, r, 2)
				assert.InDelta(t, 0xCC, g, 2)
				assert.InDelta(t, 0x66, b, 2)
			} else {
				assert.Zero(t, a)
			}
		})
	}
}

func TestDrawShadowStaysOutOfInterior(t *testing.T) {
	th := testTheme(t)

	const width, height = 300, 200
	dc := gg.NewContext(width, height)
	th.DrawShadow(dc, width, height)
	pm := gg.ImageBufFromImage(dc.Image())

	// Shadow ring carries some alpha near the window border
	_, _, _, border := pm.GetRGBA(20, 20)
	assert.Greater(t, border, uint8(0))

	// The middle is left for the frame and client content
	_, _, _, center := pm.GetRGBA(width/2, height/2)
	assert.Zero(t, center)
}

func TestDrawTitlePaintsPixels(t *testing.T) {
	th := testTheme(t)

	const width, height = 300, 200
	dc := gg.NewContext(width, height)
	th.DrawTitle(dc, "hello", width, true)
	pm := gg.ImageBufFromImage(dc.Image())

	painted := 0
	for y := 20; y < 60; y++ {
		for x := width/2 - 40; x < width/2+40; x++ {
			if _, _, _, a := pm.GetRGBA(x, y); a > 0 {
				painted++
			}
		}
	}
	assert.Greater(t, painted, 0, "title glyphs should land near the top center")
}
