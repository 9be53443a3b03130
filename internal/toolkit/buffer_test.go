package toolkit

import (
	"testing"

	"github.com/gogpu/gg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBackend(t *testing.T) {
	cases := []struct {
		name    string
		want    Backend
		wantErr bool
	}{
		{"", BackendShm, false},
		{"shm", BackendShm, false},
		{"gpu-window", BackendGPUWindow, false},
		{"gpu-image", BackendGPUImage, false},
		{"vulkan", BackendShm, true},
	}
	for _, tc := range cases {
		got, err := ParseBackend(tc.name)
		if tc.wantErr {
			assert.Error(t, err, tc.name)
		} else {
			assert.NoError(t, err, tc.name)
		}
		assert.Equal(t, tc.want, got, tc.name)
	}
}

func TestBlitPremultiplies(t *testing.T) {
	pix := gg.NewPixmap(2, 1)
	copy(pix.Data(), []byte{
		255, 128, 0, 128, // half-transparent orange
		10, 20, 30, 255, // opaque
	})

	dst := make([]byte, 8)
	blit(dst, 8, pix, true)

	// Little-endian ARGB rows: B, G, R, A per pixel, color scaled by
	// alpha with round-to-nearest.
	assert.Equal(t, []byte{0, 64, 128, 128}, dst[0:4])
	assert.Equal(t, []byte{30, 20, 10, 255}, dst[4:8])
}

func TestBlitOpaqueForcesAlpha(t *testing.T) {
	pix := gg.NewPixmap(1, 2)
	copy(pix.Data(), []byte{
		255, 0, 0, 0, // red with garbage alpha
		0, 255, 0, 255,
	})

	// Rows land at the destination pitch, not packed.
	dst := make([]byte, 24)
	blit(dst, 12, pix, false)

	assert.Equal(t, []byte{0, 0, 255, 255}, dst[0:4])
	assert.Equal(t, []byte{0, 0, 0, 0}, dst[4:8], "row padding untouched")
	assert.Equal(t, []byte{0, 255, 0, 255}, dst[12:16])
}

func TestMulDiv255(t *testing.T) {
	require.Equal(t, uint8(0), mulDiv255(0, 128))
	require.Equal(t, uint8(255), mulDiv255(255, 255))
	require.Equal(t, uint8(0), mulDiv255(255, 0))
	require.Equal(t, uint8(128), mulDiv255(255, 128))
	require.Equal(t, uint8(64), mulDiv255(128, 128))
}
