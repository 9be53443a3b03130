//go:build linux

package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Request numbers must match the kernel uapi values or every ioctl
// returns EINVAL.
func TestIoctlEncoding(t *testing.T) {
	tests := []struct {
		name string
		got  uintptr
		want uintptr
	}{
		{"get_magic", ioctlGetMagic, 0xc0046402},
		{"gem_flink", ioctlGemFlink, 0xc008640a},
		{"mode_create_dumb", ioctlModeCreateDumb, 0xc02064b2},
		{"mode_map_dumb", ioctlModeMapDumb, 0xc01064b3},
		{"mode_destroy_dumb", ioctlModeDestroyDumb, 0xc00464b4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}
