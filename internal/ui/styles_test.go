package ui

import (
	"strings"
	"testing"
)

func TestFormatSetupHeader(t *testing.T) {
	got := FormatSetupHeader("wltk Setup")

	if !strings.Contains(got, "wltk Setup") {
		t.Errorf("FormatSetupHeader() missing title")
	}
	if !strings.Contains(got, "─") {
		t.Errorf("FormatSetupHeader() missing separator line")
	}
}

func TestFormatSetupResult(t *testing.T) {
	tests := []struct {
		name    string
		success bool
		step    string
		message string
		icon    string
	}{
		{
			name:    "successful step",
			success: true,
			step:    "wl_shell",
			message: "",
			icon:    IconSuccess,
		},
		{
			name:    "failed step with message",
			success: false,
			step:    "wl_drm",
			message: "not offered",
			icon:    IconError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatSetupResult(tt.success, tt.step, tt.message)

			if !strings.Contains(got, tt.step) {
				t.Errorf("FormatSetupResult() missing step %q", tt.step)
			}
			if !strings.Contains(got, tt.icon) {
				t.Errorf("FormatSetupResult() missing icon %q", tt.icon)
			}
			if tt.message != "" && !strings.Contains(got, tt.message) {
				t.Errorf("FormatSetupResult() missing message %q", tt.message)
			}
		})
	}
}

func TestFormatActionItem(t *testing.T) {
	got := FormatActionItem(2, "Run wltk info")

	if !strings.Contains(got, "2.") {
		t.Errorf("FormatActionItem() missing index")
	}
	if !strings.Contains(got, "Run wltk info") {
		t.Errorf("FormatActionItem() missing action text")
	}
}

func TestCreateSeparator(t *testing.T) {
	tests := []struct {
		name  string
		width int
		char  string
		want  string
	}{
		{
			name:  "default char",
			width: 10,
			char:  "",
			want:  "─",
		},
		{
			name:  "custom char",
			width: 5,
			char:  "━",
			want:  "━",
		},
		{
			name:  "zero width falls back to default",
			width: 0,
			char:  "-",
			want:  "-",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CreateSeparator(tt.width, tt.char)

			if !strings.Contains(got, tt.want) {
				t.Errorf("CreateSeparator() missing %q", tt.want)
			}
		})
	}
}
