package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestInit(t *testing.T) {
	t.Run("initializes with defaults when no config exists", func(t *testing.T) {
		viper.Reset()
		Set(nil)

		// Point HOME and the working directory at empty dirs so a real
		// user config cannot leak into the test.
		tmpDir, err := os.MkdirTemp("", "wltk-test-*")
		if err != nil {
			t.Fatal(err)
		}
		defer os.RemoveAll(tmpDir)

		originalHome := os.Getenv("HOME")
		os.Setenv("HOME", tmpDir)
		defer os.Setenv("HOME", originalHome)

		oldWd, _ := os.Getwd()
		os.Chdir(tmpDir)
		defer os.Chdir(oldWd)

		if err := Init(); err != nil {
			t.Fatalf("Init() failed: %v", err)
		}

		config := Get()
		if config == nil {
			t.Fatal("Get() returned nil after Init()")
		}

		if config.Theme.ActiveFrame != "#CCCC66" {
			t.Errorf("Expected default active frame #CCCC66, got %s", config.Theme.ActiveFrame)
		}
		if config.Theme.Margin != 16 {
			t.Errorf("Expected default margin 16, got %d", config.Theme.Margin)
		}
		if config.Cursor.Size != 24 {
			t.Errorf("Expected default cursor size 24, got %d", config.Cursor.Size)
		}
		if config.Render.Backend != "shm" {
			t.Errorf("Expected default backend shm, got %s", config.Render.Backend)
		}
	})

	t.Run("reads an existing config file", func(t *testing.T) {
		viper.Reset()
		Set(nil)

		tmpDir, err := os.MkdirTemp("", "wltk-test-*")
		if err != nil {
			t.Fatal(err)
		}
		defer os.RemoveAll(tmpDir)

		path := filepath.Join(tmpDir, "wltk.toml")
		content := `[theme]
active_frame = "#336699"
margin = 24

[cursor]
size = 48
`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		SetConfigPath(path)
		defer SetConfigPath("")

		if err := Init(); err != nil {
			t.Fatalf("Init() failed: %v", err)
		}

		config := Get()
		if config.Theme.ActiveFrame != "#336699" {
			t.Errorf("Expected active frame #336699, got %s", config.Theme.ActiveFrame)
		}
		if config.Theme.Margin != 24 {
			t.Errorf("Expected margin 24, got %d", config.Theme.Margin)
		}
		if config.Cursor.Size != 48 {
			t.Errorf("Expected cursor size 48, got %d", config.Cursor.Size)
		}

		// Fields the file does not mention keep their defaults.
		if config.Theme.GripSize != 8 {
			t.Errorf("Expected default grip size 8, got %d", config.Theme.GripSize)
		}
		if config.Render.Backend != "shm" {
			t.Errorf("Expected default backend shm, got %s", config.Render.Backend)
		}
	})

	t.Run("rejects malformed TOML", func(t *testing.T) {
		viper.Reset()
		Set(nil)

		tmpDir, err := os.MkdirTemp("", "wltk-test-*")
		if err != nil {
			t.Fatal(err)
		}
		defer os.RemoveAll(tmpDir)

		path := filepath.Join(tmpDir, "wltk.toml")
		invalidTOML := `[theme
margin = 16`
		if err := os.WriteFile(path, []byte(invalidTOML), 0644); err != nil {
			t.Fatal(err)
		}

		SetConfigPath(path)
		defer SetConfigPath("")

		if err := Init(); err == nil {
			t.Error("Init() accepted malformed TOML")
		}
	})
}

func TestConfigPathResolution(t *testing.T) {
	t.Run("explicit override wins", func(t *testing.T) {
		viper.Reset()
		SetConfigPath("/tmp/custom/wltk.toml")
		defer SetConfigPath("")

		if path := GetConfigPath(); path != "/tmp/custom/wltk.toml" {
			t.Errorf("Expected override path, got %s", path)
		}
	})

	t.Run("defaults to the user config directory", func(t *testing.T) {
		viper.Reset()

		originalHome := os.Getenv("HOME")
		os.Setenv("HOME", "/home/testuser")
		defer os.Setenv("HOME", originalHome)

		expected := "/home/testuser/.config/wltk/wltk.toml"
		if path := GetConfigPath(); path != expected {
			t.Errorf("Expected path %s, got %s", expected, path)
		}
	})
}

func TestConfigPrecedence(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "wltk-test-*")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	userConfigDir := filepath.Join(tmpDir, ".config", "wltk")
	if err := os.MkdirAll(userConfigDir, 0755); err != nil {
		t.Fatal(err)
	}
	workDir := filepath.Join(tmpDir, "work")
	if err := os.MkdirAll(workDir, 0755); err != nil {
		t.Fatal(err)
	}

	userConfig := filepath.Join(userConfigDir, "wltk.toml")
	os.WriteFile(userConfig, []byte("[theme]\nmargin = 20\n"), 0644)
	os.WriteFile(filepath.Join(workDir, "wltk.toml"), []byte("[theme]\nmargin = 30\n"), 0644)

	oldWd, _ := os.Getwd()
	os.Chdir(workDir)
	defer os.Chdir(oldWd)

	originalHome := os.Getenv("HOME")
	os.Setenv("HOME", tmpDir)
	defer os.Setenv("HOME", originalHome)

	t.Run("user config takes precedence over the working directory", func(t *testing.T) {
		viper.Reset()
		Set(nil)

		if err := Init(); err != nil {
			t.Fatalf("Init() failed: %v", err)
		}
		if margin := Get().Theme.Margin; margin != 20 {
			t.Errorf("Expected margin 20 from the user config, got %d", margin)
		}
	})

	t.Run("working directory used when no user config exists", func(t *testing.T) {
		os.Remove(userConfig)

		viper.Reset()
		Set(nil)

		if err := Init(); err != nil {
			t.Fatalf("Init() failed: %v", err)
		}
		if margin := Get().Theme.Margin; margin != 30 {
			t.Errorf("Expected margin 30 from the working directory, got %d", margin)
		}
	})
}

func TestUpdateRoundTrip(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "wltk-test-*")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	path := filepath.Join(tmpDir, "wltk.toml")
	if err := os.WriteFile(path, []byte("[theme]\nmargin = 16\n"), 0644); err != nil {
		t.Fatal(err)
	}

	SetConfigPath(path)
	defer SetConfigPath("")

	viper.Reset()
	Set(nil)
	if err := Init(); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}

	theme := Get().Theme
	theme.ActiveFrame = "#112233"
	theme.Margin = 20
	if err := UpdateTheme(theme); err != nil {
		t.Fatalf("UpdateTheme() failed: %v", err)
	}

	render := Get().Render
	render.Backend = "gpu-window"
	if err := UpdateRender(render); err != nil {
		t.Fatalf("UpdateRender() failed: %v", err)
	}

	// Reload from disk the way a fresh process would.
	viper.Reset()
	Set(nil)
	if err := Init(); err != nil {
		t.Fatalf("Init() after save failed: %v", err)
	}

	config := Get()
	if config.Theme.ActiveFrame != "#112233" {
		t.Errorf("Expected saved active frame #112233, got %s", config.Theme.ActiveFrame)
	}
	if config.Theme.Margin != 20 {
		t.Errorf("Expected saved margin 20, got %d", config.Theme.Margin)
	}
	if config.Render.Backend != "gpu-window" {
		t.Errorf("Expected saved backend gpu-window, got %s", config.Render.Backend)
	}

	// Sections the updates never touched keep their defaults.
	if config.Cursor.Size != 24 {
		t.Errorf("Expected default cursor size 24, got %d", config.Cursor.Size)
	}
}
