// Package config handles configuration management using Viper
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config represents the toolkit configuration
type Config struct {
	// Theme configuration (decoration palette and geometry)
	Theme ThemeConfig `mapstructure:"theme"`

	// Cursor configuration
	Cursor CursorConfig `mapstructure:"cursor"`

	// Rendering configuration
	Render RenderConfig `mapstructure:"render"`

	// Logging configuration
	Logging LoggingConfig `mapstructure:"logging"`
}

// ThemeConfig controls the window decoration look
type ThemeConfig struct {
	ActiveFrame   string  `mapstructure:"active_frame"`   // hex color of the focused frame
	InactiveFrame string  `mapstructure:"inactive_frame"` // hex color of unfocused frames
	ShadowAlpha   float64 `mapstructure:"shadow_alpha"`   // drop shadow opacity, 0..1
	TitleFontSize float64 `mapstructure:"title_font_size"`
	Margin        int     `mapstructure:"margin"`    // decoration border width in px
	GripSize      int     `mapstructure:"grip_size"` // resize grip width in px
}

// CursorConfig controls the pre-rendered pointer images
type CursorConfig struct {
	Size int `mapstructure:"size"` // cursor image edge length in px
}

// RenderConfig selects the default buffer backend for new windows
type RenderConfig struct {
	Backend string `mapstructure:"backend"`  // "shm", "gpu-window" or "gpu-image"
	DRMNode string `mapstructure:"drm_node"` // override for the render node path
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	LogLevel string `mapstructure:"log_level"` // Override LOG_LEVEL env var
}

var (
	// DefaultConfig provides sensible defaults
	DefaultConfig = Config{
		Theme: ThemeConfig{
			ActiveFrame:   "#CCCC66",
			InactiveFrame: "#999999",
			ShadowAlpha:   0.6,
			TitleFontSize: 14,
			Margin:        16,
			GripSize:      8,
		},
		Cursor: CursorConfig{
			Size: 24,
		},
		Render: RenderConfig{
			Backend: "shm",
			DRMNode: "",
		},
		Logging: LoggingConfig{
			LogLevel: "", // Empty means use LOG_LEVEL env var
		},
	}

	// Global config instance
	cfg *Config

	// Override config path if set
	configPathOverride string
)

// SetConfigPath allows overriding the config path
func SetConfigPath(path string) {
	configPathOverride = path
}

// Init initializes the configuration system
func Init() error {
	viper.SetConfigName("wltk")
	viper.SetConfigType("toml")

	// If a specific path is set, use only that
	if configPathOverride != "" {
		viper.SetConfigFile(configPathOverride)
	} else {
		if home := os.Getenv("HOME"); home != "" {
			viper.AddConfigPath(filepath.Join(home, ".config", "wltk"))
		}
		viper.AddConfigPath(".") // Current directory (lowest priority)
	}

	// Set defaults - need to set individual fields for proper merging
	viper.SetDefault("theme.active_frame", DefaultConfig.Theme.ActiveFrame)
	viper.SetDefault("theme.inactive_frame", DefaultConfig.Theme.InactiveFrame)
	viper.SetDefault("theme.shadow_alpha", DefaultConfig.Theme.ShadowAlpha)
	viper.SetDefault("theme.title_font_size", DefaultConfig.Theme.TitleFontSize)
	viper.SetDefault("theme.margin", DefaultConfig.Theme.Margin)
	viper.SetDefault("theme.grip_size", DefaultConfig.Theme.GripSize)

	viper.SetDefault("cursor.size", DefaultConfig.Cursor.Size)

	viper.SetDefault("render.backend", DefaultConfig.Render.Backend)
	viper.SetDefault("render.drm_node", DefaultConfig.Render.DRMNode)

	viper.SetDefault("logging.log_level", DefaultConfig.Logging.LogLevel)

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, use defaults
	}

	// Unmarshal config
	cfg = &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	return nil
}

// Get returns the current configuration
func Get() *Config {
	if cfg == nil {
		// Return defaults if not initialized
		return &DefaultConfig
	}
	return cfg
}

// Set sets the current configuration (for testing)
func Set(c *Config) {
	cfg = c
}

// Save saves the current configuration to file
func Save() error {
	configPath := GetConfigPath()

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := viper.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() string {
	// If override is set, use that
	if configPathOverride != "" {
		return configPathOverride
	}

	// Check if config file is already loaded
	if viper.ConfigFileUsed() != "" {
		return viper.ConfigFileUsed()
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "wltk.toml")
	}

	return filepath.Join(home, ".config", "wltk", "wltk.toml")
}

// UpdateTheme updates the theme section and persists it.
// Fields are written individually so the TOML keys stay in
// snake_case and survive a reload.
func UpdateTheme(themeCfg ThemeConfig) error {
	viper.Set("theme.active_frame", themeCfg.ActiveFrame)
	viper.Set("theme.inactive_frame", themeCfg.InactiveFrame)
	viper.Set("theme.shadow_alpha", themeCfg.ShadowAlpha)
	viper.Set("theme.title_font_size", themeCfg.TitleFontSize)
	viper.Set("theme.margin", themeCfg.Margin)
	viper.Set("theme.grip_size", themeCfg.GripSize)
	Get().Theme = themeCfg
	return Save()
}

// UpdateRender updates the render section and persists it
func UpdateRender(renderCfg RenderConfig) error {
	viper.Set("render.backend", renderCfg.Backend)
	viper.Set("render.drm_node", renderCfg.DRMNode)
	Get().Render = renderCfg
	return Save()
}
