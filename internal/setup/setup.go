// Package setup drives the interactive configuration of the toolkit.
package setup

import (
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/viper"

	"github.com/bnema/wltk/internal/config"
	"github.com/bnema/wltk/internal/ui"
)

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Run walks through the toolkit options and writes them to the config
// file. When a config file already exists the user is asked before it
// is touched.
func Run() error {
	cfg := config.Get()

	if _, err := os.Stat(config.GetConfigPath()); err == nil {
		var reconfigure bool
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Reconfigure wltk?").
					Description(fmt.Sprintf("A config file already exists at %s", config.GetConfigPath())).
					Value(&reconfigure),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("setup cancelled: %w", err)
		}
		if !reconfigure {
			return nil
		}
	}

	theme := cfg.Theme
	render := cfg.Render
	cursorSize := strconv.Itoa(cfg.Cursor.Size)
	logLevel := cfg.Logging.LogLevel
	if logLevel == "" {
		logLevel = "info"
	}
	write := true

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Active frame color").
				Description("Hex color of the focused window frame").
				Validate(validateHexColor).
				Value(&theme.ActiveFrame),
			huh.NewInput().
				Title("Inactive frame color").
				Description("Hex color of unfocused window frames").
				Validate(validateHexColor).
				Value(&theme.InactiveFrame),
			huh.NewSelect[string]().
				Title("Cursor size").
				Description("Edge length of the pre-rendered cursor images").
				Options(
					huh.NewOption("16 px", "16"),
					huh.NewOption("24 px", "24"),
					huh.NewOption("32 px", "32"),
					huh.NewOption("48 px", "48"),
				).
				Value(&cursorSize),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Rendering backend").
				Description("How windows allocate their pixel buffers").
				Options(
					huh.NewOption("shm - shared memory, works everywhere", "shm"),
					huh.NewOption("gpu-window - DRM dumb buffers", "gpu-window"),
					huh.NewOption("gpu-image - DRM buffers with CPU readback", "gpu-image"),
				).
				Value(&render.Backend),
			huh.NewSelect[string]().
				Title("Log level").
				Options(
					huh.NewOption("debug", "debug"),
					huh.NewOption("info", "info"),
					huh.NewOption("warn", "warn"),
					huh.NewOption("error", "error"),
				).
				Value(&logLevel),
			huh.NewConfirm().
				Title("Write configuration?").
				Value(&write),
		),
	)

	if err := form.Run(); err != nil {
		return fmt.Errorf("setup cancelled: %w", err)
	}

	if !write {
		fmt.Println("Nothing written.")
		return nil
	}

	size, err := strconv.Atoi(cursorSize)
	if err != nil {
		return fmt.Errorf("invalid cursor size %q: %w", cursorSize, err)
	}
	cfg.Cursor.Size = size
	viper.Set("cursor.size", size)
	cfg.Logging.LogLevel = logLevel
	viper.Set("logging.log_level", logLevel)

	if err := config.UpdateTheme(theme); err != nil {
		return fmt.Errorf("failed to save theme: %w", err)
	}
	if err := config.UpdateRender(render); err != nil {
		return fmt.Errorf("failed to save render settings: %w", err)
	}

	fmt.Println("✅ Configuration saved!")
	fmt.Printf("📁 Config file: %s\n", config.GetConfigPath())
	fmt.Println()
	fmt.Println(ui.FormatNextStepsHeader())
	fmt.Println(ui.FormatActionItem(1, "Run 'wltk info' to inspect your compositor"))
	fmt.Println(ui.FormatActionItem(2, "Try a demo, e.g. 'wltk flower' or 'wltk gears'"))

	return nil
}

func validateHexColor(s string) error {
	if !hexColor.MatchString(s) {
		return fmt.Errorf("use a hex color like #CCCC66")
	}
	return nil
}
