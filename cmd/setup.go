package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/wltk/internal/protocols"
	"github.com/bnema/wltk/internal/setup"
	"github.com/bnema/wltk/internal/toolkit"
	"github.com/bnema/wltk/internal/ui"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Check compositor support and write the wltk config file",
	Long: `Check which optional protocols the compositor offers and walk
through the toolkit options interactively.

The form covers the decoration palette, cursor size, rendering backend
and log level. Current settings are used as the starting values.`,
	RunE: runSetup,
}

func runSetup(cmd *cobra.Command, args []string) error {
	fmt.Println(ui.FormatSetupHeader("wltk Setup"))

	checkCompositor()

	return setup.Run()
}

// checkCompositor reports which of the globals the demos rely on are
// offered. Setup still works without a running compositor.
func checkCompositor() {
	d, err := toolkit.Create()
	if err != nil {
		fmt.Println(ui.WarningStyle.Render(ui.IconWarning + " no Wayland display found, skipping compositor checks"))
		fmt.Println()
		return
	}
	defer d.Close()

	var hasShell, hasDrm, hasText, hasShooter, hasViewporter bool
	for _, g := range d.Globals() {
		switch g.Interface {
		case protocols.ShellInterface:
			hasShell = true
		case protocols.DrmInterface:
			hasDrm = true
		case protocols.TextModelFactoryInterface:
			hasText = true
		case protocols.ScreenshooterInterface:
			hasShooter = true
		case protocols.ViewporterInterface:
			hasViewporter = true
		}
	}

	drmMsg := "gpu backends available"
	if !hasDrm {
		drmMsg = "pick the shm backend"
	}

	fmt.Println("Checking compositor support...")
	fmt.Println(ui.FormatSetupResult(hasShell, protocols.ShellInterface, ""))
	fmt.Println(ui.FormatSetupResult(hasDrm, protocols.DrmInterface, drmMsg))
	fmt.Println(ui.FormatSetupResult(hasViewporter, protocols.ViewporterInterface, "needed by the scaler demo"))
	fmt.Println(ui.FormatSetupResult(hasText, protocols.TextModelFactoryInterface, "input method for the editor demo"))
	fmt.Println(ui.FormatSetupResult(hasShooter, protocols.ScreenshooterInterface, "needed by the screenshot command"))
	fmt.Println()
}
