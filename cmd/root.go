package cmd

import (
	"github.com/spf13/cobra"

	"github.com/bnema/wltk/internal/config"
	"github.com/bnema/wltk/internal/logger"
)

var (
	// Version is set during build
	Version = "0.1.0-dev"

	rootCmd = &cobra.Command{
		Use:   "wltk",
		Short: "wltk - a toy Wayland windowing toolkit and its demos",
		Long: `wltk is a small client-side windowing toolkit for Wayland with a suite
of demo applications: drawn window decorations, client-side move/resize,
software-rendered cursors, drag and drop, and shm or DRM dumb-buffer
rendering through wl_shell surfaces.`,
		SilenceUsage: true,
	}
)

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s\n" .Version}}`)

	cobra.OnInitialize(func() {
		if err := config.Init(); err != nil {
			logger.Warn("failed to load config, using defaults", "error", err)
			return
		}
		if lvl := config.Get().Logging.LogLevel; lvl != "" {
			logger.SetLevel(lvl)
		}
	})

	rootCmd.AddCommand(eventdemoCmd)
	rootCmd.AddCommand(editorCmd)
	rootCmd.AddCommand(gearsCmd)
	rootCmd.AddCommand(keyboardCmd)
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(scalerCmd)
	rootCmd.AddCommand(screenshotCmd)
	rootCmd.AddCommand(flowerCmd)
	rootCmd.AddCommand(resizorCmd)
	rootCmd.AddCommand(clickdotCmd)
	rootCmd.AddCommand(dndCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(setupCmd)
}
