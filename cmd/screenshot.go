package cmd

import (
	"fmt"
	"strings"

	"github.com/gogpu/gg"
	"github.com/spf13/cobra"

	"github.com/bnema/wltk/internal/logger"
	"github.com/bnema/wltk/internal/toolkit"
)

var screenshotOutput string

var screenshotCmd = &cobra.Command{
	Use:   "screenshot",
	Short: "Save a screenshot of every output",
	Long: `Ask the compositor to copy each output into a shared-memory buffer
through the weston_screenshooter interface and save the result as PNG.
With several outputs the file name gets a -N suffix per output.`,
	RunE: runScreenshot,
}

func init() {
	screenshotCmd.Flags().StringVarP(&screenshotOutput, "output", "o", "wayland-screenshot.png", "Output file name")
}

// shotName derives the per-output file name: the base name for the
// first output, base-N before the extension for the rest.
func shotName(base string, index, total int) string {
	if total <= 1 || index == 0 {
		return base
	}
	if dot := strings.LastIndex(base, "."); dot > 0 {
		return fmt.Sprintf("%s-%d%s", base[:dot], index, base[dot:])
	}
	return fmt.Sprintf("%s-%d", base, index)
}

func runScreenshot(cmd *cobra.Command, args []string) error {
	d, err := toolkit.Create()
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer d.Close()

	shooter := d.Screenshooter()
	if shooter == nil {
		return fmt.Errorf("compositor does not advertise weston_screenshooter")
	}
	outputs := d.Outputs()
	if len(outputs) == 0 {
		return fmt.Errorf("no outputs to shoot")
	}

	// The tool never enters the event loop; each shot is driven by
	// roundtrips until the compositor signals done.
	done := false
	shooter.SetDoneHandler(func() { done = true })

	for i, o := range outputs {
		mode, ok := o.CurrentMode()
		if !ok {
			logger.Warn("output has no mode yet, skipping", "output", o.GlobalName())
			continue
		}

		buf, err := d.CreatePixelBuffer(mode.Width, mode.Height)
		if err != nil {
			return fmt.Errorf("failed to allocate %dx%d buffer: %w", mode.Width, mode.Height, err)
		}

		done = false
		if err := shooter.Shoot(o.Proxy(), buf.Buffer()); err != nil {
			buf.Destroy()
			return fmt.Errorf("failed to request shot: %w", err)
		}
		for !done {
			if err := d.Roundtrip(); err != nil {
				buf.Destroy()
				return fmt.Errorf("connection failed waiting for shot: %w", err)
			}
		}

		name := shotName(screenshotOutput, i, len(outputs))
		if err := gg.NewContextForImage(buf.Image()).SavePNG(name); err != nil {
			buf.Destroy()
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
		buf.Destroy()
		logger.Info("saved", "file", name, "width", mode.Width, "height", mode.Height)
	}
	return nil
}
