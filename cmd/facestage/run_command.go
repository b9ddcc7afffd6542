package main

import (
	"github.com/spf13/cobra"

	"facestage/internal/kiosk"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var opts kiosk.Options

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the kiosk experience",
		Long: `Run the kiosk experience.

On a terminal the scene is drawn full-screen; press q to quit. With
--headless, or when stdout is not a terminal, frames are ticked in the
background and only logged (and written as PNGs with --frames-dir).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return kiosk.Run(cmd.Context(), cfg, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Headless, "headless", false, "Drive the experience without a terminal UI")
	cmd.Flags().StringVar(&opts.FramesDir, "frames-dir", "", "Write every rendered frame as a PNG into this directory")
	cmd.Flags().IntVar(&opts.MaxTicks, "max-ticks", 0, "Stop a headless run after this many ticks")
	return cmd
}
