package cmd

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/storeops/isbnscan/internal/camera"
	"github.com/storeops/isbnscan/internal/station"
	"github.com/storeops/isbnscan/internal/workflow"
)

func newStationCmd(opts *rootOptions) *cobra.Command {
	var (
		label  string
		frames string
		manual bool
	)

	cmd := &cobra.Command{
		Use:   "station",
		Short: "Run a terminal scanning station",
		Long: `Runs one scanning station in the terminal.

On the main menu type "scan" or "manual". While scanning, each input line is
treated as barcode text, so a keyboard-wedge reader can be used directly.
With --frames, image files under the given directory are decoded as camera
frames instead; each sub-directory is one device. On the metadata screen set
fields with name=value and type "save". "menu" returns to the main menu.`,
		Example: `  # Keyboard-wedge scanner or typed ISBNs
  isbnscan station

  # Start directly in manual entry
  isbnscan station --manual

  # Decode frames captured to ./frames/back
  isbnscan station --frames ./frames`,
		RunE: func(cmd *cobra.Command, args []string) error {
			factory, err := newFactory(opts, nil)
			if err != nil {
				return err
			}

			var capability camera.Capability
			if frames != "" {
				capability = camera.NewFrameDevice(frames)
			}

			initial := workflow.ScreenMainMenu
			if manual {
				initial = workflow.ScreenManualEntry
			}

			console := station.NewConsole(factory, uuid.New().String(), label, capability, initial, cmd.OutOrStdout())
			return console.Run(cmd.Context(), cmd.InOrStdin())
		},
	}

	cmd.Flags().StringVar(&label, "label", "", "Station label")
	cmd.Flags().StringVar(&frames, "frames", "", "Directory of captured frames to decode instead of reading scans from input")
	cmd.Flags().BoolVar(&manual, "manual", false, "Start in manual entry")

	return cmd
}
