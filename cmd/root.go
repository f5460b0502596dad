package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/storeops/isbnscan/internal/catalog"
	"github.com/storeops/isbnscan/internal/config"
	"github.com/storeops/isbnscan/internal/metrics"
	"github.com/storeops/isbnscan/internal/station"
)

type rootOptions struct {
	configPath string
	verbose    bool
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "isbnscan",
		Short: "Scan-to-catalog workflow for bookstore inventory",
		Long: `isbnscan captures a book's ISBN from a barcode scanner, camera frames or
the keyboard, looks up its title and author, and records price, quantity and
shelf placement in the store catalog.

Run it as an HTTP service for browser and handheld clients, or as a
terminal station next to a keyboard-wedge barcode reader.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			level := slog.LevelInfo
			if opts.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML config file")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newStationCmd(opts))

	return cmd
}

// newFactory loads the configuration and wires the shared lookup and save path
func newFactory(opts *rootOptions, m *metrics.Metrics) (*station.Factory, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	client := catalog.NewClient(cfg.CatalogURL, nil)
	backend, err := station.NewBackend(cfg.Lookup, client)
	if err != nil {
		return nil, err
	}

	slog.Info("Configuration loaded",
		"catalog_url", cfg.CatalogURL,
		"variant", cfg.Variant,
		"lookup", cfg.Lookup.Backend,
	)
	return station.NewFactory(cfg, backend, client, slog.Default(), m), nil
}
