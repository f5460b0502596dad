package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/storeops/isbnscan/internal/handlers"
	"github.com/storeops/isbnscan/internal/metrics"
	"github.com/storeops/isbnscan/internal/storage"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the station API server",
		Long: `Starts the isbnscan HTTP API on the specified port.

Each client creates a station and drives it through main menu, manual entry,
live scan and metadata entry. Live scans are fed by posting decoded barcode
text or raw camera frames, which are decoded server-side.`,
		Example: `  # Start server on default port 8888
  isbnscan serve

  # Start server on custom port with a config file
  isbnscan serve --port 3000 --config isbnscan.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := prometheus.NewRegistry()
			m := metrics.New()
			if err := m.Register(registry); err != nil {
				return err
			}

			factory, err := newFactory(opts, m)
			if err != nil {
				return err
			}

			store := storage.New()
			defer store.CloseAll()

			handler := handlers.New(factory, store)
			router := handler.NewRouter(map[string]http.Handler{
				"/metrics": promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			})

			addr := ":" + port
			server := &http.Server{
				Addr:    addr,
				Handler: router,
			}

			g, gctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				slog.Info("isbnscan API available", "addr", addr, "url", "http://localhost"+addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			})

			return g.Wait()
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on")

	return cmd
}
