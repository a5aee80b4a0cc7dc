package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	ghandlers "github.com/gorilla/handlers"
	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/facultydash/internal/analytics"
	"github.com/lehigh-university-libraries/facultydash/internal/export"
	"github.com/lehigh-university-libraries/facultydash/internal/handlers"
	"github.com/lehigh-university-libraries/facultydash/internal/metrics"
	"github.com/lehigh-university-libraries/facultydash/internal/render"
	"github.com/lehigh-university-libraries/facultydash/internal/session"
	"github.com/lehigh-university-libraries/facultydash/internal/views"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start web server for the faculty dashboard",
		Long: `Starts the faculty dashboard on the specified port.

The dashboard shows the result tools menu and the graph analysis view, which
fetches subject averages and the risk distribution for the selected batch
from the results backend and can export them as a PDF.`,
		Example: `  # Start server on the configured port (default 8888)
  facultydash serve

  # Start server on custom port against a remote backend
  facultydash serve --port 3000 --backend http://results.internal:5000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			geometry, err := export.PageSize(cfg.Export.PageSize, cfg.Export.Landscape)
			if err != nil {
				return err
			}
			exporter := export.NewExporter(geometry)
			exporter.SettleDelay = cfg.Export.SettleDelay

			v, err := views.New()
			if err != nil {
				return err
			}

			store := session.New(cfg.FacultyName)
			m := metrics.New()
			handler := handlers.New(handlers.Options{
				Shell:    session.NewShell(store, cfg.DefaultBatch),
				Client:   analytics.NewClient(cfg.Backend.URL, cfg.Backend.Timeout),
				Exporter: exporter,
				Views:    v,
				Metrics:  m,
				Capture:  render.NewRenderer(cfg.Export.Scale).Render,
			})

			router := handler.Router()
			logged := ghandlers.LoggingHandler(os.Stdout, router)
			recovered := ghandlers.RecoveryHandler(ghandlers.PrintRecoveryStack(true))(logged)

			addr := fmt.Sprintf(":%d", cfg.Server.Port)
			server := &http.Server{
				Addr:              addr,
				Handler:           recovered,
				ReadHeaderTimeout: 10 * time.Second,
			}

			go pruneSessions(cmd.Context(), store, m, cfg.Server.SessionIdle)

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Faculty dashboard available",
					"addr", addr,
					"url", "http://localhost"+addr,
					"backend", cfg.Backend.URL,
					"default_batch", cfg.DefaultBatch.Label())
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8888, "Port to listen on (overrides config)")

	return cmd
}

func pruneSessions(ctx context.Context, store *session.Store, m *metrics.Metrics, maxIdle time.Duration) {
	if maxIdle <= 0 {
		return
	}
	ticker := time.NewTicker(maxIdle / 4)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := store.Prune(maxIdle); n > 0 {
				slog.Info("Pruned idle sessions", "count", n)
			}
			m.SetSessions(store.Len())
		}
	}
}
