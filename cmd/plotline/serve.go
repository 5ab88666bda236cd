package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/plotline"
	"github.com/aretw0/plotline/internal/cli"
	httpAdapter "github.com/aretw0/plotline/pkg/adapters/http"
	"github.com/aretw0/plotline/pkg/observability"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Exposes the engine over a JSON API validated against its OpenAPI document,
with Server-Sent Events for session diffs and Prometheus metrics on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetString("port")
		watch, _ := cmd.Flags().GetBool("watch")

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		opts := optionsFromFlags(cmd)
		logger, err := cli.NewLogger(opts.Debug, opts.LogLevel)
		if err != nil {
			return err
		}

		metrics := observability.NewMetrics()
		engine, cleanup, err := cli.CreateEngine(sigCtx, opts, logger,
			plotline.WithMetrics(metrics),
			plotline.WithHooks(observability.LoggingHooks(logger)),
		)
		if err != nil {
			return err
		}
		defer cleanup()

		handler, err := httpAdapter.NewHandler(engine,
			httpAdapter.WithMetricsHandler(metrics.Handler()),
			httpAdapter.WithLogger(logger),
		)
		if err != nil {
			return err
		}

		if watch {
			go func() {
				if err := cli.WatchAndReload(sigCtx, engine, logger, nil); err != nil {
					logger.Warn("watch disabled", "err", err)
				}
			}()
		}

		srv := &http.Server{
			Addr:              ":" + port,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("starting Plotline server", "addr", srv.Addr, "plans", len(engine.Plans()))
			fmt.Fprintf(cmd.OutOrStdout(), "Starting Plotline Server on %s\n", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-sigCtx.Done():
			logger.Info("shutdown started", "signal", sigCtx.Signal())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("graceful shutdown did not complete", "timeout", 5*time.Second, "err", err)
				return srv.Close()
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Plotline Server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().BoolP("watch", "w", false, "Reload definitions when they change")
}
