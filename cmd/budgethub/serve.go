package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	apihttp "budgethub/internal/http"
	"budgethub/internal/log"
)

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if addr == "" {
				addr = net.JoinHostPort("", app.Config.Port)
			}
			srv := apihttp.NewServer(addr, app.Sync, app.Documents, app.Logger, apihttp.Options{
				SyncRequestsPerMinute: app.Config.RateLimitRequests,
			})
			go app.Backend.Caches.Run(ctx, 5*time.Minute)

			errCh := make(chan error, 1)
			go func() {
				app.Logger.Info("HTTP server starting", "addr", addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			app.Logger.Info("Shutting down HTTP server", log.FieldOperation, log.OpShutdown)
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			m := srv.Metrics()
			app.Logger.Info("HTTP server stopped",
				"total_requests", m.TotalRequests, "server_errors", m.ServerErrors)
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default :$PORT)")
	return cmd
}
