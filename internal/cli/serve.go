package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/Amerigo2020/vestigas-co2-scribe/internal/embedding"
	"github.com/Amerigo2020/vestigas-co2-scribe/internal/metrics"
	"github.com/Amerigo2020/vestigas-co2-scribe/internal/pipeline"
	"github.com/Amerigo2020/vestigas-co2-scribe/internal/server"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = a.cfg.HTTPAddr
			}
			return a.serve(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default $HTTP_ADDR)")
	return cmd
}

// serve blocks until ctx is cancelled, then shuts the server down.
func (a *app) serve(ctx context.Context, addr string) error {
	db, err := a.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	provider, err := embedding.NewProvider(a.cfg, a.logger)
	if err != nil {
		return err
	}
	reg := metrics.NewRegistry()
	svc := pipeline.NewProcessingService(a.cfg, provider, a.logger).WithStore(db).WithMetrics(reg)

	srv := &http.Server{
		Addr:              addr,
		Handler:           server.New(a.cfg, svc, db, reg, a.logger).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info().Str("addr", addr).Msg("server starting")
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

	a.logger.Info().Msg("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	a.logger.Info().Msg("bye")
	return nil
}
