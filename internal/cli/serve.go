package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	apphttp "ledger/internal/http"
	"ledger/internal/log"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		Long:  `Load the ledger from the configured backend and serve it over HTTP until SIGINT or SIGTERM.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	logger := a.logger.WithComponent(log.ComponentApp)

	rt, err := OpenStore(ctx, a.cfg, logger)
	if err != nil {
		return err
	}

	srv := apphttp.NewServer(":"+a.cfg.Port, rt.Store,
		apphttp.WithLogger(logger),
		apphttp.WithMetrics(a.cfg.MetricsEnabled),
		apphttp.WithRecentLimit(a.cfg.RecentLimit),
	)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	shutdownCtx, done := GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err.Error(), log.FieldOperation, log.OpShutdown)
		}
		if err := rt.Close(); err != nil {
			logger.Error("Failed to close storage", log.FieldError, err.Error())
		}
	})

	logger.Info("Starting ledger server",
		"port", a.cfg.Port,
		"backend", a.cfg.DataBackend,
		"metrics", a.cfg.MetricsEnabled,
		"amqp", a.cfg.AMQPURL != "")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err.Error(), "port", a.cfg.Port)
		_ = rt.Close()
		return err
	}

	<-shutdownCtx.Done()
	<-done
	logger.Info("Server stopped gracefully")
	return nil
}
