package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/s1natex/smart-tasks/internal/middleware"
	"github.com/s1natex/smart-tasks/internal/server"
	"github.com/s1natex/smart-tasks/internal/tasks"
	"github.com/s1natex/smart-tasks/internal/telemetry"
	"github.com/s1natex/smart-tasks/internal/web"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web UI and JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := load(cmd, os.Stdout)
			if err != nil {
				return err
			}
			defer a.Close()
			return serve(ctx, a)
		},
	}
}

func serve(ctx context.Context, a *app) error {
	cfg := a.cfg

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Options{
		Exporter: cfg.Tracing.Exporter,
		Endpoint: cfg.Tracing.Endpoint,
	})
	if err != nil {
		return err
	}

	stopObserving := tasks.ObserveStore(a.store)
	defer stopObserving()

	ai := a.insightsClient(ctx)
	ui, err := web.NewServer(a.store, ai, a.logger)
	if err != nil {
		return err
	}

	mode, err := middleware.ParseAuthMode(cfg.Auth.Mode)
	if err != nil {
		return err
	}

	r := server.NewRouter(server.Deps{
		Store:       a.store,
		Insights:    ai,
		UI:          ui,
		Logger:      a.logger,
		Timeout:     cfg.HTTP.Timeout,
		CORSOrigins: cfg.HTTP.CORSOrigins,
		Auth: middleware.AuthConfig{
			Mode:        mode,
			APIKey:      cfg.Auth.APIKey,
			BearerToken: cfg.Auth.BearerToken,
		},
		Limiter: middleware.NewLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
	})

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server_listen", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			a.logger.Error("server_error", slog.String("error", err.Error()))
			return err
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("server_shutdown")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		a.logger.Error("server_shutdown_error", slog.String("error", err.Error()))
	}
	if err := shutdownTracing(sctx); err != nil {
		a.logger.Warn("tracing_shutdown_error", slog.String("error", err.Error()))
	}
	return nil
}
