package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/aretw0/intake/internal/bootstrap"
	"github.com/aretw0/intake/internal/metrics"
	httpAdapter "github.com/aretw0/intake/pkg/adapters/http"
	"github.com/aretw0/intake/pkg/adapters/telegram"
	"github.com/aretw0/intake/pkg/domain"
	"github.com/aretw0/intake/pkg/runner"
	"github.com/aretw0/intake/pkg/sink"
)

const (
	readinessInterval = 5 * time.Minute
	shutdownTimeout   = 5 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Telegram bot",
	Long: `Verifies access to the spreadsheet, then polls Telegram for updates until interrupted.
The admin server exposes /healthz, /readyz, /metrics and /sessions.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().Int("workers", 8, "Number of dispatch workers")
	serveCmd.Flags().String("admin-addr", ":2112", "Admin server address (empty disables it)")
	serveCmd.Flags().String("session-store", "memory", "Session store backend (memory, file, redis)")
	serveCmd.Flags().String("timezone", "CET", "Time zone of booking timestamps")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger := app.cfg, app.logger

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bundle, err := bootstrap.ResolveCredentials(cfg)
	if err != nil {
		return err
	}
	logger.Info("Google credentials loaded", "source", bundle.Source, "client_email", bundle.ClientEmail)

	appender, err := openAppender(ctx, cfg, *bundle, logger)
	if err != nil {
		return err
	}
	location, err := sink.LoadLocation(cfg.Timezone)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	hooks := metrics.Chain(metrics.New(registry).Hooks(), traceHooks(logger))

	records := sink.New(appender,
		sink.WithLocation(location),
		sink.WithLogger(logger),
		sink.WithLifecycleHooks(hooks),
	)

	var status bootstrap.Status
	if err := bootstrap.SelfCheck(ctx, records, logger); err != nil {
		return err
	}
	status.Record(nil)
	go status.Watch(ctx, records, readinessInterval, logger)

	sessions, closeSessions, err := openSessions(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeSessions(); err != nil {
			logger.Warn("Failed to close session store", "err", err)
		}
	}()

	machine, err := newMachine(cfg)
	if err != nil {
		return err
	}

	bot, err := telegram.New(cfg.Token, telegram.WithLogger(logger))
	if err != nil {
		return err
	}
	logger.Info("Connected to Telegram", "bot", bot.Self().UserName)

	dispatcher := runner.New(machine, sessions, records, bot,
		runner.WithLogger(logger),
		runner.WithLifecycleHooks(hooks),
		runner.WithWorkers(cfg.Workers),
	)

	var srv *http.Server
	serverErrors := make(chan error, 1)
	if cfg.AdminAddr != "" {
		srv = &http.Server{
			Addr: cfg.AdminAddr,
			Handler: httpAdapter.NewHandler(&httpAdapter.Server{
				Sessions:  sessions,
				Readiness: &status,
				Metrics:   promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
				Logger:    logger,
			}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("Admin server listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErrors <- err
			}
		}()
	}

	done := make(chan error, 1)
	go func() {
		done <- dispatcher.Run(ctx, bot.Listen(ctx))
	}()

	var runErr error
	select {
	case err := <-serverErrors:
		logger.Error("Admin server failed", "err", err)
		stop()
		<-done
		return fmt.Errorf("admin server: %w", err)
	case runErr = <-done:
	}

	logger.Info("Shutting down")
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
			_ = srv.Close()
		}
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	logger.Info("Bot stopped gracefully")
	return nil
}

// traceHooks logs every step change at debug level.
func traceHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(_ context.Context, e *domain.TransitionEvent) {
			logger.Debug("Step changed", "user_id", e.UserID, "event", e.Event, "from", e.From, "to", e.To)
		},
	}
}
