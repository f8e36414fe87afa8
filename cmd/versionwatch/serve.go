package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dhima/version-watch/internal/alarm"
	"github.com/dhima/version-watch/internal/api"
	"github.com/dhima/version-watch/internal/api/handlers"
	"github.com/dhima/version-watch/internal/checks"
	"github.com/dhima/version-watch/internal/triggers"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler, check runner and HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg := a.cfg
	engine := alarm.NewEngine(cfg.AlarmTick, a.logger)
	permission := func() bool { return cfg.ExactAlarmsAllowed }
	svc := triggers.NewService(a.store, engine, permission, a.logger)

	runner := checks.NewRunner(a.executor, a.probe, a.publisher, checks.RunnerConfig{
		Timeout:      cfg.CheckTimeout,
		PollInterval: cfg.ReachabilityInterval,
	}, a.logger)
	dispatcher := triggers.NewDispatcher(svc, runner)
	engine.SetHandler(dispatcher.OnAlarm)

	if _, err := triggers.NewRecoverer(svc).Recover(ctx); err != nil {
		a.logger.Error("trigger recovery incomplete", zap.Error(err))
	}

	engineDone := make(chan struct{})
	go func() {
		defer close(engineDone)
		if err := engine.Run(ctx); err != nil && ctx.Err() == nil {
			a.logger.Error("alarm engine stopped", zap.Error(err))
		}
	}()

	server := api.NewServer(cfg, a.logger, api.Dependencies{
		Triggers:   svc,
		Checks:     runner,
		Discoverer: a.registry,
		Metrics: handlers.MetricsSources{
			Checks:        runner.Stats,
			Dispatches:    dispatcher.Stats,
			PendingAlarms: func() int { return len(engine.IDs()) },
		},
		Version: version,
	})
	serveErr := server.Serve(ctx)
	cancel()
	<-engineDone

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := runner.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("check runner did not drain", zap.Error(err))
	}
	return serveErr
}
