package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dhima/version-watch/internal/checks"
	"github.com/dhima/version-watch/internal/installed"
	"github.com/dhima/version-watch/internal/logging"
	"github.com/dhima/version-watch/internal/remote"
	"github.com/dhima/version-watch/internal/storage"
	"github.com/dhima/version-watch/pkg/clock"
	"github.com/dhima/version-watch/pkg/config"
	"github.com/dhima/version-watch/platform/events"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// publisher is a result sink that owns a connection.
type publisher interface {
	checks.ResultPublisher
	Close() error
}

// app holds the collaborators shared by the serve and check commands.
type app struct {
	cfg       config.App
	logger    logging.Logger
	store     *storage.SQLStore
	registry  *installed.FileRegistry
	executor  *checks.Executor
	probe     *remote.Probe
	publisher publisher
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(logging.Options{
		Environment: cfg.Environment,
		Level:       cfg.LogLevel,
		Encoding:    cfg.LogEncoding,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	store, err := storage.Open(ctx, cfg.StoreDriver, cfg.StoreDSN)
	if err != nil {
		return nil, err
	}

	source, err := remote.NewHTTPSource(cfg.RemoteVersionURL, &http.Client{}, logger)
	if err != nil {
		store.Close()
		return nil, err
	}
	probe, err := remote.NewProbe(cfg.RemoteVersionURL, cfg.CheckTimeout)
	if err != nil {
		store.Close()
		return nil, err
	}

	registry := installed.NewFileRegistry(afero.NewOsFs(), cfg.InstalledVersionsFile, cfg.SelfIdentifier)
	executor := checks.NewExecutor(registry, source, store, cfg.TargetIdentifiers, clock.RealClock{}, logger)

	sink, err := newPublisher(cfg, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &app{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		registry:  registry,
		executor:  executor,
		probe:     probe,
		publisher: sink,
	}, nil
}

// newPublisher returns nil when no sink is configured.
func newPublisher(cfg config.App, logger logging.Logger) (publisher, error) {
	switch cfg.ResultSink {
	case "kafka":
		brokers := cfg.KafkaBrokerList()
		if len(brokers) == 0 {
			logger.Warn("no kafka brokers configured, result publishing disabled")
			return nil, nil
		}
		return events.NewPublisher(brokers, cfg.KafkaTopic, logging.Zap(logger)), nil
	case "nats":
		p, err := events.ConnectNATS(cfg.NATSURL, cfg.NATSSubject, logging.Zap(logger))
		if err != nil {
			return nil, err
		}
		return p, nil
	case "", "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported result sink %q", cfg.ResultSink)
	}
}

func (a *app) close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("failed to close result publisher", zap.Error(err))
		}
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warn("failed to close state store", zap.Error(err))
	}
	_ = a.logger.Sync()
}
