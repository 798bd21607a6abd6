package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"blackcross/api"
	"blackcross/config"
	"blackcross/core"
	"blackcross/detect"
	"blackcross/notify"

	"go.uber.org/zap"
)

// App is the assembled Black-Cross detection engine service.
type App struct {
	Config *config.Config
	Logger *zap.Logger
	Sugar  *zap.SugaredLogger

	Registry  *detect.Registry
	Engine    *detect.Engine
	APIServer *api.API

	shutdownCh chan struct{}
}

// NewApp creates the application and initializes all components.
func NewApp(ctx context.Context) (*App, error) {
	app := &App{shutdownCh: make(chan struct{})}

	logger, sugar, err := InitLogger(os.Getenv("BLACKCROSS_LOG_LEVEL"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.Logger = logger
	app.Sugar = sugar

	sugar.Info("Black-Cross SIEM detection engine starting...")

	cfg, err := InitConfig(sugar)
	if err != nil {
		return nil, err
	}
	app.Config = cfg

	app.Registry = detect.NewRegistry(
		time.Duration(cfg.Engine.RegexTimeoutMs)*time.Millisecond, sugar)

	if cfg.Rules.File != "" {
		file, err := detect.LoadRuleFile(cfg.Rules.File, sugar)
		if err != nil {
			return nil, fmt.Errorf("failed to load rule file: %w", err)
		}
		if loadErrs := app.Registry.Replace(file.Rules, file.CorrelationRules); len(loadErrs) > 0 {
			for _, loadErr := range loadErrs {
				sugar.Warnw("Rule rejected at startup", "rule_id", loadErr.RuleID, "error", loadErr.Err)
			}
		}
	}

	sink := buildSink(cfg, sugar)

	engine, err := detect.NewEngine(ctx, detect.EngineConfig{
		Workers:        cfg.Engine.Workers,
		QueueSize:      cfg.Engine.QueueSize,
		Shards:         cfg.Engine.Shards,
		ShardQueueSize: cfg.Engine.ShardQueueSize,
		MaxWindowKeys:  cfg.Engine.MaxWindowKeys,
		EmitTimeout:    time.Duration(cfg.Engine.EmitTimeoutSeconds) * time.Second,
	}, app.Registry, sink, sugar)
	if err != nil {
		return nil, fmt.Errorf("failed to create detection engine: %w", err)
	}
	app.Engine = engine

	app.APIServer = api.NewAPI(cfg, engine, app.Registry, sugar)

	return app, nil
}

// buildSink selects the trigger sink from configuration.
func buildSink(cfg *config.Config, sugar *zap.SugaredLogger) core.TriggerSink {
	if cfg.AlertSink.Type == "webhook" {
		return notify.NewWebhookSink(
			cfg.AlertSink.WebhookURL,
			cfg.AlertSink.WebhookMethod,
			cfg.AlertSink.WebhookHeaders,
			time.Duration(cfg.AlertSink.TimeoutSeconds)*time.Second,
			sugar)
	}
	return notify.NewLogSink(sugar)
}

// Start launches the engine and the API server.
func (a *App) Start(_ context.Context) error {
	a.Engine.Start()
	a.APIServer.Start()
	a.Sugar.Info("Black-Cross SIEM detection engine started")
	return nil
}

// WaitForShutdown blocks until SIGINT or SIGTERM.
func (a *App) WaitForShutdown() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		a.Sugar.Infow("Received shutdown signal", "signal", sig.String())
	case <-a.shutdownCh:
	}
}

// Shutdown stops intake, drains in-flight events, and closes the API.
func (a *App) Shutdown() {
	a.Sugar.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := a.APIServer.Stop(ctx); err != nil {
		a.Sugar.Errorw("API shutdown failed", "error", err)
	}

	a.Engine.Stop()

	_ = a.Logger.Sync()
}
