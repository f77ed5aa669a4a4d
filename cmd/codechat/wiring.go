package main

import (
	"fmt"

	"codechat-hq/codechat/pkg/config"
	"codechat-hq/codechat/pkg/limits"
	"codechat-hq/codechat/pkg/limits/storage"
	"codechat-hq/codechat/pkg/processing/costs"
	"codechat-hq/codechat/pkg/processing/tokens"
	"codechat-hq/codechat/pkg/providers"
	"codechat-hq/codechat/pkg/routing"
	"codechat-hq/codechat/pkg/telemetry/logging"
	"codechat-hq/codechat/pkg/telemetry/metrics"
)

// routingPricing derives the cost calculator's pricing table from the
// router's model table so the two never disagree.
func routingPricing() costs.Pricing {
	pricing := costs.Pricing{}
	for model, info := range routing.DefaultModels() {
		pricing[model] = info.CostPer1K
	}
	return pricing
}

// loadConfig loads configuration with environment overrides and applies the
// global flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	return cfg, nil
}

// initLogging installs the configured slog default.
func initLogging(cfg *config.Config) error {
	_, err := logging.Init(cfg.Telemetry.Logging)
	return err
}

// newStore opens the configured counter store. The caller owns Close.
func newStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Backend {
	case "memory":
		return storage.NewMemoryStore(), nil
	case "sqlite":
		return storage.NewSQLiteStoreWithConfig(storage.SQLiteConfig{
			Path:        cfg.Storage.Path,
			BusyTimeout: cfg.Storage.BusyTimeout,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// components bundles the wired subsystems shared by the server and the
// one-shot CLI commands.
type components struct {
	store      storage.Store
	limiter    *limits.Limiter
	tracker    *limits.CostTracker
	router     *routing.Router
	registry   *providers.Registry
	estimator  *tokens.Estimator
	calculator *costs.Calculator
	metrics    *metrics.Registry
}

// newComponents wires the full stack. withMetrics controls whether a
// prometheus registry is created; the one-shot CLI commands skip it.
func newComponents(cfg *config.Config, withMetrics bool) (*components, error) {
	store, err := newStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	var reg *metrics.Registry
	var limitMetrics *limits.Metrics
	var routeMetrics *routing.Metrics
	if withMetrics {
		reg = metrics.NewRegistry()
		limitMetrics = limits.NewMetrics(reg.Prometheus())
		routeMetrics = routing.NewMetrics(reg.Prometheus())
	}

	registry := providers.NewRegistry(cfg.Providers, cfg.Retry)

	return &components{
		store:      store,
		limiter:    limits.NewLimiter(cfg.Limits, store, limitMetrics),
		tracker:    limits.NewCostTracker(cfg.Limits, store, limitMetrics),
		router:     routing.NewRouter(routing.ProviderProbe(registry.Has), routeMetrics),
		registry:   registry,
		estimator:  tokens.NewEstimator(),
		calculator: costs.NewCalculator(routingPricing()),
		metrics:    reg,
	}, nil
}

func (c *components) close() {
	if c.store != nil {
		_ = c.store.Close()
	}
}
