package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"codechat-hq/codechat/pkg/config"
	"codechat-hq/codechat/pkg/limits/retention"
	"codechat-hq/codechat/pkg/server"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
	watch         bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the codechat gateway",
	Long: `Start the codechat HTTP gateway with the specified configuration.

The gateway serves POST /v1/chat with quota enforcement and model routing,
GET /v1/status for usage monitoring, and POST /v1/admin/reset for resetting
daily counters.

Examples:
  # Start with built-in defaults
  codechat run

  # Start with a custom config
  codechat run --config /etc/codechat/config.yaml

  # Override listen address
  codechat run --listen 0.0.0.0:8080

  # Validate config without starting the server
  codechat run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the server")
	runCmd.Flags().BoolVar(&runFlags.watch, "watch", true, "reload quota ceilings when the config file changes")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}

	if err := initLogging(cfg); err != nil {
		return err
	}

	if runFlags.dryRun {
		fmt.Println("Configuration valid")
		return nil
	}

	comps, err := newComponents(cfg, cfg.Telemetry.Metrics.Enabled)
	if err != nil {
		return err
	}
	defer comps.close()

	slog.Info("starting codechat",
		"version", Version,
		"address", cfg.Server.ListenAddress,
		"storage", cfg.Storage.Backend,
		"providers", comps.registry.Names(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Retention sweeps run alongside the server.
	sweeper := retention.NewSweeper(comps.store, cfg.Retention)
	if err := sweeper.Start(ctx); err != nil {
		return fmt.Errorf("failed to start retention sweeper: %w", err)
	}
	defer sweeper.Stop()

	// Hot-reload quota ceilings on config file changes.
	if runFlags.watch && cfgFile != "" {
		watcher, err := config.NewWatcher(cfgFile, 0)
		if err != nil {
			slog.Warn("config watcher disabled", "error", err)
		} else {
			go func() {
				_ = watcher.Watch(ctx, func(next *config.Config) {
					comps.limiter.SetConfig(next.Limits)
					comps.tracker.SetConfig(next.Limits)
					slog.Info("quota ceilings reloaded",
						"max_daily_cost", next.Limits.MaxDailyCost,
						"max_daily_requests", next.Limits.MaxDailyRequests,
					)
				})
			}()
		}
	}

	srv, err := server.New(server.Options{
		Config:     cfg.Server,
		MetricsCfg: cfg.Telemetry.Metrics,
		Limiter:    comps.limiter,
		Tracker:    comps.tracker,
		Router:     comps.router,
		Registry:   comps.registry,
		Estimator:  comps.estimator,
		Calculator: comps.calculator,
		Metrics:    comps.metrics,
	})
	if err != nil {
		return err
	}

	return srv.Start(ctx)
}
