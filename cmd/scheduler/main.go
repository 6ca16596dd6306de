package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"social-radar/internal/config"
	"social-radar/internal/repository"
	"social-radar/internal/services"
	"social-radar/pkg/database"
	"social-radar/pkg/logging"
	"social-radar/pkg/metrics"
)

func main() {
	once := flag.Bool("once", false, "Run a single pipeline cycle and exit")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := logging.NewStructuredLogger("radar-scheduler", "1.0.0", logging.ParseLevel(cfg.Logging.Level))

	ctx := context.Background()
	logger.Info(ctx, "[SCHEDULER_START] Starting social radar scheduler", logging.Fields{
		"version":  "1.0.0",
		"db_path":  cfg.Database.Path,
		"interval": cfg.Pipeline.Interval.String(),
		"cooldown": cfg.Pipeline.Cooldown.String(),
		"once":     *once,
	})

	// Initialize metrics collector
	metricsCollector := metrics.NewCollector("social_radar_scheduler")

	// Initialize database
	db, err := database.NewRadarDB(&database.Config{
		Path:         cfg.Database.Path,
		MaxOpenConns: cfg.Database.MaxOpenConns,
	}, logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[SCHEDULER_ERROR] Failed to open store", logging.Fields{
			"path": cfg.Database.Path,
		}, err)
	}
	defer db.Close()

	// Initialize repository and services
	repo := repository.NewRadarRepository(db, logger, metricsCollector)
	extractService := services.NewExtractService(logger, metricsCollector)
	catalogService := services.NewCatalogService(cfg.Pipeline.VenueCap, logger, metricsCollector)
	weatherService := services.NewWeatherService(cfg.Weather, logger, metricsCollector)
	pipeline := services.NewPipelineService(cfg, extractService, catalogService, weatherService, repo, logger, metricsCollector)

	if *once {
		if err := pipeline.Run(ctx); err != nil {
			logger.Fatal(ctx, "[SCHEDULER_ERROR] Pipeline run failed", logging.Fields{}, err)
		}
		return
	}

	// Run forever: a failed run is logged and retried after a cooldown; the
	// process itself never terminates on a run failure.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	for {
		delay := cfg.Pipeline.Interval
		if err := pipeline.Run(ctx); err != nil {
			logger.Error(ctx, "[SCHEDULER_RUN_FAILED] Run failed, retrying after cooldown", logging.Fields{
				"cooldown": cfg.Pipeline.Cooldown.String(),
			}, err)
			delay = cfg.Pipeline.Cooldown
		}

		logger.Info(ctx, "[SCHEDULER_SLEEP] Waiting for next cycle", logging.Fields{
			"delay": delay.String(),
		})

		select {
		case <-time.After(delay):
		case sig := <-quit:
			logger.Info(ctx, "[SCHEDULER_STOP] Shutting down", logging.Fields{
				"signal": sig.String(),
			})
			return
		}
	}
}
