package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"menstrual_tracker_daemon/internal/app"
	"menstrual_tracker_daemon/internal/infra/config"
	idb "menstrual_tracker_daemon/internal/infra/database"
	"menstrual_tracker_daemon/internal/infra/httpapi"
	"menstrual_tracker_daemon/internal/infra/logger"
	"menstrual_tracker_daemon/internal/infra/metrics"
	"menstrual_tracker_daemon/internal/infra/scheduler"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	fmt.Println("Menstrual Tracker Daemon starting...")

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("FATAL: Could not load application configuration: %v", err)
	}

	logger.Init(cfg)
	mainLog := logger.Log.WithField("component", "main")
	mainLog.Infof("Configuration loaded. Environment: %s, Driver: %s, Listen: %s",
		cfg.Environment, cfg.DatabaseDriver, cfg.HTTPListenAddr)

	// The data directory holds the SQLite file, the tracker config and the
	// history exports.
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		mainLog.Fatalf("Could not create data directory %q: %v", cfg.DataDir, err)
	}

	db, dialect, err := idb.NewConnection(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		mainLog.Fatalf("Could not connect to database: %v", err)
	}
	defer db.Close()
	mainLog.Info("Database connection established successfully.")

	if err := idb.Migrate(db, dialect); err != nil {
		mainLog.Fatalf("Could not apply database migrations: %v", err)
	}
	mainLog.Info("Database migrations applied.")

	historyRepo := idb.NewSQLHistoryRepository(db, dialect)
	settingsRepo := idb.NewSQLSettingsRepository(db, dialect)
	mainLog.Info("Repositories initialized.")

	registry := prometheus.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(registry)

	cycleCfg, err := cfg.Tracker.CycleConfig()
	if err != nil {
		mainLog.Fatalf("Invalid tracker configuration: %v", err)
	}
	trackerService := app.NewTrackerService(
		historyRepo,
		settingsRepo,
		recorder,
		logger.Log.WithField("component", "tracker"),
		app.TrackerOptions{
			Cycle:                   cycleCfg,
			ShowFertilityOnCalendar: cfg.Tracker.ShowFertilityOnCalendar,
			ProjectionCycles:        cfg.Tracker.ProjectionCycles,
		},
	)
	if err := trackerService.Refresh(context.Background()); err != nil {
		mainLog.Fatalf("Initial cycle refresh failed: %v", err)
	}
	mainLog.Info("Initial cycle snapshot computed.")

	historyService := app.NewHistoryService(historyRepo, trackerService,
		logger.Log.WithField("component", "history"))
	importService := app.NewImportService(historyRepo, trackerService,
		logger.Log.WithField("component", "import"), cfg.DataDir)

	refreshScheduler := scheduler.NewRefreshScheduler(trackerService,
		logger.Log.WithField("component", "scheduler"), cfg.RefreshCronSpec)
	refreshScheduler.Start()

	// Live tracker config reload: a validated change re-anchors the cycle
	// math without a restart.
	onReload := func(tracker config.TrackerConfig) {
		reloaded, err := tracker.CycleConfig()
		if err != nil {
			mainLog.WithError(err).Warn("Reloaded tracker config is invalid, keeping previous options.")
			return
		}
		trackerService.ApplyOptions(app.TrackerOptions{
			Cycle:                   reloaded,
			ShowFertilityOnCalendar: tracker.ShowFertilityOnCalendar,
			ProjectionCycles:        tracker.ProjectionCycles,
		})
		if err := trackerService.Refresh(context.Background()); err != nil {
			mainLog.WithError(err).Warn("Refresh after config reload failed.")
		} else {
			mainLog.Info("Tracker options reloaded from config file.")
		}
	}
	watcher, err := config.NewWatcher(cfg.TrackerFile,
		logger.Log.WithField("component", "config_watcher"), onReload)
	if err != nil {
		mainLog.WithError(err).Warn("Tracker config watcher could not be started, live reload is disabled.")
		watcher = nil
	} else {
		watcher.Start(context.Background())
	}

	apiLog := logger.Log.WithField("component", "http")
	apiHandler := httpapi.NewHandler(trackerService, historyService, importService, recorder, apiLog)
	server := httpapi.NewServer(httpapi.Config{
		Addr:     cfg.HTTPListenAddr,
		APIToken: cfg.APIToken,
	}, apiHandler, registry, apiLog)

	go func() {
		if err := server.Start(); err != nil {
			mainLog.Fatalf("HTTP server failed: %v", err)
		}
	}()

	mainLog.Info("Application setup complete. Scheduler and HTTP server are running.")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	mainLog.Info("Shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		mainLog.WithError(err).Error("HTTP server shutdown failed.")
	}
	refreshScheduler.Stop()
	if watcher != nil {
		watcher.Stop()
	}
	mainLog.Info("Application shut down gracefully.")
}
