package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/podcast-annex/app/annex"
	"github.com/lysyi3m/podcast-annex/app/api"
	"github.com/lysyi3m/podcast-annex/app/cfg"
	"github.com/lysyi3m/podcast-annex/app/database"
	"github.com/lysyi3m/podcast-annex/app/feed"
	"github.com/lysyi3m/podcast-annex/app/tasks"
)

func main() {
	config, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if config == nil {
		// Help was shown
		return
	}

	level := slog.LevelInfo
	if config.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	slog.Info("Starting podcast-annex", "version", config.Version)

	catalog, err := feed.LoadConfig(config.PodcastsFile)
	if err != nil {
		slog.Error("Failed to load podcast catalog", "file", config.PodcastsFile, "error", err)
		os.Exit(1)
	}
	slog.Info("Podcast catalog loaded", "podcasts", len(catalog.Podcasts))

	db, err := database.Open(config.DatabasePath())
	if err != nil {
		slog.Error("Failed to open database", "path", config.DatabasePath(), "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", db.Path(), "schema_version", version, "dirty", dirty)

	podcastRepo := database.NewPodcastRepository(db)

	if err := tasks.SyncCatalog(context.Background(), podcastRepo, catalog); err != nil {
		slog.Error("Failed to sync podcast catalog", "error", err)
		os.Exit(1)
	}

	archive := annex.NewRepo(config.AnnexDir)
	archiver := annex.NewGitAnnex(config.ArchiverBinary, config.AnnexDir)
	fetcher := tasks.NewFetcher(config, &http.Client{}, feed.NewParser())
	coordinator := tasks.NewCoordinator(catalog, podcastRepo, fetcher, archiver, archive, config.WorkerCount)

	if config.Once {
		code := runOnce(coordinator)
		db.Close()
		os.Exit(code)
	}

	slog.Info("Starting background scheduler", "interval", config.SchedulerIntervalDuration(), "workers", config.WorkerCount)
	scheduler := tasks.NewScheduler(coordinator, config.SchedulerIntervalDuration())
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(podcastRepo, catalog, feed.NewDocuments(config.AnnexDir), scheduler)
	server := api.NewServer(handler, config)

	httpServer := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", config.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig)
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	// Scheduler is stopped via defer
	slog.Info("Shutdown complete")
}

// runOnce runs a single cycle and returns the process exit code.
func runOnce(coordinator *tasks.Coordinator) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := coordinator.RunCycle(ctx)
	if err != nil {
		slog.Error("Sync cycle failed", "error", err)
		return 1
	}

	for slug, failure := range report.Failures {
		slog.Warn("Podcast failed", "podcast", slug, "error", failure)
	}
	if len(report.Failures) > 0 {
		return 2
	}
	return 0
}
