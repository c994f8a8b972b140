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

	"github.com/lysyi3m/press-digest/app/api"
	"github.com/lysyi3m/press-digest/app/cache"
	"github.com/lysyi3m/press-digest/app/cfg"
	"github.com/lysyi3m/press-digest/app/curation"
	"github.com/lysyi3m/press-digest/app/database"
	"github.com/lysyi3m/press-digest/app/digest"
	"github.com/lysyi3m/press-digest/app/news"
	"github.com/lysyi3m/press-digest/app/retry"
	"github.com/lysyi3m/press-digest/app/search"
	"github.com/lysyi3m/press-digest/app/sources"
	"github.com/lysyi3m/press-digest/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown
		return
	}

	level := slog.LevelInfo
	if appCfg.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	slog.Info("Starting Press Digest", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBHost, appCfg.DBPort, appCfg.DBUser, appCfg.DBPassword, appCfg.DBName)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "schema_version", version, "dirty", dirty)

	searchRepo := database.NewSearchRepository(db)
	subscriberRepo := database.NewSubscriberRepository(db)
	scheduleRepo := database.NewScheduleRepository(db)
	settingsRepo := database.NewSettingsRepository(db)
	batchRepo := database.NewBatchRepository(db)

	lists, err := loadLists(appCfg.ListsFile)
	if err != nil {
		slog.Error("Failed to load curation lists", "error", err)
		os.Exit(1)
	}
	slog.Info("Curation lists loaded", "outlets", len(lists.Outlets), "platforms", len(lists.Platforms))
	curator := curation.NewCurator(curation.NewClassifier(lists))

	definitions := search.NewConfigCache(appCfg.SearchesDir)
	if err := definitions.Run(); err != nil {
		slog.Error("Failed to load search definitions", "dir", appCfg.SearchesDir, "error", err)
		os.Exit(1)
	}
	slog.Info("Search definitions loaded", "count", definitions.GetConfigCount())

	// A nil *cache.Cache must not end up inside the interface.
	var batchCache cache.BatchCache
	if appCfg.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		redisCache, err := cache.NewCache(ctx, appCfg.RedisAddr)
		cancel()
		if err != nil {
			slog.Warn("Redis unavailable, continuing without batch cache", "addr", appCfg.RedisAddr, "error", err)
		} else {
			defer redisCache.Close()
			batchCache = redisCache
		}
	}

	httpClient := sources.NewHTTPClient(appCfg.MediaAPITimeout)
	registry := &sources.Registry{
		Media: sources.NewMediaClient(appCfg.MediaAPIURL, appCfg.MediaAPIKey, appCfg.UserAgent, appCfg.MediaAPITimeout, httpClient),
		Feed:  sources.NewFeedSource(httpClient, appCfg.UserAgent),
	}

	service := news.NewService(news.Deps{
		Searches:    searchRepo,
		Subscribers: subscriberRepo,
		Settings:    settingsRepo,
		Batches:     batchRepo,
		Cache:       batchCache,
		Sources:     registry,
		Definitions: definitions,
		Curator:     curator,
		CacheTTL:    appCfg.CacheTTL,
		PanelSize:   appCfg.PanelSize,
		Retry:       retry.Default,
	})

	var mailer digest.Mailer
	if appCfg.MailEnabled() {
		mailer = digest.NewSMTPMailer(appCfg.SMTPHost, appCfg.SMTPPort, appCfg.SMTPUser, appCfg.SMTPPassword, appCfg.MailFrom)
		slog.Info("Digest mail enabled", "smtp_host", appCfg.SMTPHost, "from", appCfg.MailFrom)
	} else {
		slog.Info("Digest mail disabled (SMTP_HOST or MAIL_FROM not set)")
	}

	scheduler := tasks.NewScheduler(tasks.Deps{
		Definitions:    definitions,
		SearchRepo:     searchRepo,
		SubscriberRepo: subscriberRepo,
		ScheduleRepo:   scheduleRepo,
		Refresher:      service,
		Builder:        service,
		Renderer:       digest.NewRenderer(appCfg.BaseUrl),
		Mailer:         mailer,
	}, time.Duration(appCfg.SchedulerInterval)*time.Second, appCfg.WorkerCount)

	slog.Info("Starting background scheduler", "workers", appCfg.WorkerCount, "interval_s", appCfg.SchedulerInterval)
	scheduler.Start()
	defer scheduler.Stop()

	// Upstream retries must finish inside the response write timeout.
	fetchTimeout := 2 * appCfg.MediaAPITimeout

	api.SetMode(appCfg.Debug)
	handler := api.NewHandler(api.Deps{
		News:           service,
		Boards:         api.NewBoardRegistry(appCfg.InitialPageSize, appCfg.MaxPageSize),
		Generator:      digest.NewGenerator(appCfg.BaseUrl, appCfg.Version),
		Definitions:    definitions,
		SearchRepo:     searchRepo,
		SubscriberRepo: subscriberRepo,
		ScheduleRepo:   scheduleRepo,
		SettingsRepo:   settingsRepo,
		Cache:          batchCache,
		Scheduler:      scheduler,
		FetchTimeout:   fetchTimeout,
	})

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      api.NewServer(handler, appCfg.APIAccessKey),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: fetchTimeout + 15*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
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

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}
}

func loadLists(path string) (*curation.Lists, error) {
	if path == "" {
		return curation.DefaultLists()
	}
	return curation.LoadLists(path)
}
