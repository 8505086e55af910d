package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/amiyamandal-dev/topalbums/internal/api"
	"github.com/amiyamandal-dev/topalbums/internal/api/handlers"
	"github.com/amiyamandal-dev/topalbums/internal/auth"
	"github.com/amiyamandal-dev/topalbums/internal/config"
	"github.com/amiyamandal-dev/topalbums/internal/domain"
	"github.com/amiyamandal-dev/topalbums/internal/metrics"
	"github.com/amiyamandal-dev/topalbums/internal/reachability"
	"github.com/amiyamandal-dev/topalbums/internal/remote"
	"github.com/amiyamandal-dev/topalbums/internal/repository"
	"github.com/amiyamandal-dev/topalbums/internal/search"
	"github.com/amiyamandal-dev/topalbums/internal/service"
	"github.com/amiyamandal-dev/topalbums/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting top albums server",
		"version", "1.0.0",
		"mode", cfg.Server.Mode,
		"chart_url", cfg.Fetch.URL(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize local store
	store, err := repository.Open(ctx, cfg.Store, log)
	if err != nil {
		log.Error("Failed to open album store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	log.Info("Album store opened", "driver", cfg.Store.Driver, "path", cfg.Store.Path)

	// Initialize search index
	searchIndex := search.NewBleveIndex(log)
	if err := searchIndex.Open(cfg.Search.IndexPath); err != nil {
		log.Error("Failed to open search index", "error", err)
		os.Exit(1)
	}
	defer searchIndex.Close()

	// Initialize metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.NewCollector(registry)

	// Initialize fetch pipeline
	client := remote.NewClient(cfg.Fetch, recorder, log)
	checker := reachability.New(cfg.Reachability, log)

	// Initialize services
	albumService := service.NewAlbumService(store, searchIndex, recorder, log)
	syncService := service.NewSyncService(client, store, searchIndex, checker, recorder, cfg.Fetch.Timeout, log)

	// The index is not persisted with the store, bring it in line with
	// whatever is cached
	if err := albumService.Reindex(ctx); err != nil {
		log.Warn("Failed to rebuild search index from cache", "error", err)
	}
	count, _ := searchIndex.Count()
	log.Info("Search index ready", "path", cfg.Search.IndexPath, "document_count", count)

	// Initialize JWT manager
	var jwtManager *auth.JWTManager
	if cfg.Auth.JWTSecret != "" {
		jwtManager = auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)
	} else {
		log.Warn("No JWT secret configured, sync and clear routes are unauthenticated")
	}

	// Initialize handlers
	albumHandler := handlers.NewAlbumHandler(albumService, log)
	syncHandler := handlers.NewSyncHandler(syncService, log)
	healthHandler := handlers.NewHealthHandler(store, searchIndex, syncService, log)

	// Initialize router
	router := api.NewRouter(
		albumHandler,
		syncHandler,
		healthHandler,
		jwtManager,
		registry,
		cfg,
		log,
	)

	// Setup routes
	engine := router.Setup()
	defer router.Close()

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start background sync
	switch {
	case cfg.Sync.Interval > 0:
		if err := syncService.Start(ctx, cfg.Sync.Interval); err != nil {
			log.Warn("Failed to start background sync", "error", err)
		}
	case cfg.Sync.OnStartup:
		syncService.SyncAlbumsAsync(ctx, func(outcome *domain.SyncOutcome, err error) {
			if err != nil {
				log.Warn("Startup sync failed", "error", err)
				return
			}
			log.Info("Startup sync finished", "albums", outcome.AlbumCount)
		})
	}

	// Start server in goroutine
	go func() {
		log.Info("HTTP server starting", "address", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("Server started successfully", "address", addr)

	// Wait for interrupt signal for graceful shutdown
	<-ctx.Done()

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	// Stop background sync before the store closes
	syncService.Stop()

	log.Info("Server stopped gracefully")
}
