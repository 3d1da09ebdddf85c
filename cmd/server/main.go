package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"trip-search-service/internal/adapters/cache"
	"trip-search-service/internal/adapters/feed"
	"trip-search-service/internal/adapters/repositories"
	"trip-search-service/internal/adapters/stats"
	"trip-search-service/internal/api"
	"trip-search-service/internal/config"
	"trip-search-service/internal/platform/db"
	"trip-search-service/internal/platform/obs"
	"trip-search-service/internal/ports"
	"trip-search-service/internal/services"
)

// main is the application composition root.
// It wires concrete adapters (SQL store, result cache, stats) behind ports and
// starts the HTTP server.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	logger := obs.NewLogger(os.Stdout, cfg.LogLevel, true)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := openInventory(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	idx, err := services.LoadIndex(ctx, repo)
	if err != nil {
		return err
	}
	logger.Info("inventory loaded", "legs", idx.LegCount(), "lodging", idx.LodgingCount())

	scorer, err := services.NewScorer(cfg.Scoring)
	if err != nil {
		return err
	}
	engine := services.NewEngine(idx, scorer, logger)

	resultCache, closeCache, err := openResultCache(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	codec, err := cache.NewPayloadCodec(cache.DefaultCompressThreshold)
	if err != nil {
		return err
	}

	collector := stats.NewCollector()
	svc := services.NewTripService(services.TripServiceDeps{
		Engine:   engine,
		Repo:     repo,
		Cache:    resultCache,
		Codec:    codec,
		Recorder: collector,
		CacheTTL: cfg.CacheTTL,

		SearchTimeout: cfg.SearchTimeout,
		Logger:        logger,
	})

	router := api.NewRouter(api.Deps{
		Trips:     svc,
		Inventory: svc,
		Stats:     collector,
		Gauge: func() (int, int) {
			current := engine.Index()
			return current.LegCount(), current.LodgingCount()
		},
		Logger:         logger,
		DefaultLimit:   cfg.DefaultResultLimit,
		MaxLimit:       cfg.MaxResultLimit,
		MaxLegs:        cfg.MaxLegsPerPath,
		MaxStayNights:  cfg.MaxStayNights,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	// Multi-city searches over large inventories are the slowest requests.
	writeTimeout := max(60*time.Second, cfg.SearchTimeout+5*time.Second)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// openInventory returns the configured inventory source: the remote feed,
// the seed files read directly, or the SQL store.
func openInventory(ctx context.Context, cfg config.Config, logger *slog.Logger) (ports.InventoryRepository, func(), error) {
	switch cfg.InventorySource {
	case config.SourceFeed:
		repo, err := feed.NewHTTPInventoryRepository(cfg.InventoryFeedURL, cfg.InventoryFeedKey, feed.WithLogger(logger))
		if err != nil {
			return nil, nil, err
		}
		logger.Info("inventory source", "backend", "feed", "url", cfg.InventoryFeedURL)
		return repo, func() {}, nil
	case config.SourceJSON:
		logger.Info("inventory source", "backend", "json", "legs", cfg.LegsSeedPath, "lodging", cfg.LodgingSeedPath)
		return repositories.NewJSONInventoryRepository(cfg.LegsSeedPath, cfg.LodgingSeedPath, logger), func() {}, nil
	}

	conn, err := db.Open(cfg.DBDriver, cfg.DSN())
	if err != nil {
		return nil, nil, err
	}
	// Initialize schema and seed demo data on startup for local runs.
	if err := initAndSeed(ctx, conn, cfg, logger); err != nil {
		conn.Close()
		return nil, nil, err
	}
	logger.Info("inventory source", "backend", string(cfg.DBDriver))
	return repositories.NewSQLInventoryRepository(conn, cfg.DBDriver), func() { _ = conn.Close() }, nil
}

func initAndSeed(ctx context.Context, conn *sql.DB, cfg config.Config, logger *slog.Logger) error {
	if err := repositories.InitSchema(ctx, conn); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}
	if !cfg.SeedOnStart {
		return nil
	}

	report, err := repositories.SeedFromJSON(ctx, conn, cfg.DBDriver, cfg.LegsSeedPath, cfg.LodgingSeedPath)
	if err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}
	report.Legs.Log(logger, "legs")
	report.Lodging.Log(logger, "lodging")
	return nil
}

// openResultCache prefers Redis when REDIS_URL is set and falls back to an
// in-process LRU otherwise.
func openResultCache(ctx context.Context, cfg config.Config, logger *slog.Logger) (ports.ResultCache, func(), error) {
	if cfg.RedisURL == "" {
		logger.Info("result cache", "backend", "memory", "size", cfg.CacheSize)
		return cache.NewMemoryResultCache(cfg.CacheSize, cfg.CacheTTL), func() {}, nil
	}

	client, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("result cache", "backend", "redis")
	return cache.NewRedisResultCache(client), func() { _ = client.Close() }, nil
}
