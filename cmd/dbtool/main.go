package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"trip-search-service/internal/adapters/feed"
	"trip-search-service/internal/adapters/repositories"
	"trip-search-service/internal/config"
	"trip-search-service/internal/platform/db"
	"trip-search-service/internal/platform/obs"
)

// dbtool initialises the inventory schema and loads the JSON seed files into
// SQLite or Postgres. Flags default to the service configuration.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	driverName := flag.String("driver", string(cfg.DBDriver), "database driver (sqlite|postgres)")
	dsn := flag.String("dsn", cfg.DSN(), "sqlite path or postgres connection URL")
	legsPath := flag.String("legs", cfg.LegsSeedPath, "transit legs seed file")
	lodgingPath := flag.String("lodging", cfg.LodgingSeedPath, "lodging seed file")
	feedURL := flag.String("feed", cfg.InventoryFeedURL, "import from this inventory feed instead of the seed files")
	flag.Parse()

	logger := obs.NewLogger(os.Stderr, cfg.LogLevel, false)

	driver, err := db.ParseDriver(*driverName)
	if err != nil {
		logger.Error("bad -driver", "err", err)
		os.Exit(2)
	}
	if *dsn == "" {
		logger.Error("-dsn is required")
		os.Exit(2)
	}

	conn, err := db.Open(driver, *dsn)
	if err != nil {
		logger.Error("open database", "err", err)
		os.Exit(1)
	}
	defer conn.Close()

	ctx := context.Background()
	if *feedURL != "" {
		err = importFeed(ctx, conn, driver, *feedURL, cfg.InventoryFeedKey, logger)
	} else {
		err = initAndSeed(ctx, conn, driver, *legsPath, *lodgingPath, logger)
	}
	if err != nil {
		logger.Error("dbtool failed", "err", err)
		conn.Close()
		os.Exit(1)
	}
}

func initAndSeed(ctx context.Context, conn *sql.DB, driver db.Driver, legsPath, lodgingPath string, logger *slog.Logger) error {
	logger.Info("initializing database schema", "driver", driver)
	if err := repositories.InitSchema(ctx, conn); err != nil {
		return fmt.Errorf("schema initialization failed: %w", err)
	}
	logger.Info("schema ready")

	logger.Info("seeding database", "legs", legsPath, "lodging", lodgingPath)
	report, err := repositories.SeedFromJSON(ctx, conn, driver, legsPath, lodgingPath)
	if err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}
	report.Legs.Log(logger, "legs")
	report.Lodging.Log(logger, "lodging")
	logger.Info("seeding complete", "legs", report.Legs.Accepted, "lodging", report.Lodging.Accepted)
	return nil
}

// importFeed snapshots the remote inventory feed into the database.
func importFeed(ctx context.Context, conn *sql.DB, driver db.Driver, feedURL, apiKey string, logger *slog.Logger) error {
	if err := repositories.InitSchema(ctx, conn); err != nil {
		return fmt.Errorf("schema initialization failed: %w", err)
	}

	src, err := feed.NewHTTPInventoryRepository(feedURL, apiKey, feed.WithLogger(logger))
	if err != nil {
		return err
	}
	logger.Info("importing inventory feed", "url", feedURL)
	legs, err := src.ListLegs(ctx)
	if err != nil {
		return err
	}
	lodging, err := src.ListLodging(ctx)
	if err != nil {
		return err
	}
	if err := repositories.SaveInventory(ctx, conn, driver, legs, lodging); err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	logger.Info("import complete", "legs", len(legs), "lodging", len(lodging))
	return nil
}
