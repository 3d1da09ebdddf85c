package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"trip-search-service/internal/domain"
	"trip-search-service/internal/platform/db"

	gojson "github.com/goccy/go-json"
)

// Statements are valid for both SQLite and Postgres.
var schemaStatements = []string{
	`
	CREATE TABLE IF NOT EXISTS transit_legs (
		id TEXT PRIMARY KEY,
		seq INTEGER NOT NULL,
		origin TEXT NOT NULL,
		destination TEXT NOT NULL,
		departure TEXT NOT NULL,
		arrival TEXT NOT NULL,
		price DOUBLE PRECISION NOT NULL,
		stops TEXT NOT NULL,
		airline TEXT,
		aircraft TEXT
	);
	`,
	`
	CREATE INDEX IF NOT EXISTS idx_transit_legs_route
	ON transit_legs(origin, destination);
	`,
	`
	CREATE TABLE IF NOT EXISTS lodging_options (
		id TEXT PRIMARY KEY,
		seq INTEGER NOT NULL,
		name TEXT NOT NULL,
		city TEXT NOT NULL,
		class INTEGER NOT NULL,
		rating DOUBLE PRECISION NOT NULL,
		nightly_price DOUBLE PRECISION NOT NULL,
		amenities TEXT NOT NULL
	);
	`,
	`
	CREATE INDEX IF NOT EXISTS idx_lodging_options_city
	ON lodging_options(city);
	`,
}

// Initialize the inventory schema.
func InitSchema(ctx context.Context, conn *sql.DB) error {
	if conn == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

// Report of a seeding run.
type SeedReport struct {
	Legs    IngestReport
	Lodging IngestReport
}

// Populate the inventory tables from JSON seed files. Invalid records are
// skipped and reported; existing rows with the same id are replaced.
func SeedFromJSON(ctx context.Context, conn *sql.DB, driver db.Driver, legsPath, lodgingPath string) (SeedReport, error) {
	var report SeedReport

	legsData, err := os.ReadFile(legsPath)
	if err != nil {
		return report, fmt.Errorf("seed inventory: read %q: %w", legsPath, err)
	}
	legs, legsReport, err := ParseLegs(legsData)
	if err != nil {
		return report, fmt.Errorf("seed inventory: %w", err)
	}
	report.Legs = legsReport

	lodgingData, err := os.ReadFile(lodgingPath)
	if err != nil {
		return report, fmt.Errorf("seed inventory: read %q: %w", lodgingPath, err)
	}
	lodging, lodgingReport, err := ParseLodging(lodgingData)
	if err != nil {
		return report, fmt.Errorf("seed inventory: %w", err)
	}
	report.Lodging = lodgingReport

	if err := SaveInventory(ctx, conn, driver, legs, lodging); err != nil {
		return report, fmt.Errorf("seed inventory: %w", err)
	}
	return report, nil
}

// SaveInventory upserts legs and lodging in one transaction. Input order is
// stored as the load sequence.
func SaveInventory(ctx context.Context, conn *sql.DB, driver db.Driver, legs []domain.TransitLeg, lodging []domain.LodgingOption) error {
	if conn == nil {
		return errors.New("save inventory: DB is nil")
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save inventory: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	legStmt, err := tx.PrepareContext(ctx, driver.Rebind(`
	INSERT INTO transit_legs (id, seq, origin, destination, departure, arrival, price, stops, airline, aircraft)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE
	SET seq = EXCLUDED.seq,
		origin = EXCLUDED.origin,
		destination = EXCLUDED.destination,
		departure = EXCLUDED.departure,
		arrival = EXCLUDED.arrival,
		price = EXCLUDED.price,
		stops = EXCLUDED.stops,
		airline = EXCLUDED.airline,
		aircraft = EXCLUDED.aircraft;
	`))
	if err != nil {
		return fmt.Errorf("save inventory: prepare leg insert: %w", err)
	}
	defer legStmt.Close()

	for i, l := range legs {
		stops, err := gojson.Marshal(l.Stops)
		if err != nil {
			return fmt.Errorf("save inventory: encode stops of leg %q: %w", l.ID, err)
		}
		if _, err := legStmt.ExecContext(ctx,
			l.ID, i, l.Origin, l.Destination, l.Departure.String(), l.Arrival.String(),
			l.Price, string(stops), nullable(l.Carrier), nullable(l.Equipment),
		); err != nil {
			return fmt.Errorf("save inventory: insert leg id=%q: %w", l.ID, err)
		}
	}

	lodgingStmt, err := tx.PrepareContext(ctx, driver.Rebind(`
	INSERT INTO lodging_options (id, seq, name, city, class, rating, nightly_price, amenities)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE
	SET seq = EXCLUDED.seq,
		name = EXCLUDED.name,
		city = EXCLUDED.city,
		class = EXCLUDED.class,
		rating = EXCLUDED.rating,
		nightly_price = EXCLUDED.nightly_price,
		amenities = EXCLUDED.amenities;
	`))
	if err != nil {
		return fmt.Errorf("save inventory: prepare lodging insert: %w", err)
	}
	defer lodgingStmt.Close()

	for i, o := range lodging {
		amenities, err := gojson.Marshal(o.Amenities)
		if err != nil {
			return fmt.Errorf("save inventory: encode amenities of lodging %q: %w", o.ID, err)
		}
		if _, err := lodgingStmt.ExecContext(ctx,
			o.ID, i, o.Name, o.City, o.Class, o.GuestRating, o.NightlyPrice, string(amenities),
		); err != nil {
			return fmt.Errorf("save inventory: insert lodging id=%q: %w", o.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save inventory: commit tx: %w", err)
	}

	return nil
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
