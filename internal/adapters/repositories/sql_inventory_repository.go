package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"trip-search-service/internal/domain"
	"trip-search-service/internal/platform/db"
	"trip-search-service/internal/platform/obs"

	gojson "github.com/goccy/go-json"
)

// SQL-backed implementation of the InventoryRepository port (SQLite or Postgres).
type SQLInventoryRepository struct {
	DB     *sql.DB
	Driver db.Driver
}

func NewSQLInventoryRepository(conn *sql.DB, driver db.Driver) *SQLInventoryRepository {
	return &SQLInventoryRepository{DB: conn, Driver: driver}
}

// Return all transit legs in load order.
func (s *SQLInventoryRepository) ListLegs(ctx context.Context) (_ []domain.TransitLeg, err error) {
	defer obs.Time(ctx, "inventory.ListLegs")(&err)

	if s.DB == nil {
		return nil, errors.New("sql inventory repository: DB is nil")
	}

	query := `
	SELECT
		id,
		origin,
		destination,
		departure,
		arrival,
		price,
		stops,
		airline,
		aircraft
	FROM transit_legs
	ORDER BY seq, id;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list legs: query transit_legs table: %w", err)
	}
	defer rows.Close()

	legs := make([]domain.TransitLeg, 0, 64)
	for rows.Next() {
		var (
			l                 domain.TransitLeg
			dep, arr, stops   string
			airline, aircraft sql.NullString
		)
		if err := rows.Scan(&l.ID, &l.Origin, &l.Destination, &dep, &arr, &l.Price, &stops, &airline, &aircraft); err != nil {
			return nil, fmt.Errorf("list legs: scan row: %w", err)
		}
		if l.Departure, err = domain.ParseClock(dep); err != nil {
			return nil, fmt.Errorf("list legs: leg %q: %w", l.ID, err)
		}
		if l.Arrival, err = domain.ParseClock(arr); err != nil {
			return nil, fmt.Errorf("list legs: leg %q: %w", l.ID, err)
		}
		if err := gojson.Unmarshal([]byte(stops), &l.Stops); err != nil {
			return nil, fmt.Errorf("list legs: leg %q: decode stops: %w", l.ID, err)
		}
		if airline.Valid {
			l.Carrier = &airline.String
		}
		if aircraft.Valid {
			l.Equipment = &aircraft.String
		}
		legs = append(legs, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list legs: row iteration: %w", err)
	}

	return legs, nil
}

// Return all lodging options in load order.
func (s *SQLInventoryRepository) ListLodging(ctx context.Context) (_ []domain.LodgingOption, err error) {
	defer obs.Time(ctx, "inventory.ListLodging")(&err)

	if s.DB == nil {
		return nil, errors.New("sql inventory repository: DB is nil")
	}

	query := `
	SELECT
		id,
		name,
		city,
		class,
		rating,
		nightly_price,
		amenities
	FROM lodging_options
	ORDER BY seq, id;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list lodging: query lodging_options table: %w", err)
	}
	defer rows.Close()

	out := make([]domain.LodgingOption, 0, 64)
	for rows.Next() {
		var (
			o         domain.LodgingOption
			amenities string
		)
		if err := rows.Scan(&o.ID, &o.Name, &o.City, &o.Class, &o.GuestRating, &o.NightlyPrice, &amenities); err != nil {
			return nil, fmt.Errorf("list lodging: scan row: %w", err)
		}
		if err := gojson.Unmarshal([]byte(amenities), &o.Amenities); err != nil {
			return nil, fmt.Errorf("list lodging: lodging %q: decode amenities: %w", o.ID, err)
		}
		out = append(out, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list lodging: row iteration: %w", err)
	}

	return out, nil
}
