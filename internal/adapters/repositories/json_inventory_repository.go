package repositories

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"trip-search-service/internal/domain"
)

// JSONInventoryRepository serves inventory straight from the seed files.
// Files are re-read on every list, so a reload picks up edits without a
// database in between.
type JSONInventoryRepository struct {
	LegsPath    string
	LodgingPath string
	logger      *slog.Logger
}

func NewJSONInventoryRepository(legsPath, lodgingPath string, logger *slog.Logger) *JSONInventoryRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &JSONInventoryRepository{LegsPath: legsPath, LodgingPath: lodgingPath, logger: logger}
}

func (r *JSONInventoryRepository) ListLegs(ctx context.Context) ([]domain.TransitLeg, error) {
	data, err := r.read(ctx, r.LegsPath)
	if err != nil {
		return nil, err
	}
	legs, report, err := ParseLegs(data)
	if err != nil {
		return nil, fmt.Errorf("json inventory: %w", err)
	}
	report.Log(r.logger, "legs")
	return legs, nil
}

func (r *JSONInventoryRepository) ListLodging(ctx context.Context) ([]domain.LodgingOption, error) {
	data, err := r.read(ctx, r.LodgingPath)
	if err != nil {
		return nil, err
	}
	lodging, report, err := ParseLodging(data)
	if err != nil {
		return nil, fmt.Errorf("json inventory: %w", err)
	}
	report.Log(r.logger, "lodging")
	return lodging, nil
}

func (r *JSONInventoryRepository) read(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("json inventory: read %q: %w", path, err)
	}
	return data, nil
}
