package ports

import (
	"context"
	"trip-search-service/internal/domain"
)

// Port: a boundary for loading transit and lodging inventory.
// Implementations return records in load order; that order is significant
// for tie-breaking downstream.
type InventoryRepository interface {
	ListLegs(ctx context.Context) ([]domain.TransitLeg, error)
	ListLodging(ctx context.Context) ([]domain.LodgingOption, error)
}
