package repositories

import (
	"context"
	"trip-search-service/internal/domain"
)

// In-memory InventoryRepository serving fixed slices.
type MemoryInventoryRepository struct {
	Legs    []domain.TransitLeg
	Lodging []domain.LodgingOption
}

func NewMemoryInventoryRepository(legs []domain.TransitLeg, lodging []domain.LodgingOption) *MemoryInventoryRepository {
	return &MemoryInventoryRepository{Legs: legs, Lodging: lodging}
}

func (m *MemoryInventoryRepository) ListLegs(ctx context.Context) ([]domain.TransitLeg, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]domain.TransitLeg(nil), m.Legs...), nil
}

func (m *MemoryInventoryRepository) ListLodging(ctx context.Context) ([]domain.LodgingOption, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]domain.LodgingOption(nil), m.Lodging...), nil
}
