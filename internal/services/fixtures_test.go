package services

import (
	"iter"
	"testing"
	"trip-search-service/internal/domain"
)

func mustClock(t testing.TB, s string) domain.Clock {
	t.Helper()
	c, err := domain.ParseClock(s)
	if err != nil {
		t.Fatalf("parse clock %q: %v", s, err)
	}
	return c
}

// leg builds a leg departing at dep and arriving two hours later.
func leg(t testing.TB, id, from, to, dep string, price float64, stops ...string) domain.TransitLeg {
	t.Helper()
	d := mustClock(t, dep)
	return domain.TransitLeg{
		ID:          id,
		Origin:      from,
		Destination: to,
		Departure:   d,
		Arrival:     domain.Clock((int(d) + 120) % (24 * 60)),
		Price:       price,
		Stops:       stops,
	}
}

func lodging(id, city string, class int, rating, nightly float64, amenities ...string) domain.LodgingOption {
	return domain.LodgingOption{
		ID:           id,
		Name:         id,
		City:         city,
		Class:        class,
		GuestRating:  rating,
		NightlyPrice: nightly,
		Amenities:    amenities,
	}
}

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }

func collect[T any](seq iter.Seq[T]) []T {
	var out []T
	for v := range seq {
		out = append(out, v)
	}
	return out
}

func defaultScorer(t testing.TB) *Scorer {
	t.Helper()
	s, err := NewScorer(DefaultScoringConfig())
	if err != nil {
		t.Fatalf("new scorer: %v", err)
	}
	return s
}

// AAA is the origin; only BBB fits a 2-night, 300 budget trip.
func scenarioIndex(t testing.TB) *InventoryIndex {
	legs := []domain.TransitLeg{
		leg(t, "ab-100", "AAA", "BBB", "09:00", 100),
		leg(t, "ab-150", "AAA", "BBB", "12:00", 150),
		leg(t, "ba-100", "BBB", "AAA", "17:00", 100),
		leg(t, "ac-200", "AAA", "CCC", "09:00", 200),
		leg(t, "ca-200", "CCC", "AAA", "09:00", 200),
	}
	lodgings := []domain.LodgingOption{
		lodging("bbb-50", "BBB", 3, 4.0, 50, "wifi"),
		lodging("bbb-90", "BBB", 4, 4.5, 90, "wifi", "pool"),
		lodging("ccc-120", "CCC", 4, 4.2, 120),
	}
	return NewInventoryIndex(legs, lodgings)
}
