package services

import (
	"context"
	"math"
	"slices"
	"testing"
	"trip-search-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multiCityIndex(t testing.TB) *InventoryIndex {
	return NewInventoryIndex(
		[]domain.TransitLeg{
			leg(t, "o-x", "ORG", "XXX", "09:00", 100),
			leg(t, "o-y", "ORG", "YYY", "09:00", 120),
			leg(t, "x-y", "XXX", "YYY", "10:00", 60),
			leg(t, "y-x", "YYY", "XXX", "10:00", 60),
			leg(t, "x-z", "XXX", "ZZZ", "12:00", 40),
			leg(t, "z-y", "ZZZ", "YYY", "12:00", 40),
			leg(t, "y-z", "YYY", "ZZZ", "14:00", 40),
			leg(t, "z-x", "ZZZ", "XXX", "14:00", 40),
			leg(t, "x-o", "XXX", "ORG", "18:00", 100),
			leg(t, "y-o", "YYY", "ORG", "18:00", 120),
		},
		[]domain.LodgingOption{
			lodging("x-inn", "XXX", 3, 4.0, 50),
			lodging("y-inn", "YYY", 3, 4.0, 60),
			lodging("y-lux", "YYY", 5, 4.9, 150, "spa"),
			lodging("z-inn", "ZZZ", 2, 3.5, 30),
		},
	)
}

func constantScore(domain.Stay) float64 { return 1 }

func TestItinerariesVisitRequiredCities(t *testing.T) {
	idx := multiCityIndex(t)
	q := MultiCityQuery{
		Origin:      "ORG",
		Required:    []string{"XXX", "YYY"},
		Optional:    []string{"ZZZ"},
		TotalNights: 4,
		Budget:      2000,
	}

	trips := collect(Itineraries(context.Background(), idx, q, constantScore))
	require.NotEmpty(t, trips)

	sawOptional := false
	for _, trip := range trips {
		cities := trip.CitiesVisited()
		assert.Contains(t, cities, "XXX")
		assert.Contains(t, cities, "YYY")
		if slices.Contains(cities, "ZZZ") {
			sawOptional = true
		}

		nights := 0
		cost := 0.0
		for _, s := range trip.Stays {
			nights += s.Nights
			cost += s.Cost()
			require.NotNil(t, s.Lodging)
			assert.GreaterOrEqual(t, s.Nights, 1)
		}
		assert.Equal(t, 4, nights)
		assert.Equal(t, 4, trip.TotalNights)
		assert.InDelta(t, cost, trip.TotalCost, 1e-9)
		assert.LessOrEqual(t, trip.TotalCost, 2000.0)
		assert.Equal(t, "ORG", trip.Stays[0].Leg.Origin)
		assert.Equal(t, float64(len(trip.Stays)), trip.Score)
	}
	assert.True(t, sawOptional, "optional city should appear in some trips")
}

func TestItinerariesRespectBudget(t *testing.T) {
	idx := multiCityIndex(t)
	// cheapest: o-x 100 + x 1 night 50 + x-y 60 + y 1 night 60 = 270
	q := MultiCityQuery{Origin: "ORG", Required: []string{"XXX", "YYY"}, TotalNights: 2, Budget: 270}

	trips := collect(Itineraries(context.Background(), idx, q, constantScore))
	require.Len(t, trips, 1)
	assert.Equal(t, 270.0, trips[0].TotalCost)
	assert.Equal(t, []string{"XXX", "YYY"}, trips[0].CitiesVisited())

	q.Budget = 269
	assert.Empty(t, collect(Itineraries(context.Background(), idx, q, constantScore)))
}

func TestItinerariesClosingStayTakesRemainingNights(t *testing.T) {
	idx := multiCityIndex(t)
	q := MultiCityQuery{Origin: "ORG", Required: []string{"XXX"}, TotalNights: 9, Budget: 10_000, MaxStayNights: 4}

	trips := collect(Itineraries(context.Background(), idx, q, constantScore))
	require.NotEmpty(t, trips)

	found := false
	for _, trip := range trips {
		if len(trip.Stays) == 1 {
			found = true
			assert.Equal(t, 9, trip.Stays[0].Nights)
		}
	}
	assert.True(t, found, "a single stay above the per-stay cap closes the trip")
}

func TestItinerariesReturnToOrigin(t *testing.T) {
	idx := multiCityIndex(t)
	q := MultiCityQuery{Origin: "ORG", Required: []string{"XXX", "YYY"}, TotalNights: 2, Budget: 2000, ReturnToOrigin: true}

	trips := collect(Itineraries(context.Background(), idx, q, constantScore))
	require.NotEmpty(t, trips)
	for _, trip := range trips {
		last := trip.Stays[len(trip.Stays)-1]
		assert.Equal(t, "ORG", last.City)
		assert.Nil(t, last.Lodging)
		assert.Zero(t, last.Nights)
		assert.LessOrEqual(t, trip.TotalCost, 2000.0)
		assert.Equal(t, 2, trip.TotalNights)
	}
}

func TestItinerariesInfeasible(t *testing.T) {
	idx := multiCityIndex(t)

	tests := []struct {
		name string
		q    MultiCityQuery
	}{
		{"unreachable city", MultiCityQuery{Origin: "ORG", Required: []string{"QQQ"}, TotalNights: 3, Budget: 5000}},
		{"more cities than nights", MultiCityQuery{Origin: "ORG", Required: []string{"XXX", "YYY", "ZZZ"}, TotalNights: 2, Budget: 5000}},
		{"no required cities", MultiCityQuery{Origin: "ORG", Optional: []string{"XXX"}, TotalNights: 2, Budget: 5000}},
		{"zero nights", MultiCityQuery{Origin: "ORG", Required: []string{"XXX"}, Budget: 5000}},
		{"zero budget", MultiCityQuery{Origin: "ORG", Required: []string{"XXX"}, TotalNights: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, collect(Itineraries(context.Background(), idx, tt.q, constantScore)))
		})
	}
}

func TestItinerariesMinRating(t *testing.T) {
	idx := multiCityIndex(t)
	q := MultiCityQuery{Origin: "ORG", Required: []string{"YYY"}, TotalNights: 2, Budget: 5000, MinRating: 4.5}

	trips := collect(Itineraries(context.Background(), idx, q, constantScore))
	require.NotEmpty(t, trips)
	for _, trip := range trips {
		for _, s := range trip.Stays {
			assert.Equal(t, "y-lux", s.Lodging.ID)
		}
	}
}

func TestNightSweep(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3, 4, 6}, nightSweep(4, 6, true))
	assert.Equal(t, []int{1, 2, 3, 4}, nightSweep(4, 6, false))
	assert.Equal(t, []int{1, 2}, nightSweep(4, 2, true))
}

func TestItinerariesTotalCostSumsStays(t *testing.T) {
	idx := NewInventoryIndex(
		[]domain.TransitLeg{
			leg(t, "o-x", "ORG", "XXX", "09:00", 0.1),
			leg(t, "x-y", "XXX", "YYY", "09:00", 0.1),
		},
		[]domain.LodgingOption{
			lodging("x-inn", "XXX", 3, 4.0, 0.1),
			lodging("y-inn", "YYY", 3, 4.0, 0.1),
		},
	)
	q := MultiCityQuery{Origin: "ORG", Required: []string{"XXX", "YYY"}, TotalNights: 2, Budget: 1.0}

	trips := collect(Itineraries(context.Background(), idx, q, constantScore))
	require.Len(t, trips, 1)
	assert.Equal(t, 0.4, trips[0].TotalCost)
}

func TestItinerariesRejectNonFiniteBudget(t *testing.T) {
	idx := multiCityIndex(t)
	for _, budget := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		q := MultiCityQuery{Origin: "ORG", Required: []string{"XXX"}, TotalNights: 2, Budget: budget}
		assert.Empty(t, collect(Itineraries(context.Background(), idx, q, constantScore)), budget)
	}
}

func TestItinerariesStopWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	q := MultiCityQuery{
		Origin:      "ORG",
		Required:    []string{"XXX", "YYY"},
		Optional:    []string{"ZZZ"},
		TotalNights: 4,
		Budget:      2000,
	}
	assert.Empty(t, collect(Itineraries(ctx, multiCityIndex(t), q, constantScore)))
}
