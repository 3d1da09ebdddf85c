package services

import (
	"math"
	"math/rand/v2"
	"testing"
	"trip-search-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCombinationsScenario(t *testing.T) {
	idx := scenarioIndex(t)

	got := collect(Combinations(idx, "AAA", "BBB", 2, 300, CandidateFilter{}))
	require.Len(t, got, 1)
	p := got[0]
	assert.Equal(t, "ab-100", p.Outbound[0].ID)
	assert.Equal(t, "ba-100", p.Return[0].ID)
	assert.Equal(t, "bbb-50", p.Lodging.ID)
	assert.Equal(t, 2, p.Nights)
	assert.Equal(t, 300.0, p.TotalCost)

	assert.Empty(t, collect(Combinations(idx, "AAA", "CCC", 2, 300, CandidateFilter{})))
}

func TestCombinationsEdgeCases(t *testing.T) {
	idx := scenarioIndex(t)

	tests := []struct {
		name   string
		dest   string
		nights int
		budget float64
	}{
		{"zero budget", "BBB", 2, 0},
		{"negative budget", "BBB", 2, -10},
		{"nan budget", "BBB", 2, math.NaN()},
		{"infinite budget", "BBB", 2, math.Inf(1)},
		{"zero nights", "BBB", 0, 1000},
		{"lodging alone reaches budget", "BBB", 2, 100},
		{"unknown destination", "ZZZ", 2, 1000},
		{"destination equals origin", "AAA", 2, 1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := collect(Combinations(idx, "AAA", tt.dest, tt.nights, tt.budget, CandidateFilter{}))
			assert.Empty(t, got)
			assert.Empty(t, collect(MultiHopCombinations(idx, "AAA", tt.dest, tt.nights, tt.budget, 3, CandidateFilter{})))
		})
	}
}

func TestCombinationsMissingReturnLeg(t *testing.T) {
	idx := NewInventoryIndex(
		[]domain.TransitLeg{leg(t, "out", "AAA", "BBB", "09:00", 10)},
		[]domain.LodgingOption{lodging("h", "BBB", 3, 4, 10)},
	)
	assert.Empty(t, collect(Combinations(idx, "AAA", "BBB", 1, 1000, CandidateFilter{})))
}

func TestCombinationsFilters(t *testing.T) {
	idx := NewInventoryIndex(
		[]domain.TransitLeg{
			leg(t, "out-direct", "AAA", "BBB", "09:00", 100),
			leg(t, "out-1stop", "AAA", "BBB", "10:00", 80, "XXX"),
			leg(t, "ret-direct", "BBB", "AAA", "09:00", 100),
		},
		[]domain.LodgingOption{
			lodging("low", "BBB", 2, 3.0, 40),
			lodging("high", "BBB", 4, 4.6, 60),
		},
	)

	all := collect(Combinations(idx, "AAA", "BBB", 1, 1000, CandidateFilter{}))
	assert.Len(t, all, 4)

	rated := collect(Combinations(idx, "AAA", "BBB", 1, 1000, CandidateFilter{MinRating: 4.5}))
	require.Len(t, rated, 2)
	for _, p := range rated {
		assert.Equal(t, "high", p.Lodging.ID)
	}

	direct := collect(Combinations(idx, "AAA", "BBB", 1, 1000, CandidateFilter{MaxStops: intPtr(0)}))
	require.Len(t, direct, 2)
	for _, p := range direct {
		assert.Equal(t, "out-direct", p.Outbound[0].ID)
	}
}

func TestCombinationsStopsEarly(t *testing.T) {
	idx := scenarioIndex(t)
	n := 0
	for range Combinations(idx, "AAA", "BBB", 1, 10_000, CandidateFilter{}) {
		n++
		break
	}
	assert.Equal(t, 1, n)
}

// Random inventories must never produce a package over budget or with the
// wrong stay length.
func TestCombinationsRespectBudgetAndNights(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	cities := []string{"AAA", "BBB", "CCC", "DDD"}

	var legs []domain.TransitLeg
	for i := range 80 {
		from := cities[rng.IntN(len(cities))]
		to := cities[rng.IntN(len(cities))]
		if from == to {
			continue
		}
		legs = append(legs, domain.TransitLeg{
			ID:          "L" + string(rune('A'+i%26)) + string(rune('a'+i/26)),
			Origin:      from,
			Destination: to,
			Departure:   domain.Clock(rng.IntN(24 * 60)),
			Arrival:     domain.Clock(rng.IntN(24 * 60)),
			Price:       float64(20 + rng.IntN(400)),
		})
	}
	var stays []domain.LodgingOption
	for i := range 20 {
		stays = append(stays, lodging("H"+string(rune('a'+i)), cities[rng.IntN(len(cities))], 1+rng.IntN(5), rng.Float64()*5, float64(20+rng.IntN(200))))
	}
	idx := NewInventoryIndex(legs, stays)

	for _, budget := range []float64{150, 500, 1200} {
		for nights := 1; nights <= 4; nights++ {
			for _, dest := range cities[1:] {
				for p := range Combinations(idx, "AAA", dest, nights, budget, CandidateFilter{}) {
					require.LessOrEqual(t, p.TotalCost, budget)
					require.Equal(t, nights, p.Nights)
				}
				for p := range MultiHopCombinations(idx, "AAA", dest, nights, budget, 3, CandidateFilter{}) {
					require.LessOrEqual(t, p.TotalCost, budget)
					require.Equal(t, nights, p.Nights)
					require.Equal(t, "AAA", p.Outbound[0].Origin)
					require.Equal(t, dest, p.Outbound[len(p.Outbound)-1].Destination)
					require.Equal(t, dest, p.Return[0].Origin)
					require.Equal(t, "AAA", p.Return[len(p.Return)-1].Destination)
				}
			}
		}
	}
}

func multiHopIndex(t testing.TB) *InventoryIndex {
	return NewInventoryIndex(
		[]domain.TransitLeg{
			leg(t, "a-b", "AAA", "BBB", "09:00", 50),
			leg(t, "b-c", "BBB", "CCC", "11:00", 50),
			leg(t, "c-d", "CCC", "DDD", "13:00", 50),
			leg(t, "d-a", "DDD", "AAA", "09:00", 120),
			leg(t, "c-a", "CCC", "AAA", "15:00", 150),
			leg(t, "c-b", "CCC", "BBB", "16:00", 30),
			leg(t, "b-a", "BBB", "AAA", "18:00", 40),
		},
		[]domain.LodgingOption{
			lodging("ccc-inn", "CCC", 3, 4, 40),
			lodging("ddd-inn", "DDD", 3, 4, 40),
		},
	)
}

func TestMultiHopCombinations(t *testing.T) {
	idx := multiHopIndex(t)

	got := collect(MultiHopCombinations(idx, "AAA", "CCC", 2, 1000, 2, CandidateFilter{}))
	// outbound a-b,b-c; returns c-d,d-a and c-a and c-b,b-a
	require.Len(t, got, 3)
	for _, p := range got {
		assert.Len(t, p.Outbound, 2)
		assert.Equal(t, 180.0, p.TotalCost-p.Return[0].Price-returnTail(p))
	}

	// DDD needs three legs out.
	assert.Empty(t, collect(MultiHopCombinations(idx, "AAA", "DDD", 1, 1000, 2, CandidateFilter{})))
	assert.NotEmpty(t, collect(MultiHopCombinations(idx, "AAA", "DDD", 1, 1000, 3, CandidateFilter{})))
}

func returnTail(p domain.TripPackage) float64 {
	return domain.PathPrice(p.Return[1:])
}

func TestMultiHopCombinationsBudgetPrunes(t *testing.T) {
	idx := multiHopIndex(t)

	// out 100 + lodging 80 + cheapest return (c-b,b-a) 70 = 250
	got := collect(MultiHopCombinations(idx, "AAA", "CCC", 2, 250, 2, CandidateFilter{}))
	require.Len(t, got, 1)
	assert.Equal(t, 250.0, got[0].TotalCost)
	assert.Len(t, got[0].Return, 2)
}

func TestMultiHopCombinationsDeduplicates(t *testing.T) {
	legs := []domain.TransitLeg{
		leg(t, "a-b", "AAA", "BBB", "09:00", 50),
		leg(t, "a-b", "AAA", "BBB", "09:00", 50),
		leg(t, "b-a", "BBB", "AAA", "18:00", 40),
	}
	idx := NewInventoryIndex(legs, []domain.LodgingOption{lodging("h", "BBB", 3, 4, 10)})

	got := collect(MultiHopCombinations(idx, "AAA", "BBB", 1, 1000, 2, CandidateFilter{}))
	assert.Len(t, got, 1)
}

func TestRoutePathsAreSimple(t *testing.T) {
	idx := multiHopIndex(t)

	for path := range RoutePaths(idx, "AAA", "AAA", 4, 1e9) {
		t.Fatalf("start equals end must yield nothing, got %v", path)
	}

	paths := collect(RoutePaths(idx, "AAA", "CCC", 4, 1e9))
	require.NotEmpty(t, paths)
	for _, p := range paths {
		seen := map[string]bool{"AAA": true}
		for _, l := range p {
			require.False(t, seen[l.Destination], "city %s repeated", l.Destination)
			seen[l.Destination] = true
		}
	}
}

func TestReachableWithin(t *testing.T) {
	idx := multiHopIndex(t)
	assert.Equal(t, []string{"BBB"}, ReachableWithin(idx, "AAA", 1))
	assert.Equal(t, []string{"BBB", "CCC"}, ReachableWithin(idx, "AAA", 2))
	assert.Equal(t, []string{"BBB", "CCC", "DDD"}, ReachableWithin(idx, "AAA", 3))
}
