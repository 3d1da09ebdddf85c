package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"trip-search-service/internal/domain"
	"trip-search-service/internal/platform/obs"
)

const DefaultResultLimit = 10

// Parameters of a single-destination search.
type TripQuery struct {
	Origin    string
	Nights    int
	Budget    float64
	Limit     int
	MinRating float64
	MaxStops  *int
	// Maximum legs per direction. 0 or 1 restricts the search to direct legs.
	MaxLegs int
}

func (q TripQuery) limit() int {
	if q.Limit <= 0 {
		return DefaultResultLimit
	}
	return q.Limit
}

// Engine runs searches against the current inventory snapshot.
// The index sits behind an atomic pointer so a reload can swap in a freshly
// built snapshot while in-flight searches finish on the old one.
type Engine struct {
	index  atomic.Pointer[InventoryIndex]
	scorer *Scorer
	logger *slog.Logger
}

func NewEngine(idx *InventoryIndex, scorer *Scorer, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{scorer: scorer, logger: logger}
	e.index.Store(idx)
	return e
}

func (e *Engine) Index() *InventoryIndex { return e.index.Load() }

// Swap installs a new index and returns the previous one.
func (e *Engine) Swap(idx *InventoryIndex) *InventoryIndex { return e.index.Swap(idx) }

func (e *Engine) Scorer() *Scorer { return e.scorer }

// SearchTrips returns the best packages for the query, best first.
// An infeasible query yields an empty list, not an error; only context
// cancellation fails a search.
func (e *Engine) SearchTrips(ctx context.Context, q TripQuery) (_ []domain.TripPackage, err error) {
	defer obs.Time(ctx, "search trips")(&err)

	idx := e.index.Load()
	sctx := NewScoringContext(idx, q.Budget, q.Nights)
	filter := CandidateFilter{MinRating: q.MinRating, MaxStops: q.MaxStops}
	top := NewTopK[domain.TripPackage](q.limit())

	destinations := idx.DestinationsFrom(q.Origin)
	if q.MaxLegs > 1 {
		destinations = ReachableWithin(idx, q.Origin, q.MaxLegs)
	}

	for _, dest := range destinations {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("search trips: %w", err)
		}

		candidates := Combinations(idx, q.Origin, dest, q.Nights, q.Budget, filter)
		if q.MaxLegs > 1 {
			candidates = MultiHopCombinations(idx, q.Origin, dest, q.Nights, q.Budget, q.MaxLegs, filter)
		}
		for pkg := range candidates {
			pkg.Score = e.scorer.ScorePackage(pkg, sctx)
			top.Offer(pkg, pkg.Score)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("search trips: %w", err)
	}

	results := top.Drain()
	e.logger.DebugContext(ctx, "trip search finished",
		"req_id", obs.RequestID(ctx),
		"origin", q.Origin,
		"destinations", len(destinations),
		"candidates", top.Seen(),
		"results", len(results),
	)
	return results, nil
}

// SearchMultiCity returns the best multi-city trips for the query, best first.
func (e *Engine) SearchMultiCity(ctx context.Context, q MultiCityQuery) (_ []domain.MultiCityTrip, err error) {
	defer obs.Time(ctx, "search multi-city")(&err)

	idx := e.index.Load()
	sctx := NewScoringContext(idx, q.Budget, q.TotalNights)
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultResultLimit
	}
	top := NewTopK[domain.MultiCityTrip](limit)

	scoreStay := func(s domain.Stay) float64 { return e.scorer.ScoreStay(s, sctx) }
	for trip := range Itineraries(ctx, idx, q, scoreStay) {
		top.Offer(trip, trip.Score)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("search multi-city: %w", err)
	}

	results := top.Drain()
	e.logger.DebugContext(ctx, "multi-city search finished",
		"req_id", obs.RequestID(ctx),
		"origin", q.Origin,
		"candidates", top.Seen(),
		"results", len(results),
	)
	return results, nil
}
