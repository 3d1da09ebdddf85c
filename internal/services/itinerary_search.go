package services

import (
	"context"
	"iter"
	"math"
	"slices"
	"trip-search-service/internal/domain"
)

const DefaultMaxStayNights = 4

// Parameters of a multi-city search.
type MultiCityQuery struct {
	Origin         string
	Required       []string
	Optional       []string
	TotalNights    int
	Budget         float64
	Limit          int
	MinRating      float64
	MaxStayNights  int
	ReturnToOrigin bool
}

type itineraryNode struct {
	city      string
	budget    float64
	nights    int
	score     float64
	stays     []domain.Stay
	visited   map[string]bool
	remaining int // required cities not yet visited
}

// Itineraries walks the multi-city search tree depth-first and yields every
// complete trip: all required cities visited and nights summing exactly to
// TotalNights, with the running budget never going negative.
//
// At each node the children are unvisited candidate cities (required first,
// then optional, each in the given order) reachable by a direct leg, times
// lodging in that city, times a night count. Night counts sweep 1..MaxStayNights,
// capped so every still-unvisited required city can get at least one night.
// A stay that completes the required set may also take all remaining nights.
//
// stayScore is applied to every stay; a trip's score is the sum over its stays.
//
// The walk polls ctx every expandCheckEvery candidate stays, pruned or not,
// and stops early once it is done; callers inspect ctx.Err() afterwards.
func Itineraries(
	ctx context.Context,
	idx *InventoryIndex,
	q MultiCityQuery,
	stayScore func(domain.Stay) float64,
) iter.Seq[domain.MultiCityTrip] {
	return func(yield func(domain.MultiCityTrip) bool) {
		if q.TotalNights < 1 || !validBudget(q.Budget) || len(q.Required) == 0 {
			return
		}
		maxStay := q.MaxStayNights
		if maxStay < 1 {
			maxStay = DefaultMaxStayNights
		}

		required := make(map[string]bool, len(q.Required))
		candidates := make([]string, 0, len(q.Required)+len(q.Optional))
		for _, c := range q.Required {
			if c == q.Origin || required[c] {
				continue
			}
			required[c] = true
			candidates = append(candidates, c)
		}
		if len(candidates) == 0 {
			return
		}
		for _, c := range q.Optional {
			if c == q.Origin || required[c] || slices.Contains(candidates, c) {
				continue
			}
			candidates = append(candidates, c)
		}

		// Each required city needs at least one night.
		if len(required) > q.TotalNights {
			return
		}

		finish := func(n itineraryNode) bool {
			total := 0.0
			for _, st := range n.stays {
				total += st.Cost()
			}
			trip := domain.MultiCityTrip{
				Stays:       n.stays,
				TotalCost:   total,
				TotalNights: q.TotalNights,
				Score:       round2(n.score),
			}
			if !q.ReturnToOrigin {
				return yield(cloneTrip(trip))
			}
			for _, leg := range idx.LegsOn(n.city, q.Origin) {
				if leg.Price > n.budget {
					continue
				}
				home := domain.Stay{City: q.Origin, Leg: leg}
				t := trip
				t.Stays = append(append([]domain.Stay(nil), n.stays...), home)
				t.TotalCost += leg.Price
				t.Score = round2(n.score + stayScore(home))
				if !yield(t) {
					return false
				}
			}
			return true
		}

		var steps int
		var expand func(n itineraryNode) bool
		expand = func(n itineraryNode) bool {
			for _, city := range candidates {
				if n.visited[city] {
					continue
				}
				legs := idx.LegsOn(n.city, city)
				if len(legs) == 0 {
					continue
				}

				left := n.remaining
				if required[city] {
					left--
				}
				maxNights := n.nights - left
				if maxNights < 1 {
					continue
				}
				nightOptions := nightSweep(maxStay, maxNights, left == 0)

				for _, leg := range legs {
					if leg.Price > n.budget {
						continue
					}
					for _, lodging := range idx.LodgingIn(city) {
						if lodging.GuestRating < q.MinRating {
							continue
						}
						for _, nights := range nightOptions {
							if steps%expandCheckEvery == 0 && ctx.Err() != nil {
								return false
							}
							steps++

							stay := domain.Stay{City: city, Leg: leg, Lodging: ptr(lodging), Nights: nights}
							cost := stay.Cost()
							if cost > n.budget {
								// Night counts ascend, so longer stays cost more.
								break
							}

							child := itineraryNode{
								city:      city,
								budget:    n.budget - cost,
								nights:    n.nights - nights,
								score:     n.score + stayScore(stay),
								stays:     append(n.stays[:len(n.stays):len(n.stays)], stay),
								visited:   n.visited,
								remaining: left,
							}

							if child.remaining == 0 && child.nights == 0 {
								if !finish(child) {
									return false
								}
								continue
							}
							if child.nights == 0 {
								continue
							}

							n.visited[city] = true
							ok := expand(child)
							n.visited[city] = false
							if !ok {
								return false
							}
						}
					}
				}
			}
			return true
		}

		expand(itineraryNode{
			city:      q.Origin,
			budget:    q.Budget,
			nights:    q.TotalNights,
			visited:   map[string]bool{q.Origin: true},
			remaining: len(required),
		})
	}
}

// Context is polled once per this many candidate stays.
const expandCheckEvery = 256

// A budget must be positive and finite for any search to run.
func validBudget(b float64) bool {
	return b > 0 && !math.IsInf(b, 1)
}

// Night counts to try for one stay: 1..min(maxStay, maxNights), plus
// maxNights itself when the stay may close the trip.
func nightSweep(maxStay, maxNights int, closing bool) []int {
	upper := min(maxStay, maxNights)
	out := make([]int, 0, upper+1)
	for n := 1; n <= upper; n++ {
		out = append(out, n)
	}
	if closing && maxNights > upper {
		out = append(out, maxNights)
	}
	return out
}

func cloneTrip(t domain.MultiCityTrip) domain.MultiCityTrip {
	t.Stays = append([]domain.Stay(nil), t.Stays...)
	return t
}

func ptr[T any](v T) *T { return &v }
