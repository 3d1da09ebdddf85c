package services

import (
	"iter"
	"strings"
	"trip-search-service/internal/domain"
)

// Candidate filters shared by both generation modes.
type CandidateFilter struct {
	// Lodging below this guest rating is skipped; zero disables the filter.
	MinRating float64
	// Outbound plus return stop count limit; nil means unlimited.
	MaxStops *int
}

func (f CandidateFilter) lodgingOK(o domain.LodgingOption) bool {
	return o.GuestRating >= f.MinRating
}

func (f CandidateFilter) stopsOK(stops int) bool {
	return f.MaxStops == nil || stops <= *f.MaxStops
}

// Combinations streams every direct-leg package for one destination whose
// total cost stays within budget.
//
// Loop order is lodging, outbound, return. A lodging whose stay cost is not
// strictly below the budget is skipped, an outbound leg must leave a positive
// remainder, and a return leg must fit in that remainder.
func Combinations(
	idx *InventoryIndex,
	origin, destination string,
	nights int,
	budget float64,
	filter CandidateFilter,
) iter.Seq[domain.TripPackage] {
	return func(yield func(domain.TripPackage) bool) {
		if nights < 1 || !validBudget(budget) || origin == destination {
			return
		}

		outbound := idx.LegsOn(origin, destination)
		inbound := idx.LegsOn(destination, origin)
		if len(outbound) == 0 || len(inbound) == 0 {
			return
		}

		for _, lodging := range idx.LodgingIn(destination) {
			if !filter.lodgingOK(lodging) {
				continue
			}
			lodgingCost := lodging.CostFor(nights)
			if lodgingCost >= budget {
				continue
			}

			for _, out := range outbound {
				remaining := budget - lodgingCost - out.Price
				if remaining <= 0 {
					continue
				}

				for _, ret := range inbound {
					if ret.Price > remaining {
						continue
					}
					if !filter.stopsOK(out.StopCount() + ret.StopCount()) {
						continue
					}

					pkg := domain.TripPackage{
						Destination: destination,
						Outbound:    []domain.TransitLeg{out},
						Return:      []domain.TransitLeg{ret},
						Lodging:     lodging,
						Nights:      nights,
						TotalCost:   lodgingCost + out.Price + ret.Price,
					}
					if !yield(pkg) {
						return
					}
				}
			}
		}
	}
}

// MultiHopCombinations pairs every simple outbound path with every simple
// return path (each of at most maxLegs legs) and every qualifying lodging.
// Identical (outbound, return, lodging) triples are emitted once.
func MultiHopCombinations(
	idx *InventoryIndex,
	origin, destination string,
	nights int,
	budget float64,
	maxLegs int,
	filter CandidateFilter,
) iter.Seq[domain.TripPackage] {
	return func(yield func(domain.TripPackage) bool) {
		if nights < 1 || !validBudget(budget) || origin == destination {
			return
		}

		cheapest, ok := idx.CheapestNightly(destination)
		if !ok {
			return
		}
		// No path can cost more than what is left after the cheapest stay.
		pathCap := budget - cheapest*float64(nights)
		if pathCap <= 0 {
			return
		}

		outPaths := collectPaths(RoutePaths(idx, origin, destination, maxLegs, pathCap))
		if len(outPaths) == 0 {
			return
		}
		retPaths := collectPaths(RoutePaths(idx, destination, origin, maxLegs, pathCap))
		if len(retPaths) == 0 {
			return
		}

		seen := make(map[string]struct{})
		for _, lodging := range idx.LodgingIn(destination) {
			if !filter.lodgingOK(lodging) {
				continue
			}
			lodgingCost := lodging.CostFor(nights)
			if lodgingCost >= budget {
				continue
			}

			for _, out := range outPaths {
				if budget-lodgingCost-out.price <= 0 {
					continue
				}

				for _, ret := range retPaths {
					total := lodgingCost + out.price + ret.price
					if total > budget {
						continue
					}
					if !filter.stopsOK(out.stops + ret.stops) {
						continue
					}

					key := out.key + "|" + ret.key + "|" + lodging.ID
					if _, dup := seen[key]; dup {
						continue
					}
					seen[key] = struct{}{}

					pkg := domain.TripPackage{
						Destination: destination,
						Outbound:    out.legs,
						Return:      ret.legs,
						Lodging:     lodging,
						Nights:      nights,
						TotalCost:   total,
					}
					if !yield(pkg) {
						return
					}
				}
			}
		}
	}
}

type pricedPath struct {
	legs  []domain.TransitLeg
	price float64
	stops int
	key   string
}

func collectPaths(seq iter.Seq[[]domain.TransitLeg]) []pricedPath {
	var out []pricedPath
	for legs := range seq {
		ids := make([]string, len(legs))
		for i, l := range legs {
			ids[i] = l.ID
		}
		out = append(out, pricedPath{
			legs:  legs,
			price: domain.PathPrice(legs),
			stops: domain.PathStops(legs),
			key:   strings.Join(ids, ","),
		})
	}
	return out
}
