package services

import (
	"iter"
	"trip-search-service/internal/domain"
)

const DefaultMaxLegs = 3

// RoutePaths enumerates every simple path (no repeated city) from start to end
// using at most maxLegs legs and costing at most priceCap.
//
// The search is depth-first; neighbours are visited in adjacency order and
// parallel legs in load order, so the output order is deterministic. Each
// yielded slice is a fresh copy the caller may keep.
func RoutePaths(idx *InventoryIndex, start, end string, maxLegs int, priceCap float64) iter.Seq[[]domain.TransitLeg] {
	return func(yield func([]domain.TransitLeg) bool) {
		if start == end || maxLegs < 1 || priceCap <= 0 {
			return
		}

		visited := map[string]bool{start: true}
		path := make([]domain.TransitLeg, 0, maxLegs)

		var walk func(city string, spent float64) bool
		walk = func(city string, spent float64) bool {
			for _, next := range idx.DestinationsFrom(city) {
				if visited[next] {
					continue
				}
				for _, leg := range idx.LegsOn(city, next) {
					cost := spent + leg.Price
					if cost > priceCap {
						continue
					}
					path = append(path, leg)

					if next == end {
						if !yield(append([]domain.TransitLeg(nil), path...)) {
							return false
						}
					} else if len(path) < maxLegs {
						visited[next] = true
						ok := walk(next, cost)
						visited[next] = false
						if !ok {
							return false
						}
					}
					path = path[:len(path)-1]
				}
			}
			return true
		}

		walk(start, 0)
	}
}

// ReachableWithin lists cities reachable from origin in at most maxLegs legs,
// breadth-first in adjacency order. The origin itself is excluded.
func ReachableWithin(idx *InventoryIndex, origin string, maxLegs int) []string {
	seen := map[string]bool{origin: true}
	var out []string
	frontier := []string{origin}
	for depth := 0; depth < maxLegs && len(frontier) > 0; depth++ {
		var next []string
		for _, city := range frontier {
			for _, dest := range idx.DestinationsFrom(city) {
				if seen[dest] {
					continue
				}
				seen[dest] = true
				out = append(out, dest)
				next = append(next, dest)
			}
		}
		frontier = next
	}
	return out
}
