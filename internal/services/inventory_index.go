package services

import (
	"encoding/binary"
	"math"
	"trip-search-service/internal/domain"

	"github.com/cespare/xxhash/v2"
)

type routeKey struct {
	origin      string
	destination string
}

// Dataset-wide price statistics used by the price sub-score.
type PriceStats struct {
	MaxLegPrice     float64
	MeanLegPrice    float64
	StdDevLegPrice  float64
	MaxNightlyPrice float64
	MeanNightly     float64
	StdDevNightly   float64
	MinNightlyPrice float64
}

// Read-only lookup structure over loaded inventory.
// An index is built once and never mutated; reloads build a new one.
type InventoryIndex struct {
	legsByRoute     map[routeKey][]domain.TransitLeg
	lodgingByCity   map[string][]domain.LodgingOption
	adjacency       map[string][]string
	popularity      map[string]float64
	cheapestNightly map[string]float64
	stats           PriceStats
	fingerprint     uint64
	legCount        int
	lodgingCount    int
}

// NewInventoryIndex groups legs by (origin, destination) and lodging by city,
// preserving input order within every group.
func NewInventoryIndex(legs []domain.TransitLeg, lodging []domain.LodgingOption) *InventoryIndex {
	idx := &InventoryIndex{
		legsByRoute:     make(map[routeKey][]domain.TransitLeg),
		lodgingByCity:   make(map[string][]domain.LodgingOption),
		adjacency:       make(map[string][]string),
		popularity:      make(map[string]float64),
		cheapestNightly: make(map[string]float64),
		legCount:        len(legs),
		lodgingCount:    len(lodging),
	}

	h := xxhash.New()
	var buf [8]byte
	writeFloat := func(f float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
		_, _ = h.Write(buf[:])
	}

	inbound := make(map[string]int)
	legPrices := make([]float64, 0, len(legs))
	for _, leg := range legs {
		key := routeKey{leg.Origin, leg.Destination}
		if _, seen := idx.legsByRoute[key]; !seen {
			idx.adjacency[leg.Origin] = append(idx.adjacency[leg.Origin], leg.Destination)
		}
		idx.legsByRoute[key] = append(idx.legsByRoute[key], leg)
		inbound[leg.Destination]++
		legPrices = append(legPrices, leg.Price)

		_, _ = h.WriteString(leg.ID)
		_, _ = h.WriteString(leg.Origin)
		_, _ = h.WriteString(leg.Destination)
		_, _ = h.WriteString(leg.Departure.String())
		_, _ = h.WriteString(leg.Arrival.String())
		writeFloat(leg.Price)
		for _, s := range leg.Stops {
			_, _ = h.WriteString(s)
		}
		if leg.Carrier != nil {
			_, _ = h.WriteString(*leg.Carrier)
		}
		if leg.Equipment != nil {
			_, _ = h.WriteString(*leg.Equipment)
		}
	}

	nightly := make([]float64, 0, len(lodging))
	for _, o := range lodging {
		idx.lodgingByCity[o.City] = append(idx.lodgingByCity[o.City], o)
		nightly = append(nightly, o.NightlyPrice)
		if cur, ok := idx.cheapestNightly[o.City]; !ok || o.NightlyPrice < cur {
			idx.cheapestNightly[o.City] = o.NightlyPrice
		}

		_, _ = h.WriteString(o.ID)
		_, _ = h.WriteString(o.City)
		writeFloat(o.NightlyPrice)
		writeFloat(o.GuestRating)
		writeFloat(float64(o.Class))
		for _, a := range o.Amenities {
			_, _ = h.WriteString(a)
		}
	}

	maxInbound := 0
	for _, n := range inbound {
		maxInbound = max(maxInbound, n)
	}
	if maxInbound > 0 {
		for city, n := range inbound {
			idx.popularity[city] = float64(n) / float64(maxInbound)
		}
	}

	idx.stats.MaxLegPrice, idx.stats.MeanLegPrice, idx.stats.StdDevLegPrice = describe(legPrices)
	idx.stats.MaxNightlyPrice, idx.stats.MeanNightly, idx.stats.StdDevNightly = describe(nightly)
	for i, p := range nightly {
		if i == 0 || p < idx.stats.MinNightlyPrice {
			idx.stats.MinNightlyPrice = p
		}
	}
	idx.fingerprint = h.Sum64()

	return idx
}

func describe(values []float64) (maxV, mean, stddev float64) {
	if len(values) == 0 {
		return 0, 0, 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
		maxV = max(maxV, v)
	}
	mean = sum / float64(len(values))
	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	return maxV, mean, math.Sqrt(variance / float64(len(values)))
}

// LegsOn returns legs from origin to destination in insertion order.
func (idx *InventoryIndex) LegsOn(origin, destination string) []domain.TransitLeg {
	return idx.legsByRoute[routeKey{origin, destination}]
}

// LodgingIn returns lodging in the city in insertion order.
func (idx *InventoryIndex) LodgingIn(city string) []domain.LodgingOption {
	return idx.lodgingByCity[city]
}

// Inbound-leg density normalised to [0,1]; unknown cities score 0.
func (idx *InventoryIndex) Popularity(city string) float64 {
	return idx.popularity[city]
}

// DestinationsFrom lists cities directly reachable from origin, in the order
// their first leg was loaded.
func (idx *InventoryIndex) DestinationsFrom(origin string) []string {
	return idx.adjacency[origin]
}

// Cheapest nightly rate in the city, false when the city has no lodging.
func (idx *InventoryIndex) CheapestNightly(city string) (float64, bool) {
	p, ok := idx.cheapestNightly[city]
	return p, ok
}

func (idx *InventoryIndex) Stats() PriceStats { return idx.stats }

// Content hash of the inventory; two indexes built from identical input agree.
func (idx *InventoryIndex) Fingerprint() uint64 { return idx.fingerprint }

func (idx *InventoryIndex) LegCount() int     { return idx.legCount }
func (idx *InventoryIndex) LodgingCount() int { return idx.lodgingCount }
