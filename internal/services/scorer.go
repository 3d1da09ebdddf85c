package services

import (
	"math"
	"strings"
	"trip-search-service/internal/domain"
)

// Per-request inputs the scorer needs beyond the candidate itself.
// Built once per search and shared read-only by every candidate.
type ScoringContext struct {
	Budget     float64
	Nights     int
	Stats      PriceStats
	Popularity func(city string) float64
}

func NewScoringContext(idx *InventoryIndex, budget float64, nights int) ScoringContext {
	return ScoringContext{
		Budget:     budget,
		Nights:     nights,
		Stats:      idx.Stats(),
		Popularity: idx.Popularity,
	}
}

// Sub-scores of a candidate, each in [0,100].
type ScoreBreakdown struct {
	Price       float64 `json:"price"`
	Transit     float64 `json:"transit"`
	Lodging     float64 `json:"lodging"`
	Destination float64 `json:"destination"`
	Total       float64 `json:"total"`
}

// Scorer turns candidates into composite scores. It holds no mutable state
// and is safe for concurrent use.
type Scorer struct {
	cfg ScoringConfig
}

func NewScorer(cfg ScoringConfig) (*Scorer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{cfg: cfg}, nil
}

func (s *Scorer) Config() ScoringConfig { return s.cfg }

func (s *Scorer) ScorePackage(p domain.TripPackage, sctx ScoringContext) float64 {
	return s.BreakdownPackage(p, sctx).Total
}

func (s *Scorer) BreakdownPackage(p domain.TripPackage, sctx ScoringContext) ScoreBreakdown {
	st := sctx.Stats
	nights := float64(p.Nights)

	// Cost of the most expensive direct round trip plus the dearest stay.
	reference := 2*st.MaxLegPrice + st.MaxNightlyPrice*nights
	if sctx.Budget > 0 && (reference <= 0 || sctx.Budget < reference) {
		reference = sctx.Budget
	}
	mean := 2*st.MeanLegPrice + st.MeanNightly*nights
	stddev := math.Sqrt(2*st.StdDevLegPrice*st.StdDevLegPrice + nights*nights*st.StdDevNightly*st.StdDevNightly)

	transit := s.cfg.OutboundShare*s.pathScore(p.Outbound) + (1-s.cfg.OutboundShare)*s.pathScore(p.Return)

	b := ScoreBreakdown{
		Price:       s.priceScore(p.TotalCost, reference, mean, stddev),
		Transit:     transit,
		Lodging:     s.lodgingScore(p.Lodging),
		Destination: s.destinationScore(sctx, p.Destination),
	}
	b.Total = s.composite(b)
	return b
}

// ScoreStay scores one multi-city stay with the same sub-scores, using the
// arrival leg as the only transit component.
func (s *Scorer) ScoreStay(stay domain.Stay, sctx ScoringContext) float64 {
	st := sctx.Stats
	nights := float64(stay.Nights)

	reference := st.MaxLegPrice + st.MaxNightlyPrice*nights
	if sctx.Budget > 0 && (reference <= 0 || sctx.Budget < reference) {
		reference = sctx.Budget
	}
	mean := st.MeanLegPrice + st.MeanNightly*nights
	stddev := math.Sqrt(st.StdDevLegPrice*st.StdDevLegPrice + nights*nights*st.StdDevNightly*st.StdDevNightly)

	b := ScoreBreakdown{
		Price:       s.priceScore(stay.Cost(), reference, mean, stddev),
		Transit:     s.LegScore(stay.Leg),
		Destination: s.destinationScore(sctx, stay.City),
	}
	if stay.Lodging != nil {
		b.Lodging = s.lodgingScore(*stay.Lodging)
	}
	return s.composite(b)
}

func (s *Scorer) composite(b ScoreBreakdown) float64 {
	w := s.cfg.Weights
	total := w.Price*b.Price + w.Transit*b.Transit + w.Lodging*b.Lodging + w.Destination*b.Destination
	return round2(clamp(total, 0, 100))
}

func (s *Scorer) priceScore(cost, reference, mean, stddev float64) float64 {
	if s.cfg.PriceModel == PriceLogistic {
		if stddev <= 0 {
			stddev = 1
		}
		z := (mean - cost) / stddev
		return clamp(100/(1+math.Exp(-z)), 0, 100)
	}
	if reference <= 0 {
		return 0
	}
	return clamp(100*(1-cost/reference), 0, 100)
}

// Average leg score along a path, less one stop penalty per connection.
func (s *Scorer) pathScore(path []domain.TransitLeg) float64 {
	if len(path) == 0 {
		return 0
	}
	sum := 0.0
	for _, l := range path {
		sum += s.LegScore(l)
	}
	avg := sum/float64(len(path)) - s.cfg.StopPenalty*float64(len(path)-1)
	return clamp(avg, 0, 100)
}

// LegScore combines the departure band (less the stop penalty) with carrier
// and equipment tiers when the leg carries them.
func (s *Scorer) LegScore(l domain.TransitLeg) float64 {
	timeScore := max(0, s.BandScore(l.Departure)-s.cfg.StopPenalty*float64(l.StopCount()))

	num := timeScore * s.cfg.TimeWeight
	den := s.cfg.TimeWeight
	if v, ok := lookupTier(s.cfg.CarrierTiers, l.Carrier); ok {
		num += v * s.cfg.CarrierWeight
		den += s.cfg.CarrierWeight
	}
	if v, ok := lookupTier(s.cfg.EquipmentTiers, l.Equipment); ok {
		num += v * s.cfg.EquipmentWeight
		den += s.cfg.EquipmentWeight
	}
	return clamp(num/den, 0, 100)
}

// BandScore returns the value of the first band containing the departure
// hour, or the off-hours score.
func (s *Scorer) BandScore(departure domain.Clock) float64 {
	h := departure.Hour()
	for _, b := range s.cfg.TimeBands {
		if h >= b.StartHour && h < b.EndHour {
			return b.Score
		}
	}
	return s.cfg.OffHoursScore
}

// Unknown names count as absent metadata.
func lookupTier(tiers map[string]float64, name *string) (float64, bool) {
	if name == nil {
		return 0, false
	}
	v, ok := tiers[strings.ToUpper(strings.TrimSpace(*name))]
	return v, ok
}

func (s *Scorer) lodgingScore(o domain.LodgingOption) float64 {
	v := float64(o.Class)*s.cfg.ClassMultiplier +
		o.GuestRating*s.cfg.RatingMultiplier +
		float64(len(o.Amenities))*s.cfg.AmenityMultiplier
	return clamp(v, 0, 100)
}

func (s *Scorer) destinationScore(sctx ScoringContext, city string) float64 {
	if sctx.Popularity == nil {
		return 0
	}
	return clamp(sctx.Popularity(city)*100*s.cfg.DestinationScale, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
