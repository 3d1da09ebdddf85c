package services

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

type PriceModel string

const (
	// 100 at zero cost falling linearly to 0 at the reference cost.
	PriceLinear PriceModel = "linear"
	// Logistic curve over the z-score of cost against the dataset mean.
	PriceLogistic PriceModel = "logistic"
)

// Relative weights of the four sub-scores. They must sum to 1.
type Weights struct {
	Price       float64
	Transit     float64
	Lodging     float64
	Destination float64
}

func (w Weights) Sum() float64 { return w.Price + w.Transit + w.Lodging + w.Destination }

// A departure window [StartHour, EndHour) and its value.
type TimeBand struct {
	Name      string
	StartHour int
	EndHour   int
	Score     float64
}

type ScoringConfig struct {
	Weights    Weights
	PriceModel PriceModel

	TimeBands     []TimeBand
	OffHoursScore float64
	StopPenalty   float64

	// Tier scores keyed by upper-cased carrier / equipment name.
	CarrierTiers   map[string]float64
	EquipmentTiers map[string]float64

	// Blend of the per-leg transit components. Carrier and equipment only
	// count when the leg carries that metadata.
	TimeWeight      float64
	CarrierWeight   float64
	EquipmentWeight float64

	// Share of the transit score taken from the outbound path.
	OutboundShare float64

	ClassMultiplier   float64
	RatingMultiplier  float64
	AmenityMultiplier float64

	DestinationScale float64
}

func DefaultWeights() Weights {
	return Weights{Price: 0.35, Transit: 0.40, Lodging: 0.20, Destination: 0.05}
}

func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		Weights:    DefaultWeights(),
		PriceModel: PriceLinear,
		TimeBands: []TimeBand{
			{Name: "peak_morning", StartHour: 8, EndHour: 11, Score: 100},
			{Name: "midday", StartHour: 11, EndHour: 16, Score: 80},
			{Name: "early_morning", StartHour: 6, EndHour: 8, Score: 60},
			{Name: "evening", StartHour: 16, EndHour: 21, Score: 50},
		},
		OffHoursScore: 20,
		StopPenalty:   40,
		CarrierTiers: tierMap(
			tier(100, "Emirates", "Singapore Airlines", "Qatar Airways", "ANA", "Etihad"),
			tier(80, "United", "American", "Delta", "Lufthansa", "British Airways"),
			tier(50, "Spirit", "Frontier", "Ryanair", "EasyJet"),
		),
		EquipmentTiers: tierMap(
			tier(100, "B777", "A350", "B787", "A380", "A330"),
			tier(70, "A320", "B737", "A321", "B738"),
			tier(40, "E190", "CRJ", "E170", "ATR72"),
		),
		TimeWeight:        0.65,
		CarrierWeight:     0.20,
		EquipmentWeight:   0.15,
		OutboundShare:     0.6,
		ClassMultiplier:   10,
		RatingMultiplier:  8,
		AmenityMultiplier: 3,
		DestinationScale:  1,
	}
}

type tierEntry struct {
	score float64
	names []string
}

func tier(score float64, names ...string) tierEntry { return tierEntry{score, names} }

func tierMap(tiers ...tierEntry) map[string]float64 {
	m := make(map[string]float64)
	for _, t := range tiers {
		for _, n := range t.names {
			m[strings.ToUpper(n)] = t.score
		}
	}
	return m
}

const weightTolerance = 1e-6

func (c ScoringConfig) Validate() error {
	w := c.Weights
	if w.Price < 0 || w.Transit < 0 || w.Lodging < 0 || w.Destination < 0 {
		return errors.New("scoring config: weights must be non-negative")
	}
	if math.Abs(w.Sum()-1) > weightTolerance {
		return fmt.Errorf("scoring config: weights sum to %.4f, want 1", w.Sum())
	}
	switch c.PriceModel {
	case PriceLinear, PriceLogistic:
	default:
		return fmt.Errorf("scoring config: unknown price model %q", c.PriceModel)
	}
	for _, b := range c.TimeBands {
		if b.StartHour < 0 || b.EndHour > 24 || b.StartHour >= b.EndHour {
			return fmt.Errorf("scoring config: invalid time band %q", b.Name)
		}
	}
	if c.TimeWeight <= 0 {
		return errors.New("scoring config: time weight must be positive")
	}
	if c.OutboundShare < 0 || c.OutboundShare > 1 {
		return errors.New("scoring config: outbound share must be within [0,1]")
	}
	return nil
}
