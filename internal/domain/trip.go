package domain

// A complete single-destination package: outbound path, lodging for the stay,
// and return path. TotalCost never exceeds the budget it was generated for.
type TripPackage struct {
	Destination string        `json:"destination"`
	Outbound    []TransitLeg  `json:"outbound"`
	Return      []TransitLeg  `json:"return"`
	Lodging     LodgingOption `json:"lodging"`
	Nights      int           `json:"nights"`
	TotalCost   float64       `json:"total_cost"`
	Score       float64       `json:"score"`
}

func (p TripPackage) Stops() int {
	return PathStops(p.Outbound) + PathStops(p.Return)
}

// One stop of a multi-city itinerary. Lodging is nil only for a final
// leg that needs no overnight stay.
type Stay struct {
	City    string         `json:"city"`
	Leg     TransitLeg     `json:"leg"`
	Lodging *LodgingOption `json:"lodging,omitempty"`
	Nights  int            `json:"nights"`
}

func (s Stay) Cost() float64 {
	cost := s.Leg.Price
	if s.Lodging != nil {
		cost += s.Lodging.CostFor(s.Nights)
	}
	return cost
}

// An ordered sequence of stays starting from the origin.
type MultiCityTrip struct {
	Stays       []Stay  `json:"stays"`
	TotalCost   float64 `json:"total_cost"`
	TotalNights int     `json:"total_nights"`
	Score       float64 `json:"score"`
}

// Cities in visiting order.
func (t MultiCityTrip) CitiesVisited() []string {
	out := make([]string, 0, len(t.Stays))
	for _, s := range t.Stays {
		out = append(out, s.City)
	}
	return out
}
