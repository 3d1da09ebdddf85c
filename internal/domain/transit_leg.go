package domain

// Represents one scheduled transit segment between two cities.
// Carrier and Equipment are optional metadata; a nil pointer means the
// inventory source did not provide them. Legs are immutable once loaded.
type TransitLeg struct {
	ID          string   `json:"id"`
	Origin      string   `json:"origin"`
	Destination string   `json:"destination"`
	Departure   Clock    `json:"departure"`
	Arrival     Clock    `json:"arrival"`
	Price       float64  `json:"price"`
	Stops       []string `json:"stops"`
	Carrier     *string  `json:"carrier,omitempty"`
	Equipment   *string  `json:"equipment,omitempty"`
}

// Duration in minutes; an arrival earlier than the departure is the next day.
func (l TransitLeg) Duration() int { return l.Departure.Until(l.Arrival) }

func (l TransitLeg) IsDirect() bool { return len(l.Stops) == 0 }

func (l TransitLeg) StopCount() int { return len(l.Stops) }

// Sum of leg prices along a path.
func PathPrice(path []TransitLeg) float64 {
	total := 0.0
	for _, l := range path {
		total += l.Price
	}
	return total
}

// Stops listed on the legs of a path. Connections between legs are not
// counted here; the transit score penalises them separately.
func PathStops(path []TransitLeg) int {
	n := 0
	for _, l := range path {
		n += l.StopCount()
	}
	return n
}
