package domain

// Represents a lodging property with a nightly rate in a single city.
type LodgingOption struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	City         string   `json:"city"`
	Class        int      `json:"class"`
	GuestRating  float64  `json:"guest_rating"`
	NightlyPrice float64  `json:"nightly_price"`
	Amenities    []string `json:"amenities"`
}

func (o LodgingOption) CostFor(nights int) float64 {
	return o.NightlyPrice * float64(nights)
}
