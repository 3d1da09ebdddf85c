package dto

type LegResponse struct {
	ID              string   `json:"id"`
	Origin          string   `json:"origin"`
	Destination     string   `json:"destination"`
	DepartureTime   string   `json:"departure_time"`
	ArrivalTime     string   `json:"arrival_time"`
	DurationMinutes int      `json:"duration_minutes"`
	Price           float64  `json:"price"`
	Stops           []string `json:"stops"`
	Carrier         *string  `json:"carrier,omitempty"`
	Equipment       *string  `json:"equipment,omitempty"`
}

type LodgingResponse struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	City         string   `json:"city"`
	Class        int      `json:"class"`
	GuestRating  float64  `json:"guest_rating"`
	NightlyPrice float64  `json:"nightly_price"`
	Amenities    []string `json:"amenities"`
}

type TripResponse struct {
	Destination string          `json:"destination"`
	Outbound    []LegResponse   `json:"outbound"`
	Return      []LegResponse   `json:"return"`
	Lodging     LodgingResponse `json:"lodging"`
	Nights      int             `json:"nights"`
	TotalCost   float64         `json:"total_cost"`
	Score       float64         `json:"score"`
}

type SearchResponse struct {
	Origin   string         `json:"origin"`
	Nights   int            `json:"nights"`
	Budget   float64        `json:"budget"`
	Count    int            `json:"count"`
	CacheHit bool           `json:"cache_hit"`
	Trips    []TripResponse `json:"trips"`
}

type StayResponse struct {
	City    string           `json:"city"`
	Arrival LegResponse      `json:"arrival"`
	Lodging *LodgingResponse `json:"lodging,omitempty"`
	Nights  int              `json:"nights"`
	Cost    float64          `json:"cost"`
}

type MultiCityTripResponse struct {
	Cities      []string       `json:"cities"`
	Stays       []StayResponse `json:"stays"`
	TotalCost   float64        `json:"total_cost"`
	TotalNights int            `json:"total_nights"`
	Score       float64        `json:"score"`
}

type MultiCitySearchResponse struct {
	Origin      string                  `json:"origin"`
	MustVisit   []string                `json:"must_visit"`
	Optional    []string                `json:"optional_visit"`
	TotalNights int                     `json:"total_nights"`
	Budget      float64                 `json:"budget"`
	Count       int                     `json:"count"`
	CacheHit    bool                    `json:"cache_hit"`
	Trips       []MultiCityTripResponse `json:"trips"`
}

type ReloadResponse struct {
	Legs        int    `json:"legs"`
	Lodging     int    `json:"lodging"`
	Fingerprint string `json:"fingerprint"`
	Invalidated int    `json:"invalidated"`
}
