package repositories

import (
	"fmt"
	"log/slog"
	"strings"
	"trip-search-service/internal/domain"

	gojson "github.com/goccy/go-json"
)

// Raw transit leg as it appears in seed files.
type LegRecord struct {
	ID            string   `json:"id"`
	From          string   `json:"from"`
	To            string   `json:"to"`
	DepartureTime string   `json:"departure_time"`
	ArrivalTime   string   `json:"arrival_time"`
	Price         float64  `json:"price"`
	Stops         []string `json:"stops"`
	Airline       *string  `json:"airline,omitempty"`
	Aircraft      *string  `json:"aircraft,omitempty"`
}

// Raw lodging option as it appears in seed files.
type LodgingRecord struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	CityCode      string   `json:"city_code"`
	Stars         int      `json:"stars"`
	Rating        float64  `json:"rating"`
	PricePerNight float64  `json:"price_per_night"`
	Amenities     []string `json:"amenities"`
}

// Outcome of parsing one seed file. Rejected records are reported, not fatal.
type IngestReport struct {
	Accepted int
	Rejected []RejectedRecord
}

type RejectedRecord struct {
	Index  int
	ID     string
	Reason string
}

func (r *IngestReport) reject(i int, id, reason string) {
	r.Rejected = append(r.Rejected, RejectedRecord{Index: i, ID: id, Reason: reason})
}

// Log rejected records at warn level.
func (r IngestReport) Log(logger *slog.Logger, kind string) {
	for _, rej := range r.Rejected {
		logger.Warn("inventory record rejected", "kind", kind, "index", rej.Index, "id", rej.ID, "reason", rej.Reason)
	}
	logger.Info("inventory parsed", "kind", kind, "accepted", r.Accepted, "rejected", len(r.Rejected))
}

func normalizeCity(code string) (string, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return "", false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return "", false
		}
	}
	return code, true
}

func optionalString(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// ToLeg validates a raw record and converts it into a TransitLeg.
func (rec LegRecord) ToLeg() (domain.TransitLeg, error) {
	id := strings.TrimSpace(rec.ID)
	if id == "" {
		return domain.TransitLeg{}, fmt.Errorf("id must not be empty")
	}
	from, ok := normalizeCity(rec.From)
	if !ok {
		return domain.TransitLeg{}, fmt.Errorf("invalid origin %q", rec.From)
	}
	to, ok := normalizeCity(rec.To)
	if !ok {
		return domain.TransitLeg{}, fmt.Errorf("invalid destination %q", rec.To)
	}
	if from == to {
		return domain.TransitLeg{}, fmt.Errorf("origin equals destination %q", from)
	}
	dep, err := domain.ParseClock(rec.DepartureTime)
	if err != nil {
		return domain.TransitLeg{}, err
	}
	arr, err := domain.ParseClock(rec.ArrivalTime)
	if err != nil {
		return domain.TransitLeg{}, err
	}
	if rec.Price <= 0 {
		return domain.TransitLeg{}, fmt.Errorf("price must be positive, got %v", rec.Price)
	}

	stops := make([]string, 0, len(rec.Stops))
	for _, s := range rec.Stops {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			stops = append(stops, s)
		}
	}

	return domain.TransitLeg{
		ID:          id,
		Origin:      from,
		Destination: to,
		Departure:   dep,
		Arrival:     arr,
		Price:       rec.Price,
		Stops:       stops,
		Carrier:     optionalString(rec.Airline),
		Equipment:   optionalString(rec.Aircraft),
	}, nil
}

// ToLodging validates a raw record and converts it into a LodgingOption.
// Guest ratings outside [0,5] are clamped rather than rejected.
func (rec LodgingRecord) ToLodging() (domain.LodgingOption, error) {
	id := strings.TrimSpace(rec.ID)
	if id == "" {
		return domain.LodgingOption{}, fmt.Errorf("id must not be empty")
	}
	city, ok := normalizeCity(rec.CityCode)
	if !ok {
		return domain.LodgingOption{}, fmt.Errorf("invalid city code %q", rec.CityCode)
	}
	if rec.Stars < 1 || rec.Stars > 5 {
		return domain.LodgingOption{}, fmt.Errorf("stars must be within 1-5, got %d", rec.Stars)
	}
	if rec.PricePerNight <= 0 {
		return domain.LodgingOption{}, fmt.Errorf("price per night must be positive, got %v", rec.PricePerNight)
	}

	rating := min(max(rec.Rating, 0), 5)
	amenities := make([]string, 0, len(rec.Amenities))
	for _, a := range rec.Amenities {
		if a = strings.TrimSpace(a); a != "" {
			amenities = append(amenities, a)
		}
	}

	return domain.LodgingOption{
		ID:           id,
		Name:         strings.TrimSpace(rec.Name),
		City:         city,
		Class:        rec.Stars,
		GuestRating:  rating,
		NightlyPrice: rec.PricePerNight,
		Amenities:    amenities,
	}, nil
}

// ParseLegs decodes a JSON array of leg records, keeping valid ones in input order.
// Only a malformed document is an error.
func ParseLegs(data []byte) ([]domain.TransitLeg, IngestReport, error) {
	var raw []LegRecord
	if err := gojson.Unmarshal(data, &raw); err != nil {
		return nil, IngestReport{}, fmt.Errorf("parse legs: %w", err)
	}

	var report IngestReport
	legs := make([]domain.TransitLeg, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for i, rec := range raw {
		leg, err := rec.ToLeg()
		if err != nil {
			report.reject(i, rec.ID, err.Error())
			continue
		}
		if _, dup := seen[leg.ID]; dup {
			report.reject(i, rec.ID, "duplicate id")
			continue
		}
		seen[leg.ID] = struct{}{}
		legs = append(legs, leg)
	}
	report.Accepted = len(legs)
	return legs, report, nil
}

// ParseLodging decodes a JSON array of lodging records, keeping valid ones in input order.
func ParseLodging(data []byte) ([]domain.LodgingOption, IngestReport, error) {
	var raw []LodgingRecord
	if err := gojson.Unmarshal(data, &raw); err != nil {
		return nil, IngestReport{}, fmt.Errorf("parse lodging: %w", err)
	}

	var report IngestReport
	out := make([]domain.LodgingOption, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for i, rec := range raw {
		o, err := rec.ToLodging()
		if err != nil {
			report.reject(i, rec.ID, err.Error())
			continue
		}
		if _, dup := seen[o.ID]; dup {
			report.reject(i, rec.ID, "duplicate id")
			continue
		}
		seen[o.ID] = struct{}{}
		out = append(out, o)
	}
	report.Accepted = len(out)
	return out, report, nil
}
