package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"trip-search-service/internal/api/dto"
	"trip-search-service/internal/domain"
	"trip-search-service/internal/platform/obs"
	"trip-search-service/internal/services"
)

const (
	maxNights     = 30
	maxSearchLegs = 4
	maxRating     = 5
)

// TripSearcher is the search surface the HTTP layer needs.
type TripSearcher interface {
	Search(ctx context.Context, q services.TripQuery) (services.TripResult, error)
	SearchMultiCity(ctx context.Context, q services.MultiCityQuery) (services.MultiCityResult, error)
}

// SearchHandler serves single-destination and multi-city searches.
type SearchHandler struct {
	Trips TripSearcher

	DefaultLimit  int
	MaxLimit      int
	MaxLegs       int // upper bound for max_legs; never above 4
	MaxStayNights int
}

func (h *SearchHandler) maxLimit() int {
	if h.MaxLimit <= 0 {
		return 50
	}
	return h.MaxLimit
}

func (h *SearchHandler) defaultLimit() int {
	if h.DefaultLimit <= 0 {
		return min(services.DefaultResultLimit, h.maxLimit())
	}
	return h.DefaultLimit
}

func (h *SearchHandler) maxLegs() int {
	if h.MaxLegs <= 0 || h.MaxLegs > maxSearchLegs {
		return maxSearchLegs
	}
	return h.MaxLegs
}

// Search handles GET /search.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	q, err := h.parseTripQuery(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.Trips.Search(r.Context(), q)
	if err != nil {
		writeSearchFailure(w, r, err)
		return
	}
	if len(res.Trips) == 0 {
		writeError(w, r, http.StatusNotFound, "no trips found within budget")
		return
	}

	resp := dto.SearchResponse{
		Origin:   q.Origin,
		Nights:   q.Nights,
		Budget:   q.Budget,
		Count:    len(res.Trips),
		CacheHit: res.CacheHit,
		Trips:    make([]dto.TripResponse, 0, len(res.Trips)),
	}
	for _, p := range res.Trips {
		resp.Trips = append(resp.Trips, toTripResponse(p))
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// MultiCity handles GET /multi-city-search.
func (h *SearchHandler) MultiCity(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	q, err := h.parseMultiCityQuery(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.Trips.SearchMultiCity(r.Context(), q)
	if err != nil {
		writeSearchFailure(w, r, err)
		return
	}
	if len(res.Trips) == 0 {
		writeError(w, r, http.StatusNotFound, "no trips found within budget")
		return
	}

	resp := dto.MultiCitySearchResponse{
		Origin:      q.Origin,
		MustVisit:   q.Required,
		Optional:    q.Optional,
		TotalNights: q.TotalNights,
		Budget:      q.Budget,
		Count:       len(res.Trips),
		CacheHit:    res.CacheHit,
		Trips:       make([]dto.MultiCityTripResponse, 0, len(res.Trips)),
	}
	if resp.Optional == nil {
		resp.Optional = []string{}
	}
	for _, t := range res.Trips {
		resp.Trips = append(resp.Trips, toMultiCityResponse(t))
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (h *SearchHandler) parseTripQuery(r *http.Request) (services.TripQuery, error) {
	v := r.URL.Query()
	var (
		q   services.TripQuery
		err error
	)
	if q.Origin, err = cityParam(v, "origin"); err != nil {
		return q, err
	}
	if q.Nights, err = intParam(v, "nights", 0, 1, maxNights, true); err != nil {
		return q, err
	}
	if q.Budget, err = budgetParam(v); err != nil {
		return q, err
	}
	if q.Limit, err = intParam(v, "limit", h.defaultLimit(), 1, h.maxLimit(), false); err != nil {
		return q, err
	}
	if q.MinRating, err = ratingParam(v); err != nil {
		return q, err
	}
	if q.MaxStops, err = optionalIntParam(v, "max_stops", 0, 1<<16); err != nil {
		return q, err
	}
	if q.MaxLegs, err = intParam(v, "max_legs", 1, 1, h.maxLegs(), false); err != nil {
		return q, err
	}
	return q, nil
}

func (h *SearchHandler) parseMultiCityQuery(r *http.Request) (services.MultiCityQuery, error) {
	v := r.URL.Query()
	q := services.MultiCityQuery{MaxStayNights: h.MaxStayNights}
	var err error
	if q.Origin, err = cityParam(v, "origin"); err != nil {
		return q, err
	}
	if q.Required, err = cityListParam(v, "must_visit", true); err != nil {
		return q, err
	}
	if q.Optional, err = cityListParam(v, "optional_visit", false); err != nil {
		return q, err
	}
	if q.TotalNights, err = intParam(v, "total_nights", 0, 1, maxNights, true); err != nil {
		return q, err
	}
	if q.Budget, err = budgetParam(v); err != nil {
		return q, err
	}
	if q.Limit, err = intParam(v, "limit", h.defaultLimit(), 1, h.maxLimit(), false); err != nil {
		return q, err
	}
	if q.MinRating, err = ratingParam(v); err != nil {
		return q, err
	}
	if q.ReturnToOrigin, err = boolParam(v, "return_home"); err != nil {
		return q, err
	}
	return q, nil
}

func budgetParam(v url.Values) (float64, error) {
	b, err := floatParam(v, "budget", 0, true)
	if err != nil {
		return 0, err
	}
	if b <= 0 {
		return 0, errors.New("budget must be greater than 0")
	}
	return b, nil
}

func ratingParam(v url.Values) (float64, error) {
	f, err := floatParam(v, "min_rating", 0, false)
	if err != nil {
		return 0, err
	}
	if f < 0 || f > maxRating {
		return 0, errors.New("min_rating must be between 0 and 5")
	}
	return f, nil
}

func writeSearchFailure(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.DeadlineExceeded) {
		writeError(w, r, http.StatusGatewayTimeout, "search timed out")
		return
	}
	slog.ErrorContext(r.Context(), "search failed",
		"req_id", obs.RequestID(r.Context()), "path", r.URL.Path, "err", err)
	writeError(w, r, http.StatusInternalServerError, "internal error")
}

func toLegResponse(l domain.TransitLeg) dto.LegResponse {
	stops := l.Stops
	if stops == nil {
		stops = []string{}
	}
	return dto.LegResponse{
		ID:              l.ID,
		Origin:          l.Origin,
		Destination:     l.Destination,
		DepartureTime:   l.Departure.String(),
		ArrivalTime:     l.Arrival.String(),
		DurationMinutes: l.Duration(),
		Price:           l.Price,
		Stops:           stops,
		Carrier:         l.Carrier,
		Equipment:       l.Equipment,
	}
}

func toLegResponses(path []domain.TransitLeg) []dto.LegResponse {
	out := make([]dto.LegResponse, 0, len(path))
	for _, l := range path {
		out = append(out, toLegResponse(l))
	}
	return out
}

func toLodgingResponse(o domain.LodgingOption) dto.LodgingResponse {
	amenities := o.Amenities
	if amenities == nil {
		amenities = []string{}
	}
	return dto.LodgingResponse{
		ID:           o.ID,
		Name:         o.Name,
		City:         o.City,
		Class:        o.Class,
		GuestRating:  o.GuestRating,
		NightlyPrice: o.NightlyPrice,
		Amenities:    amenities,
	}
}

func toTripResponse(p domain.TripPackage) dto.TripResponse {
	return dto.TripResponse{
		Destination: p.Destination,
		Outbound:    toLegResponses(p.Outbound),
		Return:      toLegResponses(p.Return),
		Lodging:     toLodgingResponse(p.Lodging),
		Nights:      p.Nights,
		TotalCost:   p.TotalCost,
		Score:       p.Score,
	}
}

func toMultiCityResponse(t domain.MultiCityTrip) dto.MultiCityTripResponse {
	resp := dto.MultiCityTripResponse{
		Cities:      t.CitiesVisited(),
		Stays:       make([]dto.StayResponse, 0, len(t.Stays)),
		TotalCost:   t.TotalCost,
		TotalNights: t.TotalNights,
		Score:       t.Score,
	}
	for _, s := range t.Stays {
		stay := dto.StayResponse{
			City:    s.City,
			Arrival: toLegResponse(s.Leg),
			Nights:  s.Nights,
			Cost:    s.Cost(),
		}
		if s.Lodging != nil {
			l := toLodgingResponse(*s.Lodging)
			stay.Lodging = &l
		}
		resp.Stays = append(resp.Stays, stay)
	}
	return resp
}
