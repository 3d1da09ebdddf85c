package api

import (
	"log/slog"
	"net/http"
	"trip-search-service/internal/adapters/stats"
	"trip-search-service/internal/api/handlers"
)

// Deps are the collaborators and limits the HTTP layer is built from.
type Deps struct {
	Trips     handlers.TripSearcher
	Inventory handlers.InventoryReloader
	Stats     *stats.Collector
	Gauge     stats.InventoryGauge
	Logger    *slog.Logger

	DefaultLimit  int
	MaxLimit      int
	MaxLegs       int
	MaxStayNights int

	// Zero RateLimitRPS disables rate limiting.
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	collector := d.Stats
	if collector == nil {
		collector = stats.NewCollector()
	}

	mux := http.NewServeMux()

	searchHandler := &handlers.SearchHandler{
		Trips:         d.Trips,
		DefaultLimit:  d.DefaultLimit,
		MaxLimit:      d.MaxLimit,
		MaxLegs:       d.MaxLegs,
		MaxStayNights: d.MaxStayNights,
	}
	statsHandler := &handlers.StatsHandler{Stats: collector}

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/search", searchHandler.Search)
	mux.HandleFunc("/multi-city-search", searchHandler.MultiCity)
	mux.HandleFunc("/stats", statsHandler.Get)
	mux.Handle("/metrics", collector.MetricsHandler(logger, d.Gauge))
	if d.Inventory != nil {
		inventoryHandler := &handlers.InventoryHandler{Inventory: d.Inventory}
		mux.HandleFunc("/inventory/reload", inventoryHandler.Reload)
	}

	var h http.Handler = mux
	if d.RateLimitRPS > 0 {
		h = rateLimitMiddleware(newClientLimiter(d.RateLimitRPS, d.RateLimitBurst), h)
	}
	return requestIDMiddleware(loggingMiddleware(logger, h))
}
