package handlers

import (
	"net/http"
	"trip-search-service/internal/adapters/stats"
)

// StatsHandler exposes aggregated search usage.
type StatsHandler struct {
	Stats *stats.Collector
}

// Get handles GET /stats. DELETE clears the counters.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, r, http.StatusOK, h.Stats.Report())
	case http.MethodDelete:
		h.Stats.Reset()
		w.WriteHeader(http.StatusNoContent)
	default:
		w.Header().Set("Allow", "GET, DELETE")
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	}
}
