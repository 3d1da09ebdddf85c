package stats

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// Inventory size reported alongside search counters.
type InventoryGauge func() (legs, lodging int)

type metric struct {
	name  string
	help  string
	kind  string
	value float64
}

// MetricsHandler exposes the collector in Prometheus text format.
func (c *Collector) MetricsHandler(logger *slog.Logger, inventory InventoryGauge) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		c.mu.Lock()
		metrics := []metric{
			{"trip_searches_total", "Total number of searches", "counter", float64(c.total)},
			{"trip_searches_successful_total", "Searches returning at least one trip", "counter", float64(c.successful)},
			{"trip_searches_failed_total", "Searches returning no trips", "counter", float64(c.failed)},
			{"trip_search_cache_hits_total", "Searches served from the result cache", "counter", float64(c.cacheHits)},
			{"trip_search_duration_ms_sum", "Total search time in milliseconds", "counter", c.totalTimeMs},
		}
		c.mu.Unlock()

		if inventory != nil {
			legs, lodging := inventory()
			metrics = append(metrics,
				metric{"inventory_transit_legs", "Transit legs in the active index", "gauge", float64(legs)},
				metric{"inventory_lodging_options", "Lodging options in the active index", "gauge", float64(lodging)},
			)
		}

		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		w.WriteHeader(http.StatusOK)
		if err := writeMetrics(w, metrics); err != nil {
			logger.Error("failed to write metrics", "error", err)
		}
	}
}

func writeMetrics(w io.Writer, metrics []metric) error {
	for _, m := range metrics {
		if _, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %g\n", m.name, m.help, m.name, m.kind, m.name, m.value); err != nil {
			return err
		}
	}
	return nil
}
