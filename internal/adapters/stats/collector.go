package stats

import (
	"cmp"
	"math"
	"slices"
	"sync"
	"time"
	"trip-search-service/internal/ports"
)

const (
	topPlaces = 5
	topRoutes = 10
)

type routeAgg struct {
	origin      string
	searches    int
	totalTimeMs float64
	totalBudget float64
}

// Collector aggregates search usage in memory. It implements
// ports.SearchRecorder and is safe for concurrent use.
type Collector struct {
	mu           sync.Mutex
	total        int
	successful   int
	failed       int
	cacheHits    int
	totalTimeMs  float64
	origins      map[string]int
	originOK     map[string]int
	destinations map[string]int
	routes       map[string]*routeAgg
	since        time.Time
	now          func() time.Time
}

func NewCollector() *Collector {
	c := &Collector{now: time.Now}
	c.reset()
	return c
}

func (c *Collector) reset() {
	c.total, c.successful, c.failed, c.cacheHits = 0, 0, 0, 0
	c.totalTimeMs = 0
	c.origins = make(map[string]int)
	c.originOK = make(map[string]int)
	c.destinations = make(map[string]int)
	c.routes = make(map[string]*routeAgg)
	c.since = c.now()
}

func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

// RecordSearch counts one search. A destination appearing several times in
// one result list counts once for that search.
func (c *Collector) RecordSearch(rec ports.SearchRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ms := float64(rec.Duration.Microseconds()) / 1000
	c.total++
	c.totalTimeMs += ms
	if rec.Success {
		c.successful++
		c.originOK[rec.Origin]++
	} else {
		c.failed++
	}
	if rec.CacheHit {
		c.cacheHits++
	}
	c.origins[rec.Origin]++

	seen := make(map[string]bool, len(rec.Destinations))
	for _, d := range rec.Destinations {
		if seen[d] {
			continue
		}
		seen[d] = true
		c.destinations[d]++

		key := rec.Origin + "-" + d
		agg := c.routes[key]
		if agg == nil {
			agg = &routeAgg{origin: rec.Origin}
			c.routes[key] = agg
		}
		agg.searches++
		agg.totalTimeMs += ms
		agg.totalBudget += rec.Budget
	}
}

type General struct {
	TotalSearches      int     `json:"total_searches"`
	SuccessfulSearches int     `json:"successful_searches"`
	FailedSearches     int     `json:"failed_searches"`
	SuccessRate        float64 `json:"success_rate"`
	CacheHits          int     `json:"cache_hits"`
	AvgTimeMs          float64 `json:"avg_time_ms"`
	TrackingHours      float64 `json:"tracking_duration_hours"`
}

type Count struct {
	Code     string `json:"code"`
	Searches int    `json:"searches"`
}

type RouteStat struct {
	Route       string  `json:"route"`
	Searches    int     `json:"searches"`
	AvgTimeMs   float64 `json:"avg_time_ms"`
	AvgBudget   float64 `json:"avg_budget"`
	SuccessRate float64 `json:"success_rate"`
}

type Report struct {
	General             General     `json:"general"`
	PopularOrigins      []Count     `json:"popular_origins"`
	PopularDestinations []Count     `json:"popular_destinations"`
	Routes              []RouteStat `json:"route_stats"`
}

// Report returns a snapshot. Rates are percentages rounded to one decimal.
// A route's success rate is that of all searches from its origin, since a
// failed search has no destinations to attribute.
func (c *Collector) Report() Report {
	c.mu.Lock()
	defer c.mu.Unlock()

	r := Report{
		General: General{
			TotalSearches:      c.total,
			SuccessfulSearches: c.successful,
			FailedSearches:     c.failed,
			SuccessRate:        percent(c.successful, c.total),
			CacheHits:          c.cacheHits,
			TrackingHours:      round(c.now().Sub(c.since).Hours(), 1),
		},
		PopularOrigins:      topCounts(c.origins, topPlaces),
		PopularDestinations: topCounts(c.destinations, topPlaces),
	}
	if c.total > 0 {
		r.General.AvgTimeMs = round(c.totalTimeMs/float64(c.total), 2)
	}

	for key, agg := range c.routes {
		r.Routes = append(r.Routes, RouteStat{
			Route:       key,
			Searches:    agg.searches,
			AvgTimeMs:   round(agg.totalTimeMs/float64(agg.searches), 2),
			AvgBudget:   round(agg.totalBudget/float64(agg.searches), 2),
			SuccessRate: percent(c.originOK[agg.origin], c.origins[agg.origin]),
		})
	}
	slices.SortFunc(r.Routes, func(a, b RouteStat) int {
		if a.Searches != b.Searches {
			return cmp.Compare(b.Searches, a.Searches)
		}
		return cmp.Compare(a.Route, b.Route)
	})
	if len(r.Routes) > topRoutes {
		r.Routes = r.Routes[:topRoutes]
	}
	return r
}

// Highest counts first, ties by code.
func topCounts(m map[string]int, n int) []Count {
	out := make([]Count, 0, len(m))
	for code, searches := range m {
		out = append(out, Count{Code: code, Searches: searches})
	}
	slices.SortFunc(out, func(a, b Count) int {
		if a.Searches != b.Searches {
			return cmp.Compare(b.Searches, a.Searches)
		}
		return cmp.Compare(a.Code, b.Code)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return round(float64(part)/float64(whole)*100, 1)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
