package ports

import "time"

// One completed search as seen by usage statistics.
type SearchRecord struct {
	Origin       string
	Destinations []string
	Budget       float64
	Success      bool
	Duration     time.Duration
	CacheHit     bool
}

type SearchRecorder interface {
	RecordSearch(rec SearchRecord)
}
