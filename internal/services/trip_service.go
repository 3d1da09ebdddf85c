package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"trip-search-service/internal/domain"
	"trip-search-service/internal/platform/obs"
	"trip-search-service/internal/ports"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// CacheKeyPrefix namespaces every cached search result.
const CacheKeyPrefix = "trips:"

const cacheKeyVersion = "v1"

type TripResult struct {
	Trips    []domain.TripPackage
	CacheHit bool
}

type MultiCityResult struct {
	Trips    []domain.MultiCityTrip
	CacheHit bool
}

type ReloadSummary struct {
	Legs        int
	Lodging     int
	Fingerprint uint64
	Invalidated int
}

// Collaborators of TripService. Cache, Codec and Recorder are optional.
type TripServiceDeps struct {
	Engine   *Engine
	Repo     ports.InventoryRepository
	Cache    ports.ResultCache
	Codec    ports.PayloadCodec
	Recorder ports.SearchRecorder
	CacheTTL time.Duration

	// Upper bound on one engine run; zero means unbounded.
	SearchTimeout time.Duration
	Logger        *slog.Logger
}

// TripService fronts the engine with a result cache, request collapsing,
// usage recording and inventory reloads.
type TripService struct {
	engine   *Engine
	repo     ports.InventoryRepository
	cache    ports.ResultCache
	codec    ports.PayloadCodec
	recorder ports.SearchRecorder
	ttl      time.Duration
	timeout  time.Duration
	logger   *slog.Logger
	group    singleflight.Group
}

func NewTripService(d TripServiceDeps) *TripService {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cache := d.Cache
	if d.Codec == nil {
		cache = nil
	}
	return &TripService{
		engine:   d.Engine,
		repo:     d.Repo,
		cache:    cache,
		codec:    d.Codec,
		recorder: d.Recorder,
		ttl:      d.CacheTTL,
		timeout:  d.SearchTimeout,
		logger:   logger,
	}
}

func (s *TripService) Engine() *Engine { return s.engine }

// LoadIndex builds an index from the repository, loading legs and lodging
// concurrently.
func LoadIndex(ctx context.Context, repo ports.InventoryRepository) (_ *InventoryIndex, err error) {
	defer obs.Time(ctx, "load inventory")(&err)

	var (
		legs    []domain.TransitLeg
		lodging []domain.LodgingOption
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		legs, err = repo.ListLegs(gctx)
		if err != nil {
			return fmt.Errorf("list legs: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		lodging, err = repo.ListLodging(gctx)
		if err != nil {
			return fmt.Errorf("list lodging: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load inventory: %w", err)
	}
	return NewInventoryIndex(legs, lodging), nil
}

// Reload rebuilds the index from the repository, swaps it in and drops
// cached results computed against older inventory.
func (s *TripService) Reload(ctx context.Context) (ReloadSummary, error) {
	if s.repo == nil {
		return ReloadSummary{}, errors.New("reload inventory: no repository configured")
	}
	idx, err := LoadIndex(ctx, s.repo)
	if err != nil {
		return ReloadSummary{}, fmt.Errorf("reload inventory: %w", err)
	}
	s.engine.Swap(idx)

	summary := ReloadSummary{
		Legs:        idx.LegCount(),
		Lodging:     idx.LodgingCount(),
		Fingerprint: idx.Fingerprint(),
	}
	if s.cache != nil {
		n, err := s.cache.InvalidatePrefix(ctx, CacheKeyPrefix)
		if err != nil {
			s.logger.WarnContext(ctx, "cache invalidation failed", "err", err)
		}
		summary.Invalidated = n
	}

	s.logger.InfoContext(ctx, "inventory reloaded",
		"legs", summary.Legs,
		"lodging", summary.Lodging,
		"fingerprint", strconv.FormatUint(summary.Fingerprint, 16),
		"invalidated", summary.Invalidated,
	)
	return summary, nil
}

func (s *TripService) Search(ctx context.Context, q TripQuery) (TripResult, error) {
	start := time.Now()
	key := TripCacheKey(s.engine.Index().Fingerprint(), q)

	trips, hit, err := cachedSearch(ctx, s, key, func(ctx context.Context) ([]domain.TripPackage, error) {
		return s.engine.SearchTrips(ctx, q)
	})
	if err != nil {
		s.record(q.Origin, nil, q.Budget, start, false)
		return TripResult{}, err
	}

	dests := make([]string, 0, len(trips))
	for _, t := range trips {
		dests = append(dests, t.Destination)
	}
	s.record(q.Origin, dests, q.Budget, start, hit)
	return TripResult{Trips: trips, CacheHit: hit}, nil
}

func (s *TripService) SearchMultiCity(ctx context.Context, q MultiCityQuery) (MultiCityResult, error) {
	start := time.Now()
	key := MultiCityCacheKey(s.engine.Index().Fingerprint(), q)

	trips, hit, err := cachedSearch(ctx, s, key, func(ctx context.Context) ([]domain.MultiCityTrip, error) {
		return s.engine.SearchMultiCity(ctx, q)
	})
	if err != nil {
		s.record(q.Origin, nil, q.Budget, start, false)
		return MultiCityResult{}, err
	}

	var dests []string
	for _, t := range trips {
		for _, c := range t.CitiesVisited() {
			if c != q.Origin {
				dests = append(dests, c)
			}
		}
	}
	s.record(q.Origin, dests, q.Budget, start, hit)
	return MultiCityResult{Trips: trips, CacheHit: hit}, nil
}

func (s *TripService) record(origin string, dests []string, budget float64, start time.Time, hit bool) {
	if s.recorder == nil {
		return
	}
	s.recorder.RecordSearch(ports.SearchRecord{
		Origin:       origin,
		Destinations: dests,
		Budget:       budget,
		Success:      len(dests) > 0,
		Duration:     time.Since(start),
		CacheHit:     hit,
	})
}

// cachedSearch serves a result list from the cache or computes it once for
// all concurrent callers sharing the key. Cache failures only cost a recompute.
//
// The shared computation is detached from any single caller's cancellation
// and bounded by the service search timeout instead; each caller stops
// waiting when its own ctx is done.
func cachedSearch[T any](
	ctx context.Context,
	s *TripService,
	key string,
	compute func(context.Context) ([]T, error),
) ([]T, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	if s.cache != nil {
		data, err := s.cache.Get(ctx, key)
		switch {
		case err == nil:
			var out []T
			derr := s.codec.Decode(data, &out)
			if derr == nil {
				return out, true, nil
			}
			s.logger.WarnContext(ctx, "cached result undecodable", "key", key, "err", derr)
		case !errors.Is(err, ports.ErrCacheMiss):
			s.logger.WarnContext(ctx, "cache get failed", "key", key, "err", err)
		}
	}

	ch := s.group.DoChan(key, func() (any, error) {
		sctx, cancel := s.searchContext(ctx)
		defer cancel()

		out, err := compute(sctx)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if data, err := s.codec.Encode(out); err != nil {
				s.logger.WarnContext(sctx, "encode result failed", "key", key, "err", err)
			} else if err := s.cache.Set(sctx, key, data, s.ttl); err != nil {
				s.logger.WarnContext(sctx, "cache set failed", "key", key, "err", err)
			}
		}
		return out, nil
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		return res.Val.([]T), false, nil
	}
}

// searchContext keeps the caller's values (request id) but not its
// cancellation, and applies the search timeout.
func (s *TripService) searchContext(ctx context.Context) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	if s.timeout <= 0 {
		return context.WithCancel(detached)
	}
	return context.WithTimeout(detached, s.timeout)
}

// TripCacheKey is deterministic over every parameter that affects the result
// and over the inventory content.
func TripCacheKey(fingerprint uint64, q TripQuery) string {
	maxStops := "-"
	if q.MaxStops != nil {
		maxStops = strconv.Itoa(*q.MaxStops)
	}
	canonical := strings.Join([]string{
		"origin=" + q.Origin,
		"nights=" + strconv.Itoa(q.Nights),
		"budget=" + strconv.FormatFloat(q.Budget, 'g', -1, 64),
		"limit=" + strconv.Itoa(q.limit()),
		"min_rating=" + strconv.FormatFloat(q.MinRating, 'g', -1, 64),
		"max_stops=" + maxStops,
		"max_legs=" + strconv.Itoa(max(q.MaxLegs, 1)),
	}, "|")
	return buildKey(fingerprint, "single", canonical)
}

func MultiCityCacheKey(fingerprint uint64, q MultiCityQuery) string {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultResultLimit
	}
	canonical := strings.Join([]string{
		"origin=" + q.Origin,
		"required=" + strings.Join(q.Required, ","),
		"optional=" + strings.Join(q.Optional, ","),
		"nights=" + strconv.Itoa(q.TotalNights),
		"budget=" + strconv.FormatFloat(q.Budget, 'g', -1, 64),
		"limit=" + strconv.Itoa(limit),
		"min_rating=" + strconv.FormatFloat(q.MinRating, 'g', -1, 64),
		"max_stay=" + strconv.Itoa(q.MaxStayNights),
		"return=" + strconv.FormatBool(q.ReturnToOrigin),
	}, "|")
	return buildKey(fingerprint, "multi", canonical)
}

func buildKey(fingerprint uint64, kind, canonical string) string {
	sum := sha256.Sum256([]byte(canonical))
	return fmt.Sprintf("%s%s:%016x:%s:%s", CacheKeyPrefix, cacheKeyVersion, fingerprint, kind, hex.EncodeToString(sum[:]))
}
