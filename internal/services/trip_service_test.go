package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"trip-search-service/internal/adapters/cache"
	"trip-search-service/internal/adapters/repositories"
	"trip-search-service/internal/domain"
	"trip-search-service/internal/ports"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu   sync.Mutex
	recs []ports.SearchRecord
}

func (r *recorder) RecordSearch(rec ports.SearchRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recs = append(r.recs, rec)
}

func (r *recorder) all() []ports.SearchRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ports.SearchRecord(nil), r.recs...)
}

func scenarioRepo(t *testing.T) *repositories.MemoryInventoryRepository {
	idx := scenarioIndex(t)
	var legs []domain.TransitLeg
	for _, from := range []string{"AAA", "BBB", "CCC"} {
		for _, to := range []string{"AAA", "BBB", "CCC"} {
			legs = append(legs, idx.LegsOn(from, to)...)
		}
	}
	var lodgings []domain.LodgingOption
	for _, city := range []string{"BBB", "CCC"} {
		lodgings = append(lodgings, idx.LodgingIn(city)...)
	}
	return repositories.NewMemoryInventoryRepository(legs, lodgings)
}

func newService(t *testing.T, rc ports.ResultCache, rec ports.SearchRecorder) (*TripService, *repositories.MemoryInventoryRepository) {
	t.Helper()
	repo := scenarioRepo(t)
	idx, err := LoadIndex(context.Background(), repo)
	require.NoError(t, err)

	codec, err := cache.NewPayloadCodec(256)
	require.NoError(t, err)

	svc := NewTripService(TripServiceDeps{
		Engine:   newEngine(t, idx),
		Repo:     repo,
		Cache:    rc,
		Codec:    codec,
		Recorder: rec,
		CacheTTL: time.Minute,
	})
	return svc, repo
}

func TestTripServiceCachesResults(t *testing.T) {
	rc := cache.NewMemoryResultCache(16, time.Minute)
	rec := &recorder{}
	svc, _ := newService(t, rc, rec)
	q := TripQuery{Origin: "AAA", Nights: 1, Budget: 2000}

	first, err := svc.Search(context.Background(), q)
	require.NoError(t, err)
	assert.False(t, first.CacheHit)
	require.NotEmpty(t, first.Trips)
	assert.Equal(t, 1, rc.Len())

	second, err := svc.Search(context.Background(), q)
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, first.Trips, second.Trips)

	recs := rec.all()
	require.Len(t, recs, 2)
	assert.True(t, recs[0].Success)
	assert.Equal(t, "AAA", recs[0].Origin)
	assert.False(t, recs[0].CacheHit)
	assert.True(t, recs[1].CacheHit)
}

func TestTripServiceRecordsFailure(t *testing.T) {
	rec := &recorder{}
	svc, _ := newService(t, nil, rec)

	res, err := svc.Search(context.Background(), TripQuery{Origin: "AAA", Nights: 2, Budget: 10})
	require.NoError(t, err)
	assert.Empty(t, res.Trips)

	recs := rec.all()
	require.Len(t, recs, 1)
	assert.False(t, recs[0].Success)
	assert.Equal(t, 10.0, recs[0].Budget)
}

func TestTripServiceRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc, _ := newService(t, cache.NewRedisResultCache(client), nil)
	q := MultiCityQuery{Origin: "AAA", Required: []string{"BBB"}, TotalNights: 2, Budget: 1000}

	first, err := svc.SearchMultiCity(context.Background(), q)
	require.NoError(t, err)
	assert.False(t, first.CacheHit)
	require.NotEmpty(t, first.Trips)

	second, err := svc.SearchMultiCity(context.Background(), q)
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, first.Trips, second.Trips)

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.Contains(t, keys[0], CacheKeyPrefix)
}

type failingCache struct{}

func (failingCache) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("connection refused")
}
func (failingCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("connection refused")
}
func (failingCache) InvalidatePrefix(context.Context, string) (int, error) {
	return 0, errors.New("connection refused")
}

func TestTripServiceSurvivesCacheFailure(t *testing.T) {
	svc, _ := newService(t, failingCache{}, nil)

	res, err := svc.Search(context.Background(), TripQuery{Origin: "AAA", Nights: 2, Budget: 300})
	require.NoError(t, err)
	assert.Len(t, res.Trips, 1)

	_, err = svc.Reload(context.Background())
	require.NoError(t, err)
}

func TestTripServiceReload(t *testing.T) {
	rc := cache.NewMemoryResultCache(16, time.Minute)
	svc, repo := newService(t, rc, nil)
	q := TripQuery{Origin: "AAA", Nights: 2, Budget: 300}

	before, err := svc.Search(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, before.Trips, 1)
	oldFingerprint := svc.Engine().Index().Fingerprint()

	// A cheaper return leg makes the 90/night lodging affordable too.
	repo.Legs = append(repo.Legs, leg(t, "ba-20", "BBB", "AAA", "20:00", 20))

	summary, err := svc.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, summary.Legs)
	assert.Equal(t, 3, summary.Lodging)
	assert.Equal(t, 1, summary.Invalidated)
	assert.NotEqual(t, oldFingerprint, summary.Fingerprint)
	assert.Zero(t, rc.Len())

	after, err := svc.Search(context.Background(), q)
	require.NoError(t, err)
	assert.False(t, after.CacheHit)
	assert.Greater(t, len(after.Trips), 1)
}

func TestTripServiceReloadError(t *testing.T) {
	svc := NewTripService(TripServiceDeps{Engine: newEngine(t, scenarioIndex(t))})
	_, err := svc.Reload(context.Background())
	require.Error(t, err)
}

func TestTripServiceConcurrentSearches(t *testing.T) {
	svc, _ := newService(t, cache.NewMemoryResultCache(16, time.Minute), nil)
	q := TripQuery{Origin: "AAA", Nights: 1, Budget: 2000}

	var wg sync.WaitGroup
	results := make([]TripResult, 20)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.Search(context.Background(), q)
			assert.NoError(t, err)
			results[i] = res
		}()
	}
	wg.Wait()

	for _, r := range results[1:] {
		assert.Equal(t, results[0].Trips, r.Trips)
	}
}

func TestCacheKeys(t *testing.T) {
	q := TripQuery{Origin: "AAA", Nights: 2, Budget: 300}
	a := TripCacheKey(1, q)
	assert.Equal(t, a, TripCacheKey(1, q))
	assert.Equal(t, a, TripCacheKey(1, TripQuery{Origin: "AAA", Nights: 2, Budget: 300, Limit: DefaultResultLimit}))
	assert.NotEqual(t, a, TripCacheKey(2, q), "inventory change alters key")

	q.MaxStops = intPtr(0)
	assert.NotEqual(t, a, TripCacheKey(1, q))

	mc := MultiCityQuery{Origin: "AAA", Required: []string{"BBB"}, TotalNights: 2, Budget: 300}
	b := MultiCityCacheKey(1, mc)
	assert.NotEqual(t, a, b)
	mc.ReturnToOrigin = true
	assert.NotEqual(t, b, MultiCityCacheKey(1, mc))
}

func TestTripServiceSearchTimeout(t *testing.T) {
	rec := &recorder{}
	svc := NewTripService(TripServiceDeps{
		Engine:        newEngine(t, denseIndex(t)),
		Recorder:      rec,
		SearchTimeout: 30 * time.Millisecond,
	})

	_, err := svc.SearchMultiCity(context.Background(), MultiCityQuery{
		Origin:        "AAA",
		Required:      []string{"BBB", "CCC"},
		Optional:      []string{"DDD", "EEE", "FFF", "GGG", "HHH", "III"},
		TotalNights:   30,
		MaxStayNights: 4,
		Budget:        1e6,
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)

	recs := rec.all()
	require.Len(t, recs, 1)
	assert.False(t, recs[0].Success)
	assert.Equal(t, "AAA", recs[0].Origin)
}

func TestTripServiceRecordsCancelledSearch(t *testing.T) {
	rec := &recorder{}
	svc, _ := newService(t, nil, rec)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Search(ctx, TripQuery{Origin: "AAA", Nights: 1, Budget: 2000})
	require.ErrorIs(t, err, context.Canceled)

	recs := rec.all()
	require.Len(t, recs, 1)
	assert.False(t, recs[0].Success)
	assert.Equal(t, 2000.0, recs[0].Budget)
}

func TestSharedSearchOutlivesCancelledCaller(t *testing.T) {
	svc := NewTripService(TripServiceDeps{Engine: newEngine(t, scenarioIndex(t))})

	var calls atomic.Int32
	var once sync.Once
	started := make(chan struct{})
	release := make(chan struct{})
	compute := func(ctx context.Context) ([]string, error) {
		calls.Add(1)
		once.Do(func() { close(started) })
		<-release
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return []string{"BBB"}, nil
	}

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, _, err := cachedSearch(firstCtx, svc, "shared", compute)
		firstErr <- err
	}()
	<-started

	type outcome struct {
		out []string
		err error
	}
	second := make(chan outcome, 1)
	go func() {
		out, _, err := cachedSearch(context.Background(), svc, "shared", compute)
		second <- outcome{out, err}
	}()
	// Let the second caller join the in-flight call.
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	select {
	case err := <-firstErr:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled caller still waiting")
	}

	close(release)
	select {
	case got := <-second:
		require.NoError(t, got.err)
		assert.Equal(t, []string{"BBB"}, got.out)
	case <-time.After(2 * time.Second):
		t.Fatal("second caller never got a result")
	}
	assert.Equal(t, int32(1), calls.Load())
}
