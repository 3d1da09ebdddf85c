package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"trip-search-service/internal/adapters/repositories"
	"trip-search-service/internal/domain"
	"trip-search-service/internal/platform/obs"
)

const (
	legsPath    = "/legs"
	lodgingPath = "/lodging"
)

// HTTPInventoryRepository implements ports.InventoryRepository over a remote
// inventory feed serving the seed-file JSON format at <base>/legs and
// <base>/lodging. Records failing validation are logged and skipped.
//
// The repository is safe for concurrent use.
type HTTPInventoryRepository struct {
	client      *http.Client
	baseURL     string
	apiKey      string
	logger      *slog.Logger
	maxAttempts int
	backoff     time.Duration
	maxBody     int64
}

type Option func(*HTTPInventoryRepository)

func WithHTTPClient(c *http.Client) Option {
	return func(f *HTTPInventoryRepository) { f.client = c }
}

// WithRetry sets the attempt budget and the initial backoff, which doubles
// after each failed attempt.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(f *HTTPInventoryRepository) {
		f.maxAttempts = max(attempts, 1)
		f.backoff = backoff
	}
}

// WithMaxBody caps the accepted response size; larger bodies fail the fetch.
func WithMaxBody(n int64) Option {
	return func(f *HTTPInventoryRepository) {
		if n > 0 {
			f.maxBody = n
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(f *HTTPInventoryRepository) { f.logger = l }
}

func NewHTTPInventoryRepository(baseURL, apiKey string, opts ...Option) (*HTTPInventoryRepository, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("inventory feed: base url is empty")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("inventory feed: invalid base url: %w", err)
	}

	f := &HTTPInventoryRepository{
		client:      &http.Client{Timeout: 30 * time.Second},
		baseURL:     baseURL,
		apiKey:      apiKey,
		logger:      slog.Default(),
		maxAttempts: 4,
		backoff:     200 * time.Millisecond,
		maxBody:     64 << 20,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

func (f *HTTPInventoryRepository) ListLegs(ctx context.Context) (_ []domain.TransitLeg, err error) {
	defer obs.Time(ctx, "feed list legs")(&err)

	body, err := f.fetch(ctx, f.baseURL+legsPath)
	if err != nil {
		return nil, fmt.Errorf("inventory feed: fetch legs: %w", err)
	}
	legs, report, err := repositories.ParseLegs(body)
	if err != nil {
		return nil, fmt.Errorf("inventory feed: %w", err)
	}
	report.Log(f.logger, "legs")
	return legs, nil
}

func (f *HTTPInventoryRepository) ListLodging(ctx context.Context) (_ []domain.LodgingOption, err error) {
	defer obs.Time(ctx, "feed list lodging")(&err)

	body, err := f.fetch(ctx, f.baseURL+lodgingPath)
	if err != nil {
		return nil, fmt.Errorf("inventory feed: fetch lodging: %w", err)
	}
	lodging, report, err := repositories.ParseLodging(body)
	if err != nil {
		return nil, fmt.Errorf("inventory feed: %w", err)
	}
	report.Log(f.logger, "lodging")
	return lodging, nil
}
