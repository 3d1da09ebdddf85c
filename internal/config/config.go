package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	"trip-search-service/internal/platform/db"
	"trip-search-service/internal/services"

	"github.com/joho/godotenv"
)

// Get returns the environment value for key, or fallback when unset or blank.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func GetInt(key string, fallback int) (int, error) {
	v := Get(key, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: invalid integer %q", key, v)
	}
	return n, nil
}

func GetFloat(key string, fallback float64) (float64, error) {
	v := Get(key, "")
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s: invalid number %q", key, v)
	}
	return f, nil
}

func GetBool(key string, fallback bool) (bool, error) {
	v := Get(key, "")
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config: %s: invalid boolean %q", key, v)
	}
	return b, nil
}

// GetDuration accepts Go durations ("90s") or a bare number of seconds.
func GetDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := Get(key, "")
	if v == "" {
		return fallback, nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: invalid duration %q", key, v)
	}
	return d, nil
}

// Inventory backends.
const (
	SourceSQL  = "sql"
	SourceJSON = "json"
	SourceFeed = "feed"
)

type Config struct {
	Port     string
	LogLevel string

	DBDriver    db.Driver
	DBPath      string
	DatabaseURL string

	LegsSeedPath    string
	LodgingSeedPath string
	SeedOnStart     bool

	// One of SourceSQL, SourceJSON or SourceFeed. Defaults to the feed when
	// INVENTORY_FEED_URL is set and to the database otherwise.
	InventorySource  string
	InventoryFeedURL string
	InventoryFeedKey string

	RedisURL  string
	CacheTTL  time.Duration
	CacheSize int

	DefaultResultLimit int
	MaxResultLimit     int
	MaxLegsPerPath     int
	MaxStayNights      int
	SearchTimeout      time.Duration

	RateLimitRPS   float64
	RateLimitBurst int

	Scoring services.ScoringConfig
}

// DSN returns the connection string for the configured driver.
func (c Config) DSN() string {
	if c.DBDriver == db.Postgres {
		return c.DatabaseURL
	}
	return c.DBPath
}

// Load reads .env (if present) and the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found (using environment variables)")
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (Config, error) {
	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	cfg := Config{
		Port:            Get("PORT", "8080"),
		LogLevel:        Get("LOG_LEVEL", "info"),
		DBPath:          Get("DB_PATH", "data/app.db"),
		DatabaseURL:     Get("DATABASE_URL", ""),
		LegsSeedPath:    Get("LEGS_SEED_PATH", "data/seeds/legs.json"),
		LodgingSeedPath: Get("LODGING_SEED_PATH", "data/seeds/lodging.json"),
		RedisURL:        Get("REDIS_URL", ""),

		InventoryFeedURL: Get("INVENTORY_FEED_URL", ""),
		InventoryFeedKey: Get("INVENTORY_FEED_API_KEY", ""),

		Scoring: services.DefaultScoringConfig(),
	}
	source := SourceSQL
	if cfg.InventoryFeedURL != "" {
		source = SourceFeed
	}
	cfg.InventorySource = strings.ToLower(Get("INVENTORY_SOURCE", source))

	var err error
	cfg.DBDriver, err = db.ParseDriver(Get("DB_DRIVER", "sqlite"))
	collect(err)
	cfg.SeedOnStart, err = GetBool("SEED_ON_START", true)
	collect(err)
	cfg.CacheTTL, err = GetDuration("CACHE_TTL", time.Hour)
	collect(err)
	cfg.CacheSize, err = GetInt("CACHE_SIZE", 1024)
	collect(err)
	cfg.DefaultResultLimit, err = GetInt("DEFAULT_RESULT_LIMIT", services.DefaultResultLimit)
	collect(err)
	cfg.MaxResultLimit, err = GetInt("MAX_RESULT_LIMIT", 50)
	collect(err)
	cfg.MaxLegsPerPath, err = GetInt("MAX_LEGS_PER_PATH", services.DefaultMaxLegs)
	collect(err)
	cfg.MaxStayNights, err = GetInt("MAX_STAY_NIGHTS", services.DefaultMaxStayNights)
	collect(err)
	cfg.SearchTimeout, err = GetDuration("SEARCH_TIMEOUT", 10*time.Second)
	collect(err)
	cfg.RateLimitRPS, err = GetFloat("RATE_LIMIT_RPS", 20)
	collect(err)
	cfg.RateLimitBurst, err = GetInt("RATE_LIMIT_BURST", 40)
	collect(err)

	cfg.Scoring.PriceModel = services.PriceModel(Get("PRICE_MODEL", string(services.PriceLinear)))
	w := &cfg.Scoring.Weights
	w.Price, err = GetFloat("SCORE_WEIGHT_PRICE", w.Price)
	collect(err)
	w.Transit, err = GetFloat("SCORE_WEIGHT_TRANSIT", w.Transit)
	collect(err)
	w.Lodging, err = GetFloat("SCORE_WEIGHT_LODGING", w.Lodging)
	collect(err)
	w.Destination, err = GetFloat("SCORE_WEIGHT_DESTINATION", w.Destination)
	collect(err)

	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.DBDriver == db.Postgres && c.DatabaseURL == "" {
		return errors.New("config: DATABASE_URL is required for the postgres driver")
	}
	if c.DefaultResultLimit < 1 || c.DefaultResultLimit > c.MaxResultLimit {
		return fmt.Errorf("config: DEFAULT_RESULT_LIMIT must be within 1-%d", c.MaxResultLimit)
	}
	if c.MaxLegsPerPath < 1 {
		return errors.New("config: MAX_LEGS_PER_PATH must be at least 1")
	}
	if c.MaxStayNights < 1 {
		return errors.New("config: MAX_STAY_NIGHTS must be at least 1")
	}
	switch c.InventorySource {
	case SourceSQL, SourceJSON:
	case SourceFeed:
		if c.InventoryFeedURL == "" {
			return errors.New("config: INVENTORY_FEED_URL is required for the feed source")
		}
	default:
		return fmt.Errorf("config: unknown INVENTORY_SOURCE %q", c.InventorySource)
	}
	if c.SearchTimeout < 0 {
		return errors.New("config: SEARCH_TIMEOUT must not be negative")
	}
	if c.CacheTTL < 0 {
		return errors.New("config: CACHE_TTL must not be negative")
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		return errors.New("config: rate limit values must not be negative")
	}
	if err := c.Scoring.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
