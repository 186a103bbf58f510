package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Config is the process configuration resolved from the environment.
type Config struct {
	Port             string
	DatabaseURL      string
	RedisURL         string
	ResultCacheTTL   time.Duration
	SolverBackend    string
	SolveTimeout     time.Duration
	SolveConcurrency int
	SolverNodeLimit  int
	ORSAPIKey        string
	GeocodeCountry   string
	GeocodeRPS       float64
	GeocodeMaxAge    time.Duration
	SeedPath         string
}

// Get returns the environment value for key, or fallback when unset or blank.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// Load reads every known key. Malformed values are reported rather than
// silently replaced by defaults.
func Load() (Config, error) {
	cfg := Config{
		Port:           Get("PORT", "8000"),
		DatabaseURL:    Get("DATABASE_URL", ""),
		RedisURL:       Get("REDIS_URL", ""),
		SolverBackend:  strings.ToLower(Get("SOLVER_BACKEND", "simplex")),
		ORSAPIKey:      Get("ORS_API_KEY", ""),
		GeocodeCountry: Get("GEOCODE_COUNTRY", "IN"),
		SeedPath:       Get("SEED_PATH", "data/seeds/scenarios.yaml"),
	}

	var err error
	if cfg.ResultCacheTTL, err = getDuration("RESULT_CACHE_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.SolveTimeout, err = getDuration("SOLVE_TIMEOUT", 60*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.SolveConcurrency, err = getInt("SOLVE_CONCURRENCY", runtime.NumCPU()); err != nil {
		return Config{}, err
	}
	if cfg.SolverNodeLimit, err = getInt("SOLVER_NODE_LIMIT", 100000); err != nil {
		return Config{}, err
	}
	if cfg.GeocodeRPS, err = getFloat("GEOCODE_RPS", 1); err != nil {
		return Config{}, err
	}
	if cfg.GeocodeMaxAge, err = getDuration("GEOCODE_CACHE_MAX_AGE", 30*24*time.Hour); err != nil {
		return Config{}, err
	}

	if cfg.SolveConcurrency < 1 {
		return Config{}, fmt.Errorf("config: SOLVE_CONCURRENCY must be >= 1, got %d", cfg.SolveConcurrency)
	}
	if cfg.SolverNodeLimit < 1 {
		return Config{}, fmt.Errorf("config: SOLVER_NODE_LIMIT must be >= 1, got %d", cfg.SolverNodeLimit)
	}
	if cfg.GeocodeRPS <= 0 {
		return Config{}, fmt.Errorf("config: GEOCODE_RPS must be > 0, got %v", cfg.GeocodeRPS)
	}
	switch cfg.SolverBackend {
	case "simplex", "highs":
	default:
		return Config{}, fmt.Errorf("config: unknown SOLVER_BACKEND %q", cfg.SolverBackend)
	}

	return cfg, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := Get(key, "")
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: parse %s=%q: %w", key, raw, err)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	raw := Get(key, "")
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("config: parse %s=%q: %w", key, raw, err)
	}
	return n, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	raw := Get(key, "")
	if raw == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("config: parse %s=%q: %w", key, raw, err)
	}
	return f, nil
}
