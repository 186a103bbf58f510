package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "SOLVER_BACKEND", "SOLVE_TIMEOUT", "RESULT_CACHE_TTL", "SOLVE_CONCURRENCY", "SOLVER_NODE_LIMIT", "GEOCODE_RPS", "GEOCODE_COUNTRY", "GEOCODE_CACHE_MAX_AGE"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, "simplex", cfg.SolverBackend)
	assert.Equal(t, 60*time.Second, cfg.SolveTimeout)
	assert.Equal(t, 24*time.Hour, cfg.ResultCacheTTL)
	assert.Equal(t, "IN", cfg.GeocodeCountry)
	assert.Equal(t, 30*24*time.Hour, cfg.GeocodeMaxAge)
	assert.GreaterOrEqual(t, cfg.SolveConcurrency, 1)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SOLVER_BACKEND", "HiGHS")
	t.Setenv("SOLVE_TIMEOUT", "5s")
	t.Setenv("SOLVE_CONCURRENCY", "3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "highs", cfg.SolverBackend)
	assert.Equal(t, 5*time.Second, cfg.SolveTimeout)
	assert.Equal(t, 3, cfg.SolveConcurrency)
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	cases := map[string]string{
		"SOLVE_TIMEOUT":     "soon",
		"SOLVE_CONCURRENCY": "0",
		"SOLVER_BACKEND":    "cplex",
		"GEOCODE_RPS":       "-1",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
