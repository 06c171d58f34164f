package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 2048, cfg.Cache.Capacity)
	assert.Equal(t, time.Hour, cfg.Cache.TTL())
	assert.Equal(t, 30*time.Second, cfg.Upstream.Timeout())
	assert.Equal(t, 60*time.Second, cfg.Invocation.Timeout())
	assert.Equal(t, "promethica/0.1.0", cfg.Upstream.UserAgent)
	assert.Equal(t, "@every 10m", cfg.Maintenance.CacheSweepSchedule)

	assert.NoError(t, Validate(cfg), "defaults must always validate")
}

func TestLoader_MissingFileFallsBackToDefaults(t *testing.T) {
	loader := NewLoader(filepath.Join(t.TempDir(), "absent.json"))

	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoader_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "promethica.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"logging": {"level": "debug"},
		"cache": {"capacity": 64, "ttl_seconds": 120},
		"upstream": {"protein_base_url": "http://localhost:8080"}
	}`), 0o644))

	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 64, cfg.Cache.Capacity)
	assert.Equal(t, 2*time.Minute, cfg.Cache.TTL())
	assert.Equal(t, "http://localhost:8080", cfg.Upstream.ProteinBaseURL)
	// Untouched fields keep their defaults.
	assert.Equal(t, "https://reactome.org", cfg.Upstream.PathwayBaseURL)
	assert.Equal(t, 30, cfg.Upstream.TimeoutSeconds)
}

func TestLoader_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "promethica.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o644))

	_, err := NewLoader(path).Load()
	assert.Error(t, err)
}

func TestLoader_InvalidValuesRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "promethica.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"cache": {"capacity": -1}}`), 0o644))

	_, err := NewLoader(path).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache.capacity")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *Config)
		field  string
	}{
		{
			name:   "unknown log level",
			mutate: func(cfg *Config) { cfg.Logging.Level = "loud" },
			field:  "logging.level",
		},
		{
			name:   "zero cache capacity",
			mutate: func(cfg *Config) { cfg.Cache.Capacity = 0 },
			field:  "cache.capacity",
		},
		{
			name:   "negative cache ttl",
			mutate: func(cfg *Config) { cfg.Cache.TTLSeconds = -5 },
			field:  "cache.ttl_seconds",
		},
		{
			name:   "empty base URL",
			mutate: func(cfg *Config) { cfg.Upstream.ProteinBaseURL = "" },
			field:  "upstream.protein_base_url",
		},
		{
			name:   "unsupported URL scheme",
			mutate: func(cfg *Config) { cfg.Upstream.PathwayBaseURL = "ftp://reactome.org" },
			field:  "upstream.pathway_base_url",
		},
		{
			name:   "URL without host",
			mutate: func(cfg *Config) { cfg.Upstream.OntologyBaseURL = "http://" },
			field:  "upstream.ontology_base_url",
		},
		{
			name:   "zero upstream timeout",
			mutate: func(cfg *Config) { cfg.Upstream.TimeoutSeconds = 0 },
			field:  "upstream.timeout_seconds",
		},
		{
			name:   "zero invocation timeout",
			mutate: func(cfg *Config) { cfg.Invocation.TimeoutSeconds = 0 },
			field:  "invocation.timeout_seconds",
		},
		{
			name:   "bad sweep schedule",
			mutate: func(cfg *Config) { cfg.Maintenance.CacheSweepSchedule = "every day at noon" },
			field:  "maintenance.cache_sweep_schedule",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestValidate_EmptySweepScheduleAllowed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Maintenance.CacheSweepSchedule = ""
	assert.NoError(t, Validate(cfg), "empty schedule disables the sweep")
}
