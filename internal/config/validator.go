package config

import (
	"fmt"
	"net/url"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Validate checks a configuration for values that would break the server at
// runtime. Errors name the offending field.
func Validate(cfg *Config) error {
	if _, err := zerolog.ParseLevel(cfg.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: unknown level %q", cfg.Logging.Level)
	}

	if cfg.Cache.Capacity <= 0 {
		return fmt.Errorf("cache.capacity: must be positive, got %d", cfg.Cache.Capacity)
	}
	if cfg.Cache.TTLSeconds <= 0 {
		return fmt.Errorf("cache.ttl_seconds: must be positive, got %d", cfg.Cache.TTLSeconds)
	}

	urls := map[string]string{
		"upstream.protein_base_url":        cfg.Upstream.ProteinBaseURL,
		"upstream.pathway_base_url":        cfg.Upstream.PathwayBaseURL,
		"upstream.structure_base_url":      cfg.Upstream.StructureBaseURL,
		"upstream.structure_data_base_url": cfg.Upstream.StructureDataBaseURL,
		"upstream.ontology_base_url":       cfg.Upstream.OntologyBaseURL,
	}
	for field, raw := range urls {
		if err := validateBaseURL(raw); err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
	}

	if cfg.Upstream.TimeoutSeconds <= 0 {
		return fmt.Errorf("upstream.timeout_seconds: must be positive, got %d", cfg.Upstream.TimeoutSeconds)
	}
	if cfg.Invocation.TimeoutSeconds <= 0 {
		return fmt.Errorf("invocation.timeout_seconds: must be positive, got %d", cfg.Invocation.TimeoutSeconds)
	}

	if cfg.Maintenance.CacheSweepSchedule != "" {
		parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
		if _, err := parser.Parse(cfg.Maintenance.CacheSweepSchedule); err != nil {
			return fmt.Errorf("maintenance.cache_sweep_schedule: %w", err)
		}
	}

	return nil
}

func validateBaseURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("base URL cannot be empty")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("URL must include a host")
	}
	return nil
}
