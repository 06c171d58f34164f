// Package config defines and loads the Promethica server configuration.
package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// Config is the root server configuration.
type Config struct {
	Logging     LoggingConfig     `json:"logging" mapstructure:"logging"`
	Cache       CacheConfig       `json:"cache" mapstructure:"cache"`
	Upstream    UpstreamConfig    `json:"upstream" mapstructure:"upstream"`
	Invocation  InvocationConfig  `json:"invocation" mapstructure:"invocation"`
	Maintenance MaintenanceConfig `json:"maintenance" mapstructure:"maintenance"`
}

// LoggingConfig controls the zerolog setup.
type LoggingConfig struct {
	Level   string `json:"level" mapstructure:"level"`
	File    string `json:"file" mapstructure:"file"`
	Console bool   `json:"console" mapstructure:"console"`
	Pretty  bool   `json:"pretty" mapstructure:"pretty"`
}

// CacheConfig bounds the shared result cache.
type CacheConfig struct {
	Capacity   int `json:"capacity" mapstructure:"capacity"`
	TTLSeconds int `json:"ttl_seconds" mapstructure:"ttl_seconds"`
}

// TTL returns the entry time-to-live as a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// UpstreamConfig addresses the four upstream registry roles and the shared
// HTTP client settings.
type UpstreamConfig struct {
	ProteinBaseURL       string `json:"protein_base_url" mapstructure:"protein_base_url"`
	PathwayBaseURL       string `json:"pathway_base_url" mapstructure:"pathway_base_url"`
	StructureBaseURL     string `json:"structure_base_url" mapstructure:"structure_base_url"`
	StructureDataBaseURL string `json:"structure_data_base_url" mapstructure:"structure_data_base_url"`
	OntologyBaseURL      string `json:"ontology_base_url" mapstructure:"ontology_base_url"`
	UserAgent            string `json:"user_agent" mapstructure:"user_agent"`
	TimeoutSeconds       int    `json:"timeout_seconds" mapstructure:"timeout_seconds"`
}

// Timeout returns the per-call timeout as a duration.
func (c UpstreamConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// InvocationConfig bounds one tool invocation end to end.
type InvocationConfig struct {
	TimeoutSeconds int `json:"timeout_seconds" mapstructure:"timeout_seconds"`
}

// Timeout returns the invocation timeout as a duration.
func (c InvocationConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// MaintenanceConfig holds background housekeeping settings.
type MaintenanceConfig struct {
	// CacheSweepSchedule is a cron spec for the expired-entry sweep.
	CacheSweepSchedule string `json:"cache_sweep_schedule" mapstructure:"cache_sweep_schedule"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
			Pretty:  true,
		},
		Cache: CacheConfig{
			Capacity:   2048,
			TTLSeconds: 3600,
		},
		Upstream: UpstreamConfig{
			ProteinBaseURL:       "https://rest.uniprot.org",
			PathwayBaseURL:       "https://reactome.org",
			StructureBaseURL:     "https://search.rcsb.org",
			StructureDataBaseURL: "https://data.rcsb.org",
			OntologyBaseURL:      "http://api.geneontology.org",
			UserAgent:            "promethica/0.1.0",
			TimeoutSeconds:       30,
		},
		Invocation: InvocationConfig{
			TimeoutSeconds: 60,
		},
		Maintenance: MaintenanceConfig{
			CacheSweepSchedule: "@every 10m",
		},
	}
}

// String returns an indented JSON rendering, useful for status output.
func (c *Config) String() string {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return string(data)
}
