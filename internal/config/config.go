// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

/*
Package config loads Feedgraph configuration.

Configuration is layered with Koanf v2:

 1. Built-in defaults (defaultConfig)
 2. Optional YAML file (CONFIG_PATH or one of DefaultConfigPaths)
 3. Environment variables, mapped explicitly in envTransformFunc

Later layers override earlier ones. The resulting Config is validated before
it is returned, so callers can rely on every section being usable.

Example config.yaml:

	catalog:
	  items_path: /data/catalog/items.json
	  feeds_path: /data/catalog/feeds.json
	scorer:
	  url: http://localhost:8000
	ingest:
	  schedule: "0 0 3 * * *"
	  progress_path: /data/ingest
*/
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Database DatabaseConfig `koanf:"database"`
	Graph    GraphConfig    `koanf:"graph"`
	Catalog  CatalogConfig  `koanf:"catalog"`
	Scorer   ScorerConfig   `koanf:"scorer"`
	Ingest   IngestConfig   `koanf:"ingest"`
	Feed     FeedConfig     `koanf:"feed"`
	Events   EventsConfig   `koanf:"events"`
	Server   ServerConfig   `koanf:"server"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// DatabaseConfig holds DuckDB settings for the edge store.
type DatabaseConfig struct {
	Path        string `koanf:"path"`
	MaxMemory   string `koanf:"max_memory"`
	Threads     int    `koanf:"threads"`      // 0 = runtime.NumCPU()
	SkipIndexes bool   `koanf:"skip_indexes"` // test setup only
}

// GraphConfig controls how catalog ids are mapped to store ids.
type GraphConfig struct {
	// IDMapping is "substring" (strip StripToken from every id) or "identity".
	IDMapping  string `koanf:"id_mapping"`
	StripToken string `koanf:"strip_token"`
}

// CatalogConfig locates the catalog export and the feed membership table.
type CatalogConfig struct {
	ItemsPath   string `koanf:"items_path"`
	FeedsPath   string `koanf:"feeds_path"`
	Watch       bool   `koanf:"watch"` // reload when either file changes
	ImageWidth  int    `koanf:"image_width"`
	ImageHeight int    `koanf:"image_height"`
}

// ScorerConfig configures the external similarity scorer.
// An empty URL selects the in-process content scorer.
type ScorerConfig struct {
	URL       string        `koanf:"url"`
	Timeout   time.Duration `koanf:"timeout"`
	RateLimit float64       `koanf:"rate_limit"` // requests per second, 0 = unlimited
	Burst     int           `koanf:"burst"`

	BreakerEnabled      bool          `koanf:"breaker_enabled"`
	BreakerMaxRequests  uint32        `koanf:"breaker_max_requests"`
	BreakerInterval     time.Duration `koanf:"breaker_interval"`
	BreakerTimeout      time.Duration `koanf:"breaker_timeout"`
	BreakerMinRequests  uint32        `koanf:"breaker_min_requests"`
	BreakerFailureRatio float64       `koanf:"breaker_failure_ratio"`
}

// IngestConfig configures similarity ingestion runs.
type IngestConfig struct {
	WipeEdges    bool          `koanf:"wipe_edges"`
	RunOnStartup bool          `koanf:"run_on_startup"`
	RebuildItems bool          `koanf:"rebuild_items"` // used by scheduled and startup runs
	Schedule     string        `koanf:"schedule"`      // cron spec with seconds, empty = manual only
	RunTimeout   time.Duration `koanf:"run_timeout"`
	ProgressPath string        `koanf:"progress_path"` // BadgerDB directory, empty = in-memory journal
}

// FeedConfig configures the feed ranker.
type FeedConfig struct {
	BatchLookups   bool          `koanf:"batch_lookups"`
	CacheTTL       time.Duration `koanf:"cache_ttl"` // 0 disables the edge cache
	FallbackSeed   int64         `koanf:"fallback_seed"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

// EventsConfig configures the graph change event bus.
type EventsConfig struct {
	Enabled     bool   `koanf:"enabled"`
	NATSURL     string `koanf:"nats_url"` // mirror events to NATS when set
	TopicPrefix string `koanf:"topic_prefix"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// SecurityConfig holds HTTP hardening settings.
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is json or console.
	Format string `koanf:"format"`

	// Caller adds file:line to every entry.
	Caller bool `koanf:"caller"`
}

// Load reads configuration from defaults, the config file and the environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// Addr returns the HTTP listen address.
func (s *ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// IsProduction reports whether the server runs in production mode.
func (s *ServerConfig) IsProduction() bool {
	return s.Environment == "production"
}
