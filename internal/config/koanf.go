// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths searched for a config file, in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/feedgraph/config.yaml",
	"/etc/feedgraph/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:      "/data/feedgraph.duckdb",
			MaxMemory: "1GB",
			Threads:   0,
		},
		Graph: GraphConfig{
			IDMapping:  "substring",
			StripToken: "de",
		},
		Catalog: CatalogConfig{
			ItemsPath:   "/data/catalog/items.json",
			FeedsPath:   "/data/catalog/feeds.json",
			Watch:       true,
			ImageWidth:  640,
			ImageHeight: 360,
		},
		Scorer: ScorerConfig{
			URL:                 "",
			Timeout:             30 * time.Second,
			RateLimit:           0,
			Burst:               1,
			BreakerEnabled:      true,
			BreakerMaxRequests:  3,
			BreakerInterval:     time.Minute,
			BreakerTimeout:      2 * time.Minute,
			BreakerMinRequests:  10,
			BreakerFailureRatio: 0.6,
		},
		Ingest: IngestConfig{
			WipeEdges:    true,
			RunOnStartup: false,
			RebuildItems: true,
			Schedule:     "",
			RunTimeout:   30 * time.Minute,
			ProgressPath: "/data/ingest",
		},
		Feed: FeedConfig{
			BatchLookups:   true,
			CacheTTL:       time.Minute,
			FallbackSeed:   0,
			RequestTimeout: 10 * time.Second,
		},
		Events: EventsConfig{
			Enabled:     true,
			NATSURL:     "",
			TopicPrefix: "feedgraph",
		},
		Server: ServerConfig{
			Port:        8080,
			Host:        "0.0.0.0",
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Security: SecurityConfig{
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration with layered sources:
//  1. Defaults
//  2. Config file (optional)
//  3. Environment variables
func LoadWithKoanf() (*Config, error) {
	return LoadFromFile(findConfigFile())
}

// LoadFromFile loads configuration using an explicit config file path.
// An empty path skips the file layer.
func LoadFromFile(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first config file found, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths are parsed as comma-separated lists when they come from env vars.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to config paths.
// Variables not listed are ignored.
var envMappings = map[string]string{
	// Database
	"duckdb_path":       "database.path",
	"duckdb_max_memory": "database.max_memory",
	"duckdb_threads":    "database.threads",

	// Graph id mapping
	"id_mapping":     "graph.id_mapping",
	"id_strip_token": "graph.strip_token",

	// Catalog
	"catalog_items_path":   "catalog.items_path",
	"catalog_feeds_path":   "catalog.feeds_path",
	"catalog_watch":        "catalog.watch",
	"catalog_image_width":  "catalog.image_width",
	"catalog_image_height": "catalog.image_height",

	// Scorer
	"scorer_url":                   "scorer.url",
	"scorer_timeout":               "scorer.timeout",
	"scorer_rate_limit":            "scorer.rate_limit",
	"scorer_burst":                 "scorer.burst",
	"scorer_breaker_enabled":       "scorer.breaker_enabled",
	"scorer_breaker_max_requests":  "scorer.breaker_max_requests",
	"scorer_breaker_interval":      "scorer.breaker_interval",
	"scorer_breaker_timeout":       "scorer.breaker_timeout",
	"scorer_breaker_min_requests":  "scorer.breaker_min_requests",
	"scorer_breaker_failure_ratio": "scorer.breaker_failure_ratio",

	// Ingestion
	"ingest_wipe_edges":    "ingest.wipe_edges",
	"ingest_on_startup":    "ingest.run_on_startup",
	"ingest_rebuild_items": "ingest.rebuild_items",
	"ingest_schedule":      "ingest.schedule",
	"ingest_run_timeout":   "ingest.run_timeout",
	"ingest_progress_path": "ingest.progress_path",

	// Feed ranking
	"feed_batch_lookups":   "feed.batch_lookups",
	"feed_cache_ttl":       "feed.cache_ttl",
	"feed_fallback_seed":   "feed.fallback_seed",
	"feed_request_timeout": "feed.request_timeout",

	// Events
	"events_enabled":      "events.enabled",
	"nats_url":            "events.nats_url",
	"events_topic_prefix": "events.topic_prefix",

	// Server
	"http_port":    "server.port",
	"http_host":    "server.host",
	"http_timeout": "server.timeout",
	"environment":  "server.environment",

	// Security
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"cors_origins":        "security.cors_origins",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps an environment variable to its config path.
//
// Examples:
//   - DUCKDB_PATH -> database.path
//   - SCORER_URL -> scorer.url
//   - INGEST_SCHEDULE -> ingest.schedule
//   - HTTP_PORT -> server.port
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}

// WatchFile invokes callback whenever the file at path changes. The returned
// stop function ends the watch.
func WatchFile(path string, callback func()) (stop func() error, err error) {
	provider := file.Provider(path)
	err = provider.Watch(func(_ interface{}, watchErr error) {
		if watchErr != nil {
			return
		}
		callback()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to watch %s: %w", path, err)
	}
	return provider.Unwatch, nil
}
