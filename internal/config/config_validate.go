// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
)

// CronParser parses ingestion schedules. Specs carry a leading seconds field.
var CronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Validate checks that every section is usable.
func (c *Config) Validate() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateGraph(); err != nil {
		return err
	}
	if err := c.validateCatalog(); err != nil {
		return err
	}
	if err := c.validateScorer(); err != nil {
		return err
	}
	if err := c.validateIngest(); err != nil {
		return err
	}
	if err := c.validateFeed(); err != nil {
		return err
	}
	if err := c.validateEvents(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH is required")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must be >= 0, got %d", c.Database.Threads)
	}
	return nil
}

func (c *Config) validateGraph() error {
	switch c.Graph.IDMapping {
	case "identity":
		return nil
	case "substring":
		if c.Graph.StripToken == "" {
			return fmt.Errorf("ID_STRIP_TOKEN is required when ID_MAPPING=substring")
		}
		return nil
	default:
		return fmt.Errorf("ID_MAPPING must be 'substring' or 'identity', got: %s", c.Graph.IDMapping)
	}
}

func (c *Config) validateCatalog() error {
	if c.Catalog.ItemsPath == "" {
		return fmt.Errorf("CATALOG_ITEMS_PATH is required")
	}
	if c.Catalog.FeedsPath == "" {
		return fmt.Errorf("CATALOG_FEEDS_PATH is required")
	}
	if c.Catalog.ImageWidth <= 0 || c.Catalog.ImageHeight <= 0 {
		return fmt.Errorf("catalog image resolution must be positive, got %dx%d",
			c.Catalog.ImageWidth, c.Catalog.ImageHeight)
	}
	return nil
}

func (c *Config) validateScorer() error {
	s := &c.Scorer
	if s.URL != "" {
		if err := validateHTTPURL(s.URL, "SCORER_URL"); err != nil {
			return err
		}
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("SCORER_TIMEOUT must be positive, got %v", s.Timeout)
	}
	if s.RateLimit < 0 {
		return fmt.Errorf("SCORER_RATE_LIMIT must be >= 0, got %v", s.RateLimit)
	}
	if s.RateLimit > 0 && s.Burst < 1 {
		return fmt.Errorf("SCORER_BURST must be >= 1 when a rate limit is set, got %d", s.Burst)
	}
	if s.BreakerEnabled {
		if s.BreakerFailureRatio <= 0 || s.BreakerFailureRatio > 1 {
			return fmt.Errorf("SCORER_BREAKER_FAILURE_RATIO must be in (0, 1], got %v", s.BreakerFailureRatio)
		}
		if s.BreakerTimeout <= 0 {
			return fmt.Errorf("SCORER_BREAKER_TIMEOUT must be positive, got %v", s.BreakerTimeout)
		}
	}
	return nil
}

func (c *Config) validateIngest() error {
	if c.Ingest.RunTimeout <= 0 {
		return fmt.Errorf("INGEST_RUN_TIMEOUT must be positive, got %v", c.Ingest.RunTimeout)
	}
	if c.Ingest.Schedule != "" {
		if _, err := CronParser.Parse(c.Ingest.Schedule); err != nil {
			return fmt.Errorf("INGEST_SCHEDULE is invalid: %w", err)
		}
	}
	return nil
}

func (c *Config) validateFeed() error {
	if c.Feed.CacheTTL < 0 {
		return fmt.Errorf("FEED_CACHE_TTL must be >= 0, got %v", c.Feed.CacheTTL)
	}
	if c.Feed.RequestTimeout <= 0 {
		return fmt.Errorf("FEED_REQUEST_TIMEOUT must be positive, got %v", c.Feed.RequestTimeout)
	}
	return nil
}

func (c *Config) validateEvents() error {
	if c.Events.NATSURL != "" && !strings.HasPrefix(c.Events.NATSURL, "nats://") &&
		!strings.HasPrefix(c.Events.NATSURL, "tls://") {
		return fmt.Errorf("NATS_URL must use nats:// or tls://, got: %s", c.Events.NATSURL)
	}
	if c.Events.TopicPrefix == "" {
		return fmt.Errorf("EVENTS_TOPIC_PREFIX must not be empty")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %v", c.Server.Timeout)
	}
	switch c.Server.Environment {
	case "development", "staging", "production":
		return nil
	default:
		return fmt.Errorf("ENVIRONMENT must be development, staging or production, got: %s", c.Server.Environment)
	}
}

func (c *Config) validateSecurity() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < 1 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be >= 1, got %d", c.Security.RateLimitReqs)
	}
	if c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %v", c.Security.RateLimitWindow)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, got: %s", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got: %s", c.Logging.Format)
	}
}

// validateHTTPURL checks that rawURL is an http(s) base URL without path or query.
func validateHTTPURL(rawURL, fieldName string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https, got: %s", fieldName, parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}
	if parsedURL.Path != "" && parsedURL.Path != "/" {
		return fmt.Errorf("%s should be base URL only, remove path: %s", fieldName, parsedURL.Path)
	}
	if parsedURL.RawQuery != "" {
		return fmt.Errorf("%s should not contain query parameters, remove: ?%s", fieldName, parsedURL.RawQuery)
	}
	return nil
}
