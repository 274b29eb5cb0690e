// Marquee - Collaborative Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package config

import (
	"fmt"
	"math"
	"strings"
)

// minJWTSecretLength is the minimum admin token secret length in bytes.
const minJWTSecretLength = 32

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

var validStrategies = map[string]bool{
	"collaborative": true,
	"content":       true,
}

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateDataset,
		c.validateIndex,
		c.validateRecommend,
		c.validateServer,
		c.validateSecurity,
		c.validateLogging,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateDataset() error {
	if strings.TrimSpace(c.Dataset.RatingsPath) == "" {
		return fmt.Errorf("RATINGS_PATH is required")
	}
	if strings.TrimSpace(c.Dataset.MoviesPath) == "" {
		return fmt.Errorf("MOVIES_PATH is required")
	}
	if c.Dataset.PollInterval < 0 {
		return fmt.Errorf("DATASET_POLL_INTERVAL must be non-negative, got %v", c.Dataset.PollInterval)
	}
	if c.Dataset.LoadTimeout <= 0 {
		return fmt.Errorf("DATASET_LOAD_TIMEOUT must be positive, got %v", c.Dataset.LoadTimeout)
	}
	return nil
}

func (c *Config) validateIndex() error {
	if c.Index.MaxJoinRows < 1 {
		return fmt.Errorf("INDEX_MAX_JOIN_ROWS must be at least 1, got %d", c.Index.MaxJoinRows)
	}
	if c.Index.MinRaters < 0 {
		return fmt.Errorf("INDEX_MIN_RATERS must be non-negative, got %d", c.Index.MinRaters)
	}
	if math.IsNaN(c.Index.FillValue) || math.IsInf(c.Index.FillValue, 0) {
		return fmt.Errorf("INDEX_FILL_VALUE must be finite, got %v", c.Index.FillValue)
	}
	if c.Index.RebuildTimeout <= 0 {
		return fmt.Errorf("INDEX_REBUILD_TIMEOUT must be positive, got %v", c.Index.RebuildTimeout)
	}
	if c.Index.MinRebuildInterval < 0 {
		return fmt.Errorf("INDEX_MIN_REBUILD_INTERVAL must be non-negative, got %v", c.Index.MinRebuildInterval)
	}
	return nil
}

func (c *Config) validateRecommend() error {
	r := &c.Recommend
	if !validStrategies[r.DefaultStrategy] {
		return fmt.Errorf("RECOMMEND_DEFAULT_STRATEGY must be one of: collaborative, content")
	}
	if r.DefaultStrategy == "content" && !r.ContentEnabled {
		return fmt.Errorf("RECOMMEND_DEFAULT_STRATEGY=content requires RECOMMEND_CONTENT_ENABLED=true")
	}
	if r.DefaultTopN < 1 {
		return fmt.Errorf("RECOMMEND_DEFAULT_TOP_N must be at least 1, got %d", r.DefaultTopN)
	}
	if r.MaxTopN < r.DefaultTopN {
		return fmt.Errorf("RECOMMEND_MAX_TOP_N (%d) must be >= RECOMMEND_DEFAULT_TOP_N (%d)", r.MaxTopN, r.DefaultTopN)
	}
	if r.MaxSeeds < 1 {
		return fmt.Errorf("RECOMMEND_MAX_SEEDS must be at least 1, got %d", r.MaxSeeds)
	}
	if r.CacheEnabled {
		if r.CacheTTL <= 0 {
			return fmt.Errorf("RECOMMEND_CACHE_TTL must be positive when caching is enabled, got %v", r.CacheTTL)
		}
		if r.CacheMaxEntries < 1 {
			return fmt.Errorf("RECOMMEND_CACHE_MAX_ENTRIES must be at least 1, got %d", r.CacheMaxEntries)
		}
	}
	if r.ContentEnabled {
		if r.GenreWeight < 0 || r.YearWeight < 0 {
			return fmt.Errorf("content weights must be non-negative")
		}
		if r.GenreWeight+r.YearWeight == 0 {
			return fmt.Errorf("content weights must not both be zero")
		}
		if r.MaxYearDifference < 1 {
			return fmt.Errorf("RECOMMEND_MAX_YEAR_DIFFERENCE must be at least 1, got %d", r.MaxYearDifference)
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %v", c.Server.Timeout)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if secret := c.Security.AdminJWTSecret; secret != "" && len(secret) < minJWTSecretLength {
		return fmt.Errorf("ADMIN_JWT_SECRET must be at least %d characters", minJWTSecretLength)
	}
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < 1 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1, got %d", c.Security.RateLimitReqs)
	}
	if c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %v", c.Security.RateLimitWindow)
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}
