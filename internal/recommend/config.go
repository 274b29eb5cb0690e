// Marquee - Collaborative Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package recommend

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Config contains all configuration for the recommendation engine.
type Config struct {
	// Index controls how the collaborative index is built.
	Index IndexConfig `json:"index"`

	// ContentBased contains content-based filtering parameters.
	ContentBased ContentBasedConfig `json:"content_based"`

	// Limits contains request limits.
	Limits LimitsConfig `json:"limits"`

	// Cache contains result caching parameters.
	Cache CacheConfig `json:"cache"`

	// Rebuild contains index rebuild parameters.
	Rebuild RebuildConfig `json:"rebuild"`
}

// IndexConfig contains the collaborative index build parameters.
type IndexConfig struct {
	// MaxJoinRows caps the joined rating rows, in input order.
	// Default: 500000.
	MaxJoinRows int `json:"max_join_rows"`

	// MinRaters is the minimum number of observed ratings per retained title.
	// Default: 10.
	MinRaters int `json:"min_raters"`

	// FillValue replaces unobserved cells after filtering.
	// Default: 0.
	FillValue float64 `json:"fill_value"`
}

// DefaultIndexConfig returns the standard index build parameters.
func DefaultIndexConfig() IndexConfig {
	return IndexConfig{
		MaxJoinRows: DefaultMaxJoinRows,
		MinRaters:   DefaultMinRaters,
		FillValue:   DefaultFillValue,
	}
}

// Validate checks the index parameters.
func (c IndexConfig) Validate() error {
	if c.MaxJoinRows < 1 {
		return fmt.Errorf("index.max_join_rows must be positive, got %d", c.MaxJoinRows)
	}
	if c.MinRaters < 1 {
		return fmt.Errorf("index.min_raters must be positive, got %d", c.MinRaters)
	}
	if math.IsNaN(c.FillValue) || math.IsInf(c.FillValue, 0) {
		return fmt.Errorf("index.fill_value must be finite, got %f", c.FillValue)
	}
	return nil
}

// ContentBasedConfig contains parameters for content-based filtering.
type ContentBasedConfig struct {
	// Enabled controls whether the content model is trained on rebuild.
	// Default: true.
	Enabled bool `json:"enabled"`

	// GenreWeight is the importance of genre overlap.
	// Default: 0.8.
	GenreWeight float64 `json:"genre_weight"`

	// YearWeight is the importance of release year proximity.
	// Default: 0.2.
	YearWeight float64 `json:"year_weight"`

	// MaxYearDifference is the maximum year difference to consider.
	// Items beyond this are assigned zero year similarity.
	// Default: 20.
	MaxYearDifference int `json:"max_year_difference"`
}

// LimitsConfig contains request limits.
type LimitsConfig struct {
	// DefaultTopN is used when a request does not set TopN.
	// Default: 10.
	DefaultTopN int `json:"default_top_n"`

	// MaxTopN is the largest TopN honoured. Larger values are clamped.
	// Default: 100.
	MaxTopN int `json:"max_top_n"`

	// MaxSeeds is the maximum number of seeds per request.
	// Default: 20.
	MaxSeeds int `json:"max_seeds"`
}

// CacheConfig contains caching parameters.
type CacheConfig struct {
	// Enabled controls whether caching is active.
	// Default: true.
	Enabled bool `json:"enabled"`

	// TTL is the cache entry time-to-live.
	// Default: 5m.
	TTL time.Duration `json:"ttl"`

	// MaxEntries is the maximum number of cached entries.
	// Default: 10000.
	MaxEntries int `json:"max_entries"`
}

// RebuildConfig contains rebuild parameters.
type RebuildConfig struct {
	// Timeout is the maximum time allowed for loading and building one snapshot.
	// Default: 10m.
	Timeout time.Duration `json:"timeout"`

	// AcceptDegenerate keeps an index with zero retained titles instead of
	// failing the rebuild and keeping the previous snapshot.
	// Default: false.
	AcceptDegenerate bool `json:"accept_degenerate"`
}

// DefaultConfig returns a Config with sensible production defaults.
func DefaultConfig() *Config {
	return &Config{
		Index: DefaultIndexConfig(),
		ContentBased: ContentBasedConfig{
			Enabled:           true,
			GenreWeight:       0.8,
			YearWeight:        0.2,
			MaxYearDifference: 20,
		},
		Limits: LimitsConfig{
			DefaultTopN: 10,
			MaxTopN:     100,
			MaxSeeds:    20,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTL:        5 * time.Minute,
			MaxEntries: 10000,
		},
		Rebuild: RebuildConfig{
			Timeout: 10 * time.Minute,
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := c.Index.Validate(); err != nil {
		return err
	}

	if c.ContentBased.GenreWeight < 0 {
		return fmt.Errorf("content_based.genre_weight must be non-negative, got %f", c.ContentBased.GenreWeight)
	}
	if c.ContentBased.YearWeight < 0 {
		return fmt.Errorf("content_based.year_weight must be non-negative, got %f", c.ContentBased.YearWeight)
	}
	if c.ContentBased.Enabled && c.ContentBased.GenreWeight+c.ContentBased.YearWeight == 0 {
		return fmt.Errorf("content_based weights must not all be zero")
	}
	if c.ContentBased.MaxYearDifference < 1 {
		return fmt.Errorf("content_based.max_year_difference must be positive, got %d", c.ContentBased.MaxYearDifference)
	}

	if c.Limits.DefaultTopN < 1 {
		return fmt.Errorf("limits.default_top_n must be positive, got %d", c.Limits.DefaultTopN)
	}
	if c.Limits.MaxTopN < c.Limits.DefaultTopN {
		return fmt.Errorf("limits.max_top_n must be >= limits.default_top_n, got %d < %d", c.Limits.MaxTopN, c.Limits.DefaultTopN)
	}
	if c.Limits.MaxSeeds < 1 {
		return fmt.Errorf("limits.max_seeds must be positive, got %d", c.Limits.MaxSeeds)
	}

	if c.Cache.Enabled {
		if c.Cache.TTL <= 0 {
			return fmt.Errorf("cache.ttl must be positive, got %v", c.Cache.TTL)
		}
		if c.Cache.MaxEntries < 1 {
			return fmt.Errorf("cache.max_entries must be positive, got %d", c.Cache.MaxEntries)
		}
	}

	if c.Rebuild.Timeout <= 0 {
		return fmt.Errorf("rebuild.timeout must be positive, got %v", c.Rebuild.Timeout)
	}

	return nil
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	// Direct field copy - all nested structs contain only value types
	return &Config{
		Index:        c.Index,
		ContentBased: c.ContentBased,
		Limits:       c.Limits,
		Cache:        c.Cache,
		Rebuild:      c.Rebuild,
	}
}

// MarshalJSON implements custom JSON marshaling for duration fields.
func (c *Config) MarshalJSON() ([]byte, error) {
	type Alias Config
	return json.Marshal(&struct {
		*Alias
		Cache struct {
			Enabled    bool   `json:"enabled"`
			TTL        string `json:"ttl"`
			MaxEntries int    `json:"max_entries"`
		} `json:"cache"`
		Rebuild struct {
			Timeout          string `json:"timeout"`
			AcceptDegenerate bool   `json:"accept_degenerate"`
		} `json:"rebuild"`
	}{
		Alias: (*Alias)(c),
		Cache: struct {
			Enabled    bool   `json:"enabled"`
			TTL        string `json:"ttl"`
			MaxEntries int    `json:"max_entries"`
		}{
			Enabled:    c.Cache.Enabled,
			TTL:        c.Cache.TTL.String(),
			MaxEntries: c.Cache.MaxEntries,
		},
		Rebuild: struct {
			Timeout          string `json:"timeout"`
			AcceptDegenerate bool   `json:"accept_degenerate"`
		}{
			Timeout:          c.Rebuild.Timeout.String(),
			AcceptDegenerate: c.Rebuild.AcceptDegenerate,
		},
	})
}
