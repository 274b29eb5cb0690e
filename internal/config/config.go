// Marquee - Collaborative Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package config loads and validates the Marquee service configuration.
//
// Configuration is layered with koanf, each layer overriding the previous:
//
//  1. Built-in defaults (defaultConfig)
//  2. Optional YAML file (CONFIG_PATH, ./config.yaml, /etc/marquee/config.yaml)
//  3. Environment variables (explicit mapping, unknown variables ignored)
//
// Sections:
//   - Dataset: MovieLens CSV locations and change polling
//   - Index: collaborative index build parameters
//   - Recommend: request limits, result cache, content model weights
//   - Database: DuckDB loader settings
//   - Server: HTTP listener
//   - Security: rate limiting, CORS, admin token secret
//   - Logging: log level and output format
//
// Example:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    logging.Fatal().Err(err).Msg("Failed to load configuration")
//	}
//
// Config is immutable after Load() and safe for concurrent read access.
package config

import "time"

// Config is the root service configuration.
type Config struct {
	Dataset   DatasetConfig   `koanf:"dataset"`
	Index     IndexConfig     `koanf:"index"`
	Recommend RecommendConfig `koanf:"recommend"`
	Database  DatabaseConfig  `koanf:"database"`
	Server    ServerConfig    `koanf:"server"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// DatasetConfig locates the MovieLens files the index is built from.
//
// Environment Variables:
//   - RATINGS_PATH: ratings.csv (userId, movieId, rating, timestamp)
//   - MOVIES_PATH: movies.csv (movieId, title, genres)
//   - DISAMBIGUATE_TITLES: suffix duplicate titles with " #<movieId>" (default: true)
//   - DATASET_POLL_INTERVAL: fingerprint polling interval, 0 disables (default: 1m)
//   - BUILD_ON_STARTUP: build the index when the service starts (default: true)
//   - DATASET_LOAD_TIMEOUT: maximum time for one dataset load (default: 5m)
type DatasetConfig struct {
	RatingsPath        string        `koanf:"ratings_path"`
	MoviesPath         string        `koanf:"movies_path"`
	DisambiguateTitles bool          `koanf:"disambiguate_titles"`
	PollInterval       time.Duration `koanf:"poll_interval"`
	BuildOnStartup     bool          `koanf:"build_on_startup"`
	LoadTimeout        time.Duration `koanf:"load_timeout"`
}

// IndexConfig holds the collaborative index build parameters.
type IndexConfig struct {
	// MaxJoinRows caps the joined rating rows, in file order.
	// Default: 500000
	MaxJoinRows int `koanf:"max_join_rows"`

	// MinRaters is the minimum observed ratings a title needs to be indexed.
	// Default: 10
	MinRaters int `koanf:"min_raters"`

	// FillValue replaces unobserved cells after filtering.
	// Default: 0
	FillValue float64 `koanf:"fill_value"`

	// AcceptDegenerate publishes indexes with fewer than two users or no titles.
	// Default: false
	AcceptDegenerate bool `koanf:"accept_degenerate"`

	// RebuildTimeout bounds one full rebuild.
	// Default: 10m
	RebuildTimeout time.Duration `koanf:"rebuild_timeout"`

	// MinRebuildInterval throttles manually triggered rebuilds.
	// Default: 30s
	MinRebuildInterval time.Duration `koanf:"min_rebuild_interval"`
}

// RecommendConfig holds request limits, caching and content model settings.
type RecommendConfig struct {
	// DefaultStrategy is used when a request names none: collaborative or content.
	DefaultStrategy string `koanf:"default_strategy"`

	DefaultTopN int `koanf:"default_top_n"`
	MaxTopN     int `koanf:"max_top_n"`
	MaxSeeds    int `koanf:"max_seeds"`

	CacheEnabled    bool          `koanf:"cache_enabled"`
	CacheTTL        time.Duration `koanf:"cache_ttl"`
	CacheMaxEntries int           `koanf:"cache_max_entries"`

	// ContentEnabled trains the genre/year model on every rebuild.
	ContentEnabled    bool    `koanf:"content_enabled"`
	GenreWeight       float64 `koanf:"genre_weight"`
	YearWeight        float64 `koanf:"year_weight"`
	MaxYearDifference int     `koanf:"max_year_difference"`
}

// DatabaseConfig holds DuckDB settings for the dataset loader.
type DatabaseConfig struct {
	// Path is the DuckDB file. Empty opens an in-memory database.
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = use NumCPU
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port    int           `koanf:"port"`
	Host    string        `koanf:"host"`
	Timeout time.Duration `koanf:"timeout"`
}

// SecurityConfig holds rate limiting, CORS and admin authentication settings.
type SecurityConfig struct {
	// AdminJWTSecret signs the tokens accepted by the rebuild endpoint.
	// Empty leaves the endpoint unauthenticated.
	AdminJWTSecret string `koanf:"admin_jwt_secret"`

	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	// Default: json
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	Caller bool `koanf:"caller"`
}

// Load reads configuration from defaults, the config file and the environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
