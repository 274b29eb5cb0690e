// Marquee - Collaborative Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

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

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/marquee/config.yaml",
	"/etc/marquee/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all default values.
func defaultConfig() *Config {
	return &Config{
		Dataset: DatasetConfig{
			RatingsPath:        "/data/ratings.csv",
			MoviesPath:         "/data/movies.csv",
			DisambiguateTitles: true,
			PollInterval:       time.Minute,
			BuildOnStartup:     true,
			LoadTimeout:        5 * time.Minute,
		},
		Index: IndexConfig{
			MaxJoinRows:        500000,
			MinRaters:          10,
			FillValue:          0,
			AcceptDegenerate:   false,
			RebuildTimeout:     10 * time.Minute,
			MinRebuildInterval: 30 * time.Second,
		},
		Recommend: RecommendConfig{
			DefaultStrategy:   "collaborative",
			DefaultTopN:       10,
			MaxTopN:           100,
			MaxSeeds:          20,
			CacheEnabled:      true,
			CacheTTL:          5 * time.Minute,
			CacheMaxEntries:   10000,
			ContentEnabled:    true,
			GenreWeight:       0.8,
			YearWeight:        0.2,
			MaxYearDifference: 20,
		},
		Database: DatabaseConfig{
			Path:      "",
			MaxMemory: "1GB",
			Threads:   0,
		},
		Server: ServerConfig{
			Port:    8080,
			Host:    "0.0.0.0",
			Timeout: 30 * time.Second,
		},
		Security: SecurityConfig{
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf loads configuration using Koanf with layered sources:
// defaults, then the config file, then environment variables.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
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

// findConfigFile returns the first existing config file, or "".
// CONFIG_PATH takes precedence over the default locations.
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

// sliceConfigPaths lists keys that accept comma-separated env values.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields splits comma-separated string values into slices.
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

// envMappings maps lowercased environment variable names to config keys.
var envMappings = map[string]string{
	"ratings_path":          "dataset.ratings_path",
	"movies_path":           "dataset.movies_path",
	"disambiguate_titles":   "dataset.disambiguate_titles",
	"dataset_poll_interval": "dataset.poll_interval",
	"build_on_startup":      "dataset.build_on_startup",
	"dataset_load_timeout":  "dataset.load_timeout",

	"index_max_join_rows":        "index.max_join_rows",
	"index_min_raters":           "index.min_raters",
	"index_fill_value":           "index.fill_value",
	"index_accept_degenerate":    "index.accept_degenerate",
	"index_rebuild_timeout":      "index.rebuild_timeout",
	"index_min_rebuild_interval": "index.min_rebuild_interval",

	"recommend_default_strategy":    "recommend.default_strategy",
	"recommend_default_top_n":       "recommend.default_top_n",
	"recommend_max_top_n":           "recommend.max_top_n",
	"recommend_max_seeds":           "recommend.max_seeds",
	"recommend_cache_enabled":       "recommend.cache_enabled",
	"recommend_cache_ttl":           "recommend.cache_ttl",
	"recommend_cache_max_entries":   "recommend.cache_max_entries",
	"recommend_content_enabled":     "recommend.content_enabled",
	"recommend_genre_weight":        "recommend.genre_weight",
	"recommend_year_weight":         "recommend.year_weight",
	"recommend_max_year_difference": "recommend.max_year_difference",

	"duckdb_path":       "database.path",
	"duckdb_max_memory": "database.max_memory",
	"duckdb_threads":    "database.threads",

	"http_port":    "server.port",
	"http_host":    "server.host",
	"http_timeout": "server.timeout",

	"admin_jwt_secret":    "security.admin_jwt_secret",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"cors_origins":        "security.cors_origins",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps environment variable names to config keys.
// Unmapped variables return "" and are skipped.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
