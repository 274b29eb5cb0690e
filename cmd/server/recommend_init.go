// Marquee - Collaborative Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package main

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/marquee/internal/config"
	"github.com/tomtom215/marquee/internal/recommend"
	"github.com/tomtom215/marquee/internal/recommend/algorithms"
	"github.com/tomtom215/marquee/internal/supervisor/services"
)

// dataSource is what the engine and the index service need from the loader.
type dataSource interface {
	recommend.DataProvider
	services.Fingerprinter
}

// RecommendComponents holds all recommendation-related components.
type RecommendComponents struct {
	Engine  *recommend.Engine
	Service *services.IndexService
}

// initRecommend builds the engine over source and the service that keeps
// its index current. The service still has to be added to the tree.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func initRecommend(cfg *config.Config, source dataSource, logger zerolog.Logger) (*RecommendComponents, error) {
	engineCfg := buildEngineConfig(cfg)

	var contentFactory recommend.ContentFactory
	if engineCfg.ContentBased.Enabled {
		contentFactory = algorithms.NewContentFactory(engineCfg.ContentBased)
	}

	engine, err := recommend.NewEngine(engineCfg, source, contentFactory, logger)
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}

	service := services.NewIndexService(engine, source, buildIndexServiceConfig(cfg), logger)

	logger.Info().
		Int("min_raters", engineCfg.Index.MinRaters).
		Bool("content_model", contentFactory != nil).
		Bool("cache", engineCfg.Cache.Enabled).
		Dur("poll_interval", cfg.Dataset.PollInterval).
		Msg("recommendation engine initialized")

	return &RecommendComponents{Engine: engine, Service: service}, nil
}

// buildEngineConfig maps the application configuration onto the engine's.
func buildEngineConfig(cfg *config.Config) *recommend.Config {
	return &recommend.Config{
		Index: recommend.IndexConfig{
			MaxJoinRows: cfg.Index.MaxJoinRows,
			MinRaters:   cfg.Index.MinRaters,
			FillValue:   cfg.Index.FillValue,
		},
		ContentBased: recommend.ContentBasedConfig{
			Enabled:           cfg.Recommend.ContentEnabled,
			GenreWeight:       cfg.Recommend.GenreWeight,
			YearWeight:        cfg.Recommend.YearWeight,
			MaxYearDifference: cfg.Recommend.MaxYearDifference,
		},
		Limits: recommend.LimitsConfig{
			DefaultTopN: cfg.Recommend.DefaultTopN,
			MaxTopN:     cfg.Recommend.MaxTopN,
			MaxSeeds:    cfg.Recommend.MaxSeeds,
		},
		Cache: recommend.CacheConfig{
			Enabled:    cfg.Recommend.CacheEnabled,
			TTL:        cfg.Recommend.CacheTTL,
			MaxEntries: cfg.Recommend.CacheMaxEntries,
		},
		Rebuild: recommend.RebuildConfig{
			Timeout:          cfg.Index.RebuildTimeout,
			AcceptDegenerate: cfg.Index.AcceptDegenerate,
		},
	}
}

func buildIndexServiceConfig(cfg *config.Config) services.IndexServiceConfig {
	return services.IndexServiceConfig{
		BuildOnStartup:     cfg.Dataset.BuildOnStartup,
		PollInterval:       cfg.Dataset.PollInterval,
		RebuildTimeout:     cfg.Index.RebuildTimeout,
		MinRebuildInterval: cfg.Index.MinRebuildInterval,
	}
}
