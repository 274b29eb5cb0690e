// Marquee - Collaborative Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package algorithms implements the metadata models that complement the
// collaborative index.
//
// # Content-Based
//
// ContentBased scores catalog titles by genre overlap and release year
// proximity to the seed titles. It needs no rating history, so it serves
// titles that fall below the collaborative rater threshold.
//
// The engine builds one model per index rebuild through a factory:
//
//	factory := algorithms.NewContentFactory(cfg.ContentBased)
//	engine, err := recommend.NewEngine(cfg, provider, factory, logger)
//
// # Thread Safety
//
// Models are safe for concurrent use. Training acquires an exclusive lock
// while prediction uses a shared lock.
package algorithms
