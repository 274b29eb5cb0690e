// Marquee - Collaborative Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package algorithms

import (
	"strings"
	"sync"
	"time"
)

// modelState tracks training generations for a model and guards its
// learned state: Train holds the write lock, lookups the read lock.
type modelState struct {
	mu        sync.RWMutex
	name      string
	trained   bool
	version   int
	trainedAt time.Time
}

// Name returns the strategy name the model serves.
func (m *modelState) Name() string {
	return m.name
}

// IsTrained reports whether Train has completed at least once.
func (m *modelState) IsTrained() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.trained
}

// Version counts completed trainings.
func (m *modelState) Version() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.version
}

// LastTrainedAt returns when the last training finished.
func (m *modelState) LastTrainedAt() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.trainedAt
}

// commit records a finished training. mu must be held for writing.
func (m *modelState) commit() {
	m.trained = true
	m.version++
	m.trainedAt = time.Now()
}

// genreSet lowercases and deduplicates genre names. Blank names are dropped.
func genreSet(genres []string) map[string]struct{} {
	set := make(map[string]struct{}, len(genres))
	for _, g := range genres {
		if g = strings.ToLower(strings.TrimSpace(g)); g != "" {
			set[g] = struct{}{}
		}
	}
	return set
}

// jaccard is |a∩b| / |a∪b|, and 0 when both sets are empty.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) > len(b) {
		a, b = b, a
	}
	shared := 0
	for g := range a {
		if _, ok := b[g]; ok {
			shared++
		}
	}
	union := len(a) + len(b) - shared
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}
