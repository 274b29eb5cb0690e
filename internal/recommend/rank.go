// Marquee - Collaborative Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package recommend

import (
	"math"
	"sort"
)

// SelectTop returns at most topN titles from v ordered by score descending,
// then title ascending. Titles in exclude and titles whose score is zero or
// undefined are never returned.
func SelectTop(v *ScoreVector, exclude map[string]struct{}, topN int) []ScoredTitle {
	if topN <= 0 {
		return []ScoredTitle{}
	}

	ranked := make([]ScoredTitle, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		title := v.Title(i)
		if _, skip := exclude[title]; skip {
			continue
		}
		score := v.Score(i)
		if score == 0 || math.IsNaN(score) {
			continue
		}
		ranked = append(ranked, ScoredTitle{Title: title, Score: score})
	}

	SortScored(ranked)

	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}

// SortScored orders items by score descending, breaking ties by title.
func SortScored(items []ScoredTitle) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].Title < items[j].Title
	})
}

// TitlesOf returns the titles of items in order.
func TitlesOf(items []ScoredTitle) []string {
	titles := make([]string, len(items))
	for i, item := range items {
		titles[i] = item.Title
	}
	return titles
}
