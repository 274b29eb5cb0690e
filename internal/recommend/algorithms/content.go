// Marquee - Collaborative Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package algorithms

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/tomtom215/marquee/internal/recommend"
)

// ContentBased implements content-based filtering using item metadata.
// It recommends titles similar to the seed titles based on genres and
// release year, which makes it usable for titles with too few ratings to
// enter the collaborative index.
//
// The similarity between items is computed as a weighted combination:
//
//	sim(a, b) = w_genre * jaccard(genres_a, genres_b) +
//	            w_year * year_similarity(year_a, year_b)
//
// A candidate's score is the sum of its similarities to the distinct seeds.
type ContentBased struct {
	modelState

	// Configuration
	genreWeight       float64
	yearWeight        float64
	maxYearDifference int

	// Trained model, ordered by title
	titles   []string
	byTitle  map[string]int
	features []features
}

// features represents an item's feature vectors.
type features struct {
	genres map[string]struct{}
	year   int
}

// NewContentBased creates a new content-based algorithm.
func NewContentBased(cfg recommend.ContentBasedConfig) *ContentBased {
	if cfg.GenreWeight == 0 && cfg.YearWeight == 0 {
		cfg.GenreWeight = 0.8
		cfg.YearWeight = 0.2
	}
	if cfg.MaxYearDifference <= 0 {
		cfg.MaxYearDifference = 20
	}

	// Normalize weights
	total := cfg.GenreWeight + cfg.YearWeight
	if total > 0 {
		cfg.GenreWeight /= total
		cfg.YearWeight /= total
	}

	return &ContentBased{
		modelState:        modelState{name: "content"},
		genreWeight:       cfg.GenreWeight,
		yearWeight:        cfg.YearWeight,
		maxYearDifference: cfg.MaxYearDifference,
		byTitle:           make(map[string]int),
	}
}

// NewContentFactory returns a recommend.ContentFactory that trains a fresh
// ContentBased model for every rebuild.
func NewContentFactory(cfg recommend.ContentBasedConfig) recommend.ContentFactory {
	return func(ctx context.Context, items []recommend.Item) (recommend.ContentRecommender, error) {
		cb := NewContentBased(cfg)
		if err := cb.Train(ctx, items); err != nil {
			return nil, err
		}
		return cb, nil
	}
}

// Train builds item feature vectors from catalog metadata.
// Titles must be unique.
//
//nolint:gocritic // rangeValCopy: Item passed by value in range, acceptable for clarity
func (c *ContentBased) Train(ctx context.Context, items []recommend.Item) error {
	if err := checkUniqueTitles(items); err != nil {
		return err
	}

	sorted := make([]recommend.Item, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Title < sorted[j].Title })

	titles := make([]string, len(sorted))
	byTitle := make(map[string]int, len(sorted))
	feats := make([]features, len(sorted))
	for i, item := range sorted {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		titles[i] = item.Title
		byTitle[item.Title] = i
		feats[i] = features{
			genres: genreSet(item.Genres),
			year:   item.Year,
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.titles = titles
	c.byTitle = byTitle
	c.features = feats
	c.commit()
	return nil
}

// Len returns the number of trained titles.
func (c *ContentBased) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.titles)
}

// Contains reports whether title is part of the trained catalog.
func (c *ContentBased) Contains(title string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.byTitle[title]
	return ok
}

// Recommend returns up to topN catalog titles most similar to the seed
// titles. Seeds never appear in the result and ties are ordered by title.
func (c *ContentBased) Recommend(ctx context.Context, titles []string, topN int) ([]string, error) {
	scored, err := c.RecommendScored(ctx, titles, topN)
	if err != nil {
		return nil, err
	}
	return recommend.TitlesOf(scored), nil
}

// RecommendScored is Recommend with the similarity scores attached.
func (c *ContentBased) RecommendScored(ctx context.Context, titles []string, topN int) ([]recommend.ScoredTitle, error) {
	if len(titles) == 0 {
		return nil, &recommend.InvalidRequestError{Field: "seeds", Reason: "must not be empty"}
	}
	if topN <= 0 {
		return nil, &recommend.InvalidRequestError{Field: "top_n", Reason: fmt.Sprintf("must be positive, got %d", topN)}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.trained {
		return nil, recommend.ErrContentModelUnavailable
	}

	if err := recommend.CheckKnown(titles, func(t string) bool {
		_, ok := c.byTitle[t]
		return ok
	}); err != nil {
		return nil, err
	}

	seeds := c.seedPositions(titles)
	isSeed := make([]bool, len(c.features))
	for _, s := range seeds {
		isSeed[s] = true
	}

	ranked := make([]recommend.ScoredTitle, 0, topN)
	for i := range c.features {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if isSeed[i] {
			continue
		}

		// Summed in catalog order so equal candidates get bit-identical scores.
		var score float64
		for _, s := range seeds {
			score += c.itemSimilarity(&c.features[s], &c.features[i])
		}
		if score > 0 {
			ranked = append(ranked, recommend.ScoredTitle{Title: c.titles[i], Score: score})
		}
	}

	recommend.SortScored(ranked)
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked, nil
}

// seedPositions returns the distinct catalog positions of titles in
// ascending order. Callers hold mu and have checked every title is known.
func (c *ContentBased) seedPositions(titles []string) []int {
	positions := make([]int, 0, len(titles))
	for _, t := range titles {
		positions = append(positions, c.byTitle[t])
	}
	sort.Ints(positions)

	n := 0
	for i, p := range positions {
		if i == 0 || p != positions[n-1] {
			positions[n] = p
			n++
		}
	}
	return positions[:n]
}

// itemSimilarity computes similarity between two items.
func (c *ContentBased) itemSimilarity(a, b *features) float64 {
	score := c.genreWeight * jaccard(a.genres, b.genres)

	if a.year > 0 && b.year > 0 {
		yearDiff := math.Abs(float64(a.year - b.year))
		yearSim := 1.0 - yearDiff/float64(c.maxYearDifference)
		if yearSim < 0 {
			yearSim = 0
		}
		score += c.yearWeight * yearSim
	}

	return score
}

// checkUniqueTitles reports the lexically smallest title shared by more
// than one item.
//
//nolint:gocritic // rangeValCopy: Item passed by value in range
func checkUniqueTitles(items []recommend.Item) error {
	ids := make(map[string][]int, len(items))
	for _, item := range items {
		ids[item.Title] = append(ids[item.Title], item.ID)
	}

	var dup string
	for title, list := range ids {
		if len(list) > 1 && (dup == "" || title < dup) {
			dup = title
		}
	}
	if dup == "" {
		return nil
	}

	list := ids[dup]
	sort.Ints(list)
	return &recommend.DuplicateTitleError{Title: dup, ItemIDs: list}
}

var _ recommend.ContentRecommender = (*ContentBased)(nil)
