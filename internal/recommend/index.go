// Marquee - Collaborative Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package recommend

import (
	"fmt"
)

// CollaborativeIndex is the immutable, precomputed state needed to answer
// collaborative recommendation requests.
type CollaborativeIndex struct {
	corr   *CorrelationMatrix
	raters map[string]int
	config IndexConfig
	stats  IndexStats
}

// BuildCollaborativeIndex runs the rating matrix, sparsity filter and
// correlation steps over records and catalog. The build is deterministic.
//
// When no title survives the sparsity filter the returned index is empty but
// usable and err is a *DegenerateIndexError.
func BuildCollaborativeIndex(records []RatingRecord, catalog Catalog, cfg IndexConfig) (*CollaborativeIndex, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid index config: %w", err)
	}

	ratings, err := BuildRatingMatrix(records, catalog, cfg.MaxJoinRows)
	if err != nil {
		return nil, err
	}

	filtered := FilterSparse(ratings, cfg.MinRaters, cfg.FillValue)
	corr := ComputeCorrelation(filtered)

	users, titles := filtered.Dims()
	raters := make(map[string]int, titles)
	for j, n := range filtered.Raters() {
		raters[filtered.titles[j]] = n
	}

	idx := &CollaborativeIndex{
		corr:   corr,
		raters: raters,
		config: cfg,
		stats: IndexStats{
			JoinedRows:      ratings.JoinedRows(),
			Users:           users,
			CandidateTitles: len(ratings.titles),
			Titles:          titles,
			UndefinedTitles: corr.UndefinedCount(),
		},
	}

	if titles == 0 {
		return idx, &DegenerateIndexError{
			Users:     users,
			Titles:    len(ratings.titles),
			MinRaters: cfg.MinRaters,
		}
	}
	return idx, nil
}

// NewIndexFromCorrelation wraps a precomputed correlation matrix.
func NewIndexFromCorrelation(corr *CorrelationMatrix) *CollaborativeIndex {
	return &CollaborativeIndex{
		corr: corr,
		stats: IndexStats{
			Titles:          corr.Len(),
			CandidateTitles: corr.Len(),
			UndefinedTitles: corr.UndefinedCount(),
		},
	}
}

// Titles returns the index columns in lexical order. This is exactly the set
// of titles that may be offered as seeds.
func (idx *CollaborativeIndex) Titles() []string {
	return idx.corr.Titles()
}

// Contains reports whether title is an index column.
func (idx *CollaborativeIndex) Contains(title string) bool {
	_, ok := idx.corr.Position(title)
	return ok
}

// Len returns the number of index columns.
func (idx *CollaborativeIndex) Len() int {
	return idx.corr.Len()
}

// Correlation returns the correlation between two indexed titles.
func (idx *CollaborativeIndex) Correlation(a, b string) (float64, bool) {
	return idx.corr.Lookup(a, b)
}

// Raters returns the number of observed ratings behind an indexed title.
func (idx *CollaborativeIndex) Raters(title string) int {
	return idx.raters[title]
}

// Stats returns the build statistics.
func (idx *CollaborativeIndex) Stats() IndexStats {
	return idx.stats
}

// Config returns the parameters the index was built with.
func (idx *CollaborativeIndex) Config() IndexConfig {
	return idx.config
}

// Recommend returns at most topN titles ranked by the rating-weighted sum of
// their correlation with the seeds. Seeds are never returned.
func Recommend(idx *CollaborativeIndex, seeds []Seed, topN int) ([]string, error) {
	scored, err := RecommendScored(idx, seeds, topN)
	if err != nil {
		return nil, err
	}
	return TitlesOf(scored), nil
}

// RecommendScored is Recommend with the aggregate score of each title.
func RecommendScored(idx *CollaborativeIndex, seeds []Seed, topN int) ([]ScoredTitle, error) {
	if idx == nil {
		return nil, &InvalidRequestError{Field: "index", Reason: "must not be nil"}
	}
	if len(seeds) == 0 {
		return nil, &InvalidRequestError{Field: "seeds", Reason: "must not be empty"}
	}
	if topN <= 0 {
		return nil, &InvalidRequestError{Field: "top_n", Reason: fmt.Sprintf("must be positive, got %d", topN)}
	}

	scores, err := Aggregate(idx.corr, seeds)
	if err != nil {
		return nil, err
	}

	exclude := make(map[string]struct{}, len(seeds))
	for _, seed := range seeds {
		exclude[seed.Title] = struct{}{}
	}

	return SelectTop(scores, exclude, topN), nil
}
