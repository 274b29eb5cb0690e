// Marquee - Collaborative Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package recommend

import (
	"fmt"
	"math"
)

// ScoreVector holds one aggregate score per index title.
type ScoreVector struct {
	titles []string
	scores []float64
}

// Len returns the number of scored titles.
func (v *ScoreVector) Len() int {
	return len(v.titles)
}

// Score returns the aggregate score of the title at position i.
func (v *ScoreVector) Score(i int) float64 {
	return v.scores[i]
}

// Title returns the title at position i.
func (v *ScoreVector) Title(i int) string {
	return v.titles[i]
}

// SeedWeight converts a seed rating into its aggregation weight.
func SeedWeight(rating float64) float64 {
	return rating - NeutralRating
}

// Aggregate sums the correlation columns of the seeds, each scaled by
// SeedWeight. Undefined correlations contribute zero. Repeated seeds each
// contribute.
func Aggregate(c *CorrelationMatrix, seeds []Seed) (*ScoreVector, error) {
	if err := validateSeeds(seeds); err != nil {
		return nil, err
	}
	if err := CheckKnown(seedTitles(seeds), func(t string) bool {
		_, ok := c.Position(t)
		return ok
	}); err != nil {
		return nil, err
	}

	v := &ScoreVector{
		titles: c.titles,
		scores: make([]float64, c.Len()),
	}
	for _, seed := range seeds {
		j, _ := c.Position(seed.Title)
		w := SeedWeight(seed.Rating)
		if w == 0 || !c.Defined(j) {
			continue
		}
		for i := range v.scores {
			corr := c.At(i, j)
			if math.IsNaN(corr) {
				continue
			}
			v.scores[i] += w * corr
		}
	}

	return v, nil
}

// validateSeeds checks the seed list shape and ratings.
func validateSeeds(seeds []Seed) error {
	if len(seeds) == 0 {
		return &InvalidRequestError{Field: "seeds", Reason: "must not be empty"}
	}
	for i, seed := range seeds {
		if err := validateRating(seed.Rating); err != nil {
			return &InvalidRequestError{Field: fmt.Sprintf("seeds[%d].rating", i), Reason: err.Error()}
		}
	}
	return nil
}

func seedTitles(seeds []Seed) []string {
	titles := make([]string, len(seeds))
	for i, seed := range seeds {
		titles[i] = seed.Title
	}
	return titles
}
