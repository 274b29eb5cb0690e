// Marquee - Collaborative Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package recommend implements item-item collaborative filtering over explicit
// movie ratings.
//
// # Pipeline
//
// The collaborative index is built once per dataset load:
//
//  1. BuildRatingMatrix joins rating records with the catalog and pivots them
//     into a sparse user x title matrix, capped at MaxJoinRows joined rows.
//  2. FilterSparse keeps titles with at least MinRaters observed ratings and
//     fills the remaining gaps with FillValue.
//  3. ComputeCorrelation computes pairwise Pearson correlation between the
//     retained title columns.
//
// Every request then runs two cheap steps against the immutable index:
//
//  4. Aggregate weights each seed's correlation column by (rating - 2.5) and
//     sums across seeds.
//  5. SelectTop orders by score, breaks ties by title, removes the seeds and
//     truncates to topN.
//
// # Usage
//
//	idx, err := recommend.BuildCollaborativeIndex(records, catalog, recommend.DefaultIndexConfig())
//	if err != nil {
//	    var degenerate *recommend.DegenerateIndexError
//	    if !errors.As(err, &degenerate) {
//	        return err
//	    }
//	}
//
//	titles, err := recommend.Recommend(idx, []recommend.Seed{
//	    {Title: "Toy Story (1995)", Rating: 5},
//	    {Title: "Heat (1995)", Rating: 4},
//	}, 10)
//
// # Thread Safety
//
// CollaborativeIndex is immutable after construction and may be shared by any
// number of goroutines. Engine wraps the index together with the content model
// and swaps whole snapshots atomically on rebuild, so readers never observe a
// partially built index.
//
// Note: This package has no dependencies on other internal packages. The
// DataProvider and ContentRecommender interfaces let the database and
// algorithms packages plug in without circular imports.
package recommend
