// Marquee - Collaborative Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package recommend

import (
	"math"
	"sort"
)

// missing marks an unobserved cell in table fixtures.
var missing = math.NaN()

// tableFixture converts per-title columns into records and a catalog.
// Row r of every column belongs to user r+1; NaN cells produce no record.
// Item IDs are assigned in lexical title order starting at 1.
func tableFixture(columns map[string][]float64) ([]RatingRecord, Catalog) {
	titles := make([]string, 0, len(columns))
	for title := range columns {
		titles = append(titles, title)
	}
	sort.Strings(titles)

	catalog := make(Catalog, len(titles))
	var records []RatingRecord
	for i, title := range titles {
		itemID := i + 1
		catalog[itemID] = title
		for row, v := range columns[title] {
			if math.IsNaN(v) {
				continue
			}
			records = append(records, RatingRecord{UserID: row + 1, ItemID: itemID, Rating: v})
		}
	}
	return records, catalog
}

// smallIndexConfig keeps fixtures small.
func smallIndexConfig() IndexConfig {
	return IndexConfig{MaxJoinRows: 10000, MinRaters: 3, FillValue: 0}
}

// fixtureColumns is a five-user table with known correlations:
// B tracks A exactly, C mirrors A, D is constant and E is too sparse.
func fixtureColumns() map[string][]float64 {
	return map[string][]float64{
		"A": {5, 4, 1, 2, 3},
		"B": {5, 4, 1, 2, 3},
		"C": {1, 2, 5, 4, 3},
		"D": {3, 3, 3, 3, 3},
		"E": {4, missing, missing, 5, missing},
	}
}

// scenarioCorrelation is the three-title matrix with
// corr(A,B)=0.8, corr(A,C)=-0.5, corr(B,C)=0.1.
func scenarioCorrelation() *CorrelationMatrix {
	return NewCorrelationMatrix([]string{"A", "B", "C"}, [][]float64{
		{1, 0.8, -0.5},
		{0.8, 1, 0.1},
		{-0.5, 0.1, 1},
	})
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
