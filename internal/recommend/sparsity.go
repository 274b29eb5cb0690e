// Marquee - Collaborative Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package recommend

import (
	"gonum.org/v1/gonum/mat"
)

// FilteredMatrix is the dense users x retained-titles matrix with gaps filled.
// It is empty when no title reached the rater threshold.
type FilteredMatrix struct {
	users  []int
	titles []string
	raters []int

	// data is nil when the matrix is empty; gonum cannot represent 0-sized dims.
	data *mat.Dense
}

// FilterSparse keeps the titles with at least minRaters observed ratings and
// replaces every unobserved cell of the retained columns with fillValue.
// All users are kept as rows, including users left with only fill values.
func FilterSparse(m *RatingMatrix, minRaters int, fillValue float64) *FilteredMatrix {
	f := &FilteredMatrix{users: m.Users()}

	var keep []int
	for j, col := range m.columns {
		if len(col) >= minRaters {
			keep = append(keep, j)
			f.titles = append(f.titles, m.titles[j])
			f.raters = append(f.raters, len(col))
		}
	}

	if len(keep) == 0 || len(f.users) == 0 {
		f.titles = nil
		f.raters = nil
		return f
	}

	f.data = mat.NewDense(len(f.users), len(keep), nil)
	for c, j := range keep {
		observed := m.columns[j]
		next := 0
		for r := range f.users {
			if next < len(observed) && observed[next].row == r {
				f.data.Set(r, c, observed[next].value)
				next++
				continue
			}
			f.data.Set(r, c, fillValue)
		}
	}

	return f
}

// Empty reports whether no title was retained.
func (f *FilteredMatrix) Empty() bool {
	return f.data == nil
}

// Dims returns the number of users and retained titles.
func (f *FilteredMatrix) Dims() (users, titles int) {
	if f.data == nil {
		return len(f.users), 0
	}
	return f.data.Dims()
}

// Titles returns the retained titles in column order.
func (f *FilteredMatrix) Titles() []string {
	return append([]string(nil), f.titles...)
}

// Raters returns the observed rating count of each retained column.
func (f *FilteredMatrix) Raters() []int {
	return append([]int(nil), f.raters...)
}

// At returns the filled value at row i, column j.
func (f *FilteredMatrix) At(i, j int) float64 {
	return f.data.At(i, j)
}

// Column returns a copy of column j.
func (f *FilteredMatrix) Column(j int) []float64 {
	return mat.Col(nil, j, f.data)
}
