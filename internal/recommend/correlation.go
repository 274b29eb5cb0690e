// Marquee - Collaborative Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package recommend

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// CorrelationMatrix holds the pairwise Pearson correlation of title columns.
// Entries involving an undefined column are NaN.
type CorrelationMatrix struct {
	titles  []string
	index   map[string]int
	defined []bool

	// values is nil when there are no titles.
	values *mat.SymDense
}

// ComputeCorrelation computes the item-item Pearson correlation over the
// columns of f. A column with zero variance (or a matrix with fewer than two
// users) has no defined correlation with any column, itself included. Defined
// entries are clamped to [-1, 1] and the diagonal of a defined column is
// exactly 1.
func ComputeCorrelation(f *FilteredMatrix) *CorrelationMatrix {
	c := newCorrelationMatrix(f.Titles())
	if f.Empty() {
		return c
	}

	users, titles := f.Dims()
	if users < 2 {
		return c
	}

	for j := 0; j < titles; j++ {
		c.defined[j] = hasVariance(f.data, j)
	}

	var corr mat.SymDense
	stat.CorrelationMatrix(&corr, f.data, nil)

	for i := 0; i < titles; i++ {
		for j := i; j < titles; j++ {
			switch {
			case !c.defined[i] || !c.defined[j]:
				corr.SetSym(i, j, math.NaN())
			case i == j:
				corr.SetSym(i, j, 1)
			default:
				corr.SetSym(i, j, clamp(corr.At(i, j), -1, 1))
			}
		}
	}
	c.values = &corr

	return c
}

// NewCorrelationMatrix builds a correlation matrix from explicit values.
// values must be square, symmetric and sized like titles; NaN marks undefined
// entries. Columns whose diagonal is NaN are treated as undefined.
func NewCorrelationMatrix(titles []string, values [][]float64) *CorrelationMatrix {
	c := newCorrelationMatrix(titles)
	if len(titles) == 0 {
		return c
	}

	sym := mat.NewSymDense(len(titles), nil)
	for i := range titles {
		c.defined[i] = !math.IsNaN(values[i][i])
		for j := i; j < len(titles); j++ {
			sym.SetSym(i, j, values[i][j])
		}
	}
	c.values = sym
	return c
}

func newCorrelationMatrix(titles []string) *CorrelationMatrix {
	index := make(map[string]int, len(titles))
	for i, t := range titles {
		index[t] = i
	}
	return &CorrelationMatrix{
		titles:  titles,
		index:   index,
		defined: make([]bool, len(titles)),
	}
}

// Len returns the number of titles.
func (c *CorrelationMatrix) Len() int {
	return len(c.titles)
}

// Titles returns the titles in column order.
func (c *CorrelationMatrix) Titles() []string {
	return append([]string(nil), c.titles...)
}

// Position returns the column of title.
func (c *CorrelationMatrix) Position(title string) (int, bool) {
	i, ok := c.index[title]
	return i, ok
}

// Defined reports whether column i has a defined correlation.
func (c *CorrelationMatrix) Defined(i int) bool {
	return c.defined[i]
}

// At returns the correlation between columns i and j, NaN if undefined.
func (c *CorrelationMatrix) At(i, j int) float64 {
	if !c.defined[i] || !c.defined[j] {
		return math.NaN()
	}
	return c.values.At(i, j)
}

// Lookup returns the correlation between two titles.
// ok is false when either title is not a column.
func (c *CorrelationMatrix) Lookup(a, b string) (value float64, ok bool) {
	i, okA := c.index[a]
	j, okB := c.index[b]
	if !okA || !okB {
		return math.NaN(), false
	}
	return c.At(i, j), true
}

// UndefinedCount returns the number of zero-variance columns.
func (c *CorrelationMatrix) UndefinedCount() int {
	n := 0
	for _, d := range c.defined {
		if !d {
			n++
		}
	}
	return n
}

// hasVariance reports whether column j holds at least two distinct values.
func hasVariance(m *mat.Dense, j int) bool {
	rows, _ := m.Dims()
	first := m.At(0, j)
	for i := 1; i < rows; i++ {
		if m.At(i, j) != first {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	default:
		return v
	}
}
