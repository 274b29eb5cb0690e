// Marquee - Collaborative Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package recommend

import (
	"fmt"
	"math"
	"sort"
)

// RatingMatrix is a sparse user x title matrix of observed ratings.
// Rows are users in ascending ID order, columns are titles in ascending
// lexical order.
type RatingMatrix struct {
	users   []int
	titles  []string
	columns [][]ratingCell

	joinedRows int
}

// ratingCell is one observed rating within a column.
type ratingCell struct {
	row   int
	value float64
}

// cellKey identifies one (user, title) pair during the join.
type cellKey struct {
	userID int
	title  string
}

// cellAccumulator averages repeated ratings of the same pair.
type cellAccumulator struct {
	sum   float64
	count int
}

// BuildRatingMatrix joins records with the catalog on item ID and pivots the
// result into a sparse matrix. Only the first maxJoinRows joined records are
// used. Records whose item is not in the catalog are dropped without error
// and do not count toward the cap. A user who rated the same title more than
// once gets the mean of those ratings.
func BuildRatingMatrix(records []RatingRecord, catalog Catalog, maxJoinRows int) (*RatingMatrix, error) {
	if maxJoinRows < 1 {
		return nil, &InvalidRequestError{Field: "max_join_rows", Reason: fmt.Sprintf("must be positive, got %d", maxJoinRows)}
	}
	if err := checkUniqueTitles(catalog); err != nil {
		return nil, err
	}

	cells := make(map[cellKey]*cellAccumulator)
	userSet := make(map[int]struct{})
	titleSet := make(map[string]struct{})
	joined := 0

	for i, rec := range records {
		if joined >= maxJoinRows {
			break
		}
		title, ok := catalog[rec.ItemID]
		if !ok {
			continue
		}
		if err := validateRating(rec.Rating); err != nil {
			return nil, &InvalidRequestError{
				Field:  fmt.Sprintf("records[%d].rating", i),
				Reason: err.Error(),
			}
		}
		joined++

		key := cellKey{userID: rec.UserID, title: title}
		acc, ok := cells[key]
		if !ok {
			acc = &cellAccumulator{}
			cells[key] = acc
		}
		acc.sum += rec.Rating
		acc.count++

		userSet[rec.UserID] = struct{}{}
		titleSet[title] = struct{}{}
	}

	m := &RatingMatrix{
		users:      sortedUsers(userSet),
		titles:     sortedTitles(titleSet),
		joinedRows: joined,
	}

	rowOf := make(map[int]int, len(m.users))
	for i, u := range m.users {
		rowOf[u] = i
	}
	colOf := make(map[string]int, len(m.titles))
	for j, t := range m.titles {
		colOf[t] = j
	}

	m.columns = make([][]ratingCell, len(m.titles))
	for key, acc := range cells {
		j := colOf[key.title]
		m.columns[j] = append(m.columns[j], ratingCell{
			row:   rowOf[key.userID],
			value: acc.sum / float64(acc.count),
		})
	}
	for j := range m.columns {
		col := m.columns[j]
		sort.Slice(col, func(a, b int) bool { return col[a].row < col[b].row })
	}

	return m, nil
}

// Users returns the row user IDs in order.
func (m *RatingMatrix) Users() []int {
	return append([]int(nil), m.users...)
}

// Titles returns the column titles in order.
func (m *RatingMatrix) Titles() []string {
	return append([]string(nil), m.titles...)
}

// JoinedRows returns the number of records that contributed to the matrix.
func (m *RatingMatrix) JoinedRows() int {
	return m.joinedRows
}

// Raters returns the number of users with an observed rating for the title.
func (m *RatingMatrix) Raters(title string) int {
	j := sort.SearchStrings(m.titles, title)
	if j == len(m.titles) || m.titles[j] != title {
		return 0
	}
	return len(m.columns[j])
}

// Rating returns the observed rating of userID for title.
func (m *RatingMatrix) Rating(userID int, title string) (float64, bool) {
	j := sort.SearchStrings(m.titles, title)
	if j == len(m.titles) || m.titles[j] != title {
		return 0, false
	}
	i := sort.SearchInts(m.users, userID)
	if i == len(m.users) || m.users[i] != userID {
		return 0, false
	}
	for _, c := range m.columns[j] {
		if c.row == i {
			return c.value, true
		}
	}
	return 0, false
}

// validateRating checks that a rating lies in [MinRating, MaxRating].
func validateRating(rating float64) error {
	if math.IsNaN(rating) || rating < MinRating || rating > MaxRating {
		return fmt.Errorf("must be in [%g, %g], got %g", MinRating, MaxRating, rating)
	}
	return nil
}

// checkUniqueTitles rejects catalogs where two items share a title.
// The lexically smallest duplicate is reported so the error is stable.
func checkUniqueTitles(catalog Catalog) error {
	owners := make(map[string][]int, len(catalog))
	for id, title := range catalog {
		owners[title] = append(owners[title], id)
	}

	var dup *DuplicateTitleError
	for title, ids := range owners {
		if len(ids) < 2 {
			continue
		}
		if dup == nil || title < dup.Title {
			sort.Ints(ids)
			dup = &DuplicateTitleError{Title: title, ItemIDs: ids}
		}
	}
	if dup != nil {
		return dup
	}
	return nil
}

func sortedUsers(set map[int]struct{}) []int {
	users := make([]int, 0, len(set))
	for u := range set {
		users = append(users, u)
	}
	sort.Ints(users)
	return users
}

func sortedTitles(set map[string]struct{}) []string {
	titles := make([]string, 0, len(set))
	for t := range set {
		titles = append(titles, t)
	}
	sort.Strings(titles)
	return titles
}
