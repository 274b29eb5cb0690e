// Marquee - Collaborative Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package database

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tomtom215/marquee/internal/recommend"
)

// noGenres is the MovieLens placeholder for movies without genres.
const noGenres = "(no genres listed)"

// yearSuffix matches the trailing "(YYYY)" of a MovieLens title.
var yearSuffix = regexp.MustCompile(`\((\d{4})\)\s*$`)

// parseTitleYear returns the release year in a title, or 0 when absent.
func parseTitleYear(title string) int {
	m := yearSuffix.FindStringSubmatch(title)
	if m == nil {
		return 0
	}
	year, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return year
}

// splitGenres splits a pipe-separated genre list.
func splitGenres(genres string) []string {
	genres = strings.TrimSpace(genres)
	if genres == "" || genres == noGenres {
		return nil
	}
	parts := strings.Split(genres, "|")
	out := make([]string, 0, len(parts))
	for _, g := range parts {
		if g = strings.TrimSpace(g); g != "" {
			out = append(out, g)
		}
	}
	return out
}

// disambiguateTitles renames repeated titles in place. items must be
// ordered by ID; the first occurrence keeps its title and later ones get
// " #<id>" appended. It returns the number of renamed items.
func disambiguateTitles(items []recommend.Item) int {
	seen := make(map[string]struct{}, len(items))
	renamed := 0
	for i := range items {
		title := items[i].Title
		if _, dup := seen[title]; dup {
			items[i].Title = fmt.Sprintf("%s #%d", title, items[i].ID)
			renamed++
		}
		seen[items[i].Title] = struct{}{}
	}
	return renamed
}
