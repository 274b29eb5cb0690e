// Marquee - Collaborative Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package recommend

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrIndexNotReady is returned by Engine before the first successful rebuild.
	ErrIndexNotReady = errors.New("recommendation index not ready")

	// ErrRebuildInProgress is returned when a rebuild is requested while one is running.
	ErrRebuildInProgress = errors.New("index rebuild already in progress")

	// ErrRebuildThrottled is returned when a rebuild is requested sooner than
	// the configured minimum interval after the previous one.
	ErrRebuildThrottled = errors.New("index rebuild requested too soon")

	// ErrContentModelUnavailable is returned for content requests when no
	// content model was configured or its training failed.
	ErrContentModelUnavailable = errors.New("content model unavailable")
)

// InvalidRequestError reports a malformed request or record.
type InvalidRequestError struct {
	// Field names the offending input, e.g. "seeds" or "top_n".
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid request: %s %s", e.Field, e.Reason)
}

// UnknownItemError lists every requested title that is not an index column.
type UnknownItemError struct {
	Titles []string
}

// Error implements the error interface.
func (e *UnknownItemError) Error() string {
	return fmt.Sprintf("unknown titles: %s", strings.Join(e.Titles, ", "))
}

// DegenerateIndexError reports that no title survived sparsity filtering.
// The accompanying index is still valid; every request against it fails with
// UnknownItemError.
type DegenerateIndexError struct {
	Users     int
	Titles    int
	MinRaters int
}

// Error implements the error interface.
func (e *DegenerateIndexError) Error() string {
	return fmt.Sprintf("degenerate index: none of %d titles has at least %d raters among %d users",
		e.Titles, e.MinRaters, e.Users)
}

// DuplicateTitleError reports two or more catalog items sharing one title.
type DuplicateTitleError struct {
	Title   string
	ItemIDs []int
}

// Error implements the error interface.
func (e *DuplicateTitleError) Error() string {
	return fmt.Sprintf("duplicate title %q for items %v", e.Title, e.ItemIDs)
}

// IsClientError reports whether err was caused by the request rather than the service.
func IsClientError(err error) bool {
	var invalid *InvalidRequestError
	var unknown *UnknownItemError
	return errors.As(err, &invalid) || errors.As(err, &unknown)
}

// CheckKnown returns an UnknownItemError naming every title rejected by
// contains, deduplicated in input order, or nil when all titles are known.
func CheckKnown(titles []string, contains func(string) bool) error {
	var unknown []string
	seen := make(map[string]struct{})
	for _, title := range titles {
		if contains(title) {
			continue
		}
		if _, dup := seen[title]; dup {
			continue
		}
		seen[title] = struct{}{}
		unknown = append(unknown, title)
	}
	if len(unknown) == 0 {
		return nil
	}
	return &UnknownItemError{Titles: unknown}
}
