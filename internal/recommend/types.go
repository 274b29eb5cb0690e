// Marquee - Collaborative Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package recommend

import (
	"context"
	"time"
)

const (
	// DefaultMaxJoinRows caps the number of joined rating rows used to build the index.
	DefaultMaxJoinRows = 500000

	// DefaultMinRaters is the minimum number of observed ratings a title needs
	// to be retained as a column.
	DefaultMinRaters = 10

	// DefaultFillValue replaces unobserved (user, title) cells.
	DefaultFillValue = 0.0

	// NeutralRating is subtracted from a seed rating to produce its weight.
	// Seeds rated below it push correlated titles down.
	NeutralRating = 2.5

	// MinRating and MaxRating bound every rating, in records and in seeds.
	MinRating = 0.0
	MaxRating = 5.0
)

// Strategy selects the ranking model used to answer a request.
type Strategy int

const (
	// StrategyCollaborative ranks by rating correlation.
	StrategyCollaborative Strategy = iota
	// StrategyContent ranks by metadata similarity.
	StrategyContent
)

// String returns the wire name of the strategy.
func (s Strategy) String() string {
	switch s {
	case StrategyCollaborative:
		return "collaborative"
	case StrategyContent:
		return "content"
	default:
		return "unknown"
	}
}

// ParseStrategy converts a wire name into a Strategy.
// An empty name selects the collaborative strategy.
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "", "collaborative":
		return StrategyCollaborative, nil
	case "content":
		return StrategyContent, nil
	default:
		return 0, &InvalidRequestError{Field: "strategy", Reason: "must be collaborative or content, got " + name}
	}
}

// RatingRecord is one explicit rating of one item by one user.
type RatingRecord struct {
	UserID int     `json:"user_id"`
	ItemID int     `json:"item_id"`
	Rating float64 `json:"rating"`
}

// Catalog maps item IDs to display titles.
// Titles are expected to be unique; BuildRatingMatrix rejects duplicates.
type Catalog map[int]string

// Item is a catalog entry with the metadata used by the content model.
type Item struct {
	// ID is the source item identifier (movieId).
	ID int `json:"id"`

	// Title is the unique display title, including the release year suffix.
	Title string `json:"title"`

	// Genres is a slice of genre names.
	Genres []string `json:"genres"`

	// Year is the release year, or 0 when unknown.
	Year int `json:"year"`
}

// Dataset is everything needed to build one snapshot of the engine.
type Dataset struct {
	Records []RatingRecord
	Items   []Item
}

// Catalog returns the item ID to title mapping of the dataset.
func (d *Dataset) Catalog() Catalog {
	catalog := make(Catalog, len(d.Items))
	for _, item := range d.Items {
		catalog[item.ID] = item.Title
	}
	return catalog
}

// Seed is a title the user liked, with the rating they gave it.
type Seed struct {
	Title  string  `json:"title"`
	Rating float64 `json:"rating"`
}

// ScoredTitle is a recommended title with its aggregate score.
type ScoredTitle struct {
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

// DataProvider loads the ratings and the catalog.
// This is typically implemented by the database layer.
type DataProvider interface {
	// LoadDataset returns the rating records and catalog items.
	LoadDataset(ctx context.Context) (*Dataset, error)
}

// ContentRecommender is the metadata similarity model.
// It honours the same contract as Recommend: seeds are excluded, results are
// distinct and at most topN long.
type ContentRecommender interface {
	Recommend(ctx context.Context, titles []string, topN int) ([]string, error)
}

// ContentFactory trains a content model over catalog items.
type ContentFactory func(ctx context.Context, items []Item) (ContentRecommender, error)

// Request is a recommendation request handled by Engine.
type Request struct {
	// Strategy selects the ranking model.
	Strategy Strategy `json:"strategy"`

	// Seeds are the liked titles. The content strategy ignores their ratings.
	Seeds []Seed `json:"seeds"`

	// TopN is the maximum number of titles returned. Zero selects the default.
	TopN int `json:"top_n"`

	// RequestID is propagated into logs.
	RequestID string `json:"request_id,omitempty"`
}

// Response is the result of a recommendation request.
type Response struct {
	Titles   []string         `json:"titles"`
	Scores   []ScoredTitle    `json:"scores,omitempty"`
	Metadata ResponseMetadata `json:"metadata"`
}

// ResponseMetadata describes how a response was produced.
type ResponseMetadata struct {
	RequestID    string    `json:"request_id"`
	Strategy     string    `json:"strategy"`
	TopN         int       `json:"top_n"`
	IndexVersion int64     `json:"index_version"`
	BuiltAt      time.Time `json:"built_at"`
	LatencyMS    int64     `json:"latency_ms"`
	CacheHit     bool      `json:"cache_hit"`
	Timestamp    time.Time `json:"timestamp"`
}

// IndexStats summarises the shape of a collaborative index.
type IndexStats struct {
	// JoinedRows is the number of records that resolved against the catalog,
	// after the MaxJoinRows cap.
	JoinedRows int `json:"joined_rows"`

	// Users is the number of distinct users (matrix rows).
	Users int `json:"users"`

	// CandidateTitles is the number of titles before sparsity filtering.
	CandidateTitles int `json:"candidate_titles"`

	// Titles is the number of retained titles (index columns).
	Titles int `json:"titles"`

	// UndefinedTitles counts retained titles with zero variance.
	UndefinedTitles int `json:"undefined_titles"`
}

// IndexStatus reports the state of the engine's current snapshot.
type IndexStatus struct {
	Ready           bool       `json:"ready"`
	Rebuilding      bool       `json:"rebuilding"`
	Version         int64      `json:"version"`
	BuiltAt         time.Time  `json:"built_at,omitempty"`
	LastDurationMS  int64      `json:"last_duration_ms"`
	LastError       string     `json:"last_error,omitempty"`
	Degenerate      bool       `json:"degenerate"`
	ContentModel    bool       `json:"content_model"`
	CatalogItems    int        `json:"catalog_items"`
	Stats           IndexStats `json:"stats"`
	RebuildAttempts int64      `json:"rebuild_attempts"`
}

// Metrics tracks engine performance counters.
type Metrics struct {
	RequestCount int64 `json:"request_count"`
	CacheHits    int64 `json:"cache_hits"`
	CacheMisses  int64 `json:"cache_misses"`
	ErrorCount   int64 `json:"error_count"`
	RebuildCount int64 `json:"rebuild_count"`
}
