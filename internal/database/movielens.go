// Marquee - Collaborative Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package database

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/marquee/internal/config"
	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/metrics"
	"github.com/tomtom215/marquee/internal/recommend"
)

const (
	moviesColumns  = `{'movieId': 'BIGINT', 'title': 'VARCHAR', 'genres': 'VARCHAR'}`
	ratingsColumns = `{'userId': 'BIGINT', 'movieId': 'BIGINT', 'rating': 'DOUBLE', 'timestamp': 'BIGINT'}`
)

// MovieLensSource loads MovieLens ratings.csv and movies.csv through DuckDB.
// It implements recommend.DataProvider.
type MovieLensSource struct {
	db           *DB
	ratingsPath  string
	moviesPath   string
	disambiguate bool
	maxJoinRows  int
	loadTimeout  time.Duration
	breaker      *gobreaker.CircuitBreaker[*recommend.Dataset]
	logger       zerolog.Logger
}

// NewMovieLensSource creates a loader for the configured dataset files.
// maxJoinRows caps the ratings that resolve to a catalog movie.
//
//nolint:gocritic // hugeParam: config passed by value, read once
func NewMovieLensSource(db *DB, cfg config.DatasetConfig, maxJoinRows int) (*MovieLensSource, error) {
	return NewMovieLensSourceWithBreaker(db, cfg, maxJoinRows, DefaultBreakerSettings())
}

// NewMovieLensSourceWithBreaker is NewMovieLensSource with explicit breaker settings.
//
//nolint:gocritic // hugeParam: config passed by value, read once
func NewMovieLensSourceWithBreaker(db *DB, cfg config.DatasetConfig, maxJoinRows int, breaker BreakerSettings) (*MovieLensSource, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	if cfg.RatingsPath == "" || cfg.MoviesPath == "" {
		return nil, fmt.Errorf("ratings and movies paths are required")
	}
	if maxJoinRows < 1 {
		return nil, fmt.Errorf("max join rows must be at least 1, got %d", maxJoinRows)
	}
	timeout := cfg.LoadTimeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	return &MovieLensSource{
		db:           db,
		ratingsPath:  cfg.RatingsPath,
		moviesPath:   cfg.MoviesPath,
		disambiguate: cfg.DisambiguateTitles,
		maxJoinRows:  maxJoinRows,
		loadTimeout:  timeout,
		breaker:      newLoadBreaker("movielens-loader", breaker),
		logger:       logging.WithComponent("movielens"),
	}, nil
}

// LoadDataset reads the catalog and the capped joined ratings.
func (s *MovieLensSource) LoadDataset(ctx context.Context) (*recommend.Dataset, error) {
	dataset, err := s.breaker.Execute(func() (*recommend.Dataset, error) {
		return s.load(ctx)
	})
	recordBreakerResult(s.breaker, err)
	if err != nil {
		return nil, fmt.Errorf("load movielens dataset: %w", err)
	}
	return dataset, nil
}

// BreakerState returns the loader circuit breaker state.
func (s *MovieLensSource) BreakerState() string {
	return s.breaker.State().String()
}

func (s *MovieLensSource) load(ctx context.Context) (*recommend.Dataset, error) {
	ctx, cancel := context.WithTimeout(ctx, s.loadTimeout)
	defer cancel()

	start := time.Now()
	items, err := s.loadMovies(ctx)
	if err != nil {
		return nil, err
	}

	records, err := s.loadRatings(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int("movies", len(items)).
		Int("ratings", len(records)).
		Int("max_join_rows", s.maxJoinRows).
		Dur("duration", time.Since(start)).
		Msg("Dataset loaded")

	return &recommend.Dataset{Records: records, Items: items}, nil
}

// loadMovies reads movies.csv ordered by movieId.
func (s *MovieLensSource) loadMovies(ctx context.Context) ([]recommend.Item, error) {
	query := fmt.Sprintf(`
		SELECT movieId, title, COALESCE(genres, '')
		FROM read_csv(%s, header = true, quote = '"', columns = %s)
		WHERE movieId IS NOT NULL AND title IS NOT NULL
		ORDER BY movieId`,
		sqlStringLiteral(s.moviesPath), moviesColumns)

	start := time.Now()
	rows, err := s.db.conn.QueryContext(ctx, query)
	if err != nil {
		metrics.RecordDBQuery("SELECT", "movies", time.Since(start), err)
		return nil, fmt.Errorf("query movies: %w", err)
	}
	defer closeWithLog(rows, "movies rows")

	var items []recommend.Item
	for rows.Next() {
		var (
			id     int64
			title  string
			genres string
		)
		if err := rows.Scan(&id, &title, &genres); err != nil {
			metrics.RecordDBQuery("SELECT", "movies", time.Since(start), err)
			return nil, fmt.Errorf("scan movie: %w", err)
		}
		title = strings.TrimSpace(title)
		items = append(items, recommend.Item{
			ID:     int(id),
			Title:  title,
			Genres: splitGenres(genres),
			Year:   parseTitleYear(title),
		})
	}
	err = rows.Err()
	metrics.RecordDBQuery("SELECT", "movies", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("iterate movies: %w", err)
	}

	if s.disambiguate {
		if renamed := disambiguateTitles(items); renamed > 0 {
			s.logger.Info().Int("renamed", renamed).Msg("Disambiguated duplicate movie titles")
		}
	}
	metrics.DatasetRowsLoaded.WithLabelValues("movies").Set(float64(len(items)))

	return items, nil
}

// loadRatings reads the first maxJoinRows ratings, in file order, whose
// movie loadMovies keeps. Rows for unknown or untitled movies never count
// towards the cap.
func (s *MovieLensSource) loadRatings(ctx context.Context) ([]recommend.RatingRecord, error) {
	query := fmt.Sprintf(`
		WITH ratings AS (
			SELECT userId, movieId, rating, row_number() OVER () AS file_row
			FROM read_csv(%s, header = true, columns = %s)
		)
		SELECT userId, movieId, rating
		FROM ratings
		WHERE userId IS NOT NULL
		  AND rating IS NOT NULL
		  AND movieId IN (
			SELECT movieId FROM read_csv(%s, header = true, quote = '"', columns = %s)
			WHERE title IS NOT NULL
		  )
		ORDER BY file_row
		LIMIT ?`,
		sqlStringLiteral(s.ratingsPath), ratingsColumns,
		sqlStringLiteral(s.moviesPath), moviesColumns)

	start := time.Now()
	rows, err := s.db.conn.QueryContext(ctx, query, s.maxJoinRows)
	if err != nil {
		metrics.RecordDBQuery("SELECT", "ratings", time.Since(start), err)
		return nil, fmt.Errorf("query ratings: %w", err)
	}
	defer closeWithLog(rows, "ratings rows")

	records := make([]recommend.RatingRecord, 0, 1024)
	for rows.Next() {
		var (
			userID, movieID int64
			rating          float64
		)
		if err := rows.Scan(&userID, &movieID, &rating); err != nil {
			metrics.RecordDBQuery("SELECT", "ratings", time.Since(start), err)
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		records = append(records, recommend.RatingRecord{
			UserID: int(userID),
			ItemID: int(movieID),
			Rating: rating,
		})
	}
	err = rows.Err()
	metrics.RecordDBQuery("SELECT", "ratings", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("iterate ratings: %w", err)
	}
	metrics.DatasetRowsLoaded.WithLabelValues("ratings").Set(float64(len(records)))

	return records, nil
}

// Fingerprint identifies the current content of both dataset files by size
// and modification time.
func (s *MovieLensSource) Fingerprint() (string, error) {
	parts := make([]string, 0, 2)
	for _, path := range []string{s.ratingsPath, s.moviesPath} {
		info, err := os.Stat(path)
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", path, err)
		}
		parts = append(parts, fmt.Sprintf("%s:%d:%d", path, info.Size(), info.ModTime().UnixNano()))
	}
	return strings.Join(parts, "|"), nil
}

// sqlStringLiteral quotes s as a SQL string literal.
func sqlStringLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

var _ recommend.DataProvider = (*MovieLensSource)(nil)
