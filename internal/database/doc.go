// Marquee - Collaborative Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package database loads the MovieLens dataset through an embedded DuckDB
engine.

DuckDB scans ratings.csv and movies.csv directly with read_csv, so the
dataset never has to be imported into a schema. The ratings query performs
the ratings-to-movies semi-join and the join-row cap inside the engine and
returns rows in file order:

	db, err := database.New(&cfg.Database)
	source, err := database.NewMovieLensSource(db, cfg.Dataset, cfg.Index.MaxJoinRows)
	dataset, err := source.LoadDataset(ctx)

MovieLensSource implements recommend.DataProvider. Loads run through a
circuit breaker (sony/gobreaker) so that a missing or corrupt file stops
being re-read on every poll until the breaker half-opens again.

Catalog preparation:
  - The release year is parsed from the trailing "(YYYY)" of each title.
  - Genres are split on "|"; "(no genres listed)" yields no genres.
  - With title disambiguation enabled, every repeat of a title after the
    lowest movieId is renamed "<title> #<movieId>".

Fingerprint reports file size and modification time of both files, which
the index service polls to trigger rebuilds when the dataset changes.
*/
package database
