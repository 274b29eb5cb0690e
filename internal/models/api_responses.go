// Marquee - Collaborative Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package models holds the HTTP wire types shared by the API handlers.
package models

import (
	"time"

	"github.com/tomtom215/marquee/internal/recommend"
)

// APIResponse wraps every JSON body returned by the API.
//
//	{
//	  "status": "success",
//	  "data": {"titles": ["Aliens (1986)", "Alien (1979)"]},
//	  "metadata": {"timestamp": "2026-03-01T12:00:00Z", "query_time_ms": 3}
//	}
//
// Status is "success" or "error". Error is only set for errors.
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries response timing.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
}

// APIError is the machine-readable error body.
//
// Codes in use:
//   - VALIDATION_ERROR: the body failed struct validation
//   - INVALID_REQUEST: the recommender rejected the request
//   - UNKNOWN_ITEM: one or more seeds are not indexed (details.titles)
//   - INDEX_NOT_READY, CONTENT_MODEL_UNAVAILABLE: 503 conditions
//   - REBUILD_UNAVAILABLE, EVENTS_UNAVAILABLE: 503, feature not wired
//   - REBUILD_IN_PROGRESS: a rebuild is already running
//   - UNAUTHORIZED: missing or invalid admin token
//   - RATE_LIMIT_EXCEEDED: too many requests
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SeedInput is one liked title in a recommendation request. A missing
// rating counts as a top rating.
type SeedInput struct {
	Title  string   `json:"title" validate:"required,max=512"`
	Rating *float64 `json:"rating,omitempty" validate:"omitempty,gte=0,lte=5"`
}

// RecommendationRequest is the body of POST /api/v1/recommendations.
type RecommendationRequest struct {
	Strategy string      `json:"strategy,omitempty" validate:"omitempty,oneof=collaborative content"`
	Seeds    []SeedInput `json:"seeds" validate:"required,min=1,dive"`
	TopN     int         `json:"top_n,omitempty" validate:"gte=0"`
}

// DefaultSeedRating is applied to seeds sent without a rating.
const DefaultSeedRating = recommend.MaxRating

// ToRequest converts the body into an engine request.
func (r *RecommendationRequest) ToRequest(requestID string) (recommend.Request, error) {
	strategy, err := recommend.ParseStrategy(r.Strategy)
	if err != nil {
		return recommend.Request{}, err
	}

	seeds := make([]recommend.Seed, len(r.Seeds))
	for i, s := range r.Seeds {
		rating := DefaultSeedRating
		if s.Rating != nil {
			rating = *s.Rating
		}
		seeds[i] = recommend.Seed{Title: s.Title, Rating: rating}
	}

	return recommend.Request{
		Strategy:  strategy,
		Seeds:     seeds,
		TopN:      r.TopN,
		RequestID: requestID,
	}, nil
}

// RecommendationResponse is the data of a successful recommendation.
type RecommendationResponse struct {
	Titles       []string                `json:"titles"`
	Scores       []recommend.ScoredTitle `json:"scores,omitempty"`
	Strategy     string                  `json:"strategy"`
	TopN         int                     `json:"top_n"`
	IndexVersion int64                   `json:"index_version"`
	RequestID    string                  `json:"request_id,omitempty"`
}

// TitlesResponse lists titles accepted as seeds.
type TitlesResponse struct {
	Titles []string `json:"titles"`
	Total  int      `json:"total"`
	Prefix string   `json:"prefix,omitempty"`
}

// HealthResponse is returned by the health probes.
type HealthResponse struct {
	Status       string    `json:"status"`
	Ready        bool      `json:"ready"`
	IndexVersion int64     `json:"index_version,omitempty"`
	Uptime       float64   `json:"uptime_seconds"`
	Timestamp    time.Time `json:"timestamp"`
}

// RebuildAccepted is returned when an index rebuild has been scheduled.
type RebuildAccepted struct {
	Accepted bool                  `json:"accepted"`
	Status   recommend.IndexStatus `json:"status"`
}
