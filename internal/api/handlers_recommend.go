// Marquee - Collaborative Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/metrics"
	"github.com/tomtom215/marquee/internal/models"
)

const (
	defaultSuggestLimit = 20
	maxSuggestLimit     = 100
)

// Recommend handles POST /api/v1/recommendations.
//
//	{"strategy": "collaborative", "seeds": [{"title": "Heat (1995)", "rating": 5}], "top_n": 10}
//
// A seed without a rating counts as rated 5. Unknown seeds are reported
// together in a single 422 with details.titles.
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var body models.RecommendationRequest
	if !decodeJSONBody(w, r, &body) {
		return
	}
	if apiErr := validateRequest(&body); apiErr != nil {
		respondAPIError(w, http.StatusBadRequest, apiErr, nil)
		return
	}
	if body.Strategy == "" {
		body.Strategy = h.defaultStrategy
	}

	req, err := body.ToRequest(logging.RequestIDFromContext(r.Context()))
	if err != nil {
		status, apiErr, _ := errorResponse(err)
		respondAPIError(w, status, apiErr, nil)
		return
	}

	resp, err := h.engine.Recommend(r.Context(), req)
	if err != nil {
		status, apiErr, outcome := errorResponse(err)
		metrics.RecordRecommendation(req.Strategy.String(), outcome, time.Since(start), false)
		if status >= http.StatusInternalServerError {
			respondAPIError(w, status, apiErr, err)
		} else {
			respondAPIError(w, status, apiErr, nil)
		}
		return
	}

	metrics.RecordRecommendation(resp.Metadata.Strategy, outcomeSuccess, time.Since(start), resp.Metadata.CacheHit)

	respondSuccess(w, http.StatusOK, models.RecommendationResponse{
		Titles:       resp.Titles,
		Scores:       resp.Scores,
		Strategy:     resp.Metadata.Strategy,
		TopN:         resp.Metadata.TopN,
		IndexVersion: resp.Metadata.IndexVersion,
		RequestID:    resp.Metadata.RequestID,
	}, start, resp.Metadata.CacheHit)
}

// Titles handles GET /api/v1/titles.
// Without a prefix every indexed title is returned in index order; limit,
// when positive, truncates the list. With a prefix the trie is searched
// case-insensitively and limit defaults to 20.
func (h *Handler) Titles(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if !h.engine.Ready() {
		status, apiErr, _ := errorResponse(errIndexNotReady)
		respondAPIError(w, status, apiErr, nil)
		return
	}

	prefix := strings.TrimSpace(r.URL.Query().Get("prefix"))
	var titles []string
	if prefix != "" {
		limit := getIntParam(r, "limit", defaultSuggestLimit)
		if limit < 1 || limit > maxSuggestLimit {
			respondError(w, http.StatusBadRequest, CodeInvalidRequest, "limit must be between 1 and 100", nil)
			return
		}
		titles = h.engine.SuggestTitles(prefix, limit)
	} else {
		titles = h.engine.Titles()
		if limit := getIntParam(r, "limit", 0); limit > 0 && limit < len(titles) {
			titles = titles[:limit]
		}
	}
	if titles == nil {
		titles = []string{}
	}

	respondSuccess(w, http.StatusOK, models.TitlesResponse{
		Titles: titles,
		Total:  len(titles),
		Prefix: prefix,
	}, start, false)
}
