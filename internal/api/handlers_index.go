// Marquee - Collaborative Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/tomtom215/marquee/internal/auth"
	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/models"
	"github.com/tomtom215/marquee/internal/recommend"
)

var errIndexNotReady = recommend.ErrIndexNotReady

// retryAfter is implemented by refusals that know when to try again.
type retryAfter interface {
	RetryAfter() time.Duration
}

// IndexStatus handles GET /api/v1/index/status.
func (h *Handler) IndexStatus(w http.ResponseWriter, _ *http.Request) {
	respondSuccess(w, http.StatusOK, h.engine.Status(), time.Now(), false)
}

// RebuildIndex handles POST /api/v1/index/rebuild.
// The rebuild runs in the background; poll /api/v1/index/status for the result.
func (h *Handler) RebuildIndex(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if h.rebuilder == nil {
		respondError(w, http.StatusServiceUnavailable, CodeRebuildUnavailable, "Index rebuilds are not enabled", nil)
		return
	}

	reason := "api"
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok && claims.Subject != "" {
		reason = "api:" + claims.Subject
	}

	if err := h.rebuilder.TriggerRebuild(reason); err != nil {
		status, apiErr, _ := errorResponse(err)
		var wait retryAfter
		if errors.As(err, &wait) && wait.RetryAfter() > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.RetryAfter().Seconds()))))
		}
		respondAPIError(w, status, apiErr, nil)
		return
	}

	logging.Ctx(r.Context()).Info().Str("reason", sanitizeLogValue(reason)).Msg("Index rebuild scheduled")

	respondSuccess(w, http.StatusAccepted, models.RebuildAccepted{
		Accepted: true,
		Status:   h.engine.Status(),
	}, start, false)
}
