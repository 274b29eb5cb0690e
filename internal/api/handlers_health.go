// Marquee - Collaborative Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/marquee/internal/models"
)

// HealthLive handles GET /api/v1/health/live.
// The process is alive whenever it can answer.
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: models.HealthResponse{
			Status:    "alive",
			Ready:     h.engine.Ready(),
			Uptime:    time.Since(h.startTime).Seconds(),
			Timestamp: time.Now(),
		},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// HealthReady handles GET /api/v1/health/ready.
// Returns 503 until the first index has been built.
func (h *Handler) HealthReady(w http.ResponseWriter, _ *http.Request) {
	status := h.engine.Status()

	code := http.StatusOK
	body := models.HealthResponse{
		Status:       "ready",
		Ready:        status.Ready,
		IndexVersion: status.Version,
		Uptime:       time.Since(h.startTime).Seconds(),
		Timestamp:    time.Now(),
	}
	if !status.Ready {
		code = http.StatusServiceUnavailable
		body.Status = "not_ready"
	}

	respondJSON(w, code, &models.APIResponse{
		Status:   body.Status,
		Data:     body,
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}
