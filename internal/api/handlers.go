// Marquee - Collaborative Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"context"
	"time"

	"github.com/tomtom215/marquee/internal/recommend"
	ws "github.com/tomtom215/marquee/internal/websocket"
)

// Recommender is the read side of the engine used by the handlers.
// *recommend.Engine satisfies it.
type Recommender interface {
	Recommend(ctx context.Context, req recommend.Request) (*recommend.Response, error)
	Titles() []string
	SuggestTitles(prefix string, limit int) []string
	Status() recommend.IndexStatus
	Ready() bool
}

// RebuildTrigger schedules an asynchronous index rebuild. It returns
// recommend.ErrRebuildInProgress or recommend.ErrRebuildThrottled when the
// request is refused.
type RebuildTrigger interface {
	TriggerRebuild(reason string) error
}

// Handler serves the HTTP endpoints.
type Handler struct {
	engine    Recommender
	rebuilder RebuildTrigger
	startTime time.Time

	// defaultStrategy fills requests that name no strategy.
	defaultStrategy string

	events       *ws.Hub
	eventOrigins []string
}

// NewHandler creates the handler set. rebuilder may be nil, in which case
// the rebuild endpoint reports the index as busy.
func NewHandler(engine Recommender, rebuilder RebuildTrigger) *Handler {
	return &Handler{
		engine:    engine,
		rebuilder: rebuilder,
		startTime: time.Now(),
	}
}

// SetDefaultStrategy sets the strategy used when a request names none.
func (h *Handler) SetDefaultStrategy(name string) {
	h.defaultStrategy = name
}

// SetEventHub enables GET /api/v1/events. Browser connections must come
// from one of origins; "*" allows any.
func (h *Handler) SetEventHub(hub *ws.Hub, origins []string) {
	h.events = hub
	h.eventOrigins = origins
}
