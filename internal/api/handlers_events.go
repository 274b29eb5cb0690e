// Marquee - Collaborative Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/marquee/internal/logging"
	ws "github.com/tomtom215/marquee/internal/websocket"
)

// Events upgrades GET /api/v1/events to a websocket that receives
// index_rebuilt and index_rebuild_failed messages.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	if h.events == nil {
		respondError(w, http.StatusServiceUnavailable, CodeEventsUnavailable, "Event stream is not enabled", nil)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  4096,
		HandshakeTimeout: 10 * time.Second,
		CheckOrigin:      h.checkEventOrigin,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		logging.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := ws.NewClient(h.events, conn)
	if !h.events.Register(client) {
		logging.Warn().Msg("websocket hub not running, closing connection")
		_ = conn.Close()
		return
	}
	client.Start()
}

// checkEventOrigin admits non-browser clients, which send no Origin, and
// browsers on an allowed origin.
func (h *Handler) checkEventOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.eventOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	logging.Warn().Str("origin", sanitizeOrigin(origin)).Msg("websocket connection rejected from unauthorized origin")
	return false
}

// sanitizeOrigin keeps log lines single-line and bounded.
func sanitizeOrigin(origin string) string {
	origin = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, origin)
	if len(origin) > 128 {
		origin = origin[:128]
	}
	return origin
}
