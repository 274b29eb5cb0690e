// Marquee - Collaborative Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package websocket streams index lifecycle events to connected clients.
//
// A Hub fans messages out to every registered Client. The index service
// reports each finished rebuild through Hub.NotifyRebuild, and clients
// receive an index_rebuilt or index_rebuild_failed message, letting a UI
// refresh its title list without polling /api/v1/index/status.
//
//	hub := websocket.NewHub()
//	tree.AddAPIService(services.NewWebSocketHubService(hub))
//	indexService.SetNotifier(hub)
//
// Clients may send {"type":"ping"} and receive {"type":"pong"}.
package websocket

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/metrics"
	"github.com/tomtom215/marquee/internal/recommend"
)

// Message types.
const (
	MessageTypeIndexRebuilt       = "index_rebuilt"
	MessageTypeIndexRebuildFailed = "index_rebuild_failed"
	MessageTypePing               = "ping"
	MessageTypePong               = "pong"
)

const (
	broadcastBuffer = 64
	registerTimeout = 5 * time.Second
)

// Message is the envelope of every frame sent to clients.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// IndexRebuiltData accompanies index_rebuilt.
type IndexRebuiltData struct {
	Timestamp  string `json:"timestamp"`
	Reason     string `json:"reason"`
	Version    int64  `json:"version"`
	Titles     int    `json:"titles"`
	Users      int    `json:"users"`
	Degenerate bool   `json:"degenerate"`
	DurationMS int64  `json:"duration_ms"`
}

// IndexRebuildFailedData accompanies index_rebuild_failed. ServingVersion
// is the version still answering requests, zero when none is.
type IndexRebuildFailedData struct {
	Timestamp      string `json:"timestamp"`
	Reason         string `json:"reason"`
	Error          string `json:"error"`
	ServingVersion int64  `json:"serving_version"`
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]struct{}
	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
	now        func() time.Time
}

// NewHub creates a Hub. It delivers nothing until RunWithContext runs.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan Message, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		now:        time.Now,
	}
}

// RunWithContext processes registrations and broadcasts until ctx is
// canceled, then closes every client and returns ctx.Err(). It is meant to
// run under a supervisor.
//
// Pending registrations are handled before broadcasts so a client that
// connected before an event was published receives it.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case client := <-h.register:
			h.add(client)
			continue
		case client := <-h.unregister:
			h.remove(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case client := <-h.register:
			h.add(client)
		case client := <-h.unregister:
			h.remove(client)
		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

// Register hands a connected client to the hub. It returns false when the
// hub is not running.
func (h *Hub) Register(client *Client) bool {
	timer := time.NewTimer(registerTimeout)
	defer timer.Stop()
	select {
	case h.register <- client:
		return true
	case <-timer.C:
		return false
	}
}

func (h *Hub) add(client *Client) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WebSocketClients.Set(float64(total))
	logging.Debug().Uint64("client_id", client.id).Int("total_clients", total).Msg("websocket client connected")
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WebSocketClients.Set(float64(total))
	logging.Debug().Uint64("client_id", client.id).Int("total_clients", total).Msg("websocket client disconnected")
}

// broadcastToClients sends to every client in ID order. A client whose
// buffer is full is dropped rather than stalling the others.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.sortedClients() {
		select {
		case client.send <- message:
		default:
			metrics.WebSocketMessagesDropped.WithLabelValues("client").Inc()
			logging.Warn().Uint64("client_id", client.id).Msg("websocket client too slow, disconnecting")
			close(client.send)
			delete(h.clients, client)
		}
	}
	metrics.WebSocketClients.Set(float64(len(h.clients)))
}

// sortedClients must be called with mu held.
func (h *Hub) sortedClients() []*Client {
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	return clients
}

func (h *Hub) shutdown(ctx context.Context) {
	h.mu.Lock()
	closed := len(h.clients)
	for _, client := range h.sortedClients() {
		close(client.send)
		delete(h.clients, client)
	}
	h.mu.Unlock()

	metrics.WebSocketClients.Set(0)
	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", shutdownReason(ctx)).
		Int("clients_closed", closed).
		Msg("websocket hub stopped")
}

func shutdownReason(ctx context.Context) string {
	if ctx.Err() == context.DeadlineExceeded {
		return "context_deadline"
	}
	return "context_canceled"
}

// Publish queues a message for every client. It never blocks; when the
// queue is full the message is dropped.
func (h *Hub) Publish(messageType string, data interface{}) {
	select {
	case h.broadcast <- Message{Type: messageType, Data: data}:
	default:
		metrics.WebSocketMessagesDropped.WithLabelValues("hub").Inc()
		logging.Warn().Str("message_type", messageType).Msg("broadcast channel full, dropping message")
	}
}

// NotifyRebuild publishes the outcome of an index rebuild. status is the
// engine status after the attempt.
//
//nolint:gocritic // hugeParam: status passed by value as returned by the engine
func (h *Hub) NotifyRebuild(reason string, status recommend.IndexStatus, duration time.Duration, err error) {
	timestamp := h.now().UTC().Format(time.RFC3339)

	if err != nil {
		failed := IndexRebuildFailedData{
			Timestamp: timestamp,
			Reason:    reason,
			Error:     err.Error(),
		}
		if status.Ready {
			failed.ServingVersion = status.Version
		}
		h.Publish(MessageTypeIndexRebuildFailed, failed)
		return
	}

	h.Publish(MessageTypeIndexRebuilt, IndexRebuiltData{
		Timestamp:  timestamp,
		Reason:     reason,
		Version:    status.Version,
		Titles:     status.Stats.Titles,
		Users:      status.Stats.Users,
		Degenerate: status.Degenerate,
		DurationMS: duration.Milliseconds(),
	})
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
