// Amora - Hybrid Compatibility Matching and Recommendation Engine
// Copyright 2026 P. Mahlen (pmahlen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahlen/amora

// Package ws pushes match notifications to connected users over WebSocket.
// The hub tracks connections per user; a user may hold several at once
// (phone and laptop both receive the match).
package ws

import (
	"context"
	"sort"
	"sync"

	"github.com/pmahlen/amora/internal/logging"
	"github.com/pmahlen/amora/internal/metrics"
)

// delivery is one payload addressed to every connection a user holds.
type delivery struct {
	userID  string
	payload []byte
}

// Hub maintains the set of active clients and routes notifications to the
// connections belonging to a single user.
type Hub struct {
	clients    map[*Client]bool
	deliver    chan delivery
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a hub. It routes nothing until Serve runs.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		deliver:    make(chan delivery, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Notify queues a payload for every connection the user holds. It never
// blocks; when the delivery channel is full the payload is dropped and
// counted. Implements the event notifier's sink contract.
func (h *Hub) Notify(userID string, payload []byte) {
	select {
	case h.deliver <- delivery{userID: userID, payload: payload}:
	default:
		metrics.WSSendFailures.Inc()
		logging.Warn().Str("user_id", userID).Msg("delivery channel full, dropping notification")
	}
}

// Serve runs the hub until ctx is canceled. Selection is priority based:
// shutdown first, then client lifecycle, then deliveries. Go's select picks
// randomly among ready channels, so without the staging a burst of
// deliveries could act on stale client state.
func (h *Hub) Serve(ctx context.Context) error {
	for {
		// Priority 1: shutdown (non-blocking check).
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		// Priority 2: client lifecycle (non-blocking check).
		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		default:
		}

		// Priority 3: block until anything arrives.
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.addClient(client)
		case client := <-h.Unregister:
			h.removeClient(client)
		case d := <-h.deliver:
			h.deliverToUser(d)
		}
	}
}

// String identifies the hub in supervisor logs.
func (h *Hub) String() string {
	return "websocket-hub"
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Inc()
	logging.Info().
		Str("user_id", client.userID).
		Int("total_clients", total).
		Msg("websocket client connected")
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()

	// The guard keeps a late Unregister from double closing a client the
	// delivery path already evicted.
	if ok {
		metrics.WSConnections.Dec()
		logging.Info().
			Str("user_id", client.userID).
			Int("total_clients", total).
			Msg("websocket client disconnected")
	}
}

// deliverToUser sends the payload to each of the user's connections in
// client ID order so delivery and eviction order is reproducible.
func (h *Hub) deliverToUser(d delivery) {
	h.mu.Lock()
	defer h.mu.Unlock()

	targets := make([]*Client, 0, 2)
	for client := range h.clients {
		if client.userID == d.userID {
			targets = append(targets, client)
		}
	}
	sort.Slice(targets, func(i, j int) bool {
		return targets[i].id < targets[j].id
	})

	var toRemove []*Client
	for _, client := range targets {
		select {
		case client.send <- d.payload:
			metrics.WSMessagesSent.Inc()
		default:
			// A full send buffer means the write pump is gone or wedged.
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
		metrics.WSSendFailures.Inc()
		metrics.WSConnections.Dec()
		logging.Warn().
			Str("user_id", client.userID).
			Msg("evicting unresponsive websocket client")
	}
}

func (h *Hub) shutdown(ctx context.Context) {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	for _, client := range clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.mu.Unlock()

	metrics.WSConnections.Sub(float64(len(clients)))

	reason := "context_canceled"
	if ctx.Err() == context.DeadlineExceeded {
		reason = "context_deadline"
	}
	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", reason).
		Int("clients_closed", len(clients)).
		Msg("websocket hub stopped")
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// UserConnectionCount returns how many connections a user currently holds.
func (h *Hub) UserConnectionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for client := range h.clients {
		if client.userID == userID {
			n++
		}
	}
	return n
}
