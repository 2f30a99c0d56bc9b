// Package relay implements the hosted-relay transport: a websocket hub
// that fans every inbound message out to all connected nodes, and a
// client that nodes use to speak through the hub instead of a direct
// overlay. The hub echoes a broadcast back to its sender, so a node
// always observes its own messages again on this transport.
package relay

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nikakhov/bitshares-toolkit/foundation/chain/message"
)

// EventHandler defines a function that is called when events occur in the
// processing of relay activity.
type EventHandler func(v string, args ...any)

// HubConfig represents the configuration required to construct a hub.
type HubConfig struct {
	Host      string // host:port the hub listens on.
	EvHandler EventHandler
}

// Hub accepts websocket connections from nodes and repeats every message
// it receives to every connection, the sender included.
type Hub struct {
	host      string
	evHandler EventHandler
	ws        websocket.Upgrader

	mu     sync.RWMutex
	conns  map[*websocket.Conn]struct{}
	server *http.Server

	// wmu serializes writes across all connections. The websocket
	// package supports only one concurrent writer per connection and
	// every accept goroutine repeats into the shared set.
	wmu sync.Mutex
}

// NewHub constructs a hub for relaying messages between nodes.
func NewHub(cfg HubConfig) *Hub {
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	return &Hub{
		host:      cfg.Host,
		evHandler: ev,
		conns:     make(map[*websocket.Conn]struct{}),
	}
}

// Listen starts the hub's websocket surface. It blocks until the server
// stops serving.
func (h *Hub) Listen() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/relay", h.accept)

	server := http.Server{
		Addr:        h.host,
		Handler:     mux,
		ReadTimeout: 0,
		IdleTimeout: 120 * time.Second,
	}

	h.mu.Lock()
	h.server = &server
	h.mu.Unlock()

	h.evHandler("relay: Listen: hub started: %s", h.host)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

// Shutdown closes every connection and stops the hub.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	server := h.server
	h.server = nil
	for conn := range h.conns {
		conn.Close()
		delete(h.conns, conn)
	}
	h.mu.Unlock()

	if server == nil {
		return nil
	}

	return server.Shutdown(ctx)
}

// ConnectionCount returns the number of nodes currently attached.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.conns)
}

// =============================================================================

// accept upgrades an inbound request and pumps its messages through
// the hub until the connection drops.
func (h *Hub) accept(w http.ResponseWriter, r *http.Request) {
	h.ws.CheckOrigin = func(r *http.Request) bool { return true }

	conn, err := h.ws.Upgrade(w, r, nil)
	if err != nil {
		h.evHandler("relay: accept: upgrade: ERROR: %s", err)
		return
	}

	h.mu.Lock()
	h.conns[conn] = struct{}{}
	count := len(h.conns)
	h.mu.Unlock()

	h.evHandler("relay: accept: node attached: connections[%d]", count)

	defer func() {
		h.mu.Lock()
		delete(h.conns, conn)
		count := len(h.conns)
		h.mu.Unlock()

		conn.Close()
		h.evHandler("relay: accept: node detached: connections[%d]", count)
	}()

	for {
		var msg message.Message
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}

		if err := h.repeat(msg); err != nil {
			h.evHandler("relay: accept: repeat: ERROR: %s", err)
		}
	}
}

// repeat writes the message to every attached connection. The sender is
// included so relayed nodes observe their own broadcasts coming back.
func (h *Hub) repeat(msg message.Message) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	h.wmu.Lock()
	defer h.wmu.Unlock()

	var failed int
	for conn := range h.conns {
		if err := conn.WriteJSON(msg); err != nil {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("delivery failed to %d of %d connections", failed, len(h.conns))
	}

	h.evHandler("relay: repeat: kind[%s] sent to %d connections", msg.Kind, len(h.conns))

	return nil
}
