// Package p2p implements the peer-to-peer overlay transport: an HTTP/JSON
// node-to-node surface that drives the client's delegate contract on
// inbound events and fans broadcasts out to the known peers. The overlay
// never echoes a broadcast back to its sender.
package p2p

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nikakhov/bitshares-toolkit/foundation/chain/message"
)

// EventHandler defines a function that is called when events occur in the
// processing of network activity.
type EventHandler func(v string, args ...any)

// Config represents the configuration required to construct a node.
type Config struct {
	Host      string // Advertised host:port for this node.
	EvHandler EventHandler
}

// Node manages the overlay membership and the node-to-node HTTP surface.
type Node struct {
	host      string
	evHandler EventHandler
	peers     *PeerSet

	mu       sync.RWMutex
	delegate message.Delegate
	server   *http.Server
}

// New constructs a node for the overlay network.
func New(cfg Config) *Node {
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	return &Node{
		host:      cfg.Host,
		evHandler: ev,
		peers:     NewPeerSet(),
	}
}

// SetDelegate wires the delegate that inbound network events are driven
// against.
func (n *Node) SetDelegate(d message.Delegate) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.delegate = d
}

// Host returns this node's advertised host.
func (n *Node) Host() string {
	return n.host
}

// =============================================================================

// ListenOn starts the node-to-node HTTP surface on the specified port.
func (n *Node) ListenOn(port uint16) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.server != nil {
		return fmt.Errorf("already listening on %s", n.server.Addr)
	}

	server := http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%d", port),
		Handler:      n.routes(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	n.server = &server

	go func() {
		n.evHandler("p2p: ListenOn: node surface started: %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			n.evHandler("p2p: ListenOn: ERROR: %s", err)
		}
	}()

	return nil
}

// Shutdown stops the node-to-node HTTP surface.
func (n *Node) Shutdown(ctx context.Context) error {
	n.mu.Lock()
	server := n.server
	n.server = nil
	n.mu.Unlock()

	if server == nil {
		return nil
	}

	return server.Shutdown(ctx)
}

// =============================================================================

// ConnectTo adds the peer at the specified address to the known set,
// registers this node with it, and merges its peer list into ours.
func (n *Node) ConnectTo(address string) error {
	if address == n.host {
		return fmt.Errorf("cannot connect to self %s", address)
	}

	status, err := n.queryPeerStatus(NewPeer(address))
	if err != nil {
		return fmt.Errorf("connect to %s: %w", address, err)
	}

	if n.peers.Add(NewPeer(address)) {
		n.evHandler("p2p: ConnectTo: added peer %s", address)
	}

	// Adopt any peers this peer knows that we don't.
	for _, peer := range status.KnownPeers {
		if peer.Match(n.host) {
			continue
		}
		if n.peers.Add(peer) {
			n.evHandler("p2p: ConnectTo: adopted peer %s", peer.Host)
		}
	}

	// Let the peer know this node is available.
	if err := n.registerWithPeer(NewPeer(address)); err != nil {
		n.evHandler("p2p: ConnectTo: register with %s: WARNING: %s", address, err)
	}

	n.connectionCountChanged()

	return nil
}

// IsConnected reports whether this node knows at least one live peer.
func (n *Node) IsConnected() bool {
	return n.peers.Count(n.host) > 0
}

// Broadcast sends the message to every known peer concurrently. The
// message is not delivered to this node's own delegate.
func (n *Node) Broadcast(msg message.Message) error {
	peers := n.peers.Copy(n.host)

	var g errgroup.Group
	for _, peer := range peers {
		peer := peer
		g.Go(func() error {
			url := fmt.Sprintf("%s/message", fmt.Sprintf(baseURL, peer.Host))
			if err := send(http.MethodPost, url, msg, nil); err != nil {
				return fmt.Errorf("%s: %w", peer.Host, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("broadcast: %w", err)
	}

	n.evHandler("p2p: Broadcast: kind[%s] sent to %d peers", msg.Kind, len(peers))

	return nil
}

// =============================================================================

// currentDelegate returns the wired delegate.
func (n *Node) currentDelegate() (message.Delegate, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.delegate == nil {
		return nil, fmt.Errorf("no delegate wired")
	}

	return n.delegate, nil
}

// connectionCountChanged informs the delegate about the new number of
// known peers.
func (n *Node) connectionCountChanged() {
	d, err := n.currentDelegate()
	if err != nil {
		return
	}

	d.ConnectionCountChanged(n.peers.Count(n.host))
}
