package p2p

import "sync"

// Peer represents information about a node in the overlay network.
type Peer struct {
	Host string `json:"host"`
}

// NewPeer constructs a peer value.
func NewPeer(host string) Peer {
	return Peer{Host: host}
}

// Match validates if the specified host matches this peer.
func (p Peer) Match(host string) bool {
	return p.Host == host
}

// =============================================================================

// PeerStatus represents information about the status of any given peer.
type PeerStatus struct {
	Host       string `json:"host"`
	KnownPeers []Peer `json:"known_peers"`
}

// =============================================================================

// PeerSet maintains the set of known peers.
type PeerSet struct {
	mu  sync.RWMutex
	set map[Peer]struct{}
}

// NewPeerSet constructs a new set to manage peer information.
func NewPeerSet() *PeerSet {
	return &PeerSet{
		set: make(map[Peer]struct{}),
	}
}

// Add adds a new peer to the set. It reports whether the peer was
// newly added.
func (ps *PeerSet) Add(peer Peer) bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if _, exists := ps.set[peer]; !exists {
		ps.set[peer] = struct{}{}
		return true
	}

	return false
}

// Remove removes a peer from the set.
func (ps *PeerSet) Remove(peer Peer) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	delete(ps.set, peer)
}

// Count returns the number of known peers excluding the specified host.
func (ps *PeerSet) Count(host string) int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	count := len(ps.set)
	if _, exists := ps.set[NewPeer(host)]; exists {
		count--
	}

	return count
}

// Copy returns a list of the known peers excluding the specified host.
func (ps *PeerSet) Copy(host string) []Peer {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	var peers []Peer
	for peer := range ps.set {
		if !peer.Match(host) {
			peers = append(peers, peer)
		}
	}

	return peers
}
