// Package client is the node orchestration layer. It bridges a network
// transport, either a peer-to-peer overlay or a centralized relay, to the
// local chain database and wallet, maintains the unconfirmed transaction
// pool, answers the peer synchronization protocol, and supports the trustee
// block production loop.
package client

import (
	"errors"
	"fmt"
	"sync"

	"github.com/nikakhov/bitshares-toolkit/foundation/chain"
	"github.com/nikakhov/bitshares-toolkit/foundation/chain/genesis"
	"github.com/nikakhov/bitshares-toolkit/foundation/chain/message"
	"github.com/nikakhov/bitshares-toolkit/foundation/client/pool"
)

// EventHandler defines a function that is called when events occur in the
// processing of node activity.
type EventHandler func(v string, args ...any)

// =============================================================================
// Contracts for the external collaborators this client consumes. The chain
// database and wallet provide their own internal consistency guarantees for
// concurrent access; the client adds no locking around them beyond the pool.

// ChainDB represents the behavior required of the chain database.
type ChainDB interface {
	Genesis() genesis.Genesis
	Head() chain.Head
	BlockByHeight(height uint64) (chain.Block, error)
	HeightByID(id string) (uint64, error)
	ApplyBlock(block chain.Block) error
	EvaluateTx(tx chain.SignedTx) error
}

// Wallet represents the behavior required of the wallet.
type Wallet interface {
	AssembleBlock(trans []chain.SignedTx) (chain.Block, error)
	ScanChain(toHeight uint64) error
}

// PeerNode is the control surface of a peer-to-peer overlay transport. A
// peer-to-peer transport never echoes a broadcast back to the sender.
type PeerNode interface {
	SetDelegate(d message.Delegate)
	Broadcast(msg message.Message) error
	ConnectTo(address string) error
	ListenOn(port uint16) error
	IsConnected() bool
	SyncFrom(id message.ItemID) error
}

// RelayClient is the control surface of a centralized relay transport. The
// relay echoes every accepted broadcast back through the inbound path,
// including to the sender.
type RelayClient interface {
	SetDelegate(d message.Delegate)
	Broadcast(msg message.Message) error
	ConnectTo(address string) error
	IsConnected() bool
}

// Trustee represents the behavior required of the block production loop so
// the client can cancel and join it during shutdown. The trustee package
// registers itself, following the same discipline as any background worker.
type Trustee interface {
	Shutdown()
}

// =============================================================================

// NodeRole determines which transport contract is active.
type NodeRole int

// The set of node roles. Exactly one transport is active per client,
// selected at construction.
const (
	RolePeerToPeer NodeRole = iota + 1
	RoleRelay
)

// String implements the fmt.Stringer interface for logging.
func (r NodeRole) String() string {
	switch r {
	case RolePeerToPeer:
		return "peer-to-peer"
	case RoleRelay:
		return "relay"
	}

	return "unknown"
}

// =============================================================================

// Set of errors for client operations.
var (
	ErrNoChain        = errors.New("chain database not attached")
	ErrNoWallet       = errors.New("wallet not attached")
	ErrNoTransactions = errors.New("no transactions to include")
	ErrTrusteeActive  = errors.New("trustee loop already running")

	// ErrInvalidItemKind reports a sync request for an item kind the
	// operation does not support. It aborts the request, never the process.
	ErrInvalidItemKind = errors.New("invalid item kind")
)

// =============================================================================

// Client owns the transport, the collaborator handles, and the transaction
// pool, and implements the transport's delegate contract.
type Client struct {
	role      NodeRole
	peerNode  PeerNode
	relay     RelayClient
	evHandler EventHandler

	mu      sync.Mutex
	chainDB ChainDB
	wallet  Wallet
	trustee Trustee

	pool *pool.Pool
}

// NewPeerToPeer constructs a client wired to a peer-to-peer overlay
// transport and registers itself as the transport's delegate.
func NewPeerToPeer(node PeerNode, evHandler EventHandler) *Client {
	c := newClient(RolePeerToPeer, evHandler)
	c.peerNode = node
	node.SetDelegate(c)

	return c
}

// NewRelay constructs a client wired to a centralized relay transport and
// registers itself as the transport's delegate.
func NewRelay(relay RelayClient, evHandler EventHandler) *Client {
	c := newClient(RoleRelay, evHandler)
	c.relay = relay
	relay.SetDelegate(c)

	return c
}

func newClient(role NodeRole, evHandler EventHandler) *Client {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	return &Client{
		role:      role,
		evHandler: ev,
		pool:      pool.New(),
	}
}

// Role returns the transport mode this client was constructed with.
func (c *Client) Role() NodeRole {
	return c.role
}

// =============================================================================

// SetChain attaches the chain database handle.
func (c *Client) SetChain(db ChainDB) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.chainDB = db
}

// SetWallet attaches the wallet handle. The chain database must already be
// attached; the wallet is immediately scanned to the current chain head.
func (c *Client) SetWallet(w Wallet) error {
	c.mu.Lock()
	if c.chainDB == nil {
		c.mu.Unlock()
		return ErrNoChain
	}
	head := c.chainDB.Head()
	c.wallet = w
	c.mu.Unlock()

	if err := w.ScanChain(head.Height); err != nil {
		return fmt.Errorf("initial wallet scan: %w", err)
	}

	return nil
}

// BroadcastTransaction validates and pools a locally originated transaction
// through the chain bridge, then sends it over the active transport. A
// peer-to-peer transport does not echo the broadcast back, so the local
// apply above stands in for the echo; in relay mode the echo arrives through
// the normal inbound path and is ignored as a duplicate.
func (c *Client) BroadcastTransaction(tx chain.SignedTx) error {
	if err := c.ApplyTransaction(tx); err != nil {
		return err
	}

	return c.broadcast(message.NewTrxMessage(tx))
}

// IsConnected reports whether the active transport has network
// connectivity.
func (c *Client) IsConnected() bool {
	switch c.role {
	case RolePeerToPeer:
		return c.peerNode.IsConnected()
	case RoleRelay:
		return c.relay.IsConnected()
	}

	return false
}

// ConnectTo asks the active transport to establish a connection to the
// specified address: a peer address in peer-to-peer mode, the relay server
// address in relay mode.
func (c *Client) ConnectTo(address string) error {
	switch c.role {
	case RolePeerToPeer:
		return c.peerNode.ConnectTo(address)
	case RoleRelay:
		return c.relay.ConnectTo(address)
	}

	return nil
}

// ListenOn starts the peer-to-peer transport listening for inbound peers.
// In relay mode there is nothing to listen for and the call is a no-op.
func (c *Client) ListenOn(port uint16) error {
	if c.role != RolePeerToPeer {
		c.evHandler("client: ListenOn: relay mode, nothing to listen on")
		return nil
	}

	return c.peerNode.ListenOn(port)
}

// SyncFromHead initiates network synchronization starting from the current
// chain head. An empty chain syncs from genesis via the zero hash cursor.
func (c *Client) SyncFromHead() error {
	if c.role != RolePeerToPeer {
		c.evHandler("client: SyncFromHead: relay mode, server pushes blocks")
		return nil
	}

	db, err := c.chainDatabase()
	if err != nil {
		return err
	}

	head := db.Head()
	from := message.ItemID{Kind: message.KindBlock, Hash: head.BlockID}

	c.evHandler("client: SyncFromHead: height[%d] from[%s]", head.Height, from.Hash)

	return c.peerNode.SyncFrom(from)
}

// RegisterTrustee records the block production loop with the client so
// shutdown can cancel and join it. Registering while a loop is already
// active fails; a node never runs two production loops.
func (c *Client) RegisterTrustee(t Trustee) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.trustee != nil {
		return ErrTrusteeActive
	}
	c.trustee = t

	return nil
}

// Shutdown cancels the trustee loop, if one is active, and blocks until it
// has exited. Calling Shutdown more than once is safe.
func (c *Client) Shutdown() {
	c.evHandler("client: Shutdown: started")
	defer c.evHandler("client: Shutdown: completed")

	c.mu.Lock()
	t := c.trustee
	c.trustee = nil
	c.mu.Unlock()

	if t != nil {
		c.evHandler("client: Shutdown: waiting for trustee loop")
		t.Shutdown()
	}
}

// =============================================================================
// Support for the trustee production loop.

// ChainHead returns the current tip of the chain, or the zero value when no
// chain database is attached yet.
func (c *Client) ChainHead() chain.Head {
	db, err := c.chainDatabase()
	if err != nil {
		return chain.Head{}
	}

	return db.Head()
}

// PendingTransactions returns a consistent snapshot of the pool.
func (c *Client) PendingTransactions() []chain.SignedTx {
	return c.pool.Snapshot()
}

// =============================================================================

// broadcast sends the message over whichever transport is active.
func (c *Client) broadcast(msg message.Message) error {
	switch c.role {
	case RolePeerToPeer:
		return c.peerNode.Broadcast(msg)
	case RoleRelay:
		return c.relay.Broadcast(msg)
	}

	return nil
}

// chainDatabase returns the attached chain database handle.
func (c *Client) chainDatabase() (ChainDB, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.chainDB == nil {
		return nil, ErrNoChain
	}

	return c.chainDB, nil
}

// walletHandle returns the attached wallet handle.
func (c *Client) walletHandle() (Wallet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.wallet == nil {
		return nil, ErrNoWallet
	}

	return c.wallet, nil
}
