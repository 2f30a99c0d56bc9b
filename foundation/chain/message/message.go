// Package message defines the wire items exchanged between nodes and the
// delegate contract a transport drives on inbound network events.
package message

import (
	"fmt"

	"github.com/nikakhov/bitshares-toolkit/foundation/chain"
)

// ItemKind identifies the type of a sync-protocol-addressable item.
type ItemKind uint32

// The set of item kinds the sync protocol understands.
const (
	KindBlock ItemKind = iota + 1
	KindTransaction
)

// String implements the fmt.Stringer interface for logging.
func (k ItemKind) String() string {
	switch k {
	case KindBlock:
		return "block"
	case KindTransaction:
		return "transaction"
	}

	return fmt.Sprintf("unknown(%d)", uint32(k))
}

// =============================================================================

// ItemID identifies a block or a pooled transaction by kind and canonical
// content hash.
type ItemID struct {
	Kind ItemKind `json:"kind"`
	Hash string   `json:"hash"`
}

// BlockPayload carries a full block over the wire together with its id and
// trustee signature.
type BlockPayload struct {
	BlockID          string      `json:"block_id"`
	Block            chain.Block `json:"block"`
	TrusteeSignature string      `json:"trustee_signature"`
}

// Message is the envelope for items exchanged between nodes. Exactly one of
// the payload fields is set, selected by Kind.
type Message struct {
	Kind  ItemKind        `json:"kind"`
	Block *BlockPayload   `json:"block,omitempty"`
	Trx   *chain.SignedTx `json:"trx,omitempty"`
}

// NewBlockMessage constructs a wire message for the specified block.
func NewBlockMessage(block chain.Block) Message {
	return Message{
		Kind: KindBlock,
		Block: &BlockPayload{
			BlockID:          block.Hash(),
			Block:            block,
			TrusteeSignature: block.TrusteeSignature,
		},
	}
}

// NewTrxMessage constructs a wire message for the specified transaction.
func NewTrxMessage(tx chain.SignedTx) Message {
	return Message{
		Kind: KindTransaction,
		Trx:  &tx,
	}
}

// =============================================================================

// Delegate is the contract a transport drives on inbound network events. The
// client facade implements this interface by composing its sync responder
// and chain bridge.
type Delegate interface {
	HasItem(id ItemID) bool
	GetItemIDs(from ItemID, limit int) (ids []string, remaining int, err error)
	GetItem(id ItemID) (Message, error)
	HandleMessage(msg Message) error
	SyncStatus(kind ItemKind, count int)
	ConnectionCountChanged(count int)
}
