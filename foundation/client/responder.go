package client

import (
	"errors"
	"fmt"

	"github.com/nikakhov/bitshares-toolkit/foundation/chain"
	"github.com/nikakhov/bitshares-toolkit/foundation/chain/message"
)

// This file implements the synchronization responder: the inbound half of
// the peer sync protocol the transport drives on network events. Together
// with the bridge in bridge.go these methods satisfy message.Delegate.

// HasItem reports whether this node can serve the specified item. The
// answer is truthful: the node never claims possession of an item it
// cannot serve from the chain database or the pool.
func (c *Client) HasItem(id message.ItemID) bool {
	switch id.Kind {
	case message.KindBlock:
		db, err := c.chainDatabase()
		if err != nil {
			return false
		}
		if _, err := db.HeightByID(id.Hash); err != nil {
			return false
		}
		return true

	case message.KindTransaction:
		_, exists := c.pool.Get(id.Hash)
		return exists
	}

	return false
}

// GetItemIDs returns up to limit block id hashes in chain order starting
// immediately after the from cursor, plus the count of further items
// beyond what was returned. The zero hash cursor means genesis, so the
// page starts at block 1. An unknown cursor reports an empty page with
// zero remaining: the peer is on a fork this node does not know, and
// guessing would be worse than silence.
func (c *Client) GetItemIDs(from message.ItemID, limit int) ([]string, int, error) {
	if from.Kind != message.KindBlock {
		return nil, 0, fmt.Errorf("get item ids for kind %s: %w", from.Kind, ErrInvalidItemKind)
	}

	db, err := c.chainDatabase()
	if err != nil {
		return nil, 0, err
	}

	var lastSeen uint64
	if from.Hash != chain.ZeroHash {
		lastSeen, err = db.HeightByID(from.Hash)
		if err != nil {
			if errors.Is(err, chain.ErrNotFound) {
				c.evHandler("client: GetItemIDs: unknown cursor %s", from.Hash)
				return nil, 0, nil
			}
			return nil, 0, err
		}
	}

	head := db.Head()
	if head.Height <= lastSeen {
		return nil, 0, nil
	}

	remaining := int(head.Height - lastSeen)
	count := remaining
	if limit < count {
		count = limit
	}

	ids := make([]string, 0, count)
	for i := 0; i < count; i++ {
		lastSeen++
		block, err := db.BlockByHeight(lastSeen)
		if err != nil {
			return nil, 0, fmt.Errorf("fetch block %d: %w", lastSeen, err)
		}
		ids = append(ids, block.Hash())
	}

	return ids, remaining - count, nil
}

// GetItem fetches the item payload for the specified id: a block with its
// trustee signature from the chain database, or a still-pooled
// transaction. When neither resolves the result is chain.ErrNotFound,
// which is a normal outcome once a transaction has been included in a
// block or expired.
func (c *Client) GetItem(id message.ItemID) (message.Message, error) {
	if id.Kind == message.KindBlock {
		db, err := c.chainDatabase()
		if err != nil {
			return message.Message{}, err
		}

		height, err := db.HeightByID(id.Hash)
		if err == nil {
			block, err := db.BlockByHeight(height)
			if err != nil {
				return message.Message{}, err
			}

			// The fetched block must hash back to the requested id; a
			// mismatch means the store and the index disagree.
			if hash := block.Hash(); hash != id.Hash {
				return message.Message{}, fmt.Errorf("block %d hashes to %s, requested %s", height, hash, id.Hash)
			}

			return message.NewBlockMessage(block), nil
		}
		if !errors.Is(err, chain.ErrNotFound) {
			return message.Message{}, err
		}
	}

	if id.Kind == message.KindTransaction {
		if tx, exists := c.pool.Get(id.Hash); exists {
			return message.NewTrxMessage(tx), nil
		}
	}

	return message.Message{}, fmt.Errorf("item %s %s: %w", id.Kind, id.Hash, chain.ErrNotFound)
}

// HandleMessage dispatches an inbound item by its kind: blocks go through
// the block apply path, transactions through the transaction apply path.
// Unknown kinds are ignored.
func (c *Client) HandleMessage(msg message.Message) error {
	switch msg.Kind {
	case message.KindBlock:
		if msg.Block == nil {
			return errors.New("block message without block payload")
		}
		c.evHandler("client: HandleMessage: received block %s", msg.Block.BlockID)
		return c.ApplyBlock(msg.Block.Block)

	case message.KindTransaction:
		if msg.Trx == nil {
			return errors.New("transaction message without transaction payload")
		}
		return c.ApplyTransaction(*msg.Trx)
	}

	c.evHandler("client: HandleMessage: ignoring message kind %s", msg.Kind)

	return nil
}

// SyncStatus is an informational hook the transport calls as chain
// synchronization progresses.
func (c *Client) SyncStatus(kind message.ItemKind, count int) {
	c.evHandler("client: SyncStatus: kind[%s] count[%d]", kind, count)
}

// ConnectionCountChanged is an informational hook the transport calls when
// the number of active connections changes.
func (c *Client) ConnectionCountChanged(count int) {
	c.evHandler("client: ConnectionCountChanged: connections[%d]", count)
}
