package client

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/nikakhov/bitshares-toolkit/foundation/chain"
	"github.com/nikakhov/bitshares-toolkit/foundation/chain/message"
)

// ProduceBlock assembles a candidate block from the specified pool
// snapshot, signs it with the trustee key, broadcasts it over the active
// transport, and in peer-to-peer mode applies it locally since the overlay
// does not echo broadcasts back to the sender. In relay mode the relay
// echoes the accepted block back through the normal inbound path.
//
// Each snapshotted transaction is re-evaluated against current chain state
// first: a transaction that was valid when pooled can be invalidated by
// blocks applied since. Stale transactions are dropped from the pool rather
// than assembled into a block the chain database would reject.
func (c *Client) ProduceBlock(trans []chain.SignedTx, trusteeKey *ecdsa.PrivateKey) (chain.Block, error) {
	db, err := c.chainDatabase()
	if err != nil {
		return chain.Block{}, err
	}

	w, err := c.walletHandle()
	if err != nil {
		return chain.Block{}, err
	}

	valid := make([]chain.SignedTx, 0, len(trans))
	var stale []string
	for _, tx := range trans {
		if err := db.EvaluateTx(tx); err != nil {
			c.evHandler("client: ProduceBlock: dropping stale transaction %s: %s", tx, err)
			stale = append(stale, tx.ID())
			continue
		}
		valid = append(valid, tx)
	}
	if len(stale) > 0 {
		c.pool.RemoveAll(stale)
	}

	if len(valid) == 0 {
		return chain.Block{}, ErrNoTransactions
	}

	// The genesis caps how many transactions fit in one block. The rest
	// stay pooled for the next interval.
	if max := int(db.Genesis().TransPerBlock); max > 0 && len(valid) > max {
		valid = valid[:max]
	}

	block, err := w.AssembleBlock(valid)
	if err != nil {
		return chain.Block{}, fmt.Errorf("assemble block: %w", err)
	}

	if err := block.Sign(trusteeKey); err != nil {
		return chain.Block{}, fmt.Errorf("sign block: %w", err)
	}

	if err := c.broadcast(message.NewBlockMessage(block)); err != nil {
		return chain.Block{}, fmt.Errorf("broadcast block: %w", err)
	}

	if c.role == RolePeerToPeer {
		if err := c.ApplyBlock(block); err != nil {
			return chain.Block{}, fmt.Errorf("apply own block: %w", err)
		}
	}

	c.evHandler("client: ProduceBlock: produced block %d %s: trans[%d]", block.Header.Number, block.Hash(), len(valid))

	return block, nil
}
