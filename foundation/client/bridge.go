package client

import (
	"fmt"

	"github.com/nikakhov/bitshares-toolkit/foundation/chain"
)

// This file implements the chain bridge: the path that applies externally
// or self produced blocks and transactions to the chain database and wallet
// and reconciles them with the transaction pool.

// ApplyBlock submits the block to the chain database. On acceptance every
// transaction contained in the block is removed from the pool and the
// wallet is scanned up to the new block's height. A rejection from the
// chain database is propagated to the caller unchanged and leaves the
// pool untouched.
func (c *Client) ApplyBlock(block chain.Block) error {
	db, err := c.chainDatabase()
	if err != nil {
		return err
	}

	if err := db.ApplyBlock(block); err != nil {
		c.evHandler("client: ApplyBlock: block %s rejected: %s", block.Hash(), err)
		return err
	}

	ids := make([]string, len(block.Trans))
	for i, tx := range block.Trans {
		ids[i] = tx.ID()
	}
	c.pool.RemoveAll(ids)

	c.evHandler("client: ApplyBlock: block %d %s: removed %d trans from pool", block.Header.Number, block.Hash(), len(ids))

	// Keep the wallet's view of balances and history current. A wallet is
	// optional; nodes that only relay do not attach one.
	w, err := c.walletHandle()
	if err != nil {
		return nil
	}

	if err := w.ScanChain(block.Header.Number); err != nil {
		return fmt.Errorf("wallet scan to height %d: %w", block.Header.Number, err)
	}

	return nil
}

// ApplyTransaction evaluates the transaction against current chain state
// and pools it on success. A failed evaluation propagates as an invalid
// transaction failure and the transaction is never pooled. A transaction
// already pooled is a duplicate, not an error.
func (c *Client) ApplyTransaction(tx chain.SignedTx) error {
	db, err := c.chainDatabase()
	if err != nil {
		return err
	}

	if err := db.EvaluateTx(tx); err != nil {
		return fmt.Errorf("invalid transaction %s: %w", tx, err)
	}

	if !c.pool.Insert(tx) {
		c.evHandler("client: ApplyTransaction: duplicate transaction %s, ignoring", tx)
		return nil
	}

	c.evHandler("client: ApplyTransaction: new transaction %s", tx)

	return nil
}
