// Package pool maintains the set of transactions known to this node but
// not yet included in any accepted block.
package pool

import (
	"sort"
	"sync"

	"github.com/nikakhov/bitshares-toolkit/foundation/chain"
)

// Pool represents a cache of unconfirmed transactions keyed by their
// canonical content id. The pool performs no validation; the chain bridge
// validates before inserting.
type Pool struct {
	mu   sync.RWMutex
	pool map[string]chain.SignedTx
}

// New constructs a new transaction pool.
func New() *Pool {
	return &Pool{
		pool: make(map[string]chain.SignedTx),
	}
}

// Count returns the current number of transactions in the pool.
func (p *Pool) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return len(p.pool)
}

// Insert adds the transaction to the pool. It returns true if the
// transaction was newly added and false when the id is already present.
// An existing entry is never overwritten.
func (p *Pool) Insert(tx chain.SignedTx) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := tx.ID()
	if _, exists := p.pool[id]; exists {
		return false
	}

	p.pool[id] = tx

	return true
}

// Get returns the pooled transaction for the specified id if present.
func (p *Pool) Get(id string) (chain.SignedTx, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	tx, exists := p.pool[id]
	return tx, exists
}

// RemoveAll removes each specified id from the pool. Ids not present
// are ignored.
func (p *Pool) RemoveAll(ids []string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, id := range ids {
		delete(p.pool, id)
	}
}

// Snapshot returns a consistent point-in-time copy of the pooled
// transactions ordered by id. A snapshot never observes a partial insert
// or remove.
func (p *Pool) Snapshot() []chain.SignedTx {
	p.mu.RLock()
	defer p.mu.RUnlock()

	ids := make([]string, 0, len(p.pool))
	for id := range p.pool {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	trans := make([]chain.SignedTx, len(ids))
	for i, id := range ids {
		trans[i] = p.pool[id]
	}

	return trans
}
