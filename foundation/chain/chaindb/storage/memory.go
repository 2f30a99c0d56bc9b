package storage

import (
	"fmt"
	"sync"

	"github.com/nikakhov/bitshares-toolkit/foundation/chain"
	"github.com/nikakhov/bitshares-toolkit/foundation/chain/chaindb"
)

// Memory keeps blocks in memory only. This implements the
// chaindb.Serializer interface and exists for tests and ephemeral nodes.
type Memory struct {
	mu     sync.RWMutex
	blocks []chain.Block
}

// NewMemory constructs an in memory serializer.
func NewMemory() *Memory {
	return &Memory{}
}

// Close in this implementation has nothing to do.
func (m *Memory) Close() error {
	return nil
}

// Write appends the block to the in memory chain.
func (m *Memory) Write(block chain.Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blocks = append(m.blocks, block)

	return nil
}

// GetBlock returns the block stored at the specified height.
func (m *Memory) GetBlock(height uint64) (chain.Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if height == 0 || height > uint64(len(m.blocks)) {
		return chain.Block{}, fmt.Errorf("block %d: %w", height, chain.ErrNotFound)
	}

	return m.blocks[height-1], nil
}

// ForEach returns an iterator to walk through all the blocks starting with
// block height 1.
func (m *Memory) ForEach() chaindb.Iterator {
	return &memoryIterator{memory: m}
}

// Reset clears the in memory chain.
func (m *Memory) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blocks = nil

	return nil
}

// =============================================================================

// memoryIterator walks the in memory blocks in height order.
type memoryIterator struct {
	memory  *Memory
	current uint64
	eoc     bool
}

// Next retrieves the next block from memory.
func (mi *memoryIterator) Next() (chain.Block, error) {
	if mi.eoc {
		return chain.Block{}, fmt.Errorf("end of chain: %w", chain.ErrNotFound)
	}

	mi.current++
	block, err := mi.memory.GetBlock(mi.current)
	if err != nil {
		mi.eoc = true
	}

	return block, err
}

// Done returns the end of chain value.
func (mi *memoryIterator) Done() bool {
	return mi.eoc
}
