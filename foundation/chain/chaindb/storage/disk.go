// Package storage implements the block serializers used by the chain
// database: one file per block on disk, and an in memory store for tests.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strconv"

	"github.com/nikakhov/bitshares-toolkit/foundation/chain"
	"github.com/nikakhov/bitshares-toolkit/foundation/chain/chaindb"
)

// Disk reads and stores blocks in their own separate files on disk. This
// implements the chaindb.Serializer interface.
type Disk struct {
	dbPath string
}

// NewDisk constructs a disk serializer rooted at the specified path.
func NewDisk(dbPath string) (*Disk, error) {
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, err
	}

	return &Disk{dbPath: dbPath}, nil
}

// Close in this implementation has nothing to do since a new file is
// written for each block and then immediately closed.
func (d *Disk) Close() error {
	return nil
}

// Write stores the block on disk in a file labeled with the block height.
func (d *Disk) Write(block chain.Block) error {

	// Marshal the block for writing to disk in a more human readable format.
	data, err := json.MarshalIndent(block, "", "  ")
	if err != nil {
		return err
	}

	f, err := os.OpenFile(d.getPath(block.Header.Number), os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return err
	}

	return nil
}

// GetBlock locates and returns the block stored at the specified height.
func (d *Disk) GetBlock(height uint64) (chain.Block, error) {
	f, err := os.OpenFile(d.getPath(height), os.O_RDONLY, 0600)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return chain.Block{}, fmt.Errorf("block %d: %w", height, chain.ErrNotFound)
		}
		return chain.Block{}, err
	}
	defer f.Close()

	var block chain.Block
	if err := json.NewDecoder(f).Decode(&block); err != nil {
		return chain.Block{}, err
	}

	return block, nil
}

// ForEach returns an iterator to walk through all the blocks starting with
// block height 1.
func (d *Disk) ForEach() chaindb.Iterator {
	return &DiskIterator{disk: d}
}

// Reset clears out the blocks on disk.
func (d *Disk) Reset() error {
	if err := os.RemoveAll(d.dbPath); err != nil {
		return err
	}

	return os.MkdirAll(d.dbPath, 0755)
}

// getPath forms the path to the file for the specified block.
func (d *Disk) getPath(height uint64) string {
	name := strconv.FormatUint(height, 10)
	return path.Join(d.dbPath, fmt.Sprintf("%s.json", name))
}

// =============================================================================

// DiskIterator walks the blocks on disk in height order. This implements
// the chaindb.Iterator interface.
type DiskIterator struct {
	disk    *Disk
	current uint64
	eoc     bool
}

// Next retrieves the next block from disk.
func (di *DiskIterator) Next() (chain.Block, error) {
	if di.eoc {
		return chain.Block{}, errors.New("end of chain")
	}

	di.current++
	block, err := di.disk.GetBlock(di.current)
	if errors.Is(err, chain.ErrNotFound) {
		di.eoc = true
	}

	return block, err
}

// Done returns the end of chain value.
func (di *DiskIterator) Done() bool {
	return di.eoc
}
