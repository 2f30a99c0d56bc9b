// Package chaindb maintains the chain of blocks on disk and the in memory
// account state derived from them. The client consumes this database through
// a narrow interface; any store honoring the same contract can stand in.
package chaindb

import (
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/nikakhov/bitshares-toolkit/foundation/chain"
	"github.com/nikakhov/bitshares-toolkit/foundation/chain/genesis"
)

// EventHandler defines a function that is called when events occur in the
// processing of blocks and transactions.
type EventHandler func(v string, args ...any)

// Serializer interface represents the behavior required to be implemented by
// any package providing support for storing and reading blocks.
type Serializer interface {
	Write(block chain.Block) error
	GetBlock(height uint64) (chain.Block, error)
	ForEach() Iterator
	Close() error
	Reset() error
}

// Iterator interface represents the behavior required to be implemented by
// any package providing support to iterate over the stored blocks.
type Iterator interface {
	Next() (chain.Block, error)
	Done() bool
}

// =============================================================================

// Account holds the chain-visible state for a single account.
type Account struct {
	Balance uint64
}

// DB manages the chain of blocks and the account state they produce.
type DB struct {
	mu sync.RWMutex

	genesis     genesis.Genesis
	trustee     chain.AccountID
	latestBlock chain.Block
	heights     map[string]uint64
	accounts    map[chain.AccountID]Account

	serializer Serializer
	evHandler  EventHandler
}

// New constructs a new chain database, applies the genesis balances, and
// replays any blocks found in storage validating each one.
func New(gen genesis.Genesis, serializer Serializer, evHandler EventHandler) (*DB, error) {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	trustee, err := chain.ToAccountID(gen.TrusteeAccount)
	if err != nil {
		return nil, fmt.Errorf("genesis trustee: %w", err)
	}

	db := DB{
		genesis:    gen,
		trustee:    trustee,
		heights:    make(map[string]uint64),
		accounts:   make(map[chain.AccountID]Account),
		serializer: serializer,
		evHandler:  ev,
	}

	// Seed the account state from the genesis balances.
	for accountStr, balance := range gen.Balances {
		accountID, err := chain.ToAccountID(accountStr)
		if err != nil {
			return nil, err
		}
		db.accounts[accountID] = Account{Balance: balance}
	}

	// Replay the blocks found in storage. Each block is validated against
	// the chain as it is rebuilt so a corrupt store is caught at startup.
	iter := db.serializer.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) || errors.Is(err, chain.ErrNotFound) {
				break
			}
			return nil, err
		}

		if err := db.validateBlock(block); err != nil {
			return nil, fmt.Errorf("replay block %d: %w", block.Header.Number, err)
		}

		db.applyState(block)
		ev("chaindb: New: replayed block %d %s", block.Header.Number, block.Hash())
	}

	return &db, nil
}

// Close releases the underlying storage.
func (db *DB) Close() error {
	return db.serializer.Close()
}

// Genesis returns a copy of the genesis information.
func (db *DB) Genesis() genesis.Genesis {
	return db.genesis
}

// =============================================================================

// Head returns the current tip of the chain. An empty chain reports height
// zero, the zero hash, and the genesis date.
func (db *DB) Head() chain.Head {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.head()
}

// BlockByHeight fetches the block stored at the specified height. Unknown
// heights report chain.ErrNotFound.
func (db *DB) BlockByHeight(height uint64) (chain.Block, error) {
	block, err := db.serializer.GetBlock(height)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, chain.ErrNotFound) {
			return chain.Block{}, fmt.Errorf("block %d: %w", height, chain.ErrNotFound)
		}
		return chain.Block{}, err
	}

	return block, nil
}

// HeightByID looks up the height for a block id. Unknown ids report
// chain.ErrNotFound.
func (db *DB) HeightByID(id string) (uint64, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	height, exists := db.heights[id]
	if !exists {
		return 0, fmt.Errorf("block id %s: %w", id, chain.ErrNotFound)
	}

	return height, nil
}

// Balance returns the current balance for the specified account.
func (db *DB) Balance(accountID chain.AccountID) uint64 {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.accounts[accountID].Balance
}

// Balances returns a copy of the full account state.
func (db *DB) Balances() map[chain.AccountID]uint64 {
	db.mu.RLock()
	defer db.mu.RUnlock()

	balances := make(map[chain.AccountID]uint64, len(db.accounts))
	for accountID, account := range db.accounts {
		balances[accountID] = account.Balance
	}

	return balances
}

// =============================================================================

// ApplyBlock validates the specified block against the current chain state
// and, if it passes, writes it to storage and updates the account state. A
// rejected block leaves the database untouched.
func (db *DB) ApplyBlock(block chain.Block) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.validateBlock(block); err != nil {
		return err
	}

	// Write the new block to storage before mutating state, so a failed
	// write never leaves state ahead of the store.
	if err := db.serializer.Write(block); err != nil {
		return err
	}

	db.applyState(block)
	db.evHandler("chaindb: ApplyBlock: block %d %s: trans[%d]", block.Header.Number, block.Hash(), len(block.Trans))

	return nil
}

// EvaluateTx evaluates the transaction against the current chain state. A
// transaction that fails evaluation must not be pooled.
func (db *DB) EvaluateTx(tx chain.SignedTx) error {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.evaluateTx(tx, db.accounts)
}

// =============================================================================

// head builds the current tip value. The caller must hold at least a
// read lock.
func (db *DB) head() chain.Head {
	if db.latestBlock.Header.Number == 0 {
		return chain.Head{
			Height:    0,
			BlockID:   chain.ZeroHash,
			TimeStamp: db.genesis.Date,
		}
	}

	return chain.Head{
		Height:    db.latestBlock.Header.Number,
		BlockID:   db.latestBlock.Hash(),
		TimeStamp: timeFromUnix(db.latestBlock.Header.TimeStamp),
	}
}

// validateBlock checks the block fits the current tip of the chain and that
// every transaction inside it evaluates. The caller must hold the lock.
func (db *DB) validateBlock(block chain.Block) error {
	next := db.latestBlock.Header.Number + 1
	if block.Header.Number != next {
		return fmt.Errorf("block number %d, expected %d", block.Header.Number, next)
	}

	prevHash := db.latestBlock.Hash()
	if block.Header.PrevBlockHash != prevHash {
		return fmt.Errorf("block prev hash %s, expected %s", block.Header.PrevBlockHash, prevHash)
	}

	if block.Header.TrusteeID != db.trustee {
		return fmt.Errorf("block trustee %s, expected %s", block.Header.TrusteeID, db.trustee)
	}

	if err := block.ValidateTrusteeSignature(); err != nil {
		return err
	}

	if root := chain.TransRoot(block.Trans); block.Header.TransRoot != root {
		return fmt.Errorf("block trans root %s, expected %s", block.Header.TransRoot, root)
	}

	// Evaluate the transactions in order against a scratch copy of the
	// account state so a bad transaction anywhere rejects the whole block.
	scratch := make(map[chain.AccountID]Account, len(db.accounts))
	for accountID, account := range db.accounts {
		scratch[accountID] = account
	}

	for _, tx := range block.Trans {
		if err := db.evaluateTx(tx, scratch); err != nil {
			return fmt.Errorf("trans %s: %w", tx, err)
		}
		applyTx(tx, scratch, db.trustee)
	}

	return nil
}

// evaluateTx checks the transaction signature and that the sending account
// can cover the value plus tip against the provided account state.
func (db *DB) evaluateTx(tx chain.SignedTx, accounts map[chain.AccountID]Account) error {
	if err := tx.Validate(); err != nil {
		return err
	}

	from, err := tx.FromAccount()
	if err != nil {
		return err
	}

	if balance := accounts[from].Balance; balance < tx.Value+tx.Tip {
		return fmt.Errorf("account %s balance %d below %d", from, balance, tx.Value+tx.Tip)
	}

	return nil
}

// applyState commits the block to the in memory state. The caller must hold
// the lock and have validated the block first.
func (db *DB) applyState(block chain.Block) {
	for _, tx := range block.Trans {
		applyTx(tx, db.accounts, db.trustee)
	}

	db.latestBlock = block
	db.heights[block.Hash()] = block.Header.Number
}

// timeFromUnix converts a block header timestamp into a time value.
func timeFromUnix(ts uint64) time.Time {
	return time.Unix(int64(ts), 0).UTC()
}

// applyTx moves the value and tip for a single validated transaction.
func applyTx(tx chain.SignedTx, accounts map[chain.AccountID]Account, trustee chain.AccountID) {
	from, err := tx.FromAccount()
	if err != nil {
		return
	}

	fromAccount := accounts[from]
	fromAccount.Balance -= tx.Value + tx.Tip
	accounts[from] = fromAccount

	toAccount := accounts[tx.ToID]
	toAccount.Balance += tx.Value
	accounts[tx.ToID] = toAccount

	trusteeAccount := accounts[trustee]
	trusteeAccount.Balance += tx.Tip
	accounts[trustee] = trusteeAccount
}
