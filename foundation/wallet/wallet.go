// Package wallet maintains key custody for an account, assembles candidate
// blocks for the trustee, and tracks wallet-visible balances by scanning
// the chain.
package wallet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/nikakhov/bitshares-toolkit/foundation/chain"
)

// ChainReader represents the read access the wallet needs to the chain
// database for scanning and block assembly.
type ChainReader interface {
	Head() chain.Head
	BlockByHeight(height uint64) (chain.Block, error)
}

// ErrNoTransactions is returned when a block is requested to be assembled
// and there are no transactions to include.
var ErrNoTransactions = errors.New("no transactions to assemble")

// =============================================================================

// Wallet manages the private key for one account and the account's view of
// the chain.
type Wallet struct {
	mu sync.Mutex

	privateKey *ecdsa.PrivateKey
	accountID  chain.AccountID
	chainDB    ChainReader

	lastScanned uint64
	balance     uint64
	history     []chain.SignedTx
}

// New constructs a wallet around the specified private key.
func New(privateKey *ecdsa.PrivateKey, chainDB ChainReader) *Wallet {
	return &Wallet{
		privateKey: privateKey,
		accountID:  chain.PublicKeyToAccountID(privateKey.PublicKey),
		chainDB:    chainDB,
	}
}

// Open loads the private key from the specified file and constructs a
// wallet around it. A nil chain reader gives a signing-only wallet that
// cannot scan.
func Open(path string, chainDB ChainReader) (*Wallet, error) {
	privateKey, err := crypto.LoadECDSA(path)
	if err != nil {
		return nil, fmt.Errorf("load private key: %w", err)
	}

	return New(privateKey, chainDB), nil
}

// AccountID returns the account this wallet controls.
func (w *Wallet) AccountID() chain.AccountID {
	return w.accountID
}

// SignTx signs a transaction with the wallet's private key.
func (w *Wallet) SignTx(tx chain.Tx) (chain.SignedTx, error) {
	return tx.Sign(w.privateKey)
}

// =============================================================================

// AssembleBlock builds an unsigned candidate block on the current chain
// head from the specified transactions. Signing is the trustee's concern;
// the wallet only assembles.
func (w *Wallet) AssembleBlock(trans []chain.SignedTx) (chain.Block, error) {
	if len(trans) == 0 {
		return chain.Block{}, ErrNoTransactions
	}

	head := w.chainDB.Head()

	block := chain.Block{
		Header: chain.BlockHeader{
			Number:        head.Height + 1,
			PrevBlockHash: head.BlockID,
			TimeStamp:     uint64(time.Now().UTC().Unix()),
			TrusteeID:     w.accountID,
			TransRoot:     chain.TransRoot(trans),
		},
		Trans: trans,
	}

	return block, nil
}

// ScanChain walks the chain from the last scanned height through toHeight
// and updates the wallet's balance and transaction history.
func (w *Wallet) ScanChain(toHeight uint64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for height := w.lastScanned + 1; height <= toHeight; height++ {
		block, err := w.chainDB.BlockByHeight(height)
		if err != nil {
			return fmt.Errorf("scan height %d: %w", height, err)
		}

		for _, tx := range block.Trans {
			from, err := tx.FromAccount()
			if err != nil {
				continue
			}

			switch {
			case tx.ToID == w.accountID:
				w.balance += tx.Value
				w.history = append(w.history, tx)
			case from == w.accountID:
				w.balance -= tx.Value + tx.Tip
				w.history = append(w.history, tx)
			}
		}

		w.lastScanned = height
	}

	return nil
}

// Balance returns the wallet-visible balance as of the last scan.
func (w *Wallet) Balance() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.balance
}

// LastScanned returns the highest block height the wallet has scanned.
func (w *Wallet) LastScanned() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.lastScanned
}

// History returns a copy of the transactions that touched this account.
func (w *Wallet) History() []chain.SignedTx {
	w.mu.Lock()
	defer w.mu.Unlock()

	history := make([]chain.SignedTx, len(w.history))
	copy(history, w.history)

	return history
}
