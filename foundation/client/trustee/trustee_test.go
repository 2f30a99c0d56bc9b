package trustee_test

import (
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/nikakhov/bitshares-toolkit/foundation/chain"
	"github.com/nikakhov/bitshares-toolkit/foundation/chain/chaindb"
	"github.com/nikakhov/bitshares-toolkit/foundation/chain/chaindb/storage"
	"github.com/nikakhov/bitshares-toolkit/foundation/chain/genesis"
	"github.com/nikakhov/bitshares-toolkit/foundation/chain/message"
	"github.com/nikakhov/bitshares-toolkit/foundation/client"
	"github.com/nikakhov/bitshares-toolkit/foundation/client/trustee"
	"github.com/nikakhov/bitshares-toolkit/foundation/wallet"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

const (
	trusteeECDSA = "8dc79feefd3b86e2f9991def0e5ccd9a5128e104682407b308594bc1032ac7f0"
	aliceECDSA   = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	bobAddress   = "0xbEE6ACE826eC3DE1B6349888B9151B92522F7F76"
)

// quietOverlay satisfies the peer-to-peer transport contract with no
// network behind it.
type quietOverlay struct{}

func (quietOverlay) SetDelegate(d message.Delegate)      {}
func (quietOverlay) Broadcast(msg message.Message) error { return nil }
func (quietOverlay) ConnectTo(address string) error      { return nil }
func (quietOverlay) ListenOn(port uint16) error          { return nil }
func (quietOverlay) IsConnected() bool                   { return true }
func (quietOverlay) SyncFrom(id message.ItemID) error    { return nil }

func Test_ProductionLoop(t *testing.T) {
	t.Log("Given the need to produce blocks on an interval.")
	{
		t.Logf("\tTest 0:\tWhen transactions are pending and the interval elapses.")
		{
			trusteeKey, err := crypto.HexToECDSA(trusteeECDSA)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to parse the trustee key: %v", failed, err)
			}
			aliceKey, err := crypto.HexToECDSA(aliceECDSA)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to parse the alice key: %v", failed, err)
			}

			gen := genesis.Genesis{
				// A date in the past keeps the first interval from
				// blocking the test.
				Date:           time.Now().Add(-time.Hour),
				ChainID:        1,
				TransPerBlock:  10,
				TrusteeAccount: string(chain.PublicKeyToAccountID(trusteeKey.PublicKey)),
				Balances: map[string]uint64{
					string(chain.PublicKeyToAccountID(aliceKey.PublicKey)): 1000,
				},
			}

			db, err := chaindb.New(gen, storage.NewMemory(), nil)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to open the chain database: %v", failed, err)
			}

			cl := client.NewPeerToPeer(quietOverlay{}, nil)
			cl.SetChain(db)
			if err := cl.SetWallet(wallet.New(trusteeKey, db)); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to attach the wallet: %v", failed, err)
			}

			toID, _ := chain.ToAccountID(bobAddress)
			for nonce := uint(1); nonce <= 2; nonce++ {
				tx, err := chain.NewTx(nonce, toID, 100, 0, nil)
				if err != nil {
					t.Fatalf("\t%s\tTest 0:\tShould be able to construct a transaction: %v", failed, err)
				}
				signedTx, err := tx.Sign(aliceKey)
				if err != nil {
					t.Fatalf("\t%s\tTest 0:\tShould be able to sign a transaction: %v", failed, err)
				}
				if err := cl.BroadcastTransaction(signedTx); err != nil {
					t.Fatalf("\t%s\tTest 0:\tShould be able to pool a transaction: %v", failed, err)
				}
			}

			tr, err := trustee.Run(cl, trusteeKey, trustee.Config{
				Interval: 10 * time.Millisecond,
				Poll:     2 * time.Millisecond,
			})
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to start the production loop: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to start the production loop.", success)

			if _, err := trustee.Run(cl, trusteeKey, trustee.Config{}); !errors.Is(err, client.ErrTrusteeActive) {
				t.Fatalf("\t%s\tTest 0:\tShould refuse a second production loop, got %v.", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould refuse a second production loop.", success)

			deadline := time.Now().Add(2 * time.Second)
			for cl.ChainHead().Height == 0 && time.Now().Before(deadline) {
				time.Sleep(5 * time.Millisecond)
			}

			if head := cl.ChainHead(); head.Height != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould have produced one block, head at %d.", failed, head.Height)
			}
			t.Logf("\t%s\tTest 0:\tShould have produced one block with the pending transactions.", success)

			if len(cl.PendingTransactions()) != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould have drained the pool into the block.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould have drained the pool into the block.", success)

			block, err := db.BlockByHeight(1)
			if err != nil || len(block.Trans) != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould have included both transactions in one block.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould have included both transactions in one block.", success)

			// With the pool empty the loop must idle, not produce.
			time.Sleep(30 * time.Millisecond)
			if head := cl.ChainHead(); head.Height != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould not produce empty blocks, head at %d.", failed, head.Height)
			}
			t.Logf("\t%s\tTest 0:\tShould not produce empty blocks while the pool is empty.", success)

			done := make(chan struct{})
			go func() {
				tr.Shutdown()
				close(done)
			}()

			select {
			case <-done:
				t.Logf("\t%s\tTest 0:\tShould shut the production loop down cleanly.", success)
			case <-time.After(time.Second):
				t.Fatalf("\t%s\tTest 0:\tShould shut the production loop down within a poll interval.", failed)
			}
		}
	}
}
