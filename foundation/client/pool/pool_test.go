package pool_test

import (
	"sort"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/nikakhov/bitshares-toolkit/foundation/chain"
	"github.com/nikakhov/bitshares-toolkit/foundation/client/pool"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func sign(nonce uint, to string, value uint64) (chain.SignedTx, error) {
	pk, err := crypto.HexToECDSA("fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959")
	if err != nil {
		return chain.SignedTx{}, err
	}

	toID, err := chain.ToAccountID(to)
	if err != nil {
		return chain.SignedTx{}, err
	}

	tx, err := chain.NewTx(nonce, toID, value, 0, nil)
	if err != nil {
		return chain.SignedTx{}, err
	}

	return tx.Sign(pk)
}

func TestCRUD(t *testing.T) {
	t.Log("Given the need to validate the pool api.")
	{
		t.Logf("\tTest 0:\tWhen handling a set of transactions.")
		{
			p := pool.New()

			txs := make([]chain.SignedTx, 3)
			for i := range txs {
				tx, err := sign(uint(i+1), "0xbEE6ACE826eC3DE1B6349888B9151B92522F7F76", uint64(i+1)*10)
				if err != nil {
					t.Fatalf("\t%s\tTest 0:\tShould be able to sign transaction: %v", failed, err)
				}
				txs[i] = tx

				if !p.Insert(tx) {
					t.Fatalf("\t%s\tTest 0:\tShould be able to insert new transaction: %s", failed, tx.ID())
				}
				t.Logf("\t%s\tTest 0:\tShould be able to insert new transaction: %s", success, tx.ID())
			}

			if p.Count() != len(txs) {
				t.Fatalf("\t%s\tTest 0:\tShould have %d transactions pooled, got %d.", failed, len(txs), p.Count())
			}
			t.Logf("\t%s\tTest 0:\tShould have %d transactions pooled.", success, len(txs))

			if p.Insert(txs[0]) {
				t.Fatalf("\t%s\tTest 0:\tShould not insert a duplicate transaction.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould not insert a duplicate transaction.", success)

			if p.Count() != len(txs) {
				t.Fatalf("\t%s\tTest 0:\tShould keep the count unchanged on a duplicate, got %d.", failed, p.Count())
			}
			t.Logf("\t%s\tTest 0:\tShould keep the count unchanged on a duplicate.", success)

			if _, exists := p.Get(txs[1].ID()); !exists {
				t.Fatalf("\t%s\tTest 0:\tShould be able to get a pooled transaction by id.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to get a pooled transaction by id.", success)

			snap := p.Snapshot()
			if len(snap) != len(txs) {
				t.Fatalf("\t%s\tTest 0:\tShould snapshot all %d transactions, got %d.", failed, len(txs), len(snap))
			}
			if !sort.SliceIsSorted(snap, func(i, j int) bool { return snap[i].ID() < snap[j].ID() }) {
				t.Fatalf("\t%s\tTest 0:\tShould snapshot transactions in id order.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould snapshot transactions in id order.", success)

			p.RemoveAll([]string{txs[0].ID(), txs[2].ID(), "not-a-pooled-id"})
			if p.Count() != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould have 1 transaction after removal, got %d.", failed, p.Count())
			}
			t.Logf("\t%s\tTest 0:\tShould have 1 transaction after removal.", success)

			if _, exists := p.Get(txs[0].ID()); exists {
				t.Fatalf("\t%s\tTest 0:\tShould not get a removed transaction.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould not get a removed transaction.", success)
		}
	}
}
