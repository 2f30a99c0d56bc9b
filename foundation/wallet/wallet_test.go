package wallet_test

import (
	"crypto/ecdsa"
	"errors"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/nikakhov/bitshares-toolkit/foundation/chain"
	"github.com/nikakhov/bitshares-toolkit/foundation/chain/chaindb"
	"github.com/nikakhov/bitshares-toolkit/foundation/chain/chaindb/storage"
	"github.com/nikakhov/bitshares-toolkit/foundation/chain/genesis"
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
	bobECDSA     = "9f332e3700d8fc78c263e041ba0e2ccba8bc552a7f3d4d33173a2bd2365e730e"
)

func keys(t *testing.T) (trusteeKey, aliceKey, bobKey *ecdsa.PrivateKey) {
	t.Helper()

	var err error
	if trusteeKey, err = crypto.HexToECDSA(trusteeECDSA); err != nil {
		t.Fatalf("\t%s\tShould be able to parse the trustee key: %v", failed, err)
	}
	if aliceKey, err = crypto.HexToECDSA(aliceECDSA); err != nil {
		t.Fatalf("\t%s\tShould be able to parse the alice key: %v", failed, err)
	}
	if bobKey, err = crypto.HexToECDSA(bobECDSA); err != nil {
		t.Fatalf("\t%s\tShould be able to parse the bob key: %v", failed, err)
	}

	return trusteeKey, aliceKey, bobKey
}

func Test_OpenWallet(t *testing.T) {
	t.Log("Given the need to open a wallet from a key file.")
	{
		t.Logf("\tTest 0:\tWhen the key file exists on disk.")
		{
			aliceKey, err := crypto.HexToECDSA(aliceECDSA)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to parse the alice key: %v", failed, err)
			}

			path := filepath.Join(t.TempDir(), "alice.ecdsa")
			if err := crypto.SaveECDSA(path, aliceKey); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to save the key file: %v", failed, err)
			}

			w, err := wallet.Open(path, nil)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to open the wallet: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to open the wallet.", success)

			if w.AccountID() != chain.PublicKeyToAccountID(aliceKey.PublicKey) {
				t.Fatalf("\t%s\tTest 0:\tShould derive the account from the stored key.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould derive the account from the stored key.", success)

			tx, err := chain.NewTx(1, "0xbEE6ACE826eC3DE1B6349888B9151B92522F7F76", 10, 0, nil)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to construct a transaction: %v", failed, err)
			}
			signedTx, err := w.SignTx(tx)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to sign through the wallet: %v", failed, err)
			}
			from, err := signedTx.FromAccount()
			if err != nil || from != w.AccountID() {
				t.Fatalf("\t%s\tTest 0:\tShould recover the wallet account from the signature: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould sign transactions without a chain reader.", success)
		}

		t.Logf("\tTest 1:\tWhen the key file is missing.")
		{
			if _, err := wallet.Open(filepath.Join(t.TempDir(), "nobody.ecdsa"), nil); err == nil {
				t.Fatalf("\t%s\tTest 1:\tShould fail to open a missing key file.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould fail to open a missing key file.", success)
		}
	}
}

func Test_AssembleBlock(t *testing.T) {
	t.Log("Given the need to assemble candidate blocks.")
	{
		t.Logf("\tTest 0:\tWhen assembling on the current chain head.")
		{
			trusteeKey, aliceKey, bobKey := keys(t)

			gen := genesis.Genesis{
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

			w := wallet.New(trusteeKey, db)

			tx, err := chain.NewTx(1, chain.PublicKeyToAccountID(bobKey.PublicKey), 100, 0, nil)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to construct a transaction: %v", failed, err)
			}
			signedTx, err := tx.Sign(aliceKey)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to sign a transaction: %v", failed, err)
			}

			block, err := w.AssembleBlock([]chain.SignedTx{signedTx})
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to assemble a block: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to assemble a block.", success)

			if block.Header.Number != 1 || block.Header.PrevBlockHash != chain.ZeroHash {
				t.Fatalf("\t%s\tTest 0:\tShould build on the empty chain head.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould build on the empty chain head.", success)

			if block.Header.TrusteeID != w.AccountID() {
				t.Fatalf("\t%s\tTest 0:\tShould declare the wallet account as trustee.", failed)
			}
			if block.Header.TransRoot != chain.TransRoot(block.Trans) {
				t.Fatalf("\t%s\tTest 0:\tShould commit to the transactions through the trans root.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould declare the trustee and commit to the transactions.", success)

			if block.TrusteeSignature != "" {
				t.Fatalf("\t%s\tTest 0:\tShould leave signing to the trustee.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould leave signing to the trustee.", success)

			if _, err := w.AssembleBlock(nil); !errors.Is(err, wallet.ErrNoTransactions) {
				t.Fatalf("\t%s\tTest 0:\tShould refuse to assemble an empty block, got %v.", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould refuse to assemble an empty block.", success)
		}
	}
}

func Test_ScanChain(t *testing.T) {
	t.Log("Given the need to track balances by scanning the chain.")
	{
		t.Logf("\tTest 0:\tWhen transactions touch the wallet account.")
		{
			trusteeKey, aliceKey, bobKey := keys(t)

			alice := chain.PublicKeyToAccountID(aliceKey.PublicKey)
			bob := chain.PublicKeyToAccountID(bobKey.PublicKey)

			gen := genesis.Genesis{
				ChainID:        1,
				TransPerBlock:  10,
				TrusteeAccount: string(chain.PublicKeyToAccountID(trusteeKey.PublicKey)),
				Balances:       map[string]uint64{string(alice): 1000},
			}

			db, err := chaindb.New(gen, storage.NewMemory(), nil)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to open the chain database: %v", failed, err)
			}

			trusteeWallet := wallet.New(trusteeKey, db)
			bobWallet := wallet.New(bobKey, db)

			// Block 1: alice pays bob 300 with a tip of 10.
			tx, err := chain.NewTx(1, bob, 300, 10, nil)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to construct a transaction: %v", failed, err)
			}
			signedTx, err := tx.Sign(aliceKey)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to sign a transaction: %v", failed, err)
			}

			block, err := trusteeWallet.AssembleBlock([]chain.SignedTx{signedTx})
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to assemble a block: %v", failed, err)
			}
			if err := block.Sign(trusteeKey); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to sign the block: %v", failed, err)
			}
			if err := db.ApplyBlock(block); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to apply the block: %v", failed, err)
			}

			if err := bobWallet.ScanChain(db.Head().Height); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to scan the chain: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to scan the chain.", success)

			if bobWallet.Balance() != 300 {
				t.Fatalf("\t%s\tTest 0:\tShould credit received value, got %d.", failed, bobWallet.Balance())
			}
			t.Logf("\t%s\tTest 0:\tShould credit received value.", success)

			if bobWallet.LastScanned() != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould remember the last scanned height, got %d.", failed, bobWallet.LastScanned())
			}
			if len(bobWallet.History()) != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould record the touching transaction in history.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould record the scan height and history.", success)

			// A rescan to the same height must not double count.
			if err := bobWallet.ScanChain(db.Head().Height); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to rescan: %v", failed, err)
			}
			if bobWallet.Balance() != 300 || len(bobWallet.History()) != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould not double count on rescan.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould not double count on rescan.", success)
		}
	}
}
