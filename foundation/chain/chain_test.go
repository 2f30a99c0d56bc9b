package chain_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/nikakhov/bitshares-toolkit/foundation/chain"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

const (
	signerECDSA = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	toAddress   = "0xbEE6ACE826eC3DE1B6349888B9151B92522F7F76"
)

func Test_TransactionSigning(t *testing.T) {
	t.Log("Given the need to sign and verify transactions.")
	{
		t.Logf("\tTest 0:\tWhen signing a transaction.")
		{
			pk, err := crypto.HexToECDSA(signerECDSA)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to parse the private key: %v", failed, err)
			}

			toID, err := chain.ToAccountID(toAddress)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to parse the to account: %v", failed, err)
			}

			tx, err := chain.NewTx(1, toID, 100, 5, []byte("lunch"))
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to construct a transaction: %v", failed, err)
			}

			signedTx, err := tx.Sign(pk)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to sign the transaction: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to sign the transaction.", success)

			if err := signedTx.Validate(); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould validate the signature: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould validate the signature.", success)

			from, err := signedTx.FromAccount()
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to recover the sender: %v", failed, err)
			}
			if from != chain.PublicKeyToAccountID(pk.PublicKey) {
				t.Fatalf("\t%s\tTest 0:\tShould recover the signer's account, got %s.", failed, from)
			}
			t.Logf("\t%s\tTest 0:\tShould recover the signer's account.", success)

			// Tampering with the payload must break sender recovery.
			tampered := signedTx
			tampered.Value = 100000
			if from, err := tampered.FromAccount(); err == nil && from == chain.PublicKeyToAccountID(pk.PublicKey) {
				t.Fatalf("\t%s\tTest 0:\tShould not recover the signer from a tampered payload.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould not recover the signer from a tampered payload.", success)
		}
	}
}

func Test_BlockSigning(t *testing.T) {
	t.Log("Given the need to sign and verify blocks.")
	{
		t.Logf("\tTest 0:\tWhen signing a block header.")
		{
			pk, err := crypto.HexToECDSA(signerECDSA)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to parse the private key: %v", failed, err)
			}

			block := chain.Block{
				Header: chain.BlockHeader{
					Number:        1,
					PrevBlockHash: chain.ZeroHash,
					TimeStamp:     1,
					TrusteeID:     chain.PublicKeyToAccountID(pk.PublicKey),
				},
			}

			if err := block.ValidateTrusteeSignature(); err == nil {
				t.Fatalf("\t%s\tTest 0:\tShould reject an unsigned block.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould reject an unsigned block.", success)

			if err := block.Sign(pk); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to sign the block: %v", failed, err)
			}
			if err := block.ValidateTrusteeSignature(); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould validate the trustee signature: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould validate the trustee signature.", success)

			// A signature from a different trustee must not verify
			// against the declared account.
			block.Header.TrusteeID = chain.AccountID(toAddress)
			if err := block.ValidateTrusteeSignature(); err == nil {
				t.Fatalf("\t%s\tTest 0:\tShould reject a signature from a different account.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould reject a signature from a different account.", success)
		}
	}
}

func Test_BlockHash(t *testing.T) {
	t.Log("Given the need for stable block identities.")
	{
		t.Logf("\tTest 0:\tWhen hashing blocks.")
		{
			var empty chain.Block
			if empty.Hash() != chain.ZeroHash {
				t.Fatalf("\t%s\tTest 0:\tShould hash the empty block to the zero hash.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould hash the empty block to the zero hash.", success)

			a := chain.Block{Header: chain.BlockHeader{Number: 1, TimeStamp: 1}}
			b := chain.Block{Header: chain.BlockHeader{Number: 1, TimeStamp: 2}}
			if a.Hash() == b.Hash() {
				t.Fatalf("\t%s\tTest 0:\tShould hash distinct headers to distinct ids.", failed)
			}
			if a.Hash() != a.Hash() {
				t.Fatalf("\t%s\tTest 0:\tShould hash deterministically.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould hash distinct headers to distinct ids.", success)
		}
	}
}
