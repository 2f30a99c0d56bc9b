package chain

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
)

// BlockHeader represents common information required for each block.
type BlockHeader struct {
	Number        uint64    `json:"number"`          // Block height in the chain, starting at 1.
	PrevBlockHash string    `json:"prev_block_hash"` // Id of the previous block in the chain.
	TimeStamp     uint64    `json:"timestamp"`       // Time the block was produced.
	TrusteeID     AccountID `json:"trustee"`         // Account of the trustee that produced this block.
	TransRoot     string    `json:"trans_root"`      // Hash over the ordered set of transactions.
}

// Block represents an ordered group of transactions plus the trustee
// signature that authorizes it.
type Block struct {
	Header           BlockHeader `json:"header"`
	Trans            []SignedTx  `json:"trans"`
	TrusteeSignature string      `json:"trustee_signature"`
}

// Hash returns the unique id for the block. The id covers the header only;
// the transactions are bound in through the trans root.
func (b Block) Hash() string {
	if b.Header.Number == 0 {
		return ZeroHash
	}

	return Hash(b.Header)
}

// TransRoot computes the hash over the ordered set of transactions.
func TransRoot(trans []SignedTx) string {
	ids := make([]string, len(trans))
	for i, tx := range trans {
		ids[i] = tx.ID()
	}

	return Hash(ids)
}

// Sign uses the trustee private key to sign the block header and attaches
// the signature to the block.
func (b *Block) Sign(privateKey *ecdsa.PrivateKey) error {
	v, r, s, err := Sign(b.Header, privateKey)
	if err != nil {
		return err
	}

	b.TrusteeSignature = SignatureString(v, r, s)

	return nil
}

// ValidateTrusteeSignature checks the block carries a signature over its
// header that was produced by the declared trustee account.
func (b Block) ValidateTrusteeSignature() error {
	if b.TrusteeSignature == "" {
		return errors.New("block is not signed")
	}

	v, r, s, err := ToVRSFromHexSignature(b.TrusteeSignature)
	if err != nil {
		return fmt.Errorf("decode trustee signature: %w", err)
	}

	if err := VerifySignature(v, r, s); err != nil {
		return err
	}

	address, err := FromAddress(b.Header, v, r, s)
	if err != nil {
		return err
	}

	if AccountID(address) != b.Header.TrusteeID {
		return fmt.Errorf("block signed by %s, trustee is %s", address, b.Header.TrusteeID)
	}

	return nil
}
