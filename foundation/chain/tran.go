package chain

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// AccountID represents an account in the system that can sign transactions
// or produce blocks.
type AccountID string

// ToAccountID converts a hex encoded address to an account id and validates
// the format.
func ToAccountID(hex string) (AccountID, error) {
	a := AccountID(hex)
	if !a.IsAccountID() {
		return "", fmt.Errorf("invalid account id %q", hex)
	}

	return a, nil
}

// IsAccountID verifies the underlying value is a properly formatted address.
func (a AccountID) IsAccountID() bool {
	return common.IsHexAddress(string(a))
}

// PublicKeyToAccountID converts the public key to an account id.
func PublicKeyToAccountID(pk ecdsa.PublicKey) AccountID {
	return AccountID(crypto.PubkeyToAddress(pk).String())
}

// =============================================================================

// Tx is the transactional information between two parties.
type Tx struct {
	Nonce uint      `json:"nonce"`
	ToID  AccountID `json:"to" validate:"required"`
	Value uint64    `json:"value"`
	Tip   uint64    `json:"tip"`
	Data  []byte    `json:"data"`
}

// NewTx constructs a new transaction.
func NewTx(nonce uint, toID AccountID, value uint64, tip uint64, data []byte) (Tx, error) {
	if !toID.IsAccountID() {
		return Tx{}, fmt.Errorf("to account is not properly formatted")
	}

	tx := Tx{
		Nonce: nonce,
		ToID:  toID,
		Value: value,
		Tip:   tip,
		Data:  data,
	}

	return tx, nil
}

// Sign uses the specified private key to sign the transaction.
func (tx Tx) Sign(privateKey *ecdsa.PrivateKey) (SignedTx, error) {
	if !tx.ToID.IsAccountID() {
		return SignedTx{}, fmt.Errorf("to account is not properly formatted")
	}

	// Sign the transaction with the private key to produce a signature.
	v, r, s, err := Sign(tx, privateKey)
	if err != nil {
		return SignedTx{}, err
	}

	signedTx := SignedTx{
		Tx: tx,
		V:  v,
		R:  r,
		S:  s,
	}

	return signedTx, nil
}

// =============================================================================

// SignedTx is a signed version of the transaction. This is how wallets
// provide transactions for inclusion into the chain.
type SignedTx struct {
	Tx
	V *big.Int `json:"v"`
	R *big.Int `json:"r"`
	S *big.Int `json:"s"`
}

// ID returns the canonical content hash for the signed transaction. The
// transaction pool and the sync protocol key transactions by this value.
func (tx SignedTx) ID() string {
	return Hash(tx)
}

// Validate verifies the transaction has a proper signature that conforms to
// our standards and is associated with the data claimed to be signed. It
// also checks the format of the to account.
func (tx SignedTx) Validate() error {
	if !tx.ToID.IsAccountID() {
		return errors.New("invalid account for to account")
	}

	if err := VerifySignature(tx.V, tx.R, tx.S); err != nil {
		return err
	}

	return nil
}

// FromAccount extracts the account id that signed the transaction.
func (tx SignedTx) FromAccount() (AccountID, error) {
	address, err := FromAddress(tx.Tx, tx.V, tx.R, tx.S)
	return AccountID(address), err
}

// SignatureString returns the signature as a string.
func (tx SignedTx) SignatureString() string {
	return SignatureString(tx.V, tx.R, tx.S)
}

// String implements the fmt.Stringer interface for logging.
func (tx SignedTx) String() string {
	from, err := tx.FromAccount()
	if err != nil {
		from = "unknown"
	}

	return fmt.Sprintf("%s:%d", from, tx.Nonce)
}
