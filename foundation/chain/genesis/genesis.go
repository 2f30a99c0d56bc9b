// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"os"
	"time"
)

// Genesis represents the genesis file.
type Genesis struct {
	Date           time.Time         `json:"date"`
	ChainID        uint16            `json:"chain_id"`        // Unique id for this running instance.
	TransPerBlock  uint16            `json:"trans_per_block"` // Maximum number of transactions in a block.
	TrusteeAccount string            `json:"trustee_account"` // Account authorized to produce blocks.
	Balances       map[string]uint64 `json:"balances"`
}

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}
