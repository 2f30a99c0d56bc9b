package public

import "github.com/nikakhov/bitshares-toolkit/foundation/chain"

type tx struct {
	FromAccount chain.AccountID `json:"from"`
	FromName    string          `json:"from_name"`
	To          chain.AccountID `json:"to"`
	ToName      string          `json:"to_name"`
	Nonce       uint            `json:"nonce"`
	Value       uint64          `json:"value"`
	Tip         uint64          `json:"tip"`
	Data        []byte          `json:"data"`
	Sig         string          `json:"sig"`
}

type info struct {
	Account chain.AccountID `json:"account"`
	Name    string          `json:"name"`
	Balance uint64          `json:"balance"`
}

type actInfo struct {
	LatestBlock string `json:"latest_block"`
	Uncommitted int    `json:"uncommitted"`
	Accounts    []info `json:"accounts"`
}

type block struct {
	Number           uint64          `json:"number"`
	PrevBlockHash    string          `json:"prev_block_hash"`
	TimeStamp        uint64          `json:"timestamp"`
	TrusteeID        chain.AccountID `json:"trustee_id"`
	TrusteeName      string          `json:"trustee_name"`
	TrusteeSignature string          `json:"trustee_signature"`
	TransRoot        string          `json:"trans_root"`
	Transactions     []tx            `json:"txs"`
}

type nodeStatus struct {
	Role        string `json:"role"`
	Connected   bool   `json:"connected"`
	Height      uint64 `json:"height"`
	LatestBlock string `json:"latest_block"`
	Uncommitted int    `json:"uncommitted"`
}
