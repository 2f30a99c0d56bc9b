// Package public maintains the group of handlers for public node access.
package public

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/nikakhov/bitshares-toolkit/foundation/chain"
	"github.com/nikakhov/bitshares-toolkit/foundation/chain/chaindb"
	"github.com/nikakhov/bitshares-toolkit/foundation/client"
	"github.com/nikakhov/bitshares-toolkit/foundation/events"
	"github.com/nikakhov/bitshares-toolkit/foundation/nameservice"
	"github.com/nikakhov/bitshares-toolkit/foundation/web"
)

// Handlers manages the set of public node endpoints.
type Handlers struct {
	Log    *zap.SugaredLogger
	Client *client.Client
	DB     *chaindb.DB
	NS     *nameservice.NameService
	WS     websocket.Upgrader
	Evts   *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// SubmitTransaction validates a signed transaction, places it in the pool
// and broadcasts it over the active transport.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var signedTx chain.SignedTx
	if err := web.Decode(r, &signedTx); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	h.Log.Infow("submit tran", "traceid", v.TraceID, "tx", signedTx, "to", signedTx.ToID, "value", signedTx.Value, "tip", signedTx.Tip)
	if err := h.Client.BroadcastTransaction(signedTx); err != nil {
		return web.NewRequestError(err, http.StatusBadRequest)
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "transaction added to pool",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.DB.Genesis(), http.StatusOK)
}

// Status reports the node's transport mode, connectivity and chain tip.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	head := h.DB.Head()

	status := nodeStatus{
		Role:        h.Client.Role().String(),
		Connected:   h.Client.IsConnected(),
		Height:      head.Height,
		LatestBlock: head.BlockID,
		Uncommitted: len(h.Client.PendingTransactions()),
	}

	return web.Respond(ctx, w, status, http.StatusOK)
}

// Accounts returns the current balances for all accounts, or for a single
// account when one is specified on the route.
func (h Handlers) Accounts(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	account := web.Param(r, "account")

	var balances map[chain.AccountID]uint64
	switch account {
	case "":
		balances = h.DB.Balances()

	default:
		accountID, err := chain.ToAccountID(account)
		if err != nil {
			return web.NewRequestError(err, http.StatusBadRequest)
		}
		balances = map[chain.AccountID]uint64{accountID: h.DB.Balance(accountID)}
	}

	acts := make([]info, 0, len(balances))
	for accountID, balance := range balances {
		acts = append(acts, info{
			Account: accountID,
			Name:    h.NS.Lookup(accountID),
			Balance: balance,
		})
	}

	ai := actInfo{
		LatestBlock: h.DB.Head().BlockID,
		Uncommitted: len(h.Client.PendingTransactions()),
		Accounts:    acts,
	}

	return web.Respond(ctx, w, ai, http.StatusOK)
}

// Mempool returns the set of unconfirmed transactions, optionally filtered
// to ones touching the specified account.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	acct := web.Param(r, "account")

	pending := h.Client.PendingTransactions()

	trans := []tx{}
	for _, tran := range pending {
		account, _ := tran.FromAccount()

		if acct != "" && acct != string(account) && acct != string(tran.ToID) {
			continue
		}

		trans = append(trans, h.toTx(tran))
	}

	return web.Respond(ctx, w, trans, http.StatusOK)
}

// BlocksByHeight returns the blocks in the specified inclusive height
// range with their details.
func (h Handlers) BlocksByHeight(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	from, err := strconv.ParseUint(web.Param(r, "from"), 10, 64)
	if err != nil {
		return web.NewRequestError(err, http.StatusBadRequest)
	}
	to, err := strconv.ParseUint(web.Param(r, "to"), 10, 64)
	if err != nil {
		return web.NewRequestError(err, http.StatusBadRequest)
	}

	var blocks []block
	for height := from; height <= to; height++ {
		blk, err := h.DB.BlockByHeight(height)
		if err != nil {
			break
		}

		trans := make([]tx, len(blk.Trans))
		for i, tran := range blk.Trans {
			trans[i] = h.toTx(tran)
		}

		blocks = append(blocks, block{
			Number:           blk.Header.Number,
			PrevBlockHash:    blk.Header.PrevBlockHash,
			TimeStamp:        blk.Header.TimeStamp,
			TrusteeID:        blk.Header.TrusteeID,
			TrusteeName:      h.NS.Lookup(blk.Header.TrusteeID),
			TrusteeSignature: blk.TrusteeSignature,
			TransRoot:        blk.Header.TransRoot,
			Transactions:     trans,
		})
	}

	if len(blocks) == 0 {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}

	return web.Respond(ctx, w, blocks, http.StatusOK)
}

// toTx converts a signed transaction into its view model.
func (h Handlers) toTx(tran chain.SignedTx) tx {
	account, _ := tran.FromAccount()

	return tx{
		FromAccount: account,
		FromName:    h.NS.Lookup(account),
		To:          tran.ToID,
		ToName:      h.NS.Lookup(tran.ToID),
		Nonce:       tran.Nonce,
		Value:       tran.Value,
		Tip:         tran.Tip,
		Data:        tran.Data,
		Sig:         tran.SignatureString(),
	}
}
