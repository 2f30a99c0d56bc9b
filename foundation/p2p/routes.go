package p2p

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/nikakhov/bitshares-toolkit/foundation/chain"
	"github.com/nikakhov/bitshares-toolkit/foundation/chain/message"
	"github.com/nikakhov/bitshares-toolkit/foundation/web"
)

// itemIDsRequest is the body of a sync page request.
type itemIDsRequest struct {
	From  message.ItemID `json:"from"`
	Limit int            `json:"limit"`
}

// itemIDsResponse is a page of block id hashes plus the count of further
// items beyond the page.
type itemIDsResponse struct {
	IDs       []string `json:"ids"`
	Remaining int      `json:"remaining"`
}

// =============================================================================

// routes binds the node-to-node surface that drives the delegate contract.
func (n *Node) routes() http.Handler {

	// The transport owns no graceful-shutdown concern of its own, so the
	// framework's shutdown signal is accepted and dropped here.
	shutdown := make(chan os.Signal, 1)

	app := web.NewApp(shutdown)

	const version = "v1"
	app.Handle(http.MethodPost, "/"+version+"/node/message", n.handleMessage)
	app.Handle(http.MethodPost, "/"+version+"/node/item/ids", n.itemIDs)
	app.Handle(http.MethodPost, "/"+version+"/node/item", n.item)
	app.Handle(http.MethodGet, "/"+version+"/node/status", n.status)
	app.Handle(http.MethodPost, "/"+version+"/node/peer", n.addPeer)

	return app
}

// handleMessage hands an inbound item to the delegate.
func (n *Node) handleMessage(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	d, err := n.currentDelegate()
	if err != nil {
		return web.NewRequestError(err, http.StatusServiceUnavailable)
	}

	var msg message.Message
	if err := web.Decode(r, &msg); err != nil {
		return err
	}

	if err := d.HandleMessage(msg); err != nil {
		return web.NewRequestError(err, http.StatusNotAcceptable)
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "accepted",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// itemIDs serves a page of the peer sync protocol.
func (n *Node) itemIDs(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	d, err := n.currentDelegate()
	if err != nil {
		return web.NewRequestError(err, http.StatusServiceUnavailable)
	}

	var req itemIDsRequest
	if err := web.Decode(r, &req); err != nil {
		return err
	}

	ids, remaining, err := d.GetItemIDs(req.From, req.Limit)
	if err != nil {
		return web.NewRequestError(err, http.StatusBadRequest)
	}

	return web.Respond(ctx, w, itemIDsResponse{IDs: ids, Remaining: remaining}, http.StatusOK)
}

// item serves a single item fetch. A not-found item is a normal outcome
// and reported as such, not logged as an error.
func (n *Node) item(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	d, err := n.currentDelegate()
	if err != nil {
		return web.NewRequestError(err, http.StatusServiceUnavailable)
	}

	var id message.ItemID
	if err := web.Decode(r, &id); err != nil {
		return err
	}

	msg, err := d.GetItem(id)
	if err != nil {
		if errors.Is(err, chain.ErrNotFound) {
			return web.NewRequestError(err, http.StatusNotFound)
		}
		return web.NewRequestError(err, http.StatusBadRequest)
	}

	return web.Respond(ctx, w, msg, http.StatusOK)
}

// status reports this node's identity and known peers so a joining node
// can discover the overlay.
func (n *Node) status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	status := PeerStatus{
		Host:       n.host,
		KnownPeers: n.peers.Copy(n.host),
	}

	return web.Respond(ctx, w, status, http.StatusOK)
}

// addPeer records the calling node as a known peer.
func (n *Node) addPeer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var peer Peer
	if err := web.Decode(r, &peer); err != nil {
		return err
	}

	if !peer.Match(n.host) && n.peers.Add(peer) {
		n.evHandler("p2p: addPeer: added peer %s", peer.Host)
		n.connectionCountChanged()
	}

	return web.Respond(ctx, w, peer, http.StatusOK)
}
