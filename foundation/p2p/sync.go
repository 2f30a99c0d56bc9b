package p2p

import (
	"fmt"
	"net/http"

	"github.com/nikakhov/bitshares-toolkit/foundation/chain/message"
)

// syncPageSize is the number of block ids requested per sync page.
const syncPageSize = 100

// queryPeerStatus asks a peer for its identity and known peers.
func (n *Node) queryPeerStatus(peer Peer) (PeerStatus, error) {
	url := fmt.Sprintf("%s/status", fmt.Sprintf(baseURL, peer.Host))

	var status PeerStatus
	if err := send(http.MethodGet, url, nil, &status); err != nil {
		return PeerStatus{}, err
	}

	return status, nil
}

// registerWithPeer tells a peer this node exists on the overlay.
func (n *Node) registerWithPeer(peer Peer) error {
	url := fmt.Sprintf("%s/peer", fmt.Sprintf(baseURL, peer.Host))

	return send(http.MethodPost, url, NewPeer(n.host), nil)
}

// =============================================================================

// SyncFrom walks a peer's chain beyond the specified cursor, fetching the
// missing blocks page by page and feeding each through the delegate. The
// peer reports how much further there is to go with every page, so the
// delegate can be kept informed of overall progress.
func (n *Node) SyncFrom(from message.ItemID) error {
	d, err := n.currentDelegate()
	if err != nil {
		return err
	}

	peers := n.peers.Copy(n.host)
	if len(peers) == 0 {
		return fmt.Errorf("no peers to sync from")
	}

	for _, peer := range peers {
		if err := n.syncFromPeer(peer, from, d); err != nil {
			n.evHandler("p2p: SyncFrom: peer %s: WARNING: %s", peer.Host, err)
			continue
		}
		return nil
	}

	return fmt.Errorf("sync failed against all %d peers", len(peers))
}

// syncFromPeer drains one peer's chain beyond the cursor.
func (n *Node) syncFromPeer(peer Peer, from message.ItemID, d message.Delegate) error {
	cursor := from

	for {
		req := itemIDsRequest{From: cursor, Limit: syncPageSize}

		var page itemIDsResponse
		url := fmt.Sprintf("%s/item/ids", fmt.Sprintf(baseURL, peer.Host))
		if err := send(http.MethodPost, url, req, &page); err != nil {
			return fmt.Errorf("item ids: %w", err)
		}

		if len(page.IDs) == 0 {
			n.evHandler("p2p: SyncFrom: peer %s: in sync", peer.Host)
			return nil
		}

		d.SyncStatus(message.KindBlock, len(page.IDs)+page.Remaining)

		for _, id := range page.IDs {
			if d.HasItem(message.ItemID{Kind: message.KindBlock, Hash: id}) {
				cursor = message.ItemID{Kind: message.KindBlock, Hash: id}
				continue
			}

			var msg message.Message
			itemURL := fmt.Sprintf("%s/item", fmt.Sprintf(baseURL, peer.Host))
			if err := send(http.MethodPost, itemURL, message.ItemID{Kind: message.KindBlock, Hash: id}, &msg); err != nil {
				return fmt.Errorf("item %s: %w", id, err)
			}

			if err := d.HandleMessage(msg); err != nil {
				return fmt.Errorf("apply %s: %w", id, err)
			}

			cursor = message.ItemID{Kind: message.KindBlock, Hash: id}
		}

		if page.Remaining == 0 {
			return nil
		}
	}
}
