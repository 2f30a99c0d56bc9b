package p2p_test

import (
	"testing"

	"github.com/nikakhov/bitshares-toolkit/foundation/p2p"
)

func Test_PeerSet(t *testing.T) {
	type table struct {
		name  string
		peers []p2p.Peer
	}

	tt := []table{
		{
			name:  "basic",
			peers: []p2p.Peer{{Host: "host1"}, {Host: "host2"}, {Host: "host3"}},
		},
	}

	for _, tst := range tt {
		f := func(t *testing.T) {
			ps := p2p.NewPeerSet()

			for _, peer := range tst.peers {
				if !ps.Add(peer) {
					t.Fatalf("Test %s:\tShould be able to add peer %s.", tst.name, peer.Host)
				}
			}

			if ps.Add(tst.peers[0]) {
				t.Fatalf("Test %s:\tShould not add a known peer twice.", tst.name)
			}

			peers := ps.Copy("")
			if len(peers) != len(tst.peers) {
				t.Logf("Test %s:\tgot: %d", tst.name, len(peers))
				t.Logf("Test %s:\texp: %d", tst.name, len(tst.peers))
				t.Fatalf("Test %s:\tShould get back the right peers.", tst.name)
			}

			peers = ps.Copy("host2")
			if len(peers) != len(tst.peers)-1 {
				t.Logf("Test %s:\tgot: %d", tst.name, len(peers))
				t.Logf("Test %s:\texp: %d", tst.name, len(tst.peers)-1)
				t.Fatalf("Test %s:\tShould exclude the specified host.", tst.name)
			}

			if ps.Count("host2") != len(tst.peers)-1 {
				t.Fatalf("Test %s:\tShould count peers excluding the specified host.", tst.name)
			}

			ps.Remove(tst.peers[2])
			if ps.Count("") != len(tst.peers)-1 {
				t.Fatalf("Test %s:\tShould drop a removed peer from the count.", tst.name)
			}
		}

		t.Run(tst.name, f)
	}
}
