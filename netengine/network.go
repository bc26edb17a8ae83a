package netengine

import (
	"context"

	"github.com/libp2p/go-libp2p/core/peer"

	"github.com/synnergy-network/vaultmesh/record"
	"github.com/synnergy-network/vaultmesh/xoraddr"
)

// Network is the upstream transport/routing collaborator (spec §6): the DHT
// layer that knows how to find the peers closest to a key and speak the
// per-peer get/put RPCs. The quorum, retry, and split-resolution logic in
// this package is deliberately independent of how peers are actually
// reached, so production code can back Network with a real libp2p Kademlia
// client while tests use the in-memory Simulated implementation below.
type Network interface {
	// ClosestPeers returns up to k peer IDs ordered by XOR distance to key.
	ClosestPeers(ctx context.Context, key xoraddr.Address, k int) ([]peer.ID, error)
	// GetRecordFromPeer fetches the record stored under key at a specific
	// peer. It returns ErrRecordNotFound if that peer holds nothing there.
	GetRecordFromPeer(ctx context.Context, p peer.ID, key xoraddr.Address) (record.Record, error)
	// PutRecordToPeer asks a specific peer to store rec.
	PutRecordToPeer(ctx context.Context, p peer.ID, rec record.Record) error
}
