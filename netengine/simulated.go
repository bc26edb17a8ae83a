package netengine

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/libp2p/go-libp2p/core/peer"

	"github.com/synnergy-network/vaultmesh/record"
	"github.com/synnergy-network/vaultmesh/xoraddr"
)

// Simulated is an in-memory Network used by tests and by callers that want
// to exercise the typed object APIs without a real libp2p swarm. It mirrors
// the teacher's in-memory Kademlia (core/kademlia.go) generalized from a
// single local node's bucket table to a small multi-peer swarm, each with
// its own store, so put/get quorum and split-record behavior can be
// exercised deterministically.
type Simulated struct {
	mu      sync.Mutex
	peerIDs []peer.ID
	store   map[peer.ID]map[xoraddr.Address]record.Record

	// FailPuts, if set, counts down remaining simulated put failures per
	// peer before that peer starts succeeding; used to exercise retry paths.
	FailPuts map[peer.ID]int
}

// NewSimulated creates a swarm of n virtual peers.
func NewSimulated(n int) *Simulated {
	s := &Simulated{
		store: make(map[peer.ID]map[xoraddr.Address]record.Record),
	}
	for i := 0; i < n; i++ {
		id := peer.ID(fmt.Sprintf("peer-%03d", i))
		s.peerIDs = append(s.peerIDs, id)
		s.store[id] = make(map[xoraddr.Address]record.Record)
	}
	return s
}

func peerAddr(p peer.ID) xoraddr.Address {
	return xoraddr.Hash([]byte(p))
}

// ClosestPeers implements Network.
func (s *Simulated) ClosestPeers(_ context.Context, key xoraddr.Address, k int) ([]peer.ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	peers := append([]peer.ID(nil), s.peerIDs...)
	sort.Slice(peers, func(i, j int) bool {
		return xoraddr.Closer(key, peerAddr(peers[i]), peerAddr(peers[j]))
	})
	if len(peers) > k {
		peers = peers[:k]
	}
	return peers, nil
}

// GetRecordFromPeer implements Network.
func (s *Simulated) GetRecordFromPeer(_ context.Context, p peer.ID, key xoraddr.Address) (record.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, ok := s.store[p]
	if !ok {
		return record.Record{}, fmt.Errorf("netengine: unknown peer %s", p)
	}
	rec, ok := recs[key]
	if !ok {
		return record.Record{}, ErrRecordNotFound
	}
	return rec, nil
}

// PutRecordToPeer implements Network.
func (s *Simulated) PutRecordToPeer(_ context.Context, p peer.ID, rec record.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if remaining, ok := s.FailPuts[p]; ok && remaining > 0 {
		s.FailPuts[p] = remaining - 1
		return fmt.Errorf("netengine: simulated put failure at %s", p)
	}

	recs, ok := s.store[p]
	if !ok {
		return fmt.Errorf("netengine: unknown peer %s", p)
	}
	recs[rec.Key] = rec
	return nil
}

// SeedDirectly writes rec into exactly the given peers' stores, bypassing
// quorum logic; useful for constructing split-record fixtures in tests.
func (s *Simulated) SeedDirectly(peers []peer.ID, rec record.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range peers {
		if recs, ok := s.store[p]; ok {
			recs[rec.Key] = rec
		}
	}
}

// Peers returns a copy of every peer ID in the swarm.
func (s *Simulated) Peers() []peer.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]peer.ID(nil), s.peerIDs...)
}
