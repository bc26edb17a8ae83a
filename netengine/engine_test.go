package netengine

import (
	"context"
	"testing"

	"github.com/libp2p/go-libp2p/core/peer"

	"github.com/synnergy-network/vaultmesh/record"
	"github.com/synnergy-network/vaultmesh/xoraddr"
)

func testRecord(key xoraddr.Address, payload string) record.Record {
	return record.Record{Key: key, Kind: record.Kind{Type: record.TypeChunk}, Payload: []byte(payload)}
}

func TestPutGetRoundTrip(t *testing.T) {
	sim := NewSimulated(5)
	e := New(sim, 5, nil)
	ctx := context.Background()

	key := xoraddr.Hash([]byte("hello"))
	rec := testRecord(key, "hello")

	if err := e.Put(ctx, rec, PutConfig{Quorum: QuorumAll, Retry: RetryNone}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := e.Get(ctx, key, GetConfig{Quorum: QuorumMajority, Retry: RetryNone})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got.Payload) != "hello" {
		t.Fatalf("got %q", got.Payload)
	}
}

func TestGetRecordNotFound(t *testing.T) {
	sim := NewSimulated(5)
	e := New(sim, 5, nil)
	_, err := e.Get(context.Background(), xoraddr.Hash([]byte("missing")), GetConfig{Quorum: QuorumOne, Retry: RetryNone})
	if err != ErrRecordNotFound {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestSplitRecordSurfaced(t *testing.T) {
	sim := NewSimulated(4)
	e := New(sim, 4, nil)
	key := xoraddr.Hash([]byte("split-key"))

	peers := sim.Peers()
	recA := testRecord(key, "A")
	recB := testRecord(key, "B")
	sim.SeedDirectly(peers[:2], recA)
	sim.SeedDirectly(peers[2:], recB)

	_, err := e.Get(context.Background(), key, GetConfig{Quorum: QuorumMajority, Retry: RetryNone})
	split, ok := err.(*SplitRecordError)
	if !ok {
		t.Fatalf("expected *SplitRecordError, got %v (%T)", err, err)
	}
	if len(split.Results) != 4 {
		t.Fatalf("expected 4 results in split, got %d", len(split.Results))
	}
}

func TestPutRetriesThroughTransientFailures(t *testing.T) {
	sim := NewSimulated(5)
	sim.FailPuts = map[peer.ID]int{}
	e := New(sim, 5, nil)
	key := xoraddr.Hash([]byte("retry-me"))
	rec := testRecord(key, "payload")

	for _, p := range sim.Peers()[:2] {
		sim.FailPuts[p] = 1 // first attempt fails, second succeeds
	}

	if err := e.Put(context.Background(), rec, PutConfig{Quorum: QuorumAll, Retry: RetryBalanced}); err != nil {
		t.Fatalf("Put: %v", err)
	}
}

func TestSatisfiesCrdtMerge(t *testing.T) {
	e := &Engine{}
	key := xoraddr.Hash([]byte("pointer-key"))
	written := testRecord(key, "counter=1")
	candidate := testRecord(key, "counter=2")

	v := &VerificationConfig{
		Kind: VerificationCrdt,
		Merge: func(_, c record.Record) bool {
			return string(c.Payload) == "counter=2"
		},
	}
	if !e.satisfies(written, candidate, v) {
		t.Fatalf("expected CRDT merge to accept the superseding candidate")
	}

	unrelated := testRecord(key, "counter=0-stale")
	if e.satisfies(written, unrelated, v) {
		t.Fatalf("merge rule should not have accepted an unrelated candidate")
	}
}

func TestSatisfiesStrictRequiresExactMatch(t *testing.T) {
	e := &Engine{}
	key := xoraddr.Hash([]byte("strict-key"))
	written := testRecord(key, "value")
	same := testRecord(key, "value")
	different := testRecord(key, "other")

	v := &VerificationConfig{Kind: VerificationStrict}
	if !e.satisfies(written, same, v) {
		t.Fatalf("expected exact match to satisfy strict verification")
	}
	if e.satisfies(written, different, v) {
		t.Fatalf("strict verification must not accept a differing record")
	}
}
