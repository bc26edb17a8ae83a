package vaultmesh

import (
	"context"
	"fmt"

	"github.com/synnergy-network/vaultmesh/keys"
	"github.com/synnergy-network/vaultmesh/netengine"
	"github.com/synnergy-network/vaultmesh/quote"
	"github.com/synnergy-network/vaultmesh/record"
)

// pointerMergeFunc implements the CRDT merge rule pointer_put verifies
// against: a candidate record satisfies verification if it decodes to a
// Pointer whose counter is >= the written one (accepts a concurrent
// supersession by the same owner).
func pointerMergeFunc(written, candidate record.Record) bool {
	var w, cnd Pointer
	if err := decodePointer(written, &w); err != nil {
		return false
	}
	if err := decodePointer(candidate, &cnd); err != nil {
		return false
	}
	return cnd.Counter >= w.Counter
}

// decodePointer decodes a Pointer record in either stored form:
// DataWithPayment(Pointer) as written by PointerCreate, or DataOnly(Pointer)
// as written by PointerUpdate. An embedded payment proof is discarded.
func decodePointer(rec record.Record, p *Pointer) error {
	if rec.Kind.WithPayment {
		var proof any
		return record.DecodeDataWithPayment(rec, record.TypePointer, &proof, p)
	}
	return record.DecodeDataOnly(rec, record.TypePointer, p)
}

// readPointer fetches the current pointer for owner, surfacing a
// *SplitPointerError on divergence and passing netengine.ErrRecordNotFound
// through unchanged.
func (c *Client) readPointer(ctx context.Context, owner keys.PublicKey) (Pointer, error) {
	addr := owner.Address()
	rec, err := c.Engine.Get(ctx, addr, netengine.GetConfig{Quorum: netengine.QuorumMajority, Retry: netengine.RetryBalanced})
	if err == nil {
		var p Pointer
		if decodeErr := decodePointer(rec, &p); decodeErr != nil {
			return Pointer{}, decodeErr
		}
		return p, nil
	}

	var split *netengine.SplitRecordError
	if sre, ok := err.(*netengine.SplitRecordError); ok {
		split = sre
		candidates := make([]Pointer, 0, len(split.Results))
		for _, r := range split.Results {
			var p Pointer
			if decodeErr := decodePointer(r, &p); decodeErr == nil {
				candidates = append(candidates, p)
			}
		}
		if len(candidates) == 0 {
			return Pointer{}, err
		}
		return Pointer{}, &SplitPointerError{Owner: addr, Candidates: candidates}
	}
	return Pointer{}, err
}

// PointerCreate creates a fresh pointer at counter 0, embedding a fresh
// payment proof (DataWithPayment(Pointer)). Any existing pointer at the
// target address — including one surfaced as a split — fails with
// ErrPointerAlreadyExists (spec §9's documented resolution of the split-
// during-create Open Question).
func (c *Client) PointerCreate(ctx context.Context, owner *keys.SecretKey, target PointerTarget) error {
	pub := owner.PublicKey()
	_, err := c.readPointer(ctx, pub)
	if err == nil {
		return ErrPointerAlreadyExists
	}
	if _, ok := err.(*SplitPointerError); ok {
		return ErrPointerAlreadyExists
	}
	if err != netengine.ErrRecordNotFound {
		return err
	}

	ptr := NewPointer(owner, 0, target)
	addrs := []quote.AddressSize{{Address: ptr.Address(), Size: pointerQuoteSize}}
	payResult, err := quote.Pay(ctx, c.Quotes, c.Verify, c.Wallet, c.Logger, record.TypePointer, addrs)
	if err != nil {
		return err
	}
	receipt, ok := payResult.Receipts[ptr.Address()]
	if !ok {
		return fmt.Errorf("vaultmesh: no payment receipt for new pointer at %s", ptr.Address().Short())
	}

	rec, err := record.EncodeDataWithPayment(record.TypePointer, receipt.Proof, ptr)
	if err != nil {
		return err
	}
	return c.pointerPut(ctx, rec)
}

// PointerUpdate reads the current pointer (resolving a split to the
// maximum observed counter), bumps the counter, signs, and stores the
// result as DataOnly(Pointer). Fails with ErrCannotUpdateNewPointer if no
// pointer currently exists.
func (c *Client) PointerUpdate(ctx context.Context, owner *keys.SecretKey, target PointerTarget) error {
	pub := owner.PublicKey()
	current, err := c.readPointer(ctx, pub)
	if err != nil {
		if split, ok := err.(*SplitPointerError); ok {
			current = split.Max()
		} else if err == netengine.ErrRecordNotFound {
			return ErrCannotUpdateNewPointer
		} else {
			return err
		}
	}

	next := NewPointer(owner, current.Counter+1, target)
	rec, err := record.EncodeDataOnly(record.TypePointer, next)
	if err != nil {
		return err
	}
	return c.pointerPut(ctx, rec)
}

// PointerGet reads the current pointer for owner, surfacing a
// *SplitPointerError if peers disagree (spec §4.6's state machine: reading
// a split resolves to the highest observed counter only for callers that
// choose to call SplitPointerError.Max()).
func (c *Client) PointerGet(ctx context.Context, owner keys.PublicKey) (Pointer, error) {
	return c.readPointer(ctx, owner)
}

// PointerCost quotes a single pointer address using the fixed placeholder
// size documented in spec §9 (the real encoded size varies with target
// kind; the source hardcodes 128 bytes for quoting purposes).
func (c *Client) PointerCost(ctx context.Context, owner keys.PublicKey) (quote.AttoTokens, error) {
	addrs := []quote.AddressSize{{Address: owner.Address(), Size: pointerQuoteSize}}
	quotes, err := quote.GetStoreQuotes(ctx, c.Quotes, c.Verify, c.Logger, record.TypePointer, addrs)
	if err != nil {
		return quote.Zero(), err
	}
	return quotes[owner.Address()].Price, nil
}

// pointerQuoteSize is the placeholder payload size used when quoting a
// pointer address (spec §9 Open Question: real size varies with target
// kind; carried over from the source unchanged).
const pointerQuoteSize = 128

// pointerPut stores rec with quorum-all and CRDT verification against the
// pointer counter merge rule (spec §4.6: "pointer_put uses quorum-all with
// CRDT verification").
func (c *Client) pointerPut(ctx context.Context, rec record.Record) error {
	cfg := netengine.PutConfig{
		Quorum: netengine.QuorumAll,
		Retry:  netengine.RetryBalanced,
		Verification: &netengine.VerificationConfig{
			Kind:  netengine.VerificationCrdt,
			Get:   netengine.GetConfig{Quorum: netengine.QuorumMajority, Retry: netengine.RetryNone},
			Merge: pointerMergeFunc,
		},
	}
	return c.Engine.Put(ctx, rec, cfg)
}
