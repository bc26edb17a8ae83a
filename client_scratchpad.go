package vaultmesh

import (
	"context"

	"github.com/synnergy-network/vaultmesh/keys"
	"github.com/synnergy-network/vaultmesh/netengine"
	"github.com/synnergy-network/vaultmesh/record"
)

// scratchpadMergeFunc implements the latest-counter-wins merge rule: a
// candidate satisfies verification if its counter is >= the written one.
func scratchpadMergeFunc(written, candidate record.Record) bool {
	var w, cnd Scratchpad
	if err := record.DecodeDataOnly(written, record.TypeScratchpad, &w); err != nil {
		return false
	}
	if err := record.DecodeDataOnly(candidate, record.TypeScratchpad, &cnd); err != nil {
		return false
	}
	return cnd.Counter >= w.Counter
}

// ScratchpadGet reads the scratchpad stored under owner's address,
// surfacing a *SplitScratchpadError if peers disagree.
func (c *Client) ScratchpadGet(ctx context.Context, owner keys.PublicKey) (Scratchpad, error) {
	addr := owner.Address()
	rec, err := c.Engine.Get(ctx, addr, netengine.GetConfig{Quorum: netengine.QuorumMajority, Retry: netengine.RetryBalanced})
	if err == nil {
		var sp Scratchpad
		if decodeErr := record.DecodeDataOnly(rec, record.TypeScratchpad, &sp); decodeErr != nil {
			return Scratchpad{}, decodeErr
		}
		return sp, nil
	}

	if split, ok := err.(*netengine.SplitRecordError); ok {
		candidates := make([]Scratchpad, 0, len(split.Results))
		for _, r := range split.Results {
			var sp Scratchpad
			if decodeErr := record.DecodeDataOnly(r, record.TypeScratchpad, &sp); decodeErr == nil {
				candidates = append(candidates, sp)
			}
		}
		if len(candidates) == 0 {
			return Scratchpad{}, err
		}
		return Scratchpad{}, &SplitScratchpadError{Owner: addr, Candidates: candidates}
	}
	return Scratchpad{}, err
}

// ScratchpadPut verifies sp's signature, rejects it as outdated if the
// currently stored counter is already >= sp's (mirroring ant-node's
// IgnoringOutdatedScratchpadPut), and otherwise stores it with quorum-all
// and CRDT verification against the counter merge rule.
func (c *Client) ScratchpadPut(ctx context.Context, sp Scratchpad) error {
	if !sp.Verify() {
		return ErrInvalidScratchpadSignature
	}

	current, err := c.ScratchpadGet(ctx, sp.Owner)
	if split, ok := err.(*SplitScratchpadError); ok {
		highest := split.Candidates[0]
		for _, cand := range split.Candidates[1:] {
			if cand.Counter > highest.Counter {
				highest = cand
			}
		}
		if !sp.supersedes(highest) {
			return ErrOutdatedScratchpadPut
		}
	} else if err == nil {
		if !sp.supersedes(current) {
			return ErrOutdatedScratchpadPut
		}
	} else if err != netengine.ErrRecordNotFound {
		return err
	}

	rec, err := record.EncodeDataOnly(record.TypeScratchpad, sp)
	if err != nil {
		return err
	}
	cfg := netengine.PutConfig{
		Quorum: netengine.QuorumAll,
		Retry:  netengine.RetryBalanced,
		Verification: &netengine.VerificationConfig{
			Kind:  netengine.VerificationCrdt,
			Get:   netengine.GetConfig{Quorum: netengine.QuorumMajority, Retry: netengine.RetryNone},
			Merge: scratchpadMergeFunc,
		},
	}
	return c.Engine.Put(ctx, rec, cfg)
}
