package vaultmesh

import (
	"context"

	"github.com/synnergy-network/vaultmesh/keys"
	"github.com/synnergy-network/vaultmesh/netengine"
	"github.com/synnergy-network/vaultmesh/record"
)

// TransactionPut verifies tx's signature locally over its canonical bytes
// before any network call, then stores it as DataOnly(Transaction) (spec
// §4.6/§8 invariant 5). Concurrent writes by the same owner form a split
// the caller resolves by inspecting parent lineage; TransactionPut does
// not attempt that resolution itself.
func (c *Client) TransactionPut(ctx context.Context, tx Transaction) error {
	if !tx.Verify() {
		return ErrInvalidTransactionSignature
	}
	rec, err := record.EncodeDataOnly(record.TypeTransaction, tx)
	if err != nil {
		return err
	}
	cfg := netengine.PutConfig{
		Quorum: netengine.QuorumAll,
		Retry:  netengine.RetryBalanced,
		Verification: &netengine.VerificationConfig{
			Kind: netengine.VerificationStrict,
			Get:  netengine.GetConfig{Quorum: netengine.QuorumMajority, Retry: netengine.RetryNone},
		},
	}
	return c.Engine.Put(ctx, rec, cfg)
}

// TransactionGet reads the transaction stored under owner's address,
// surfacing a *SplitTransactionError if peers disagree; the spec leaves
// transaction conflict resolution to the caller (§9).
func (c *Client) TransactionGet(ctx context.Context, owner keys.PublicKey) (Transaction, error) {
	addr := owner.Address()
	rec, err := c.Engine.Get(ctx, addr, netengine.GetConfig{Quorum: netengine.QuorumMajority, Retry: netengine.RetryBalanced})
	if err == nil {
		var tx Transaction
		if decodeErr := record.DecodeDataOnly(rec, record.TypeTransaction, &tx); decodeErr != nil {
			return Transaction{}, decodeErr
		}
		return tx, nil
	}

	if split, ok := err.(*netengine.SplitRecordError); ok {
		candidates := make([]Transaction, 0, len(split.Results))
		for _, r := range split.Results {
			var tx Transaction
			if decodeErr := record.DecodeDataOnly(r, record.TypeTransaction, &tx); decodeErr == nil {
				candidates = append(candidates, tx)
			}
		}
		if len(candidates) == 0 {
			return Transaction{}, err
		}
		return Transaction{}, &SplitTransactionError{Owner: addr, Candidates: candidates}
	}
	return Transaction{}, err
}
