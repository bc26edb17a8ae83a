package vaultmesh

import (
	"errors"
	"fmt"

	"github.com/synnergy-network/vaultmesh/xoraddr"
)

// Errors returned by the typed object APIs (spec §4.6/§7, "Logical" kind).
var (
	// ErrPointerAlreadyExists is returned by PointerCreate when a pointer
	// already occupies the target address, including when the network
	// reports a split (spec §9's documented Open Question: a split during
	// creation is treated as existence, not as network inconsistency).
	ErrPointerAlreadyExists = errors.New("vaultmesh: pointer already exists")
	// ErrCannotUpdateNewPointer is returned by PointerUpdate when no pointer
	// currently exists at the target address.
	ErrCannotUpdateNewPointer = errors.New("vaultmesh: cannot update a pointer that does not exist")
	// ErrInvalidTransactionSignature is returned by TransactionPut when the
	// transaction's signature does not verify over its canonical bytes.
	ErrInvalidTransactionSignature = errors.New("vaultmesh: invalid transaction signature")
	// ErrInvalidScratchpadSignature is returned by ScratchpadPut when the
	// scratchpad's signature does not verify.
	ErrInvalidScratchpadSignature = errors.New("vaultmesh: invalid scratchpad signature")
	// ErrOutdatedScratchpadPut is returned by ScratchpadPut when the
	// incoming counter does not exceed the stored one (mirrors ant-node's
	// IgnoringOutdatedScratchpadPut).
	ErrOutdatedScratchpadPut = errors.New("vaultmesh: outdated scratchpad put ignored")
	// ErrChunkUploadFailed wraps the last residual upload-pipeline failure
	// surfaced as the operation error for a failed DataPut.
	ErrChunkUploadFailed = errors.New("vaultmesh: chunk upload failed")
)

// SplitPointerError is returned by PointerGet when different peers hold
// pointers with different counters for the same owner; the caller (or
// PointerUpdate internally) resolves it by taking the maximum counter.
type SplitPointerError struct {
	Owner      xoraddr.Address
	Candidates []Pointer
}

func (e *SplitPointerError) Error() string {
	return fmt.Sprintf("vaultmesh: split pointer at %s across %d candidates", e.Owner.Short(), len(e.Candidates))
}

// Max returns the candidate with the highest counter.
func (e *SplitPointerError) Max() Pointer {
	best := e.Candidates[0]
	for _, c := range e.Candidates[1:] {
		if c.supersedes(best) {
			best = c
		}
	}
	return best
}

// SplitTransactionError is returned by TransactionGet when peers disagree;
// transaction conflict resolution is delegated to the caller via parent
// lineage inspection (spec §9).
type SplitTransactionError struct {
	Owner      xoraddr.Address
	Candidates []Transaction
}

func (e *SplitTransactionError) Error() string {
	return fmt.Sprintf("vaultmesh: split transaction at %s across %d candidates", e.Owner.Short(), len(e.Candidates))
}

// SplitScratchpadError is returned by ScratchpadGet when peers disagree.
type SplitScratchpadError struct {
	Owner      xoraddr.Address
	Candidates []Scratchpad
}

func (e *SplitScratchpadError) Error() string {
	return fmt.Sprintf("vaultmesh: split scratchpad at %s across %d candidates", e.Owner.Short(), len(e.Candidates))
}
