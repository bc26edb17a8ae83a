package netengine

import (
	"errors"
	"fmt"

	"github.com/libp2p/go-libp2p/core/peer"

	"github.com/synnergy-network/vaultmesh/record"
	"github.com/synnergy-network/vaultmesh/xoraddr"
)

// ErrRecordNotFound is returned by Get when no peer responded with a
// record for the requested key.
var ErrRecordNotFound = errors.New("netengine: record not found")

// ErrQuorumNotMet is returned by Put when the configured quorum of
// acknowledgements could not be collected within the retry budget.
var ErrQuorumNotMet = errors.New("netengine: put quorum not met")

// ErrVerificationFailed is returned by Put when post-write verification did
// not observe a matching (or, for CRDT verification, superseding) record.
var ErrVerificationFailed = errors.New("netengine: verification failed")

// SplitRecordError is returned by Get when peers disagree on the value
// stored under key. The typed object layer resolves splits per its own
// merge rule (pointer/scratchpad: highest counter); transactions surface it
// to the caller untouched.
type SplitRecordError struct {
	Key     xoraddr.Address
	Results map[peer.ID]record.Record
}

func (e *SplitRecordError) Error() string {
	return fmt.Sprintf("netengine: split record at %s across %d peers", e.Key.Short(), len(e.Results))
}

// NetworkError wraps a transport-level failure (timeout, connection reset,
// malformed response) that is not itself a decode/signature fault.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("netengine: %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
