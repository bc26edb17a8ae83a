// Package netengine implements the quorum-aware DHT put/get engine of
// spec §4.4: puts targeting a quorum of acknowledgements with optional
// post-write verification, and gets targeting a quorum of matching
// records with split-record surfacing.
//
// Grounded on the teacher's core/kademlia.go Nearest() (XOR-closest peer
// selection) generalized from an in-memory 160-bit bucket table to calling
// out to a pluggable Network collaborator over the full 256-bit xoraddr
// space, and on core/storage.go's escrow/ledger pattern of collecting
// per-call outcomes without aborting siblings (§4.5's propagation policy
// reuses the same shape).
package netengine

import (
	"time"

	"github.com/libp2p/go-libp2p/core/peer"

	"github.com/synnergy-network/vaultmesh/record"
)

// Quorum is the minimum fraction of the K closest peers that must agree for
// an operation to be considered successful.
type Quorum int

const (
	QuorumOne Quorum = iota
	QuorumMajority
	QuorumAll
)

func (q Quorum) String() string {
	switch q {
	case QuorumOne:
		return "One"
	case QuorumMajority:
		return "Majority"
	case QuorumAll:
		return "All"
	default:
		return "Unknown"
	}
}

// threshold returns the minimum number of agreeing peers required out of
// total for the quorum to be met.
func (q Quorum) threshold(total int) int {
	if total <= 0 {
		return 0
	}
	switch q {
	case QuorumOne:
		return 1
	case QuorumAll:
		return total
	default: // QuorumMajority
		return total/2 + 1
	}
}

// RetryStrategy governs how many attempts an operation makes and how long
// it backs off between them, per spec §4.4.
type RetryStrategy int

const (
	RetryNone RetryStrategy = iota
	RetryBalanced
	RetryPersistent
)

// attempts returns the attempt budget for the strategy.
func (r RetryStrategy) attempts() int {
	switch r {
	case RetryBalanced:
		return 3
	case RetryPersistent:
		return 6
	default:
		return 1
	}
}

// backoff returns the delay to wait after failed attempt number attempt
// (1-indexed) before the next one, exponential and capped per the
// strategy's ceiling.
func (r RetryStrategy) backoff(attempt int) time.Duration {
	ceiling := 8 * time.Second
	if r == RetryPersistent {
		ceiling = 30 * time.Second
	}
	d := time.Duration(1<<uint(attempt-1)) * 250 * time.Millisecond
	if d > ceiling {
		d = ceiling
	}
	return d
}

// VerificationKind controls how a post-put verification read is judged.
type VerificationKind int

const (
	// VerificationCrdt succeeds if the read-back record equals the written
	// one, or supersedes it per the type's merge rule (e.g. a higher
	// pointer/scratchpad counter written concurrently by the same owner).
	VerificationCrdt VerificationKind = iota
	// VerificationStrict requires byte-for-byte equality.
	VerificationStrict
)

// MergeFunc reports whether candidate supersedes written under the calling
// type's merge rule (used only for VerificationCrdt). It is supplied by the
// typed layer (pointer/scratchpad counter comparison); the engine itself
// never interprets record payloads.
type MergeFunc func(written, candidate record.Record) bool

// VerificationConfig configures the post-put read-back.
type VerificationConfig struct {
	Kind  VerificationKind
	Get   GetConfig
	Merge MergeFunc // required when Kind == VerificationCrdt
}

// GetConfig configures a quorum get.
type GetConfig struct {
	Quorum         Quorum
	Retry          RetryStrategy
	ExpectedHolders []peer.ID
	// TargetRecord, if set, is used by conflict resolution when performing a
	// verification read after a put: a response equal to TargetRecord always
	// counts towards quorum even if other peers have not yet converged.
	TargetRecord *record.Record
}

// PutConfig configures a quorum put.
type PutConfig struct {
	Quorum         Quorum
	Retry          RetryStrategy
	Verification   *VerificationConfig
	UsePutRecordTo []peer.ID
}
