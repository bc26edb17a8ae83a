package vaultmesh

import (
	"encoding/binary"

	"github.com/synnergy-network/vaultmesh/keys"
	"github.com/synnergy-network/vaultmesh/xoraddr"
)

// Scratchpad is a small, frequently-rewritten single-writer record: latest
// counter wins, mirroring Pointer's versioning but carrying arbitrary
// signed content instead of a typed target. Supplements the core data
// model with the Scratchpad API the original implementation exposes
// alongside Pointer (ant-node's IgnoringOutdatedScratchpadPut /
// InvalidScratchpadSignature errors describe the same stale-write and
// bad-signature rejections implemented here).
type Scratchpad struct {
	Owner     keys.PublicKey `json:"owner"`
	Counter   uint64         `json:"counter"`
	Content   []byte         `json:"content"`
	Signature keys.Signature `json:"signature"`
}

// Address derives a Scratchpad's network address from its owner's public
// key.
func (s Scratchpad) Address() xoraddr.Address { return s.Owner.Address() }

// signingBytes renders the canonical bytes a Scratchpad is signed over:
// counter (8 bytes, little-endian) || content, matching Pointer's
// counter-prefixed scheme.
func (s Scratchpad) signingBytes() []byte {
	buf := make([]byte, 8, 8+len(s.Content))
	binary.LittleEndian.PutUint64(buf, s.Counter)
	buf = append(buf, s.Content...)
	return buf
}

// NewScratchpad signs a fresh Scratchpad at the given counter value.
func NewScratchpad(owner *keys.SecretKey, counter uint64, content []byte) Scratchpad {
	s := Scratchpad{Owner: owner.PublicKey(), Counter: counter, Content: append([]byte(nil), content...)}
	s.Signature = owner.Sign(s.signingBytes())
	return s
}

// Verify checks the Scratchpad's signature over its own canonical bytes.
func (s Scratchpad) Verify() bool {
	return s.Owner.Verify(s.Signature, s.signingBytes())
}

// supersedes implements the Scratchpad merge rule: reject if
// stored.counter >= incoming.counter (spec §3).
func (s Scratchpad) supersedes(stored Scratchpad) bool {
	return s.Counter > stored.Counter
}
