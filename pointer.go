package vaultmesh

import (
	"encoding/binary"

	"github.com/synnergy-network/vaultmesh/keys"
	"github.com/synnergy-network/vaultmesh/record"
	"github.com/synnergy-network/vaultmesh/xoraddr"
)

// PointerTarget is the typed address a Pointer resolves to: the address
// itself plus the data-type tag of the entity stored there, both of which
// are folded into the signed bytes (spec §6's "target-kind-tag").
type PointerTarget struct {
	Kind    record.DataType `json:"kind"`
	Address xoraddr.Address `json:"address"`
}

// Pointer is a versioned, single-writer indirection record: its owner's
// monotonic counter decides which of several concurrently observed copies
// is current (spec §3, "last-writer-wins by monotonic counter").
type Pointer struct {
	Owner     keys.PublicKey `json:"owner"`
	Counter   uint64         `json:"counter"`
	Target    PointerTarget  `json:"target"`
	Signature keys.Signature `json:"signature"`
}

// Address derives a Pointer's network address from its owner's public key.
func (p Pointer) Address() xoraddr.Address { return p.Owner.Address() }

// signingBytes renders the canonical bytes a Pointer is signed over:
// counter (8 bytes, little-endian) || target.address().to_bytes() ||
// target-kind-tag, per spec §6.
func (p Pointer) signingBytes() []byte {
	buf := make([]byte, 8, 8+xoraddr.Size+1)
	binary.LittleEndian.PutUint64(buf, p.Counter)
	buf = append(buf, p.Target.Address.Bytes()...)
	buf = append(buf, byte(p.Target.Kind))
	return buf
}

// NewPointer signs a fresh Pointer at the given counter value. Counter 0 is
// used for pointer_create; pointer_update signs counter = max_observed+1.
func NewPointer(owner *keys.SecretKey, counter uint64, target PointerTarget) Pointer {
	p := Pointer{Owner: owner.PublicKey(), Counter: counter, Target: target}
	p.Signature = owner.Sign(p.signingBytes())
	return p
}

// Verify checks the Pointer's signature over its own canonical bytes.
func (p Pointer) Verify() bool {
	return p.Owner.Verify(p.Signature, p.signingBytes())
}

// supersedes implements the Pointer merge rule used by CRDT verification and
// by split resolution: a candidate supersedes the stored value if its
// counter is strictly greater.
func (p Pointer) supersedes(stored Pointer) bool {
	return p.Counter > stored.Counter
}
