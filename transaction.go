package vaultmesh

import (
	"bytes"

	"github.com/synnergy-network/vaultmesh/keys"
	"github.com/synnergy-network/vaultmesh/xoraddr"
)

// Output is one (public key, 32-byte content) pair in a Transaction's
// outputs list.
type Output struct {
	PublicKey keys.PublicKey `json:"public_key"`
	Content   [32]byte       `json:"content"`
}

// Transaction is a signed, append-only record forming a lineage DAG via its
// Parents: each transaction references the public keys of the transactions
// it spends from (spec §3).
type Transaction struct {
	Owner     keys.PublicKey   `json:"owner"`
	Parents   []keys.PublicKey `json:"parents"`
	Content   [32]byte         `json:"content"`
	Outputs   []Output         `json:"outputs"`
	Signature keys.Signature   `json:"signature"`
}

// Address derives a Transaction's network address from its owner's public
// key, matching Pointer and Scratchpad.
func (t Transaction) Address() xoraddr.Address { return t.Owner.Address() }

// signingBytes renders the canonical bytes a Transaction is signed over, per
// spec §6: owner.to_bytes() || "parent" || (each parent's bytes
// concatenated) || "content" || content || "outputs" || (for each output:
// public-key bytes || content). Permuting Outputs changes these bytes,
// which is the property end-to-end scenario 8 exercises.
func (t Transaction) signingBytes() []byte {
	var buf bytes.Buffer
	buf.Write(t.Owner.Bytes())
	buf.WriteString("parent")
	for _, p := range t.Parents {
		buf.Write(p.Bytes())
	}
	buf.WriteString("content")
	buf.Write(t.Content[:])
	buf.WriteString("outputs")
	for _, o := range t.Outputs {
		buf.Write(o.PublicKey.Bytes())
		buf.Write(o.Content[:])
	}
	return buf.Bytes()
}

// NewTransaction signs a fresh Transaction over its canonical bytes.
func NewTransaction(owner *keys.SecretKey, parents []keys.PublicKey, content [32]byte, outputs []Output) Transaction {
	t := Transaction{Owner: owner.PublicKey(), Parents: parents, Content: content, Outputs: outputs}
	t.Signature = owner.Sign(t.signingBytes())
	return t
}

// Verify checks the Transaction's signature over its own canonical bytes;
// spec §8 invariant 5 requires this before storage acceptance.
func (t Transaction) Verify() bool {
	return t.Owner.Verify(t.Signature, t.signingBytes())
}
