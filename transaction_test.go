package vaultmesh

import (
	"testing"

	"github.com/synnergy-network/vaultmesh/keys"
)

func TestTransactionSignVerifyRoundTrip(t *testing.T) {
	owner := mustKey(t)
	parent := mustKey(t)
	recipient := mustKey(t)

	content := [32]byte{1, 2, 3}
	outputs := []Output{{PublicKey: recipient.PublicKey(), Content: [32]byte{9, 9, 9}}}
	parents := []keys.PublicKey{parent.PublicKey()}

	tx := NewTransaction(owner, parents, content, outputs)
	if !tx.Verify() {
		t.Fatalf("freshly signed transaction did not verify")
	}
	if tx.Address() != owner.PublicKey().Address() {
		t.Fatalf("transaction address should derive from owner's public key")
	}
}

func TestTransactionVerifyRejectsTamperedContent(t *testing.T) {
	owner := mustKey(t)
	tx := NewTransaction(owner, nil, [32]byte{1}, nil)
	tx.Content = [32]byte{2}
	if tx.Verify() {
		t.Fatalf("transaction with tampered content should not verify")
	}
}

func TestTransactionVerifyRejectsReorderedOutputs(t *testing.T) {
	owner := mustKey(t)
	a := mustKey(t)
	b := mustKey(t)
	outputs := []Output{
		{PublicKey: a.PublicKey(), Content: [32]byte{1}},
		{PublicKey: b.PublicKey(), Content: [32]byte{2}},
	}
	tx := NewTransaction(owner, nil, [32]byte{}, outputs)

	tx.Outputs[0], tx.Outputs[1] = tx.Outputs[1], tx.Outputs[0]
	if tx.Verify() {
		t.Fatalf("permuting outputs should invalidate the signature")
	}
}

func TestTransactionVerifyRejectsExtraParent(t *testing.T) {
	owner := mustKey(t)
	p1 := mustKey(t)
	p2 := mustKey(t)
	tx := NewTransaction(owner, []keys.PublicKey{p1.PublicKey()}, [32]byte{}, nil)

	tx.Parents = append(tx.Parents, p2.PublicKey())
	if tx.Verify() {
		t.Fatalf("adding an unsigned parent should invalidate the signature")
	}
}
