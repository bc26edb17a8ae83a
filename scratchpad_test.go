package vaultmesh

import "testing"

func TestScratchpadSignVerifyRoundTrip(t *testing.T) {
	owner := mustKey(t)
	sp := NewScratchpad(owner, 0, []byte("hello"))
	if !sp.Verify() {
		t.Fatalf("freshly signed scratchpad did not verify")
	}
	if sp.Address() != owner.PublicKey().Address() {
		t.Fatalf("scratchpad address should derive from owner's public key")
	}
}

func TestScratchpadVerifyRejectsTamperedContent(t *testing.T) {
	owner := mustKey(t)
	sp := NewScratchpad(owner, 0, []byte("hello"))
	sp.Content = []byte("goodbye")
	if sp.Verify() {
		t.Fatalf("scratchpad with tampered content should not verify")
	}
}

func TestScratchpadSupersedesByCounter(t *testing.T) {
	owner := mustKey(t)
	old := NewScratchpad(owner, 1, []byte("v1"))
	next := NewScratchpad(owner, 2, []byte("v2"))
	same := NewScratchpad(owner, 1, []byte("v1-again"))

	if !next.supersedes(old) {
		t.Fatalf("counter 2 should supersede counter 1")
	}
	if old.supersedes(next) {
		t.Fatalf("counter 1 should not supersede counter 2")
	}
	if same.supersedes(old) {
		t.Fatalf("equal counters should not supersede one another")
	}
}

func TestScratchpadContentIsCopiedNotAliased(t *testing.T) {
	owner := mustKey(t)
	content := []byte("original")
	sp := NewScratchpad(owner, 0, content)
	content[0] = 'X'
	if sp.Content[0] == 'X' {
		t.Fatalf("NewScratchpad should copy content, not alias the caller's slice")
	}
}
