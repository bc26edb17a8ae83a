package keys

import "testing"

func TestSignVerifyRoundTrip(t *testing.T) {
	sk, err := GenerateSecretKey()
	if err != nil {
		t.Fatalf("GenerateSecretKey: %v", err)
	}
	pk := sk.PublicKey()
	msg := []byte("counter=1||target=abc")

	sig := sk.Sign(msg)
	if !pk.Verify(sig, msg) {
		t.Fatalf("signature did not verify")
	}
	if pk.Verify(sig, []byte("tampered")) {
		t.Fatalf("signature verified against a different message")
	}
}

func TestPublicKeyBytesRoundTrip(t *testing.T) {
	sk, err := GenerateSecretKey()
	if err != nil {
		t.Fatalf("GenerateSecretKey: %v", err)
	}
	pk := sk.PublicKey()
	raw := pk.Bytes()

	back, err := PublicKeyFromBytes(raw)
	if err != nil {
		t.Fatalf("PublicKeyFromBytes: %v", err)
	}
	if !pk.Equal(back) {
		t.Fatalf("round-tripped public key does not match original")
	}
}

func TestAddressDerivedFromOwner(t *testing.T) {
	sk1, _ := GenerateSecretKey()
	sk2, _ := GenerateSecretKey()

	a1 := sk1.PublicKey().Address()
	a1again := sk1.PublicKey().Address()
	a2 := sk2.PublicKey().Address()

	if a1 != a1again {
		t.Fatalf("address derivation is not deterministic")
	}
	if a1 == a2 {
		t.Fatalf("distinct owners produced the same address")
	}
}

func TestGenerateMnemonicIsRecoverable(t *testing.T) {
	mnemonic, err := GenerateMnemonic(128)
	if err != nil {
		t.Fatalf("GenerateMnemonic: %v", err)
	}

	sk1, err := SecretKeyFromMnemonic(mnemonic, "")
	if err != nil {
		t.Fatalf("SecretKeyFromMnemonic: %v", err)
	}
	sk2, err := SecretKeyFromMnemonic(mnemonic, "")
	if err != nil {
		t.Fatalf("SecretKeyFromMnemonic (second derivation): %v", err)
	}
	if !sk1.PublicKey().Equal(sk2.PublicKey()) {
		t.Fatalf("deriving from the same mnemonic twice produced different keys")
	}

	other, err := SecretKeyFromMnemonic(mnemonic, "passphrase")
	if err != nil {
		t.Fatalf("SecretKeyFromMnemonic with passphrase: %v", err)
	}
	if sk1.PublicKey().Equal(other.PublicKey()) {
		t.Fatalf("different passphrases produced the same key")
	}
}

func TestSecretKeyFromMnemonicRejectsInvalidChecksum(t *testing.T) {
	bad := "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon"
	if _, err := SecretKeyFromMnemonic(bad, ""); err == nil {
		t.Fatalf("expected invalid checksum to be rejected")
	}
}
