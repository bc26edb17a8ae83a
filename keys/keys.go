// Package keys provides the owner keypairs used by Pointer, Transaction, and
// Scratchpad records. Signing uses secp256k1 (the curve the teacher's EVM
// wallet stack already depends on via github.com/decred/dcrd/dcrec/secp256k1),
// so the same keypair family can eventually settle payments and sign records
// without pulling in a second curve implementation.
package keys

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	bip39 "github.com/tyler-smith/go-bip39"

	"github.com/synnergy-network/vaultmesh/xoraddr"
)

// masterHMACKey seeds the HMAC-SHA512 master key derivation from a BIP-39
// seed, the same SLIP-0010-style construction the teacher's HD wallet uses
// (core/wallet.go's NewHDWalletFromSeed), generalized from an ed25519
// 32-byte key half to a secp256k1 scalar.
const masterHMACKey = "vaultmesh owner seed"

// SecretKey is an owner's private signing key.
type SecretKey struct {
	priv *secp256k1.PrivateKey
}

// PublicKey is an owner's public verification key.
type PublicKey struct {
	pub *secp256k1.PublicKey
}

// Signature is a detached signature over a canonical byte encoding.
type Signature struct {
	sig *ecdsa.Signature
}

// GenerateSecretKey creates a new random owner keypair.
func GenerateSecretKey() (*SecretKey, error) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate secret key: %w", err)
	}
	return &SecretKey{priv: priv}, nil
}

// SecretKeyFromBytes parses a 32-byte scalar into a SecretKey.
func SecretKeyFromBytes(b []byte) *SecretKey {
	return &SecretKey{priv: secp256k1.PrivKeyFromBytes(b)}
}

// GenerateMnemonic returns a fresh BIP-39 recovery phrase of entropyBits of
// randomness (128 for 12 words, 256 for 24), the human-recoverable form of
// an owner keypair. Grounded on the teacher's NewRandomWallet
// (core/wallet.go), which generates the same phrase for its HD wallet seed.
func GenerateMnemonic(entropyBits int) (string, error) {
	entropy, err := bip39.NewEntropy(entropyBits)
	if err != nil {
		return "", fmt.Errorf("keys: generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("keys: generate mnemonic: %w", err)
	}
	return mnemonic, nil
}

// SecretKeyFromMnemonic recovers the owner SecretKey deterministically
// derived from a BIP-39 mnemonic and an optional passphrase. The seed is
// expanded into a secp256k1 scalar via HMAC-SHA512 keyed by masterHMACKey,
// the same SLIP-0010-style master-key split the teacher's
// NewHDWalletFromSeed performs before any hardened child derivation; this
// package has no need for a derivation tree, so only the master key half is
// used.
func SecretKeyFromMnemonic(mnemonic, passphrase string) (*SecretKey, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, errors.New("keys: invalid mnemonic checksum")
	}
	seed := bip39.NewSeed(mnemonic, passphrase)
	mac := hmac.New(sha512.New, []byte(masterHMACKey))
	mac.Write(seed)
	I := mac.Sum(nil)
	return SecretKeyFromBytes(I[:32]), nil
}

// Bytes returns the raw 32-byte scalar encoding of the secret key.
func (sk *SecretKey) Bytes() []byte {
	return sk.priv.Serialize()
}

// PublicKey derives the owner's public key.
func (sk *SecretKey) PublicKey() PublicKey {
	return PublicKey{pub: sk.priv.PubKey()}
}

// Sign produces a detached signature over msg.
func (sk *SecretKey) Sign(msg []byte) Signature {
	digest := xoraddr.Hash(msg)
	sig := ecdsa.Sign(sk.priv, digest[:])
	return Signature{sig: sig}
}

// Bytes returns the compressed 33-byte public key encoding.
func (pk PublicKey) Bytes() []byte {
	return pk.pub.SerializeCompressed()
}

// PublicKeyFromBytes parses a compressed 33-byte public key.
func PublicKeyFromBytes(b []byte) (PublicKey, error) {
	pub, err := secp256k1.ParsePubKey(b)
	if err != nil {
		return PublicKey{}, fmt.Errorf("parse public key: %w", err)
	}
	return PublicKey{pub: pub}, nil
}

// Address derives the network address of the owner of pk: the hash of its
// compressed public key bytes, per the data model's "derived from owner
// public key" rule for Pointer, Transaction, and Scratchpad.
func (pk PublicKey) Address() xoraddr.Address {
	return xoraddr.Hash(pk.Bytes())
}

// Equal reports whether two public keys are the same point.
func (pk PublicKey) Equal(other PublicKey) bool {
	return pk.pub.IsEqual(other.pub)
}

// Verify checks sig over msg was produced by pk.
func (pk PublicKey) Verify(sig Signature, msg []byte) bool {
	if sig.sig == nil || pk.pub == nil {
		return false
	}
	digest := xoraddr.Hash(msg)
	return sig.sig.Verify(digest[:], pk.pub)
}

// MarshalJSON renders the public key as its hex-encoded compressed form, so
// entities embedding a PublicKey serialize cleanly through encoding/json.
func (pk PublicKey) MarshalJSON() ([]byte, error) {
	if pk.pub == nil {
		return json.Marshal("")
	}
	return json.Marshal(hex.EncodeToString(pk.Bytes()))
}

// UnmarshalJSON parses the hex encoding produced by MarshalJSON.
func (pk *PublicKey) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*pk = PublicKey{}
		return nil
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("decode public key hex: %w", err)
	}
	parsed, err := PublicKeyFromBytes(b)
	if err != nil {
		return err
	}
	*pk = parsed
	return nil
}

// Bytes returns the DER encoding of the signature, used when a Signature
// needs to travel over the wire as part of a serialized record.
func (s Signature) Bytes() []byte {
	if s.sig == nil {
		return nil
	}
	return s.sig.Serialize()
}

// SignatureFromBytes parses a DER-encoded signature.
func SignatureFromBytes(b []byte) (Signature, error) {
	sig, err := ecdsa.ParseDERSignature(b)
	if err != nil {
		return Signature{}, fmt.Errorf("parse signature: %w", err)
	}
	return Signature{sig: sig}, nil
}

// IsZero reports whether the signature is the zero value (unset).
func (s Signature) IsZero() bool {
	return s.sig == nil
}

// MarshalJSON renders the signature as its hex-encoded DER form.
func (s Signature) MarshalJSON() ([]byte, error) {
	if s.sig == nil {
		return json.Marshal("")
	}
	return json.Marshal(hex.EncodeToString(s.Bytes()))
}

// UnmarshalJSON parses the hex encoding produced by MarshalJSON.
func (s *Signature) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	if str == "" {
		*s = Signature{}
		return nil
	}
	b, err := hex.DecodeString(str)
	if err != nil {
		return fmt.Errorf("decode signature hex: %w", err)
	}
	parsed, err := SignatureFromBytes(b)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
