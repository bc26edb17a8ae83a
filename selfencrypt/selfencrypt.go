// Package selfencrypt implements the convergent self-encryption scheme
// described in spec §4.2: a blob is split into chunks whose encryption keys
// are derived from the content hashes of sibling chunks, so identical input
// bytes always yield an identical data-map and an identical set of
// ciphertext chunks (determinism + content addressing), while the original
// bytes can be reconstructed from the data-map and chunks alone.
//
// The actual cipher (AES-256-CTR, keyed and IV'd from sibling content
// hashes) is built on stdlib crypto/aes and crypto/cipher: none of the
// example repos in the retrieval pack ship a convergent/self-encryption
// primitive, so this is the one component of the pipeline implemented on
// the standard library rather than a pack dependency — see DESIGN.md.
package selfencrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/synnergy-network/vaultmesh/xoraddr"
)

// MaxChunkSize bounds the plaintext size of any one chunk. A blob larger
// than 3*MaxChunkSize is split into more, evenly sized chunks; a blob at or
// below it is always split into exactly 3 (self-encryption's minimum fan
// out, required so each chunk's key can be derived from two distinct
// siblings).
const MaxChunkSize = 1 << 20 // 1 MiB, matches the teacher's chunk-oriented gateway cache entries being whole-file sized

// MinEncryptableSize is the smallest input Encrypt accepts. Below this there
// are not enough bytes to form 3 non-empty chunks.
const MinEncryptableSize = 3

// Error is returned when input cannot be self-encrypted.
var Error = errors.New("selfencrypt: input too small")

// ChunkRef describes one chunk within a DataMap: its ciphertext address,
// the symmetric key+iv needed to decrypt it, and the plaintext byte range
// it reconstitutes.
type ChunkRef struct {
	Address    xoraddr.Address `json:"address"`
	Key        [32]byte        `json:"key"`
	IV         [16]byte        `json:"iv"`
	RangeStart int64           `json:"range_start"`
	RangeEnd   int64           `json:"range_end"`
}

// DataMap is the ordered index of chunks that reconstitute a blob. It is
// itself wrapped as a Chunk and addressed the same way any other chunk is:
// by the hash of its serialized (and, for symmetry with sibling chunks,
// unencrypted — data-maps are not further self-encrypted) bytes.
type DataMap struct {
	Chunks []ChunkRef `json:"chunks"`
	Size   int64      `json:"size"`
}

// Chunk is an immutable, content-addressed ciphertext chunk.
type Chunk struct {
	Address    xoraddr.Address
	Ciphertext []byte
}

// Serialize renders the data map deterministically for addressing/storage.
func (dm DataMap) Serialize() ([]byte, error) {
	return json.Marshal(dm)
}

// DeserializeDataMap parses bytes produced by DataMap.Serialize.
func DeserializeDataMap(b []byte) (DataMap, error) {
	var dm DataMap
	if err := json.Unmarshal(b, &dm); err != nil {
		return DataMap{}, fmt.Errorf("selfencrypt: corrupt data map: %w", err)
	}
	return dm, nil
}

// Encrypt splits data into chunks and produces the data map describing how
// to reconstitute it. The data map is wrapped as a Chunk (DataMapChunk);
// callers typically upload it alongside Chunks through the same pipeline.
func Encrypt(data []byte) (dataMapChunk Chunk, chunks []Chunk, err error) {
	if len(data) < MinEncryptableSize {
		return Chunk{}, nil, fmt.Errorf("%w: need at least %d bytes, got %d", Error, MinEncryptableSize, len(data))
	}

	boundaries := chunkBoundaries(int64(len(data)))
	n := len(boundaries)

	rawHashes := make([][32]byte, n)
	for i, b := range boundaries {
		rawHashes[i] = sha256.Sum256(data[b.start:b.end])
	}

	chunks = make([]Chunk, n)
	refs := make([]ChunkRef, n)
	for i, b := range boundaries {
		key, iv := deriveKeyIV(rawHashes[(i+1)%n], rawHashes[(i+2)%n])
		ciphertext, encErr := encryptCTR(key, iv, data[b.start:b.end])
		if encErr != nil {
			return Chunk{}, nil, fmt.Errorf("selfencrypt: encrypt chunk %d: %w", i, encErr)
		}
		addr := xoraddr.Hash(ciphertext)
		chunks[i] = Chunk{Address: addr, Ciphertext: ciphertext}
		refs[i] = ChunkRef{Address: addr, Key: key, IV: iv, RangeStart: b.start, RangeEnd: b.end}
	}

	dm := DataMap{Chunks: refs, Size: int64(len(data))}
	dmBytes, err := dm.Serialize()
	if err != nil {
		return Chunk{}, nil, fmt.Errorf("selfencrypt: serialize data map: %w", err)
	}
	dataMapChunk = Chunk{Address: xoraddr.Hash(dmBytes), Ciphertext: dmBytes}

	zap.L().Sugar().Debugw("self-encrypted blob", "input_bytes", len(data), "chunks", n, "data_map_addr", dataMapChunk.Address)
	return dataMapChunk, chunks, nil
}

// Decrypt reconstructs the original bytes given a data map and the full set
// of chunks it references (keyed by ciphertext address). Callers fetch
// chunks in any order or in parallel; Decrypt reassembles by plaintext
// range regardless of arrival order.
func Decrypt(dm DataMap, chunksByAddr map[xoraddr.Address][]byte) ([]byte, error) {
	out := make([]byte, dm.Size)
	for _, ref := range dm.Chunks {
		ciphertext, ok := chunksByAddr[ref.Address]
		if !ok {
			return nil, fmt.Errorf("selfencrypt: missing chunk %s", ref.Address.Short())
		}
		plain, err := decryptCTR(ref.Key, ref.IV, ciphertext)
		if err != nil {
			return nil, fmt.Errorf("selfencrypt: decrypt chunk %s: %w", ref.Address.Short(), err)
		}
		if int64(len(plain)) != ref.RangeEnd-ref.RangeStart {
			return nil, fmt.Errorf("selfencrypt: chunk %s decrypted to wrong length", ref.Address.Short())
		}
		copy(out[ref.RangeStart:ref.RangeEnd], plain)
	}
	return out, nil
}

type boundary struct{ start, end int64 }

// chunkBoundaries splits size bytes into evenly sized pieces: exactly 3 for
// anything at or under 3*MaxChunkSize, otherwise ceil(size/MaxChunkSize)
// pieces, matching the end-to-end scenario (a 1 MiB blob yields exactly 3
// chunks under the default MaxChunkSize).
func chunkBoundaries(size int64) []boundary {
	n := int64(3)
	if size > 3*MaxChunkSize {
		n = (size + MaxChunkSize - 1) / MaxChunkSize
	}
	base := size / n
	rem := size % n
	out := make([]boundary, n)
	var pos int64
	for i := int64(0); i < n; i++ {
		sz := base
		if i < rem {
			sz++
		}
		out[i] = boundary{start: pos, end: pos + sz}
		pos += sz
	}
	return out
}

func deriveKeyIV(hashA, hashB [32]byte) (key [32]byte, iv [16]byte) {
	h := sha256.New()
	h.Write(hashA[:])
	h.Write(hashB[:])
	key = sha256.Sum256(h.Sum(nil))
	ivHash := sha256.Sum256(append(append([]byte{}, hashB[:]...), hashA[:]...))
	copy(iv[:], ivHash[:16])
	return key, iv
}

func encryptCTR(key [32]byte, iv [16]byte, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	stream := cipher.NewCTR(block, iv[:])
	out := make([]byte, len(plaintext))
	stream.XORKeyStream(out, plaintext)
	return out, nil
}

func decryptCTR(key [32]byte, iv [16]byte, ciphertext []byte) ([]byte, error) {
	// CTR mode is symmetric.
	return encryptCTR(key, iv, ciphertext)
}
