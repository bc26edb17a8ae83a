package vaultmesh

import (
	"context"
	"fmt"

	"github.com/synnergy-network/vaultmesh/netengine"
	"github.com/synnergy-network/vaultmesh/quote"
	"github.com/synnergy-network/vaultmesh/record"
	"github.com/synnergy-network/vaultmesh/xoraddr"
)

// ChunkGet fetches and decodes the chunk stored at addr: a quorum-one get
// whose header-kind must be Chunk (spec §4.6). The stored record may carry
// an embedded payment proof left over from its original
// chunk_upload_with_payment write; that proof is discarded here since it
// has already served its purpose of gating the write.
func (c *Client) ChunkGet(ctx context.Context, addr xoraddr.Address) ([]byte, error) {
	if c.chunkCache != nil {
		if cached, ok := c.chunkCache.Get(addr); ok {
			return cached, nil
		}
	}

	rec, err := c.Engine.Get(ctx, addr, netengine.GetConfig{Quorum: netengine.QuorumOne, Retry: netengine.RetryBalanced})
	if err != nil {
		return nil, err
	}
	if rec.Kind.Type != record.TypeChunk {
		return nil, fmt.Errorf("%w: expected Chunk, got %s", record.ErrRecordKindMismatch, rec.Kind.Type)
	}

	var ciphertext []byte
	if rec.Kind.WithPayment {
		var proof any
		ciphertext, err = record.DecodeChunkWithPayment(rec, &proof)
	} else {
		ciphertext, err = record.DecodeChunk(rec)
	}
	if err != nil {
		return nil, err
	}

	if c.chunkCache != nil {
		c.chunkCache.Add(addr, ciphertext)
	}
	return ciphertext, nil
}

// ChunkUploadWithPayment stores ciphertext with proof embedded
// (DataWithPayment(Chunk)), quorum-all, no verification (spec §4.6).
func (c *Client) ChunkUploadWithPayment(ctx context.Context, ciphertext []byte, proof quote.ProofOfPayment) error {
	rec, err := record.EncodeChunkWithPayment(proof, ciphertext)
	if err != nil {
		return err
	}
	return c.Engine.Put(ctx, rec, netengine.PutConfig{Quorum: netengine.QuorumAll, Retry: netengine.RetryBalanced})
}
