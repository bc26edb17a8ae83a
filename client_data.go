package vaultmesh

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/synnergy-network/vaultmesh/netengine"
	"github.com/synnergy-network/vaultmesh/quote"
	"github.com/synnergy-network/vaultmesh/record"
	"github.com/synnergy-network/vaultmesh/selfencrypt"
	"github.com/synnergy-network/vaultmesh/upload"
	"github.com/synnergy-network/vaultmesh/xoraddr"
)

// DataPut self-encrypts data, pays for every chunk address (data-map
// first), and uploads every chunk (including the data-map) through the
// bounded upload pipeline. It returns the data-map's address; if the
// pipeline reports any residual failure, the last one is surfaced as the
// operation error (spec §4.6).
func (c *Client) DataPut(ctx context.Context, data []byte) (xoraddr.Address, error) {
	dataMapChunk, chunks, err := selfencrypt.Encrypt(data)
	if err != nil {
		return xoraddr.Address{}, err
	}

	all := make([]selfencrypt.Chunk, 0, len(chunks)+1)
	all = append(all, dataMapChunk)
	all = append(all, chunks...)

	addrs := make([]quote.AddressSize, 0, len(all))
	for _, ch := range all {
		addrs = append(addrs, quote.AddressSize{Address: ch.Address, Size: len(ch.Ciphertext)})
	}

	payResult, err := quote.Pay(ctx, c.Quotes, c.Verify, c.Wallet, c.Logger, record.TypeChunk, addrs)
	if err != nil {
		return xoraddr.Address{}, err
	}

	putFn := func(ctx context.Context, rec record.Record) error {
		return c.Engine.Put(ctx, rec, netengine.PutConfig{Quorum: netengine.QuorumAll, Retry: netengine.RetryBalanced})
	}

	failures := upload.Upload(ctx, all, payResult.Receipts, upload.BatchSize(), putFn, c.Logger)

	c.emit(ClientEvent{Kind: EventUploadComplete, Summary: UploadSummary{
		DataMapAddress: dataMapChunk.Address,
		ChunksTotal:    len(all),
		ChunksSkipped:  len(payResult.Skipped),
		ChunksFailed:   len(failures),
	}})

	if len(failures) > 0 {
		last := failures[len(failures)-1]
		return xoraddr.Address{}, fmt.Errorf("%w: %v", ErrChunkUploadFailed, last)
	}
	return dataMapChunk.Address, nil
}

// DataGet fetches the data-map chunk at addr, then fetches every chunk it
// references with up to CHUNK_DOWNLOAD_BATCH_SIZE requests in flight at
// once, and reassembles the original bytes (spec §4.6, supplemented by
// the parallel-decrypt behavior of the original source).
func (c *Client) DataGet(ctx context.Context, addr xoraddr.Address) ([]byte, error) {
	dmBytes, err := c.ChunkGet(ctx, addr)
	if err != nil {
		return nil, err
	}
	dm, err := selfencrypt.DeserializeDataMap(dmBytes)
	if err != nil {
		return nil, err
	}

	sem := semaphore.NewWeighted(int64(upload.DownloadBatchSize()))
	var mu sync.Mutex
	var wg sync.WaitGroup
	chunksByAddr := make(map[xoraddr.Address][]byte, len(dm.Chunks))
	var firstErr error

	for _, ref := range dm.Chunks {
		ref := ref
		if err := sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			if firstErr == nil {
				firstErr = err
			}
			mu.Unlock()
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			b, err := c.ChunkGet(ctx, ref.Address)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			chunksByAddr[ref.Address] = b
		}()
	}
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return selfencrypt.Decrypt(dm, chunksByAddr)
}

// DataCost self-encrypts data, collects its chunk addresses, and sums the
// cheapest quoted price across all of them without settling payment.
func (c *Client) DataCost(ctx context.Context, data []byte) (quote.AttoTokens, error) {
	dataMapChunk, chunks, err := selfencrypt.Encrypt(data)
	if err != nil {
		return quote.Zero(), err
	}
	addrs := make([]quote.AddressSize, 0, len(chunks)+1)
	addrs = append(addrs, quote.AddressSize{Address: dataMapChunk.Address, Size: len(dataMapChunk.Ciphertext)})
	for _, ch := range chunks {
		addrs = append(addrs, quote.AddressSize{Address: ch.Address, Size: len(ch.Ciphertext)})
	}

	quotes, err := quote.GetStoreQuotes(ctx, c.Quotes, c.Verify, c.Logger, record.TypeChunk, addrs)
	if err != nil {
		return quote.Zero(), err
	}
	total := quote.Zero()
	for _, aq := range quotes {
		total = total.Add(aq.Price)
	}
	return total, nil
}
