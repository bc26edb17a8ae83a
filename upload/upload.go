// Package upload implements the bounded-concurrency chunk upload pipeline
// (spec §4.5): fan out a blob's chunks against a receipt map, bound by a
// configurable batch size, retrying the failed subset for up to
// RetryAttempts additional passes after the initial one before surfacing
// residual failures.
//
// Each pass is a goroutine fan-out bounded by a batch-size semaphore that
// collects per-chunk outcomes rather than aborting on first error, repeated
// as an initial attempt plus RetryAttempts retries of the residual subset (spec §8 testable property 7: at most
// chunks * (1 + RETRY_ATTEMPTS) put attempts). Bounded fan-out itself is
// grounded on golang.org/x/sync/semaphore, used the same way across the
// pack's concurrent-I/O packages.
package upload

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/synnergy-network/vaultmesh/quote"
	"github.com/synnergy-network/vaultmesh/record"
	"github.com/synnergy-network/vaultmesh/selfencrypt"
	"github.com/synnergy-network/vaultmesh/xoraddr"

	"github.com/synnergy-network/vaultmesh/pkg/utils"
)

// RetryAttempts is the number of full retry passes the pipeline performs
// over the residual failed subset after its initial pass, per spec §4.5 and
// the RETRY_ATTEMPTS constant the ground truth (autonomi's client/data.rs)
// gives up after exceeding: one initial pass plus RetryAttempts retries is
// 1+RetryAttempts total attempts per chunk.
const RetryAttempts = 3

// BatchSizeEnv and its download-side counterpart name the environment
// variables that override the default fan-out bound (spec §6).
const (
	BatchSizeEnv         = "CHUNK_UPLOAD_BATCH_SIZE"
	DownloadBatchSizeEnv = "CHUNK_DOWNLOAD_BATCH_SIZE"
)

// DefaultBatchSize returns available_parallelism * 8, the spec's default
// fan-out bound, absent an environment override.
func DefaultBatchSize() int {
	return runtime.GOMAXPROCS(0) * 8
}

// BatchSize resolves the configured upload fan-out bound: the named
// environment variable if set and valid, else DefaultBatchSize().
func BatchSize() int {
	return utils.EnvOrDefaultInt(BatchSizeEnv, DefaultBatchSize())
}

// DownloadBatchSize resolves the configured download fan-out bound.
func DownloadBatchSize() int {
	return utils.EnvOrDefaultInt(DownloadBatchSizeEnv, DefaultBatchSize())
}

// PutFunc performs a single record put. Typically a closure over a
// configured netengine.Engine and a netengine.PutConfig; kept as a plain
// function type here so this package does not need to import netengine's
// concrete configuration shape.
type PutFunc func(ctx context.Context, rec record.Record) error

// PutError pairs a chunk that remained failed after every retry pass with
// the error from its final attempt.
type PutError struct {
	Chunk selfencrypt.Chunk
	Err   error
}

func (e PutError) Error() string {
	return fmt.Sprintf("upload: chunk %s failed: %v", e.Chunk.Address.Short(), e.Err)
}

// Upload drives chunks through put, bounded by batchSize concurrent puts,
// skipping any chunk missing from receipts (already paid for), and retrying
// the failed subset for up to RetryAttempts passes after its initial attempt
// (1+RetryAttempts total attempts per chunk), reusing the same proofs. It
// returns the residual failures; an empty slice means every payable chunk
// was stored.
func Upload(ctx context.Context, chunks []selfencrypt.Chunk, receipts map[xoraddr.Address]quote.Receipt, batchSize int, put PutFunc, log *logrus.Logger) []PutError {
	if log == nil {
		log = logrus.New()
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize()
	}

	pending := make([]selfencrypt.Chunk, 0, len(chunks))
	for _, c := range chunks {
		if _, ok := receipts[c.Address]; !ok {
			log.Debugf("upload: skipping chunk %s, not present in receipt map", c.Address.Short())
			continue
		}
		pending = append(pending, c)
	}

	totalAttempts := 1 + RetryAttempts
	var failures []PutError
	for attempt := 1; attempt <= totalAttempts && len(pending) > 0; attempt++ {
		log.Debugf("upload: attempt %d/%d, %d chunks in flight", attempt, totalAttempts, len(pending))
		failures = runPass(ctx, pending, receipts, batchSize, put)
		if len(failures) == 0 {
			return nil
		}
		pending = pending[:0]
		for _, f := range failures {
			pending = append(pending, f.Chunk)
		}
	}
	return failures
}

// runPass attempts every chunk in pending exactly once, bounded by
// batchSize concurrent attempts, and returns the outcomes that failed.
// It never aborts sibling attempts on the first failure.
func runPass(ctx context.Context, pending []selfencrypt.Chunk, receipts map[xoraddr.Address]quote.Receipt, batchSize int, put PutFunc) []PutError {
	sem := semaphore.NewWeighted(int64(batchSize))
	var mu sync.Mutex
	var failures []PutError
	var wg sync.WaitGroup

	for _, c := range pending {
		c := c
		if err := sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			failures = append(failures, PutError{Chunk: c, Err: err})
			mu.Unlock()
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			receipt := receipts[c.Address]
			rec, err := record.EncodeChunkWithPayment(receipt.Proof, c.Ciphertext)
			if err != nil {
				mu.Lock()
				failures = append(failures, PutError{Chunk: c, Err: err})
				mu.Unlock()
				return
			}
			if err := put(ctx, rec); err != nil {
				mu.Lock()
				failures = append(failures, PutError{Chunk: c, Err: err})
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return failures
}
