package upload

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/synnergy-network/vaultmesh/quote"
	"github.com/synnergy-network/vaultmesh/record"
	"github.com/synnergy-network/vaultmesh/selfencrypt"
	"github.com/synnergy-network/vaultmesh/xoraddr"
)

func mkChunk(data string) selfencrypt.Chunk {
	b := []byte(data)
	return selfencrypt.Chunk{Address: xoraddr.Hash(b), Ciphertext: b}
}

func mkReceipts(chunks ...selfencrypt.Chunk) map[xoraddr.Address]quote.Receipt {
	out := make(map[xoraddr.Address]quote.Receipt, len(chunks))
	for _, c := range chunks {
		out[c.Address] = quote.Receipt{Price: quote.FromUint64(1)}
	}
	return out
}

func TestUploadAllSucceed(t *testing.T) {
	chunks := []selfencrypt.Chunk{mkChunk("a"), mkChunk("b"), mkChunk("c")}
	receipts := mkReceipts(chunks...)

	var mu sync.Mutex
	stored := map[xoraddr.Address]bool{}
	put := func(_ context.Context, rec record.Record) error {
		mu.Lock()
		defer mu.Unlock()
		stored[rec.Key] = true
		return nil
	}

	failures := Upload(context.Background(), chunks, receipts, 2, put, nil)
	if len(failures) != 0 {
		t.Fatalf("expected no failures, got %v", failures)
	}
	if len(stored) != len(chunks) {
		t.Fatalf("expected %d chunks stored, got %d", len(chunks), len(stored))
	}
}

func TestUploadSkipsChunksMissingFromReceipts(t *testing.T) {
	paid := mkChunk("paid")
	unpaid := mkChunk("unpaid")
	receipts := mkReceipts(paid)

	var mu sync.Mutex
	var attempted []xoraddr.Address
	put := func(_ context.Context, rec record.Record) error {
		mu.Lock()
		defer mu.Unlock()
		attempted = append(attempted, rec.Key)
		return nil
	}

	failures := Upload(context.Background(), []selfencrypt.Chunk{paid, unpaid}, receipts, 4, put, nil)
	if len(failures) != 0 {
		t.Fatalf("expected no failures, got %v", failures)
	}
	if len(attempted) != 1 || attempted[0] != paid.Address {
		t.Fatalf("expected only the paid chunk to be attempted, got %v", attempted)
	}
}

func TestUploadRetriesUpToThreePasses(t *testing.T) {
	c := mkChunk("flaky")
	receipts := mkReceipts(c)

	var mu sync.Mutex
	attempts := 0
	put := func(_ context.Context, _ record.Record) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts < 2 {
			return errors.New("transient")
		}
		return nil
	}

	failures := Upload(context.Background(), []selfencrypt.Chunk{c}, receipts, 4, put, nil)
	if len(failures) != 0 {
		t.Fatalf("expected recovery within retry budget, got %v", failures)
	}
	if attempts != 2 {
		t.Fatalf("expected exactly 2 attempts, got %d", attempts)
	}
}

func TestUploadReturnsResidualFailuresAfterFourAttempts(t *testing.T) {
	c := mkChunk("always-fails")
	receipts := mkReceipts(c)

	var mu sync.Mutex
	attempts := 0
	put := func(_ context.Context, _ record.Record) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		return errors.New("permanent")
	}

	failures := Upload(context.Background(), []selfencrypt.Chunk{c}, receipts, 4, put, nil)
	if len(failures) != 1 {
		t.Fatalf("expected exactly one residual failure, got %v", failures)
	}
	if want := 1 + RetryAttempts; attempts != want {
		t.Fatalf("expected %d attempts (1 initial + %d retries), got %d", want, RetryAttempts, attempts)
	}
}

func TestUploadDoesNotAbortSiblingsOnFailure(t *testing.T) {
	good := mkChunk("good")
	bad := mkChunk("bad")
	receipts := mkReceipts(good, bad)

	var mu sync.Mutex
	stored := map[xoraddr.Address]bool{}
	put := func(_ context.Context, rec record.Record) error {
		if rec.Key == bad.Address {
			return errors.New("permanent")
		}
		mu.Lock()
		defer mu.Unlock()
		stored[rec.Key] = true
		return nil
	}

	failures := Upload(context.Background(), []selfencrypt.Chunk{good, bad}, receipts, 4, put, nil)
	if len(failures) != 1 || failures[0].Chunk.Address != bad.Address {
		t.Fatalf("expected only the bad chunk to fail, got %v", failures)
	}
	if !stored[good.Address] {
		t.Fatalf("expected the good chunk to have been stored despite its sibling failing")
	}
}

func TestBatchSizeDefaultsAndOverrides(t *testing.T) {
	t.Setenv(BatchSizeEnv, "")
	if got := DefaultBatchSize(); got <= 0 {
		t.Fatalf("expected a positive default batch size, got %d", got)
	}

	t.Setenv(BatchSizeEnv, "7")
	if got := BatchSize(); got != 7 {
		t.Fatalf("expected override of 7, got %d", got)
	}
}
