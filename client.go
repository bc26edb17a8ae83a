// Package vaultmesh is the root client library (spec §4.6): thin,
// per-type orchestration atop the addressing/codec, self-encryption,
// quoting/payment, quorum engine, and upload pipeline packages.
//
// Grounded on the teacher's core/storage.go top-level API (CreateListing,
// OpenDeal, Release, Retrieve functions orchestrating its lower-level
// kademlia/escrow primitives) generalized to this spec's chunk/data/
// pointer/transaction/scratchpad operations.
package vaultmesh

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/synnergy-network/vaultmesh/netengine"
	"github.com/synnergy-network/vaultmesh/quote"
	"github.com/synnergy-network/vaultmesh/xoraddr"
)

// chunkCacheSize bounds the in-memory chunk cache. Chunks are immutable and
// content-addressed, so cached entries never go stale; this mirrors the
// teacher's on-disk LRU gateway cache (core/storage.go) minus the disk
// persistence, which this client has no equivalent need for.
const chunkCacheSize = 4096

// Client aggregates the external collaborators every typed operation
// needs. Per spec §9 ("shared handles"), these are shared by reference and
// never cloned by value — callers construct one Client and pass a pointer
// to it, or copy only the pointer.
type Client struct {
	Engine *netengine.Engine
	Quotes quote.QuoteSource
	Verify quote.QuoteVerifier
	Wallet quote.Wallet
	Logger *logrus.Logger

	// Events, if non-nil, receives a ClientEvent after every DataPut that
	// reaches the upload pipeline; a send that would block is dropped. The
	// channel is never closed by the client; callers own its lifetime.
	Events chan<- ClientEvent

	chunkCache *lru.Cache[xoraddr.Address, []byte]
}

// NewClient builds a Client from its collaborators. log defaults to a
// fresh logrus.Logger if nil.
func NewClient(engine *netengine.Engine, quotes quote.QuoteSource, verify quote.QuoteVerifier, wallet quote.Wallet, log *logrus.Logger) *Client {
	if log == nil {
		log = logrus.New()
	}
	cache, _ := lru.New[xoraddr.Address, []byte](chunkCacheSize)
	return &Client{Engine: engine, Quotes: quotes, Verify: verify, Wallet: wallet, Logger: log, chunkCache: cache}
}
