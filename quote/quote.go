// Package quote implements store-quote collection and payment settlement
// (spec §4.3): for a set of addresses, gather signed price quotes from the
// closest peers, settle them through an external wallet, and bind the
// resulting proofs to the specific payee peers that must be targeted on the
// subsequent put.
//
// Grounded on the teacher's core/storage.go escrow flow (CreateListing →
// OpenDeal → Release), generalized from a single-escrow-per-deal ledger
// entry to a quote-per-address, AttoTokens-denominated settlement backed by
// an EVM wallet (github.com/ethereum/go-ethereum's common.Hash,
// github.com/holiman/uint256 for the 256-bit amount type) rather than the
// teacher's internal token ledger.
package quote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/sirupsen/logrus"

	"github.com/synnergy-network/vaultmesh/record"
	"github.com/synnergy-network/vaultmesh/xoraddr"
)

// AttoTokens is a 256-bit fixed-point token amount (1 token = 1e18 atto),
// matching the original source's ant_evm::AttoTokens.
type AttoTokens struct {
	inner *uint256.Int
}

// Zero is the zero AttoTokens amount.
func Zero() AttoTokens { return AttoTokens{inner: uint256.NewInt(0)} }

// FromUint64 builds an AttoTokens amount from a plain integer count.
func FromUint64(v uint64) AttoTokens { return AttoTokens{inner: uint256.NewInt(v)} }

// Add returns a + b.
func (a AttoTokens) Add(b AttoTokens) AttoTokens {
	out := new(uint256.Int).Add(a.ensure(), b.ensure())
	return AttoTokens{inner: out}
}

// IsZero reports whether the amount is zero.
func (a AttoTokens) IsZero() bool { return a.ensure().IsZero() }

// Equal reports whether a and b denote the same amount.
func (a AttoTokens) Equal(b AttoTokens) bool { return a.ensure().Eq(b.ensure()) }

func (a AttoTokens) ensure() *uint256.Int {
	if a.inner == nil {
		return uint256.NewInt(0)
	}
	return a.inner
}

// String renders the amount in atto units.
func (a AttoTokens) String() string { return a.ensure().String() }

// PeerID aliases the DHT peer identity type used throughout vaultmesh.
type PeerID = peer.ID

// Quote is a peer's signed offer to store one address for a given price,
// valid until Expiry.
type Quote struct {
	Peer      PeerID          `json:"peer"`
	Price     AttoTokens      `json:"price"`
	DataType  record.DataType `json:"data_type"`
	Target    xoraddr.Address `json:"target"`
	Expiry    time.Time       `json:"expiry"`
	Signature []byte          `json:"signature"`
}

// verify checks the quote's signature and that it has not expired as of
// now. The signing scheme is delegated to a caller-supplied verifier so
// quote verification does not force every peer to share vaultmesh's
// particular keys package; production wiring plugs in the network's peer
// identity keys.
func (q Quote) verify(now time.Time, verifier func(Quote) bool) error {
	if now.After(q.Expiry) {
		return fmt.Errorf("%w: quote for %s from %s expired at %s", ErrInvalidQuote, q.Target.Short(), q.Peer, q.Expiry)
	}
	if verifier != nil && !verifier(q) {
		return fmt.Errorf("%w: bad signature for %s from %s", ErrInvalidQuote, q.Target.Short(), q.Peer)
	}
	return nil
}

// ProofOfPayment binds a settled payment to the specific payee peers that
// must be targeted on the subsequent put.
type ProofOfPayment struct {
	Quote     Quote       `json:"quote"`
	Payees    []PeerID    `json:"payees"`
	TxHash    common.Hash `json:"tx_hash"`
	SettledAt time.Time   `json:"settled_at"`
}

// Errors returned by this package, per spec §4.3/§7.
var (
	ErrInvalidQuote = errors.New("quote: invalid quote")
	ErrPay          = errors.New("quote: payment failed")
)

// CouldNotGetStoreQuoteError is returned when no valid quote could be
// obtained for an address after the retry budget is exhausted.
type CouldNotGetStoreQuoteError struct {
	Address xoraddr.Address
}

func (e *CouldNotGetStoreQuoteError) Error() string {
	return fmt.Sprintf("quote: could not get store quote for %s after several retries", e.Address.Short())
}

// QuoteSource is the network collaborator this package needs: given an
// address, return the candidate quotes offered by the closest peers.
type QuoteSource interface {
	RequestQuotes(ctx context.Context, dataType record.DataType, addr xoraddr.Address, size int) ([]Quote, error)
}

// QuoteVerifier validates a quote's peer signature. Kept separate from
// QuoteSource so tests can supply a trivial always-valid verifier.
type QuoteVerifier func(Quote) bool

// AddressSize pairs an address with the payload size being quoted for.
type AddressSize struct {
	Address xoraddr.Address
	Size    int
}

// AddressQuotes is the per-address result of GetStoreQuotes: the peers that
// answered, their individual quotes, and the cheapest valid price.
type AddressQuotes struct {
	Peers  []PeerID
	Quotes []Quote
	Price  AttoTokens
}

const storeQuoteRetryAttempts = 3

// GetStoreQuotes queries the network for each address, keeping only quotes
// whose signature and expiry check out, and retries per-address up to
// storeQuoteRetryAttempts before failing with CouldNotGetStoreQuoteError.
func GetStoreQuotes(ctx context.Context, src QuoteSource, verify QuoteVerifier, log *logrus.Logger, dataType record.DataType, addrs []AddressSize) (map[xoraddr.Address]AddressQuotes, error) {
	if log == nil {
		log = logrus.New()
	}
	out := make(map[xoraddr.Address]AddressQuotes, len(addrs))

	for _, as := range addrs {
		var lastErr error
		var valid []Quote
		for attempt := 1; attempt <= storeQuoteRetryAttempts; attempt++ {
			quotes, err := src.RequestQuotes(ctx, dataType, as.Address, as.Size)
			if err != nil {
				lastErr = err
				log.Warnf("get_store_quotes attempt %d/%d for %s failed: %v", attempt, storeQuoteRetryAttempts, as.Address.Short(), err)
				continue
			}
			now := time.Now()
			valid = valid[:0]
			for _, q := range quotes {
				if err := q.verify(now, verify); err != nil {
					log.Debugf("discarding quote: %v", err)
					continue
				}
				valid = append(valid, q)
			}
			if len(valid) > 0 {
				lastErr = nil
				break
			}
			lastErr = ErrInvalidQuote
		}
		if len(valid) == 0 {
			if lastErr == nil {
				lastErr = ErrInvalidQuote
			}
			return nil, &CouldNotGetStoreQuoteError{Address: as.Address}
		}

		cheapest := valid[0]
		peers := make([]PeerID, 0, len(valid))
		for _, q := range valid {
			peers = append(peers, q.Peer)
			if q.Price.ensure().Lt(cheapest.Price.ensure()) {
				cheapest = q
			}
		}
		out[as.Address] = AddressQuotes{Peers: peers, Quotes: valid, Price: cheapest.Price}
	}
	return out, nil
}
