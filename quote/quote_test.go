package quote

import (
	"context"
	"testing"
	"time"

	"github.com/libp2p/go-libp2p/core/peer"

	"github.com/synnergy-network/vaultmesh/record"
	"github.com/synnergy-network/vaultmesh/xoraddr"
)

type fakeSource struct {
	quotes map[xoraddr.Address][]Quote
	errs   map[xoraddr.Address]error
	calls  int
}

func (f *fakeSource) RequestQuotes(_ context.Context, _ record.DataType, addr xoraddr.Address, _ int) ([]Quote, error) {
	f.calls++
	if err, ok := f.errs[addr]; ok {
		return nil, err
	}
	return f.quotes[addr], nil
}

func alwaysValid(Quote) bool { return true }

func TestGetStoreQuotesPicksCheapest(t *testing.T) {
	addr := xoraddr.Hash([]byte("addr-1"))
	src := &fakeSource{quotes: map[xoraddr.Address][]Quote{
		addr: {
			{Peer: peer.ID("p1"), Price: FromUint64(50), Target: addr, Expiry: time.Now().Add(time.Hour)},
			{Peer: peer.ID("p2"), Price: FromUint64(10), Target: addr, Expiry: time.Now().Add(time.Hour)},
		},
	}}

	out, err := GetStoreQuotes(context.Background(), src, alwaysValid, nil, record.TypeChunk, []AddressSize{{Address: addr, Size: 100}})
	if err != nil {
		t.Fatalf("GetStoreQuotes: %v", err)
	}
	got := out[addr]
	if !got.Price.Equal(FromUint64(10)) {
		t.Fatalf("expected cheapest price 10, got %s", got.Price)
	}
}

func TestGetStoreQuotesDiscardsExpired(t *testing.T) {
	addr := xoraddr.Hash([]byte("addr-2"))
	src := &fakeSource{quotes: map[xoraddr.Address][]Quote{
		addr: {
			{Peer: peer.ID("p1"), Price: FromUint64(5), Target: addr, Expiry: time.Now().Add(-time.Hour)},
		},
	}}

	_, err := GetStoreQuotes(context.Background(), src, alwaysValid, nil, record.TypeChunk, []AddressSize{{Address: addr, Size: 10}})
	if err == nil {
		t.Fatalf("expected CouldNotGetStoreQuote for an all-expired address")
	}
}

func TestGetStoreQuotesRetriesThenFails(t *testing.T) {
	addr := xoraddr.Hash([]byte("addr-3"))
	src := &fakeSource{errs: map[xoraddr.Address]error{addr: errUnreachable}}

	_, err := GetStoreQuotes(context.Background(), src, alwaysValid, nil, record.TypeChunk, []AddressSize{{Address: addr, Size: 10}})
	cq, ok := err.(*CouldNotGetStoreQuoteError)
	if !ok {
		t.Fatalf("expected *CouldNotGetStoreQuoteError, got %v", err)
	}
	if cq.Address != addr {
		t.Fatalf("wrong address in error")
	}
	if src.calls != storeQuoteRetryAttempts {
		t.Fatalf("expected %d attempts, got %d", storeQuoteRetryAttempts, src.calls)
	}
}

type fakeWallet struct {
	proofs map[xoraddr.Address]ProofOfPayment
}

func (w *fakeWallet) Pay(_ context.Context, quotes map[xoraddr.Address]Quote) (map[xoraddr.Address]ProofOfPayment, error) {
	out := make(map[xoraddr.Address]ProofOfPayment)
	for addr, q := range quotes {
		if p, ok := w.proofs[addr]; ok {
			out[addr] = p
			continue
		}
		out[addr] = ProofOfPayment{Quote: q, Payees: []PeerID{q.Peer}}
	}
	return out, nil
}

func (w *fakeWallet) AvailableBalance(_ context.Context) (AttoTokens, error) {
	return FromUint64(1_000_000), nil
}

func TestPaySkipsAlreadyPaidAddress(t *testing.T) {
	addrPaid := xoraddr.Hash([]byte("already-paid"))
	addrFresh := xoraddr.Hash([]byte("fresh"))
	exp := time.Now().Add(time.Hour)

	src := &fakeSource{quotes: map[xoraddr.Address][]Quote{
		addrPaid:  {{Peer: peer.ID("p1"), Price: FromUint64(1), Target: addrPaid, Expiry: exp}},
		addrFresh: {{Peer: peer.ID("p2"), Price: FromUint64(2), Target: addrFresh, Expiry: exp}},
	}}

	wallet := &fakeWallet{proofs: map[xoraddr.Address]ProofOfPayment{}}

	result, err := payWithSkip(src, wallet, addrPaid, addrFresh)
	if err != nil {
		t.Fatalf("Pay: %v", err)
	}
	if len(result.Skipped) != 1 || result.Skipped[0] != addrPaid {
		t.Fatalf("expected addrPaid to be skipped, got %+v", result.Skipped)
	}
	if _, ok := result.Receipts[addrFresh]; !ok {
		t.Fatalf("expected a receipt for addrFresh")
	}
}

// payWithSkip wraps Pay with a skippingWallet that omits addrPaid from the
// base fake wallet's proof map, simulating the "already paid" path.
func payWithSkip(src QuoteSource, base *fakeWallet, addrPaid, addrFresh xoraddr.Address) (PayResult, error) {
	w := &skippingWallet{base: base, skip: addrPaid}
	return Pay(context.Background(), src, alwaysValid, w, nil, record.TypeChunk, []AddressSize{
		{Address: addrPaid, Size: 10},
		{Address: addrFresh, Size: 10},
	})
}

type skippingWallet struct {
	base *fakeWallet
	skip xoraddr.Address
}

func (w *skippingWallet) Pay(ctx context.Context, quotes map[xoraddr.Address]Quote) (map[xoraddr.Address]ProofOfPayment, error) {
	out, err := w.base.Pay(ctx, quotes)
	if err != nil {
		return nil, err
	}
	delete(out, w.skip)
	return out, nil
}

func (w *skippingWallet) AvailableBalance(ctx context.Context) (AttoTokens, error) {
	return w.base.AvailableBalance(ctx)
}

var errUnreachable = &unreachableErr{}

type unreachableErr struct{}

func (e *unreachableErr) Error() string { return "unreachable" }
