package main

import (
	"context"
	"time"

	"github.com/synnergy-network/vaultmesh/netengine"
	"github.com/synnergy-network/vaultmesh/quote"
	"github.com/synnergy-network/vaultmesh/record"
	"github.com/synnergy-network/vaultmesh/xoraddr"
)

// devWallet is the zero-cost wallet every CLI subcommand uses: it approves
// every quote without touching a real chain,
// mirroring the teacher's "mock testnet"/"mock token transfer" commands
// (cmd/synnergy/main.go) which simulate rather than settle for real.
type devWallet struct{}

func (devWallet) Pay(_ context.Context, quotes map[xoraddr.Address]quote.Quote) (map[xoraddr.Address]quote.ProofOfPayment, error) {
	out := make(map[xoraddr.Address]quote.ProofOfPayment, len(quotes))
	for addr, q := range quotes {
		out[addr] = quote.ProofOfPayment{Quote: q, Payees: []quote.PeerID{q.Peer}, SettledAt: time.Now()}
	}
	return out, nil
}

func (devWallet) AvailableBalance(_ context.Context) (quote.AttoTokens, error) {
	return quote.FromUint64(1_000_000_000), nil
}

// devQuoteSource returns a single free-ish quote from whichever peer is
// closest to the target address in the simulated swarm.
type devQuoteSource struct {
	sim *netengine.Simulated
}

func (d devQuoteSource) RequestQuotes(ctx context.Context, _ record.DataType, addr xoraddr.Address, _ int) ([]quote.Quote, error) {
	peers, err := d.sim.ClosestPeers(ctx, addr, 1)
	if err != nil {
		return nil, err
	}
	if len(peers) == 0 {
		return nil, nil
	}
	return []quote.Quote{{
		Peer:   peers[0],
		Price:  quote.FromUint64(1),
		Target: addr,
		Expiry: time.Now().Add(time.Hour),
	}}, nil
}
