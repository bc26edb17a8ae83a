package quote

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/synnergy-network/vaultmesh/record"
	"github.com/synnergy-network/vaultmesh/xoraddr"
)

// Wallet is the external EVM wallet collaborator (spec §6): it settles a set
// of quotes on-chain and reports the available balance. Grounded on the
// teacher's core/storage.go Transfer/Release calls against a module escrow
// account, generalized from an internal ledger transfer to an on-chain
// settlement returning a ProofOfPayment per address.
type Wallet interface {
	Pay(ctx context.Context, quotes map[xoraddr.Address]Quote) (map[xoraddr.Address]ProofOfPayment, error)
	AvailableBalance(ctx context.Context) (AttoTokens, error)
}

// Receipt is what Pay returns for a successfully settled address: the
// proof the typed layer embeds in the record, and the price actually paid.
type Receipt struct {
	Proof ProofOfPayment
	Price AttoTokens
}

// PayResult is the outcome of Pay: addresses with a fresh receipt, and
// addresses that were already paid for (e.g. a pointer being updated
// in-place), reported separately with a zero price.
type PayResult struct {
	Receipts map[xoraddr.Address]Receipt
	Skipped  []xoraddr.Address
}

// Pay obtains store quotes for addrs, then settles them via wallet.
// Addresses the wallet reports as already paid are returned in
// PayResult.Skipped with no receipt.
func Pay(ctx context.Context, src QuoteSource, verify QuoteVerifier, wallet Wallet, log *logrus.Logger, dataType record.DataType, addrs []AddressSize) (PayResult, error) {
	if log == nil {
		log = logrus.New()
	}

	quoted, err := GetStoreQuotes(ctx, src, verify, log, dataType, addrs)
	if err != nil {
		return PayResult{}, fmt.Errorf("%w: %v", ErrPay, err)
	}

	toSettle := make(map[xoraddr.Address]Quote, len(quoted))
	for addr, aq := range quoted {
		for _, q := range aq.Quotes {
			if q.Price.Equal(aq.Price) {
				toSettle[addr] = q
				break
			}
		}
	}

	proofs, err := wallet.Pay(ctx, toSettle)
	if err != nil {
		return PayResult{}, fmt.Errorf("%w: %v", ErrPay, err)
	}

	result := PayResult{Receipts: make(map[xoraddr.Address]Receipt, len(proofs))}
	for addr, aq := range quoted {
		proof, ok := proofs[addr]
		if !ok {
			log.Debugf("address %s already paid for, skipping", addr.Short())
			result.Skipped = append(result.Skipped, addr)
			continue
		}
		result.Receipts[addr] = Receipt{Proof: proof, Price: aq.Price}
	}
	return result, nil
}
