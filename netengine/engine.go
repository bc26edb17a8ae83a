package netengine

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/sirupsen/logrus"

	"github.com/synnergy-network/vaultmesh/record"
	"github.com/synnergy-network/vaultmesh/xoraddr"
)

// SettleDelay is how long Put waits after a successful quorum before
// issuing its verification read, giving replication a moment to settle.
var SettleDelay = 200 * time.Millisecond

// Engine drives quorum put/get against a Network collaborator.
type Engine struct {
	Net    Network
	K      int // closest-peers fan-out
	Logger *logrus.Logger
}

// New builds an Engine. k defaults to 20 (the teacher's Kademlia-style
// replication factor) if <= 0.
func New(net Network, k int, logger *logrus.Logger) *Engine {
	if k <= 0 {
		k = 20
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Engine{Net: net, K: k, Logger: logger}
}

// Put stores rec, targeting either cfg.UsePutRecordTo or the K closest
// peers to rec.Key, retrying the whole attempt per cfg.Retry, and
// optionally verifying the write with a follow-up quorum get.
func (e *Engine) Put(ctx context.Context, rec record.Record, cfg PutConfig) error {
	requestID := uuid.NewString()
	log := e.Logger.WithFields(logrus.Fields{"op": "put", "key": rec.Key.Short(), "request_id": requestID})

	peers := cfg.UsePutRecordTo
	if len(peers) == 0 {
		var err error
		peers, err = e.Net.ClosestPeers(ctx, rec.Key, e.K)
		if err != nil {
			return &NetworkError{Op: "closest_peers", Err: err}
		}
	}
	if len(peers) == 0 {
		return &NetworkError{Op: "put", Err: ErrRecordNotFound}
	}

	need := cfg.Quorum.threshold(len(peers))
	attempts := cfg.Retry.attempts()

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		acked := e.broadcastPut(ctx, peers, rec, log)
		if acked >= need {
			lastErr = nil
			break
		}
		lastErr = ErrQuorumNotMet
		log.Warnf("put attempt %d/%d acked %d/%d peers, need %d", attempt, attempts, acked, len(peers), need)
		if attempt < attempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(cfg.Retry.backoff(attempt)):
			}
		}
	}
	if lastErr != nil {
		return &NetworkError{Op: "put", Err: lastErr}
	}

	if cfg.Verification == nil {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(SettleDelay):
	}

	verifyCfg := cfg.Verification.Get
	verifyCfg.TargetRecord = &rec
	got, err := e.Get(ctx, rec.Key, verifyCfg)
	if err != nil {
		var split *SplitRecordError
		if asSplitRecordError(err, &split) {
			if e.anySatisfies(rec, split.Results, cfg.Verification) {
				return nil
			}
		}
		log.Errorf("verification read failed: %v", err)
		return &NetworkError{Op: "verify", Err: err}
	}

	if e.satisfies(rec, got, cfg.Verification) {
		return nil
	}
	return &NetworkError{Op: "verify", Err: ErrVerificationFailed}
}

func (e *Engine) satisfies(written, got record.Record, v *VerificationConfig) bool {
	if v.Kind == VerificationStrict {
		return bytes.Equal(written.Marshal(), got.Marshal())
	}
	if bytes.Equal(written.Marshal(), got.Marshal()) {
		return true
	}
	if v.Merge == nil {
		return false
	}
	return v.Merge(written, got)
}

func (e *Engine) anySatisfies(written record.Record, results map[peer.ID]record.Record, v *VerificationConfig) bool {
	for _, got := range results {
		if e.satisfies(written, got, v) {
			return true
		}
	}
	return false
}

func asSplitRecordError(err error, target **SplitRecordError) bool {
	if sre, ok := err.(*SplitRecordError); ok {
		*target = sre
		return true
	}
	return false
}

func (e *Engine) broadcastPut(ctx context.Context, peers []peer.ID, rec record.Record, log *logrus.Entry) int {
	var wg sync.WaitGroup
	var mu sync.Mutex
	acked := 0
	for _, p := range peers {
		wg.Add(1)
		go func(p peer.ID) {
			defer wg.Done()
			if err := e.Net.PutRecordToPeer(ctx, p, rec); err != nil {
				log.Debugf("put to peer %s failed (tolerated): %v", p, err)
				return
			}
			mu.Lock()
			acked++
			mu.Unlock()
		}(p)
	}
	wg.Wait()
	return acked
}

// Get fetches the record stored under key, retrying whole attempts per
// cfg.Retry until cfg.Quorum matching responses arrive. Divergent
// responses are surfaced as a *SplitRecordError for the typed layer to
// resolve.
func (e *Engine) Get(ctx context.Context, key xoraddr.Address, cfg GetConfig) (record.Record, error) {
	attempts := cfg.Retry.attempts()

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		rec, err := e.getOnce(ctx, key, cfg)
		if err == nil {
			return rec, nil
		}
		lastErr = err
		var split *SplitRecordError
		if asSplitRecordError(err, &split) {
			return record.Record{}, err // splits are not retried; surfaced immediately
		}
		if attempt < attempts {
			select {
			case <-ctx.Done():
				return record.Record{}, ctx.Err()
			case <-time.After(cfg.Retry.backoff(attempt)):
			}
		}
	}
	return record.Record{}, lastErr
}

func (e *Engine) getOnce(ctx context.Context, key xoraddr.Address, cfg GetConfig) (record.Record, error) {
	peers, err := e.Net.ClosestPeers(ctx, key, e.K)
	if err != nil {
		return record.Record{}, &NetworkError{Op: "closest_peers", Err: err}
	}
	if len(peers) == 0 {
		return record.Record{}, ErrRecordNotFound
	}

	type response struct {
		peer peer.ID
		rec  record.Record
	}
	results := make(chan response, len(peers))

	var wg sync.WaitGroup
	for _, p := range peers {
		wg.Add(1)
		go func(p peer.ID) {
			defer wg.Done()
			rec, err := e.Net.GetRecordFromPeer(ctx, p, key)
			if err != nil {
				return
			}
			results <- response{peer: p, rec: rec}
		}(p)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	byPeer := make(map[peer.ID]record.Record)
	for r := range results {
		byPeer[r.peer] = r.rec
	}

	if len(byPeer) == 0 {
		return record.Record{}, ErrRecordNotFound
	}

	need := cfg.Quorum.threshold(len(peers))
	groups := make(map[string][]peer.ID)
	for p, rec := range byPeer {
		sig := string(rec.Marshal())
		groups[sig] = append(groups[sig], p)
	}

	if len(groups) > 1 {
		// Responses diverge: surface the split. If a target record was
		// supplied (e.g. a put's verification read), prefer to resolve
		// immediately when that exact value is among the respondents.
		if cfg.TargetRecord != nil {
			targetSig := string(cfg.TargetRecord.Marshal())
			if holders, ok := groups[targetSig]; ok && len(holders) > 0 {
				return byPeer[holders[0]], nil
			}
		}
		return record.Record{}, &SplitRecordError{Key: key, Results: byPeer}
	}

	// All respondents agree; succeed only once enough of the targeted
	// peers have confirmed that value.
	if len(byPeer) >= need {
		for _, rec := range byPeer {
			return rec, nil
		}
	}
	return record.Record{}, fmt.Errorf("netengine: insufficient responses (%d/%d)", len(byPeer), need)
}
