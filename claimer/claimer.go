// Package claimer drives reward claims across a wallet list: per-wallet
// retry with backoff, randomized cycle order and pauses, and continuous
// scheduling.
package claimer

import (
	"context"
	"crypto/ecdsa"
	"math"
	"math/big"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"airdrop_soft/blockchain"
	"airdrop_soft/config"
	"airdrop_soft/logbook"
	"airdrop_soft/proxypool"
	"airdrop_soft/wallet"
)

// Session is one live chain connection, as the orchestrator sees it.
// *blockchain.Session satisfies this; tests inject fakes.
type Session interface {
	Claimable(ctx context.Context, account common.Address) (*big.Int, error)
	SubmitClaim(ctx context.Context, key *ecdsa.PrivateKey) (*types.Transaction, error)
	WaitMined(ctx context.Context, tx *types.Transaction) (*blockchain.ClaimReceipt, error)
	Close()
}

// Chain produces sessions, optionally through a proxy.
type Chain interface {
	Connect(ctx context.Context, proxyURL string) (Session, error)
}

// EligibilityChecker is the optional off-chain pre-check. Its answer is
// advisory only; the on-chain claimable() read decides whether to skip.
type EligibilityChecker interface {
	Check(address, proxyURL string) (*blockchain.EligibilityResponse, error)
}

// Recorder receives attempt and cycle outcomes for the optional history
// store. All methods are best-effort; recording failures never stop a run.
type Recorder interface {
	RecordAttempt(res Result, ts time.Time) error
	RecordCycle(stats CycleStats) error
}

// chainAdapter lifts *blockchain.Client into the Chain interface.
type chainAdapter struct {
	client *blockchain.Client
}

func (a chainAdapter) Connect(ctx context.Context, proxyURL string) (Session, error) {
	return a.client.Connect(ctx, proxyURL)
}

// WrapClient adapts a blockchain client to the Chain interface.
func WrapClient(c *blockchain.Client) Chain {
	return chainAdapter{client: c}
}

// Orchestrator runs claim cycles. It holds no global state; multiple
// orchestrators with separate configs can run side by side.
type Orchestrator struct {
	cfg   config.Config
	chain Chain
	book  *logbook.Book

	api EligibilityChecker
	rec Recorder

	sleep func(time.Duration)
	rng   *rand.Rand
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithEligibility enables the off-chain eligibility pre-check.
func WithEligibility(api EligibilityChecker) Option {
	return func(o *Orchestrator) { o.api = api }
}

// WithRecorder attaches the attempt-history recorder.
func WithRecorder(rec Recorder) Option {
	return func(o *Orchestrator) { o.rec = rec }
}

// WithSleep replaces time.Sleep, for tests.
func WithSleep(sleep func(time.Duration)) Option {
	return func(o *Orchestrator) { o.sleep = sleep }
}

// WithRand replaces the randomness source, for tests.
func WithRand(rng *rand.Rand) Option {
	return func(o *Orchestrator) { o.rng = rng }
}

// New builds an Orchestrator over the given chain and result logs.
func New(cfg config.Config, chain Chain, book *logbook.Book, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:   cfg,
		chain: chain,
		book:  book,
		sleep: time.Sleep,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// AttemptClaim processes one wallet: connect (through proxy when given),
// check the claimable amount, submit the claim, wait for confirmation.
// Any failure is retried up to cfg.MaxRetries times with backoff; the
// retry counter spans the whole sequence, so a confirmation failure
// restarts from the connect step.
func (o *Orchestrator) AttemptClaim(ctx context.Context, w wallet.Wallet, proxyURL string, index, total int) Result {
	var lastErr error

	for attempt := 1; attempt <= o.cfg.MaxRetries+1; attempt++ {
		if attempt > 1 {
			delay := o.retryDelay(attempt - 1)
			log.Info("retrying", "wallet", index, "attempt", attempt, "in", delay)
			o.sleep(delay)
		}

		res, err := o.tryOnce(ctx, w, proxyURL)
		if err == nil {
			res.Attempts = attempt
			o.recordResult(res, index, total)
			return res
		}

		lastErr = err
		log.Warn("claim attempt failed",
			"wallet", index, "total", total, "address", w.Address.Hex(),
			"attempt", attempt, "error", err,
		)
	}

	res := Result{
		Outcome:  OutcomeFailure,
		Wallet:   w,
		Err:      lastErr,
		Attempts: o.cfg.MaxRetries + 1,
	}
	o.recordResult(res, index, total)
	return res
}

// tryOnce runs one full pass of the claim sequence. A zero claimable
// amount short-circuits to Skipped before any transaction is built; a
// failed claimable read is inconclusive and the claim proceeds anyway.
func (o *Orchestrator) tryOnce(ctx context.Context, w wallet.Wallet, proxyURL string) (Result, error) {
	if o.api != nil {
		if resp, err := o.api.Check(w.Address.Hex(), proxyURL); err != nil {
			log.Debug("eligibility api unreachable", "address", w.Address.Hex(), "error", err)
		} else if !resp.CanClaim {
			log.Info("eligibility api reports not claimable, checking on-chain anyway",
				"address", w.Address.Hex(), "reason", resp.Reason)
		}
	}

	session, err := o.chain.Connect(ctx, proxyURL)
	if err != nil {
		return Result{}, err
	}
	defer session.Close()

	claimable, err := session.Claimable(ctx, w.Address)
	if err != nil {
		log.Warn("claimable read failed, attempting claim anyway",
			"address", w.Address.Hex(), "error", err)
	} else if claimable.Sign() == 0 {
		return Result{Outcome: OutcomeSkipped, Wallet: w}, nil
	}

	tx, err := session.SubmitClaim(ctx, w.Key)
	if err != nil {
		return Result{}, err
	}

	receipt, err := session.WaitMined(ctx, tx)
	if err != nil {
		return Result{}, err
	}

	if receipt.Amount != nil {
		log.Info("reward claimed", "address", w.Address.Hex(), "amount", receipt.Amount.String())
	}

	return Result{
		Outcome: OutcomeSuccess,
		Wallet:  w,
		TxHash:  receipt.TxHash.Hex(),
	}, nil
}

// retryDelay returns the wait before retry k: base * factor^(k-1).
// A factor of 1.0 gives a constant delay.
func (o *Orchestrator) retryDelay(k int) time.Duration {
	base := float64(o.cfg.RetryBaseDelay)
	return time.Duration(base * math.Pow(o.cfg.BackoffFactor, float64(k-1)))
}

// recordResult writes the durable log line and feeds the history recorder.
func (o *Orchestrator) recordResult(res Result, index, total int) {
	switch res.Outcome {
	case OutcomeSuccess:
		log.Info("claim confirmed", "wallet", index, "total", total,
			"address", res.Wallet.Address.Hex(), "tx", res.TxHash)
		if err := o.book.Success(index, total, res.Wallet.Address.Hex(), res.TxHash); err != nil {
			log.Error("writing success log", "error", err)
		}
	case OutcomeSkipped:
		log.Info("already claimed", "wallet", index, "total", total,
			"address", res.Wallet.Address.Hex())
		if err := o.book.Skipped(index, total, res.Wallet.Address.Hex()); err != nil {
			log.Error("writing success log", "error", err)
		}
	case OutcomeFailure:
		log.Error("all attempts failed", "wallet", index, "total", total,
			"address", res.Wallet.Address.Hex(), "attempts", res.Attempts, "error", res.Err)
		if err := o.book.Failure(index, total, res.Err, res.Attempts); err != nil {
			log.Error("writing error log", "error", err)
		}
	}

	if o.rec != nil {
		if err := o.rec.RecordAttempt(res, time.Now()); err != nil {
			log.Warn("recording attempt history", "error", err)
		}
	}
}

// RunCycle makes one pass over all wallets in a fresh random order,
// pairing attempt i with proxy i mod pool size. Attempts are strictly
// sequential; a random pause from the configured range separates them,
// except after the last wallet.
func (o *Orchestrator) RunCycle(ctx context.Context, wallets []wallet.Wallet, proxies *proxypool.Pool) CycleStats {
	stats := CycleStats{Total: len(wallets), Start: time.Now()}

	order := make([]wallet.Wallet, len(wallets))
	copy(order, wallets)
	o.rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	for i, w := range order {
		if ctx.Err() != nil {
			break
		}

		res := o.AttemptClaim(ctx, w, proxies.ForIndex(i), i+1, len(order))
		switch res.Outcome {
		case OutcomeSuccess:
			stats.Success++
		case OutcomeSkipped:
			stats.Skipped++
		case OutcomeFailure:
			stats.Failed++
		}

		if i < len(order)-1 {
			pause := o.cfg.DelayBetweenAccounts.RandomIn(o.rng)
			log.Info("pausing before next wallet", "for", pause)
			o.sleep(pause)
		}
	}

	stats.End = time.Now()
	stats.Elapsed = stats.End.Sub(stats.Start)

	if o.rec != nil {
		if err := o.rec.RecordCycle(stats); err != nil {
			log.Warn("recording cycle history", "error", err)
		}
	}

	return stats
}
