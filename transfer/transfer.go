// Package transfer moves native funds for every wallet in the list, either
// one at a time with pauses or fanned out concurrently.
package transfer

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"math/rand"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"golang.org/x/sync/errgroup"

	"airdrop_soft/blockchain"
	"airdrop_soft/config"
	"airdrop_soft/proxypool"
	"airdrop_soft/wallet"
)

// Session is the chain surface a transfer needs.
type Session interface {
	SendValue(ctx context.Context, key *ecdsa.PrivateKey, to common.Address, amount *big.Int, gasLimit uint64) (*types.Transaction, error)
	Sweep(ctx context.Context, key *ecdsa.PrivateKey, to common.Address, gasLimit uint64) (*types.Transaction, error)
	Close()
}

// Chain produces transfer sessions, optionally through a proxy.
type Chain interface {
	Connect(ctx context.Context, proxyURL string) (Session, error)
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

// SendResult is the outcome of one wallet's transfer.
type SendResult struct {
	Index   int
	Address common.Address
	TxHash  string
	Err     error
}

// Runner executes the batch transfer described by cfg.
type Runner struct {
	cfg   config.TransferConfig
	chain Chain

	sleep func(time.Duration)
	rng   *rand.Rand
}

// NewRunner builds a Runner. sleep and rng default to the real thing and
// exist as parameters for tests; pass nil for both in production code.
func NewRunner(cfg config.TransferConfig, chain Chain, sleep func(time.Duration), rng *rand.Rand) *Runner {
	if sleep == nil {
		sleep = time.Sleep
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Runner{cfg: cfg, chain: chain, sleep: sleep, rng: rng}
}

// Run sends from every wallet to the configured collector address. The
// sequential mode completes each send before starting the next with a
// random pause in between; the fanout mode submits everything concurrently
// and joins. Per-wallet failures land in the result slice, not the error.
func (r *Runner) Run(ctx context.Context, wallets []wallet.Wallet, proxies *proxypool.Pool) ([]SendResult, error) {
	if !common.IsHexAddress(r.cfg.To) {
		return nil, fmt.Errorf("invalid transfer target address %q", r.cfg.To)
	}
	to := common.HexToAddress(r.cfg.To)

	amount, err := r.amount()
	if err != nil {
		return nil, err
	}

	if r.cfg.Mode == "fanout" {
		return r.runFanout(ctx, wallets, proxies, to, amount)
	}
	return r.runSequential(ctx, wallets, proxies, to, amount)
}

// amount parses the configured per-transfer amount. nil means sweep.
func (r *Runner) amount() (*big.Int, error) {
	if r.cfg.AmountWei == "" || r.cfg.AmountWei == "0" {
		return nil, nil
	}
	amount, ok := new(big.Int).SetString(r.cfg.AmountWei, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount_wei %q", r.cfg.AmountWei)
	}
	return amount, nil
}

func (r *Runner) runSequential(ctx context.Context, wallets []wallet.Wallet, proxies *proxypool.Pool, to common.Address, amount *big.Int) ([]SendResult, error) {
	results := make([]SendResult, 0, len(wallets))

	for i, w := range wallets {
		if ctx.Err() != nil {
			return results, ctx.Err()
		}

		res := r.sendOne(ctx, w, proxies.ForIndex(i), to, amount)
		results = append(results, res)

		if i < len(wallets)-1 {
			pause := r.cfg.Delay.RandomIn(r.rng)
			log.Info("pausing before next transfer", "for", pause)
			r.sleep(pause)
		}
	}

	return results, nil
}

// runFanout submits every transfer at once and waits for all of them.
// Wallets are independent accounts with independent nonces, so concurrent
// submission is safe; the deliberate pacing of the claim loop does not
// apply here.
func (r *Runner) runFanout(ctx context.Context, wallets []wallet.Wallet, proxies *proxypool.Pool, to common.Address, amount *big.Int) ([]SendResult, error) {
	results := make([]SendResult, len(wallets))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	for i, w := range wallets {
		i, w := i, w
		g.Go(func() error {
			res := r.sendOne(ctx, w, proxies.ForIndex(i), to, amount)
			mu.Lock()
			results[i] = res
			mu.Unlock()
			return nil
		})
	}

	err := g.Wait()
	return results, err
}

// Disperse is the opposite direction: the fixed configured amount goes
// from the funder account to every wallet address. Always sequential,
// because one sending account means one nonce stream.
func (r *Runner) Disperse(ctx context.Context, funder wallet.Wallet, wallets []wallet.Wallet, proxies *proxypool.Pool) ([]SendResult, error) {
	amount, err := r.amount()
	if err != nil {
		return nil, err
	}
	if amount == nil {
		return nil, fmt.Errorf("dispersing requires a fixed amount_wei")
	}

	results := make([]SendResult, 0, len(wallets))
	for i, w := range wallets {
		if ctx.Err() != nil {
			return results, ctx.Err()
		}

		res := SendResult{Index: w.Index, Address: w.Address}
		session, err := r.chain.Connect(ctx, proxies.ForIndex(i))
		if err != nil {
			res.Err = err
		} else {
			tx, err := session.SendValue(ctx, funder.Key, w.Address, amount, r.cfg.GasLimit)
			if err != nil {
				log.Warn("funding failed", "wallet", w.Index, "address", w.Address.Hex(), "error", err)
				res.Err = err
			} else {
				log.Info("funding sent", "wallet", w.Index, "address", w.Address.Hex(), "tx", tx.Hash().Hex())
				res.TxHash = tx.Hash().Hex()
			}
			session.Close()
		}
		results = append(results, res)

		if i < len(wallets)-1 {
			pause := r.cfg.Delay.RandomIn(r.rng)
			log.Info("pausing before next transfer", "for", pause)
			r.sleep(pause)
		}
	}

	return results, nil
}

func (r *Runner) sendOne(ctx context.Context, w wallet.Wallet, proxyURL string, to common.Address, amount *big.Int) SendResult {
	res := SendResult{Index: w.Index, Address: w.Address}

	session, err := r.chain.Connect(ctx, proxyURL)
	if err != nil {
		res.Err = err
		return res
	}
	defer session.Close()

	var tx *types.Transaction
	if amount == nil {
		tx, err = session.Sweep(ctx, w.Key, to, r.cfg.GasLimit)
	} else {
		tx, err = session.SendValue(ctx, w.Key, to, amount, r.cfg.GasLimit)
	}
	if err != nil {
		log.Warn("transfer failed", "wallet", w.Index, "address", w.Address.Hex(), "error", err)
		res.Err = err
		return res
	}

	log.Info("transfer sent", "wallet", w.Index, "address", w.Address.Hex(), "tx", tx.Hash().Hex())
	res.TxHash = tx.Hash().Hex()
	return res
}
