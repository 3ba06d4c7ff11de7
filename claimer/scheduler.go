package claimer

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"airdrop_soft/proxypool"
	"airdrop_soft/wallet"
)

// NextWait returns the pause before the next cycle: the long post-claim
// interval when the cycle confirmed at least one claim, otherwise the
// short recheck interval. Skipped wallets do not count as claims here;
// they only mean there was nothing left to collect this round.
func (o *Orchestrator) NextWait(stats CycleStats) time.Duration {
	if stats.Success > 0 {
		return o.cfg.PostClaimWait
	}
	return o.cfg.RecheckWait
}

// Run cycles forever: RunCycle, wait NextWait, repeat. There is no
// terminal state and no persisted cursor; each cycle re-shuffles and
// re-attempts every wallet, relying on the already-claimed short-circuit
// to keep repeats cheap. Returns only when ctx is cancelled.
func (o *Orchestrator) Run(ctx context.Context, wallets []wallet.Wallet, proxies *proxypool.Pool) error {
	for {
		stats := o.RunCycle(ctx, wallets, proxies)
		log.Info("cycle finished",
			"success", stats.Success,
			"skipped", stats.Skipped,
			"failed", stats.Failed,
			"total", stats.Total,
			"elapsed", stats.Elapsed.Round(time.Second),
		)

		wait := o.NextWait(stats)
		log.Info("waiting before next cycle", "for", wait)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}
