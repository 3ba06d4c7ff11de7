package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
)

// NewRunCmd creates the run command: continuous claim cycles.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Claim continuously on a schedule",
		Long: `Run repeats claim cycles forever. After a cycle that claimed
something the next cycle waits the long post-claim interval (rewards
accrue daily); after an empty cycle only the short recheck interval.

There is no persisted state: a restart re-shuffles and re-attempts every
wallet, and wallets whose reward is already claimed are skipped cheaply.
Stop with Ctrl-C.

Examples:
  airdrop run
  airdrop run --post-claim-wait 23h --recheck-wait 1h`,
		Args: cobra.NoArgs,
		RunE: runRunCmd,
	}

	addChainFlags(cmd)
	cmd.Flags().Duration("post-claim-wait", 0, "Wait after a cycle with claims (default from config)")
	cmd.Flags().Duration("recheck-wait", 0, "Wait after a cycle without claims (default from config)")
	return cmd
}

func runRunCmd(cmd *cobra.Command, _ []string) error {
	run, err := setupClaim(cmd)
	if err != nil {
		return err
	}
	defer run.Close()

	ctx, cancel := signalContext()
	defer cancel()

	printBanner(len(run.wallets), run.proxies.Len())

	err = run.orch.Run(ctx, run.wallets, run.proxies)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
