package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"airdrop_soft/claimer"
)

// NewClaimCmd creates the claim command: one cycle over all wallets.
func NewClaimCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "claim",
		Short: "Run one claim cycle over all wallets",
		Long: `Claim makes one pass over every wallet in the keys file, in a fresh
random order, claiming the pending reward for each. A wallet whose
claimable amount is already zero is skipped without a transaction.

Each wallet is paired with a proxy from the proxy list by position, when
a proxy list is present. Failures are retried with backoff before the
wallet is written to the error log.

Examples:
  # One cycle with defaults
  airdrop claim

  # Explicit files and endpoint
  airdrop claim -k keys.txt -p proxies.txt -r https://rpc.ankr.com/base`,
		Args: cobra.NoArgs,
		RunE: runClaimCmd,
	}

	addChainFlags(cmd)
	return cmd
}

func runClaimCmd(cmd *cobra.Command, _ []string) error {
	run, err := setupClaim(cmd)
	if err != nil {
		return err
	}
	defer run.Close()

	ctx, cancel := signalContext()
	defer cancel()

	printBanner(len(run.wallets), run.proxies.Len())

	stats := run.orch.RunCycle(ctx, run.wallets, run.proxies)
	printStats(stats)

	return ctx.Err()
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "received shutdown signal, stopping...")
		cancel()
	}()

	return ctx, cancel
}

func printBanner(wallets, proxies int) {
	c := color.New(color.FgCyan).Add(color.Bold)
	c.Println("***************************************************")
	c.Println("                 airdrop claimer                   ")
	c.Println("***************************************************")
	fmt.Printf("Wallets: %d | Proxies: %d\n\n", wallets, proxies)
}

func printStats(stats claimer.CycleStats) {
	success := color.New(color.FgGreen).SprintFunc()
	skipped := color.New(color.FgYellow).SprintFunc()
	failed := color.New(color.FgRed).SprintFunc()

	fmt.Printf("\nCycle finished in %s\n", stats.Elapsed.Round(time.Second))
	fmt.Printf("  claimed: %s | already claimed: %s | failed: %s | total: %d\n",
		success(stats.Success), skipped(stats.Skipped), failed(stats.Failed), stats.Total)
}
