package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"airdrop_soft/blockchain"
	"airdrop_soft/proxypool"
	"airdrop_soft/transfer"
	"airdrop_soft/wallet"
)

// NewTransferCmd creates the transfer command.
func NewTransferCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Batch-transfer native funds from every wallet",
		Long: `Transfer sends native funds from every wallet in the keys file to a
collector address. With no amount set, each wallet's full balance minus
the gas cost is swept.

Modes:
  sequential  one send at a time, random pause between wallets (default)
  fanout      all sends submitted concurrently, then awaited together

Examples:
  # Sweep everything to one address, one wallet at a time
  airdrop transfer --to 0x6980437B8E74FC08856983F28AC637D5487ff173

  # Fixed amount from each wallet, all at once
  airdrop transfer --to 0x6980... --amount-wei 1000000000000000 --mode fanout

  # The other direction: fund every wallet from one key
  airdrop transfer --fund-key 0xac09... --amount-wei 5000000000000000`,
		Args: cobra.NoArgs,
		RunE: runTransferCmd,
	}

	addChainFlags(cmd)
	cmd.Flags().String("to", "", "Collector address (required unless --fund-key is set)")
	cmd.Flags().String("amount-wei", "", "Amount per wallet in wei (default: sweep full balance)")
	cmd.Flags().String("mode", "", `Submission mode: "sequential" or "fanout" (default from config)`)
	cmd.Flags().String("fund-key", "", "Disperse --amount-wei from this private key to every wallet instead of collecting")
	return cmd
}

func runTransferCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if v, _ := cmd.Flags().GetString("to"); v != "" {
		cfg.Transfer.To = v
	}
	if v, _ := cmd.Flags().GetString("amount-wei"); v != "" {
		cfg.Transfer.AmountWei = v
	}
	if v, _ := cmd.Flags().GetString("mode"); v != "" {
		cfg.Transfer.Mode = v
	}
	fundKey, _ := cmd.Flags().GetString("fund-key")
	if fundKey == "" && cfg.Transfer.To == "" {
		return fmt.Errorf("no collector address: set --to or transfer.to in the config file")
	}

	wallets, err := wallet.Load(cfg.KeysFile)
	if err != nil {
		return err
	}
	if len(wallets) == 0 {
		return fmt.Errorf("no usable keys in %s", cfg.KeysFile)
	}

	proxies, err := proxypool.Load(cfg.ProxyFile)
	if err != nil {
		return err
	}

	client, err := blockchain.NewClient(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	runner := transfer.NewRunner(cfg.Transfer, transfer.WrapClient(client), nil, nil)

	var results []transfer.SendResult
	if fundKey != "" {
		funder, err := wallet.FromHex(fundKey)
		if err != nil {
			return fmt.Errorf("parsing fund key: %w", err)
		}
		results, err = runner.Disperse(ctx, funder, wallets, proxies)
		if err != nil {
			return err
		}
	} else {
		results, err = runner.Run(ctx, wallets, proxies)
		if err != nil {
			return err
		}
	}

	printTransferResults(results)
	return nil
}

func printTransferResults(results []transfer.SendResult) {
	okColor := color.New(color.FgGreen).SprintFunc()
	errColor := color.New(color.FgRed).SprintFunc()

	sent := 0
	for _, res := range results {
		if res.Err != nil {
			fmt.Printf("  %s wallet %d (%s): %v\n", errColor("✗"), res.Index, res.Address.Hex(), res.Err)
			continue
		}
		sent++
		fmt.Printf("  %s wallet %d (%s): tx %s\n", okColor("✓"), res.Index, res.Address.Hex(), res.TxHash)
	}
	fmt.Printf("\n%d/%d transfers sent\n", sent, len(results))
}
