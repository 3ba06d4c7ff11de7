package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "airdrop",
		Short: "Multi-wallet claim and transfer automation for EVM chains",
		Long: `airdrop automates routine work across a list of EVM wallets:
claiming rewards from a distributor contract with retry and randomized
pacing, batch-transferring funds, and generating fresh wallets.

Wallets are read one private key per line from the keys file. An optional
proxy list is rotated across wallets by position.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				log.SetLevel(log.DebugLevel)
			}
		},
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "", "Configuration file path (default: .airdrop.yaml in current or home directory)")

	cmd.AddCommand(NewClaimCmd())
	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewTransferCmd())
	cmd.AddCommand(NewWalletsCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
