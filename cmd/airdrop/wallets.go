package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"airdrop_soft/wallet"
)

// NewWalletsCmd creates the wallets command.
func NewWalletsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallets",
		Short: "Generate fresh wallets",
		Long: `Wallets generates new accounts and appends them to a keys file, with
the addresses in a separate file for funding.

By default each wallet gets an independent random key. With --mnemonic a
single BIP-39 phrase is generated (or reused, via --phrase) and accounts
are derived along m/44'/60'/0'/0/i, so one backed-up phrase recovers the
whole list.

Examples:
  airdrop wallets --count 20
  airdrop wallets --count 20 --mnemonic
  airdrop wallets --count 5 --phrase "abandon abandon ... about" --keys-out more_keys.txt`,
		Args: cobra.NoArgs,
		RunE: runWalletsCmd,
	}

	cmd.Flags().IntP("count", "n", 10, "Number of wallets to generate")
	cmd.Flags().Bool("mnemonic", false, "Derive wallets from one fresh BIP-39 phrase")
	cmd.Flags().String("phrase", "", "Existing BIP-39 phrase to derive from (implies --mnemonic)")
	cmd.Flags().String("keys-out", "private_keys.txt", "Keys file to append to")
	cmd.Flags().String("addresses-out", "addresses.txt", "Addresses file to append to")
	return cmd
}

func runWalletsCmd(cmd *cobra.Command, _ []string) error {
	count, _ := cmd.Flags().GetInt("count")
	if count <= 0 {
		return fmt.Errorf("invalid count %d", count)
	}

	useMnemonic, _ := cmd.Flags().GetBool("mnemonic")
	phrase, _ := cmd.Flags().GetString("phrase")
	keysOut, _ := cmd.Flags().GetString("keys-out")
	addressesOut, _ := cmd.Flags().GetString("addresses-out")

	var wallets []wallet.Wallet
	var err error

	switch {
	case phrase != "":
		wallets, err = wallet.GenerateHD(phrase, count)
	case useMnemonic:
		phrase, err = wallet.NewMnemonic()
		if err != nil {
			return err
		}
		warn := color.New(color.FgYellow, color.Bold)
		warn.Println("Mnemonic (write this down, it is not stored anywhere):")
		fmt.Printf("  %s\n\n", phrase)
		wallets, err = wallet.GenerateHD(phrase, count)
	default:
		wallets, err = wallet.Generate(count)
	}
	if err != nil {
		return err
	}

	if err := wallet.Save(wallets, keysOut, addressesOut); err != nil {
		return err
	}

	for _, w := range wallets {
		fmt.Printf("Wallet %2d → %s\n", w.Index, w.Address.Hex())
	}
	fmt.Printf("\n%d wallets appended to %s (addresses in %s)\n", len(wallets), keysOut, addressesOut)
	return nil
}
