package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"airdrop_soft/blockchain"
	"airdrop_soft/claimer"
	"airdrop_soft/config"
	"airdrop_soft/history"
	"airdrop_soft/logbook"
	"airdrop_soft/proxypool"
	"airdrop_soft/wallet"
)

// addChainFlags registers the flags shared by claim, run and transfer.
func addChainFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("rpc", "r", "", "JSON-RPC endpoint (default from config)")
	cmd.Flags().StringP("keys", "k", "", "Private keys file, one key per line")
	cmd.Flags().StringP("proxies", "p", "", "Proxy list file (optional)")
	cmd.Flags().String("contract", "", "Reward distributor contract address")
	cmd.Flags().String("abi", "", "Contract ABI file (default: embedded descriptor)")
}

// buildConfig layers defaults, config file, environment and flags.
func buildConfig(cmd *cobra.Command) (config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		path, _ = cmd.Root().PersistentFlags().GetString("config")
	}

	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}

	if v, _ := cmd.Flags().GetString("rpc"); v != "" {
		cfg.RpcURL = v
	}
	if v, _ := cmd.Flags().GetString("keys"); v != "" {
		cfg.KeysFile = v
	}
	if v, _ := cmd.Flags().GetString("proxies"); v != "" {
		cfg.ProxyFile = v
	}
	if v, _ := cmd.Flags().GetString("contract"); v != "" {
		cfg.ContractAddress = v
	}
	if v, _ := cmd.Flags().GetString("abi"); v != "" {
		cfg.ABIPath = v
	}

	// Schedule overrides only exist on the run command.
	if cmd.Flags().Lookup("post-claim-wait") != nil {
		if d, _ := cmd.Flags().GetDuration("post-claim-wait"); d > 0 {
			cfg.PostClaimWait = d
		}
	}
	if cmd.Flags().Lookup("recheck-wait") != nil {
		if d, _ := cmd.Flags().GetDuration("recheck-wait"); d > 0 {
			cfg.RecheckWait = d
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

// claimRun bundles everything a claim cycle needs.
type claimRun struct {
	cfg     config.Config
	wallets []wallet.Wallet
	proxies *proxypool.Pool
	orch    *claimer.Orchestrator
	book    *logbook.Book
	store   *history.Store
}

// setupClaim loads wallets, proxies, logs and the chain client, and wires
// the orchestrator. Callers must Close the returned bundle.
func setupClaim(cmd *cobra.Command) (*claimRun, error) {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return nil, err
	}

	wallets, err := wallet.Load(cfg.KeysFile)
	if err != nil {
		return nil, err
	}
	if len(wallets) == 0 {
		return nil, fmt.Errorf("no usable keys in %s", cfg.KeysFile)
	}

	proxies, err := proxypool.Load(cfg.ProxyFile)
	if err != nil {
		return nil, err
	}

	client, err := blockchain.NewClient(cfg)
	if err != nil {
		return nil, err
	}

	book, err := logbook.Open(cfg.SuccessLog, cfg.ErrorLog)
	if err != nil {
		return nil, err
	}

	opts := []claimer.Option{}
	if cfg.EligibilityURL != "" {
		opts = append(opts, claimer.WithEligibility(blockchain.NewEligibilityClient(cfg.EligibilityURL)))
	}

	var store *history.Store
	if cfg.HistoryDir != "" {
		dir := cfg.HistoryDir
		if dir == "xdg" {
			dir = config.XDGDataDir()
		}
		store, err = history.Open(dir)
		if err != nil {
			book.Close()
			return nil, err
		}
		opts = append(opts, claimer.WithRecorder(store))
	}

	return &claimRun{
		cfg:     cfg,
		wallets: wallets,
		proxies: proxies,
		orch:    claimer.New(cfg, claimer.WrapClient(client), book, opts...),
		book:    book,
		store:   store,
	}, nil
}

// Close releases the run's files and database.
func (r *claimRun) Close() {
	if r.store != nil {
		_ = r.store.Close()
	}
	_ = r.book.Close()
}
