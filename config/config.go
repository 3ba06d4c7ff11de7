package config

import (
	"math/rand"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values. The RPC endpoint and contract address can
// be overridden from the config file, environment, or CLI flags.
const (
	// DefaultRPCURL is the public Base RPC used when no endpoint is supplied.
	DefaultRPCURL = "https://rpc.ankr.com/base"

	// DefaultContractAddress is the reward distributor the claim call targets.
	DefaultContractAddress = "0xA6694cAB43713287F7735dADc940b555db9d39D9"

	// DefaultGasLimit is the ceiling used when on-chain gas estimation fails.
	// Claim calls on the target contract stay well under this.
	DefaultGasLimit = uint64(300000)

	// DefaultMaxRetries is how many times a failed claim is retried before
	// the wallet is written to the error log and skipped.
	DefaultMaxRetries = 5

	// DefaultRetryBaseDelay is the wait before the first retry. With a
	// backoff factor above 1.0 each subsequent wait is multiplied by it.
	DefaultRetryBaseDelay = 5 * time.Second

	// DefaultBackoffFactor of 2.0 doubles the retry delay after each
	// failure. Set to 1.0 for a constant delay between retries.
	DefaultBackoffFactor = 2.0

	// DefaultPostClaimWait is the pause before the next cycle after a cycle
	// that claimed something. Rewards accrue daily, so just under a day.
	DefaultPostClaimWait = 23 * time.Hour

	// DefaultRecheckWait is the pause before re-checking eligibility after
	// a cycle in which nothing was claimable.
	DefaultRecheckWait = 1 * time.Hour

	// AppName is used for the XDG data directory holding the history database.
	AppName = "airdrop_soft"
)

// Config holds every knob for a run. It is populated from defaults, then
// the optional YAML file, then environment variables, then CLI flags, and
// passed by value into the orchestrator so concurrent runs (tests) never
// share mutable state.
type Config struct {
	// RpcURL is the JSON-RPC endpoint of the target chain.
	RpcURL string `yaml:"rpc_url"`

	// ContractAddress is the reward distributor contract.
	ContractAddress string `yaml:"contract_address"`

	// ABIPath optionally points at a JSON ABI file for the distributor.
	// When empty the embedded descriptor is used.
	ABIPath string `yaml:"abi_path"`

	// GasLimit caps the gas supplied to the claim call when estimation fails.
	GasLimit uint64 `yaml:"gas_limit"`

	// EligibilityURL optionally points at the off-chain claim API. When set,
	// each wallet is pre-checked against it before touching the chain. The
	// check is advisory: an API failure never blocks the on-chain attempt.
	EligibilityURL string `yaml:"eligibility_url"`

	// KeysFile is the newline-delimited private key list. Required.
	KeysFile string `yaml:"keys_file"`

	// ProxyFile is the optional newline-delimited proxy list.
	ProxyFile string `yaml:"proxy_file"`

	// SuccessLog and ErrorLog are append-only result files.
	SuccessLog string `yaml:"success_log"`
	ErrorLog   string `yaml:"error_log"`

	// HistoryDir, when non-empty, enables the SQLite attempt history under
	// that directory. "xdg" selects the platform data directory.
	HistoryDir string `yaml:"history_dir"`

	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries int `yaml:"max_retries"`

	// RetryBaseDelay and BackoffFactor shape the retry waits: the wait
	// before retry k is RetryBaseDelay * BackoffFactor^(k-1).
	RetryBaseDelay time.Duration `yaml:"retry_base_delay"`
	BackoffFactor  float64       `yaml:"backoff_factor"`

	DelayBetweenAccounts DelayRange `yaml:"delay_between_accounts"`

	// PostClaimWait and RecheckWait drive continuous mode: the former is
	// used after a cycle with at least one real claim, the latter otherwise.
	PostClaimWait time.Duration `yaml:"post_claim_wait"`
	RecheckWait   time.Duration `yaml:"recheck_wait"`

	Transfer TransferConfig `yaml:"transfer"`
}

// TransferConfig controls the batch-transfer command.
type TransferConfig struct {
	// Mode is "sequential" (one send at a time with a pause between) or
	// "fanout" (all sends submitted concurrently, then awaited together).
	Mode string `yaml:"mode"`

	// To is the collector address for sweep transfers.
	To string `yaml:"to"`

	// AmountWei is the amount per transfer. Zero means sweep the full
	// balance minus the gas cost.
	AmountWei string `yaml:"amount_wei"`

	// GasLimit for a plain value transfer.
	GasLimit uint64 `yaml:"gas_limit"`

	Delay DelayRange `yaml:"delay"`
}

// DelayRange is a [Min, Max] interval a pause is drawn from uniformly.
type DelayRange struct {
	Min time.Duration `yaml:"min"`
	Max time.Duration `yaml:"max"`
}

// DefaultConfig returns a Config with every field set to its default.
// Non-zero defaults live here rather than in zero values so they are
// documented in one place.
func DefaultConfig() Config {
	return Config{
		RpcURL:          DefaultRPCURL,
		ContractAddress: DefaultContractAddress,
		GasLimit:        DefaultGasLimit,
		KeysFile:        "private_keys.txt",
		ProxyFile:       "proxy.txt",
		SuccessLog:      "success.log",
		ErrorLog:        "error.log",
		MaxRetries:      DefaultMaxRetries,
		RetryBaseDelay:  DefaultRetryBaseDelay,
		BackoffFactor:   DefaultBackoffFactor,
		DelayBetweenAccounts: DelayRange{
			Min: 1 * time.Minute,
			Max: 3 * time.Minute,
		},
		PostClaimWait: DefaultPostClaimWait,
		RecheckWait:   DefaultRecheckWait,
		Transfer: TransferConfig{
			Mode:     "sequential",
			GasLimit: 21000,
			Delay: DelayRange{
				Min: 5 * time.Second,
				Max: 15 * time.Second,
			},
		},
	}
}

// XDGDataDir returns the platform data directory for the history database,
// e.g. ~/.local/share/airdrop_soft on Linux.
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// Validate checks the configuration and returns the first problem found.
// Called once after flag parsing, before any attempt is made.
func (c Config) Validate() error {
	if c.RpcURL == "" {
		return ErrNoRPCURL
	}
	if c.ContractAddress == "" {
		return ErrNoContract
	}
	if c.KeysFile == "" {
		return ErrNoKeysFile
	}
	if c.MaxRetries < 0 {
		return ErrInvalidRetries
	}
	if c.RetryBaseDelay < 0 {
		return ErrInvalidRetryDelay
	}
	if c.BackoffFactor < 1.0 {
		return ErrInvalidBackoff
	}
	if c.DelayBetweenAccounts.Min < 0 || c.DelayBetweenAccounts.Max < c.DelayBetweenAccounts.Min {
		return ErrInvalidDelayRange
	}
	if c.PostClaimWait <= 0 || c.RecheckWait <= 0 {
		return ErrInvalidSchedule
	}
	if m := c.Transfer.Mode; m != "" && m != "sequential" && m != "fanout" {
		return ErrInvalidTransferMode
	}
	return nil
}

// GetRandomDelay draws a duration uniformly from the range.
func (r DelayRange) GetRandomDelay() time.Duration {
	delta := r.Max - r.Min
	if delta <= 0 {
		return r.Min
	}

	randomDuration := time.Duration(rand.Int63n(int64(delta)))
	return r.Min + randomDuration
}

// RandomIn is GetRandomDelay with an injected source, for deterministic tests.
func (r DelayRange) RandomIn(rng *rand.Rand) time.Duration {
	delta := r.Max - r.Min
	if delta <= 0 {
		return r.Min
	}
	return r.Min + time.Duration(rng.Int63n(int64(delta)))
}

// Sleep pauses for a random duration from the range.
func (r DelayRange) Sleep() {
	time.Sleep(r.GetRandomDelay())
}
