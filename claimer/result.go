package claimer

import (
	"time"

	"airdrop_soft/wallet"
)

// Outcome tags the result of one claim attempt for one wallet.
type Outcome int

const (
	// OutcomeSuccess means the claim transaction confirmed.
	OutcomeSuccess Outcome = iota

	// OutcomeSkipped means the claimable amount was zero, so no
	// transaction was submitted.
	OutcomeSkipped

	// OutcomeFailure means every attempt failed and retries are exhausted.
	OutcomeFailure
)

// String implements fmt.Stringer for log output.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Result is the outcome of processing one wallet in a cycle.
type Result struct {
	Outcome Outcome
	Wallet  wallet.Wallet

	// TxHash is set on success.
	TxHash string

	// Err is the last error on failure.
	Err error

	// Attempts is how many times the claim was tried.
	Attempts int
}

// CycleStats aggregates one full pass over all wallets. Success counts
// confirmed claims only; already-claimed wallets land in Skipped.
type CycleStats struct {
	Success int
	Skipped int
	Failed  int
	Total   int

	Start   time.Time
	End     time.Time
	Elapsed time.Duration
}
