package config

import "errors"

// Validation errors returned by Config.Validate. Sentinel values so callers
// can match with errors.Is while still getting a readable message.
var (
	// ErrNoRPCURL is returned when no JSON-RPC endpoint is configured.
	ErrNoRPCURL = errors.New("no rpc url configured")

	// ErrNoContract is returned when the distributor contract address is empty.
	ErrNoContract = errors.New("no contract address configured")

	// ErrNoKeysFile is returned when the private key list path is empty.
	ErrNoKeysFile = errors.New("no keys file configured")

	// ErrInvalidRetries is returned for a negative retry count.
	ErrInvalidRetries = errors.New("invalid max retries: must be non-negative")

	// ErrInvalidRetryDelay is returned for a negative retry base delay.
	ErrInvalidRetryDelay = errors.New("invalid retry base delay: must be non-negative")

	// ErrInvalidBackoff is returned for a backoff factor below 1.0, which
	// would shrink the delay on every retry.
	ErrInvalidBackoff = errors.New("invalid backoff factor: must be >= 1.0")

	// ErrInvalidDelayRange is returned when the account pause range is
	// negative or inverted.
	ErrInvalidDelayRange = errors.New("invalid delay range: min must be >= 0 and <= max")

	// ErrInvalidSchedule is returned when either continuous-mode wait is
	// not positive.
	ErrInvalidSchedule = errors.New("invalid schedule: waits must be positive")

	// ErrInvalidTransferMode is returned for a transfer mode other than
	// "sequential" or "fanout".
	ErrInvalidTransferMode = errors.New(`invalid transfer mode: must be "sequential" or "fanout"`)
)
