package blockchain

import (
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Names the claim flow relies on inside the contract descriptor.
const (
	ClaimableMethod = "claimable"
	ClaimMethod     = "claim"
	ClaimedEvent    = "RewardClaimed"
)

// defaultABI describes the reward distributor: a view returning the
// unclaimed amount for an account, the claim call, and the event emitted on
// a successful claim. A different descriptor can be supplied via the
// abi_path config.
const defaultABI = `[
{"inputs":[{"internalType":"address","name":"account","type":"address"}],"name":"claimable","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"inputs":[],"name":"claim","outputs":[],"stateMutability":"nonpayable","type":"function"},
{"anonymous":false,"inputs":[{"indexed":true,"internalType":"address","name":"account","type":"address"},{"indexed":false,"internalType":"uint256","name":"amount","type":"uint256"}],"name":"RewardClaimed","type":"event"}
]`

// LoadABI parses the contract descriptor from path, or the embedded default
// when path is empty. It is called once at startup; a missing or malformed
// file aborts the run before any attempt is made.
func LoadABI(path string) (abi.ABI, error) {
	raw := defaultABI
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return abi.ABI{}, fmt.Errorf("reading abi file %s: %w", path, err)
		}
		raw = string(data)
	}

	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("parsing contract abi: %w", err)
	}

	if _, ok := parsed.Methods[ClaimMethod]; !ok {
		return abi.ABI{}, fmt.Errorf("abi has no %q method", ClaimMethod)
	}
	if _, ok := parsed.Methods[ClaimableMethod]; !ok {
		return abi.ABI{}, fmt.Errorf("abi has no %q method", ClaimableMethod)
	}

	return parsed, nil
}
