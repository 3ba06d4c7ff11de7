// Package wallet loads and generates the EVM accounts a run operates on.
package wallet

import (
	"bufio"
	"crypto/ecdsa"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Wallet is one loaded account: the raw key line from the file plus the
// parsed key and derived address.
type Wallet struct {
	// Index is the 1-based position in the keys file.
	Index int

	// PrivateKeyHex is the key as read, without the 0x prefix.
	PrivateKeyHex string

	Key     *ecdsa.PrivateKey
	Address common.Address
}

// Load reads private keys from path, one per line. Blank lines and lines
// starting with # are skipped. A line that does not parse as a hex key is
// logged and skipped rather than aborting the run; a missing or unreadable
// file is fatal to the caller.
func Load(path string) ([]Wallet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening keys file %s: %w", path, err)
	}
	defer file.Close()

	var wallets []Wallet
	lineNo := 0

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lineNo++

		w, err := FromHex(line)
		if err != nil {
			log.Warn("skipping unparseable key", "line", lineNo, "error", err)
			continue
		}
		w.Index = lineNo
		wallets = append(wallets, w)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading keys file %s: %w", path, err)
	}

	return wallets, nil
}

// FromHex parses a hex private key (with or without 0x) into a Wallet.
func FromHex(privateKeyHex string) (Wallet, error) {
	trimmed := strings.TrimPrefix(privateKeyHex, "0x")

	key, err := crypto.HexToECDSA(trimmed)
	if err != nil {
		return Wallet{}, err
	}

	publicKey, ok := key.Public().(*ecdsa.PublicKey)
	if !ok {
		return Wallet{}, fmt.Errorf("casting public key to ECDSA")
	}

	return Wallet{
		PrivateKeyHex: trimmed,
		Key:           key,
		Address:       crypto.PubkeyToAddress(*publicKey),
	}, nil
}

// Generate creates n fresh random wallets.
func Generate(n int) ([]Wallet, error) {
	wallets := make([]Wallet, 0, n)
	for i := 0; i < n; i++ {
		key, err := crypto.GenerateKey()
		if err != nil {
			return nil, fmt.Errorf("generating key %d: %w", i+1, err)
		}

		wallets = append(wallets, Wallet{
			Index:         i + 1,
			PrivateKeyHex: fmt.Sprintf("%x", crypto.FromECDSA(key)),
			Key:           key,
			Address:       crypto.PubkeyToAddress(key.PublicKey),
		})
	}
	return wallets, nil
}

// Save appends the wallets to a keys file (key per line, 0600) and an
// addresses file for funding. Either path may be empty to skip that output.
func Save(wallets []Wallet, keysPath, addressesPath string) error {
	if keysPath != "" {
		f, err := os.OpenFile(keysPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
		if err != nil {
			return fmt.Errorf("opening %s: %w", keysPath, err)
		}
		for _, w := range wallets {
			if _, err := fmt.Fprintf(f, "0x%s\n", w.PrivateKeyHex); err != nil {
				f.Close()
				return err
			}
		}
		if err := f.Close(); err != nil {
			return err
		}
	}

	if addressesPath != "" {
		f, err := os.OpenFile(addressesPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("opening %s: %w", addressesPath, err)
		}
		for _, w := range wallets {
			if _, err := fmt.Fprintf(f, "%s\n", w.Address.Hex()); err != nil {
				f.Close()
				return err
			}
		}
		if err := f.Close(); err != nil {
			return err
		}
	}

	return nil
}
