package wallet

import (
	"fmt"

	hdwallet "github.com/miguelmota/go-ethereum-hdwallet"
	"github.com/tyler-smith/go-bip39"
)

// derivationPath is the standard Ethereum path; account i is appended.
const derivationPath = "m/44'/60'/0'/0/%d"

// NewMnemonic generates a fresh 12-word BIP-39 mnemonic.
func NewMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(128)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

// GenerateHD derives n wallets from the given mnemonic along the standard
// Ethereum path. The same mnemonic always yields the same accounts, so a
// single phrase can back a whole keys file.
func GenerateHD(mnemonic string, n int) ([]Wallet, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, fmt.Errorf("invalid mnemonic")
	}

	hd, err := hdwallet.NewFromMnemonic(mnemonic)
	if err != nil {
		return nil, fmt.Errorf("building hd wallet: %w", err)
	}

	wallets := make([]Wallet, 0, n)
	for i := 0; i < n; i++ {
		path, err := hdwallet.ParseDerivationPath(fmt.Sprintf(derivationPath, i))
		if err != nil {
			return nil, err
		}

		account, err := hd.Derive(path, false)
		if err != nil {
			return nil, fmt.Errorf("deriving account %d: %w", i, err)
		}

		keyHex, err := hd.PrivateKeyHex(account)
		if err != nil {
			return nil, err
		}

		w, err := FromHex(keyHex)
		if err != nil {
			return nil, err
		}
		w.Index = i + 1
		wallets = append(wallets, w)
	}

	return wallets, nil
}
