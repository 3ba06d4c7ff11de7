package blockchain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Balance returns the current balance of account.
func (s *Session) Balance(ctx context.Context, account common.Address) (*big.Int, error) {
	balance, err := s.eth.BalanceAt(ctx, account, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching balance of %s: %w", account.Hex(), err)
	}
	return balance, nil
}

// SendValue transfers amount wei from key's account to `to` as a plain
// legacy transaction with the given gas limit.
func (s *Session) SendValue(ctx context.Context, key *ecdsa.PrivateKey, to common.Address, amount *big.Int, gasLimit uint64) (*types.Transaction, error) {
	from := crypto.PubkeyToAddress(key.PublicKey)

	nonce, err := s.eth.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("fetching nonce: %w", err)
	}

	gasPrice, err := s.eth.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching gas price: %w", err)
	}

	tx := types.NewTransaction(nonce, to, amount, gasLimit, gasPrice, nil)

	signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(s.chainID), key)
	if err != nil {
		return nil, fmt.Errorf("signing transfer: %w", err)
	}

	if err := s.eth.SendTransaction(ctx, signedTx); err != nil {
		return nil, fmt.Errorf("sending transfer: %w", err)
	}
	return signedTx, nil
}

// Sweep sends the full balance of key's account minus the gas cost to `to`.
// Returns an error when the balance does not cover gas.
func (s *Session) Sweep(ctx context.Context, key *ecdsa.PrivateKey, to common.Address, gasLimit uint64) (*types.Transaction, error) {
	from := crypto.PubkeyToAddress(key.PublicKey)

	balance, err := s.Balance(ctx, from)
	if err != nil {
		return nil, err
	}

	gasPrice, err := s.eth.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching gas price: %w", err)
	}

	gasCost := new(big.Int).Mul(gasPrice, new(big.Int).SetUint64(gasLimit))
	if balance.Cmp(gasCost) <= 0 {
		return nil, fmt.Errorf("balance %s of %s does not cover gas cost %s", balance, from.Hex(), gasCost)
	}

	amount := new(big.Int).Sub(balance, gasCost)

	nonce, err := s.eth.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("fetching nonce: %w", err)
	}

	tx := types.NewTransaction(nonce, to, amount, gasLimit, gasPrice, nil)

	signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(s.chainID), key)
	if err != nil {
		return nil, fmt.Errorf("signing sweep: %w", err)
	}

	if err := s.eth.SendTransaction(ctx, signedTx); err != nil {
		return nil, fmt.Errorf("sending sweep: %w", err)
	}
	return signedTx, nil
}
