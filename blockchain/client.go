// Package blockchain wraps go-ethereum for the claim and transfer flows:
// proxied RPC dialing, contract reads, EIP-1559 submission, confirmation.
package blockchain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"airdrop_soft/config"
	"airdrop_soft/proxypool"
)

// dialTimeout bounds the HTTP client used for proxied RPC transports.
const dialTimeout = 30 * time.Second

// Client builds chain sessions. The ABI and contract address are parsed
// once at construction; each session is an independent RPC connection,
// optionally routed through a proxy.
type Client struct {
	cfg      config.Config
	abi      abi.ABI
	contract common.Address
}

// NewClient parses the contract descriptor and address from cfg.
func NewClient(cfg config.Config) (*Client, error) {
	parsed, err := LoadABI(cfg.ABIPath)
	if err != nil {
		return nil, err
	}

	if !common.IsHexAddress(cfg.ContractAddress) {
		return nil, fmt.Errorf("invalid contract address %q", cfg.ContractAddress)
	}

	return &Client{
		cfg:      cfg,
		abi:      parsed,
		contract: common.HexToAddress(cfg.ContractAddress),
	}, nil
}

// Session is one live connection to the chain.
type Session struct {
	eth      *ethclient.Client
	abi      abi.ABI
	contract common.Address
	chainID  *big.Int
	gasLimit uint64
}

// Connect dials the configured RPC endpoint, through proxyURL when one is
// given, and caches the chain ID for signing.
func (c *Client) Connect(ctx context.Context, proxyURL string) (*Session, error) {
	var rpcClient *rpc.Client
	var err error

	if proxyURL == "" {
		rpcClient, err = rpc.DialContext(ctx, c.cfg.RpcURL)
	} else {
		httpClient, perr := proxypool.HTTPClient(proxyURL, dialTimeout)
		if perr != nil {
			return nil, perr
		}
		rpcClient, err = rpc.DialOptions(ctx, c.cfg.RpcURL, rpc.WithHTTPClient(httpClient))
	}
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", c.cfg.RpcURL, err)
	}

	eth := ethclient.NewClient(rpcClient)

	chainID, err := eth.ChainID(ctx)
	if err != nil {
		eth.Close()
		return nil, fmt.Errorf("fetching chain id: %w", err)
	}

	return &Session{
		eth:      eth,
		abi:      c.abi,
		contract: c.contract,
		chainID:  chainID,
		gasLimit: c.cfg.GasLimit,
	}, nil
}

// Close releases the underlying RPC connection.
func (s *Session) Close() {
	s.eth.Close()
}

// Claimable returns the unclaimed reward amount for account. Zero means
// the reward was already claimed (or never allocated).
func (s *Session) Claimable(ctx context.Context, account common.Address) (*big.Int, error) {
	input, err := s.abi.Pack(ClaimableMethod, account)
	if err != nil {
		return nil, fmt.Errorf("packing %s call: %w", ClaimableMethod, err)
	}

	output, err := s.eth.CallContract(ctx, ethereum.CallMsg{
		To:   &s.contract,
		Data: input,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", ClaimableMethod, err)
	}

	values, err := s.abi.Unpack(ClaimableMethod, output)
	if err != nil || len(values) == 0 {
		return nil, fmt.Errorf("unpacking %s result: %w", ClaimableMethod, err)
	}

	amount, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected %s result type %T", ClaimableMethod, values[0])
	}
	return amount, nil
}

// SubmitClaim signs and sends the claim call from key's account. Fees are
// current network values: feeCap = tip + 2*baseFee, and when gas estimation
// fails the configured ceiling is used instead of aborting.
func (s *Session) SubmitClaim(ctx context.Context, key *ecdsa.PrivateKey) (*types.Transaction, error) {
	input, err := s.abi.Pack(ClaimMethod)
	if err != nil {
		return nil, fmt.Errorf("packing %s call: %w", ClaimMethod, err)
	}
	return s.submit(ctx, key, s.contract, big.NewInt(0), input, s.gasLimit)
}

// submit builds, signs and broadcasts a DynamicFeeTx to `to`.
func (s *Session) submit(ctx context.Context, key *ecdsa.PrivateKey, to common.Address, value *big.Int, data []byte, gasCeiling uint64) (*types.Transaction, error) {
	from := crypto.PubkeyToAddress(key.PublicKey)

	nonce, err := s.eth.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("fetching nonce: %w", err)
	}

	head, err := s.eth.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching head: %w", err)
	}

	tipCap, err := s.eth.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching tip cap: %w", err)
	}

	feeCap := new(big.Int).Add(
		tipCap,
		new(big.Int).Mul(head.BaseFee, big.NewInt(2)),
	)

	gasLimit, err := s.eth.EstimateGas(ctx, ethereum.CallMsg{
		From:  from,
		To:    &to,
		Value: value,
		Data:  data,
	})
	if err != nil {
		log.Warn("gas estimation failed, using ceiling", "ceiling", gasCeiling, "error", err)
		gasLimit = gasCeiling
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   s.chainID,
		Nonce:     nonce,
		GasTipCap: tipCap,
		GasFeeCap: feeCap,
		Gas:       gasLimit,
		To:        &to,
		Value:     value,
		Data:      data,
	})

	signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(s.chainID), key)
	if err != nil {
		return nil, fmt.Errorf("signing transaction: %w", err)
	}

	if err := s.eth.SendTransaction(ctx, signedTx); err != nil {
		return nil, fmt.Errorf("sending transaction: %w", err)
	}

	log.Debug("transaction sent",
		"tx", signedTx.Hash().Hex(),
		"gasLimit", gasLimit,
		"tipCap", tipCap.String(),
		"feeCap", feeCap.String(),
	)

	return signedTx, nil
}

// ClaimReceipt is the confirmed outcome of a claim transaction.
type ClaimReceipt struct {
	TxHash      common.Hash
	BlockNumber *big.Int

	// Amount is the value from the RewardClaimed event, nil when the
	// receipt carried no matching event. Absence is not an error; the
	// contract may log differently than the default descriptor assumes.
	Amount *big.Int
}

// WaitMined blocks until tx is included, then checks the status and scans
// the receipt logs for the RewardClaimed event.
func (s *Session) WaitMined(ctx context.Context, tx *types.Transaction) (*ClaimReceipt, error) {
	receipt, err := bind.WaitMined(ctx, s.eth, tx)
	if err != nil {
		return nil, fmt.Errorf("waiting for confirmation of %s: %w", tx.Hash().Hex(), err)
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("transaction %s reverted", tx.Hash().Hex())
	}

	result := &ClaimReceipt{
		TxHash:      receipt.TxHash,
		BlockNumber: receipt.BlockNumber,
	}

	event, ok := s.abi.Events[ClaimedEvent]
	if !ok {
		return result, nil
	}
	for _, entry := range receipt.Logs {
		if len(entry.Topics) == 0 || entry.Topics[0] != event.ID {
			continue
		}
		values, err := event.Inputs.NonIndexed().Unpack(entry.Data)
		if err != nil || len(values) == 0 {
			log.Debug("could not decode claim event", "tx", receipt.TxHash.Hex(), "error", err)
			break
		}
		if amount, ok := values[0].(*big.Int); ok {
			result.Amount = amount
		}
		break
	}

	return result, nil
}
