package evm

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	ledgerevm "github.com/jgbooks/bookstore/go/ledger/evm"
)

const (
	// DefaultPollInterval is how often receipts are polled
	DefaultPollInterval = 2 * time.Second

	// DefaultReceiptTimeout bounds how long a receipt is awaited
	DefaultReceiptTimeout = 3 * time.Minute

	// gasBufferPercent is added on top of the node's gas estimate
	gasBufferPercent = 20
)

// Backend is the subset of *ethclient.Client the signer needs.
type Backend interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

var _ Backend = (*ethclient.Client)(nil)

// Caller performs read-only contract calls. It is used when no wallet is connected.
type Caller struct {
	backend Backend
	from    common.Address
}

// NewCaller creates a read-only caller.
func NewCaller(backend Backend) *Caller {
	return &Caller{backend: backend}
}

// ReadContract reads data from a smart contract.
func (c *Caller) ReadContract(
	ctx context.Context,
	contractAddress string,
	abiBytes []byte,
	functionName string,
	args ...interface{},
) (interface{}, error) {
	contractABI, err := abi.JSON(strings.NewReader(string(abiBytes)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ABI: %w", err)
	}

	data, err := contractABI.Pack(functionName, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack method call: %w", err)
	}

	addr := common.HexToAddress(contractAddress)
	msg := ethereum.CallMsg{
		From: c.from,
		To:   &addr,
		Data: data,
	}

	result, err := c.backend.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("contract call failed: %w", err)
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("empty result from %s at %s", functionName, contractAddress)
	}

	outputs, err := contractABI.Unpack(functionName, result)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack result: %w", err)
	}

	if len(outputs) == 0 {
		return nil, nil
	}
	if len(outputs) == 1 {
		return outputs[0], nil
	}
	return outputs, nil
}

// ClientSigner implements ledgerevm.ContractSigner using an ECDSA private key.
type ClientSigner struct {
	Caller
	privateKey     *ecdsa.PrivateKey
	chainID        *big.Int
	pollInterval   time.Duration
	receiptTimeout time.Duration
}

// SignerOption configures a ClientSigner
type SignerOption func(*ClientSigner)

// WithPollInterval sets how often receipts are polled
func WithPollInterval(d time.Duration) SignerOption {
	return func(s *ClientSigner) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

// WithReceiptTimeout sets how long a receipt is awaited
func WithReceiptTimeout(d time.Duration) SignerOption {
	return func(s *ClientSigner) {
		if d > 0 {
			s.receiptTimeout = d
		}
	}
}

// NewClientSignerFromPrivateKey creates a signer from a hex-encoded private key.
//
// Args:
//
//	privateKeyHex: Hex-encoded private key (with or without "0x" prefix)
//	backend: RPC backend, usually an *ethclient.Client
//	chainID: Chain the transactions are signed for
//
// Example:
//
//	rpc, _ := ethclient.Dial(cfg.RPCURL)
//	signer, err := evm.NewClientSignerFromPrivateKey(os.Getenv("BOOKSTORE_PRIVATE_KEY"), rpc, big.NewInt(11155111))
func NewClientSignerFromPrivateKey(privateKeyHex string, backend Backend, chainID *big.Int, opts ...SignerOption) (*ClientSigner, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend is required")
	}
	if chainID == nil || chainID.Sign() <= 0 {
		return nil, fmt.Errorf("invalid chain id: %v", chainID)
	}

	privateKeyHex = strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x")
	privateKey, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	s := &ClientSigner{
		Caller: Caller{
			backend: backend,
			from:    crypto.PubkeyToAddress(privateKey.PublicKey),
		},
		privateKey:     privateKey,
		chainID:        new(big.Int).Set(chainID),
		pollInterval:   DefaultPollInterval,
		receiptTimeout: DefaultReceiptTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Address returns the Ethereum address of the signer.
func (s *ClientSigner) Address() string {
	return s.from.Hex()
}

// WriteContract packs the call, signs an EIP-1559 transaction and broadcasts it.
func (s *ClientSigner) WriteContract(
	ctx context.Context,
	contractAddress string,
	abiBytes []byte,
	value *big.Int,
	functionName string,
	args ...interface{},
) (string, error) {
	contractABI, err := abi.JSON(strings.NewReader(string(abiBytes)))
	if err != nil {
		return "", fmt.Errorf("failed to parse ABI: %w", err)
	}

	data, err := contractABI.Pack(functionName, args...)
	if err != nil {
		return "", fmt.Errorf("failed to pack method call: %w", err)
	}

	if value == nil {
		value = big.NewInt(0)
	}
	to := common.HexToAddress(contractAddress)

	nonce, err := s.backend.PendingNonceAt(ctx, s.from)
	if err != nil {
		return "", fmt.Errorf("failed to get nonce: %w", err)
	}

	gasTipCap, err := s.backend.SuggestGasTipCap(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get gas tip cap: %w", err)
	}
	gasPrice, err := s.backend.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get gas price: %w", err)
	}
	// Fee cap must cover the tip
	gasFeeCap := new(big.Int).Add(gasPrice, gasTipCap)

	gas, err := s.backend.EstimateGas(ctx, ethereum.CallMsg{
		From:  s.from,
		To:    &to,
		Value: value,
		Data:  data,
	})
	if err != nil {
		return "", fmt.Errorf("failed to estimate gas for %s: %w", functionName, err)
	}
	gas += gas * gasBufferPercent / 100

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   s.chainID,
		Nonce:     nonce,
		GasTipCap: gasTipCap,
		GasFeeCap: gasFeeCap,
		Gas:       gas,
		To:        &to,
		Value:     value,
		Data:      data,
	})

	signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(s.chainID), s.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := s.backend.SendTransaction(ctx, signedTx); err != nil {
		return "", fmt.Errorf("failed to send transaction: %w", err)
	}
	return signedTx.Hash().Hex(), nil
}

// WaitForTransactionReceipt polls until the transaction is mined, the receipt
// timeout passes, or ctx is done.
func (s *ClientSigner) WaitForTransactionReceipt(ctx context.Context, txHash string) (*ledgerevm.TransactionReceipt, error) {
	ctx, cancel := context.WithTimeout(ctx, s.receiptTimeout)
	defer cancel()

	hash := common.HexToHash(txHash)
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := s.backend.TransactionReceipt(ctx, hash)
		if err == nil && receipt != nil {
			var block uint64
			if receipt.BlockNumber != nil {
				block = receipt.BlockNumber.Uint64()
			}
			return &ledgerevm.TransactionReceipt{
				Status:      receipt.Status,
				BlockNumber: block,
				TxHash:      receipt.TxHash.Hex(),
			}, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("failed to get receipt: %w", err)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("transaction %s not mined: %w", txHash, ctx.Err())
		case <-ticker.C:
		}
	}
}

var (
	_ ledgerevm.ContractReader = (*Caller)(nil)
	_ ledgerevm.ContractSigner = (*ClientSigner)(nil)
)
