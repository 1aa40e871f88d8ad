package evm

import (
	"context"
	"math/big"
)

// ContractReader performs read-only contract calls
type ContractReader interface {
	// ReadContract calls a view function and returns its first output
	ReadContract(ctx context.Context, address string, abi []byte, functionName string, args ...interface{}) (interface{}, error)
}

// ContractSigner performs reads and signs writes for a single account
type ContractSigner interface {
	ContractReader

	// Address returns the signer's Ethereum address
	Address() string

	// WriteContract sends a transaction calling functionName with value attached
	// and returns its hash without waiting for it to be mined
	WriteContract(ctx context.Context, address string, abi []byte, value *big.Int, functionName string, args ...interface{}) (string, error)

	// WaitForTransactionReceipt waits for a transaction to be mined
	WaitForTransactionReceipt(ctx context.Context, txHash string) (*TransactionReceipt, error)
}

// TransactionReceipt represents the receipt of a mined transaction
type TransactionReceipt struct {
	Status      uint64 `json:"status"`
	BlockNumber uint64 `json:"blockNumber"`
	TxHash      string `json:"transactionHash"`
}
