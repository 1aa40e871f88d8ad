package evm

import (
	"context"
	"fmt"
	"math/big"

	bookstore "github.com/jgbooks/bookstore/go"
)

// Wallet implements bookstore.Wallet by sending transactions through a ContractSigner.
type Wallet struct {
	signer ContractSigner
	store  string
	token  string
}

// NewWallet creates a Wallet bound to the given contracts.
func NewWallet(signer ContractSigner, storeAddress, tokenAddress string) (*Wallet, error) {
	if signer == nil {
		return nil, fmt.Errorf("signer is required")
	}
	if !IsValidAddress(storeAddress) {
		return nil, fmt.Errorf("invalid store address: %q", storeAddress)
	}
	if !IsValidAddress(tokenAddress) {
		return nil, fmt.Errorf("invalid token address: %q", tokenAddress)
	}
	return &Wallet{
		signer: signer,
		store:  NormalizeAddress(storeAddress),
		token:  NormalizeAddress(tokenAddress),
	}, nil
}

// Address returns the caller address
func (w *Wallet) Address() string {
	return w.signer.Address()
}

// BuyWithNative calls buyWithEth(id) with value attached
func (w *Wallet) BuyWithNative(ctx context.Context, id bookstore.ItemID, value *big.Int) (string, error) {
	if value == nil || value.Sign() <= 0 {
		return "", fmt.Errorf("refusing to send non-positive value for item %d", id)
	}
	return w.signer.WriteContract(ctx, w.store, BookStoreABI, value, FunctionBuyWithEth, itemArg(id))
}

// BuyWithToken calls buyWithToken(id)
func (w *Wallet) BuyWithToken(ctx context.Context, id bookstore.ItemID) (string, error) {
	return w.signer.WriteContract(ctx, w.store, BookStoreABI, nil, FunctionBuyWithToken, itemArg(id))
}

// ApproveToken calls approve(spender, amount) on the token
func (w *Wallet) ApproveToken(ctx context.Context, spender string, amount *big.Int) (string, error) {
	addr, err := addressArg(spender)
	if err != nil {
		return "", err
	}
	return w.signer.WriteContract(ctx, w.token, TokenABI, nil, FunctionApprove, addr, amount)
}

// ClaimToken calls the token faucet
func (w *Wallet) ClaimToken(ctx context.Context) (string, error) {
	return w.signer.WriteContract(ctx, w.token, TokenABI, nil, FunctionClaim)
}

// SetPrice calls setBookPrice(id, native, token)
func (w *Wallet) SetPrice(ctx context.Context, id bookstore.ItemID, native *big.Int, token *big.Int) (string, error) {
	return w.signer.WriteContract(ctx, w.store, BookStoreABI, nil, FunctionSetBookPrice, itemArg(id), native, token)
}

// WithdrawNative calls withdrawEth()
func (w *Wallet) WithdrawNative(ctx context.Context) (string, error) {
	return w.signer.WriteContract(ctx, w.store, BookStoreABI, nil, FunctionWithdrawEth)
}

// WithdrawToken calls withdrawToken()
func (w *Wallet) WithdrawToken(ctx context.Context) (string, error) {
	return w.signer.WriteContract(ctx, w.store, BookStoreABI, nil, FunctionWithdrawToken)
}

// SetTokenContract calls setTokenAddress(token)
func (w *Wallet) SetTokenContract(ctx context.Context, token string) (string, error) {
	addr, err := addressArg(token)
	if err != nil {
		return "", err
	}
	return w.signer.WriteContract(ctx, w.store, BookStoreABI, nil, FunctionSetTokenAddress, addr)
}

// WaitForReceipt waits for txHash to be mined
func (w *Wallet) WaitForReceipt(ctx context.Context, txHash string) (*bookstore.Receipt, error) {
	receipt, err := w.signer.WaitForTransactionReceipt(ctx, txHash)
	if err != nil {
		return nil, err
	}
	return &bookstore.Receipt{
		TxHash:      receipt.TxHash,
		BlockNumber: receipt.BlockNumber,
		Status:      receipt.Status,
	}, nil
}

var _ bookstore.Wallet = (*Wallet)(nil)
