package evm

import (
	"context"
	"fmt"
	"math/big"

	bookstore "github.com/jgbooks/bookstore/go"
)

// Ledger implements bookstore.LedgerReader against the deployed items-store and
// token contracts.
type Ledger struct {
	reader ContractReader
	store  string
	token  string
}

// NewLedger creates a Ledger. Both addresses must be valid hex addresses.
func NewLedger(reader ContractReader, storeAddress, tokenAddress string) (*Ledger, error) {
	if !IsValidAddress(storeAddress) {
		return nil, fmt.Errorf("invalid store address: %q", storeAddress)
	}
	if !IsValidAddress(tokenAddress) {
		return nil, fmt.Errorf("invalid token address: %q", tokenAddress)
	}
	return &Ledger{
		reader: reader,
		store:  NormalizeAddress(storeAddress),
		token:  NormalizeAddress(tokenAddress),
	}, nil
}

// StoreAddress returns the items-store contract address
func (l *Ledger) StoreAddress() string {
	return l.store
}

// TokenAddress returns the token contract address
func (l *Ledger) TokenAddress() string {
	return l.token
}

// Admin returns the store owner
func (l *Ledger) Admin(ctx context.Context) (string, error) {
	out, err := l.reader.ReadContract(ctx, l.store, BookStoreABI, FunctionOwner)
	if err != nil {
		return "", fmt.Errorf("%s: %w", FunctionOwner, err)
	}
	return asAddress(out)
}

// NativePrice returns the native price of id in wei
func (l *Ledger) NativePrice(ctx context.Context, id bookstore.ItemID) (*big.Int, error) {
	return l.readUint(ctx, l.store, BookStoreABI, FunctionEthPrice, itemArg(id))
}

// TokenPrice returns the token price of id in the token's smallest unit
func (l *Ledger) TokenPrice(ctx context.Context, id bookstore.ItemID) (*big.Int, error) {
	return l.readUint(ctx, l.store, BookStoreABI, FunctionTokenPrice, itemArg(id))
}

// HasPurchased reports whether caller bought id
func (l *Ledger) HasPurchased(ctx context.Context, caller string, id bookstore.ItemID) (bool, error) {
	addr, err := addressArg(caller)
	if err != nil {
		return false, err
	}
	out, err := l.reader.ReadContract(ctx, l.store, BookStoreABI, FunctionHasPurchased, addr, itemArg(id))
	if err != nil {
		return false, fmt.Errorf("%s: %w", FunctionHasPurchased, err)
	}
	return asBool(out)
}

// TokenBalance returns the token balance of owner
func (l *Ledger) TokenBalance(ctx context.Context, owner string) (*big.Int, error) {
	addr, err := addressArg(owner)
	if err != nil {
		return nil, err
	}
	return l.readUint(ctx, l.token, TokenABI, FunctionBalanceOf, addr)
}

// TokenAllowance returns how much of owner's token spender may move
func (l *Ledger) TokenAllowance(ctx context.Context, owner string, spender string) (*big.Int, error) {
	ownerAddr, err := addressArg(owner)
	if err != nil {
		return nil, err
	}
	spenderAddr, err := addressArg(spender)
	if err != nil {
		return nil, err
	}
	return l.readUint(ctx, l.token, TokenABI, FunctionAllowance, ownerAddr, spenderAddr)
}

func (l *Ledger) readUint(ctx context.Context, contract string, abi []byte, fn string, args ...interface{}) (*big.Int, error) {
	out, err := l.reader.ReadContract(ctx, contract, abi, fn, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fn, err)
	}
	return asBigInt(out)
}

var _ bookstore.LedgerReader = (*Ledger)(nil)
