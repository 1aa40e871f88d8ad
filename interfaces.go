package bookstore

import (
	"context"
	"io"
	"math/big"
)

// LedgerReader performs the read calls of the items-store and token contracts.
// Implementations must be safe for concurrent use.
type LedgerReader interface {
	// StoreAddress returns the items-store contract address (the token spender)
	StoreAddress() string

	// Admin returns the items-store administrator address
	Admin(ctx context.Context) (string, error)

	// NativePrice returns the native-currency price of an item in its smallest denomination
	NativePrice(ctx context.Context, id ItemID) (*big.Int, error)

	// TokenPrice returns the token price of an item in its smallest denomination
	TokenPrice(ctx context.Context, id ItemID) (*big.Int, error)

	// HasPurchased reports whether caller has paid for the item
	HasPurchased(ctx context.Context, caller string, id ItemID) (bool, error)

	// TokenBalance returns the token balance of owner
	TokenBalance(ctx context.Context, owner string) (*big.Int, error)

	// TokenAllowance returns how much of owner's token spender may move
	TokenAllowance(ctx context.Context, owner string, spender string) (*big.Int, error)
}

// Wallet submits state-mutating transactions on behalf of the connected caller.
// Every submit method returns the transaction hash without waiting for it to be mined.
type Wallet interface {
	// Address returns the caller address
	Address() string

	BuyWithNative(ctx context.Context, id ItemID, value *big.Int) (string, error)
	BuyWithToken(ctx context.Context, id ItemID) (string, error)
	ApproveToken(ctx context.Context, spender string, amount *big.Int) (string, error)
	ClaimToken(ctx context.Context) (string, error)

	SetPrice(ctx context.Context, id ItemID, native *big.Int, token *big.Int) (string, error)
	WithdrawNative(ctx context.Context) (string, error)
	WithdrawToken(ctx context.Context) (string, error)
	SetTokenContract(ctx context.Context, token string) (string, error)

	// WaitForReceipt blocks until the transaction is mined
	WaitForReceipt(ctx context.Context, txHash string) (*Receipt, error)
}

// MetadataStore persists locally cached catalog metadata and the video link.
type MetadataStore interface {
	LoadItems() (map[ItemID]ItemMetadata, error)
	SaveItems(items map[ItemID]ItemMetadata) error
	LoadVideoLink() (string, error)
	SaveVideoLink(link string) error
}

// Uploader stores a file and returns a publicly resolvable URL for it.
type Uploader interface {
	Upload(ctx context.Context, filename string, r io.Reader) (string, error)
}

// Notifier receives user-visible messages.
type Notifier interface {
	Notify(message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string)

// Notify calls f(message).
func (f NotifierFunc) Notify(message string) { f(message) }

type discardNotifier struct{}

func (discardNotifier) Notify(string) {}
