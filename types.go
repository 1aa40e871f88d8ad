package bookstore

import (
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"
)

// ItemID identifies a purchasable item on the items-store contract.
type ItemID uint64

// String renders the id in base 10.
func (id ItemID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParseItemID parses user-entered id text. Empty, non-numeric and zero ids are rejected.
func ParseItemID(s string) (ItemID, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, NewError(ErrCodeInvalidInput, "item id is required", 0, nil)
	}
	n, err := strconv.ParseUint(trimmed, 10, 64)
	if err != nil || n == 0 {
		return 0, NewError(ErrCodeInvalidInput, fmt.Sprintf("invalid item id: %q", s), 0, err)
	}
	return ItemID(n), nil
}

// SortItemIDs sorts ids ascending in place.
func SortItemIDs(ids []ItemID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}

// Path selects how a purchase is settled.
type Path string

const (
	// PathNative pays with the chain's native currency attached as transaction value.
	PathNative Path = "native"
	// PathToken pays with the configured fungible token.
	PathToken Path = "token"
)

// ParsePath maps a user-supplied settlement path name.
func ParsePath(s string) (Path, error) {
	switch Path(strings.ToLower(strings.TrimSpace(s))) {
	case PathNative, "eth":
		return PathNative, nil
	case PathToken, "jg":
		return PathToken, nil
	}
	return "", NewError(ErrCodeInvalidInput, fmt.Sprintf("unknown settlement path: %q", s), 0, nil)
}

// PriceQuote is the price pair of one item in smallest denominations.
// A quote is only ever produced by a successful remote read.
type PriceQuote struct {
	Native *big.Int `json:"native"`
	Token  *big.Int `json:"token"`
}

// Amount returns the price for the given path. Nil means unknown.
func (q PriceQuote) Amount(path Path) *big.Int {
	switch path {
	case PathNative:
		return q.Native
	case PathToken:
		return q.Token
	}
	return nil
}

func (q PriceQuote) clone() PriceQuote {
	return PriceQuote{Native: cloneInt(q.Native), Token: cloneInt(q.Token)}
}

// Outcome is the result of a purchase that did not fail.
type Outcome string

const (
	// OutcomePurchased means the settlement transaction was confirmed.
	OutcomePurchased Outcome = "purchased"
	// OutcomeAlreadyOwned means nothing was submitted because the caller already owns the item.
	OutcomeAlreadyOwned Outcome = "already_purchased"
)

// ItemMetadata is locally cached, user-entered display data for an item.
type ItemMetadata struct {
	Name     string `json:"name" toml:"name"`
	ImageURL string `json:"imageUrl" toml:"image_url"`
}

// Receipt is the confirmation of a mined transaction.
type Receipt struct {
	TxHash      string `json:"transactionHash"`
	BlockNumber uint64 `json:"blockNumber"`
	Status      uint64 `json:"status"`
}

const (
	// TxStatusFailed is the receipt status of a reverted transaction.
	TxStatusFailed = 0
	// TxStatusSuccess is the receipt status of a successful transaction.
	TxStatusSuccess = 1
)

// Succeeded reports whether the transaction executed without reverting.
func (r *Receipt) Succeeded() bool {
	return r != nil && r.Status == TxStatusSuccess
}

// CatalogEntry is a display row joining local metadata with remote state.
type CatalogEntry struct {
	ID       ItemID       `json:"id"`
	Metadata ItemMetadata `json:"metadata"`
	Quote    *PriceQuote  `json:"quote,omitempty"`
	Owned    bool         `json:"owned"`
	Pending  Path         `json:"pending,omitempty"`
}

func cloneInt(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}
