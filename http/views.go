package http

import (
	"math/big"
	"strconv"
	"time"

	bookstore "github.com/jgbooks/bookstore/go"
)

// PurchaseRequest is the body of POST /api/purchase
type PurchaseRequest struct {
	ItemID string `json:"itemId"`
	Path   string `json:"path"`
}

// AdminRequest is the body of POST /api/admin
type AdminRequest struct {
	Command     string `json:"command"`
	ItemID      string `json:"itemId,omitempty"`
	NativePrice string `json:"nativePrice,omitempty"`
	TokenPrice  string `json:"tokenPrice,omitempty"`
	Token       string `json:"token,omitempty"`
}

// MetadataRequest is the body of POST /api/metadata
type MetadataRequest struct {
	ItemID string `json:"itemId"`
	Name   string `json:"name"`
}

// VideoRequest is the body of PUT /api/video
type VideoRequest struct {
	Link string `json:"link"`
}

// AmountView renders an amount in smallest units and in whole units.
// Raw amounts are strings since they routinely exceed 2^53.
type AmountView struct {
	Raw       string `json:"raw"`
	Formatted string `json:"formatted"`
}

// QuoteView is a price pair
type QuoteView struct {
	Native AmountView `json:"native"`
	Token  AmountView `json:"token"`
}

// StateView is the JSON form of a bookstore.State
type StateView struct {
	Connected  bool                 `json:"connected"`
	Caller     string               `json:"caller,omitempty"`
	Admin      string               `json:"admin,omitempty"`
	IsAdmin    bool                 `json:"isAdmin"`
	ItemIDs    []uint64             `json:"itemIds"`
	Owned      []uint64             `json:"owned"`
	Quotes     map[string]QuoteView `json:"quotes"`
	Balance    AmountView           `json:"balance"`
	LastSync   *time.Time           `json:"lastSync,omitempty"`
	LastReason string               `json:"lastReason,omitempty"`
}

// CatalogItemView is one row of the catalog
type CatalogItemView struct {
	ItemID   uint64     `json:"itemId"`
	Name     string     `json:"name"`
	ImageURL string     `json:"imageUrl,omitempty"`
	Quote    *QuoteView `json:"quote,omitempty"`
	Owned    bool       `json:"owned"`
	Pending  string     `json:"pending,omitempty"`
}

// PendingView is an in-flight purchase
type PendingView struct {
	ItemID    uint64    `json:"itemId"`
	Path      string    `json:"path"`
	AttemptID string    `json:"attemptId"`
	StartedAt time.Time `json:"startedAt"`
}

// PurchaseResponse is returned by a successful purchase
type PurchaseResponse struct {
	ItemID  uint64    `json:"itemId"`
	Path    string    `json:"path"`
	Outcome string    `json:"outcome"`
	State   StateView `json:"state"`
}

// ReceiptResponse is returned by claim and admin commands
type ReceiptResponse struct {
	Receipt *bookstore.Receipt `json:"receipt"`
	State   StateView          `json:"state"`
}

// VideoView is the saved video link
type VideoView struct {
	Link     string `json:"link"`
	EmbedURL string `json:"embedUrl,omitempty"`
}

func (s *Service) stateView(st bookstore.State) StateView {
	native, token := s.client.Decimals()
	view := StateView{
		Connected:  st.Connected(),
		Caller:     st.Caller,
		Admin:      st.Admin,
		IsAdmin:    st.IsAdmin(),
		ItemIDs:    toUint64s(st.IDs),
		Owned:      toUint64s(st.OwnedIDs()),
		Quotes:     make(map[string]QuoteView, len(st.Quotes)),
		Balance:    newAmountView(st.Balance, token),
		LastReason: string(st.LastReason),
	}
	for id, q := range st.Quotes {
		view.Quotes[strconv.FormatUint(uint64(id), 10)] = newQuoteView(q, native, token)
	}
	if !st.LastSync.IsZero() {
		t := st.LastSync
		view.LastSync = &t
	}
	return view
}

func newCatalogItemView(e bookstore.CatalogEntry, native, token int) CatalogItemView {
	view := CatalogItemView{
		ItemID:   uint64(e.ID),
		Name:     e.Metadata.Name,
		ImageURL: e.Metadata.ImageURL,
		Owned:    e.Owned,
		Pending:  string(e.Pending),
	}
	if e.Quote != nil {
		q := newQuoteView(*e.Quote, native, token)
		view.Quote = &q
	}
	return view
}

func newQuoteView(q bookstore.PriceQuote, native, token int) QuoteView {
	return QuoteView{
		Native: newAmountView(q.Native, native),
		Token:  newAmountView(q.Token, token),
	}
}

func newAmountView(v *big.Int, decimals int) AmountView {
	if v == nil {
		v = new(big.Int)
	}
	return AmountView{Raw: v.String(), Formatted: bookstore.FormatUnits(v, decimals)}
}

func toUint64s(ids []bookstore.ItemID) []uint64 {
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		out = append(out, uint64(id))
	}
	return out
}
