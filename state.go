package bookstore

import (
	"math/big"
	"strings"
	"sync"
	"time"
)

// State is an immutable view of everything the client knows about the ledger.
type State struct {
	Caller     string
	Admin      string
	IDs        []ItemID
	Quotes     map[ItemID]PriceQuote
	Owned      map[ItemID]bool
	Balance    *big.Int
	LastSync   time.Time
	LastReason Reason
}

// Connected reports whether a caller is connected.
func (s State) Connected() bool {
	return s.Caller != ""
}

// IsAdmin compares the caller with the administrator, ignoring case.
// It gates the UI only; the ledger enforces the real check.
func (s State) IsAdmin() bool {
	return s.Caller != "" && s.Admin != "" && strings.EqualFold(s.Caller, s.Admin)
}

// Quote returns the cached quote for id. ok is false when the price is unknown.
// A failed read keeps the previous quote, so it may be stale until the next
// successful resync; the native path pays it as cached and the ledger rejects a
// mismatch.
func (s State) Quote(id ItemID) (PriceQuote, bool) {
	q, ok := s.Quotes[id]
	return q, ok
}

// Owns reports whether the caller owns id.
func (s State) Owns(id ItemID) bool {
	return s.Owned[id]
}

// OwnedIDs returns the ownership set in ascending order.
func (s State) OwnedIDs() []ItemID {
	var ids []ItemID
	for id, owned := range s.Owned {
		if owned {
			ids = append(ids, id)
		}
	}
	SortItemIDs(ids)
	return ids
}

// Store holds the application state. Only the Syncer writes to it, and only by
// replacing whole fields or whole per-item entries.
type Store struct {
	mu    sync.RWMutex
	state State
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		state: State{
			Quotes:  make(map[ItemID]PriceQuote),
			Owned:   make(map[ItemID]bool),
			Balance: new(big.Int),
		},
	}
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.state
	snap.IDs = append([]ItemID(nil), s.state.IDs...)
	snap.Quotes = make(map[ItemID]PriceQuote, len(s.state.Quotes))
	for id, q := range s.state.Quotes {
		snap.Quotes[id] = q.clone()
	}
	snap.Owned = make(map[ItemID]bool, len(s.state.Owned))
	for id, owned := range s.state.Owned {
		snap.Owned[id] = owned
	}
	snap.Balance = cloneInt(s.state.Balance)
	if snap.Balance == nil {
		snap.Balance = new(big.Int)
	}
	return snap
}

// setCaller switches the connected caller. Caller-derived state is reset so it
// is recomputed for the new address.
func (s *Store) setCaller(caller string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.EqualFold(s.state.Caller, caller) && caller != "" {
		return
	}
	s.state.Caller = caller
	s.state.Owned = make(map[ItemID]bool)
	s.state.Balance = new(big.Int)
	if caller == "" {
		s.state.Admin = ""
	}
}

func (s *Store) setIDs(ids []ItemID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.IDs = append([]ItemID(nil), ids...)
}

func (s *Store) setAdmin(admin string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Admin = admin
}

// mergeQuotes replaces the entry of every id in quotes. Other ids are untouched.
func (s *Store) mergeQuotes(quotes map[ItemID]PriceQuote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, q := range quotes {
		s.state.Quotes[id] = q.clone()
	}
}

// mergeOwnership replaces the flag of every id in owned, provided the batch was
// read for the caller that is still connected.
func (s *Store) mergeOwnership(caller string, owned map[ItemID]bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if caller == "" || !strings.EqualFold(s.state.Caller, caller) {
		return false
	}
	for id, v := range owned {
		s.state.Owned[id] = v
	}
	return true
}

func (s *Store) setBalance(caller string, balance *big.Int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !strings.EqualFold(s.state.Caller, caller) {
		return false
	}
	s.state.Balance = cloneInt(balance)
	return true
}

func (s *Store) markSynced(reason Reason, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.LastSync = at
	s.state.LastReason = reason
}
