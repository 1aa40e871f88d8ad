package bookstore

import (
	"context"
	"log/slog"
	"math/big"
	"sync"
	"time"
)

// Reason records why a resync was requested.
type Reason string

const (
	ReasonConnect    Reason = "connect"
	ReasonIDsChanged Reason = "ids_changed"
	ReasonPurchase   Reason = "purchase"
	ReasonAdmin      Reason = "admin"
	ReasonClaim      Reason = "claim"
	ReasonManual     Reason = "manual"
)

// Scope selects the items a resync reads.
type Scope struct {
	All bool
	IDs []ItemID
}

// ScopeAll covers every tracked item.
func ScopeAll() Scope {
	return Scope{All: true}
}

// ScopeIDs covers only the given items.
func ScopeIDs(ids ...ItemID) Scope {
	return Scope{IDs: ids}
}

// Syncer is the synchronization controller. It is the only writer of the Store.
type Syncer struct {
	store   *Store
	reader  *Reader
	resolve func() []ItemID
	logger  *slog.Logger
	now     func() time.Time
}

// NewSyncer creates a Syncer. resolve returns the current tracked id set.
func NewSyncer(store *Store, reader *Reader, resolve func() []ItemID, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{
		store:   store,
		reader:  reader,
		resolve: resolve,
		logger:  logger,
		now:     time.Now,
	}
}

// Store returns the store the Syncer writes to.
func (s *Syncer) Store() *Store {
	return s.store
}

// Connect switches the caller and runs a full resync, including the admin identity.
func (s *Syncer) Connect(ctx context.Context, caller string) State {
	s.store.setCaller(caller)
	return s.Resync(ctx, ScopeAll(), ReasonConnect)
}

// Disconnect clears caller-derived state. No remote calls are made.
func (s *Syncer) Disconnect() State {
	s.store.setCaller("")
	return s.store.Snapshot()
}

// Resync re-reads ledger state for scope and merges it into the store by
// whole-entry replacement. Read failures leave the previous entry in place.
// The independent reads run concurrently.
func (s *Syncer) Resync(ctx context.Context, scope Scope, reason Reason) State {
	tracked := s.resolve()
	s.store.setIDs(tracked)

	targets := tracked
	if !scope.All {
		targets = scope.IDs
	}

	snap := s.store.Snapshot()
	caller := snap.Caller
	fetchAdmin := reason == ReasonConnect || snap.Admin == ""

	var (
		wg        sync.WaitGroup
		quotes    QuoteBatch
		ownership OwnershipBatch
		balance   ReadResult[*big.Int]
		admin     ReadResult[string]
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		quotes = s.reader.FetchQuotes(ctx, targets)
		s.store.mergeQuotes(quotes.Quotes)
	}()
	go func() {
		defer wg.Done()
		ownership = s.reader.FetchOwnership(ctx, caller, targets)
		if caller != "" && !s.store.mergeOwnership(caller, ownership.Owned) {
			s.logger.Debug("discarded ownership for stale caller", slog.String("caller", caller))
		}
	}()
	go func() {
		defer wg.Done()
		balance = s.reader.FetchBalance(ctx, caller)
		if balance.OK() {
			s.store.setBalance(caller, balance.Value)
		}
	}()
	if fetchAdmin {
		wg.Add(1)
		go func() {
			defer wg.Done()
			admin = s.reader.FetchAdmin(ctx)
			if admin.OK() {
				s.store.setAdmin(admin.Value)
			}
		}()
	}
	wg.Wait()

	s.store.markSynced(reason, s.now())

	s.logger.Debug("resync complete",
		slog.String("reason", string(reason)),
		slog.Int("items", len(targets)),
		slog.Int("quote_failures", len(quotes.Failures)),
		slog.Int("ownership_failures", len(ownership.Failures)),
	)
	return s.store.Snapshot()
}
