package bookstore

import (
	"context"
	"sort"
	"sync"
	"time"
)

// PendingPurchase marks an in-flight purchase of one item.
type PendingPurchase struct {
	ItemID    ItemID    `json:"itemId"`
	Path      Path      `json:"path"`
	AttemptID string    `json:"attemptId"`
	StartedAt time.Time `json:"startedAt"`
}

type pendingEntry struct {
	PendingPurchase
	done chan struct{}
}

// PendingPurchases tracks at most one in-flight purchase per item.
// A second attempt for an item is refused while the first is unresolved; it is
// never queued.
type PendingPurchases struct {
	mu       sync.Mutex
	inFlight map[ItemID]*pendingEntry
}

// NewPendingPurchases creates an empty tracker.
func NewPendingPurchases() *PendingPurchases {
	return &PendingPurchases{
		inFlight: make(map[ItemID]*pendingEntry),
	}
}

// CheckAndMark atomically marks id as in flight.
// Returns:
// - true + done channel if the caller should proceed (now marked in flight)
// - false + the existing marker's done channel if another purchase is in flight
func (p *PendingPurchases) CheckAndMark(id ItemID, path Path, attemptID string) (bool, chan struct{}) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if existing, ok := p.inFlight[id]; ok {
		return false, existing.done
	}

	entry := &pendingEntry{
		PendingPurchase: PendingPurchase{
			ItemID:    id,
			Path:      path,
			AttemptID: attemptID,
			StartedAt: time.Now(),
		},
		done: make(chan struct{}),
	}
	p.inFlight[id] = entry
	return true, entry.done
}

// Clear removes the marker and signals waiters. It is called on success and on
// failure alike, so the purchase can be retried from scratch.
func (p *PendingPurchases) Clear(id ItemID, done chan struct{}) {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.inFlight[id]
	if !ok || entry.done != done {
		return
	}
	delete(p.inFlight, id)
	close(done)
}

// Get returns the marker for id, if any.
func (p *PendingPurchases) Get(id ItemID) (PendingPurchase, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.inFlight[id]
	if !ok {
		return PendingPurchase{}, false
	}
	return entry.PendingPurchase, true
}

// List returns all markers ordered by item id.
func (p *PendingPurchases) List() []PendingPurchase {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]PendingPurchase, 0, len(p.inFlight))
	for _, entry := range p.inFlight {
		out = append(out, entry.PendingPurchase)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out
}

// Wait blocks until the purchase of id is no longer in flight, respecting
// context cancellation. It returns immediately when nothing is pending.
func (p *PendingPurchases) Wait(ctx context.Context, id ItemID) error {
	p.mu.Lock()
	entry, ok := p.inFlight[id]
	p.mu.Unlock()
	if !ok {
		return nil
	}

	select {
	case <-entry.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
