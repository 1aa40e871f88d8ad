package bookstore

import (
	"context"
	"sync"
	"time"
)

// ============================================================================
// Hook Context Types
// ============================================================================

// PurchaseContext contains information passed to purchase hooks
type PurchaseContext struct {
	Ctx       context.Context
	ItemID    ItemID
	Path      Path
	Caller    string
	AttemptID string
	Timestamp time.Time
}

// PurchaseResultContext contains a completed purchase and its context
type PurchaseResultContext struct {
	PurchaseContext
	Outcome  Outcome
	Receipts []*Receipt
	Duration time.Duration
}

// PurchaseFailureContext contains a failed purchase and its context
type PurchaseFailureContext struct {
	PurchaseContext
	Error    error
	Duration time.Duration
}

// AdminResultContext contains a confirmed administrative command
type AdminResultContext struct {
	Ctx      context.Context
	Command  AdminCommand
	ItemID   ItemID
	Receipt  *Receipt
	Duration time.Duration
}

// ============================================================================
// Hook Result Types
// ============================================================================

// BeforeHookResult represents the result of a "before" hook
// If Abort is true, the purchase is refused with the given Reason before any remote call
type BeforeHookResult struct {
	Abort  bool
	Reason string
}

// ============================================================================
// Hook Function Types
// ============================================================================

// BeforePurchaseHook is called after the pending marker is set and before any remote call
type BeforePurchaseHook func(PurchaseContext) (*BeforeHookResult, error)

// AfterPurchaseHook is called after a purchase succeeds and the state was resynced
// Any error returned will be logged but will not affect the purchase result
type AfterPurchaseHook func(PurchaseResultContext) error

// OnPurchaseFailureHook is called when a purchase fails
// Any error returned will be logged
type OnPurchaseFailureHook func(PurchaseFailureContext) error

// AfterAdminHook is called after an administrative command is confirmed
type AfterAdminHook func(AdminResultContext) error

type hookRegistry struct {
	mu             sync.RWMutex
	beforePurchase []BeforePurchaseHook
	afterPurchase  []AfterPurchaseHook
	onFailure      []OnPurchaseFailureHook
	afterAdmin     []AfterAdminHook
}

func (h *hookRegistry) snapshotBefore() []BeforePurchaseHook {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]BeforePurchaseHook(nil), h.beforePurchase...)
}

func (h *hookRegistry) snapshotAfter() []AfterPurchaseHook {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]AfterPurchaseHook(nil), h.afterPurchase...)
}

func (h *hookRegistry) snapshotFailure() []OnPurchaseFailureHook {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]OnPurchaseFailureHook(nil), h.onFailure...)
}

func (h *hookRegistry) snapshotAdmin() []AfterAdminHook {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]AfterAdminHook(nil), h.afterAdmin...)
}
