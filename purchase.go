package bookstore

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// TokenSnapshot is the state the token path acts on, read fresh in one round.
type TokenSnapshot struct {
	Price        *big.Int
	Allowance    *big.Int
	Balance      *big.Int
	AlreadyOwned bool
}

// NeedsApproval reports whether the current allowance cannot cover the price.
func (s TokenSnapshot) NeedsApproval() bool {
	return s.Allowance.Cmp(s.Price) < 0
}

// Orchestrator executes purchases through one of the two settlement paths.
type Orchestrator struct {
	ledger   LedgerReader
	syncer   *Syncer
	session  *Session
	pending  *PendingPurchases
	hooks    *hookRegistry
	notifier Notifier
	logger   *slog.Logger
}

// Purchase buys id through path. It refuses to start while another purchase of
// the same id is in flight. The pending marker is cleared whatever the result.
func (o *Orchestrator) Purchase(ctx context.Context, id ItemID, path Path) (Outcome, error) {
	wallet, err := o.session.requireWallet()
	if err != nil {
		return "", o.fail(err)
	}
	if path != PathNative && path != PathToken {
		return "", o.fail(NewError(ErrCodeInvalidInput, fmt.Sprintf("unknown settlement path: %q", path), id, nil))
	}

	attemptID := uuid.NewString()
	proceed, done := o.pending.CheckAndMark(id, path, attemptID)
	if !proceed {
		return "", o.fail(NewError(ErrCodePurchasePending, "a purchase of this item is already in progress", id, nil))
	}
	defer o.pending.Clear(id, done)

	pctx := PurchaseContext{
		Ctx:       ctx,
		ItemID:    id,
		Path:      path,
		Caller:    wallet.Address(),
		AttemptID: attemptID,
		Timestamp: time.Now(),
	}
	logger := o.logger.With(
		slog.String("attempt_id", attemptID),
		slog.Uint64("item_id", uint64(id)),
		slog.String("path", string(path)),
	)

	for _, hook := range o.hooks.snapshotBefore() {
		result, err := hook(pctx)
		if err != nil {
			return "", o.fail(NewError(ErrCodeAborted, "purchase aborted by hook", id, err))
		}
		if result != nil && result.Abort {
			return "", o.fail(NewError(ErrCodeAborted, result.Reason, id, nil))
		}
	}

	start := time.Now()
	var (
		outcome  Outcome
		receipts []*Receipt
	)
	switch path {
	case PathNative:
		outcome, receipts, err = o.purchaseNative(ctx, wallet, id)
	case PathToken:
		outcome, receipts, err = o.purchaseToken(ctx, wallet, id)
	}
	duration := time.Since(start)

	if err != nil {
		logger.Error("purchase failed", slog.Any("err", err), slog.Duration("duration", duration))
		for _, hook := range o.hooks.snapshotFailure() {
			if herr := hook(PurchaseFailureContext{PurchaseContext: pctx, Error: err, Duration: duration}); herr != nil {
				logger.Warn("purchase failure hook error", slog.Any("err", herr))
			}
		}
		return "", o.fail(err)
	}

	logger.Info("purchase complete", slog.String("outcome", string(outcome)), slog.Duration("duration", duration))
	for _, hook := range o.hooks.snapshotAfter() {
		result := PurchaseResultContext{PurchaseContext: pctx, Outcome: outcome, Receipts: receipts, Duration: duration}
		if herr := hook(result); herr != nil {
			logger.Warn("after purchase hook error", slog.Any("err", herr))
		}
	}

	switch {
	case outcome == OutcomeAlreadyOwned:
		o.notifier.Notify("Already purchased")
	case path == PathNative:
		o.notifier.Notify("Bought with native currency")
	default:
		o.notifier.Notify("Bought with token")
	}
	return outcome, nil
}

// purchaseNative pays exactly the cached native price. Nothing is submitted when
// the price is unknown or zero.
func (o *Orchestrator) purchaseNative(ctx context.Context, wallet Wallet, id ItemID) (Outcome, []*Receipt, error) {
	quote, ok := o.syncer.Store().Snapshot().Quote(id)
	if !ok || quote.Native == nil {
		return "", nil, NewError(ErrCodePriceUnknown, "native price not loaded", id, nil)
	}
	if quote.Native.Sign() <= 0 {
		return "", nil, NewError(ErrCodePriceUnknown, "item has no native price", id, nil)
	}

	price := new(big.Int).Set(quote.Native)
	receipt, err := submitAndWait(ctx, wallet, id, "buy_with_native", func(ctx context.Context) (string, error) {
		return wallet.BuyWithNative(ctx, id, price)
	})
	if err != nil {
		return "", nil, err
	}

	o.syncer.Resync(ctx, ScopeAll(), ReasonPurchase)
	return OutcomePurchased, []*Receipt{receipt}, nil
}

// purchaseToken runs the snapshot → optional approval → settlement protocol.
func (o *Orchestrator) purchaseToken(ctx context.Context, wallet Wallet, id ItemID) (Outcome, []*Receipt, error) {
	snap, err := o.TokenSnapshot(ctx, wallet.Address(), id)
	if err != nil {
		return "", nil, NewError(ErrCodeSnapshotFailed, "could not read purchase preconditions", id, err)
	}

	if snap.AlreadyOwned {
		return OutcomeAlreadyOwned, nil, nil
	}
	if snap.Price.Sign() <= 0 {
		return "", nil, NewError(ErrCodePriceUnknown, "item has no token price", id, nil)
	}
	if snap.Balance.Cmp(snap.Price) < 0 {
		return "", nil, NewError(ErrCodeInsufficientBalance,
			fmt.Sprintf("token balance %s below price %s", snap.Balance, snap.Price), id, nil)
	}

	var receipts []*Receipt
	if snap.NeedsApproval() {
		spender := o.ledger.StoreAddress()
		receipt, err := submitAndWait(ctx, wallet, id, "approve", func(ctx context.Context) (string, error) {
			return wallet.ApproveToken(ctx, spender, MaxAllowance())
		})
		if err != nil {
			return "", nil, err
		}
		receipts = append(receipts, receipt)
	}

	receipt, err := submitAndWait(ctx, wallet, id, "buy_with_token", func(ctx context.Context) (string, error) {
		return wallet.BuyWithToken(ctx, id)
	})
	if err != nil {
		return "", nil, err
	}
	receipts = append(receipts, receipt)

	o.syncer.Resync(ctx, ScopeAll(), ReasonPurchase)
	return OutcomePurchased, receipts, nil
}

// TokenSnapshot reads the token price, the allowance granted to the store, the
// caller's balance and the ownership flag concurrently, bypassing the cache.
// Any failed read fails the snapshot.
func (o *Orchestrator) TokenSnapshot(ctx context.Context, caller string, id ItemID) (TokenSnapshot, error) {
	var snap TokenSnapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		price, err := o.ledger.TokenPrice(gctx, id)
		if err != nil {
			return fmt.Errorf("token price: %w", err)
		}
		snap.Price = orZero(price)
		return nil
	})
	g.Go(func() error {
		allowance, err := o.ledger.TokenAllowance(gctx, caller, o.ledger.StoreAddress())
		if err != nil {
			return fmt.Errorf("allowance: %w", err)
		}
		snap.Allowance = orZero(allowance)
		return nil
	})
	g.Go(func() error {
		balance, err := o.ledger.TokenBalance(gctx, caller)
		if err != nil {
			return fmt.Errorf("balance: %w", err)
		}
		snap.Balance = orZero(balance)
		return nil
	})
	g.Go(func() error {
		owned, err := o.ledger.HasPurchased(gctx, caller, id)
		if err != nil {
			return fmt.Errorf("ownership: %w", err)
		}
		snap.AlreadyOwned = owned
		return nil
	})
	if err := g.Wait(); err != nil {
		return TokenSnapshot{}, err
	}
	return snap, nil
}

// fail reports err to the user and returns it unchanged.
func (o *Orchestrator) fail(err error) error {
	o.notifier.Notify(err.Error())
	return err
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
