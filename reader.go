package bookstore

import (
	"context"
	"log/slog"
	"math/big"

	"golang.org/x/sync/errgroup"
)

// DefaultReadConcurrency bounds the number of per-item reads in flight.
const DefaultReadConcurrency = 4

// ReadResult is the outcome of a single display read.
type ReadResult[T any] struct {
	Value T
	Err   error
}

// OK reports whether the read succeeded.
func (r ReadResult[T]) OK() bool {
	return r.Err == nil
}

// ReadFailures records per-item read errors. Failed items are absent from the batch values.
type ReadFailures map[ItemID]error

// QuoteBatch is the partial-success result of FetchQuotes.
type QuoteBatch struct {
	Quotes   map[ItemID]PriceQuote
	Failures ReadFailures
}

// OwnershipBatch is the partial-success result of FetchOwnership.
// Owned holds an entry for every item whose flag was read, true or false.
type OwnershipBatch struct {
	Caller   string
	Owned    map[ItemID]bool
	Failures ReadFailures
}

// Reader fetches display state from the ledger. It never returns errors to its
// callers: every failure is logged and reported in the batch result.
type Reader struct {
	ledger      LedgerReader
	logger      *slog.Logger
	concurrency int
}

// NewReader creates a Reader. concurrency <= 0 uses DefaultReadConcurrency.
func NewReader(ledger LedgerReader, logger *slog.Logger, concurrency int) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	if concurrency <= 0 {
		concurrency = DefaultReadConcurrency
	}
	return &Reader{
		ledger:      ledger,
		logger:      logger,
		concurrency: concurrency,
	}
}

// FetchQuotes reads both prices for every id. An id is included only when both
// reads succeed, so a quote is never half populated.
func (r *Reader) FetchQuotes(ctx context.Context, ids []ItemID) QuoteBatch {
	results := make([]ReadResult[PriceQuote], len(ids))
	r.forEach(ctx, ids, func(ctx context.Context, i int, id ItemID) {
		native, err := r.ledger.NativePrice(ctx, id)
		if err != nil {
			results[i].Err = err
			return
		}
		token, err := r.ledger.TokenPrice(ctx, id)
		if err != nil {
			results[i].Err = err
			return
		}
		results[i].Value = PriceQuote{Native: native, Token: token}
	})

	batch := QuoteBatch{
		Quotes:   make(map[ItemID]PriceQuote, len(ids)),
		Failures: make(ReadFailures),
	}
	for i, id := range ids {
		if !results[i].OK() {
			r.logFailure("fetch_quote", id, results[i].Err)
			batch.Failures[id] = results[i].Err
			continue
		}
		batch.Quotes[id] = results[i].Value
	}
	return batch
}

// FetchOwnership reads the purchase flag of caller for every id. With no caller
// it returns an empty batch without touching the ledger.
func (r *Reader) FetchOwnership(ctx context.Context, caller string, ids []ItemID) OwnershipBatch {
	batch := OwnershipBatch{
		Caller:   caller,
		Owned:    make(map[ItemID]bool, len(ids)),
		Failures: make(ReadFailures),
	}
	if caller == "" {
		return batch
	}

	results := make([]ReadResult[bool], len(ids))
	r.forEach(ctx, ids, func(ctx context.Context, i int, id ItemID) {
		results[i].Value, results[i].Err = r.ledger.HasPurchased(ctx, caller, id)
	})

	for i, id := range ids {
		if !results[i].OK() {
			r.logFailure("fetch_ownership", id, results[i].Err)
			batch.Failures[id] = results[i].Err
			continue
		}
		batch.Owned[id] = results[i].Value
	}
	return batch
}

// FetchBalance reads the caller's token balance. With no caller the balance is zero
// and no remote call is made.
func (r *Reader) FetchBalance(ctx context.Context, caller string) ReadResult[*big.Int] {
	if caller == "" {
		return ReadResult[*big.Int]{Value: new(big.Int)}
	}
	balance, err := r.ledger.TokenBalance(ctx, caller)
	if err != nil {
		r.logFailure("fetch_balance", 0, err)
		return ReadResult[*big.Int]{Err: err}
	}
	if balance == nil {
		balance = new(big.Int)
	}
	return ReadResult[*big.Int]{Value: balance}
}

// FetchAdmin reads the store administrator.
func (r *Reader) FetchAdmin(ctx context.Context) ReadResult[string] {
	admin, err := r.ledger.Admin(ctx)
	if err != nil {
		r.logFailure("fetch_admin", 0, err)
		return ReadResult[string]{Err: err}
	}
	return ReadResult[string]{Value: admin}
}

// forEach runs fn for every id with bounded concurrency. fn writes its own slot,
// so no locking is needed.
func (r *Reader) forEach(ctx context.Context, ids []ItemID, fn func(ctx context.Context, i int, id ItemID)) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			fn(gctx, i, id)
			return nil
		})
	}
	_ = g.Wait()
}

func (r *Reader) logFailure(op string, id ItemID, err error) {
	attrs := []any{slog.String("op", op), slog.Any("err", err)}
	if id != 0 {
		attrs = append(attrs, slog.Uint64("item_id", uint64(id)))
	}
	r.logger.Warn("ledger read failed", attrs...)
}
