package bookstore_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bookstore "github.com/jgbooks/bookstore/go"
	"github.com/jgbooks/bookstore/go/ledger/evm"
	"github.com/jgbooks/bookstore/go/test/mocks/ledger"
)

func TestReader_FetchQuotesPartialFailure(t *testing.T) {
	l := ledger.New(storeAddr, tokenAddr, adminAddr)
	l.SetPrice(1, big.NewInt(10), big.NewInt(20))
	l.SetPrice(2, big.NewInt(30), big.NewInt(40))
	l.FailReadFor(evm.FunctionTokenPrice, 2, errors.New("rpc timeout"))

	r := bookstore.NewReader(l, discardLogger(), 2)
	batch := r.FetchQuotes(context.Background(), []bookstore.ItemID{1, 2, 3})

	require.Len(t, batch.Quotes, 2)
	assert.Equal(t, int64(10), batch.Quotes[1].Native.Int64())
	assert.Equal(t, int64(20), batch.Quotes[1].Token.Int64())
	assert.Equal(t, int64(0), batch.Quotes[3].Native.Int64())

	_, half := batch.Quotes[2]
	assert.False(t, half, "a quote with one failed read must not be reported")
	assert.EqualError(t, batch.Failures[2], "rpc timeout")
}

func TestReader_FetchOwnership(t *testing.T) {
	l := ledger.New(storeAddr, tokenAddr, adminAddr)
	l.SetPurchased(buyerAddr, 2)
	l.FailReadFor(evm.FunctionHasPurchased, 3, errors.New("boom"))

	r := bookstore.NewReader(l, discardLogger(), 0)
	batch := r.FetchOwnership(context.Background(), buyerAddr, []bookstore.ItemID{1, 2, 3})

	assert.Equal(t, map[bookstore.ItemID]bool{1: false, 2: true}, batch.Owned)
	assert.Contains(t, batch.Failures, bookstore.ItemID(3))
	assert.Equal(t, buyerAddr, batch.Caller)
}

func TestReader_NoCallerMakesNoCalls(t *testing.T) {
	l := ledger.New(storeAddr, tokenAddr, adminAddr)
	r := bookstore.NewReader(l, discardLogger(), 0)

	batch := r.FetchOwnership(context.Background(), "", []bookstore.ItemID{1, 2})
	assert.Empty(t, batch.Owned)

	balance := r.FetchBalance(context.Background(), "")
	assert.True(t, balance.OK())
	assert.Equal(t, int64(0), balance.Value.Int64())

	assert.Empty(t, l.Calls())
}

func TestReader_FetchBalanceAndAdmin(t *testing.T) {
	l := ledger.New(storeAddr, tokenAddr, adminAddr)
	l.SetBalance(buyerAddr, big.NewInt(99))
	r := bookstore.NewReader(l, discardLogger(), 0)

	balance := r.FetchBalance(context.Background(), buyerAddr)
	require.True(t, balance.OK())
	assert.Equal(t, int64(99), balance.Value.Int64())

	admin := r.FetchAdmin(context.Background())
	require.True(t, admin.OK())
	assert.Equal(t, adminAddr, admin.Value)

	l.FailRead(evm.FunctionOwner, errors.New("down"))
	assert.False(t, r.FetchAdmin(context.Background()).OK())
}
