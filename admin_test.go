package bookstore_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bookstore "github.com/jgbooks/bookstore/go"
	"github.com/jgbooks/bookstore/go/ledger/evm"
)

func TestAdmin_RefusedForNonAdmin(t *testing.T) {
	f := newFixture(t)
	f.connect(t, buyerAddr)
	admin := f.client.Admin()
	ctx := context.Background()

	calls := map[string]func() (*bookstore.Receipt, error){
		"set price": func() (*bookstore.Receipt, error) {
			return admin.SetPrice(ctx, 1, big.NewInt(1), big.NewInt(1))
		},
		"withdraw native": func() (*bookstore.Receipt, error) { return admin.WithdrawNative(ctx) },
		"withdraw token":  func() (*bookstore.Receipt, error) { return admin.WithdrawToken(ctx) },
		"set token contract": func() (*bookstore.Receipt, error) {
			return admin.SetTokenContract(ctx, "0x5555555555555555555555555555555555555555")
		},
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			_, err := call()
			assert.ErrorIs(t, err, bookstore.ErrNotAdmin)
		})
	}
	assert.Empty(t, f.ledger.Writes())
}

func TestAdmin_RefusedWhenDisconnected(t *testing.T) {
	f := newFixture(t)
	f.client.Start(context.Background())

	_, err := f.client.Admin().WithdrawNative(context.Background())
	assert.ErrorIs(t, err, bookstore.ErrNotConnected)
}

func TestAdmin_IsAdminFollowsCaller(t *testing.T) {
	f := newFixture(t)
	assert.False(t, f.connect(t, buyerAddr).IsAdmin())
	assert.True(t, f.connect(t, adminAddr).IsAdmin())
	assert.False(t, f.client.Disconnect().IsAdmin())
}

func TestAdmin_SetPriceFromInput(t *testing.T) {
	f := newFixture(t)
	f.connect(t, adminAddr)

	var hooked bookstore.AdminCommand
	f.client.OnAfterAdmin(func(ac bookstore.AdminResultContext) error {
		hooked = ac.Command
		return nil
	})

	receipt, err := f.client.Admin().SetPriceFromInput(context.Background(), "2", "0.002", "3.5")
	require.NoError(t, err)
	assert.True(t, receipt.Succeeded())
	assert.Equal(t, bookstore.CommandSetPrice, hooked)
	assert.Equal(t, "Price updated", f.notices.Last())

	// The command resyncs, so the new quote is visible without a manual refresh.
	q, ok := f.client.Snapshot().Quote(2)
	require.True(t, ok)
	assert.Equal(t, "2000000000000000", q.Native.String())
	assert.Equal(t, "3500000000000000000", q.Token.String())
	assert.Equal(t, bookstore.ReasonAdmin, f.client.Snapshot().LastReason)
}

func TestAdmin_SetPriceInvalidInputSubmitsNothing(t *testing.T) {
	f := newFixture(t)
	f.connect(t, adminAddr)

	tests := []struct {
		name   string
		id     string
		native string
		token  string
	}{
		{name: "missing id", id: "", native: "1", token: "1"},
		{name: "non numeric id", id: "two", native: "1", token: "1"},
		{name: "bad native", id: "1", native: "abc", token: "1"},
		{name: "too many decimals", id: "1", native: "1", token: "0.0000000000000000001"},
		{name: "negative", id: "1", native: "-1", token: "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.client.Admin().SetPriceFromInput(context.Background(), tt.id, tt.native, tt.token)
			assert.ErrorIs(t, err, bookstore.ErrInvalidInput)
		})
	}
	assert.Empty(t, f.ledger.Writes())
}

func TestAdmin_EmptyPricesMeanZero(t *testing.T) {
	f := newFixture(t)
	f.connect(t, adminAddr)

	_, err := f.client.Admin().SetPriceFromInput(context.Background(), "1", "", "")
	require.NoError(t, err)
	q, _ := f.client.Snapshot().Quote(1)
	assert.Equal(t, int64(0), q.Native.Int64())
	assert.Equal(t, int64(0), q.Token.Int64())
}

func TestAdmin_Withdraw(t *testing.T) {
	f := newFixture(t)
	f.ledger.SetBalance(buyerAddr, fiveTokens())

	f.connect(t, buyerAddr)
	_, err := f.client.Purchase(context.Background(), 2, bookstore.PathNative)
	require.NoError(t, err)
	_, err = f.client.Purchase(context.Background(), 1, bookstore.PathToken)
	require.NoError(t, err)
	require.Equal(t, 0, f.ledger.StoreNative().Cmp(milliEth))

	f.connect(t, adminAddr)
	_, err = f.client.Admin().WithdrawNative(context.Background())
	require.NoError(t, err)
	_, err = f.client.Admin().WithdrawToken(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(0), f.ledger.StoreNative().Int64())
	assert.Equal(t, int64(0), f.ledger.Balance(storeAddr).Int64())
	assert.Equal(t, int64(700), f.ledger.Balance(adminAddr).Int64())
	assert.Equal(t, int64(700), f.client.Snapshot().Balance.Int64(), "admin balance resynced")
}

func TestAdmin_SetTokenContract(t *testing.T) {
	f := newFixture(t)
	f.connect(t, adminAddr)

	_, err := f.client.Admin().SetTokenContract(context.Background(), "not-an-address")
	assert.ErrorIs(t, err, bookstore.ErrInvalidInput)
	assert.Empty(t, f.ledger.Writes())

	next := "0x5555555555555555555555555555555555555555"
	_, err = f.client.Admin().SetTokenContract(context.Background(), next)
	require.NoError(t, err)
	assert.Equal(t, next, f.ledger.TokenContract())
	assert.Equal(t, "Token address updated", f.notices.Last())
}

func TestAdmin_RejectedTransaction(t *testing.T) {
	f := newFixture(t)
	f.connect(t, adminAddr)
	f.ledger.Revert(evm.FunctionWithdrawEth, true)

	_, err := f.client.Admin().WithdrawNative(context.Background())
	assert.ErrorIs(t, err, bookstore.ErrTxFailed)
}
