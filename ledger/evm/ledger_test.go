package evm

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	ethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const (
	testStore  = "0x45F46Ec77c5BbfeE42daC36cC9eCb18DCF3Ada71"
	testToken  = "0xD9cFff0E93c198A2e5215E49097E8eF3FaE8443E"
	testCaller = "0x1111111111111111111111111111111111111111"
)

type recordedCall struct {
	address  string
	function string
	value    *big.Int
	args     []interface{}
}

// mockSigner implements ContractSigner and records every call.
type mockSigner struct {
	reads   []recordedCall
	writes  []recordedCall
	results map[string]interface{}
	readErr error
	receipt *TransactionReceipt
}

func (m *mockSigner) ReadContract(_ context.Context, address string, abi []byte, fn string, args ...interface{}) (interface{}, error) {
	// Every call must pack against the ABI it targets
	parsed, err := ethabi.JSON(strings.NewReader(string(abi)))
	if err != nil {
		return nil, err
	}
	if _, err := parsed.Pack(fn, args...); err != nil {
		return nil, err
	}
	m.reads = append(m.reads, recordedCall{address: address, function: fn, args: args})
	if m.readErr != nil {
		return nil, m.readErr
	}
	return m.results[fn], nil
}

func (m *mockSigner) Address() string { return testCaller }

func (m *mockSigner) WriteContract(_ context.Context, address string, abi []byte, value *big.Int, fn string, args ...interface{}) (string, error) {
	parsed, err := ethabi.JSON(strings.NewReader(string(abi)))
	if err != nil {
		return "", err
	}
	if _, err := parsed.Pack(fn, args...); err != nil {
		return "", err
	}
	m.writes = append(m.writes, recordedCall{address: address, function: fn, value: value, args: args})
	return "0xhash", nil
}

func (m *mockSigner) WaitForTransactionReceipt(_ context.Context, txHash string) (*TransactionReceipt, error) {
	if m.receipt == nil {
		return &TransactionReceipt{Status: TxStatusSuccess, BlockNumber: 1, TxHash: txHash}, nil
	}
	return m.receipt, nil
}

func TestNewLedger_InvalidAddresses(t *testing.T) {
	if _, err := NewLedger(&mockSigner{}, "nope", testToken); err == nil {
		t.Error("Expected error for invalid store address")
	}
	if _, err := NewLedger(&mockSigner{}, testStore, "0x123"); err == nil {
		t.Error("Expected error for invalid token address")
	}
}

func TestLedger_Reads(t *testing.T) {
	ctx := context.Background()
	owner := common.HexToAddress("0x2222222222222222222222222222222222222222")
	signer := &mockSigner{results: map[string]interface{}{
		FunctionOwner:        owner,
		FunctionEthPrice:     big.NewInt(1e15),
		FunctionTokenPrice:   big.NewInt(2e18),
		FunctionHasPurchased: true,
		FunctionBalanceOf:    big.NewInt(5e18),
		FunctionAllowance:    big.NewInt(0),
	}}
	ledger, err := NewLedger(signer, strings.ToLower(testStore), strings.ToLower(testToken))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if ledger.StoreAddress() != testStore {
		t.Errorf("Expected checksummed store address, got %s", ledger.StoreAddress())
	}
	if ledger.TokenAddress() != NormalizeAddress(testToken) {
		t.Errorf("Expected checksummed token address, got %s", ledger.TokenAddress())
	}

	admin, err := ledger.Admin(ctx)
	if err != nil || admin != owner.Hex() {
		t.Errorf("Expected admin %s, got %s (%v)", owner.Hex(), admin, err)
	}

	native, err := ledger.NativePrice(ctx, 2)
	if err != nil || native.Cmp(big.NewInt(1e15)) != 0 {
		t.Errorf("Expected native price 1e15, got %v (%v)", native, err)
	}

	token, err := ledger.TokenPrice(ctx, 2)
	if err != nil || token.Cmp(big.NewInt(2e18)) != 0 {
		t.Errorf("Expected token price 2e18, got %v (%v)", token, err)
	}

	owned, err := ledger.HasPurchased(ctx, testCaller, 2)
	if err != nil || !owned {
		t.Errorf("Expected owned, got %v (%v)", owned, err)
	}

	balance, err := ledger.TokenBalance(ctx, testCaller)
	if err != nil || balance.Cmp(big.NewInt(5e18)) != 0 {
		t.Errorf("Expected balance 5e18, got %v (%v)", balance, err)
	}

	allowance, err := ledger.TokenAllowance(ctx, testCaller, testStore)
	if err != nil || allowance.Sign() != 0 {
		t.Errorf("Expected zero allowance, got %v (%v)", allowance, err)
	}

	for _, call := range signer.reads {
		want := testStore
		if call.function == FunctionBalanceOf || call.function == FunctionAllowance {
			want = testToken
		}
		if call.address != want {
			t.Errorf("%s: expected contract %s, got %s", call.function, want, call.address)
		}
	}
}

func TestLedger_ReadErrors(t *testing.T) {
	ctx := context.Background()
	ledger, _ := NewLedger(&mockSigner{readErr: errors.New("rpc down")}, testStore, testToken)

	if _, err := ledger.NativePrice(ctx, 1); err == nil || !strings.Contains(err.Error(), FunctionEthPrice) {
		t.Errorf("Expected wrapped ethPrice error, got %v", err)
	}
	if _, err := ledger.HasPurchased(ctx, "bad", 1); err == nil {
		t.Error("Expected error for invalid caller")
	}

	ledger, _ = NewLedger(&mockSigner{results: map[string]interface{}{FunctionHasPurchased: "yes"}}, testStore, testToken)
	if _, err := ledger.HasPurchased(ctx, testCaller, 1); err == nil {
		t.Error("Expected error for unexpected result type")
	}
}

func TestWallet_Writes(t *testing.T) {
	ctx := context.Background()
	signer := &mockSigner{}
	wallet, err := NewWallet(signer, testStore, testToken)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if wallet.Address() != testCaller {
		t.Errorf("Expected address %s, got %s", testCaller, wallet.Address())
	}

	maxUint := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	steps := []func() (string, error){
		func() (string, error) { return wallet.BuyWithNative(ctx, 2, big.NewInt(1e15)) },
		func() (string, error) { return wallet.ApproveToken(ctx, testStore, maxUint) },
		func() (string, error) { return wallet.BuyWithToken(ctx, 2) },
		func() (string, error) { return wallet.ClaimToken(ctx) },
		func() (string, error) { return wallet.SetPrice(ctx, 3, big.NewInt(1), big.NewInt(2)) },
		func() (string, error) { return wallet.WithdrawNative(ctx) },
		func() (string, error) { return wallet.WithdrawToken(ctx) },
		func() (string, error) { return wallet.SetTokenContract(ctx, testToken) },
	}
	for i, step := range steps {
		if _, err := step(); err != nil {
			t.Fatalf("step %d: unexpected error: %v", i, err)
		}
	}

	expected := []struct {
		function string
		address  string
	}{
		{FunctionBuyWithEth, testStore},
		{FunctionApprove, testToken},
		{FunctionBuyWithToken, testStore},
		{FunctionClaim, testToken},
		{FunctionSetBookPrice, testStore},
		{FunctionWithdrawEth, testStore},
		{FunctionWithdrawToken, testStore},
		{FunctionSetTokenAddress, testStore},
	}
	if len(signer.writes) != len(expected) {
		t.Fatalf("Expected %d writes, got %d", len(expected), len(signer.writes))
	}
	for i, want := range expected {
		got := signer.writes[i]
		if got.function != want.function || got.address != want.address {
			t.Errorf("write %d: expected %s on %s, got %s on %s", i, want.function, want.address, got.function, got.address)
		}
	}

	if signer.writes[0].value.Cmp(big.NewInt(1e15)) != 0 {
		t.Errorf("Expected value 1e15 on native buy, got %v", signer.writes[0].value)
	}
	if signer.writes[1].args[1].(*big.Int).Cmp(maxUint) != 0 {
		t.Error("Expected approval amount to be the maximum uint256")
	}
}

func TestWallet_RejectsBadInput(t *testing.T) {
	ctx := context.Background()
	signer := &mockSigner{}
	wallet, _ := NewWallet(signer, testStore, testToken)

	if _, err := wallet.BuyWithNative(ctx, 1, big.NewInt(0)); err == nil {
		t.Error("Expected error for zero value")
	}
	if _, err := wallet.ApproveToken(ctx, "store", big.NewInt(1)); err == nil {
		t.Error("Expected error for invalid spender")
	}
	if _, err := wallet.SetTokenContract(ctx, "0xnothex"); err == nil {
		t.Error("Expected error for invalid token address")
	}
	if len(signer.writes) != 0 {
		t.Errorf("Expected no writes, got %d", len(signer.writes))
	}
	if _, err := NewWallet(nil, testStore, testToken); err == nil {
		t.Error("Expected error for nil signer")
	}
}

func TestWallet_WaitForReceipt(t *testing.T) {
	signer := &mockSigner{receipt: &TransactionReceipt{Status: TxStatusFailed, BlockNumber: 9, TxHash: "0xabc"}}
	wallet, _ := NewWallet(signer, testStore, testToken)

	receipt, err := wallet.WaitForReceipt(context.Background(), "0xabc")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if receipt.Succeeded() {
		t.Error("Expected reverted receipt")
	}
	if receipt.BlockNumber != 9 {
		t.Errorf("Expected block 9, got %d", receipt.BlockNumber)
	}
}
