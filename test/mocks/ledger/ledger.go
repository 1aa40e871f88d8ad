// Package ledger is an in-memory stand-in for the items-store and token
// contracts. It applies the same checks the contracts do, records every call in
// order and lets tests inject read and write failures.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	bookstore "github.com/jgbooks/bookstore/go"
	"github.com/jgbooks/bookstore/go/ledger/evm"
)

// FaucetAmount is what one claim() mints: 5 tokens with 18 decimals.
var FaucetAmount = new(big.Int).Mul(big.NewInt(5), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))

// ErrRejected is returned by writes configured to fail before submission.
var ErrRejected = errors.New("user rejected transaction")

// Call is one recorded contract call
type Call struct {
	Function string
	Caller   string
	ItemID   bookstore.ItemID
	Value    *big.Int
	Args     []string
	Write    bool
}

// Ledger simulates both contracts
type Ledger struct {
	mu sync.Mutex

	store string
	token string
	admin string

	nativePrices map[bookstore.ItemID]*big.Int
	tokenPrices  map[bookstore.ItemID]*big.Int
	purchases    map[string]map[bookstore.ItemID]bool
	balances     map[string]*big.Int
	allowances   map[string]map[string]*big.Int
	storeNative  *big.Int

	calls    []Call
	receipts map[string]*bookstore.Receipt
	txCount  int
	block    uint64

	readErrs   map[string]error
	readIDErrs map[string]map[bookstore.ItemID]error
	writeErrs  map[string]error
	reverts    map[string]bool
	onRead     func(function string, id bookstore.ItemID)
}

// New creates a ledger administered by admin.
func New(store, token, admin string) *Ledger {
	return &Ledger{
		store:        evm.NormalizeAddress(store),
		token:        evm.NormalizeAddress(token),
		admin:        evm.NormalizeAddress(admin),
		nativePrices: make(map[bookstore.ItemID]*big.Int),
		tokenPrices:  make(map[bookstore.ItemID]*big.Int),
		purchases:    make(map[string]map[bookstore.ItemID]bool),
		balances:     make(map[string]*big.Int),
		allowances:   make(map[string]map[string]*big.Int),
		storeNative:  new(big.Int),
		receipts:     make(map[string]*bookstore.Receipt),
		readErrs:     make(map[string]error),
		readIDErrs:   make(map[string]map[bookstore.ItemID]error),
		writeErrs:    make(map[string]error),
		reverts:      make(map[string]bool),
		block:        100,
	}
}

// ============================================================================
// Setup
// ============================================================================

// SetPrice sets both prices of id
func (l *Ledger) SetPrice(id bookstore.ItemID, native, token *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nativePrices[id] = new(big.Int).Set(native)
	l.tokenPrices[id] = new(big.Int).Set(token)
}

// SetBalance sets the token balance of owner
func (l *Ledger) SetBalance(owner string, amount *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[key(owner)] = new(big.Int).Set(amount)
}

// SetAllowance sets how much spender may move for owner
func (l *Ledger) SetAllowance(owner, spender string, amount *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.setAllowance(owner, spender, amount)
}

// SetPurchased marks id as bought by caller
func (l *Ledger) SetPurchased(caller string, id bookstore.ItemID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.markPurchased(caller, id)
}

// FailRead makes every read of function fail
func (l *Ledger) FailRead(function string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err == nil {
		delete(l.readErrs, function)
		return
	}
	l.readErrs[function] = err
}

// FailReadFor makes reads of function for id fail
func (l *Ledger) FailReadFor(function string, id bookstore.ItemID, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.readIDErrs[function] == nil {
		l.readIDErrs[function] = make(map[bookstore.ItemID]error)
	}
	if err == nil {
		delete(l.readIDErrs[function], id)
		return
	}
	l.readIDErrs[function][id] = err
}

// FailWrite makes submission of function fail with err
func (l *Ledger) FailWrite(function string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err == nil {
		delete(l.writeErrs, function)
		return
	}
	l.writeErrs[function] = err
}

// Revert makes function mine with a failed status
func (l *Ledger) Revert(function string, revert bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reverts[function] = revert
}

// OnRead registers a callback run before each read, outside the lock.
func (l *Ledger) OnRead(fn func(function string, id bookstore.ItemID)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onRead = fn
}

// ============================================================================
// Inspection
// ============================================================================

// Calls returns every recorded call in order
func (l *Ledger) Calls() []Call {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Call(nil), l.calls...)
}

// Writes returns the names of recorded writes in order
func (l *Ledger) Writes() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for _, c := range l.calls {
		if c.Write {
			out = append(out, c.Function)
		}
	}
	return out
}

// CountReads returns how many reads of function were made
func (l *Ledger) CountReads(function string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, c := range l.calls {
		if !c.Write && c.Function == function {
			n++
		}
	}
	return n
}

// ResetCalls clears the call log
func (l *Ledger) ResetCalls() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = nil
}

// Balance returns the token balance of owner
func (l *Ledger) Balance(owner string) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return new(big.Int).Set(l.balance(owner))
}

// Allowance returns the allowance of owner for spender
func (l *Ledger) Allowance(owner, spender string) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return new(big.Int).Set(l.allowance(owner, spender))
}

// Purchased reports whether caller bought id
func (l *Ledger) Purchased(caller string, id bookstore.ItemID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.purchases[key(caller)][id]
}

// StoreNative returns the native funds held by the store
func (l *Ledger) StoreNative() *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return new(big.Int).Set(l.storeNative)
}

// TokenContract returns the token address configured on the store
func (l *Ledger) TokenContract() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.token
}

// ============================================================================
// bookstore.LedgerReader
// ============================================================================

func (l *Ledger) StoreAddress() string {
	return l.store
}

func (l *Ledger) Admin(ctx context.Context) (string, error) {
	if err := l.read(ctx, evm.FunctionOwner, 0); err != nil {
		return "", err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.admin, nil
}

func (l *Ledger) NativePrice(ctx context.Context, id bookstore.ItemID) (*big.Int, error) {
	if err := l.read(ctx, evm.FunctionEthPrice, id); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return copyOrZero(l.nativePrices[id]), nil
}

func (l *Ledger) TokenPrice(ctx context.Context, id bookstore.ItemID) (*big.Int, error) {
	if err := l.read(ctx, evm.FunctionTokenPrice, id); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return copyOrZero(l.tokenPrices[id]), nil
}

func (l *Ledger) HasPurchased(ctx context.Context, caller string, id bookstore.ItemID) (bool, error) {
	if err := l.read(ctx, evm.FunctionHasPurchased, id, caller); err != nil {
		return false, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.purchases[key(caller)][id], nil
}

func (l *Ledger) TokenBalance(ctx context.Context, owner string) (*big.Int, error) {
	if err := l.read(ctx, evm.FunctionBalanceOf, 0, owner); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return new(big.Int).Set(l.balance(owner)), nil
}

func (l *Ledger) TokenAllowance(ctx context.Context, owner, spender string) (*big.Int, error) {
	if err := l.read(ctx, evm.FunctionAllowance, 0, owner, spender); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return new(big.Int).Set(l.allowance(owner, spender)), nil
}

func (l *Ledger) read(ctx context.Context, function string, id bookstore.ItemID, args ...string) error {
	l.mu.Lock()
	l.calls = append(l.calls, Call{Function: function, ItemID: id, Args: args})
	onRead := l.onRead
	err := l.readErrs[function]
	if err == nil {
		err = l.readIDErrs[function][id]
	}
	l.mu.Unlock()

	if onRead != nil {
		onRead(function, id)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

// ============================================================================
// Wallet
// ============================================================================

// Wallet returns a bookstore.Wallet acting as caller
func (l *Ledger) Wallet(caller string) *Wallet {
	return &Wallet{ledger: l, caller: evm.NormalizeAddress(caller)}
}

// Wallet signs for one caller against the simulated contracts
type Wallet struct {
	ledger *Ledger
	caller string
}

func (w *Wallet) Address() string {
	return w.caller
}

func (w *Wallet) BuyWithNative(ctx context.Context, id bookstore.ItemID, value *big.Int) (string, error) {
	return w.ledger.submit(ctx, Call{Function: evm.FunctionBuyWithEth, Caller: w.caller, ItemID: id, Value: value}, func(l *Ledger) error {
		price := l.nativePrices[id]
		switch {
		case price == nil || price.Sign() <= 0:
			return errors.New("not for sale")
		case value == nil || value.Cmp(price) != 0:
			return errors.New("wrong value")
		case l.purchases[key(w.caller)][id]:
			return errors.New("already purchased")
		}
		l.storeNative.Add(l.storeNative, value)
		l.markPurchased(w.caller, id)
		return nil
	})
}

func (w *Wallet) BuyWithToken(ctx context.Context, id bookstore.ItemID) (string, error) {
	return w.ledger.submit(ctx, Call{Function: evm.FunctionBuyWithToken, Caller: w.caller, ItemID: id}, func(l *Ledger) error {
		price := l.tokenPrices[id]
		switch {
		case price == nil || price.Sign() <= 0:
			return errors.New("not for sale")
		case l.purchases[key(w.caller)][id]:
			return errors.New("already purchased")
		case l.allowance(w.caller, l.store).Cmp(price) < 0:
			return errors.New("insufficient allowance")
		case l.balance(w.caller).Cmp(price) < 0:
			return errors.New("insufficient balance")
		}
		l.transfer(w.caller, l.store, price)
		if allowance := l.allowance(w.caller, l.store); allowance.Cmp(bookstore.MaxAllowance()) != 0 {
			l.setAllowance(w.caller, l.store, new(big.Int).Sub(allowance, price))
		}
		l.markPurchased(w.caller, id)
		return nil
	})
}

func (w *Wallet) ApproveToken(ctx context.Context, spender string, amount *big.Int) (string, error) {
	return w.ledger.submit(ctx, Call{Function: evm.FunctionApprove, Caller: w.caller, Value: amount, Args: []string{spender}}, func(l *Ledger) error {
		l.setAllowance(w.caller, spender, amount)
		return nil
	})
}

func (w *Wallet) ClaimToken(ctx context.Context) (string, error) {
	return w.ledger.submit(ctx, Call{Function: evm.FunctionClaim, Caller: w.caller}, func(l *Ledger) error {
		l.balances[key(w.caller)] = new(big.Int).Add(l.balance(w.caller), FaucetAmount)
		return nil
	})
}

func (w *Wallet) SetPrice(ctx context.Context, id bookstore.ItemID, native, token *big.Int) (string, error) {
	call := Call{Function: evm.FunctionSetBookPrice, Caller: w.caller, ItemID: id, Args: []string{native.String(), token.String()}}
	return w.ledger.submit(ctx, call, func(l *Ledger) error {
		if err := l.onlyAdmin(w.caller); err != nil {
			return err
		}
		l.nativePrices[id] = new(big.Int).Set(native)
		l.tokenPrices[id] = new(big.Int).Set(token)
		return nil
	})
}

func (w *Wallet) WithdrawNative(ctx context.Context) (string, error) {
	return w.ledger.submit(ctx, Call{Function: evm.FunctionWithdrawEth, Caller: w.caller}, func(l *Ledger) error {
		if err := l.onlyAdmin(w.caller); err != nil {
			return err
		}
		l.storeNative = new(big.Int)
		return nil
	})
}

func (w *Wallet) WithdrawToken(ctx context.Context) (string, error) {
	return w.ledger.submit(ctx, Call{Function: evm.FunctionWithdrawToken, Caller: w.caller}, func(l *Ledger) error {
		if err := l.onlyAdmin(w.caller); err != nil {
			return err
		}
		l.transfer(l.store, l.admin, l.balance(l.store))
		return nil
	})
}

func (w *Wallet) SetTokenContract(ctx context.Context, token string) (string, error) {
	return w.ledger.submit(ctx, Call{Function: evm.FunctionSetTokenAddress, Caller: w.caller, Args: []string{token}}, func(l *Ledger) error {
		if err := l.onlyAdmin(w.caller); err != nil {
			return err
		}
		l.token = evm.NormalizeAddress(token)
		return nil
	})
}

func (w *Wallet) WaitForReceipt(ctx context.Context, txHash string) (*bookstore.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w.ledger.mu.Lock()
	defer w.ledger.mu.Unlock()
	receipt, ok := w.ledger.receipts[txHash]
	if !ok {
		return nil, fmt.Errorf("unknown transaction %s", txHash)
	}
	r := *receipt
	return &r, nil
}

// submit records call and, unless rejected, mines it. A failing apply or a
// configured revert produces a failed receipt without touching state.
func (l *Ledger) submit(ctx context.Context, call Call, apply func(l *Ledger) error) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	call.Write = true
	if call.Value != nil {
		call.Value = new(big.Int).Set(call.Value)
	}
	l.calls = append(l.calls, call)

	if err := l.writeErrs[call.Function]; err != nil {
		return "", err
	}

	l.txCount++
	l.block++
	hash := fmt.Sprintf("0x%064x", l.txCount)
	status := uint64(bookstore.TxStatusSuccess)
	if l.reverts[call.Function] || apply(l) != nil {
		status = bookstore.TxStatusFailed
	}
	l.receipts[hash] = &bookstore.Receipt{TxHash: hash, BlockNumber: l.block, Status: status}
	return hash, nil
}

func (l *Ledger) onlyAdmin(caller string) error {
	if !strings.EqualFold(caller, l.admin) {
		return errors.New("not owner")
	}
	return nil
}

func (l *Ledger) markPurchased(caller string, id bookstore.ItemID) {
	k := key(caller)
	if l.purchases[k] == nil {
		l.purchases[k] = make(map[bookstore.ItemID]bool)
	}
	l.purchases[k][id] = true
}

func (l *Ledger) balance(owner string) *big.Int {
	if b := l.balances[key(owner)]; b != nil {
		return b
	}
	return new(big.Int)
}

func (l *Ledger) allowance(owner, spender string) *big.Int {
	if a := l.allowances[key(owner)][key(spender)]; a != nil {
		return a
	}
	return new(big.Int)
}

func (l *Ledger) setAllowance(owner, spender string, amount *big.Int) {
	k := key(owner)
	if l.allowances[k] == nil {
		l.allowances[k] = make(map[string]*big.Int)
	}
	l.allowances[k][key(spender)] = new(big.Int).Set(amount)
}

func (l *Ledger) transfer(from, to string, amount *big.Int) {
	l.balances[key(from)] = new(big.Int).Sub(l.balance(from), amount)
	l.balances[key(to)] = new(big.Int).Add(l.balance(to), amount)
}

func key(address string) string {
	return strings.ToLower(address)
}

func copyOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}

var (
	_ bookstore.LedgerReader = (*Ledger)(nil)
	_ bookstore.Wallet       = (*Wallet)(nil)
)
