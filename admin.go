package bookstore

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// AdminCommand names a privileged store operation.
type AdminCommand string

const (
	CommandSetPrice         AdminCommand = "set_price"
	CommandWithdrawNative   AdminCommand = "withdraw_native"
	CommandWithdrawToken    AdminCommand = "withdraw_token"
	CommandSetTokenContract AdminCommand = "set_token_contract"
)

var adminNotices = map[AdminCommand]string{
	CommandSetPrice:         "Price updated",
	CommandWithdrawNative:   "Native funds withdrawn",
	CommandWithdrawToken:    "Token funds withdrawn",
	CommandSetTokenContract: "Token address updated",
}

// AdminExecutor issues privileged commands. Each command is refused locally
// unless the connected caller matches the store administrator.
type AdminExecutor struct {
	syncer         *Syncer
	session        *Session
	hooks          *hookRegistry
	notifier       Notifier
	logger         *slog.Logger
	nativeDecimals int
	tokenDecimals  int
}

// SetPrice sets both prices of id, in smallest denominations.
func (a *AdminExecutor) SetPrice(ctx context.Context, id ItemID, native, token *big.Int) (*Receipt, error) {
	if id == 0 {
		return nil, a.fail(NewError(ErrCodeInvalidInput, "item id is required", 0, nil))
	}
	if native == nil || token == nil || native.Sign() < 0 || token.Sign() < 0 {
		return nil, a.fail(NewError(ErrCodeInvalidInput, "prices must be non-negative", id, nil))
	}
	return a.execute(ctx, CommandSetPrice, id, func(ctx context.Context, w Wallet) (string, error) {
		return w.SetPrice(ctx, id, native, token)
	})
}

// SetPriceFromInput parses user-entered text and sets both prices. Amounts are in
// human units ("0.001"); empty amounts mean zero. Nothing is submitted when any
// field fails to parse.
func (a *AdminExecutor) SetPriceFromInput(ctx context.Context, idText, nativeText, tokenText string) (*Receipt, error) {
	id, err := ParseItemID(idText)
	if err != nil {
		return nil, a.fail(err)
	}
	native, err := ParseUnits(nativeText, a.nativeDecimals)
	if err != nil {
		return nil, a.fail(NewError(ErrCodeInvalidInput, "invalid native price", id, err))
	}
	token, err := ParseUnits(tokenText, a.tokenDecimals)
	if err != nil {
		return nil, a.fail(NewError(ErrCodeInvalidInput, "invalid token price", id, err))
	}
	return a.SetPrice(ctx, id, native, token)
}

// WithdrawNative moves the accumulated native funds to the administrator.
func (a *AdminExecutor) WithdrawNative(ctx context.Context) (*Receipt, error) {
	return a.execute(ctx, CommandWithdrawNative, 0, func(ctx context.Context, w Wallet) (string, error) {
		return w.WithdrawNative(ctx)
	})
}

// WithdrawToken moves the accumulated token funds to the administrator.
func (a *AdminExecutor) WithdrawToken(ctx context.Context) (*Receipt, error) {
	return a.execute(ctx, CommandWithdrawToken, 0, func(ctx context.Context, w Wallet) (string, error) {
		return w.WithdrawToken(ctx)
	})
}

// SetTokenContract repoints the store at a different token contract.
func (a *AdminExecutor) SetTokenContract(ctx context.Context, token string) (*Receipt, error) {
	if !common.IsHexAddress(token) {
		return nil, a.fail(NewError(ErrCodeInvalidInput, fmt.Sprintf("invalid token address: %q", token), 0, nil))
	}
	addr := common.HexToAddress(token).Hex()
	return a.execute(ctx, CommandSetTokenContract, 0, func(ctx context.Context, w Wallet) (string, error) {
		return w.SetTokenContract(ctx, addr)
	})
}

func (a *AdminExecutor) execute(
	ctx context.Context,
	cmd AdminCommand,
	id ItemID,
	submit func(ctx context.Context, w Wallet) (string, error),
) (*Receipt, error) {
	wallet, err := a.session.requireWallet()
	if err != nil {
		return nil, a.fail(err)
	}
	if !a.syncer.Store().Snapshot().IsAdmin() {
		return nil, a.fail(NewError(ErrCodeNotAdmin, "connected wallet is not the store administrator", id, nil))
	}

	logger := a.logger.With(slog.String("command", string(cmd)))
	if id != 0 {
		logger = logger.With(slog.Uint64("item_id", uint64(id)))
	}

	start := time.Now()
	receipt, err := submitAndWait(ctx, wallet, id, string(cmd), func(ctx context.Context) (string, error) {
		return submit(ctx, wallet)
	})
	if err != nil {
		logger.Error("admin command failed", slog.Any("err", err))
		return nil, a.fail(err)
	}

	a.syncer.Resync(ctx, ScopeAll(), ReasonAdmin)
	duration := time.Since(start)
	logger.Info("admin command confirmed", slog.String("tx", receipt.TxHash), slog.Duration("duration", duration))

	for _, hook := range a.hooks.snapshotAdmin() {
		if herr := hook(AdminResultContext{Ctx: ctx, Command: cmd, ItemID: id, Receipt: receipt, Duration: duration}); herr != nil {
			logger.Warn("after admin hook error", slog.Any("err", herr))
		}
	}
	a.notifier.Notify(adminNotices[cmd])
	return receipt, nil
}

func (a *AdminExecutor) fail(err error) error {
	a.notifier.Notify(err.Error())
	return err
}
