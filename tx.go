package bookstore

import (
	"context"
	"fmt"
	"math/big"

	gethmath "github.com/ethereum/go-ethereum/common/math"
)

// MaxAllowance is the unlimited spending authorization (2^256 - 1) granted on the
// first token purchase, so later purchases of other items skip the approval.
func MaxAllowance() *big.Int {
	return new(big.Int).Set(gethmath.MaxBig256)
}

// submitAndWait submits one transaction and blocks until it is mined.
// A submission error means the wallet or node rejected it; a wait error or a
// reverted receipt means it failed on the ledger.
func submitAndWait(
	ctx context.Context,
	wallet Wallet,
	id ItemID,
	op string,
	submit func(ctx context.Context) (string, error),
) (*Receipt, error) {
	txHash, err := submit(ctx)
	if err != nil {
		return nil, NewError(ErrCodeTxRejected, fmt.Sprintf("%s rejected", op), id, err)
	}

	receipt, err := wallet.WaitForReceipt(ctx, txHash)
	if err != nil {
		return nil, NewError(ErrCodeTxFailed, fmt.Sprintf("%s %s not confirmed", op, txHash), id, err)
	}
	if !receipt.Succeeded() {
		return receipt, NewError(ErrCodeTxFailed, fmt.Sprintf("%s %s reverted", op, txHash), id, nil)
	}
	return receipt, nil
}
