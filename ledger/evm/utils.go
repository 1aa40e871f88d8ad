package evm

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	bookstore "github.com/jgbooks/bookstore/go"
)

// IsValidAddress reports whether s is a 20-byte hex address
func IsValidAddress(s string) bool {
	return common.IsHexAddress(s)
}

// NormalizeAddress returns the checksummed form of address
func NormalizeAddress(address string) string {
	return common.HexToAddress(address).Hex()
}

func itemArg(id bookstore.ItemID) *big.Int {
	return new(big.Int).SetUint64(uint64(id))
}

func addressArg(address string) (common.Address, error) {
	if !common.IsHexAddress(address) {
		return common.Address{}, fmt.Errorf("invalid address: %q", address)
	}
	return common.HexToAddress(address), nil
}

func asBigInt(v interface{}) (*big.Int, error) {
	switch n := v.(type) {
	case *big.Int:
		if n == nil {
			return new(big.Int), nil
		}
		return n, nil
	case nil:
		return new(big.Int), nil
	}
	return nil, fmt.Errorf("unexpected uint256 result type: %T", v)
}

func asBool(v interface{}) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("unexpected bool result type: %T", v)
	}
	return b, nil
}

func asAddress(v interface{}) (string, error) {
	switch a := v.(type) {
	case common.Address:
		return a.Hex(), nil
	case string:
		return NormalizeAddress(a), nil
	}
	return "", fmt.Errorf("unexpected address result type: %T", v)
}
