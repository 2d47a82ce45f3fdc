// Package utils holds the amount-conversion helpers used at the engine's
// boundary: human-readable decimal amounts in, exact smallest-unit integers
// out. The core itself only ever sees integers.
package utils

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a human-readable decimal amount string, rejecting
// empty and negative values.
func ParseAmount(amount string) (decimal.Decimal, error) {
	if amount == "" {
		return decimal.Zero, fmt.Errorf("amount cannot be empty")
	}
	dec, err := decimal.NewFromString(amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount format: %w", err)
	}
	if dec.IsNegative() {
		return decimal.Zero, fmt.Errorf("amount cannot be negative")
	}
	return dec, nil
}

// ToSmallestUnit converts a human-readable amount to the token's smallest
// unit. Amounts with more fractional digits than the token carries are
// rejected rather than rounded; the core performs no rounding beyond its
// floor split.
func ToSmallestUnit(amount decimal.Decimal, decimals int32) (*big.Int, error) {
	if amount.IsNegative() {
		return nil, fmt.Errorf("amount cannot be negative")
	}
	shifted := amount.Shift(decimals)
	if !shifted.IsInteger() {
		return nil, fmt.Errorf("amount %s has more than %d decimal places", amount, decimals)
	}
	return shifted.BigInt(), nil
}

// FromSmallestUnit converts a smallest-unit integer back to a
// human-readable decimal amount.
func FromSmallestUnit(amount *big.Int, decimals int32) decimal.Decimal {
	return decimal.NewFromBigInt(amount, 0).Shift(-decimals)
}

// ParseSmallestUnit parses a base-10 smallest-unit integer string.
func ParseSmallestUnit(value string) (*big.Int, error) {
	if value == "" {
		return nil, fmt.Errorf("value cannot be empty")
	}
	out, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid integer amount %q", value)
	}
	if out.Sign() < 0 {
		return nil, fmt.Errorf("amount cannot be negative")
	}
	return out, nil
}
