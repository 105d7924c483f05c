package model

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// FormatAmount renders a raw token amount using the mint decimals.
func FormatAmount(amount uint64, decimals uint8) string {
	if decimals == 0 {
		return decimal.NewFromBigInt(new(big.Int).SetUint64(amount), 0).String()
	}
	return decimal.NewFromBigInt(new(big.Int).SetUint64(amount), -int32(decimals)).StringFixed(int32(decimals))
}

// ParseAmount converts a decimal string into raw units for the given decimals.
func ParseAmount(value string, decimals uint8) (uint64, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return 0, err
	}
	raw := d.Shift(int32(decimals))
	if !raw.Equal(raw.Truncate(0)) {
		return 0, errFractionalAmount
	}
	if raw.Sign() < 0 {
		return 0, errNegativeAmount
	}
	bi := raw.BigInt()
	if !bi.IsUint64() {
		return 0, errAmountOverflow
	}
	return bi.Uint64(), nil
}
