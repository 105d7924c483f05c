package model

import "errors"

var (
	errFractionalAmount = errors.New("amount has more precision than the mint decimals")
	errNegativeAmount   = errors.New("amount must not be negative")
	errAmountOverflow   = errors.New("amount does not fit in uint64")
)
