package token

import "errors"

var (
	ErrAccountExists     = errors.New("account already exists")
	ErrAccountNotFound   = errors.New("token account not found")
	ErrMintNotFound      = errors.New("mint not found")
	ErrNotTokenAccount   = errors.New("address does not hold a token account")
	ErrOwnerMismatch     = errors.New("authority does not match owner")
	ErrMintMismatch      = errors.New("mint mismatch")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrOverflow          = errors.New("amount overflow")
)
