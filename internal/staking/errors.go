package staking

import (
	"errors"
	"fmt"

	"stakingLedger/internal/derive"
	"stakingLedger/internal/storage"
	"stakingLedger/internal/token"
)

// Code is a machine-readable ledger error identifier.
type Code string

const (
	CodeAlreadyInitialized        Code = "AlreadyInitialized"
	CodeUnauthorized              Code = "Unauthorized"
	CodeDerivationMismatch        Code = "DerivationMismatch"
	CodeCapExceeded               Code = "CapExceeded"
	CodeInsufficientStakedBalance Code = "InsufficientStakedBalance"
	CodeInsufficientFunds         Code = "InsufficientFunds"
	CodeInvalidArgument           Code = "InvalidArgument"
	CodeInvalidAccount            Code = "InvalidAccount"
	CodeAccountNotFound           Code = "AccountNotFound"
	CodeOverflow                  Code = "Overflow"
)

// Error is returned by every rejected ledger operation.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Cause != nil {
		msg += fmt.Sprintf(" (caused by: %v)", e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == other.Code
}

var (
	ErrAlreadyInitialized        = &Error{Code: CodeAlreadyInitialized, Message: "account already initialized"}
	ErrUnauthorized              = &Error{Code: CodeUnauthorized, Message: "unauthorized"}
	ErrDerivationMismatch        = &Error{Code: CodeDerivationMismatch, Message: "address does not match its derivation"}
	ErrCapExceeded               = &Error{Code: CodeCapExceeded, Message: "over cap"}
	ErrInsufficientStakedBalance = &Error{Code: CodeInsufficientStakedBalance, Message: "not enough staked"}
	ErrInsufficientFunds         = &Error{Code: CodeInsufficientFunds, Message: "insufficient funds"}
	ErrInvalidArgument           = &Error{Code: CodeInvalidArgument, Message: "invalid argument"}
	ErrInvalidAccount            = &Error{Code: CodeInvalidAccount, Message: "invalid account"}
	ErrAccountNotFound           = &Error{Code: CodeAccountNotFound, Message: "account not found"}
	ErrOverflow                  = &Error{Code: CodeOverflow, Message: "overflow"}
)

func newError(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// CodeOf returns the ledger code carried by err, or "" if there is none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// tokenError maps token ledger failures onto ledger codes.
func tokenError(message string, err error) error {
	var code Code
	switch {
	case err == nil:
		return nil
	case errors.Is(err, token.ErrInsufficientFunds):
		code = CodeInsufficientFunds
	case errors.Is(err, token.ErrOverflow):
		code = CodeOverflow
	case errors.Is(err, token.ErrAccountNotFound), errors.Is(err, token.ErrMintNotFound):
		code = CodeAccountNotFound
	case errors.Is(err, token.ErrNotTokenAccount), errors.Is(err, token.ErrMintMismatch):
		code = CodeInvalidAccount
	case errors.Is(err, token.ErrOwnerMismatch):
		code = CodeUnauthorized
	case errors.Is(err, token.ErrAccountExists):
		code = CodeAlreadyInitialized
	default:
		return fmt.Errorf("%s: %w", message, err)
	}
	return newError(code, message, err)
}

// recordError maps storage lookups onto ledger codes.
func recordError(message string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrNotFound):
		return newError(CodeAccountNotFound, message, err)
	case errors.Is(err, storage.ErrKindMismatch):
		return newError(CodeInvalidAccount, message, err)
	case errors.Is(err, derive.ErrMismatch):
		return newError(CodeDerivationMismatch, message, err)
	default:
		return fmt.Errorf("%s: %w", message, err)
	}
}
