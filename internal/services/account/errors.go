package account

import "errors"

// Service errors
var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrAccessDenied      = errors.New("account access denied")
	ErrAccountNotActive  = errors.New("account is not active")
	ErrAccountClosed     = errors.New("account is closed")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrCurrencyMismatch  = errors.New("currency mismatch")
	ErrSameAccount       = errors.New("cannot move funds to the same account")
	ErrInvalidTransition = errors.New("invalid status transition")
)
