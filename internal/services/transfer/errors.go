package transfer

import "errors"

// Service errors. OTP and account store failures surface unchanged
// (otp.ErrExpired, account.ErrInsufficientFunds, ...) so clients always see
// the underlying reason.
var (
	ErrTransferNotFound         = errors.New("transfer not found")
	ErrTransferAlreadyFinalized = errors.New("transfer already finalized")
	ErrInvalidAmount            = errors.New("invalid transfer amount")
	ErrInvalidDestination       = errors.New("exactly one destination is required")
	ErrBeneficiaryNotFound      = errors.New("beneficiary not found")
	ErrBeneficiaryNotVerified   = errors.New("beneficiary is not verified")
	ErrAccessDenied             = errors.New("transfer access denied")
)

// Rejection reasons persisted on terminal transfers.
const (
	RejectionExpired           = "EXPIRED"
	RejectionAttemptsExhausted = "ATTEMPTS_EXHAUSTED"
	RejectionInsufficientFunds = "INSUFFICIENT_FUNDS"
	RejectionAccountNotActive  = "ACCOUNT_NOT_ACTIVE"
)
