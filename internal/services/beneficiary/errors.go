package beneficiary

import "errors"

var (
	ErrBeneficiaryNotFound = errors.New("beneficiary not found")
	ErrAccessDenied        = errors.New("beneficiary access denied")
	ErrInvalidIBAN         = errors.New("invalid iban")
	ErrMissingName         = errors.New("beneficiary name is required")
	ErrAlreadyVerified     = errors.New("beneficiary already verified")
)
