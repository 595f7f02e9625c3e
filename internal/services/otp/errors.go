package otp

import "errors"

// Service errors. Verify returns exactly one of the last four.
var (
	ErrChallengeNotFound = errors.New("otp challenge not found")
	ErrCooldownActive    = errors.New("otp resend cooldown active")
	ErrExpired           = errors.New("otp expired")
	ErrAlreadyUsed       = errors.New("otp already used")
	ErrAttemptsExhausted = errors.New("otp attempts exhausted")
	ErrCodeMismatch      = errors.New("otp code mismatch")
)
