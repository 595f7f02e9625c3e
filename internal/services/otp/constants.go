package otp

import "time"

// Default challenge parameters
const (
	CodeLength         = 6
	DefaultTTL         = 5 * time.Minute
	DefaultMaxAttempts = 3
	ResendCooldown     = 60 * time.Second
)

// Cache key prefix for the per-(user, purpose) resend cooldown window.
const cooldownKeyPrefix = "otp:cooldown:"
