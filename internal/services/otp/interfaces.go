package otp

import (
	"context"
	"time"

	"atlasbank/internal/models"

	"github.com/google/uuid"
)

// Dispatcher delivers an issued code out-of-band. Delivery failure is
// reported but never rolls back issuance.
type Dispatcher interface {
	SendOTP(ctx context.Context, userID uuid.UUID, code string, purpose models.OTPPurpose) error
}

// Challenge is the caller-visible view of an issued challenge. The code
// itself never leaves the service except through the Dispatcher.
type Challenge struct {
	ID        uuid.UUID
	ExpiresAt time.Time
}

// Service issues and verifies short-lived single-use numeric codes scoped
// to a (user, purpose) pair.
type Service interface {
	// Issue supersedes any active challenge for the same (user, purpose)
	// before persisting and dispatching a fresh one.
	Issue(ctx context.Context, userID uuid.UUID, purpose models.OTPPurpose, ttl time.Duration, maxAttempts int) (*Challenge, error)

	// Verify counts an attempt, then compares the submitted code in
	// constant time. The challenge row stays locked for the duration, so a
	// code can be spent only once. Failures: ErrExpired, ErrAlreadyUsed,
	// ErrAttemptsExhausted, ErrCodeMismatch.
	Verify(ctx context.Context, challengeID uuid.UUID, code string) error

	// Resend issues a fresh challenge, rate limited per (user, purpose) by
	// a fixed cooldown window.
	Resend(ctx context.Context, userID uuid.UUID, purpose models.OTPPurpose) (*Challenge, error)
}
