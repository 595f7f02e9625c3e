package otp

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log"
	"time"

	"atlasbank/internal/models"
	"atlasbank/internal/repositories"
	"atlasbank/internal/utils"

	"github.com/google/uuid"
)

type service struct {
	repo       repositories.OTPRepository
	cache      repositories.CacheRepository
	dispatcher Dispatcher
}

// NewService creates a new OTP challenge service.
func NewService(repo repositories.OTPRepository, cache repositories.CacheRepository, dispatcher Dispatcher) Service {
	if repo == nil {
		panic("otp repo is required")
	}
	if cache == nil {
		panic("cache is required")
	}
	return &service{repo: repo, cache: cache, dispatcher: dispatcher}
}

func (s *service) Issue(ctx context.Context, userID uuid.UUID, purpose models.OTPPurpose, ttl time.Duration, maxAttempts int) (*Challenge, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	// Only one challenge per (user, purpose) may be active; prior ones are
	// superseded and report expired on any later verification.
	if _, err := s.repo.InvalidateActive(userID, purpose); err != nil {
		return nil, fmt.Errorf("failed to supersede active challenges: %w", err)
	}

	code, err := utils.GenerateNumericCode(CodeLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate code: %w", err)
	}

	challenge := &models.OTPChallenge{
		UserID:      userID,
		Code:        code,
		Purpose:     purpose,
		MaxAttempts: maxAttempts,
		ExpiresAt:   time.Now().UTC().Add(ttl),
	}
	if err := s.repo.Create(challenge); err != nil {
		return nil, fmt.Errorf("failed to persist challenge: %w", err)
	}

	// Fire-and-forget: delivery failure never rolls back issuance.
	if s.dispatcher != nil {
		if err := s.dispatcher.SendOTP(ctx, userID, code, purpose); err != nil {
			log.Printf("otp dispatch failed for user %s purpose %s: %v", userID, purpose, err)
		}
	}

	return &Challenge{ID: challenge.ID, ExpiresAt: challenge.ExpiresAt}, nil
}

func (s *service) Verify(ctx context.Context, challengeID uuid.UUID, code string) error {
	// The row lock linearizes concurrent verifications: a code is spent the
	// moment the first caller matches it. Verification failures are carried
	// out of the transaction so the attempt count still commits.
	var verifyErr error
	err := s.repo.ExecuteInTransaction(func(tx repositories.OTPRepository) error {
		challenge, err := tx.GetForUpdate(challengeID)
		if err != nil {
			if err == repositories.ErrChallengeNotFound {
				verifyErr = ErrChallengeNotFound
				return nil
			}
			return fmt.Errorf("failed to load challenge: %w", err)
		}

		now := time.Now().UTC()
		if challenge.IsExpired(now) {
			verifyErr = ErrExpired
			return nil
		}
		if challenge.IsUsed {
			verifyErr = ErrAlreadyUsed
			return nil
		}
		if challenge.AttemptsExhausted() {
			verifyErr = ErrAttemptsExhausted
			return nil
		}

		// The attempt is counted before the comparison; this is what bounds
		// brute force.
		challenge.Attempts++

		if subtle.ConstantTimeCompare([]byte(challenge.Code), []byte(code)) != 1 {
			verifyErr = ErrCodeMismatch
			if err := tx.Update(challenge); err != nil {
				return fmt.Errorf("failed to count attempt: %w", err)
			}
			return nil
		}

		challenge.IsUsed = true
		challenge.UsedAt = &now
		if err := tx.Update(challenge); err != nil {
			return fmt.Errorf("failed to mark challenge used: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return verifyErr
}

func (s *service) Resend(ctx context.Context, userID uuid.UUID, purpose models.OTPPurpose) (*Challenge, error) {
	key := cooldownKeyPrefix + userID.String() + ":" + string(purpose)

	acquired, err := s.cache.SetNX(ctx, key, "1", ResendCooldown)
	if err != nil {
		return nil, fmt.Errorf("failed to check resend cooldown: %w", err)
	}
	if !acquired {
		return nil, ErrCooldownActive
	}

	challenge, err := s.Issue(ctx, userID, purpose, DefaultTTL, DefaultMaxAttempts)
	if err != nil {
		// Release the slot: a failed issue must not burn the window.
		if delErr := s.cache.Delete(ctx, key); delErr != nil {
			log.Printf("failed to release resend cooldown for user %s: %v", userID, delErr)
		}
		return nil, err
	}
	return challenge, nil
}
