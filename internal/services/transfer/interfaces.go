package transfer

import (
	"context"
	"time"

	"atlasbank/internal/models"
	"atlasbank/internal/services/otp"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountStore is the subset of the account service the state machine
// needs for ownership checks. Balance mutations go through the settlement
// transaction instead.
type AccountStore interface {
	GetOwned(ctx context.Context, accountID, userID uuid.UUID) (*models.Account, error)
}

// OTPManager issues and verifies step-up challenges.
type OTPManager interface {
	Issue(ctx context.Context, userID uuid.UUID, purpose models.OTPPurpose, ttl time.Duration, maxAttempts int) (*otp.Challenge, error)
	Verify(ctx context.Context, challengeID uuid.UUID, code string) error
}

// BeneficiaryStore resolves transfer destinations that are external payees.
type BeneficiaryStore interface {
	GetByID(id uuid.UUID) (*models.Beneficiary, error)
}

// Notifier is told about finalized transfers. Fire-and-forget.
type Notifier interface {
	SendTransferNotification(ctx context.Context, userID uuid.UUID, transfer *models.Transfer) error
}

// Service orchestrates the two-phase initiate/confirm transfer protocol
// plus the direct no-OTP movement between a user's own accounts.
type Service interface {
	Initiate(ctx context.Context, userID uuid.UUID, req InitiateRequest) (*InitiateResult, error)
	Confirm(ctx context.Context, userID, token uuid.UUID, code string) (*models.Transfer, error)
	DirectTransfer(ctx context.Context, userID, sourceID, destID uuid.UUID, amount decimal.Decimal, reference string) (*DirectResult, error)
	Get(ctx context.Context, userID, transferID uuid.UUID) (*models.Transfer, error)
	ListByAccount(ctx context.Context, userID, accountID uuid.UUID, limit, offset int) ([]*models.Transfer, int64, error)
}
