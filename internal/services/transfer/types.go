package transfer

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OTP parameters applied to transfer challenges.
const (
	ChallengeTTL         = 5 * time.Minute
	ChallengeMaxAttempts = 3
)

// InitiateRequest describes a requested transfer. Exactly one of
// DestAccountID and BeneficiaryID must be set.
type InitiateRequest struct {
	SourceAccountID uuid.UUID
	DestAccountID   *uuid.UUID
	BeneficiaryID   *uuid.UUID
	Amount          decimal.Decimal
	Reference       string
}

// InitiateResult is handed back to the client so it can drive the OTP
// countdown. It never exposes account ids or the code.
type InitiateResult struct {
	TransferToken   uuid.UUID       `json:"transfer_token"`
	ExpiresAt       time.Time       `json:"expires_at"`
	Amount          decimal.Decimal `json:"amount"`
	DestinationName string          `json:"destination_name"`
}

// DirectResult reports an executed same-owner account movement.
type DirectResult struct {
	Reference     string          `json:"reference"`
	SourceBalance decimal.Decimal `json:"source_balance"`
	DestBalance   decimal.Decimal `json:"dest_balance"`
}
