package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Transfer statuses. VALIDATED and REJECTED are terminal.
type TransferStatus string

const (
	TransferStatusPending   TransferStatus = "PENDING"
	TransferStatusValidated TransferStatus = "VALIDATED"
	TransferStatusRejected  TransferStatus = "REJECTED"
)

// Transfer is one two-phase money movement from a source account to either
// another account or a verified beneficiary. Its ID doubles as the opaque
// transfer token handed to the client at initiation, and it expires
// together with its linked OTP challenge.
type Transfer struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	SourceAccountID uuid.UUID       `gorm:"type:uuid;not null;index" json:"source_account_id"`
	DestAccountID   *uuid.UUID      `gorm:"type:uuid;index" json:"dest_account_id,omitempty"`
	BeneficiaryID   *uuid.UUID      `gorm:"type:uuid;index" json:"beneficiary_id,omitempty"`
	ChallengeID     uuid.UUID       `gorm:"type:uuid;not null" json:"-"`
	Amount          decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"amount"`
	Reference       string          `json:"reference"`
	Status          TransferStatus  `gorm:"size:16;not null;default:'PENDING'" json:"status"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
	ExpiresAt       time.Time       `gorm:"not null" json:"expires_at"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (t *Transfer) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// Finalized reports whether the transfer reached a terminal status.
func (t *Transfer) Finalized() bool {
	return t.Status != TransferStatusPending
}
