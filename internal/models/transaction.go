package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Ledger entry types
type TransactionType string

const (
	TransactionTypeDebit    TransactionType = "DEBIT"
	TransactionTypeCredit   TransactionType = "CREDIT"
	TransactionTypeTransfer TransactionType = "TRANSFER"
)

// Ledger entry statuses
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
)

// Transaction is one append-only ledger entry reflecting a single
// balance-affecting event. Entries are never updated or deleted; a
// completed transfer always produces a DEBIT/CREDIT pair sharing one
// reference.
type Transaction struct {
	ID            uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	AccountID     *uuid.UUID        `gorm:"type:uuid;index" json:"account_id,omitempty"`
	BeneficiaryID *uuid.UUID        `gorm:"type:uuid;index" json:"beneficiary_id,omitempty"`
	Type          TransactionType   `gorm:"size:16;not null" json:"type"`
	Amount        decimal.Decimal   `gorm:"type:numeric(20,2);not null" json:"amount"`
	Status        TransactionStatus `gorm:"size:16;not null;default:'COMPLETED'" json:"status"`
	Reference     string            `gorm:"index" json:"reference"`
	CreatedAt     time.Time         `json:"created_at"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// Delta returns the signed effect of the entry on its account balance.
func (t *Transaction) Delta() decimal.Decimal {
	if t.Type == TransactionTypeDebit {
		return t.Amount.Neg()
	}
	return t.Amount
}
