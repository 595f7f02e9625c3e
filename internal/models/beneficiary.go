package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Beneficiary is an external payee registered by a user. Transfers to a
// beneficiary are only permitted once IsVerified is set.
type Beneficiary struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Name       string    `gorm:"not null" json:"name"`
	BankName   string    `gorm:"not null" json:"bank_name"`
	IBAN       string    `gorm:"not null" json:"iban"`
	Email      string    `json:"email,omitempty"`
	IsVerified bool      `gorm:"not null;default:false" json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (b *Beneficiary) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
