package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OTP purposes
type OTPPurpose string

const (
	OTPPurposeLogin             OTPPurpose = "LOGIN"
	OTPPurposeTransaction       OTPPurpose = "TRANSACTION"
	OTPPurposePasswordReset     OTPPurpose = "PASSWORD_RESET"
	OTPPurposeEmailVerification OTPPurpose = "EMAIL_VERIFICATION"
	OTPPurposePhoneVerification OTPPurpose = "PHONE_VERIFICATION"
	OTPPurposeAccountActivation OTPPurpose = "ACCOUNT_ACTIVATION"
)

// OTPChallenge is a short-lived single-use numeric code bound to one user
// and one purpose. At most one unused, unexpired challenge exists per
// (user, purpose) pair; issuing a new one supersedes the previous.
type OTPChallenge struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	Code        string     `gorm:"size:10;not null" json:"-"`
	Purpose     OTPPurpose `gorm:"size:32;not null;index" json:"purpose"`
	IsUsed      bool       `gorm:"not null;default:false" json:"is_used"`
	Attempts    int        `gorm:"not null;default:0" json:"attempts"`
	MaxAttempts int        `gorm:"not null;default:3" json:"max_attempts"`
	ExpiresAt   time.Time  `gorm:"not null" json:"expires_at"`
	UsedAt      *time.Time `json:"used_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (o *OTPChallenge) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// IsExpired reports whether the challenge expired at the given instant.
func (o *OTPChallenge) IsExpired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}

// AttemptsExhausted reports whether no verification attempts remain.
func (o *OTPChallenge) AttemptsExhausted() bool {
	return o.Attempts >= o.MaxAttempts
}
