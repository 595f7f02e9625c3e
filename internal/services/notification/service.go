// Package notification delivers out-of-band messages to users. The current
// dispatcher writes to the application log; swapping in an SMS or email
// provider only requires another Dispatcher implementation.
package notification

import (
	"context"
	"log"

	"atlasbank/internal/models"

	"github.com/google/uuid"
)

// Dispatcher satisfies both the OTP delivery and the transfer notification
// dependencies of the services that send messages.
type Dispatcher struct{}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// SendOTP delivers a one-time code. Codes are written to the log only in
// this dispatcher; a production channel must never log them.
func (d *Dispatcher) SendOTP(ctx context.Context, userID uuid.UUID, code string, purpose models.OTPPurpose) error {
	switch purpose {
	case models.OTPPurposeTransaction:
		log.Printf("[notify] user=%s transfer confirmation code: %s", userID, code)
	case models.OTPPurposeLogin:
		log.Printf("[notify] user=%s login code: %s", userID, code)
	case models.OTPPurposePasswordReset:
		log.Printf("[notify] user=%s password reset code: %s", userID, code)
	default:
		log.Printf("[notify] user=%s %s code: %s", userID, purpose, code)
	}
	return nil
}

// SendTransferNotification reports a finalized transfer to its initiator.
func (d *Dispatcher) SendTransferNotification(ctx context.Context, userID uuid.UUID, transfer *models.Transfer) error {
	log.Printf("[notify] user=%s transfer %s %s amount=%s ref=%s",
		userID, transfer.ID, transfer.Status, transfer.Amount, transfer.Reference)
	return nil
}
