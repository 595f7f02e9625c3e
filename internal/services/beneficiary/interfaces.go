package beneficiary

import (
	"context"

	"atlasbank/internal/models"

	"github.com/google/uuid"
)

// CreateRequest carries the payee details supplied by the owner. New
// beneficiaries always start unverified.
type CreateRequest struct {
	Name     string `json:"name"`
	BankName string `json:"bank_name"`
	IBAN     string `json:"iban"`
	Email    string `json:"email"`
}

// UpdateRequest holds the mutable fields. Empty fields are left unchanged.
type UpdateRequest struct {
	Name     string `json:"name"`
	BankName string `json:"bank_name"`
	Email    string `json:"email"`
}

// Service manages a user's saved external payees. All reads and writes are
// scoped to the owner.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, req CreateRequest) (*models.Beneficiary, error)
	Get(ctx context.Context, userID, beneficiaryID uuid.UUID) (*models.Beneficiary, error)
	List(ctx context.Context, userID uuid.UUID) ([]*models.Beneficiary, error)
	Update(ctx context.Context, userID, beneficiaryID uuid.UUID, req UpdateRequest) (*models.Beneficiary, error)
	Verify(ctx context.Context, userID, beneficiaryID uuid.UUID) (*models.Beneficiary, error)
	Delete(ctx context.Context, userID, beneficiaryID uuid.UUID) error
}
