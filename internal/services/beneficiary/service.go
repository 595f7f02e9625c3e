package beneficiary

import (
	"context"
	"strings"

	"atlasbank/internal/models"
	"atlasbank/internal/repositories"

	"github.com/google/uuid"
)

type service struct {
	repo repositories.BeneficiaryRepository
}

func NewService(repo repositories.BeneficiaryRepository) Service {
	if repo == nil {
		panic("beneficiary repo is required")
	}
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, req CreateRequest) (*models.Beneficiary, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrMissingName
	}
	iban := normalizeIBAN(req.IBAN)
	if !validIBAN(iban) {
		return nil, ErrInvalidIBAN
	}

	b := &models.Beneficiary{
		UserID:     userID,
		Name:       name,
		BankName:   strings.TrimSpace(req.BankName),
		IBAN:       iban,
		Email:      strings.TrimSpace(req.Email),
		IsVerified: false,
	}
	if err := s.repo.Create(b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *service) Get(ctx context.Context, userID, beneficiaryID uuid.UUID) (*models.Beneficiary, error) {
	return s.getOwned(userID, beneficiaryID)
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]*models.Beneficiary, error) {
	return s.repo.ListByUser(userID)
}

func (s *service) Update(ctx context.Context, userID, beneficiaryID uuid.UUID, req UpdateRequest) (*models.Beneficiary, error) {
	b, err := s.getOwned(userID, beneficiaryID)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		b.Name = name
	}
	if bank := strings.TrimSpace(req.BankName); bank != "" {
		b.BankName = bank
	}
	if email := strings.TrimSpace(req.Email); email != "" {
		b.Email = email
	}

	if err := s.repo.Update(b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *service) Verify(ctx context.Context, userID, beneficiaryID uuid.UUID) (*models.Beneficiary, error) {
	b, err := s.getOwned(userID, beneficiaryID)
	if err != nil {
		return nil, err
	}
	if b.IsVerified {
		return nil, ErrAlreadyVerified
	}

	b.IsVerified = true
	if err := s.repo.Update(b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *service) Delete(ctx context.Context, userID, beneficiaryID uuid.UUID) error {
	if _, err := s.getOwned(userID, beneficiaryID); err != nil {
		return err
	}
	return s.repo.Delete(beneficiaryID)
}

func (s *service) getOwned(userID, beneficiaryID uuid.UUID) (*models.Beneficiary, error) {
	b, err := s.repo.GetByID(beneficiaryID)
	if err != nil {
		if err == repositories.ErrBeneficiaryNotFound {
			return nil, ErrBeneficiaryNotFound
		}
		return nil, err
	}
	if b.UserID != userID {
		return nil, ErrAccessDenied
	}
	return b, nil
}

func normalizeIBAN(iban string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(iban), " ", ""))
}

// validIBAN checks shape only: two letters, two digits, then up to 30
// alphanumerics. Bank-side validation happens during verification.
func validIBAN(iban string) bool {
	if len(iban) < 15 || len(iban) > 34 {
		return false
	}
	for i, r := range iban {
		switch {
		case i < 2:
			if r < 'A' || r > 'Z' {
				return false
			}
		case i < 4:
			if r < '0' || r > '9' {
				return false
			}
		default:
			if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
				return false
			}
		}
	}
	return true
}
