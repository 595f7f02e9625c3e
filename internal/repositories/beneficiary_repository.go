package repositories

import (
	"errors"
	"fmt"

	"atlasbank/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrBeneficiaryNotFound = errors.New("beneficiary not found")
)

// BeneficiaryRepository persists external payees.
type BeneficiaryRepository interface {
	Create(beneficiary *models.Beneficiary) error
	GetByID(id uuid.UUID) (*models.Beneficiary, error)
	ListByUser(userID uuid.UUID) ([]*models.Beneficiary, error)
	Update(beneficiary *models.Beneficiary) error
	Delete(id uuid.UUID) error
}

type beneficiaryRepository struct {
	db *gorm.DB
}

func NewBeneficiaryRepository(db *gorm.DB) BeneficiaryRepository {
	return &beneficiaryRepository{db: db}
}

func (r *beneficiaryRepository) Create(beneficiary *models.Beneficiary) error {
	if err := r.db.Create(beneficiary).Error; err != nil {
		return fmt.Errorf("failed to create beneficiary: %w", err)
	}
	return nil
}

func (r *beneficiaryRepository) GetByID(id uuid.UUID) (*models.Beneficiary, error) {
	var beneficiary models.Beneficiary
	err := r.db.First(&beneficiary, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrBeneficiaryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get beneficiary: %w", err)
	}
	return &beneficiary, nil
}

func (r *beneficiaryRepository) ListByUser(userID uuid.UUID) ([]*models.Beneficiary, error) {
	var beneficiaries []*models.Beneficiary
	if err := r.db.Where("user_id = ?", userID).Find(&beneficiaries).Error; err != nil {
		return nil, fmt.Errorf("failed to list beneficiaries: %w", err)
	}
	return beneficiaries, nil
}

func (r *beneficiaryRepository) Update(beneficiary *models.Beneficiary) error {
	if err := r.db.Save(beneficiary).Error; err != nil {
		return fmt.Errorf("failed to update beneficiary: %w", err)
	}
	return nil
}

func (r *beneficiaryRepository) Delete(id uuid.UUID) error {
	result := r.db.Delete(&models.Beneficiary{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete beneficiary: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrBeneficiaryNotFound
	}
	return nil
}
