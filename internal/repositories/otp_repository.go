package repositories

import (
	"errors"
	"fmt"
	"time"

	"atlasbank/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrChallengeNotFound = errors.New("otp challenge not found")
)

// OTPRepository persists one-time code challenges.
type OTPRepository interface {
	Create(challenge *models.OTPChallenge) error
	GetByID(id uuid.UUID) (*models.OTPChallenge, error)

	// GetForUpdate must be called inside ExecuteInTransaction; it takes a
	// row-level lock so concurrent verifications of one challenge are
	// linearized.
	GetForUpdate(id uuid.UUID) (*models.OTPChallenge, error)

	Update(challenge *models.OTPChallenge) error

	// InvalidateActive marks every unused challenge for the (user, purpose)
	// pair as used, superseding it. Returns how many rows were touched.
	InvalidateActive(userID uuid.UUID, purpose models.OTPPurpose) (int64, error)

	// ExecuteInTransaction runs fn against a repository bound to a single
	// database transaction. fn returning an error rolls everything back.
	ExecuteInTransaction(fn func(OTPRepository) error) error
}

type otpRepository struct {
	db *gorm.DB
}

func NewOTPRepository(db *gorm.DB) OTPRepository {
	return &otpRepository{db: db}
}

func (r *otpRepository) Create(challenge *models.OTPChallenge) error {
	if err := r.db.Create(challenge).Error; err != nil {
		return fmt.Errorf("failed to create otp challenge: %w", err)
	}
	return nil
}

func (r *otpRepository) GetByID(id uuid.UUID) (*models.OTPChallenge, error) {
	var challenge models.OTPChallenge
	err := r.db.First(&challenge, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrChallengeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get otp challenge: %w", err)
	}
	return &challenge, nil
}

func (r *otpRepository) GetForUpdate(id uuid.UUID) (*models.OTPChallenge, error) {
	var challenge models.OTPChallenge
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&challenge, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrChallengeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock otp challenge: %w", err)
	}
	return &challenge, nil
}

func (r *otpRepository) Update(challenge *models.OTPChallenge) error {
	if err := r.db.Save(challenge).Error; err != nil {
		return fmt.Errorf("failed to update otp challenge: %w", err)
	}
	return nil
}

func (r *otpRepository) ExecuteInTransaction(fn func(OTPRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&otpRepository{db: tx})
	})
}

func (r *otpRepository) InvalidateActive(userID uuid.UUID, purpose models.OTPPurpose) (int64, error) {
	now := time.Now().UTC()
	result := r.db.Model(&models.OTPChallenge{}).
		Where("user_id = ? AND purpose = ? AND is_used = ?", userID, purpose, false).
		Updates(map[string]interface{}{"is_used": true, "used_at": now})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to invalidate otp challenges: %w", result.Error)
	}
	return result.RowsAffected, nil
}
