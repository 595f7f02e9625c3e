package repositories

import (
	"errors"
	"fmt"

	"atlasbank/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrTransferNotFound = errors.New("transfer not found")
)

// TransferRepository persists two-phase transfers.
type TransferRepository interface {
	Create(transfer *models.Transfer) error
	GetByID(id uuid.UUID) (*models.Transfer, error)

	// GetForUpdate must be called inside ExecuteInTransaction; it takes a
	// row-level lock so concurrent confirmations of one transfer are
	// linearized.
	GetForUpdate(id uuid.UUID) (*models.Transfer, error)

	Update(transfer *models.Transfer) error

	// TransitionStatus flips the status only while the row still holds
	// from. Returns false when another writer finalized the transfer first.
	TransitionStatus(id uuid.UUID, from, to models.TransferStatus, reason string) (bool, error)

	ListByAccount(accountID uuid.UUID, limit, offset int) ([]*models.Transfer, int64, error)

	// ExecuteInTransaction runs fn against a unit of work bound to a single
	// database transaction. fn returning an error rolls everything back.
	ExecuteInTransaction(fn func(UnitOfWork) error) error
}

type transferRepository struct {
	db *gorm.DB
}

func NewTransferRepository(db *gorm.DB) TransferRepository {
	return &transferRepository{db: db}
}

func (r *transferRepository) Create(transfer *models.Transfer) error {
	if err := r.db.Create(transfer).Error; err != nil {
		return fmt.Errorf("failed to create transfer: %w", err)
	}
	return nil
}

func (r *transferRepository) GetByID(id uuid.UUID) (*models.Transfer, error) {
	var transfer models.Transfer
	err := r.db.First(&transfer, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrTransferNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transfer: %w", err)
	}
	return &transfer, nil
}

func (r *transferRepository) GetForUpdate(id uuid.UUID) (*models.Transfer, error) {
	var transfer models.Transfer
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&transfer, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrTransferNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock transfer: %w", err)
	}
	return &transfer, nil
}

func (r *transferRepository) Update(transfer *models.Transfer) error {
	if err := r.db.Save(transfer).Error; err != nil {
		return fmt.Errorf("failed to update transfer: %w", err)
	}
	return nil
}

func (r *transferRepository) TransitionStatus(id uuid.UUID, from, to models.TransferStatus, reason string) (bool, error) {
	result := r.db.Model(&models.Transfer{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{"status": to, "rejection_reason": reason})
	if result.Error != nil {
		return false, fmt.Errorf("failed to transition transfer: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *transferRepository) ExecuteInTransaction(fn func(UnitOfWork) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(NewUnitOfWork(tx))
	})
}

func (r *transferRepository) ListByAccount(accountID uuid.UUID, limit, offset int) ([]*models.Transfer, int64, error) {
	query := r.db.Model(&models.Transfer{}).Where("source_account_id = ?", accountID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count transfers: %w", err)
	}

	var transfers []*models.Transfer
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&transfers).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transfers: %w", err)
	}
	return transfers, total, nil
}
