package repositories

import (
	"fmt"

	"atlasbank/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerRepository appends and reads immutable transaction records.
// There is deliberately no update or delete operation.
type LedgerRepository interface {
	Create(entry *models.Transaction) error

	// CreateBatch writes all entries in one database transaction;
	// either every entry lands or none does.
	CreateBatch(entries []*models.Transaction) error

	ListByAccount(accountID uuid.UUID, limit, offset int) ([]*models.Transaction, error)

	// SumDeltas returns the signed sum of all completed entry amounts for
	// the account (credits positive, debits negative).
	SumDeltas(accountID uuid.UUID) (decimal.Decimal, error)
}

type ledgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) Create(entry *models.Transaction) error {
	if err := r.db.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to record transaction: %w", err)
	}
	return nil
}

func (r *ledgerRepository) CreateBatch(entries []*models.Transaction) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, entry := range entries {
			if err := tx.Create(entry).Error; err != nil {
				return fmt.Errorf("failed to record transaction: %w", err)
			}
		}
		return nil
	})
}

func (r *ledgerRepository) ListByAccount(accountID uuid.UUID, limit, offset int) ([]*models.Transaction, error) {
	var entries []*models.Transaction
	err := r.db.Where("account_id = ?", accountID).
		Order("created_at DESC").Limit(limit).Offset(offset).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return entries, nil
}

func (r *ledgerRepository) SumDeltas(accountID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := r.db.Model(&models.Transaction{}).
		Select("SUM(CASE WHEN type = ? THEN -amount ELSE amount END)", models.TransactionTypeDebit).
		Where("account_id = ? AND status = ?", accountID, models.TransactionStatusCompleted).
		Scan(&sum).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum transactions: %w", err)
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}
