package ledger

import (
	"context"
	"fmt"

	"atlasbank/internal/models"
	"atlasbank/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type service struct {
	repo repositories.LedgerRepository
}

// NewService creates a new ledger recorder.
func NewService(repo repositories.LedgerRepository) Service {
	if repo == nil {
		panic("ledger repo is required")
	}
	return &service{repo: repo}
}

func (s *service) Record(ctx context.Context, entry *models.Transaction) (uuid.UUID, error) {
	if err := validate(entry); err != nil {
		return uuid.Nil, err
	}
	if err := s.repo.Create(entry); err != nil {
		return uuid.Nil, fmt.Errorf("failed to record entry: %w", err)
	}
	return entry.ID, nil
}

func (s *service) RecordPair(ctx context.Context, debit, credit *models.Transaction) error {
	if err := validate(debit); err != nil {
		return err
	}
	if err := validate(credit); err != nil {
		return err
	}
	if debit.Type != models.TransactionTypeDebit || credit.Type != models.TransactionTypeCredit {
		return ErrInvalidEntry
	}
	if !debit.Amount.Equal(credit.Amount) {
		return ErrUnbalancedPair
	}

	// The credit leg inherits the debit's reference so the pair can be
	// joined back together.
	if credit.Reference == "" {
		credit.Reference = debit.Reference
	}

	if err := s.repo.CreateBatch([]*models.Transaction{debit, credit}); err != nil {
		return fmt.Errorf("failed to record entry pair: %w", err)
	}
	return nil
}

func (s *service) Statement(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*models.Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByAccount(accountID, limit, offset)
}

func (s *service) Reconcile(ctx context.Context, accountID uuid.UUID, openingBalance, currentBalance decimal.Decimal) error {
	sum, err := s.repo.SumDeltas(accountID)
	if err != nil {
		return fmt.Errorf("failed to sum ledger deltas: %w", err)
	}
	if !sum.Equal(currentBalance.Sub(openingBalance)) {
		return fmt.Errorf("%w: ledger delta %s, balance delta %s",
			ErrReconciliationDrift, sum, currentBalance.Sub(openingBalance))
	}
	return nil
}

func validate(entry *models.Transaction) error {
	if entry == nil {
		return ErrInvalidEntry
	}
	if !entry.Amount.IsPositive() {
		return ErrInvalidEntry
	}
	if entry.AccountID == nil && entry.BeneficiaryID == nil {
		return ErrInvalidEntry
	}
	switch entry.Type {
	case models.TransactionTypeDebit, models.TransactionTypeCredit, models.TransactionTypeTransfer:
	default:
		return ErrInvalidEntry
	}
	return nil
}
