package account

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"atlasbank/internal/models"
	"atlasbank/internal/repositories"
	"atlasbank/internal/services/ledger"
	"atlasbank/internal/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const DefaultCurrency = "TND"

type service struct {
	repo  repositories.AccountRepository
	cache repositories.CacheRepository
}

// NewService creates a new account service.
func NewService(repo repositories.AccountRepository, cache repositories.CacheRepository) Service {
	if repo == nil {
		panic("account repo is required")
	}
	if cache == nil {
		panic("cache is required")
	}
	return &service{repo: repo, cache: cache}
}

func (s *service) Open(ctx context.Context, userID uuid.UUID, accountType models.AccountType, currency string, initialBalance decimal.Decimal) (*models.Account, error) {
	if initialBalance.IsNegative() {
		return nil, ErrInvalidAmount
	}
	if currency == "" {
		currency = DefaultCurrency
	}
	if accountType == "" {
		accountType = models.AccountTypeChecking
	}

	acct := &models.Account{
		UserID:   userID,
		Balance:  initialBalance,
		Currency: currency,
		Type:     accountType,
		Status:   models.AccountStatusActive,
	}
	if err := s.repo.Create(acct); err != nil {
		return nil, fmt.Errorf("failed to open account: %w", err)
	}
	return acct, nil
}

func (s *service) Get(ctx context.Context, accountID uuid.UUID) (*models.Account, error) {
	if acct, err := s.cache.GetAccount(ctx, accountID); err == nil {
		return acct, nil
	}

	acct, err := s.repo.GetByID(accountID)
	if err != nil {
		if err == repositories.ErrAccountNotFound {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	if err := s.cache.SetAccount(ctx, acct); err != nil {
		log.Printf("failed to cache account %s: %v", accountID, err)
	}
	return acct, nil
}

func (s *service) GetOwned(ctx context.Context, accountID, userID uuid.UUID) (*models.Account, error) {
	acct, err := s.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if acct.UserID != userID {
		return nil, ErrAccessDenied
	}
	return acct, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]*models.Account, error) {
	return s.repo.ListByUser(userID)
}

// AdjustTx applies delta to one account on the transaction-bound handle tx.
// The row is locked first; the mutation is refused if the account is not
// ACTIVE or the resulting balance would drop below minBalance.
func AdjustTx(tx repositories.AccountRepository, accountID uuid.UUID, delta, minBalance decimal.Decimal) (decimal.Decimal, error) {
	acct, err := tx.GetForUpdate(accountID)
	if err != nil {
		if err == repositories.ErrAccountNotFound {
			return decimal.Zero, ErrAccountNotFound
		}
		return decimal.Zero, err
	}
	if !acct.IsActive() {
		return decimal.Zero, ErrAccountNotActive
	}

	balance := acct.Balance.Add(delta)
	if balance.LessThan(minBalance) {
		return decimal.Zero, ErrInsufficientFunds
	}

	acct.Balance = balance
	if err := tx.Update(acct); err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

// MoveFundsTx debits source and credits dest on the transaction-bound
// handle tx. Both rows are locked in ascending id order so two transfers
// moving funds in opposite directions between the same pair cannot
// deadlock.
func MoveFundsTx(tx repositories.AccountRepository, sourceID, destID uuid.UUID, amount decimal.Decimal) (*MoveResult, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if sourceID == destID {
		return nil, ErrSameAccount
	}

	first, second := sourceID, destID
	if bytes.Compare(destID[:], sourceID[:]) < 0 {
		first, second = destID, sourceID
	}

	locked := make(map[uuid.UUID]*models.Account, 2)
	for _, id := range []uuid.UUID{first, second} {
		acct, err := tx.GetForUpdate(id)
		if err != nil {
			if err == repositories.ErrAccountNotFound {
				return nil, ErrAccountNotFound
			}
			return nil, err
		}
		locked[id] = acct
	}

	source, dest := locked[sourceID], locked[destID]
	if !source.IsActive() || !dest.IsActive() {
		return nil, ErrAccountNotActive
	}
	if source.Currency != dest.Currency {
		return nil, ErrCurrencyMismatch
	}

	balance := source.Balance.Sub(amount)
	if balance.IsNegative() {
		return nil, ErrInsufficientFunds
	}

	source.Balance = balance
	dest.Balance = dest.Balance.Add(amount)

	if err := tx.Update(source); err != nil {
		return nil, err
	}
	if err := tx.Update(dest); err != nil {
		return nil, err
	}
	return &MoveResult{SourceBalance: source.Balance, DestBalance: dest.Balance}, nil
}

func (s *service) Adjust(ctx context.Context, accountID uuid.UUID, delta, minBalance decimal.Decimal) (decimal.Decimal, error) {
	var newBalance decimal.Decimal

	err := s.repo.ExecuteInTransaction(func(tx repositories.UnitOfWork) error {
		balance, err := AdjustTx(tx.Accounts, accountID, delta, minBalance)
		if err != nil {
			return err
		}
		newBalance = balance
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}

	s.invalidate(ctx, accountID)
	return newBalance, nil
}

func (s *service) MoveFunds(ctx context.Context, sourceID, destID uuid.UUID, amount decimal.Decimal) (*MoveResult, error) {
	var result *MoveResult

	err := s.repo.ExecuteInTransaction(func(tx repositories.UnitOfWork) error {
		moved, err := MoveFundsTx(tx.Accounts, sourceID, destID, amount)
		if err != nil {
			return err
		}
		result = moved
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, sourceID)
	s.invalidate(ctx, destID)
	return result, nil
}

func (s *service) Deposit(ctx context.Context, accountID, userID uuid.UUID, amount decimal.Decimal) (*models.Account, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if _, err := s.GetOwned(ctx, accountID, userID); err != nil {
		return nil, err
	}

	entry := &models.Transaction{
		AccountID: &accountID,
		Type:      models.TransactionTypeCredit,
		Amount:    amount,
		Status:    models.TransactionStatusCompleted,
		Reference: utils.NewReference("DEP"),
	}

	// The balance change and its ledger entry commit together.
	err := s.repo.ExecuteInTransaction(func(tx repositories.UnitOfWork) error {
		if _, err := AdjustTx(tx.Accounts, accountID, amount, decimal.Zero); err != nil {
			return err
		}
		_, err := ledger.NewService(tx.Ledger).Record(ctx, entry)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, accountID)
	return s.Get(ctx, accountID)
}

func (s *service) Withdraw(ctx context.Context, accountID, userID uuid.UUID, amount decimal.Decimal) (*models.Account, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if _, err := s.GetOwned(ctx, accountID, userID); err != nil {
		return nil, err
	}

	entry := &models.Transaction{
		AccountID: &accountID,
		Type:      models.TransactionTypeDebit,
		Amount:    amount,
		Status:    models.TransactionStatusCompleted,
		Reference: utils.NewReference("WDR"),
	}

	err := s.repo.ExecuteInTransaction(func(tx repositories.UnitOfWork) error {
		if _, err := AdjustTx(tx.Accounts, accountID, amount.Neg(), decimal.Zero); err != nil {
			return err
		}
		_, err := ledger.NewService(tx.Ledger).Record(ctx, entry)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, accountID)
	return s.Get(ctx, accountID)
}

func (s *service) Block(ctx context.Context, accountID, userID uuid.UUID) error {
	return s.transition(ctx, accountID, userID, models.AccountStatusActive, models.AccountStatusBlocked)
}

func (s *service) Unblock(ctx context.Context, accountID, userID uuid.UUID) error {
	return s.transition(ctx, accountID, userID, models.AccountStatusBlocked, models.AccountStatusActive)
}

// Close is terminal: a closed account can never be reactivated.
func (s *service) Close(ctx context.Context, accountID, userID uuid.UUID) error {
	err := s.repo.ExecuteInTransaction(func(tx repositories.UnitOfWork) error {
		acct, err := tx.Accounts.GetForUpdate(accountID)
		if err != nil {
			if err == repositories.ErrAccountNotFound {
				return ErrAccountNotFound
			}
			return err
		}
		if acct.UserID != userID {
			return ErrAccessDenied
		}
		if acct.Status == models.AccountStatusClosed {
			return ErrAccountClosed
		}
		acct.Status = models.AccountStatusClosed
		return tx.Accounts.Update(acct)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, accountID)
	return nil
}

func (s *service) transition(ctx context.Context, accountID, userID uuid.UUID, from, to models.AccountStatus) error {
	err := s.repo.ExecuteInTransaction(func(tx repositories.UnitOfWork) error {
		acct, err := tx.Accounts.GetForUpdate(accountID)
		if err != nil {
			if err == repositories.ErrAccountNotFound {
				return ErrAccountNotFound
			}
			return err
		}
		if acct.UserID != userID {
			return ErrAccessDenied
		}
		if acct.Status == models.AccountStatusClosed {
			return ErrAccountClosed
		}
		if acct.Status != from {
			return ErrInvalidTransition
		}
		acct.Status = to
		return tx.Accounts.Update(acct)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, accountID)
	return nil
}

func (s *service) invalidate(ctx context.Context, accountID uuid.UUID) {
	if err := s.cache.DeleteAccount(ctx, accountID); err != nil {
		log.Printf("failed to invalidate account cache %s: %v", accountID, err)
	}
}
