package transfer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"atlasbank/internal/models"
	"atlasbank/internal/repositories"
	"atlasbank/internal/services/account"
	"atlasbank/internal/services/ledger"
	"atlasbank/internal/services/otp"
	"atlasbank/internal/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type service struct {
	repo          repositories.TransferRepository
	accounts      AccountStore
	otps          OTPManager
	beneficiaries BeneficiaryStore
	notifier      Notifier
	cache         repositories.CacheRepository
}

// NewService creates a new transfer service.
func NewService(
	repo repositories.TransferRepository,
	accounts AccountStore,
	otps OTPManager,
	beneficiaries BeneficiaryStore,
	notifier Notifier,
	cache repositories.CacheRepository,
) Service {
	if repo == nil {
		panic("transfer repo is required")
	}
	if accounts == nil {
		panic("account store is required")
	}
	if otps == nil {
		panic("otp manager is required")
	}
	if beneficiaries == nil {
		panic("beneficiary store is required")
	}
	if cache == nil {
		panic("cache is required")
	}
	return &service{
		repo:          repo,
		accounts:      accounts,
		otps:          otps,
		beneficiaries: beneficiaries,
		notifier:      notifier,
		cache:         cache,
	}
}

func (s *service) Initiate(ctx context.Context, userID uuid.UUID, req InitiateRequest) (*InitiateResult, error) {
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if (req.DestAccountID == nil) == (req.BeneficiaryID == nil) {
		return nil, ErrInvalidDestination
	}

	source, err := s.accounts.GetOwned(ctx, req.SourceAccountID, userID)
	if err != nil {
		return nil, err
	}
	if !source.IsActive() {
		return nil, account.ErrAccountNotActive
	}

	destName, err := s.validateDestination(ctx, userID, source, req)
	if err != nil {
		return nil, err
	}

	// Non-authoritative pre-check: the authoritative one happens again
	// under row locks at confirmation.
	if source.Balance.LessThan(req.Amount) {
		return nil, account.ErrInsufficientFunds
	}

	challenge, err := s.otps.Issue(ctx, userID, models.OTPPurposeTransaction, ChallengeTTL, ChallengeMaxAttempts)
	if err != nil {
		return nil, fmt.Errorf("failed to issue challenge: %w", err)
	}

	reference := req.Reference
	if reference == "" {
		reference = utils.NewReference("TRF")
	}

	tr := &models.Transfer{
		SourceAccountID: req.SourceAccountID,
		DestAccountID:   req.DestAccountID,
		BeneficiaryID:   req.BeneficiaryID,
		ChallengeID:     challenge.ID,
		Amount:          req.Amount,
		Reference:       reference,
		Status:          models.TransferStatusPending,
		ExpiresAt:       challenge.ExpiresAt,
	}
	if err := s.repo.Create(tr); err != nil {
		return nil, fmt.Errorf("failed to create transfer: %w", err)
	}

	return &InitiateResult{
		TransferToken:   tr.ID,
		ExpiresAt:       challenge.ExpiresAt,
		Amount:          tr.Amount,
		DestinationName: destName,
	}, nil
}

func (s *service) validateDestination(ctx context.Context, userID uuid.UUID, source *models.Account, req InitiateRequest) (string, error) {
	if req.BeneficiaryID != nil {
		b, err := s.beneficiaries.GetByID(*req.BeneficiaryID)
		if err != nil {
			if err == repositories.ErrBeneficiaryNotFound {
				return "", ErrBeneficiaryNotFound
			}
			return "", err
		}
		if b.UserID != userID {
			return "", ErrAccessDenied
		}
		if !b.IsVerified {
			return "", ErrBeneficiaryNotVerified
		}
		return b.Name, nil
	}

	// OTP-gated account destinations must belong to the same user; moving
	// money to arbitrary accounts goes through a beneficiary.
	dest, err := s.accounts.GetOwned(ctx, *req.DestAccountID, userID)
	if err != nil {
		return "", err
	}
	if dest.ID == source.ID {
		return "", account.ErrSameAccount
	}
	if dest.Currency != source.Currency {
		return "", account.ErrCurrencyMismatch
	}
	return fmt.Sprintf("%s account", dest.Type), nil
}

func (s *service) Confirm(ctx context.Context, userID, token uuid.UUID, code string) (*models.Transfer, error) {
	tr, err := s.repo.GetByID(token)
	if err != nil {
		if err == repositories.ErrTransferNotFound {
			return nil, ErrTransferNotFound
		}
		return nil, err
	}

	if _, err := s.accounts.GetOwned(ctx, tr.SourceAccountID, userID); err != nil {
		return nil, ErrAccessDenied
	}

	var (
		out      *models.Transfer
		executed bool
		// Verification and balance failures are carried out of the
		// transaction so their rejection write still commits.
		confirmErr error
	)
	err = s.repo.ExecuteInTransaction(func(tx repositories.UnitOfWork) error {
		// The row lock linearizes concurrent confirms of the same token: the
		// loser re-reads the final status instead of executing again.
		locked, err := tx.Transfers.GetForUpdate(token)
		if err != nil {
			if err == repositories.ErrTransferNotFound {
				return ErrTransferNotFound
			}
			return err
		}

		// Idempotence: a duplicate confirm on a validated transfer returns
		// the stored result without moving money again.
		if locked.Status == models.TransferStatusValidated {
			out = locked
			return nil
		}
		if locked.Status == models.TransferStatusRejected {
			return ErrTransferAlreadyFinalized
		}

		if err := s.otps.Verify(ctx, locked.ChallengeID, code); err != nil {
			switch {
			case errors.Is(err, otp.ErrCodeMismatch):
				// Retryable while attempts remain; the transfer stays PENDING.
				confirmErr = err
				return nil
			case errors.Is(err, otp.ErrExpired), errors.Is(err, otp.ErrAlreadyUsed), errors.Is(err, otp.ErrChallengeNotFound):
				confirmErr = err
				return rejectLocked(tx, locked, RejectionExpired)
			case errors.Is(err, otp.ErrAttemptsExhausted):
				confirmErr = err
				return rejectLocked(tx, locked, RejectionAttemptsExhausted)
			default:
				return err
			}
		}

		if err := s.settle(ctx, tx, locked); err != nil {
			switch {
			case errors.Is(err, account.ErrInsufficientFunds):
				confirmErr = err
				return rejectLocked(tx, locked, RejectionInsufficientFunds)
			case errors.Is(err, account.ErrAccountNotActive):
				confirmErr = err
				return rejectLocked(tx, locked, RejectionAccountNotActive)
			default:
				return err
			}
		}

		locked.Status = models.TransferStatusValidated
		if err := tx.Transfers.Update(locked); err != nil {
			return fmt.Errorf("failed to finalize transfer: %w", err)
		}
		out = locked
		executed = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if confirmErr != nil {
		return nil, confirmErr
	}

	if executed {
		s.invalidate(ctx, out.SourceAccountID)
		if out.DestAccountID != nil {
			s.invalidate(ctx, *out.DestAccountID)
		}
		if s.notifier != nil {
			if err := s.notifier.SendTransferNotification(ctx, userID, out); err != nil {
				log.Printf("transfer notification failed for %s: %v", out.ID, err)
			}
		}
	}

	return out, nil
}

// settle performs the authoritative balance check, moves the money and
// appends the double-entry pair, all on the transaction tx. The caller's
// status write rides the same transaction, so either everything lands or
// nothing does.
func (s *service) settle(ctx context.Context, tx repositories.UnitOfWork, tr *models.Transfer) error {
	debit := &models.Transaction{
		AccountID: &tr.SourceAccountID,
		Type:      models.TransactionTypeDebit,
		Amount:    tr.Amount,
		Status:    models.TransactionStatusCompleted,
		Reference: tr.Reference,
	}
	credit := &models.Transaction{
		Type:      models.TransactionTypeCredit,
		Amount:    tr.Amount,
		Status:    models.TransactionStatusCompleted,
		Reference: tr.Reference,
	}

	if tr.DestAccountID != nil {
		if _, err := account.MoveFundsTx(tx.Accounts, tr.SourceAccountID, *tr.DestAccountID, tr.Amount); err != nil {
			return err
		}
		credit.AccountID = tr.DestAccountID
	} else {
		// Beneficiary settlement: debit the source, credit leg is recorded
		// against the external payee.
		if _, err := account.AdjustTx(tx.Accounts, tr.SourceAccountID, tr.Amount.Neg(), decimal.Zero); err != nil {
			return err
		}
		credit.BeneficiaryID = tr.BeneficiaryID
	}

	if err := ledger.NewService(tx.Ledger).RecordPair(ctx, debit, credit); err != nil {
		return fmt.Errorf("failed to record ledger pair: %w", err)
	}
	return nil
}

func rejectLocked(tx repositories.UnitOfWork, tr *models.Transfer, reason string) error {
	tr.Status = models.TransferStatusRejected
	tr.RejectionReason = reason
	return tx.Transfers.Update(tr)
}

// reject finalizes tr outside a settlement transaction. Conditional on the
// row still being PENDING, so a finalized transfer is never overwritten.
func (s *service) reject(tr *models.Transfer, reason string) {
	ok, err := s.repo.TransitionStatus(tr.ID, models.TransferStatusPending, models.TransferStatusRejected, reason)
	if err != nil {
		log.Printf("failed to reject transfer %s: %v", tr.ID, err)
		return
	}
	if !ok {
		// Lost to a concurrent finalization; reflect whatever won.
		if fresh, ferr := s.repo.GetByID(tr.ID); ferr == nil {
			*tr = *fresh
		}
		return
	}
	tr.Status = models.TransferStatusRejected
	tr.RejectionReason = reason
}

func (s *service) DirectTransfer(ctx context.Context, userID, sourceID, destID uuid.UUID, amount decimal.Decimal, reference string) (*DirectResult, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	// The no-OTP path only moves funds between the caller's own accounts.
	if _, err := s.accounts.GetOwned(ctx, sourceID, userID); err != nil {
		return nil, err
	}
	if _, err := s.accounts.GetOwned(ctx, destID, userID); err != nil {
		return nil, err
	}

	if reference == "" {
		reference = utils.NewReference("TRF")
	}
	debit := &models.Transaction{
		AccountID: &sourceID,
		Type:      models.TransactionTypeDebit,
		Amount:    amount,
		Status:    models.TransactionStatusCompleted,
		Reference: reference,
	}
	credit := &models.Transaction{
		AccountID: &destID,
		Type:      models.TransactionTypeCredit,
		Amount:    amount,
		Status:    models.TransactionStatusCompleted,
		Reference: reference,
	}

	var result *account.MoveResult
	err := s.repo.ExecuteInTransaction(func(tx repositories.UnitOfWork) error {
		moved, err := account.MoveFundsTx(tx.Accounts, sourceID, destID, amount)
		if err != nil {
			return err
		}
		result = moved
		if err := ledger.NewService(tx.Ledger).RecordPair(ctx, debit, credit); err != nil {
			return fmt.Errorf("failed to record ledger pair: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, sourceID)
	s.invalidate(ctx, destID)

	return &DirectResult{
		Reference:     reference,
		SourceBalance: result.SourceBalance,
		DestBalance:   result.DestBalance,
	}, nil
}

func (s *service) Get(ctx context.Context, userID, transferID uuid.UUID) (*models.Transfer, error) {
	tr, err := s.repo.GetByID(transferID)
	if err != nil {
		if err == repositories.ErrTransferNotFound {
			return nil, ErrTransferNotFound
		}
		return nil, err
	}
	if _, err := s.accounts.GetOwned(ctx, tr.SourceAccountID, userID); err != nil {
		return nil, ErrAccessDenied
	}

	// Lazy rejection: an abandoned transfer is finalized on next access.
	if tr.Status == models.TransferStatusPending && !time.Now().UTC().Before(tr.ExpiresAt) {
		s.reject(tr, RejectionExpired)
	}
	return tr, nil
}

func (s *service) ListByAccount(ctx context.Context, userID, accountID uuid.UUID, limit, offset int) ([]*models.Transfer, int64, error) {
	if _, err := s.accounts.GetOwned(ctx, accountID, userID); err != nil {
		return nil, 0, err
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByAccount(accountID, limit, offset)
}

func (s *service) invalidate(ctx context.Context, accountID uuid.UUID) {
	if err := s.cache.DeleteAccount(ctx, accountID); err != nil {
		log.Printf("failed to invalidate account cache %s: %v", accountID, err)
	}
}
