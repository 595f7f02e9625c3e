package account

import (
	"context"

	"atlasbank/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MoveResult carries the post-transfer balances of both accounts.
type MoveResult struct {
	SourceBalance decimal.Decimal
	DestBalance   decimal.Decimal
}

// Service is the account store: it owns balances and provides the only
// path through which they change.
type Service interface {
	Open(ctx context.Context, userID uuid.UUID, accountType models.AccountType, currency string, initialBalance decimal.Decimal) (*models.Account, error)
	Get(ctx context.Context, accountID uuid.UUID) (*models.Account, error)
	GetOwned(ctx context.Context, accountID, userID uuid.UUID) (*models.Account, error)
	List(ctx context.Context, userID uuid.UUID) ([]*models.Account, error)

	// Adjust atomically applies delta iff the resulting balance stays at or
	// above minBalance and the account is ACTIVE. Sole mutation primitive.
	Adjust(ctx context.Context, accountID uuid.UUID, delta, minBalance decimal.Decimal) (decimal.Decimal, error)

	// MoveFunds debits source and credits dest as one atomic unit.
	MoveFunds(ctx context.Context, sourceID, destID uuid.UUID, amount decimal.Decimal) (*MoveResult, error)

	Deposit(ctx context.Context, accountID, userID uuid.UUID, amount decimal.Decimal) (*models.Account, error)
	Withdraw(ctx context.Context, accountID, userID uuid.UUID, amount decimal.Decimal) (*models.Account, error)

	Block(ctx context.Context, accountID, userID uuid.UUID) error
	Unblock(ctx context.Context, accountID, userID uuid.UUID) error
	Close(ctx context.Context, accountID, userID uuid.UUID) error
}
