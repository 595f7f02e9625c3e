package repositories

import (
	"errors"

	"atlasbank/internal/models"

	"github.com/google/uuid"
)

var (
	ErrAccountNotFound = errors.New("account not found")
)

// AccountRepository defines account persistence. GetForUpdate must be
// called inside ExecuteInTransaction; it takes a row-level lock so that
// all balance mutations for one account are linearized.
type AccountRepository interface {
	Create(account *models.Account) error
	GetByID(id uuid.UUID) (*models.Account, error)
	GetForUpdate(id uuid.UUID) (*models.Account, error)
	ListByUser(userID uuid.UUID) ([]*models.Account, error)
	Update(account *models.Account) error

	// ExecuteInTransaction runs fn against a unit of work bound to a single
	// database transaction. fn returning an error rolls everything back.
	ExecuteInTransaction(fn func(UnitOfWork) error) error
}
