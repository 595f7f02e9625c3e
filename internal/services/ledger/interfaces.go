package ledger

import (
	"context"

	"atlasbank/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service appends and reads immutable transaction records. Entries are the
// audit trail: nothing here can modify or remove one once written.
type Service interface {
	// Record appends one entry and returns its id.
	Record(ctx context.Context, entry *models.Transaction) (uuid.UUID, error)

	// RecordPair appends a matched DEBIT/CREDIT pair atomically. Both
	// entries must carry the same amount; the shared reference links them.
	RecordPair(ctx context.Context, debit, credit *models.Transaction) error

	// Statement lists an account's entries, most recent first.
	Statement(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*models.Transaction, error)

	// Reconcile checks that the sum of the account's entry deltas equals
	// its current balance minus the opening balance.
	Reconcile(ctx context.Context, accountID uuid.UUID, openingBalance, currentBalance decimal.Decimal) error
}
