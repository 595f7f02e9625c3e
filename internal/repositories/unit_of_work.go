package repositories

import "gorm.io/gorm"

// UnitOfWork bundles the repositories that can take part in one database
// transaction. Every repository in the bundle shares the same handle, so
// writes across aggregates commit or roll back together.
type UnitOfWork struct {
	Accounts  AccountRepository
	Ledger    LedgerRepository
	Transfers TransferRepository
}

func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return UnitOfWork{
		Accounts:  NewAccountRepository(db),
		Ledger:    NewLedgerRepository(db),
		Transfers: NewTransferRepository(db),
	}
}
