package ledger

import "errors"

// Service errors
var (
	ErrInvalidEntry        = errors.New("invalid ledger entry")
	ErrUnbalancedPair      = errors.New("debit and credit amounts differ")
	ErrReconciliationDrift = errors.New("ledger does not reconcile with account balance")
)
