package utils

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewReference builds a human-readable unique reference for ledger entries
// and transfers, e.g. "TRF-1714059000-1b9d6bcd".
func NewReference(prefix string) string {
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UTC().Unix(), uuid.NewString()[:8])
}
