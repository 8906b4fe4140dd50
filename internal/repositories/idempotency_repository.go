package repositories

import (
	"time"

	"shiftpay/internal/models"
)

// IdempotencyRepository stores the outcome of keyed operations. Claim is a
// single conditional insert: two concurrent retries of the same key cannot
// both win it.
type IdempotencyRepository interface {
	// Claim inserts a running record for (key, operation). When the key is
	// already taken it returns claimed == false together with the existing
	// record.
	Claim(record *models.IdempotencyRecord) (bool, *models.IdempotencyRecord, error)
	Complete(id uint, status string, result models.JSON, errorCode, errorMessage string) error
	Get(key, operation string) (*models.IdempotencyRecord, error)
	DeleteExpired(now time.Time) (int64, error)
}
