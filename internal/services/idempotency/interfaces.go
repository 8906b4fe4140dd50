package idempotency

import (
	"context"
	"time"

	"shiftpay/internal/models"
)

// Operation names recorded alongside keys. The same key may be reused across
// different operations without colliding.
const (
	OperationReserve  = "escrow.reserve"
	OperationSettle   = "shift.settle"
	OperationCancel   = "shift.cancel"
	OperationTopup    = "wallet.topup"
	OperationWithdraw = "wallet.withdraw"
)

// Service makes a keyed operation run exactly once. The first caller executes
// the work; retries with the same (key, operation) replay the stored outcome,
// success and failure alike. A retry that arrives while the first attempt is
// still running is rejected with ErrConflict.
type Service interface {
	RunOnce(ctx context.Context, key, operation string, fn func(ctx context.Context) (interface{}, error)) (models.JSON, bool, error)

	// Sweep removes records whose retention window has passed and returns the
	// number deleted.
	Sweep(ctx context.Context, now time.Time) (int64, error)
}
