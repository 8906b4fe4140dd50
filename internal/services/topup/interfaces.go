package topup

import (
	"context"
	"time"

	"shiftpay/internal/models"

	"github.com/shopspring/decimal"
)

// Service is the funding boundary: money entering and leaving the ledger
// through the payment gateway, plus the auto top-up rules.
type Service interface {
	// TopUp charges the payment method and credits the wallet. The charge is
	// confirmed before the ledger posting; both sides share the idempotency
	// key so a retry can never double-charge or double-credit.
	TopUp(ctx context.Context, input TopupInput) (models.JSON, bool, error)

	// Withdraw debits the wallet and submits a gateway payout.
	Withdraw(ctx context.Context, input WithdrawInput) (models.JSON, bool, error)

	GetConfig(ctx context.Context, accountID uint, accountType string) (*models.AutoTopupConfig, error)
	SetConfig(ctx context.Context, input ConfigInput) (*models.AutoTopupConfig, error)
}

// Trigger decides, after a committed debit, whether to enqueue an automatic
// top-up. It is advisory and never fails the debit that invoked it.
type Trigger interface {
	AfterDebit(ctx context.Context, accountID uint, accountType string, available decimal.Decimal, triggerTxnID uint)
}

// Queue carries asynchronous top-up requests from the trigger to the worker.
type Queue interface {
	EnqueueTopup(ctx context.Context, payload []byte) error
	DequeueTopup(ctx context.Context, timeout time.Duration) ([]byte, error)
}
