package ledger

import (
	"time"

	"shiftpay/internal/models"

	"github.com/shopspring/decimal"
)

// Balance is a point-in-time view of a wallet.
type Balance struct {
	Available decimal.Decimal `json:"available"`
	Reserved  decimal.Decimal `json:"reserved"`
	Total     decimal.Decimal `json:"total"`
	Currency  string          `json:"currency"`
}

// ReserveInput opens a hold against a wallet for one shift.
type ReserveInput struct {
	WalletID       uint
	ShiftID        string
	Amount         decimal.Decimal
	HourlyRate     decimal.Decimal
	ExpiresAt      time.Time
	IdempotencyKey string
}

// ReserveOutcome reports the created hold, the pending payment posted with
// it and the wallet after the debit.
type ReserveOutcome struct {
	Hold               *models.Hold
	PendingTransaction *models.Transaction
	Balance            Balance
}

// SettleInput releases a hold into its final settlement postings. Fee and
// Payout must sum to Gross; Gross never exceeds the hold amount.
type SettleInput struct {
	ShiftID          string
	Gross            decimal.Decimal
	Fee              decimal.Decimal
	Payout           decimal.Decimal
	WorkerWalletID   uint
	PlatformWalletID uint
	IdempotencyKey   string
}

// SettleOutcome reports the released hold and the company wallet after
// settlement.
type SettleOutcome struct {
	Hold           *models.Hold
	CompanyBalance Balance
}

// ReleaseInput releases a hold into a refund/compensation split on
// cancellation. Refund and Compensation must sum to the hold amount;
// WorkerWalletID may be zero when Compensation is zero.
type ReleaseInput struct {
	ShiftID        string
	Refund         decimal.Decimal
	Compensation   decimal.Decimal
	WorkerWalletID uint
	CancelledBy    string
	Reason         string
	IdempotencyKey string
}

// ReleaseOutcome reports the released hold and the company wallet after the
// cancellation postings.
type ReleaseOutcome struct {
	Hold           *models.Hold
	CompanyBalance Balance
}

// CreditInput posts a completed inflow (top-up) onto a wallet.
type CreditInput struct {
	WalletID       uint
	Amount         decimal.Decimal
	Reference      string
	Description    string
	IdempotencyKey string
	Metadata       models.JSON
}

// DebitInput posts a completed outflow (withdrawal) from a wallet.
type DebitInput struct {
	WalletID       uint
	Amount         decimal.Decimal
	Reference      string
	Description    string
	IdempotencyKey string
	Metadata       models.JSON
}

// PostingOutcome reports the appended transaction and the wallet after a
// credit or debit.
type PostingOutcome struct {
	Transaction *models.Transaction
	Balance     Balance
}
