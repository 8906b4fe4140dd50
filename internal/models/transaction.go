package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types
const (
	TransactionTypeTopup        = "top_up"
	TransactionTypeWithdrawal   = "withdrawal"
	TransactionTypeEarning      = "earning"
	TransactionTypePayment      = "payment"
	TransactionTypeRefund       = "refund"
	TransactionTypeCompensation = "compensation"
	TransactionTypeFee          = "fee"
)

// Transaction statuses
const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusFailed    = "failed"
)

// Transaction is an immutable, append-only ledger entry. Amount is signed in
// the wallet's frame and counts toward the wallet total once the status is
// completed. A reserve posts a pending payment; releasing the hold finalizes
// it exactly once (status may advance, amount and type never change).
// Transactions are never deleted.
type Transaction struct {
	ID             uint            `gorm:"primarykey"`
	WalletID       uint            `gorm:"not null;index"`
	Type           string          `gorm:"not null"`
	Amount         decimal.Decimal `gorm:"type:numeric(20,4);not null"`
	Status         string          `gorm:"not null;default:'pending'"`
	HoldID         *uint           `gorm:"index"`
	ShiftID        string          `gorm:"index"`
	IdempotencyKey string          `gorm:"index"`
	Reference      string          `gorm:"index"` // gateway reference, or posting group id for composite postings
	Description    string
	Metadata       JSON `gorm:"type:jsonb"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
