package models

import "time"

// Outbox event types emitted by ledger commits.
const (
	EventFundsReserved   = "funds.reserved"
	EventShiftSettled    = "shift.settled"
	EventShiftCancelled  = "shift.cancelled"
	EventHoldExpired     = "hold.expired"
	EventWalletToppedUp  = "wallet.topped_up"
	EventWalletWithdrawn = "wallet.withdrawn"
)

// OutboxEvent is a domain event appended in the same database transaction as
// the ledger write it describes. A background dispatcher publishes it and
// stamps PublishedAt; delivery failures never roll back the ledger.
type OutboxEvent struct {
	ID          uint       `gorm:"primarykey"`
	EventType   string     `gorm:"not null;index"`
	Payload     JSON       `gorm:"type:jsonb"`
	PublishedAt *time.Time `gorm:"index"`
	CreatedAt   time.Time
}
