package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Hold statuses
const (
	HoldStatusOpen     = "open"
	HoldStatusReleased = "released"
	HoldStatusExpired  = "expired"
)

// Hold is an escrow reservation earmarking funds against one shift. At most
// one open hold exists per (wallet, shift); the reserve path enforces that
// while holding the wallet row lock. Expiry is advisory metadata acted on by
// an external sweep, not by this core.
type Hold struct {
	ID         uint            `gorm:"primarykey"`
	WalletID   uint            `gorm:"not null;index:idx_holds_wallet_shift,priority:1"`
	ShiftID    string          `gorm:"not null;index:idx_holds_wallet_shift,priority:2;index:idx_holds_shift"`
	Amount     decimal.Decimal `gorm:"type:numeric(20,4);not null"`
	HourlyRate decimal.Decimal `gorm:"type:numeric(20,4);not null"`
	Status     string          `gorm:"not null;default:'open'"`
	ExpiresAt  time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
