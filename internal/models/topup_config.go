package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AutoTopupConfig is an account's automatic top-up preference. Mutated only
// through explicit configuration; the trigger logic reads it and never
// writes it.
type AutoTopupConfig struct {
	ID              uint            `gorm:"primarykey"`
	AccountID       uint            `gorm:"not null;uniqueIndex:idx_topup_config_account,priority:1"`
	AccountType     string          `gorm:"not null;uniqueIndex:idx_topup_config_account,priority:2"`
	Enabled         bool            `gorm:"not null;default:false"`
	Threshold       decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0"`
	Amount          decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0"`
	PaymentMethodID string          `gorm:"not null;default:''"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
