package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account types that can own a wallet.
const (
	AccountTypeCompany  = "company"
	AccountTypeStaff    = "staff"
	AccountTypeAgency   = "agency"
	AccountTypePlatform = "platform"
)

// Wallet holds an account's funds. Available is spendable now, Reserved is
// the sum of open holds; the total only ever changes through completed
// Transactions. Wallets are created lazily on first funding and never
// deleted, only zeroed.
type Wallet struct {
	ID          uint            `gorm:"primarykey"`
	AccountID   uint            `gorm:"not null;uniqueIndex:idx_wallets_account,priority:1"`
	AccountType string          `gorm:"not null;uniqueIndex:idx_wallets_account,priority:2"`
	Available   decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0"`
	Reserved    decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0"`
	Currency    string          `gorm:"not null;default:'EUR'"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Total is the wallet's full balance, available plus reserved.
func (w *Wallet) Total() decimal.Decimal {
	return w.Available.Add(w.Reserved)
}
