package repositories

import (
	"context"
	"time"

	"shiftpay/internal/models"

	"github.com/shopspring/decimal"
)

// LedgerRepository is the durable record of wallets, holds and transactions.
// Every balance-changing operation runs inside ExecuteInTransaction; LockWallet
// takes the per-wallet row lock that serializes concurrent mutations of the
// same wallet while leaving other wallets fully parallel.
type LedgerRepository interface {
	ExecuteInTransaction(fn func(tx LedgerRepository) error) error

	// Wallets
	GetWalletByID(id uint) (*models.Wallet, error)
	GetWalletByAccount(accountID uint, accountType string) (*models.Wallet, error)
	GetOrCreateWallet(accountID uint, accountType, currency string) (*models.Wallet, error)
	LockWallet(id uint) (*models.Wallet, error)
	UpdateWalletBalances(wallet *models.Wallet) error

	// Holds
	CreateHold(hold *models.Hold) error
	GetHoldByID(id uint) (*models.Hold, error)
	GetLatestHoldByShift(shiftID string) (*models.Hold, error)
	GetOpenHoldByShift(shiftID string) (*models.Hold, error)
	GetOpenHoldByWalletAndShift(walletID uint, shiftID string) (*models.Hold, error)
	ListExpiredOpenHolds(now time.Time, limit int) ([]models.Hold, error)
	TransitionHoldStatus(holdID uint, from, to string) error

	// Transactions
	CreateTransaction(txn *models.Transaction) error
	FinalizeTransaction(id uint, status string) error
	GetPendingHoldTransaction(holdID uint) (*models.Transaction, error)
	ListTransactions(ctx context.Context, walletID uint, limit, offset int) ([]models.Transaction, error)
	SumCompletedAmounts(ctx context.Context, walletID uint) (decimal.Decimal, error)

	// Outbox
	CreateOutboxEvent(event *models.OutboxEvent) error
}
