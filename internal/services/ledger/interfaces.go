package ledger

import (
	"context"
	"time"

	"shiftpay/internal/models"
)

// Service is the ledger store contract consumed by the escrow, settlement,
// cancellation and top-up engines.
type Service interface {
	// Wallet reads
	GetOrCreateWallet(ctx context.Context, accountID uint, accountType string) (*models.Wallet, error)
	GetWallet(ctx context.Context, accountID uint, accountType string) (*models.Wallet, error)
	GetBalance(ctx context.Context, walletID uint) (Balance, error)

	// Hold reads
	GetOpenHoldByShift(ctx context.Context, shiftID string) (*models.Hold, error)

	// Atomic postings
	Reserve(ctx context.Context, input ReserveInput) (*ReserveOutcome, error)
	Settle(ctx context.Context, input SettleInput) (*SettleOutcome, error)
	Release(ctx context.Context, input ReleaseInput) (*ReleaseOutcome, error)
	ExpireHold(ctx context.Context, holdID uint) error
	SweepExpiredHolds(ctx context.Context, now time.Time, limit int) (int, error)
	Credit(ctx context.Context, input CreditInput) (*PostingOutcome, error)
	Debit(ctx context.Context, input DebitInput) (*PostingOutcome, error)

	// History
	ListTransactions(ctx context.Context, walletID uint, limit, offset int) ([]models.Transaction, error)
}

// Cache is the wallet read cache. Implementations are advisory: a miss or a
// cache failure never fails the read path.
type Cache interface {
	GetWallet(ctx context.Context, accountID uint, accountType string) (*models.Wallet, error)
	SetWallet(ctx context.Context, wallet *models.Wallet) error
	InvalidateWallet(ctx context.Context, accountID uint, accountType string)
}

// MetricsCollector records ledger operation outcomes.
type MetricsCollector interface {
	RecordTransaction(txType string, amount string)
	RecordError(operation, errType string)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (n *NoopMetricsCollector) RecordTransaction(string, string) {}
func (n *NoopMetricsCollector) RecordError(string, string)       {}
