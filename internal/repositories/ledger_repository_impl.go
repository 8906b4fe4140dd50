package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shiftpay/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const pgUniqueViolationCode = "23505"

type ledgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository returns a gorm-backed LedgerRepository.
func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) ExecuteInTransaction(fn func(tx LedgerRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&ledgerRepository{db: tx})
	})
}

func (r *ledgerRepository) GetWalletByID(id uint) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.db.First(&wallet, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &wallet, nil
}

func (r *ledgerRepository) GetWalletByAccount(accountID uint, accountType string) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.Where("account_id = ? AND account_type = ?", accountID, accountType).First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &wallet, nil
}

func (r *ledgerRepository) GetOrCreateWallet(accountID uint, accountType, currency string) (*models.Wallet, error) {
	wallet, err := r.GetWalletByAccount(accountID, accountType)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, ErrWalletNotFound) {
		return nil, err
	}

	created := &models.Wallet{
		AccountID:   accountID,
		AccountType: accountType,
		Available:   decimal.Zero,
		Reserved:    decimal.Zero,
		Currency:    currency,
	}
	if createErr := r.db.Create(created).Error; createErr != nil {
		// A concurrent first-funding event may have won the unique index race.
		if isUniqueViolation(createErr) {
			return r.GetWalletByAccount(accountID, accountType)
		}
		return nil, fmt.Errorf("failed to create wallet: %w", createErr)
	}
	return created, nil
}

// LockWallet loads the wallet under SELECT ... FOR UPDATE. It must be called
// inside ExecuteInTransaction; callers locking several wallets do so in
// ascending wallet ID order.
func (r *ledgerRepository) LockWallet(id uint) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&wallet, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to lock wallet: %w", err)
	}
	return &wallet, nil
}

func (r *ledgerRepository) UpdateWalletBalances(wallet *models.Wallet) error {
	result := r.db.Model(&models.Wallet{}).
		Where("id = ?", wallet.ID).
		Updates(map[string]interface{}{
			"available": wallet.Available,
			"reserved":  wallet.Reserved,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update wallet balances: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrWalletNotFound
	}
	return nil
}

func (r *ledgerRepository) CreateHold(hold *models.Hold) error {
	if err := r.db.Create(hold).Error; err != nil {
		return fmt.Errorf("failed to create hold: %w", err)
	}
	return nil
}

func (r *ledgerRepository) GetHoldByID(id uint) (*models.Hold, error) {
	var hold models.Hold
	if err := r.db.First(&hold, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHoldNotFound
		}
		return nil, fmt.Errorf("failed to get hold: %w", err)
	}
	return &hold, nil
}

func (r *ledgerRepository) GetLatestHoldByShift(shiftID string) (*models.Hold, error) {
	var hold models.Hold
	err := r.db.Where("shift_id = ?", shiftID).Order("id DESC").First(&hold).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHoldNotFound
		}
		return nil, fmt.Errorf("failed to get hold: %w", err)
	}
	return &hold, nil
}

func (r *ledgerRepository) GetOpenHoldByShift(shiftID string) (*models.Hold, error) {
	var hold models.Hold
	err := r.db.Where("shift_id = ? AND status = ?", shiftID, models.HoldStatusOpen).First(&hold).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHoldNotFound
		}
		return nil, fmt.Errorf("failed to get open hold: %w", err)
	}
	return &hold, nil
}

func (r *ledgerRepository) GetOpenHoldByWalletAndShift(walletID uint, shiftID string) (*models.Hold, error) {
	var hold models.Hold
	err := r.db.
		Where("wallet_id = ? AND shift_id = ? AND status = ?", walletID, shiftID, models.HoldStatusOpen).
		First(&hold).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHoldNotFound
		}
		return nil, fmt.Errorf("failed to get open hold: %w", err)
	}
	return &hold, nil
}

func (r *ledgerRepository) ListExpiredOpenHolds(now time.Time, limit int) ([]models.Hold, error) {
	var holds []models.Hold
	err := r.db.
		Where("status = ? AND expires_at < ?", models.HoldStatusOpen, now).
		Order("expires_at").
		Limit(limit).
		Find(&holds).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list expired holds: %w", err)
	}
	return holds, nil
}

// TransitionHoldStatus advances a hold's status only from the expected state.
// RowsAffected == 0 means another caller released it first.
func (r *ledgerRepository) TransitionHoldStatus(holdID uint, from, to string) error {
	result := r.db.Model(&models.Hold{}).
		Where("id = ? AND status = ?", holdID, from).
		Update("status", to)
	if result.Error != nil {
		return fmt.Errorf("failed to transition hold status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrHoldNotOpen
	}
	return nil
}

func (r *ledgerRepository) CreateTransaction(txn *models.Transaction) error {
	if err := r.db.Create(txn).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// FinalizeTransaction advances a pending transaction's status. Amount and
// type are immutable once written.
func (r *ledgerRepository) FinalizeTransaction(id uint, status string) error {
	result := r.db.Model(&models.Transaction{}).
		Where("id = ? AND status = ?", id, models.TransactionStatusPending).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("failed to finalize transaction: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

func (r *ledgerRepository) GetPendingHoldTransaction(holdID uint) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.db.
		Where("hold_id = ? AND status = ?", holdID, models.TransactionStatusPending).
		First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get pending hold transaction: %w", err)
	}
	return &txn, nil
}

func (r *ledgerRepository) ListTransactions(ctx context.Context, walletID uint, limit, offset int) ([]models.Transaction, error) {
	var txns []models.Transaction
	err := r.db.WithContext(ctx).
		Where("wallet_id = ?", walletID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&txns).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txns, nil
}

func (r *ledgerRepository) SumCompletedAmounts(ctx context.Context, walletID uint) (decimal.Decimal, error) {
	var raw decimal.NullDecimal
	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("wallet_id = ? AND status = ?", walletID, models.TransactionStatusCompleted).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&raw).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum completed amounts: %w", err)
	}
	if !raw.Valid {
		return decimal.Zero, nil
	}
	return raw.Decimal, nil
}

func (r *ledgerRepository) CreateOutboxEvent(event *models.OutboxEvent) error {
	if err := r.db.Create(event).Error; err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolationCode
	}
	return false
}
