package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	apperrors "shiftpay/internal/errors"
	"shiftpay/internal/models"
	"shiftpay/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Config holds ledger service settings.
type Config struct {
	DefaultCurrency string
}

type service struct {
	repo    repositories.LedgerRepository
	cache   Cache
	config  Config
	metrics MetricsCollector
}

// NewService creates a new ledger service.
func NewService(repo repositories.LedgerRepository, cache Cache, config Config, metrics MetricsCollector) Service {
	if repo == nil {
		panic("repo is required")
	}
	if cache == nil {
		panic("cache is required")
	}
	if config.DefaultCurrency == "" {
		config.DefaultCurrency = "EUR"
	}
	if metrics == nil {
		metrics = &NoopMetricsCollector{}
	}
	return &service{
		repo:    repo,
		cache:   cache,
		config:  config,
		metrics: metrics,
	}
}

func (s *service) GetOrCreateWallet(ctx context.Context, accountID uint, accountType string) (*models.Wallet, error) {
	wallet, err := s.repo.GetOrCreateWallet(accountID, accountType, s.config.DefaultCurrency)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create wallet: %w", err)
	}
	return wallet, nil
}

func (s *service) GetWallet(ctx context.Context, accountID uint, accountType string) (*models.Wallet, error) {
	if wallet, err := s.cache.GetWallet(ctx, accountID, accountType); err == nil {
		return wallet, nil
	}

	wallet, err := s.repo.GetWalletByAccount(accountID, accountType)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, apperrors.ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	// Cache writes are advisory.
	_ = s.cache.SetWallet(ctx, wallet)
	return wallet, nil
}

func (s *service) GetBalance(ctx context.Context, walletID uint) (Balance, error) {
	wallet, err := s.repo.GetWalletByID(walletID)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return Balance{}, apperrors.ErrWalletNotFound
		}
		return Balance{}, fmt.Errorf("failed to get balance: %w", err)
	}
	return balanceOf(wallet), nil
}

func (s *service) GetOpenHoldByShift(ctx context.Context, shiftID string) (*models.Hold, error) {
	return resolveOpenHold(s.repo, shiftID)
}

// Reserve debits available into reserved and opens a hold for the shift.
func (s *service) Reserve(ctx context.Context, input ReserveInput) (*ReserveOutcome, error) {
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, apperrors.ErrValidation
	}

	var outcome ReserveOutcome
	var owner *models.Wallet
	err := s.repo.ExecuteInTransaction(func(tx repositories.LedgerRepository) error {
		wallet, err := tx.LockWallet(input.WalletID)
		if err != nil {
			if errors.Is(err, repositories.ErrWalletNotFound) {
				return apperrors.ErrWalletNotFound
			}
			return err
		}
		owner = wallet

		// The wallet row lock serializes all reserve attempts for this
		// wallet, so the open-hold check cannot race with itself.
		if _, err := tx.GetOpenHoldByWalletAndShift(wallet.ID, input.ShiftID); err == nil {
			return apperrors.ErrAlreadyReserved
		} else if !errors.Is(err, repositories.ErrHoldNotFound) {
			return err
		}

		if wallet.Available.LessThan(input.Amount) {
			return apperrors.ErrInsufficientFunds
		}

		hold := &models.Hold{
			WalletID:   wallet.ID,
			ShiftID:    input.ShiftID,
			Amount:     input.Amount,
			HourlyRate: input.HourlyRate,
			Status:     models.HoldStatusOpen,
			ExpiresAt:  input.ExpiresAt,
		}
		if err := tx.CreateHold(hold); err != nil {
			return err
		}

		txn := &models.Transaction{
			WalletID:       wallet.ID,
			Type:           models.TransactionTypePayment,
			Amount:         input.Amount.Neg(),
			Status:         models.TransactionStatusPending,
			HoldID:         &hold.ID,
			ShiftID:        input.ShiftID,
			IdempotencyKey: input.IdempotencyKey,
			Description:    "Funds reserved for shift " + input.ShiftID,
		}
		if err := tx.CreateTransaction(txn); err != nil {
			return err
		}

		wallet.Available = wallet.Available.Sub(input.Amount)
		wallet.Reserved = wallet.Reserved.Add(input.Amount)
		if err := tx.UpdateWalletBalances(wallet); err != nil {
			return err
		}

		if err := tx.CreateOutboxEvent(&models.OutboxEvent{
			EventType: models.EventFundsReserved,
			Payload: models.NewJSON(map[string]interface{}{
				"wallet_id": wallet.ID,
				"shift_id":  input.ShiftID,
				"hold_id":   hold.ID,
				"amount":    input.Amount.String(),
			}),
		}); err != nil {
			return err
		}

		outcome = ReserveOutcome{Hold: hold, PendingTransaction: txn, Balance: balanceOf(wallet)}
		return nil
	})
	if err != nil {
		s.metrics.RecordError("reserve", apperrors.CodeOf(err))
		return nil, err
	}

	s.cache.InvalidateWallet(ctx, owner.AccountID, owner.AccountType)
	s.metrics.RecordTransaction(models.TransactionTypePayment, outcome.Hold.Amount.String())
	return &outcome, nil
}

// Settle releases the shift's hold into its final postings: the pending
// reserve payment completes, the remainder refunds to the company, the
// platform wallet collects the fee and the worker wallet the payout. All
// four wallets-and-rows commit as one unit.
func (s *service) Settle(ctx context.Context, input SettleInput) (*SettleOutcome, error) {
	if !input.Fee.Add(input.Payout).Equal(input.Gross) {
		return nil, apperrors.ErrValidation
	}

	var outcome SettleOutcome
	var touched []*models.Wallet
	err := s.repo.ExecuteInTransaction(func(tx repositories.LedgerRepository) error {
		hold, err := resolveOpenHold(tx, input.ShiftID)
		if err != nil {
			return err
		}
		if input.Gross.GreaterThan(hold.Amount) {
			return apperrors.ErrValidation
		}

		wallets, err := lockWallets(tx, hold.WalletID, input.WorkerWalletID, input.PlatformWalletID)
		if err != nil {
			return err
		}
		company := wallets[hold.WalletID]
		worker := wallets[input.WorkerWalletID]
		platform := wallets[input.PlatformWalletID]
		touched = []*models.Wallet{company, worker, platform}

		if err := tx.TransitionHoldStatus(hold.ID, models.HoldStatusOpen, models.HoldStatusReleased); err != nil {
			if errors.Is(err, repositories.ErrHoldNotOpen) {
				return apperrors.ErrAlreadySettled
			}
			return err
		}
		hold.Status = models.HoldStatusReleased

		if err := finalizeReservePayment(tx, hold.ID); err != nil {
			return err
		}

		// One posting group id ties the settlement legs together.
		groupRef := uuid.NewString()

		remainder := hold.Amount.Sub(input.Gross)
		if remainder.IsPositive() {
			if err := tx.CreateTransaction(&models.Transaction{
				WalletID:       company.ID,
				Type:           models.TransactionTypeRefund,
				Amount:         remainder,
				Status:         models.TransactionStatusCompleted,
				HoldID:         &hold.ID,
				ShiftID:        input.ShiftID,
				IdempotencyKey: input.IdempotencyKey,
				Reference:      groupRef,
				Description:    "Unused reservation released",
			}); err != nil {
				return err
			}
		}
		company.Reserved = company.Reserved.Sub(hold.Amount)
		company.Available = company.Available.Add(remainder)
		if err := tx.UpdateWalletBalances(company); err != nil {
			return err
		}

		if err := tx.CreateTransaction(&models.Transaction{
			WalletID:       platform.ID,
			Type:           models.TransactionTypeFee,
			Amount:         input.Fee,
			Status:         models.TransactionStatusCompleted,
			HoldID:         &hold.ID,
			ShiftID:        input.ShiftID,
			IdempotencyKey: input.IdempotencyKey,
			Reference:      groupRef,
			Description:    "Platform fee for shift " + input.ShiftID,
		}); err != nil {
			return err
		}
		platform.Available = platform.Available.Add(input.Fee)
		if err := tx.UpdateWalletBalances(platform); err != nil {
			return err
		}

		if err := tx.CreateTransaction(&models.Transaction{
			WalletID:       worker.ID,
			Type:           models.TransactionTypeEarning,
			Amount:         input.Payout,
			Status:         models.TransactionStatusCompleted,
			HoldID:         &hold.ID,
			ShiftID:        input.ShiftID,
			IdempotencyKey: input.IdempotencyKey,
			Reference:      groupRef,
			Description:    "Earnings for shift " + input.ShiftID,
		}); err != nil {
			return err
		}
		worker.Available = worker.Available.Add(input.Payout)
		if err := tx.UpdateWalletBalances(worker); err != nil {
			return err
		}

		if err := tx.CreateOutboxEvent(&models.OutboxEvent{
			EventType: models.EventShiftSettled,
			Payload: models.NewJSON(map[string]interface{}{
				"shift_id": input.ShiftID,
				"hold_id":  hold.ID,
				"gross":    input.Gross.String(),
				"fee":      input.Fee.String(),
				"payout":   input.Payout.String(),
			}),
		}); err != nil {
			return err
		}

		outcome = SettleOutcome{Hold: hold, CompanyBalance: balanceOf(company)}
		return nil
	})
	if err != nil {
		s.metrics.RecordError("settle", apperrors.CodeOf(err))
		return nil, err
	}

	s.invalidateAll(ctx, touched)
	s.metrics.RecordTransaction(models.TransactionTypeEarning, input.Payout.String())
	return &outcome, nil
}

// Release releases the shift's hold into a refund/compensation split. All
// cancellation branches come through here; the hold is always released in
// full.
func (s *service) Release(ctx context.Context, input ReleaseInput) (*ReleaseOutcome, error) {
	if input.Compensation.IsPositive() && input.WorkerWalletID == 0 {
		return nil, apperrors.ErrValidation
	}

	var outcome ReleaseOutcome
	var touched []*models.Wallet
	err := s.repo.ExecuteInTransaction(func(tx repositories.LedgerRepository) error {
		hold, err := resolveOpenHold(tx, input.ShiftID)
		if err != nil {
			return err
		}
		if !input.Refund.Add(input.Compensation).Equal(hold.Amount) {
			return apperrors.ErrValidation
		}

		walletIDs := []uint{hold.WalletID}
		if input.Compensation.IsPositive() {
			walletIDs = append(walletIDs, input.WorkerWalletID)
		}
		wallets, err := lockWallets(tx, walletIDs...)
		if err != nil {
			return err
		}
		company := wallets[hold.WalletID]
		touched = []*models.Wallet{company}

		if err := tx.TransitionHoldStatus(hold.ID, models.HoldStatusOpen, models.HoldStatusReleased); err != nil {
			if errors.Is(err, repositories.ErrHoldNotOpen) {
				return apperrors.ErrAlreadySettled
			}
			return err
		}
		hold.Status = models.HoldStatusReleased

		if err := finalizeReservePayment(tx, hold.ID); err != nil {
			return err
		}

		groupRef := uuid.NewString()

		if input.Refund.IsPositive() {
			if err := tx.CreateTransaction(&models.Transaction{
				WalletID:       company.ID,
				Type:           models.TransactionTypeRefund,
				Amount:         input.Refund,
				Status:         models.TransactionStatusCompleted,
				HoldID:         &hold.ID,
				ShiftID:        input.ShiftID,
				IdempotencyKey: input.IdempotencyKey,
				Reference:      groupRef,
				Description:    "Cancellation refund (" + input.CancelledBy + ")",
			}); err != nil {
				return err
			}
		}
		company.Reserved = company.Reserved.Sub(hold.Amount)
		company.Available = company.Available.Add(input.Refund)
		if err := tx.UpdateWalletBalances(company); err != nil {
			return err
		}

		if input.Compensation.IsPositive() {
			worker := wallets[input.WorkerWalletID]
			touched = append(touched, worker)
			if err := tx.CreateTransaction(&models.Transaction{
				WalletID:       worker.ID,
				Type:           models.TransactionTypeCompensation,
				Amount:         input.Compensation,
				Status:         models.TransactionStatusCompleted,
				HoldID:         &hold.ID,
				ShiftID:        input.ShiftID,
				IdempotencyKey: input.IdempotencyKey,
				Reference:      groupRef,
				Description:    "Cancellation compensation",
			}); err != nil {
				return err
			}
			worker.Available = worker.Available.Add(input.Compensation)
			if err := tx.UpdateWalletBalances(worker); err != nil {
				return err
			}
		}

		if err := tx.CreateOutboxEvent(&models.OutboxEvent{
			EventType: models.EventShiftCancelled,
			Payload: models.NewJSON(map[string]interface{}{
				"shift_id":     input.ShiftID,
				"hold_id":      hold.ID,
				"refund":       input.Refund.String(),
				"compensation": input.Compensation.String(),
				"cancelled_by": input.CancelledBy,
				"reason":       input.Reason,
			}),
		}); err != nil {
			return err
		}

		outcome = ReleaseOutcome{Hold: hold, CompanyBalance: balanceOf(company)}
		return nil
	})
	if err != nil {
		s.metrics.RecordError("release", apperrors.CodeOf(err))
		return nil, err
	}

	s.invalidateAll(ctx, touched)
	return &outcome, nil
}

// ExpireHold releases an overdue hold back to available in full. Called by
// an external sweep; this core never expires holds on its own.
func (s *service) ExpireHold(ctx context.Context, holdID uint) error {
	var owner *models.Wallet
	err := s.repo.ExecuteInTransaction(func(tx repositories.LedgerRepository) error {
		hold, err := tx.GetHoldByID(holdID)
		if err != nil {
			if errors.Is(err, repositories.ErrHoldNotFound) {
				return apperrors.ErrHoldNotFound
			}
			return err
		}

		wallet, err := tx.LockWallet(hold.WalletID)
		if err != nil {
			return err
		}
		owner = wallet

		if err := tx.TransitionHoldStatus(hold.ID, models.HoldStatusOpen, models.HoldStatusExpired); err != nil {
			if errors.Is(err, repositories.ErrHoldNotOpen) {
				return apperrors.ErrAlreadySettled
			}
			return err
		}

		if err := finalizeReservePayment(tx, hold.ID); err != nil {
			return err
		}

		if err := tx.CreateTransaction(&models.Transaction{
			WalletID:    wallet.ID,
			Type:        models.TransactionTypeRefund,
			Amount:      hold.Amount,
			Status:      models.TransactionStatusCompleted,
			HoldID:      &hold.ID,
			ShiftID:     hold.ShiftID,
			Description: "Expired hold released",
		}); err != nil {
			return err
		}

		wallet.Reserved = wallet.Reserved.Sub(hold.Amount)
		wallet.Available = wallet.Available.Add(hold.Amount)
		if err := tx.UpdateWalletBalances(wallet); err != nil {
			return err
		}

		return tx.CreateOutboxEvent(&models.OutboxEvent{
			EventType: models.EventHoldExpired,
			Payload: models.NewJSON(map[string]interface{}{
				"hold_id":  hold.ID,
				"shift_id": hold.ShiftID,
				"amount":   hold.Amount.String(),
			}),
		})
	})
	if err != nil {
		s.metrics.RecordError("expire_hold", apperrors.CodeOf(err))
		return err
	}

	s.cache.InvalidateWallet(ctx, owner.AccountID, owner.AccountType)
	return nil
}

// SweepExpiredHolds expires overdue open holds in batches. A hold another
// caller releases mid-sweep is skipped, not an error.
func (s *service) SweepExpiredHolds(ctx context.Context, now time.Time, limit int) (int, error) {
	holds, err := s.repo.ListExpiredOpenHolds(now, limit)
	if err != nil {
		return 0, err
	}
	expired := 0
	for _, hold := range holds {
		if err := s.ExpireHold(ctx, hold.ID); err != nil {
			if errors.Is(err, apperrors.ErrAlreadySettled) {
				continue
			}
			return expired, err
		}
		expired++
	}
	return expired, nil
}

func (s *service) Credit(ctx context.Context, input CreditInput) (*PostingOutcome, error) {
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, apperrors.ErrValidation
	}

	var outcome PostingOutcome
	var owner *models.Wallet
	err := s.repo.ExecuteInTransaction(func(tx repositories.LedgerRepository) error {
		wallet, err := tx.LockWallet(input.WalletID)
		if err != nil {
			if errors.Is(err, repositories.ErrWalletNotFound) {
				return apperrors.ErrWalletNotFound
			}
			return err
		}
		owner = wallet

		txn := &models.Transaction{
			WalletID:       wallet.ID,
			Type:           models.TransactionTypeTopup,
			Amount:         input.Amount,
			Status:         models.TransactionStatusCompleted,
			IdempotencyKey: input.IdempotencyKey,
			Reference:      input.Reference,
			Description:    input.Description,
			Metadata:       input.Metadata,
		}
		if err := tx.CreateTransaction(txn); err != nil {
			return err
		}

		wallet.Available = wallet.Available.Add(input.Amount)
		if err := tx.UpdateWalletBalances(wallet); err != nil {
			return err
		}

		if err := tx.CreateOutboxEvent(&models.OutboxEvent{
			EventType: models.EventWalletToppedUp,
			Payload: models.NewJSON(map[string]interface{}{
				"wallet_id": wallet.ID,
				"amount":    input.Amount.String(),
				"reference": input.Reference,
			}),
		}); err != nil {
			return err
		}

		outcome = PostingOutcome{Transaction: txn, Balance: balanceOf(wallet)}
		return nil
	})
	if err != nil {
		s.metrics.RecordError("credit", apperrors.CodeOf(err))
		return nil, err
	}

	s.cache.InvalidateWallet(ctx, owner.AccountID, owner.AccountType)
	s.metrics.RecordTransaction(models.TransactionTypeTopup, input.Amount.String())
	return &outcome, nil
}

func (s *service) Debit(ctx context.Context, input DebitInput) (*PostingOutcome, error) {
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, apperrors.ErrValidation
	}

	var outcome PostingOutcome
	var owner *models.Wallet
	err := s.repo.ExecuteInTransaction(func(tx repositories.LedgerRepository) error {
		wallet, err := tx.LockWallet(input.WalletID)
		if err != nil {
			if errors.Is(err, repositories.ErrWalletNotFound) {
				return apperrors.ErrWalletNotFound
			}
			return err
		}
		owner = wallet

		if wallet.Available.LessThan(input.Amount) {
			return apperrors.ErrInsufficientFunds
		}

		txn := &models.Transaction{
			WalletID:       wallet.ID,
			Type:           models.TransactionTypeWithdrawal,
			Amount:         input.Amount.Neg(),
			Status:         models.TransactionStatusCompleted,
			IdempotencyKey: input.IdempotencyKey,
			Reference:      input.Reference,
			Description:    input.Description,
			Metadata:       input.Metadata,
		}
		if err := tx.CreateTransaction(txn); err != nil {
			return err
		}

		wallet.Available = wallet.Available.Sub(input.Amount)
		if err := tx.UpdateWalletBalances(wallet); err != nil {
			return err
		}

		if err := tx.CreateOutboxEvent(&models.OutboxEvent{
			EventType: models.EventWalletWithdrawn,
			Payload: models.NewJSON(map[string]interface{}{
				"wallet_id": wallet.ID,
				"amount":    input.Amount.String(),
				"reference": input.Reference,
			}),
		}); err != nil {
			return err
		}

		outcome = PostingOutcome{Transaction: txn, Balance: balanceOf(wallet)}
		return nil
	})
	if err != nil {
		s.metrics.RecordError("debit", apperrors.CodeOf(err))
		return nil, err
	}

	s.cache.InvalidateWallet(ctx, owner.AccountID, owner.AccountType)
	s.metrics.RecordTransaction(models.TransactionTypeWithdrawal, input.Amount.String())
	return &outcome, nil
}

func (s *service) ListTransactions(ctx context.Context, walletID uint, limit, offset int) ([]models.Transaction, error) {
	return s.repo.ListTransactions(ctx, walletID, limit, offset)
}

// Helpers

func (s *service) invalidateAll(ctx context.Context, wallets []*models.Wallet) {
	for _, wallet := range wallets {
		s.cache.InvalidateWallet(ctx, wallet.AccountID, wallet.AccountType)
	}
}

func balanceOf(wallet *models.Wallet) Balance {
	return Balance{
		Available: wallet.Available,
		Reserved:  wallet.Reserved,
		Total:     wallet.Total(),
		Currency:  wallet.Currency,
	}
}

// resolveOpenHold maps storage state onto the terminal domain errors: a
// released or expired hold is AlreadySettled, no hold at all is HoldNotFound.
func resolveOpenHold(repo repositories.LedgerRepository, shiftID string) (*models.Hold, error) {
	hold, err := repo.GetOpenHoldByShift(shiftID)
	if err == nil {
		return hold, nil
	}
	if !errors.Is(err, repositories.ErrHoldNotFound) {
		return nil, err
	}
	latest, latestErr := repo.GetLatestHoldByShift(shiftID)
	if latestErr == nil && latest.Status != models.HoldStatusOpen {
		return nil, apperrors.ErrAlreadySettled
	}
	return nil, apperrors.ErrHoldNotFound
}

// lockWallets takes the row locks for the given wallets in ascending ID
// order so concurrent multi-wallet postings cannot deadlock.
func lockWallets(tx repositories.LedgerRepository, ids ...uint) (map[uint]*models.Wallet, error) {
	unique := make([]uint, 0, len(ids))
	seen := make(map[uint]bool, len(ids))
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}
	sort.Slice(unique, func(i, j int) bool { return unique[i] < unique[j] })

	wallets := make(map[uint]*models.Wallet, len(unique))
	for _, id := range unique {
		wallet, err := tx.LockWallet(id)
		if err != nil {
			if errors.Is(err, repositories.ErrWalletNotFound) {
				return nil, apperrors.ErrWalletNotFound
			}
			return nil, err
		}
		wallets[id] = wallet
	}
	return wallets, nil
}

// finalizeReservePayment completes the pending payment posted at reserve
// time. A missing pending row is tolerated: the hold transition above is the
// single point of truth for double releases.
func finalizeReservePayment(tx repositories.LedgerRepository, holdID uint) error {
	pending, err := tx.GetPendingHoldTransaction(holdID)
	if err != nil {
		if errors.Is(err, repositories.ErrTransactionNotFound) {
			return nil
		}
		return err
	}
	return tx.FinalizeTransaction(pending.ID, models.TransactionStatusCompleted)
}
