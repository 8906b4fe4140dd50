package topup

import (
	"context"
	"errors"
	"fmt"
	"log"

	apperrors "shiftpay/internal/errors"
	"shiftpay/internal/models"
	"shiftpay/internal/repositories"
	"shiftpay/internal/services/gateway"
	"shiftpay/internal/services/idempotency"
	"shiftpay/internal/services/ledger"

	"github.com/shopspring/decimal"
)

type service struct {
	ledger  ledger.Service
	guard   idempotency.Service
	gateway gateway.Gateway
	configs repositories.AutoTopupConfigRepository
	queue   Queue
	trigger Trigger
}

// NewService creates the funding service.
func NewService(ledgerSvc ledger.Service, guard idempotency.Service, gw gateway.Gateway, configs repositories.AutoTopupConfigRepository, queue Queue, trigger Trigger) Service {
	if ledgerSvc == nil || guard == nil || gw == nil || configs == nil {
		panic("ledger, guard, gateway and configs are required")
	}
	if trigger == nil {
		trigger = NoopTrigger{}
	}
	return &service{
		ledger:  ledgerSvc,
		guard:   guard,
		gateway: gw,
		configs: configs,
		queue:   queue,
		trigger: trigger,
	}
}

func (s *service) TopUp(ctx context.Context, input TopupInput) (models.JSON, bool, error) {
	if input.Amount.LessThanOrEqual(decimal.Zero) || input.PaymentMethodID == "" {
		return nil, false, apperrors.ErrValidation
	}

	return s.guard.RunOnce(ctx, input.IdempotencyKey, idempotency.OperationTopup, func(ctx context.Context) (interface{}, error) {
		wallet, err := s.ledger.GetOrCreateWallet(ctx, input.AccountID, input.AccountType)
		if err != nil {
			return nil, err
		}

		// Charge outside any database transaction. The gateway carries the
		// same key, so a crash between charge and credit is retryable
		// without charging twice.
		charge, err := s.gateway.Charge(ctx, gateway.ChargeInput{
			Amount:          input.Amount,
			Currency:        wallet.Currency,
			PaymentMethodID: input.PaymentMethodID,
			IdempotencyKey:  input.IdempotencyKey,
			Description:     fmt.Sprintf("Wallet top-up for %s %d", input.AccountType, input.AccountID),
		})
		if err != nil {
			return nil, err
		}

		outcome, err := s.ledger.Credit(ctx, ledger.CreditInput{
			WalletID:       wallet.ID,
			Amount:         input.Amount,
			Reference:      charge.Reference,
			Description:    "Wallet top-up",
			IdempotencyKey: input.IdempotencyKey,
		})
		if err != nil {
			return nil, err
		}
		return receiptOf(wallet.ID, outcome.Transaction.ID, charge.Reference, outcome.Balance), nil
	})
}

func (s *service) Withdraw(ctx context.Context, input WithdrawInput) (models.JSON, bool, error) {
	if input.Amount.LessThanOrEqual(decimal.Zero) || input.Destination == "" {
		return nil, false, apperrors.ErrValidation
	}

	return s.guard.RunOnce(ctx, input.IdempotencyKey, idempotency.OperationWithdraw, func(ctx context.Context) (interface{}, error) {
		wallet, err := s.ledger.GetWallet(ctx, input.AccountID, input.AccountType)
		if err != nil {
			return nil, err
		}

		// Debit first so the funds cannot be spent while the payout is in
		// flight; a gateway failure posts the compensating credit.
		outcome, err := s.ledger.Debit(ctx, ledger.DebitInput{
			WalletID:       wallet.ID,
			Amount:         input.Amount,
			Description:    "Withdrawal to " + input.Destination,
			IdempotencyKey: input.IdempotencyKey,
		})
		if err != nil {
			return nil, err
		}

		payoutRes, err := s.gateway.Payout(ctx, gateway.PayoutInput{
			Amount:         input.Amount,
			Currency:       wallet.Currency,
			Destination:    input.Destination,
			IdempotencyKey: input.IdempotencyKey,
			Description:    fmt.Sprintf("Withdrawal for %s %d", input.AccountType, input.AccountID),
		})
		if err != nil {
			if _, creditErr := s.ledger.Credit(ctx, ledger.CreditInput{
				WalletID:    wallet.ID,
				Amount:      input.Amount,
				Description: "Withdrawal reversal after payout failure",
			}); creditErr != nil {
				log.Printf("CRITICAL: failed to reverse withdrawal on wallet %d: %v", wallet.ID, creditErr)
			}
			return nil, err
		}

		// Withdrawing spends available funds, so it can push the wallet under
		// its auto top-up threshold.
		s.trigger.AfterDebit(ctx, input.AccountID, input.AccountType, outcome.Balance.Available, outcome.Transaction.ID)

		return receiptOf(wallet.ID, outcome.Transaction.ID, payoutRes.Reference, outcome.Balance), nil
	})
}

func (s *service) GetConfig(ctx context.Context, accountID uint, accountType string) (*models.AutoTopupConfig, error) {
	cfg, err := s.configs.GetByAccount(accountID, accountType)
	if err != nil {
		if errors.Is(err, repositories.ErrConfigNotFound) {
			// Unconfigured accounts read as disabled.
			return &models.AutoTopupConfig{
				AccountID:   accountID,
				AccountType: accountType,
				Enabled:     false,
			}, nil
		}
		return nil, fmt.Errorf("failed to get top-up config: %w", err)
	}
	return cfg, nil
}

func (s *service) SetConfig(ctx context.Context, input ConfigInput) (*models.AutoTopupConfig, error) {
	if input.Enabled {
		if input.Threshold.LessThanOrEqual(decimal.Zero) || input.Amount.LessThanOrEqual(decimal.Zero) || input.PaymentMethodID == "" {
			return nil, apperrors.ErrValidation
		}
	}
	cfg := &models.AutoTopupConfig{
		AccountID:       input.AccountID,
		AccountType:     input.AccountType,
		Enabled:         input.Enabled,
		Threshold:       input.Threshold,
		Amount:          input.Amount,
		PaymentMethodID: input.PaymentMethodID,
	}
	if err := s.configs.Upsert(cfg); err != nil {
		return nil, fmt.Errorf("failed to save top-up config: %w", err)
	}
	return cfg, nil
}
