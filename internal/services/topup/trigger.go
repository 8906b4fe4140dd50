package topup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"shiftpay/internal/repositories"

	"github.com/shopspring/decimal"
)

// trigger enqueues an automatic top-up after a debit drops a wallet below
// its configured threshold. The key is derived from the triggering
// transaction, so the same debit can never enqueue twice while distinct
// debits below the threshold each get their own top-up.
type trigger struct {
	configs repositories.AutoTopupConfigRepository
	queue   Queue
}

// NewTrigger creates the auto top-up trigger.
func NewTrigger(configs repositories.AutoTopupConfigRepository, queue Queue) Trigger {
	return &trigger{configs: configs, queue: queue}
}

func (t *trigger) AfterDebit(ctx context.Context, accountID uint, accountType string, available decimal.Decimal, triggerTxnID uint) {
	cfg, err := t.configs.GetByAccount(accountID, accountType)
	if err != nil {
		if !errors.Is(err, repositories.ErrConfigNotFound) {
			log.Printf("Auto top-up config lookup failed for %s %d: %v", accountType, accountID, err)
		}
		return
	}
	if !cfg.Enabled || available.GreaterThanOrEqual(cfg.Threshold) {
		return
	}

	payload, err := json.Marshal(queuedTopup{
		AccountID:       accountID,
		AccountType:     accountType,
		Amount:          cfg.Amount.String(),
		PaymentMethodID: cfg.PaymentMethodID,
		IdempotencyKey:  fmt.Sprintf("auto-topup-txn-%d", triggerTxnID),
	})
	if err != nil {
		log.Printf("Failed to encode auto top-up for %s %d: %v", accountType, accountID, err)
		return
	}
	if err := t.queue.EnqueueTopup(ctx, payload); err != nil {
		log.Printf("Failed to enqueue auto top-up for %s %d: %v", accountType, accountID, err)
	}
}

// NoopTrigger satisfies Trigger without doing anything. Used where auto
// top-up is disabled.
type NoopTrigger struct{}

func (NoopTrigger) AfterDebit(context.Context, uint, string, decimal.Decimal, uint) {}
