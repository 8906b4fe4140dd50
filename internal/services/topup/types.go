package topup

import (
	"shiftpay/internal/services/ledger"

	"github.com/shopspring/decimal"
)

// TopupInput funds a wallet from an external payment method.
type TopupInput struct {
	AccountID       uint
	AccountType     string
	Amount          decimal.Decimal
	PaymentMethodID string
	IdempotencyKey  string
}

// WithdrawInput moves available funds out to an external destination.
type WithdrawInput struct {
	AccountID      uint
	AccountType    string
	Amount         decimal.Decimal
	Destination    string
	IdempotencyKey string
}

// ConfigInput sets an account's auto top-up rule.
type ConfigInput struct {
	AccountID       uint
	AccountType     string
	Enabled         bool
	Threshold       decimal.Decimal
	Amount          decimal.Decimal
	PaymentMethodID string
}

// Receipt is the stored, replayable outcome of a funding operation.
type Receipt struct {
	WalletID      uint   `json:"wallet_id"`
	TransactionID uint   `json:"transaction_id"`
	Reference     string `json:"reference"`
	Available     string `json:"available"`
	Reserved      string `json:"reserved"`
	Total         string `json:"total"`
	Currency      string `json:"currency"`
}

func receiptOf(walletID uint, txnID uint, reference string, balance ledger.Balance) Receipt {
	return Receipt{
		WalletID:      walletID,
		TransactionID: txnID,
		Reference:     reference,
		Available:     balance.Available.String(),
		Reserved:      balance.Reserved.String(),
		Total:         balance.Total.String(),
		Currency:      balance.Currency,
	}
}

// queuedTopup is the payload pushed onto the auto top-up queue.
type queuedTopup struct {
	AccountID       uint   `json:"account_id"`
	AccountType     string `json:"account_type"`
	Amount          string `json:"amount"`
	PaymentMethodID string `json:"payment_method_id"`
	IdempotencyKey  string `json:"idempotency_key"`
}
