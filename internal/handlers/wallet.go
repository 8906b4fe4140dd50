package handlers

import (
	"strconv"

	apperrors "shiftpay/internal/errors"
	"shiftpay/internal/services/ledger"
	"shiftpay/internal/services/topup"
	"shiftpay/internal/utils"
	"shiftpay/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type WalletHandler struct {
	ledgerService  ledger.Service
	fundingService topup.Service
}

func NewWalletHandler(ledgerService ledger.Service, fundingService topup.Service) *WalletHandler {
	return &WalletHandler{
		ledgerService:  ledgerService,
		fundingService: fundingService,
	}
}

func accountParams(c *fiber.Ctx) (uint, string, error) {
	accountType := c.Params("accountType")
	if err := validation.ValidateAccountType(accountType); err != nil {
		return 0, "", err
	}
	accountID, err := strconv.ParseUint(c.Params("accountID"), 10, 32)
	if err != nil {
		return 0, "", apperrors.ErrValidation
	}
	return uint(accountID), accountType, nil
}

// GetBalance handles GET /api/wallets/:accountType/:accountID/balance.
func (h *WalletHandler) GetBalance(c *fiber.Ctx) error {
	accountID, accountType, err := accountParams(c)
	if err != nil {
		return utils.DomainError(c, err)
	}

	wallet, err := h.ledgerService.GetWallet(c.Context(), accountID, accountType)
	if err != nil {
		return utils.DomainError(c, err)
	}
	return utils.Success(c, fiber.Map{
		"wallet_id": wallet.ID,
		"available": wallet.Available.String(),
		"reserved":  wallet.Reserved.String(),
		"total":     wallet.Total().String(),
		"currency":  wallet.Currency,
	})
}

// ListTransactions handles GET /api/wallets/:accountType/:accountID/transactions.
func (h *WalletHandler) ListTransactions(c *fiber.Ctx) error {
	accountID, accountType, err := accountParams(c)
	if err != nil {
		return utils.DomainError(c, err)
	}
	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	wallet, err := h.ledgerService.GetWallet(c.Context(), accountID, accountType)
	if err != nil {
		return utils.DomainError(c, err)
	}
	txns, err := h.ledgerService.ListTransactions(c.Context(), wallet.ID, limit, offset)
	if err != nil {
		return utils.DomainError(c, err)
	}
	return utils.Success(c, fiber.Map{
		"wallet_id":    wallet.ID,
		"transactions": txns,
		"limit":        limit,
		"offset":       offset,
	})
}

// TopUp handles POST /api/wallet/topup.
func (h *WalletHandler) TopUp(c *fiber.Ctx) error {
	key := c.Get(HeaderIdempotencyKey)
	if err := validation.ValidateIdempotencyKey(key); err != nil {
		return utils.DomainError(c, err)
	}

	var input struct {
		AccountID       uint   `json:"account_id"`
		AccountType     string `json:"account_type"`
		Amount          string `json:"amount"`
		PaymentMethodID string `json:"payment_method_id"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}
	if err := validation.ValidateAccountType(input.AccountType); err != nil {
		return utils.DomainError(c, err)
	}
	amount, err := validation.ParseAmount(input.Amount)
	if err != nil {
		return utils.DomainError(c, err)
	}
	if input.PaymentMethodID == "" {
		return utils.BadRequest(c, "payment_method_id is required")
	}

	result, replayed, err := h.fundingService.TopUp(c.Context(), topup.TopupInput{
		AccountID:       input.AccountID,
		AccountType:     input.AccountType,
		Amount:          amount,
		PaymentMethodID: input.PaymentMethodID,
		IdempotencyKey:  key,
	})
	if err != nil {
		return utils.DomainError(c, err)
	}
	if replayed {
		c.Set(HeaderIdempotentReplay, "true")
	}
	return utils.Success(c, result)
}

// Withdraw handles POST /api/wallet/withdraw.
func (h *WalletHandler) Withdraw(c *fiber.Ctx) error {
	key := c.Get(HeaderIdempotencyKey)
	if err := validation.ValidateIdempotencyKey(key); err != nil {
		return utils.DomainError(c, err)
	}

	var input struct {
		AccountID   uint   `json:"account_id"`
		AccountType string `json:"account_type"`
		Amount      string `json:"amount"`
		Destination string `json:"destination"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}
	if err := validation.ValidateAccountType(input.AccountType); err != nil {
		return utils.DomainError(c, err)
	}
	amount, err := validation.ParseAmount(input.Amount)
	if err != nil {
		return utils.DomainError(c, err)
	}
	if input.Destination == "" {
		return utils.BadRequest(c, "destination is required")
	}

	result, replayed, err := h.fundingService.Withdraw(c.Context(), topup.WithdrawInput{
		AccountID:      input.AccountID,
		AccountType:    input.AccountType,
		Amount:         amount,
		Destination:    input.Destination,
		IdempotencyKey: key,
	})
	if err != nil {
		return utils.DomainError(c, err)
	}
	if replayed {
		c.Set(HeaderIdempotentReplay, "true")
	}
	return utils.Success(c, result)
}

// GetTopupConfig handles GET /api/wallets/:accountType/:accountID/topup-config.
func (h *WalletHandler) GetTopupConfig(c *fiber.Ctx) error {
	accountID, accountType, err := accountParams(c)
	if err != nil {
		return utils.DomainError(c, err)
	}

	cfg, err := h.fundingService.GetConfig(c.Context(), accountID, accountType)
	if err != nil {
		return utils.DomainError(c, err)
	}
	return utils.Success(c, fiber.Map{
		"enabled":           cfg.Enabled,
		"threshold":         cfg.Threshold.String(),
		"amount":            cfg.Amount.String(),
		"payment_method_id": cfg.PaymentMethodID,
	})
}

// SetTopupConfig handles PUT /api/wallets/:accountType/:accountID/topup-config.
func (h *WalletHandler) SetTopupConfig(c *fiber.Ctx) error {
	accountID, accountType, err := accountParams(c)
	if err != nil {
		return utils.DomainError(c, err)
	}

	var input struct {
		Enabled         bool   `json:"enabled"`
		Threshold       string `json:"threshold"`
		Amount          string `json:"amount"`
		PaymentMethodID string `json:"payment_method_id"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}

	cfgInput := topup.ConfigInput{
		AccountID:       accountID,
		AccountType:     accountType,
		Enabled:         input.Enabled,
		PaymentMethodID: input.PaymentMethodID,
	}
	if input.Enabled {
		threshold, err := validation.ParseAmount(input.Threshold)
		if err != nil {
			return utils.DomainError(c, err)
		}
		amount, err := validation.ParseAmount(input.Amount)
		if err != nil {
			return utils.DomainError(c, err)
		}
		cfgInput.Threshold = threshold
		cfgInput.Amount = amount
	}

	cfg, err := h.fundingService.SetConfig(c.Context(), cfgInput)
	if err != nil {
		return utils.DomainError(c, err)
	}
	return utils.Success(c, fiber.Map{
		"enabled":           cfg.Enabled,
		"threshold":         cfg.Threshold.String(),
		"amount":            cfg.Amount.String(),
		"payment_method_id": cfg.PaymentMethodID,
	})
}
