package handlers

import (
	"shiftpay/internal/services/cancellation"
	"shiftpay/internal/services/settlement"
	"shiftpay/internal/utils"
	"shiftpay/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type ShiftHandler struct {
	settlementService   settlement.Service
	cancellationService cancellation.Service
}

func NewShiftHandler(settlementService settlement.Service, cancellationService cancellation.Service) *ShiftHandler {
	return &ShiftHandler{
		settlementService:   settlementService,
		cancellationService: cancellationService,
	}
}

// SettleShift handles POST /api/shifts/settle.
func (h *ShiftHandler) SettleShift(c *fiber.Ctx) error {
	key := c.Get(HeaderIdempotencyKey)
	if err := validation.ValidateIdempotencyKey(key); err != nil {
		return utils.DomainError(c, err)
	}

	var input struct {
		ShiftID     string `json:"shift_id"`
		ActualHours string `json:"actual_hours"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}
	if input.ShiftID == "" {
		return utils.BadRequest(c, "shift_id is required")
	}
	hours, err := validation.ParseHours(input.ActualHours)
	if err != nil {
		return utils.DomainError(c, err)
	}

	result, replayed, err := h.settlementService.SettleShift(c.Context(), settlement.SettleInput{
		ShiftID:        input.ShiftID,
		ActualHours:    hours,
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

// CancelShift handles POST /api/shifts/cancel.
func (h *ShiftHandler) CancelShift(c *fiber.Ctx) error {
	key := c.Get(HeaderIdempotencyKey)
	if err := validation.ValidateIdempotencyKey(key); err != nil {
		return utils.DomainError(c, err)
	}

	var input struct {
		ShiftID     string `json:"shift_id"`
		CancelledBy string `json:"cancelled_by"`
		Reason      string `json:"reason"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}
	if input.ShiftID == "" {
		return utils.BadRequest(c, "shift_id is required")
	}
	if input.CancelledBy == "" {
		return utils.BadRequest(c, "cancelled_by is required")
	}

	result, replayed, err := h.cancellationService.CancelShift(c.Context(), cancellation.CancelInput{
		ShiftID:        input.ShiftID,
		CancelledBy:    input.CancelledBy,
		Reason:         input.Reason,
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
