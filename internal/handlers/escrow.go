package handlers

import (
	"shiftpay/internal/services/escrow"
	"shiftpay/internal/utils"
	"shiftpay/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// HeaderIdempotencyKey carries the client's idempotency key on every
// mutating request.
const HeaderIdempotencyKey = "Idempotency-Key"

// HeaderIdempotentReplay marks a response served from a stored outcome.
const HeaderIdempotentReplay = "Idempotent-Replay"

type EscrowHandler struct {
	escrowService escrow.Service
}

func NewEscrowHandler(escrowService escrow.Service) *EscrowHandler {
	return &EscrowHandler{escrowService: escrowService}
}

// ReserveFunds handles POST /api/escrow/reserve.
func (h *EscrowHandler) ReserveFunds(c *fiber.Ctx) error {
	key := c.Get(HeaderIdempotencyKey)
	if err := validation.ValidateIdempotencyKey(key); err != nil {
		return utils.DomainError(c, err)
	}

	var input struct {
		ShiftID string `json:"shift_id"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}
	if input.ShiftID == "" {
		return utils.BadRequest(c, "shift_id is required")
	}

	result, replayed, err := h.escrowService.ReserveFunds(c.Context(), escrow.ReserveInput{
		ShiftID:        input.ShiftID,
		IdempotencyKey: key,
	})
	if err != nil {
		return utils.DomainError(c, err)
	}
	if replayed {
		c.Set(HeaderIdempotentReplay, "true")
		return utils.Success(c, result)
	}
	return utils.Created(c, result)
}
