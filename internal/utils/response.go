package utils

import (
	"errors"

	apperrors "shiftpay/internal/errors"

	"github.com/gofiber/fiber/v2"
)

// Respond sends a JSON response with the specified status code.
func Respond(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(data)
}

// Success sends a successful JSON response.
func Success(c *fiber.Ctx, data interface{}) error {
	return Respond(c, fiber.StatusOK, data)
}

// Created sends a JSON response with status 201.
func Created(c *fiber.Ctx, data interface{}) error {
	return Respond(c, fiber.StatusCreated, data)
}

// BadRequest sends a JSON error response with status 400.
func BadRequest(c *fiber.Ctx, message string) error {
	return Respond(c, fiber.StatusBadRequest, fiber.Map{"error": message})
}

// NotFound sends a JSON error response with status 404.
func NotFound(c *fiber.Ctx, message string) error {
	return Respond(c, fiber.StatusNotFound, fiber.Map{"error": message})
}

// Conflict sends a JSON error response with status 409.
func Conflict(c *fiber.Ctx, message string) error {
	return Respond(c, fiber.StatusConflict, fiber.Map{"error": message})
}

// InternalError sends a JSON error response with status 500.
func InternalError(c *fiber.Ctx, message string) error {
	return Respond(c, fiber.StatusInternalServerError, fiber.Map{"error": message})
}

// statusByCode maps domain error codes onto HTTP statuses. Anything outside
// the map is a 500; there is no silent success path.
var statusByCode = map[string]int{
	"VALIDATION_ERROR":   fiber.StatusBadRequest,
	"WALLET_NOT_FOUND":   fiber.StatusNotFound,
	"HOLD_NOT_FOUND":     fiber.StatusNotFound,
	"SHIFT_NOT_FOUND":    fiber.StatusNotFound,
	"INSUFFICIENT_FUNDS": fiber.StatusUnprocessableEntity,
	"ALREADY_RESERVED":   fiber.StatusConflict,
	"ALREADY_SETTLED":    fiber.StatusConflict,
	"CONFLICT":           fiber.StatusConflict,
	"GATEWAY_FAILURE":    fiber.StatusBadGateway,
}

// DomainError sends the JSON form of a typed domain error.
func DomainError(c *fiber.Ctx, err error) error {
	var de *apperrors.DomainError
	if errors.As(err, &de) {
		status, ok := statusByCode[de.Code]
		if !ok {
			status = fiber.StatusInternalServerError
		}
		return Respond(c, status, fiber.Map{"error": de.Message, "code": de.Code})
	}
	return InternalError(c, "internal error")
}
