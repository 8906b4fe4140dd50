package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	apperrors "shiftpay/internal/errors"
	"shiftpay/internal/models"
	"shiftpay/internal/services/escrow"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type escrowStub struct {
	result   models.JSON
	replayed bool
	err      error
	lastKey  string
}

func (s *escrowStub) ReserveFunds(ctx context.Context, input escrow.ReserveInput) (models.JSON, bool, error) {
	s.lastKey = input.IdempotencyKey
	if s.err != nil {
		return nil, false, s.err
	}
	return s.result, s.replayed, nil
}

func newApp(stub *escrowStub) *fiber.App {
	app := fiber.New()
	h := NewEscrowHandler(stub)
	app.Post("/api/escrow/reserve", h.ReserveFunds)
	return app
}

func TestReserveFundsHandler(t *testing.T) {
	post := func(t *testing.T, app *fiber.App, body, key string) (int, map[string]interface{}, string) {
		t.Helper()
		req := httptest.NewRequest("POST", "/api/escrow/reserve", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		if key != "" {
			req.Header.Set(HeaderIdempotencyKey, key)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		var decoded map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
		return resp.StatusCode, decoded, resp.Header.Get(HeaderIdempotentReplay)
	}

	t.Run("fresh reservation returns 201", func(t *testing.T) {
		stub := &escrowStub{result: models.JSON{"hold_id": float64(7), "amount": "120"}}
		status, body, replayHeader := post(t, newApp(stub), `{"shift_id":"shift-1"}`, "reserve-1")

		assert.Equal(t, fiber.StatusCreated, status)
		assert.Equal(t, "120", body["amount"])
		assert.Equal(t, "reserve-1", stub.lastKey)
		assert.Empty(t, replayHeader)
	})

	t.Run("replayed reservation returns 200 with the replay header", func(t *testing.T) {
		stub := &escrowStub{result: models.JSON{"hold_id": float64(7)}, replayed: true}
		status, _, replayHeader := post(t, newApp(stub), `{"shift_id":"shift-1"}`, "reserve-1")

		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, "true", replayHeader)
	})

	t.Run("missing idempotency key is a 400", func(t *testing.T) {
		stub := &escrowStub{}
		status, body, _ := post(t, newApp(stub), `{"shift_id":"shift-1"}`, "")

		assert.Equal(t, fiber.StatusBadRequest, status)
		assert.Equal(t, "VALIDATION_ERROR", body["code"])
	})

	t.Run("missing shift id is a 400", func(t *testing.T) {
		status, _, _ := post(t, newApp(&escrowStub{}), `{}`, "reserve-1")
		assert.Equal(t, fiber.StatusBadRequest, status)
	})

	t.Run("domain errors map onto their statuses", func(t *testing.T) {
		cases := []struct {
			err    error
			status int
		}{
			{apperrors.ErrInsufficientFunds, fiber.StatusUnprocessableEntity},
			{apperrors.ErrAlreadyReserved, fiber.StatusConflict},
			{apperrors.ErrConflict, fiber.StatusConflict},
			{apperrors.ErrShiftNotFound, fiber.StatusNotFound},
			{apperrors.ErrGatewayFailure, fiber.StatusBadGateway},
		}
		for _, tc := range cases {
			stub := &escrowStub{err: tc.err}
			status, body, _ := post(t, newApp(stub), `{"shift_id":"shift-1"}`, "reserve-1")
			assert.Equal(t, tc.status, status, "for %v", tc.err)
			assert.NotEmpty(t, body["code"])
		}
	})
}
