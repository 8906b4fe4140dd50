package idempotency

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	apperrors "shiftpay/internal/errors"
	"shiftpay/internal/models"
	"shiftpay/internal/repositories"
)

// DefaultRetention is how long stored outcomes stay replayable.
const DefaultRetention = 24 * time.Hour

// internalErrorCode marks stored failures that carried no domain code.
const internalErrorCode = "INTERNAL"

type service struct {
	repo      repositories.IdempotencyRepository
	retention time.Duration
	nowFn     func() time.Time
}

// NewService creates a new idempotency guard.
func NewService(repo repositories.IdempotencyRepository, retention time.Duration) Service {
	if repo == nil {
		panic("repo is required")
	}
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &service{
		repo:      repo,
		retention: retention,
		nowFn:     time.Now,
	}
}

func (s *service) RunOnce(ctx context.Context, key, operation string, fn func(ctx context.Context) (interface{}, error)) (models.JSON, bool, error) {
	if key == "" || operation == "" {
		return nil, false, apperrors.ErrValidation
	}

	record := &models.IdempotencyRecord{
		Key:       key,
		Operation: operation,
		Status:    models.IdempotencyStatusRunning,
		ExpiresAt: s.nowFn().Add(s.retention),
	}
	claimed, existing, err := s.repo.Claim(record)
	if err != nil {
		return nil, false, fmt.Errorf("failed to claim idempotency key: %w", err)
	}
	if !claimed {
		return s.replay(existing)
	}

	result, opErr := fn(ctx)
	if opErr != nil {
		code := apperrors.CodeOf(opErr)
		if code == "" {
			code = internalErrorCode
		}
		if err := s.repo.Complete(record.ID, models.IdempotencyStatusFailed, nil, code, opErr.Error()); err != nil {
			return nil, false, fmt.Errorf("failed to record outcome: %w", err)
		}
		return nil, false, opErr
	}

	payload, err := toJSON(result)
	if err != nil {
		return nil, false, err
	}
	if err := s.repo.Complete(record.ID, models.IdempotencyStatusSucceeded, payload, "", ""); err != nil {
		return nil, false, fmt.Errorf("failed to record outcome: %w", err)
	}
	return payload, false, nil
}

// replay returns the stored outcome for a key that was already claimed.
func (s *service) replay(record *models.IdempotencyRecord) (models.JSON, bool, error) {
	switch record.Status {
	case models.IdempotencyStatusRunning:
		return nil, false, apperrors.ErrConflict
	case models.IdempotencyStatusFailed:
		return nil, true, apperrors.FromCode(record.ErrorCode, record.ErrorMessage)
	default:
		return record.Result, true, nil
	}
}

func (s *service) Sweep(ctx context.Context, now time.Time) (int64, error) {
	return s.repo.DeleteExpired(now)
}

func toJSON(v interface{}) (models.JSON, error) {
	if v == nil {
		return models.JSON{}, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	var out models.JSON
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return out, nil
}
