package repositories

import (
	"errors"
	"fmt"
	"time"

	"shiftpay/internal/models"

	"gorm.io/gorm"
)

type idempotencyRepository struct {
	db *gorm.DB
}

// NewIdempotencyRepository returns a gorm-backed IdempotencyRepository.
func NewIdempotencyRepository(db *gorm.DB) IdempotencyRepository {
	return &idempotencyRepository{db: db}
}

func (r *idempotencyRepository) Claim(record *models.IdempotencyRecord) (bool, *models.IdempotencyRecord, error) {
	if err := r.db.Create(record).Error; err != nil {
		if isUniqueViolation(err) {
			existing, getErr := r.Get(record.Key, record.Operation)
			if getErr != nil {
				return false, nil, getErr
			}
			return false, existing, nil
		}
		return false, nil, fmt.Errorf("failed to claim idempotency key: %w", err)
	}
	return true, nil, nil
}

func (r *idempotencyRepository) Complete(id uint, status string, result models.JSON, errorCode, errorMessage string) error {
	err := r.db.Model(&models.IdempotencyRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        status,
			"result":        result,
			"error_code":    errorCode,
			"error_message": errorMessage,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to complete idempotency record: %w", err)
	}
	return nil
}

func (r *idempotencyRepository) Get(key, operation string) (*models.IdempotencyRecord, error) {
	var record models.IdempotencyRecord
	err := r.db.Where("key = ? AND operation = ?", key, operation).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get idempotency record: %w", err)
	}
	return &record, nil
}

func (r *idempotencyRepository) DeleteExpired(now time.Time) (int64, error) {
	result := r.db.Where("expires_at < ?", now).Delete(&models.IdempotencyRecord{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired idempotency records: %w", result.Error)
	}
	return result.RowsAffected, nil
}
