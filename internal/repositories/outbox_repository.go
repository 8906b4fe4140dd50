package repositories

import (
	"fmt"
	"time"

	"shiftpay/internal/models"

	"gorm.io/gorm"
)

// OutboxRepository drains domain events committed alongside ledger writes.
type OutboxRepository interface {
	ListUnpublished(limit int) ([]models.OutboxEvent, error)
	MarkPublished(id uint, at time.Time) error
}

type outboxRepository struct {
	db *gorm.DB
}

// NewOutboxRepository returns a gorm-backed OutboxRepository.
func NewOutboxRepository(db *gorm.DB) OutboxRepository {
	return &outboxRepository{db: db}
}

func (r *outboxRepository) ListUnpublished(limit int) ([]models.OutboxEvent, error) {
	var events []models.OutboxEvent
	err := r.db.
		Where("published_at IS NULL").
		Order("id ASC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list unpublished events: %w", err)
	}
	return events, nil
}

func (r *outboxRepository) MarkPublished(id uint, at time.Time) error {
	err := r.db.Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Update("published_at", at).Error
	if err != nil {
		return fmt.Errorf("failed to mark event published: %w", err)
	}
	return nil
}
