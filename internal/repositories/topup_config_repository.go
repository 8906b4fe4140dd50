package repositories

import (
	"errors"
	"fmt"

	"shiftpay/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AutoTopupConfigRepository stores per-account auto top-up settings.
type AutoTopupConfigRepository interface {
	GetByAccount(accountID uint, accountType string) (*models.AutoTopupConfig, error)
	Upsert(config *models.AutoTopupConfig) error
}

type autoTopupConfigRepository struct {
	db *gorm.DB
}

// NewAutoTopupConfigRepository returns a gorm-backed AutoTopupConfigRepository.
func NewAutoTopupConfigRepository(db *gorm.DB) AutoTopupConfigRepository {
	return &autoTopupConfigRepository{db: db}
}

func (r *autoTopupConfigRepository) GetByAccount(accountID uint, accountType string) (*models.AutoTopupConfig, error) {
	var config models.AutoTopupConfig
	err := r.db.Where("account_id = ? AND account_type = ?", accountID, accountType).First(&config).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to get auto top-up config: %w", err)
	}
	return &config, nil
}

func (r *autoTopupConfigRepository) Upsert(config *models.AutoTopupConfig) error {
	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "account_id"}, {Name: "account_type"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"enabled", "threshold", "amount", "payment_method_id", "updated_at",
		}),
	}).Create(config).Error
	if err != nil {
		return fmt.Errorf("failed to upsert auto top-up config: %w", err)
	}
	return nil
}
