package models

import "time"

// Idempotency record statuses
const (
	IdempotencyStatusRunning   = "running"
	IdempotencyStatusSucceeded = "succeeded"
	IdempotencyStatusFailed    = "failed"
)

// IdempotencyRecord maps (key, operation) to the stored outcome of a keyed
// operation. The unique index makes claiming a key a single conditional
// insert; retention is bounded by ExpiresAt and a periodic sweep.
type IdempotencyRecord struct {
	ID           uint   `gorm:"primarykey"`
	Key          string `gorm:"not null;uniqueIndex:idx_idempotency_key_op,priority:1"`
	Operation    string `gorm:"not null;uniqueIndex:idx_idempotency_key_op,priority:2"`
	Status       string `gorm:"not null;default:'running'"`
	Result       JSON   `gorm:"type:jsonb"`
	ErrorCode    string
	ErrorMessage string
	ExpiresAt    time.Time `gorm:"index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
