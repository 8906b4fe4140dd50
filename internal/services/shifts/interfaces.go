package shifts

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Shift is the scheduling view this service needs: who pays, who works, and
// what the booking is worth. Scheduling itself lives in another system.
type Shift struct {
	ID               string          `json:"id"`
	CompanyAccountID uint            `json:"company_account_id"`
	WorkerAccountID  uint            `json:"worker_account_id"`
	HourlyRate       decimal.Decimal `json:"hourly_rate"`
	ScheduledHours   decimal.Decimal `json:"scheduled_hours"`
	ScheduledStart   time.Time       `json:"scheduled_start"`
}

// Cost is the scheduled value of the shift, hours times rate.
func (s *Shift) Cost() decimal.Decimal {
	return s.ScheduledHours.Mul(s.HourlyRate)
}

// Provider resolves shift details from the scheduling system.
type Provider interface {
	GetShift(ctx context.Context, shiftID string) (*Shift, error)
}
