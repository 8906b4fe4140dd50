// Package notification drains the outbox and fans ledger events out to
// subscribers. Publication is at-least-once; consumers dedupe on event ID.
package notification

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"shiftpay/internal/models"
	"shiftpay/internal/repositories"
)

// Publisher delivers a serialized event to the message fabric.
type Publisher interface {
	PublishEvent(ctx context.Context, payload []byte) error
}

// envelope is the published wire form of an outbox row.
type envelope struct {
	ID        uint        `json:"id"`
	EventType string      `json:"event_type"`
	Payload   models.JSON `json:"payload"`
	CreatedAt time.Time   `json:"created_at"`
}

// Dispatcher polls the outbox and publishes pending events in order.
type Dispatcher struct {
	repo      repositories.OutboxRepository
	publisher Publisher
	interval  time.Duration
	batchSize int
	nowFn     func() time.Time
}

// NewDispatcher creates an outbox dispatcher.
func NewDispatcher(repo repositories.OutboxRepository, publisher Publisher, interval time.Duration) *Dispatcher {
	if interval <= 0 {
		interval = time.Second
	}
	return &Dispatcher{
		repo:      repo,
		publisher: publisher,
		interval:  interval,
		batchSize: 100,
		nowFn:     time.Now,
	}
}

// Run polls until the context is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	log.Println("Outbox dispatcher started")
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Outbox dispatcher stopped")
			return
		case <-ticker.C:
			if _, err := d.Drain(ctx); err != nil {
				log.Printf("Outbox drain failed: %v", err)
			}
		}
	}
}

// Drain publishes one batch of pending events and returns how many went out.
// It stops at the first failure so ordering is preserved across retries.
func (d *Dispatcher) Drain(ctx context.Context) (int, error) {
	events, err := d.repo.ListUnpublished(d.batchSize)
	if err != nil {
		return 0, err
	}

	published := 0
	for _, event := range events {
		raw, err := json.Marshal(envelope{
			ID:        event.ID,
			EventType: event.EventType,
			Payload:   event.Payload,
			CreatedAt: event.CreatedAt,
		})
		if err != nil {
			return published, err
		}
		if err := d.publisher.PublishEvent(ctx, raw); err != nil {
			return published, err
		}
		if err := d.repo.MarkPublished(event.ID, d.nowFn()); err != nil {
			return published, err
		}
		published++
	}
	return published, nil
}
