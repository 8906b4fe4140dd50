package topup

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/shopspring/decimal"
)

// Worker drains the auto top-up queue and executes each request through the
// regular top-up path, so queued requests get the same idempotency and
// gateway handling as API calls.
type Worker struct {
	service Service
	queue   Queue
	timeout time.Duration
}

// NewWorker creates a queue worker.
func NewWorker(service Service, queue Queue) *Worker {
	return &Worker{
		service: service,
		queue:   queue,
		timeout: 5 * time.Second,
	}
}

// Run blocks draining the queue until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	log.Println("Auto top-up worker started")
	for {
		select {
		case <-ctx.Done():
			log.Println("Auto top-up worker stopped")
			return
		default:
		}

		payload, err := w.queue.DequeueTopup(ctx, w.timeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("Auto top-up dequeue failed: %v", err)
			time.Sleep(time.Second)
			continue
		}
		if payload == nil {
			continue
		}
		w.process(ctx, payload)
	}
}

func (w *Worker) process(ctx context.Context, payload []byte) {
	var req queuedTopup
	if err := json.Unmarshal(payload, &req); err != nil {
		log.Printf("Dropping malformed auto top-up payload: %v", err)
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		log.Printf("Dropping auto top-up with bad amount %q: %v", req.Amount, err)
		return
	}

	_, replayed, err := w.service.TopUp(ctx, TopupInput{
		AccountID:       req.AccountID,
		AccountType:     req.AccountType,
		Amount:          amount,
		PaymentMethodID: req.PaymentMethodID,
		IdempotencyKey:  req.IdempotencyKey,
	})
	if err != nil {
		log.Printf("Auto top-up failed for %s %d: %v", req.AccountType, req.AccountID, err)
		return
	}
	if !replayed {
		log.Printf("Auto top-up of %s completed for %s %d", req.Amount, req.AccountType, req.AccountID)
	}
}
