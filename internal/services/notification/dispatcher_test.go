package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"shiftpay/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOutboxRepo struct {
	events []models.OutboxEvent
}

func (f *fakeOutboxRepo) ListUnpublished(limit int) ([]models.OutboxEvent, error) {
	var out []models.OutboxEvent
	for _, e := range f.events {
		if e.PublishedAt == nil {
			out = append(out, e)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeOutboxRepo) MarkPublished(id uint, at time.Time) error {
	for i := range f.events {
		if f.events[i].ID == id {
			f.events[i].PublishedAt = &at
			return nil
		}
	}
	return errors.New("event not found")
}

type fakePublisher struct {
	published [][]byte
	failAfter int
}

func (f *fakePublisher) PublishEvent(ctx context.Context, payload []byte) error {
	if f.failAfter > 0 && len(f.published) >= f.failAfter {
		return errors.New("broker unavailable")
	}
	f.published = append(f.published, payload)
	return nil
}

func TestDrain(t *testing.T) {
	t.Run("publishes pending events in order and stamps them", func(t *testing.T) {
		repo := &fakeOutboxRepo{events: []models.OutboxEvent{
			{ID: 1, EventType: models.EventFundsReserved, Payload: models.JSON{"shift_id": "shift-1"}},
			{ID: 2, EventType: models.EventShiftSettled, Payload: models.JSON{"shift_id": "shift-1"}},
		}}
		pub := &fakePublisher{}
		d := NewDispatcher(repo, pub, time.Second)

		published, err := d.Drain(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, published)
		require.Len(t, pub.published, 2)

		var first envelope
		require.NoError(t, json.Unmarshal(pub.published[0], &first))
		assert.Equal(t, models.EventFundsReserved, first.EventType)

		for _, e := range repo.events {
			assert.NotNil(t, e.PublishedAt)
		}
	})

	t.Run("a publish failure stops the batch and leaves the rest pending", func(t *testing.T) {
		repo := &fakeOutboxRepo{events: []models.OutboxEvent{
			{ID: 1, EventType: models.EventFundsReserved},
			{ID: 2, EventType: models.EventShiftSettled},
		}}
		pub := &fakePublisher{failAfter: 1}
		d := NewDispatcher(repo, pub, time.Second)

		published, err := d.Drain(context.Background())
		assert.Error(t, err)
		assert.Equal(t, 1, published)
		assert.Nil(t, repo.events[1].PublishedAt)

		// A later drain retries the stuck event.
		pub.failAfter = 0
		published, err = d.Drain(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, published)
	})

	t.Run("already published events are skipped", func(t *testing.T) {
		now := time.Now()
		repo := &fakeOutboxRepo{events: []models.OutboxEvent{
			{ID: 1, EventType: models.EventFundsReserved, PublishedAt: &now},
		}}
		pub := &fakePublisher{}
		d := NewDispatcher(repo, pub, time.Second)

		published, err := d.Drain(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, published)
	})
}
