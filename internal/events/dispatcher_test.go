// internal/events/dispatcher_test.go
package events

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/imi-campaigns/internal/models"
	"github.com/javajoker/imi-campaigns/internal/repository/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, eventType, partitionKey string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, eventType)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func TestDispatcherRunsHandlerAndMirrors(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	mirror := &recordingPublisher{}
	d := NewDispatcher(store.Outbox(), DispatcherConfig{MaxRetries: 3}, mirror)

	var got []uuid.UUID
	d.Register(models.EventCampaignMetricsRecompute, func(ctx context.Context, payload []byte) error {
		evt, err := Decode[CampaignMetricsRecompute](payload)
		if err != nil {
			return err
		}
		got = append(got, evt.CampaignID)
		return nil
	})

	campaignID := uuid.New()
	require.NoError(t, RecomputeCampaign(ctx, store.Outbox(), campaignID))

	stats, err := d.ProcessOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Handled)
	assert.Equal(t, []uuid.UUID{campaignID}, got)
	assert.Equal(t, []string{models.EventCampaignMetricsRecompute}, mirror.topics)

	events := store.Events()
	require.Len(t, events, 1)
	assert.NotNil(t, events[0].PublishedAt)

	// nothing left to claim
	stats, err = d.ProcessOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Claimed)
}

func TestDispatcherRetriesThenDeadLetters(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	d := NewDispatcher(store.Outbox(), DispatcherConfig{MaxRetries: 2}, nil)

	calls := 0
	d.Register(models.EventOrderStatusEmail, func(ctx context.Context, payload []byte) error {
		calls++
		return errors.New("smtp unavailable")
	})
	require.NoError(t, EmailOrderStatus(ctx, store.Outbox(), uuid.New(), models.OrderStatusShipped))

	stats, err := d.ProcessOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 0, stats.DeadLettered)

	stats, err = d.ProcessOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.DeadLettered)
	assert.Equal(t, 2, calls)

	events := store.Events()
	require.Len(t, events, 1)
	assert.NotNil(t, events[0].DeadLetteredAt)
	assert.Nil(t, events[0].PublishedAt)
	assert.Equal(t, "smtp unavailable", events[0].LastError)

	require.NoError(t, d.Drain(ctx, 5))
	assert.Equal(t, 2, calls)
}

func TestDispatcherMirrorFailureDoesNotReplayHandler(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	mirror := &recordingPublisher{err: errors.New("broker down")}
	d := NewDispatcher(store.Outbox(), DispatcherConfig{}, mirror)

	calls := 0
	d.Register(models.EventNotificationRequested, func(ctx context.Context, payload []byte) error {
		calls++
		return nil
	})
	require.NoError(t, Notify(ctx, store.Outbox(), NotificationRequested{
		RecipientID:   uuid.New(),
		RecipientType: models.UserTypeBrand,
		Type:          models.NotificationCampaignCompleted,
		Title:         "Campaign completed",
	}))

	require.NoError(t, d.Drain(ctx, 3))
	assert.Equal(t, 1, calls)
	assert.NotNil(t, store.Events()[0].PublishedAt)
}

func TestDispatcherUnknownEventFails(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	d := NewDispatcher(store.Outbox(), DispatcherConfig{MaxRetries: 1}, nil)

	require.NoError(t, Enqueue(ctx, store.Outbox(), "unknown.event", "k", map[string]string{"a": "b"}))
	stats, err := d.ProcessOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.DeadLettered)
}

func TestKafkaPublisherTopic(t *testing.T) {
	p, err := NewKafkaPublisher([]string{"localhost:9092"}, "imi")
	require.NoError(t, err)
	defer p.Close()
	assert.Equal(t, "imi.order.status_email", p.Topic(models.EventOrderStatusEmail))

	_, err = NewKafkaPublisher(nil, "imi")
	assert.Error(t, err)
}
