// internal/events/events.go
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/javajoker/imi-campaigns/internal/models"
	"github.com/javajoker/imi-campaigns/internal/repository"
)

// Handler consumes one event payload. Delivery is at least once.
type Handler func(ctx context.Context, payload []byte) error

// Publisher mirrors events to an external broker.
type Publisher interface {
	Publish(ctx context.Context, eventType, partitionKey string, payload []byte) error
	Close() error
}

type NotificationRequested struct {
	RecipientID   uuid.UUID              `json:"recipient_id"`
	RecipientType models.UserType        `json:"recipient_type"`
	Type          string                 `json:"type"`
	Title         string                 `json:"title"`
	Body          string                 `json:"body"`
	RelatedID     *uuid.UUID             `json:"related_id,omitempty"`
	Data          map[string]interface{} `json:"data,omitempty"`
}

type OrderStatusEmail struct {
	OrderID uuid.UUID          `json:"order_id"`
	Status  models.OrderStatus `json:"status"`
}

type CampaignMetricsRecompute struct {
	CampaignID uuid.UUID `json:"campaign_id"`
}

// Enqueue writes an event to the outbox. Pass the outbox of the running
// transaction so the event commits with the change it describes.
func Enqueue(ctx context.Context, outbox repository.OutboxRepository, eventType, partitionKey string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", eventType, err)
	}
	return outbox.Enqueue(ctx, &models.OutboxEvent{
		EventType:    eventType,
		PartitionKey: partitionKey,
		Payload:      body,
	})
}

func Notify(ctx context.Context, outbox repository.OutboxRepository, n NotificationRequested) error {
	return Enqueue(ctx, outbox, models.EventNotificationRequested, n.RecipientID.String(), n)
}

func RecomputeCampaign(ctx context.Context, outbox repository.OutboxRepository, campaignID uuid.UUID) error {
	return Enqueue(ctx, outbox, models.EventCampaignMetricsRecompute, campaignID.String(), CampaignMetricsRecompute{CampaignID: campaignID})
}

func EmailOrderStatus(ctx context.Context, outbox repository.OutboxRepository, orderID uuid.UUID, status models.OrderStatus) error {
	return Enqueue(ctx, outbox, models.EventOrderStatusEmail, orderID.String(), OrderStatusEmail{OrderID: orderID, Status: status})
}

// Decode is a small helper for handlers.
func Decode[T any](payload []byte) (T, error) {
	var v T
	if err := json.Unmarshal(payload, &v); err != nil {
		return v, fmt.Errorf("failed to decode event payload: %w", err)
	}
	return v, nil
}
