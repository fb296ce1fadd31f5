// internal/models/outbox.go
package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// OutboxEvent is written in the same transaction as the state change it
// describes and delivered later by the dispatcher.
type OutboxEvent struct {
	ID             uuid.UUID       `json:"id" gorm:"type:uuid;primary_key"`
	EventType      string          `json:"event_type" gorm:"size:100;not null;index"`
	PartitionKey   string          `json:"partition_key" gorm:"size:100"`
	Payload        json.RawMessage `json:"payload" gorm:"type:jsonb;not null"`
	RetryCount     int             `json:"retry_count" gorm:"default:0"`
	LastError      string          `json:"last_error,omitempty" gorm:"type:text"`
	ClaimToken     *uuid.UUID      `json:"-" gorm:"type:uuid"`
	ClaimUntil     *time.Time      `json:"-"`
	PublishedAt    *time.Time      `json:"published_at" gorm:"index"`
	DeadLetteredAt *time.Time      `json:"dead_lettered_at"`
	CreatedAt      time.Time       `json:"created_at" gorm:"index"`
}

func (OutboxEvent) TableName() string {
	return "outbox_events"
}

// Event types
const (
	EventNotificationRequested    = "notification.requested"
	EventOrderStatusEmail         = "order.status_email"
	EventCampaignMetricsRecompute = "campaign.metrics_recompute"
)
