// internal/models/notification.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type Notification struct {
	BaseModel
	RecipientID   uuid.UUID          `json:"recipient_id" gorm:"type:uuid;not null;index"`
	RecipientType UserType           `json:"recipient_type" gorm:"type:varchar(20);not null"`
	Type          string             `json:"type" gorm:"type:varchar(50);not null;index"`
	Title         string             `json:"title" gorm:"size:255;not null"`
	Body          string             `json:"body" gorm:"type:text"`
	RelatedID     *uuid.UUID         `json:"related_id,omitempty" gorm:"type:uuid"`
	Data          JSONB              `json:"data,omitempty" gorm:"type:jsonb"`
	Status        NotificationStatus `json:"status" gorm:"type:varchar(20);default:'unread';index"`
	ReadAt        *time.Time         `json:"read_at"`
}

// Notification types
const (
	NotificationContentSubmitted   = "content_submitted"
	NotificationContentReviewed    = "content_reviewed"
	NotificationContentPublished   = "content_published"
	NotificationCollaborationNew   = "collaboration_new"
	NotificationCollaborationReply = "collaboration_reply"
	NotificationCampaignCompleted  = "campaign_completed"
	NotificationOrderAttributed    = "order_attributed"
)
