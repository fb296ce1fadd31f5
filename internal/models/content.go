// internal/models/content.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Content is a media submission. DeliverableID is a weak reference; the
// review services keep both statuses in step.
type Content struct {
	BaseModel
	CampaignID      uuid.UUID      `json:"campaign_id" gorm:"type:uuid;not null;index"`
	InfluencerID    uuid.UUID      `json:"influencer_id" gorm:"type:uuid;not null;index"`
	CollaborationID *uuid.UUID     `json:"collaboration_id,omitempty" gorm:"type:uuid;index"`
	DeliverableID   *uuid.UUID     `json:"deliverable_id,omitempty" gorm:"type:uuid;index"`
	ProductID       *uuid.UUID     `json:"product_id,omitempty" gorm:"type:uuid;index"`
	Platform        string         `json:"platform" gorm:"size:50"`
	Status          ReviewStatus   `json:"status" gorm:"type:varchar(20);not null;index"`
	MediaURLs       pq.StringArray `json:"media_urls" gorm:"type:text[]"`
	Caption         string         `json:"caption" gorm:"type:text"`
	ExternalPostURL string         `json:"external_post_url,omitempty" gorm:"type:text"`
	ReviewFeedback  string         `json:"review_feedback,omitempty" gorm:"type:text"`
	ReviewedBy      *uuid.UUID     `json:"reviewed_by,omitempty" gorm:"type:uuid"`
	ReviewedAt      *time.Time     `json:"reviewed_at"`
	PublishedAt     *time.Time     `json:"published_at"`
	Views           int64          `json:"views" gorm:"default:0"`
	Clicks          int64          `json:"clicks" gorm:"default:0"`
}
