// internal/models/collaboration.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Collaboration is unique per (campaign, influencer) among non-cancelled rows.
// Progress is derived from its deliverables and never set by clients.
type Collaboration struct {
	BaseModel
	CampaignID       uuid.UUID           `json:"campaign_id" gorm:"type:uuid;not null;index"`
	InfluencerID     uuid.UUID           `json:"influencer_id" gorm:"type:uuid;not null;index"`
	Status           CollaborationStatus `json:"status" gorm:"type:varchar(20);not null;index"`
	Progress         int                 `json:"progress" gorm:"default:0"`
	Message          string              `json:"message,omitempty" gorm:"type:text"`
	Revenue          decimal.Decimal     `json:"revenue" gorm:"type:decimal(14,3);default:0"`
	CommissionEarned decimal.Decimal     `json:"commission_earned" gorm:"type:decimal(14,3);default:0"`
	EngagementRate   float64             `json:"engagement_rate" gorm:"default:0"`
	Reach            int64               `json:"reach" gorm:"default:0"`
	Clicks           int64               `json:"clicks" gorm:"default:0"`
	Conversions      int64               `json:"conversions" gorm:"default:0"`

	// Relationships
	Deliverables []Deliverable `json:"deliverables,omitempty" gorm:"foreignKey:CollaborationID"`
}

// Deliverable is owned by exactly one Collaboration. Status changes go
// through a compare-and-swap on the current status.
type Deliverable struct {
	BaseModel
	CollaborationID uuid.UUID    `json:"collaboration_id" gorm:"type:uuid;not null;uniqueIndex:idx_deliverables_position"`
	Position        int          `json:"position" gorm:"not null;uniqueIndex:idx_deliverables_position"`
	Platform        string       `json:"platform" gorm:"size:50;not null"`
	Description     string       `json:"description" gorm:"type:text"`
	PostCount       int          `json:"post_count" gorm:"default:0"`
	ReelCount       int          `json:"reel_count" gorm:"default:0"`
	VideoCount      int          `json:"video_count" gorm:"default:0"`
	DueDate         *time.Time   `json:"due_date"`
	Status          ReviewStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	ContentURL      string       `json:"content_url,omitempty" gorm:"type:text"`
	SubmittedAt     *time.Time   `json:"submitted_at"`
	ReviewedAt      *time.Time   `json:"reviewed_at"`
	ReviewFeedback  string       `json:"review_feedback,omitempty" gorm:"type:text"`
	Version         int64        `json:"version" gorm:"default:0"`
}

func (d *Deliverable) Spec() DeliverableSpec {
	return DeliverableSpec{
		Platform:    d.Platform,
		Description: d.Description,
		PostCount:   d.PostCount,
		ReelCount:   d.ReelCount,
		VideoCount:  d.VideoCount,
		DueDate:     d.DueDate,
	}
}

func (d *Deliverable) ApplySpec(spec DeliverableSpec) {
	d.Platform = spec.Platform
	d.Description = spec.Description
	d.PostCount = spec.PostCount
	d.ReelCount = spec.ReelCount
	d.VideoCount = spec.VideoCount
	d.DueDate = spec.DueDate
}
