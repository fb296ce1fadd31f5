// internal/models/campaign.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// DeliverableSpec is one entry of a campaign's deliverable template and the
// editable part of a Deliverable.
type DeliverableSpec struct {
	Platform    string     `json:"platform" validate:"required,max=50"`
	Description string     `json:"description,omitempty"`
	PostCount   int        `json:"post_count" validate:"min=0"`
	ReelCount   int        `json:"reel_count" validate:"min=0"`
	VideoCount  int        `json:"video_count" validate:"min=0"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

type Campaign struct {
	BaseModel
	BrandID             uuid.UUID                            `json:"brand_id" gorm:"type:uuid;not null;index"`
	Title               string                               `json:"title" gorm:"size:255;not null"`
	Description         string                               `json:"description" gorm:"type:text"`
	Status              CampaignStatus                       `json:"status" gorm:"type:varchar(20);default:'draft';index"`
	Budget              decimal.Decimal                      `json:"budget" gorm:"type:decimal(14,3);default:0"`
	CommissionRate      decimal.Decimal                      `json:"commission_rate" gorm:"type:decimal(6,3);default:0"`
	StartDate           *time.Time                           `json:"start_date"`
	EndDate             *time.Time                           `json:"end_date"`
	RequiredChannels    pq.StringArray                       `json:"required_channels" gorm:"type:text[]"`
	MinFollowers        int64                                `json:"min_followers" gorm:"default:0"`
	DeliverableTemplate datatypes.JSONSlice[DeliverableSpec] `json:"deliverable_template" gorm:"type:jsonb"`

	// Sales counters, only ever incremented by checkout
	Revenue         decimal.Decimal `json:"revenue" gorm:"type:decimal(14,3);default:0"`
	CommissionTotal decimal.Decimal `json:"commission_total" gorm:"type:decimal(14,3);default:0"`
	Conversions     int64           `json:"conversions" gorm:"default:0"`

	// Content metrics, recomputed asynchronously
	TotalViews           int64 `json:"total_views" gorm:"default:0"`
	TotalClicks          int64 `json:"total_clicks" gorm:"default:0"`
	ApprovedContentCount int64 `json:"approved_content_count" gorm:"default:0"`

	CompletedAt      *time.Time       `json:"completed_at"`
	CompletionReason CompletionReason `json:"completion_reason,omitempty" gorm:"type:varchar(20)"`

	// Relationships
	Products []Product `json:"products,omitempty" gorm:"foreignKey:CampaignID"`
}
