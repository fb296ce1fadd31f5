// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// BeforeCreate assigns the id client side so it is known before the insert
// returns, which the outbox payloads and compensating deletes rely on.
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Enums
type UserType string

const (
	UserTypeBrand      UserType = "brand"
	UserTypeInfluencer UserType = "influencer"
	UserTypeCustomer   UserType = "customer"
	UserTypeAdmin      UserType = "admin"
)

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
	UserStatusBanned    UserStatus = "banned"
)

type CampaignStatus string

const (
	CampaignStatusDraft            CampaignStatus = "draft"
	CampaignStatusRequest          CampaignStatus = "request"
	CampaignStatusInfluencerInvite CampaignStatus = "influencer-invite"
	CampaignStatusBrandInvite      CampaignStatus = "brand-invite"
	CampaignStatusActive           CampaignStatus = "active"
	CampaignStatusCompleted        CampaignStatus = "completed"
	CampaignStatusCancelled        CampaignStatus = "cancelled"
)

type CompletionReason string

const (
	CompletionReasonSalesTarget CompletionReason = "sales_target"
	CompletionReasonProgress    CompletionReason = "progress"
	CompletionReasonManual      CompletionReason = "manual"
)

type CollaborationStatus string

const (
	CollaborationStatusActive           CollaborationStatus = "active"
	CollaborationStatusCompleted        CollaborationStatus = "completed"
	CollaborationStatusCancelled        CollaborationStatus = "cancelled"
	CollaborationStatusRequest          CollaborationStatus = "request"
	CollaborationStatusBrandInvite      CollaborationStatus = "brand-invite"
	CollaborationStatusInfluencerInvite CollaborationStatus = "influencer-invite"
)

// ReviewStatus is shared by Deliverable and Content. Content never holds
// ReviewStatusPending.
type ReviewStatus string

const (
	ReviewStatusPending   ReviewStatus = "pending"
	ReviewStatusSubmitted ReviewStatus = "submitted"
	ReviewStatusApproved  ReviewStatus = "approved"
	ReviewStatusRejected  ReviewStatus = "rejected"
	ReviewStatusPublished ReviewStatus = "published"
)

type ProductStatus string

const (
	ProductStatusDraft        ProductStatus = "draft"
	ProductStatusActive       ProductStatus = "active"
	ProductStatusInactive     ProductStatus = "inactive"
	ProductStatusOutOfStock   ProductStatus = "out_of_stock"
	ProductStatusDiscontinued ProductStatus = "discontinued"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

type NotificationStatus string

const (
	NotificationStatusUnread NotificationStatus = "unread"
	NotificationStatusRead   NotificationStatus = "read"
)
