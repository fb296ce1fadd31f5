// internal/repository/repository.go
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/javajoker/imi-campaigns/internal/models"
)

// Store groups the repositories. Everything run inside WithTx commits or
// rolls back together.
type Store interface {
	Users() UserRepository
	Campaigns() CampaignRepository
	Collaborations() CollaborationRepository
	Deliverables() DeliverableRepository
	Contents() ContentRepository
	Products() ProductRepository
	Orders() OrderRepository
	Notifications() NotificationRepository
	Outbox() OutboxRepository
	Audit() AuditRepository

	WithTx(ctx context.Context, fn func(tx Store) error) error
}

type Page struct {
	Limit  int
	Offset int
}

// UserProfileUpdate lists the profile fields a user may change. Nil
// fields are left untouched.
type UserProfileUpdate struct {
	Username      *string
	FollowerCount *int64
	Channels      []string
	ProfileData   models.JSONB
}

type UserRepository interface {
	// Create fails with ErrDuplicate on a taken username, email or
	// referral code.
	Create(ctx context.Context, user *models.User) error
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByReferralCode(ctx context.Context, code string) (*models.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, update UserProfileUpdate) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type CampaignMetrics struct {
	TotalViews           int64
	TotalClicks          int64
	ApprovedContentCount int64
}

type CampaignRepository interface {
	Create(ctx context.Context, campaign *models.Campaign) error
	Get(ctx context.Context, id uuid.UUID) (*models.Campaign, error)
	ListByStatus(ctx context.Context, status models.CampaignStatus, brandID *uuid.UUID) ([]models.Campaign, error)
	// TransitionStatus moves the campaign only while its status is one of
	// from. Reaching completed stamps completed_at and the reason.
	TransitionStatus(ctx context.Context, id uuid.UUID, from []models.CampaignStatus, to models.CampaignStatus, reason models.CompletionReason, at time.Time) (bool, error)
	AddSales(ctx context.Context, id uuid.UUID, revenue, commission decimal.Decimal, conversions int64) error
	UpdateMetrics(ctx context.Context, id uuid.UUID, metrics CampaignMetrics) error
}

type CollaborationSales struct {
	CampaignID   uuid.UUID
	InfluencerID uuid.UUID
	Revenue      decimal.Decimal
	Commission   decimal.Decimal
	Conversions  int64
}

type CollaborationRepository interface {
	// Create fails with ErrDuplicate when a non-cancelled collaboration
	// exists for the same campaign and influencer.
	Create(ctx context.Context, collab *models.Collaboration) error
	Get(ctx context.Context, id uuid.UUID) (*models.Collaboration, error)
	// GetForUpdate locks the row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Collaboration, error)
	FindOpen(ctx context.Context, campaignID, influencerID uuid.UUID) (*models.Collaboration, error)
	ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]models.Collaboration, error)
	CountByInfluencer(ctx context.Context, influencerID uuid.UUID, statuses []models.CollaborationStatus) (int64, error)
	CountByCampaign(ctx context.Context, campaignID uuid.UUID, statuses []models.CollaborationStatus) (int64, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to models.CollaborationStatus) (bool, error)
	SetProgress(ctx context.Context, id uuid.UUID, progress int) error
	// AddSales increments the counters of the open collaboration for the
	// pair, creating an active one when none exists.
	AddSales(ctx context.Context, sales CollaborationSales) error
	DeleteByInfluencer(ctx context.Context, influencerID uuid.UUID) ([]uuid.UUID, error)
}

// DeliverableUpdate carries the fields written together with a status
// change. Nil pointers leave the column untouched.
type DeliverableUpdate struct {
	Status         models.ReviewStatus
	ContentURL     *string
	SubmittedAt    *time.Time
	ReviewedAt     *time.Time
	ReviewFeedback *string
}

type DeliverableRepository interface {
	// CreateBatch fails with ErrDuplicate if any position is taken.
	CreateBatch(ctx context.Context, deliverables []models.Deliverable) error
	ListByCollaboration(ctx context.Context, collaborationID uuid.UUID) ([]models.Deliverable, error)
	Get(ctx context.Context, collaborationID, id uuid.UUID) (*models.Deliverable, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Deliverable, error)
	// CompareAndSwap applies update only if the current status is expected.
	CompareAndSwap(ctx context.Context, id uuid.UUID, expected models.ReviewStatus, update DeliverableUpdate) (bool, error)
	UpdateSpec(ctx context.Context, id uuid.UUID, version int64, spec models.DeliverableSpec) (bool, error)
	DeletePending(ctx context.Context, id uuid.UUID) (bool, error)
	DeleteByCollaborations(ctx context.Context, collaborationIDs []uuid.UUID) error
}

type ContentUpdate struct {
	Status          models.ReviewStatus
	ReviewFeedback  *string
	ReviewedBy      *uuid.UUID
	ReviewedAt      *time.Time
	PublishedAt     *time.Time
	ExternalPostURL *string
}

type ContentStats struct {
	Views    int64
	Clicks   int64
	Approved int64
}

type ContentRepository interface {
	Create(ctx context.Context, content *models.Content) error
	Get(ctx context.Context, id uuid.UUID) (*models.Content, error)
	ListByCampaign(ctx context.Context, campaignID uuid.UUID, influencerID *uuid.UUID) ([]models.Content, error)
	CompareAndSwap(ctx context.Context, id uuid.UUID, expected models.ReviewStatus, update ContentUpdate) (bool, error)
	AddPerformance(ctx context.Context, id uuid.UUID, views, clicks int64) error
	// CampaignStats counts approved and published content as approved.
	CampaignStats(ctx context.Context, campaignID uuid.UUID) (ContentStats, error)
}

type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]models.Product, error)
	// ReserveStock takes quantity units from an active product with a
	// conditional update and returns the updated row. It fails with
	// ErrInsufficientStock when fewer units are available.
	ReserveStock(ctx context.Context, id uuid.UUID, quantity int64) (*models.Product, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from []models.ProductStatus, to models.ProductStatus) (bool, error)
	// CountOpenByCampaign counts products that are not inactive, out of
	// stock or discontinued.
	CountOpenByCampaign(ctx context.Context, campaignID uuid.UUID) (int64, error)
}

type OrderRepository interface {
	// Create stores the order with its items and status history.
	Create(ctx context.Context, order *models.Order) error
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	// TransitionStatus appends event when the order moved from from to
	// event.Status.
	TransitionStatus(ctx context.Context, id uuid.UUID, from models.OrderStatus, event models.OrderStatusEvent) (bool, error)
	SetPaymentReference(ctx context.Context, id uuid.UUID, reference string) error
	DeliveredQuantity(ctx context.Context, productID uuid.UUID) (int64, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListByRecipient(ctx context.Context, recipientID uuid.UUID, page Page) ([]models.Notification, int64, error)
}

type OutboxRepository interface {
	Enqueue(ctx context.Context, event *models.OutboxEvent) error
	ClaimUnpublished(ctx context.Context, limit int, claimToken uuid.UUID, claimUntil time.Time) ([]models.OutboxEvent, error)
	MarkPublished(ctx context.Context, id, claimToken uuid.UUID, at time.Time) error
	MarkFailed(ctx context.Context, id, claimToken uuid.UUID, errMsg string) error
	MarkDeadLettered(ctx context.Context, id, claimToken uuid.UUID, errMsg string, at time.Time) error
}

type AuditRepository interface {
	Create(ctx context.Context, log *models.AuditLog) error
}
