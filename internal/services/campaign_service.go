// internal/services/campaign_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/imi-campaigns/internal/events"
	"github.com/javajoker/imi-campaigns/internal/lifecycle"
	"github.com/javajoker/imi-campaigns/internal/models"
	"github.com/javajoker/imi-campaigns/internal/pricing"
	"github.com/javajoker/imi-campaigns/internal/repository"
	"github.com/javajoker/imi-campaigns/internal/utils"
)

type CampaignService struct {
	store repository.Store
}

type CreateCampaignRequest struct {
	Title               string                   `json:"title" validate:"required,min=3,max=255"`
	Description         string                   `json:"description" validate:"max=5000"`
	Budget              decimal.Decimal          `json:"budget" validate:"gte=0"`
	CommissionRate      decimal.Decimal          `json:"commission_rate" validate:"gte=0,lte=100"`
	StartDate           *time.Time               `json:"start_date,omitempty"`
	EndDate             *time.Time               `json:"end_date,omitempty"`
	RequiredChannels    []string                 `json:"required_channels,omitempty" validate:"dive,platform"`
	MinFollowers        int64                    `json:"min_followers" validate:"min=0"`
	DeliverableTemplate []models.DeliverableSpec `json:"deliverable_template,omitempty" validate:"max=50,dive"`
}

type UpdateCampaignStatusRequest struct {
	Status models.CampaignStatus `json:"status" validate:"required"`
}

// CompletionResult lists what a completion run changed.
type CompletionResult struct {
	DeactivatedProducts []uuid.UUID `json:"deactivated_products"`
	CompletedCampaigns  []uuid.UUID `json:"completed_campaigns"`
}

func NewCampaignService(store repository.Store) *CampaignService {
	return &CampaignService{store: store}
}

func (s *CampaignService) CreateCampaign(ctx context.Context, actor Actor, req *CreateCampaignRequest) (*models.Campaign, error) {
	if !actor.Is(models.UserTypeBrand) {
		return nil, utils.AccessDenied("Only brands can create campaigns")
	}
	if err := utils.ValidateRequest(req); err != nil {
		return nil, err
	}
	if !pricing.ValidRate(req.CommissionRate) {
		return nil, utils.Validation("Commission rate must be between 0 and 100")
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return nil, utils.Validation("End date must not be before start date")
	}

	campaign := &models.Campaign{
		BrandID:             actor.ID,
		Title:               req.Title,
		Description:         req.Description,
		Status:              models.CampaignStatusDraft,
		Budget:              pricing.Round3(req.Budget),
		CommissionRate:      pricing.Round3(req.CommissionRate),
		StartDate:           req.StartDate,
		EndDate:             req.EndDate,
		RequiredChannels:    req.RequiredChannels,
		MinFollowers:        req.MinFollowers,
		DeliverableTemplate: req.DeliverableTemplate,
		Revenue:             decimal.Zero,
		CommissionTotal:     decimal.Zero,
	}

	if err := s.store.Campaigns().Create(ctx, campaign); err != nil {
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"campaign_id": campaign.ID,
		"brand_id":    actor.ID,
	}).Info("Campaign created")
	return campaign, nil
}

// GetCampaign returns the campaign with its products.
func (s *CampaignService) GetCampaign(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	campaign, err := loadCampaign(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	products, err := s.store.Products().ListByCampaign(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	campaign.Products = products
	return campaign, nil
}

// UpdateCampaignStatus moves a campaign along its lifecycle on behalf of
// the brand. Activation also activates the campaign's draft products.
func (s *CampaignService) UpdateCampaignStatus(ctx context.Context, actor Actor, id uuid.UUID, req *UpdateCampaignStatusRequest) (*models.Campaign, error) {
	if err := utils.ValidateRequest(req); err != nil {
		return nil, err
	}

	campaign, err := ownedCampaign(ctx, s.store, actor, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.CheckCampaign(campaign.Status, req.Status); err != nil {
		return nil, conflict(err, "")
	}

	var reason models.CompletionReason
	if req.Status == models.CampaignStatusCompleted {
		reason = models.CompletionReasonManual
	}

	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		ok, err := tx.Campaigns().TransitionStatus(ctx, id, []models.CampaignStatus{campaign.Status}, req.Status, reason, now())
		if err != nil {
			return notFound(err, "Campaign")
		}
		if !ok {
			return utils.StateConflict("Campaign status was changed by another request")
		}

		if req.Status != models.CampaignStatusActive {
			return nil
		}
		products, err := tx.Products().ListByCampaign(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to list products: %w", err)
		}
		for _, p := range products {
			if p.Status != models.ProductStatusDraft {
				continue
			}
			if _, err := tx.Products().TransitionStatus(ctx, p.ID, []models.ProductStatus{models.ProductStatusDraft}, models.ProductStatusActive); err != nil {
				return fmt.Errorf("failed to activate product: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"campaign_id": id,
		"from":        campaign.Status,
		"to":          req.Status,
	}).Info("Campaign status updated")
	return s.GetCampaign(ctx, id)
}

// RecomputeMetrics refreshes the content counters of a campaign. Revenue
// counters are owned by checkout and left alone.
func (s *CampaignService) RecomputeMetrics(ctx context.Context, campaignID uuid.UUID) error {
	stats, err := s.store.Contents().CampaignStats(ctx, campaignID)
	if err != nil {
		return fmt.Errorf("failed to aggregate content: %w", err)
	}
	err = s.store.Campaigns().UpdateMetrics(ctx, campaignID, repository.CampaignMetrics{
		TotalViews:           stats.Views,
		TotalClicks:          stats.Clicks,
		ApprovedContentCount: stats.Approved,
	})
	if err != nil {
		return fmt.Errorf("failed to store campaign metrics: %w", err)
	}
	return nil
}

// HandleMetricsRecompute consumes campaign.metrics_recompute events.
func (s *CampaignService) HandleMetricsRecompute(ctx context.Context, payload []byte) error {
	event, err := events.Decode[events.CampaignMetricsRecompute](payload)
	if err != nil {
		return err
	}
	return s.RecomputeMetrics(ctx, event.CampaignID)
}

// CompleteCampaignsByProgress completes active campaigns whose open
// collaborations all reached 100%. It is independent of the sales target
// cascade; both go through the same conditional active to completed
// update, so whichever runs second is a no-op.
func (s *CampaignService) CompleteCampaignsByProgress(ctx context.Context, actor Actor) (*CompletionResult, error) {
	var brandID *uuid.UUID
	switch {
	case actor.IsAdmin():
	case actor.Is(models.UserTypeBrand):
		brandID = &actor.ID
	default:
		return nil, utils.AccessDenied("Only brands can complete campaigns")
	}

	campaigns, err := s.store.Campaigns().ListByStatus(ctx, models.CampaignStatusActive, brandID)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}

	result := &CompletionResult{}
	for _, campaign := range campaigns {
		done, err := s.progressComplete(ctx, campaign.ID)
		if err != nil {
			return nil, err
		}
		if !done {
			continue
		}

		completed, err := completeCampaign(ctx, s.store, &campaign, models.CompletionReasonProgress)
		if err != nil {
			return nil, err
		}
		if completed {
			result.CompletedCampaigns = append(result.CompletedCampaigns, campaign.ID)
		}
	}
	return result, nil
}

func (s *CampaignService) progressComplete(ctx context.Context, campaignID uuid.UUID) (bool, error) {
	collabs, err := s.store.Collaborations().ListByCampaign(ctx, campaignID)
	if err != nil {
		return false, fmt.Errorf("failed to list collaborations: %w", err)
	}
	open := 0
	for _, c := range collabs {
		if c.Status == models.CollaborationStatusCancelled {
			continue
		}
		if c.Progress < 100 {
			return false, nil
		}
		open++
	}
	return open > 0, nil
}

// completeCampaign moves an active campaign to completed and tells the
// brand. It reports false when the campaign was no longer active.
func completeCampaign(ctx context.Context, store repository.Store, campaign *models.Campaign, reason models.CompletionReason) (bool, error) {
	var completed bool
	err := store.WithTx(ctx, func(tx repository.Store) error {
		ok, err := tx.Campaigns().TransitionStatus(ctx, campaign.ID,
			[]models.CampaignStatus{models.CampaignStatusActive},
			models.CampaignStatusCompleted, reason, now())
		if err != nil || !ok {
			return err
		}
		completed = true

		return events.Notify(ctx, tx.Outbox(), events.NotificationRequested{
			RecipientID:   campaign.BrandID,
			RecipientType: models.UserTypeBrand,
			Type:          models.NotificationCampaignCompleted,
			Title:         "Campaign completed",
			Body:          fmt.Sprintf("%s has been completed", campaign.Title),
			RelatedID:     &campaign.ID,
			Data:          map[string]interface{}{"reason": reason},
		})
	})
	if err != nil {
		return false, fmt.Errorf("failed to complete campaign: %w", err)
	}

	if completed {
		logrus.WithFields(logrus.Fields{
			"campaign_id": campaign.ID,
			"reason":      reason,
		}).Info("Campaign completed")
	}
	return completed, nil
}
