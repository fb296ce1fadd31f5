// internal/repository/postgres/campaigns.go
package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/javajoker/imi-campaigns/internal/models"
	"github.com/javajoker/imi-campaigns/internal/repository"
)

type campaignRepo struct{ s *Store }

func (r *campaignRepo) Create(ctx context.Context, campaign *models.Campaign) error {
	return translate(r.s.conn(ctx).Omit("Products").Create(campaign).Error)
}

func (r *campaignRepo) Get(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	var campaign models.Campaign
	if err := r.s.conn(ctx).First(&campaign, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &campaign, nil
}

func (r *campaignRepo) ListByStatus(ctx context.Context, status models.CampaignStatus, brandID *uuid.UUID) ([]models.Campaign, error) {
	query := r.s.conn(ctx).Where("status = ?", status)
	if brandID != nil {
		query = query.Where("brand_id = ?", *brandID)
	}

	var campaigns []models.Campaign
	if err := query.Order("created_at ASC").Find(&campaigns).Error; err != nil {
		return nil, err
	}
	return campaigns, nil
}

func (r *campaignRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from []models.CampaignStatus, to models.CampaignStatus, reason models.CompletionReason, at time.Time) (bool, error) {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": at,
	}
	if to == models.CampaignStatusCompleted {
		updates["completed_at"] = at
		updates["completion_reason"] = reason
	}

	res := r.s.conn(ctx).Model(&models.Campaign{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	return r.s.swapped(ctx, res, &models.Campaign{}, id)
}

func (r *campaignRepo) AddSales(ctx context.Context, id uuid.UUID, revenue, commission decimal.Decimal, conversions int64) error {
	return requireRow(r.s.conn(ctx).Model(&models.Campaign{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"revenue":          gorm.Expr("revenue + ?", revenue),
			"commission_total": gorm.Expr("commission_total + ?", commission),
			"conversions":      gorm.Expr("conversions + ?", conversions),
		}))
}

func (r *campaignRepo) UpdateMetrics(ctx context.Context, id uuid.UUID, metrics repository.CampaignMetrics) error {
	return requireRow(r.s.conn(ctx).Model(&models.Campaign{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"total_views":            metrics.TotalViews,
			"total_clicks":           metrics.TotalClicks,
			"approved_content_count": metrics.ApprovedContentCount,
		}))
}
