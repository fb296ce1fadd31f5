// internal/repository/postgres/contents.go
package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/imi-campaigns/internal/models"
	"github.com/javajoker/imi-campaigns/internal/repository"
)

type contentRepo struct{ s *Store }

func (r *contentRepo) Create(ctx context.Context, content *models.Content) error {
	return translate(r.s.conn(ctx).Create(content).Error)
}

func (r *contentRepo) Get(ctx context.Context, id uuid.UUID) (*models.Content, error) {
	var content models.Content
	if err := r.s.conn(ctx).First(&content, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &content, nil
}

func (r *contentRepo) ListByCampaign(ctx context.Context, campaignID uuid.UUID, influencerID *uuid.UUID) ([]models.Content, error) {
	query := r.s.conn(ctx).Where("campaign_id = ?", campaignID)
	if influencerID != nil {
		query = query.Where("influencer_id = ?", *influencerID)
	}

	var contents []models.Content
	err := query.Order("created_at DESC").Find(&contents).Error
	return contents, err
}

func (r *contentRepo) CompareAndSwap(ctx context.Context, id uuid.UUID, expected models.ReviewStatus, update repository.ContentUpdate) (bool, error) {
	updates := map[string]interface{}{"status": update.Status}
	if update.ReviewFeedback != nil {
		updates["review_feedback"] = *update.ReviewFeedback
	}
	if update.ReviewedBy != nil {
		updates["reviewed_by"] = *update.ReviewedBy
	}
	if update.ReviewedAt != nil {
		updates["reviewed_at"] = *update.ReviewedAt
	}
	if update.PublishedAt != nil {
		updates["published_at"] = *update.PublishedAt
	}
	if update.ExternalPostURL != nil {
		updates["external_post_url"] = *update.ExternalPostURL
	}

	res := r.s.conn(ctx).Model(&models.Content{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(updates)
	return r.s.swapped(ctx, res, &models.Content{}, id)
}

func (r *contentRepo) AddPerformance(ctx context.Context, id uuid.UUID, views, clicks int64) error {
	return requireRow(r.s.conn(ctx).Model(&models.Content{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"views":  gorm.Expr("views + ?", views),
			"clicks": gorm.Expr("clicks + ?", clicks),
		}))
}

func (r *contentRepo) CampaignStats(ctx context.Context, campaignID uuid.UUID) (repository.ContentStats, error) {
	var stats repository.ContentStats
	err := r.s.conn(ctx).Model(&models.Content{}).
		Select("COALESCE(SUM(views), 0) AS views, COALESCE(SUM(clicks), 0) AS clicks, "+
			"COUNT(*) FILTER (WHERE status IN ?) AS approved",
			[]models.ReviewStatus{models.ReviewStatusApproved, models.ReviewStatusPublished}).
		Where("campaign_id = ?", campaignID).
		Scan(&stats).Error
	return stats, err
}
