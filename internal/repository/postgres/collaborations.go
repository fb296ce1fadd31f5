// internal/repository/postgres/collaborations.go
package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/imi-campaigns/internal/models"
	"github.com/javajoker/imi-campaigns/internal/repository"
)

type collaborationRepo struct{ s *Store }

// Matches the partial unique index idx_collaborations_open_pair.
var openPairConflict = clause.OnConflict{
	Columns:     []clause.Column{{Name: "campaign_id"}, {Name: "influencer_id"}},
	TargetWhere: clause.Where{Exprs: []clause.Expression{clause.Expr{SQL: "status <> 'cancelled' AND deleted_at IS NULL"}}},
}

func (r *collaborationRepo) Create(ctx context.Context, collab *models.Collaboration) error {
	return translate(r.s.conn(ctx).Omit("Deliverables").Create(collab).Error)
}

func (r *collaborationRepo) Get(ctx context.Context, id uuid.UUID) (*models.Collaboration, error) {
	var collab models.Collaboration
	if err := r.s.conn(ctx).First(&collab, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &collab, nil
}

func (r *collaborationRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Collaboration, error) {
	var collab models.Collaboration
	err := r.s.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&collab, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &collab, nil
}

func (r *collaborationRepo) FindOpen(ctx context.Context, campaignID, influencerID uuid.UUID) (*models.Collaboration, error) {
	var collab models.Collaboration
	err := r.s.conn(ctx).
		Where("campaign_id = ? AND influencer_id = ? AND status <> ?", campaignID, influencerID, models.CollaborationStatusCancelled).
		First(&collab).Error
	if err != nil {
		return nil, translate(err)
	}
	return &collab, nil
}

func (r *collaborationRepo) ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]models.Collaboration, error) {
	var collabs []models.Collaboration
	if err := r.s.conn(ctx).Where("campaign_id = ?", campaignID).Order("created_at ASC").Find(&collabs).Error; err != nil {
		return nil, err
	}
	return collabs, nil
}

func (r *collaborationRepo) CountByInfluencer(ctx context.Context, influencerID uuid.UUID, statuses []models.CollaborationStatus) (int64, error) {
	var count int64
	err := r.s.conn(ctx).Model(&models.Collaboration{}).
		Where("influencer_id = ? AND status IN ?", influencerID, statuses).
		Count(&count).Error
	return count, err
}

func (r *collaborationRepo) CountByCampaign(ctx context.Context, campaignID uuid.UUID, statuses []models.CollaborationStatus) (int64, error) {
	var count int64
	err := r.s.conn(ctx).Model(&models.Collaboration{}).
		Where("campaign_id = ? AND status IN ?", campaignID, statuses).
		Count(&count).Error
	return count, err
}

func (r *collaborationRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from, to models.CollaborationStatus) (bool, error) {
	res := r.s.conn(ctx).Model(&models.Collaboration{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return r.s.swapped(ctx, res, &models.Collaboration{}, id)
}

func (r *collaborationRepo) SetProgress(ctx context.Context, id uuid.UUID, progress int) error {
	return requireRow(r.s.conn(ctx).Model(&models.Collaboration{}).
		Where("id = ?", id).
		Update("progress", progress))
}

func (r *collaborationRepo) AddSales(ctx context.Context, sales repository.CollaborationSales) error {
	collab := models.Collaboration{
		CampaignID:       sales.CampaignID,
		InfluencerID:     sales.InfluencerID,
		Status:           models.CollaborationStatusActive,
		Revenue:          sales.Revenue,
		CommissionEarned: sales.Commission,
		Conversions:      sales.Conversions,
	}

	upsert := openPairConflict
	upsert.DoUpdates = clause.Assignments(map[string]interface{}{
		"revenue":           gorm.Expr("collaborations.revenue + EXCLUDED.revenue"),
		"commission_earned": gorm.Expr("collaborations.commission_earned + EXCLUDED.commission_earned"),
		"conversions":       gorm.Expr("collaborations.conversions + EXCLUDED.conversions"),
		"updated_at":        time.Now().UTC(),
	})

	return translate(r.s.conn(ctx).Omit("Deliverables").Clauses(upsert).Create(&collab).Error)
}

func (r *collaborationRepo) DeleteByInfluencer(ctx context.Context, influencerID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.s.conn(ctx).Model(&models.Collaboration{}).
		Where("influencer_id = ?", influencerID).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	if err := r.s.conn(ctx).Unscoped().Where("id IN ?", ids).Delete(&models.Collaboration{}).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
