// internal/repository/postgres/deliverables.go
package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/imi-campaigns/internal/models"
	"github.com/javajoker/imi-campaigns/internal/repository"
)

type deliverableRepo struct{ s *Store }

func (r *deliverableRepo) CreateBatch(ctx context.Context, deliverables []models.Deliverable) error {
	if len(deliverables) == 0 {
		return nil
	}
	return translate(r.s.conn(ctx).Create(&deliverables).Error)
}

func (r *deliverableRepo) ListByCollaboration(ctx context.Context, collaborationID uuid.UUID) ([]models.Deliverable, error) {
	var deliverables []models.Deliverable
	err := r.s.conn(ctx).
		Where("collaboration_id = ?", collaborationID).
		Order("position ASC").
		Find(&deliverables).Error
	return deliverables, err
}

func (r *deliverableRepo) Get(ctx context.Context, collaborationID, id uuid.UUID) (*models.Deliverable, error) {
	var deliverable models.Deliverable
	err := r.s.conn(ctx).
		Where("id = ? AND collaboration_id = ?", id, collaborationID).
		First(&deliverable).Error
	if err != nil {
		return nil, translate(err)
	}
	return &deliverable, nil
}

func (r *deliverableRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Deliverable, error) {
	var deliverable models.Deliverable
	if err := r.s.conn(ctx).First(&deliverable, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &deliverable, nil
}

func (r *deliverableRepo) CompareAndSwap(ctx context.Context, id uuid.UUID, expected models.ReviewStatus, update repository.DeliverableUpdate) (bool, error) {
	updates := map[string]interface{}{
		"status":  update.Status,
		"version": gorm.Expr("version + 1"),
	}
	if update.ContentURL != nil {
		updates["content_url"] = *update.ContentURL
	}
	if update.SubmittedAt != nil {
		updates["submitted_at"] = *update.SubmittedAt
	}
	if update.ReviewedAt != nil {
		updates["reviewed_at"] = *update.ReviewedAt
	}
	if update.ReviewFeedback != nil {
		updates["review_feedback"] = *update.ReviewFeedback
	}

	res := r.s.conn(ctx).Model(&models.Deliverable{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(updates)
	return r.s.swapped(ctx, res, &models.Deliverable{}, id)
}

func (r *deliverableRepo) UpdateSpec(ctx context.Context, id uuid.UUID, version int64, spec models.DeliverableSpec) (bool, error) {
	res := r.s.conn(ctx).Model(&models.Deliverable{}).
		Where("id = ? AND version = ?", id, version).
		Updates(map[string]interface{}{
			"platform":    spec.Platform,
			"description": spec.Description,
			"post_count":  spec.PostCount,
			"reel_count":  spec.ReelCount,
			"video_count": spec.VideoCount,
			"due_date":    spec.DueDate,
			"version":     gorm.Expr("version + 1"),
		})
	return r.s.swapped(ctx, res, &models.Deliverable{}, id)
}

func (r *deliverableRepo) DeletePending(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.s.conn(ctx).Unscoped().
		Where("id = ? AND status = ?", id, models.ReviewStatusPending).
		Delete(&models.Deliverable{})
	return r.s.swapped(ctx, res, &models.Deliverable{}, id)
}

func (r *deliverableRepo) DeleteByCollaborations(ctx context.Context, collaborationIDs []uuid.UUID) error {
	if len(collaborationIDs) == 0 {
		return nil
	}
	return r.s.conn(ctx).Unscoped().
		Where("collaboration_id IN ?", collaborationIDs).
		Delete(&models.Deliverable{}).Error
}
