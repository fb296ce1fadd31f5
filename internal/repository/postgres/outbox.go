// internal/repository/postgres/outbox.go
package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/imi-campaigns/internal/models"
)

type outboxRepo struct{ s *Store }

func (r *outboxRepo) Enqueue(ctx context.Context, event *models.OutboxEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	return r.s.conn(ctx).Create(event).Error
}

func (r *outboxRepo) ClaimUnpublished(ctx context.Context, limit int, claimToken uuid.UUID, claimUntil time.Time) ([]models.OutboxEvent, error) {
	if limit <= 0 {
		return nil, nil
	}

	now := time.Now().UTC()
	var rows []models.OutboxEvent
	err := r.s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		subquery := tx.Model(&models.OutboxEvent{}).
			Select("id").
			Where("published_at IS NULL").
			Where("dead_lettered_at IS NULL").
			Where("claim_until IS NULL OR claim_until < ?", now).
			Order("created_at ASC").
			Limit(limit).
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})

		if err := tx.Model(&models.OutboxEvent{}).
			Where("id IN (?)", subquery).
			Updates(map[string]interface{}{
				"claim_token": claimToken,
				"claim_until": claimUntil,
			}).Error; err != nil {
			return err
		}

		return tx.Where("claim_token = ?", claimToken).
			Where("published_at IS NULL").
			Where("dead_lettered_at IS NULL").
			Order("created_at ASC").
			Find(&rows).Error
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *outboxRepo) MarkPublished(ctx context.Context, id, claimToken uuid.UUID, at time.Time) error {
	return r.s.conn(ctx).Model(&models.OutboxEvent{}).
		Where("id = ? AND claim_token = ?", id, claimToken).
		Updates(map[string]interface{}{
			"published_at": at,
			"claim_token":  nil,
			"claim_until":  nil,
		}).Error
}

func (r *outboxRepo) MarkFailed(ctx context.Context, id, claimToken uuid.UUID, errMsg string) error {
	return r.s.conn(ctx).Model(&models.OutboxEvent{}).
		Where("id = ? AND claim_token = ?", id, claimToken).
		Updates(map[string]interface{}{
			"retry_count": gorm.Expr("retry_count + 1"),
			"last_error":  errMsg,
			"claim_token": nil,
			"claim_until": nil,
		}).Error
}

func (r *outboxRepo) MarkDeadLettered(ctx context.Context, id, claimToken uuid.UUID, errMsg string, at time.Time) error {
	return r.s.conn(ctx).Model(&models.OutboxEvent{}).
		Where("id = ? AND claim_token = ?", id, claimToken).
		Updates(map[string]interface{}{
			"dead_lettered_at": at,
			"last_error":       errMsg,
			"claim_token":      nil,
			"claim_until":      nil,
		}).Error
}
