// internal/repository/postgres/notifications.go
package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/javajoker/imi-campaigns/internal/models"
	"github.com/javajoker/imi-campaigns/internal/repository"
)

type notificationRepo struct{ s *Store }

func (r *notificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	return r.s.conn(ctx).Create(notification).Error
}

func (r *notificationRepo) ListByRecipient(ctx context.Context, recipientID uuid.UUID, page repository.Page) ([]models.Notification, int64, error) {
	query := r.s.conn(ctx).Model(&models.Notification{}).Where("recipient_id = ?", recipientID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var notifications []models.Notification
	err := query.Order("created_at DESC").
		Offset(page.Offset).
		Limit(page.Limit).
		Find(&notifications).Error
	return notifications, total, err
}

type auditRepo struct{ s *Store }

func (r *auditRepo) Create(ctx context.Context, log *models.AuditLog) error {
	return r.s.conn(ctx).Create(log).Error
}
