// internal/repository/memory/notifications.go
package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/javajoker/imi-campaigns/internal/models"
	"github.com/javajoker/imi-campaigns/internal/repository"
)

type notificationRepo struct{ s *Store }

func (r *notificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	defer r.s.lock()()

	r.s.stamp(&notification.BaseModel)
	if notification.Status == "" {
		notification.Status = models.NotificationStatusUnread
	}
	r.s.state.notifications[notification.ID] = *notification
	return nil
}

func (r *notificationRepo) ListByRecipient(ctx context.Context, recipientID uuid.UUID, page repository.Page) ([]models.Notification, int64, error) {
	defer r.s.lock()()

	var all []models.Notification
	for _, n := range r.s.state.notifications {
		if n.RecipientID == recipientID {
			all = append(all, n)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	total := int64(len(all))
	if page.Offset >= len(all) {
		return []models.Notification{}, total, nil
	}
	all = all[page.Offset:]
	if page.Limit > 0 && len(all) > page.Limit {
		all = all[:page.Limit]
	}
	return all, total, nil
}

type auditRepo struct{ s *Store }

func (r *auditRepo) Create(ctx context.Context, log *models.AuditLog) error {
	defer r.s.lock()()

	r.s.stamp(&log.BaseModel)
	r.s.state.audit = append(r.s.state.audit, *log)
	return nil
}
