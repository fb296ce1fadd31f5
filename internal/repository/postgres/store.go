// internal/repository/postgres/store.go
package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/imi-campaigns/internal/repository"
)

// Store implements repository.Store on gorm. Status changes are
// conditional UPDATEs; callers read RowsAffected as the swap result.
type Store struct {
	db *gorm.DB
}

var _ repository.Store = (*Store)(nil)

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Store) error) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) Users() repository.UserRepository                   { return &userRepo{s} }
func (s *Store) Campaigns() repository.CampaignRepository           { return &campaignRepo{s} }
func (s *Store) Collaborations() repository.CollaborationRepository { return &collaborationRepo{s} }
func (s *Store) Deliverables() repository.DeliverableRepository     { return &deliverableRepo{s} }
func (s *Store) Contents() repository.ContentRepository             { return &contentRepo{s} }
func (s *Store) Products() repository.ProductRepository             { return &productRepo{s} }
func (s *Store) Orders() repository.OrderRepository                 { return &orderRepo{s} }
func (s *Store) Notifications() repository.NotificationRepository   { return &notificationRepo{s} }
func (s *Store) Outbox() repository.OutboxRepository                { return &outboxRepo{s} }
func (s *Store) Audit() repository.AuditRepository                  { return &auditRepo{s} }

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return repository.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return repository.ErrDuplicate
	}
	return err
}

// swapped turns the result of a conditional update into the swap outcome,
// telling a lost race apart from a missing row.
func (s *Store) swapped(ctx context.Context, res *gorm.DB, model interface{}, id uuid.UUID) (bool, error) {
	if res.Error != nil {
		return false, translate(res.Error)
	}
	if res.RowsAffected > 0 {
		return true, nil
	}
	var count int64
	if err := s.conn(ctx).Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	if count == 0 {
		return false, repository.ErrNotFound
	}
	return false, nil
}

func requireRow(res *gorm.DB) error {
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
