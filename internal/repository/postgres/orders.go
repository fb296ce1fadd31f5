// internal/repository/postgres/orders.go
package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/imi-campaigns/internal/models"
)

type orderRepo struct{ s *Store }

// Create inserts the order, its items and its history in one statement
// batch through gorm associations.
func (r *orderRepo) Create(ctx context.Context, order *models.Order) error {
	return translate(r.s.conn(ctx).Create(order).Error)
}

func (r *orderRepo) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.s.conn(ctx).
		Preload("Items").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func (r *orderRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from models.OrderStatus, event models.OrderStatusEvent) (bool, error) {
	moved := false
	err := r.s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", id, from).
			Update("status", event.Status)
		ok, err := (&Store{db: tx}).swapped(ctx, res, &models.Order{}, id)
		if err != nil || !ok {
			return err
		}

		event.OrderID = id
		if err := tx.Create(&event).Error; err != nil {
			return err
		}
		moved = true
		return nil
	})
	return moved, translate(err)
}

func (r *orderRepo) SetPaymentReference(ctx context.Context, id uuid.UUID, reference string) error {
	return requireRow(r.s.conn(ctx).Model(&models.Order{}).
		Where("id = ?", id).
		Update("payment_reference", reference))
}

func (r *orderRepo) DeliveredQuantity(ctx context.Context, productID uuid.UUID) (int64, error) {
	var total int64
	err := r.s.conn(ctx).Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id AND orders.deleted_at IS NULL").
		Where("order_items.product_id = ? AND orders.status = ?", productID, models.OrderStatusDelivered).
		Select("COALESCE(SUM(order_items.quantity), 0)").
		Scan(&total).Error
	return total, err
}
