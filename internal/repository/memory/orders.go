// internal/repository/memory/orders.go
package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/javajoker/imi-campaigns/internal/models"
	"github.com/javajoker/imi-campaigns/internal/repository"
)

type orderRepo struct{ s *Store }

func (r *orderRepo) Create(ctx context.Context, order *models.Order) error {
	defer r.s.lock()()

	for _, o := range r.s.state.orders {
		if o.OrderNumber == order.OrderNumber {
			return repository.ErrDuplicate
		}
	}

	r.s.stamp(&order.BaseModel)
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
		r.s.stamp(&order.Items[i].BaseModel)
	}
	for i := range order.StatusHistory {
		order.StatusHistory[i].OrderID = order.ID
		r.s.stamp(&order.StatusHistory[i].BaseModel)
	}

	stored := *order
	stored.Items = append([]models.OrderItem(nil), order.Items...)
	stored.StatusHistory = nil
	r.s.state.orders[order.ID] = stored
	r.s.state.orderEvents[order.ID] = append([]models.OrderStatusEvent(nil), order.StatusHistory...)
	return nil
}

func (r *orderRepo) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	defer r.s.lock()()

	o, ok := r.s.state.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	o.Items = append([]models.OrderItem(nil), o.Items...)
	o.StatusHistory = append([]models.OrderStatusEvent(nil), r.s.state.orderEvents[id]...)
	return &o, nil
}

func (r *orderRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from models.OrderStatus, event models.OrderStatusEvent) (bool, error) {
	defer r.s.lock()()

	o, ok := r.s.state.orders[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	if o.Status != from {
		return false, nil
	}
	o.Status = event.Status
	r.s.touch(&o.BaseModel)
	r.s.state.orders[id] = o

	event.OrderID = id
	r.s.stamp(&event.BaseModel)
	history := r.s.state.orderEvents[id]
	r.s.state.orderEvents[id] = append(append([]models.OrderStatusEvent(nil), history...), event)
	return true, nil
}

func (r *orderRepo) SetPaymentReference(ctx context.Context, id uuid.UUID, reference string) error {
	defer r.s.lock()()

	o, ok := r.s.state.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	o.PaymentReference = reference
	r.s.touch(&o.BaseModel)
	r.s.state.orders[id] = o
	return nil
}

func (r *orderRepo) DeliveredQuantity(ctx context.Context, productID uuid.UUID) (int64, error) {
	defer r.s.lock()()

	var total int64
	for _, o := range r.s.state.orders {
		if o.Status != models.OrderStatusDelivered {
			continue
		}
		for _, item := range o.Items {
			if item.ProductID == productID {
				total += item.Quantity
			}
		}
	}
	return total, nil
}
