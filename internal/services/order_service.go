// internal/services/order_service.go
package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/imi-campaigns/internal/events"
	"github.com/javajoker/imi-campaigns/internal/lifecycle"
	"github.com/javajoker/imi-campaigns/internal/models"
	"github.com/javajoker/imi-campaigns/internal/repository"
	"github.com/javajoker/imi-campaigns/internal/utils"
)

type OrderService struct {
	store repository.Store
}

type UpdateOrderStatusRequest struct {
	Status models.OrderStatus `json:"status" validate:"required,oneof=confirmed shipped delivered cancelled"`
	Note   string             `json:"note" validate:"max=1000"`
}

func NewOrderService(store repository.Store) *OrderService {
	return &OrderService{store: store}
}

// canSee lets the customer, the attributed influencer, any brand with an
// item on the order and admins read it.
func canSee(actor Actor, order *models.Order) bool {
	if actor.IsAdmin() {
		return true
	}
	if order.CustomerID != nil && *order.CustomerID == actor.ID {
		return true
	}
	if order.InfluencerID != nil && *order.InfluencerID == actor.ID {
		return true
	}
	return sellsOn(actor, order)
}

func sellsOn(actor Actor, order *models.Order) bool {
	for _, item := range order.Items {
		if item.BrandID == actor.ID {
			return true
		}
	}
	return false
}

func (s *OrderService) GetOrder(ctx context.Context, actor Actor, id uuid.UUID) (*models.Order, error) {
	order, err := s.store.Orders().Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "Order")
	}
	if !canSee(actor, order) {
		return nil, utils.AccessDenied("You cannot view this order")
	}
	return order, nil
}

// UpdateOrderStatus moves an order forward and appends to its history.
// Delivery runs the sales target cascade in the same transaction.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, actor Actor, id uuid.UUID, req *UpdateOrderStatusRequest) (*models.Order, error) {
	if err := utils.ValidateRequest(req); err != nil {
		return nil, err
	}

	order, err := s.store.Orders().Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "Order")
	}

	ownCancel := req.Status == models.OrderStatusCancelled && order.CustomerID != nil && *order.CustomerID == actor.ID
	if !actor.IsAdmin() && !sellsOn(actor, order) && !ownCancel {
		return nil, utils.AccessDenied("You cannot update this order")
	}
	if err := lifecycle.CheckOrder(order.Status, req.Status); err != nil {
		return nil, conflict(err, "")
	}

	var cascade *CompletionResult
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		ok, err := tx.Orders().TransitionStatus(ctx, id, order.Status, models.OrderStatusEvent{
			Status:    req.Status,
			Note:      req.Note,
			ChangedBy: &actor.ID,
		})
		if err != nil {
			return notFound(err, "Order")
		}
		if !ok {
			return utils.StateConflict("Order status was changed by another request")
		}

		if err := events.EmailOrderStatus(ctx, tx.Outbox(), id, req.Status); err != nil {
			return err
		}

		if req.Status == models.OrderStatusDelivered {
			cascade, err = checkProducts(ctx, tx, order.ProductIDs(), false)
			if err != nil {
				return fmt.Errorf("failed to run completion check: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	fields := logrus.Fields{"order_id": id, "from": order.Status, "to": req.Status}
	if cascade != nil {
		fields["deactivated_products"] = len(cascade.DeactivatedProducts)
		fields["completed_campaigns"] = len(cascade.CompletedCampaigns)
	}
	logrus.WithFields(fields).Info("Order status updated")

	return s.GetOrder(ctx, actor, id)
}
