// internal/services/payment_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"

	"github.com/javajoker/imi-campaigns/internal/events"
	"github.com/javajoker/imi-campaigns/internal/models"
	"github.com/javajoker/imi-campaigns/internal/repository"
	"github.com/javajoker/imi-campaigns/internal/utils"
)

// PaymentIntent is the part of a provider payment intent the service uses.
type PaymentIntent struct {
	ID           string
	ClientSecret string
	Status       string
	Amount       int64
}

// PaymentGateway talks to the payment provider.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*PaymentIntent, error)
	GetIntent(ctx context.Context, id string) (*PaymentIntent, error)
}

var ErrPaymentsDisabled = errors.New("payments are not configured")

type StripeGateway struct {
	enabled bool
}

func NewStripeGateway(secretKey string) *StripeGateway {
	// Initialize Stripe
	stripe.Key = secretKey
	return &StripeGateway{enabled: secretKey != ""}
}

func (g *StripeGateway) CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*PaymentIntent, error) {
	if !g.enabled {
		return nil, ErrPaymentsDisabled
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(currency),
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}
	return fromStripe(pi), nil
}

func (g *StripeGateway) GetIntent(ctx context.Context, id string) (*PaymentIntent, error) {
	if !g.enabled {
		return nil, ErrPaymentsDisabled
	}

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := paymentintent.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment intent: %w", err)
	}
	return fromStripe(pi), nil
}

func fromStripe(pi *stripe.PaymentIntent) *PaymentIntent {
	return &PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Amount:       pi.Amount,
	}
}

type PaymentService struct {
	store   repository.Store
	gateway PaymentGateway
}

type PaymentIntentResponse struct {
	ClientSecret string `json:"client_secret"`
	PaymentID    string `json:"payment_id"`
	Status       string `json:"status"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

func NewPaymentService(store repository.Store, gateway PaymentGateway) *PaymentService {
	return &PaymentService{
		store:   store,
		gateway: gateway,
	}
}

// payableOrder loads a pending order the actor may pay for. Guest orders
// are reachable by id alone.
func (s *PaymentService) payableOrder(ctx context.Context, actor *Actor, id uuid.UUID) (*models.Order, error) {
	order, err := s.store.Orders().Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "Order")
	}
	if order.CustomerID != nil && (actor == nil || (actor.ID != *order.CustomerID && !actor.IsAdmin())) {
		return nil, utils.AccessDenied("You cannot pay for this order")
	}
	if order.Status != models.OrderStatusPending {
		return nil, utils.StateConflict("Only pending orders can be paid")
	}
	return order, nil
}

// CreatePaymentIntent starts a payment for the order's grand total.
func (s *PaymentService) CreatePaymentIntent(ctx context.Context, actor *Actor, orderID uuid.UUID) (*PaymentIntentResponse, error) {
	order, err := s.payableOrder(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}

	// Convert amount to cents for Stripe
	amountInCents := order.GrandTotal.Shift(2).Round(0).IntPart()

	intent, err := s.gateway.CreateIntent(ctx, amountInCents, order.Currency, map[string]string{
		"order_id":     order.ID.String(),
		"order_number": order.OrderNumber,
	})
	if err != nil {
		return nil, utils.Upstream("Failed to start payment", err)
	}

	if err := s.store.Orders().SetPaymentReference(ctx, order.ID, intent.ID); err != nil {
		return nil, fmt.Errorf("failed to store payment reference: %w", err)
	}

	return &PaymentIntentResponse{
		ClientSecret: intent.ClientSecret,
		PaymentID:    intent.ID,
		Status:       intent.Status,
		Amount:       amountInCents,
		Currency:     order.Currency,
	}, nil
}

// ConfirmPayment confirms a pending order once its payment intent succeeded.
func (s *PaymentService) ConfirmPayment(ctx context.Context, actor *Actor, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.payableOrder(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentReference == "" {
		return nil, utils.StateConflict("No payment has been started for this order")
	}

	intent, err := s.gateway.GetIntent(ctx, order.PaymentReference)
	if err != nil {
		return nil, utils.Upstream("Failed to check payment", err)
	}
	if intent.Status != string(stripe.PaymentIntentStatusSucceeded) {
		return nil, utils.StateConflict("Payment has not succeeded yet")
	}

	var changedBy *uuid.UUID
	if actor != nil {
		changedBy = &actor.ID
	}
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		ok, err := tx.Orders().TransitionStatus(ctx, orderID, models.OrderStatusPending, models.OrderStatusEvent{
			Status:    models.OrderStatusConfirmed,
			Note:      "Payment confirmed",
			ChangedBy: changedBy,
		})
		if err != nil {
			return notFound(err, "Order")
		}
		if !ok {
			return utils.StateConflict("Order status was changed by another request")
		}
		return events.EmailOrderStatus(ctx, tx.Outbox(), orderID, models.OrderStatusConfirmed)
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"order_id":   orderID,
		"payment_id": intent.ID,
	}).Info("Payment confirmed")

	order, err = s.store.Orders().Get(ctx, orderID)
	if err != nil {
		return nil, notFound(err, "Order")
	}
	return order, nil
}
