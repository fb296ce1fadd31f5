// internal/services/checkout_service.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/imi-campaigns/internal/config"
	"github.com/javajoker/imi-campaigns/internal/events"
	"github.com/javajoker/imi-campaigns/internal/models"
	"github.com/javajoker/imi-campaigns/internal/pricing"
	"github.com/javajoker/imi-campaigns/internal/repository"
	"github.com/javajoker/imi-campaigns/internal/utils"
)

type CheckoutService struct {
	store          repository.Store
	idempotency    IdempotencyStore
	shippingRate   decimal.Decimal
	currency       string
	idempotencyTTL time.Duration
}

type CheckoutItem struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int64     `json:"quantity" validate:"required,min=1,max=1000"`
}

type CheckoutRequest struct {
	Items           []CheckoutItem         `json:"items" validate:"required,min=1,max=50,dive"`
	CustomerName    string                 `json:"customer_name" validate:"required,max=255"`
	CustomerEmail   string                 `json:"customer_email" validate:"required,email,max=255"`
	CustomerPhone   string                 `json:"customer_phone,omitempty" validate:"max=50"`
	ShippingAddress map[string]interface{} `json:"shipping_address,omitempty"`
	ReferralCode    string                 `json:"referral_code,omitempty" validate:"max=32"`
}

const defaultIdempotencyTTL = 24 * time.Hour

func NewCheckoutService(store repository.Store, idempotency IdempotencyStore, cfg config.CheckoutConfig) *CheckoutService {
	currency := cfg.Currency
	if currency == "" {
		currency = "usd"
	}
	ttl := cfg.IdempotencyTTL
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return &CheckoutService{
		store:          store,
		idempotency:    idempotency,
		shippingRate:   decimal.NewFromFloat(cfg.ShippingRate),
		currency:       currency,
		idempotencyTTL: ttl,
	}
}

// Checkout places an order. With an idempotency key a repeated request
// returns the order of the first one.
func (s *CheckoutService) Checkout(ctx context.Context, customerID *uuid.UUID, idempotencyKey string, req *CheckoutRequest) (*models.Order, error) {
	if err := utils.ValidateRequest(req); err != nil {
		return nil, err
	}

	if idempotencyKey == "" || s.idempotency == nil {
		return s.placeOrder(ctx, customerID, req)
	}

	scope := strings.ToLower(req.CustomerEmail)
	if customerID != nil {
		scope = customerID.String()
	}
	key := utils.HashString(scope + ":" + idempotencyKey)
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode checkout request: %w", err)
	}
	fingerprint := utils.HashBytes(body)

	existing, reserved, err := s.idempotency.Reserve(ctx, key, fingerprint, s.idempotencyTTL)
	if err != nil {
		return nil, utils.Upstream("Checkout is temporarily unavailable", err)
	}
	if !reserved {
		return s.replay(ctx, existing, fingerprint)
	}

	order, err := s.placeOrder(ctx, customerID, req)
	if err != nil {
		if releaseErr := s.idempotency.Release(ctx, key); releaseErr != nil {
			logrus.WithError(releaseErr).Warn("Failed to release idempotency key")
		}
		return nil, err
	}

	record := IdempotencyRecord{Fingerprint: fingerprint, OrderID: order.ID.String()}
	if err := s.idempotency.Complete(ctx, key, record, s.idempotencyTTL); err != nil {
		logrus.WithError(err).WithField("order_id", order.ID).Warn("Failed to store idempotency result")
	}
	return order, nil
}

func (s *CheckoutService) replay(ctx context.Context, record *IdempotencyRecord, fingerprint string) (*models.Order, error) {
	if record.Fingerprint != fingerprint {
		return nil, utils.Validation("Idempotency key was already used for a different checkout")
	}
	if record.OrderID == "" {
		return nil, utils.StateConflict("A checkout with this idempotency key is still in progress")
	}
	orderID, err := uuid.Parse(record.OrderID)
	if err != nil {
		return nil, fmt.Errorf("invalid order id in idempotency record: %w", err)
	}
	order, err := s.store.Orders().Get(ctx, orderID)
	if err != nil {
		return nil, notFound(err, "Order")
	}
	return order, nil
}

// attribution resolves the referring influencer. Unknown codes and
// self-referrals leave the order unattributed.
func (s *CheckoutService) attribution(ctx context.Context, code string, customerID *uuid.UUID) (*models.User, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	user, err := s.store.Users().FindByReferralCode(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		logrus.WithField("referral_code", code).Info("Unknown referral code ignored")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve referral code: %w", err)
	}
	if user.UserType != models.UserTypeInfluencer {
		return nil, nil
	}
	if customerID != nil && *customerID == user.ID {
		return nil, nil
	}
	return user, nil
}

// mergeItems folds repeated products together and orders lines by product
// id so concurrent checkouts lock rows in the same order.
func mergeItems(items []CheckoutItem) []CheckoutItem {
	byProduct := make(map[uuid.UUID]int64, len(items))
	for _, item := range items {
		byProduct[item.ProductID] += item.Quantity
	}
	merged := make([]CheckoutItem, 0, len(byProduct))
	for id, qty := range byProduct {
		merged = append(merged, CheckoutItem{ProductID: id, Quantity: qty})
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].ProductID.String() < merged[j].ProductID.String() })
	return merged
}

func insufficientStock(product *models.Product) error {
	return utils.ValidationWithDetails("Insufficient stock", map[string]interface{}{
		"product_id": product.ID,
		"title":      product.Title,
		"available":  product.AvailableStock(),
	})
}

// placeOrder reserves stock, prices the cart and books the revenue in one
// transaction. Stock is taken with a conditional update so two buyers of
// the last unit cannot both succeed.
func (s *CheckoutService) placeOrder(ctx context.Context, customerID *uuid.UUID, req *CheckoutRequest) (*models.Order, error) {
	influencer, err := s.attribution(ctx, req.ReferralCode, customerID)
	if err != nil {
		return nil, err
	}

	items := mergeItems(req.Items)
	order := &models.Order{
		OrderNumber:     "ORD-" + ulid.Make().String(),
		CustomerID:      customerID,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		ShippingAddress: req.ShippingAddress,
		Currency:        s.currency,
		Status:          models.OrderStatusPending,
	}
	if influencer != nil {
		order.InfluencerID = &influencer.ID
		order.ReferralCode = strings.TrimSpace(req.ReferralCode)
	}

	var totals pricing.Totals
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		lines := make([]pricing.Line, 0, len(items))
		products := make(map[uuid.UUID]*models.Product, len(items))

		// Validate and reserve every line
		for _, item := range items {
			product, err := tx.Products().Get(ctx, item.ProductID)
			if err != nil {
				return notFound(err, "Product")
			}
			if product.Status == models.ProductStatusOutOfStock {
				return insufficientStock(product)
			}
			if product.Status != models.ProductStatusActive {
				return utils.ValidationWithDetails(fmt.Sprintf("%s is not available", product.Title), map[string]interface{}{
					"product_id": product.ID,
					"status":     product.Status,
				})
			}

			rate := decimal.Zero
			if product.IsCampaignProduct() {
				campaign, err := tx.Campaigns().Get(ctx, *product.CampaignID)
				if err != nil {
					return notFound(err, "Campaign")
				}
				if campaign.Status != models.CampaignStatusActive {
					return utils.ValidationWithDetails(fmt.Sprintf("%s is not part of an active campaign", product.Title), map[string]interface{}{
						"product_id": product.ID,
					})
				}
				rate = campaign.CommissionRate
			}
			if item.Quantity > product.AvailableStock() {
				return insufficientStock(product)
			}

			reserved, err := tx.Products().ReserveStock(ctx, product.ID, item.Quantity)
			if errors.Is(err, repository.ErrInsufficientStock) {
				return insufficientStock(product)
			}
			if err != nil {
				return fmt.Errorf("failed to reserve stock: %w", err)
			}
			if reserved.AvailableStock() == 0 {
				if _, err := tx.Products().TransitionStatus(ctx, product.ID,
					[]models.ProductStatus{models.ProductStatusActive}, models.ProductStatusOutOfStock); err != nil {
					return fmt.Errorf("failed to mark product out of stock: %w", err)
				}
			}

			products[product.ID] = reserved
			lines = append(lines, pricing.Line{
				ProductID:      product.ID,
				CampaignID:     product.CampaignID,
				UnitPrice:      reserved.UnitPrice(),
				Quantity:       item.Quantity,
				CommissionRate: rate,
			})
		}

		totals = pricing.Quote(lines, s.shippingRate, influencer != nil)

		order.Subtotal = totals.Subtotal
		order.ShippingFee = totals.Shipping
		order.GrandTotal = totals.GrandTotal
		order.CommissionAmount = totals.Commission
		order.Items = make([]models.OrderItem, 0, len(totals.Lines))
		for _, line := range totals.Lines {
			product := products[line.ProductID]
			order.Items = append(order.Items, models.OrderItem{
				ProductID:  line.ProductID,
				CampaignID: line.CampaignID,
				BrandID:    product.BrandID,
				Title:      product.Title,
				UnitPrice:  line.UnitPrice,
				Quantity:   line.Quantity,
				LineTotal:  line.LineTotal,
				Commission: line.Commission,
			})
		}
		order.StatusHistory = []models.OrderStatusEvent{{Status: models.OrderStatusPending, Note: "Order placed"}}

		if err := tx.Orders().Create(ctx, order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		// Book revenue per campaign
		for _, ct := range totals.Campaigns {
			if err := tx.Campaigns().AddSales(ctx, ct.CampaignID, ct.Revenue, ct.Commission, ct.Conversions); err != nil {
				return fmt.Errorf("failed to update campaign sales: %w", err)
			}
			if influencer == nil {
				continue
			}
			err := tx.Collaborations().AddSales(ctx, repository.CollaborationSales{
				CampaignID:   ct.CampaignID,
				InfluencerID: influencer.ID,
				Revenue:      ct.Revenue,
				Commission:   ct.Commission,
				Conversions:  ct.Conversions,
			})
			if err != nil {
				return fmt.Errorf("failed to update collaboration sales: %w", err)
			}
		}

		if influencer != nil && totals.Commission.IsPositive() {
			err := events.Notify(ctx, tx.Outbox(), events.NotificationRequested{
				RecipientID:   influencer.ID,
				RecipientType: models.UserTypeInfluencer,
				Type:          models.NotificationOrderAttributed,
				Title:         "You earned a commission",
				Body:          fmt.Sprintf("Order %s earned you %s %s", order.OrderNumber, totals.Commission.StringFixed(pricing.Places), strings.ToUpper(order.Currency)),
				RelatedID:     &order.ID,
			})
			if err != nil {
				return err
			}
		}

		return events.EmailOrderStatus(ctx, tx.Outbox(), order.ID, order.Status)
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"order_id":      order.ID,
		"order_number":  order.OrderNumber,
		"grand_total":   order.GrandTotal.String(),
		"commission":    order.CommissionAmount.String(),
		"influencer_id": order.InfluencerID,
	}).Info("Order placed")
	return order, nil
}
