// internal/services/order_service_test.go
package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/imi-campaigns/internal/models"
	"github.com/javajoker/imi-campaigns/internal/utils"
)

var admin = Actor{ID: uuid.New(), Type: models.UserTypeAdmin}

func deliver(t *testing.T, f *fixture, orders *OrderService, id uuid.UUID) *models.Order {
	var order *models.Order
	var err error
	for _, status := range []models.OrderStatus{models.OrderStatusConfirmed, models.OrderStatusShipped, models.OrderStatusDelivered} {
		order, err = orders.UpdateOrderStatus(f.ctx, admin, id, &UpdateOrderStatusRequest{Status: status})
		require.NoError(t, err)
	}
	return order
}

func TestDeliveryCompletesProductAndCampaign(t *testing.T) {
	f := newFixture(t)
	brand := f.user(models.UserTypeBrand)
	campaign := f.campaign(brand, models.CampaignStatusActive)
	product := f.product(campaign, "10", 10, 0)
	checkout := NewCheckoutService(f.store, nil, testCheckoutConfig)
	orders := NewOrderService(f.store)

	first, err := checkout.Checkout(f.ctx, nil, "", cart(product.ID, 9, ""))
	require.NoError(t, err)
	deliver(t, f, orders, first.ID)

	p, err := f.store.Products().Get(f.ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProductStatusActive, p.Status)

	last, err := checkout.Checkout(f.ctx, nil, "", cart(product.ID, 1, ""))
	require.NoError(t, err)
	delivered := deliver(t, f, orders, last.ID)
	assert.Equal(t, models.OrderStatusDelivered, delivered.Status)
	assert.Len(t, delivered.StatusHistory, 4)

	p, err = f.store.Products().Get(f.ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProductStatusInactive, p.Status)

	c, err := f.store.Campaigns().Get(f.ctx, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CampaignStatusCompleted, c.Status)
	assert.Equal(t, models.CompletionReasonSalesTarget, c.CompletionReason)
	assert.NotNil(t, c.CompletedAt)

	// A second run without new deliveries changes nothing
	result, err := NewCompletionService(f.store).CheckProducts(f.ctx, []uuid.UUID{product.ID}, false)
	require.NoError(t, err)
	assert.Empty(t, result.DeactivatedProducts)
	assert.Empty(t, result.CompletedCampaigns)
}

func TestDeliveryKeepsCampaignWithOpenProducts(t *testing.T) {
	f := newFixture(t)
	brand := f.user(models.UserTypeBrand)
	campaign := f.campaign(brand, models.CampaignStatusActive)
	product := f.product(campaign, "10", 1, 0)
	f.product(campaign, "12", 5, 0)
	checkout := NewCheckoutService(f.store, nil, testCheckoutConfig)
	orders := NewOrderService(f.store)

	order, err := checkout.Checkout(f.ctx, nil, "", cart(product.ID, 1, ""))
	require.NoError(t, err)
	deliver(t, f, orders, order.ID)

	p, err := f.store.Products().Get(f.ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProductStatusInactive, p.Status)

	c, err := f.store.Campaigns().Get(f.ctx, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CampaignStatusActive, c.Status)
}

func TestPartialDeliveryOfSoldOutProductKeepsCampaignActive(t *testing.T) {
	f := newFixture(t)
	brand := f.user(models.UserTypeBrand)
	campaign := f.campaign(brand, models.CampaignStatusActive)
	product := f.product(campaign, "10", 10, 0)
	checkout := NewCheckoutService(f.store, nil, testCheckoutConfig)
	orders := NewOrderService(f.store)

	bulk, err := checkout.Checkout(f.ctx, nil, "", cart(product.ID, 9, ""))
	require.NoError(t, err)
	last, err := checkout.Checkout(f.ctx, nil, "", cart(product.ID, 1, ""))
	require.NoError(t, err)

	deliver(t, f, orders, bulk.ID)

	p, err := f.store.Products().Get(f.ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProductStatusOutOfStock, p.Status)

	c, err := f.store.Campaigns().Get(f.ctx, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CampaignStatusActive, c.Status)

	deliver(t, f, orders, last.ID)

	p, err = f.store.Products().Get(f.ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProductStatusInactive, p.Status)

	c, err = f.store.Campaigns().Get(f.ctx, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CampaignStatusCompleted, c.Status)
}

func TestRecheckCompletesCampaignOfInactiveProducts(t *testing.T) {
	f := newFixture(t)
	brand := f.user(models.UserTypeBrand)
	campaign := f.campaign(brand, models.CampaignStatusActive)
	product := f.product(campaign, "10", 1, 1)
	ok, err := f.store.Products().TransitionStatus(f.ctx, product.ID, []models.ProductStatus{models.ProductStatusActive}, models.ProductStatusInactive)
	require.NoError(t, err)
	require.True(t, ok)

	completion := NewCompletionService(f.store)

	result, err := completion.CheckProducts(f.ctx, []uuid.UUID{product.ID}, false)
	require.NoError(t, err)
	assert.Empty(t, result.CompletedCampaigns)

	result, err = completion.CheckProducts(f.ctx, []uuid.UUID{product.ID}, true)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{campaign.ID}, result.CompletedCampaigns)

	c, err := f.store.Campaigns().Get(f.ctx, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CompletionReasonSalesTarget, c.CompletionReason)
}

func TestUpdateOrderStatusRules(t *testing.T) {
	f := newFixture(t)
	brand := f.user(models.UserTypeBrand)
	stranger := f.user(models.UserTypeBrand)
	customer := f.user(models.UserTypeCustomer)
	campaign := f.campaign(brand, models.CampaignStatusActive)
	product := f.product(campaign, "10", 10, 0)
	checkout := NewCheckoutService(f.store, nil, testCheckoutConfig)
	orders := NewOrderService(f.store)

	order, err := checkout.Checkout(f.ctx, &customer.ID, "", cart(product.ID, 1, ""))
	require.NoError(t, err)

	_, err = orders.UpdateOrderStatus(f.ctx, stranger, order.ID, &UpdateOrderStatusRequest{Status: models.OrderStatusConfirmed})
	requireKind(t, err, utils.KindAccessDenied, "")

	_, err = orders.UpdateOrderStatus(f.ctx, customer, order.ID, &UpdateOrderStatusRequest{Status: models.OrderStatusConfirmed})
	requireKind(t, err, utils.KindAccessDenied, "")

	_, err = orders.UpdateOrderStatus(f.ctx, brand, order.ID, &UpdateOrderStatusRequest{Status: models.OrderStatusDelivered})
	requireKind(t, err, utils.KindStateConflict, "")

	cancelled, err := orders.UpdateOrderStatus(f.ctx, customer, order.ID, &UpdateOrderStatusRequest{Status: models.OrderStatusCancelled, Note: "Changed my mind"})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, cancelled.Status)

	_, err = orders.GetOrder(f.ctx, stranger, order.ID)
	requireKind(t, err, utils.KindAccessDenied, "")
	_, err = orders.GetOrder(f.ctx, brand, order.ID)
	require.NoError(t, err)
}
