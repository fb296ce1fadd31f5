// internal/services/checkout_service_test.go
package services

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/imi-campaigns/internal/config"
	"github.com/javajoker/imi-campaigns/internal/models"
	"github.com/javajoker/imi-campaigns/internal/utils"
)

var testCheckoutConfig = config.CheckoutConfig{ShippingRate: 0.05, Currency: "usd", IdempotencyTTL: time.Hour}

func cart(productID uuid.UUID, qty int64, code string) *CheckoutRequest {
	return &CheckoutRequest{
		Items:         []CheckoutItem{{ProductID: productID, Quantity: qty}},
		CustomerName:  "Ada Buyer",
		CustomerEmail: "ada@example.com",
		ReferralCode:  code,
	}
}

func TestCheckoutAttributesCommission(t *testing.T) {
	f := newFixture(t)
	brand := f.user(models.UserTypeBrand)
	influencer := f.user(models.UserTypeInfluencer, func(u *models.User) { u.ReferralCode = ptr("ADA10") })
	campaign := f.campaign(brand, models.CampaignStatusActive)
	product := f.product(campaign, "19.999", 100, 0)
	svc := NewCheckoutService(f.store, nil, testCheckoutConfig)

	order, err := svc.Checkout(f.ctx, nil, "", cart(product.ID, 3, "ADA10"))
	require.NoError(t, err)

	assert.Equal(t, "59.997", order.Subtotal.StringFixed(3))
	assert.Equal(t, "6.000", order.CommissionAmount.StringFixed(3))
	assert.True(t, order.GrandTotal.Equal(order.Subtotal.Add(order.ShippingFee)))
	require.NotNil(t, order.InfluencerID)
	assert.Equal(t, influencer.ID, *order.InfluencerID)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	require.Len(t, order.StatusHistory, 1)

	stored, err := f.store.Campaigns().Get(f.ctx, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, "59.997", stored.Revenue.StringFixed(3))
	assert.Equal(t, "6.000", stored.CommissionTotal.StringFixed(3))
	assert.Equal(t, int64(3), stored.Conversions)

	collab, err := f.store.Collaborations().FindOpen(f.ctx, campaign.ID, influencer.ID)
	require.NoError(t, err)
	assert.Equal(t, "6.000", collab.CommissionEarned.StringFixed(3))

	p, err := f.store.Products().Get(f.ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), p.SoldQuantity)

	types := f.outboxTypes()
	assert.Contains(t, types, models.EventOrderStatusEmail)
	assert.Contains(t, types, models.EventNotificationRequested)
}

func TestCheckoutSelfReferralIsUnattributed(t *testing.T) {
	f := newFixture(t)
	brand := f.user(models.UserTypeBrand)
	influencer := f.user(models.UserTypeInfluencer, func(u *models.User) { u.ReferralCode = ptr("SELF") })
	campaign := f.campaign(brand, models.CampaignStatusActive)
	product := f.product(campaign, "10", 100, 0)
	svc := NewCheckoutService(f.store, nil, testCheckoutConfig)

	order, err := svc.Checkout(f.ctx, &influencer.ID, "", cart(product.ID, 1, "SELF"))
	require.NoError(t, err)
	assert.Nil(t, order.InfluencerID)
	assert.True(t, order.CommissionAmount.IsZero())

	// Unknown codes are ignored as well
	order, err = svc.Checkout(f.ctx, nil, "", cart(product.ID, 1, "NOPE"))
	require.NoError(t, err)
	assert.Nil(t, order.InfluencerID)

	stored, err := f.store.Campaigns().Get(f.ctx, campaign.ID)
	require.NoError(t, err)
	assert.True(t, stored.Revenue.Equal(decimal.NewFromInt(20)))
	assert.True(t, stored.CommissionTotal.IsZero())
}

func TestCheckoutRejectsUnavailableProducts(t *testing.T) {
	f := newFixture(t)
	brand := f.user(models.UserTypeBrand)
	campaign := f.campaign(brand, models.CampaignStatusActive)
	product := f.product(campaign, "10", 5, 4)
	svc := NewCheckoutService(f.store, nil, testCheckoutConfig)

	_, err := svc.Checkout(f.ctx, nil, "", cart(product.ID, 2, ""))
	requireKind(t, err, utils.KindValidation, "Insufficient stock")

	draft := f.campaign(brand, models.CampaignStatusDraft)
	paused := f.product(draft, "10", 5, 0)
	_, err = svc.Checkout(f.ctx, nil, "", cart(paused.ID, 1, ""))
	requireKind(t, err, utils.KindValidation, "active campaign")

	_, err = svc.Checkout(f.ctx, nil, "", cart(uuid.New(), 1, ""))
	requireKind(t, err, utils.KindNotFound, "Product")

	p, err := f.store.Products().Get(f.ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), p.SoldQuantity)
}

func TestCheckoutLastUnitOnlyOnce(t *testing.T) {
	f := newFixture(t)
	brand := f.user(models.UserTypeBrand)
	campaign := f.campaign(brand, models.CampaignStatusActive)
	product := f.product(campaign, "25", 1, 0)
	svc := NewCheckoutService(f.store, nil, testCheckoutConfig)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Checkout(f.ctx, nil, "", cart(product.ID, 1, ""))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		requireKind(t, err, utils.KindValidation, "Insufficient stock")
	}
	assert.Equal(t, 1, succeeded)

	p, err := f.store.Products().Get(f.ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.SoldQuantity)
	assert.Equal(t, models.ProductStatusOutOfStock, p.Status)
}

func TestCheckoutIdempotencyKey(t *testing.T) {
	f := newFixture(t)
	brand := f.user(models.UserTypeBrand)
	campaign := f.campaign(brand, models.CampaignStatusActive)
	product := f.product(campaign, "10", 100, 0)
	svc := NewCheckoutService(f.store, NewMemoryIdempotencyStore(), testCheckoutConfig)

	first, err := svc.Checkout(f.ctx, nil, "key-1", cart(product.ID, 2, ""))
	require.NoError(t, err)

	again, err := svc.Checkout(f.ctx, nil, "key-1", cart(product.ID, 2, ""))
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	_, err = svc.Checkout(f.ctx, nil, "key-1", cart(product.ID, 3, ""))
	requireKind(t, err, utils.KindValidation, "different checkout")

	p, err := f.store.Products().Get(f.ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), p.SoldQuantity)
}

func TestCheckoutIdempotencyKeyWithoutConfiguredTTL(t *testing.T) {
	f := newFixture(t)
	brand := f.user(models.UserTypeBrand)
	campaign := f.campaign(brand, models.CampaignStatusActive)
	product := f.product(campaign, "10", 100, 0)
	svc := NewCheckoutService(f.store, NewMemoryIdempotencyStore(), config.CheckoutConfig{ShippingRate: 0.05})
	assert.Equal(t, defaultIdempotencyTTL, svc.idempotencyTTL)

	first, err := svc.Checkout(f.ctx, nil, "key-3", cart(product.ID, 1, ""))
	require.NoError(t, err)
	again, err := svc.Checkout(f.ctx, nil, "key-3", cart(product.ID, 1, ""))
	require.NoError(t, err)
	assert.Equal(t, first.OrderNumber, again.OrderNumber)
}

func TestCheckoutFailureReleasesIdempotencyKey(t *testing.T) {
	f := newFixture(t)
	brand := f.user(models.UserTypeBrand)
	campaign := f.campaign(brand, models.CampaignStatusActive)
	product := f.product(campaign, "10", 1, 0)
	svc := NewCheckoutService(f.store, NewMemoryIdempotencyStore(), testCheckoutConfig)

	_, err := svc.Checkout(f.ctx, nil, "key-2", cart(product.ID, 2, ""))
	requireKind(t, err, utils.KindValidation, "Insufficient stock")

	// The failed attempt left no record, so the key is free again
	order, err := svc.Checkout(f.ctx, nil, "key-2", cart(product.ID, 1, ""))
	require.NoError(t, err)
	assert.Equal(t, int64(1), order.Items[0].Quantity)
}

func TestMergeItemsSortsAndSums(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	merged := mergeItems([]CheckoutItem{{ProductID: a, Quantity: 1}, {ProductID: b, Quantity: 2}, {ProductID: a, Quantity: 4}})
	require.Len(t, merged, 2)
	assert.True(t, merged[0].ProductID.String() < merged[1].ProductID.String())
	for _, item := range merged {
		if item.ProductID == a {
			assert.Equal(t, int64(5), item.Quantity)
		}
	}
}
