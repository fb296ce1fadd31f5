// internal/services/payment_service_test.go
package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/imi-campaigns/internal/models"
	"github.com/javajoker/imi-campaigns/internal/utils"
)

type fakeGateway struct {
	status  string
	amounts []int64
	fail    bool
}

func (g *fakeGateway) CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*PaymentIntent, error) {
	if g.fail {
		return nil, errors.New("card network down")
	}
	g.amounts = append(g.amounts, amountCents)
	return &PaymentIntent{ID: "pi_" + metadata["order_number"], ClientSecret: "secret", Status: "requires_payment_method", Amount: amountCents}, nil
}

func (g *fakeGateway) GetIntent(ctx context.Context, id string) (*PaymentIntent, error) {
	return &PaymentIntent{ID: id, Status: g.status}, nil
}

func TestPaymentConfirmsOrder(t *testing.T) {
	f := newFixture(t)
	brand := f.user(models.UserTypeBrand)
	customer := f.user(models.UserTypeCustomer)
	campaign := f.campaign(brand, models.CampaignStatusActive)
	product := f.product(campaign, "19.999", 10, 0)
	order, err := NewCheckoutService(f.store, nil, testCheckoutConfig).Checkout(f.ctx, &customer.ID, "", cart(product.ID, 3, ""))
	require.NoError(t, err)

	gateway := &fakeGateway{status: "processing"}
	svc := NewPaymentService(f.store, gateway)

	_, err = svc.ConfirmPayment(f.ctx, &customer, order.ID)
	requireKind(t, err, utils.KindStateConflict, "No payment has been started")

	stranger := f.user(models.UserTypeCustomer)
	_, err = svc.CreatePaymentIntent(f.ctx, &stranger, order.ID)
	requireKind(t, err, utils.KindAccessDenied, "")

	intent, err := svc.CreatePaymentIntent(f.ctx, &customer, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.GrandTotal.Shift(2).Round(0).IntPart(), intent.Amount)
	assert.Equal(t, "usd", intent.Currency)

	_, err = svc.ConfirmPayment(f.ctx, &customer, order.ID)
	requireKind(t, err, utils.KindStateConflict, "not succeeded")

	gateway.status = "succeeded"
	confirmed, err := svc.ConfirmPayment(f.ctx, &customer, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, confirmed.Status)
	assert.Equal(t, intent.PaymentID, confirmed.PaymentReference)

	_, err = svc.CreatePaymentIntent(f.ctx, &customer, order.ID)
	requireKind(t, err, utils.KindStateConflict, "Only pending orders")
}

func TestPaymentGatewayFailure(t *testing.T) {
	f := newFixture(t)
	brand := f.user(models.UserTypeBrand)
	campaign := f.campaign(brand, models.CampaignStatusActive)
	product := f.product(campaign, "5", 10, 0)
	order, err := NewCheckoutService(f.store, nil, testCheckoutConfig).Checkout(f.ctx, nil, "", cart(product.ID, 1, ""))
	require.NoError(t, err)

	svc := NewPaymentService(f.store, &fakeGateway{fail: true})
	_, err = svc.CreatePaymentIntent(f.ctx, nil, order.ID)
	requireKind(t, err, utils.KindUpstreamFailure, "Failed to start payment")
}
