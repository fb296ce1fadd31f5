// internal/services/notification_service_test.go
package services

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/javajoker/imi-campaigns/internal/config"
	"github.com/javajoker/imi-campaigns/internal/events"
	"github.com/javajoker/imi-campaigns/internal/models"
	"github.com/javajoker/imi-campaigns/internal/utils"
)

type recordingSender struct {
	messages []*gomail.Message
}

func (r *recordingSender) DialAndSend(m ...*gomail.Message) error {
	r.messages = append(r.messages, m...)
	return nil
}

func TestHandleNotificationRequested(t *testing.T) {
	f := newFixture(t)
	brand := f.user(models.UserTypeBrand)
	svc := NewNotificationService(f.store, nil, config.EmailConfig{}, "http://localhost:3000")

	payload, err := json.Marshal(events.NotificationRequested{
		RecipientID:   brand.ID,
		RecipientType: models.UserTypeBrand,
		Type:          models.NotificationContentSubmitted,
		Title:         "New content to review",
	})
	require.NoError(t, err)
	require.NoError(t, svc.HandleNotificationRequested(f.ctx, payload))

	list, total, err := svc.ListNotifications(f.ctx, brand, utils.PaginationParams{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, models.NotificationStatusUnread, list[0].Status)
	assert.Equal(t, "New content to review", list[0].Title)
}

func TestOrderStatusEmail(t *testing.T) {
	f := newFixture(t)
	brand := f.user(models.UserTypeBrand)
	campaign := f.campaign(brand, models.CampaignStatusActive)
	product := f.product(campaign, "10", 10, 0)
	order, err := NewCheckoutService(f.store, nil, testCheckoutConfig).Checkout(f.ctx, nil, "", cart(product.ID, 1, ""))
	require.NoError(t, err)

	sender := &recordingSender{}
	svc := NewNotificationService(f.store, sender, config.EmailConfig{FromEmail: "shop@example.com", FromName: "Shop"}, "http://localhost:3000")

	payload, err := json.Marshal(events.OrderStatusEmail{OrderID: order.ID, Status: models.OrderStatusShipped})
	require.NoError(t, err)
	require.NoError(t, svc.HandleOrderStatusEmail(f.ctx, payload))

	require.Len(t, sender.messages, 1)
	assert.Equal(t, []string{"ada@example.com"}, sender.messages[0].GetHeader("To"))
	assert.Contains(t, sender.messages[0].GetHeader("Subject")[0], order.OrderNumber)
}

func TestOrderStatusEmailDisabled(t *testing.T) {
	svc := NewNotificationService(nil, nil, config.EmailConfig{}, "")
	assert.Nil(t, NewSMTPSender(config.EmailConfig{}))
	require.NoError(t, svc.SendOrderStatusEmail(&models.Order{CustomerEmail: "x@example.com"}, models.OrderStatusDelivered))
}

func TestMemoryIdempotencyStore(t *testing.T) {
	store := NewMemoryIdempotencyStore()
	ctx := newFixture(t).ctx

	existing, reserved, err := store.Reserve(ctx, "k", "fp", time.Minute)
	require.NoError(t, err)
	assert.True(t, reserved)
	assert.Nil(t, existing)

	existing, reserved, err = store.Reserve(ctx, "k", "fp", time.Minute)
	require.NoError(t, err)
	assert.False(t, reserved)
	assert.Empty(t, existing.OrderID)

	require.NoError(t, store.Complete(ctx, "k", IdempotencyRecord{Fingerprint: "fp", OrderID: "abc"}, time.Minute))
	existing, _, err = store.Reserve(ctx, "k", "fp", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "abc", existing.OrderID)

	require.NoError(t, store.Release(ctx, "k"))
	_, reserved, err = store.Reserve(ctx, "k", "fp", time.Minute)
	require.NoError(t, err)
	assert.True(t, reserved)
}
