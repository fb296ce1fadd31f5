// internal/services/notification_service.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"github.com/javajoker/imi-campaigns/internal/config"
	"github.com/javajoker/imi-campaigns/internal/events"
	"github.com/javajoker/imi-campaigns/internal/models"
	"github.com/javajoker/imi-campaigns/internal/repository"
	"github.com/javajoker/imi-campaigns/internal/utils"
)

// EmailSender is satisfied by *gomail.Dialer.
type EmailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

type NotificationService struct {
	store    repository.Store
	sender   EmailSender
	email    config.EmailConfig
	frontend string
}

type EmailTemplate struct {
	Subject string
	Body    string
}

// NewNotificationService builds the service. A nil sender disables email.
func NewNotificationService(store repository.Store, sender EmailSender, email config.EmailConfig, frontendURL string) *NotificationService {
	return &NotificationService{
		store:    store,
		sender:   sender,
		email:    email,
		frontend: frontendURL,
	}
}

// NewSMTPSender returns nil when no SMTP host is configured.
func NewSMTPSender(cfg config.EmailConfig) EmailSender {
	if cfg.SMTPHost == "" {
		return nil
	}
	return gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
}

// Notify stores an in-app notification.
func (s *NotificationService) Notify(ctx context.Context, n events.NotificationRequested) (*models.Notification, error) {
	notification := &models.Notification{
		RecipientID:   n.RecipientID,
		RecipientType: n.RecipientType,
		Type:          n.Type,
		Title:         n.Title,
		Body:          n.Body,
		RelatedID:     n.RelatedID,
		Data:          n.Data,
		Status:        models.NotificationStatusUnread,
	}
	if err := s.store.Notifications().Create(ctx, notification); err != nil {
		return nil, fmt.Errorf("failed to store notification: %w", err)
	}
	return notification, nil
}

// HandleNotificationRequested consumes notification.requested events.
func (s *NotificationService) HandleNotificationRequested(ctx context.Context, payload []byte) error {
	event, err := events.Decode[events.NotificationRequested](payload)
	if err != nil {
		return err
	}
	_, err = s.Notify(ctx, event)
	return err
}

func (s *NotificationService) ListNotifications(ctx context.Context, actor Actor, params utils.PaginationParams) ([]models.Notification, int64, error) {
	notifications, total, err := s.store.Notifications().ListByRecipient(ctx, actor.ID, repository.Page{
		Limit:  params.Limit,
		Offset: params.Offset(),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, total, nil
}

// HandleOrderStatusEmail consumes order.status_email events.
func (s *NotificationService) HandleOrderStatusEmail(ctx context.Context, payload []byte) error {
	event, err := events.Decode[events.OrderStatusEmail](payload)
	if err != nil {
		return err
	}
	order, err := s.store.Orders().Get(ctx, event.OrderID)
	if err != nil {
		return fmt.Errorf("failed to load order %s: %w", event.OrderID, err)
	}
	return s.SendOrderStatusEmail(order, event.Status)
}

// SendOrderStatusEmail mails the customer about an order status.
func (s *NotificationService) SendOrderStatusEmail(order *models.Order, status models.OrderStatus) error {
	if s.sender == nil {
		logrus.WithFields(logrus.Fields{
			"order_id": order.ID,
			"status":   status,
		}).Debug("Email disabled, skipping order status email")
		return nil
	}

	tmpl := s.getEmailTemplate(status)
	data := map[string]interface{}{
		"CustomerName": order.CustomerName,
		"OrderNumber":  order.OrderNumber,
		"Status":       strings.ReplaceAll(string(status), "_", " "),
		"GrandTotal":   order.GrandTotal.StringFixed(3),
		"Currency":     strings.ToUpper(order.Currency),
		"Items":        order.Items,
		"OrderURL":     fmt.Sprintf("%s/orders/%s", s.frontend, order.ID),
	}

	subject, err := s.renderTemplate(tmpl.Subject, data)
	if err != nil {
		return fmt.Errorf("failed to render email subject: %w", err)
	}
	body, err := s.renderTemplate(tmpl.Body, data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return s.sendEmail(order.CustomerEmail, subject, body)
}

func (s *NotificationService) sendEmail(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.email.FromEmail, s.email.FromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (s *NotificationService) renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("email").Parse(templateStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (s *NotificationService) getEmailTemplate(status models.OrderStatus) EmailTemplate {
	switch status {
	case models.OrderStatusPending:
		return EmailTemplate{
			Subject: "We received your order {{.OrderNumber}}",
			Body: `<h2>Thank you, {{.CustomerName}}!</h2>
<p>Your order <strong>{{.OrderNumber}}</strong> was placed.</p>
<ul>{{range .Items}}<li>{{.Title}} x {{.Quantity}}</li>{{end}}</ul>
<p>Total: {{.GrandTotal}} {{.Currency}}</p>
<p><a href="{{.OrderURL}}">View your order</a></p>`,
		}
	case models.OrderStatusCancelled:
		return EmailTemplate{
			Subject: "Your order {{.OrderNumber}} was cancelled",
			Body: `<h2>Hello {{.CustomerName}},</h2>
<p>Your order <strong>{{.OrderNumber}}</strong> was cancelled.</p>`,
		}
	default:
		return EmailTemplate{
			Subject: "Your order {{.OrderNumber}} is {{.Status}}",
			Body: `<h2>Hello {{.CustomerName}},</h2>
<p>Your order <strong>{{.OrderNumber}}</strong> is now <strong>{{.Status}}</strong>.</p>
<p><a href="{{.OrderURL}}">Track your order</a></p>`,
		}
	}
}
