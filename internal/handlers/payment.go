// internal/handlers/payment.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/imi-campaigns/internal/i18n"
	"github.com/javajoker/imi-campaigns/internal/middleware"
	"github.com/javajoker/imi-campaigns/internal/services"
	"github.com/javajoker/imi-campaigns/internal/utils"
)

// PaymentHandler is mounted with optional auth: guest orders are paid
// without an account.
type PaymentHandler struct {
	paymentService *services.PaymentService
}

func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// POST /v1/orders/:id/payment-intent
func (h *PaymentHandler) CreatePaymentIntent(c *gin.Context) {
	orderID, ok := pathID(c, "id", "order")
	if !ok {
		return
	}

	// Create payment intent
	response, err := h.paymentService.CreatePaymentIntent(c.Request.Context(), middleware.OptionalActor(c), orderID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, response)
}

// POST /v1/orders/:id/payment-confirm
func (h *PaymentHandler) ConfirmPayment(c *gin.Context) {
	orderID, ok := pathID(c, "id", "order")
	if !ok {
		return
	}

	order, err := h.paymentService.ConfirmPayment(c.Request.Context(), middleware.OptionalActor(c), orderID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": message(c, i18n.KeyPaymentConfirmed),
		"order":   order,
	})
}
