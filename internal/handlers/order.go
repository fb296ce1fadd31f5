// internal/handlers/order.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/javajoker/imi-campaigns/internal/i18n"
	"github.com/javajoker/imi-campaigns/internal/middleware"
	"github.com/javajoker/imi-campaigns/internal/services"
	"github.com/javajoker/imi-campaigns/internal/utils"
)

const idempotencyHeader = "Idempotency-Key"

type OrderHandler struct {
	checkoutService *services.CheckoutService
	orderService    *services.OrderService
}

func NewOrderHandler(checkoutService *services.CheckoutService, orderService *services.OrderService) *OrderHandler {
	return &OrderHandler{
		checkoutService: checkoutService,
		orderService:    orderService,
	}
}

// POST /v1/checkout
// Guests may check out; a signed in customer is recorded on the order.
func (h *OrderHandler) Checkout(c *gin.Context) {
	var req services.CheckoutRequest
	if !bindJSON(c, &req) {
		return
	}

	var customerID *uuid.UUID
	if actor := middleware.OptionalActor(c); actor != nil {
		customerID = &actor.ID
	}

	order, err := h.checkoutService.Checkout(c.Request.Context(), customerID, c.GetHeader(idempotencyHeader), &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": message(c, i18n.KeyOrderPlaced),
		"order":   order,
	})
}

// GET /v1/orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "order")
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), actor, id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, order)
}

// PUT /v1/orders/:id/status
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "order")
	if !ok {
		return
	}

	var req services.UpdateOrderStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.orderService.UpdateOrderStatus(c.Request.Context(), actor, id, &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": message(c, i18n.KeyOrderStatusUpdated),
		"order":   order,
	})
}
