// internal/handlers/notification.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/imi-campaigns/internal/services"
	"github.com/javajoker/imi-campaigns/internal/utils"
)

type NotificationHandler struct {
	notificationService *services.NotificationService
}

func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// GET /v1/notifications
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	params := utils.GetPaginationParams(c)

	notifications, total, err := h.notificationService.ListNotifications(c.Request.Context(), actor, params)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(notifications, total, params))
}
