// internal/handlers/collaboration.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/imi-campaigns/internal/i18n"
	"github.com/javajoker/imi-campaigns/internal/services"
	"github.com/javajoker/imi-campaigns/internal/utils"
)

type CollaborationHandler struct {
	collaborationService *services.CollaborationService
}

func NewCollaborationHandler(collaborationService *services.CollaborationService) *CollaborationHandler {
	return &CollaborationHandler{collaborationService: collaborationService}
}

// GET /v1/collaborations/:id
func (h *CollaborationHandler) GetCollaboration(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "collaboration")
	if !ok {
		return
	}

	collaboration, err := h.collaborationService.GetCollaboration(c.Request.Context(), actor, id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, collaboration)
}

// PUT /v1/collaborations/:id/respond
func (h *CollaborationHandler) Respond(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "collaboration")
	if !ok {
		return
	}

	var req services.RespondRequest
	if !bindJSON(c, &req) {
		return
	}

	collaboration, err := h.collaborationService.RespondToCollaboration(c.Request.Context(), actor, id, &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":       message(c, i18n.KeyCollaborationResponded),
		"collaboration": collaboration,
	})
}

// GET /v1/collaborations/:id/deliverables/:deliverableId
func (h *CollaborationHandler) GetDeliverable(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "collaboration")
	if !ok {
		return
	}
	deliverableID, ok := pathID(c, "deliverableId", "deliverable")
	if !ok {
		return
	}

	deliverable, err := h.collaborationService.FindDeliverable(c.Request.Context(), actor, id, deliverableID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, deliverable)
}

// PUT /v1/collaborations/:id/deliverables
func (h *CollaborationHandler) UpdateDeliverables(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "collaboration")
	if !ok {
		return
	}

	var req services.BulkUpdateDeliverablesRequest
	if !bindJSON(c, &req) {
		return
	}

	deliverables, err := h.collaborationService.BulkUpdateDeliverables(c.Request.Context(), actor, id, &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":      message(c, i18n.KeyDeliverablesUpdated),
		"deliverables": deliverables,
	})
}
