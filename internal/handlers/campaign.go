// internal/handlers/campaign.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/imi-campaigns/internal/i18n"
	"github.com/javajoker/imi-campaigns/internal/services"
	"github.com/javajoker/imi-campaigns/internal/utils"
)

type CampaignHandler struct {
	campaignService      *services.CampaignService
	collaborationService *services.CollaborationService
	contentService       *services.ContentService
}

func NewCampaignHandler(campaignService *services.CampaignService, collaborationService *services.CollaborationService, contentService *services.ContentService) *CampaignHandler {
	return &CampaignHandler{
		campaignService:      campaignService,
		collaborationService: collaborationService,
		contentService:       contentService,
	}
}

// POST /v1/campaigns
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req services.CreateCampaignRequest
	if !bindJSON(c, &req) {
		return
	}

	campaign, err := h.campaignService.CreateCampaign(c.Request.Context(), actor, &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":  message(c, i18n.KeyCampaignCreated),
		"campaign": campaign,
	})
}

// GET /v1/campaigns/:id
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	id, ok := pathID(c, "id", "campaign")
	if !ok {
		return
	}

	campaign, err := h.campaignService.GetCampaign(c.Request.Context(), id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, campaign)
}

// PUT /v1/campaigns/:id/status
func (h *CampaignHandler) UpdateCampaignStatus(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "campaign")
	if !ok {
		return
	}

	var req services.UpdateCampaignStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	campaign, err := h.campaignService.UpdateCampaignStatus(c.Request.Context(), actor, id, &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":  message(c, i18n.KeyCampaignStatusUpdated),
		"campaign": campaign,
	})
}

// GET /v1/campaigns/:id/collaborations
func (h *CampaignHandler) ListCollaborations(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "campaign")
	if !ok {
		return
	}

	collaborations, err := h.collaborationService.ListCampaignCollaborations(c.Request.Context(), actor, id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"collaborations": collaborations})
}

// POST /v1/campaigns/:id/apply
func (h *CampaignHandler) Apply(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "campaign")
	if !ok {
		return
	}

	var req services.ApplyToCampaignRequest
	if !bindJSON(c, &req) {
		return
	}

	collaboration, err := h.collaborationService.ApplyToCampaign(c.Request.Context(), actor, id, &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":       message(c, i18n.KeyCollaborationApplied),
		"collaboration": collaboration,
	})
}

// POST /v1/campaigns/:id/invite
func (h *CampaignHandler) Invite(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "campaign")
	if !ok {
		return
	}

	var req services.InviteInfluencerRequest
	if !bindJSON(c, &req) {
		return
	}

	collaboration, err := h.collaborationService.InviteInfluencer(c.Request.Context(), actor, id, &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":       message(c, i18n.KeyCollaborationInvited),
		"collaboration": collaboration,
	})
}

// GET /v1/campaigns/:id/content
func (h *CampaignHandler) ListContent(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "campaign")
	if !ok {
		return
	}

	contents, err := h.contentService.ListCampaignContent(c.Request.Context(), actor, id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"contents": contents})
}

// POST /v1/campaigns/completion/progress
func (h *CampaignHandler) CompleteByProgress(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	result, err := h.campaignService.CompleteCampaignsByProgress(c.Request.Context(), actor)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": message(c, i18n.KeyCampaignsCompleted),
		"result":  result,
	})
}
