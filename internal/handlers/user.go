// internal/handlers/user.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/imi-campaigns/internal/i18n"
	"github.com/javajoker/imi-campaigns/internal/services"
	"github.com/javajoker/imi-campaigns/internal/utils"
)

type UserHandler struct {
	userService          *services.UserService
	collaborationService *services.CollaborationService
}

func NewUserHandler(userService *services.UserService, collaborationService *services.CollaborationService) *UserHandler {
	return &UserHandler{
		userService:          userService,
		collaborationService: collaborationService,
	}
}

// POST /v1/users/me
func (h *UserHandler) RegisterProfile(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req services.RegisterProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.RegisterProfile(c.Request.Context(), actor, c.GetString("username"), &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": message(c, i18n.KeyUserRegistered),
		"user":    user,
	})
}

// GET /v1/users/me
func (h *UserHandler) GetProfile(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	user, err := h.userService.GetUserByID(c.Request.Context(), actor.ID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, user)
}

// PUT /v1/users/me
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req services.UpdateUserProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), actor, &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": message(c, i18n.KeyUserProfileUpdated),
		"user":    user,
	})
}

// GET /v1/users/:id
func (h *UserHandler) GetPublicProfile(c *gin.Context) {
	id, ok := pathID(c, "id", "user")
	if !ok {
		return
	}

	user, err := h.userService.GetPublicProfile(c.Request.Context(), id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, user)
}

// DELETE /v1/users/:id/collaborations
// Removes an influencer with their collaborations and deliverables.
func (h *UserHandler) RemoveInfluencer(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "user")
	if !ok {
		return
	}

	if err := h.collaborationService.RemoveInfluencerAccount(c.Request.Context(), actor, id); err != nil {
		utils.HandleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
