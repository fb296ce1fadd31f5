// internal/handlers/admin.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/javajoker/imi-campaigns/internal/i18n"
	"github.com/javajoker/imi-campaigns/internal/services"
	"github.com/javajoker/imi-campaigns/internal/utils"
)

// AdminHandler exposes operator tooling. Routes are mounted behind
// AdminRequired.
type AdminHandler struct {
	completionService *services.CompletionService
}

type SalesTargetCheckRequest struct {
	ProductIDs []uuid.UUID `json:"product_ids"`
	// Recheck also completes campaigns of products that were already
	// inactive before this run.
	Recheck bool `json:"recheck"`
}

func NewAdminHandler(completionService *services.CompletionService) *AdminHandler {
	return &AdminHandler{completionService: completionService}
}

// POST /v1/admin/completion/sales-target
// Reruns the sales target cascade for the given products, e.g. after a
// delivery whose cascade lost a race.
func (h *AdminHandler) CheckSalesTargets(c *gin.Context) {
	var req SalesTargetCheckRequest
	if !bindJSON(c, &req) {
		return
	}
	if len(req.ProductIDs) == 0 {
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationRequired, "product_ids"), nil)
		return
	}

	result, err := h.completionService.CheckProducts(c.Request.Context(), req.ProductIDs, req.Recheck)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": message(c, i18n.KeyCampaignsCompleted),
		"result":  result,
	})
}
