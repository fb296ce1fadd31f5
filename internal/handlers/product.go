// internal/handlers/product.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/imi-campaigns/internal/i18n"
	"github.com/javajoker/imi-campaigns/internal/services"
	"github.com/javajoker/imi-campaigns/internal/utils"
)

type ProductHandler struct {
	productService *services.ProductService
}

func NewProductHandler(productService *services.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// POST /v1/campaigns/:id/products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	campaignID, ok := pathID(c, "id", "campaign")
	if !ok {
		return
	}

	var req services.CreateProductRequest
	if !bindJSON(c, &req) {
		return
	}
	req.CampaignID = &campaignID

	product, err := h.productService.CreateProduct(c.Request.Context(), actor, &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": message(c, i18n.KeyProductCreated),
		"product": product,
	})
}

// GET /v1/campaigns/:id/products
func (h *ProductHandler) ListCampaignProducts(c *gin.Context) {
	campaignID, ok := pathID(c, "id", "campaign")
	if !ok {
		return
	}

	products, err := h.productService.ListCampaignProducts(c.Request.Context(), campaignID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"products": products})
}

// GET /v1/products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := pathID(c, "id", "product")
	if !ok {
		return
	}

	product, err := h.productService.GetProduct(c.Request.Context(), id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, product)
}
