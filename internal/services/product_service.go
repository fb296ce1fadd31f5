// internal/services/product_service.go
package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/imi-campaigns/internal/models"
	"github.com/javajoker/imi-campaigns/internal/pricing"
	"github.com/javajoker/imi-campaigns/internal/repository"
	"github.com/javajoker/imi-campaigns/internal/utils"
)

type ProductService struct {
	store repository.Store
}

type CreateProductRequest struct {
	CampaignID     *uuid.UUID      `json:"campaign_id,omitempty"`
	Title          string          `json:"title" validate:"required,min=3,max=255"`
	Description    string          `json:"description" validate:"max=5000"`
	Price          decimal.Decimal `json:"price" validate:"gt=0"`
	CampaignPrice  decimal.Decimal `json:"campaign_price" validate:"gte=0"`
	TargetQuantity int64           `json:"target_quantity" validate:"min=0"`
	StockQuantity  int64           `json:"stock_quantity" validate:"min=0"`
	Images         []string        `json:"images,omitempty" validate:"max=20,dive,url"`
}

func NewProductService(store repository.Store) *ProductService {
	return &ProductService{store: store}
}

// CreateProduct adds a product under a campaign or a standalone one.
// Campaign products sell up to their target quantity and start active
// only when the campaign already is.
func (s *ProductService) CreateProduct(ctx context.Context, actor Actor, req *CreateProductRequest) (*models.Product, error) {
	if !actor.Is(models.UserTypeBrand) && !actor.IsAdmin() {
		return nil, utils.AccessDenied("Only brands can create products")
	}
	if err := utils.ValidateRequest(req); err != nil {
		return nil, err
	}

	product := &models.Product{
		BrandID:       actor.ID,
		CampaignID:    req.CampaignID,
		Title:         req.Title,
		Description:   req.Description,
		Price:         pricing.Round3(req.Price),
		CampaignPrice: pricing.Round3(req.CampaignPrice),
		Images:        req.Images,
		Status:        models.ProductStatusActive,
	}

	if req.CampaignID != nil {
		campaign, err := ownedCampaign(ctx, s.store, actor, *req.CampaignID)
		if err != nil {
			return nil, err
		}
		switch campaign.Status {
		case models.CampaignStatusCompleted, models.CampaignStatusCancelled:
			return nil, utils.StateConflict("Campaign is closed")
		case models.CampaignStatusActive:
		default:
			product.Status = models.ProductStatusDraft
		}
		if req.TargetQuantity <= 0 {
			return nil, utils.Validation("Campaign products need a positive target quantity")
		}
		product.BrandID = campaign.BrandID
		product.TargetQuantity = req.TargetQuantity
		if !product.CampaignPrice.IsPositive() {
			product.CampaignPrice = product.Price
		}
	} else {
		product.StockQuantity = req.StockQuantity
	}

	if err := s.store.Products().Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"product_id":  product.ID,
		"campaign_id": product.CampaignID,
		"status":      product.Status,
	}).Info("Product created")
	return product, nil
}

func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.store.Products().Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "Product")
	}
	return product, nil
}

func (s *ProductService) ListCampaignProducts(ctx context.Context, campaignID uuid.UUID) ([]models.Product, error) {
	if _, err := loadCampaign(ctx, s.store, campaignID); err != nil {
		return nil, err
	}
	products, err := s.store.Products().ListByCampaign(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}
