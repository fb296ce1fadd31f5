// internal/repository/postgres/products.go
package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/imi-campaigns/internal/lifecycle"
	"github.com/javajoker/imi-campaigns/internal/models"
	"github.com/javajoker/imi-campaigns/internal/repository"
)

type productRepo struct{ s *Store }

func (r *productRepo) Create(ctx context.Context, product *models.Product) error {
	return translate(r.s.conn(ctx).Create(product).Error)
}

func (r *productRepo) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.s.conn(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

func (r *productRepo) ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]models.Product, error) {
	var products []models.Product
	err := r.s.conn(ctx).Where("campaign_id = ?", campaignID).Order("created_at ASC").Find(&products).Error
	return products, err
}

func (r *productRepo) ReserveStock(ctx context.Context, id uuid.UUID, quantity int64) (*models.Product, error) {
	if quantity <= 0 {
		return nil, repository.ErrInsufficientStock
	}

	// Check and decrement in one statement so concurrent checkouts cannot
	// both pass the stock check
	res := r.s.conn(ctx).Model(&models.Product{}).
		Where("id = ? AND status = ?", id, models.ProductStatusActive).
		Where("(campaign_id IS NOT NULL AND target_quantity - sold_quantity >= ?) OR (campaign_id IS NULL AND stock_quantity >= ?)", quantity, quantity).
		Updates(map[string]interface{}{
			"sold_quantity":  gorm.Expr("sold_quantity + ?", quantity),
			"stock_quantity": gorm.Expr("CASE WHEN campaign_id IS NULL THEN stock_quantity - ? ELSE stock_quantity END", quantity),
		})
	ok, err := r.s.swapped(ctx, res, &models.Product{}, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, repository.ErrInsufficientStock
	}
	return r.Get(ctx, id)
}

func (r *productRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from []models.ProductStatus, to models.ProductStatus) (bool, error) {
	res := r.s.conn(ctx).Model(&models.Product{}).
		Where("id = ? AND status IN ?", id, from).
		Update("status", to)
	return r.s.swapped(ctx, res, &models.Product{}, id)
}

func (r *productRepo) CountOpenByCampaign(ctx context.Context, campaignID uuid.UUID) (int64, error) {
	var count int64
	err := r.s.conn(ctx).Model(&models.Product{}).
		Where("campaign_id = ? AND status NOT IN ?", campaignID, lifecycle.ClosedProductStatuses).
		Count(&count).Error
	return count, err
}
