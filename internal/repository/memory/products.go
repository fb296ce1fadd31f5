// internal/repository/memory/products.go
package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/javajoker/imi-campaigns/internal/lifecycle"
	"github.com/javajoker/imi-campaigns/internal/models"
	"github.com/javajoker/imi-campaigns/internal/repository"
)

type productRepo struct{ s *Store }

func (r *productRepo) Create(ctx context.Context, product *models.Product) error {
	defer r.s.lock()()

	r.s.stamp(&product.BaseModel)
	r.s.state.products[product.ID] = *product
	return nil
}

func (r *productRepo) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	defer r.s.lock()()

	p, ok := r.s.state.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *productRepo) ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]models.Product, error) {
	defer r.s.lock()()

	var out []models.Product
	for _, p := range r.s.state.products {
		if p.CampaignID != nil && *p.CampaignID == campaignID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *productRepo) ReserveStock(ctx context.Context, id uuid.UUID, quantity int64) (*models.Product, error) {
	defer r.s.lock()()

	p, ok := r.s.state.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if p.Status != models.ProductStatusActive || quantity <= 0 || p.AvailableStock() < quantity {
		return nil, repository.ErrInsufficientStock
	}
	p.SoldQuantity += quantity
	if !p.IsCampaignProduct() {
		p.StockQuantity -= quantity
	}
	r.s.touch(&p.BaseModel)
	r.s.state.products[id] = p
	return &p, nil
}

func (r *productRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from []models.ProductStatus, to models.ProductStatus) (bool, error) {
	defer r.s.lock()()

	p, ok := r.s.state.products[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	if !contains(from, p.Status) {
		return false, nil
	}
	p.Status = to
	r.s.touch(&p.BaseModel)
	r.s.state.products[id] = p
	return true, nil
}

func (r *productRepo) CountOpenByCampaign(ctx context.Context, campaignID uuid.UUID) (int64, error) {
	defer r.s.lock()()

	var n int64
	for _, p := range r.s.state.products {
		if p.CampaignID != nil && *p.CampaignID == campaignID && !lifecycle.IsProductClosed(p.Status) {
			n++
		}
	}
	return n, nil
}
