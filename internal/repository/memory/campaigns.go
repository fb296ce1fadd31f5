// internal/repository/memory/campaigns.go
package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/javajoker/imi-campaigns/internal/models"
	"github.com/javajoker/imi-campaigns/internal/repository"
)

type campaignRepo struct{ s *Store }

func (r *campaignRepo) Create(ctx context.Context, campaign *models.Campaign) error {
	defer r.s.lock()()

	r.s.stamp(&campaign.BaseModel)
	stored := *campaign
	stored.Products = nil
	r.s.state.campaigns[campaign.ID] = stored
	return nil
}

func (r *campaignRepo) Get(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	defer r.s.lock()()

	c, ok := r.s.state.campaigns[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r *campaignRepo) ListByStatus(ctx context.Context, status models.CampaignStatus, brandID *uuid.UUID) ([]models.Campaign, error) {
	defer r.s.lock()()

	var out []models.Campaign
	for _, c := range r.s.state.campaigns {
		if c.Status != status {
			continue
		}
		if brandID != nil && c.BrandID != *brandID {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *campaignRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from []models.CampaignStatus, to models.CampaignStatus, reason models.CompletionReason, at time.Time) (bool, error) {
	defer r.s.lock()()

	c, ok := r.s.state.campaigns[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	if !contains(from, c.Status) {
		return false, nil
	}
	c.Status = to
	if to == models.CampaignStatusCompleted {
		c.CompletedAt = &at
		c.CompletionReason = reason
	}
	r.s.touch(&c.BaseModel)
	r.s.state.campaigns[id] = c
	return true, nil
}

func (r *campaignRepo) AddSales(ctx context.Context, id uuid.UUID, revenue, commission decimal.Decimal, conversions int64) error {
	defer r.s.lock()()

	c, ok := r.s.state.campaigns[id]
	if !ok {
		return repository.ErrNotFound
	}
	c.Revenue = c.Revenue.Add(revenue)
	c.CommissionTotal = c.CommissionTotal.Add(commission)
	c.Conversions += conversions
	r.s.touch(&c.BaseModel)
	r.s.state.campaigns[id] = c
	return nil
}

func (r *campaignRepo) UpdateMetrics(ctx context.Context, id uuid.UUID, metrics repository.CampaignMetrics) error {
	defer r.s.lock()()

	c, ok := r.s.state.campaigns[id]
	if !ok {
		return repository.ErrNotFound
	}
	c.TotalViews = metrics.TotalViews
	c.TotalClicks = metrics.TotalClicks
	c.ApprovedContentCount = metrics.ApprovedContentCount
	r.s.touch(&c.BaseModel)
	r.s.state.campaigns[id] = c
	return nil
}

func contains[S comparable](set []S, s S) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
