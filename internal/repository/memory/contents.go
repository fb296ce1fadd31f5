// internal/repository/memory/contents.go
package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/javajoker/imi-campaigns/internal/models"
	"github.com/javajoker/imi-campaigns/internal/repository"
)

type contentRepo struct{ s *Store }

func (r *contentRepo) Create(ctx context.Context, content *models.Content) error {
	defer r.s.lock()()

	r.s.stamp(&content.BaseModel)
	r.s.state.contents[content.ID] = *content
	return nil
}

func (r *contentRepo) Get(ctx context.Context, id uuid.UUID) (*models.Content, error) {
	defer r.s.lock()()

	c, ok := r.s.state.contents[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r *contentRepo) ListByCampaign(ctx context.Context, campaignID uuid.UUID, influencerID *uuid.UUID) ([]models.Content, error) {
	defer r.s.lock()()

	var out []models.Content
	for _, c := range r.s.state.contents {
		if c.CampaignID != campaignID {
			continue
		}
		if influencerID != nil && c.InfluencerID != *influencerID {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *contentRepo) CompareAndSwap(ctx context.Context, id uuid.UUID, expected models.ReviewStatus, update repository.ContentUpdate) (bool, error) {
	defer r.s.lock()()

	c, ok := r.s.state.contents[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	if c.Status != expected {
		return false, nil
	}
	c.Status = update.Status
	if update.ReviewFeedback != nil {
		c.ReviewFeedback = *update.ReviewFeedback
	}
	if update.ReviewedBy != nil {
		c.ReviewedBy = update.ReviewedBy
	}
	if update.ReviewedAt != nil {
		c.ReviewedAt = update.ReviewedAt
	}
	if update.PublishedAt != nil {
		c.PublishedAt = update.PublishedAt
	}
	if update.ExternalPostURL != nil {
		c.ExternalPostURL = *update.ExternalPostURL
	}
	r.s.touch(&c.BaseModel)
	r.s.state.contents[id] = c
	return true, nil
}

func (r *contentRepo) AddPerformance(ctx context.Context, id uuid.UUID, views, clicks int64) error {
	defer r.s.lock()()

	c, ok := r.s.state.contents[id]
	if !ok {
		return repository.ErrNotFound
	}
	c.Views += views
	c.Clicks += clicks
	r.s.touch(&c.BaseModel)
	r.s.state.contents[id] = c
	return nil
}

func (r *contentRepo) CampaignStats(ctx context.Context, campaignID uuid.UUID) (repository.ContentStats, error) {
	defer r.s.lock()()

	var stats repository.ContentStats
	for _, c := range r.s.state.contents {
		if c.CampaignID != campaignID {
			continue
		}
		stats.Views += c.Views
		stats.Clicks += c.Clicks
		if c.Status == models.ReviewStatusApproved || c.Status == models.ReviewStatusPublished {
			stats.Approved++
		}
	}
	return stats, nil
}
