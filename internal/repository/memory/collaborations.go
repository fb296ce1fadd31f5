// internal/repository/memory/collaborations.go
package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/javajoker/imi-campaigns/internal/models"
	"github.com/javajoker/imi-campaigns/internal/repository"
)

type collaborationRepo struct{ s *Store }

func (r *collaborationRepo) findOpen(campaignID, influencerID uuid.UUID) (models.Collaboration, bool) {
	for _, c := range r.s.state.collaborations {
		if c.CampaignID == campaignID && c.InfluencerID == influencerID && c.Status != models.CollaborationStatusCancelled {
			return c, true
		}
	}
	return models.Collaboration{}, false
}

func (r *collaborationRepo) Create(ctx context.Context, collab *models.Collaboration) error {
	defer r.s.lock()()

	if _, exists := r.findOpen(collab.CampaignID, collab.InfluencerID); exists {
		return repository.ErrDuplicate
	}
	r.s.stamp(&collab.BaseModel)
	stored := *collab
	stored.Deliverables = nil
	r.s.state.collaborations[collab.ID] = stored
	return nil
}

func (r *collaborationRepo) Get(ctx context.Context, id uuid.UUID) (*models.Collaboration, error) {
	defer r.s.lock()()

	c, ok := r.s.state.collaborations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

// GetForUpdate needs no extra locking here; transactions are serial.
func (r *collaborationRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Collaboration, error) {
	return r.Get(ctx, id)
}

func (r *collaborationRepo) FindOpen(ctx context.Context, campaignID, influencerID uuid.UUID) (*models.Collaboration, error) {
	defer r.s.lock()()

	c, ok := r.findOpen(campaignID, influencerID)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r *collaborationRepo) ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]models.Collaboration, error) {
	defer r.s.lock()()

	var out []models.Collaboration
	for _, c := range r.s.state.collaborations {
		if c.CampaignID == campaignID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *collaborationRepo) CountByInfluencer(ctx context.Context, influencerID uuid.UUID, statuses []models.CollaborationStatus) (int64, error) {
	defer r.s.lock()()

	var n int64
	for _, c := range r.s.state.collaborations {
		if c.InfluencerID == influencerID && contains(statuses, c.Status) {
			n++
		}
	}
	return n, nil
}

func (r *collaborationRepo) CountByCampaign(ctx context.Context, campaignID uuid.UUID, statuses []models.CollaborationStatus) (int64, error) {
	defer r.s.lock()()

	var n int64
	for _, c := range r.s.state.collaborations {
		if c.CampaignID == campaignID && contains(statuses, c.Status) {
			n++
		}
	}
	return n, nil
}

func (r *collaborationRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from, to models.CollaborationStatus) (bool, error) {
	defer r.s.lock()()

	c, ok := r.s.state.collaborations[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	if c.Status != from {
		return false, nil
	}
	c.Status = to
	r.s.touch(&c.BaseModel)
	r.s.state.collaborations[id] = c
	return true, nil
}

func (r *collaborationRepo) SetProgress(ctx context.Context, id uuid.UUID, progress int) error {
	defer r.s.lock()()

	c, ok := r.s.state.collaborations[id]
	if !ok {
		return repository.ErrNotFound
	}
	c.Progress = progress
	r.s.touch(&c.BaseModel)
	r.s.state.collaborations[id] = c
	return nil
}

func (r *collaborationRepo) AddSales(ctx context.Context, sales repository.CollaborationSales) error {
	defer r.s.lock()()

	c, ok := r.findOpen(sales.CampaignID, sales.InfluencerID)
	if !ok {
		c = models.Collaboration{
			CampaignID:       sales.CampaignID,
			InfluencerID:     sales.InfluencerID,
			Status:           models.CollaborationStatusActive,
			Revenue:          decimal.Zero,
			CommissionEarned: decimal.Zero,
		}
		r.s.stamp(&c.BaseModel)
	}
	c.Revenue = c.Revenue.Add(sales.Revenue)
	c.CommissionEarned = c.CommissionEarned.Add(sales.Commission)
	c.Conversions += sales.Conversions
	r.s.touch(&c.BaseModel)
	r.s.state.collaborations[c.ID] = c
	return nil
}

func (r *collaborationRepo) DeleteByInfluencer(ctx context.Context, influencerID uuid.UUID) ([]uuid.UUID, error) {
	defer r.s.lock()()

	var ids []uuid.UUID
	for id, c := range r.s.state.collaborations {
		if c.InfluencerID == influencerID {
			ids = append(ids, id)
			delete(r.s.state.collaborations, id)
		}
	}
	return ids, nil
}
