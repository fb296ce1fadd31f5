// internal/repository/memory/deliverables.go
package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/javajoker/imi-campaigns/internal/models"
	"github.com/javajoker/imi-campaigns/internal/repository"
)

type deliverableRepo struct{ s *Store }

func (r *deliverableRepo) CreateBatch(ctx context.Context, deliverables []models.Deliverable) error {
	defer r.s.lock()()

	taken := make(map[uuid.UUID]map[int]bool)
	for _, d := range r.s.state.deliverables {
		if taken[d.CollaborationID] == nil {
			taken[d.CollaborationID] = map[int]bool{}
		}
		taken[d.CollaborationID][d.Position] = true
	}
	for _, d := range deliverables {
		if taken[d.CollaborationID][d.Position] {
			return repository.ErrDuplicate
		}
		if taken[d.CollaborationID] == nil {
			taken[d.CollaborationID] = map[int]bool{}
		}
		taken[d.CollaborationID][d.Position] = true
	}

	for i := range deliverables {
		r.s.stamp(&deliverables[i].BaseModel)
		if deliverables[i].Status == "" {
			deliverables[i].Status = models.ReviewStatusPending
		}
		r.s.state.deliverables[deliverables[i].ID] = deliverables[i]
	}
	return nil
}

func (r *deliverableRepo) ListByCollaboration(ctx context.Context, collaborationID uuid.UUID) ([]models.Deliverable, error) {
	defer r.s.lock()()

	var out []models.Deliverable
	for _, d := range r.s.state.deliverables {
		if d.CollaborationID == collaborationID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r *deliverableRepo) Get(ctx context.Context, collaborationID, id uuid.UUID) (*models.Deliverable, error) {
	defer r.s.lock()()

	d, ok := r.s.state.deliverables[id]
	if !ok || d.CollaborationID != collaborationID {
		return nil, repository.ErrNotFound
	}
	return &d, nil
}

func (r *deliverableRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Deliverable, error) {
	defer r.s.lock()()

	d, ok := r.s.state.deliverables[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &d, nil
}

func (r *deliverableRepo) CompareAndSwap(ctx context.Context, id uuid.UUID, expected models.ReviewStatus, update repository.DeliverableUpdate) (bool, error) {
	defer r.s.lock()()

	d, ok := r.s.state.deliverables[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	if d.Status != expected {
		return false, nil
	}
	d.Status = update.Status
	if update.ContentURL != nil {
		d.ContentURL = *update.ContentURL
	}
	if update.SubmittedAt != nil {
		d.SubmittedAt = update.SubmittedAt
	}
	if update.ReviewedAt != nil {
		d.ReviewedAt = update.ReviewedAt
	}
	if update.ReviewFeedback != nil {
		d.ReviewFeedback = *update.ReviewFeedback
	}
	d.Version++
	r.s.touch(&d.BaseModel)
	r.s.state.deliverables[id] = d
	return true, nil
}

func (r *deliverableRepo) UpdateSpec(ctx context.Context, id uuid.UUID, version int64, spec models.DeliverableSpec) (bool, error) {
	defer r.s.lock()()

	d, ok := r.s.state.deliverables[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	if d.Version != version {
		return false, nil
	}
	d.ApplySpec(spec)
	d.Version++
	r.s.touch(&d.BaseModel)
	r.s.state.deliverables[id] = d
	return true, nil
}

func (r *deliverableRepo) DeletePending(ctx context.Context, id uuid.UUID) (bool, error) {
	defer r.s.lock()()

	d, ok := r.s.state.deliverables[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	if d.Status != models.ReviewStatusPending {
		return false, nil
	}
	delete(r.s.state.deliverables, id)
	return true, nil
}

func (r *deliverableRepo) DeleteByCollaborations(ctx context.Context, collaborationIDs []uuid.UUID) error {
	defer r.s.lock()()

	for id, d := range r.s.state.deliverables {
		if contains(collaborationIDs, d.CollaborationID) {
			delete(r.s.state.deliverables, id)
		}
	}
	return nil
}
