// internal/repository/memory/outbox.go
package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/javajoker/imi-campaigns/internal/models"
)

type outboxRepo struct{ s *Store }

func (r *outboxRepo) Enqueue(ctx context.Context, event *models.OutboxEvent) error {
	defer r.s.lock()()

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = r.s.now()
	}
	r.s.state.outbox[event.ID] = *event
	return nil
}

func (r *outboxRepo) ClaimUnpublished(ctx context.Context, limit int, claimToken uuid.UUID, claimUntil time.Time) ([]models.OutboxEvent, error) {
	if limit <= 0 {
		return nil, nil
	}
	defer r.s.lock()()

	now := r.s.now()
	var ready []models.OutboxEvent
	for _, e := range r.s.state.outbox {
		if e.PublishedAt != nil || e.DeadLetteredAt != nil {
			continue
		}
		if e.ClaimUntil != nil && e.ClaimUntil.After(now) {
			continue
		}
		ready = append(ready, e)
	}
	sort.Slice(ready, func(i, j int) bool { return ready[i].CreatedAt.Before(ready[j].CreatedAt) })
	if len(ready) > limit {
		ready = ready[:limit]
	}

	token := claimToken
	until := claimUntil
	for i := range ready {
		ready[i].ClaimToken = &token
		ready[i].ClaimUntil = &until
		r.s.state.outbox[ready[i].ID] = ready[i]
	}
	return ready, nil
}

func (r *outboxRepo) claimed(id, claimToken uuid.UUID) (models.OutboxEvent, bool) {
	e, ok := r.s.state.outbox[id]
	if !ok || e.ClaimToken == nil || *e.ClaimToken != claimToken {
		return models.OutboxEvent{}, false
	}
	return e, true
}

func (r *outboxRepo) MarkPublished(ctx context.Context, id, claimToken uuid.UUID, at time.Time) error {
	defer r.s.lock()()

	e, ok := r.claimed(id, claimToken)
	if !ok {
		return nil
	}
	e.PublishedAt = &at
	e.ClaimToken = nil
	e.ClaimUntil = nil
	r.s.state.outbox[id] = e
	return nil
}

func (r *outboxRepo) MarkFailed(ctx context.Context, id, claimToken uuid.UUID, errMsg string) error {
	defer r.s.lock()()

	e, ok := r.claimed(id, claimToken)
	if !ok {
		return nil
	}
	e.RetryCount++
	e.LastError = errMsg
	e.ClaimToken = nil
	e.ClaimUntil = nil
	r.s.state.outbox[id] = e
	return nil
}

func (r *outboxRepo) MarkDeadLettered(ctx context.Context, id, claimToken uuid.UUID, errMsg string, at time.Time) error {
	defer r.s.lock()()

	e, ok := r.claimed(id, claimToken)
	if !ok {
		return nil
	}
	e.DeadLetteredAt = &at
	e.LastError = errMsg
	e.ClaimToken = nil
	e.ClaimUntil = nil
	r.s.state.outbox[id] = e
	return nil
}

// Events returns every outbox row ordered by creation, for tests and the
// local dev console.
func (s *Store) Events() []models.OutboxEvent {
	defer s.lock()()

	out := make([]models.OutboxEvent, 0, len(s.state.outbox))
	for _, e := range s.state.outbox {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}
