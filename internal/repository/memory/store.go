// internal/repository/memory/store.go
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/javajoker/imi-campaigns/internal/models"
	"github.com/javajoker/imi-campaigns/internal/repository"
)

type state struct {
	users          map[uuid.UUID]models.User
	campaigns      map[uuid.UUID]models.Campaign
	collaborations map[uuid.UUID]models.Collaboration
	deliverables   map[uuid.UUID]models.Deliverable
	contents       map[uuid.UUID]models.Content
	products       map[uuid.UUID]models.Product
	orders         map[uuid.UUID]models.Order
	orderEvents    map[uuid.UUID][]models.OrderStatusEvent
	notifications  map[uuid.UUID]models.Notification
	outbox         map[uuid.UUID]models.OutboxEvent
	audit          []models.AuditLog
}

func newState() *state {
	return &state{
		users:          map[uuid.UUID]models.User{},
		campaigns:      map[uuid.UUID]models.Campaign{},
		collaborations: map[uuid.UUID]models.Collaboration{},
		deliverables:   map[uuid.UUID]models.Deliverable{},
		contents:       map[uuid.UUID]models.Content{},
		products:       map[uuid.UUID]models.Product{},
		orders:         map[uuid.UUID]models.Order{},
		orderEvents:    map[uuid.UUID][]models.OrderStatusEvent{},
		notifications:  map[uuid.UUID]models.Notification{},
		outbox:         map[uuid.UUID]models.OutboxEvent{},
	}
}

func cloneMap[V any](src map[uuid.UUID]V) map[uuid.UUID]V {
	dst := make(map[uuid.UUID]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// clone copies every table. Rows are values and slices inside them are
// replaced, never appended to in place, so a shallow row copy is enough.
func (st *state) clone() *state {
	return &state{
		users:          cloneMap(st.users),
		campaigns:      cloneMap(st.campaigns),
		collaborations: cloneMap(st.collaborations),
		deliverables:   cloneMap(st.deliverables),
		contents:       cloneMap(st.contents),
		products:       cloneMap(st.products),
		orders:         cloneMap(st.orders),
		orderEvents:    cloneMap(st.orderEvents),
		notifications:  cloneMap(st.notifications),
		outbox:         cloneMap(st.outbox),
		audit:          append([]models.AuditLog(nil), st.audit...),
	}
}

// Store is an in-process repository.Store. Transactions run serially on a
// copy of the data which replaces the live copy only when fn succeeds.
type Store struct {
	mu    *sync.Mutex
	state *state
	inTx  bool
	now   func() time.Time
}

var _ repository.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		mu:    &sync.Mutex{},
		state: newState(),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source, for tests.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer s.lock()()

	tx := &Store{mu: s.mu, state: s.state.clone(), inTx: true, now: s.now}
	if err := fn(tx); err != nil {
		return err
	}
	s.state = tx.state
	return nil
}

func (s *Store) Users() repository.UserRepository                   { return &userRepo{s} }
func (s *Store) Campaigns() repository.CampaignRepository           { return &campaignRepo{s} }
func (s *Store) Collaborations() repository.CollaborationRepository { return &collaborationRepo{s} }
func (s *Store) Deliverables() repository.DeliverableRepository     { return &deliverableRepo{s} }
func (s *Store) Contents() repository.ContentRepository             { return &contentRepo{s} }
func (s *Store) Products() repository.ProductRepository             { return &productRepo{s} }
func (s *Store) Orders() repository.OrderRepository                 { return &orderRepo{s} }
func (s *Store) Notifications() repository.NotificationRepository   { return &notificationRepo{s} }
func (s *Store) Outbox() repository.OutboxRepository                { return &outboxRepo{s} }
func (s *Store) Audit() repository.AuditRepository                  { return &auditRepo{s} }

// stamp fills the fields gorm would set on insert.
func (s *Store) stamp(base *models.BaseModel) {
	if base.ID == uuid.Nil {
		base.ID = uuid.New()
	}
	now := s.now()
	if base.CreatedAt.IsZero() {
		base.CreatedAt = now
	}
	base.UpdatedAt = now
}

func (s *Store) touch(base *models.BaseModel) {
	base.UpdatedAt = s.now()
}
