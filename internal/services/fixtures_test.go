// internal/services/fixtures_test.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/imi-campaigns/internal/models"
	"github.com/javajoker/imi-campaigns/internal/repository"
	"github.com/javajoker/imi-campaigns/internal/repository/memory"
	"github.com/javajoker/imi-campaigns/internal/utils"
)

// fakeStorage records uploads and deletes. failAt makes the nth upload
// (1-based) fail.
type fakeStorage struct {
	mu       sync.Mutex
	failAt   int
	uploads  []string
	deleted  []string
	attempts int
}

func (f *fakeStorage) Upload(ctx context.Context, file MediaFile, folder string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	if f.failAt > 0 && f.attempts == f.failAt {
		return "", errors.New("bucket unavailable")
	}
	url := fmt.Sprintf("https://cdn.test/%s/%d-%s", folder, f.attempts, file.Name)
	f.uploads = append(f.uploads, url)
	return url, nil
}

func (f *fakeStorage) Delete(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, url)
	return nil
}

type fixture struct {
	t     *testing.T
	ctx   context.Context
	store *memory.Store
}

func newFixture(t *testing.T) *fixture {
	return &fixture{t: t, ctx: context.Background(), store: memory.New()}
}

func (f *fixture) user(userType models.UserType, mutate ...func(*models.User)) Actor {
	u := &models.User{
		Username:      string(userType) + "-" + uuid.NewString()[:8],
		Email:         uuid.NewString() + "@example.com",
		UserType:      userType,
		Status:        models.UserStatusActive,
		FollowerCount: 5000,
		Channels:      []string{"instagram", "tiktok"},
	}
	for _, m := range mutate {
		m(u)
	}
	require.NoError(f.t, f.store.Users().Create(f.ctx, u))
	return Actor{ID: u.ID, Type: userType}
}

func (f *fixture) campaign(brand Actor, status models.CampaignStatus, template ...models.DeliverableSpec) *models.Campaign {
	c := &models.Campaign{
		BrandID:             brand.ID,
		Title:               "Autumn Launch",
		Status:              status,
		CommissionRate:      decimal.NewFromInt(10),
		DeliverableTemplate: template,
	}
	require.NoError(f.t, f.store.Campaigns().Create(f.ctx, c))
	return c
}

func (f *fixture) product(campaign *models.Campaign, price string, target, sold int64) *models.Product {
	p := &models.Product{
		BrandID:        campaign.BrandID,
		CampaignID:     &campaign.ID,
		Title:          "Serum",
		Price:          decimal.RequireFromString(price),
		TargetQuantity: target,
		SoldQuantity:   sold,
		Status:         models.ProductStatusActive,
	}
	require.NoError(f.t, f.store.Products().Create(f.ctx, p))
	return p
}

func (f *fixture) collaboration(campaign *models.Campaign, influencer Actor, status models.CollaborationStatus) *models.Collaboration {
	c := &models.Collaboration{CampaignID: campaign.ID, InfluencerID: influencer.ID, Status: status}
	require.NoError(f.t, f.store.Collaborations().Create(f.ctx, c))
	return c
}

func (f *fixture) deliverables(collab *models.Collaboration, statuses ...models.ReviewStatus) []models.Deliverable {
	ds := make([]models.Deliverable, 0, len(statuses))
	for i, st := range statuses {
		ds = append(ds, models.Deliverable{CollaborationID: collab.ID, Position: i, Platform: "instagram", Status: st})
	}
	require.NoError(f.t, f.store.Deliverables().CreateBatch(f.ctx, ds))
	list, err := f.store.Deliverables().ListByCollaboration(f.ctx, collab.ID)
	require.NoError(f.t, err)
	return list
}

var errPeek = errors.New("peek")

// outboxTypes lists pending event types without claiming them; the claim
// is rolled back with the transaction.
func (f *fixture) outboxTypes() []string {
	var types []string
	err := f.store.WithTx(f.ctx, func(tx repository.Store) error {
		pending, err := tx.Outbox().ClaimUnpublished(f.ctx, 1000, uuid.New(), time.Now().Add(time.Minute))
		if err != nil {
			return err
		}
		for _, e := range pending {
			types = append(types, e.EventType)
		}
		return errPeek
	})
	require.ErrorIs(f.t, err, errPeek)
	return types
}

func requireKind(t *testing.T, err error, kind utils.ErrorKind, message string) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := utils.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	require.Equal(t, kind, appErr.Kind)
	if message != "" {
		require.True(t, strings.Contains(appErr.Message, message), "message %q does not contain %q", appErr.Message, message)
	}
}

func media(names ...string) []MediaFile {
	files := make([]MediaFile, 0, len(names))
	for _, n := range names {
		files = append(files, MediaFile{Name: n, ContentType: "image/jpeg", Size: 4, Body: strings.NewReader("jpeg")})
	}
	return files
}
