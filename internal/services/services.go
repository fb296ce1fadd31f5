// internal/services/services.go
package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/javajoker/imi-campaigns/internal/lifecycle"
	"github.com/javajoker/imi-campaigns/internal/models"
	"github.com/javajoker/imi-campaigns/internal/repository"
	"github.com/javajoker/imi-campaigns/internal/utils"
)

// Actor is the authenticated caller as resolved by the auth middleware.
type Actor struct {
	ID   uuid.UUID
	Type models.UserType
}

func (a Actor) IsAdmin() bool {
	return a.Type == models.UserTypeAdmin
}

func (a Actor) Is(userType models.UserType) bool {
	return a.Type == userType
}

var now = func() time.Time { return time.Now().UTC() }

// notFound turns a missing row into a NOT_FOUND error for resource and
// passes every other error through.
func notFound(err error, resource string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return utils.NotFound(resource)
	}
	return err
}

// conflict wraps an illegal lifecycle move into a STATE_CONFLICT error.
func conflict(err error, message string) error {
	var te *lifecycle.TransitionError
	if errors.As(err, &te) {
		if message == "" {
			message = te.Error()
		}
		return &utils.AppError{Kind: utils.KindStateConflict, Message: message, Err: err}
	}
	return err
}

func loadCampaign(ctx context.Context, store repository.Store, id uuid.UUID) (*models.Campaign, error) {
	campaign, err := store.Campaigns().Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "Campaign")
	}
	return campaign, nil
}

// ownedCampaign loads a campaign the brand actor owns. Admins pass.
func ownedCampaign(ctx context.Context, store repository.Store, actor Actor, id uuid.UUID) (*models.Campaign, error) {
	campaign, err := loadCampaign(ctx, store, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && campaign.BrandID != actor.ID {
		return nil, utils.AccessDenied("You do not own this campaign")
	}
	return campaign, nil
}

func ptr[T any](v T) *T {
	return &v
}
