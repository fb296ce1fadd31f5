// internal/services/limiter.go
package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/javajoker/imi-campaigns/internal/config"
	"github.com/javajoker/imi-campaigns/internal/models"
	"github.com/javajoker/imi-campaigns/internal/repository"
)

type LimitAction string

const (
	LimitActionApply  LimitAction = "collaboration.apply"
	LimitActionInvite LimitAction = "collaboration.invite"
)

type LimitCheck struct {
	ActorID    uuid.UUID
	ActorType  models.UserType
	Action     LimitAction
	CampaignID uuid.UUID
}

type LimitDecision struct {
	Allowed bool
	Reason  string
}

// UsageLimiter is consulted before a collaboration is proposed.
type UsageLimiter interface {
	CheckLimit(ctx context.Context, check LimitCheck) (LimitDecision, error)
}

// ConfigLimiter enforces the plan limits from configuration by counting
// existing collaborations.
type ConfigLimiter struct {
	store  repository.Store
	limits config.LimitsConfig
}

func NewConfigLimiter(store repository.Store, limits config.LimitsConfig) *ConfigLimiter {
	return &ConfigLimiter{store: store, limits: limits}
}

var openCollaborationStatuses = []models.CollaborationStatus{
	models.CollaborationStatusRequest,
	models.CollaborationStatusBrandInvite,
	models.CollaborationStatusInfluencerInvite,
	models.CollaborationStatusActive,
}

func (l *ConfigLimiter) CheckLimit(ctx context.Context, check LimitCheck) (LimitDecision, error) {
	switch check.Action {
	case LimitActionApply:
		if l.limits.MaxActiveCollaborations <= 0 {
			return LimitDecision{Allowed: true}, nil
		}
		n, err := l.store.Collaborations().CountByInfluencer(ctx, check.ActorID, openCollaborationStatuses)
		if err != nil {
			return LimitDecision{}, fmt.Errorf("failed to count collaborations: %w", err)
		}
		if n >= int64(l.limits.MaxActiveCollaborations) {
			return LimitDecision{Reason: fmt.Sprintf("You can have at most %d open collaborations", l.limits.MaxActiveCollaborations)}, nil
		}

	case LimitActionInvite:
		if l.limits.MaxInvitesPerCampaign <= 0 {
			return LimitDecision{Allowed: true}, nil
		}
		n, err := l.store.Collaborations().CountByCampaign(ctx, check.CampaignID, []models.CollaborationStatus{
			models.CollaborationStatusBrandInvite,
			models.CollaborationStatusInfluencerInvite,
		})
		if err != nil {
			return LimitDecision{}, fmt.Errorf("failed to count invitations: %w", err)
		}
		if n >= int64(l.limits.MaxInvitesPerCampaign) {
			return LimitDecision{Reason: fmt.Sprintf("This campaign already has %d pending invitations", l.limits.MaxInvitesPerCampaign)}, nil
		}
	}

	return LimitDecision{Allowed: true}, nil
}
