// internal/services/user_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/imi-campaigns/internal/models"
	"github.com/javajoker/imi-campaigns/internal/repository"
	"github.com/javajoker/imi-campaigns/internal/utils"
)

// UserService keeps the local copy of accounts owned by the auth service:
// the audience data campaigns filter on and the influencer referral code.
type UserService struct {
	store repository.Store
}

type RegisterProfileRequest struct {
	Email         string                 `json:"email" validate:"required,email,max=255"`
	FollowerCount int64                  `json:"follower_count" validate:"min=0"`
	Channels      []string               `json:"channels,omitempty" validate:"max=20,dive,platform"`
	ProfileData   map[string]interface{} `json:"profile_data,omitempty"`
}

type UpdateUserProfileRequest struct {
	Username      string                 `json:"username,omitempty" validate:"omitempty,min=3,max=50"`
	FollowerCount *int64                 `json:"follower_count,omitempty" validate:"omitempty,min=0"`
	Channels      []string               `json:"channels,omitempty" validate:"max=20,dive,platform"`
	ProfileData   map[string]interface{} `json:"profile_data,omitempty"`
}

const referralCodeAttempts = 5

func NewUserService(store repository.Store) *UserService {
	return &UserService{store: store}
}

// RegisterProfile creates the local row for the authenticated account.
// Influencers get a referral code. Registering twice returns the
// existing profile.
func (s *UserService) RegisterProfile(ctx context.Context, actor Actor, username string, req *RegisterProfileRequest) (*models.User, error) {
	if err := utils.ValidateRequest(req); err != nil {
		return nil, err
	}

	if existing, err := s.store.Users().Get(ctx, actor.ID); err == nil {
		return existing, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	for attempt := 0; attempt < referralCodeAttempts; attempt++ {
		user := &models.User{
			BaseModel:     models.BaseModel{ID: actor.ID},
			Username:      username,
			Email:         req.Email,
			UserType:      actor.Type,
			Status:        models.UserStatusActive,
			FollowerCount: req.FollowerCount,
			Channels:      req.Channels,
			ProfileData:   req.ProfileData,
		}
		if actor.Is(models.UserTypeInfluencer) {
			code, err := utils.GenerateReferralCode()
			if err != nil {
				return nil, fmt.Errorf("failed to generate referral code: %w", err)
			}
			user.ReferralCode = &code
		}

		err := s.store.Users().Create(ctx, user)
		if err == nil {
			logrus.WithFields(logrus.Fields{
				"user_id":   user.ID,
				"user_type": user.UserType,
			}).Info("Profile registered")
			return user, nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("failed to create profile: %w", err)
		}
		// A username or email clash will not go away on retry
		if !actor.Is(models.UserTypeInfluencer) {
			break
		}
	}
	return nil, utils.Validation("Username or email is already taken")
}

func (s *UserService) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.store.Users().Get(ctx, userID)
	if err != nil {
		return nil, notFound(err, "User")
	}
	return user, nil
}

// GetPublicProfile hides the contact and referral data of other users.
func (s *UserService) GetPublicProfile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Email = ""
	user.ReferralCode = nil
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, actor Actor, req *UpdateUserProfileRequest) (*models.User, error) {
	// Validate request
	if err := utils.ValidateRequest(req); err != nil {
		return nil, err
	}

	update := repository.UserProfileUpdate{
		FollowerCount: req.FollowerCount,
		Channels:      req.Channels,
		ProfileData:   req.ProfileData,
	}
	if req.Username != "" {
		update.Username = &req.Username
	}

	err := s.store.Users().UpdateProfile(ctx, actor.ID, update)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, utils.Validation("Username already taken")
	}
	if err != nil {
		return nil, notFound(err, "User")
	}
	return s.GetUserByID(ctx, actor.ID)
}
