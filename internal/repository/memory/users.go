// internal/repository/memory/users.go
package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/javajoker/imi-campaigns/internal/models"
	"github.com/javajoker/imi-campaigns/internal/repository"
)

type userRepo struct{ s *Store }

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	defer r.s.lock()()

	for _, u := range r.s.state.users {
		if u.Email == user.Email || u.Username == user.Username {
			return repository.ErrDuplicate
		}
		if user.ReferralCode != nil && u.ReferralCode != nil && *u.ReferralCode == *user.ReferralCode {
			return repository.ErrDuplicate
		}
	}
	r.s.stamp(&user.BaseModel)
	r.s.state.users[user.ID] = *user
	return nil
}

func (r *userRepo) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	defer r.s.lock()()

	u, ok := r.s.state.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *userRepo) FindByReferralCode(ctx context.Context, code string) (*models.User, error) {
	defer r.s.lock()()

	for _, u := range r.s.state.users {
		if u.ReferralCode != nil && *u.ReferralCode == code {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) UpdateProfile(ctx context.Context, id uuid.UUID, update repository.UserProfileUpdate) error {
	defer r.s.lock()()

	u, ok := r.s.state.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	if update.Username != nil {
		for otherID, other := range r.s.state.users {
			if otherID != id && other.Username == *update.Username {
				return repository.ErrDuplicate
			}
		}
		u.Username = *update.Username
	}
	if update.FollowerCount != nil {
		u.FollowerCount = *update.FollowerCount
	}
	if update.Channels != nil {
		u.Channels = append([]string(nil), update.Channels...)
	}
	if update.ProfileData != nil {
		merged := make(models.JSONB, len(u.ProfileData)+len(update.ProfileData))
		for k, v := range u.ProfileData {
			merged[k] = v
		}
		for k, v := range update.ProfileData {
			merged[k] = v
		}
		u.ProfileData = merged
	}
	r.s.touch(&u.BaseModel)
	r.s.state.users[id] = u
	return nil
}

func (r *userRepo) Delete(ctx context.Context, id uuid.UUID) error {
	defer r.s.lock()()

	if _, ok := r.s.state.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.state.users, id)
	return nil
}
