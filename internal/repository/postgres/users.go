// internal/repository/postgres/users.go
package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/javajoker/imi-campaigns/internal/models"
	"github.com/javajoker/imi-campaigns/internal/repository"
)

type userRepo struct{ s *Store }

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	return translate(r.s.conn(ctx).Create(user).Error)
}

func (r *userRepo) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.s.conn(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepo) FindByReferralCode(ctx context.Context, code string) (*models.User, error) {
	var user models.User
	if err := r.s.conn(ctx).Where("referral_code = ?", code).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// UpdateProfile merges ProfileData into the stored document with the jsonb
// concatenation operator.
func (r *userRepo) UpdateProfile(ctx context.Context, id uuid.UUID, update repository.UserProfileUpdate) error {
	fields := map[string]interface{}{}
	if update.Username != nil {
		fields["username"] = *update.Username
	}
	if update.FollowerCount != nil {
		fields["follower_count"] = *update.FollowerCount
	}
	if update.Channels != nil {
		fields["channels"] = pq.StringArray(update.Channels)
	}
	if update.ProfileData != nil {
		fields["profile_data"] = gorm.Expr("COALESCE(profile_data, '{}'::jsonb) || ?::jsonb", update.ProfileData)
	}
	if len(fields) == 0 {
		_, err := r.Get(ctx, id)
		return err
	}
	return requireRow(r.s.conn(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields))
}

func (r *userRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return requireRow(r.s.conn(ctx).Unscoped().Delete(&models.User{}, "id = ?", id))
}
