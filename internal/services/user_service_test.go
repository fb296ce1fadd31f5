// internal/services/user_service_test.go
package services

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/imi-campaigns/internal/models"
	"github.com/javajoker/imi-campaigns/internal/utils"
)

func TestRegisterProfileAssignsReferralCode(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.store)
	actor := Actor{ID: uuid.New(), Type: models.UserTypeInfluencer}

	user, err := svc.RegisterProfile(f.ctx, actor, "glowgirl", &RegisterProfileRequest{
		Email:         "glow@example.com",
		FollowerCount: 12000,
		Channels:      []string{"instagram"},
	})
	require.NoError(t, err)
	assert.Equal(t, actor.ID, user.ID)
	require.NotNil(t, user.ReferralCode)
	assert.True(t, strings.HasPrefix(*user.ReferralCode, "REF"))

	again, err := svc.RegisterProfile(f.ctx, actor, "glowgirl", &RegisterProfileRequest{Email: "glow@example.com"})
	require.NoError(t, err)
	assert.Equal(t, *user.ReferralCode, *again.ReferralCode)

	found, err := f.store.Users().FindByReferralCode(f.ctx, *user.ReferralCode)
	require.NoError(t, err)
	assert.Equal(t, actor.ID, found.ID)

	public, err := svc.GetPublicProfile(f.ctx, actor.ID)
	require.NoError(t, err)
	assert.Empty(t, public.Email)
	assert.Nil(t, public.ReferralCode)
}

func TestRegisterProfileRejectsTakenUsername(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.store)

	_, err := svc.RegisterProfile(f.ctx, Actor{ID: uuid.New(), Type: models.UserTypeBrand}, "acme", &RegisterProfileRequest{Email: "a@example.com"})
	require.NoError(t, err)

	_, err = svc.RegisterProfile(f.ctx, Actor{ID: uuid.New(), Type: models.UserTypeBrand}, "acme", &RegisterProfileRequest{Email: "b@example.com"})
	requireKind(t, err, utils.KindValidation, "already taken")
}

func TestUpdateProfileMergesData(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.store)
	influencer := f.user(models.UserTypeInfluencer)

	followers := int64(42)
	_, err := svc.UpdateProfile(f.ctx, influencer, &UpdateUserProfileRequest{FollowerCount: &followers, ProfileData: map[string]interface{}{"bio": "hi"}})
	require.NoError(t, err)

	user, err := svc.UpdateProfile(f.ctx, influencer, &UpdateUserProfileRequest{Channels: []string{"youtube"}, ProfileData: map[string]interface{}{"city": "Taipei"}})
	require.NoError(t, err)
	assert.Equal(t, int64(42), user.FollowerCount)
	assert.Equal(t, []string{"youtube"}, []string(user.Channels))
	assert.Equal(t, "hi", user.ProfileData["bio"])
	assert.Equal(t, "Taipei", user.ProfileData["city"])
}
