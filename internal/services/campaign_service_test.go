// internal/services/campaign_service_test.go
package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/imi-campaigns/internal/models"
	"github.com/javajoker/imi-campaigns/internal/utils"
)

func TestCreateCampaignAndActivate(t *testing.T) {
	f := newFixture(t)
	brand := f.user(models.UserTypeBrand)
	campaigns := NewCampaignService(f.store)
	products := NewProductService(f.store)

	campaign, err := campaigns.CreateCampaign(f.ctx, brand, &CreateCampaignRequest{
		Title:               "Winter Glow",
		Budget:              decimal.NewFromInt(5000),
		CommissionRate:      decimal.NewFromFloat(12.5),
		RequiredChannels:    []string{"instagram"},
		DeliverableTemplate: twoPosts,
	})
	require.NoError(t, err)
	assert.Equal(t, models.CampaignStatusDraft, campaign.Status)

	product, err := products.CreateProduct(f.ctx, brand, &CreateProductRequest{
		CampaignID:     &campaign.ID,
		Title:          "Glow Serum",
		Price:          decimal.RequireFromString("29.990"),
		TargetQuantity: 50,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ProductStatusDraft, product.Status)
	assert.True(t, product.CampaignPrice.Equal(product.Price))

	active, err := campaigns.UpdateCampaignStatus(f.ctx, brand, campaign.ID, &UpdateCampaignStatusRequest{Status: models.CampaignStatusActive})
	require.NoError(t, err)
	assert.Equal(t, models.CampaignStatusActive, active.Status)
	require.Len(t, active.Products, 1)
	assert.Equal(t, models.ProductStatusActive, active.Products[0].Status)

	_, err = campaigns.UpdateCampaignStatus(f.ctx, brand, campaign.ID, &UpdateCampaignStatusRequest{Status: models.CampaignStatusDraft})
	requireKind(t, err, utils.KindStateConflict, "")
}

func TestCreateCampaignRules(t *testing.T) {
	f := newFixture(t)
	brand := f.user(models.UserTypeBrand)
	influencer := f.user(models.UserTypeInfluencer)
	campaigns := NewCampaignService(f.store)

	_, err := campaigns.CreateCampaign(f.ctx, influencer, &CreateCampaignRequest{Title: "Nope"})
	requireKind(t, err, utils.KindAccessDenied, "")

	_, err = campaigns.CreateCampaign(f.ctx, brand, &CreateCampaignRequest{Title: "Greedy", CommissionRate: decimal.NewFromInt(120)})
	requireKind(t, err, utils.KindValidation, "")
}

func TestCompleteCampaignsByProgress(t *testing.T) {
	f := newFixture(t)
	brand := f.user(models.UserTypeBrand)
	first := f.user(models.UserTypeInfluencer)
	second := f.user(models.UserTypeInfluencer)
	campaigns := NewCampaignService(f.store)

	done := f.campaign(brand, models.CampaignStatusActive)
	finished := f.collaboration(done, first, models.CollaborationStatusActive)
	require.NoError(t, f.store.Collaborations().SetProgress(f.ctx, finished.ID, 100))
	f.collaboration(done, second, models.CollaborationStatusCancelled)

	pending := f.campaign(brand, models.CampaignStatusActive)
	halfway := f.collaboration(pending, first, models.CollaborationStatusActive)
	require.NoError(t, f.store.Collaborations().SetProgress(f.ctx, halfway.ID, 50))

	// No collaborations at all never completes
	f.campaign(brand, models.CampaignStatusActive)

	result, err := campaigns.CompleteCampaignsByProgress(f.ctx, brand)
	require.NoError(t, err)
	require.Len(t, result.CompletedCampaigns, 1)
	assert.Equal(t, done.ID, result.CompletedCampaigns[0])

	c, err := f.store.Campaigns().Get(f.ctx, done.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CompletionReasonProgress, c.CompletionReason)

	again, err := campaigns.CompleteCampaignsByProgress(f.ctx, brand)
	require.NoError(t, err)
	assert.Empty(t, again.CompletedCampaigns)
}

func TestRecomputeMetricsCountsApprovedContent(t *testing.T) {
	f := newFixture(t)
	brand := f.user(models.UserTypeBrand)
	influencer := f.user(models.UserTypeInfluencer)
	campaign := f.campaign(brand, models.CampaignStatusActive)
	campaigns := NewCampaignService(f.store)

	for _, st := range []models.ReviewStatus{models.ReviewStatusApproved, models.ReviewStatusPublished, models.ReviewStatusSubmitted} {
		c := &models.Content{CampaignID: campaign.ID, InfluencerID: influencer.ID, Status: st, Views: 100, Clicks: 7}
		require.NoError(t, f.store.Contents().Create(f.ctx, c))
	}

	require.NoError(t, campaigns.HandleMetricsRecompute(f.ctx, []byte(`{"campaign_id":"`+campaign.ID.String()+`"}`)))

	c, err := f.store.Campaigns().Get(f.ctx, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), c.ApprovedContentCount)
	assert.Equal(t, int64(300), c.TotalViews)
	assert.Equal(t, int64(21), c.TotalClicks)
}
