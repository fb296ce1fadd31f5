// internal/services/content_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/imi-campaigns/internal/models"
	"github.com/javajoker/imi-campaigns/internal/repository"
	"github.com/javajoker/imi-campaigns/internal/utils"
)

type contentSetup struct {
	*fixture
	brand       Actor
	influencer  Actor
	campaign    *models.Campaign
	collab      *models.Collaboration
	deliverable models.Deliverable
	storage     *fakeStorage
	svc         *ContentService
}

func newContentSetup(t *testing.T) *contentSetup {
	f := newFixture(t)
	s := &contentSetup{fixture: f, storage: &fakeStorage{}}
	s.brand = f.user(models.UserTypeBrand)
	s.influencer = f.user(models.UserTypeInfluencer)
	s.campaign = f.campaign(s.brand, models.CampaignStatusActive)
	s.collab = f.collaboration(s.campaign, s.influencer, models.CollaborationStatusActive)
	s.deliverable = f.deliverables(s.collab, models.ReviewStatusPending, models.ReviewStatusApproved)[0]
	s.svc = NewContentService(f.store, s.storage)
	return s
}

func (s *contentSetup) submit(files ...MediaFile) (*models.Content, error) {
	return s.svc.SubmitContent(s.ctx, s.influencer, &SubmitContentRequest{
		CampaignID:    s.campaign.ID,
		DeliverableID: &s.deliverable.ID,
		Platform:      "instagram",
		Caption:       "New drop",
	}, files)
}

func (s *contentSetup) deliverableStatus() models.ReviewStatus {
	d, err := s.store.Deliverables().GetByID(s.ctx, s.deliverable.ID)
	require.NoError(s.t, err)
	return d.Status
}

func TestSubmitContentMovesDeliverable(t *testing.T) {
	s := newContentSetup(t)

	content, err := s.submit(media("a.jpg", "b.jpg")...)
	require.NoError(t, err)
	assert.Equal(t, models.ReviewStatusSubmitted, content.Status)
	assert.Len(t, content.MediaURLs, 2)
	require.NotNil(t, content.CollaborationID)
	assert.Equal(t, s.collab.ID, *content.CollaborationID)

	d, err := s.store.Deliverables().GetByID(s.ctx, s.deliverable.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReviewStatusSubmitted, d.Status)
	assert.Equal(t, content.MediaURLs[0], d.ContentURL)
	assert.NotNil(t, d.SubmittedAt)
}

func TestSubmitContentUploadFailureWritesNothing(t *testing.T) {
	s := newContentSetup(t)
	s.storage.failAt = 2

	_, err := s.submit(media("a.jpg", "b.jpg")...)
	requireKind(t, err, utils.KindUpstreamFailure, "Failed to upload media")

	assert.Equal(t, s.storage.uploads, s.storage.deleted)
	contents, err := s.store.Contents().ListByCampaign(s.ctx, s.campaign.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, contents)
	assert.Equal(t, models.ReviewStatusPending, s.deliverableStatus())
}

func TestSubmitContentValidation(t *testing.T) {
	s := newContentSetup(t)

	_, err := s.submit()
	requireKind(t, err, utils.KindValidation, "At least one media file")

	_, err = s.svc.SubmitContent(s.ctx, s.brand, &SubmitContentRequest{CampaignID: s.campaign.ID, Platform: "instagram"}, media("a.jpg"))
	requireKind(t, err, utils.KindAccessDenied, "")

	other := s.fixture.campaign(s.brand, models.CampaignStatusDraft)
	_, err = s.svc.SubmitContent(s.ctx, s.influencer, &SubmitContentRequest{CampaignID: other.ID, Platform: "instagram"}, media("a.jpg"))
	requireKind(t, err, utils.KindStateConflict, "Campaign is not active")
	assert.Empty(t, s.storage.uploads)
}

func TestReviewRejectThenResubmit(t *testing.T) {
	s := newContentSetup(t)

	first, err := s.submit(media("a.jpg")...)
	require.NoError(t, err)

	// Only the owning brand reviews
	_, err = s.svc.ReviewContent(s.ctx, s.influencer, first.ID, &ReviewContentRequest{Status: models.ReviewStatusApproved})
	requireKind(t, err, utils.KindAccessDenied, "")

	rejected, err := s.svc.ReviewContent(s.ctx, s.brand, first.ID, &ReviewContentRequest{Status: models.ReviewStatusRejected, Feedback: "Too dark"})
	require.NoError(t, err)
	assert.Equal(t, models.ReviewStatusRejected, rejected.Status)
	assert.Equal(t, "Too dark", rejected.ReviewFeedback)
	assert.Equal(t, models.ReviewStatusRejected, s.deliverableStatus())

	_, err = s.svc.ReviewContent(s.ctx, s.brand, first.ID, &ReviewContentRequest{Status: models.ReviewStatusApproved})
	requireKind(t, err, utils.KindStateConflict, "Only submitted content can be reviewed")

	second, err := s.submit(media("c.jpg")...)
	require.NoError(t, err)
	assert.Equal(t, models.ReviewStatusSubmitted, s.deliverableStatus())

	_, err = s.svc.ReviewContent(s.ctx, s.brand, second.ID, &ReviewContentRequest{Status: models.ReviewStatusApproved})
	require.NoError(t, err)
	assert.Equal(t, models.ReviewStatusApproved, s.deliverableStatus())

	collab, err := s.store.Collaborations().Get(s.ctx, s.collab.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, collab.Progress)
	assert.Contains(t, s.outboxTypes(), models.EventCampaignMetricsRecompute)
}

func TestApprovedDeliverableRefusesSubmission(t *testing.T) {
	s := newContentSetup(t)
	list, err := s.store.Deliverables().ListByCollaboration(s.ctx, s.collab.ID)
	require.NoError(t, err)
	s.deliverable = list[1]

	_, err = s.submit(media("a.jpg")...)
	requireKind(t, err, utils.KindStateConflict, "no longer accepts submissions")
}

func TestPublishRequiresApproval(t *testing.T) {
	s := newContentSetup(t)

	content, err := s.submit(media("a.jpg")...)
	require.NoError(t, err)

	_, err = s.svc.PublishContent(s.ctx, s.influencer, content.ID, &PublishContentRequest{ExternalURL: "https://instagram.com/p/1"})
	requireKind(t, err, utils.KindStateConflict, "Only approved content can be published")

	_, err = s.svc.PublishContent(s.ctx, s.influencer, content.ID, &PublishContentRequest{})
	requireKind(t, err, utils.KindValidation, "External URL is required")

	_, err = s.svc.ReviewContent(s.ctx, s.brand, content.ID, &ReviewContentRequest{Status: models.ReviewStatusApproved})
	require.NoError(t, err)

	published, err := s.svc.PublishContent(s.ctx, s.influencer, content.ID, &PublishContentRequest{ExternalURL: "https://instagram.com/p/1"})
	require.NoError(t, err)
	assert.Equal(t, models.ReviewStatusPublished, published.Status)
	assert.Equal(t, "https://instagram.com/p/1", published.ExternalPostURL)

	d, err := s.store.Deliverables().GetByID(s.ctx, s.deliverable.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReviewStatusPublished, d.Status)
	assert.Equal(t, "https://instagram.com/p/1", d.ContentURL)
}

func TestPublishFallsBackToApprovedDeliverable(t *testing.T) {
	s := newContentSetup(t)

	content, err := s.submit(media("a.jpg")...)
	require.NoError(t, err)
	preview, err := s.store.Deliverables().GetByID(s.ctx, s.deliverable.ID)
	require.NoError(t, err)
	require.NotEmpty(t, preview.ContentURL)

	// The deliverable was approved while the content stayed submitted
	ok, err := s.store.Deliverables().CompareAndSwap(s.ctx, s.deliverable.ID, models.ReviewStatusSubmitted,
		repository.DeliverableUpdate{Status: models.ReviewStatusApproved})
	require.NoError(t, err)
	require.True(t, ok)

	published, err := s.svc.PublishContent(s.ctx, s.influencer, content.ID, &PublishContentRequest{ExternalURL: "https://tiktok.com/@glow/1"})
	require.NoError(t, err)
	assert.Equal(t, models.ReviewStatusPublished, published.Status)

	d, err := s.store.Deliverables().GetByID(s.ctx, s.deliverable.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReviewStatusPublished, d.Status)
	assert.Equal(t, "https://tiktok.com/@glow/1", d.ContentURL)
	assert.NotEqual(t, preview.ContentURL, d.ContentURL)
}

func TestPublishedContentCannotBePublishedAgain(t *testing.T) {
	s := newContentSetup(t)

	content, err := s.submit(media("a.jpg")...)
	require.NoError(t, err)
	_, err = s.svc.ReviewContent(s.ctx, s.brand, content.ID, &ReviewContentRequest{Status: models.ReviewStatusApproved})
	require.NoError(t, err)
	_, err = s.svc.PublishContent(s.ctx, s.influencer, content.ID, &PublishContentRequest{ExternalURL: "https://instagram.com/p/1"})
	require.NoError(t, err)

	_, err = s.svc.PublishContent(s.ctx, s.influencer, content.ID, &PublishContentRequest{ExternalURL: "https://instagram.com/p/2"})
	requireKind(t, err, utils.KindStateConflict, "already published")

	stored, err := s.store.Contents().Get(s.ctx, content.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://instagram.com/p/1", stored.ExternalPostURL)
	d, err := s.store.Deliverables().GetByID(s.ctx, s.deliverable.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://instagram.com/p/1", d.ContentURL)
}

func TestRecordPerformanceOnlyForPublished(t *testing.T) {
	s := newContentSetup(t)

	content, err := s.submit(media("a.jpg")...)
	require.NoError(t, err)

	_, err = s.svc.RecordPerformance(s.ctx, s.influencer, content.ID, &RecordPerformanceRequest{Views: 10})
	requireKind(t, err, utils.KindStateConflict, "published content")
}
