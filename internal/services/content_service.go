// internal/services/content_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/imi-campaigns/internal/events"
	"github.com/javajoker/imi-campaigns/internal/lifecycle"
	"github.com/javajoker/imi-campaigns/internal/models"
	"github.com/javajoker/imi-campaigns/internal/repository"
	"github.com/javajoker/imi-campaigns/internal/utils"
)

// MediaFile is one uploaded asset of a submission.
type MediaFile struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// MediaStorage stores submission media and returns a public URL.
type MediaStorage interface {
	Upload(ctx context.Context, file MediaFile, folder string) (string, error)
	Delete(ctx context.Context, url string) error
}

type ContentService struct {
	store   repository.Store
	storage MediaStorage
}

type SubmitContentRequest struct {
	CampaignID      uuid.UUID  `json:"campaign_id" form:"campaign_id" validate:"required"`
	CollaborationID *uuid.UUID `json:"collaboration_id,omitempty" form:"collaboration_id"`
	DeliverableID   *uuid.UUID `json:"deliverable_id,omitempty" form:"deliverable_id"`
	ProductID       *uuid.UUID `json:"product_id,omitempty" form:"product_id"`
	Platform        string     `json:"platform" form:"platform" validate:"required,platform"`
	Caption         string     `json:"caption" form:"caption" validate:"max=5000"`
}

type ReviewContentRequest struct {
	Status   models.ReviewStatus `json:"status" validate:"required,oneof=approved rejected"`
	Feedback string              `json:"feedback" validate:"max=2000"`
}

type PublishContentRequest struct {
	ExternalURL string `json:"external_url" validate:"omitempty,url,max=2048"`
}

type RecordPerformanceRequest struct {
	Views  int64 `json:"views" validate:"min=0"`
	Clicks int64 `json:"clicks" validate:"min=0"`
}

func NewContentService(store repository.Store, storage MediaStorage) *ContentService {
	return &ContentService{
		store:   store,
		storage: storage,
	}
}

// submissionTarget is what a new submission is checked against and linked to.
type submissionTarget struct {
	campaign      *models.Campaign
	collaboration *models.Collaboration
	deliverable   *models.Deliverable
}

// SubmitContent uploads the media and records the submission. The content
// row and the deliverable move commit together; when either fails nothing
// is written and the uploaded media is removed again.
func (s *ContentService) SubmitContent(ctx context.Context, actor Actor, req *SubmitContentRequest, files []MediaFile) (*models.Content, error) {
	if !actor.Is(models.UserTypeInfluencer) {
		return nil, utils.AccessDenied("Only influencers can submit content")
	}
	if err := utils.ValidateRequest(req); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, utils.Validation("At least one media file is required")
	}

	target, err := s.resolveTarget(ctx, actor, req)
	if err != nil {
		return nil, err
	}

	// Upload media
	urls, err := s.upload(ctx, files, fmt.Sprintf("content/%s", req.CampaignID))
	if err != nil {
		return nil, err
	}

	content := &models.Content{
		CampaignID:   req.CampaignID,
		InfluencerID: actor.ID,
		ProductID:    req.ProductID,
		Platform:     req.Platform,
		Status:       models.ReviewStatusSubmitted,
		MediaURLs:    urls,
		Caption:      req.Caption,
	}
	if target.collaboration != nil {
		content.CollaborationID = &target.collaboration.ID
	}
	if target.deliverable != nil {
		content.DeliverableID = &target.deliverable.ID
	}

	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		if err := tx.Contents().Create(ctx, content); err != nil {
			return fmt.Errorf("failed to create content: %w", err)
		}

		if target.deliverable != nil {
			if err := submitDeliverable(ctx, tx, target.deliverable.ID, urls[0]); err != nil {
				return err
			}
		}

		return events.Notify(ctx, tx.Outbox(), events.NotificationRequested{
			RecipientID:   target.campaign.BrandID,
			RecipientType: models.UserTypeBrand,
			Type:          models.NotificationContentSubmitted,
			Title:         "New content to review",
			Body:          fmt.Sprintf("New %s content was submitted for %s", content.Platform, target.campaign.Title),
			RelatedID:     &content.ID,
		})
	})
	if err != nil {
		s.discard(ctx, urls)
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"content_id":     content.ID,
		"campaign_id":    content.CampaignID,
		"deliverable_id": content.DeliverableID,
	}).Info("Content submitted")
	return content, nil
}

func (s *ContentService) resolveTarget(ctx context.Context, actor Actor, req *SubmitContentRequest) (*submissionTarget, error) {
	campaign, err := loadCampaign(ctx, s.store, req.CampaignID)
	if err != nil {
		return nil, err
	}
	if campaign.Status != models.CampaignStatusActive {
		return nil, utils.StateConflict("Campaign is not active")
	}

	if req.ProductID != nil {
		product, err := s.store.Products().Get(ctx, *req.ProductID)
		if err != nil {
			return nil, notFound(err, "Product")
		}
		if product.CampaignID == nil || *product.CampaignID != campaign.ID {
			return nil, utils.Validation("Product does not belong to this campaign")
		}
		if product.Status != models.ProductStatusActive {
			return nil, utils.StateConflict("Product is not active")
		}
	}

	target := &submissionTarget{campaign: campaign}

	var collab *models.Collaboration
	if req.CollaborationID != nil {
		collab, err = s.store.Collaborations().Get(ctx, *req.CollaborationID)
		if err != nil {
			return nil, notFound(err, "Collaboration")
		}
		if collab.InfluencerID != actor.ID || collab.CampaignID != campaign.ID {
			return nil, utils.AccessDenied("You are not part of this collaboration")
		}
	} else {
		collab, err = s.store.Collaborations().FindOpen(ctx, campaign.ID, actor.ID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		if errors.Is(err, repository.ErrNotFound) {
			collab = nil
		}
	}

	if req.DeliverableID == nil {
		target.collaboration = collab
		return target, nil
	}

	if collab == nil {
		return nil, utils.NotFound("Collaboration")
	}
	if collab.Status != models.CollaborationStatusActive {
		return nil, utils.StateConflict("Collaboration is not active")
	}
	deliverable, err := s.store.Deliverables().Get(ctx, collab.ID, *req.DeliverableID)
	if err != nil {
		return nil, notFound(err, "Deliverable")
	}
	if _, err := lifecycle.SubmitDeliverable(deliverable.Status); err != nil {
		return nil, conflict(err, "Deliverable no longer accepts submissions")
	}

	target.collaboration = collab
	target.deliverable = deliverable
	return target, nil
}

// submitDeliverable moves a pending or rejected deliverable to submitted.
// A deliverable already awaiting review keeps its bookkeeping.
func submitDeliverable(ctx context.Context, tx repository.Store, id uuid.UUID, previewURL string) error {
	current, err := tx.Deliverables().GetByID(ctx, id)
	if err != nil {
		return notFound(err, "Deliverable")
	}
	move, err := lifecycle.SubmitDeliverable(current.Status)
	if err != nil {
		return conflict(err, "Deliverable no longer accepts submissions")
	}
	if !move {
		return nil
	}

	ok, err := tx.Deliverables().CompareAndSwap(ctx, id, current.Status, repository.DeliverableUpdate{
		Status:      models.ReviewStatusSubmitted,
		ContentURL:  &previewURL,
		SubmittedAt: ptr(now()),
	})
	if err != nil {
		return fmt.Errorf("failed to update deliverable: %w", err)
	}
	if !ok {
		return utils.StateConflict("Deliverable changed while submitting, please retry")
	}
	return nil
}

func (s *ContentService) upload(ctx context.Context, files []MediaFile, folder string) ([]string, error) {
	urls := make([]string, 0, len(files))
	for _, file := range files {
		url, err := s.storage.Upload(ctx, file, folder)
		if err != nil {
			s.discard(ctx, urls)
			return nil, utils.Upstream("Failed to upload media", err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}

// discard removes media of a submission that did not go through.
func (s *ContentService) discard(ctx context.Context, urls []string) {
	for _, url := range urls {
		if err := s.storage.Delete(ctx, url); err != nil {
			logrus.WithError(err).WithField("url", url).Warn("Failed to remove orphaned media")
		}
	}
}

// ReviewContent applies the brand's decision to the content and its
// deliverable, then recomputes progress in the same transaction. Metrics
// are recomputed asynchronously.
func (s *ContentService) ReviewContent(ctx context.Context, actor Actor, id uuid.UUID, req *ReviewContentRequest) (*models.Content, error) {
	if err := utils.ValidateRequest(req); err != nil {
		return nil, err
	}

	content, err := s.store.Contents().Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "Content")
	}
	campaign, err := ownedCampaign(ctx, s.store, actor, content.CampaignID)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.CheckReview("content", content.Status, req.Status); err != nil {
		return nil, conflict(err, "Only submitted content can be reviewed")
	}

	reviewedAt := now()
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		ok, err := tx.Contents().CompareAndSwap(ctx, id, content.Status, repository.ContentUpdate{
			Status:         req.Status,
			ReviewFeedback: &req.Feedback,
			ReviewedBy:     &actor.ID,
			ReviewedAt:     &reviewedAt,
		})
		if err != nil {
			return fmt.Errorf("failed to update content: %w", err)
		}
		if !ok {
			return utils.StateConflict("Content was reviewed by another request")
		}

		collaborationID := content.CollaborationID
		if content.DeliverableID != nil {
			d, err := reconcileDeliverable(ctx, tx, *content.DeliverableID, req.Status, repository.DeliverableUpdate{
				Status:         req.Status,
				ReviewedAt:     &reviewedAt,
				ReviewFeedback: &req.Feedback,
			})
			if err != nil {
				return err
			}
			if d != nil {
				collaborationID = &d.CollaborationID
			}
		}
		if collaborationID != nil {
			if _, err := recomputeProgress(ctx, tx, *collaborationID); err != nil {
				return err
			}
		}

		if err := events.RecomputeCampaign(ctx, tx.Outbox(), campaign.ID); err != nil {
			return err
		}
		return events.Notify(ctx, tx.Outbox(), events.NotificationRequested{
			RecipientID:   content.InfluencerID,
			RecipientType: models.UserTypeInfluencer,
			Type:          models.NotificationContentReviewed,
			Title:         "Content " + string(req.Status),
			Body:          req.Feedback,
			RelatedID:     &content.ID,
			Data:          map[string]interface{}{"status": req.Status, "campaign_id": campaign.ID},
		})
	})
	if err != nil {
		return nil, err
	}

	return s.reload(ctx, id)
}

// reconcileDeliverable brings a linked deliverable to target. A missing
// deliverable is skipped. A deliverable that already moved past target,
// because a newer submission settled it, keeps its state.
func reconcileDeliverable(ctx context.Context, tx repository.Store, id uuid.UUID, target models.ReviewStatus, update repository.DeliverableUpdate) (*models.Deliverable, error) {
	d, err := tx.Deliverables().GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		logrus.WithField("deliverable_id", id).Warn("Content references a missing deliverable")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	move, err := lifecycle.Reconcile(d.Status, target)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"deliverable_id": id,
			"status":         d.Status,
			"target":         target,
		}).Warn("Deliverable left unchanged by review")
		return d, nil
	}
	if !move {
		return d, nil
	}

	ok, err := tx.Deliverables().CompareAndSwap(ctx, id, d.Status, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update deliverable: %w", err)
	}
	if !ok {
		return nil, utils.StateConflict("Deliverable was modified by another request")
	}
	return d, nil
}

// PublishContent marks approved content as published at its external URL.
// Content whose deliverable was approved or published on its own is
// accepted too, which repairs drift between the two.
func (s *ContentService) PublishContent(ctx context.Context, actor Actor, id uuid.UUID, req *PublishContentRequest) (*models.Content, error) {
	if strings.TrimSpace(req.ExternalURL) == "" {
		return nil, utils.Validation("External URL is required")
	}
	if err := utils.ValidateRequest(req); err != nil {
		return nil, err
	}

	content, err := s.store.Contents().Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "Content")
	}
	if content.InfluencerID != actor.ID && !actor.IsAdmin() {
		return nil, utils.AccessDenied("Only the author can publish this content")
	}
	if content.Status == models.ReviewStatusPublished {
		return nil, utils.StateConflict("Content is already published")
	}
	campaign, err := loadCampaign(ctx, s.store, content.CampaignID)
	if err != nil {
		return nil, err
	}

	var deliverable *models.Deliverable
	if content.DeliverableID != nil {
		deliverable, err = s.store.Deliverables().GetByID(ctx, *content.DeliverableID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		if errors.Is(err, repository.ErrNotFound) {
			deliverable = nil
		}
	}

	var deliverableStatus *models.ReviewStatus
	if deliverable != nil {
		deliverableStatus = &deliverable.Status
	}
	if !lifecycle.CanPublish(content.Status, deliverableStatus) {
		return nil, utils.StateConflict("Only approved content can be published")
	}

	publishedAt := now()
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		ok, err := tx.Contents().CompareAndSwap(ctx, id, content.Status, repository.ContentUpdate{
			Status:          models.ReviewStatusPublished,
			PublishedAt:     &publishedAt,
			ExternalPostURL: &req.ExternalURL,
		})
		if err != nil {
			return fmt.Errorf("failed to update content: %w", err)
		}
		if !ok {
			return utils.StateConflict("Content was modified by another request")
		}

		if deliverable != nil {
			ok, err := tx.Deliverables().CompareAndSwap(ctx, deliverable.ID, deliverable.Status, repository.DeliverableUpdate{
				Status:     models.ReviewStatusPublished,
				ContentURL: &req.ExternalURL,
			})
			if err != nil {
				return fmt.Errorf("failed to update deliverable: %w", err)
			}
			if !ok {
				return utils.StateConflict("Deliverable was modified by another request")
			}
			if _, err := recomputeProgress(ctx, tx, deliverable.CollaborationID); err != nil {
				return err
			}
		}

		if err := events.RecomputeCampaign(ctx, tx.Outbox(), campaign.ID); err != nil {
			return err
		}
		return events.Notify(ctx, tx.Outbox(), events.NotificationRequested{
			RecipientID:   campaign.BrandID,
			RecipientType: models.UserTypeBrand,
			Type:          models.NotificationContentPublished,
			Title:         "Content published",
			Body:          fmt.Sprintf("Content for %s is live", campaign.Title),
			RelatedID:     &content.ID,
			Data:          map[string]interface{}{"external_url": req.ExternalURL},
		})
	})
	if err != nil {
		return nil, err
	}

	return s.reload(ctx, id)
}

func (s *ContentService) reload(ctx context.Context, id uuid.UUID) (*models.Content, error) {
	content, err := s.store.Contents().Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "Content")
	}
	return content, nil
}

func (s *ContentService) GetContent(ctx context.Context, actor Actor, id uuid.UUID) (*models.Content, error) {
	content, err := s.reload(ctx, id)
	if err != nil {
		return nil, err
	}
	if content.InfluencerID == actor.ID || actor.IsAdmin() {
		return content, nil
	}
	if _, err := ownedCampaign(ctx, s.store, actor, content.CampaignID); err != nil {
		return nil, err
	}
	return content, nil
}

// ListCampaignContent gives the brand every submission of its campaign and
// an influencer only their own.
func (s *ContentService) ListCampaignContent(ctx context.Context, actor Actor, campaignID uuid.UUID) ([]models.Content, error) {
	campaign, err := loadCampaign(ctx, s.store, campaignID)
	if err != nil {
		return nil, err
	}

	var influencerID *uuid.UUID
	switch {
	case actor.IsAdmin() || campaign.BrandID == actor.ID:
	case actor.Is(models.UserTypeInfluencer):
		influencerID = &actor.ID
	default:
		return nil, utils.AccessDenied("You do not own this campaign")
	}

	contents, err := s.store.Contents().ListByCampaign(ctx, campaignID, influencerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list content: %w", err)
	}
	return contents, nil
}

// RecordPerformance adds views and clicks reported for published content.
func (s *ContentService) RecordPerformance(ctx context.Context, actor Actor, id uuid.UUID, req *RecordPerformanceRequest) (*models.Content, error) {
	if err := utils.ValidateRequest(req); err != nil {
		return nil, err
	}

	content, err := s.GetContent(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if content.Status != models.ReviewStatusPublished {
		return nil, utils.StateConflict("Performance can only be recorded for published content")
	}

	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		if err := tx.Contents().AddPerformance(ctx, id, req.Views, req.Clicks); err != nil {
			return notFound(err, "Content")
		}
		return events.RecomputeCampaign(ctx, tx.Outbox(), content.CampaignID)
	})
	if err != nil {
		return nil, err
	}

	return s.reload(ctx, id)
}
