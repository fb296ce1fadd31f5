// internal/services/collaboration_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/imi-campaigns/internal/events"
	"github.com/javajoker/imi-campaigns/internal/lifecycle"
	"github.com/javajoker/imi-campaigns/internal/models"
	"github.com/javajoker/imi-campaigns/internal/repository"
	"github.com/javajoker/imi-campaigns/internal/utils"
)

type CollaborationService struct {
	store   repository.Store
	limiter UsageLimiter
}

type ApplyToCampaignRequest struct {
	Message string `json:"message" validate:"max=2000"`
}

type InviteInfluencerRequest struct {
	InfluencerID uuid.UUID `json:"influencer_id" validate:"required"`
	Message      string    `json:"message" validate:"max=2000"`
}

type RespondRequest struct {
	Accept bool `json:"accept"`
}

type DeliverableEdit struct {
	ID      uuid.UUID              `json:"id" validate:"required"`
	Version int64                  `json:"version" validate:"min=0"`
	Spec    models.DeliverableSpec `json:"spec"`
}

// BulkUpdateDeliverablesRequest edits the contract of a collaboration.
// Statuses are never written through it.
type BulkUpdateDeliverablesRequest struct {
	Update []DeliverableEdit        `json:"update" validate:"dive"`
	Add    []models.DeliverableSpec `json:"add" validate:"dive"`
	Remove []uuid.UUID              `json:"remove"`
}

func NewCollaborationService(store repository.Store, limiter UsageLimiter) *CollaborationService {
	return &CollaborationService{
		store:   store,
		limiter: limiter,
	}
}

// CreateCollaboration opens a collaboration for the pair. An active one is
// seeded from the campaign template right away.
func (s *CollaborationService) CreateCollaboration(ctx context.Context, campaignID, influencerID uuid.UUID, status models.CollaborationStatus, message string) (*models.Collaboration, error) {
	switch status {
	case models.CollaborationStatusRequest, models.CollaborationStatusBrandInvite,
		models.CollaborationStatusInfluencerInvite, models.CollaborationStatusActive:
	default:
		return nil, utils.Validation("Invalid initial collaboration status")
	}

	collab := &models.Collaboration{
		CampaignID:   campaignID,
		InfluencerID: influencerID,
		Status:       status,
		Message:      message,
	}

	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		campaign, err := loadCampaign(ctx, tx, campaignID)
		if err != nil {
			return err
		}

		if err := tx.Collaborations().Create(ctx, collab); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return utils.Duplicate("A collaboration already exists for this campaign and influencer")
			}
			return fmt.Errorf("failed to create collaboration: %w", err)
		}

		if status == models.CollaborationStatusActive {
			if _, err := seedDeliverables(ctx, tx, collab, campaign); err != nil {
				return err
			}
		}

		// Whoever did not start the collaboration hears about it
		recipient, recipientType := campaign.BrandID, models.UserTypeBrand
		if status == models.CollaborationStatusBrandInvite || status == models.CollaborationStatusActive {
			recipient, recipientType = influencerID, models.UserTypeInfluencer
		}
		return events.Notify(ctx, tx.Outbox(), events.NotificationRequested{
			RecipientID:   recipient,
			RecipientType: recipientType,
			Type:          models.NotificationCollaborationNew,
			Title:         "New collaboration",
			Body:          fmt.Sprintf("A new collaboration was opened for %s", campaign.Title),
			RelatedID:     &collab.ID,
		})
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"collaboration_id": collab.ID,
		"campaign_id":      campaignID,
		"status":           status,
	}).Info("Collaboration created")
	return collab, nil
}

// SeedDeliverablesFromTemplate copies the campaign template into a
// collaboration that has no deliverables yet. Once any deliverable exists
// it returns the current list unchanged.
func (s *CollaborationService) SeedDeliverablesFromTemplate(ctx context.Context, collaborationID uuid.UUID) ([]models.Deliverable, error) {
	collab, err := s.store.Collaborations().Get(ctx, collaborationID)
	if err != nil {
		return nil, notFound(err, "Collaboration")
	}
	campaign, err := loadCampaign(ctx, s.store, collab.CampaignID)
	if err != nil {
		return nil, err
	}
	return seedDeliverables(ctx, s.store, collab, campaign)
}

func seedDeliverables(ctx context.Context, store repository.Store, collab *models.Collaboration, campaign *models.Campaign) ([]models.Deliverable, error) {
	existing, err := store.Deliverables().ListByCollaboration(ctx, collab.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list deliverables: %w", err)
	}
	if len(existing) > 0 || len(campaign.DeliverableTemplate) == 0 {
		return existing, nil
	}

	seeded := make([]models.Deliverable, 0, len(campaign.DeliverableTemplate))
	for i, spec := range campaign.DeliverableTemplate {
		d := models.Deliverable{
			CollaborationID: collab.ID,
			Position:        i,
			Status:          models.ReviewStatusPending,
		}
		d.ApplySpec(spec)
		seeded = append(seeded, d)
	}

	if err := store.Deliverables().CreateBatch(ctx, seeded); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// A concurrent reader seeded first
			return store.Deliverables().ListByCollaboration(ctx, collab.ID)
		}
		return nil, fmt.Errorf("failed to seed deliverables: %w", err)
	}
	return seeded, nil
}

// FindDeliverable returns one deliverable of a collaboration the actor
// takes part in.
func (s *CollaborationService) FindDeliverable(ctx context.Context, actor Actor, collaborationID, deliverableID uuid.UUID) (*models.Deliverable, error) {
	collab, err := s.store.Collaborations().Get(ctx, collaborationID)
	if err != nil {
		return nil, notFound(err, "Collaboration")
	}
	if _, err := s.authorize(ctx, actor, collab); err != nil {
		return nil, err
	}

	deliverable, err := s.store.Deliverables().Get(ctx, collaborationID, deliverableID)
	if err != nil {
		return nil, notFound(err, "Deliverable")
	}
	return deliverable, nil
}

// authorize lets the influencer, the owning brand and admins through.
func (s *CollaborationService) authorize(ctx context.Context, actor Actor, collab *models.Collaboration) (*models.Campaign, error) {
	campaign, err := loadCampaign(ctx, s.store, collab.CampaignID)
	if err != nil {
		return nil, err
	}
	if actor.IsAdmin() || collab.InfluencerID == actor.ID || campaign.BrandID == actor.ID {
		return campaign, nil
	}
	return nil, utils.AccessDenied("You are not part of this collaboration")
}

func (s *CollaborationService) GetCollaboration(ctx context.Context, actor Actor, id uuid.UUID) (*models.Collaboration, error) {
	collab, err := s.store.Collaborations().Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "Collaboration")
	}
	campaign, err := s.authorize(ctx, actor, collab)
	if err != nil {
		return nil, err
	}
	if err := s.attachDeliverables(ctx, collab, campaign); err != nil {
		return nil, err
	}
	return collab, nil
}

func (s *CollaborationService) attachDeliverables(ctx context.Context, collab *models.Collaboration, campaign *models.Campaign) error {
	if collab.Status == models.CollaborationStatusCancelled {
		deliverables, err := s.store.Deliverables().ListByCollaboration(ctx, collab.ID)
		if err != nil {
			return fmt.Errorf("failed to list deliverables: %w", err)
		}
		collab.Deliverables = deliverables
		return nil
	}

	deliverables, err := seedDeliverables(ctx, s.store, collab, campaign)
	if err != nil {
		return err
	}
	collab.Deliverables = deliverables
	return nil
}

// ApplyToCampaign lets an influencer ask to join a campaign. Campaigns
// collecting influencer invitations get an influencer-invite instead of a
// plain request.
func (s *CollaborationService) ApplyToCampaign(ctx context.Context, actor Actor, campaignID uuid.UUID, req *ApplyToCampaignRequest) (*models.Collaboration, error) {
	if !actor.Is(models.UserTypeInfluencer) {
		return nil, utils.AccessDenied("Only influencers can apply to campaigns")
	}
	if err := utils.ValidateRequest(req); err != nil {
		return nil, err
	}

	campaign, err := loadCampaign(ctx, s.store, campaignID)
	if err != nil {
		return nil, err
	}

	var status models.CollaborationStatus
	switch campaign.Status {
	case models.CampaignStatusActive, models.CampaignStatusRequest:
		status = models.CollaborationStatusRequest
	case models.CampaignStatusInfluencerInvite:
		status = models.CollaborationStatusInfluencerInvite
	default:
		return nil, utils.StateConflict("Campaign is not accepting applications")
	}

	influencer, err := s.store.Users().Get(ctx, actor.ID)
	if err != nil {
		return nil, notFound(err, "Influencer")
	}
	if influencer.FollowerCount < campaign.MinFollowers {
		return nil, utils.Validation(fmt.Sprintf("Campaign requires at least %d followers", campaign.MinFollowers))
	}
	if !influencer.HasChannels(campaign.RequiredChannels) {
		return nil, utils.Validation("Your profile is missing channels this campaign requires")
	}

	if err := s.checkLimit(ctx, LimitCheck{ActorID: actor.ID, ActorType: actor.Type, Action: LimitActionApply, CampaignID: campaignID}); err != nil {
		return nil, err
	}

	return s.CreateCollaboration(ctx, campaignID, actor.ID, status, req.Message)
}

// InviteInfluencer lets the owning brand invite an influencer.
func (s *CollaborationService) InviteInfluencer(ctx context.Context, actor Actor, campaignID uuid.UUID, req *InviteInfluencerRequest) (*models.Collaboration, error) {
	if err := utils.ValidateRequest(req); err != nil {
		return nil, err
	}

	campaign, err := ownedCampaign(ctx, s.store, actor, campaignID)
	if err != nil {
		return nil, err
	}
	switch campaign.Status {
	case models.CampaignStatusDraft, models.CampaignStatusActive, models.CampaignStatusBrandInvite:
	default:
		return nil, utils.StateConflict("Campaign is not open for invitations")
	}

	influencer, err := s.store.Users().Get(ctx, req.InfluencerID)
	if err != nil || influencer.UserType != models.UserTypeInfluencer {
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, utils.NotFound("Influencer")
	}

	if err := s.checkLimit(ctx, LimitCheck{ActorID: actor.ID, ActorType: actor.Type, Action: LimitActionInvite, CampaignID: campaignID}); err != nil {
		return nil, err
	}

	return s.CreateCollaboration(ctx, campaignID, influencer.ID, models.CollaborationStatusBrandInvite, req.Message)
}

func (s *CollaborationService) checkLimit(ctx context.Context, check LimitCheck) error {
	if s.limiter == nil {
		return nil
	}
	decision, err := s.limiter.CheckLimit(ctx, check)
	if err != nil {
		return fmt.Errorf("failed to check usage limit: %w", err)
	}
	if !decision.Allowed {
		return utils.AccessDenied(decision.Reason)
	}
	return nil
}

// RespondToCollaboration answers a pending request or invitation. Requests
// and influencer invitations are answered by the brand, brand invitations
// by the influencer.
func (s *CollaborationService) RespondToCollaboration(ctx context.Context, actor Actor, id uuid.UUID, req *RespondRequest) (*models.Collaboration, error) {
	collab, err := s.store.Collaborations().Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "Collaboration")
	}
	campaign, err := loadCampaign(ctx, s.store, collab.CampaignID)
	if err != nil {
		return nil, err
	}

	var responder, initiator uuid.UUID
	initiatorType := models.UserTypeInfluencer
	switch collab.Status {
	case models.CollaborationStatusRequest, models.CollaborationStatusInfluencerInvite:
		responder, initiator = campaign.BrandID, collab.InfluencerID
	case models.CollaborationStatusBrandInvite:
		responder, initiator = collab.InfluencerID, campaign.BrandID
		initiatorType = models.UserTypeBrand
	default:
		return nil, utils.StateConflict("Collaboration is not awaiting a response")
	}
	if actor.ID != responder && !actor.IsAdmin() {
		return nil, utils.AccessDenied("You cannot respond to this collaboration")
	}

	to := models.CollaborationStatusCancelled
	if req.Accept {
		to = models.CollaborationStatusActive
	}
	if err := lifecycle.CheckCollaboration(collab.Status, to); err != nil {
		return nil, conflict(err, "")
	}

	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		ok, err := tx.Collaborations().TransitionStatus(ctx, id, collab.Status, to)
		if err != nil {
			return notFound(err, "Collaboration")
		}
		if !ok {
			return utils.StateConflict("Collaboration was answered by another request")
		}
		collab.Status = to

		if to == models.CollaborationStatusActive {
			if _, err := seedDeliverables(ctx, tx, collab, campaign); err != nil {
				return err
			}
		}

		verdict := "declined"
		if req.Accept {
			verdict = "accepted"
		}
		return events.Notify(ctx, tx.Outbox(), events.NotificationRequested{
			RecipientID:   initiator,
			RecipientType: initiatorType,
			Type:          models.NotificationCollaborationReply,
			Title:         "Collaboration " + verdict,
			Body:          fmt.Sprintf("Your collaboration on %s was %s", campaign.Title, verdict),
			RelatedID:     &collab.ID,
		})
	})
	if err != nil {
		return nil, err
	}

	return s.GetCollaboration(ctx, actor, id)
}

// ListCampaignCollaborations returns every collaboration of the campaign to
// its brand and the caller's own collaboration to an influencer.
func (s *CollaborationService) ListCampaignCollaborations(ctx context.Context, actor Actor, campaignID uuid.UUID) ([]models.Collaboration, error) {
	campaign, err := loadCampaign(ctx, s.store, campaignID)
	if err != nil {
		return nil, err
	}
	owner := actor.IsAdmin() || campaign.BrandID == actor.ID
	if !owner && !actor.Is(models.UserTypeInfluencer) {
		return nil, utils.AccessDenied("You do not own this campaign")
	}

	collabs, err := s.store.Collaborations().ListByCampaign(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to list collaborations: %w", err)
	}

	result := make([]models.Collaboration, 0, len(collabs))
	for i := range collabs {
		if !owner && collabs[i].InfluencerID != actor.ID {
			continue
		}
		if err := s.attachDeliverables(ctx, &collabs[i], campaign); err != nil {
			return nil, err
		}
		result = append(result, collabs[i])
	}
	return result, nil
}

// BulkUpdateDeliverables edits, appends and removes deliverables in one
// transaction and recomputes progress afterwards. Edits carry the version
// read by the client; a stale version fails the whole batch.
func (s *CollaborationService) BulkUpdateDeliverables(ctx context.Context, actor Actor, collaborationID uuid.UUID, req *BulkUpdateDeliverablesRequest) ([]models.Deliverable, error) {
	if err := utils.ValidateRequest(req); err != nil {
		return nil, err
	}

	collab, err := s.store.Collaborations().Get(ctx, collaborationID)
	if err != nil {
		return nil, notFound(err, "Collaboration")
	}
	if _, err := ownedCampaign(ctx, s.store, actor, collab.CampaignID); err != nil {
		return nil, err
	}
	if collab.Status == models.CollaborationStatusCancelled || collab.Status == models.CollaborationStatusCompleted {
		return nil, utils.StateConflict("Deliverables can only change on an open collaboration")
	}

	var result []models.Deliverable
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Collaborations().GetForUpdate(ctx, collaborationID); err != nil {
			return notFound(err, "Collaboration")
		}

		for _, edit := range req.Update {
			if _, err := tx.Deliverables().Get(ctx, collaborationID, edit.ID); err != nil {
				return notFound(err, "Deliverable")
			}
			ok, err := tx.Deliverables().UpdateSpec(ctx, edit.ID, edit.Version, edit.Spec)
			if err != nil {
				return fmt.Errorf("failed to update deliverable: %w", err)
			}
			if !ok {
				return utils.StateConflict("Deliverable was modified by another request")
			}
		}

		for _, id := range req.Remove {
			if _, err := tx.Deliverables().Get(ctx, collaborationID, id); err != nil {
				return notFound(err, "Deliverable")
			}
			ok, err := tx.Deliverables().DeletePending(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to remove deliverable: %w", err)
			}
			if !ok {
				return utils.StateConflict("Only pending deliverables can be removed")
			}
		}

		if len(req.Add) > 0 {
			existing, err := tx.Deliverables().ListByCollaboration(ctx, collaborationID)
			if err != nil {
				return fmt.Errorf("failed to list deliverables: %w", err)
			}
			next := 0
			for _, d := range existing {
				if d.Position >= next {
					next = d.Position + 1
				}
			}
			added := make([]models.Deliverable, 0, len(req.Add))
			for i, spec := range req.Add {
				d := models.Deliverable{CollaborationID: collaborationID, Position: next + i, Status: models.ReviewStatusPending}
				d.ApplySpec(spec)
				added = append(added, d)
			}
			if err := tx.Deliverables().CreateBatch(ctx, added); err != nil {
				if errors.Is(err, repository.ErrDuplicate) {
					return utils.StateConflict("Deliverables were modified by another request")
				}
				return fmt.Errorf("failed to add deliverables: %w", err)
			}
		}

		if _, err := recomputeProgress(ctx, tx, collaborationID); err != nil {
			return err
		}

		result, err = tx.Deliverables().ListByCollaboration(ctx, collaborationID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RemoveInfluencerAccount deletes an influencer together with their
// collaborations and deliverables. Content history is kept.
func (s *CollaborationService) RemoveInfluencerAccount(ctx context.Context, actor Actor, influencerID uuid.UUID) error {
	if !actor.IsAdmin() && actor.ID != influencerID {
		return utils.AccessDenied("You cannot remove this account")
	}

	return s.store.WithTx(ctx, func(tx repository.Store) error {
		ids, err := tx.Collaborations().DeleteByInfluencer(ctx, influencerID)
		if err != nil {
			return fmt.Errorf("failed to delete collaborations: %w", err)
		}
		if err := tx.Deliverables().DeleteByCollaborations(ctx, ids); err != nil {
			return fmt.Errorf("failed to delete deliverables: %w", err)
		}
		if err := tx.Users().Delete(ctx, influencerID); err != nil {
			return notFound(err, "Influencer")
		}

		logrus.WithFields(logrus.Fields{
			"influencer_id":  influencerID,
			"collaborations": len(ids),
		}).Info("Influencer account removed")
		return nil
	})
}

// recomputeProgress stores the progress derived from the full deliverable
// list. It must run inside a transaction; the row lock serialises
// concurrent reviews of the same collaboration.
func recomputeProgress(ctx context.Context, tx repository.Store, collaborationID uuid.UUID) (int, error) {
	if _, err := tx.Collaborations().GetForUpdate(ctx, collaborationID); err != nil {
		return 0, notFound(err, "Collaboration")
	}
	deliverables, err := tx.Deliverables().ListByCollaboration(ctx, collaborationID)
	if err != nil {
		return 0, fmt.Errorf("failed to list deliverables: %w", err)
	}
	progress := lifecycle.DeliverableProgress(deliverables)
	if err := tx.Collaborations().SetProgress(ctx, collaborationID, progress); err != nil {
		return 0, fmt.Errorf("failed to store progress: %w", err)
	}
	return progress, nil
}
