// internal/services/completion_service.go
package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/imi-campaigns/internal/lifecycle"
	"github.com/javajoker/imi-campaigns/internal/models"
	"github.com/javajoker/imi-campaigns/internal/repository"
)

// CompletionService runs the sales target cascade: a campaign product whose
// delivered quantity reached its target becomes inactive, and the campaign
// of a product that just became inactive is completed once all its
// products are closed. Running it again without new deliveries changes
// nothing.
type CompletionService struct {
	store repository.Store
}

func NewCompletionService(store repository.Store) *CompletionService {
	return &CompletionService{store: store}
}

// CheckProducts runs the cascade for the given products. With recheck set,
// products that were already inactive also trigger the campaign check, which
// recovers a campaign whose completion was missed by concurrent deliveries.
func (s *CompletionService) CheckProducts(ctx context.Context, productIDs []uuid.UUID, recheck bool) (*CompletionResult, error) {
	var result *CompletionResult
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		var err error
		result, err = checkProducts(ctx, tx, productIDs, recheck)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func checkProducts(ctx context.Context, tx repository.Store, productIDs []uuid.UUID, recheck bool) (*CompletionResult, error) {
	result := &CompletionResult{}
	// Only campaigns with a product that is inactive after this pass
	campaigns := make(map[uuid.UUID]bool)

	for _, id := range productIDs {
		product, err := tx.Products().Get(ctx, id)
		if err != nil {
			return nil, notFound(err, "Product")
		}
		if !product.IsCampaignProduct() {
			continue
		}

		switch product.Status {
		case models.ProductStatusInactive:
			if recheck {
				campaigns[*product.CampaignID] = true
			}
			continue
		case models.ProductStatusDiscontinued:
			continue
		}

		delivered, err := tx.Orders().DeliveredQuantity(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to sum delivered quantity: %w", err)
		}
		if delivered < product.TargetQuantity {
			continue
		}

		ok, err := tx.Products().TransitionStatus(ctx, id,
			lifecycle.ProductGraph.Sources(models.ProductStatusInactive),
			models.ProductStatusInactive)
		if err != nil {
			return nil, fmt.Errorf("failed to deactivate product: %w", err)
		}
		if ok {
			campaigns[*product.CampaignID] = true
			result.DeactivatedProducts = append(result.DeactivatedProducts, id)
			logrus.WithFields(logrus.Fields{
				"product_id": id,
				"delivered":  delivered,
				"target":     product.TargetQuantity,
			}).Info("Product reached its sales target")
		}
	}
	campaignIDs := make([]uuid.UUID, 0, len(campaigns))
	for id := range campaigns {
		campaignIDs = append(campaignIDs, id)
	}
	sort.Slice(campaignIDs, func(i, j int) bool { return campaignIDs[i].String() < campaignIDs[j].String() })

	for _, id := range campaignIDs {
		campaign, err := tx.Campaigns().Get(ctx, id)
		if err != nil {
			return nil, notFound(err, "Campaign")
		}
		if campaign.Status != models.CampaignStatusActive {
			continue
		}
		open, err := tx.Products().CountOpenByCampaign(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to count open products: %w", err)
		}
		if open > 0 {
			continue
		}

		completed, err := completeCampaign(ctx, tx, campaign, models.CompletionReasonSalesTarget)
		if err != nil {
			return nil, err
		}
		if completed {
			result.CompletedCampaigns = append(result.CompletedCampaigns, id)
		}
	}
	return result, nil
}
