// internal/lifecycle/graph.go
package lifecycle

import (
	"fmt"

	"github.com/javajoker/imi-campaigns/internal/models"
)

// Graph lists the legal successors of every state.
type Graph[S ~string] map[S][]S

func (g Graph[S]) Can(from, to S) bool {
	for _, next := range g[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Sources returns every state that may move to the given state, in no
// particular order.
func (g Graph[S]) Sources(to S) []S {
	var sources []S
	for from, nexts := range g {
		for _, next := range nexts {
			if next == to {
				sources = append(sources, from)
				break
			}
		}
	}
	return sources
}

// TransitionError reports a move the graph does not allow.
type TransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s cannot move from %s to %s", e.Entity, e.From, e.To)
}

func check[S ~string](g Graph[S], entity string, from, to S) error {
	if !g.Can(from, to) {
		return &TransitionError{Entity: entity, From: string(from), To: string(to)}
	}
	return nil
}

var CampaignGraph = Graph[models.CampaignStatus]{
	models.CampaignStatusDraft: {
		models.CampaignStatusRequest,
		models.CampaignStatusInfluencerInvite,
		models.CampaignStatusBrandInvite,
		models.CampaignStatusActive,
		models.CampaignStatusCancelled,
	},
	models.CampaignStatusRequest:          {models.CampaignStatusActive, models.CampaignStatusCancelled},
	models.CampaignStatusInfluencerInvite: {models.CampaignStatusActive, models.CampaignStatusCancelled},
	models.CampaignStatusBrandInvite:      {models.CampaignStatusActive, models.CampaignStatusCancelled},
	models.CampaignStatusActive:           {models.CampaignStatusCompleted, models.CampaignStatusCancelled},
}

var CollaborationGraph = Graph[models.CollaborationStatus]{
	models.CollaborationStatusRequest:          {models.CollaborationStatusActive, models.CollaborationStatusCancelled},
	models.CollaborationStatusBrandInvite:      {models.CollaborationStatusActive, models.CollaborationStatusCancelled},
	models.CollaborationStatusInfluencerInvite: {models.CollaborationStatusActive, models.CollaborationStatusCancelled},
	models.CollaborationStatusActive:           {models.CollaborationStatusCompleted, models.CollaborationStatusCancelled},
}

var OrderGraph = Graph[models.OrderStatus]{
	models.OrderStatusPending:   {models.OrderStatusConfirmed, models.OrderStatusCancelled},
	models.OrderStatusConfirmed: {models.OrderStatusShipped, models.OrderStatusCancelled},
	models.OrderStatusShipped:   {models.OrderStatusDelivered},
}

// ProductGraph never leads back to active from inactive.
var ProductGraph = Graph[models.ProductStatus]{
	models.ProductStatusDraft:      {models.ProductStatusActive, models.ProductStatusDiscontinued},
	models.ProductStatusActive:     {models.ProductStatusInactive, models.ProductStatusOutOfStock, models.ProductStatusDiscontinued},
	models.ProductStatusOutOfStock: {models.ProductStatusInactive, models.ProductStatusDiscontinued},
	models.ProductStatusInactive:   {models.ProductStatusDiscontinued},
}

func CheckCampaign(from, to models.CampaignStatus) error {
	return check(CampaignGraph, "campaign", from, to)
}

func CheckCollaboration(from, to models.CollaborationStatus) error {
	return check(CollaborationGraph, "collaboration", from, to)
}

func CheckOrder(from, to models.OrderStatus) error {
	return check(OrderGraph, "order", from, to)
}

func CheckProduct(from, to models.ProductStatus) error {
	return check(ProductGraph, "product", from, to)
}

// ClosedProductStatuses are the states that count as finished for the
// campaign completion check.
var ClosedProductStatuses = []models.ProductStatus{
	models.ProductStatusInactive,
	models.ProductStatusOutOfStock,
	models.ProductStatusDiscontinued,
}

func IsProductClosed(status models.ProductStatus) bool {
	for _, s := range ClosedProductStatuses {
		if s == status {
			return true
		}
	}
	return false
}
