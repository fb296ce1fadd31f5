// internal/lifecycle/review.go
package lifecycle

import "github.com/javajoker/imi-campaigns/internal/models"

// ReviewGraph is shared by deliverables and content. A rejected item only
// moves again through a new submission.
var ReviewGraph = Graph[models.ReviewStatus]{
	models.ReviewStatusPending:   {models.ReviewStatusSubmitted},
	models.ReviewStatusSubmitted: {models.ReviewStatusApproved, models.ReviewStatusRejected},
	models.ReviewStatusRejected:  {models.ReviewStatusSubmitted},
	models.ReviewStatusApproved:  {models.ReviewStatusPublished},
}

func CheckReview(entity string, from, to models.ReviewStatus) error {
	return check(ReviewGraph, entity, from, to)
}

func IsReviewDecision(status models.ReviewStatus) bool {
	return status == models.ReviewStatusApproved || status == models.ReviewStatusRejected
}

// SubmitDeliverable reports whether a new submission must move the
// deliverable to submitted. A deliverable already awaiting review is left
// alone; one that was approved or published cannot take new content.
func SubmitDeliverable(current models.ReviewStatus) (bool, error) {
	switch current {
	case models.ReviewStatusPending, models.ReviewStatusRejected:
		return true, nil
	case models.ReviewStatusSubmitted:
		return false, nil
	default:
		return false, &TransitionError{Entity: "deliverable", From: string(current), To: string(models.ReviewStatusSubmitted)}
	}
}

// Reconcile reports whether a deliverable in current must be written to
// match its content at target.
func Reconcile(current, target models.ReviewStatus) (bool, error) {
	if current == target {
		return false, nil
	}
	if err := CheckReview("deliverable", current, target); err != nil {
		return false, err
	}
	return true, nil
}

// CanPublish accepts approved content, or content whose deliverable was
// approved or published on its own. Published content is never published
// again.
func CanPublish(content models.ReviewStatus, deliverable *models.ReviewStatus) bool {
	if content == models.ReviewStatusPublished {
		return false
	}
	if content == models.ReviewStatusApproved {
		return true
	}
	if deliverable == nil {
		return false
	}
	return *deliverable == models.ReviewStatusApproved || *deliverable == models.ReviewStatusPublished
}
