// internal/lifecycle/progress.go
package lifecycle

import "github.com/javajoker/imi-campaigns/internal/models"

// IsDone counts published deliverables as approved, so publishing never
// lowers progress.
func IsDone(status models.ReviewStatus) bool {
	return status == models.ReviewStatusApproved || status == models.ReviewStatusPublished
}

// Progress is round(100 * done / total), half up, in [0,100]. An empty list
// has no progress.
func Progress(statuses []models.ReviewStatus) int {
	total := len(statuses)
	if total == 0 {
		return 0
	}

	done := 0
	for _, s := range statuses {
		if IsDone(s) {
			done++
		}
	}

	p := (200*done + total) / (2 * total)
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

func DeliverableProgress(deliverables []models.Deliverable) int {
	statuses := make([]models.ReviewStatus, len(deliverables))
	for i := range deliverables {
		statuses[i] = deliverables[i].Status
	}
	return Progress(statuses)
}
