// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess = "success"
	KeyError   = "error"

	// Authentication
	KeyAuthRequired     = "auth.required"
	KeyAuthInvalidToken = "auth.invalid_token"
	KeyAuthTokenExpired = "auth.token_expired"
	KeyAccessDenied     = "auth.access_denied"
	KeyRateLimited      = "auth.rate_limited"

	// Validation
	KeyValidationInvalid  = "validation.invalid"
	KeyValidationRequired = "validation.required"

	// Campaigns
	KeyCampaignCreated       = "campaign.created"
	KeyCampaignNotFound      = "campaign.not_found"
	KeyCampaignStatusUpdated = "campaign.status_updated"
	KeyCampaignsCompleted    = "campaign.completed"

	// Collaborations
	KeyCollaborationNotFound  = "collaboration.not_found"
	KeyCollaborationApplied   = "collaboration.applied"
	KeyCollaborationInvited   = "collaboration.invited"
	KeyCollaborationResponded = "collaboration.responded"
	KeyDeliverableNotFound    = "deliverable.not_found"
	KeyDeliverablesUpdated    = "deliverable.updated"

	// Content
	KeyContentNotFound  = "content.not_found"
	KeyContentSubmitted = "content.submitted"
	KeyContentReviewed  = "content.reviewed"
	KeyContentPublished = "content.published"

	// Products and orders
	KeyProductNotFound    = "product.not_found"
	KeyProductCreated     = "product.created"
	KeyOrderNotFound      = "order.not_found"
	KeyOrderPlaced        = "order.placed"
	KeyOrderStatusUpdated = "order.status_updated"
	KeyPaymentConfirmed   = "payment.confirmed"

	// Notifications
	KeyNotificationNotFound = "notification.not_found"

	// Users
	KeyUserNotFound       = "user.not_found"
	KeyUserRegistered     = "user.registered"
	KeyUserProfileUpdated = "user.profile_updated"
)
