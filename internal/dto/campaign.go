package dto

import "github.com/noah-isme/youth-sports-api/internal/models"

// CampaignSendRequest configures one campaign send.
type CampaignSendRequest struct {
	// Limit caps the number of recipients; zero means all.
	Limit int `json:"limit" validate:"gte=0"`
	// TestEmail reroutes every message to this address. The run is recorded as a
	// test run without per-recipient deliveries and the run key is ignored.
	TestEmail string `json:"testEmail" validate:"omitempty,email"`
	// RunKey makes repeated sends idempotent: recipients already sent under
	// the same key are skipped.
	RunKey string `json:"runKey" validate:"omitempty,max=120"`
	// DelayMs overrides the configured pause between sends.
	DelayMs *int `json:"delayMs" validate:"omitempty,gte=0,lte=60000"`
}

// CampaignPreviewResponse lists who would receive a campaign.
type CampaignPreviewResponse struct {
	Campaign   models.CampaignKind        `json:"campaign"`
	Total      int                        `json:"total"`
	Recipients []models.CampaignRecipient `json:"recipients"`
}

// CampaignError is one failed delivery.
type CampaignError struct {
	Email string `json:"email"`
	Error string `json:"error"`
}

// CampaignSendResult is the observable outcome of a send.
type CampaignSendResult struct {
	Campaign  models.CampaignKind `json:"campaign"`
	RunID     string              `json:"runId,omitempty"`
	TestMode  bool                `json:"testMode"`
	Matched   int                 `json:"matched"`
	Attempted int                 `json:"attempted"`
	Sent      int                 `json:"sent"`
	Failed    int                 `json:"failed"`
	Skipped   int                 `json:"skipped"`
	Errors    []CampaignError     `json:"errors"`
}
