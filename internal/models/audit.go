package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditEntry records a campaign lifecycle action for later review.
// Audit writes are best-effort: a failed write never fails the
// operation that produced it.
type AuditEntry struct {
	ID         string                 `json:"id" badgerhold:"key"`
	CampaignID string                 `json:"campaign_id" badgerhold:"index"`
	Action     string                 `json:"action"` // e.g. "enqueued", "deleted", "force_stopped"
	Actor      string                 `json:"actor"`  // owner id or "scheduler"
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

// NewAuditEntry creates an audit entry for a campaign action.
func NewAuditEntry(campaignID, action, actor, message string) *AuditEntry {
	return &AuditEntry{
		ID:         "aud_" + uuid.New().String(),
		CampaignID: campaignID,
		Action:     action,
		Actor:      actor,
		Message:    message,
		CreatedAt:  time.Now(),
	}
}
