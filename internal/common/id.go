package common

import (
	"github.com/google/uuid"
)

// NewCampaignID generates a unique campaign ID with the "cmp_" prefix
// Format: cmp_<uuid>
func NewCampaignID() string {
	return "cmp_" + uuid.New().String()
}

// NewJobID generates a unique posting job ID with the "job_" prefix
func NewJobID() string {
	return "job_" + uuid.New().String()
}

// NewAccountID generates a unique account ID with the "acc_" prefix
func NewAccountID() string {
	return "acc_" + uuid.New().String()
}

// NewNodeID generates a processing node ID with the "node_" prefix
func NewNodeID() string {
	return "node_" + uuid.New().String()[:8]
}
