package models

import "time"

// InstanceStatus represents the browser automation instance lifecycle.
type InstanceStatus string

const (
	InstanceStatusInitializing InstanceStatus = "initializing"
	InstanceStatusIdle         InstanceStatus = "idle"
	InstanceStatusWorking      InstanceStatus = "working"
	InstanceStatusError        InstanceStatus = "error"
	InstanceStatusPaused       InstanceStatus = "paused"
)

// InstanceInfo is a point-in-time snapshot of a pooled browser instance,
// returned by the pool's stats and listing APIs.
type InstanceInfo struct {
	CampaignID    string         `json:"campaign_id"`
	CampaignName  string         `json:"campaign_name"`
	Status        InstanceStatus `json:"status"`
	LastActivity  time.Time      `json:"last_activity"`
	ProcessedJobs int            `json:"processed_jobs"`
	ErrorCount    int            `json:"error_count"`
	Errors        []string       `json:"errors,omitempty"`
}

// PoolStats is the aggregate pool snapshot.
type PoolStats struct {
	MaxInstances    int `json:"max_instances"`
	ActiveInstances int `json:"active_instances"`
	Working         int `json:"working"`
	Idle            int `json:"idle"`
	Errored         int `json:"errored"`
	Paused          int `json:"paused"`
}
