package interfaces

import "context"

// EventType classifies engine events published to subscribers.
type EventType string

const (
	EventCampaignEnqueued EventType = "campaign_enqueued"
	EventCampaignStatus   EventType = "campaign_status"
	EventCampaignProgress EventType = "campaign_progress"
	EventCampaignDeleted  EventType = "campaign_deleted"
	EventJobStatus        EventType = "job_status"
	EventInstanceStatus   EventType = "instance_status"
	EventNodeUnhealthy    EventType = "node_unhealthy"
)

// Event is a loosely typed engine event.
type Event struct {
	Type    EventType              `json:"type"`
	Payload map[string]interface{} `json:"payload"`
}

// EventService fans engine events out to subscribers (websocket clients).
// Publish must never block engine progress; implementations drop events
// for slow subscribers.
type EventService interface {
	Publish(ctx context.Context, event Event) error
	Subscribe() (<-chan Event, func())
}
