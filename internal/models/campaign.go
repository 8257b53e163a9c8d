// -----------------------------------------------------------------------
// Campaign models - queued campaign lifecycle and configuration
// -----------------------------------------------------------------------

package models

import (
	"time"

	"github.com/linkforge/linkforge/internal/common"
)

// Priority determines queue ordering for campaigns.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Weight returns the numeric scheduling weight for a priority.
// Unknown priorities weigh the same as low.
func (p Priority) Weight() int {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	default:
		return 1
	}
}

// CampaignStatus represents the scheduler-owned campaign lifecycle.
//
// Lifecycle: queued -> processing -> {completed | failed}
// with paused and retry as re-queueable intermediate states.
type CampaignStatus string

const (
	CampaignStatusQueued     CampaignStatus = "queued"
	CampaignStatusProcessing CampaignStatus = "processing"
	CampaignStatusPaused     CampaignStatus = "paused"
	CampaignStatusCompleted  CampaignStatus = "completed"
	CampaignStatusFailed     CampaignStatus = "failed"
	CampaignStatusRetry      CampaignStatus = "retry"
)

// StrategyType identifies one category of link-building action.
// The set is closed - the strategy factory dispatches over these tags.
type StrategyType string

const (
	StrategyBlogComment   StrategyType = "blog-comment"
	StrategyForumProfile  StrategyType = "forum-profile"
	StrategyWeb2Platform  StrategyType = "web2-platform"
	StrategySocialProfile StrategyType = "social-profile"
	StrategyContactForm   StrategyType = "contact-form"
	StrategyGuestPost     StrategyType = "guest-post"
	StrategyResourcePage  StrategyType = "resource-page"
	StrategyBrokenLink    StrategyType = "broken-link"
)

// AllStrategyTypes lists every dispatchable strategy tag.
var AllStrategyTypes = []StrategyType{
	StrategyBlogComment,
	StrategyForumProfile,
	StrategyWeb2Platform,
	StrategySocialProfile,
	StrategyContactForm,
	StrategyGuestPost,
	StrategyResourcePage,
	StrategyBrokenLink,
}

// StrategyConfig is the per-strategy slice of a campaign configuration.
// Declared order in CampaignConfig.Strategies is the execution order.
type StrategyConfig struct {
	Type             StrategyType `json:"type" yaml:"type" validate:"required"`
	Enabled          bool         `json:"enabled" yaml:"enabled"`
	Weight           int          `json:"weight" yaml:"weight"`
	DailyLimit       int          `json:"daily_limit" yaml:"daily_limit"`
	QualityThreshold int          `json:"quality_threshold" yaml:"quality_threshold" validate:"gte=0,lte=100"`
	Instructions     string       `json:"instructions" yaml:"instructions"`
}

// ContentPreferences steer contextual content generation.
type ContentPreferences struct {
	Tone      string `json:"tone" yaml:"tone"`
	Language  string `json:"language" yaml:"language"`
	MinLength int    `json:"min_length" yaml:"min_length"`
	MaxLength int    `json:"max_length" yaml:"max_length"`
}

// QualityFilters restrict which target pages are acceptable.
type QualityFilters struct {
	MinDomainAuthority int      `json:"min_domain_authority" yaml:"min_domain_authority"`
	ExcludeDomains     []string `json:"exclude_domains" yaml:"exclude_domains"`
}

// TimingWindow bounds the hours of day automation may run.
type TimingWindow struct {
	StartHour int `json:"start_hour" yaml:"start_hour" validate:"gte=0,lte=23"`
	EndHour   int `json:"end_hour" yaml:"end_hour" validate:"gte=0,lte=23"`
}

// AntiDetectionPolicy controls pacing and fingerprint variance.
type AntiDetectionPolicy struct {
	RotateUserAgents bool `json:"rotate_user_agents" yaml:"rotate_user_agents"`
	RandomizeDelays  bool `json:"randomize_delays" yaml:"randomize_delays"`
}

// CampaignConfig is the user-authored automation spec. It is created by the
// caller at submission and immutable for the duration of a run.
type CampaignConfig struct {
	Name             string              `json:"name" yaml:"name" validate:"required"`
	TargetURL        string              `json:"target_url" yaml:"target_url" validate:"required,url"`
	Keywords         []string            `json:"keywords" yaml:"keywords" validate:"required,min=1"`
	AnchorTexts      []string            `json:"anchor_texts" yaml:"anchor_texts"`
	DailyLimit       int                 `json:"daily_limit" yaml:"daily_limit" validate:"gte=1"`
	TotalLinksTarget int                 `json:"total_links_target" yaml:"total_links_target" validate:"gte=1"`
	Strategies       []StrategyConfig    `json:"strategies" yaml:"strategies" validate:"required,min=1,dive"`
	Content          ContentPreferences  `json:"content" yaml:"content"`
	Filters          QualityFilters      `json:"filters" yaml:"filters"`
	Timing           TimingWindow        `json:"timing" yaml:"timing"`
	AntiDetection    AntiDetectionPolicy `json:"anti_detection" yaml:"anti_detection"`
}

// EnabledStrategies returns the enabled strategies in declared order.
func (c *CampaignConfig) EnabledStrategies() []StrategyConfig {
	enabled := make([]StrategyConfig, 0, len(c.Strategies))
	for _, s := range c.Strategies {
		if s.Enabled {
			enabled = append(enabled, s)
		}
	}
	return enabled
}

// QueuedCampaign is the scheduling wrapper around a CampaignConfig.
// It is owned exclusively by the scheduler and mutated only by the
// scheduler and its processing nodes.
type QueuedCampaign struct {
	ID                 string         `json:"id" badgerhold:"key"`
	OwnerID            string         `json:"owner_id" badgerhold:"index"`
	Config             CampaignConfig `json:"config"`
	Priority           Priority       `json:"priority"`
	Status             CampaignStatus `json:"status" badgerhold:"index"`
	RetryCount         int            `json:"retry_count"`
	MaxRetries         int            `json:"max_retries"`
	ScheduledAt        time.Time      `json:"scheduled_at"`
	StartedAt          *time.Time     `json:"started_at,omitempty"`
	CompletedAt        *time.Time     `json:"completed_at,omitempty"`
	ProcessingNode     string         `json:"processing_node,omitempty"`
	ProgressPercentage float64        `json:"progress_percentage"`
	ErrorMessage       string         `json:"error_message,omitempty"`
	EstimatedDuration  time.Duration  `json:"estimated_duration"`
	ActualDuration     time.Duration  `json:"actual_duration"`
	CreatedAt          time.Time      `json:"created_at"`
}

// NewQueuedCampaign creates a queued campaign for the given config and owner.
func NewQueuedCampaign(config CampaignConfig, ownerID string, priority Priority, maxRetries int) *QueuedCampaign {
	now := time.Now()
	return &QueuedCampaign{
		ID:          common.NewCampaignID(),
		OwnerID:     ownerID,
		Config:      config,
		Priority:    priority,
		Status:      CampaignStatusQueued,
		MaxRetries:  maxRetries,
		ScheduledAt: now,
		CreatedAt:   now,
	}
}

// IsTerminal reports whether the campaign has reached a final status.
func (c *QueuedCampaign) IsTerminal() bool {
	return c.Status == CampaignStatusCompleted || c.Status == CampaignStatusFailed
}

// QueueStats is the aggregate scheduler snapshot returned by GetQueueStats.
type QueueStats struct {
	Total         int `json:"total"`
	Queued        int `json:"queued"`
	Processing    int `json:"processing"`
	Completed     int `json:"completed"`
	Failed        int `json:"failed"`
	TotalCapacity int `json:"total_capacity"`
	UsedCapacity  int `json:"used_capacity"`
}
