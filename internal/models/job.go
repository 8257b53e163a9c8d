package models

import (
	"time"

	"github.com/linkforge/linkforge/internal/common"
)

// JobStatus represents the posting job lifecycle.
//
// Transitions: pending -> approved -> processing -> {posted | failed | needs_verification}
// A job never regresses to an earlier status.
type JobStatus string

const (
	JobStatusPending           JobStatus = "pending"
	JobStatusApproved          JobStatus = "approved"
	JobStatusProcessing        JobStatus = "processing"
	JobStatusPosted            JobStatus = "posted"
	JobStatusFailed            JobStatus = "failed"
	JobStatusNeedsVerification JobStatus = "needs_verification"
)

// jobStatusRank orders statuses along the legal transition path.
var jobStatusRank = map[JobStatus]int{
	JobStatusPending:           0,
	JobStatusApproved:          1,
	JobStatusProcessing:        2,
	JobStatusPosted:            3,
	JobStatusFailed:            3,
	JobStatusNeedsVerification: 3,
}

// CanTransition reports whether moving from s to next is a legal
// forward transition.
func (s JobStatus) CanTransition(next JobStatus) bool {
	from, ok := jobStatusRank[s]
	if !ok {
		return false
	}
	to, ok := jobStatusRank[next]
	if !ok {
		return false
	}
	return to > from
}

// IsTerminal reports whether the status is final for the job.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusPosted || s == JobStatusFailed || s == JobStatusNeedsVerification
}

// PostingJob is one discrete automation task: navigate to a target page,
// generate contextual content and submit it with the campaign's link.
// Created by a strategy handler or external submitter, consumed by a
// browser instance.
type PostingJob struct {
	ID            string       `json:"id" badgerhold:"key"`
	CampaignID    string       `json:"campaign_id" badgerhold:"index"`
	Strategy      StrategyType `json:"strategy"`
	TargetPageURL string       `json:"target_page_url"`
	Keyword       string       `json:"keyword"`
	TargetURL     string       `json:"target_url"`
	AnchorText    string       `json:"anchor_text,omitempty"`

	// Payload carries prepared content for strategies that draft ahead of
	// submission (guest-post pitches). Empty for engine-generated content.
	Payload string `json:"payload,omitempty"`

	AccountID    string     `json:"account_id,omitempty"`
	Status       JobStatus  `json:"status" badgerhold:"index"`
	ErrorMessage string     `json:"error_message,omitempty"`
	PostedAt     *time.Time `json:"posted_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// NewPostingJob creates a pending job for a campaign target page.
func NewPostingJob(campaignID string, strategy StrategyType, targetPageURL, keyword, targetURL string) *PostingJob {
	return &PostingJob{
		ID:            common.NewJobID(),
		CampaignID:    campaignID,
		Strategy:      strategy,
		TargetPageURL: targetPageURL,
		Keyword:       keyword,
		TargetURL:     targetURL,
		Status:        JobStatusPending,
		CreatedAt:     time.Now(),
	}
}
