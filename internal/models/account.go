package models

import (
	"time"

	"github.com/linkforge/linkforge/internal/common"
)

// Platform identifies the target-platform variant a page was classified as.
// The set is closed; unmatched hosts fall into PlatformGeneric.
type Platform string

const (
	PlatformWordPress Platform = "wordpress"
	PlatformBlogger   Platform = "blogger"
	PlatformMedium    Platform = "medium"
	PlatformTumblr    Platform = "tumblr"
	PlatformDiscourse Platform = "discourse"
	PlatformGeneric   Platform = "generic"
)

// Account is a reusable identity/session for an external platform.
// Created on first successful login, updated by the comment engine.
type Account struct {
	ID          string     `json:"id" badgerhold:"key"`
	Platform    Platform   `json:"platform" badgerhold:"index"`
	Email       string     `json:"email"`
	SessionBlob string     `json:"session_blob,omitempty"` // Serialized cookie jar from the browser context
	Verified    bool       `json:"verified"`
	LastUsedAt  *time.Time `json:"last_used_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// NewAccount creates an unverified account for a platform.
func NewAccount(platform Platform, email string) *Account {
	return &Account{
		ID:        common.NewAccountID(),
		Platform:  platform,
		Email:     email,
		CreatedAt: time.Now(),
	}
}

// Touch records account use.
func (a *Account) Touch() {
	now := time.Now()
	a.LastUsedAt = &now
}
