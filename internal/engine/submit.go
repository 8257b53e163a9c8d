package engine

import (
	"context"
	"time"

	"github.com/linkforge/linkforge/internal/interfaces"
)

// postSubmitWait gives the page time to settle after the submit control
// fires before the success-marker scan. Variable so tests can shorten it.
var postSubmitWait = 2 * time.Second

// Candidate widget patterns tried in order. Specific platform widgets come
// before generic fallbacks.
var (
	commentInputSelectors = []string{
		"textarea#comment",
		"textarea[name='comment']",
		".comment-form textarea",
		"textarea[name='message']",
		"form textarea",
		"[contenteditable='true']",
	}

	submitControlSelectors = []string{
		"input#submit",
		"input[type='submit']",
		".comment-form button[type='submit']",
		"button[type='submit']",
		"form button",
	}

	successMarkers = []string{
		"awaiting moderation",
		"comment has been posted",
		"comment was posted",
		"thank you for your comment",
		"your message has been sent",
		"successfully submitted",
	}
)

// submitResult distinguishes a confirmed submission from an uncertain one.
type submitResult int

const (
	submitFailed submitResult = iota
	submitConfirmed
	submitUncertain
)

// submitComment fills the first matching comment widget with text, invokes
// the first matching submit control, waits for the post-submit page, and
// scans it for a success marker. A missing marker is uncertain, not a
// failure.
func submitComment(ctx context.Context, driver interfaces.PageDriver, text string) submitResult {
	if !fillFirst(ctx, driver, commentInputSelectors, text) {
		return submitFailed
	}
	if !clickFirst(ctx, driver, submitControlSelectors) {
		return submitFailed
	}

	// Scanning immediately would race the post-submit load and read the
	// pre-submit page.
	select {
	case <-time.After(postSubmitWait):
	case <-ctx.Done():
		return submitUncertain
	}

	html, err := driver.HTML(ctx)
	if err != nil {
		return submitUncertain
	}
	if containsAny(html, successMarkers) {
		return submitConfirmed
	}
	return submitUncertain
}
