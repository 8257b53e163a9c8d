package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/linkforge/linkforge/internal/interfaces"
	"github.com/linkforge/linkforge/internal/models"
)

// CommentEngine executes posting jobs against live pages: platform
// detection, context extraction, contextual content generation, login where
// the platform requires it, and submission with session persistence.
type CommentEngine struct {
	content  interfaces.ContentGenerator
	accounts interfaces.AccountStorage
	logger   arbor.ILogger
}

// NewCommentEngine wires the engine's collaborators.
func NewCommentEngine(content interfaces.ContentGenerator, accounts interfaces.AccountStorage, logger arbor.ILogger) *CommentEngine {
	return &CommentEngine{
		content:  content,
		accounts: accounts,
		logger:   logger,
	}
}

// ExecuteJob runs one posting job end to end and returns its terminal
// status with a detail message for failures.
func (e *CommentEngine) ExecuteJob(ctx context.Context, driver interfaces.PageDriver, job *models.PostingJob) (models.JobStatus, string) {
	platform := DetectPlatform(job.TargetPageURL)

	e.logger.Debug().
		Str("job_id", job.ID).
		Str("platform", string(platform)).
		Str("target_page", job.TargetPageURL).
		Msg("Executing posting job")

	var account *models.Account
	if requiresAccount(platform) {
		var outcome LoginOutcome
		account, outcome = e.authenticate(ctx, driver, platform, job)
		switch outcome {
		case LoginNeedsVerification:
			// Terminal: the session must not be retried automatically.
			return models.JobStatusNeedsVerification, "platform requires manual email verification"
		case LoginFailed:
			return models.JobStatusFailed, fmt.Sprintf("login to %s failed", platform)
		}
	}

	if err := driver.Navigate(ctx, job.TargetPageURL); err != nil {
		return models.JobStatusFailed, fmt.Sprintf("navigate: %v", err)
	}

	text := job.Payload
	if text == "" {
		text = e.generateContent(ctx, driver, job)
	}

	switch submitComment(ctx, driver, text) {
	case submitFailed:
		return models.JobStatusFailed, "no comment widget or submit control found"
	case submitUncertain:
		// No success marker: uncertain outcome, flagged for review rather
		// than failed or retried.
		return models.JobStatusNeedsVerification, "submission result unconfirmed"
	}

	if account != nil {
		e.persistSession(ctx, driver, account)
	}

	e.logger.Info().
		Str("job_id", job.ID).
		Str("platform", string(platform)).
		Msg("Job posted")
	return models.JobStatusPosted, ""
}

// generateContent extracts page context and asks the generator for comment
// text, falling back to a deterministic template. Generation never fails
// the job.
func (e *CommentEngine) generateContent(ctx context.Context, driver interfaces.PageDriver, job *models.PostingJob) string {
	var pageCtx PageContext
	if html, err := driver.HTML(ctx); err == nil {
		pageCtx = ExtractContext(html)
	}

	if e.content != nil {
		text, err := e.content.GenerateComment(ctx, interfaces.ContentRequest{
			PageTitle:  pageCtx.Title,
			PageBody:   pageCtx.Body,
			Keyword:    job.Keyword,
			TargetURL:  job.TargetURL,
			AnchorText: job.AnchorText,
		})
		if err == nil && text != "" {
			return text
		}
		if err != nil {
			e.logger.Warn().Err(err).Str("job_id", job.ID).Msg("Content generation failed, using template")
		}
	}

	return fmt.Sprintf("Great write-up on %s. I cover a related angle here: %s", job.Keyword, job.TargetURL)
}

// authenticate finds or creates the platform account and runs the login
// flow. A job pinned to an account id uses that account only.
func (e *CommentEngine) authenticate(ctx context.Context, driver interfaces.PageDriver, platform models.Platform, job *models.PostingJob) (*models.Account, LoginOutcome) {
	if e.accounts == nil {
		return nil, LoginFailed
	}

	var account *models.Account
	var err error
	if job.AccountID != "" {
		account, err = e.accounts.GetAccount(ctx, job.AccountID)
	} else {
		account, err = e.accounts.FindAccount(ctx, platform)
	}
	if err != nil {
		if !errors.Is(err, interfaces.ErrNotFound) {
			e.logger.Warn().Err(err).Str("platform", string(platform)).Msg("Account lookup failed")
		}
		return nil, LoginFailed
	}

	outcome := e.login(ctx, driver, platform, account, job.TargetPageURL)

	account.Touch()
	if outcome == LoginAuthenticated {
		job.AccountID = account.ID
	}
	if err := e.accounts.SaveAccount(ctx, account); err != nil {
		e.logger.Warn().Err(err).Str("account_id", account.ID).Msg("Failed to persist account use")
	}

	return account, outcome
}

// persistSession saves the driver's cookie jar to the account after a
// successful authenticated submission.
func (e *CommentEngine) persistSession(ctx context.Context, driver interfaces.PageDriver, account *models.Account) {
	blob, err := driver.Cookies(ctx)
	if err != nil {
		e.logger.Warn().Err(err).Str("account_id", account.ID).Msg("Failed to read session cookies")
		return
	}

	account.SessionBlob = blob
	account.Touch()
	if err := e.accounts.SaveAccount(ctx, account); err != nil {
		e.logger.Warn().Err(err).Str("account_id", account.ID).Msg("Failed to persist session")
	}
}

var _ interfaces.JobExecutor = (*CommentEngine)(nil)
