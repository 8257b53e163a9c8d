package engine

import (
	"context"
	"net/url"
	"strings"

	"github.com/linkforge/linkforge/internal/interfaces"
	"github.com/linkforge/linkforge/internal/models"
)

// LoginOutcome is the result of an email-based login attempt.
type LoginOutcome string

const (
	LoginAuthenticated LoginOutcome = "authenticated"
	// LoginNeedsVerification is terminal for the job: the platform sent a
	// verification mail and the session must not be retried automatically.
	LoginNeedsVerification LoginOutcome = "needs-manual-verification"
	LoginFailed            LoginOutcome = "failed"
)

// loginSpec describes a platform's email login flow.
type loginSpec struct {
	loginURL        string
	emailSelectors  []string
	submitSelectors []string
}

var loginSpecs = map[models.Platform]loginSpec{
	models.PlatformMedium: {
		loginURL:        "https://medium.com/m/signin",
		emailSelectors:  []string{"input[name='email']", "input[type='email']"},
		submitSelectors: []string{"button[type='submit']", "button[data-action='sign-in']"},
	},
	models.PlatformTumblr: {
		loginURL:        "https://www.tumblr.com/login",
		emailSelectors:  []string{"input[name='email']", "input[type='email']"},
		submitSelectors: []string{"button[type='submit']"},
	},
	models.PlatformDiscourse: {
		loginURL:        "/login",
		emailSelectors:  []string{"#login-account-name", "input[name='login']"},
		submitSelectors: []string{"#login-button", "button[type='submit']"},
	},
}

// Markers scanned in the post-login page, lowercase.
var (
	verificationMarkers = []string{
		"verify your email",
		"check your inbox",
		"confirmation link",
		"confirm your account",
	}
	authenticatedMarkers = []string{
		"sign out",
		"log out",
		"logout",
		"dashboard",
		"my account",
	}
)

// login performs the platform's email login flow. A restored session that
// still looks authenticated short-circuits the form flow.
func (e *CommentEngine) login(ctx context.Context, driver interfaces.PageDriver, platform models.Platform, account *models.Account, targetPageURL string) LoginOutcome {
	spec, ok := loginSpecs[platform]
	if !ok {
		return LoginFailed
	}

	if account.SessionBlob != "" {
		if err := driver.RestoreCookies(ctx, account.SessionBlob); err != nil {
			e.logger.Warn().Err(err).Str("account_id", account.ID).Msg("Failed to restore session, falling back to form login")
		}
	}

	if err := driver.Navigate(ctx, resolveLoginURL(spec.loginURL, targetPageURL)); err != nil {
		return LoginFailed
	}

	html, err := driver.HTML(ctx)
	if err != nil {
		return LoginFailed
	}
	if containsAny(html, authenticatedMarkers) {
		return LoginAuthenticated
	}

	if !fillFirst(ctx, driver, spec.emailSelectors, account.Email) {
		return LoginFailed
	}
	if !clickFirst(ctx, driver, spec.submitSelectors) {
		return LoginFailed
	}

	html, err = driver.HTML(ctx)
	if err != nil {
		return LoginFailed
	}

	switch {
	case containsAny(html, verificationMarkers):
		return LoginNeedsVerification
	case containsAny(html, authenticatedMarkers):
		return LoginAuthenticated
	default:
		return LoginFailed
	}
}

// resolveLoginURL makes a path-only login URL absolute against the target
// page's host. Self-hosted platforms like Discourse have no fixed domain, so
// their specs carry a path and the host comes from the job.
func resolveLoginURL(loginURL, targetPageURL string) string {
	ref, err := url.Parse(loginURL)
	if err != nil || ref.IsAbs() {
		return loginURL
	}
	base, err := url.Parse(targetPageURL)
	if err != nil || base.Host == "" {
		return loginURL
	}
	return base.ResolveReference(ref).String()
}

func containsAny(html string, markers []string) bool {
	lowered := strings.ToLower(html)
	for _, marker := range markers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}

// fillFirst fills the first selector that accepts input.
func fillFirst(ctx context.Context, driver interfaces.PageDriver, selectors []string, value string) bool {
	for _, selector := range selectors {
		if err := driver.FillInput(ctx, selector, value); err == nil {
			return true
		}
	}
	return false
}

// clickFirst clicks the first selector that resolves.
func clickFirst(ctx context.Context, driver interfaces.PageDriver, selectors []string) bool {
	for _, selector := range selectors {
		if err := driver.Click(ctx, selector); err == nil {
			return true
		}
	}
	return false
}
