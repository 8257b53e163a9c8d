package engine

import (
	"net/url"
	"strings"

	"github.com/linkforge/linkforge/internal/models"
)

// hostPatterns maps host substrings to platform variants, checked in order.
// First match wins; unmatched hosts are generic.
var hostPatterns = []struct {
	pattern  string
	platform models.Platform
}{
	{"wordpress.com", models.PlatformWordPress},
	{"wp.com", models.PlatformWordPress},
	{"blogspot.", models.PlatformBlogger},
	{"blogger.com", models.PlatformBlogger},
	{"medium.com", models.PlatformMedium},
	{"tumblr.com", models.PlatformTumblr},
	{"discourse.", models.PlatformDiscourse},
	{"community.", models.PlatformDiscourse},
	{"forum.", models.PlatformDiscourse},
}

// DetectPlatform classifies a target URL by host pattern.
func DetectPlatform(rawURL string) models.Platform {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return models.PlatformGeneric
	}

	host := strings.ToLower(parsed.Host)
	for _, entry := range hostPatterns {
		if strings.Contains(host, entry.pattern) {
			return entry.platform
		}
	}
	return models.PlatformGeneric
}

// requiresAccount reports whether the platform needs an authenticated
// session before submission.
func requiresAccount(platform models.Platform) bool {
	switch platform {
	case models.PlatformMedium, models.PlatformTumblr, models.PlatformDiscourse:
		return true
	}
	return false
}
